// Package logging builds the application logger: a rotated file under the
// config directory, mirrored to stderr in debug mode.
package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"
	"gopkg.in/natefinch/lumberjack.v2"
)

// FileName is the log file inside <dir>/logs.
const FileName = "jamaat.log"

// Config holds logger configuration.
type Config struct {
	Debug bool
	// Dir is the config directory; logs go to Dir/logs.
	Dir string
	// Stderr receives a copy of every line in debug mode. Defaults to os.Stderr.
	Stderr io.Writer
}

// Logger wraps the charm logger and the rotating file behind it.
type Logger struct {
	*log.Logger
	file *lumberjack.Logger
}

// New creates the logger. Level is warn, or debug when cfg.Debug is set.
func New(cfg Config) (*Logger, error) {
	logDir := filepath.Join(cfg.Dir, "logs")
	if err := os.MkdirAll(logDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}

	fileWriter := &lumberjack.Logger{
		Filename:   filepath.Join(logDir, FileName),
		MaxSize:    5, // megabytes
		MaxBackups: 3,
		MaxAge:     28, // days
		Compress:   true,
	}

	level := log.WarnLevel
	var writer io.Writer = fileWriter
	if cfg.Debug {
		level = log.DebugLevel
		stderr := cfg.Stderr
		if stderr == nil {
			stderr = os.Stderr
		}
		writer = io.MultiWriter(stderr, fileWriter)
	}

	l := log.NewWithOptions(writer, log.Options{
		ReportCaller:    cfg.Debug,
		ReportTimestamp: true,
		Level:           level,
		Prefix:          "jamaat",
	})
	return &Logger{Logger: l, file: fileWriter}, nil
}

// Discard returns a logger that writes nowhere.
func Discard() *Logger {
	return &Logger{Logger: log.New(io.Discard)}
}

// Close flushes and closes the log file.
func (l *Logger) Close() error {
	if l.file == nil {
		return nil
	}
	return l.file.Close()
}
