// Package display provides terminal styling for the plain (non-TUI) commands.
//
// It respects the NO_COLOR environment variable (https://no-color.org/) and
// detects whether stdout is a terminal. Colors are automatically disabled when
// output is piped or redirected, or when NO_COLOR is set.
package display

import (
	"fmt"
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
)

// renderer owns the color profile all styles render through, so SetEnabled
// flips every style at once.
var renderer = lipgloss.NewRenderer(os.Stdout)

var (
	boldStyle   = renderer.NewStyle().Bold(true)
	dimStyle    = renderer.NewStyle().Faint(true)
	greenStyle  = renderer.NewStyle().Foreground(lipgloss.Color("2"))
	yellowStyle = renderer.NewStyle().Foreground(lipgloss.Color("3"))
	cyanStyle   = renderer.NewStyle().Foreground(lipgloss.Color("6"))
	grayStyle   = renderer.NewStyle().Foreground(lipgloss.Color("8"))
	accentStyle = renderer.NewStyle().Foreground(lipgloss.Color("6")).Bold(true)
	currentRow  = renderer.NewStyle().Foreground(lipgloss.Color("2")).Bold(true)
)

var enabled bool

func init() {
	SetEnabled(shouldEnable())
}

// shouldEnable determines whether to use color output.
func shouldEnable() bool {
	if _, ok := os.LookupEnv("NO_COLOR"); ok {
		return false
	}
	if _, ok := os.LookupEnv("FORCE_COLOR"); ok {
		return true
	}
	return IsTerminal(os.Stdout)
}

// IsTerminal reports whether f is connected to a terminal.
func IsTerminal(f *os.File) bool {
	fi, err := f.Stat()
	if err != nil {
		return false
	}
	return (fi.Mode() & os.ModeCharDevice) != 0
}

// SetEnabled overrides the auto-detected color state.
// Used by tests and by --json, which forces plain output.
func SetEnabled(b bool) {
	enabled = b
	if b {
		renderer.SetColorProfile(termenv.ANSI256)
		return
	}
	renderer.SetColorProfile(termenv.Ascii)
}

// Enabled reports whether color output is currently active.
func Enabled() bool {
	return enabled
}

// Bold returns text rendered in bold.
func Bold(text string) string {
	return boldStyle.Render(text)
}

// Dim returns text rendered faint.
func Dim(text string) string {
	return dimStyle.Render(text)
}

// Green returns text rendered in green.
func Green(text string) string {
	return greenStyle.Render(text)
}

// Yellow returns text rendered in yellow. Warnings use it.
func Yellow(text string) string {
	return yellowStyle.Render(text)
}

// Cyan returns text rendered in cyan.
func Cyan(text string) string {
	return cyanStyle.Render(text)
}

// Gray returns text rendered in gray.
func Gray(text string) string {
	return grayStyle.Render(text)
}

// Accent returns text in the accent color (cyan + bold), used for the next
// jamaat.
func Accent(text string) string {
	return accentStyle.Render(text)
}

// Current returns text in the style of the jamaat that has just started.
func Current(text string) string {
	return currentRow.Render(text)
}

// Boldf formats and bolds a string.
func Boldf(format string, a ...any) string {
	return Bold(fmt.Sprintf(format, a...))
}
