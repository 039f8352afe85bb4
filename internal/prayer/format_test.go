package prayer

import (
	"strings"
	"testing"
	"time"

	"github.com/smokyabdulrahman/jamaat-times/internal/api"
)

// ---------------------------------------------------------------------------
// FormatDelta
// ---------------------------------------------------------------------------

func TestFormatDelta(t *testing.T) {
	base := at(12, 0, 0)
	tests := []struct {
		name string
		d    time.Duration
		want string
	}{
		{"zero", 0, "00:00"},
		{"seconds", 7 * time.Second, "00:07"},
		{"minutes", 5 * time.Minute, "05:00"},
		{"just under an hour", 59*time.Minute + 59*time.Second, "59:59"},
		{"exactly an hour", time.Hour, "01:00:00"},
		{"hours", time.Hour + 14*time.Minute, "01:14:00"},
		{"past is absolute", -5 * time.Minute, "05:00"},
		{"fractional seconds truncate", 1500 * time.Millisecond, "00:01"},
		{"many hours", 23*time.Hour + 59*time.Minute + 59*time.Second, "23:59:59"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := FormatDelta(base.Add(tt.d), base)
			if got != tt.want {
				t.Errorf("FormatDelta(%v) = %q, want %q", tt.d, got, tt.want)
			}
		})
	}
}

// ---------------------------------------------------------------------------
// DeltaLine
// ---------------------------------------------------------------------------

func TestDeltaLine_EndToEnd(t *testing.T) {
	tests := []struct {
		now  time.Time
		want string
	}{
		{at(19, 5, 0), "Maghrib Jamaat 05:00 ago"},
		{at(19, 16, 0), "Isha Jamaat in 01:14:00"},
		{at(5, 30, 0), "Fajr Jamaat 00:00 ago"},
		{at(21, 0, 0), "Fajr Jamaat in 08:30:00"},
		{at(15, 59, 30), "Asr Jamaat in 15:30"},
	}

	for _, tt := range tests {
		t.Run(tt.now.Format("15:04:05"), func(t *testing.T) {
			got := DeltaLine(Resolve(sampleTimes(), tt.now), tt.now)
			if got != tt.want {
				t.Errorf("DeltaLine at %s = %q, want %q", tt.now.Format("15:04:05"), got, tt.want)
			}
		})
	}
}

func TestDeltaLine_AllNullIsPlaceholder(t *testing.T) {
	now := at(12, 0, 0)
	got := DeltaLine(Resolve(api.PrayerTimes{}, now), now)
	if got != "—" {
		t.Errorf("DeltaLine(no resolution) = %q, want em dash", got)
	}
}

// ---------------------------------------------------------------------------
// FormatOutput
// ---------------------------------------------------------------------------

func formatTestResolution() (*Resolved, time.Time) {
	return &Resolved{Name: Asr, Target: at(16, 15, 0)}, at(14, 0, 0)
}

func TestFormatOutput_AllBuiltinModes(t *testing.T) {
	r, now := formatTestResolution()

	tests := []struct {
		mode string
		want string
	}{
		{FormatDeltaLine, "Asr Jamaat in 02:15:00"},
		{FormatTimeRemaining, "in 02:15:00"},
		{FormatNameAndTime, "Asr 16:15"},
		{FormatNameAndRemaining, "Asr in 02:15:00"},
		{FormatShortNameAndTime, "A 16:15"},
		{FormatShortNameAndRemain, "A in 02:15:00"},
		{FormatFull, "Asr 16:15 (in 02:15:00)"},
	}

	for _, tt := range tests {
		t.Run(tt.mode, func(t *testing.T) {
			got := FormatOutput(r, now, tt.mode, "15:04")
			if got != tt.want {
				t.Errorf("FormatOutput(%q) = %q, want %q", tt.mode, got, tt.want)
			}
		})
	}
}

func TestFormatOutput_PastUsesAgo(t *testing.T) {
	r := &Resolved{Name: Maghrib, IsPast: true, Target: at(19, 0, 0)}
	got := FormatOutput(r, at(19, 5, 0), FormatNameAndRemaining, "15:04")
	if got != "Maghrib 05:00 ago" {
		t.Errorf("got %q", got)
	}
}

func TestFormatOutput_12HourFormat(t *testing.T) {
	r, now := formatTestResolution()

	got := FormatOutput(r, now, FormatNameAndTime, "3:04 PM")
	if got != "Asr 4:15 PM" {
		t.Errorf("12h format = %q, want %q", got, "Asr 4:15 PM")
	}
}

func TestFormatOutput_UnknownModeDefaultsToDeltaLine(t *testing.T) {
	r, now := formatTestResolution()

	got := FormatOutput(r, now, "nonexistent-format", "15:04")
	if got != "Asr Jamaat in 02:15:00" {
		t.Errorf("unknown mode = %q", got)
	}
}

func TestFormatOutput_NilIsPlaceholder(t *testing.T) {
	if got := FormatOutput(nil, at(1, 0, 0), FormatFull, "15:04"); got != Placeholder {
		t.Errorf("FormatOutput(nil) = %q, want placeholder", got)
	}
}

func TestFormatOutput_CustomTemplate(t *testing.T) {
	r, now := formatTestResolution()

	tests := []struct {
		name string
		tmpl string
		want string
	}{
		{"name and delta", "{{.Name}} {{.Direction}} {{.Delta}}", "Asr in 02:15:00"},
		{"short name", "{{.ShortName}}:{{.Time}}", "A:16:15"},
		{"line", "[{{.Line}}]", "[Asr Jamaat in 02:15:00]"},
		{"conditional", "{{if .IsPast}}now{{else}}next{{end}}", "next"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := FormatOutput(r, now, tt.tmpl, "15:04")
			if got != tt.want {
				t.Errorf("template %q = %q, want %q", tt.tmpl, got, tt.want)
			}
		})
	}
}

func TestFormatOutput_InvalidTemplate(t *testing.T) {
	r, now := formatTestResolution()

	got := FormatOutput(r, now, "{{.Name", "15:04")
	if !strings.HasPrefix(got, "template-err:") {
		t.Errorf("invalid template = %q, want template-err prefix", got)
	}
}

func TestFormatOutput_UnknownField(t *testing.T) {
	r, now := formatTestResolution()

	got := FormatOutput(r, now, "{{.Bogus}}", "15:04")
	if !strings.HasPrefix(got, "template-err:") {
		t.Errorf("unknown field = %q, want template-err prefix", got)
	}
}

func TestFormatDate(t *testing.T) {
	if got := FormatDate(at(12, 0, 0)); got != "Thursday, 15 October 2026" {
		t.Errorf("FormatDate = %q", got)
	}
}

func TestDisplayTime(t *testing.T) {
	day := at(0, 0, 0)
	tests := []struct {
		name   string
		in     *string
		layout string
		want   string
	}{
		{"nil", nil, "15:04", "—"},
		{"blank", api.String("  "), "15:04", "—"},
		{"24h", api.String("05:30"), "15:04", "05:30"},
		{"12h", api.String("16:15"), "3:04 PM", "4:15 PM"},
		{"unparseable shown as published", api.String(" after maghrib "), "15:04", "after maghrib"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := DisplayTime(tt.in, day, tt.layout); got != tt.want {
				t.Errorf("DisplayTime = %q, want %q", got, tt.want)
			}
		})
	}
}
