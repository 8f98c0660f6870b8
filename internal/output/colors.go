package output

import (
	"github.com/fatih/color"
)

// ColorScheme defines the colors used for different elements of a summary
type ColorScheme struct {
	Title     *color.Color
	Rule      *color.Color
	Label     *color.Color
	Method    *color.Color
	Name      *color.Color
	Value     *color.Color
	Latency   *color.Color
	Success   *color.Color
	Warn      *color.Color
	Error     *color.Color
	Dim       *color.Color
	Highlight *color.Color
}

// DefaultColorScheme returns the default color scheme
func DefaultColorScheme() *ColorScheme {
	return &ColorScheme{
		Title:     color.New(color.Bold),
		Rule:      color.New(color.FgCyan),
		Label:     color.New(color.Bold),
		Method:    color.New(color.FgBlue, color.Bold),
		Name:      color.New(color.FgCyan),
		Value:     color.New(color.FgCyan),
		Latency:   color.New(color.FgBlue),
		Success:   color.New(color.FgGreen),
		Warn:      color.New(color.FgYellow),
		Error:     color.New(color.FgRed),
		Dim:       color.New(color.Faint),
		Highlight: color.New(color.FgMagenta, color.Bold),
	}
}

// NoColorScheme returns a color scheme with all colors disabled
func NoColorScheme() *ColorScheme {
	scheme := DefaultColorScheme()
	scheme.each((*color.Color).DisableColor)
	return scheme
}

// forcedColorScheme returns a color scheme that colors output regardless of
// the process-wide color detection.
func forcedColorScheme() *ColorScheme {
	scheme := DefaultColorScheme()
	scheme.each((*color.Color).EnableColor)
	return scheme
}

func (s *ColorScheme) each(fn func(*color.Color)) {
	for _, c := range []*color.Color{
		s.Title, s.Rule, s.Label, s.Method, s.Name, s.Value,
		s.Latency, s.Success, s.Warn, s.Error, s.Dim, s.Highlight,
	} {
		fn(c)
	}
}

// rateColor picks a color for a failure rate (0.0 to 1.0).
func (s *ColorScheme) rateColor(rate float64) *color.Color {
	switch {
	case rate > 0.05:
		return s.Error
	case rate > 0.01:
		return s.Warn
	default:
		return s.Success
	}
}

// SuccessIcon returns a checkmark symbol with appropriate color
func SuccessIcon(noColor bool) string {
	if noColor {
		return "✓"
	}
	return color.New(color.FgGreen).Sprint("✓")
}

// ErrorIcon returns an X symbol with appropriate color
func ErrorIcon(noColor bool) string {
	if noColor {
		return "✗"
	}
	return color.New(color.FgRed).Sprint("✗")
}
