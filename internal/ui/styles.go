// Package ui renders console output for a terminal: ANSI colors, status
// badges and interactive prompts.
package ui

import (
	"fmt"

	"github.com/alfredjeanlab/leadconsole/internal/model"
)

// ANSI256 color codes matching the Ayu palette.
const (
	colorAccent = 74  // blue
	colorCmd    = 250 // light gray
	colorMuted  = 245 // medium gray
	colorWarn   = 179 // yellow
	colorOK     = 114 // green
	colorError  = 203 // red
)

var noColor bool

func render(code int, s string) string {
	if noColor {
		return s
	}
	return fmt.Sprintf("\x1b[38;5;%dm%s\x1b[0m", code, s)
}

// RenderAccent returns s in the accent (blue) color.
func RenderAccent(s string) string { return render(colorAccent, s) }

// RenderMuted returns s in the muted (gray) color.
func RenderMuted(s string) string { return render(colorMuted, s) }

// RenderCommand returns s styled as a command name (light gray).
func RenderCommand(s string) string { return render(colorCmd, s) }

// RenderError returns s in red.
func RenderError(s string) string { return render(colorError, s) }

// RenderSuccess returns s in green.
func RenderSuccess(s string) string { return render(colorOK, s) }

// RenderStatus colors a lead status by workflow stage. Unknown statuses
// from the server are rendered muted.
func RenderStatus(s model.Status) string {
	switch s {
	case model.StatusNew:
		return render(colorAccent, string(s))
	case model.StatusContacted:
		return render(colorWarn, string(s))
	case model.StatusQualified:
		return render(colorOK, string(s))
	case model.StatusLost:
		return render(colorError, string(s))
	}
	return render(colorMuted, string(s))
}

// ForceNoColor disables color output globally.
func ForceNoColor() {
	noColor = true
}
