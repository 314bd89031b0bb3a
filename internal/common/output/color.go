package output

import (
	"fmt"
	"io"

	"github.com/fatih/color"
)

var (
	// Outcome colors
	Updated = color.New(color.FgGreen)
	Current = color.New(color.Faint)
	Skipped = color.New(color.FgYellow)
	Failed  = color.New(color.FgRed)

	// Message colors
	Success = color.New(color.FgGreen)
	Error   = color.New(color.FgRed)

	// Structural colors
	Package = color.New(color.FgBlue, color.Bold)
	Build   = color.New(color.FgMagenta)
)

// NoColor disables color output
func NoColor() {
	color.NoColor = true
}

// ForceColor enables color output even when not a TTY
func ForceColor() {
	color.NoColor = false
}

// OutcomeColor returns the color for a plan outcome
func OutcomeColor(outcome string) *color.Color {
	switch outcome {
	case "updated":
		return Updated
	case "current":
		return Current
	case "skipped":
		return Skipped
	case "failed":
		return Failed
	default:
		return color.New(color.Reset)
	}
}

// PrintSuccess prints a success message
func PrintSuccess(format string, args ...interface{}) {
	Success.Printf("✓ "+format+"\n", args...)
}

// FormatOutcome formats an outcome tag with appropriate color
func FormatOutcome(outcome string) string {
	return OutcomeColor(outcome).Sprintf("[%s]", outcome)
}

// FormatRef formats a package reference (name/spec) with color
func FormatRef(pkg, spec string) string {
	if spec == "" {
		return Package.Sprint(pkg)
	}
	return Package.Sprint(pkg) + "/" + spec
}

// FormatEdit formats a version change: "fmt: 8.1.1 → 9.1.0"
func FormatEdit(pkg, oldSpec, newSpec string) string {
	return fmt.Sprintf("%s: %s → %s", Package.Sprint(pkg), oldSpec, Updated.Sprint(newSpec))
}

// FormatContext tags build-time requirements
func FormatContext(buildTime bool) string {
	if buildTime {
		return Build.Sprint("(build)")
	}
	return ""
}

// Fprintln prints with color and newline to w
func Fprintln(w io.Writer, c *color.Color, a ...interface{}) {
	c.Fprintln(w, a...)
}
