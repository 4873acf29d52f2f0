package cli

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/fatih/color"
)

// DiagnosticLevel represents the level of diagnostic output
type DiagnosticLevel int

const (
	DiagnosticSilent DiagnosticLevel = iota
	DiagnosticError
	DiagnosticWarn
	DiagnosticInfo
	DiagnosticVerbose
)

// Diagnostics writes leveled, optionally colored CLI output
type Diagnostics struct {
	level    DiagnosticLevel
	output   io.Writer
	errorOut io.Writer

	red    *color.Color
	yellow *color.Color
	blue   *color.Color
	green  *color.Color
	gray   *color.Color
	cyan   *color.Color
}

// NewDiagnostics creates diagnostics writing to stdout and stderr
func NewDiagnostics(level DiagnosticLevel) *Diagnostics {
	return NewDiagnosticsTo(level, os.Stdout, os.Stderr)
}

// NewDiagnosticsTo creates diagnostics writing to the given writers
func NewDiagnosticsTo(level DiagnosticLevel, output, errorOut io.Writer) *Diagnostics {
	d := &Diagnostics{
		level:    level,
		output:   output,
		errorOut: errorOut,
		red:      color.New(color.FgRed, color.Bold),
		yellow:   color.New(color.FgYellow, color.Bold),
		blue:     color.New(color.FgBlue),
		green:    color.New(color.FgGreen),
		gray:     color.New(color.FgHiBlack),
		cyan:     color.New(color.FgCyan),
	}
	d.SetColors(shouldUseColors())
	return d
}

// SetColors enables or disables colored output
func (d *Diagnostics) SetColors(enabled bool) {
	for _, c := range []*color.Color{d.red, d.yellow, d.blue, d.green, d.gray, d.cyan} {
		if enabled {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
	}
}

// Error outputs error messages (always shown unless silent)
func (d *Diagnostics) Error(format string, args ...any) {
	if d.level >= DiagnosticError {
		d.write(d.errorOut, d.red, "ERROR", format, args...)
	}
}

// Warn outputs warning messages
func (d *Diagnostics) Warn(format string, args ...any) {
	if d.level >= DiagnosticWarn {
		d.write(d.output, d.yellow, "WARN", format, args...)
	}
}

// Info outputs informational messages
func (d *Diagnostics) Info(format string, args ...any) {
	if d.level >= DiagnosticInfo {
		d.write(d.output, d.blue, "INFO", format, args...)
	}
}

// Success outputs success messages
func (d *Diagnostics) Success(format string, args ...any) {
	if d.level >= DiagnosticInfo {
		d.write(d.output, d.green, "OK", format, args...)
	}
}

// Verbose outputs detailed messages (verbose mode only)
func (d *Diagnostics) Verbose(format string, args ...any) {
	if d.level >= DiagnosticVerbose {
		d.write(d.output, d.gray, "VERBOSE", format, args...)
	}
}

// Header outputs the tool banner
func (d *Diagnostics) Header(message string) {
	if d.level >= DiagnosticInfo {
		d.cyan.Fprintf(d.output, "axon-input: %s\n", message)
	}
}

// Subsection creates a subsection header
func (d *Diagnostics) Subsection(title string) {
	if d.level >= DiagnosticInfo {
		fmt.Fprintf(d.output, "\n%s:\n", title)
	}
}

// List outputs a bulleted list item
func (d *Diagnostics) List(format string, args ...any) {
	if d.level >= DiagnosticInfo {
		fmt.Fprintf(d.output, "- %s\n", fmt.Sprintf(format, args...))
	}
}

// Summary outputs a final summary with statistics, sorted by key
func (d *Diagnostics) Summary(title string, stats map[string]any) {
	if d.level < DiagnosticInfo {
		return
	}
	keys := make([]string, 0, len(stats))
	for k := range stats {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	fmt.Fprintf(d.output, "\n%s\n", title)
	for _, k := range keys {
		fmt.Fprintf(d.output, "   %s: %v\n", k, stats[k])
	}
	fmt.Fprintln(d.output)
}

// Finding reports a lint finding at its severity
func (d *Diagnostics) Finding(f Finding) {
	msg := f.String()
	if f.Hint != "" && d.level >= DiagnosticVerbose {
		msg += "\n    hint: " + f.Hint
	}
	if f.Severity == SeverityError {
		d.Error("%s", msg)
		return
	}
	d.Warn("%s", msg)
}

func (d *Diagnostics) write(w io.Writer, c *color.Color, label, format string, args ...any) {
	var b strings.Builder
	b.WriteString(c.Sprintf("[%s]", label))
	b.WriteByte(' ')
	fmt.Fprintf(&b, format, args...)
	b.WriteByte('\n')
	fmt.Fprint(w, b.String())
}

// shouldUseColors determines if colors should be used
func shouldUseColors() bool {
	if os.Getenv("NO_COLOR") != "" {
		return false
	}
	if os.Getenv("FORCE_COLOR") != "" {
		return true
	}
	term := os.Getenv("TERM")
	return term != "" && term != "dumb" && !color.NoColor
}
