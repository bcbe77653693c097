// Package logger is a small colorized console logger used by the demo CLI
// and the orchestrator: Info/Success/Warn/Error for single lines, Banner
// and Section for visual structure, and Stats for humanized guard-metric
// summaries. Color is only emitted when stdout is a terminal.
package logger

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/mattn/go-isatty"
)

const (
	colorReset  = "\033[0m"
	colorGreen  = "\033[32m"
	colorYellow = "\033[33m"
	colorRed    = "\033[31m"
	colorCyan   = "\033[36m"
	colorBold   = "\033[1m"
)

// Logger writes structured, optionally colorized lines to an io.Writer.
type Logger struct {
	out       io.Writer
	colorized bool
}

// New constructs a Logger writing to out, auto-detecting color support
// when out is *os.File and a TTY.
func New(out io.Writer) *Logger {
	colorized := false
	if f, ok := out.(*os.File); ok {
		colorized = isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
	}
	return &Logger{out: out, colorized: colorized}
}

// Default constructs a Logger writing to os.Stdout.
func Default() *Logger { return New(os.Stdout) }

func (l *Logger) colorize(color, s string) string {
	if !l.colorized {
		return s
	}
	return color + s + colorReset
}

func (l *Logger) line(prefix, color, format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	fmt.Fprintf(l.out, "%s %s\n", l.colorize(color, prefix), msg)
}

// Info logs a neutral informational line.
func (l *Logger) Info(format string, args ...any) { l.line("[info]", colorCyan, format, args...) }

// Success logs a positive-outcome line.
func (l *Logger) Success(format string, args ...any) { l.line("[ ok ]", colorGreen, format, args...) }

// Warn logs a recoverable-problem line.
func (l *Logger) Warn(format string, args ...any) { l.line("[warn]", colorYellow, format, args...) }

// Error logs a failure line.
func (l *Logger) Error(format string, args ...any) { l.line("[fail]", colorRed, format, args...) }

// Banner prints a bold, boxed single-line heading.
func (l *Logger) Banner(title string) {
	bar := strings.Repeat("=", len(title)+4)
	fmt.Fprintln(l.out, l.colorize(colorBold, bar))
	fmt.Fprintln(l.out, l.colorize(colorBold, "= "+title+" ="))
	fmt.Fprintln(l.out, l.colorize(colorBold, bar))
}

// Section prints a lighter-weight subsection heading.
func (l *Logger) Section(title string) {
	fmt.Fprintln(l.out, l.colorize(colorBold, "--- "+title+" ---"))
}

// Stats prints a labeled set of counters, humanizing large integers.
func (l *Logger) Stats(title string, counts map[string]int64) {
	l.Section(title)
	for label, value := range counts {
		fmt.Fprintf(l.out, "  %-20s %s\n", label+":", humanize.Comma(value))
	}
}
