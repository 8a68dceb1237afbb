package main

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/briandowns/spinner"
	"github.com/fatih/color"
	"github.com/schollz/progressbar/v3"
)

// UI prints human-facing progress to stderr and results to stdout.
type UI struct {
	out   io.Writer
	err   io.Writer
	quiet bool
}

// NewUI creates a UI. noColor disables ANSI colors globally.
func NewUI(noColor, quiet bool) *UI {
	if noColor {
		color.NoColor = true
	}
	return &UI{out: os.Stdout, err: os.Stderr, quiet: quiet}
}

// Success prints a success message.
func (ui *UI) Success(format string, args ...interface{}) {
	if ui.quiet {
		return
	}
	color.New(color.FgGreen).Fprintf(ui.err, "✓ %s\n", fmt.Sprintf(format, args...))
}

// Error prints an error message.
func (ui *UI) Error(format string, args ...interface{}) {
	color.New(color.FgRed).Fprintf(ui.err, "✗ %s\n", fmt.Sprintf(format, args...))
}

// Warning prints a warning message.
func (ui *UI) Warning(format string, args ...interface{}) {
	if ui.quiet {
		return
	}
	color.New(color.FgYellow).Fprintf(ui.err, "⚠ %s\n", fmt.Sprintf(format, args...))
}

// Info prints an info message.
func (ui *UI) Info(format string, args ...interface{}) {
	if ui.quiet {
		return
	}
	color.New(color.FgCyan).Fprintf(ui.err, "ℹ %s\n", fmt.Sprintf(format, args...))
}

// Section prints a bold header.
func (ui *UI) Section(title string) {
	if ui.quiet {
		return
	}
	color.New(color.FgMagenta, color.Bold).Fprintf(ui.err, "━━━ %s ━━━\n", title)
}

// ProgressBar returns a document progress bar, or nil in quiet mode.
func (ui *UI) ProgressBar(total int, description string) *progressbar.ProgressBar {
	if ui.quiet || total <= 0 {
		return nil
	}
	return progressbar.NewOptions(total,
		progressbar.OptionSetWriter(ui.err),
		progressbar.OptionSetDescription(description),
		progressbar.OptionSetWidth(40),
		progressbar.OptionShowCount(),
		progressbar.OptionSetItsString("docs"),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "█",
			SaucerHead:    "█",
			SaucerPadding: "░",
			BarStart:      "│",
			BarEnd:        "│",
		}),
		progressbar.OptionOnCompletion(func() {
			fmt.Fprint(ui.err, "\n")
		}),
	)
}

// Spinner starts a spinner for a single indeterminate step. The returned
// function stops it.
func (ui *UI) Spinner(message string) func() {
	if ui.quiet {
		return func() {}
	}
	s := spinner.New(spinner.CharSets[14], 100*time.Millisecond)
	s.Suffix = " " + message
	s.Writer = ui.err
	s.Start()
	return s.Stop
}
