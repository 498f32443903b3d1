// Package ui holds terminal output helpers for the invoice-extractor CLI.
package ui

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/briandowns/spinner"
	"github.com/fatih/color"
)

// Init applies the --no-color flag.
func Init(noColor bool) {
	if noColor {
		color.NoColor = true
	}
}

// Success prints a green status line to w.
func Success(w io.Writer, format string, args ...interface{}) {
	fmt.Fprintln(w, color.GreenString("✓ "+format, args...))
}

// Info prints a plain status line to w.
func Info(w io.Writer, format string, args ...interface{}) {
	fmt.Fprintf(w, format+"\n", args...)
}

// Spinner shows indeterminate progress on stderr while the model call blocks.
type Spinner struct {
	spinner *spinner.Spinner
}

// NewSpinner creates a new spinner with the given message.
func NewSpinner(message string) *Spinner {
	s := spinner.New(spinner.CharSets[14], 100*time.Millisecond)
	s.Suffix = " " + message
	s.Writer = os.Stderr
	return &Spinner{spinner: s}
}

func (s *Spinner) Start() {
	s.spinner.Start()
}

func (s *Spinner) Stop() {
	s.spinner.Stop()
}
