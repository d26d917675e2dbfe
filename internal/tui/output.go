package tui

import (
	"io"

	"github.com/mrz1836/shotpub/internal/publish"
)

// Output formats.
const (
	FormatText = "text"
	FormatJSON = "json"
)

// Output provides methods for structured output to a terminal.
type Output interface {
	// Success prints a success message.
	Success(msg string)
	// Error prints an error message.
	Error(err error)
	// Warning prints a warning message.
	Warning(msg string)
	// Info prints an informational message.
	Info(msg string)
	// Result prints the outcome of a publish batch.
	Result(res *publish.Result)
	// JSON outputs a value as formatted JSON.
	JSON(v any) error
}

// NewOutput creates the appropriate output based on format.
func NewOutput(w io.Writer, format string) Output {
	if format == FormatJSON {
		return NewJSONOutput(w)
	}
	return NewTTYOutput(w)
}
