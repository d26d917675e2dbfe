package tui

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/mrz1836/shotpub/internal/publish"
)

// JSONOutput provides plain JSON output without styling.
type JSONOutput struct {
	w io.Writer
}

// NewJSONOutput creates a new JSONOutput.
func NewJSONOutput(w io.Writer) *JSONOutput {
	return &JSONOutput{w: w}
}

// Success is a no-op for JSON output.
func (o *JSONOutput) Success(_ string) {}

// Error outputs the error as JSON.
func (o *JSONOutput) Error(err error) {
	_, _ = fmt.Fprintf(o.w, "{\"error\": %q}\n", err.Error())
}

// Warning is a no-op for JSON output.
func (o *JSONOutput) Warning(_ string) {}

// Info is a no-op for JSON output.
func (o *JSONOutput) Info(_ string) {}

// Result writes the batch result as JSON.
func (o *JSONOutput) Result(res *publish.Result) {
	if res == nil {
		return
	}
	_ = o.JSON(res)
}

// JSON outputs a value as formatted JSON.
func (o *JSONOutput) JSON(v any) error {
	encoder := json.NewEncoder(o.w)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(v); err != nil {
		return fmt.Errorf("failed to encode JSON: %w", err)
	}
	return nil
}
