package tui

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/mrz1836/shotpub/internal/domain"
	"github.com/mrz1836/shotpub/internal/publish"
)

// TTYOutput provides styled output for terminal displays.
type TTYOutput struct {
	w      io.Writer
	styles *OutputStyles
}

// NewTTYOutput creates a new TTYOutput. Respects NO_COLOR.
func NewTTYOutput(w io.Writer) *TTYOutput {
	CheckNoColor()
	return &TTYOutput{
		w:      w,
		styles: NewOutputStyles(),
	}
}

// Success prints a success message.
func (o *TTYOutput) Success(msg string) {
	_, _ = fmt.Fprintln(o.w, o.styles.Success.Render("✓ "+msg))
}

// Error prints an error message.
func (o *TTYOutput) Error(err error) {
	_, _ = fmt.Fprintln(o.w, o.styles.Error.Render("✗ "+err.Error()))
}

// Warning prints a warning message.
func (o *TTYOutput) Warning(msg string) {
	_, _ = fmt.Fprintln(o.w, o.styles.Warning.Render("⚠ "+msg))
}

// Info prints an informational message.
func (o *TTYOutput) Info(msg string) {
	_, _ = fmt.Fprintln(o.w, o.styles.Info.Render(msg))
}

// Result prints one line per item that did not upload, then the counts and
// the task result.
func (o *TTYOutput) Result(res *publish.Result) {
	if res == nil {
		return
	}

	for _, oc := range res.Outcomes {
		if oc.Kind == domain.OutcomeUploaded {
			continue
		}
		line := fmt.Sprintf("%s %s  %s", OutcomeIcon(oc.Kind), oc.TestCase.String(), oc.Kind)
		_, _ = fmt.Fprintln(o.w, o.styles.OutcomeStyle(oc.Kind).Render(line))
		if msg := oc.ErrorMessage(); msg != "" {
			_, _ = fmt.Fprintln(o.w, o.styles.Dim.Render("    "+msg))
		}
	}

	s := res.Summary
	if s.Total > 0 {
		_, _ = fmt.Fprintln(o.w, o.styles.Dim.Render(fmt.Sprintf(
			"uploaded %d  missing %d  unreadable %d  attachment failed %d  (total %d)",
			s.Uploaded, s.Missing, s.Unreadable, s.AttachmentFailed, s.Total)))
	}

	_, _ = fmt.Fprintln(o.w,
		o.styles.ResultStyle(res.Status).Render(o.styles.Bold.Render(string(res.Status))+" "+res.Message))
}

// JSON outputs a value as formatted JSON.
func (o *TTYOutput) JSON(v any) error {
	encoder := json.NewEncoder(o.w)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(v); err != nil {
		return fmt.Errorf("failed to encode JSON: %w", err)
	}
	return nil
}
