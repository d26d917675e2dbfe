// Package pipelines writes Azure Pipelines logging commands.
//
// The agent scans the task's stdout for lines of the form
// "##vso[area.action key=value;]message" and turns them into task results,
// debug lines and issues in the build summary.
package pipelines

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"

	"github.com/mrz1836/shotpub/internal/domain"
)

// Issue types accepted by task.logissue.
const (
	IssueWarning = "warning"
	IssueError   = "error"
)

//nolint:gochecknoglobals // Static escape tables
var (
	messageEscaper = strings.NewReplacer(
		"%", "%AZP25",
		"\r", "%0D",
		"\n", "%0A",
	)
	propertyEscaper = strings.NewReplacer(
		"%", "%AZP25",
		"\r", "%0D",
		"\n", "%0A",
		";", "%3B",
		"]", "%5D",
	)
)

// Writer emits logging commands. It is safe for concurrent use.
type Writer struct {
	mu    sync.Mutex
	w     io.Writer
	debug bool
}

// NewWriter creates a Writer. When debug is false, Debug is a no-op, as the
// agent only shows debug lines when System.Debug is set.
func NewWriter(w io.Writer, debug bool) *Writer {
	return &Writer{w: w, debug: debug}
}

// Complete sets the task result. The agent uses the last result written.
func (pw *Writer) Complete(result domain.TaskResult, message string) error {
	return pw.Command("task.complete", map[string]string{"result": string(result)}, message)
}

// Debug writes a debug line.
func (pw *Writer) Debug(message string) error {
	if !pw.debug {
		return nil
	}
	return pw.Command("task.debug", nil, message)
}

// Warning logs a warning issue shown in the build summary.
func (pw *Writer) Warning(message string) error {
	return pw.Command("task.logissue", map[string]string{"type": IssueWarning}, message)
}

// Error logs an error issue shown in the build summary.
func (pw *Writer) Error(message string) error {
	return pw.Command("task.logissue", map[string]string{"type": IssueError}, message)
}

// Command writes one logging command with escaped properties and message.
// Properties are written in key order.
func (pw *Writer) Command(name string, properties map[string]string, message string) error {
	line := FormatCommand(name, properties, message)

	pw.mu.Lock()
	defer pw.mu.Unlock()
	if _, err := io.WriteString(pw.w, line); err != nil {
		return fmt.Errorf("failed to write logging command %s: %w", name, err)
	}
	return nil
}

// FormatCommand renders a logging command line including the trailing newline.
func FormatCommand(name string, properties map[string]string, message string) string {
	var b strings.Builder
	b.WriteString("##vso[")
	b.WriteString(name)

	if len(properties) > 0 {
		keys := make([]string, 0, len(properties))
		for k := range properties {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		b.WriteByte(' ')
		for _, k := range keys {
			b.WriteString(k)
			b.WriteByte('=')
			b.WriteString(propertyEscaper.Replace(properties[k]))
			b.WriteByte(';')
		}
	}

	b.WriteByte(']')
	b.WriteString(messageEscaper.Replace(message))
	b.WriteByte('\n')
	return b.String()
}
