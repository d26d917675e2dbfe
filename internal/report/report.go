// Package report writes a machine-readable summary of a publish run, for
// pipelines that archive it as a build artifact.
package report

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/mrz1836/shotpub/internal/domain"
	"github.com/mrz1836/shotpub/internal/errors"
	"github.com/mrz1836/shotpub/internal/publish"
)

// Report is the serialized form of a run.
type Report struct {
	BatchID      string            `json:"batch_id,omitempty" yaml:"batch_id,omitempty"`
	Organization string            `json:"organization" yaml:"organization"`
	Project      string            `json:"project" yaml:"project"`
	BuildID      int               `json:"build_id" yaml:"build_id"`
	OSType       string            `json:"os_type" yaml:"os_type"`
	DryRun       bool              `json:"dry_run,omitempty" yaml:"dry_run,omitempty"`
	Status       domain.TaskResult `json:"status" yaml:"status"`
	Message      string            `json:"message" yaml:"message"`
	Summary      publish.Summary   `json:"summary" yaml:"summary"`
	StartedAt    time.Time         `json:"started_at" yaml:"started_at"`
	DurationMS   int64             `json:"duration_ms" yaml:"duration_ms"`
	Items        []Item            `json:"items" yaml:"items"`
}

// Item is one failed test in the report.
type Item struct {
	Test          string `json:"test" yaml:"test"`
	RunID         int    `json:"run_id" yaml:"run_id"`
	ResultID      int    `json:"result_id" yaml:"result_id"`
	Outcome       string `json:"outcome" yaml:"outcome"`
	Path          string `json:"path,omitempty" yaml:"path,omitempty"`
	FileName      string `json:"file_name,omitempty" yaml:"file_name,omitempty"`
	AttachmentID  int    `json:"attachment_id,omitempty" yaml:"attachment_id,omitempty"`
	AttachmentURL string `json:"attachment_url,omitempty" yaml:"attachment_url,omitempty"`
	Error         string `json:"error,omitempty" yaml:"error,omitempty"`
	DurationMS    int64  `json:"duration_ms" yaml:"duration_ms"`
}

// Meta carries the run inputs that are not part of publish.Result.
type Meta struct {
	Organization string
	Project      string
	BuildID      int
	OSType       string
	DryRun       bool
}

// New builds a Report from a batch result. A nil result produces a report
// holding only the status and message, as for runs that failed before the
// batch started.
func New(meta Meta, status domain.TaskResult, message string, result *publish.Result) *Report {
	r := &Report{
		Organization: meta.Organization,
		Project:      meta.Project,
		BuildID:      meta.BuildID,
		OSType:       meta.OSType,
		DryRun:       meta.DryRun,
		Status:       status,
		Message:      message,
		Items:        []Item{},
	}
	if result == nil {
		r.StartedAt = time.Now().UTC()
		return r
	}

	r.BatchID = result.BatchID
	r.Summary = result.Summary
	r.StartedAt = result.StartedAt.UTC()
	r.DurationMS = result.Duration.Milliseconds()

	for _, o := range result.Outcomes {
		r.Items = append(r.Items, Item{
			Test:          o.TestCase.String(),
			RunID:         o.TestCase.RunID,
			ResultID:      o.TestCase.ID,
			Outcome:       string(o.Kind),
			Path:          o.Path,
			FileName:      o.FileName,
			AttachmentID:  o.Attachment.ID,
			AttachmentURL: o.Attachment.URL,
			Error:         o.ErrorMessage(),
			DurationMS:    o.Duration.Milliseconds(),
		})
	}
	return r
}

// Marshal encodes the report in the format selected by the file extension:
// .json, or .yaml / .yml.
func Marshal(r *Report, path string) ([]byte, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		var buf bytes.Buffer
		enc := json.NewEncoder(&buf)
		enc.SetIndent("", "  ")
		if err := enc.Encode(r); err != nil {
			return nil, fmt.Errorf("failed to encode report: %w", err)
		}
		return buf.Bytes(), nil
	case ".yaml", ".yml":
		var buf bytes.Buffer
		enc := yaml.NewEncoder(&buf)
		enc.SetIndent(2)
		if err := enc.Encode(r); err != nil {
			return nil, fmt.Errorf("failed to encode report: %w", err)
		}
		if err := enc.Close(); err != nil {
			return nil, fmt.Errorf("failed to encode report: %w", err)
		}
		return buf.Bytes(), nil
	default:
		return nil, errors.Wrapf(errors.ErrUnsupportedReportFormat, "%q (use .json, .yaml or .yml)", path)
	}
}

// Write encodes the report and writes it to path, creating parent directories.
func Write(r *Report, path string) error {
	data, err := Marshal(r, path)
	if err != nil {
		return err
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return fmt.Errorf("failed to create report directory: %w", err)
		}
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}
	return nil
}
