package domain

import "time"

// OutcomeKind tags the per-test-case result of a publish batch.
type OutcomeKind string

// Outcome kinds. Every test case in a batch ends in exactly one of them.
const (
	// OutcomeUploaded indicates the screenshot was attached to the test result.
	OutcomeUploaded OutcomeKind = "uploaded"

	// OutcomeMissingScreenshot indicates no screenshot was found on disk.
	OutcomeMissingScreenshot OutcomeKind = "missing_screenshot"

	// OutcomeUnreadableImage indicates the screenshot exists but could not be
	// decoded or re-encoded. No upload is attempted.
	OutcomeUnreadableImage OutcomeKind = "unreadable_image"

	// OutcomeAttachmentFailed indicates the upload returned no reference or failed.
	OutcomeAttachmentFailed OutcomeKind = "attachment_failed"
)

// AttachmentReference identifies an attachment created by the service.
type AttachmentReference struct {
	ID  int    `json:"id"`
	URL string `json:"url"`
}

// IsZero reports whether the reference is empty.
func (r AttachmentReference) IsZero() bool {
	return r.ID == 0 && r.URL == ""
}

// Outcome is the result of processing one failed test case.
type Outcome struct {
	TestCase   FailedTestCase      `json:"test_case"`
	Kind       OutcomeKind         `json:"kind"`
	Path       string              `json:"path,omitempty"`
	FileName   string              `json:"file_name,omitempty"`
	Attachment AttachmentReference `json:"attachment,omitzero"`
	Err        error               `json:"-"`
	Duration   time.Duration       `json:"duration_ns"`
}

// ErrorMessage returns the error message, or an empty string when there is none.
func (o Outcome) ErrorMessage() string {
	if o.Err == nil {
		return ""
	}
	return o.Err.Error()
}

// TaskResult is the overall result reported to the pipeline.
// Values match the Azure Pipelines task.complete result names.
type TaskResult string

// Task results.
const (
	TaskSkipped             TaskResult = "Skipped"
	TaskSucceeded           TaskResult = "Succeeded"
	TaskSucceededWithIssues TaskResult = "SucceededWithIssues"
	TaskFailed              TaskResult = "Failed"
)

// IsFailure reports whether the result should fail the pipeline step.
func (r TaskResult) IsFailure() bool {
	return r == TaskFailed
}
