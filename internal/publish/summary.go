package publish

import (
	"strings"

	"github.com/mrz1836/shotpub/internal/domain"
)

// Task messages.
const (
	MessageSkipped   = "No test failures found."
	MessageSucceeded = "All screenshots were published successfully."

	messageAllMissing       = "All screenshots were missing. "
	messageSomeMissing      = "Some screenshots were missing. "
	messageAllUnreadable    = "All screenshots were unreadable. "
	messageSomeUnreadable   = "Some screenshots were unreadable. "
	messageAllAttachFailed  = "All attachments failed. "
	messageSomeAttachFailed = "Some attachments failed. "
)

// Summary counts outcomes by kind.
type Summary struct {
	Total            int `json:"total" yaml:"total"`
	Uploaded         int `json:"uploaded" yaml:"uploaded"`
	Missing          int `json:"missing" yaml:"missing"`
	Unreadable       int `json:"unreadable" yaml:"unreadable"`
	AttachmentFailed int `json:"attachment_failed" yaml:"attachment_failed"`
}

// HasIssues reports whether any item did not upload.
func (s Summary) HasIssues() bool {
	return s.Missing > 0 || s.Unreadable > 0 || s.AttachmentFailed > 0
}

// Summarize counts outcomes. Every outcome increments exactly one counter.
func Summarize(outcomes []domain.Outcome) Summary {
	s := Summary{Total: len(outcomes)}
	for _, o := range outcomes {
		switch o.Kind {
		case domain.OutcomeUploaded:
			s.Uploaded++
		case domain.OutcomeMissingScreenshot:
			s.Missing++
		case domain.OutcomeUnreadableImage:
			s.Unreadable++
		case domain.OutcomeAttachmentFailed:
			s.AttachmentFailed++
		}
	}
	return s
}

// Reduce selects the task result and message for a non-empty batch.
func Reduce(s Summary) (domain.TaskResult, string) {
	if s.Total == 0 {
		return domain.TaskSkipped, MessageSkipped
	}
	if !s.HasIssues() {
		return domain.TaskSucceeded, MessageSucceeded
	}

	var b strings.Builder
	b.WriteString(fragment(s.Missing, s.Total, messageAllMissing, messageSomeMissing))
	b.WriteString(fragment(s.Unreadable, s.Total, messageAllUnreadable, messageSomeUnreadable))
	b.WriteString(fragment(s.AttachmentFailed, s.Total, messageAllAttachFailed, messageSomeAttachFailed))

	return domain.TaskSucceededWithIssues, b.String()
}

func fragment(count, total int, all, some string) string {
	switch {
	case count == 0:
		return ""
	case count == total:
		return all
	default:
		return some
	}
}

// StripDataURI returns the text after the first comma of a data URI, or the
// input unchanged when it has no comma.
func StripDataURI(s string) string {
	if _, payload, ok := strings.Cut(s, ","); ok {
		return payload
	}
	return s
}
