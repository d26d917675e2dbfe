package tui

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/mrz1836/shotpub/internal/domain"
)

func TestHasColorSupport(t *testing.T) {
	t.Run("no color set", func(t *testing.T) {
		t.Setenv("NO_COLOR", "")
		assert.False(t, HasColorSupport())
	})

	t.Run("dumb terminal", func(t *testing.T) {
		t.Setenv("TERM", "dumb")
		assert.False(t, HasColorSupport())
	})
}

func TestOutcomeIcon(t *testing.T) {
	t.Parallel()

	icons := map[domain.OutcomeKind]string{
		domain.OutcomeUploaded:          "✓",
		domain.OutcomeMissingScreenshot: "?",
		domain.OutcomeUnreadableImage:   "!",
		domain.OutcomeAttachmentFailed:  "✗",
		domain.OutcomeKind("other"):     "•",
	}
	for kind, icon := range icons {
		assert.Equal(t, icon, OutcomeIcon(kind), "kind %s", kind)
	}
}

func TestResultStyle(t *testing.T) {
	t.Parallel()

	s := NewOutputStyles()
	assert.Equal(t, s.Success, s.ResultStyle(domain.TaskSucceeded))
	assert.Equal(t, s.Warning, s.ResultStyle(domain.TaskSucceededWithIssues))
	assert.Equal(t, s.Error, s.ResultStyle(domain.TaskFailed))
	assert.Equal(t, s.Dim, s.ResultStyle(domain.TaskSkipped))
	assert.Equal(t, s.Success, s.OutcomeStyle(domain.OutcomeUploaded))
	assert.Equal(t, s.Warning, s.OutcomeStyle(domain.OutcomeAttachmentFailed))
}
