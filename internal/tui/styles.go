// Package tui renders shotpub's terminal output.
//
// Colors use lipgloss AdaptiveColor for light and dark terminals. Call
// CheckNoColor() before rendering to respect NO_COLOR and TERM=dumb.
package tui

import (
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"

	"github.com/mrz1836/shotpub/internal/constants"
	"github.com/mrz1836/shotpub/internal/domain"
)

//nolint:gochecknoglobals // Intentional package-level constants for TUI styling API
var (
	// ColorPrimary is used for informational output.
	ColorPrimary = lipgloss.AdaptiveColor{Light: "#0087AF", Dark: "#00D7FF"}

	// ColorSuccess is used for uploaded screenshots and succeeded runs.
	ColorSuccess = lipgloss.AdaptiveColor{Light: "#008700", Dark: "#00FF87"}

	// ColorWarning is used for per-item issues.
	ColorWarning = lipgloss.AdaptiveColor{Light: "#AF8700", Dark: "#FFD700"}

	// ColorError is used for failed runs.
	ColorError = lipgloss.AdaptiveColor{Light: "#AF0000", Dark: "#FF5F5F"}

	// ColorMuted is used for secondary text.
	ColorMuted = lipgloss.AdaptiveColor{Light: "#585858", Dark: "#6C6C6C"}
)

// OutputStyles holds common output styles.
type OutputStyles struct {
	Success lipgloss.Style
	Error   lipgloss.Style
	Warning lipgloss.Style
	Info    lipgloss.Style
	Dim     lipgloss.Style
	Bold    lipgloss.Style
}

// NewOutputStyles creates the output styles.
func NewOutputStyles() *OutputStyles {
	return &OutputStyles{
		Success: lipgloss.NewStyle().
			Foreground(ColorSuccess).
			Bold(true),
		Error: lipgloss.NewStyle().
			Foreground(ColorError).
			Bold(true),
		Warning: lipgloss.NewStyle().
			Foreground(ColorWarning),
		Info: lipgloss.NewStyle().
			Foreground(ColorPrimary),
		Dim: lipgloss.NewStyle().
			Foreground(ColorMuted),
		Bold: lipgloss.NewStyle().Bold(true),
	}
}

// CheckNoColor disables colors when the terminal does not want them.
func CheckNoColor() {
	if !HasColorSupport() {
		lipgloss.SetColorProfile(termenv.Ascii)
	}
}

// HasColorSupport returns false if NO_COLOR is set (any value, including
// empty) or TERM=dumb. See https://no-color.org/.
func HasColorSupport() bool {
	if _, exists := os.LookupEnv(constants.EnvNoColor); exists {
		return false
	}
	return os.Getenv("TERM") != "dumb"
}

// OutcomeIcon returns the icon shown for an outcome kind.
func OutcomeIcon(kind domain.OutcomeKind) string {
	switch kind {
	case domain.OutcomeUploaded:
		return "✓"
	case domain.OutcomeMissingScreenshot:
		return "?"
	case domain.OutcomeUnreadableImage:
		return "!"
	case domain.OutcomeAttachmentFailed:
		return "✗"
	default:
		return "•"
	}
}

// OutcomeStyle returns the style used for an outcome kind.
func (s *OutputStyles) OutcomeStyle(kind domain.OutcomeKind) lipgloss.Style {
	if kind == domain.OutcomeUploaded {
		return s.Success
	}
	return s.Warning
}

// ResultStyle returns the style used for a task result.
func (s *OutputStyles) ResultStyle(result domain.TaskResult) lipgloss.Style {
	switch result {
	case domain.TaskSucceeded:
		return s.Success
	case domain.TaskSucceededWithIssues:
		return s.Warning
	case domain.TaskFailed:
		return s.Error
	default:
		return s.Dim
	}
}
