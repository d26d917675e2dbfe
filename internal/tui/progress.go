package tui

import (
	"fmt"
	"io"
	"sync"

	"github.com/fatih/color"
	"github.com/schollz/progressbar/v3"

	"github.com/mrz1836/shotpub/internal/domain"
)

// ProgressBar shows upload progress with uploaded and issue counts.
type ProgressBar struct {
	mu       sync.Mutex
	bar      *progressbar.ProgressBar
	uploaded int
	issues   int
}

// NewProgressBar creates a progress bar for total items writing to w.
func NewProgressBar(w io.Writer, total int) *ProgressBar {
	bar := progressbar.NewOptions(total,
		progressbar.OptionSetDescription(describe(0, 0)),
		progressbar.OptionSetWidth(40),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        color.CyanString("█"),
			SaucerHead:    color.CyanString("█"),
			SaucerPadding: "░",
			BarStart:      "│",
			BarEnd:        "│",
		}),
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionSetWriter(w),
		progressbar.OptionShowCount(),
		progressbar.OptionOnCompletion(func() {
			_, _ = fmt.Fprint(w, "\n")
		}),
		progressbar.OptionSetRenderBlankState(true),
	)

	return &ProgressBar{bar: bar}
}

// Update records one finished item. It matches publish.ProgressCallback.
func (p *ProgressBar) Update(done, _ int, outcome domain.Outcome) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if outcome.Kind == domain.OutcomeUploaded {
		p.uploaded++
	} else {
		p.issues++
	}
	p.bar.Describe(describe(p.uploaded, p.issues))
	_ = p.bar.Set(done)
}

// Finish completes the progress bar.
func (p *ProgressBar) Finish() {
	p.mu.Lock()
	defer p.mu.Unlock()
	_ = p.bar.Finish()
}

// Counts returns the uploaded and issue counts seen so far.
func (p *ProgressBar) Counts() (uploaded, issues int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.uploaded, p.issues
}

func describe(uploaded, issues int) string {
	return color.CyanString("Publishing screenshots: ") +
		color.GreenString("[uploaded: %d", uploaded) +
		" | " +
		color.YellowString("issues: %d]", issues)
}
