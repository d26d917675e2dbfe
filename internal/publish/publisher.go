// Package publish runs the screenshot upload batch for the failed tests of a
// build and reduces the per-test outcomes into a single task result.
package publish

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/mrz1836/shotpub/internal/constants"
	"github.com/mrz1836/shotpub/internal/domain"
	"github.com/mrz1836/shotpub/internal/errors"
	"github.com/mrz1836/shotpub/internal/screenshot"
	"github.com/mrz1836/shotpub/internal/testapi"
)

// Locator finds the screenshot of a failed test case.
type Locator interface {
	Resolve(ctx context.Context, tc domain.FailedTestCase) (screenshot.Location, error)
}

// Encoder loads, rotates and encodes a screenshot as a data URI.
type Encoder interface {
	Transform(ctx context.Context, name string, angle int) (string, error)
}

// Uploader creates attachments on test results.
// *testapi.Client and DryRunUploader implement it.
type Uploader interface {
	CreateResultAttachment(ctx context.Context, req testapi.AttachmentRequest) (domain.AttachmentReference, error)
}

// Recorder receives batch measurements. A nil Recorder disables metrics.
type Recorder interface {
	SetBatchSize(n int)
	ObserveOutcome(kind domain.OutcomeKind, d time.Duration)
}

// ProgressCallback is called once per finished test case. Calls are
// serialized; done counts finished items including this one.
type ProgressCallback func(done, total int, outcome domain.Outcome)

// Config holds the batch settings.
type Config struct {
	// Project is the team project owning the test runs.
	Project string

	// OSType selects the file extension of uploaded attachments.
	OSType domain.OSType

	// RotateAngle is the clockwise rotation applied before upload, in degrees.
	RotateAngle int

	// Concurrency caps in-flight items. Zero means unbounded.
	Concurrency int

	// UploadTimeout bounds each attachment upload. Zero disables the bound.
	UploadTimeout time.Duration

	// Comment is attached to every uploaded screenshot.
	Comment string

	ProgressCallback ProgressCallback
	Recorder         Recorder // Optional
}

// Publisher uploads screenshots for failed test cases.
type Publisher struct {
	locator  Locator
	encoder  Encoder
	uploader Uploader
	config   Config

	progressMu sync.Mutex
	done       int
}

// NewPublisher creates a Publisher.
func NewPublisher(locator Locator, encoder Encoder, uploader Uploader, config Config) *Publisher {
	return &Publisher{
		locator:  locator,
		encoder:  encoder,
		uploader: uploader,
		config:   config,
	}
}

// Result is the reduced outcome of one batch.
type Result struct {
	BatchID   string            `json:"batch_id"`
	Status    domain.TaskResult `json:"status"`
	Message   string            `json:"message"`
	Summary   Summary           `json:"summary"`
	Outcomes  []domain.Outcome  `json:"outcomes"`
	StartedAt time.Time         `json:"started_at"`
	Duration  time.Duration     `json:"duration_ns"`
}

// Run processes every test case and returns the reduced result.
//
// An empty list yields a Skipped result. A test case without run or result
// identifiers aborts the batch before any upload. Per-item failures never
// abort the batch; they are recorded as outcomes. Cancellation of ctx aborts
// the batch and returns ctx.Err().
func (p *Publisher) Run(ctx context.Context, tests []domain.FailedTestCase) (*Result, error) {
	batchID := uuid.NewString()
	logger := zerolog.Ctx(ctx).With().Str("batch_id", batchID).Logger()
	ctx = logger.WithContext(ctx)

	result := &Result{
		BatchID:   batchID,
		StartedAt: time.Now(),
		Outcomes:  []domain.Outcome{},
	}

	total := len(tests)
	if total == 0 {
		result.Status = domain.TaskSkipped
		result.Message = MessageSkipped
		logger.Info().Msg(MessageSkipped)
		return result, nil
	}

	for i := range tests {
		if err := tests[i].Validate(); err != nil {
			return nil, errors.Wrapf(err, "test case %d (%s)", i, tests[i].String())
		}
	}

	if p.config.Recorder != nil {
		p.config.Recorder.SetBatchSize(total)
	}

	logger.Info().Msgf("%d tests failed. Will proceed with screenshot upload.", total)

	p.progressMu.Lock()
	p.done = 0
	p.progressMu.Unlock()

	// Each goroutine owns one slot; the slice is read only after Wait.
	outcomes := make([]domain.Outcome, total)
	ext := p.config.OSType.ImageExtension()

	var g errgroup.Group
	if p.config.Concurrency > 0 {
		g.SetLimit(p.config.Concurrency)
	}

	for i := range tests {
		g.Go(func() error {
			outcomes[i] = p.process(ctx, tests[i], ext)
			p.finish(total, outcomes[i])
			return nil
		})
	}
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		logger.Warn().Err(err).Msg("publish batch canceled")
		return nil, err
	}

	result.Outcomes = outcomes
	result.Summary = Summarize(outcomes)
	result.Status, result.Message = Reduce(result.Summary)
	result.Duration = time.Since(result.StartedAt)

	logger.Debug().
		Int("missing", result.Summary.Missing).
		Int("unreadable", result.Summary.Unreadable).
		Int("attachment_failed", result.Summary.AttachmentFailed).
		Msg("batch reduced")
	logger.Info().Msgf("Task completed. Published %d/%d screenshots", result.Summary.Uploaded, result.Summary.Total)

	return result, nil
}

// process runs resolve, transform and upload for one test case.
func (p *Publisher) process(ctx context.Context, tc domain.FailedTestCase, ext string) domain.Outcome {
	start := time.Now()
	logger := zerolog.Ctx(ctx).With().
		Str("test_name", tc.AutomatedTestName).
		Int("run_id", tc.RunID).
		Int("result_id", tc.ID).
		Logger()

	out := domain.Outcome{
		TestCase: tc,
		FileName: tc.AutomatedTestName + ext,
	}
	finish := func(kind domain.OutcomeKind, err error) domain.Outcome {
		out.Kind = kind
		out.Err = err
		out.Duration = time.Since(start)
		if p.config.Recorder != nil {
			p.config.Recorder.ObserveOutcome(kind, out.Duration)
		}
		return out
	}

	logger.Debug().
		Str("class_name", tc.AutomatedTestStorage).
		Str("test_case_title", tc.TestCaseTitle).
		Msg("processing failed test")

	loc, err := p.locator.Resolve(ctx, tc)
	if err != nil {
		logger.Debug().Err(err).Msgf("Failure - No screenshot found for %s", tc.String())
		return finish(domain.OutcomeMissingScreenshot, err)
	}
	out.Path = loc.Path
	logger.Debug().Str("path", loc.Path).Msg("screenshot found")

	dataURI, err := p.encoder.Transform(ctx, loc.Name, p.config.RotateAngle)
	if err != nil {
		logger.Debug().Err(err).Str("path", loc.Path).Msg("image could not be loaded")
		return finish(domain.OutcomeUnreadableImage, err)
	}
	stream := StripDataURI(dataURI)
	if stream == "" {
		err = errors.Wrapf(errors.ErrImageUnreadable, "%s: empty payload", loc.Path)
		logger.Debug().Err(err).Msg("image could not be loaded")
		return finish(domain.OutcomeUnreadableImage, err)
	}

	uploadCtx := ctx
	if p.config.UploadTimeout > 0 {
		var cancel context.CancelFunc
		uploadCtx, cancel = context.WithTimeout(ctx, p.config.UploadTimeout)
		defer cancel()
	}

	ref, err := p.uploader.CreateResultAttachment(uploadCtx, testapi.AttachmentRequest{
		Project:  p.config.Project,
		RunID:    tc.RunID,
		ResultID: tc.ID,
		Stream:   stream,
		FileName: out.FileName,
		Comment:  p.config.Comment,
	})
	if err == nil && ref.IsZero() {
		err = errors.Wrapf(errors.ErrAttachmentEmpty, "run %d result %d", tc.RunID, tc.ID)
	}
	if err != nil {
		logger.Debug().Err(err).Msg("attachment failed")
		return finish(domain.OutcomeAttachmentFailed, err)
	}

	out.Attachment = ref
	logger.Debug().Str("url", ref.URL).Msg("attachment success")
	return finish(domain.OutcomeUploaded, nil)
}

func (p *Publisher) finish(total int, outcome domain.Outcome) {
	if p.config.ProgressCallback == nil {
		return
	}
	p.progressMu.Lock()
	defer p.progressMu.Unlock()
	p.done++
	p.config.ProgressCallback(p.done, total, outcome)
}

// DefaultConfig returns a Config with the default batch bounds.
func DefaultConfig(project string, osType domain.OSType) Config {
	return Config{
		Project:       project,
		OSType:        osType,
		Concurrency:   constants.DefaultConcurrency,
		UploadTimeout: constants.DefaultUploadTimeout,
	}
}
