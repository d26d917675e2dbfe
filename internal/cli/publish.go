package cli

import (
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/mrz1836/shotpub/internal/config"
	"github.com/mrz1836/shotpub/internal/domain"
	"github.com/mrz1836/shotpub/internal/errors"
	"github.com/mrz1836/shotpub/internal/logging"
	"github.com/mrz1836/shotpub/internal/metrics"
	"github.com/mrz1836/shotpub/internal/pipelines"
	"github.com/mrz1836/shotpub/internal/publish"
	"github.com/mrz1836/shotpub/internal/report"
	"github.com/mrz1836/shotpub/internal/screenshot"
	"github.com/mrz1836/shotpub/internal/testapi"
	"github.com/mrz1836/shotpub/internal/tui"
)

// errTaskFailed is returned when the run ends with a Failed task result.
var errTaskFailed = stderrors.New("task failed")

type publishOptions struct {
	dryRun  bool
	comment string
}

// AddPublishCommand adds the publish command to the root command.
func AddPublishCommand(root *cobra.Command, flags *GlobalFlags) {
	root.AddCommand(newPublishCmd(flags))
}

func newPublishCmd(flags *GlobalFlags) *cobra.Command {
	opts := &publishOptions{}

	cmd := &cobra.Command{
		Use:   "publish",
		Short: "Attach screenshots of failed tests to their test results",
		Long: `Fetch the failed test results of a build and attach the screenshot of each
failed test to its result.

The step never fails because of a single screenshot. Missing screenshots,
unreadable images and rejected uploads end the step as SucceededWithIssues.
It fails only when the inputs are invalid or the service cannot be reached.

Examples:
  shotpub publish
  shotpub publish --os-type ios --screenshot-folder ./screenshots
  shotpub publish --rotate 90 --report-file shotpub-report.json
  shotpub publish --env-file .env --dry-run`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runPublish(cmd.Context(), cmd, flags, opts, cmd.OutOrStdout(), cmd.ErrOrStderr())
		},
	}

	addServiceFlags(cmd)
	addScreenshotFlags(cmd)
	cmd.Flags().BoolVar(&opts.dryRun, "dry-run", false, "resolve and encode screenshots without uploading them")
	cmd.Flags().StringVar(&opts.comment, "comment", "", "comment stored with every attachment")

	return cmd
}

// publishRun carries the sinks of one publish invocation.
type publishRun struct {
	flags   *GlobalFlags
	opts    *publishOptions
	logger  zerolog.Logger
	sink    *pipelines.Writer
	out     tui.Output
	stderr  io.Writer
	metrics *metrics.Metrics
	cfg     *config.Config
	started time.Time
}

// runPublish executes Setup, Fetch, Batch and Report. Logging commands go
// to stdout for the agent; human or JSON output goes to stderr.
func runPublish(ctx context.Context, cmd *cobra.Command, flags *GlobalFlags, opts *publishOptions, stdout, stderr io.Writer) error {
	tui.CheckNoColor()

	run := &publishRun{
		flags:   flags,
		opts:    opts,
		logger:  GetLogger(),
		sink:    pipelines.NewWriter(logging.NewFilteringWriter(stdout), flags.Verbose || pipelines.DebugEnabled()),
		out:     tui.NewOutput(stderr, flags.Output),
		stderr:  stderr,
		metrics: metrics.New(),
		started: time.Now(),
	}

	client, err := run.setup(ctx, cmd)
	if err != nil {
		return run.fail(ctx, err)
	}
	ctx = run.logger.WithContext(ctx)

	tests, err := client.FailedResultsByBuild(ctx, run.cfg.Project, run.cfg.BuildID)
	if err != nil {
		return run.fail(ctx, err)
	}

	var uploader publish.Uploader = client
	if opts.dryRun {
		run.logger.Info().Msg("dry run: screenshots are encoded but not uploaded")
		uploader = &publish.DryRunUploader{}
	}

	result, err := run.batch(ctx, tests, uploader)
	if err != nil {
		return run.fail(ctx, err)
	}

	return run.report(result)
}

// setup loads and validates the configuration and connects to the service.
func (r *publishRun) setup(ctx context.Context, cmd *cobra.Command) (*testapi.Client, error) {
	cfg, logger, err := loadConfig(ctx, cmd, r.flags)
	if err != nil {
		return nil, err
	}
	r.cfg = cfg
	r.logger = logger

	if err := config.Validate(cfg); err != nil {
		return nil, err
	}
	logging.RegisterSecret(cfg.AccessToken)

	client := testapi.NewClient(cfg.ServerURL, cfg.Organization, cfg.AccessToken, cfg.HTTPTimeout)

	conn, err := client.Connect(r.logger.WithContext(ctx))
	if err != nil {
		return nil, err
	}
	r.logger.Info().
		Str("url", client.BaseURL()).
		Str("instance_id", conn.InstanceID).
		Str("user", conn.AuthenticatedUser.ProviderDisplayName).
		Msg("connected to test management service")

	return client, nil
}

// batch runs the publisher over the failed tests.
func (r *publishRun) batch(ctx context.Context, tests []domain.FailedTestCase, uploader publish.Uploader) (*publish.Result, error) {
	osType := domain.ParseOSType(r.cfg.OSType)
	resolver := screenshot.NewResolver(r.cfg.ScreenshotFolder, osType)
	encoder := screenshot.NewTransformer(resolver.FS())

	pcfg := publish.DefaultConfig(r.cfg.Project, osType)
	pcfg.RotateAngle = r.cfg.RotateAngle
	pcfg.Concurrency = r.cfg.Concurrency
	pcfg.UploadTimeout = r.cfg.UploadTimeout
	pcfg.Comment = r.opts.comment
	pcfg.Recorder = r.metrics

	if r.showProgress() && len(tests) > 0 {
		bar := tui.NewProgressBar(r.stderr, len(tests))
		pcfg.ProgressCallback = bar.Update
		defer bar.Finish()
	}

	return publish.NewPublisher(resolver, encoder, uploader, pcfg).Run(ctx, tests)
}

func (r *publishRun) showProgress() bool {
	return r.flags.Output == OutputText && !r.flags.Quiet && terminalCheck()
}

// report emits the task result and writes the optional artifacts.
func (r *publishRun) report(result *publish.Result) error {
	for _, oc := range result.Outcomes {
		_ = r.sink.Debug(fmt.Sprintf("%s: %s %s", oc.TestCase.String(), oc.Kind, oc.Path))
		if oc.Kind != domain.OutcomeUploaded {
			_ = r.sink.Warning(issueLine(oc))
		}
	}
	if err := r.sink.Complete(result.Status, result.Message); err != nil {
		r.logger.Error().Err(err).Msg("failed to write task result")
	}

	rep := report.New(r.meta(), result.Status, result.Message, result)
	r.writeArtifacts(rep, result.Status)

	if r.flags.Output == OutputJSON {
		return r.out.JSON(rep)
	}
	r.out.Result(result)
	return nil
}

// fail reports a Failed task result for a Setup, Fetch or Batch error.
func (r *publishRun) fail(ctx context.Context, err error) error {
	message := errors.UserMessage(err)
	if ctxErr := ctx.Err(); ctxErr != nil {
		message = "Publishing was interrupted: " + ctxErr.Error()
	}

	r.logger.Error().Err(err).Msg("publish failed")
	_ = r.sink.Error(message)
	if sinkErr := r.sink.Complete(domain.TaskFailed, message); sinkErr != nil {
		r.logger.Error().Err(sinkErr).Msg("failed to write task result")
	}

	rep := report.New(r.meta(), domain.TaskFailed, message, nil)
	r.writeArtifacts(rep, domain.TaskFailed)

	if r.flags.Output == OutputJSON {
		_ = r.out.JSON(rep)
	} else {
		r.out.Error(stderrors.New(message))
	}
	return fmt.Errorf("%w: %s", errTaskFailed, message)
}

// writeArtifacts writes the metrics textfile and the run report when configured.
// Failures are logged; they never change the task result.
func (r *publishRun) writeArtifacts(rep *report.Report, status domain.TaskResult) {
	r.metrics.RecordResult(status, time.Since(r.started))

	if r.cfg == nil {
		return
	}
	if path := r.cfg.MetricsFile; path != "" {
		if err := r.metrics.WriteTextfile(path); err != nil {
			r.logger.Warn().Err(err).Str("path", path).Msg("failed to write metrics")
		}
	}
	if path := r.cfg.ReportFile; path != "" {
		if err := report.Write(rep, path); err != nil {
			r.logger.Warn().Err(err).Str("path", path).Msg("failed to write report")
		} else {
			r.logger.Debug().Str("path", path).Msg("report written")
		}
	}
}

func (r *publishRun) meta() report.Meta {
	meta := report.Meta{DryRun: r.opts.dryRun}
	if r.cfg != nil {
		meta.Organization = r.cfg.Organization
		meta.Project = r.cfg.Project
		meta.BuildID = r.cfg.BuildID
		meta.OSType = string(domain.ParseOSType(r.cfg.OSType))
	}
	return meta
}

// issueLine describes a test whose screenshot was not attached.
func issueLine(oc domain.Outcome) string {
	switch oc.Kind {
	case domain.OutcomeMissingScreenshot:
		return "No screenshot found for " + oc.TestCase.String()
	case domain.OutcomeUnreadableImage:
		return fmt.Sprintf("Screenshot of %s could not be loaded: %s", oc.TestCase.String(), oc.ErrorMessage())
	case domain.OutcomeAttachmentFailed:
		return fmt.Sprintf("Screenshot of %s could not be attached: %s", oc.TestCase.String(), oc.ErrorMessage())
	default:
		return fmt.Sprintf("%s: %s", oc.TestCase.String(), oc.Kind)
	}
}
