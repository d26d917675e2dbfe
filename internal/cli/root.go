package cli

import (
	"context"
	"fmt"
	"sync"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/mrz1836/shotpub/internal/config"
	"github.com/mrz1836/shotpub/internal/errors"
)

// BuildInfo contains version information set at build time via ldflags.
type BuildInfo struct {
	// Version is the semantic version (e.g., "1.0.0").
	Version string
	// Commit is the git commit hash.
	Commit string
	// Date is the build date.
	Date string
}

// globalLogger stores the initialized logger for use by subcommands.
// This is set during PersistentPreRunE and should be accessed via GetLogger.
var (
	globalLogger   zerolog.Logger //nolint:gochecknoglobals // CLI logger requires global access
	globalLoggerMu sync.RWMutex   //nolint:gochecknoglobals // Protects globalLogger
)

// GetLogger returns the initialized logger for use by subcommands.
//
// It MUST only be called after the root command's PersistentPreRunE has
// executed. Before that it returns a zero-value logger that discards all
// output. This function is safe for concurrent use.
func GetLogger() zerolog.Logger {
	globalLoggerMu.RLock()
	defer globalLoggerMu.RUnlock()
	return globalLogger
}

// setLogger replaces the logger returned by GetLogger.
func setLogger(logger zerolog.Logger) {
	globalLoggerMu.Lock()
	globalLogger = logger
	globalLoggerMu.Unlock()
}

// newRootCmd creates and returns the root command for the shotpub CLI.
func newRootCmd(flags *GlobalFlags, info BuildInfo) *cobra.Command {
	v := viper.New()

	cmd := &cobra.Command{
		Use:   "shotpub",
		Short: "Publish screenshots of failed mobile UI tests to Azure DevOps",
		Long: `shotpub runs as a step of an Azure Pipelines build. It looks up the failed
test results of the build, finds the screenshot each failed Android or iOS UI
test left on disk, and attaches it to the test result so it shows up in the
Tests tab.

Inputs come from flags, SHOTPUB_* variables, the pipeline's own variables
(System.TeamProject, Build.BuildId, System.AccessToken) or a .shotpub.yaml file.`,
		Version: formatVersion(info),
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Help()
		},
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if err := BindGlobalFlags(v, cmd); err != nil {
				return fmt.Errorf("failed to bind flags: %w", err)
			}

			if !IsValidOutputFormat(flags.Output) {
				return fmt.Errorf("%w: %q must be one of %v", errors.ErrInvalidOutputFormat, flags.Output, ValidOutputFormats())
			}

			// The dotenv file must be loaded before any SHOTPUB_* lookup.
			if flags.EnvFile != "" {
				if err := godotenv.Load(flags.EnvFile); err != nil {
					return fmt.Errorf("failed to load env file %s: %w", flags.EnvFile, err)
				}
			}

			setLogger(InitLogger(flags.Verbose, flags.Quiet, v.GetString(config.KeyLogFile)))
			return nil
		},
		SilenceUsage: true,
	}

	AddGlobalFlags(cmd, flags)

	AddPublishCommand(cmd, flags)
	AddResolveCommand(cmd, flags)

	return cmd
}

// formatVersion creates the version string from build info.
func formatVersion(info BuildInfo) string {
	if info.Version == "" {
		info.Version = "dev"
	}
	if info.Commit == "" {
		info.Commit = "none"
	}
	if info.Date == "" {
		info.Date = "unknown"
	}
	return fmt.Sprintf("%s (commit: %s, built: %s)", info.Version, info.Commit, info.Date)
}

// Execute runs the root command with the provided context and build info.
func Execute(ctx context.Context, info BuildInfo) error {
	defer CloseLogFile()

	flags := &GlobalFlags{}
	//nolint:contextcheck // Cobra command pattern uses cmd.Context() internally
	cmd := newRootCmd(flags, info)
	return cmd.ExecuteContext(ctx)
}
