package cli

import (
	"context"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/mrz1836/shotpub/internal/config"
	"github.com/mrz1836/shotpub/internal/constants"
)

// addScreenshotFlags adds the flags that select where screenshots are
// looked up and how they are named.
func addScreenshotFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.String(config.FlagNames[config.KeyScreenshotFolder], constants.DefaultScreenshotFolder, "folder holding the screenshots of failed tests")
	f.String(config.FlagNames[config.KeyOSType], constants.DefaultOSType, "naming rules of the screenshot folder (android|ios)")
}

// addServiceFlags adds the flags that identify the build and tune the upload.
// The access token is read from the environment only.
func addServiceFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.String(config.FlagNames[config.KeyOrganization], "", "Azure DevOps organization")
	f.String(config.FlagNames[config.KeyProject], "", "team project (default $SYSTEM_TEAMPROJECT)")
	f.Int(config.FlagNames[config.KeyBuildID], 0, "build whose failed tests get screenshots (default $BUILD_BUILDID)")
	f.String(config.FlagNames[config.KeyServerURL], constants.DefaultServerURL, "Azure DevOps server URL")
	f.String(config.FlagNames[config.KeyRotateAngle], "0", "clockwise rotation applied before upload, in degrees")
	f.Int(config.FlagNames[config.KeyConcurrency], constants.DefaultConcurrency, "screenshots processed at once (0 for unbounded)")
	f.Duration(config.FlagNames[config.KeyUploadTimeout], constants.DefaultUploadTimeout, "timeout of a single attachment upload")
	f.String(config.FlagNames[config.KeyReportFile], "", "write a run report (.json, .yaml or .yml)")
	f.String(config.FlagNames[config.KeyMetricsFile], "", "write Prometheus metrics in the textfile format")
}

// loadConfig resolves the configuration for a command. When the resolved
// log file differs from the one opened at startup (for example because
// only the config file names it), the logger is re-initialized.
func loadConfig(ctx context.Context, cmd *cobra.Command, flags *GlobalFlags) (*config.Config, zerolog.Logger, error) {
	cfg, err := config.Load(ctx, config.LoadOptions{
		ConfigFile: flags.ConfigFile,
		Flags:      cmd.Flags(),
	})
	if err != nil {
		return nil, GetLogger(), err
	}

	if cfg.LogFile != "" && cfg.LogFile != LogFilePath() {
		setLogger(InitLogger(flags.Verbose, flags.Quiet, cfg.LogFile))
	}
	return cfg, GetLogger(), nil
}
