// Package cli provides the command-line interface for shotpub.
package cli

import (
	stderrors "errors"
	"slices"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/mrz1836/shotpub/internal/config"
	"github.com/mrz1836/shotpub/internal/constants"
	"github.com/mrz1836/shotpub/internal/errors"
	"github.com/mrz1836/shotpub/internal/tui"
)

// Exit codes for the CLI.
const (
	// ExitSuccess indicates successful execution.
	ExitSuccess = 0
	// ExitError indicates a general error, including a Failed task result.
	ExitError = 1
	// ExitInvalidInput indicates invalid user input.
	ExitInvalidInput = 2
)

// Output format constants.
const (
	// OutputText is the default human-readable output format.
	OutputText = tui.FormatText
	// OutputJSON is the machine-readable JSON output format.
	OutputJSON = tui.FormatJSON
)

// GlobalFlags holds flags available to all commands.
type GlobalFlags struct {
	// Output specifies the output format (text or json).
	Output string
	// Verbose enables debug-level logging.
	Verbose bool
	// Quiet suppresses non-essential output (warn level only).
	Quiet bool
	// ConfigFile is an explicit config file path.
	ConfigFile string
	// EnvFile is a dotenv file loaded before configuration is resolved.
	EnvFile string
	// LogFile enables a rotating log file in addition to the console.
	LogFile string
}

// AddGlobalFlags adds global flags to a command.
// These flags are available to all subcommands via PersistentFlags.
func AddGlobalFlags(cmd *cobra.Command, flags *GlobalFlags) {
	cmd.PersistentFlags().StringVarP(&flags.Output, "output", "o", OutputText, "output format (text|json)")
	cmd.PersistentFlags().BoolVarP(&flags.Verbose, "verbose", "v", false, "enable verbose output")
	cmd.PersistentFlags().BoolVarP(&flags.Quiet, "quiet", "q", false, "suppress non-essential output")
	cmd.PersistentFlags().StringVar(&flags.ConfigFile, "config", "", "config file (default ./"+constants.ProjectConfigFileName+" when present)")
	cmd.PersistentFlags().StringVar(&flags.EnvFile, "env-file", "", "dotenv file loaded before configuration")
	cmd.PersistentFlags().StringVar(&flags.LogFile, config.FlagNames[config.KeyLogFile], "", "also write logs to this rotating file")
	cmd.MarkFlagsMutuallyExclusive("verbose", "quiet")
}

// BindGlobalFlags binds global flags to Viper for environment variable
// support. The SHOTPUB_ prefix is used for environment variables
// (e.g., SHOTPUB_OUTPUT, SHOTPUB_VERBOSE, SHOTPUB_LOG_FILE).
func BindGlobalFlags(v *viper.Viper, cmd *cobra.Command) error {
	// Root().PersistentFlags() finds root flags from a subcommand's PersistentPreRunE.
	rootFlags := cmd.Root().PersistentFlags()

	bindings := map[string]string{
		"output":          "output",
		"verbose":         "verbose",
		"quiet":           "quiet",
		config.KeyLogFile: config.FlagNames[config.KeyLogFile],
	}
	for key, name := range bindings {
		if err := v.BindPFlag(key, rootFlags.Lookup(name)); err != nil {
			return err
		}
	}

	v.SetEnvPrefix(constants.EnvPrefix)
	v.AutomaticEnv()

	return nil
}

// ValidOutputFormats returns the list of valid output format values.
func ValidOutputFormats() []string {
	return []string{OutputText, OutputJSON}
}

// IsValidOutputFormat checks if the given format is a valid output format.
func IsValidOutputFormat(format string) bool {
	return slices.Contains(ValidOutputFormats(), format)
}

// ExitCodeForError returns the appropriate exit code for the given error.
// Returns ExitSuccess (0) for nil errors, ExitInvalidInput (2) for user input
// errors (invalid flags, bad arguments), and ExitError (1) for all other errors.
func ExitCodeForError(err error) int {
	if err == nil {
		return ExitSuccess
	}

	if stderrors.Is(err, errors.ErrInvalidOutputFormat) {
		return ExitInvalidInput
	}

	// A Failed task result exits 1 even when setup rejected the input.
	if stderrors.Is(err, errTaskFailed) {
		return ExitError
	}

	if isInvalidInputError(err.Error()) {
		return ExitInvalidInput
	}

	return ExitError
}

// isInvalidInputError checks if an error message indicates invalid user input.
// This catches Cobra's built-in flag validation errors.
func isInvalidInputError(errMsg string) bool {
	invalidInputPatterns := []string{
		"unknown flag",
		"unknown shorthand flag",
		"flag needs an argument",
		"invalid argument",
		"if any flags in the group",
		"required flag",
		"unknown command",
	}

	for _, pattern := range invalidInputPatterns {
		if strings.Contains(errMsg, pattern) {
			return true
		}
	}
	return false
}
