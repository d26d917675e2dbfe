package cli

import (
	"context"
	"io"

	"github.com/spf13/cobra"

	"github.com/mrz1836/shotpub/internal/domain"
	"github.com/mrz1836/shotpub/internal/screenshot"
	"github.com/mrz1836/shotpub/internal/tui"
)

// resolveResult is the JSON form of a resolve lookup.
type resolveResult struct {
	Storage string `json:"automated_test_storage"`
	Test    string `json:"automated_test_name"`
	OSType  string `json:"os_type"`
	Folder  string `json:"screenshot_folder"`
	Found   bool   `json:"found"`
	Path    string `json:"path,omitempty"`
	Error   string `json:"error,omitempty"`
}

// AddResolveCommand adds the resolve command to the root command.
func AddResolveCommand(root *cobra.Command, flags *GlobalFlags) {
	root.AddCommand(newResolveCmd(flags))
}

func newResolveCmd(flags *GlobalFlags) *cobra.Command {
	var storage, test string

	cmd := &cobra.Command{
		Use:   "resolve",
		Short: "Show which screenshot would be attached to a failed test",
		Long: `Run only the screenshot lookup for one test and print the file it finds.
Nothing is contacted or uploaded; use it to check a screenshot folder layout.

Examples:
  shotpub resolve --storage com.example.LoginTest --test testLogin
  shotpub resolve --os-type ios --storage MyAppUITests.LoginTests --test testLogin`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runResolve(cmd.Context(), cmd, flags, storage, test, cmd.OutOrStdout())
		},
	}

	cmd.Flags().StringVar(&storage, "storage", "", "automated test storage (the fully qualified class name)")
	cmd.Flags().StringVar(&test, "test", "", "automated test name")
	_ = cmd.MarkFlagRequired("storage")
	_ = cmd.MarkFlagRequired("test")
	addScreenshotFlags(cmd)

	return cmd
}

func runResolve(ctx context.Context, cmd *cobra.Command, flags *GlobalFlags, storage, test string, w io.Writer) error {
	tui.CheckNoColor()
	out := tui.NewOutput(w, flags.Output)

	cfg, logger, err := loadConfig(ctx, cmd, flags)
	if err != nil {
		return err
	}
	ctx = logger.WithContext(ctx)

	osType := domain.ParseOSType(cfg.OSType)
	resolver := screenshot.NewResolver(cfg.ScreenshotFolder, osType)

	res := resolveResult{
		Storage: storage,
		Test:    test,
		OSType:  string(osType),
		Folder:  cfg.ScreenshotFolder,
	}

	loc, err := resolver.Resolve(ctx, domain.FailedTestCase{
		AutomatedTestStorage: storage,
		AutomatedTestName:    test,
	})
	if err != nil {
		res.Error = err.Error()
		if flags.Output == OutputJSON {
			_ = out.JSON(res)
		}
		return err
	}

	res.Found = true
	res.Path = loc.Path
	if flags.Output == OutputJSON {
		return out.JSON(res)
	}
	out.Success(loc.Path)
	return nil
}
