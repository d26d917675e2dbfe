package cli

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/mrz1836/shotpub/internal/config"
	"github.com/mrz1836/shotpub/internal/constants"
	"github.com/mrz1836/shotpub/internal/logging"
)

// mockTerminalCheckFunc returns a function that can replace terminalCheck in tests.
// The returned cleanup function should be deferred to restore the original.
func mockTerminalCheckFunc(isTerminal bool) func() {
	original := terminalCheck
	terminalCheck = func() bool { return isTerminal }
	return func() { terminalCheck = original }
}

// isolateEnv clears every variable configuration is read from and moves
// into an empty working directory so no .shotpub.yaml is picked up.
func isolateEnv(t *testing.T) {
	t.Helper()
	t.Chdir(t.TempDir())

	keys := []string{
		config.KeyOrganization, config.KeyProject, config.KeyBuildID, config.KeyAccessToken,
		config.KeyServerURL, config.KeyScreenshotFolder, config.KeyOSType, config.KeyRotateAngle,
		config.KeyConcurrency, config.KeyUploadTimeout, config.KeyHTTPTimeout,
		config.KeyReportFile, config.KeyMetricsFile, config.KeyLogFile,
	}
	for _, key := range keys {
		t.Setenv(constants.EnvPrefix+"_"+strings.ToUpper(key), "")
	}
	for _, name := range []string{
		constants.EnvInputOrganization, constants.EnvInputScreenshotDir, constants.EnvInputOSType,
		constants.EnvInputRotateAngle, constants.EnvTeamProject, constants.EnvBuildID,
		constants.EnvSystemAccessToken, constants.EnvEndpointAccessToken,
		"SYSTEM_DEBUG", "TF_BUILD",
	} {
		t.Setenv(name, "")
	}
	t.Setenv(constants.EnvNoColor, "1")

	t.Cleanup(mockTerminalCheckFunc(false))
	t.Cleanup(logging.ResetSecrets)
	t.Cleanup(CloseLogFile)
}

// execute runs the root command with args and captures its output streams.
func execute(t *testing.T, args ...string) (stdout, stderr string, err error) {
	t.Helper()

	flags := &GlobalFlags{}
	cmd := newRootCmd(flags, BuildInfo{Version: "test"})
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)

	err = cmd.ExecuteContext(context.Background())
	return out.String(), errOut.String(), err
}

// writeScreenshot writes a small PNG at folder/rel.
func writeScreenshot(t *testing.T, folder, rel string) string {
	t.Helper()

	path := filepath.Join(folder, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o750))

	img := image.NewRGBA(image.Rect(0, 0, 4, 2))
	for x := 0; x < 4; x++ {
		for y := 0; y < 2; y++ {
			img.Set(x, y, color.RGBA{R: 200, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o600))
	return path
}
