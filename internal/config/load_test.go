package config

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrz1836/shotpub/internal/constants"
	"github.com/mrz1836/shotpub/internal/errors"
)

// isolateEnv runs the test in an empty directory with every variable the
// loader reads cleared. Empty values count as unset.
func isolateEnv(t *testing.T) {
	t.Helper()
	t.Chdir(t.TempDir())
	for _, key := range keys {
		t.Setenv(constants.EnvPrefix+"_"+strings.ToUpper(key), "")
		for _, name := range envBindings[key] {
			t.Setenv(name, "")
		}
	}
}

func newFlags(t *testing.T) *pflag.FlagSet {
	t.Helper()
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	fs.String(FlagNames[KeyOrganization], "", "")
	fs.String(FlagNames[KeyProject], "", "")
	fs.Int(FlagNames[KeyBuildID], 0, "")
	fs.String(FlagNames[KeyOSType], "", "")
	fs.String(FlagNames[KeyRotateAngle], "", "")
	fs.String(FlagNames[KeyScreenshotFolder], "", "")
	fs.Int(FlagNames[KeyConcurrency], 0, "")
	fs.Duration(FlagNames[KeyUploadTimeout], 0, "")
	return fs
}

func TestLoad_Defaults(t *testing.T) {
	isolateEnv(t)

	cfg, err := Load(context.Background(), LoadOptions{})
	require.NoError(t, err)

	assert.Equal(t, constants.DefaultServerURL, cfg.ServerURL)
	assert.Equal(t, constants.DefaultScreenshotFolder, cfg.ScreenshotFolder)
	assert.Equal(t, "android", cfg.OSType)
	assert.Equal(t, 0, cfg.RotateAngle)
	assert.Equal(t, constants.DefaultConcurrency, cfg.Concurrency)
	assert.Equal(t, constants.DefaultUploadTimeout, cfg.UploadTimeout)
	assert.Equal(t, constants.DefaultHTTPTimeout, cfg.HTTPTimeout)
	assert.Empty(t, cfg.Organization)

	require.ErrorIs(t, Validate(cfg), errors.ErrOrganizationRequired)
}

func TestLoad_PipelineEnvironment(t *testing.T) {
	isolateEnv(t)
	t.Setenv(constants.EnvInputOrganization, "contoso")
	t.Setenv(constants.EnvTeamProject, "Mobile App")
	t.Setenv(constants.EnvBuildID, "1234")
	t.Setenv(constants.EnvEndpointAccessToken, "endpoint-token")
	t.Setenv(constants.EnvSystemAccessToken, "system-token")
	t.Setenv(constants.EnvInputScreenshotDir, "shots")
	t.Setenv(constants.EnvInputOSType, "ios")
	t.Setenv(constants.EnvInputRotateAngle, "90")

	cfg, err := Load(context.Background(), LoadOptions{})
	require.NoError(t, err)
	require.NoError(t, Validate(cfg))

	assert.Equal(t, "contoso", cfg.Organization)
	assert.Equal(t, "Mobile App", cfg.Project)
	assert.Equal(t, 1234, cfg.BuildID)
	assert.Equal(t, "endpoint-token", cfg.AccessToken)
	assert.Equal(t, "shots/", cfg.ScreenshotFolder)
	assert.Equal(t, "ios", cfg.OSType)
	assert.Equal(t, 90, cfg.RotateAngle)
}

func TestLoad_EmptyInputsFallBack(t *testing.T) {
	isolateEnv(t)
	t.Setenv(constants.EnvInputScreenshotDir, "")
	t.Setenv(constants.EnvInputOSType, "")
	t.Setenv(constants.EnvSystemAccessToken, "system-token")

	cfg, err := Load(context.Background(), LoadOptions{})
	require.NoError(t, err)
	assert.Equal(t, constants.DefaultScreenshotFolder, cfg.ScreenshotFolder)
	assert.Equal(t, "android", cfg.OSType)
	assert.Equal(t, "system-token", cfg.AccessToken)
}

func TestLoad_OSTypeKeptVerbatim(t *testing.T) {
	isolateEnv(t)
	t.Setenv(constants.EnvInputOSType, " iOS ")

	cfg, err := Load(context.Background(), LoadOptions{})
	require.NoError(t, err)
	assert.Equal(t, " iOS ", cfg.OSType)
}

func TestLoad_NonNumericRotation(t *testing.T) {
	isolateEnv(t)
	t.Setenv(constants.EnvInputRotateAngle, "sideways")

	cfg, err := Load(context.Background(), LoadOptions{})
	require.NoError(t, err)
	assert.Equal(t, 0, cfg.RotateAngle)
}

func TestLoad_PrefixedEnvWinsOverPipelineVariable(t *testing.T) {
	isolateEnv(t)
	t.Setenv("SHOTPUB_ORGANIZATION", "override")
	t.Setenv(constants.EnvInputOrganization, "contoso")
	t.Setenv("SHOTPUB_REPORT_FILE", "report.json")
	t.Setenv("SHOTPUB_UPLOAD_TIMEOUT", "5s")

	cfg, err := Load(context.Background(), LoadOptions{})
	require.NoError(t, err)
	assert.Equal(t, "override", cfg.Organization)
	assert.Equal(t, "report.json", cfg.ReportFile)
	assert.Equal(t, 5*time.Second, cfg.UploadTimeout)
}

func TestLoad_ConfigFile(t *testing.T) {
	isolateEnv(t)

	path := filepath.Join(t.TempDir(), "shotpub.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
organization: from-file
project: Mobile
build_id: 7
os_type: ios
screenshot_rotate_angle: 270
concurrency: 2
upload_timeout: 15s
`), 0o600))

	cfg, err := Load(context.Background(), LoadOptions{ConfigFile: path})
	require.NoError(t, err)
	assert.Equal(t, "from-file", cfg.Organization)
	assert.Equal(t, 7, cfg.BuildID)
	assert.Equal(t, "ios", cfg.OSType)
	assert.Equal(t, 270, cfg.RotateAngle)
	assert.Equal(t, 2, cfg.Concurrency)
	assert.Equal(t, 15*time.Second, cfg.UploadTimeout)
}

func TestLoad_ProjectConfigFile(t *testing.T) {
	isolateEnv(t)
	require.NoError(t, os.WriteFile(constants.ProjectConfigFileName, []byte("organization: local\n"), 0o600))

	cfg, err := Load(context.Background(), LoadOptions{})
	require.NoError(t, err)
	assert.Equal(t, "local", cfg.Organization)
}

func TestLoad_MissingExplicitConfigFile(t *testing.T) {
	isolateEnv(t)

	_, err := Load(context.Background(), LoadOptions{ConfigFile: filepath.Join(t.TempDir(), "none.yaml")})
	require.Error(t, err)
}

func TestLoad_FlagsTakePrecedence(t *testing.T) {
	isolateEnv(t)
	t.Setenv(constants.EnvInputOrganization, "from-env")
	t.Setenv(constants.EnvInputOSType, "ios")
	t.Setenv("SHOTPUB_CONCURRENCY", "4")

	flags := newFlags(t)
	require.NoError(t, flags.Parse([]string{"--organization", "from-flag", "--rotate", "-90", "--build-id", "9"}))

	cfg, err := Load(context.Background(), LoadOptions{Flags: flags})
	require.NoError(t, err)
	assert.Equal(t, "from-flag", cfg.Organization)
	assert.Equal(t, -90, cfg.RotateAngle)
	assert.Equal(t, 9, cfg.BuildID)
	// Unset flags do not shadow the environment.
	assert.Equal(t, "ios", cfg.OSType)
	assert.Equal(t, 4, cfg.Concurrency)
}

func TestLoad_InvalidSettings(t *testing.T) {
	isolateEnv(t)
	t.Setenv("SHOTPUB_CONCURRENCY", "-2")

	_, err := Load(context.Background(), LoadOptions{})
	require.ErrorIs(t, err, errors.ErrConfigInvalid)
}

func TestLoad_MalformedBuildID(t *testing.T) {
	isolateEnv(t)
	t.Setenv(constants.EnvBuildID, "not-a-number")

	_, err := Load(context.Background(), LoadOptions{})
	require.ErrorIs(t, err, errors.ErrConfigInvalid)
}
