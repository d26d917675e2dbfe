package config

import (
	"context"
	stderrors "errors"
	"os"
	"strings"

	"github.com/go-viper/mapstructure/v2"
	"github.com/rs/zerolog"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/mrz1836/shotpub/internal/constants"
	"github.com/mrz1836/shotpub/internal/errors"
)

// Configuration keys. They match the YAML tag names of Config.
const (
	KeyOrganization     = "organization"
	KeyProject          = "project"
	KeyBuildID          = "build_id"
	KeyAccessToken      = "access_token"
	KeyServerURL        = "server_url"
	KeyScreenshotFolder = "screenshot_folder"
	KeyOSType           = "os_type"
	KeyRotateAngle      = "screenshot_rotate_angle"
	KeyConcurrency      = "concurrency"
	KeyUploadTimeout    = "upload_timeout"
	KeyHTTPTimeout      = "http_timeout"
	KeyReportFile       = "report_file"
	KeyMetricsFile      = "metrics_file"
	KeyLogFile          = "log_file"
)

// keys lists every configuration key. Each is bound to SHOTPUB_<KEY> so
// keys without a default still unmarshal from the environment.
//
//nolint:gochecknoglobals // Static key list
var keys = []string{
	KeyOrganization, KeyProject, KeyBuildID, KeyAccessToken, KeyServerURL,
	KeyScreenshotFolder, KeyOSType, KeyRotateAngle, KeyConcurrency,
	KeyUploadTimeout, KeyHTTPTimeout, KeyReportFile, KeyMetricsFile, KeyLogFile,
}

// envBindings lists the pipeline variables read for a key after
// SHOTPUB_<KEY>; the first non-empty one wins.
//
//nolint:gochecknoglobals // Static binding table
var envBindings = map[string][]string{
	KeyOrganization:     {constants.EnvInputOrganization},
	KeyProject:          {constants.EnvTeamProject},
	KeyBuildID:          {constants.EnvBuildID},
	KeyAccessToken:      {constants.EnvEndpointAccessToken, constants.EnvSystemAccessToken},
	KeyScreenshotFolder: {constants.EnvInputScreenshotDir},
	KeyOSType:           {constants.EnvInputOSType},
	KeyRotateAngle:      {constants.EnvInputRotateAngle},
}

// FlagNames maps configuration keys to their CLI flag names.
//
//nolint:gochecknoglobals // Static binding table
var FlagNames = map[string]string{
	KeyOrganization:     "organization",
	KeyProject:          "project",
	KeyBuildID:          "build-id",
	KeyServerURL:        "server-url",
	KeyScreenshotFolder: "screenshot-folder",
	KeyOSType:           "os-type",
	KeyRotateAngle:      "rotate",
	KeyConcurrency:      "concurrency",
	KeyUploadTimeout:    "upload-timeout",
	KeyReportFile:       "report-file",
	KeyMetricsFile:      "metrics-file",
	KeyLogFile:          "log-file",
}

// LoadOptions selects the optional configuration sources.
type LoadOptions struct {
	// ConfigFile is an explicit config file. When empty, .shotpub.yaml in the
	// working directory is used if present.
	ConfigFile string

	// Flags are bound for every key in FlagNames. Only flags the user set
	// take precedence over other sources.
	Flags *pflag.FlagSet
}

// newViperInstance creates a Viper instance with defaults and env bindings.
func newViperInstance() *viper.Viper {
	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix(constants.EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()
	bindEnv(v)
	return v
}

// setDefaults mirrors DefaultConfig().
func setDefaults(v *viper.Viper) {
	v.SetDefault(KeyServerURL, constants.DefaultServerURL)
	v.SetDefault(KeyScreenshotFolder, constants.DefaultScreenshotFolder)
	v.SetDefault(KeyOSType, constants.DefaultOSType)
	v.SetDefault(KeyRotateAngle, constants.DefaultRotateAngle)
	v.SetDefault(KeyConcurrency, constants.DefaultConcurrency)
	v.SetDefault(KeyUploadTimeout, constants.DefaultUploadTimeout.String())
	v.SetDefault(KeyHTTPTimeout, constants.DefaultHTTPTimeout.String())
}

func bindEnv(v *viper.Viper) {
	for _, key := range keys {
		input := []string{key, constants.EnvPrefix + "_" + strings.ToUpper(key)}
		input = append(input, envBindings[key]...)
		// BindEnv only errors without a key.
		_ = v.BindEnv(input...)
	}
}

func bindFlags(v *viper.Viper, flags *pflag.FlagSet) error {
	if flags == nil {
		return nil
	}
	for key, name := range FlagNames {
		f := flags.Lookup(name)
		if f == nil {
			continue
		}
		if err := v.BindPFlag(key, f); err != nil {
			return errors.Wrapf(err, "failed to bind flag --%s", name)
		}
	}
	return nil
}

// Load resolves the configuration from all sources. Required fields are not
// checked here; call Validate before contacting the service.
func Load(ctx context.Context, opts LoadOptions) (*Config, error) {
	v := newViperInstance()

	if err := readConfigFile(v, opts.ConfigFile); err != nil {
		return nil, err
	}
	if err := bindFlags(v, opts.Flags); err != nil {
		return nil, err
	}

	cfg, err := unmarshal(v)
	if err != nil {
		return nil, err
	}

	zerolog.Ctx(ctx).Debug().
		Str("component", "config").
		Str("config_file", v.ConfigFileUsed()).
		Str("organization", cfg.Organization).
		Str("project", cfg.Project).
		Int("build_id", cfg.BuildID).
		Str("screenshot_folder", cfg.ScreenshotFolder).
		Str("os_type", cfg.OSType).
		Int("rotate_angle", cfg.RotateAngle).
		Int("concurrency", cfg.Concurrency).
		Dur("upload_timeout", cfg.UploadTimeout).
		Bool("access_token_set", cfg.AccessToken != "").
		Msg("configuration loaded")

	if err := ValidateSettings(cfg); err != nil {
		return nil, errors.Wrap(err, "invalid configuration")
	}

	return cfg, nil
}

// readConfigFile reads an explicit config file, or the project file when it exists.
func readConfigFile(v *viper.Viper, path string) error {
	explicit := path != ""
	if !explicit {
		path = constants.ProjectConfigFileName
		if _, err := os.Stat(path); err != nil {
			return nil
		}
	}

	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		if !explicit && isConfigNotFoundError(err) {
			return nil
		}
		return errors.Wrapf(err, "failed to read config file %s", path)
	}
	return nil
}

func isConfigNotFoundError(err error) bool {
	var configNotFoundErr viper.ConfigFileNotFoundError
	return stderrors.As(err, &configNotFoundErr)
}

func unmarshal(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg, viperDecoderOption()); err != nil {
		return nil, errors.Wrapf(errors.ErrConfigInvalid, "failed to unmarshal config: %v", err)
	}

	cfg.RotateAngle = ParseRotateAngle(v.GetString(KeyRotateAngle))
	cfg.ScreenshotFolder = NormalizeFolder(cfg.ScreenshotFolder)
	if cfg.OSType == "" {
		cfg.OSType = constants.DefaultOSType
	}

	return &cfg, nil
}

// viperDecoderOption configures mapstructure to decode durations from strings.
func viperDecoderOption() viper.DecoderConfigOption {
	return viper.DecodeHook(
		mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
		),
	)
}

// NormalizeFolder appends a trailing slash. An empty folder yields the default.
func NormalizeFolder(folder string) string {
	if strings.TrimSpace(folder) == "" {
		return constants.DefaultScreenshotFolder
	}
	if strings.HasSuffix(folder, "/") {
		return folder
	}
	return folder + "/"
}

// ParseRotateAngle reads a leading optionally-signed decimal integer after
// skipping whitespace, ignoring anything that follows. Input without leading
// digits, or a value that overflows int, yields 0.
func ParseRotateAngle(s string) int {
	s = strings.TrimLeft(s, " \t\n\r\v\f")

	negative := false
	if s != "" && (s[0] == '+' || s[0] == '-') {
		negative = s[0] == '-'
		s = s[1:]
	}

	const limit = 1 << 31
	n := 0
	digits := 0
	for _, c := range s {
		if c < '0' || c > '9' {
			break
		}
		n = n*10 + int(c-'0')
		digits++
		if n >= limit {
			return 0
		}
	}

	if digits == 0 {
		return 0
	}
	if negative {
		return -n
	}
	return n
}
