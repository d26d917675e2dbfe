// Package config resolves shotpub's settings with layered precedence.
//
// Sources, highest precedence first:
//  1. CLI flags
//  2. Environment variables (SHOTPUB_* and the Azure Pipelines task variables)
//  3. Config file (--config, or .shotpub.yaml in the working directory)
//  4. Built-in defaults
//
// Empty values count as unset and fall through to the next source.
//
// IMPORTANT: This package may import internal/constants and internal/errors,
// but MUST NOT import internal/domain or other internal packages.
package config

import "time"

// Config holds every setting of a publish run.
type Config struct {
	// Organization is the Azure DevOps organization name. Required.
	Organization string `yaml:"organization" mapstructure:"organization"`

	// Project is the team project that owns the build. Required.
	Project string `yaml:"project" mapstructure:"project"`

	// BuildID identifies the build whose failed results are published. Required.
	BuildID int `yaml:"build_id" mapstructure:"build_id"`

	// AccessToken authenticates REST calls. Only read from the environment.
	AccessToken string `yaml:"-" mapstructure:"access_token"`

	// ServerURL is the service host; the organization is appended to it.
	// Default: "https://dev.azure.com"
	ServerURL string `yaml:"server_url" mapstructure:"server_url"`

	// ScreenshotFolder is the root searched for screenshots, always ending in "/".
	ScreenshotFolder string `yaml:"screenshot_folder" mapstructure:"screenshot_folder"`

	// OSType selects the screenshot naming rules ("android" or "ios").
	OSType string `yaml:"os_type" mapstructure:"os_type"`

	// RotateAngle is the clockwise rotation in degrees. Parsed leniently:
	// leading digits are used and anything non-numeric becomes 0.
	RotateAngle int `yaml:"screenshot_rotate_angle" mapstructure:"-"`

	// Concurrency caps simultaneous uploads. Zero means unbounded.
	Concurrency int `yaml:"concurrency" mapstructure:"concurrency"`

	// UploadTimeout bounds each attachment upload.
	UploadTimeout time.Duration `yaml:"upload_timeout" mapstructure:"upload_timeout"`

	// HTTPTimeout is the client-level timeout for every REST call.
	HTTPTimeout time.Duration `yaml:"http_timeout" mapstructure:"http_timeout"`

	// ReportFile receives a JSON or YAML run report when set.
	ReportFile string `yaml:"report_file" mapstructure:"report_file"`

	// MetricsFile receives Prometheus text-format metrics when set.
	MetricsFile string `yaml:"metrics_file" mapstructure:"metrics_file"`

	// LogFile receives a rotated JSON copy of the log when set.
	LogFile string `yaml:"log_file" mapstructure:"log_file"`
}
