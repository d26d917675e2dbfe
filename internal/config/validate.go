package config

import (
	"net/url"
	"strings"

	"github.com/mrz1836/shotpub/internal/errors"
)

// Validate checks everything a publish run needs. Required inputs are checked
// first, in the order organization, access token, project, build id, so a
// missing organization is always the reported failure when it is absent.
func Validate(cfg *Config) error {
	if cfg == nil {
		return errors.ErrConfigNil
	}

	if strings.TrimSpace(cfg.Organization) == "" {
		return errors.ErrOrganizationRequired
	}
	if cfg.AccessToken == "" {
		return errors.ErrAccessTokenRequired
	}
	if strings.TrimSpace(cfg.Project) == "" {
		return errors.ErrProjectRequired
	}
	if cfg.BuildID <= 0 {
		return errors.Wrapf(errors.ErrBuildIDRequired, "got %d", cfg.BuildID)
	}

	return ValidateSettings(cfg)
}

// ValidateSettings checks the optional settings for range and format errors.
//
// Validation rules:
//   - server_url must be an absolute http or https URL
//   - concurrency must not be negative
//   - upload_timeout and http_timeout must be positive
func ValidateSettings(cfg *Config) error {
	if cfg == nil {
		return errors.ErrConfigNil
	}

	u, err := url.Parse(cfg.ServerURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return errors.Wrapf(errors.ErrConfigInvalid,
			"server_url must be an absolute http(s) URL, got %q", cfg.ServerURL)
	}

	if cfg.Concurrency < 0 {
		return errors.Wrapf(errors.ErrConfigInvalid,
			"concurrency must not be negative, got %d", cfg.Concurrency)
	}

	if cfg.UploadTimeout <= 0 {
		return errors.Wrapf(errors.ErrConfigInvalid,
			"upload_timeout must be positive, got %s", cfg.UploadTimeout)
	}

	if cfg.HTTPTimeout <= 0 {
		return errors.Wrapf(errors.ErrConfigInvalid,
			"http_timeout must be positive, got %s", cfg.HTTPTimeout)
	}

	return nil
}
