package config

import "github.com/mrz1836/shotpub/internal/constants"

// DefaultConfig returns a Config holding the built-in defaults.
// Required fields are left empty.
func DefaultConfig() *Config {
	return &Config{
		ServerURL:        constants.DefaultServerURL,
		ScreenshotFolder: constants.DefaultScreenshotFolder,
		OSType:           constants.DefaultOSType,
		RotateAngle:      constants.DefaultRotateAngle,
		Concurrency:      constants.DefaultConcurrency,
		UploadTimeout:    constants.DefaultUploadTimeout,
		HTTPTimeout:      constants.DefaultHTTPTimeout,
	}
}
