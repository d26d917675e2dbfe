// Package errors provides centralized error handling for shotpub.
//
// This package defines sentinel errors used for programmatic error categorization
// throughout the application. All error types can be checked using errors.Is().
//
// IMPORTANT: This package MUST NOT import any other internal packages.
// Only standard library imports are allowed.
package errors

import (
	"errors"
	"fmt"
)

// Sentinel errors for error categorization.
// These allow callers to check error types with errors.Is().
var (
	// ErrOrganizationRequired indicates the organization input was not provided.
	ErrOrganizationRequired = errors.New("organization is mandatory")

	// ErrProjectRequired indicates the team project could not be determined.
	ErrProjectRequired = errors.New("project is mandatory")

	// ErrBuildIDRequired indicates the build identifier is missing or not positive.
	ErrBuildIDRequired = errors.New("build id is mandatory")

	// ErrAccessTokenRequired indicates no access token was found in the environment.
	ErrAccessTokenRequired = errors.New("access token is mandatory")

	// ErrConfigNil indicates that a nil config was passed to validation.
	ErrConfigNil = errors.New("config is nil")

	// ErrConfigInvalid indicates a configuration value is out of range or malformed.
	ErrConfigInvalid = errors.New("invalid configuration")

	// ErrConnection indicates the test management service could not be reached.
	ErrConnection = errors.New("connection to test management service failed")

	// ErrAuthFailed indicates the service rejected the access token.
	ErrAuthFailed = errors.New("authentication failed")

	// ErrFetchFailed indicates the failed-results query did not succeed.
	ErrFetchFailed = errors.New("failed to fetch test results")

	// ErrInvalidTestResult indicates a test result without run or result identifiers.
	ErrInvalidTestResult = errors.New("test result is missing run or result id")

	// ErrScreenshotNotFound indicates no screenshot exists for a test case.
	ErrScreenshotNotFound = errors.New("no screenshot found")

	// ErrImageUnreadable indicates a screenshot could not be decoded or encoded.
	ErrImageUnreadable = errors.New("image could not be loaded")

	// ErrAttachmentEmpty indicates the upload call returned no attachment reference.
	ErrAttachmentEmpty = errors.New("attachment service returned no reference")

	// ErrAttachmentRejected indicates the upload call returned a non-success status.
	ErrAttachmentRejected = errors.New("attachment upload rejected")

	// ErrInvalidOutputFormat indicates an invalid output format was specified.
	ErrInvalidOutputFormat = errors.New("invalid output format")

	// ErrUnsupportedReportFormat indicates the report file extension is not known.
	ErrUnsupportedReportFormat = errors.New("unsupported report format")
)

// Wrap adds context to errors at package boundaries.
// It returns nil if err is nil, allowing for safe inline usage.
// The wrapped error preserves the original chain for errors.Is checks.
func Wrap(err error, msg string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", msg, err)
}

// Wrapf adds formatted context to errors at package boundaries.
// It returns nil if err is nil.
//
//	return errors.Wrapf(err, "failed to upload %s", fileName)
func Wrapf(err error, format string, args ...any) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), err)
}
