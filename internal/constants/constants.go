// Package constants provides centralized constant values used throughout shotpub.
// This package is the single source of truth for all shared constants and MUST NOT
// import any other internal packages.
package constants

import "time"

// Input defaults, mirroring the task inputs of the pipeline step.
const (
	// DefaultScreenshotFolder is where the Android Gradle plugin writes
	// screenshots of failed connected tests.
	DefaultScreenshotFolder = "./app/build/reports/androidTests/connected/screenshots/failures/"

	// DefaultOSType selects the Android naming rules.
	DefaultOSType = "android"

	// DefaultRotateAngle is the rotation applied before upload, in degrees.
	DefaultRotateAngle = 0

	// DefaultServerURL is the Azure DevOps Services host. The organization
	// name is appended to form the collection URL.
	DefaultServerURL = "https://dev.azure.com"
)

// Image extensions per OS type.
const (
	// ExtensionIOS is used for screenshots exported from xcresult bundles.
	ExtensionIOS = ".jpg"

	// ExtensionDefault is used for every other OS type.
	ExtensionDefault = ".png"
)

// Concurrency and timeout defaults for the upload batch.
const (
	// DefaultConcurrency caps the number of screenshots processed at once.
	DefaultConcurrency = 8

	// DefaultUploadTimeout bounds a single attachment upload.
	DefaultUploadTimeout = 60 * time.Second

	// DefaultHTTPTimeout is the client-level timeout for every REST call.
	DefaultHTTPTimeout = 30 * time.Second
)

// Azure DevOps REST API constants.
const (
	// TestAPIVersion is the api-version used for the Test area endpoints.
	TestAPIVersion = "7.1-preview.1"

	// ConnectionDataAPIVersion is the api-version used for connectionData.
	ConnectionDataAPIVersion = "7.1-preview.1"

	// ContinuationTokenHeader carries the paging cursor for result queries.
	ContinuationTokenHeader = "x-ms-continuationtoken"

	// OutcomeFailed is the test outcome filter for failed results.
	OutcomeFailed = "Failed"

	// AttachmentTypeGeneral is the attachment type used for screenshots.
	AttachmentTypeGeneral = "GeneralAttachment"
)

// Logging configuration.
const (
	// LogMaxSizeMB is the maximum size in megabytes before a log file is rotated.
	LogMaxSizeMB = 10

	// LogMaxBackups is the number of rotated log files to keep.
	LogMaxBackups = 3

	// LogMaxAgeDays is the number of days to keep rotated log files.
	LogMaxAgeDays = 7

	// LogCompress enables gzip compression of rotated log files.
	LogCompress = true
)

// ProjectConfigFileName is read from the working directory when present.
const ProjectConfigFileName = ".shotpub.yaml"

// EnvPrefix is the prefix for shotpub's own environment variables.
const EnvPrefix = "SHOTPUB"
