package errors

import "errors"

// errorEntry pairs a sentinel error with its user-facing message.
type errorEntry struct {
	err     error
	message string
}

// userMessages maps sentinels to the message shown in the task result.
// A slice (not a map) keeps lookup order stable for wrapped errors.
//
//nolint:gochecknoglobals // Pre-built mapping
var userMessages = []errorEntry{
	{ErrOrganizationRequired, "Organization is mandatory"},
	{ErrProjectRequired, "Team project is mandatory. Set System.TeamProject or --project."},
	{ErrBuildIDRequired, "Build id is mandatory. Set Build.BuildId or --build-id."},
	{ErrAccessTokenRequired, "No access token found. Enable 'Allow scripts to access the OAuth token' or set SHOTPUB_ACCESS_TOKEN."},
	{ErrAuthFailed, "The test management service rejected the access token."},
}

// UserMessage returns a user-friendly message for setup errors.
// Unrecognized errors return their original message so that the task
// result carries the underlying cause.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}
	for _, entry := range userMessages {
		if errors.Is(err, entry.err) {
			return entry.message
		}
	}
	return err.Error()
}
