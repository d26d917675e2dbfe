// Package domain provides shared domain types for shotpub.
// These types are used across all internal packages to ensure consistent data structures.
//
// This package follows strict import rules:
//   - CAN import: internal/constants, internal/errors, standard library
//   - MUST NOT import: any other internal packages
//
// All JSON field names use snake_case.
package domain

import (
	"github.com/mrz1836/shotpub/internal/constants"
	"github.com/mrz1836/shotpub/internal/errors"
)

// FailedTestCase is one failed test result fetched for the current build.
// Values are read-only for the duration of a batch.
type FailedTestCase struct {
	// AutomatedTestName is the test method name (e.g. "testLogin" or "testOne()").
	AutomatedTestName string `json:"automated_test_name"`

	// AutomatedTestStorage is the fully-qualified class or module.
	// Android reports "com.example.LoginTest", Xcode "MyApp.UITests".
	AutomatedTestStorage string `json:"automated_test_storage"`

	// TestCaseTitle is informational only.
	TestCaseTitle string `json:"test_case_title,omitempty"`

	// Outcome is the raw outcome reported by the service.
	Outcome string `json:"outcome,omitempty"`

	// RunID identifies the owning test run.
	RunID int `json:"run_id"`

	// ID identifies the test result within the run.
	ID int `json:"id"`
}

// Validate checks that the identifiers needed for an upload are present.
func (tc FailedTestCase) Validate() error {
	if tc.RunID <= 0 || tc.ID <= 0 {
		return errors.Wrapf(errors.ErrInvalidTestResult,
			"%s/%s (run %d, result %d)", tc.AutomatedTestStorage, tc.AutomatedTestName, tc.RunID, tc.ID)
	}
	return nil
}

// String returns "storage/name", the form used in log and report lines.
func (tc FailedTestCase) String() string {
	return tc.AutomatedTestStorage + "/" + tc.AutomatedTestName
}

// OSType selects the screenshot naming rules.
type OSType string

// Known OS types. Anything that is not iOS follows the Android rules.
const (
	OSAndroid OSType = "android"
	OSIOS     OSType = "ios"
)

// ParseOSType converts a raw input value. Empty input yields the default.
// The value is matched as given: only "ios" selects the iOS rules.
func ParseOSType(s string) OSType {
	if s == "" {
		return OSType(constants.DefaultOSType)
	}
	return OSType(s)
}

// IsIOS reports whether the iOS naming rules apply.
func (o OSType) IsIOS() bool {
	return o == OSIOS
}

// ImageExtension returns the screenshot extension for the OS type.
func (o OSType) ImageExtension() string {
	if o.IsIOS() {
		return constants.ExtensionIOS
	}
	return constants.ExtensionDefault
}
