// Package logging provides sensitive data filtering for zerolog output.
//
// Access tokens reach shotpub through the environment and are sent on every
// REST call. Everything the process writes (console, log file and pipeline
// logging commands) passes through FilterSensitiveValue, which redacts known
// token shapes and every secret registered with RegisterSecret.
package logging

import (
	"io"
	"regexp"
	"sort"
	"strings"
	"sync"

	"github.com/rs/zerolog"
)

// RedactedValue is the replacement string for sensitive data.
const RedactedValue = "[REDACTED]"

// minSecretLength keeps short values from masking unrelated text.
const minSecretLength = 4

// sensitivePatterns match credential formats that can appear in logs.
var sensitivePatterns = []*regexp.Regexp{ //nolint:gochecknoglobals // Package-level patterns for reuse
	// JWTs, the format of System.AccessToken
	regexp.MustCompile(`eyJ[a-zA-Z0-9_-]{8,}\.eyJ[a-zA-Z0-9_-]{8,}\.[a-zA-Z0-9_-]+`),

	// HTTP Basic and Bearer authorization values
	regexp.MustCompile(`(?i)\b(basic|bearer)\s+[a-zA-Z0-9+/=_.-]{16,}`),

	// Azure DevOps personal access tokens (legacy 52-char base32 and the 84-char format)
	regexp.MustCompile(`\b[a-z2-7]{52}\b`),
	regexp.MustCompile(`\b[a-zA-Z0-9]{76}AZDO[a-zA-Z0-9]{4}\b`),

	// GitHub tokens, for pipelines that also publish to GitHub
	regexp.MustCompile(`gh[pousr]_[a-zA-Z0-9]{20,}`),

	// Key/value secrets (access_token=..., password: ...)
	regexp.MustCompile(`(?i)(access[_-]?token|secret|password|passwd|pwd)\s*[:=]\s*["']?[^\s"']{8,}["']?`),
}

// secrets holds literal values that must never be written.
type secrets struct {
	mu     sync.RWMutex
	values []string
}

//nolint:gochecknoglobals // Process-wide secret registry
var registry = &secrets{}

// RegisterSecret adds a literal value to mask in all filtered output.
// Values shorter than four characters are ignored.
func RegisterSecret(value string) {
	value = strings.TrimSpace(value)
	if len(value) < minSecretLength {
		return
	}

	registry.mu.Lock()
	defer registry.mu.Unlock()
	for _, v := range registry.values {
		if v == value {
			return
		}
	}
	registry.values = append(registry.values, value)
	// Longest first so a secret containing another is masked whole.
	sort.Slice(registry.values, func(i, j int) bool {
		return len(registry.values[i]) > len(registry.values[j])
	})
}

// ResetSecrets clears the registry. Intended for tests.
func ResetSecrets() {
	registry.mu.Lock()
	defer registry.mu.Unlock()
	registry.values = nil
}

func (s *secrets) mask(value string) string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, secret := range s.values {
		value = strings.ReplaceAll(value, secret, RedactedValue)
	}
	return value
}

func (s *secrets) contains(value string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, secret := range s.values {
		if strings.Contains(value, secret) {
			return true
		}
	}
	return false
}

// ContainsSensitiveData reports whether s contains a registered secret or
// matches a sensitive pattern.
func ContainsSensitiveData(s string) bool {
	if registry.contains(s) {
		return true
	}
	for _, pattern := range sensitivePatterns {
		if pattern.MatchString(s) {
			return true
		}
	}
	return false
}

// FilterSensitiveValue replaces registered secrets and sensitive patterns
// in value with [REDACTED].
func FilterSensitiveValue(value string) string {
	result := registry.mask(value)
	for _, pattern := range sensitivePatterns {
		result = pattern.ReplaceAllString(result, RedactedValue)
	}
	return result
}

// SensitiveDataHook flags log events whose message contains sensitive data.
// Redaction itself happens in FilteringWriter.
type SensitiveDataHook struct{}

// NewSensitiveDataHook creates a new SensitiveDataHook.
func NewSensitiveDataHook() *SensitiveDataHook {
	return &SensitiveDataHook{}
}

// Run implements the zerolog.Hook interface.
func (h *SensitiveDataHook) Run(e *zerolog.Event, _ zerolog.Level, msg string) {
	if ContainsSensitiveData(msg) {
		e.Bool("contains_filtered_data", true)
	}
}

// FilteringWriter wraps an io.Writer and redacts sensitive data from output.
type FilteringWriter struct {
	w io.Writer
}

// NewFilteringWriter creates a new FilteringWriter that wraps the given writer.
func NewFilteringWriter(w io.Writer) *FilteringWriter {
	return &FilteringWriter{w: w}
}

// Write implements io.Writer, filtering sensitive data before writing.
func (fw *FilteringWriter) Write(p []byte) (n int, err error) {
	filtered := FilterSensitiveValue(string(p))
	_, err = fw.w.Write([]byte(filtered))
	if err != nil {
		return 0, err
	}
	// Report the original length so callers don't see a short write.
	return len(p), nil
}
