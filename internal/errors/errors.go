package errors

import (
	"errors"
	"fmt"
	"strings"
)

// Error types for common failure scenarios.
var (
	ErrAdapterNotReady  = errors.New("adapter not ready")
	ErrAdapterInactive  = errors.New("adapter not active")
	ErrUnknownSource    = errors.New("unknown source")
	ErrVendorPlayback   = errors.New("vendor playback error")
	ErrStaleSession     = errors.New("stale session event ignored")
	ErrBackendDisabled  = errors.New("backend not available")
	ErrNotAuthenticated = errors.New("not authenticated")
	ErrNoDevice         = errors.New("no playback device")
	ErrPremiumRequired  = errors.New("spotify premium required")
	ErrRateLimited      = errors.New("rate limited")
	ErrConfigNotFound   = errors.New("config file not found")
	ErrInvalidConfig    = errors.New("invalid configuration")
)

// KordError wraps an error with a user-friendly suggestion.
type KordError struct {
	Err        error
	Suggestion string
}

func (e *KordError) Error() string {
	return e.Err.Error()
}

func (e *KordError) Unwrap() error {
	return e.Err
}

// WithSuggestion wraps an error with a helpful suggestion.
func WithSuggestion(err error, suggestion string) error {
	return &KordError{
		Err:        err,
		Suggestion: suggestion,
	}
}

// VendorError is a runtime failure reported by a vendor player. It matches
// ErrVendorPlayback with errors.Is.
type VendorError struct {
	Source  string
	Code    string
	Message string
}

func (e *VendorError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("%s player error %s: %s", e.Source, e.Code, e.Message)
	}
	return fmt.Sprintf("%s player error: %s", e.Source, e.Message)
}

func (e *VendorError) Is(target error) bool {
	return target == ErrVendorPlayback
}

// GetSuggestion returns a suggestion for the given error.
func GetSuggestion(err error) string {
	if err == nil {
		return ""
	}

	var kordErr *KordError
	if errors.As(err, &kordErr) && kordErr.Suggestion != "" {
		return kordErr.Suggestion
	}

	errStr := strings.ToLower(err.Error())

	if errors.Is(err, ErrUnknownSource) {
		return "Use spotify:track:<id>, youtube:<id> or a soundcloud.com track URL"
	}

	if errors.Is(err, ErrBackendDisabled) || strings.Contains(errStr, "libmpv") {
		return "Rebuild with -tags libmpv to enable YouTube and SoundCloud playback"
	}

	if errors.Is(err, ErrNotAuthenticated) || strings.Contains(errStr, "invalid access token") ||
		strings.Contains(errStr, "token expired") {
		return "Place a Spotify OAuth token at spotify.token_file (see 'kord config path')"
	}

	if errors.Is(err, ErrNoDevice) || strings.Contains(errStr, "no active device") {
		return "Open Spotify on a device, or set spotify.device_name to a known device"
	}

	if errors.Is(err, ErrPremiumRequired) || strings.Contains(errStr, "premium required") {
		return "Spotify playback control requires Spotify Premium"
	}

	if errors.Is(err, ErrRateLimited) || strings.Contains(errStr, "429") {
		return "Too many requests. Wait a moment and try again"
	}

	if errors.Is(err, ErrConfigNotFound) || errors.Is(err, ErrInvalidConfig) {
		return "Run 'kord config init' to write a default configuration"
	}

	return ""
}

// Format returns a formatted error message with suggestion if available.
func Format(err error) string {
	if err == nil {
		return ""
	}

	suggestion := GetSuggestion(err)
	if suggestion != "" {
		return fmt.Sprintf("Error: %s\n\nSuggestion: %s", err.Error(), suggestion)
	}

	return fmt.Sprintf("Error: %s", err.Error())
}

// PartialResult represents a result that may have partial failures.
type PartialResult[T any] struct {
	Data   T
	Errors []error
}

// HasErrors returns true if there were any errors.
func (p *PartialResult[T]) HasErrors() bool {
	return len(p.Errors) > 0
}

// AddError adds an error to the partial result.
func (p *PartialResult[T]) AddError(err error) {
	if err != nil {
		p.Errors = append(p.Errors, err)
	}
}

// ErrorSummary returns a summary of all errors.
func (p *PartialResult[T]) ErrorSummary() string {
	if len(p.Errors) == 0 {
		return ""
	}
	if len(p.Errors) == 1 {
		return p.Errors[0].Error()
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("%d errors occurred:\n", len(p.Errors)))
	for i, err := range p.Errors {
		sb.WriteString(fmt.Sprintf("  %d. %s\n", i+1, err.Error()))
	}
	return sb.String()
}
