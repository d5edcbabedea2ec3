package errors

import (
	"fmt"
	"strings"
)

// ErrorCode represents a unique error identifier
type ErrorCode string

// Error categories
const (
	// API errors (API-001 to API-099)
	ErrCodeTransport       ErrorCode = "API-001"
	ErrCodeAuthMissing     ErrorCode = "API-002"
	ErrCodeDecode          ErrorCode = "API-003"
	ErrCodeBackend         ErrorCode = "API-004"
	ErrCodeInvalidArgument ErrorCode = "API-005"
	ErrCodeUnexpected      ErrorCode = "API-006"

	// Validation errors (VALIDATION-001 to VALIDATION-099)
	ErrCodeValidation ErrorCode = "VALIDATION-001"

	// Session errors (SESSION-001 to SESSION-099)
	ErrCodeSessionNotFound ErrorCode = "SESSION-001"
	ErrCodeSessionCorrupt  ErrorCode = "SESSION-002"
	ErrCodeSessionWrite    ErrorCode = "SESSION-003"

	// Configuration errors (CONFIG-001 to CONFIG-099)
	ErrCodeConfigRead    ErrorCode = "CONFIG-001"
	ErrCodeConfigInvalid ErrorCode = "CONFIG-002"
	ErrCodeConfigWrite   ErrorCode = "CONFIG-003"
)

// AdminError represents an enhanced error with code, suggestions, and documentation
type AdminError struct {
	Code        ErrorCode
	Message     string
	Suggestions []string
	DocsURL     string
	Cause       error

	// Status is the backend-declared status for ErrCodeBackend errors
	Status int
}

// Error implements the error interface
func (e *AdminError) Error() string {
	var b strings.Builder

	b.WriteString(fmt.Sprintf("[%s] %s", e.Code, e.Message))

	if e.Cause != nil {
		b.WriteString(fmt.Sprintf(": %v", e.Cause))
	}

	if len(e.Suggestions) > 0 {
		b.WriteString("\n\nSuggestions:")
		for _, suggestion := range e.Suggestions {
			b.WriteString(fmt.Sprintf("\n  • %s", suggestion))
		}
	}

	if e.DocsURL != "" {
		b.WriteString(fmt.Sprintf("\n\nDocumentation: %s", e.DocsURL))
	}

	return b.String()
}

// Unwrap implements error unwrapping for errors.Is and errors.As
func (e *AdminError) Unwrap() error {
	return e.Cause
}

// Is reports whether target is an AdminError with the same code.
// It lets package-level sentinels match errors built elsewhere.
func (e *AdminError) Is(target error) bool {
	t, ok := target.(*AdminError)
	if !ok {
		return false
	}
	return t.Code == e.Code
}

// New creates a new AdminError
func New(code ErrorCode, message string) *AdminError {
	return &AdminError{
		Code:    code,
		Message: message,
	}
}

// Wrap creates a new AdminError wrapping an existing error
func Wrap(code ErrorCode, message string, cause error) *AdminError {
	return &AdminError{
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

// WithSuggestion adds a suggestion to the error
func (e *AdminError) WithSuggestion(suggestion string) *AdminError {
	e.Suggestions = append(e.Suggestions, suggestion)
	return e
}

// WithSuggestions adds multiple suggestions to the error
func (e *AdminError) WithSuggestions(suggestions ...string) *AdminError {
	e.Suggestions = append(e.Suggestions, suggestions...)
	return e
}

// WithDocs adds a documentation URL to the error
func (e *AdminError) WithDocs(url string) *AdminError {
	e.DocsURL = url
	return e
}

// CodeOf returns the code of the first AdminError in err's chain, or "".
func CodeOf(err error) ErrorCode {
	for err != nil {
		if ae, ok := err.(*AdminError); ok {
			return ae.Code
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			return ""
		}
		err = u.Unwrap()
	}
	return ""
}

// Common error constructors for frequently used errors

// NewTransportError creates a network-level failure error
func NewTransportError(operation string, cause error) *AdminError {
	return Wrap(ErrCodeTransport, fmt.Sprintf("request failed: %s", operation), cause).
		WithSuggestion("Check that the backend is reachable: adminctl config view").
		WithSuggestion("Verify --base-url or ADMINCTL_BASE_URL")
}

// NewAuthMissingError creates an error for authenticated calls made without a session
func NewAuthMissingError(path string) *AdminError {
	return New(ErrCodeAuthMissing, fmt.Sprintf("no session token available for %s", path)).
		WithSuggestion("Run 'adminctl auth login' to authenticate")
}

// NewDecodeError creates an error for response bodies that cannot be decoded
func NewDecodeError(detail string, cause error) *AdminError {
	return Wrap(ErrCodeDecode, fmt.Sprintf("malformed response: %s", detail), cause)
}

// NewBackendError creates an error carrying a failure status declared by the backend
func NewBackendError(status int, message string) *AdminError {
	e := New(ErrCodeBackend, fmt.Sprintf("backend returned status %d: %s", status, message))
	e.Status = status
	if status == 401 || status == 403 {
		e.WithSuggestion("Your session may have expired; run 'adminctl auth login' again")
	}
	return e
}

// NewInvalidArgumentError creates an error for unknown operation arguments
func NewInvalidArgumentError(name string, value interface{}, valid string) *AdminError {
	return New(ErrCodeInvalidArgument, fmt.Sprintf("invalid %s: %v", name, value)).
		WithSuggestion(fmt.Sprintf("Valid values: %s", valid))
}

// NewValidationError creates a caller-side input validation error
func NewValidationError(field string, message string) *AdminError {
	return New(ErrCodeValidation, fmt.Sprintf("%s: %s", field, message))
}

// NewSessionNotFoundError creates an error for a missing stored session
func NewSessionNotFoundError(path string) *AdminError {
	return New(ErrCodeSessionNotFound, fmt.Sprintf("no stored session at %s", path)).
		WithSuggestion("Run 'adminctl auth login' to authenticate")
}

// NewConfigInvalidError creates a configuration validation error
func NewConfigInvalidError(details string) *AdminError {
	return New(ErrCodeConfigInvalid, fmt.Sprintf("invalid configuration: %s", details)).
		WithSuggestion("Inspect the effective configuration: adminctl config view").
		WithSuggestion("Regenerate defaults: adminctl config init --force")
}
