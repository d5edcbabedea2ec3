package ux

import (
	"context"
	stderrors "errors"
	"fmt"
	"strings"

	"github.com/felixgeelhaar/adminctl/internal/errors"
)

// ErrorWithSuggestion wraps an error with helpful recovery suggestions
type ErrorWithSuggestion struct {
	Err        error
	Suggestion string
}

// Error implements the error interface
func (e *ErrorWithSuggestion) Error() string {
	if e.Suggestion != "" {
		return fmt.Sprintf("%v\n\n💡 Suggestion: %s", e.Err, e.Suggestion)
	}
	return e.Err.Error()
}

// Unwrap provides access to the underlying error
func (e *ErrorWithSuggestion) Unwrap() error {
	return e.Err
}

// NewErrorWithSuggestion creates a new error with a suggestion
func NewErrorWithSuggestion(err error, suggestion string) error {
	if err == nil {
		return nil
	}
	return &ErrorWithSuggestion{
		Err:        err,
		Suggestion: suggestion,
	}
}

// EnhanceError adds a suggestion to errors that do not already carry one.
// Coded errors with suggestions are returned unchanged.
func EnhanceError(err error) error {
	if err == nil {
		return nil
	}

	var adminErr *errors.AdminError
	if stderrors.As(err, &adminErr) && len(adminErr.Suggestions) > 0 {
		return err
	}

	if stderrors.Is(err, context.DeadlineExceeded) {
		return NewErrorWithSuggestion(err,
			"The backend did not answer in time; raise api.timeout or ADMINCTL_TIMEOUT")
	}
	if stderrors.Is(err, context.Canceled) {
		return err
	}

	errMsg := err.Error()

	// Network errors
	if strings.Contains(errMsg, "connection refused") || strings.Contains(errMsg, "no such host") ||
		strings.Contains(errMsg, "no route to host") {
		return NewErrorWithSuggestion(err,
			"Check that the backend is running and --base-url points at it (adminctl config view)")
	}

	if strings.Contains(errMsg, "certificate") || strings.Contains(errMsg, "x509") {
		return NewErrorWithSuggestion(err,
			"The backend certificate was rejected; check the base URL scheme and host")
	}

	// Permission errors
	if strings.Contains(errMsg, "permission denied") {
		return NewErrorWithSuggestion(err,
			"Check permissions on ~/.adminctl and the configured session file")
	}

	// Session errors
	if strings.Contains(errMsg, "not logged in") || strings.Contains(errMsg, "session expired") {
		return NewErrorWithSuggestion(err,
			"Run 'adminctl auth login' to start a new session")
	}

	// Usage errors
	if strings.Contains(errMsg, "unknown command") || strings.Contains(errMsg, "unknown flag") ||
		strings.Contains(errMsg, "required flag") {
		return NewErrorWithSuggestion(err,
			"Run 'adminctl --help' to list commands and flags")
	}

	return err
}

// FormatError provides consistent error formatting with context
func FormatError(err error, context string) error {
	if err == nil {
		return nil
	}

	enhanced := EnhanceError(err)
	if context != "" {
		return fmt.Errorf("%s: %w", context, enhanced)
	}
	return enhanced
}
