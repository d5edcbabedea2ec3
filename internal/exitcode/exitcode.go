package exitcode

import (
	stderrors "errors"
	"net/http"
	"os"
	"strings"

	"github.com/felixgeelhaar/adminctl/internal/errors"
)

// Exit codes for consistent error handling across the CLI
const (
	// Success indicates successful execution
	Success = 0

	// GeneralError indicates a general error condition
	GeneralError = 1

	// UsageError indicates invalid command usage (bad flags, missing args, etc.)
	UsageError = 2

	// AuthError indicates an authentication or authorization failure
	AuthError = 5

	// NetworkError indicates a network connectivity issue
	NetworkError = 6

	// Interrupted indicates the command was cancelled by SIGINT or SIGTERM
	Interrupted = 130
)

// Exit terminates the program with the given exit code
func Exit(code int) {
	os.Exit(code)
}

// DetermineExitCode returns the exit code for err. Coded errors map by
// code; anything else falls back to message heuristics.
func DetermineExitCode(err error) int {
	if err == nil {
		return Success
	}

	var adminErr *errors.AdminError
	if stderrors.As(err, &adminErr) {
		return fromCode(adminErr)
	}

	return fromMessage(err.Error())
}

func fromCode(e *errors.AdminError) int {
	switch e.Code {
	case errors.ErrCodeTransport:
		return NetworkError
	case errors.ErrCodeAuthMissing, errors.ErrCodeSessionNotFound, errors.ErrCodeSessionCorrupt:
		return AuthError
	case errors.ErrCodeBackend:
		if e.Status == http.StatusUnauthorized || e.Status == http.StatusForbidden {
			return AuthError
		}
		return GeneralError
	case errors.ErrCodeInvalidArgument, errors.ErrCodeValidation,
		errors.ErrCodeConfigRead, errors.ErrCodeConfigInvalid:
		return UsageError
	default:
		return GeneralError
	}
}

func fromMessage(msg string) int {
	errMsg := strings.ToLower(msg)

	// Authentication errors
	for _, s := range []string{"unauthorized", "forbidden", "not logged in", "session expired"} {
		if strings.Contains(errMsg, s) {
			return AuthError
		}
	}

	// Network errors
	for _, s := range []string{"connection refused", "no such host", "no route to host", "deadline exceeded", "timeout"} {
		if strings.Contains(errMsg, s) {
			return NetworkError
		}
	}

	// Usage errors
	for _, s := range []string{"unknown command", "unknown flag", "unknown shorthand flag", "invalid argument",
		"required flag", "accepts ", "requires at least"} {
		if strings.Contains(errMsg, s) {
			return UsageError
		}
	}

	return GeneralError
}

// GetExitCodeDescription returns a human-readable description of an exit code
func GetExitCodeDescription(code int) string {
	switch code {
	case Success:
		return "Success"
	case GeneralError:
		return "General error"
	case UsageError:
		return "Usage error (invalid flags or arguments)"
	case AuthError:
		return "Authentication error"
	case NetworkError:
		return "Network error"
	case Interrupted:
		return "Interrupted"
	default:
		return "Unknown error"
	}
}
