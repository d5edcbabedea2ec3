// Package validate holds the caller-side input checks run before any
// backend call is made.
package validate

import (
	"strings"

	"github.com/asaskevich/govalidator"

	"github.com/felixgeelhaar/adminctl/internal/errors"
)

const (
	// MobileLength is the exact number of digits in a mobile number.
	MobileLength = 10
	// MinPasswordLength is the shortest password the login form accepts.
	MinPasswordLength = 6
)

// Mobile checks that s is exactly ten ASCII digits.
func Mobile(s string) error {
	if len(s) != MobileLength || !govalidator.IsNumeric(s) {
		return errors.NewValidationError("mobile", "must be exactly 10 digits").
			WithSuggestion("Enter the number without country code, spaces or dashes, e.g. 9876543210")
	}
	return nil
}

// OptionalMobile is Mobile for fields that may be left empty.
func OptionalMobile(field, s string) error {
	if s == "" {
		return nil
	}
	if len(s) != MobileLength || !govalidator.IsNumeric(s) {
		return errors.NewValidationError(field, "must be exactly 10 digits")
	}
	return nil
}

// Email checks that s is a syntactically valid email address.
func Email(s string) error {
	if strings.TrimSpace(s) == "" {
		return errors.NewValidationError("email", "is required")
	}
	if !govalidator.IsEmail(s) {
		return errors.NewValidationError("email", "is not a valid email address")
	}
	return nil
}

// Password checks the minimum password length.
func Password(s string) error {
	if s == "" {
		return errors.NewValidationError("password", "is required")
	}
	if len([]rune(s)) < MinPasswordLength {
		return errors.NewValidationError("password", "must be at least 6 characters")
	}
	return nil
}

// Credentials validates a login attempt.
func Credentials(email, password string) error {
	if err := Email(email); err != nil {
		return err
	}
	return Password(password)
}

// Pincode checks a six digit postal code. Empty is allowed.
func Pincode(s string) error {
	if s == "" {
		return nil
	}
	if len(s) != 6 || !govalidator.IsNumeric(s) {
		return errors.NewValidationError("pincode", "must be exactly 6 digits")
	}
	return nil
}

// UserID checks a positive numeric user identifier and returns it.
func UserID(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if !govalidator.IsNumeric(s) || s == "" {
		return 0, errors.NewValidationError("user id", "must be a positive integer")
	}
	n, err := govalidator.ToInt(s)
	if err != nil || n <= 0 {
		return 0, errors.NewValidationError("user id", "must be a positive integer")
	}
	return n, nil
}
