package shared

import "errors"

var (
	// ErrNotFound indicates resource not found.
	ErrNotFound = errors.New("not found")
	// ErrInvalidCredentials indicates login failure.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrValidation indicates a business-rule rejection.
	ErrValidation = errors.New("validation failed")
)

// UserSafeMessage returns an error message suitable for API consumers.
// Wrapped infrastructure errors collapse to a generic message.
func UserSafeMessage(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrNotFound):
		return "record not found"
	case errors.Is(err, ErrInvalidCredentials):
		return "invalid credentials"
	default:
		return err.Error()
	}
}
