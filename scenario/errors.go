package scenario

import (
	"errors"
)

var (
	ErrDecode            = errors.New("scenario: decode failed")
	ErrInvalidScenario   = errors.New("scenario: invalid scenario")
	ErrInvalidBinding    = errors.New("scenario: invalid binding")
	ErrInvalidMiddleware = errors.New("scenario: invalid middleware")
	ErrInvalidEvent      = errors.New("scenario: invalid event")
)

// IsInvalid checks if err is a decode or validation error.
func IsInvalid(err error) bool {
	return errors.Is(err, ErrDecode) ||
		errors.Is(err, ErrInvalidScenario) ||
		errors.Is(err, ErrInvalidBinding) ||
		errors.Is(err, ErrInvalidMiddleware) ||
		errors.Is(err, ErrInvalidEvent)
}
