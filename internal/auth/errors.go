package auth

import "errors"

var (
	// ErrMissingFields covers any absent or empty required field.
	ErrMissingFields = errors.New("missing required fields")
	// ErrBadImage means the avatar payload could not be decoded.
	ErrBadImage = errors.New("invalid image payload")
	// ErrDuplicateAccount is returned for both the pre-insert check and the
	// unique-constraint rejection from the store.
	ErrDuplicateAccount = errors.New("username or email already registered")
	// ErrInvalidCredentials is shared by unknown-identifier and wrong-password
	// failures so the two are indistinguishable to the client.
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrAccountNotFound    = errors.New("account not found")
	ErrTooManyAttempts    = errors.New("too many failed login attempts")
)
