package session

import "errors"

var (
	// ErrInvalidCredentials is the client-local sign-in failure, distinct
	// from server-side authentication failures so UIs can render it inline.
	ErrInvalidCredentials = errors.New("invalid email or password")

	// ErrDuplicateEmail is returned by SignUp when the normalized email is
	// already present in the local user list.
	ErrDuplicateEmail = errors.New("email already registered")
)
