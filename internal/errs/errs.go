// Package errs contains sentinel errors shared across layers for stable
// error mapping at the HTTP boundary.
package errs

import "errors"

var (
	// ErrNotFound indicates the requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrAlreadyExists indicates a unique constraint violation.
	ErrAlreadyExists = errors.New("already exists")

	// ErrForbidden indicates the authenticated user may not act on the target.
	ErrForbidden = errors.New("forbidden")

	// ErrInvalidCredentials indicates a failed email/password check.
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrValidation indicates malformed or incomplete input.
	ErrValidation = errors.New("invalid input")
)
