// Package errs contains sentinel errors used across layers for stable error mapping.
package errs

import "errors"

// Common sentinels across repo/service layers. The HTTP boundary maps each to a
// status code; services wrap them with context via fmt.Errorf("%w").
var (
	// ErrValidation indicates malformed, missing, or empty input.
	ErrValidation = errors.New("validation failed")

	// ErrAlreadyExists indicates a unique constraint violation (email/username taken).
	ErrAlreadyExists = errors.New("already exists")

	// ErrInvalidCredentials indicates a failed login. Deliberately the same for an
	// unknown identifier and a wrong password to resist account enumeration.
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrInactiveAccount indicates a disabled account. Checked before the password
	// so a disabled account never learns whether its password was right.
	ErrInactiveAccount = errors.New("account inactive")

	// ErrTokenMalformed indicates a bearer token that failed to parse or verify.
	ErrTokenMalformed = errors.New("invalid token")

	// ErrTokenExpired indicates a bearer token past its expiry.
	ErrTokenExpired = errors.New("token expired")

	// ErrUnauthenticated indicates a request without a usable identity.
	ErrUnauthenticated = errors.New("unauthenticated")

	// ErrForbidden indicates an authenticated request with insufficient role.
	ErrForbidden = errors.New("forbidden")

	// ErrNotFound indicates the requested entity does not exist.
	ErrNotFound = errors.New("not found")
)
