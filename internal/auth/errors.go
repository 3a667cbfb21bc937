package auth

import "errors"

var (
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrDuplicateIdentity  = errors.New("identity already exists")

	// ErrRefreshInvalid matches every rotation rejection.
	ErrRefreshInvalid = errors.New("refresh token invalid")

	ErrRefreshNotFound = errors.New("refresh token not found")
	ErrRefreshMismatch = errors.New("refresh token mismatch")
	ErrRefreshExpired  = errors.New("refresh token expired")
)

// RefreshError is returned for every rejected rotation. Its message is the
// same whatever check failed; Kind tells callers (and logs) which one did.
//
//	errors.Is(err, ErrRefreshInvalid)  // any rejection
//	errors.Is(err, ErrRefreshMismatch) // that specific one
type RefreshError struct {
	Kind error
}

func (e *RefreshError) Error() string { return ErrRefreshInvalid.Error() }

func (e *RefreshError) Unwrap() error { return e.Kind }

func (e *RefreshError) Is(target error) bool { return target == ErrRefreshInvalid }

func reject(kind error) error { return &RefreshError{Kind: kind} }
