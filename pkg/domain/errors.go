package domain

import "errors"

// Store errors
var (
	ErrUserNotFound          = errors.New("user not found")
	ErrIdentifierTaken       = errors.New("identifier already registered")
	ErrRefreshTokenNotFound  = errors.New("refresh token not found")
	ErrExchangeTokenNotFound = errors.New("exchange token not found")
	ErrCodeNotFound          = errors.New("code not found")
)

// ErrUnexpectedState marks defensive failures that should never occur
// given correct wiring. Callers treat it as fatal to the request, log
// it, and do not retry.
var ErrUnexpectedState = errors.New("unexpected state")

// ErrNotImplemented marks operations intentionally stubbed pending
// future work. It is distinct from not-found so callers cannot mistake
// "not built yet" for "no such record".
var ErrNotImplemented = errors.New("not implemented")
