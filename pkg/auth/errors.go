package auth

import "errors"

var (
	ErrAccountNotFound    = errors.New("auth: account not found")
	ErrEmailAlreadyExists = errors.New("auth: email already registered")
	ErrInvalidCredentials = errors.New("auth: invalid credentials")
	ErrWeakPassword       = errors.New("auth: password does not meet requirements")
)

// OAuth-specific errors
var (
	ErrInvalidState   = errors.New("auth: invalid or expired oauth state")
	ErrInvalidCode    = errors.New("auth: invalid authorization code")
	ErrMissingIDToken = errors.New("auth: provider response has no id token")
)
