package totp

import "errors"

var (
	ErrMissingSecret      = errors.New("totp: missing secret")
	ErrGenerateSecret     = errors.New("totp: failed to generate secret")
	ErrMissingAccountName = errors.New("totp: missing account name")
	ErrMissingIssuer      = errors.New("totp: missing issuer")
)
