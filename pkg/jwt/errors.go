package jwt

import "errors"

var (
	ErrMissingSigningKey    = errors.New("jwt: missing signing key")
	ErrUnsupportedAlgorithm = errors.New("jwt: unsupported signing algorithm")
	ErrUnsupportedClaim     = errors.New("jwt: claim value must be a string or a string list")
	ErrSignFailed           = errors.New("jwt: failed to sign token")
	ErrInvalidToken         = errors.New("jwt: invalid token")
	ErrTokenExpired         = errors.New("jwt: token is expired")
	ErrInvalidSignature     = errors.New("jwt: invalid signature")
	ErrMissingToken         = errors.New("jwt: missing bearer token")
	ErrMissingSubject       = errors.New("jwt: token has no subject claim")
	ErrInsufficientRole     = errors.New("jwt: insufficient permissions")
)
