package otp

import "errors"

var (
	ErrDecodeSecret         = errors.New("otp: failed to decode secret")
	ErrUnsupportedAlgorithm = errors.New("otp: unsupported digest algorithm")
	ErrInvalidDigits        = errors.New("otp: digits must be between 1 and 9")
)
