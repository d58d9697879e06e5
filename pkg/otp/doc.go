// Package otp implements the RFC 4226 HMAC-based one-time password
// algorithm (HOTP).
//
// The package is a pure code generator: given a shared secret, an unsigned
// moving factor, and a digit count it deterministically produces a
// zero-padded numeric code. Time-based quantization, verification windows,
// and secret management live one level up in pkg/totp.
//
// # Usage
//
//	code, err := otp.Generate("JBSWY3DPEHPK3PXP", 42, 6)
//	if err != nil {
//		// handle error
//	}
//
// Secrets are base32-encoded by default; hex and raw ASCII secrets are
// supported via WithEncoding. The HMAC digest defaults to SHA-1 per the RFC
// and can be switched with WithAlgorithm.
package otp
