// Package totp provides time-based one-time passwords (RFC 6238) on top of
// the HOTP engine in pkg/otp.
//
// A Service owns a single shared secret together with its digest, time step,
// and digit count, all fixed at construction. Codes are derived by
// quantizing wall-clock time into step counters. Verification compares in
// constant time and optionally tolerates clock drift through an explicit
// step window; by default only the exact step is accepted.
//
//	svc, err := totp.New(secret)
//	if err != nil {
//		// handle error
//	}
//	code, _ := svc.Now()
//	ok := svc.Verify(code)
//
// The package also generates fresh enrollment secrets and otpauth://
// provisioning URIs for authenticator apps.
package totp
