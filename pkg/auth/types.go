package auth

import "strings"

// Outcome is the terminal state of a login attempt. Lookup misses, wrong
// passwords, and disabled accounts all end in OutcomeFailed so a caller can
// not tell which accounts exist.
type Outcome int

const (
	OutcomeFailed Outcome = iota
	OutcomeSuccess
	OutcomeNeedsVerification
)

func (o Outcome) String() string {
	switch o {
	case OutcomeSuccess:
		return "success"
	case OutcomeNeedsVerification:
		return "needs_verification"
	default:
		return "failed"
	}
}

// Account is the view of a stored account that the authentication flow
// needs; the account module maps its documents onto it.
type Account struct {
	Email         string
	Name          string
	PasswordHash  string
	EmailVerified bool
	Disabled      bool
	Issuer        string
	Roles         []string
}

// NormalizeEmail lowercases and trims an email address so lookups and
// uniqueness checks are case-insensitive.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
