// Package auth implements the authentication flows: password login,
// registration, password change, and Google sign-in.
//
// The login state machine is:
//
//	Start -> Lookup -> { NotFound:          Fail,
//	                     Found+Unverified:  NeedsVerification,
//	                     Found+Verified:    PasswordCheck }
//	PasswordCheck -> { Valid+Enabled: IssueToken -> Success, else: Fail }
//
// Every non-Success path except NeedsVerification collapses into the same
// generic failure so callers cannot enumerate accounts. External login binds
// provider-created accounts to their issuer and otherwise follows the same
// rules.
//
// The Service depends on a UserStore collaborator, the secrets vault, and
// the token service, all injected through the constructor.
package auth
