// Package jwt issues and verifies the bearer tokens used by chatd.
//
// Tokens are signed with a symmetric server secret (HMAC family, HS256 by
// default) via github.com/golang-jwt/jwt/v5 and carry a claim set in which
// every scalar value is individually encrypted by the secrets vault before
// signing. Signing proves integrity; the per-claim encryption additionally
// hides claim contents from anything that can read the token but lacks the
// private key, such as intermediate logging systems. List-valued claims
// (roles) are deliberately left plaintext so authorization checks stay
// cheap; see Service.Issue.
//
// Tokens are stateless: verification needs only the secret and the vault,
// nothing is stored server side, and tokens become invalid solely through
// expiry or signature mismatch.
package jwt
