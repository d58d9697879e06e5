package jwt

import (
	"errors"
	"strings"
	"time"

	gojwt "github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/chatkitlabs/chatd/pkg/secrets"
)

// Config carries the symmetric signing secret, algorithm, and token
// lifetime, all environment-provided.
type Config struct {
	SigningKey string        `env:"JWT_SECRET_KEY,required"`          // symmetric server secret
	Algorithm  string        `env:"JWT_ALGORITHM" envDefault:"HS256"` // HMAC family only
	TTL        time.Duration `env:"JWT_TTL" envDefault:"30m"`         // default token time-to-live
}

// Service issues and verifies bearer tokens whose scalar claim values are
// individually encrypted by the vault. Tokens are stateless: nothing is
// persisted server side and there is no revocation list.
type Service struct {
	signingKey []byte
	method     gojwt.SigningMethod
	ttl        time.Duration
	vault      *secrets.Vault
}

// New creates a token service. The signing algorithm must belong to the
// HMAC family; asymmetric methods are rejected at construction so that
// verification can never be downgraded.
func New(cfg Config, vault *secrets.Vault) (*Service, error) {
	if cfg.SigningKey == "" {
		return nil, ErrMissingSigningKey
	}

	algorithm := cfg.Algorithm
	if algorithm == "" {
		algorithm = "HS256"
	}

	method := gojwt.GetSigningMethod(algorithm)
	if _, ok := method.(*gojwt.SigningMethodHMAC); !ok {
		return nil, ErrUnsupportedAlgorithm
	}

	ttl := cfg.TTL
	if ttl == 0 {
		ttl = 30 * time.Minute
	}

	return &Service{
		signingKey: []byte(cfg.SigningKey),
		method:     method,
		ttl:        ttl,
		vault:      vault,
	}, nil
}

// Issue signs a token carrying the given claims with expiry now+ttl; a zero
// ttl uses the configured default. Scalar claim values are replaced by their
// vault ciphertext so that anyone who can read the token but lacks the
// private key learns nothing from the payload. List-valued claims (roles)
// stay plaintext: they are checked by middleware on every request and must
// not cost a private-key operation, and they carry no personal data.
func (s *Service) Issue(claims map[string]any, ttl time.Duration) (string, error) {
	if ttl == 0 {
		ttl = s.ttl
	}

	out := gojwt.MapClaims{}
	for name, value := range claims {
		switch v := value.(type) {
		case []string:
			out[name] = v
		case []any:
			out[name] = v
		case string:
			encrypted, err := s.vault.EncryptField(v)
			if err != nil {
				return "", err
			}
			out[name] = encrypted
		default:
			return "", ErrUnsupportedClaim
		}
	}

	out["exp"] = gojwt.NewNumericDate(time.Now().Add(ttl))
	out["jti"] = uuid.NewString()

	token := gojwt.NewWithClaims(s.method, out)
	signed, err := token.SignedString(s.signingKey)
	if err != nil {
		return "", errors.Join(ErrSignFailed, err)
	}
	return signed, nil
}

// Parse verifies the signature and expiry and returns the raw claim set
// with scalar values still encrypted. Failures map to the distinguishable
// ErrTokenExpired / ErrInvalidSignature so the HTTP boundary can answer
// 401 precisely; they are never swallowed.
func (s *Service) Parse(tokenString string) (gojwt.MapClaims, error) {
	token, err := gojwt.Parse(tokenString, func(t *gojwt.Token) (any, error) {
		if _, ok := t.Method.(*gojwt.SigningMethodHMAC); !ok {
			return nil, ErrUnsupportedAlgorithm
		}
		return s.signingKey, nil
	}, gojwt.WithValidMethods([]string{s.method.Alg()}))
	if err != nil {
		switch {
		case errors.Is(err, gojwt.ErrTokenExpired):
			return nil, ErrTokenExpired
		case errors.Is(err, gojwt.ErrTokenSignatureInvalid):
			return nil, ErrInvalidSignature
		default:
			return nil, errors.Join(ErrInvalidToken, err)
		}
	}

	claims, ok := token.Claims.(gojwt.MapClaims)
	if !ok {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// Subject verifies the token and decrypts its "sub" claim back to the
// plaintext account identifier.
func (s *Service) Subject(tokenString string) (string, error) {
	claims, err := s.Parse(tokenString)
	if err != nil {
		return "", err
	}
	return s.decryptClaim(claims, "sub")
}

// SubjectFromHeader resolves the subject from an Authorization header
// value, stripping a "Bearer " prefix if present.
func (s *Service) SubjectFromHeader(header string) (string, error) {
	header = strings.TrimSpace(header)
	if header == "" {
		return "", ErrMissingToken
	}
	return s.Subject(strings.TrimSpace(strings.TrimPrefix(header, "Bearer ")))
}

// SubjectWithRoles behaves like Subject but additionally requires the
// token's plaintext roles claim to intersect the required set, returning
// ErrInsufficientRole otherwise.
func (s *Service) SubjectWithRoles(tokenString string, required ...string) (string, error) {
	claims, err := s.Parse(tokenString)
	if err != nil {
		return "", err
	}

	if len(required) > 0 && !rolesIntersect(claims["roles"], required) {
		return "", ErrInsufficientRole
	}

	return s.decryptClaim(claims, "sub")
}

func (s *Service) decryptClaim(claims gojwt.MapClaims, name string) (string, error) {
	raw, ok := claims[name].(string)
	if !ok {
		return "", ErrMissingSubject
	}
	return s.vault.DecryptField(raw)
}

func rolesIntersect(claim any, required []string) bool {
	held, ok := claim.([]any)
	if !ok {
		return false
	}
	for _, h := range held {
		role, ok := h.(string)
		if !ok {
			continue
		}
		for _, r := range required {
			if role == r {
				return true
			}
		}
	}
	return false
}
