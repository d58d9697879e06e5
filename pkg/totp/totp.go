package totp

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base32"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"time"

	"github.com/chatkitlabs/chatd/pkg/logger"
	"github.com/chatkitlabs/chatd/pkg/otp"
)

const (
	DefaultDigits = 6  // standard 6-digit codes
	DefaultPeriod = 30 // 30-second step (RFC 6238 standard)
)

// Service derives time-based one-time passwords from a single shared secret.
// The secret, digest, step, and digit count are fixed at construction; the
// service is safe for concurrent use.
type Service struct {
	secret    string
	algorithm otp.Algorithm
	encoding  otp.Encoding
	period    int64
	digits    int
	logger    *slog.Logger
}

type Option func(*Service)

// WithAlgorithm overrides the default HMAC-SHA1 digest.
func WithAlgorithm(a otp.Algorithm) Option {
	return func(s *Service) { s.algorithm = a }
}

// WithEncoding overrides the default base32 secret encoding.
func WithEncoding(e otp.Encoding) Option {
	return func(s *Service) { s.encoding = e }
}

// WithPeriod sets the time step in seconds.
func WithPeriod(seconds int) Option {
	return func(s *Service) {
		if seconds > 0 {
			s.period = int64(seconds)
		}
	}
}

// WithDigits sets the generated code length.
func WithDigits(digits int) Option {
	return func(s *Service) {
		if digits > 0 {
			s.digits = digits
		}
	}
}

// WithLogger sets a custom logger for verification failures.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

// New creates a TOTP service for the given shared secret.
func New(secret string, opts ...Option) (*Service, error) {
	if secret == "" {
		return nil, ErrMissingSecret
	}

	s := &Service{
		secret:    secret,
		algorithm: otp.AlgorithmSHA1,
		encoding:  otp.EncodingBase32,
		period:    DefaultPeriod,
		digits:    DefaultDigits,
		logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(s)
	}

	// Fail fast on unusable secrets instead of at the first code request.
	if _, err := s.At(time.Unix(0, 0)); err != nil {
		return nil, err
	}

	return s, nil
}

// At returns the code for the time step containing t.
func (s *Service) At(t time.Time) (string, error) {
	counter := uint64(t.Unix() / s.period)
	code, err := otp.Generate(s.secret, counter, s.digits,
		otp.WithAlgorithm(s.algorithm), otp.WithEncoding(s.encoding))
	if err != nil {
		return "", err
	}
	return code, nil
}

// Now returns the code for the current time step.
func (s *Service) Now() (string, error) {
	return s.At(time.Now())
}

type verifyOptions struct {
	at     time.Time
	window int
}

type VerifyOption func(*verifyOptions)

// VerifyAt checks the candidate against the step containing t instead of now.
func VerifyAt(t time.Time) VerifyOption {
	return func(o *verifyOptions) { o.at = t }
}

// WithWindow widens verification to n adjacent steps on each side of the
// reference step, tolerating clock drift between client and server. The
// default window is zero: only the exact step is accepted.
func WithWindow(n int) VerifyOption {
	return func(o *verifyOptions) {
		if n > 0 {
			o.window = n
		}
	}
}

// Verify reports whether candidate matches the expected code. Verification
// is a yes/no question: internal failures are logged and reported as false,
// never returned as errors.
func (s *Service) Verify(candidate string, opts ...VerifyOption) bool {
	o := verifyOptions{at: time.Now()}
	for _, opt := range opts {
		opt(&o)
	}

	if len(candidate) != s.digits {
		return false
	}

	base := o.at.Unix() / s.period
	for step := base - int64(o.window); step <= base+int64(o.window); step++ {
		code, err := otp.Generate(s.secret, uint64(step), s.digits,
			otp.WithAlgorithm(s.algorithm), otp.WithEncoding(s.encoding))
		if err != nil {
			s.logger.Error("totp verification failed",
				logger.Component("totp"),
				logger.Error(err),
			)
			return false
		}
		if subtle.ConstantTimeCompare([]byte(code), []byte(candidate)) == 1 {
			return true
		}
	}

	return false
}

// GenerateSecret generates a new base32-encoded 160-bit shared secret
// suitable for authenticator-app enrollment.
func GenerateSecret() (string, error) {
	secret := make([]byte, 20) // RFC 4226 recommended secret length
	if _, err := rand.Read(secret); err != nil {
		return "", errors.Join(ErrGenerateSecret, err)
	}
	return base32.StdEncoding.WithPadding(base32.NoPadding).EncodeToString(secret), nil
}

// URI builds an otpauth:// provisioning URI for the service's secret,
// following the Key Uri Format understood by authenticator apps:
// https://github.com/google/google-authenticator/wiki/Key-Uri-Format
func (s *Service) URI(accountName, issuer string) (string, error) {
	if accountName == "" {
		return "", ErrMissingAccountName
	}
	if issuer == "" {
		return "", ErrMissingIssuer
	}

	label := fmt.Sprintf("%s:%s", url.PathEscape(issuer), url.PathEscape(accountName))

	query := url.Values{}
	query.Set("secret", s.secret)
	query.Set("issuer", issuer)
	query.Set("algorithm", string(s.algorithm))
	query.Set("digits", fmt.Sprintf("%d", s.digits))
	query.Set("period", fmt.Sprintf("%d", s.period))

	return fmt.Sprintf("otpauth://totp/%s?%s", label, query.Encode()), nil
}
