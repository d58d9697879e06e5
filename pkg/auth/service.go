package auth

import (
	"context"
	"errors"
	"io"
	"log/slog"

	"github.com/chatkitlabs/chatd/pkg/jwt"
	"github.com/chatkitlabs/chatd/pkg/logger"
	"github.com/chatkitlabs/chatd/pkg/secrets"
)

// UserStore is the external account collaborator consumed by the
// authentication flow. Implementations return ErrAccountNotFound for
// unknown identifiers.
type UserStore interface {
	FindByEmail(ctx context.Context, email string) (*Account, error)
	Create(ctx context.Context, account *Account) error
	UpdatePasswordHash(ctx context.Context, email, hash string) error
}

const minPasswordLength = 8

// Service implements the login state machine on top of an account store,
// the secrets vault, and the token service. All dependencies are injected
// at construction; the service itself holds no mutable state.
type Service struct {
	store  UserStore
	vault  *secrets.Vault
	tokens *jwt.Service
	logger *slog.Logger
}

type Option func(*Service)

// WithLogger sets a custom logger for the service.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

// New creates the authentication flow service.
func New(store UserStore, vault *secrets.Vault, tokens *jwt.Service, opts ...Option) *Service {
	s := &Service{
		store:  store,
		vault:  vault,
		tokens: tokens,
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Login authenticates an account by email and password.
//
// Unknown accounts, wrong passwords, and disabled accounts all produce the
// same OutcomeFailed with no further detail, preventing user enumeration.
// A known account with an unverified email produces OutcomeNeedsVerification
// and no token before the password is even checked: the caller's next step
// is verification either way, and a verification prompt must not double as
// a password oracle. Only token issuance failures are returned as errors;
// they must surface to the caller.
func (s *Service) Login(ctx context.Context, email, password string) (Outcome, string, error) {
	account, err := s.store.FindByEmail(ctx, NormalizeEmail(email))
	if err != nil {
		if !errors.Is(err, ErrAccountNotFound) {
			s.logger.Error("account lookup failed",
				logger.Component("auth"),
				logger.Error(err),
			)
		}
		return OutcomeFailed, "", nil
	}

	if !account.EmailVerified {
		return OutcomeNeedsVerification, "", nil
	}

	if !s.vault.VerifyPassword(password, account.PasswordHash) {
		return OutcomeFailed, "", nil
	}

	if account.Disabled {
		return OutcomeFailed, "", nil
	}

	token, err := s.issueToken(account)
	if err != nil {
		return OutcomeFailed, "", err
	}
	return OutcomeSuccess, token, nil
}

// ExternalLogin authenticates an account created through an external
// identity provider. It succeeds only when the stored account's issuer
// matches the supplied one, binding externally-authenticated identities to
// the provider that created them. Mismatches look identical to unknown
// accounts.
func (s *Service) ExternalLogin(ctx context.Context, email, issuer string) (Outcome, string, error) {
	account, err := s.store.FindByEmail(ctx, NormalizeEmail(email))
	if err != nil {
		if !errors.Is(err, ErrAccountNotFound) {
			s.logger.Error("account lookup failed",
				logger.Component("auth"),
				logger.Error(err),
			)
		}
		return OutcomeFailed, "", nil
	}

	if issuer == "" || account.Issuer != issuer || account.Disabled {
		return OutcomeFailed, "", nil
	}

	token, err := s.issueToken(account)
	if err != nil {
		return OutcomeFailed, "", err
	}
	return OutcomeSuccess, token, nil
}

// Register creates a new account with a freshly hashed password.
func (s *Service) Register(ctx context.Context, name, email, password string) (*Account, error) {
	email = NormalizeEmail(email)
	if len(password) < minPasswordLength {
		return nil, ErrWeakPassword
	}

	if _, err := s.store.FindByEmail(ctx, email); err == nil {
		return nil, ErrEmailAlreadyExists
	} else if !errors.Is(err, ErrAccountNotFound) {
		return nil, err
	}

	hash, err := s.vault.HashPassword(password)
	if err != nil {
		return nil, err
	}

	account := &Account{
		Email:        email,
		Name:         name,
		PasswordHash: hash,
		Roles:        []string{"user"},
	}
	if err := s.store.Create(ctx, account); err != nil {
		return nil, err
	}
	return account, nil
}

// ChangePassword replaces the account's password after verifying the
// current one. Failures are reported as ErrInvalidCredentials without
// distinguishing missing accounts from wrong passwords.
func (s *Service) ChangePassword(ctx context.Context, email, current, replacement string) error {
	email = NormalizeEmail(email)
	if len(replacement) < minPasswordLength {
		return ErrWeakPassword
	}

	account, err := s.store.FindByEmail(ctx, email)
	if err != nil {
		return ErrInvalidCredentials
	}
	if !s.vault.VerifyPassword(current, account.PasswordHash) {
		return ErrInvalidCredentials
	}

	hash, err := s.vault.HashPassword(replacement)
	if err != nil {
		return err
	}
	return s.store.UpdatePasswordHash(ctx, email, hash)
}

// Tokens exposes the underlying token service for middleware wiring.
func (s *Service) Tokens() *jwt.Service {
	return s.tokens
}

func (s *Service) issueToken(account *Account) (string, error) {
	claims := map[string]any{
		"sub":  account.Email,
		"name": account.Name,
	}
	if len(account.Roles) > 0 {
		claims["roles"] = account.Roles
	}
	return s.tokens.Issue(claims, 0)
}
