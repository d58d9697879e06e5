package account

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/chatkitlabs/chatd/core"
	"github.com/chatkitlabs/chatd/pkg/auth"
	"github.com/chatkitlabs/chatd/pkg/logger"
	"github.com/chatkitlabs/chatd/pkg/secrets"
)

// maxAvatarBytes caps how much of a provider-hosted avatar is read when
// copying it into the pictures collection.
const maxAvatarBytes = 1 << 20

// ProvisionStore defines the storage operations first-time sign-in
// provisioning needs. *Store satisfies it.
type ProvisionStore interface {
	FindByEmail(ctx context.Context, email string) (*User, error)
	Create(ctx context.Context, user *User) error
	SavePicture(ctx context.Context, email, contentType string, data []byte) error
}

// OAuthHandler drives the Google sign-in endpoints, auto-provisioning
// first-time users from the asserted identity.
type OAuthHandler struct {
	google *auth.GoogleOAuth
	flow   *auth.Service
	store  ProvisionStore
	vault  *secrets.Vault
	client *http.Client
	logger *slog.Logger
}

type OAuthHandlerOption func(*OAuthHandler)

// WithOAuthLogger sets a custom logger for the handler.
func WithOAuthLogger(logger *slog.Logger) OAuthHandlerOption {
	return func(h *OAuthHandler) { h.logger = logger }
}

// WithAvatarClient overrides the HTTP client used to fetch provider
// avatars.
func WithAvatarClient(client *http.Client) OAuthHandlerOption {
	return func(h *OAuthHandler) { h.client = client }
}

// NewOAuthHandler creates the Google sign-in handler.
func NewOAuthHandler(google *auth.GoogleOAuth, flow *auth.Service, store ProvisionStore, vault *secrets.Vault, opts ...OAuthHandlerOption) *OAuthHandler {
	h := &OAuthHandler{
		google: google,
		flow:   flow,
		store:  store,
		vault:  vault,
		client: &http.Client{Timeout: 10 * time.Second},
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Handle mounts the /oauth routes.
func (h *OAuthHandler) Handle() http.Handler {
	r := chi.NewRouter()
	r.Get("/google-url", h.googleURL)
	r.Get("/google-response", h.googleResponse)
	return r
}

func (h *OAuthHandler) googleURL(w http.ResponseWriter, r *http.Request) {
	url, err := h.google.AuthURL(r.Context())
	if err != nil {
		h.logger.Error("failed to build authorization url", logger.Error(err))
		core.JSONError(w, core.ErrInternalServerError)
		return
	}
	core.JSON(w, http.StatusOK, map[string]string{"url": url})
}

func (h *OAuthHandler) googleResponse(w http.ResponseWriter, r *http.Request) {
	code := r.URL.Query().Get("code")
	state := r.URL.Query().Get("state")
	if code == "" || state == "" {
		core.JSONError(w, core.ErrBadRequest)
		return
	}

	identity, err := h.google.Exchange(r.Context(), code, state)
	if err != nil {
		if errors.Is(err, auth.ErrInvalidState) || errors.Is(err, auth.ErrInvalidCode) {
			core.JSONError(w, core.ErrUnauthorized)
			return
		}
		h.logger.Error("oauth exchange failed", logger.Error(err))
		core.JSONError(w, core.ErrInternalServerError)
		return
	}

	if err := h.provision(r, identity); err != nil {
		h.logger.Error("oauth provisioning failed",
			slog.String("email", identity.Email),
			logger.Error(err),
		)
		core.JSONError(w, core.ErrInternalServerError)
		return
	}

	outcome, token, err := h.flow.ExternalLogin(r.Context(), identity.Email, identity.Issuer)
	if err != nil {
		core.JSONError(w, err)
		return
	}
	if outcome != auth.OutcomeSuccess {
		core.JSONError(w, core.ErrUnauthorized)
		return
	}

	core.JSON(w, http.StatusOK, tokenResponse{AccessToken: token, TokenType: "bearer"})
}

// provision creates the account on first sign-in. The provider has already
// verified the email, so the account is created verified; the access-token
// hash doubles as an unguessable password placeholder.
func (h *OAuthHandler) provision(r *http.Request, identity *auth.GoogleIdentity) error {
	ctx := r.Context()

	_, err := h.store.FindByEmail(ctx, identity.Email)
	if err == nil {
		return nil
	}
	if !errors.Is(err, ErrUserNotFound) {
		return err
	}

	hash, err := h.vault.HashPassword(identity.AtHash)
	if err != nil {
		return err
	}

	user := &User{
		Name:          identity.GivenName,
		LastName:      identity.FamilyName,
		Email:         identity.Email,
		PasswordHash:  hash,
		EmailVerified: true,
		Issuer:        identity.Issuer,
		PictureURL:    identity.Picture,
		Roles:         []string{"user"},
	}
	if err := h.store.Create(ctx, user); err != nil && !errors.Is(err, ErrDuplicateEmail) {
		return err
	}

	if identity.Picture != "" {
		h.fetchAvatar(r, identity.Email, identity.Picture)
	}
	return nil
}

// fetchAvatar copies the provider-hosted avatar into the pictures
// collection. Failures are logged and otherwise ignored; sign-in must not
// depend on a CDN fetch.
func (h *OAuthHandler) fetchAvatar(r *http.Request, email, url string) {
	req, err := http.NewRequestWithContext(r.Context(), http.MethodGet, url, nil)
	if err != nil {
		return
	}
	resp, err := h.client.Do(req)
	if err != nil {
		h.logger.Warn("avatar fetch failed", slog.String("email", email), logger.Error(err))
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, maxAvatarBytes))
	if err != nil {
		return
	}
	contentType := resp.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "image/jpeg"
	}
	if err := h.store.SavePicture(r.Context(), email, contentType, data); err != nil {
		h.logger.Warn("avatar save failed", slog.String("email", email), logger.Error(err))
	}
}
