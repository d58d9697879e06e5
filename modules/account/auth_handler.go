package account

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/chatkitlabs/chatd/core"
	"github.com/chatkitlabs/chatd/pkg/auth"
)

// AuthHandler exposes credential sign-up, sign-in, and token validation.
type AuthHandler struct {
	flow *auth.Service
}

// NewAuthHandler creates the credential authentication handler.
func NewAuthHandler(flow *auth.Service) *AuthHandler {
	return &AuthHandler{flow: flow}
}

// Handle mounts the /auth routes.
func (h *AuthHandler) Handle() http.Handler {
	r := chi.NewRouter()
	r.Post("/sign-up", h.signUp)
	r.Post("/sign-in", h.signIn)
	r.Post("/validate-token", h.validateToken)
	return r
}

type signUpRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *AuthHandler) signUp(w http.ResponseWriter, r *http.Request) {
	var req signUpRequest
	if err := core.DecodeJSON(r, &req); err != nil {
		core.JSONError(w, err)
		return
	}
	if req.Email == "" || req.Password == "" {
		core.JSONError(w, core.ErrUnprocessableEntity)
		return
	}

	account, err := h.flow.Register(r.Context(), req.Name, req.Email, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, auth.ErrEmailAlreadyExists):
			core.JSONError(w, core.ErrConflict)
		case errors.Is(err, auth.ErrWeakPassword):
			core.JSONError(w, core.ErrUnprocessableEntity)
		default:
			core.JSONError(w, err)
		}
		return
	}

	core.JSON(w, http.StatusCreated, map[string]any{
		"email": account.Email,
		"name":  account.Name,
		"roles": account.Roles,
	})
}

// tokenResponse mirrors the OAuth2 password-grant response shape so
// standard clients can consume it.
type tokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

// signIn accepts form-encoded credentials under the OAuth2 password-grant
// field names (username carries the email).
func (h *AuthHandler) signIn(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		core.JSONError(w, core.ErrBadRequest)
		return
	}
	email := r.PostFormValue("username")
	password := r.PostFormValue("password")
	if email == "" || password == "" {
		core.JSONError(w, core.ErrUnprocessableEntity)
		return
	}

	outcome, token, err := h.flow.Login(r.Context(), email, password)
	if err != nil {
		core.JSONError(w, err)
		return
	}

	switch outcome {
	case auth.OutcomeSuccess:
		core.JSON(w, http.StatusOK, tokenResponse{AccessToken: token, TokenType: "bearer"})
	case auth.OutcomeNeedsVerification:
		core.JSONError(w, core.NewHTTPError(http.StatusForbidden, "email_not_verified"))
	default:
		core.JSONError(w, core.ErrUnauthorized)
	}
}

func (h *AuthHandler) validateToken(w http.ResponseWriter, r *http.Request) {
	subject, err := h.flow.Tokens().SubjectFromHeader(r.Header.Get("Authorization"))
	if err != nil {
		core.JSONError(w, core.ErrUnauthorized)
		return
	}
	core.JSON(w, http.StatusOK, map[string]string{"sub": subject})
}
