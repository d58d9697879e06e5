package account

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/chatkitlabs/chatd/core"
)

// AdminStore defines the storage operations the administration endpoints
// need. *Store satisfies it.
type AdminStore interface {
	FindByEmail(ctx context.Context, email string) (*User, error)
	List(ctx context.Context, limit, offset int64) ([]User, error)
	Count(ctx context.Context) (int64, error)
	Delete(ctx context.Context, email string) error
	SetDisabled(ctx context.Context, email string, disabled bool) error
	SetEmailVerified(ctx context.Context, email string, verified bool) error
	SetTwoFactorEnabled(ctx context.Context, email string, enabled bool) error
}

// AdminHandler exposes the user administration endpoints. Routes are
// expected to sit behind the admin-role JWT middleware.
type AdminHandler struct {
	store AdminStore
}

// NewAdminHandler creates the user administration handler.
func NewAdminHandler(store AdminStore) *AdminHandler {
	return &AdminHandler{store: store}
}

// Handle mounts the /admin routes.
func (h *AdminHandler) Handle() http.Handler {
	r := chi.NewRouter()
	r.Get("/users", h.list)
	r.Get("/users/{email}", h.get)
	r.Delete("/users/{email}", h.delete)
	r.Post("/users/{email}/disable", h.disable)
	r.Post("/users/{email}/enable", h.enable)
	r.Post("/users/{email}/verify", h.verify)
	r.Post("/users/{email}/2fa/enable", h.enableTwoFactor)
	r.Post("/users/{email}/2fa/disable", h.disableTwoFactor)
	return r
}

func (h *AdminHandler) list(w http.ResponseWriter, r *http.Request) {
	limit := queryInt(r, "limit", 50)
	if limit > 200 {
		limit = 200
	}
	offset := queryInt(r, "offset", 0)

	users, err := h.store.List(r.Context(), limit, offset)
	if err != nil {
		core.JSONError(w, err)
		return
	}
	total, err := h.store.Count(r.Context())
	if err != nil {
		core.JSONError(w, err)
		return
	}

	core.JSONMeta(w, http.StatusOK, users, map[string]any{
		"total":  total,
		"limit":  limit,
		"offset": offset,
	})
}

func (h *AdminHandler) get(w http.ResponseWriter, r *http.Request) {
	user, err := h.store.FindByEmail(r.Context(), chi.URLParam(r, "email"))
	if err != nil {
		core.JSONError(w, storeError(err))
		return
	}
	core.JSON(w, http.StatusOK, user)
}

func (h *AdminHandler) delete(w http.ResponseWriter, r *http.Request) {
	if err := h.store.Delete(r.Context(), chi.URLParam(r, "email")); err != nil {
		core.JSONError(w, storeError(err))
		return
	}
	core.JSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

func (h *AdminHandler) disable(w http.ResponseWriter, r *http.Request) {
	h.setDisabled(w, r, true)
}

func (h *AdminHandler) enable(w http.ResponseWriter, r *http.Request) {
	h.setDisabled(w, r, false)
}

func (h *AdminHandler) setDisabled(w http.ResponseWriter, r *http.Request, disabled bool) {
	err := h.store.SetDisabled(r.Context(), chi.URLParam(r, "email"), disabled)
	if err != nil {
		h.flagError(w, err)
		return
	}
	core.JSON(w, http.StatusOK, map[string]bool{"disabled": disabled})
}

// verify marks the account's email address as confirmed, letting the user
// sign in. Sign-up leaves accounts unverified until an operator (or an
// out-of-band flow) flips this.
func (h *AdminHandler) verify(w http.ResponseWriter, r *http.Request) {
	err := h.store.SetEmailVerified(r.Context(), chi.URLParam(r, "email"), true)
	if err != nil {
		h.flagError(w, err)
		return
	}
	core.JSON(w, http.StatusOK, map[string]bool{"email_verified": true})
}

func (h *AdminHandler) enableTwoFactor(w http.ResponseWriter, r *http.Request) {
	h.setTwoFactor(w, r, true)
}

func (h *AdminHandler) disableTwoFactor(w http.ResponseWriter, r *http.Request) {
	h.setTwoFactor(w, r, false)
}

func (h *AdminHandler) setTwoFactor(w http.ResponseWriter, r *http.Request, enabled bool) {
	err := h.store.SetTwoFactorEnabled(r.Context(), chi.URLParam(r, "email"), enabled)
	if err != nil {
		h.flagError(w, err)
		return
	}
	core.JSON(w, http.StatusOK, map[string]bool{"two_factor_enabled": enabled})
}

func (h *AdminHandler) flagError(w http.ResponseWriter, err error) {
	if errors.Is(err, ErrUserNotFound) {
		core.JSONError(w, core.ErrNotFound)
		return
	}
	core.JSONError(w, err)
}

func queryInt(r *http.Request, name string, fallback int64) int64 {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return fallback
	}
	value, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || value < 0 {
		return fallback
	}
	return value
}
