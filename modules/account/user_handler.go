package account

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/chatkitlabs/chatd/core"
	"github.com/chatkitlabs/chatd/pkg/auth"
	"github.com/chatkitlabs/chatd/pkg/jwt"
)

// maxPictureBytes caps profile picture uploads.
const maxPictureBytes = 5 << 20

// ProfileStore defines the storage operations the self-service endpoints
// need. *Store satisfies it.
type ProfileStore interface {
	FindByEmail(ctx context.Context, email string) (*User, error)
	Update(ctx context.Context, email string, patch Patch) error
	AddAddress(ctx context.Context, email string, addr Address) error
	UpdateAddress(ctx context.Context, email string, index int, addr Address) error
	SavePicture(ctx context.Context, email, contentType string, data []byte) error
	FindPicture(ctx context.Context, email string) (*Picture, error)
}

// UserHandler exposes the authenticated self-service endpoints. All routes
// assume the JWT middleware has placed the subject in the context.
type UserHandler struct {
	store ProfileStore
	flow  *auth.Service
}

// NewUserHandler creates the self-service user handler.
func NewUserHandler(store ProfileStore, flow *auth.Service) *UserHandler {
	return &UserHandler{store: store, flow: flow}
}

// Handle mounts the /users routes.
func (h *UserHandler) Handle() http.Handler {
	r := chi.NewRouter()
	r.Get("/me", h.me)
	r.Patch("/me", h.update)
	r.Post("/me/password", h.changePassword)
	r.Post("/me/addresses", h.addAddress)
	r.Put("/me/addresses/{index}", h.updateAddress)
	r.Post("/me/picture", h.uploadPicture)
	r.Get("/me/picture", h.picture)
	return r
}

func (h *UserHandler) me(w http.ResponseWriter, r *http.Request) {
	subject, ok := jwt.SubjectFromContext(r.Context())
	if !ok {
		core.JSONError(w, core.ErrUnauthorized)
		return
	}
	user, err := h.store.FindByEmail(r.Context(), subject)
	if err != nil {
		core.JSONError(w, storeError(err))
		return
	}
	core.JSON(w, http.StatusOK, user)
}

func (h *UserHandler) update(w http.ResponseWriter, r *http.Request) {
	subject, ok := jwt.SubjectFromContext(r.Context())
	if !ok {
		core.JSONError(w, core.ErrUnauthorized)
		return
	}

	var patch Patch
	if err := core.DecodeJSON(r, &patch); err != nil {
		core.JSONError(w, err)
		return
	}
	if err := h.store.Update(r.Context(), subject, patch); err != nil {
		if errors.Is(err, ErrNothingToUpdate) {
			core.JSONError(w, core.ErrUnprocessableEntity)
			return
		}
		core.JSONError(w, storeError(err))
		return
	}

	user, err := h.store.FindByEmail(r.Context(), subject)
	if err != nil {
		core.JSONError(w, storeError(err))
		return
	}
	core.JSON(w, http.StatusOK, user)
}

type changePasswordRequest struct {
	Current     string `json:"current_password"`
	Replacement string `json:"new_password"`
}

func (h *UserHandler) changePassword(w http.ResponseWriter, r *http.Request) {
	subject, ok := jwt.SubjectFromContext(r.Context())
	if !ok {
		core.JSONError(w, core.ErrUnauthorized)
		return
	}

	var req changePasswordRequest
	if err := core.DecodeJSON(r, &req); err != nil {
		core.JSONError(w, err)
		return
	}

	err := h.flow.ChangePassword(r.Context(), subject, req.Current, req.Replacement)
	switch {
	case err == nil:
		core.JSON(w, http.StatusOK, map[string]string{"status": "password_changed"})
	case errors.Is(err, auth.ErrWeakPassword):
		core.JSONError(w, core.ErrUnprocessableEntity)
	case errors.Is(err, auth.ErrInvalidCredentials):
		core.JSONError(w, core.ErrForbidden)
	default:
		core.JSONError(w, err)
	}
}

func (h *UserHandler) addAddress(w http.ResponseWriter, r *http.Request) {
	subject, ok := jwt.SubjectFromContext(r.Context())
	if !ok {
		core.JSONError(w, core.ErrUnauthorized)
		return
	}

	var addr Address
	if err := core.DecodeJSON(r, &addr); err != nil {
		core.JSONError(w, err)
		return
	}
	if err := h.store.AddAddress(r.Context(), subject, addr); err != nil {
		core.JSONError(w, storeError(err))
		return
	}
	core.JSON(w, http.StatusCreated, addr)
}

func (h *UserHandler) updateAddress(w http.ResponseWriter, r *http.Request) {
	subject, ok := jwt.SubjectFromContext(r.Context())
	if !ok {
		core.JSONError(w, core.ErrUnauthorized)
		return
	}

	index, err := strconv.Atoi(chi.URLParam(r, "index"))
	if err != nil {
		core.JSONError(w, core.ErrBadRequest)
		return
	}

	var addr Address
	if err := core.DecodeJSON(r, &addr); err != nil {
		core.JSONError(w, err)
		return
	}
	if err := h.store.UpdateAddress(r.Context(), subject, index, addr); err != nil {
		if errors.Is(err, ErrAddressIndex) {
			core.JSONError(w, core.ErrNotFound)
			return
		}
		core.JSONError(w, storeError(err))
		return
	}
	core.JSON(w, http.StatusOK, addr)
}

func (h *UserHandler) uploadPicture(w http.ResponseWriter, r *http.Request) {
	subject, ok := jwt.SubjectFromContext(r.Context())
	if !ok {
		core.JSONError(w, core.ErrUnauthorized)
		return
	}

	data, err := io.ReadAll(io.LimitReader(r.Body, maxPictureBytes+1))
	if err != nil {
		core.JSONError(w, core.ErrBadRequest)
		return
	}
	if len(data) == 0 || len(data) > maxPictureBytes {
		core.JSONError(w, core.ErrUnprocessableEntity)
		return
	}

	contentType := r.Header.Get("Content-Type")
	if contentType == "" {
		contentType = http.DetectContentType(data)
	}
	if err := h.store.SavePicture(r.Context(), subject, contentType, data); err != nil {
		core.JSONError(w, err)
		return
	}
	core.JSON(w, http.StatusCreated, map[string]string{"status": "picture_saved"})
}

func (h *UserHandler) picture(w http.ResponseWriter, r *http.Request) {
	subject, ok := jwt.SubjectFromContext(r.Context())
	if !ok {
		core.JSONError(w, core.ErrUnauthorized)
		return
	}

	pic, err := h.store.FindPicture(r.Context(), subject)
	if err != nil {
		if errors.Is(err, ErrPictureNotFound) {
			core.JSONError(w, core.ErrNotFound)
			return
		}
		core.JSONError(w, err)
		return
	}

	w.Header().Set("Content-Type", pic.ContentType)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(pic.Data)
}

func storeError(err error) error {
	if errors.Is(err, ErrUserNotFound) {
		return core.ErrNotFound
	}
	return err
}
