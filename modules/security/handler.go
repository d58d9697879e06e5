package security

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/chatkitlabs/chatd/core"
	"github.com/chatkitlabs/chatd/pkg/jwt"
	"github.com/chatkitlabs/chatd/pkg/qrcode"
	"github.com/chatkitlabs/chatd/pkg/totp"
)

// Config holds the two-factor endpoint settings.
type Config struct {
	Issuer string `env:"TOTP_ISSUER" envDefault:"chatd"`
}

// Handler exposes one-time-password generation, verification, and
// enrollment over a shared TOTP service. Routes are expected to sit behind
// the admin-role JWT middleware.
type Handler struct {
	cfg  Config
	totp *totp.Service
}

// NewHandler creates the two-factor handler.
func NewHandler(cfg Config, totp *totp.Service) *Handler {
	return &Handler{cfg: cfg, totp: totp}
}

// Handle mounts the /security routes.
func (h *Handler) Handle() http.Handler {
	r := chi.NewRouter()
	r.Get("/2fa-now", h.now)
	r.Get("/2fa-at", h.at)
	r.Get("/2fa-verify", h.verify)
	r.Get("/2fa-enroll", h.enroll)
	return r
}

func (h *Handler) now(w http.ResponseWriter, r *http.Request) {
	code, err := h.totp.Now()
	if err != nil {
		core.JSONError(w, err)
		return
	}
	core.JSON(w, http.StatusOK, map[string]string{"code": code})
}

// at computes the code for an arbitrary Unix time, mirroring now.
func (h *Handler) at(w http.ResponseWriter, r *http.Request) {
	unix, err := strconv.ParseInt(r.URL.Query().Get("time"), 10, 64)
	if err != nil {
		core.JSONError(w, core.ErrBadRequest)
		return
	}

	code, err := h.totp.At(time.Unix(unix, 0))
	if err != nil {
		core.JSONError(w, err)
		return
	}
	core.JSON(w, http.StatusOK, map[string]any{"code": code, "time": unix})
}

func (h *Handler) verify(w http.ResponseWriter, r *http.Request) {
	code := r.URL.Query().Get("code")
	if code == "" {
		core.JSONError(w, core.ErrBadRequest)
		return
	}

	var opts []totp.VerifyOption
	if raw := r.URL.Query().Get("time"); raw != "" {
		unix, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			core.JSONError(w, core.ErrBadRequest)
			return
		}
		opts = append(opts, totp.VerifyAt(time.Unix(unix, 0)))
	}

	core.JSON(w, http.StatusOK, map[string]bool{"valid": h.totp.Verify(code, opts...)})
}

// enroll renders the provisioning URI as a QR code PNG for authenticator
// apps, labelled with the signed-in account.
func (h *Handler) enroll(w http.ResponseWriter, r *http.Request) {
	subject, ok := jwt.SubjectFromContext(r.Context())
	if !ok {
		core.JSONError(w, core.ErrUnauthorized)
		return
	}

	uri, err := h.totp.URI(subject, h.cfg.Issuer)
	if err != nil {
		core.JSONError(w, err)
		return
	}
	png, err := qrcode.Generate(uri, 0)
	if err != nil {
		core.JSONError(w, err)
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(png)
}
