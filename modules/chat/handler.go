package chat

import (
	"context"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/chatkitlabs/chatd/core"
	"github.com/chatkitlabs/chatd/pkg/jwt"
)

// MessageStore defines the storage operations the chat endpoints need.
// *Store satisfies it.
type MessageStore interface {
	ListContacts(ctx context.Context, owner string) (*Contacts, error)
	AddFriend(ctx context.Context, owner string, friend Contact) error
	RemoveFriend(ctx context.Context, owner, friendEmail string) error
	SetConversation(ctx context.Context, owner, friendEmail string, open bool) error
	SaveMessage(ctx context.Context, msg *Message) error
	Undelivered(ctx context.Context, receiver string) ([]Message, error)
	MarkDelivered(ctx context.Context, receiver string) (int64, error)
}

// PresenceStore records chat presence on the account document. The account
// module's store satisfies it.
type PresenceStore interface {
	SetOnline(ctx context.Context, email string, online bool) error
}

// Handler exposes the contact-list and messaging endpoints. All routes
// assume the JWT middleware has placed the subject in the context.
type Handler struct {
	store    MessageStore
	presence PresenceStore
}

// NewHandler creates the chat handler.
func NewHandler(store MessageStore, presence PresenceStore) *Handler {
	return &Handler{store: store, presence: presence}
}

// Handle mounts the /chat routes.
func (h *Handler) Handle() http.Handler {
	r := chi.NewRouter()
	r.Get("/contacts", h.listContacts)
	r.Post("/contacts", h.addFriend)
	r.Delete("/contacts/{email}", h.removeFriend)
	r.Post("/contacts/{email}/conversation", h.setConversation)
	r.Post("/presence", h.setPresence)
	r.Post("/messages", h.sendMessage)
	r.Get("/messages/undelivered", h.undelivered)
	r.Post("/messages/delivered", h.markDelivered)
	return r
}

func (h *Handler) listContacts(w http.ResponseWriter, r *http.Request) {
	owner, ok := jwt.SubjectFromContext(r.Context())
	if !ok {
		core.JSONError(w, core.ErrUnauthorized)
		return
	}
	contacts, err := h.store.ListContacts(r.Context(), owner)
	if err != nil {
		core.JSONError(w, err)
		return
	}
	core.JSON(w, http.StatusOK, contacts)
}

func (h *Handler) addFriend(w http.ResponseWriter, r *http.Request) {
	owner, ok := jwt.SubjectFromContext(r.Context())
	if !ok {
		core.JSONError(w, core.ErrUnauthorized)
		return
	}

	var friend Contact
	if err := core.DecodeJSON(r, &friend); err != nil {
		core.JSONError(w, err)
		return
	}
	if friend.Email == "" {
		core.JSONError(w, core.ErrUnprocessableEntity)
		return
	}

	if err := h.store.AddFriend(r.Context(), owner, friend); err != nil {
		core.JSONError(w, err)
		return
	}
	core.JSON(w, http.StatusCreated, friend)
}

func (h *Handler) removeFriend(w http.ResponseWriter, r *http.Request) {
	owner, ok := jwt.SubjectFromContext(r.Context())
	if !ok {
		core.JSONError(w, core.ErrUnauthorized)
		return
	}

	err := h.store.RemoveFriend(r.Context(), owner, chi.URLParam(r, "email"))
	if err != nil {
		if errors.Is(err, ErrContactsNotFound) || errors.Is(err, ErrFriendNotFound) {
			core.JSONError(w, core.ErrNotFound)
			return
		}
		core.JSONError(w, err)
		return
	}
	core.JSON(w, http.StatusOK, map[string]string{"status": "removed"})
}

type conversationRequest struct {
	Open bool `json:"open"`
}

func (h *Handler) setConversation(w http.ResponseWriter, r *http.Request) {
	owner, ok := jwt.SubjectFromContext(r.Context())
	if !ok {
		core.JSONError(w, core.ErrUnauthorized)
		return
	}

	var req conversationRequest
	if err := core.DecodeJSON(r, &req); err != nil {
		core.JSONError(w, err)
		return
	}

	err := h.store.SetConversation(r.Context(), owner, chi.URLParam(r, "email"), req.Open)
	if err != nil {
		if errors.Is(err, ErrFriendNotFound) {
			core.JSONError(w, core.ErrNotFound)
			return
		}
		core.JSONError(w, err)
		return
	}
	core.JSON(w, http.StatusOK, map[string]bool{"open": req.Open})
}

type presenceRequest struct {
	Online bool `json:"online"`
}

func (h *Handler) setPresence(w http.ResponseWriter, r *http.Request) {
	owner, ok := jwt.SubjectFromContext(r.Context())
	if !ok {
		core.JSONError(w, core.ErrUnauthorized)
		return
	}

	var req presenceRequest
	if err := core.DecodeJSON(r, &req); err != nil {
		core.JSONError(w, err)
		return
	}
	if err := h.presence.SetOnline(r.Context(), owner, req.Online); err != nil {
		core.JSONError(w, err)
		return
	}
	core.JSON(w, http.StatusOK, map[string]bool{"online": req.Online})
}

type sendMessageRequest struct {
	Receiver string `json:"receiver"`
	Body     string `json:"body"`
}

func (h *Handler) sendMessage(w http.ResponseWriter, r *http.Request) {
	sender, ok := jwt.SubjectFromContext(r.Context())
	if !ok {
		core.JSONError(w, core.ErrUnauthorized)
		return
	}

	var req sendMessageRequest
	if err := core.DecodeJSON(r, &req); err != nil {
		core.JSONError(w, err)
		return
	}
	if req.Receiver == "" || req.Body == "" {
		core.JSONError(w, core.ErrUnprocessableEntity)
		return
	}

	msg := &Message{Sender: sender, Receiver: req.Receiver, Body: req.Body}
	if err := h.store.SaveMessage(r.Context(), msg); err != nil {
		if errors.Is(err, ErrEmptyMessage) {
			core.JSONError(w, core.ErrUnprocessableEntity)
			return
		}
		core.JSONError(w, err)
		return
	}
	core.JSON(w, http.StatusCreated, msg)
}

func (h *Handler) undelivered(w http.ResponseWriter, r *http.Request) {
	receiver, ok := jwt.SubjectFromContext(r.Context())
	if !ok {
		core.JSONError(w, core.ErrUnauthorized)
		return
	}

	messages, err := h.store.Undelivered(r.Context(), receiver)
	if err != nil {
		core.JSONError(w, err)
		return
	}
	if messages == nil {
		messages = []Message{}
	}
	core.JSON(w, http.StatusOK, messages)
}

func (h *Handler) markDelivered(w http.ResponseWriter, r *http.Request) {
	receiver, ok := jwt.SubjectFromContext(r.Context())
	if !ok {
		core.JSONError(w, core.ErrUnauthorized)
		return
	}

	count, err := h.store.MarkDelivered(r.Context(), receiver)
	if err != nil {
		core.JSONError(w, err)
		return
	}
	core.JSON(w, http.StatusOK, map[string]int64{"delivered": count})
}
