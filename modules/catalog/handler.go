package catalog

import (
	"context"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/v2/bson"

	"github.com/chatkitlabs/chatd/core"
)

// ProductStore defines the storage operations the catalog endpoints need.
// *Store satisfies it.
type ProductStore interface {
	List(ctx context.Context, limit, offset int64) ([]Product, error)
	Get(ctx context.Context, id bson.ObjectID) (*Product, error)
	Create(ctx context.Context, product *Product) error
	Update(ctx context.Context, id bson.ObjectID, name string, quantity int64) error
	Delete(ctx context.Context, id bson.ObjectID) error
}

// Handler exposes product CRUD.
type Handler struct {
	store ProductStore
}

// NewHandler creates the catalog handler.
func NewHandler(store ProductStore) *Handler {
	return &Handler{store: store}
}

// Handle mounts the /products routes.
func (h *Handler) Handle() http.Handler {
	r := chi.NewRouter()
	r.Get("/", h.list)
	r.Post("/", h.create)
	r.Get("/{id}", h.get)
	r.Put("/{id}", h.update)
	r.Delete("/{id}", h.delete)
	return r
}

type productRequest struct {
	Name     string `json:"name"`
	Quantity int64  `json:"quantity"`
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	products, err := h.store.List(r.Context(), 100, 0)
	if err != nil {
		core.JSONError(w, err)
		return
	}
	if products == nil {
		products = []Product{}
	}
	core.JSON(w, http.StatusOK, products)
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	var req productRequest
	if err := core.DecodeJSON(r, &req); err != nil {
		core.JSONError(w, err)
		return
	}
	if req.Name == "" || req.Quantity < 0 {
		core.JSONError(w, core.ErrUnprocessableEntity)
		return
	}

	product := &Product{Name: req.Name, Quantity: req.Quantity}
	if err := h.store.Create(r.Context(), product); err != nil {
		core.JSONError(w, err)
		return
	}
	core.JSON(w, http.StatusCreated, product)
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	id, err := bson.ObjectIDFromHex(chi.URLParam(r, "id"))
	if err != nil {
		core.JSONError(w, core.ErrBadRequest)
		return
	}

	product, err := h.store.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, ErrProductNotFound) {
			core.JSONError(w, core.ErrNotFound)
			return
		}
		core.JSONError(w, err)
		return
	}
	core.JSON(w, http.StatusOK, product)
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	id, err := bson.ObjectIDFromHex(chi.URLParam(r, "id"))
	if err != nil {
		core.JSONError(w, core.ErrBadRequest)
		return
	}

	var req productRequest
	if err := core.DecodeJSON(r, &req); err != nil {
		core.JSONError(w, err)
		return
	}
	if req.Name == "" || req.Quantity < 0 {
		core.JSONError(w, core.ErrUnprocessableEntity)
		return
	}

	if err := h.store.Update(r.Context(), id, req.Name, req.Quantity); err != nil {
		if errors.Is(err, ErrProductNotFound) {
			core.JSONError(w, core.ErrNotFound)
			return
		}
		core.JSONError(w, err)
		return
	}
	core.JSON(w, http.StatusOK, map[string]string{"status": "updated"})
}

func (h *Handler) delete(w http.ResponseWriter, r *http.Request) {
	id, err := bson.ObjectIDFromHex(chi.URLParam(r, "id"))
	if err != nil {
		core.JSONError(w, core.ErrBadRequest)
		return
	}

	if err := h.store.Delete(r.Context(), id); err != nil {
		if errors.Is(err, ErrProductNotFound) {
			core.JSONError(w, core.ErrNotFound)
			return
		}
		core.JSONError(w, err)
		return
	}
	core.JSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}
