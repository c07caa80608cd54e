package products

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"strings"

	"github.com/likering/backend/internal/models"
)

// ProductStore defines the interface for product persistence.
type ProductStore interface {
	Insert(ctx context.Context, p *models.Product) (string, error)
	List(ctx context.Context) ([]models.Product, error)
	ListByOwner(ctx context.Context, userID string) ([]models.Product, error)
}

// Handler holds product HTTP handlers.
type Handler struct {
	products ProductStore
}

func NewHandler(products ProductStore) *Handler {
	return &Handler{products: products}
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// List returns the catalog, optionally filtered to one user via ?usuario=.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	var (
		items []models.Product
		err   error
	)
	if usuario := r.URL.Query().Get("usuario"); usuario != "" {
		items, err = h.products.ListByOwner(r.Context(), usuario)
	} else {
		items, err = h.products.List(r.Context())
	}
	if err != nil {
		log.Printf("products: list error: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "database error"})
		return
	}
	if items == nil {
		items = []models.Product{}
	}
	writeJSON(w, http.StatusOK, items)
}

// Create publishes a new product.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var req models.CreateProductRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	req.Nombre = strings.TrimSpace(req.Nombre)
	if req.Nombre == "" || req.UserID == "" || req.Precio <= 0 {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "nombre, precio, and usuario are required"})
		return
	}

	p := &models.Product{
		UserID:      req.UserID,
		Nombre:      req.Nombre,
		Precio:      req.Precio,
		Descripcion: req.Descripcion,
		ImagenURL:   req.ImagenURL,
	}
	if _, err := h.products.Insert(r.Context(), p); err != nil {
		log.Printf("products: insert error: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to save product"})
		return
	}
	writeJSON(w, http.StatusCreated, p)
}
