package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/isdelr/ender-catalog-be/internal/services"
	"github.com/rs/zerolog/log"
)

// ProductHandler handles HTTP requests for product management.
type ProductHandler struct {
	service services.ProductServiceProvider
	respond *Responder
}

// NewProductHandler creates a new ProductHandler.
func NewProductHandler(service services.ProductServiceProvider, respond *Responder) *ProductHandler {
	return &ProductHandler{service: service, respond: respond}
}

// Create handles the creation of a new product owned by the caller.
func (h *ProductHandler) Create(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r, h.respond)
	if !ok {
		return
	}

	var payload services.ProductInput
	if err := decodeJSON(w, r, &payload); err != nil {
		h.respond.Error(w, r, err)
		return
	}

	product, err := h.service.Create(r.Context(), user, payload)
	if err != nil {
		h.respond.Error(w, r, err)
		return
	}

	log.Info().Str("product_id", product.ID).Str("owner_id", user.ID).Msg("Product created")
	h.respond.JSON(w, http.StatusCreated, map[string]any{
		"message": "Product created",
		"product": newProductView(product),
	})
}

// GetAll returns every product.
func (h *ProductHandler) GetAll(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r, h.respond)
	if !ok {
		return
	}

	products, err := h.service.List(r.Context(), user)
	if err != nil {
		h.respond.Error(w, r, err)
		return
	}
	h.respond.JSON(w, http.StatusOK, map[string]any{"products": newProductViews(products)})
}

// Update applies a partial update to a product owned by the caller.
func (h *ProductHandler) Update(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r, h.respond)
	if !ok {
		return
	}

	var payload services.ProductPatch
	if err := decodeJSON(w, r, &payload); err != nil {
		h.respond.Error(w, r, err)
		return
	}

	product, err := h.service.Update(r.Context(), user, chi.URLParam(r, "id"), payload)
	if err != nil {
		h.respond.Error(w, r, err)
		return
	}
	h.respond.JSON(w, http.StatusOK, map[string]any{
		"message": "Product updated",
		"product": newProductView(product),
	})
}

// Delete removes a product owned by the caller.
func (h *ProductHandler) Delete(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r, h.respond)
	if !ok {
		return
	}

	id := chi.URLParam(r, "id")
	if err := h.service.Delete(r.Context(), user, id); err != nil {
		h.respond.Error(w, r, err)
		return
	}

	log.Info().Str("product_id", id).Str("owner_id", user.ID).Msg("Product deleted")
	h.respond.JSON(w, http.StatusOK, map[string]string{"message": "Product deleted"})
}
