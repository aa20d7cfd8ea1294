package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/example/mall-backoffice/internal/domain/product"
)

func (h *Handlers) ListProducts(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	active, err := queryBool(r, "active")
	if err != nil {
		respondError(w, r, err)
		return
	}
	page, limit, err := pagination(r)
	if err != nil {
		respondError(w, r, err)
		return
	}
	f := product.Filter{
		ShopID:   q.Get("shop"),
		Category: product.Category(q.Get("category")),
		Active:   active,
		Search:   q.Get("search"),
	}

	result, err := h.products.List(r.Context(), f, page, limit)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, result)
}

func (h *Handlers) GetProduct(w http.ResponseWriter, r *http.Request) {
	p, err := h.products.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, p)
}

func (h *Handlers) CreateProduct(w http.ResponseWriter, r *http.Request) {
	var in product.Input
	if err := decodeJSON(r, &in); err != nil {
		respondError(w, r, err)
		return
	}
	p, err := h.products.Create(r.Context(), actorOf(r), in)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, p)
}

func (h *Handlers) UpdateProduct(w http.ResponseWriter, r *http.Request) {
	var in product.Input
	if err := decodeJSON(r, &in); err != nil {
		respondError(w, r, err)
		return
	}
	p, err := h.products.Update(r.Context(), actorOf(r), chi.URLParam(r, "id"), in)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, p)
}

func (h *Handlers) DeleteProduct(w http.ResponseWriter, r *http.Request) {
	if err := h.products.Delete(r.Context(), actorOf(r), chi.URLParam(r, "id")); err != nil {
		respondError(w, r, err)
		return
	}
	respondMessage(w, "Product deleted")
}

func (h *Handlers) ToggleProduct(w http.ResponseWriter, r *http.Request) {
	p, err := h.products.ToggleActive(r.Context(), actorOf(r), chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, p)
}

func (h *Handlers) SetProductStock(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Stock *int `json:"stock"`
	}
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, r, err)
		return
	}
	if req.Stock == nil {
		respondJSONError(w, "stock is required", http.StatusBadRequest)
		return
	}

	p, err := h.products.SetStock(r.Context(), actorOf(r), chi.URLParam(r, "id"), *req.Stock)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, p)
}
