package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/example/mall-backoffice/internal/domain/order"
	"github.com/example/mall-backoffice/internal/domain/product"
	"github.com/example/mall-backoffice/internal/domain/shop"
)

func (h *Handlers) ListShops(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	active, err := queryBool(r, "active")
	if err != nil {
		respondError(w, r, err)
		return
	}
	f := shop.Filter{
		ZoneID:   q.Get("zone"),
		Status:   shop.Status(q.Get("status")),
		Category: shop.Category(q.Get("category")),
		Active:   active,
	}

	shops, err := h.shops.List(r.Context(), f)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, shops)
}

func (h *Handlers) GetShop(w http.ResponseWriter, r *http.Request) {
	sh, err := h.shops.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, sh)
}

func (h *Handlers) ShopStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.shops.Stats(r.Context())
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, stats)
}

func (h *Handlers) CreateShop(w http.ResponseWriter, r *http.Request) {
	var in shop.Input
	if err := decodeJSON(r, &in); err != nil {
		respondError(w, r, err)
		return
	}
	sh, err := h.shops.Create(r.Context(), in)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, sh)
}

func (h *Handlers) UpdateShop(w http.ResponseWriter, r *http.Request) {
	var in shop.Input
	if err := decodeJSON(r, &in); err != nil {
		respondError(w, r, err)
		return
	}
	sh, err := h.shops.Update(r.Context(), chi.URLParam(r, "id"), in)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, sh)
}

func (h *Handlers) DeleteShop(w http.ResponseWriter, r *http.Request) {
	if err := h.shops.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		respondError(w, r, err)
		return
	}
	respondMessage(w, "Shop deleted")
}

// ShopProducts lists the active catalog of one shop.
func (h *Handlers) ShopProducts(w http.ResponseWriter, r *http.Request) {
	shopID := chi.URLParam(r, "id")
	if _, err := h.shops.Get(r.Context(), shopID); err != nil {
		respondError(w, r, err)
		return
	}
	page, limit, err := pagination(r)
	if err != nil {
		respondError(w, r, err)
		return
	}

	active := true
	result, err := h.products.List(r.Context(), product.Filter{ShopID: shopID, Active: &active}, page, limit)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, result)
}

// ShopOrders lists the orders of a shop for its merchant or an admin.
func (h *Handlers) ShopOrders(w http.ResponseWriter, r *http.Request) {
	f, err := orderFilter(r)
	if err != nil {
		respondError(w, r, err)
		return
	}

	views, err := h.orders.ListByShop(r.Context(), actorOf(r), chi.URLParam(r, "id"), f)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, views)
}

func (h *Handlers) ShopHistory(w http.ResponseWriter, r *http.Request) {
	history, err := h.reports.ShopHistory(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, history)
}

func (h *Handlers) ShopPayments(w http.ResponseWriter, r *http.Request) {
	payments, err := h.reports.ShopPayments(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, payments)
}

func (h *Handlers) ShopOccupants(w http.ResponseWriter, r *http.Request) {
	occupants, err := h.reports.ShopOccupants(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, occupants)
}

// orderFilter reads the status, from and to query parameters.
func orderFilter(r *http.Request) (order.Filter, error) {
	var f order.Filter
	if raw := r.URL.Query().Get("status"); raw != "" {
		st, err := order.ParseStatus(raw)
		if err != nil {
			return f, err
		}
		f.Status = st
	}
	from, to, err := queryRange(r)
	if err != nil {
		return f, err
	}
	f.From, f.To = from, to
	return f, nil
}

func pagination(r *http.Request) (page, limit int, err error) {
	if page, err = queryInt(r, "page", 1); err != nil {
		return 0, 0, err
	}
	if limit, err = queryInt(r, "limit", 0); err != nil {
		return 0, 0, err
	}
	return page, limit, nil
}
