package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/example/mall-backoffice/internal/domain/order"
)

// PlaceOrderRequest is the checkout body. Both spellings of the payment mode
// key are accepted.
type PlaceOrderRequest struct {
	PaymentMode      string `json:"payment_mode"`
	PaymentModeCamel string `json:"paymentMode"`
	Notes            string `json:"notes"`
}

func (req PlaceOrderRequest) mode() string {
	if req.PaymentMode != "" {
		return req.PaymentMode
	}
	return req.PaymentModeCamel
}

// StatusRequest carries the new status under status or its legacy key statut.
type StatusRequest struct {
	Status string `json:"status"`
	Statut string `json:"statut"`
}

func (req StatusRequest) value() string {
	if req.Status != "" {
		return req.Status
	}
	return req.Statut
}

// PlaceOrder turns the caller's cart into one order per shop.
func (h *Handlers) PlaceOrder(w http.ResponseWriter, r *http.Request) {
	var req PlaceOrderRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, r, err)
		return
	}
	mode, err := order.ParsePaymentMode(req.mode())
	if err != nil {
		respondError(w, r, err)
		return
	}

	views, err := h.orders.PlaceOrder(r.Context(), actorOf(r).UserID, mode, req.Notes)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, views)
}

func (h *Handlers) MyOrders(w http.ResponseWriter, r *http.Request) {
	var status order.Status
	if raw := r.URL.Query().Get("status"); raw != "" {
		st, err := order.ParseStatus(raw)
		if err != nil {
			respondError(w, r, err)
			return
		}
		status = st
	}

	views, err := h.orders.ListMine(r.Context(), actorOf(r).UserID, status)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, views)
}

// ListOrders pages through every order.
func (h *Handlers) ListOrders(w http.ResponseWriter, r *http.Request) {
	f, err := orderFilter(r)
	if err != nil {
		respondError(w, r, err)
		return
	}
	f.ShopID = r.URL.Query().Get("shop")
	f.ClientID = r.URL.Query().Get("client")
	page, limit, err := pagination(r)
	if err != nil {
		respondError(w, r, err)
		return
	}

	result, err := h.orders.List(r.Context(), f, page, limit)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, result)
}

func (h *Handlers) GetOrder(w http.ResponseWriter, r *http.Request) {
	view, err := h.orders.Get(r.Context(), actorOf(r), chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, view)
}

func (h *Handlers) ChangeOrderStatus(w http.ResponseWriter, r *http.Request) {
	var req StatusRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, r, err)
		return
	}
	status, err := order.ParseStatus(req.value())
	if err != nil {
		respondError(w, r, err)
		return
	}

	view, err := h.orders.ChangeStatus(r.Context(), actorOf(r), chi.URLParam(r, "id"), status)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, view)
}

func (h *Handlers) MarkOrderPaid(w http.ResponseWriter, r *http.Request) {
	view, err := h.orders.MarkPaid(r.Context(), actorOf(r), chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, view)
}

// OrderEvents returns the archived event history of an order.
func (h *Handlers) OrderEvents(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if _, err := h.orders.Get(r.Context(), actorOf(r), id); err != nil {
		respondError(w, r, err)
		return
	}

	history, err := h.history.History(r.Context(), id)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, history)
}
