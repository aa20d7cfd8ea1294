package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/example/mall-backoffice/internal/domain/lease"
	"github.com/example/mall-backoffice/internal/domain/payment"
)

// ============================================
// Leases
// ============================================

func (h *Handlers) ListLeases(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	f := lease.Filter{
		ShopID:     q.Get("shop"),
		MerchantID: q.Get("merchant"),
		Status:     lease.Status(q.Get("status")),
	}
	leases, err := h.leases.List(r.Context(), actorOf(r), f)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, leases)
}

func (h *Handlers) GetLease(w http.ResponseWriter, r *http.Request) {
	l, err := h.leases.Get(r.Context(), actorOf(r), chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, l)
}

func (h *Handlers) CreateLease(w http.ResponseWriter, r *http.Request) {
	var in lease.Input
	if err := decodeJSON(r, &in); err != nil {
		respondError(w, r, err)
		return
	}
	l, err := h.leases.Create(r.Context(), in)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, l)
}

func (h *Handlers) UpdateLease(w http.ResponseWriter, r *http.Request) {
	var in lease.Input
	if err := decodeJSON(r, &in); err != nil {
		respondError(w, r, err)
		return
	}
	l, err := h.leases.Update(r.Context(), chi.URLParam(r, "id"), in)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, l)
}

func (h *Handlers) DeleteLease(w http.ResponseWriter, r *http.Request) {
	if err := h.leases.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		respondError(w, r, err)
		return
	}
	respondMessage(w, "Lease deleted")
}

func (h *Handlers) UnpaidLeases(w http.ResponseWriter, r *http.Request) {
	unpaid, err := h.reports.UnpaidLeases(r.Context())
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, unpaid)
}

func (h *Handlers) MonthlyLeaseStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.reports.MonthlyLeaseStats(r.Context())
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, stats)
}

// ============================================
// Rent payments
// ============================================

func (h *Handlers) ListPayments(w http.ResponseWriter, r *http.Request) {
	f, err := paymentFilter(r)
	if err != nil {
		respondError(w, r, err)
		return
	}
	h.respondPayments(w, r, f)
}

// MerchantPayments lists the payments of one merchant.
func (h *Handlers) MerchantPayments(w http.ResponseWriter, r *http.Request) {
	f, err := paymentFilter(r)
	if err != nil {
		respondError(w, r, err)
		return
	}
	f.MerchantID = chi.URLParam(r, "id")
	h.respondPayments(w, r, f)
}

func (h *Handlers) respondPayments(w http.ResponseWriter, r *http.Request, f payment.Filter) {
	payments, err := h.payments.List(r.Context(), actorOf(r), f)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, payments)
}

func (h *Handlers) GetPayment(w http.ResponseWriter, r *http.Request) {
	p, err := h.payments.Get(r.Context(), actorOf(r), chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, p)
}

func (h *Handlers) RecordPayment(w http.ResponseWriter, r *http.Request) {
	var in payment.Input
	if err := decodeJSON(r, &in); err != nil {
		respondError(w, r, err)
		return
	}
	p, err := h.payments.Record(r.Context(), in)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, p)
}

func (h *Handlers) UpdatePayment(w http.ResponseWriter, r *http.Request) {
	var in payment.Input
	if err := decodeJSON(r, &in); err != nil {
		respondError(w, r, err)
		return
	}
	p, err := h.payments.Update(r.Context(), chi.URLParam(r, "id"), in)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, p)
}

func (h *Handlers) DeletePayment(w http.ResponseWriter, r *http.Request) {
	if err := h.payments.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		respondError(w, r, err)
		return
	}
	respondMessage(w, "Payment deleted")
}

func paymentFilter(r *http.Request) (payment.Filter, error) {
	q := r.URL.Query()
	f := payment.Filter{
		LeaseID:    q.Get("lease"),
		MerchantID: q.Get("merchant"),
		Status:     payment.Status(q.Get("status")),
	}
	var err error
	if f.Month, err = queryInt(r, "month", 0); err != nil {
		return f, err
	}
	if f.Year, err = queryInt(r, "year", 0); err != nil {
		return f, err
	}
	return f, nil
}
