package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/example/mall-backoffice/internal/projection"
)

func (h *Handlers) DashboardStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.reports.DashboardStats(r.Context())
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, stats)
}

func (h *Handlers) YearlyRevenue(w http.ResponseWriter, r *http.Request) {
	year, err := pathInt(chi.URLParam(r, "year"), "year")
	if err != nil {
		respondError(w, r, err)
		return
	}

	revenue, err := h.reports.YearlyRevenue(r.Context(), year)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, revenue)
}

// Sales reads the daily sales projection fed by the projector.
func (h *Handlers) Sales(w http.ResponseWriter, r *http.Request) {
	from, to, err := queryRange(r)
	if err != nil {
		respondError(w, r, err)
		return
	}

	report, err := h.reports.Sales(r.Context(), projection.SalesFilter{
		ShopID: r.URL.Query().Get("shop"),
		From:   from,
		To:     to,
	})
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, report)
}
