package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/example/mall-backoffice/internal/domain/zone"
)

func (h *Handlers) ListZones(w http.ResponseWriter, r *http.Request) {
	zones, err := h.zones.List(r.Context())
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, zones)
}

func (h *Handlers) GetZone(w http.ResponseWriter, r *http.Request) {
	z, err := h.zones.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, z)
}

func (h *Handlers) CreateZone(w http.ResponseWriter, r *http.Request) {
	var in zone.Input
	if err := decodeJSON(r, &in); err != nil {
		respondError(w, r, err)
		return
	}
	z, err := h.zones.Create(r.Context(), in)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, z)
}

func (h *Handlers) UpdateZone(w http.ResponseWriter, r *http.Request) {
	var in zone.Input
	if err := decodeJSON(r, &in); err != nil {
		respondError(w, r, err)
		return
	}
	z, err := h.zones.Update(r.Context(), chi.URLParam(r, "id"), in)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, z)
}

func (h *Handlers) DeleteZone(w http.ResponseWriter, r *http.Request) {
	if err := h.zones.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		respondError(w, r, err)
		return
	}
	respondMessage(w, "Zone deleted")
}
