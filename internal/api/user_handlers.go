package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/example/mall-backoffice/internal/auth"
	"github.com/example/mall-backoffice/internal/domain/user"
)

// Users (admin)

func (h *Handlers) ListUsers(w http.ResponseWriter, r *http.Request) {
	f := user.Filter{Role: auth.Role(r.URL.Query().Get("role"))}
	users, err := h.users.List(r.Context(), f)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, users)
}

func (h *Handlers) ListMerchants(w http.ResponseWriter, r *http.Request) {
	users, err := h.users.List(r.Context(), user.Filter{Role: auth.RoleMerchant})
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, users)
}

func (h *Handlers) CreateUser(w http.ResponseWriter, r *http.Request) {
	var in user.CreateInput
	if err := decodeJSON(r, &in); err != nil {
		respondError(w, r, err)
		return
	}
	u, err := h.users.Create(r.Context(), in)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, u)
}

func (h *Handlers) GetUser(w http.ResponseWriter, r *http.Request) {
	u, err := h.users.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, u)
}

func (h *Handlers) UpdateUser(w http.ResponseWriter, r *http.Request) {
	var in user.UpdateInput
	if err := decodeJSON(r, &in); err != nil {
		respondError(w, r, err)
		return
	}
	u, err := h.users.Update(r.Context(), chi.URLParam(r, "id"), in)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, u)
}

func (h *Handlers) DeleteUser(w http.ResponseWriter, r *http.Request) {
	if err := h.users.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		respondError(w, r, err)
		return
	}
	respondMessage(w, "User deleted")
}

// AssignShop gives a shop to a merchant and marks it occupied.
func (h *Handlers) AssignShop(w http.ResponseWriter, r *http.Request) {
	sh, err := h.shops.AssignMerchant(r.Context(), chi.URLParam(r, "shopID"), chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, sh)
}
