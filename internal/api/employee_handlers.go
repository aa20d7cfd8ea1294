package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/example/mall-backoffice/internal/domain/employee"
)

func (h *Handlers) ListEmployees(w http.ResponseWriter, r *http.Request) {
	active, err := queryBool(r, "active")
	if err != nil {
		respondError(w, r, err)
		return
	}
	f := employee.Filter{Position: employee.Position(r.URL.Query().Get("position")), Active: active}

	employees, err := h.employees.List(r.Context(), f)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, employees)
}

func (h *Handlers) GetEmployee(w http.ResponseWriter, r *http.Request) {
	e, err := h.employees.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, e)
}

func (h *Handlers) CreateEmployee(w http.ResponseWriter, r *http.Request) {
	var in employee.Input
	if err := decodeJSON(r, &in); err != nil {
		respondError(w, r, err)
		return
	}
	e, err := h.employees.Create(r.Context(), in)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, e)
}

func (h *Handlers) UpdateEmployee(w http.ResponseWriter, r *http.Request) {
	var in employee.Input
	if err := decodeJSON(r, &in); err != nil {
		respondError(w, r, err)
		return
	}
	e, err := h.employees.Update(r.Context(), chi.URLParam(r, "id"), in)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, e)
}

func (h *Handlers) DeleteEmployee(w http.ResponseWriter, r *http.Request) {
	if err := h.employees.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		respondError(w, r, err)
		return
	}
	respondMessage(w, "Employee deleted")
}

func (h *Handlers) PaySalary(w http.ResponseWriter, r *http.Request) {
	var in employee.SalaryInput
	if err := decodeJSON(r, &in); err != nil {
		respondError(w, r, err)
		return
	}
	p, err := h.employees.PaySalary(r.Context(), chi.URLParam(r, "id"), in)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, p)
}

func (h *Handlers) SalaryHistory(w http.ResponseWriter, r *http.Request) {
	history, err := h.employees.SalaryHistory(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, history)
}

// SalaryStats defaults to the current month.
func (h *Handlers) SalaryStats(w http.ResponseWriter, r *http.Request) {
	now := time.Now()
	month, err := queryInt(r, "month", int(now.Month()))
	if err != nil {
		respondError(w, r, err)
		return
	}
	year, err := queryInt(r, "year", now.Year())
	if err != nil {
		respondError(w, r, err)
		return
	}

	stats, err := h.employees.SalaryStats(r.Context(), month, year)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, stats)
}
