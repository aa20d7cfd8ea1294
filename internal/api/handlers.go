package api

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/example/mall-backoffice/internal/api/middleware"
	"github.com/example/mall-backoffice/internal/apperr"
	"github.com/example/mall-backoffice/internal/auth"
	"github.com/example/mall-backoffice/internal/domain/cart"
	"github.com/example/mall-backoffice/internal/domain/employee"
	"github.com/example/mall-backoffice/internal/domain/lease"
	"github.com/example/mall-backoffice/internal/domain/order"
	"github.com/example/mall-backoffice/internal/domain/payment"
	"github.com/example/mall-backoffice/internal/domain/product"
	"github.com/example/mall-backoffice/internal/domain/shop"
	"github.com/example/mall-backoffice/internal/domain/user"
	"github.com/example/mall-backoffice/internal/domain/zone"
	"github.com/example/mall-backoffice/internal/events"
	"github.com/example/mall-backoffice/internal/reporting"
)

const dateLayout = "2006-01-02"

// EventHistory returns the archived events of one aggregate.
type EventHistory interface {
	History(ctx context.Context, aggregateID string) ([]events.Event, error)
}

// Handlers serves every resource except authentication.
type Handlers struct {
	users     *user.Service
	zones     *zone.Service
	shops     *shop.Service
	leases    *lease.Service
	payments  *payment.Service
	employees *employee.Service
	products  *product.Service
	carts     *cart.Service
	orders    *order.Service
	reports   *reporting.Service
	history   EventHistory
}

// Services groups the domain services the handlers call.
type Services struct {
	Users     *user.Service
	Zones     *zone.Service
	Shops     *shop.Service
	Leases    *lease.Service
	Payments  *payment.Service
	Employees *employee.Service
	Products  *product.Service
	Carts     *cart.Service
	Orders    *order.Service
	Reports   *reporting.Service
	// History is optional; the order events route is only mounted when set.
	History EventHistory
}

func NewHandlers(s Services) *Handlers {
	return &Handlers{
		users:     s.Users,
		zones:     s.Zones,
		shops:     s.Shops,
		leases:    s.Leases,
		payments:  s.Payments,
		employees: s.Employees,
		products:  s.Products,
		carts:     s.Carts,
		orders:    s.Orders,
		reports:   s.Reports,
		history:   s.History,
	}
}

// ============================================
// Response helpers
// ============================================

func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func respondJSONError(w http.ResponseWriter, message string, status int) {
	respondJSON(w, status, map[string]string{"error": message})
}

// respondError maps a service error to its status code. Internal failures
// are logged and hidden from the client.
func respondError(w http.ResponseWriter, r *http.Request, err error) {
	status := apperr.StatusOf(err)
	if status >= http.StatusInternalServerError {
		log.Printf("[API] %s %s: %v", r.Method, r.URL.Path, err)
	}
	respondJSONError(w, apperr.Message(err), status)
}

func respondMessage(w http.ResponseWriter, message string) {
	respondJSON(w, http.StatusOK, map[string]string{"message": message})
}

// ============================================
// Request helpers
// ============================================

var errInvalidBody = apperr.New(apperr.ErrValidation, "invalid request body")

func decodeJSON(r *http.Request, dst any) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return errInvalidBody
	}
	return nil
}

// actorOf returns the caller set by AuthMiddleware.
func actorOf(r *http.Request) auth.Actor {
	actor, _ := middleware.ActorFromContext(r.Context())
	return actor
}

func queryInt(r *http.Request, key string, def int) (int, error) {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, apperr.Newf(apperr.ErrValidation, "%s must be an integer", key)
	}
	return n, nil
}

func queryBool(r *http.Request, key string) (*bool, error) {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return nil, nil
	}
	b, err := strconv.ParseBool(raw)
	if err != nil {
		return nil, apperr.Newf(apperr.ErrValidation, "%s must be true or false", key)
	}
	return &b, nil
}

// queryRange parses from/to as dates. Both bounds are inclusive, so to is
// moved to the last instant of its day.
func queryRange(r *http.Request) (from, to time.Time, err error) {
	q := r.URL.Query()
	if raw := q.Get("from"); raw != "" {
		if from, err = time.Parse(dateLayout, raw); err != nil {
			return from, to, apperr.New(apperr.ErrValidation, "from must be YYYY-MM-DD")
		}
	}
	if raw := q.Get("to"); raw != "" {
		if to, err = time.Parse(dateLayout, raw); err != nil {
			return from, to, apperr.New(apperr.ErrValidation, "to must be YYYY-MM-DD")
		}
		to = to.Add(24*time.Hour - time.Nanosecond)
	}
	if !from.IsZero() && !to.IsZero() && to.Before(from) {
		return from, to, apperr.New(apperr.ErrValidation, "to must not be before from")
	}
	return from, to, nil
}

func pathInt(raw, name string) (int, error) {
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, apperr.Newf(apperr.ErrValidation, "%s must be an integer", name)
	}
	return n, nil
}
