package lease

import (
	"context"
	"time"

	"github.com/example/mall-backoffice/internal/apperr"
)

var (
	ErrLeaseNotFound      = apperr.New(apperr.ErrNotFound, "lease not found")
	ErrInvalidAmount      = apperr.New(apperr.ErrValidation, "lease amount must be positive")
	ErrInvalidPeriodicity = apperr.New(apperr.ErrValidation, "periodicity must be monthly, quarterly or yearly")
	ErrInvalidStatus      = apperr.New(apperr.ErrValidation, "lease status must be active, expired or terminated")
	ErrInvalidDates       = apperr.New(apperr.ErrValidation, "lease end date must be after its start date")
	ErrShopRequired       = apperr.New(apperr.ErrValidation, "shop is required")
	ErrMerchantRequired   = apperr.New(apperr.ErrValidation, "merchant is required")
	ErrNotMerchant        = apperr.New(apperr.ErrValidation, "lease holder must be a merchant")
	ErrNotLeaseHolder     = apperr.New(apperr.ErrForbidden, "lease belongs to another merchant")
)

type Periodicity string

const (
	Monthly   Periodicity = "monthly"
	Quarterly Periodicity = "quarterly"
	Yearly    Periodicity = "yearly"
)

func (p Periodicity) Valid() bool {
	return p == Monthly || p == Quarterly || p == Yearly
}

type Status string

const (
	StatusActive     Status = "active"
	StatusExpired    Status = "expired"
	StatusTerminated Status = "terminated"
)

func (s Status) Valid() bool {
	return s == StatusActive || s == StatusExpired || s == StatusTerminated
}

// Lease binds a merchant to a shop for a rent amount.
type Lease struct {
	ID          string      `json:"id"`
	ShopID      string      `json:"shop_id"`
	MerchantID  string      `json:"merchant_id"`
	Amount      int         `json:"amount"`
	Periodicity Periodicity `json:"periodicity"`
	StartDate   time.Time   `json:"start_date"`
	EndDate     *time.Time  `json:"end_date,omitempty"`
	Status      Status      `json:"status"`
	CreatedAt   time.Time   `json:"created_at"`
	UpdatedAt   time.Time   `json:"updated_at"`
}

// RefreshStatus marks an active lease whose end date has passed as expired.
// It reports whether the status changed.
func (l *Lease) RefreshStatus(now time.Time) bool {
	if l.Status == StatusActive && l.EndDate != nil && l.EndDate.Before(now) {
		l.Status = StatusExpired
		return true
	}
	return false
}

// Filter narrows ListLeases. Zero values match everything.
type Filter struct {
	ShopID     string
	MerchantID string
	Status     Status
}

type Repository interface {
	CreateLease(ctx context.Context, l *Lease) error
	GetLease(ctx context.Context, id string) (*Lease, error)
	ListLeases(ctx context.Context, f Filter) ([]*Lease, error)
	UpdateLease(ctx context.Context, l *Lease) error
	DeleteLease(ctx context.Context, id string) error
}
