package payment

import (
	"context"
	"time"

	"github.com/example/mall-backoffice/internal/apperr"
)

var (
	ErrPaymentNotFound = apperr.New(apperr.ErrNotFound, "payment not found")
	ErrDuplicate       = apperr.New(apperr.ErrDuplicate, "a payment already exists for this lease and period")
	ErrInvalidAmount   = apperr.New(apperr.ErrValidation, "payment amount must be positive")
	ErrInvalidPeriod   = apperr.New(apperr.ErrValidation, "month must be 1-12 and year must be set")
	ErrInvalidMethod   = apperr.New(apperr.ErrValidation, "method must be cash, card, transfer or cheque")
	ErrInvalidStatus   = apperr.New(apperr.ErrValidation, "status must be paid, unpaid or partial")
	ErrLeaseRequired   = apperr.New(apperr.ErrValidation, "lease is required")
	ErrNotPayer        = apperr.New(apperr.ErrForbidden, "payment belongs to another merchant")
)

type Method string

const (
	MethodCash     Method = "cash"
	MethodCard     Method = "card"
	MethodTransfer Method = "transfer"
	MethodCheque   Method = "cheque"
)

func (m Method) Valid() bool {
	switch m {
	case MethodCash, MethodCard, MethodTransfer, MethodCheque:
		return true
	}
	return false
}

type Status string

const (
	StatusPaid    Status = "paid"
	StatusUnpaid  Status = "unpaid"
	StatusPartial Status = "partial"
)

func (s Status) Valid() bool {
	return s == StatusPaid || s == StatusUnpaid || s == StatusPartial
}

// Payment is one rent installment for a lease. There is at most one per
// (lease, month, year).
type Payment struct {
	ID         string    `json:"id"`
	LeaseID    string    `json:"lease_id"`
	MerchantID string    `json:"merchant_id"`
	Amount     int       `json:"amount"`
	Month      int       `json:"month"`
	Year       int       `json:"year"`
	PaidAt     time.Time `json:"paid_at"`
	Method     Method    `json:"method"`
	Status     Status    `json:"status"`
	Reference  string    `json:"reference,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// Filter narrows ListPayments. Zero values match everything.
type Filter struct {
	LeaseID    string
	MerchantID string
	Month      int
	Year       int
	Status     Status
}

type Repository interface {
	CreatePayment(ctx context.Context, p *Payment) error
	GetPayment(ctx context.Context, id string) (*Payment, error)
	ListPayments(ctx context.Context, f Filter) ([]*Payment, error)
	UpdatePayment(ctx context.Context, p *Payment) error
	DeletePayment(ctx context.Context, id string) error
}

// ValidPeriod reports whether month and year name a calendar month.
func ValidPeriod(month, year int) bool {
	return month >= 1 && month <= 12 && year >= 2000 && year <= 9999
}
