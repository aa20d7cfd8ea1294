package payment

import (
	"context"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/example/mall-backoffice/internal/auth"
	"github.com/example/mall-backoffice/internal/domain/lease"
)

// Input carries the editable fields of a rent payment.
type Input struct {
	LeaseID   string     `json:"lease_id"`
	Amount    int        `json:"amount"`
	Month     int        `json:"month"`
	Year      int        `json:"year"`
	PaidAt    *time.Time `json:"paid_at"`
	Method    Method     `json:"method"`
	Status    Status     `json:"status"`
	Reference string     `json:"reference"`
}

func (in *Input) validate() error {
	switch {
	case in.LeaseID == "":
		return ErrLeaseRequired
	case in.Amount <= 0:
		return ErrInvalidAmount
	case !ValidPeriod(in.Month, in.Year):
		return ErrInvalidPeriod
	}
	if in.Method == "" {
		in.Method = MethodCash
	}
	if !in.Method.Valid() {
		return ErrInvalidMethod
	}
	if in.Status == "" {
		in.Status = StatusPaid
	}
	if !in.Status.Valid() {
		return ErrInvalidStatus
	}
	return nil
}

type LeaseReader interface {
	GetLease(ctx context.Context, id string) (*lease.Lease, error)
}

type Service struct {
	repo   Repository
	leases LeaseReader
	now    func() time.Time
}

func NewService(repo Repository, leases LeaseReader) *Service {
	return &Service{repo: repo, leases: leases, now: time.Now}
}

// Record stores a rent payment. The merchant is copied from the lease.
func (s *Service) Record(ctx context.Context, in Input) (*Payment, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}
	l, err := s.leases.GetLease(ctx, in.LeaseID)
	if err != nil {
		return nil, err
	}

	now := s.now()
	paidAt := now
	if in.PaidAt != nil {
		paidAt = *in.PaidAt
	}
	p := &Payment{
		ID:         uuid.New().String(),
		LeaseID:    l.ID,
		MerchantID: l.MerchantID,
		Amount:     in.Amount,
		Month:      in.Month,
		Year:       in.Year,
		PaidAt:     paidAt,
		Method:     in.Method,
		Status:     in.Status,
		Reference:  in.Reference,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := s.repo.CreatePayment(ctx, p); err != nil {
		return nil, err
	}
	log.Printf("[Payment] Recorded %s payment %s lease=%s period=%02d/%d amount=%d",
		p.Status, p.ID, p.LeaseID, p.Month, p.Year, p.Amount)
	return p, nil
}

// Get returns a payment visible to actor.
func (s *Service) Get(ctx context.Context, actor auth.Actor, id string) (*Payment, error) {
	p, err := s.repo.GetPayment(ctx, id)
	if err != nil {
		return nil, err
	}
	if actor.IsMerchant() && p.MerchantID != actor.UserID {
		return nil, ErrNotPayer
	}
	return p, nil
}

// List returns payments visible to actor. Merchants only see their own.
func (s *Service) List(ctx context.Context, actor auth.Actor, f Filter) ([]*Payment, error) {
	if actor.IsMerchant() {
		f.MerchantID = actor.UserID
	}
	return s.repo.ListPayments(ctx, f)
}

func (s *Service) Update(ctx context.Context, id string, in Input) (*Payment, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}
	p, err := s.repo.GetPayment(ctx, id)
	if err != nil {
		return nil, err
	}
	if in.LeaseID != p.LeaseID {
		l, err := s.leases.GetLease(ctx, in.LeaseID)
		if err != nil {
			return nil, err
		}
		p.LeaseID = l.ID
		p.MerchantID = l.MerchantID
	}
	p.Amount = in.Amount
	p.Month = in.Month
	p.Year = in.Year
	if in.PaidAt != nil {
		p.PaidAt = *in.PaidAt
	}
	p.Method = in.Method
	p.Status = in.Status
	p.Reference = in.Reference
	p.UpdatedAt = s.now()
	if err := s.repo.UpdatePayment(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

func (s *Service) Delete(ctx context.Context, id string) error {
	return s.repo.DeletePayment(ctx, id)
}
