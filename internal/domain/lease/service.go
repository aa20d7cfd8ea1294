package lease

import (
	"context"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/example/mall-backoffice/internal/auth"
	"github.com/example/mall-backoffice/internal/domain/shop"
	"github.com/example/mall-backoffice/internal/domain/user"
)

// Input carries the editable fields of a lease.
type Input struct {
	ShopID      string      `json:"shop_id"`
	MerchantID  string      `json:"merchant_id"`
	Amount      int         `json:"amount"`
	Periodicity Periodicity `json:"periodicity"`
	StartDate   time.Time   `json:"start_date"`
	EndDate     *time.Time  `json:"end_date"`
	Status      Status      `json:"status"`
}

func (in *Input) validate() error {
	switch {
	case in.ShopID == "":
		return ErrShopRequired
	case in.MerchantID == "":
		return ErrMerchantRequired
	case in.Amount <= 0:
		return ErrInvalidAmount
	}
	if in.Periodicity == "" {
		in.Periodicity = Monthly
	}
	if !in.Periodicity.Valid() {
		return ErrInvalidPeriodicity
	}
	if in.Status == "" {
		in.Status = StatusActive
	}
	if !in.Status.Valid() {
		return ErrInvalidStatus
	}
	if in.EndDate != nil && !in.StartDate.IsZero() && in.EndDate.Before(in.StartDate) {
		return ErrInvalidDates
	}
	return nil
}

type ShopReader interface {
	GetShop(ctx context.Context, id string) (*shop.Shop, error)
}

type UserReader interface {
	GetUser(ctx context.Context, id string) (*user.User, error)
}

type Service struct {
	repo  Repository
	shops ShopReader
	users UserReader
	now   func() time.Time
}

func NewService(repo Repository, shops ShopReader, users UserReader) *Service {
	return &Service{repo: repo, shops: shops, users: users, now: time.Now}
}

func (s *Service) Create(ctx context.Context, in Input) (*Lease, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}
	if err := s.checkParties(ctx, in.ShopID, in.MerchantID); err != nil {
		return nil, err
	}

	now := s.now()
	if in.StartDate.IsZero() {
		in.StartDate = now
	}
	l := &Lease{
		ID:          uuid.New().String(),
		ShopID:      in.ShopID,
		MerchantID:  in.MerchantID,
		Amount:      in.Amount,
		Periodicity: in.Periodicity,
		StartDate:   in.StartDate,
		EndDate:     in.EndDate,
		Status:      in.Status,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.repo.CreateLease(ctx, l); err != nil {
		return nil, err
	}
	log.Printf("[Lease] Created lease %s shop=%s merchant=%s amount=%d", l.ID, l.ShopID, l.MerchantID, l.Amount)
	return l, nil
}

// Get returns a lease visible to actor, expiring it first if needed.
func (s *Service) Get(ctx context.Context, actor auth.Actor, id string) (*Lease, error) {
	l, err := s.repo.GetLease(ctx, id)
	if err != nil {
		return nil, err
	}
	if actor.IsMerchant() && l.MerchantID != actor.UserID {
		return nil, ErrNotLeaseHolder
	}
	if err := s.refresh(ctx, l); err != nil {
		return nil, err
	}
	return l, nil
}

// List returns leases visible to actor. Merchants only see their own.
func (s *Service) List(ctx context.Context, actor auth.Actor, f Filter) ([]*Lease, error) {
	if actor.IsMerchant() {
		f.MerchantID = actor.UserID
	}
	leases, err := s.repo.ListLeases(ctx, f)
	if err != nil {
		return nil, err
	}
	for _, l := range leases {
		if err := s.refresh(ctx, l); err != nil {
			return nil, err
		}
	}
	return leases, nil
}

func (s *Service) Update(ctx context.Context, id string, in Input) (*Lease, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}
	l, err := s.repo.GetLease(ctx, id)
	if err != nil {
		return nil, err
	}
	if in.ShopID != l.ShopID || in.MerchantID != l.MerchantID {
		if err := s.checkParties(ctx, in.ShopID, in.MerchantID); err != nil {
			return nil, err
		}
	}
	l.ShopID = in.ShopID
	l.MerchantID = in.MerchantID
	l.Amount = in.Amount
	l.Periodicity = in.Periodicity
	if !in.StartDate.IsZero() {
		l.StartDate = in.StartDate
	}
	l.EndDate = in.EndDate
	l.Status = in.Status
	l.UpdatedAt = s.now()
	if err := s.repo.UpdateLease(ctx, l); err != nil {
		return nil, err
	}
	return l, nil
}

func (s *Service) Delete(ctx context.Context, id string) error {
	return s.repo.DeleteLease(ctx, id)
}

func (s *Service) refresh(ctx context.Context, l *Lease) error {
	if !l.RefreshStatus(s.now()) {
		return nil
	}
	l.UpdatedAt = s.now()
	log.Printf("[Lease] Lease %s expired", l.ID)
	return s.repo.UpdateLease(ctx, l)
}

func (s *Service) checkParties(ctx context.Context, shopID, merchantID string) error {
	if _, err := s.shops.GetShop(ctx, shopID); err != nil {
		return err
	}
	u, err := s.users.GetUser(ctx, merchantID)
	if err != nil {
		return err
	}
	if u.Role != auth.RoleMerchant {
		return ErrNotMerchant
	}
	return nil
}
