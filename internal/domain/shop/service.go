package shop

import (
	"context"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/example/mall-backoffice/internal/auth"
	"github.com/example/mall-backoffice/internal/domain/user"
	"github.com/example/mall-backoffice/internal/domain/zone"
)

// Input carries the editable fields of a shop.
type Input struct {
	Number      string   `json:"number"`
	Name        string   `json:"name"`
	Category    Category `json:"category"`
	Area        float64  `json:"area"`
	ZoneID      string   `json:"zone_id"`
	Status      Status   `json:"status"`
	MerchantID  string   `json:"merchant_id"`
	Description string   `json:"description"`
	Phone       string   `json:"phone"`
	Email       string   `json:"email"`
	Active      *bool    `json:"active"`
}

func (in *Input) validate() error {
	switch {
	case in.Number == "":
		return ErrInvalidNumber
	case in.Name == "":
		return ErrInvalidName
	case !in.Category.Valid():
		return ErrInvalidCategory
	case in.Area <= 0:
		return ErrInvalidArea
	case in.ZoneID == "":
		return ErrZoneRequired
	}
	if in.Status == "" {
		in.Status = StatusFree
		if in.MerchantID != "" {
			in.Status = StatusOccupied
		}
	}
	if !in.Status.Valid() {
		return ErrInvalidStatus
	}
	return nil
}

type ZoneReader interface {
	GetZone(ctx context.Context, id string) (*zone.Zone, error)
}

type UserReader interface {
	GetUser(ctx context.Context, id string) (*user.User, error)
}

type Service struct {
	repo  Repository
	zones ZoneReader
	users UserReader
}

func NewService(repo Repository, zones ZoneReader, users UserReader) *Service {
	return &Service{repo: repo, zones: zones, users: users}
}

func (s *Service) Create(ctx context.Context, in Input) (*Shop, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}
	if _, err := s.zones.GetZone(ctx, in.ZoneID); err != nil {
		return nil, err
	}
	if in.MerchantID != "" {
		if err := s.checkMerchant(ctx, in.MerchantID); err != nil {
			return nil, err
		}
	}

	now := time.Now()
	sh := &Shop{
		ID:          uuid.New().String(),
		Number:      in.Number,
		Name:        in.Name,
		Category:    in.Category,
		Area:        in.Area,
		ZoneID:      in.ZoneID,
		Status:      in.Status,
		MerchantID:  in.MerchantID,
		Description: in.Description,
		Phone:       in.Phone,
		Email:       in.Email,
		Active:      in.Active == nil || *in.Active,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.repo.CreateShop(ctx, sh); err != nil {
		return nil, err
	}
	log.Printf("[Shop] Created shop %s number=%s zone=%s", sh.ID, sh.Number, sh.ZoneID)
	return sh, nil
}

func (s *Service) Get(ctx context.Context, id string) (*Shop, error) {
	return s.repo.GetShop(ctx, id)
}

func (s *Service) List(ctx context.Context, f Filter) ([]*Shop, error) {
	return s.repo.ListShops(ctx, f)
}

func (s *Service) Update(ctx context.Context, id string, in Input) (*Shop, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}
	sh, err := s.repo.GetShop(ctx, id)
	if err != nil {
		return nil, err
	}
	if in.ZoneID != sh.ZoneID {
		if _, err := s.zones.GetZone(ctx, in.ZoneID); err != nil {
			return nil, err
		}
	}
	if in.MerchantID != "" && in.MerchantID != sh.MerchantID {
		if err := s.checkMerchant(ctx, in.MerchantID); err != nil {
			return nil, err
		}
	}

	sh.Number = in.Number
	sh.Name = in.Name
	sh.Category = in.Category
	sh.Area = in.Area
	sh.ZoneID = in.ZoneID
	sh.Status = in.Status
	sh.MerchantID = in.MerchantID
	sh.Description = in.Description
	sh.Phone = in.Phone
	sh.Email = in.Email
	if in.Active != nil {
		sh.Active = *in.Active
	}
	sh.UpdatedAt = time.Now()

	if err := s.repo.UpdateShop(ctx, sh); err != nil {
		return nil, err
	}
	return sh, nil
}

func (s *Service) Delete(ctx context.Context, id string) error {
	return s.repo.DeleteShop(ctx, id)
}

// AssignMerchant hands the shop to a merchant and marks it occupied.
func (s *Service) AssignMerchant(ctx context.Context, shopID, merchantID string) (*Shop, error) {
	if err := s.checkMerchant(ctx, merchantID); err != nil {
		return nil, err
	}
	sh, err := s.repo.GetShop(ctx, shopID)
	if err != nil {
		return nil, err
	}
	sh.MerchantID = merchantID
	sh.Status = StatusOccupied
	sh.UpdatedAt = time.Now()
	if err := s.repo.UpdateShop(ctx, sh); err != nil {
		return nil, err
	}
	log.Printf("[Shop] Assigned shop %s to merchant %s", sh.ID, merchantID)
	return sh, nil
}

// Stats counts all shops by activity and occupancy.
func (s *Service) Stats(ctx context.Context) (Stats, error) {
	shops, err := s.repo.ListShops(ctx, Filter{})
	if err != nil {
		return Stats{}, err
	}
	return Count(shops), nil
}

// Count summarizes a set of shops.
func Count(shops []*Shop) Stats {
	st := Stats{Total: len(shops)}
	for _, sh := range shops {
		if sh.Active {
			st.Active++
		}
		if sh.Status == StatusOccupied {
			st.Occupied++
		}
	}
	st.Free = st.Total - st.Occupied
	return st
}

// Authorize checks that actor may manage the shop's catalog and orders.
func Authorize(actor auth.Actor, sh *Shop) error {
	if actor.IsAdmin() || (actor.IsMerchant() && sh.OwnedBy(actor.UserID)) {
		return nil
	}
	return ErrNotShopOwner
}

func (s *Service) checkMerchant(ctx context.Context, merchantID string) error {
	u, err := s.users.GetUser(ctx, merchantID)
	if err != nil {
		return err
	}
	if u.Role != auth.RoleMerchant {
		return ErrNotMerchant
	}
	return nil
}
