// Package reporting computes the back-office dashboards from leases, rent
// payments, payroll and the sales projection.
package reporting

import (
	"context"
	"errors"
	"log"
	"math"
	"sort"
	"time"

	"github.com/example/mall-backoffice/internal/apperr"
	"github.com/example/mall-backoffice/internal/auth"
	"github.com/example/mall-backoffice/internal/domain/employee"
	"github.com/example/mall-backoffice/internal/domain/lease"
	"github.com/example/mall-backoffice/internal/domain/payment"
	"github.com/example/mall-backoffice/internal/domain/shop"
	"github.com/example/mall-backoffice/internal/domain/user"
	"github.com/example/mall-backoffice/internal/projection"
)

var ErrInvalidYear = apperr.New(apperr.ErrValidation, "year must be between 2000 and 9999")

// Source is the read side the reports are computed from.
type Source interface {
	GetUser(ctx context.Context, id string) (*user.User, error)
	ListUsers(ctx context.Context, f user.Filter) ([]*user.User, error)
	GetShop(ctx context.Context, id string) (*shop.Shop, error)
	ListShops(ctx context.Context, f shop.Filter) ([]*shop.Shop, error)
	ListLeases(ctx context.Context, f lease.Filter) ([]*lease.Lease, error)
	ListPayments(ctx context.Context, f payment.Filter) ([]*payment.Payment, error)
	ListSalaryPayments(ctx context.Context, f employee.SalaryFilter) ([]*employee.SalaryPayment, error)
	ListSales(ctx context.Context, f projection.SalesFilter) ([]projection.DailySales, error)
}

type Service struct {
	src Source
	now func() time.Time
}

func NewService(src Source) *Service {
	return &Service{src: src, now: time.Now}
}

// MerchantRef is the public part of a merchant shown in reports.
type MerchantRef struct {
	ID        string `json:"id"`
	LastName  string `json:"last_name,omitempty"`
	FirstName string `json:"first_name,omitempty"`
	Email     string `json:"email,omitempty"`
	Phone     string `json:"phone,omitempty"`
}

// ============================================
// Dashboard
// ============================================

type Arrear struct {
	Lease      *lease.Lease `json:"lease"`
	Shop       *shop.Shop   `json:"shop,omitempty"`
	Merchant   MerchantRef  `json:"merchant"`
	MonthsLate int          `json:"months_late"`
	AmountDue  int          `json:"amount_due"`
}

type LeaseSummary struct {
	MonthlyTotal int      `json:"monthly_total"`
	PaidMonth    int      `json:"paid_month"`
	ArrearsTotal int      `json:"arrears_total"`
	Arrears      []Arrear `json:"arrears"`
	ArrearsCount int      `json:"arrears_count"`
}

type UserCounts struct {
	Clients   int `json:"clients"`
	Merchants int `json:"merchants"`
}

type MonthAmount struct {
	Month  int `json:"month"`
	Amount int `json:"amount"`
}

type RevenueSummary struct {
	Yearly  int           `json:"yearly"`
	Monthly []MonthAmount `json:"monthly"`
}

type Dashboard struct {
	Shops   shop.Stats     `json:"shops"`
	Leases  LeaseSummary   `json:"leases"`
	Users   UserCounts     `json:"users"`
	Revenue RevenueSummary `json:"revenue"`
}

// DashboardStats summarizes occupancy, rent collection and revenue for the
// current month and year.
func (s *Service) DashboardStats(ctx context.Context) (*Dashboard, error) {
	now := s.now()
	month, year := int(now.Month()), now.Year()

	shops, err := s.src.ListShops(ctx, shop.Filter{})
	if err != nil {
		return nil, err
	}
	d := &Dashboard{Shops: shop.Count(shops)}

	leases, err := s.activeLeases(ctx, now)
	if err != nil {
		return nil, err
	}
	d.Leases.Arrears = []Arrear{}
	for _, l := range leases {
		d.Leases.MonthlyTotal += l.Amount
		payments, err := s.src.ListPayments(ctx, payment.Filter{LeaseID: l.ID})
		if err != nil {
			return nil, err
		}

		unpaid := 0
		for _, p := range payments {
			if p.Status == payment.StatusUnpaid {
				unpaid++
			}
		}
		if unpaid > 0 {
			a := Arrear{Lease: l, MonthsLate: unpaid, AmountDue: unpaid * l.Amount}
			if a.Shop, err = s.optionalShop(ctx, l.ShopID); err != nil {
				return nil, err
			}
			if a.Merchant, err = s.merchant(ctx, l.MerchantID); err != nil {
				return nil, err
			}
			d.Leases.Arrears = append(d.Leases.Arrears, a)
			d.Leases.ArrearsTotal += a.AmountDue
			continue
		}
		for _, p := range payments {
			if p.Month == month && p.Year == year && p.Status == payment.StatusPaid {
				d.Leases.PaidMonth += p.Amount
			}
		}
	}
	d.Leases.ArrearsCount = len(d.Leases.Arrears)

	users, err := s.src.ListUsers(ctx, user.Filter{})
	if err != nil {
		return nil, err
	}
	for _, u := range users {
		switch u.Role {
		case auth.RoleClient:
			d.Users.Clients++
		case auth.RoleMerchant:
			d.Users.Merchants++
		}
	}

	payments, err := s.src.ListPayments(ctx, payment.Filter{Year: year})
	if err != nil {
		return nil, err
	}
	byMonth := sumByMonth(payments, func(p *payment.Payment) (int, int) { return p.Month, p.Amount })
	d.Revenue.Monthly = make([]MonthAmount, 12)
	for m := 1; m <= 12; m++ {
		d.Revenue.Monthly[m-1] = MonthAmount{Month: m, Amount: byMonth[m]}
		d.Revenue.Yearly += byMonth[m]
	}
	return d, nil
}

// ============================================
// Revenue
// ============================================

type MonthRevenue struct {
	Month    int `json:"month"`
	Income   int `json:"income"`
	Expenses int `json:"expenses"`
	Profit   int `json:"profit"`
}

type YearlyRevenue struct {
	Year   int            `json:"year"`
	Profit int            `json:"profit"`
	Months []MonthRevenue `json:"months"`
}

// YearlyRevenue compares rent income with salary expenses month by month.
func (s *Service) YearlyRevenue(ctx context.Context, year int) (*YearlyRevenue, error) {
	if year == 0 {
		year = s.now().Year()
	}
	if year < 2000 || year > 9999 {
		return nil, ErrInvalidYear
	}

	rents, err := s.src.ListPayments(ctx, payment.Filter{Year: year})
	if err != nil {
		return nil, err
	}
	salaries, err := s.src.ListSalaryPayments(ctx, employee.SalaryFilter{Year: year})
	if err != nil {
		return nil, err
	}
	income := sumByMonth(rents, func(p *payment.Payment) (int, int) { return p.Month, p.Amount })
	expenses := sumByMonth(salaries, func(p *employee.SalaryPayment) (int, int) { return p.Month, p.Amount })

	r := &YearlyRevenue{Year: year, Months: make([]MonthRevenue, 12)}
	for m := 1; m <= 12; m++ {
		mr := MonthRevenue{Month: m, Income: income[m], Expenses: expenses[m]}
		mr.Profit = mr.Income - mr.Expenses
		r.Months[m-1] = mr
		r.Profit += mr.Profit
	}
	return r, nil
}

func sumByMonth[T any](items []T, get func(T) (month, amount int)) map[int]int {
	out := make(map[int]int, 12)
	for _, it := range items {
		m, amount := get(it)
		out[m] += amount
	}
	return out
}

// ============================================
// Rent collection
// ============================================

type UnpaidLease struct {
	Lease    *lease.Lease `json:"lease"`
	Shop     *shop.Shop   `json:"shop,omitempty"`
	Merchant MerchantRef  `json:"merchant"`
	Month    int          `json:"month"`
	Year     int          `json:"year"`
}

// UnpaidLeases lists active leases with no payment recorded for the current
// month.
func (s *Service) UnpaidLeases(ctx context.Context) ([]UnpaidLease, error) {
	now := s.now()
	month, year := int(now.Month()), now.Year()
	leases, err := s.activeLeases(ctx, now)
	if err != nil {
		return nil, err
	}

	out := []UnpaidLease{}
	for _, l := range leases {
		payments, err := s.src.ListPayments(ctx, payment.Filter{LeaseID: l.ID, Month: month, Year: year})
		if err != nil {
			return nil, err
		}
		if len(payments) > 0 {
			continue
		}
		u := UnpaidLease{Lease: l, Month: month, Year: year}
		if u.Shop, err = s.optionalShop(ctx, l.ShopID); err != nil {
			return nil, err
		}
		if u.Merchant, err = s.merchant(ctx, l.MerchantID); err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	return out, nil
}

type LeaseMonth struct {
	Month  int `json:"month"`
	Year   int `json:"year"`
	Total  int `json:"total"`
	Paid   int `json:"paid"`
	Unpaid int `json:"unpaid"`
}

// MonthlyLeaseStats compares the rent due this month with what was recorded.
func (s *Service) MonthlyLeaseStats(ctx context.Context) (LeaseMonth, error) {
	now := s.now()
	st := LeaseMonth{Month: int(now.Month()), Year: now.Year()}
	leases, err := s.activeLeases(ctx, now)
	if err != nil {
		return st, err
	}
	for _, l := range leases {
		st.Total += l.Amount
		payments, err := s.src.ListPayments(ctx, payment.Filter{LeaseID: l.ID, Month: st.Month, Year: st.Year})
		if err != nil {
			return st, err
		}
		if len(payments) == 0 {
			st.Unpaid += l.Amount
			continue
		}
		st.Paid += payments[0].Amount
	}
	return st, nil
}

// ============================================
// Shop history
// ============================================

type Occupant struct {
	Merchant    MerchantRef       `json:"merchant"`
	StartDate   time.Time         `json:"start_date"`
	EndDate     *time.Time        `json:"end_date,omitempty"`
	Amount      int               `json:"amount"`
	Periodicity lease.Periodicity `json:"periodicity"`
	Status      lease.Status      `json:"status"`
	Months      *int              `json:"months,omitempty"`
	Ongoing     bool              `json:"ongoing"`
}

type HistoryStats struct {
	TotalPaid      int     `json:"total_paid"`
	PaymentCount   int     `json:"payment_count"`
	AveragePayment float64 `json:"average_payment"`
	OccupantCount  int     `json:"occupant_count"`
}

type ShopHistory struct {
	Shop        *shop.Shop         `json:"shop"`
	CurrentRent *int               `json:"current_rent"`
	Leases      []*lease.Lease     `json:"leases"`
	Payments    []*payment.Payment `json:"payments"`
	Occupants   []Occupant         `json:"occupants"`
	Stats       HistoryStats       `json:"stats"`
}

// ShopHistory gathers every lease and payment of a shop and the distinct
// merchants who occupied it, most recent first.
func (s *Service) ShopHistory(ctx context.Context, shopID string) (*ShopHistory, error) {
	sh, err := s.src.GetShop(ctx, shopID)
	if err != nil {
		return nil, err
	}
	leases, err := s.src.ListLeases(ctx, lease.Filter{ShopID: shopID})
	if err != nil {
		return nil, err
	}
	payments, err := s.paymentsFor(ctx, leases)
	if err != nil {
		return nil, err
	}

	h := &ShopHistory{Shop: sh, Leases: leases, Payments: payments, Occupants: []Occupant{}}
	if sh.Status == shop.StatusOccupied {
		for _, l := range leases {
			if l.Status == lease.StatusActive {
				amount := l.Amount
				h.CurrentRent = &amount
				break
			}
		}
	}

	seen := make(map[string]bool)
	for _, l := range leases {
		if seen[l.MerchantID] {
			continue
		}
		seen[l.MerchantID] = true
		o, err := s.occupant(ctx, l)
		if err != nil {
			return nil, err
		}
		h.Occupants = append(h.Occupants, o)
	}

	for _, p := range payments {
		h.Stats.TotalPaid += p.Amount
	}
	h.Stats.PaymentCount = len(payments)
	if h.Stats.PaymentCount > 0 {
		h.Stats.AveragePayment = float64(h.Stats.TotalPaid) / float64(h.Stats.PaymentCount)
	}
	h.Stats.OccupantCount = len(h.Occupants)
	return h, nil
}

// ShopPayments lists the rent payments of every lease of a shop, latest
// period first.
func (s *Service) ShopPayments(ctx context.Context, shopID string) ([]*payment.Payment, error) {
	if _, err := s.src.GetShop(ctx, shopID); err != nil {
		return nil, err
	}
	leases, err := s.src.ListLeases(ctx, lease.Filter{ShopID: shopID})
	if err != nil {
		return nil, err
	}
	return s.paymentsFor(ctx, leases)
}

// ShopOccupants lists one entry per lease of a shop, latest start first.
func (s *Service) ShopOccupants(ctx context.Context, shopID string) ([]Occupant, error) {
	if _, err := s.src.GetShop(ctx, shopID); err != nil {
		return nil, err
	}
	leases, err := s.src.ListLeases(ctx, lease.Filter{ShopID: shopID})
	if err != nil {
		return nil, err
	}
	out := make([]Occupant, 0, len(leases))
	for _, l := range leases {
		o, err := s.occupant(ctx, l)
		if err != nil {
			return nil, err
		}
		out = append(out, o)
	}
	return out, nil
}

func (s *Service) occupant(ctx context.Context, l *lease.Lease) (Occupant, error) {
	m, err := s.merchant(ctx, l.MerchantID)
	if err != nil {
		return Occupant{}, err
	}
	o := Occupant{
		Merchant:    m,
		StartDate:   l.StartDate,
		EndDate:     l.EndDate,
		Amount:      l.Amount,
		Periodicity: l.Periodicity,
		Status:      l.Status,
		Ongoing:     l.EndDate == nil,
	}
	if l.EndDate != nil {
		months := leaseMonths(l.StartDate, *l.EndDate)
		o.Months = &months
	}
	return o, nil
}

// leaseMonths counts started 30-day periods between start and end.
func leaseMonths(start, end time.Time) int {
	days := end.Sub(start).Hours() / 24
	return int(math.Ceil(days / 30))
}

func (s *Service) paymentsFor(ctx context.Context, leases []*lease.Lease) ([]*payment.Payment, error) {
	out := []*payment.Payment{}
	for _, l := range leases {
		payments, err := s.src.ListPayments(ctx, payment.Filter{LeaseID: l.ID})
		if err != nil {
			return nil, err
		}
		out = append(out, payments...)
	}
	sortPayments(out)
	return out, nil
}

// ============================================
// Sales
// ============================================

type SalesReport struct {
	Days        []projection.DailySales `json:"days"`
	Orders      int                     `json:"orders"`
	Revenue     int                     `json:"revenue"`
	PaidRevenue int                     `json:"paid_revenue"`
}

// Sales reads the per-shop daily sales projection and totals it.
func (s *Service) Sales(ctx context.Context, f projection.SalesFilter) (*SalesReport, error) {
	if !f.From.IsZero() && !f.To.IsZero() && f.To.Before(f.From) {
		return nil, apperr.New(apperr.ErrValidation, "to must not be before from")
	}
	days, err := s.src.ListSales(ctx, f)
	if err != nil {
		return nil, err
	}
	r := &SalesReport{Days: days}
	if r.Days == nil {
		r.Days = []projection.DailySales{}
	}
	for _, d := range days {
		r.Orders += d.Orders
		r.Revenue += d.Revenue
		r.PaidRevenue += d.PaidRevenue
	}
	return r, nil
}

// ============================================
// Helpers
// ============================================

// activeLeases returns leases that are active as of now. Leases whose end
// date passed are left out even if their stored status was not refreshed.
func (s *Service) activeLeases(ctx context.Context, now time.Time) ([]*lease.Lease, error) {
	leases, err := s.src.ListLeases(ctx, lease.Filter{Status: lease.StatusActive})
	if err != nil {
		return nil, err
	}
	out := leases[:0]
	for _, l := range leases {
		if !l.RefreshStatus(now) {
			out = append(out, l)
		}
	}
	return out, nil
}

func (s *Service) optionalShop(ctx context.Context, id string) (*shop.Shop, error) {
	sh, err := s.src.GetShop(ctx, id)
	if errors.Is(err, apperr.ErrNotFound) {
		return nil, nil
	}
	return sh, err
}

func (s *Service) merchant(ctx context.Context, id string) (MerchantRef, error) {
	u, err := s.src.GetUser(ctx, id)
	if errors.Is(err, apperr.ErrNotFound) {
		log.Printf("[Reporting] Merchant %s no longer exists", id)
		return MerchantRef{ID: id}, nil
	}
	if err != nil {
		return MerchantRef{}, err
	}
	return MerchantRef{ID: u.ID, LastName: u.LastName, FirstName: u.FirstName, Email: u.Email, Phone: u.Phone}, nil
}

func sortPayments(ps []*payment.Payment) {
	sort.SliceStable(ps, func(i, j int) bool {
		if ps[i].Year != ps[j].Year {
			return ps[i].Year > ps[j].Year
		}
		return ps[i].Month > ps[j].Month
	})
}
