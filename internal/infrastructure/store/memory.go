package store

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"

	"github.com/example/mall-backoffice/internal/apperr"
	"github.com/example/mall-backoffice/internal/domain/cart"
	"github.com/example/mall-backoffice/internal/domain/employee"
	"github.com/example/mall-backoffice/internal/domain/lease"
	"github.com/example/mall-backoffice/internal/domain/order"
	"github.com/example/mall-backoffice/internal/domain/payment"
	"github.com/example/mall-backoffice/internal/domain/product"
	"github.com/example/mall-backoffice/internal/domain/shop"
	"github.com/example/mall-backoffice/internal/domain/user"
	"github.com/example/mall-backoffice/internal/domain/zone"
	"github.com/example/mall-backoffice/internal/projection"
)

type salesKey struct {
	shopID string
	day    int64
}

// Memory keeps every collection in process memory. It is used when no
// database is configured and in tests. Values are copied on the way in and
// out, so callers never share state with the store.
type Memory struct {
	mu sync.RWMutex

	users     map[string]*user.User
	zones     map[string]*zone.Zone
	shops     map[string]*shop.Shop
	leases    map[string]*lease.Lease
	payments  map[string]*payment.Payment
	employees map[string]*employee.Employee
	salaries  map[string]*employee.SalaryPayment
	products  map[string]*product.Product
	carts     map[string]*cart.Cart // by client
	orders    map[string]*order.Order
	orderSeq  map[string]int
	sales     map[salesKey]*projection.DailySales
	processed map[string]bool
}

func NewMemory() *Memory {
	return &Memory{
		users:     make(map[string]*user.User),
		zones:     make(map[string]*zone.Zone),
		shops:     make(map[string]*shop.Shop),
		leases:    make(map[string]*lease.Lease),
		payments:  make(map[string]*payment.Payment),
		employees: make(map[string]*employee.Employee),
		salaries:  make(map[string]*employee.SalaryPayment),
		products:  make(map[string]*product.Product),
		carts:     make(map[string]*cart.Cart),
		orders:    make(map[string]*order.Order),
		orderSeq:  make(map[string]int),
		sales:     make(map[salesKey]*projection.DailySales),
		processed: make(map[string]bool),
	}
}

// ctxErr maps a finished context to the error a driver would return.
func ctxErr(op string, err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return apperr.Timeout(op)
	}
	return apperr.Storage(op, err)
}

// collect copies the values of m that pass keep, ordered by less.
func collect[T any](m map[string]*T, clone func(*T) *T, keep func(*T) bool, less func(a, b *T) bool) []*T {
	out := make([]*T, 0, len(m))
	for _, v := range m {
		if keep == nil || keep(v) {
			out = append(out, clone(v))
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return less(out[i], out[j]) })
	return out
}

// ============================================
// Users
// ============================================

func cloneUser(u *user.User) *user.User {
	c := *u
	return &c
}

func (m *Memory) emailTaken(email, exceptID string) bool {
	for _, u := range m.users {
		if u.ID != exceptID && strings.EqualFold(u.Email, email) {
			return true
		}
	}
	return false
}

func (m *Memory) CreateUser(ctx context.Context, u *user.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.emailTaken(u.Email, "") {
		return user.ErrEmailTaken
	}
	m.users[u.ID] = cloneUser(u)
	return nil
}

func (m *Memory) GetUser(ctx context.Context, id string) (*user.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	u, ok := m.users[id]
	if !ok {
		return nil, user.ErrUserNotFound
	}
	return cloneUser(u), nil
}

func (m *Memory) GetUserByEmail(ctx context.Context, email string) (*user.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, u := range m.users {
		if strings.EqualFold(u.Email, email) {
			return cloneUser(u), nil
		}
	}
	return nil, user.ErrUserNotFound
}

func (m *Memory) ListUsers(ctx context.Context, f user.Filter) ([]*user.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return collect(m.users, cloneUser,
		func(u *user.User) bool { return f.Role == "" || u.Role == f.Role },
		func(a, b *user.User) bool {
			if !a.CreatedAt.Equal(b.CreatedAt) {
				return a.CreatedAt.After(b.CreatedAt)
			}
			return a.ID < b.ID
		}), nil
}

func (m *Memory) UpdateUser(ctx context.Context, u *user.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.users[u.ID]; !ok {
		return user.ErrUserNotFound
	}
	if m.emailTaken(u.Email, u.ID) {
		return user.ErrEmailTaken
	}
	m.users[u.ID] = cloneUser(u)
	return nil
}

func (m *Memory) DeleteUser(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.users[id]; !ok {
		return user.ErrUserNotFound
	}
	for _, l := range m.leases {
		if l.MerchantID == id {
			return apperr.New(apperr.ErrConflict, "user still holds leases")
		}
	}
	for _, o := range m.orders {
		if o.ClientID == id {
			return apperr.New(apperr.ErrConflict, "user still has orders")
		}
	}
	delete(m.users, id)
	delete(m.carts, id)
	for _, s := range m.shops {
		if s.MerchantID == id {
			s.MerchantID = ""
		}
	}
	return nil
}

// ============================================
// Zones
// ============================================

func cloneZone(z *zone.Zone) *zone.Zone {
	c := *z
	return &c
}

func (m *Memory) CreateZone(ctx context.Context, z *zone.Zone) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.zones[z.ID] = cloneZone(z)
	return nil
}

func (m *Memory) GetZone(ctx context.Context, id string) (*zone.Zone, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	z, ok := m.zones[id]
	if !ok {
		return nil, zone.ErrZoneNotFound
	}
	return cloneZone(z), nil
}

func (m *Memory) ListZones(ctx context.Context) ([]*zone.Zone, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return collect(m.zones, cloneZone, nil, func(a, b *zone.Zone) bool {
		if a.Floor != b.Floor {
			return a.Floor < b.Floor
		}
		return a.Name < b.Name
	}), nil
}

func (m *Memory) UpdateZone(ctx context.Context, z *zone.Zone) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.zones[z.ID]; !ok {
		return zone.ErrZoneNotFound
	}
	m.zones[z.ID] = cloneZone(z)
	return nil
}

func (m *Memory) DeleteZone(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.zones[id]; !ok {
		return zone.ErrZoneNotFound
	}
	for _, s := range m.shops {
		if s.ZoneID == id {
			return zone.ErrZoneInUse
		}
	}
	delete(m.zones, id)
	return nil
}

func (m *Memory) CountShopsInZone(ctx context.Context, zoneID string) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	n := 0
	for _, s := range m.shops {
		if s.ZoneID == zoneID {
			n++
		}
	}
	return n, nil
}

// ============================================
// Shops
// ============================================

func cloneShop(s *shop.Shop) *shop.Shop {
	c := *s
	return &c
}

func (m *Memory) numberTaken(number, exceptID string) bool {
	for _, s := range m.shops {
		if s.ID != exceptID && s.Number == number {
			return true
		}
	}
	return false
}

func (m *Memory) CreateShop(ctx context.Context, s *shop.Shop) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.numberTaken(s.Number, "") {
		return shop.ErrNumberTaken
	}
	m.shops[s.ID] = cloneShop(s)
	return nil
}

func (m *Memory) GetShop(ctx context.Context, id string) (*shop.Shop, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.shops[id]
	if !ok {
		return nil, shop.ErrShopNotFound
	}
	return cloneShop(s), nil
}

func (m *Memory) ListShops(ctx context.Context, f shop.Filter) ([]*shop.Shop, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	keep := func(s *shop.Shop) bool {
		return (f.ZoneID == "" || s.ZoneID == f.ZoneID) &&
			(f.Status == "" || s.Status == f.Status) &&
			(f.Category == "" || s.Category == f.Category) &&
			(f.MerchantID == "" || s.MerchantID == f.MerchantID) &&
			(f.Active == nil || s.Active == *f.Active)
	}
	return collect(m.shops, cloneShop, keep, func(a, b *shop.Shop) bool {
		return a.Number < b.Number
	}), nil
}

func (m *Memory) UpdateShop(ctx context.Context, s *shop.Shop) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.shops[s.ID]; !ok {
		return shop.ErrShopNotFound
	}
	if m.numberTaken(s.Number, s.ID) {
		return shop.ErrNumberTaken
	}
	m.shops[s.ID] = cloneShop(s)
	return nil
}

// DeleteShop removes a shop and its catalog. Shops with leases or orders
// are kept.
func (m *Memory) DeleteShop(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.shops[id]; !ok {
		return shop.ErrShopNotFound
	}
	for _, l := range m.leases {
		if l.ShopID == id {
			return apperr.New(apperr.ErrConflict, "shop still has leases")
		}
	}
	for _, o := range m.orders {
		if o.ShopID == id {
			return apperr.New(apperr.ErrConflict, "shop still has orders")
		}
	}
	for pid, p := range m.products {
		if p.ShopID == id {
			delete(m.products, pid)
		}
	}
	delete(m.shops, id)
	return nil
}

// ============================================
// Leases and rent payments
// ============================================

func cloneLease(l *lease.Lease) *lease.Lease {
	c := *l
	if l.EndDate != nil {
		end := *l.EndDate
		c.EndDate = &end
	}
	return &c
}

func (m *Memory) CreateLease(ctx context.Context, l *lease.Lease) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.leases[l.ID] = cloneLease(l)
	return nil
}

func (m *Memory) GetLease(ctx context.Context, id string) (*lease.Lease, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	l, ok := m.leases[id]
	if !ok {
		return nil, lease.ErrLeaseNotFound
	}
	return cloneLease(l), nil
}

func (m *Memory) ListLeases(ctx context.Context, f lease.Filter) ([]*lease.Lease, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	keep := func(l *lease.Lease) bool {
		return (f.ShopID == "" || l.ShopID == f.ShopID) &&
			(f.MerchantID == "" || l.MerchantID == f.MerchantID) &&
			(f.Status == "" || l.Status == f.Status)
	}
	return collect(m.leases, cloneLease, keep, func(a, b *lease.Lease) bool {
		if !a.StartDate.Equal(b.StartDate) {
			return a.StartDate.After(b.StartDate)
		}
		return a.ID < b.ID
	}), nil
}

func (m *Memory) UpdateLease(ctx context.Context, l *lease.Lease) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.leases[l.ID]; !ok {
		return lease.ErrLeaseNotFound
	}
	m.leases[l.ID] = cloneLease(l)
	return nil
}

// DeleteLease removes a lease and its payments.
func (m *Memory) DeleteLease(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.leases[id]; !ok {
		return lease.ErrLeaseNotFound
	}
	for pid, p := range m.payments {
		if p.LeaseID == id {
			delete(m.payments, pid)
		}
	}
	delete(m.leases, id)
	return nil
}

func clonePayment(p *payment.Payment) *payment.Payment {
	c := *p
	return &c
}

func (m *Memory) periodTaken(p *payment.Payment) bool {
	for _, other := range m.payments {
		if other.ID != p.ID && other.LeaseID == p.LeaseID && other.Month == p.Month && other.Year == p.Year {
			return true
		}
	}
	return false
}

func (m *Memory) CreatePayment(ctx context.Context, p *payment.Payment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.periodTaken(p) {
		return payment.ErrDuplicate
	}
	m.payments[p.ID] = clonePayment(p)
	return nil
}

func (m *Memory) GetPayment(ctx context.Context, id string) (*payment.Payment, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.payments[id]
	if !ok {
		return nil, payment.ErrPaymentNotFound
	}
	return clonePayment(p), nil
}

func (m *Memory) ListPayments(ctx context.Context, f payment.Filter) ([]*payment.Payment, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	keep := func(p *payment.Payment) bool {
		return (f.LeaseID == "" || p.LeaseID == f.LeaseID) &&
			(f.MerchantID == "" || p.MerchantID == f.MerchantID) &&
			(f.Month == 0 || p.Month == f.Month) &&
			(f.Year == 0 || p.Year == f.Year) &&
			(f.Status == "" || p.Status == f.Status)
	}
	return collect(m.payments, clonePayment, keep, func(a, b *payment.Payment) bool {
		if a.Year != b.Year {
			return a.Year > b.Year
		}
		if a.Month != b.Month {
			return a.Month > b.Month
		}
		return a.ID < b.ID
	}), nil
}

func (m *Memory) UpdatePayment(ctx context.Context, p *payment.Payment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.payments[p.ID]; !ok {
		return payment.ErrPaymentNotFound
	}
	if m.periodTaken(p) {
		return payment.ErrDuplicate
	}
	m.payments[p.ID] = clonePayment(p)
	return nil
}

func (m *Memory) DeletePayment(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.payments[id]; !ok {
		return payment.ErrPaymentNotFound
	}
	delete(m.payments, id)
	return nil
}

// ============================================
// Employees and payroll
// ============================================

func cloneEmployee(e *employee.Employee) *employee.Employee {
	c := *e
	return &c
}

func cloneSalary(p *employee.SalaryPayment) *employee.SalaryPayment {
	c := *p
	return &c
}

func (m *Memory) employeeEmailTaken(email, exceptID string) bool {
	for _, e := range m.employees {
		if e.ID != exceptID && strings.EqualFold(e.Email, email) {
			return true
		}
	}
	return false
}

func (m *Memory) CreateEmployee(ctx context.Context, e *employee.Employee) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.employeeEmailTaken(e.Email, "") {
		return employee.ErrEmailTaken
	}
	m.employees[e.ID] = cloneEmployee(e)
	return nil
}

func (m *Memory) GetEmployee(ctx context.Context, id string) (*employee.Employee, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	e, ok := m.employees[id]
	if !ok {
		return nil, employee.ErrEmployeeNotFound
	}
	return cloneEmployee(e), nil
}

func (m *Memory) ListEmployees(ctx context.Context, f employee.Filter) ([]*employee.Employee, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	keep := func(e *employee.Employee) bool {
		return (f.Position == "" || e.Position == f.Position) &&
			(f.Active == nil || e.Active == *f.Active)
	}
	return collect(m.employees, cloneEmployee, keep, func(a, b *employee.Employee) bool {
		if a.LastName != b.LastName {
			return a.LastName < b.LastName
		}
		return a.FirstName < b.FirstName
	}), nil
}

func (m *Memory) UpdateEmployee(ctx context.Context, e *employee.Employee) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.employees[e.ID]; !ok {
		return employee.ErrEmployeeNotFound
	}
	if m.employeeEmailTaken(e.Email, e.ID) {
		return employee.ErrEmailTaken
	}
	m.employees[e.ID] = cloneEmployee(e)
	return nil
}

// DeleteEmployee removes an employee and their salary history.
func (m *Memory) DeleteEmployee(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.employees[id]; !ok {
		return employee.ErrEmployeeNotFound
	}
	for sid, p := range m.salaries {
		if p.EmployeeID == id {
			delete(m.salaries, sid)
		}
	}
	delete(m.employees, id)
	return nil
}

func (m *Memory) CreateSalaryPayment(ctx context.Context, p *employee.SalaryPayment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, other := range m.salaries {
		if other.EmployeeID == p.EmployeeID && other.Month == p.Month && other.Year == p.Year {
			return employee.ErrDuplicateSalary
		}
	}
	m.salaries[p.ID] = cloneSalary(p)
	return nil
}

func (m *Memory) ListSalaryPayments(ctx context.Context, f employee.SalaryFilter) ([]*employee.SalaryPayment, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	keep := func(p *employee.SalaryPayment) bool {
		return (f.EmployeeID == "" || p.EmployeeID == f.EmployeeID) &&
			(f.Month == 0 || p.Month == f.Month) &&
			(f.Year == 0 || p.Year == f.Year)
	}
	return collect(m.salaries, cloneSalary, keep, func(a, b *employee.SalaryPayment) bool {
		if a.Year != b.Year {
			return a.Year > b.Year
		}
		if a.Month != b.Month {
			return a.Month > b.Month
		}
		return a.ID < b.ID
	}), nil
}
