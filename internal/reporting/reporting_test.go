package reporting

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/mall-backoffice/internal/apperr"
	"github.com/example/mall-backoffice/internal/auth"
	"github.com/example/mall-backoffice/internal/domain/employee"
	"github.com/example/mall-backoffice/internal/domain/lease"
	"github.com/example/mall-backoffice/internal/domain/payment"
	"github.com/example/mall-backoffice/internal/domain/shop"
	"github.com/example/mall-backoffice/internal/domain/user"
	"github.com/example/mall-backoffice/internal/infrastructure/store"
	"github.com/example/mall-backoffice/internal/projection"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// newTestService seeds a mall on 2026-03-15:
//   - shop s1 (occupied) leased to m1 at 100000, paid for January and March
//   - shop s2 (free) leased to m2 at 50000, January and February unpaid
//   - an older lease of s2 to m1 that ended in January
func newTestService(t *testing.T) (*Service, *store.Memory) {
	t.Helper()
	m := store.NewMemory()
	ctx := context.Background()

	for _, u := range []*user.User{
		{ID: "m1", FirstName: "Moussa", LastName: "Sow", Email: "m1@mall.test", Role: auth.RoleMerchant},
		{ID: "m2", FirstName: "Fatou", LastName: "Ba", Email: "m2@mall.test", Role: auth.RoleMerchant},
		{ID: "c1", LastName: "Fall", Email: "c1@mall.test", Role: auth.RoleClient},
	} {
		require.NoError(t, m.CreateUser(ctx, u))
	}
	for _, sh := range []*shop.Shop{
		{ID: "s1", Number: "A-01", Name: "Books", ZoneID: "z", Category: shop.CategoryBooks, Area: 20, Status: shop.StatusOccupied, MerchantID: "m1", Active: true},
		{ID: "s2", Number: "A-02", Name: "Shoes", ZoneID: "z", Category: shop.CategoryFashion, Area: 25, Status: shop.StatusFree, Active: true},
	} {
		require.NoError(t, m.CreateShop(ctx, sh))
	}
	ended := date(2026, 1, 31)
	for _, l := range []*lease.Lease{
		{ID: "L1", ShopID: "s1", MerchantID: "m1", Amount: 100000, Periodicity: lease.Monthly, StartDate: date(2025, 1, 1), Status: lease.StatusActive},
		{ID: "L2", ShopID: "s2", MerchantID: "m2", Amount: 50000, Periodicity: lease.Monthly, StartDate: date(2025, 9, 1), Status: lease.StatusActive},
		{ID: "L3", ShopID: "s2", MerchantID: "m1", Amount: 70000, Periodicity: lease.Monthly, StartDate: date(2025, 6, 1), EndDate: &ended, Status: lease.StatusActive},
	} {
		require.NoError(t, m.CreateLease(ctx, l))
	}
	for _, p := range []*payment.Payment{
		{ID: "p1", LeaseID: "L1", MerchantID: "m1", Amount: 100000, Month: 1, Year: 2026, Status: payment.StatusPaid},
		{ID: "p2", LeaseID: "L1", MerchantID: "m1", Amount: 100000, Month: 3, Year: 2026, Status: payment.StatusPaid},
		{ID: "p3", LeaseID: "L2", MerchantID: "m2", Amount: 50000, Month: 1, Year: 2026, Status: payment.StatusUnpaid},
		{ID: "p4", LeaseID: "L2", MerchantID: "m2", Amount: 50000, Month: 2, Year: 2026, Status: payment.StatusUnpaid},
	} {
		require.NoError(t, m.CreatePayment(ctx, p))
	}

	svc := NewService(m)
	svc.now = func() time.Time { return time.Date(2026, 3, 15, 9, 0, 0, 0, time.UTC) }
	return svc, m
}

// ============================================
// Dashboard
// ============================================

func TestDashboardStats(t *testing.T) {
	svc, _ := newTestService(t)

	d, err := svc.DashboardStats(context.Background())
	require.NoError(t, err)

	assert.Equal(t, shop.Stats{Total: 2, Active: 2, Occupied: 1, Free: 1}, d.Shops)
	assert.Equal(t, UserCounts{Clients: 1, Merchants: 2}, d.Users)

	assert.Equal(t, 150000, d.Leases.MonthlyTotal)
	assert.Equal(t, 100000, d.Leases.PaidMonth)
	assert.Equal(t, 100000, d.Leases.ArrearsTotal)
	require.Equal(t, 1, d.Leases.ArrearsCount)
	arrear := d.Leases.Arrears[0]
	assert.Equal(t, "L2", arrear.Lease.ID)
	assert.Equal(t, 2, arrear.MonthsLate)
	assert.Equal(t, "Shoes", arrear.Shop.Name)
	assert.Equal(t, "m2@mall.test", arrear.Merchant.Email)

	assert.Equal(t, 300000, d.Revenue.Yearly)
	require.Len(t, d.Revenue.Monthly, 12)
	assert.Equal(t, MonthAmount{Month: 1, Amount: 150000}, d.Revenue.Monthly[0])
	assert.Equal(t, MonthAmount{Month: 3, Amount: 100000}, d.Revenue.Monthly[2])
	assert.Equal(t, MonthAmount{Month: 12, Amount: 0}, d.Revenue.Monthly[11])
}

func TestYearlyRevenue(t *testing.T) {
	svc, m := newTestService(t)
	ctx := context.Background()
	require.NoError(t, m.CreateSalaryPayment(ctx, &employee.SalaryPayment{ID: "sal-1", EmployeeID: "e1",
		Amount: 40000, Month: 1, Year: 2026, Status: employee.SalaryPaid}))

	r, err := svc.YearlyRevenue(ctx, 2026)

	require.NoError(t, err)
	assert.Equal(t, 260000, r.Profit)
	assert.Equal(t, MonthRevenue{Month: 1, Income: 150000, Expenses: 40000, Profit: 110000}, r.Months[0])

	current, err := svc.YearlyRevenue(ctx, 0)
	require.NoError(t, err)
	assert.Equal(t, 2026, current.Year)

	_, err = svc.YearlyRevenue(ctx, 1999)
	assert.ErrorIs(t, err, ErrInvalidYear)
}

// ============================================
// Rent collection
// ============================================

func TestUnpaidLeases(t *testing.T) {
	svc, _ := newTestService(t)

	unpaid, err := svc.UnpaidLeases(context.Background())

	require.NoError(t, err)
	require.Len(t, unpaid, 1)
	assert.Equal(t, "L2", unpaid[0].Lease.ID)
	assert.Equal(t, 3, unpaid[0].Month)
	assert.Equal(t, 2026, unpaid[0].Year)
}

func TestMonthlyLeaseStats(t *testing.T) {
	svc, _ := newTestService(t)

	st, err := svc.MonthlyLeaseStats(context.Background())

	require.NoError(t, err)
	assert.Equal(t, LeaseMonth{Month: 3, Year: 2026, Total: 150000, Paid: 100000, Unpaid: 50000}, st)
}

// ============================================
// Shop history
// ============================================

func TestShopHistory(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	h, err := svc.ShopHistory(ctx, "s2")
	require.NoError(t, err)
	assert.Nil(t, h.CurrentRent)
	assert.Len(t, h.Leases, 2)
	require.Len(t, h.Occupants, 2)
	assert.Equal(t, "m2", h.Occupants[0].Merchant.ID)
	assert.Equal(t, HistoryStats{TotalPaid: 100000, PaymentCount: 2, AveragePayment: 50000, OccupantCount: 2}, h.Stats)
	assert.Equal(t, 2, h.Payments[0].Month)

	occupied, err := svc.ShopHistory(ctx, "s1")
	require.NoError(t, err)
	require.NotNil(t, occupied.CurrentRent)
	assert.Equal(t, 100000, *occupied.CurrentRent)

	_, err = svc.ShopHistory(ctx, "missing")
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestShopOccupants(t *testing.T) {
	svc, _ := newTestService(t)

	occupants, err := svc.ShopOccupants(context.Background(), "s2")

	require.NoError(t, err)
	require.Len(t, occupants, 2)
	assert.True(t, occupants[0].Ongoing)
	assert.Nil(t, occupants[0].Months)
	assert.False(t, occupants[1].Ongoing)
	require.NotNil(t, occupants[1].Months)
	assert.Equal(t, 9, *occupants[1].Months)
}

func TestShopPayments(t *testing.T) {
	svc, _ := newTestService(t)

	payments, err := svc.ShopPayments(context.Background(), "s1")

	require.NoError(t, err)
	require.Len(t, payments, 2)
	assert.Equal(t, 3, payments[0].Month)
}

func TestLeaseMonths(t *testing.T) {
	assert.Equal(t, 1, leaseMonths(date(2026, 1, 1), date(2026, 1, 20)))
	assert.Equal(t, 1, leaseMonths(date(2026, 1, 1), date(2026, 1, 31)))
	assert.Equal(t, 2, leaseMonths(date(2026, 1, 1), date(2026, 2, 1)))
}

// ============================================
// Sales
// ============================================

func TestSales(t *testing.T) {
	svc, m := newTestService(t)
	ctx := context.Background()
	for i, d := range []projection.Delta{
		{ShopID: "s1", Day: date(2026, 3, 1), Orders: 2, Revenue: 3000, PaidRevenue: 1000},
		{ShopID: "s1", Day: date(2026, 3, 2), Orders: 1, Revenue: 500},
		{ShopID: "s2", Day: date(2026, 3, 2), Orders: 1, Revenue: 800, PaidRevenue: 800},
	} {
		_, err := m.ApplySales(ctx, string(rune('a'+i)), d)
		require.NoError(t, err)
	}

	r, err := svc.Sales(ctx, projection.SalesFilter{ShopID: "s1"})
	require.NoError(t, err)
	assert.Len(t, r.Days, 2)
	assert.Equal(t, 3, r.Orders)
	assert.Equal(t, 3500, r.Revenue)
	assert.Equal(t, 1000, r.PaidRevenue)

	r, err = svc.Sales(ctx, projection.SalesFilter{From: date(2026, 3, 2), To: date(2026, 3, 2)})
	require.NoError(t, err)
	assert.Equal(t, 1300, r.Revenue)

	_, err = svc.Sales(ctx, projection.SalesFilter{From: date(2026, 3, 2), To: date(2026, 3, 1)})
	assert.ErrorIs(t, err, apperr.ErrValidation)
}
