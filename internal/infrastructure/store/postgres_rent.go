package store

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/example/mall-backoffice/internal/domain/employee"
	"github.com/example/mall-backoffice/internal/domain/lease"
	"github.com/example/mall-backoffice/internal/domain/payment"
)

// ============================================
// Leases
// ============================================

const leaseColumns = `id, shop_id, merchant_id, amount, periodicity, start_date, end_date, status, created_at, updated_at`

func scanLease(row scanner) (*lease.Lease, error) {
	var l lease.Lease
	var end sql.NullTime
	err := row.Scan(&l.ID, &l.ShopID, &l.MerchantID, &l.Amount, &l.Periodicity,
		&l.StartDate, &end, &l.Status, &l.CreatedAt, &l.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if end.Valid {
		l.EndDate = &end.Time
	}
	return &l, nil
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}

func (s *Postgres) CreateLease(ctx context.Context, l *lease.Lease) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO leases (`+leaseColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`, l.ID, l.ShopID, l.MerchantID, l.Amount, l.Periodicity,
		l.StartDate, nullTime(l.EndDate), l.Status, l.CreatedAt, l.UpdatedAt)
	return wrapErr("create lease", err, nil)
}

func (s *Postgres) GetLease(ctx context.Context, id string) (*lease.Lease, error) {
	l, err := scanLease(s.db.QueryRowContext(ctx, `SELECT `+leaseColumns+` FROM leases WHERE id = $1`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, lease.ErrLeaseNotFound
	}
	return l, wrapErr("get lease", err, nil)
}

func (s *Postgres) ListLeases(ctx context.Context, f lease.Filter) ([]*lease.Lease, error) {
	var w where
	if f.ShopID != "" {
		w.add("shop_id = $%d", f.ShopID)
	}
	if f.MerchantID != "" {
		w.add("merchant_id = $%d", f.MerchantID)
	}
	if f.Status != "" {
		w.add("status = $%d", f.Status)
	}
	rows, err := s.db.QueryContext(ctx, `SELECT `+leaseColumns+` FROM leases`+w.String()+` ORDER BY start_date DESC, id`, w.args...)
	if err != nil {
		return nil, wrapErr("list leases", err, nil)
	}
	defer closeRows(rows)

	leases := []*lease.Lease{}
	for rows.Next() {
		l, err := scanLease(rows)
		if err != nil {
			return nil, wrapErr("list leases", err, nil)
		}
		leases = append(leases, l)
	}
	return leases, wrapErr("list leases", rows.Err(), nil)
}

func (s *Postgres) UpdateLease(ctx context.Context, l *lease.Lease) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE leases SET shop_id = $2, merchant_id = $3, amount = $4, periodicity = $5,
			start_date = $6, end_date = $7, status = $8, updated_at = $9
		WHERE id = $1
	`, l.ID, l.ShopID, l.MerchantID, l.Amount, l.Periodicity,
		l.StartDate, nullTime(l.EndDate), l.Status, l.UpdatedAt)
	if err != nil {
		return wrapErr("update lease", err, nil)
	}
	return requireRow("update lease", res, lease.ErrLeaseNotFound)
}

func (s *Postgres) DeleteLease(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM leases WHERE id = $1`, id)
	if err != nil {
		return wrapErr("delete lease", err, nil)
	}
	return requireRow("delete lease", res, lease.ErrLeaseNotFound)
}

// ============================================
// Rent payments
// ============================================

const paymentColumns = `id, lease_id, merchant_id, amount, month, year, paid_at, method, status, reference, created_at, updated_at`

func scanPayment(row scanner) (*payment.Payment, error) {
	var p payment.Payment
	err := row.Scan(&p.ID, &p.LeaseID, &p.MerchantID, &p.Amount, &p.Month, &p.Year,
		&p.PaidAt, &p.Method, &p.Status, &p.Reference, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (s *Postgres) CreatePayment(ctx context.Context, p *payment.Payment) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO payments (`+paymentColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`, p.ID, p.LeaseID, p.MerchantID, p.Amount, p.Month, p.Year,
		p.PaidAt, p.Method, p.Status, p.Reference, p.CreatedAt, p.UpdatedAt)
	return wrapErr("create payment", err, payment.ErrDuplicate)
}

func (s *Postgres) GetPayment(ctx context.Context, id string) (*payment.Payment, error) {
	p, err := scanPayment(s.db.QueryRowContext(ctx, `SELECT `+paymentColumns+` FROM payments WHERE id = $1`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, payment.ErrPaymentNotFound
	}
	return p, wrapErr("get payment", err, nil)
}

func (s *Postgres) ListPayments(ctx context.Context, f payment.Filter) ([]*payment.Payment, error) {
	var w where
	if f.LeaseID != "" {
		w.add("lease_id = $%d", f.LeaseID)
	}
	if f.MerchantID != "" {
		w.add("merchant_id = $%d", f.MerchantID)
	}
	if f.Month != 0 {
		w.add("month = $%d", f.Month)
	}
	if f.Year != 0 {
		w.add("year = $%d", f.Year)
	}
	if f.Status != "" {
		w.add("status = $%d", f.Status)
	}
	rows, err := s.db.QueryContext(ctx, `SELECT `+paymentColumns+` FROM payments`+w.String()+` ORDER BY year DESC, month DESC, id`, w.args...)
	if err != nil {
		return nil, wrapErr("list payments", err, nil)
	}
	defer closeRows(rows)

	payments := []*payment.Payment{}
	for rows.Next() {
		p, err := scanPayment(rows)
		if err != nil {
			return nil, wrapErr("list payments", err, nil)
		}
		payments = append(payments, p)
	}
	return payments, wrapErr("list payments", rows.Err(), nil)
}

func (s *Postgres) UpdatePayment(ctx context.Context, p *payment.Payment) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE payments SET amount = $2, month = $3, year = $4, paid_at = $5, method = $6,
			status = $7, reference = $8, updated_at = $9
		WHERE id = $1
	`, p.ID, p.Amount, p.Month, p.Year, p.PaidAt, p.Method, p.Status, p.Reference, p.UpdatedAt)
	if err != nil {
		return wrapErr("update payment", err, payment.ErrDuplicate)
	}
	return requireRow("update payment", res, payment.ErrPaymentNotFound)
}

func (s *Postgres) DeletePayment(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM payments WHERE id = $1`, id)
	if err != nil {
		return wrapErr("delete payment", err, nil)
	}
	return requireRow("delete payment", res, payment.ErrPaymentNotFound)
}

// ============================================
// Employees and payroll
// ============================================

const employeeColumns = `id, last_name, first_name, email, phone, position, salary, hired_at, active, created_at, updated_at`

func scanEmployee(row scanner) (*employee.Employee, error) {
	var e employee.Employee
	err := row.Scan(&e.ID, &e.LastName, &e.FirstName, &e.Email, &e.Phone, &e.Position,
		&e.Salary, &e.HiredAt, &e.Active, &e.CreatedAt, &e.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &e, nil
}

func (s *Postgres) CreateEmployee(ctx context.Context, e *employee.Employee) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO employees (`+employeeColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`, e.ID, e.LastName, e.FirstName, e.Email, e.Phone, e.Position,
		e.Salary, e.HiredAt, e.Active, e.CreatedAt, e.UpdatedAt)
	return wrapErr("create employee", err, employee.ErrEmailTaken)
}

func (s *Postgres) GetEmployee(ctx context.Context, id string) (*employee.Employee, error) {
	e, err := scanEmployee(s.db.QueryRowContext(ctx, `SELECT `+employeeColumns+` FROM employees WHERE id = $1`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, employee.ErrEmployeeNotFound
	}
	return e, wrapErr("get employee", err, nil)
}

func (s *Postgres) ListEmployees(ctx context.Context, f employee.Filter) ([]*employee.Employee, error) {
	var w where
	if f.Position != "" {
		w.add("position = $%d", f.Position)
	}
	if f.Active != nil {
		w.add("active = $%d", *f.Active)
	}
	rows, err := s.db.QueryContext(ctx, `SELECT `+employeeColumns+` FROM employees`+w.String()+` ORDER BY last_name, first_name`, w.args...)
	if err != nil {
		return nil, wrapErr("list employees", err, nil)
	}
	defer closeRows(rows)

	employees := []*employee.Employee{}
	for rows.Next() {
		e, err := scanEmployee(rows)
		if err != nil {
			return nil, wrapErr("list employees", err, nil)
		}
		employees = append(employees, e)
	}
	return employees, wrapErr("list employees", rows.Err(), nil)
}

func (s *Postgres) UpdateEmployee(ctx context.Context, e *employee.Employee) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE employees SET last_name = $2, first_name = $3, email = $4, phone = $5, position = $6,
			salary = $7, hired_at = $8, active = $9, updated_at = $10
		WHERE id = $1
	`, e.ID, e.LastName, e.FirstName, e.Email, e.Phone, e.Position,
		e.Salary, e.HiredAt, e.Active, e.UpdatedAt)
	if err != nil {
		return wrapErr("update employee", err, employee.ErrEmailTaken)
	}
	return requireRow("update employee", res, employee.ErrEmployeeNotFound)
}

func (s *Postgres) DeleteEmployee(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM employees WHERE id = $1`, id)
	if err != nil {
		return wrapErr("delete employee", err, nil)
	}
	return requireRow("delete employee", res, employee.ErrEmployeeNotFound)
}

const salaryColumns = `id, employee_id, amount, month, year, paid_at, method, status, note, created_at`

func (s *Postgres) CreateSalaryPayment(ctx context.Context, p *employee.SalaryPayment) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO salary_payments (`+salaryColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`, p.ID, p.EmployeeID, p.Amount, p.Month, p.Year, p.PaidAt, p.Method, p.Status, p.Note, p.CreatedAt)
	return wrapErr("create salary payment", err, employee.ErrDuplicateSalary)
}

func (s *Postgres) ListSalaryPayments(ctx context.Context, f employee.SalaryFilter) ([]*employee.SalaryPayment, error) {
	var w where
	if f.EmployeeID != "" {
		w.add("employee_id = $%d", f.EmployeeID)
	}
	if f.Month != 0 {
		w.add("month = $%d", f.Month)
	}
	if f.Year != 0 {
		w.add("year = $%d", f.Year)
	}
	rows, err := s.db.QueryContext(ctx, `SELECT `+salaryColumns+` FROM salary_payments`+w.String()+` ORDER BY year DESC, month DESC, id`, w.args...)
	if err != nil {
		return nil, wrapErr("list salary payments", err, nil)
	}
	defer closeRows(rows)

	payments := []*employee.SalaryPayment{}
	for rows.Next() {
		var p employee.SalaryPayment
		if err := rows.Scan(&p.ID, &p.EmployeeID, &p.Amount, &p.Month, &p.Year,
			&p.PaidAt, &p.Method, &p.Status, &p.Note, &p.CreatedAt); err != nil {
			return nil, wrapErr("list salary payments", err, nil)
		}
		payments = append(payments, &p)
	}
	return payments, wrapErr("list salary payments", rows.Err(), nil)
}
