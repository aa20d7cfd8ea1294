package employee

import (
	"context"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Input carries the editable fields of an employee.
type Input struct {
	LastName  string     `json:"last_name"`
	FirstName string     `json:"first_name"`
	Email     string     `json:"email"`
	Phone     string     `json:"phone"`
	Position  Position   `json:"position"`
	Salary    int        `json:"salary"`
	HiredAt   *time.Time `json:"hired_at"`
	Active    *bool      `json:"active"`
}

func (in *Input) validate() error {
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	switch {
	case in.LastName == "" || in.FirstName == "":
		return ErrInvalidName
	case !strings.Contains(in.Email, "@"):
		return ErrInvalidEmail
	case !in.Position.Valid():
		return ErrInvalidPosition
	case in.Salary < 0:
		return ErrInvalidSalary
	}
	return nil
}

// SalaryInput describes a salary payment. A zero Amount means the
// employee's current salary.
type SalaryInput struct {
	Amount int          `json:"amount"`
	Month  int          `json:"month"`
	Year   int          `json:"year"`
	Method SalaryMethod `json:"method"`
	Status SalaryStatus `json:"status"`
	Note   string       `json:"note"`
}

// SalaryStats summarizes payroll for one month.
type SalaryStats struct {
	Month           int `json:"month"`
	Year            int `json:"year"`
	ActiveEmployees int `json:"active_employees"`
	MonthlyPayroll  int `json:"monthly_payroll"`
	PaidCount       int `json:"paid_count"`
	PaidTotal       int `json:"paid_total"`
	UnpaidCount     int `json:"unpaid_count"`
	Outstanding     int `json:"outstanding"`
}

type Service struct {
	repo Repository
	now  func() time.Time
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo, now: time.Now}
}

func (s *Service) Create(ctx context.Context, in Input) (*Employee, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}
	now := s.now()
	hired := now
	if in.HiredAt != nil {
		hired = *in.HiredAt
	}
	e := &Employee{
		ID:        uuid.New().String(),
		LastName:  in.LastName,
		FirstName: in.FirstName,
		Email:     in.Email,
		Phone:     in.Phone,
		Position:  in.Position,
		Salary:    in.Salary,
		HiredAt:   hired,
		Active:    in.Active == nil || *in.Active,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.repo.CreateEmployee(ctx, e); err != nil {
		return nil, err
	}
	log.Printf("[Employee] Hired %s as %s", e.ID, e.Position)
	return e, nil
}

func (s *Service) Get(ctx context.Context, id string) (*Employee, error) {
	return s.repo.GetEmployee(ctx, id)
}

func (s *Service) List(ctx context.Context, f Filter) ([]*Employee, error) {
	return s.repo.ListEmployees(ctx, f)
}

func (s *Service) Update(ctx context.Context, id string, in Input) (*Employee, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}
	e, err := s.repo.GetEmployee(ctx, id)
	if err != nil {
		return nil, err
	}
	e.LastName = in.LastName
	e.FirstName = in.FirstName
	e.Email = in.Email
	e.Phone = in.Phone
	e.Position = in.Position
	e.Salary = in.Salary
	if in.HiredAt != nil {
		e.HiredAt = *in.HiredAt
	}
	if in.Active != nil {
		e.Active = *in.Active
	}
	e.UpdatedAt = s.now()
	if err := s.repo.UpdateEmployee(ctx, e); err != nil {
		return nil, err
	}
	return e, nil
}

func (s *Service) Delete(ctx context.Context, id string) error {
	return s.repo.DeleteEmployee(ctx, id)
}

// PaySalary records a salary payment for one month.
func (s *Service) PaySalary(ctx context.Context, employeeID string, in SalaryInput) (*SalaryPayment, error) {
	if in.Month < 1 || in.Month > 12 || in.Year < 2000 {
		return nil, ErrInvalidPeriod
	}
	if in.Method == "" {
		in.Method = SalaryTransfer
	}
	if !in.Method.Valid() {
		return nil, ErrInvalidMethod
	}
	if in.Status == "" {
		in.Status = SalaryPaid
	}
	if in.Status != SalaryPaid && in.Status != SalaryUnpaid {
		return nil, ErrInvalidSalaryStat
	}
	if in.Amount < 0 {
		return nil, ErrInvalidSalary
	}

	e, err := s.repo.GetEmployee(ctx, employeeID)
	if err != nil {
		return nil, err
	}
	amount := in.Amount
	if amount == 0 {
		amount = e.Salary
	}

	p := &SalaryPayment{
		ID:         uuid.New().String(),
		EmployeeID: e.ID,
		Amount:     amount,
		Month:      in.Month,
		Year:       in.Year,
		PaidAt:     s.now(),
		Method:     in.Method,
		Status:     in.Status,
		Note:       in.Note,
		CreatedAt:  s.now(),
	}
	if err := s.repo.CreateSalaryPayment(ctx, p); err != nil {
		return nil, err
	}
	log.Printf("[Employee] Salary %02d/%d paid to %s amount=%d", p.Month, p.Year, e.ID, p.Amount)
	return p, nil
}

// SalaryHistory lists the payments made to one employee.
func (s *Service) SalaryHistory(ctx context.Context, employeeID string) ([]*SalaryPayment, error) {
	if _, err := s.repo.GetEmployee(ctx, employeeID); err != nil {
		return nil, err
	}
	return s.repo.ListSalaryPayments(ctx, SalaryFilter{EmployeeID: employeeID})
}

// SalaryStats compares the active payroll with what was paid for a month.
func (s *Service) SalaryStats(ctx context.Context, month, year int) (SalaryStats, error) {
	if month < 1 || month > 12 || year < 2000 {
		return SalaryStats{}, ErrInvalidPeriod
	}
	active := true
	employees, err := s.repo.ListEmployees(ctx, Filter{Active: &active})
	if err != nil {
		return SalaryStats{}, err
	}
	payments, err := s.repo.ListSalaryPayments(ctx, SalaryFilter{Month: month, Year: year})
	if err != nil {
		return SalaryStats{}, err
	}

	paid := make(map[string]bool, len(payments))
	st := SalaryStats{Month: month, Year: year, ActiveEmployees: len(employees)}
	for _, p := range payments {
		if p.Status != SalaryPaid {
			continue
		}
		paid[p.EmployeeID] = true
		st.PaidCount++
		st.PaidTotal += p.Amount
	}
	for _, e := range employees {
		st.MonthlyPayroll += e.Salary
		if !paid[e.ID] {
			st.UnpaidCount++
			st.Outstanding += e.Salary
		}
	}
	return st, nil
}
