package employee

import (
	"context"
	"time"

	"github.com/example/mall-backoffice/internal/apperr"
)

var (
	ErrEmployeeNotFound  = apperr.New(apperr.ErrNotFound, "employee not found")
	ErrEmailTaken        = apperr.New(apperr.ErrDuplicate, "employee email already in use")
	ErrDuplicateSalary   = apperr.New(apperr.ErrDuplicate, "salary already paid for this period")
	ErrInvalidName       = apperr.New(apperr.ErrValidation, "first and last name are required")
	ErrInvalidEmail      = apperr.New(apperr.ErrValidation, "a valid email is required")
	ErrInvalidPosition   = apperr.New(apperr.ErrValidation, "unknown position")
	ErrInvalidSalary     = apperr.New(apperr.ErrValidation, "salary must not be negative")
	ErrInvalidPeriod     = apperr.New(apperr.ErrValidation, "month must be 1-12 and year must be set")
	ErrInvalidMethod     = apperr.New(apperr.ErrValidation, "method must be cash, transfer or cheque")
	ErrInvalidSalaryStat = apperr.New(apperr.ErrValidation, "salary status must be paid or unpaid")
)

type Position string

const (
	PositionSecurity   Position = "security"
	PositionCleaning   Position = "cleaning"
	PositionReception  Position = "reception"
	PositionManager    Position = "manager"
	PositionTechnician Position = "technician"
	PositionOther      Position = "other"
)

func (p Position) Valid() bool {
	switch p {
	case PositionSecurity, PositionCleaning, PositionReception, PositionManager, PositionTechnician, PositionOther:
		return true
	}
	return false
}

// Employee is a member of the mall's own staff.
type Employee struct {
	ID        string    `json:"id"`
	LastName  string    `json:"last_name"`
	FirstName string    `json:"first_name"`
	Email     string    `json:"email"`
	Phone     string    `json:"phone,omitempty"`
	Position  Position  `json:"position"`
	Salary    int       `json:"salary"`
	HiredAt   time.Time `json:"hired_at"`
	Active    bool      `json:"active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type SalaryMethod string

const (
	SalaryCash     SalaryMethod = "cash"
	SalaryTransfer SalaryMethod = "transfer"
	SalaryCheque   SalaryMethod = "cheque"
)

func (m SalaryMethod) Valid() bool {
	return m == SalaryCash || m == SalaryTransfer || m == SalaryCheque
}

type SalaryStatus string

const (
	SalaryPaid   SalaryStatus = "paid"
	SalaryUnpaid SalaryStatus = "unpaid"
)

// SalaryPayment records one month of pay. There is at most one per
// (employee, month, year).
type SalaryPayment struct {
	ID         string       `json:"id"`
	EmployeeID string       `json:"employee_id"`
	Amount     int          `json:"amount"`
	Month      int          `json:"month"`
	Year       int          `json:"year"`
	PaidAt     time.Time    `json:"paid_at"`
	Method     SalaryMethod `json:"method"`
	Status     SalaryStatus `json:"status"`
	Note       string       `json:"note,omitempty"`
	CreatedAt  time.Time    `json:"created_at"`
}

// Filter narrows ListEmployees.
type Filter struct {
	Position Position
	Active   *bool
}

// SalaryFilter narrows ListSalaryPayments.
type SalaryFilter struct {
	EmployeeID string
	Month      int
	Year       int
}

type Repository interface {
	CreateEmployee(ctx context.Context, e *Employee) error
	GetEmployee(ctx context.Context, id string) (*Employee, error)
	ListEmployees(ctx context.Context, f Filter) ([]*Employee, error)
	UpdateEmployee(ctx context.Context, e *Employee) error
	DeleteEmployee(ctx context.Context, id string) error

	CreateSalaryPayment(ctx context.Context, p *SalaryPayment) error
	ListSalaryPayments(ctx context.Context, f SalaryFilter) ([]*SalaryPayment, error)
}
