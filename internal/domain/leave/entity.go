package leave

import (
	"time"

	"github.com/cmlabs-hris/hris-core-go/internal/domain/employee"
	"github.com/shopspring/decimal"
)

type AccrualType string

const (
	AccrualTypeAnnual    AccrualType = "ANNUAL"
	AccrualTypeMonthly   AccrualType = "MONTHLY"
	AccrualTypeQuarterly AccrualType = "QUARTERLY"
	AccrualTypeOnJoining AccrualType = "ON_JOINING"
)

func (a AccrualType) IsValid() bool {
	switch a {
	case AccrualTypeAnnual, AccrualTypeMonthly, AccrualTypeQuarterly, AccrualTypeOnJoining:
		return true
	}
	return false
}

// LeavePolicy entity
type LeavePolicy struct {
	ID          string
	CompanyID   string
	Name        string
	AccrualType AccrualType
	DaysPerYear decimal.Decimal

	// Accrual Rules
	AccrualRate         *decimal.Decimal // days per month, MONTHLY only
	ProbationPeriodDays *int

	// Carry Forward Rules
	CarryForward    bool
	MaxCarryForward *decimal.Decimal

	// Eligibility
	Gender       *employee.Gender
	AllowHalfDay bool

	CreatedAt time.Time
	UpdatedAt time.Time
}

// AppliesTo reports whether a gender-restricted policy covers emp.
func (p LeavePolicy) AppliesTo(emp employee.Employee) bool {
	if p.Gender == nil {
		return true
	}
	return emp.Gender != nil && *emp.Gender == *p.Gender
}

// LeaveBalance entity, one row per (employee, policy, year).
type LeaveBalance struct {
	ID         string
	EmployeeID string
	PolicyID   string
	Year       int

	Allocated      decimal.Decimal
	Used           decimal.Decimal
	Pending        decimal.Decimal
	CarriedForward decimal.Decimal
	Encashed       decimal.Decimal
	Expired        decimal.Decimal
	Available      decimal.Decimal // allocated + carried_forward - used - pending - expired

	CreatedAt time.Time
	UpdatedAt time.Time
}

// ComputeAvailable derives available days from the other counters.
func (b LeaveBalance) ComputeAvailable() decimal.Decimal {
	return b.Allocated.Add(b.CarriedForward).Sub(b.Used).Sub(b.Pending).Sub(b.Expired)
}

// BalanceDelta is an additive change to a balance row, applied atomically.
type BalanceDelta struct {
	Allocated      decimal.Decimal
	Used           decimal.Decimal
	Pending        decimal.Decimal
	CarriedForward decimal.Decimal
	Expired        decimal.Decimal

	// RequireAvailable rejects the change if available would drop below zero.
	RequireAvailable bool
}

// Apply returns b with d applied and available re-derived. It fails with
// ErrBalanceConflict when a counter would go negative, which means the
// caller worked from a stale read.
func (d BalanceDelta) Apply(b LeaveBalance) (LeaveBalance, error) {
	b.Allocated = b.Allocated.Add(d.Allocated)
	b.Used = b.Used.Add(d.Used)
	b.Pending = b.Pending.Add(d.Pending)
	b.CarriedForward = b.CarriedForward.Add(d.CarriedForward)
	b.Expired = b.Expired.Add(d.Expired)
	b.Available = b.ComputeAvailable()

	if b.Used.IsNegative() || b.Pending.IsNegative() || b.Expired.IsNegative() || b.CarriedForward.IsNegative() {
		return LeaveBalance{}, ErrBalanceConflict
	}
	if d.RequireAvailable && b.Available.IsNegative() {
		return LeaveBalance{}, ErrBalanceConflict
	}
	return b, nil
}

type LeaveRequestStatus string

const (
	LeaveRequestStatusPending   LeaveRequestStatus = "PENDING"
	LeaveRequestStatusApproved  LeaveRequestStatus = "APPROVED"
	LeaveRequestStatusRejected  LeaveRequestStatus = "REJECTED"
	LeaveRequestStatusCancelled LeaveRequestStatus = "CANCELLED"
)

// IsFinal reports whether s is a decision a pending request can move to.
func (s LeaveRequestStatus) IsFinal() bool {
	return s == LeaveRequestStatusApproved || s == LeaveRequestStatusRejected || s == LeaveRequestStatusCancelled
}

// LeaveDurationEnum maps to leave_duration_enum in DB
type LeaveDurationEnum string

const (
	LeaveDurationFullDay          LeaveDurationEnum = "full_day"
	LeaveDurationHalfDayMorning   LeaveDurationEnum = "half_day_morning"
	LeaveDurationHalfDayAfternoon LeaveDurationEnum = "half_day_afternoon"
)

func (d LeaveDurationEnum) IsHalfDay() bool {
	return d == LeaveDurationHalfDayMorning || d == LeaveDurationHalfDayAfternoon
}

// LeaveRequest entity
type LeaveRequest struct {
	ID         string
	EmployeeID string
	PolicyID   string

	StartDate time.Time
	EndDate   time.Time

	DurationType LeaveDurationEnum
	TotalDays    decimal.Decimal

	Reason string
	Status LeaveRequestStatus

	DecidedBy *string
	DecidedAt *time.Time

	SubmittedAt time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
