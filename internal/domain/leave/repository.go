package leave

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// LeavePolicyRepository - interface for leave_policies table
type LeavePolicyRepository interface {
	GetByID(ctx context.Context, id string) (LeavePolicy, error)
	GetByCompanyID(ctx context.Context, companyID string) ([]LeavePolicy, error)
}

// LeaveBalanceRepository - interface for leave_balances table
type LeaveBalanceRepository interface {
	// Create inserts a new row and fails with ErrLeaveBalanceExists on a duplicate (employee, policy, year).
	Create(ctx context.Context, balance LeaveBalance) (LeaveBalance, error)
	GetByEmployeePolicyYear(ctx context.Context, employeeID, policyID string, year int) (LeaveBalance, error)
	GetByEmployeeYear(ctx context.Context, employeeID string, year int) ([]LeaveBalance, error)
	// ApplyDelta applies delta in a single conditional UPDATE and returns the new row.
	ApplyDelta(ctx context.Context, id string, delta BalanceDelta) (LeaveBalance, error)
	// SetCarriedForward overwrites carried_forward, so repeating it is harmless.
	SetCarriedForward(ctx context.Context, id string, amount decimal.Decimal) (LeaveBalance, error)
	// RaiseAllocated sets allocated to max(allocated, amount). Accrual only
	// grows within a year, so concurrent refreshes converge on the same row.
	RaiseAllocated(ctx context.Context, id string, amount decimal.Decimal) (LeaveBalance, error)
}

// LeaveRequestRepository - interface for leave_requests table
type LeaveRequestRepository interface {
	Create(ctx context.Context, request LeaveRequest) (LeaveRequest, error)
	GetByID(ctx context.Context, id string) (LeaveRequest, error)
	// TransitionStatus moves a request out of from. It fails with
	// ErrLeaveRequestAlreadyProcessed when the request is no longer in from.
	TransitionStatus(ctx context.Context, id string, from, to LeaveRequestStatus, decidedBy *string, at time.Time) error
	GetOverlapping(ctx context.Context, employeeID string, start, end time.Time, statuses []LeaveRequestStatus) ([]LeaveRequest, error)
}
