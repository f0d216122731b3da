package leave

import (
	"context"
	"time"

	"github.com/cmlabs-hris/hris-core-go/internal/domain/employee"
	"github.com/shopspring/decimal"
)

// AccrualEngine computes earned leave. It performs no I/O.
type AccrualEngine interface {
	CalculateAccrual(emp employee.Employee, policy LeavePolicy, asOf time.Time) (decimal.Decimal, error)
}

type LeaveService interface {
	// Accrual
	GetAccrual(ctx context.Context, employeeID, policyID string, asOf time.Time) (AccrualResponse, error)
	// Balance
	InitializeBalance(ctx context.Context, req InitializeBalanceRequest) (LeaveBalance, error)
	ProcessCarryForward(ctx context.Context, req CarryForwardRequest) ([]CarryForwardResult, error)
	// RefreshAccrual raises allocated on the employee's balances for year to
	// what has accrued by today (clamped into year).
	RefreshAccrual(ctx context.Context, employeeID string, year int) ([]LeaveBalance, error)
	CheckLeaveBalance(ctx context.Context, employeeID, policyID string, year int, days decimal.Decimal) (LeaveBalance, error)
	// Request
	ValidateLeaveRequest(ctx context.Context, req CreateLeaveRequestRequest) (decimal.Decimal, error)
	SubmitRequest(ctx context.Context, req CreateLeaveRequestRequest) (LeaveRequest, error)
	UpdateBalanceForLeaveRequest(ctx context.Context, req UpdateLeaveRequestStatusRequest) (LeaveBalance, error)
}
