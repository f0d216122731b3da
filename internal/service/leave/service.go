package leave

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/cmlabs-hris/hris-core-go/internal/domain/employee"
	"github.com/cmlabs-hris/hris-core-go/internal/domain/leave"
	"github.com/cmlabs-hris/hris-core-go/internal/pkg/database"
	"github.com/cmlabs-hris/hris-core-go/internal/pkg/validator"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type LeaveServiceImpl struct {
	tx database.Transactor
	leave.LeavePolicyRepository
	leave.LeaveBalanceRepository
	leave.LeaveRequestRepository
	employee.EmployeeRepository
	accrual leave.AccrualEngine
	now     func() time.Time
}

func NewLeaveService(
	tx database.Transactor,
	policyRepository leave.LeavePolicyRepository,
	balanceRepository leave.LeaveBalanceRepository,
	requestRepository leave.LeaveRequestRepository,
	employeeRepository employee.EmployeeRepository,
	accrual leave.AccrualEngine,
) leave.LeaveService {
	return &LeaveServiceImpl{
		tx:                     tx,
		LeavePolicyRepository:  policyRepository,
		LeaveBalanceRepository: balanceRepository,
		LeaveRequestRepository: requestRepository,
		EmployeeRepository:     employeeRepository,
		accrual:                accrual,
		now:                    time.Now,
	}
}

// GetAccrual implements leave.LeaveService.
func (l *LeaveServiceImpl) GetAccrual(ctx context.Context, employeeID, policyID string, asOf time.Time) (leave.AccrualResponse, error) {
	emp, err := l.EmployeeRepository.GetByID(ctx, employeeID)
	if err != nil {
		return leave.AccrualResponse{}, fmt.Errorf("failed to get employee: %w", err)
	}
	policy, err := l.LeavePolicyRepository.GetByID(ctx, policyID)
	if err != nil {
		return leave.AccrualResponse{}, fmt.Errorf("failed to get leave policy: %w", err)
	}

	days, err := l.accrual.CalculateAccrual(emp, policy, asOf)
	if err != nil {
		return leave.AccrualResponse{}, err
	}

	return leave.AccrualResponse{
		EmployeeID: emp.ID,
		PolicyID:   policy.ID,
		AsOfDate:   asOf.Format(validator.DateLayout),
		Days:       days,
	}, nil
}

// InitializeBalance implements leave.LeaveService.
func (l *LeaveServiceImpl) InitializeBalance(ctx context.Context, req leave.InitializeBalanceRequest) (leave.LeaveBalance, error) {
	if err := req.Validate(); err != nil {
		return leave.LeaveBalance{}, err
	}

	emp, err := l.EmployeeRepository.GetByID(ctx, req.EmployeeID)
	if err != nil {
		return leave.LeaveBalance{}, fmt.Errorf("failed to get employee: %w", err)
	}
	policy, err := l.LeavePolicyRepository.GetByID(ctx, req.PolicyID)
	if err != nil {
		return leave.LeaveBalance{}, fmt.Errorf("failed to get leave policy: %w", err)
	}

	asOf := l.asOfWithinYear(req.Year)
	if req.AsOfDate != "" {
		asOf, _ = validator.IsValidDate(req.AsOfDate)
	}

	return l.initializeBalance(ctx, emp, policy, req.Year, asOf)
}

func (l *LeaveServiceImpl) initializeBalance(ctx context.Context, emp employee.Employee, policy leave.LeavePolicy, year int, asOf time.Time) (leave.LeaveBalance, error) {
	if !policy.AppliesTo(emp) {
		return leave.LeaveBalance{}, leave.ErrPolicyNotApplicable
	}

	allocated, err := l.accrual.CalculateAccrual(emp, policy, asOf)
	if err != nil {
		return leave.LeaveBalance{}, err
	}

	balance := leave.LeaveBalance{
		ID:         uuid.NewString(),
		EmployeeID: emp.ID,
		PolicyID:   policy.ID,
		Year:       year,
		Allocated:  allocated,
		Available:  allocated,
	}

	created, err := l.LeaveBalanceRepository.Create(ctx, balance)
	if errors.Is(err, leave.ErrLeaveBalanceExists) {
		slog.Debug("Leave balance already exists", "employee_id", emp.ID, "policy_id", policy.ID, "year", year)
		return l.LeaveBalanceRepository.GetByEmployeePolicyYear(ctx, emp.ID, policy.ID, year)
	}
	if err != nil {
		return leave.LeaveBalance{}, fmt.Errorf("failed to create leave balance: %w", err)
	}

	slog.Info("Initialized leave balance",
		"employee_id", emp.ID,
		"policy_id", policy.ID,
		"year", year,
		"allocated", allocated.String(),
	)
	return created, nil
}

// asOfWithinYear clamps today into year so past and future years accrue sensibly.
func (l *LeaveServiceImpl) asOfWithinYear(year int) time.Time {
	now := l.now()
	switch {
	case now.Year() > year:
		return time.Date(year, time.December, 31, 0, 0, 0, 0, time.UTC)
	case now.Year() < year:
		return time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC)
	}
	return now
}

// ProcessCarryForward implements leave.LeaveService.
func (l *LeaveServiceImpl) ProcessCarryForward(ctx context.Context, req leave.CarryForwardRequest) ([]leave.CarryForwardResult, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	emp, err := l.EmployeeRepository.GetByID(ctx, req.EmployeeID)
	if err != nil {
		return nil, fmt.Errorf("failed to get employee: %w", err)
	}

	balances, err := l.LeaveBalanceRepository.GetByEmployeeYear(ctx, req.EmployeeID, req.FromYear)
	if err != nil {
		return nil, fmt.Errorf("failed to get leave balances: %w", err)
	}

	results := make([]leave.CarryForwardResult, 0, len(balances))
	for _, balance := range balances {
		policy, err := l.LeavePolicyRepository.GetByID(ctx, balance.PolicyID)
		if err != nil {
			return results, fmt.Errorf("failed to get leave policy %s: %w", balance.PolicyID, err)
		}

		if !policy.CarryForward {
			slog.Debug("Skipping policy without carry forward", "policy_id", policy.ID)
			continue
		}

		var result leave.CarryForwardResult
		err = l.tx.WithinTransaction(ctx, func(ctx context.Context) error {
			var err error
			result, err = l.carryForward(ctx, emp, policy, req.FromYear, req.ToYear)
			return err
		})
		if err != nil {
			return results, fmt.Errorf("failed to carry forward policy %s: %w", policy.ID, err)
		}

		results = append(results, result)
		slog.Info("Carried forward leave balance",
			"employee_id", emp.ID,
			"policy_id", policy.ID,
			"from_year", req.FromYear,
			"to_year", req.ToYear,
			"carried", result.Carried.String(),
			"expired", result.Expired.String(),
		)
	}

	return results, nil
}

// carryForward moves min(available, max) into toYear and expires the rest
// on the fromYear row. Running it again changes nothing.
func (l *LeaveServiceImpl) carryForward(ctx context.Context, emp employee.Employee, policy leave.LeavePolicy, fromYear, toYear int) (leave.CarryForwardResult, error) {
	from, err := l.LeaveBalanceRepository.GetByEmployeePolicyYear(ctx, emp.ID, policy.ID, fromYear)
	if err != nil {
		return leave.CarryForwardResult{}, err
	}

	available := decimal.Max(from.Available, decimal.Zero)
	carry := available
	if policy.MaxCarryForward != nil && carry.GreaterThan(*policy.MaxCarryForward) {
		carry = decimal.Max(*policy.MaxCarryForward, decimal.Zero)
	}
	excess := available.Sub(carry)

	if excess.IsPositive() {
		if _, err := l.LeaveBalanceRepository.ApplyDelta(ctx, from.ID, leave.BalanceDelta{Expired: excess}); err != nil {
			return leave.CarryForwardResult{}, fmt.Errorf("failed to expire excess: %w", err)
		}
	}

	to, err := l.LeaveBalanceRepository.GetByEmployeePolicyYear(ctx, emp.ID, policy.ID, toYear)
	if errors.Is(err, leave.ErrLeaveBalanceNotFound) {
		to, err = l.initializeBalance(ctx, emp, policy, toYear, time.Date(toYear, time.January, 1, 0, 0, 0, 0, time.UTC))
	}
	if err != nil {
		return leave.CarryForwardResult{}, err
	}

	to, err = l.LeaveBalanceRepository.SetCarriedForward(ctx, to.ID, carry)
	if err != nil {
		return leave.CarryForwardResult{}, fmt.Errorf("failed to set carried forward: %w", err)
	}

	return leave.CarryForwardResult{
		PolicyID:      policy.ID,
		FromBalanceID: from.ID,
		ToBalanceID:   to.ID,
		Carried:       carry,
		Expired:       excess,
	}, nil
}

// RefreshAccrual implements leave.LeaveService.
func (l *LeaveServiceImpl) RefreshAccrual(ctx context.Context, employeeID string, year int) ([]leave.LeaveBalance, error) {
	emp, err := l.EmployeeRepository.GetByID(ctx, employeeID)
	if err != nil {
		return nil, fmt.Errorf("failed to get employee: %w", err)
	}

	balances, err := l.LeaveBalanceRepository.GetByEmployeeYear(ctx, employeeID, year)
	if err != nil {
		return nil, fmt.Errorf("failed to get leave balances: %w", err)
	}

	refreshed := make([]leave.LeaveBalance, 0, len(balances))
	for _, balance := range balances {
		policy, err := l.LeavePolicyRepository.GetByID(ctx, balance.PolicyID)
		if err != nil {
			return refreshed, fmt.Errorf("failed to get leave policy %s: %w", balance.PolicyID, err)
		}

		balance, err = l.refreshAccrual(ctx, emp, policy, balance)
		if err != nil {
			return refreshed, err
		}
		refreshed = append(refreshed, balance)
	}

	return refreshed, nil
}

// refreshAccrual brings allocated up to what emp has earned by today, clamped
// into the balance's year. Rows created early in the year under MONTHLY or
// QUARTERLY policies start low and grow through here.
func (l *LeaveServiceImpl) refreshAccrual(ctx context.Context, emp employee.Employee, policy leave.LeavePolicy, balance leave.LeaveBalance) (leave.LeaveBalance, error) {
	accrued, err := l.accrual.CalculateAccrual(emp, policy, l.asOfWithinYear(balance.Year))
	if err != nil {
		return balance, err
	}
	if !accrued.GreaterThan(balance.Allocated) {
		return balance, nil
	}

	updated, err := l.LeaveBalanceRepository.RaiseAllocated(ctx, balance.ID, accrued)
	if err != nil {
		return balance, fmt.Errorf("failed to refresh accrual: %w", err)
	}

	slog.Info("Refreshed leave accrual",
		"employee_id", emp.ID,
		"policy_id", policy.ID,
		"year", balance.Year,
		"allocated", updated.Allocated.String(),
	)
	return updated, nil
}

// CheckLeaveBalance implements leave.LeaveService.
func (l *LeaveServiceImpl) CheckLeaveBalance(ctx context.Context, employeeID, policyID string, year int, days decimal.Decimal) (leave.LeaveBalance, error) {
	emp, err := l.EmployeeRepository.GetByID(ctx, employeeID)
	if err != nil {
		return leave.LeaveBalance{}, fmt.Errorf("failed to get employee: %w", err)
	}
	policy, err := l.LeavePolicyRepository.GetByID(ctx, policyID)
	if err != nil {
		return leave.LeaveBalance{}, fmt.Errorf("failed to get leave policy: %w", err)
	}

	return l.checkLeaveBalance(ctx, emp, policy, year, days)
}

func (l *LeaveServiceImpl) checkLeaveBalance(ctx context.Context, emp employee.Employee, policy leave.LeavePolicy, year int, days decimal.Decimal) (leave.LeaveBalance, error) {
	balance, err := l.LeaveBalanceRepository.GetByEmployeePolicyYear(ctx, emp.ID, policy.ID, year)
	if errors.Is(err, leave.ErrLeaveBalanceNotFound) {
		return leave.LeaveBalance{}, validator.ValidationErrors{{
			Field:   "policy_id",
			Message: fmt.Sprintf("no leave balance for this policy in %d", year),
		}}
	}
	if err != nil {
		return leave.LeaveBalance{}, fmt.Errorf("failed to get leave balance: %w", err)
	}

	balance, err = l.refreshAccrual(ctx, emp, policy, balance)
	if err != nil {
		return leave.LeaveBalance{}, err
	}

	if balance.Available.LessThan(days) {
		return balance, validator.ValidationErrors{{
			Field:   "days",
			Message: fmt.Sprintf("insufficient leave balance: requested %s day(s), available %s", days.String(), balance.Available.String()),
		}}
	}

	return balance, nil
}

// ValidateLeaveRequest implements leave.LeaveService. It returns the number
// of days the request would consume.
func (l *LeaveServiceImpl) ValidateLeaveRequest(ctx context.Context, req leave.CreateLeaveRequestRequest) (decimal.Decimal, error) {
	if err := req.Validate(); err != nil {
		return decimal.Zero, err
	}

	dates, err := req.Range()
	if err != nil {
		return decimal.Zero, err
	}

	policy, err := l.LeavePolicyRepository.GetByID(ctx, req.PolicyID)
	if err != nil {
		if errors.Is(err, leave.ErrLeavePolicyNotFound) {
			return decimal.Zero, validator.ValidationErrors{{Field: "policy_id", Message: "leave policy not found"}}
		}
		return decimal.Zero, fmt.Errorf("failed to get leave policy: %w", err)
	}
	emp, err := l.EmployeeRepository.GetByID(ctx, req.EmployeeID)
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to get employee: %w", err)
	}

	var errs validator.ValidationErrors

	if !policy.AppliesTo(emp) {
		errs.Add("policy_id", "leave policy does not apply to this employee")
	}
	if req.Duration().IsHalfDay() && !policy.AllowHalfDay {
		errs.Add("duration_type", "half day leave is not allowed for this policy")
	}

	days := leave.RequestedDays(dates, req.Duration())

	// Requests are charged to the balance of the year they start in.
	if _, err := l.checkLeaveBalance(ctx, emp, policy, dates.Start.Year(), days); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			return decimal.Zero, err
		}
		errs = append(errs, verrs...)
	}

	overlapping, err := l.LeaveRequestRepository.GetOverlapping(ctx, emp.ID, dates.Start, dates.End, []leave.LeaveRequestStatus{
		leave.LeaveRequestStatusPending,
		leave.LeaveRequestStatusApproved,
	})
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to check overlapping requests: %w", err)
	}
	for _, other := range overlapping {
		errs.Add("start_date", fmt.Sprintf("overlaps %s leave request %s (%s to %s)",
			other.Status,
			other.ID,
			other.StartDate.Format(validator.DateLayout),
			other.EndDate.Format(validator.DateLayout),
		))
	}

	return days, errs.OrNil()
}

// SubmitRequest implements leave.LeaveService.
func (l *LeaveServiceImpl) SubmitRequest(ctx context.Context, req leave.CreateLeaveRequestRequest) (leave.LeaveRequest, error) {
	days, err := l.ValidateLeaveRequest(ctx, req)
	if err != nil {
		return leave.LeaveRequest{}, err
	}

	dates, err := req.Range()
	if err != nil {
		return leave.LeaveRequest{}, err
	}

	now := l.now()
	request := leave.LeaveRequest{
		ID:           uuid.NewString(),
		EmployeeID:   req.EmployeeID,
		PolicyID:     req.PolicyID,
		StartDate:    dates.Start,
		EndDate:      dates.End,
		DurationType: req.Duration(),
		TotalDays:    days,
		Reason:       req.Reason,
		Status:       leave.LeaveRequestStatusPending,
		SubmittedAt:  now,
	}

	err = l.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		balance, err := l.LeaveBalanceRepository.GetByEmployeePolicyYear(ctx, req.EmployeeID, req.PolicyID, dates.Start.Year())
		if err != nil {
			return fmt.Errorf("failed to get leave balance: %w", err)
		}

		created, err := l.LeaveRequestRepository.Create(ctx, request)
		if err != nil {
			return fmt.Errorf("failed to create leave request: %w", err)
		}
		request = created

		_, err = l.LeaveBalanceRepository.ApplyDelta(ctx, balance.ID, leave.BalanceDelta{
			Pending:          days,
			RequireAvailable: true,
		})
		if errors.Is(err, leave.ErrBalanceConflict) {
			return fmt.Errorf("%w: requested %s day(s)", leave.ErrInsufficientQuota, days.String())
		}
		return err
	})
	if err != nil {
		return leave.LeaveRequest{}, err
	}

	slog.Info("Leave request submitted",
		"request_id", request.ID,
		"employee_id", request.EmployeeID,
		"policy_id", request.PolicyID,
		"days", days.String(),
	)
	return request, nil
}

// UpdateBalanceForLeaveRequest implements leave.LeaveService. The status
// change and the balance change commit together or not at all.
func (l *LeaveServiceImpl) UpdateBalanceForLeaveRequest(ctx context.Context, req leave.UpdateLeaveRequestStatusRequest) (leave.LeaveBalance, error) {
	if err := req.Validate(); err != nil {
		return leave.LeaveBalance{}, err
	}
	status := leave.LeaveRequestStatus(req.Status)

	var updated leave.LeaveBalance
	err := l.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		request, err := l.LeaveRequestRepository.GetByID(ctx, req.RequestID)
		if err != nil {
			return err
		}
		if request.Status != leave.LeaveRequestStatusPending {
			return leave.ErrLeaveRequestAlreadyProcessed
		}
		if err := l.authorizeDecision(ctx, req, request); err != nil {
			return err
		}

		// Conditional on the row still being PENDING, so a concurrent
		// decision on the same request loses here.
		if err := l.LeaveRequestRepository.TransitionStatus(ctx, request.ID, leave.LeaveRequestStatusPending, status, req.DecidedBy, l.now()); err != nil {
			return err
		}

		balance, err := l.LeaveBalanceRepository.GetByEmployeePolicyYear(ctx, request.EmployeeID, request.PolicyID, request.StartDate.Year())
		if err != nil {
			return fmt.Errorf("failed to get leave balance: %w", err)
		}

		delta := leave.BalanceDelta{Pending: request.TotalDays.Neg()}
		if status == leave.LeaveRequestStatusApproved {
			delta.Used = request.TotalDays
		}

		updated, err = l.LeaveBalanceRepository.ApplyDelta(ctx, balance.ID, delta)
		return err
	})
	if err != nil {
		return leave.LeaveBalance{}, err
	}

	slog.Info("Leave request decided",
		"request_id", req.RequestID,
		"status", req.Status,
		"available", updated.Available.String(),
	)
	return updated, nil
}

// authorizeDecision keeps deciders inside their own company. Approving or
// rejecting your own request is refused; withdrawing it is not.
func (l *LeaveServiceImpl) authorizeDecision(ctx context.Context, req leave.UpdateLeaveRequestStatusRequest, request leave.LeaveRequest) error {
	status := leave.LeaveRequestStatus(req.Status)
	if status != leave.LeaveRequestStatusCancelled && req.DeciderEmployeeID != "" && req.DeciderEmployeeID == request.EmployeeID {
		return leave.ErrSelfDecision
	}

	emp, err := l.EmployeeRepository.GetByID(ctx, request.EmployeeID)
	if err != nil {
		return fmt.Errorf("failed to get employee: %w", err)
	}
	if emp.CompanyID != req.DeciderCompanyID {
		return employee.ErrUnauthorized
	}
	return nil
}
