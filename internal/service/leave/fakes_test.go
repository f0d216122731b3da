package leave

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/cmlabs-hris/hris-core-go/internal/domain/employee"
	"github.com/cmlabs-hris/hris-core-go/internal/domain/leave"
	"github.com/cmlabs-hris/hris-core-go/internal/pkg/utils"
	"github.com/shopspring/decimal"
)

type fakeTransactor struct{}

func (fakeTransactor) WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

type fakeEmployeeRepo struct {
	employees map[string]employee.Employee
}

func (r *fakeEmployeeRepo) GetByID(ctx context.Context, id string) (employee.Employee, error) {
	emp, ok := r.employees[id]
	if !ok {
		return employee.Employee{}, employee.ErrEmployeeNotFound
	}
	return emp, nil
}

func (r *fakeEmployeeRepo) GetByUserID(ctx context.Context, userID string) (employee.Employee, error) {
	for _, emp := range r.employees {
		if emp.UserID != nil && *emp.UserID == userID {
			return emp, nil
		}
	}
	return employee.Employee{}, employee.ErrEmployeeNotFound
}

func (r *fakeEmployeeRepo) ListActiveIDs(ctx context.Context) ([]string, error) {
	ids := make([]string, 0, len(r.employees))
	for id, emp := range r.employees {
		if emp.EmploymentStatus == employee.EmploymentStatusActive {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	return ids, nil
}

type fakePolicyRepo struct {
	policies map[string]leave.LeavePolicy
}

func (r *fakePolicyRepo) GetByID(ctx context.Context, id string) (leave.LeavePolicy, error) {
	p, ok := r.policies[id]
	if !ok {
		return leave.LeavePolicy{}, leave.ErrLeavePolicyNotFound
	}
	return p, nil
}

func (r *fakePolicyRepo) GetByCompanyID(ctx context.Context, companyID string) ([]leave.LeavePolicy, error) {
	var out []leave.LeavePolicy
	for _, p := range r.policies {
		if p.CompanyID == companyID {
			out = append(out, p)
		}
	}
	return out, nil
}

type fakeBalanceRepo struct {
	mu       sync.Mutex
	balances map[string]leave.LeaveBalance
}

func newFakeBalanceRepo() *fakeBalanceRepo {
	return &fakeBalanceRepo{balances: make(map[string]leave.LeaveBalance)}
}

func (r *fakeBalanceRepo) Create(ctx context.Context, b leave.LeaveBalance) (leave.LeaveBalance, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.balances {
		if existing.EmployeeID == b.EmployeeID && existing.PolicyID == b.PolicyID && existing.Year == b.Year {
			return leave.LeaveBalance{}, leave.ErrLeaveBalanceExists
		}
	}
	b.Available = b.ComputeAvailable()
	r.balances[b.ID] = b
	return b, nil
}

func (r *fakeBalanceRepo) GetByEmployeePolicyYear(ctx context.Context, employeeID, policyID string, year int) (leave.LeaveBalance, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, b := range r.balances {
		if b.EmployeeID == employeeID && b.PolicyID == policyID && b.Year == year {
			return b, nil
		}
	}
	return leave.LeaveBalance{}, leave.ErrLeaveBalanceNotFound
}

func (r *fakeBalanceRepo) GetByEmployeeYear(ctx context.Context, employeeID string, year int) ([]leave.LeaveBalance, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []leave.LeaveBalance
	for _, b := range r.balances {
		if b.EmployeeID == employeeID && b.Year == year {
			out = append(out, b)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].PolicyID < out[j].PolicyID })
	return out, nil
}

func (r *fakeBalanceRepo) ApplyDelta(ctx context.Context, id string, delta leave.BalanceDelta) (leave.LeaveBalance, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	b, ok := r.balances[id]
	if !ok {
		return leave.LeaveBalance{}, leave.ErrLeaveBalanceNotFound
	}
	next, err := delta.Apply(b)
	if err != nil {
		return leave.LeaveBalance{}, err
	}
	r.balances[id] = next
	return next, nil
}

func (r *fakeBalanceRepo) SetCarriedForward(ctx context.Context, id string, amount decimal.Decimal) (leave.LeaveBalance, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	b, ok := r.balances[id]
	if !ok {
		return leave.LeaveBalance{}, leave.ErrLeaveBalanceNotFound
	}
	b.CarriedForward = amount
	b.Available = b.ComputeAvailable()
	r.balances[id] = b
	return b, nil
}

func (r *fakeBalanceRepo) RaiseAllocated(ctx context.Context, id string, amount decimal.Decimal) (leave.LeaveBalance, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	b, ok := r.balances[id]
	if !ok {
		return leave.LeaveBalance{}, leave.ErrLeaveBalanceNotFound
	}
	b.Allocated = decimal.Max(b.Allocated, amount)
	b.Available = b.ComputeAvailable()
	r.balances[id] = b
	return b, nil
}

func (r *fakeBalanceRepo) get(employeeID, policyID string, year int) (leave.LeaveBalance, bool) {
	b, err := r.GetByEmployeePolicyYear(context.Background(), employeeID, policyID, year)
	return b, err == nil
}

type fakeRequestRepo struct {
	mu       sync.Mutex
	requests map[string]leave.LeaveRequest
}

func newFakeRequestRepo() *fakeRequestRepo {
	return &fakeRequestRepo{requests: make(map[string]leave.LeaveRequest)}
}

func (r *fakeRequestRepo) Create(ctx context.Context, req leave.LeaveRequest) (leave.LeaveRequest, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.requests[req.ID] = req
	return req, nil
}

func (r *fakeRequestRepo) GetByID(ctx context.Context, id string) (leave.LeaveRequest, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	req, ok := r.requests[id]
	if !ok {
		return leave.LeaveRequest{}, leave.ErrLeaveRequestNotFound
	}
	return req, nil
}

func (r *fakeRequestRepo) TransitionStatus(ctx context.Context, id string, from, to leave.LeaveRequestStatus, decidedBy *string, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	req, ok := r.requests[id]
	if !ok || req.Status != from {
		return leave.ErrLeaveRequestAlreadyProcessed
	}
	req.Status = to
	req.DecidedBy = decidedBy
	req.DecidedAt = &at
	r.requests[id] = req
	return nil
}

func (r *fakeRequestRepo) GetOverlapping(ctx context.Context, employeeID string, start, end time.Time, statuses []leave.LeaveRequestStatus) ([]leave.LeaveRequest, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	want := utils.DateRange{Start: start, End: end}
	var out []leave.LeaveRequest
	for _, req := range r.requests {
		if req.EmployeeID != employeeID {
			continue
		}
		match := false
		for _, s := range statuses {
			if req.Status == s {
				match = true
			}
		}
		if match && want.Overlaps(utils.DateRange{Start: req.StartDate, End: req.EndDate}) {
			out = append(out, req)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartDate.Before(out[j].StartDate) })
	return out, nil
}
