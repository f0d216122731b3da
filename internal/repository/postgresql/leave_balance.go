package postgresql

import (
	"context"
	"errors"
	"fmt"

	"github.com/cmlabs-hris/hris-core-go/internal/domain/leave"
	"github.com/cmlabs-hris/hris-core-go/internal/pkg/database"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

type leaveBalanceRepositoryImpl struct {
	db *database.DB
}

func NewLeaveBalanceRepository(db *database.DB) leave.LeaveBalanceRepository {
	return &leaveBalanceRepositoryImpl{db: db}
}

const leaveBalanceColumns = `
	id, employee_id, policy_id, year, allocated, used, pending, carried_forward,
	encashed, expired, available, created_at, updated_at
`

func scanLeaveBalance(row pgx.Row) (leave.LeaveBalance, error) {
	var b leave.LeaveBalance
	err := row.Scan(
		&b.ID, &b.EmployeeID, &b.PolicyID, &b.Year, &b.Allocated, &b.Used, &b.Pending, &b.CarriedForward,
		&b.Encashed, &b.Expired, &b.Available, &b.CreatedAt, &b.UpdatedAt,
	)
	return b, err
}

// Create implements leave.LeaveBalanceRepository.
func (r *leaveBalanceRepositoryImpl) Create(ctx context.Context, balance leave.LeaveBalance) (leave.LeaveBalance, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		INSERT INTO leave_balances (
			id, employee_id, policy_id, year, allocated, used, pending, carried_forward,
			encashed, expired, available
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING ` + leaveBalanceColumns

	created, err := scanLeaveBalance(q.QueryRow(ctx, query,
		balance.ID, balance.EmployeeID, balance.PolicyID, balance.Year,
		balance.Allocated, balance.Used, balance.Pending, balance.CarriedForward,
		balance.Encashed, balance.Expired, balance.ComputeAvailable(),
	))
	if err != nil {
		if hasPgCode(err, pgUniqueViolation) {
			return leave.LeaveBalance{}, leave.ErrLeaveBalanceExists
		}
		return leave.LeaveBalance{}, fmt.Errorf("failed to create leave balance: %w", err)
	}
	return created, nil
}

// GetByEmployeePolicyYear implements leave.LeaveBalanceRepository.
func (r *leaveBalanceRepositoryImpl) GetByEmployeePolicyYear(ctx context.Context, employeeID, policyID string, year int) (leave.LeaveBalance, error) {
	q := GetQuerier(ctx, r.db)

	query := `SELECT ` + leaveBalanceColumns + `
		FROM leave_balances
		WHERE employee_id = $1 AND policy_id = $2 AND year = $3
	`

	balance, err := scanLeaveBalance(q.QueryRow(ctx, query, employeeID, policyID, year))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return leave.LeaveBalance{}, leave.ErrLeaveBalanceNotFound
		}
		return leave.LeaveBalance{}, fmt.Errorf("failed to get leave balance: %w", err)
	}
	return balance, nil
}

// GetByEmployeeYear implements leave.LeaveBalanceRepository.
func (r *leaveBalanceRepositoryImpl) GetByEmployeeYear(ctx context.Context, employeeID string, year int) ([]leave.LeaveBalance, error) {
	q := GetQuerier(ctx, r.db)

	query := `SELECT ` + leaveBalanceColumns + `
		FROM leave_balances
		WHERE employee_id = $1 AND year = $2
		ORDER BY policy_id
	`

	rows, err := q.Query(ctx, query, employeeID, year)
	if err != nil {
		return nil, fmt.Errorf("failed to list leave balances: %w", err)
	}
	defer rows.Close()

	balances := make([]leave.LeaveBalance, 0)
	for rows.Next() {
		balance, err := scanLeaveBalance(rows)
		if err != nil {
			return nil, err
		}
		balances = append(balances, balance)
	}

	return balances, rows.Err()
}

// ApplyDelta implements leave.LeaveBalanceRepository. The guards live in the
// WHERE clause so two concurrent transitions can never both pass on a stale
// read; the loser matches no row and gets ErrBalanceConflict.
func (r *leaveBalanceRepositoryImpl) ApplyDelta(ctx context.Context, id string, delta leave.BalanceDelta) (leave.LeaveBalance, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		UPDATE leave_balances
		SET allocated       = allocated + $2,
			used            = used + $3,
			pending         = pending + $4,
			carried_forward = carried_forward + $5,
			expired         = expired + $6,
			available       = (allocated + $2) + (carried_forward + $5) - (used + $3) - (pending + $4) - (expired + $6),
			updated_at      = NOW()
		WHERE id = $1
			AND used + $3 >= 0
			AND pending + $4 >= 0
			AND carried_forward + $5 >= 0
			AND expired + $6 >= 0
			AND (NOT $7::boolean
				OR (allocated + $2) + (carried_forward + $5) - (used + $3) - (pending + $4) - (expired + $6) >= 0)
		RETURNING ` + leaveBalanceColumns

	balance, err := scanLeaveBalance(q.QueryRow(ctx, query,
		id, delta.Allocated, delta.Used, delta.Pending, delta.CarriedForward, delta.Expired, delta.RequireAvailable,
	))
	if err == nil {
		return balance, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return leave.LeaveBalance{}, fmt.Errorf("failed to update leave balance %s: %w", id, err)
	}

	exists, err := r.exists(ctx, q, id)
	if err != nil {
		return leave.LeaveBalance{}, err
	}
	if !exists {
		return leave.LeaveBalance{}, leave.ErrLeaveBalanceNotFound
	}
	return leave.LeaveBalance{}, leave.ErrBalanceConflict
}

// SetCarriedForward implements leave.LeaveBalanceRepository.
func (r *leaveBalanceRepositoryImpl) SetCarriedForward(ctx context.Context, id string, amount decimal.Decimal) (leave.LeaveBalance, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		UPDATE leave_balances
		SET carried_forward = $2,
			available       = allocated + $2 - used - pending - expired,
			updated_at      = NOW()
		WHERE id = $1
		RETURNING ` + leaveBalanceColumns

	balance, err := scanLeaveBalance(q.QueryRow(ctx, query, id, amount))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return leave.LeaveBalance{}, leave.ErrLeaveBalanceNotFound
		}
		return leave.LeaveBalance{}, fmt.Errorf("failed to set carried forward on leave balance %s: %w", id, err)
	}
	return balance, nil
}

// RaiseAllocated implements leave.LeaveBalanceRepository.
func (r *leaveBalanceRepositoryImpl) RaiseAllocated(ctx context.Context, id string, amount decimal.Decimal) (leave.LeaveBalance, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		UPDATE leave_balances
		SET allocated  = GREATEST(allocated, $2),
			available  = GREATEST(allocated, $2) + carried_forward - used - pending - expired,
			updated_at = NOW()
		WHERE id = $1
		RETURNING ` + leaveBalanceColumns

	balance, err := scanLeaveBalance(q.QueryRow(ctx, query, id, amount))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return leave.LeaveBalance{}, leave.ErrLeaveBalanceNotFound
		}
		return leave.LeaveBalance{}, fmt.Errorf("failed to raise allocation on leave balance %s: %w", id, err)
	}
	return balance, nil
}

func (r *leaveBalanceRepositoryImpl) exists(ctx context.Context, q database.Querier, id string) (bool, error) {
	var exists bool
	if err := q.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM leave_balances WHERE id = $1)`, id).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check leave balance %s: %w", id, err)
	}
	return exists, nil
}
