package postgresql

import (
	"context"
	"errors"
	"fmt"

	"github.com/cmlabs-hris/hris-core-go/internal/domain/leave"
	"github.com/cmlabs-hris/hris-core-go/internal/pkg/database"
	"github.com/jackc/pgx/v5"
)

type leavePolicyRepositoryImpl struct {
	db *database.DB
}

func NewLeavePolicyRepository(db *database.DB) leave.LeavePolicyRepository {
	return &leavePolicyRepositoryImpl{db: db}
}

const leavePolicyColumns = `
	id, company_id, name, accrual_type, days_per_year, accrual_rate, probation_period_days,
	carry_forward, max_carry_forward, gender, allow_half_day, created_at, updated_at
`

func scanLeavePolicy(row pgx.Row) (leave.LeavePolicy, error) {
	var p leave.LeavePolicy
	err := row.Scan(
		&p.ID, &p.CompanyID, &p.Name, &p.AccrualType, &p.DaysPerYear, &p.AccrualRate, &p.ProbationPeriodDays,
		&p.CarryForward, &p.MaxCarryForward, &p.Gender, &p.AllowHalfDay, &p.CreatedAt, &p.UpdatedAt,
	)
	return p, err
}

// GetByID implements leave.LeavePolicyRepository.
func (r *leavePolicyRepositoryImpl) GetByID(ctx context.Context, id string) (leave.LeavePolicy, error) {
	q := GetQuerier(ctx, r.db)

	query := `SELECT ` + leavePolicyColumns + `
		FROM leave_policies
		WHERE id = $1
	`

	policy, err := scanLeavePolicy(q.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return leave.LeavePolicy{}, leave.ErrLeavePolicyNotFound
		}
		return leave.LeavePolicy{}, fmt.Errorf("failed to get leave policy with id %s: %w", id, err)
	}
	return policy, nil
}

// GetByCompanyID implements leave.LeavePolicyRepository.
func (r *leavePolicyRepositoryImpl) GetByCompanyID(ctx context.Context, companyID string) ([]leave.LeavePolicy, error) {
	q := GetQuerier(ctx, r.db)

	query := `SELECT ` + leavePolicyColumns + `
		FROM leave_policies
		WHERE company_id = $1
		ORDER BY name, id
	`

	rows, err := q.Query(ctx, query, companyID)
	if err != nil {
		return nil, fmt.Errorf("failed to list leave policies: %w", err)
	}
	defer rows.Close()

	policies := make([]leave.LeavePolicy, 0)
	for rows.Next() {
		policy, err := scanLeavePolicy(rows)
		if err != nil {
			return nil, err
		}
		policies = append(policies, policy)
	}

	return policies, rows.Err()
}
