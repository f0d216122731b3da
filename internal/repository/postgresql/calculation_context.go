package postgresql

import (
	"context"
	"fmt"

	"github.com/cmlabs-hris/hris-core-go/internal/domain/payroll"
	"github.com/cmlabs-hris/hris-core-go/internal/pkg/database"
	"github.com/cmlabs-hris/hris-core-go/internal/pkg/utils"
	"github.com/shopspring/decimal"
)

type calculationContextProviderImpl struct {
	db *database.DB
}

// NewCalculationContextProvider derives pay period attendance from stored
// check-ins. Working days are the weekdays of the period and a present day is
// a working day with at least one check-in.
func NewCalculationContextProvider(db *database.DB) payroll.CalculationContextProvider {
	return &calculationContextProviderImpl{db: db}
}

// GetCalculationContext implements payroll.CalculationContextProvider.
func (r *calculationContextProviderImpl) GetCalculationContext(ctx context.Context, employeeID string, period utils.DateRange) (payroll.CalculationContext, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		WITH working AS (
			SELECT d::date AS day
			FROM generate_series($2::date, $3::date, INTERVAL '1 day') AS d
			WHERE EXTRACT(ISODOW FROM d) < 6
		)
		SELECT
			(SELECT COUNT(*) FROM working) AS working_days,
			(SELECT COUNT(DISTINCT p.date)
			 FROM check_in_points p
			 JOIN working w ON w.day = p.date
			 WHERE p.employee_id = $1) AS present_days
	`

	var working, present int64
	if err := q.QueryRow(ctx, query, employeeID, period.Start, period.End).Scan(&working, &present); err != nil {
		return payroll.CalculationContext{}, fmt.Errorf("failed to derive calculation context for employee %s: %w", employeeID, err)
	}

	return payroll.CalculationContext{
		EmployeeID:    employeeID,
		PeriodStart:   period.Start,
		PeriodEnd:     period.End,
		WorkingDays:   decimal.NewFromInt(working),
		PresentDays:   decimal.NewFromInt(present),
		OvertimeHours: decimal.Zero,
	}, nil
}
