package leave

import (
	"fmt"
	"time"

	"github.com/cmlabs-hris/hris-core-go/internal/domain/employee"
	"github.com/cmlabs-hris/hris-core-go/internal/domain/leave"
	"github.com/cmlabs-hris/hris-core-go/internal/pkg/utils"
	"github.com/cmlabs-hris/hris-core-go/internal/pkg/validator"
	"github.com/shopspring/decimal"
)

var (
	monthsPerYear   = decimal.NewFromInt(12)
	quartersPerYear = decimal.NewFromInt(4)
)

// AccrualCalculator computes earned leave days under a policy. It is
// stateless and safe for concurrent use.
type AccrualCalculator struct{}

func NewAccrualCalculator() *AccrualCalculator {
	return &AccrualCalculator{}
}

// CalculateAccrual returns the whole days emp has earned under policy as of
// asOf within asOf's policy year. The result is never negative.
func (c *AccrualCalculator) CalculateAccrual(emp employee.Employee, policy leave.LeavePolicy, asOf time.Time) (decimal.Decimal, error) {
	joining := emp.JoiningDate()
	if joining == nil {
		return decimal.Zero, validator.ValidationErrors{{
			Field:   "joining_date",
			Message: fmt.Sprintf("employee %s has no joining date", emp.ID),
		}}
	}
	if !policy.AccrualType.IsValid() {
		return decimal.Zero, fmt.Errorf("%w: %q", leave.ErrInvalidAccrualType, policy.AccrualType)
	}
	if policy.DaysPerYear.IsNegative() {
		return decimal.Zero, validator.ValidationErrors{{
			Field:   "days_per_year",
			Message: "days_per_year must not be negative",
		}}
	}

	asOfDay := time.Date(asOf.Year(), asOf.Month(), asOf.Day(), 0, 0, 0, 0, time.UTC)
	if asOfDay.Before(*joining) {
		return decimal.Zero, nil
	}

	// Probation blocks every accrual type.
	if policy.ProbationPeriodDays != nil && *policy.ProbationPeriodDays > 0 {
		if asOfDay.Before(joining.AddDate(0, 0, *policy.ProbationPeriodDays)) {
			return decimal.Zero, nil
		}
	}

	accrualStart := time.Date(asOfDay.Year(), time.January, 1, 0, 0, 0, 0, time.UTC)
	if joining.After(accrualStart) {
		accrualStart = *joining
	}

	var days decimal.Decimal
	switch policy.AccrualType {
	case leave.AccrualTypeAnnual:
		days = policy.DaysPerYear

	case leave.AccrualTypeMonthly:
		months := utils.MonthsBetween(accrualStart, asOfDay)
		days = monthlyRate(policy).Mul(decimal.NewFromInt(int64(months)))

	case leave.AccrualTypeQuarterly:
		quarters := utils.MonthsBetween(accrualStart, asOfDay) / 3
		days = policy.DaysPerYear.Div(quartersPerYear).Mul(decimal.NewFromInt(int64(quarters)))

	case leave.AccrualTypeOnJoining:
		days = policy.DaysPerYear
		if joining.Year() == asOfDay.Year() {
			worked := utils.DateRange{
				Start: *joining,
				End:   time.Date(asOfDay.Year(), time.December, 31, 0, 0, 0, 0, time.UTC),
			}
			days = decimal.NewFromInt(int64(worked.Days())).
				Mul(policy.DaysPerYear).
				Div(decimal.NewFromInt(int64(utils.DaysInYear(asOfDay.Year()))))
		}
	}

	days = days.Floor()
	if days.IsNegative() {
		return decimal.Zero, nil
	}
	return days, nil
}

func monthlyRate(policy leave.LeavePolicy) decimal.Decimal {
	if policy.AccrualRate != nil {
		return *policy.AccrualRate
	}
	return policy.DaysPerYear.Div(monthsPerYear)
}
