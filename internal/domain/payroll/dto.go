package payroll

import (
	"time"

	"github.com/cmlabs-hris/hris-core-go/internal/pkg/utils"
	"github.com/cmlabs-hris/hris-core-go/internal/pkg/validator"
	"github.com/shopspring/decimal"
)

// ========== CALCULATION DTOs ==========

type CalculatePayrollRequest struct {
	EmployeeID  string `json:"employee_id"`
	PeriodMonth int    `json:"period_month"`
	PeriodYear  int    `json:"period_year"`

	// Optional overrides for the attendance figures of the period
	WorkingDays   *decimal.Decimal `json:"working_days,omitempty"`
	PresentDays   *decimal.Decimal `json:"present_days,omitempty"`
	OvertimeHours *decimal.Decimal `json:"overtime_hours,omitempty"`
}

func (r *CalculatePayrollRequest) Validate() error {
	var errs validator.ValidationErrors

	if validator.IsEmpty(r.EmployeeID) {
		errs = append(errs, validator.ValidationError{Field: "employee_id", Message: "is required"})
	}
	if r.PeriodMonth < 1 || r.PeriodMonth > 12 {
		errs = append(errs, validator.ValidationError{Field: "period_month", Message: "must be between 1 and 12"})
	}
	if r.PeriodYear < 2020 {
		errs = append(errs, validator.ValidationError{Field: "period_year", Message: "must be 2020 or later"})
	}
	if r.WorkingDays != nil && r.WorkingDays.IsNegative() {
		errs = append(errs, validator.ValidationError{Field: "working_days", Message: "must be non-negative"})
	}
	if r.PresentDays != nil && r.PresentDays.IsNegative() {
		errs = append(errs, validator.ValidationError{Field: "present_days", Message: "must be non-negative"})
	}
	if r.WorkingDays != nil && r.PresentDays != nil && r.PresentDays.GreaterThan(*r.WorkingDays) {
		errs = append(errs, validator.ValidationError{Field: "present_days", Message: "must not exceed working_days"})
	}
	if r.OvertimeHours != nil && r.OvertimeHours.IsNegative() {
		errs = append(errs, validator.ValidationError{Field: "overtime_hours", Message: "must be non-negative"})
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

// Period returns the calendar month being paid. Call Validate first.
func (r *CalculatePayrollRequest) Period() utils.DateRange {
	start := time.Date(r.PeriodYear, time.Month(r.PeriodMonth), 1, 0, 0, 0, 0, time.UTC)
	return utils.DateRange{Start: start, End: start.AddDate(0, 1, -1)}
}

type StatutoryRequest struct {
	BasicSalary decimal.Decimal `json:"basic_salary"`
	GrossSalary decimal.Decimal `json:"gross_salary"`
}

func (r *StatutoryRequest) Validate() error {
	var errs validator.ValidationErrors

	if !validator.IsNonNegative(r.BasicSalary) {
		errs = append(errs, validator.ValidationError{Field: "basic_salary", Message: "must be non-negative"})
	}
	if !validator.IsNonNegative(r.GrossSalary) {
		errs = append(errs, validator.ValidationError{Field: "gross_salary", Message: "must be non-negative"})
	}
	if r.BasicSalary.GreaterThan(r.GrossSalary) {
		errs = append(errs, validator.ValidationError{Field: "basic_salary", Message: "must not exceed gross_salary"})
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

type ComponentResultResponse struct {
	ComponentID        string             `json:"component_id"`
	Code               string             `json:"code"`
	Name               string             `json:"name"`
	Type               string             `json:"type"`
	BaseValue          decimal.Decimal    `json:"base_value"`
	CalculatedValue    decimal.Decimal    `json:"calculated_value"`
	IsProrated         bool               `json:"is_prorated"`
	CalculationDetails CalculationDetails `json:"calculation_details"`
}

type StatutoryDeductionsResponse struct {
	PF    decimal.Decimal `json:"pf"`
	ESI   decimal.Decimal `json:"esi"`
	TDS   decimal.Decimal `json:"tds"`
	PT    decimal.Decimal `json:"pt"`
	Total decimal.Decimal `json:"total"`
}

func NewStatutoryDeductionsResponse(s StatutoryDeductions) StatutoryDeductionsResponse {
	return StatutoryDeductionsResponse{
		PF:    s.PF,
		ESI:   s.ESI,
		TDS:   s.TDS,
		PT:    s.PT,
		Total: s.Total(),
	}
}

type PayrollCalculationResponse struct {
	EmployeeID      string                      `json:"employee_id"`
	StructureID     string                      `json:"structure_id"`
	PeriodStart     string                      `json:"period_start"`
	PeriodEnd       string                      `json:"period_end"`
	MonthlyCTC      decimal.Decimal             `json:"monthly_ctc"`
	Components      []ComponentResultResponse   `json:"components"`
	BasicSalary     decimal.Decimal             `json:"basic_salary"`
	GrossEarnings   decimal.Decimal             `json:"gross_earnings"`
	TotalDeductions decimal.Decimal             `json:"total_deductions"`
	NetPay          decimal.Decimal             `json:"net_pay"`
	Statutory       StatutoryDeductionsResponse `json:"statutory"`
	FailedCount     int                         `json:"failed_count"`
}

func NewPayrollCalculationResponse(c PayrollCalculation) PayrollCalculationResponse {
	components := make([]ComponentResultResponse, 0, len(c.Components))
	for _, r := range c.Components {
		components = append(components, ComponentResultResponse{
			ComponentID:        r.ComponentID,
			Code:               r.Code,
			Name:               r.Name,
			Type:               string(r.Type),
			BaseValue:          r.BaseValue,
			CalculatedValue:    r.CalculatedValue,
			IsProrated:         r.IsProrated,
			CalculationDetails: r.CalculationDetails,
		})
	}

	return PayrollCalculationResponse{
		EmployeeID:      c.EmployeeID,
		StructureID:     c.StructureID,
		PeriodStart:     c.PeriodStart.Format(validator.DateLayout),
		PeriodEnd:       c.PeriodEnd.Format(validator.DateLayout),
		MonthlyCTC:      c.MonthlyCTC,
		Components:      components,
		BasicSalary:     c.BasicSalary,
		GrossEarnings:   c.GrossEarnings,
		TotalDeductions: c.TotalDeductions,
		NetPay:          c.NetPay,
		Statutory:       NewStatutoryDeductionsResponse(c.Statutory),
		FailedCount:     c.FailedCount,
	}
}
