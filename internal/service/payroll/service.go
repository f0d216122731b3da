package payroll

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/cmlabs-hris/hris-core-go/internal/domain/employee"
	"github.com/cmlabs-hris/hris-core-go/internal/domain/payroll"
	"github.com/shopspring/decimal"
)

type PayrollServiceImpl struct {
	employee.EmployeeRepository
	payroll.SalaryStructureRepository
	payroll.CalculationContextProvider
	calculator payroll.Calculator
}

func NewPayrollService(
	employeeRepository employee.EmployeeRepository,
	structureRepository payroll.SalaryStructureRepository,
	contextProvider payroll.CalculationContextProvider,
	calculator payroll.Calculator,
) payroll.PayrollService {
	return &PayrollServiceImpl{
		EmployeeRepository:         employeeRepository,
		SalaryStructureRepository:  structureRepository,
		CalculationContextProvider: contextProvider,
		calculator:                 calculator,
	}
}

// CalculateForEmployee implements payroll.PayrollService.
func (s *PayrollServiceImpl) CalculateForEmployee(ctx context.Context, req payroll.CalculatePayrollRequest) (payroll.PayrollCalculation, error) {
	if err := req.Validate(); err != nil {
		return payroll.PayrollCalculation{}, err
	}

	emp, err := s.EmployeeRepository.GetByID(ctx, req.EmployeeID)
	if err != nil {
		return payroll.PayrollCalculation{}, fmt.Errorf("failed to get employee: %w", err)
	}
	if emp.SalaryStructureID == nil || *emp.SalaryStructureID == "" {
		return payroll.PayrollCalculation{}, employee.ErrNoSalaryStructure
	}
	if emp.AnnualCTC == nil || !emp.AnnualCTC.IsPositive() {
		return payroll.PayrollCalculation{}, employee.ErrMissingCTC
	}

	structure, err := s.SalaryStructureRepository.GetByID(ctx, *emp.SalaryStructureID)
	if err != nil {
		return payroll.PayrollCalculation{}, fmt.Errorf("failed to get salary structure: %w", err)
	}
	if structure.CompanyID != emp.CompanyID {
		return payroll.PayrollCalculation{}, payroll.ErrSalaryStructureNotFound
	}
	if !structure.IsActive {
		return payroll.PayrollCalculation{}, fmt.Errorf("%w: structure %s is inactive", payroll.ErrInvalidStructure, structure.ID)
	}

	period := req.Period()
	cc, err := s.CalculationContextProvider.GetCalculationContext(ctx, emp.ID, period)
	if err != nil {
		return payroll.PayrollCalculation{}, fmt.Errorf("failed to get calculation context: %w", err)
	}
	cc.EmployeeID = emp.ID
	cc.PeriodStart = period.Start
	cc.PeriodEnd = period.End
	if req.WorkingDays != nil {
		cc.WorkingDays = *req.WorkingDays
	}
	if req.PresentDays != nil {
		cc.PresentDays = *req.PresentDays
	}
	if req.OvertimeHours != nil {
		cc.OvertimeHours = *req.OvertimeHours
	}

	results := s.calculator.CalculateAllComponents(emp.ID, structure, *emp.AnnualCTC, cc)

	calculation := payroll.PayrollCalculation{
		EmployeeID:      emp.ID,
		StructureID:     structure.ID,
		PeriodStart:     period.Start,
		PeriodEnd:       period.End,
		MonthlyCTC:      emp.AnnualCTC.Div(monthsPerYear).Round(2),
		Components:      results,
		BasicSalary:     decimal.Zero,
		GrossEarnings:   decimal.Zero,
		TotalDeductions: decimal.Zero,
	}
	for _, r := range results {
		if r.Failed() {
			calculation.FailedCount++
			slog.Warn("pay component could not be calculated",
				"employee_id", emp.ID,
				"structure_id", structure.ID,
				"component", r.Code,
				"errors", r.CalculationDetails.ValidationErrors,
			)
		}
		switch r.Type {
		case payroll.ComponentTypeEarning:
			calculation.GrossEarnings = calculation.GrossEarnings.Add(r.CalculatedValue)
		case payroll.ComponentTypeDeduction:
			calculation.TotalDeductions = calculation.TotalDeductions.Add(r.CalculatedValue)
		}
		if r.Category == payroll.CategoryBasic {
			calculation.BasicSalary = calculation.BasicSalary.Add(r.CalculatedValue)
		}
	}
	calculation.NetPay = calculation.GrossEarnings.Sub(calculation.TotalDeductions)
	calculation.Statutory = s.calculator.CalculateStatutoryDeductions(calculation.BasicSalary, calculation.GrossEarnings)

	slog.Info("payroll calculated",
		"employee_id", emp.ID,
		"period", period.Start.Format("2006-01"),
		"gross", calculation.GrossEarnings.String(),
		"net", calculation.NetPay.String(),
		"failed_components", calculation.FailedCount,
	)

	return calculation, nil
}

// ValidateStructure implements payroll.PayrollService.
func (s *PayrollServiceImpl) ValidateStructure(ctx context.Context, structureID string) error {
	if structureID == "" {
		return payroll.ErrSalaryStructureNotFound
	}

	structure, err := s.SalaryStructureRepository.GetByID(ctx, structureID)
	if err != nil {
		if errors.Is(err, payroll.ErrSalaryStructureNotFound) {
			return err
		}
		return fmt.Errorf("failed to get salary structure: %w", err)
	}

	return ValidateStructure(structure)
}

// CalculateStatutory implements payroll.PayrollService.
func (s *PayrollServiceImpl) CalculateStatutory(ctx context.Context, req payroll.StatutoryRequest) (payroll.StatutoryDeductions, error) {
	if err := req.Validate(); err != nil {
		return payroll.StatutoryDeductions{}, err
	}
	return s.calculator.CalculateStatutoryDeductions(req.BasicSalary, req.GrossSalary), nil
}
