package payroll

import (
	"context"

	"github.com/shopspring/decimal"
)

type PayrollService interface {
	// CalculateForEmployee runs the employee's salary structure for one month
	CalculateForEmployee(ctx context.Context, req CalculatePayrollRequest) (PayrollCalculation, error)

	// ValidateStructure reports dependency cycles and unknown references in a stored structure
	ValidateStructure(ctx context.Context, structureID string) error

	// CalculateStatutory returns the statutory deductions for the given monthly basic and gross
	CalculateStatutory(ctx context.Context, req StatutoryRequest) (StatutoryDeductions, error)
}

// Calculator evaluates salary structures. Implementations perform no I/O.
type Calculator interface {
	CalculateAllComponents(employeeID string, structure SalaryStructure, ctc decimal.Decimal, cc CalculationContext) []ComponentCalculationResult
	CalculateStatutoryDeductions(basicSalary, grossSalary decimal.Decimal) StatutoryDeductions
}
