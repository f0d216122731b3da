package payroll

import (
	"context"

	"github.com/cmlabs-hris/hris-core-go/internal/pkg/utils"
)

type SalaryStructureRepository interface {
	// GetByID returns the structure with its components and their pay component rows joined,
	// ordered by the configured order
	GetByID(ctx context.Context, id string) (SalaryStructure, error)
}

// CalculationContextProvider supplies attendance figures for a pay period.
type CalculationContextProvider interface {
	GetCalculationContext(ctx context.Context, employeeID string, period utils.DateRange) (CalculationContext, error)
}
