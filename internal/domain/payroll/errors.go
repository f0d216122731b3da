package payroll

import (
	"errors"
	"fmt"
)

var (
	ErrSalaryStructureNotFound = errors.New("salary structure not found")
	ErrPayComponentNotFound    = errors.New("pay component not found")
	ErrInvalidPeriod           = errors.New("invalid payroll period")
	ErrInvalidStructure        = errors.New("invalid salary structure")
	ErrInvalidStatutoryConfig  = errors.New("invalid statutory configuration")
	ErrCircularDependency      = errors.New("circular dependency")
	ErrMissingDependency       = errors.New("missing required dependency")
	ErrNotEffective            = errors.New("component not effective in pay period")
	ErrMissingConfiguration    = errors.New("missing component configuration")
	ErrInvalidFormula          = errors.New("invalid formula")
)

// ComponentError is a failure confined to one component of a pay run.
type ComponentError struct {
	Code string
	Err  error
}

func (e *ComponentError) Error() string {
	return fmt.Sprintf("component %s: %v", e.Code, e.Err)
}

func (e *ComponentError) Unwrap() error {
	return e.Err
}
