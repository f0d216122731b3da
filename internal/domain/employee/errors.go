package employee

import "errors"

var (
	ErrEmployeeNotFound   = errors.New("employee not found")
	ErrMissingJoiningDate = errors.New("employee has no joining date")
	ErrNoSalaryStructure  = errors.New("employee has no salary structure assigned")
	ErrMissingCTC         = errors.New("employee has no CTC configured")
	ErrUnauthorized       = errors.New("unauthorized to access this employee")
)
