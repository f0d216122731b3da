package employee

import "context"

type EmployeeRepository interface {
	GetByID(ctx context.Context, id string) (Employee, error)
	GetByUserID(ctx context.Context, userID string) (Employee, error)
	// ListActiveIDs returns the ids of every non-deleted active employee.
	ListActiveIDs(ctx context.Context) ([]string, error)
}
