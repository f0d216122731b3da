package attendance

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

type WorkSiteRepository interface {
	// GetActiveSitesByEmployeeID returns the sites the employee is actively assigned to
	GetActiveSitesByEmployeeID(ctx context.Context, employeeID string) ([]WorkSite, error)
}

type CheckInPointRepository interface {
	Create(ctx context.Context, point CheckInPoint) (CheckInPoint, error)

	// ListByEmployeeDate returns the day's points ordered by timestamp, then insertion order
	ListByEmployeeDate(ctx context.Context, employeeID string, date time.Time) ([]CheckInPoint, error)

	// UpdateMeasurement overwrites distance, duration and method of a stored point
	UpdateMeasurement(ctx context.Context, id string, distance *decimal.Decimal, duration *int64, method CalculationMethod) error
}

// DailyDistanceRepository stores the per (employee, date) aggregate and its anomalies.
// LockDay must be called inside a transaction; the lock is released on commit or rollback.
type DailyDistanceRepository interface {
	LockDay(ctx context.Context, employeeID string, date time.Time) error
	Upsert(ctx context.Context, record DailyDistanceRecord) (DailyDistanceRecord, error)
	GetByEmployeeDate(ctx context.Context, employeeID string, date time.Time) (DailyDistanceRecord, error)

	// AppendAnomalies inserts anomalies, skipping any already stored for the same point and type
	AppendAnomalies(ctx context.Context, anomalies []DistanceAnomaly) error
	ListAnomalies(ctx context.Context, employeeID string, date time.Time) ([]DistanceAnomaly, error)
}
