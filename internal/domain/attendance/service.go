package attendance

import (
	"context"
	"time"
)

// TrackingService records check-ins and maintains the daily distance aggregate
type TrackingService interface {
	// ValidateLocation checks a location against the employee's assigned work sites
	ValidateLocation(ctx context.Context, req ValidateLocationRequest) (GeofenceResult, error)

	// RecordCheckIn stores a check-in point and refreshes the day's aggregate
	RecordCheckIn(ctx context.Context, req RecordCheckInRequest) (CheckInResult, error)

	// Recalculate re-measures every point of the day and rebuilds the aggregate
	Recalculate(ctx context.Context, req RecalculateRequest) (DailyDistanceRecord, error)

	// GetDailyRecord returns the stored aggregate with its anomalies
	GetDailyRecord(ctx context.Context, employeeID string, date time.Time) (DailyDistanceRecord, error)
}
