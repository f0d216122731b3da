package attendance

import (
	"fmt"
	"time"

	"github.com/cmlabs-hris/hris-core-go/internal/pkg/geo"
	"github.com/shopspring/decimal"
)

type CalculationMethod string

const (
	CalculationMethodHaversine   CalculationMethod = "HAVERSINE"
	CalculationMethodExternalAPI CalculationMethod = "EXTERNAL_API"
)

type AnomalyType string

const (
	AnomalyExcessiveSpeed     AnomalyType = "EXCESSIVE_SPEED"
	AnomalyImpossibleDistance AnomalyType = "IMPOSSIBLE_DISTANCE"
	AnomalyLocationJump       AnomalyType = "LOCATION_JUMP"
	AnomalyMissingRoute       AnomalyType = "MISSING_ROUTE"
)

type Severity string

const (
	SeverityLow    Severity = "LOW"
	SeverityMedium Severity = "MEDIUM"
	SeverityHigh   Severity = "HIGH"
)

type WorkSite struct {
	ID           string
	CompanyID    string
	Name         string
	Address      string
	Center       geo.GPSPoint
	RadiusMeters float64
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

type EmployeeLocationAssignment struct {
	EmployeeID string
	SiteID     string
	IsActive   bool
	Site       WorkSite
}

// CheckInPoint is one check-in event. Date is the calendar day the point
// belongs to, stored as UTC midnight.
type CheckInPoint struct {
	ID                   string
	EmployeeID           string
	Date                 time.Time
	Timestamp            time.Time
	Location             geo.GPSPoint
	SiteID               *string
	DistanceFromPrevious *decimal.Decimal // meters
	DurationFromPrevious *int64           // seconds
	CalculationMethod    CalculationMethod
	CreatedAt            time.Time
}

// Distance returns the stored distance from the previous point, or zero.
func (p CheckInPoint) Distance() decimal.Decimal {
	if p.DistanceFromPrevious == nil {
		return decimal.Zero
	}
	return *p.DistanceFromPrevious
}

// Duration returns the stored travel time from the previous point, or zero.
func (p CheckInPoint) Duration() int64 {
	if p.DurationFromPrevious == nil {
		return 0
	}
	return *p.DurationFromPrevious
}

type DailyDistanceRecord struct {
	ID            string
	EmployeeID    string
	Date          time.Time
	TotalDistance decimal.Decimal // meters
	TotalDuration int64           // seconds
	CheckInCount  int
	IsValidated   bool
	Anomalies     []DistanceAnomaly
}

// DistanceAnomaly is an audit fact. Rows are inserted once and never updated.
type DistanceAnomaly struct {
	ID             string
	EmployeeID     string
	Date           time.Time
	Type           AnomalyType
	Severity       Severity
	CheckInPointID string
	Description    string
	DetectedAt     time.Time
}

// Key identifies an anomaly for duplicate suppression.
func (a DistanceAnomaly) Key() string {
	return a.CheckInPointID + "|" + string(a.Type)
}

// AnomalyConfig holds the plausibility thresholds used by anomaly detection.
type AnomalyConfig struct {
	MinTimeGap               time.Duration
	MaxSpeedKmh              float64
	HighSeverityFactor       float64
	ImpossibleDistanceFactor float64
	LocationJumpKm           float64
	LocationJumpWindow       time.Duration
	MaxDailyDistanceKm       float64
	FlagMissingRoute         bool
}

func DefaultAnomalyConfig() AnomalyConfig {
	return AnomalyConfig{
		MinTimeGap:               5 * time.Minute,
		MaxSpeedKmh:              120,
		HighSeverityFactor:       1.5,
		ImpossibleDistanceFactor: 2,
		LocationJumpKm:           50,
		LocationJumpWindow:       30 * time.Minute,
		MaxDailyDistanceKm:       500,
	}
}

// Validate rejects thresholds that would make every or no pair anomalous.
func (c AnomalyConfig) Validate() error {
	switch {
	case c.MinTimeGap < 0:
		return fmt.Errorf("%w: min time gap must not be negative", ErrInvalidAnomalyConfig)
	case c.MaxSpeedKmh <= 0:
		return fmt.Errorf("%w: max speed must be positive", ErrInvalidAnomalyConfig)
	case c.HighSeverityFactor < 1:
		return fmt.Errorf("%w: high severity factor must be at least 1", ErrInvalidAnomalyConfig)
	case c.ImpossibleDistanceFactor < 1:
		return fmt.Errorf("%w: impossible distance factor must be at least 1", ErrInvalidAnomalyConfig)
	case c.LocationJumpKm <= 0 || c.LocationJumpWindow < 0:
		return fmt.Errorf("%w: location jump thresholds must be positive", ErrInvalidAnomalyConfig)
	case c.MaxDailyDistanceKm <= 0:
		return fmt.Errorf("%w: max daily distance must be positive", ErrInvalidAnomalyConfig)
	}
	return nil
}

// GeofenceResult is the verdict for one reported location. NearestSite and
// DistanceFromNearest are nil when the employee has no active sites.
type GeofenceResult struct {
	IsValid             bool
	MatchedSite         *WorkSite // site whose radius accepted the point
	NearestSite         *WorkSite
	DistanceFromNearest *int64 // whole meters
}
