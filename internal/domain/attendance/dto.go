package attendance

import (
	"time"

	"github.com/cmlabs-hris/hris-core-go/internal/pkg/geo"
	"github.com/cmlabs-hris/hris-core-go/internal/pkg/validator"
	"github.com/shopspring/decimal"
)

// ========================================
// CHECK-IN DTOs
// ========================================

type RecordCheckInRequest struct {
	EmployeeID string   `json:"employee_id"`
	Latitude   float64  `json:"latitude"`
	Longitude  float64  `json:"longitude"`
	Accuracy   *float64 `json:"accuracy,omitempty"`
	Timestamp  string   `json:"timestamp,omitempty"` // RFC3339, defaults to server time
	SiteID     *string  `json:"site_id,omitempty"`
}

func (r *RecordCheckInRequest) Validate() error {
	var errs validator.ValidationErrors

	if validator.IsEmpty(r.EmployeeID) {
		errs = append(errs, validator.ValidationError{
			Field:   "employee_id",
			Message: "employee_id is required",
		})
	}

	if err := r.location().Validate(); err != nil {
		errs = append(errs, err.(validator.ValidationErrors)...)
	}

	if r.Timestamp != "" {
		if _, ok := validator.IsValidDateTime(r.Timestamp); !ok {
			errs = append(errs, validator.ValidationError{
				Field:   "timestamp",
				Message: "timestamp must be in RFC3339 format",
			})
		}
	}

	if r.SiteID != nil && !validator.IsValidUUID(*r.SiteID) {
		errs = append(errs, validator.ValidationError{
			Field:   "site_id",
			Message: "site_id must be a valid UUID",
		})
	}

	if len(errs) > 0 {
		return errs
	}

	return nil
}

// Point returns the reported location stamped with the request timestamp, or now
// when the request carries none. Call Validate first.
func (r *RecordCheckInRequest) Point(now time.Time) geo.GPSPoint {
	p := r.location()
	p.Timestamp = now
	if ts, ok := validator.IsValidDateTime(r.Timestamp); ok {
		p.Timestamp = ts
	}
	return p
}

func (r *RecordCheckInRequest) location() geo.GPSPoint {
	return geo.GPSPoint{
		Latitude:  r.Latitude,
		Longitude: r.Longitude,
		Accuracy:  r.Accuracy,
	}
}

type ValidateLocationRequest struct {
	EmployeeID string  `json:"employee_id"`
	Latitude   float64 `json:"latitude"`
	Longitude  float64 `json:"longitude"`
}

func (r *ValidateLocationRequest) Validate() error {
	var errs validator.ValidationErrors

	if validator.IsEmpty(r.EmployeeID) {
		errs = append(errs, validator.ValidationError{
			Field:   "employee_id",
			Message: "employee_id is required",
		})
	}

	if err := r.Point().Validate(); err != nil {
		errs = append(errs, err.(validator.ValidationErrors)...)
	}

	if len(errs) > 0 {
		return errs
	}

	return nil
}

func (r *ValidateLocationRequest) Point() geo.GPSPoint {
	return geo.GPSPoint{Latitude: r.Latitude, Longitude: r.Longitude}
}

type RecalculateRequest struct {
	EmployeeID string `json:"employee_id"`
	Date       string `json:"date"`
}

func (r *RecalculateRequest) Validate() error {
	var errs validator.ValidationErrors

	if validator.IsEmpty(r.EmployeeID) {
		errs = append(errs, validator.ValidationError{
			Field:   "employee_id",
			Message: "employee_id is required",
		})
	}

	if _, ok := validator.IsValidDate(r.Date); !ok {
		errs = append(errs, validator.ValidationError{
			Field:   "date",
			Message: "date must be in YYYY-MM-DD format",
		})
	}

	if len(errs) > 0 {
		return errs
	}

	return nil
}

// ParsedDate returns Date as UTC midnight. Call Validate first.
func (r *RecalculateRequest) ParsedDate() time.Time {
	d, _ := validator.IsValidDate(r.Date)
	return d
}

// ========================================
// RESPONSES
// ========================================

// CheckInResult is what RecordCheckIn hands back to the caller.
type CheckInResult struct {
	Point    CheckInPoint
	Geofence GeofenceResult
	Record   DailyDistanceRecord
}

type CheckInPointResponse struct {
	ID                   string           `json:"id"`
	EmployeeID           string           `json:"employee_id"`
	Date                 string           `json:"date"`
	Timestamp            time.Time        `json:"timestamp"`
	Latitude             float64          `json:"latitude"`
	Longitude            float64          `json:"longitude"`
	SiteID               *string          `json:"site_id"`
	DistanceFromPrevious *decimal.Decimal `json:"distance_from_previous"`
	DurationFromPrevious *int64           `json:"duration_from_previous"`
	CalculationMethod    string           `json:"calculation_method"`
}

func NewCheckInPointResponse(p CheckInPoint) CheckInPointResponse {
	return CheckInPointResponse{
		ID:                   p.ID,
		EmployeeID:           p.EmployeeID,
		Date:                 p.Date.Format(validator.DateLayout),
		Timestamp:            p.Timestamp,
		Latitude:             p.Location.Latitude,
		Longitude:            p.Location.Longitude,
		SiteID:               p.SiteID,
		DistanceFromPrevious: p.DistanceFromPrevious,
		DurationFromPrevious: p.DurationFromPrevious,
		CalculationMethod:    string(p.CalculationMethod),
	}
}

type AnomalyResponse struct {
	Type           string    `json:"type"`
	Severity       string    `json:"severity"`
	CheckInPointID string    `json:"check_in_point_id"`
	Description    string    `json:"description"`
	DetectedAt     time.Time `json:"detected_at"`
}

type DailyDistanceResponse struct {
	EmployeeID    string            `json:"employee_id"`
	Date          string            `json:"date"`
	TotalDistance decimal.Decimal   `json:"total_distance"`
	TotalDuration int64             `json:"total_duration"`
	CheckInCount  int               `json:"check_in_count"`
	IsValidated   bool              `json:"is_validated"`
	Anomalies     []AnomalyResponse `json:"anomalies"`
}

func NewDailyDistanceResponse(r DailyDistanceRecord) DailyDistanceResponse {
	anomalies := make([]AnomalyResponse, 0, len(r.Anomalies))
	for _, a := range r.Anomalies {
		anomalies = append(anomalies, AnomalyResponse{
			Type:           string(a.Type),
			Severity:       string(a.Severity),
			CheckInPointID: a.CheckInPointID,
			Description:    a.Description,
			DetectedAt:     a.DetectedAt,
		})
	}

	return DailyDistanceResponse{
		EmployeeID:    r.EmployeeID,
		Date:          r.Date.Format(validator.DateLayout),
		TotalDistance: r.TotalDistance,
		TotalDuration: r.TotalDuration,
		CheckInCount:  r.CheckInCount,
		IsValidated:   r.IsValidated,
		Anomalies:     anomalies,
	}
}

type GeofenceResponse struct {
	IsValid             bool    `json:"is_valid"`
	NearestSiteID       *string `json:"nearest_site_id"`
	NearestSiteName     *string `json:"nearest_site_name"`
	DistanceFromNearest *int64  `json:"distance_from_nearest"`
}

func NewGeofenceResponse(g GeofenceResult) GeofenceResponse {
	resp := GeofenceResponse{
		IsValid:             g.IsValid,
		DistanceFromNearest: g.DistanceFromNearest,
	}
	if g.NearestSite != nil {
		resp.NearestSiteID = &g.NearestSite.ID
		resp.NearestSiteName = &g.NearestSite.Name
	}
	return resp
}

type CheckInResponse struct {
	CheckIn  CheckInPointResponse  `json:"check_in"`
	Geofence GeofenceResponse      `json:"geofence"`
	Daily    DailyDistanceResponse `json:"daily"`
}

func NewCheckInResponse(r CheckInResult) CheckInResponse {
	return CheckInResponse{
		CheckIn:  NewCheckInPointResponse(r.Point),
		Geofence: NewGeofenceResponse(r.Geofence),
		Daily:    NewDailyDistanceResponse(r.Record),
	}
}
