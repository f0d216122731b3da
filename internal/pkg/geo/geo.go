package geo

import (
	"math"
	"time"

	"github.com/cmlabs-hris/hris-core-go/internal/pkg/validator"
	"github.com/shopspring/decimal"
)

// EarthRadiusMeters is the mean radius of the spherical Earth model.
const EarthRadiusMeters = 6371000

// GPSPoint is an immutable reported location.
type GPSPoint struct {
	Latitude  float64   `json:"latitude"`
	Longitude float64   `json:"longitude"`
	Accuracy  *float64  `json:"accuracy,omitempty"` // meters
	Timestamp time.Time `json:"timestamp"`
}

// Validate rejects coordinates outside the WGS84 range.
func (p GPSPoint) Validate() error {
	var errs validator.ValidationErrors

	if !validator.IsValidLatitude(p.Latitude) {
		errs = append(errs, validator.ValidationError{
			Field:   "latitude",
			Message: "latitude must be between -90 and 90",
		})
	}

	if !validator.IsValidLongitude(p.Longitude) {
		errs = append(errs, validator.ValidationError{
			Field:   "longitude",
			Message: "longitude must be between -180 and 180",
		})
	}

	if p.Accuracy != nil && *p.Accuracy < 0 {
		errs = append(errs, validator.ValidationError{
			Field:   "accuracy",
			Message: "accuracy must not be negative",
		})
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

// CalculateDistance returns the great-circle distance between a and b in meters.
func CalculateDistance(a, b GPSPoint) float64 {
	return CalculateHaversineDistance(a.Latitude, a.Longitude, b.Latitude, b.Longitude)
}

// DistanceMeters is CalculateDistance rounded to centimeters, for storage.
func DistanceMeters(a, b GPSPoint) decimal.Decimal {
	return decimal.NewFromFloat(CalculateDistance(a, b)).Round(2)
}

// CalculateHaversineDistance computes the distance between two coordinates in meters:
// a = sin²(Δφ/2) + cos φ1·cos φ2·sin²(Δλ/2), d = 2R·atan2(√a, √(1−a)).
func CalculateHaversineDistance(lat1, lon1, lat2, lon2 float64) float64 {
	dLat := toRadians(lat2 - lat1)
	dLon := toRadians(lon2 - lon1)

	lat1Rad := toRadians(lat1)
	lat2Rad := toRadians(lat2)

	sinDLat := math.Sin(dLat / 2)
	sinDLon := math.Sin(dLon / 2)

	// cos φ1·cos φ2 is multiplied first so swapping the points yields the same bits.
	a := sinDLat*sinDLat + math.Cos(lat1Rad)*math.Cos(lat2Rad)*sinDLon*sinDLon
	if a > 1 {
		a = 1
	}

	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return EarthRadiusMeters * c
}

func toRadians(deg float64) float64 {
	return deg * (math.Pi / 180.0)
}
