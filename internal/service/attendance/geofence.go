package attendance

import (
	"math"

	"github.com/cmlabs-hris/hris-core-go/internal/domain/attendance"
	"github.com/cmlabs-hris/hris-core-go/internal/pkg/geo"
)

// ValidateLocation decides whether point falls inside any of sites. An empty
// site list means the employee is not restricted. Sites are checked in the
// given order and the scan stops at the first site whose radius contains the
// point; the nearest site seen so far is reported either way.
func ValidateLocation(point geo.GPSPoint, sites []attendance.WorkSite) attendance.GeofenceResult {
	if len(sites) == 0 {
		return attendance.GeofenceResult{IsValid: true}
	}

	var (
		nearest     *attendance.WorkSite
		minDistance = math.Inf(1)
		matched     *attendance.WorkSite
	)

	for i := range sites {
		site := sites[i]
		distance := geo.CalculateDistance(point, site.Center)

		if distance < minDistance {
			minDistance = distance
			nearest = &site
		}

		if distance <= site.RadiusMeters {
			matched = &site
			break
		}
	}

	rounded := int64(math.Round(minDistance))
	return attendance.GeofenceResult{
		IsValid:             matched != nil,
		MatchedSite:         matched,
		NearestSite:         nearest,
		DistanceFromNearest: &rounded,
	}
}
