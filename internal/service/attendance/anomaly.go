package attendance

import (
	"fmt"
	"time"

	"github.com/cmlabs-hris/hris-core-go/internal/config"
	"github.com/cmlabs-hris/hris-core-go/internal/domain/attendance"
	"github.com/shopspring/decimal"
)

// NewAnomalyConfig overlays the environment thresholds on the defaults.
func NewAnomalyConfig(cfg config.AnomalyConfig) (attendance.AnomalyConfig, error) {
	out := attendance.DefaultAnomalyConfig()
	out.MinTimeGap = cfg.MinTimeGap
	out.FlagMissingRoute = cfg.FlagMissingRoute
	if cfg.MaxSpeedKmh != 0 {
		out.MaxSpeedKmh = cfg.MaxSpeedKmh
	}
	if cfg.MaxDailyDistanceKm != 0 {
		out.MaxDailyDistanceKm = cfg.MaxDailyDistanceKm
	}
	if cfg.LocationJumpKm != 0 {
		out.LocationJumpKm = cfg.LocationJumpKm
	}
	if cfg.LocationJumpWindow != 0 {
		out.LocationJumpWindow = cfg.LocationJumpWindow
	}

	if err := out.Validate(); err != nil {
		return attendance.AnomalyConfig{}, err
	}
	return out, nil
}

// SpeedKmh is the average speed needed to cover distanceMeters in gap.
func SpeedKmh(distanceMeters float64, gap time.Duration) float64 {
	return (distanceMeters / 1000) / gap.Hours()
}

// DetectAnomalies evaluates a day's points, which must be ordered by timestamp.
// Pairs closer together than cfg.MinTimeGap are ignored as noise. The result
// holds at most one anomaly per point and type.
func DetectAnomalies(points []attendance.CheckInPoint, cfg attendance.AnomalyConfig, detectedAt time.Time) []attendance.DistanceAnomaly {
	var (
		anomalies []attendance.DistanceAnomaly
		seen      = make(map[string]bool)
		total     = decimal.Zero
	)

	add := func(p attendance.CheckInPoint, typ attendance.AnomalyType, severity attendance.Severity, description string) {
		a := attendance.DistanceAnomaly{
			EmployeeID:     p.EmployeeID,
			Date:           p.Date,
			Type:           typ,
			Severity:       severity,
			CheckInPointID: p.ID,
			Description:    description,
			DetectedAt:     detectedAt,
		}
		if seen[a.Key()] {
			return
		}
		seen[a.Key()] = true
		anomalies = append(anomalies, a)
	}

	for i, p := range points {
		total = total.Add(p.Distance())
		if i == 0 {
			continue
		}

		if cfg.FlagMissingRoute && p.CalculationMethod == attendance.CalculationMethodHaversine {
			add(p, attendance.AnomalyMissingRoute, attendance.SeverityLow,
				"route lookup unavailable, straight-line distance used")
		}

		gap := p.Timestamp.Sub(points[i-1].Timestamp)
		if gap <= 0 || gap < cfg.MinTimeGap {
			continue
		}

		meters := p.Distance().InexactFloat64()
		speed := SpeedKmh(meters, gap)

		if speed > cfg.MaxSpeedKmh {
			severity := attendance.SeverityMedium
			if speed > cfg.HighSeverityFactor*cfg.MaxSpeedKmh {
				severity = attendance.SeverityHigh
			}
			add(p, attendance.AnomalyExcessiveSpeed, severity,
				fmt.Sprintf("average speed %.1f km/h exceeds %.0f km/h", speed, cfg.MaxSpeedKmh))
		}

		reachable := cfg.MaxSpeedKmh * 1000 * gap.Hours()
		if meters > cfg.ImpossibleDistanceFactor*reachable {
			add(p, attendance.AnomalyImpossibleDistance, attendance.SeverityHigh,
				fmt.Sprintf("%.1f km in %s is more than %.0fx the reachable %.1f km",
					meters/1000, gap, cfg.ImpossibleDistanceFactor, reachable/1000))
		}

		if meters > cfg.LocationJumpKm*1000 && gap < cfg.LocationJumpWindow {
			add(p, attendance.AnomalyLocationJump, attendance.SeverityMedium,
				fmt.Sprintf("moved %.1f km within %s", meters/1000, gap))
		}
	}

	if len(points) > 0 && total.InexactFloat64() > cfg.MaxDailyDistanceKm*1000 {
		add(points[len(points)-1], attendance.AnomalyImpossibleDistance, attendance.SeverityHigh,
			fmt.Sprintf("total daily distance %.1f km exceeds %.0f km", total.InexactFloat64()/1000, cfg.MaxDailyDistanceKm))
	}

	return anomalies
}

// Aggregate sums the day's measurements into a record. IsValidated is true
// only when no anomaly was detected.
func Aggregate(employeeID string, date time.Time, points []attendance.CheckInPoint, anomalies []attendance.DistanceAnomaly) attendance.DailyDistanceRecord {
	record := attendance.DailyDistanceRecord{
		EmployeeID:    employeeID,
		Date:          date,
		TotalDistance: decimal.Zero,
		CheckInCount:  len(points),
		IsValidated:   len(anomalies) == 0,
	}
	for _, p := range points {
		record.TotalDistance = record.TotalDistance.Add(p.Distance())
		record.TotalDuration += p.Duration()
	}
	return record
}

// currentAnomalies keeps the stored rows that the latest detection still
// reports, so a recomputed day does not surface findings it no longer has.
func currentAnomalies(stored, detected []attendance.DistanceAnomaly) []attendance.DistanceAnomaly {
	keep := make(map[string]bool, len(detected))
	for _, a := range detected {
		keep[a.Key()] = true
	}

	out := make([]attendance.DistanceAnomaly, 0, len(detected))
	for _, a := range stored {
		if keep[a.Key()] {
			out = append(out, a)
		}
	}
	return out
}
