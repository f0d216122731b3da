package attendance

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/cmlabs-hris/hris-core-go/internal/config"
	"github.com/cmlabs-hris/hris-core-go/internal/domain/attendance"
	"github.com/cmlabs-hris/hris-core-go/internal/pkg/database"
	"github.com/google/uuid"
)

// maxClockSkew is how far ahead of server time a client timestamp may be.
const maxClockSkew = 2 * time.Minute

type TrackingServiceImpl struct {
	tx database.Transactor
	attendance.WorkSiteRepository
	attendance.CheckInPointRepository
	attendance.DailyDistanceRepository
	tracker         *DistanceTracker
	anomaly         attendance.AnomalyConfig
	location        *time.Location
	enforceGeofence bool
	now             func() time.Time
}

func NewTrackingService(
	tx database.Transactor,
	siteRepository attendance.WorkSiteRepository,
	pointRepository attendance.CheckInPointRepository,
	dailyRepository attendance.DailyDistanceRepository,
	tracker *DistanceTracker,
	anomaly attendance.AnomalyConfig,
	app config.AppConfig,
) attendance.TrackingService {
	loc, err := time.LoadLocation(app.Timezone)
	if err != nil {
		slog.Warn("Unknown timezone, check-in days fall back to UTC", "timezone", app.Timezone, "error", err)
		loc = time.UTC
	}

	// Without a route provider every leg is straight-line, so the flag would fire on all of them.
	if tracker.provider == nil {
		anomaly.FlagMissingRoute = false
	}

	return &TrackingServiceImpl{
		tx:                      tx,
		WorkSiteRepository:      siteRepository,
		CheckInPointRepository:  pointRepository,
		DailyDistanceRepository: dailyRepository,
		tracker:                 tracker,
		anomaly:                 anomaly,
		location:                loc,
		enforceGeofence:         app.EnforceGeofence,
		now:                     time.Now,
	}
}

// ValidateLocation implements attendance.TrackingService.
func (s *TrackingServiceImpl) ValidateLocation(ctx context.Context, req attendance.ValidateLocationRequest) (attendance.GeofenceResult, error) {
	if err := req.Validate(); err != nil {
		return attendance.GeofenceResult{}, err
	}

	sites, err := s.WorkSiteRepository.GetActiveSitesByEmployeeID(ctx, req.EmployeeID)
	if err != nil {
		return attendance.GeofenceResult{}, fmt.Errorf("failed to get assigned work sites: %w", err)
	}

	return ValidateLocation(req.Point(), sites), nil
}

// RecordCheckIn implements attendance.TrackingService.
func (s *TrackingServiceImpl) RecordCheckIn(ctx context.Context, req attendance.RecordCheckInRequest) (attendance.CheckInResult, error) {
	if err := req.Validate(); err != nil {
		return attendance.CheckInResult{}, err
	}

	nowUTC := s.now().UTC()
	point := req.Point(nowUTC)
	if point.Timestamp.After(nowUTC.Add(maxClockSkew)) {
		return attendance.CheckInResult{}, attendance.ErrCheckInInFuture
	}

	sites, err := s.WorkSiteRepository.GetActiveSitesByEmployeeID(ctx, req.EmployeeID)
	if err != nil {
		return attendance.CheckInResult{}, fmt.Errorf("failed to get assigned work sites: %w", err)
	}

	fence := ValidateLocation(point, sites)
	if !fence.IsValid {
		if s.enforceGeofence {
			return attendance.CheckInResult{Geofence: fence}, attendance.ErrOutsideAllowedRadius
		}
		slog.Info("Check-in outside assigned work sites",
			"employee_id", req.EmployeeID,
			"nearest_site_id", fence.NearestSite.ID,
			"distance_meters", *fence.DistanceFromNearest,
		)
	}

	siteID := req.SiteID
	if siteID == nil && fence.MatchedSite != nil {
		siteID = &fence.MatchedSite.ID
	}

	date := s.dayOf(point.Timestamp)
	result := attendance.CheckInResult{Geofence: fence}

	err = s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		if err := s.DailyDistanceRepository.LockDay(ctx, req.EmployeeID, date); err != nil {
			return err
		}

		prior, err := s.CheckInPointRepository.ListByEmployeeDate(ctx, req.EmployeeID, date)
		if err != nil {
			return fmt.Errorf("failed to list check-in points: %w", err)
		}

		// Position of the new point in the day; equal timestamps keep arrival order.
		idx := sort.Search(len(prior), func(i int) bool {
			return prior[i].Timestamp.After(point.Timestamp)
		})

		newPoint := attendance.CheckInPoint{
			ID:         uuid.NewString(),
			EmployeeID: req.EmployeeID,
			Date:       date,
			Timestamp:  point.Timestamp,
			Location:   point,
			SiteID:     siteID,
		}
		if idx == 0 {
			firstMeasurement().applyTo(&newPoint)
		} else {
			s.tracker.Measure(ctx, prior[idx-1].Location, point).applyTo(&newPoint)
		}

		created, err := s.CheckInPointRepository.Create(ctx, newPoint)
		if err != nil {
			return fmt.Errorf("failed to create check-in point: %w", err)
		}

		// A late-arriving point becomes the predecessor of the next stored one.
		if idx < len(prior) {
			next := prior[idx]
			m := s.tracker.Measure(ctx, point, next.Location)
			if err := s.CheckInPointRepository.UpdateMeasurement(ctx, next.ID, &m.Distance, m.Duration, m.Method); err != nil {
				return fmt.Errorf("failed to update check-in point: %w", err)
			}
		}

		record, err := s.updateAggregate(ctx, req.EmployeeID, date)
		if err != nil {
			return err
		}

		result.Point = created
		result.Record = record
		return nil
	})
	if err != nil {
		return attendance.CheckInResult{}, err
	}

	slog.Info("Recorded check-in",
		"employee_id", req.EmployeeID,
		"check_in_point_id", result.Point.ID,
		"date", date.Format("2006-01-02"),
		"calculation_method", result.Point.CalculationMethod,
		"anomalies", len(result.Record.Anomalies),
	)

	return result, nil
}

// Recalculate implements attendance.TrackingService.
func (s *TrackingServiceImpl) Recalculate(ctx context.Context, req attendance.RecalculateRequest) (attendance.DailyDistanceRecord, error) {
	if err := req.Validate(); err != nil {
		return attendance.DailyDistanceRecord{}, err
	}
	date := req.ParsedDate()

	var record attendance.DailyDistanceRecord
	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		if err := s.DailyDistanceRepository.LockDay(ctx, req.EmployeeID, date); err != nil {
			return err
		}

		points, err := s.CheckInPointRepository.ListByEmployeeDate(ctx, req.EmployeeID, date)
		if err != nil {
			return fmt.Errorf("failed to list check-in points: %w", err)
		}
		if len(points) == 0 {
			return attendance.ErrDailyRecordNotFound
		}

		measurements := s.tracker.MeasureDay(ctx, points)
		for i, m := range measurements {
			if err := s.CheckInPointRepository.UpdateMeasurement(ctx, points[i].ID, &m.Distance, m.Duration, m.Method); err != nil {
				return fmt.Errorf("failed to update check-in point: %w", err)
			}
		}

		record, err = s.updateAggregate(ctx, req.EmployeeID, date)
		return err
	})
	if err != nil {
		return attendance.DailyDistanceRecord{}, err
	}

	return record, nil
}

// GetDailyRecord implements attendance.TrackingService.
func (s *TrackingServiceImpl) GetDailyRecord(ctx context.Context, employeeID string, date time.Time) (attendance.DailyDistanceRecord, error) {
	record, err := s.DailyDistanceRepository.GetByEmployeeDate(ctx, employeeID, date)
	if err != nil {
		return attendance.DailyDistanceRecord{}, err
	}

	points, err := s.CheckInPointRepository.ListByEmployeeDate(ctx, employeeID, date)
	if err != nil {
		return attendance.DailyDistanceRecord{}, fmt.Errorf("failed to list check-in points: %w", err)
	}

	stored, err := s.DailyDistanceRepository.ListAnomalies(ctx, employeeID, date)
	if err != nil {
		return attendance.DailyDistanceRecord{}, fmt.Errorf("failed to list anomalies: %w", err)
	}

	record.Anomalies = currentAnomalies(stored, DetectAnomalies(points, s.anomaly, s.now().UTC()))
	return record, nil
}

// updateAggregate rebuilds the day's record from its stored points. The
// caller must hold the day lock.
func (s *TrackingServiceImpl) updateAggregate(ctx context.Context, employeeID string, date time.Time) (attendance.DailyDistanceRecord, error) {
	points, err := s.CheckInPointRepository.ListByEmployeeDate(ctx, employeeID, date)
	if err != nil {
		return attendance.DailyDistanceRecord{}, fmt.Errorf("failed to list check-in points: %w", err)
	}

	detected := DetectAnomalies(points, s.anomaly, s.now().UTC())
	for i := range detected {
		detected[i].ID = uuid.NewString()
	}

	record, err := s.DailyDistanceRepository.Upsert(ctx, Aggregate(employeeID, date, points, detected))
	if err != nil {
		return attendance.DailyDistanceRecord{}, fmt.Errorf("failed to upsert daily distance record: %w", err)
	}

	if len(detected) > 0 {
		if err := s.DailyDistanceRepository.AppendAnomalies(ctx, detected); err != nil {
			return attendance.DailyDistanceRecord{}, fmt.Errorf("failed to append anomalies: %w", err)
		}
		slog.Warn("Distance anomalies detected", "employee_id", employeeID, "date", date.Format("2006-01-02"), "count", len(detected))
	}

	stored, err := s.DailyDistanceRepository.ListAnomalies(ctx, employeeID, date)
	if err != nil {
		return attendance.DailyDistanceRecord{}, fmt.Errorf("failed to list anomalies: %w", err)
	}

	record.Anomalies = currentAnomalies(stored, detected)
	return record, nil
}

// dayOf maps an instant to its calendar day in the company timezone, as UTC midnight.
func (s *TrackingServiceImpl) dayOf(t time.Time) time.Time {
	local := t.In(s.location)
	return time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, time.UTC)
}
