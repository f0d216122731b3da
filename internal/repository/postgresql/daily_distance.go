package postgresql

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cmlabs-hris/hris-core-go/internal/domain/attendance"
	"github.com/cmlabs-hris/hris-core-go/internal/pkg/database"
	"github.com/cmlabs-hris/hris-core-go/internal/pkg/validator"
	"github.com/jackc/pgx/v5"
)

// dayLockTimeout bounds how long a check-in waits for another writer of the same day.
const dayLockTimeout = "5s"

var errLockOutsideTransaction = errors.New("day lock requires a transaction")

type dailyDistanceRepositoryImpl struct {
	db *database.DB
}

func NewDailyDistanceRepository(db *database.DB) attendance.DailyDistanceRepository {
	return &dailyDistanceRepositoryImpl{db: db}
}

// LockDay implements attendance.DailyDistanceRepository with a transaction
// scoped advisory lock keyed by (employee, date).
func (r *dailyDistanceRepositoryImpl) LockDay(ctx context.Context, employeeID string, date time.Time) error {
	tx, ok := txFromContext(ctx)
	if !ok {
		return errLockOutsideTransaction
	}

	if _, err := tx.Exec(ctx, `SET LOCAL lock_timeout = '`+dayLockTimeout+`'`); err != nil {
		return fmt.Errorf("failed to set lock timeout: %w", err)
	}

	_, err := tx.Exec(ctx,
		`SELECT pg_advisory_xact_lock(hashtextextended($1::text || '|' || $2::text, 0))`,
		employeeID, date.Format(validator.DateLayout),
	)
	if err != nil {
		if hasPgCode(err, pgLockNotAvailable, pgDeadlockDetected) {
			return attendance.ErrAggregateConflict
		}
		return fmt.Errorf("failed to lock day for employee %s: %w", employeeID, err)
	}
	return nil
}

// Upsert implements attendance.DailyDistanceRepository.
func (r *dailyDistanceRepositoryImpl) Upsert(ctx context.Context, record attendance.DailyDistanceRecord) (attendance.DailyDistanceRecord, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		INSERT INTO daily_distance_records (
			employee_id, date, total_distance, total_duration, check_in_count, is_validated
		) VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (employee_id, date) DO UPDATE
		SET total_distance = EXCLUDED.total_distance,
			total_duration = EXCLUDED.total_duration,
			check_in_count = EXCLUDED.check_in_count,
			is_validated   = EXCLUDED.is_validated,
			updated_at     = NOW()
		RETURNING id, employee_id, date, total_distance, total_duration, check_in_count, is_validated
	`

	var out attendance.DailyDistanceRecord
	err := q.QueryRow(ctx, query,
		record.EmployeeID, record.Date, record.TotalDistance, record.TotalDuration, record.CheckInCount, record.IsValidated,
	).Scan(&out.ID, &out.EmployeeID, &out.Date, &out.TotalDistance, &out.TotalDuration, &out.CheckInCount, &out.IsValidated)
	if err != nil {
		return attendance.DailyDistanceRecord{}, fmt.Errorf("failed to upsert daily distance record: %w", err)
	}
	out.Date = out.Date.UTC()
	out.Anomalies = record.Anomalies
	return out, nil
}

// GetByEmployeeDate implements attendance.DailyDistanceRepository.
func (r *dailyDistanceRepositoryImpl) GetByEmployeeDate(ctx context.Context, employeeID string, date time.Time) (attendance.DailyDistanceRecord, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT id, employee_id, date, total_distance, total_duration, check_in_count, is_validated
		FROM daily_distance_records
		WHERE employee_id = $1 AND date = $2
	`

	var out attendance.DailyDistanceRecord
	err := q.QueryRow(ctx, query, employeeID, date).
		Scan(&out.ID, &out.EmployeeID, &out.Date, &out.TotalDistance, &out.TotalDuration, &out.CheckInCount, &out.IsValidated)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return attendance.DailyDistanceRecord{}, attendance.ErrDailyRecordNotFound
		}
		return attendance.DailyDistanceRecord{}, fmt.Errorf("failed to get daily distance record: %w", err)
	}
	out.Date = out.Date.UTC()
	return out, nil
}

// AppendAnomalies implements attendance.DailyDistanceRepository. The unique
// (check_in_point_id, type) index turns a repeated detection into a no-op.
func (r *dailyDistanceRepositoryImpl) AppendAnomalies(ctx context.Context, anomalies []attendance.DistanceAnomaly) error {
	q := GetQuerier(ctx, r.db)

	query := `
		INSERT INTO distance_anomalies (
			id, employee_id, date, type, severity, check_in_point_id, description, detected_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (check_in_point_id, type) DO NOTHING
	`

	for _, a := range anomalies {
		if _, err := q.Exec(ctx, query,
			a.ID, a.EmployeeID, a.Date, a.Type, a.Severity, a.CheckInPointID, a.Description, a.DetectedAt,
		); err != nil {
			return fmt.Errorf("failed to insert %s anomaly for point %s: %w", a.Type, a.CheckInPointID, err)
		}
	}
	return nil
}

// ListAnomalies implements attendance.DailyDistanceRepository.
func (r *dailyDistanceRepositoryImpl) ListAnomalies(ctx context.Context, employeeID string, date time.Time) ([]attendance.DistanceAnomaly, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT a.id, a.employee_id, a.date, a.type, a.severity, a.check_in_point_id, a.description, a.detected_at
		FROM distance_anomalies a
		JOIN check_in_points p ON p.id = a.check_in_point_id
		WHERE a.employee_id = $1 AND a.date = $2
		ORDER BY p.recorded_at, p.seq, a.type
	`

	rows, err := q.Query(ctx, query, employeeID, date)
	if err != nil {
		return nil, fmt.Errorf("failed to list distance anomalies: %w", err)
	}
	defer rows.Close()

	anomalies := make([]attendance.DistanceAnomaly, 0)
	for rows.Next() {
		var a attendance.DistanceAnomaly
		if err := rows.Scan(&a.ID, &a.EmployeeID, &a.Date, &a.Type, &a.Severity, &a.CheckInPointID, &a.Description, &a.DetectedAt); err != nil {
			return nil, err
		}
		a.Date = a.Date.UTC()
		anomalies = append(anomalies, a)
	}

	return anomalies, rows.Err()
}
