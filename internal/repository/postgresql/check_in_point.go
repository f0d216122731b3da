package postgresql

import (
	"context"
	"fmt"
	"time"

	"github.com/cmlabs-hris/hris-core-go/internal/domain/attendance"
	"github.com/cmlabs-hris/hris-core-go/internal/pkg/database"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

type checkInPointRepositoryImpl struct {
	db *database.DB
}

func NewCheckInPointRepository(db *database.DB) attendance.CheckInPointRepository {
	return &checkInPointRepositoryImpl{db: db}
}

const checkInPointColumns = `
	id, employee_id, date, recorded_at, latitude, longitude, accuracy, site_id,
	distance_from_previous, duration_from_previous, calculation_method, created_at
`

func scanCheckInPoint(row pgx.Row) (attendance.CheckInPoint, error) {
	var p attendance.CheckInPoint
	err := row.Scan(
		&p.ID, &p.EmployeeID, &p.Date, &p.Timestamp,
		&p.Location.Latitude, &p.Location.Longitude, &p.Location.Accuracy, &p.SiteID,
		&p.DistanceFromPrevious, &p.DurationFromPrevious, &p.CalculationMethod, &p.CreatedAt,
	)
	if err != nil {
		return attendance.CheckInPoint{}, err
	}
	p.Date = p.Date.UTC()
	p.Location.Timestamp = p.Timestamp
	return p, nil
}

// Create implements attendance.CheckInPointRepository.
func (r *checkInPointRepositoryImpl) Create(ctx context.Context, point attendance.CheckInPoint) (attendance.CheckInPoint, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		INSERT INTO check_in_points (
			id, employee_id, date, recorded_at, latitude, longitude, accuracy, site_id,
			distance_from_previous, duration_from_previous, calculation_method
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING ` + checkInPointColumns

	created, err := scanCheckInPoint(q.QueryRow(ctx, query,
		point.ID, point.EmployeeID, point.Date, point.Timestamp,
		point.Location.Latitude, point.Location.Longitude, point.Location.Accuracy, point.SiteID,
		point.DistanceFromPrevious, point.DurationFromPrevious, point.CalculationMethod,
	))
	if err != nil {
		return attendance.CheckInPoint{}, fmt.Errorf("failed to create check-in point: %w", err)
	}
	return created, nil
}

// ListByEmployeeDate implements attendance.CheckInPointRepository.
func (r *checkInPointRepositoryImpl) ListByEmployeeDate(ctx context.Context, employeeID string, date time.Time) ([]attendance.CheckInPoint, error) {
	q := GetQuerier(ctx, r.db)

	query := `SELECT ` + checkInPointColumns + `
		FROM check_in_points
		WHERE employee_id = $1 AND date = $2
		ORDER BY recorded_at, seq
	`

	rows, err := q.Query(ctx, query, employeeID, date)
	if err != nil {
		return nil, fmt.Errorf("failed to list check-in points: %w", err)
	}
	defer rows.Close()

	points := make([]attendance.CheckInPoint, 0)
	for rows.Next() {
		point, err := scanCheckInPoint(rows)
		if err != nil {
			return nil, err
		}
		points = append(points, point)
	}

	return points, rows.Err()
}

// UpdateMeasurement implements attendance.CheckInPointRepository.
func (r *checkInPointRepositoryImpl) UpdateMeasurement(ctx context.Context, id string, distance *decimal.Decimal, duration *int64, method attendance.CalculationMethod) error {
	q := GetQuerier(ctx, r.db)

	query := `
		UPDATE check_in_points
		SET distance_from_previous = $2, duration_from_previous = $3, calculation_method = $4
		WHERE id = $1
	`

	commandTag, err := q.Exec(ctx, query, id, distance, duration, method)
	if err != nil {
		return fmt.Errorf("failed to update check-in point %s: %w", id, err)
	}
	if commandTag.RowsAffected() != 1 {
		return attendance.ErrCheckInPointNotFound
	}
	return nil
}
