package postgresql

import (
	"context"
	"fmt"

	"github.com/cmlabs-hris/hris-core-go/internal/domain/attendance"
	"github.com/cmlabs-hris/hris-core-go/internal/pkg/database"
)

type workSiteRepositoryImpl struct {
	db *database.DB
}

func NewWorkSiteRepository(db *database.DB) attendance.WorkSiteRepository {
	return &workSiteRepositoryImpl{db: db}
}

// GetActiveSitesByEmployeeID implements attendance.WorkSiteRepository.
// Sites come back in assignment order, which is the order the geofence scans them.
func (r *workSiteRepositoryImpl) GetActiveSitesByEmployeeID(ctx context.Context, employeeID string) ([]attendance.WorkSite, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT ws.id, ws.company_id, ws.name, ws.address, ws.latitude, ws.longitude, ws.radius_meters,
			   ws.created_at, ws.updated_at
		FROM employee_location_assignments ela
		JOIN work_sites ws ON ws.id = ela.site_id
		WHERE ela.employee_id = $1 AND ela.is_active = TRUE
		ORDER BY ela.created_at, ws.id
	`

	rows, err := q.Query(ctx, query, employeeID)
	if err != nil {
		return nil, fmt.Errorf("failed to list work sites for employee %s: %w", employeeID, err)
	}
	defer rows.Close()

	sites := make([]attendance.WorkSite, 0)
	for rows.Next() {
		var site attendance.WorkSite
		if err := rows.Scan(
			&site.ID, &site.CompanyID, &site.Name, &site.Address,
			&site.Center.Latitude, &site.Center.Longitude, &site.RadiusMeters,
			&site.CreatedAt, &site.UpdatedAt,
		); err != nil {
			return nil, err
		}
		sites = append(sites, site)
	}

	return sites, rows.Err()
}
