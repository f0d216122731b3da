package postgresql

import (
	"context"
	"errors"
	"fmt"

	"github.com/cmlabs-hris/hris-core-go/internal/domain/payroll"
	"github.com/cmlabs-hris/hris-core-go/internal/pkg/database"
	"github.com/jackc/pgx/v5"
)

type salaryStructureRepositoryImpl struct {
	db *database.DB
}

func NewSalaryStructureRepository(db *database.DB) payroll.SalaryStructureRepository {
	return &salaryStructureRepositoryImpl{db: db}
}

// GetByID implements payroll.SalaryStructureRepository.
func (r *salaryStructureRepositoryImpl) GetByID(ctx context.Context, id string) (payroll.SalaryStructure, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT id, company_id, name, proration_rule, rounding_rule, is_active, created_at, updated_at
		FROM salary_structures
		WHERE id = $1
	`

	var s payroll.SalaryStructure
	err := q.QueryRow(ctx, query, id).Scan(
		&s.ID, &s.CompanyID, &s.Name, &s.ProrationRule, &s.RoundingRule, &s.IsActive, &s.CreatedAt, &s.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return payroll.SalaryStructure{}, payroll.ErrSalaryStructureNotFound
		}
		return payroll.SalaryStructure{}, fmt.Errorf("failed to get salary structure with id %s: %w", id, err)
	}

	componentsQuery := `
		SELECT ssc.structure_id, ssc.component_id, ssc.value, ssc.percentage, ssc.base_component,
			   ssc.min_value, ssc.max_value, ssc.sort_order,
			   pc.id, pc.company_id, pc.code, pc.name, pc.type, pc.category, pc.calculation_type,
			   pc.is_statutory, pc.is_taxable, pc.formula, pc.effective_from, pc.effective_to,
			   pc.created_at, pc.updated_at
		FROM salary_structure_components ssc
		JOIN pay_components pc ON pc.id = ssc.component_id
		WHERE ssc.structure_id = $1
		ORDER BY ssc.sort_order, pc.code
	`

	rows, err := q.Query(ctx, componentsQuery, id)
	if err != nil {
		return payroll.SalaryStructure{}, fmt.Errorf("failed to list components of salary structure %s: %w", id, err)
	}
	defer rows.Close()

	s.Components = make([]payroll.SalaryStructureComponent, 0)
	for rows.Next() {
		var sc payroll.SalaryStructureComponent
		c := &sc.Component
		if err := rows.Scan(
			&sc.StructureID, &sc.ComponentID, &sc.Value, &sc.Percentage, &sc.BaseComponent,
			&sc.MinValue, &sc.MaxValue, &sc.Order,
			&c.ID, &c.CompanyID, &c.Code, &c.Name, &c.Type, &c.Category, &c.CalculationType,
			&c.IsStatutory, &c.IsTaxable, &c.Formula, &c.EffectiveFrom, &c.EffectiveTo,
			&c.CreatedAt, &c.UpdatedAt,
		); err != nil {
			return payroll.SalaryStructure{}, err
		}
		s.Components = append(s.Components, sc)
	}
	if err := rows.Err(); err != nil {
		return payroll.SalaryStructure{}, err
	}

	return s, nil
}
