package payroll

import (
	"errors"
	"testing"

	"github.com/cmlabs-hris/hris-core-go/internal/domain/payroll"
	"github.com/cmlabs-hris/hris-core-go/internal/pkg/validator"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func componentCodes(components []payroll.SalaryStructureComponent) []string {
	codes := make([]string, 0, len(components))
	for _, c := range components {
		codes = append(codes, c.Component.Code)
	}
	return codes
}

func TestOrderComponents(t *testing.T) {
	tests := []struct {
		name       string
		components []payroll.SalaryStructureComponent
		want       []string
	}{
		{
			name: "basic first then fixed then earnings before deductions",
			components: []payroll.SalaryStructureComponent{
				percentOf("PENSION", "5", "BASIC", deduction(), ordered(1)),
				fixed("LOAN", "100", deduction(), ordered(2)),
				percentOf("HRA", "50", "BASIC", ordered(3)),
				fixed("MEAL", "200", ordered(4)),
				percentOf("BASIC", "40", "CTC", category(payroll.CategoryBasic), ordered(5)),
			},
			want: []string{"BASIC", "MEAL", "LOAN", "HRA", "PENSION"},
		},
		{
			name: "configured order breaks remaining ties",
			components: []payroll.SalaryStructureComponent{
				fixed("B", "1", ordered(2)),
				fixed("A", "1", ordered(2)),
				fixed("C", "1", ordered(1)),
			},
			want: []string{"C", "A", "B"},
		},
		{
			name: "formula reference pulls its dependency forward",
			components: []payroll.SalaryStructureComponent{
				formulaOf("TOTAL", "HRA + SPECIAL", ordered(1)),
				percentOf("SPECIAL", "10", "HRA", ordered(2)),
				percentOf("HRA", "50", "BASIC", ordered(3)),
				basicFixed("1000"),
			},
			want: []string{"BASIC", "HRA", "SPECIAL", "TOTAL"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := OrderComponents(tt.components)

			require.NoError(t, err)
			assert.Equal(t, tt.want, componentCodes(got))
		})
	}
}

func TestOrderComponents_ReportsConfigurationErrors(t *testing.T) {
	components := []payroll.SalaryStructureComponent{
		basicFixed("1000"),
		percentOf("A", "10", "B"),
		percentOf("B", "10", "A"),
		percentOf("C", "10", "NOPE"),
		formulaOf("SELF", "SELF + 1"),
	}

	got, err := OrderComponents(components)

	require.Error(t, err)
	assert.Len(t, got, len(components))
	assert.True(t, errors.Is(err, payroll.ErrCircularDependency))
	assert.True(t, errors.Is(err, payroll.ErrMissingDependency))

	var componentErr *payroll.ComponentError
	require.True(t, errors.As(err, &componentErr))
	assert.NotEmpty(t, componentErr.Code)

	assert.Contains(t, err.Error(), "component SELF: circular dependency among: SELF")
	assert.Contains(t, err.Error(), "component C: missing required dependency: NOPE")
}

func TestValidateStructure(t *testing.T) {
	t.Run("valid structure", func(t *testing.T) {
		structure := structureOf(
			percentOf("BASIC", "40", "CTC", category(payroll.CategoryBasic)),
			percentOf("HRA", "50", "BASIC"),
			formulaOf("SPECIAL", "CTC - BASIC - HRA"),
			statutoryComponent("PF"),
		)

		assert.NoError(t, ValidateStructure(structure))
	})

	t.Run("reports every problem by field", func(t *testing.T) {
		structure := structureOf(
			basicFixed("1000"),
			percentOf("A", "10", "B"),
			percentOf("B", "10", "A"),
			percentOf("C", "10", "NOPE"),
			newComponent("D", payroll.CalculationPercentage),
			fixed("E", "100", minValue("500"), maxValue("100")),
		)
		structure.RoundingRule = "BANKERS"

		err := ValidateStructure(structure)

		var verrs validator.ValidationErrors
		require.True(t, errors.As(err, &verrs))
		fields := verrs.ToMap()
		assert.Contains(t, fields, "rounding_rule")
		assert.Equal(t, "circular dependency among: A, B", fields["components.A"])
		assert.Equal(t, "circular dependency among: A, B", fields["components.B"])
		assert.Equal(t, "missing required dependency: NOPE", fields["components.C"])
		assert.Contains(t, fields["components.D"], "percentage is required")
		assert.Contains(t, fields["components.E"], "min_value exceeds max_value")
		assert.NotContains(t, fields, "components.BASIC")
	})

	t.Run("empty structure", func(t *testing.T) {
		err := ValidateStructure(structureOf())

		var verrs validator.ValidationErrors
		require.True(t, errors.As(err, &verrs))
		assert.Contains(t, verrs.ToMap(), "components")
	})
}
