package payroll

import (
	"testing"
	"time"

	"github.com/cmlabs-hris/hris-core-go/internal/config"
	"github.com/cmlabs-hris/hris-core-go/internal/domain/payroll"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func decPtr(s string) *decimal.Decimal {
	v := dec(s)
	return &v
}

func strPtr(s string) *string {
	return &s
}

func assertAmount(t *testing.T, want string, got decimal.Decimal, msgAndArgs ...interface{}) {
	t.Helper()
	assert.Truef(t, dec(want).Equal(got), "want %s, got %s %v", want, got.String(), msgAndArgs)
}

type componentOption func(*payroll.SalaryStructureComponent)

func ordered(n int) componentOption {
	return func(sc *payroll.SalaryStructureComponent) { sc.Order = n }
}

func deduction() componentOption {
	return func(sc *payroll.SalaryStructureComponent) { sc.Component.Type = payroll.ComponentTypeDeduction }
}

func category(c payroll.ComponentCategory) componentOption {
	return func(sc *payroll.SalaryStructureComponent) { sc.Component.Category = c }
}

func minValue(v string) componentOption {
	return func(sc *payroll.SalaryStructureComponent) { sc.MinValue = decPtr(v) }
}

func maxValue(v string) componentOption {
	return func(sc *payroll.SalaryStructureComponent) { sc.MaxValue = decPtr(v) }
}

func effective(from, to *time.Time) componentOption {
	return func(sc *payroll.SalaryStructureComponent) {
		sc.Component.EffectiveFrom = from
		sc.Component.EffectiveTo = to
	}
}

func newComponent(code string, calc payroll.CalculationType, opts ...componentOption) payroll.SalaryStructureComponent {
	sc := payroll.SalaryStructureComponent{
		StructureID: "structure-1",
		ComponentID: "component-" + code,
		Component: payroll.PayComponent{
			ID:              "component-" + code,
			CompanyID:       "company-1",
			Code:            code,
			Name:            code,
			Type:            payroll.ComponentTypeEarning,
			Category:        payroll.CategoryAllowance,
			CalculationType: calc,
		},
	}
	for _, opt := range opts {
		opt(&sc)
	}
	return sc
}

func fixed(code, value string, opts ...componentOption) payroll.SalaryStructureComponent {
	sc := newComponent(code, payroll.CalculationFixed, opts...)
	sc.Value = decPtr(value)
	return sc
}

func percentOf(code, percentage, base string, opts ...componentOption) payroll.SalaryStructureComponent {
	sc := newComponent(code, payroll.CalculationPercentage, opts...)
	sc.Percentage = decPtr(percentage)
	sc.BaseComponent = strPtr(base)
	return sc
}

func formulaOf(code, expr string, opts ...componentOption) payroll.SalaryStructureComponent {
	sc := newComponent(code, payroll.CalculationFormula, opts...)
	sc.Component.Formula = strPtr(expr)
	return sc
}

func attendanceBased(code, value string, opts ...componentOption) payroll.SalaryStructureComponent {
	sc := newComponent(code, payroll.CalculationAttendanceBased, opts...)
	sc.Value = decPtr(value)
	return sc
}

func statutoryComponent(code string, opts ...componentOption) payroll.SalaryStructureComponent {
	sc := newComponent(code, payroll.CalculationFixed, opts...)
	sc.Component.Type = payroll.ComponentTypeDeduction
	sc.Component.Category = payroll.CategoryStatutory
	sc.Component.IsStatutory = true
	return sc
}

func basicFixed(value string) payroll.SalaryStructureComponent {
	return fixed("BASIC", value, category(payroll.CategoryBasic))
}

func structureOf(components ...payroll.SalaryStructureComponent) payroll.SalaryStructure {
	return payroll.SalaryStructure{
		ID:            "structure-1",
		CompanyID:     "company-1",
		Name:          "Standard",
		ProrationRule: payroll.ProrationNone,
		RoundingRule:  payroll.RoundNone,
		IsActive:      true,
		Components:    components,
	}
}

// juneContext is a full-attendance June 2024.
func juneContext() payroll.CalculationContext {
	return payroll.CalculationContext{
		EmployeeID:    "emp-1",
		PeriodStart:   time.Date(2024, time.June, 1, 0, 0, 0, 0, time.UTC),
		PeriodEnd:     time.Date(2024, time.June, 30, 0, 0, 0, 0, time.UTC),
		WorkingDays:   dec("20"),
		PresentDays:   dec("20"),
		OvertimeHours: decimal.Zero,
	}
}

func newTestEngine(t *testing.T) *Engine {
	t.Helper()
	e, err := NewEngine(payroll.DefaultStatutoryConfig(), config.PayrollConfig{})
	require.NoError(t, err)
	return e
}

func resultCodes(results []payroll.ComponentCalculationResult) []string {
	codes := make([]string, 0, len(results))
	for _, r := range results {
		codes = append(codes, r.Code)
	}
	return codes
}

func resultByCode(t *testing.T, results []payroll.ComponentCalculationResult, code string) payroll.ComponentCalculationResult {
	t.Helper()
	for _, r := range results {
		if r.Code == code {
			return r
		}
	}
	t.Fatalf("no result for component %s", code)
	return payroll.ComponentCalculationResult{}
}
