package payroll

import (
	"fmt"

	"github.com/cmlabs-hris/hris-core-go/internal/config"
	"github.com/cmlabs-hris/hris-core-go/internal/domain/payroll"
	"github.com/shopspring/decimal"
)

var (
	monthsPerYear = decimal.NewFromInt(12)
	hundred       = decimal.NewFromInt(100)
)

// NewStatutoryConfig parses the configured rates over the built-in defaults.
// Empty values keep the default; tax brackets are always the defaults.
func NewStatutoryConfig(cfg config.StatutoryConfig) (payroll.StatutoryConfig, error) {
	out := payroll.DefaultStatutoryConfig()

	fields := []struct {
		name  string
		value string
		dst   *decimal.Decimal
	}{
		{"pf_rate", cfg.PFRate, &out.PFRate},
		{"pf_wage_ceiling", cfg.PFWageCeiling, &out.PFWageCeiling},
		{"esi_rate", cfg.ESIRate, &out.ESIRate},
		{"esi_threshold", cfg.ESIThreshold, &out.ESIThreshold},
		{"professional_tax", cfg.ProfessionalTax, &out.ProfessionalTax},
	}
	for _, f := range fields {
		if f.value == "" {
			continue
		}
		v, err := decimal.NewFromString(f.value)
		if err != nil {
			return payroll.StatutoryConfig{}, fmt.Errorf("%w: %s %q: %v", payroll.ErrInvalidStatutoryConfig, f.name, f.value, err)
		}
		if v.IsNegative() {
			return payroll.StatutoryConfig{}, fmt.Errorf("%w: %s must not be negative", payroll.ErrInvalidStatutoryConfig, f.name)
		}
		*f.dst = v
	}

	if out.PFRate.GreaterThan(decimal.NewFromInt(1)) || out.ESIRate.GreaterThan(decimal.NewFromInt(1)) {
		return payroll.StatutoryConfig{}, fmt.Errorf("%w: rates are fractions and must not exceed 1", payroll.ErrInvalidStatutoryConfig)
	}

	return out, nil
}

// CalculatePF is the provident fund contribution on monthly basic. A
// positive wage ceiling caps the basic the rate applies to.
func CalculatePF(basicSalary decimal.Decimal, cfg payroll.StatutoryConfig) decimal.Decimal {
	if !basicSalary.IsPositive() {
		return decimal.Zero
	}
	wage := basicSalary
	if cfg.PFWageCeiling.IsPositive() && wage.GreaterThan(cfg.PFWageCeiling) {
		wage = cfg.PFWageCeiling
	}
	return wage.Mul(cfg.PFRate).Round(2)
}

// CalculateESI applies only while monthly gross is at or below the
// eligibility threshold.
func CalculateESI(grossSalary decimal.Decimal, cfg payroll.StatutoryConfig) decimal.Decimal {
	if !grossSalary.IsPositive() || grossSalary.GreaterThan(cfg.ESIThreshold) {
		return decimal.Zero
	}
	return grossSalary.Mul(cfg.ESIRate).Round(2)
}

// CalculatePT is the flat monthly professional tax. Nothing is due without earnings.
func CalculatePT(grossSalary decimal.Decimal, cfg payroll.StatutoryConfig) decimal.Decimal {
	if !grossSalary.IsPositive() {
		return decimal.Zero
	}
	return cfg.ProfessionalTax
}

// CalculateTDS annualizes monthly gross, taxes it slab by slab and returns
// the monthly share.
func CalculateTDS(grossSalary decimal.Decimal, brackets []payroll.TaxBracket) decimal.Decimal {
	annual := grossSalary.Mul(monthsPerYear)
	if !annual.IsPositive() {
		return decimal.Zero
	}

	tax := decimal.Zero
	lower := decimal.Zero
	for _, b := range brackets {
		if !annual.GreaterThan(lower) {
			break
		}
		upper := annual
		if b.UpTo != nil && b.UpTo.LessThan(annual) {
			upper = *b.UpTo
		}
		if upper.GreaterThan(lower) {
			tax = tax.Add(upper.Sub(lower).Mul(b.Rate))
		}
		if b.UpTo == nil {
			break
		}
		lower = *b.UpTo
	}

	return tax.Div(monthsPerYear).Round(2)
}

// CalculateStatutoryDeductions runs every statutory formula for one month.
func CalculateStatutoryDeductions(basicSalary, grossSalary decimal.Decimal, cfg payroll.StatutoryConfig) payroll.StatutoryDeductions {
	return payroll.StatutoryDeductions{
		PF:  CalculatePF(basicSalary, cfg),
		ESI: CalculateESI(grossSalary, cfg),
		TDS: CalculateTDS(grossSalary, cfg.TaxBrackets),
		PT:  CalculatePT(grossSalary, cfg),
	}
}

// statutoryAmount resolves a statutory component code. ok is false for codes
// that have no statutory formula.
func statutoryAmount(code string, basicSalary, grossSalary decimal.Decimal, cfg payroll.StatutoryConfig) (amount, base decimal.Decimal, ok bool) {
	switch code {
	case payroll.CodePF:
		return CalculatePF(basicSalary, cfg), basicSalary, true
	case payroll.CodeESI:
		return CalculateESI(grossSalary, cfg), grossSalary, true
	case payroll.CodePT:
		return CalculatePT(grossSalary, cfg), grossSalary, true
	case payroll.CodeTDS:
		return CalculateTDS(grossSalary, cfg.TaxBrackets), grossSalary, true
	}
	return decimal.Zero, decimal.Zero, false
}
