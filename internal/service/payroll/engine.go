package payroll

import (
	"fmt"

	"github.com/cmlabs-hris/hris-core-go/internal/config"
	"github.com/cmlabs-hris/hris-core-go/internal/domain/payroll"
	"github.com/cmlabs-hris/hris-core-go/internal/pkg/utils"
	"github.com/cmlabs-hris/hris-core-go/internal/pkg/validator"
	"github.com/shopspring/decimal"
)

// Engine evaluates salary structures. It holds configuration only and is safe
// for concurrent use.
type Engine struct {
	statutory payroll.StatutoryConfig
	proration payroll.ProrationRule
	rounding  payroll.RoundingRule
}

// NewEngine builds an engine. The payroll defaults apply to structures that
// leave their proration or rounding rule empty.
func NewEngine(statutory payroll.StatutoryConfig, defaults config.PayrollConfig) (*Engine, error) {
	e := &Engine{
		statutory: statutory,
		proration: payroll.ProrationRule(defaults.ProrationRule),
		rounding:  payroll.RoundingRule(defaults.RoundingRule),
	}
	if e.proration == "" {
		e.proration = payroll.ProrationNone
	}
	if e.rounding == "" {
		e.rounding = payroll.RoundNone
	}
	if !e.proration.IsValid() {
		return nil, fmt.Errorf("invalid default proration rule %q", defaults.ProrationRule)
	}
	if !e.rounding.IsValid() {
		return nil, fmt.Errorf("invalid default rounding rule %q", defaults.RoundingRule)
	}
	return e, nil
}

// runState carries the running totals later components read.
type runState struct {
	ctc    decimal.Decimal
	basic  decimal.Decimal
	gross  decimal.Decimal
	values map[string]decimal.Decimal
	cc     payroll.CalculationContext
}

func (r *runState) token(name string) decimal.Decimal {
	switch name {
	case payroll.TokenCTC:
		return r.ctc
	case payroll.TokenBasic:
		return r.basic
	case payroll.TokenGross:
		return r.gross
	case payroll.TokenOvertimeHours:
		return r.cc.OvertimeHours
	case payroll.TokenPresentDays:
		return r.cc.PresentDays
	case payroll.TokenWorkingDays:
		return r.cc.WorkingDays
	}
	return r.values[name]
}

func (r *runState) vars(names []string) map[string]decimal.Decimal {
	out := make(map[string]decimal.Decimal, len(names))
	for _, n := range names {
		out[n] = r.token(n)
	}
	return out
}

// CalculateAllComponents evaluates every component of structure for one
// month. ctc is the annual cost to company; the CTC token is its monthly
// share. The result holds exactly one entry per component in evaluation
// order. A component that cannot be resolved yields 0 with its reason in
// CalculationDetails.ValidationErrors while the others still calculate.
func (e *Engine) CalculateAllComponents(employeeID string, structure payroll.SalaryStructure, ctc decimal.Decimal, cc payroll.CalculationContext) []payroll.ComponentCalculationResult {
	proration := structure.ProrationRule
	if proration == "" {
		proration = e.proration
	}
	rounding := structure.RoundingRule
	if rounding == "" {
		rounding = e.rounding
	}

	state := &runState{
		ctc:    ctc.Div(monthsPerYear),
		values: make(map[string]decimal.Decimal, len(structure.Components)),
		cc:     cc,
	}
	period := cc.Period()

	steps := plan(structure.Components)
	results := make([]payroll.ComponentCalculationResult, 0, len(steps))
	for _, s := range steps {
		result := e.calculateComponent(s, state, period, proration, rounding)

		if _, seen := state.values[s.code]; !seen {
			state.values[s.code] = result.CalculatedValue
		}
		if s.component.Component.Category == payroll.CategoryBasic {
			state.basic = state.basic.Add(result.CalculatedValue)
		}
		if s.component.Component.Type == payroll.ComponentTypeEarning {
			state.gross = state.gross.Add(result.CalculatedValue)
		}

		results = append(results, result)
	}

	return results
}

// CalculateStatutoryDeductions implements payroll.Calculator.
func (e *Engine) CalculateStatutoryDeductions(basicSalary, grossSalary decimal.Decimal) payroll.StatutoryDeductions {
	return CalculateStatutoryDeductions(basicSalary, grossSalary, e.statutory)
}

func (e *Engine) calculateComponent(s step, state *runState, period utils.DateRange, proration payroll.ProrationRule, rounding payroll.RoundingRule) payroll.ComponentCalculationResult {
	sc := s.component
	c := sc.Component

	result := payroll.ComponentCalculationResult{
		ComponentID:     c.ID,
		Code:            c.Code,
		Name:            c.Name,
		Type:            c.Type,
		Category:        c.Category,
		BaseValue:       decimal.Zero,
		CalculatedValue: decimal.Zero,
		CalculationDetails: payroll.CalculationDetails{
			CalculationType: c.CalculationType,
			RoundingRule:    rounding,
		},
	}
	fail := func(err error) payroll.ComponentCalculationResult {
		result.CalculatedValue = decimal.Zero
		result.IsProrated = false
		result.CalculationDetails.ValidationErrors = append(result.CalculationDetails.ValidationErrors, err.Error())
		return result
	}

	if s.err != nil {
		return fail(s.err)
	}
	if !c.EffectiveDuring(period) {
		return fail(fmt.Errorf("%w: %s", payroll.ErrNotEffective, effectiveWindow(c)))
	}

	raw, base, err := e.rawValue(s, state, &result.CalculationDetails)
	if err != nil {
		return fail(err)
	}
	result.BaseValue = base

	if factor, ok := prorationFactor(sc, proration, state.cc); ok {
		raw = raw.Mul(factor)
		result.CalculationDetails.ProrationFactor = &factor
		result.IsProrated = !factor.Equal(decimal.NewFromInt(1))
	}

	value := applyRounding(raw, rounding)
	if sc.MinValue != nil && value.LessThan(*sc.MinValue) {
		value = *sc.MinValue
		result.CalculationDetails.Clamped = true
	}
	if sc.MaxValue != nil && value.GreaterThan(*sc.MaxValue) {
		value = *sc.MaxValue
		result.CalculationDetails.Clamped = true
	}
	result.CalculatedValue = value

	return result
}

// rawValue computes the unrounded, unprorated amount and the base it was taken from.
func (e *Engine) rawValue(s step, state *runState, details *payroll.CalculationDetails) (decimal.Decimal, decimal.Decimal, error) {
	sc := s.component

	if usesStatutoryFormula(sc.Component) {
		amount, base, _ := statutoryAmount(s.code, state.basic, state.gross, e.statutory)
		return amount, base, nil
	}

	switch sc.Component.CalculationType {
	case payroll.CalculationFixed:
		return *sc.Value, *sc.Value, nil

	case payroll.CalculationPercentage:
		token := normalizeToken(*sc.BaseComponent)
		base := state.token(token)
		details.BaseComponent = token
		details.Percentage = sc.Percentage
		return base.Mul(*sc.Percentage).Div(hundred), base, nil

	case payroll.CalculationFormula:
		details.Formula = s.expr.String()
		amount, err := s.expr.Evaluate(state.vars(s.expr.Identifiers()))
		if err != nil {
			return decimal.Zero, decimal.Zero, fmt.Errorf("%w: %v", payroll.ErrInvalidFormula, err)
		}
		return amount, amount, nil

	case payroll.CalculationAttendanceBased:
		return sc.Value.Mul(state.cc.AttendanceRatio()), *sc.Value, nil
	}

	return decimal.Zero, decimal.Zero, fmt.Errorf("%w: unsupported calculation type %q", payroll.ErrInvalidStructure, sc.Component.CalculationType)
}

// prorationFactor returns the multiplier for sc. BASIC, statutory and
// attendance-based components are never prorated.
func prorationFactor(sc payroll.SalaryStructureComponent, rule payroll.ProrationRule, cc payroll.CalculationContext) (decimal.Decimal, bool) {
	c := sc.Component
	if c.Category == payroll.CategoryBasic || c.IsStatutory || c.CalculationType == payroll.CalculationAttendanceBased {
		return decimal.Zero, false
	}

	switch rule {
	case payroll.ProrationDaily:
		return cc.AttendanceRatio(), true
	case payroll.ProrationMonthly:
		days := decimal.NewFromInt(int64(utils.DaysInMonth(cc.PeriodStart.Year(), cc.PeriodStart.Month())))
		factor := cc.PresentDays.Div(days)
		if factor.IsNegative() {
			factor = decimal.Zero
		}
		if factor.GreaterThan(decimal.NewFromInt(1)) {
			factor = decimal.NewFromInt(1)
		}
		return factor, true
	}
	return decimal.Zero, false
}

func applyRounding(v decimal.Decimal, rule payroll.RoundingRule) decimal.Decimal {
	switch rule {
	case payroll.RoundUp:
		return v.Ceil()
	case payroll.RoundDown:
		return v.Floor()
	case payroll.RoundNearest:
		return v.Round(0)
	}
	return v.Round(2)
}

func effectiveWindow(c payroll.PayComponent) string {
	from, to := "open", "open"
	if c.EffectiveFrom != nil {
		from = c.EffectiveFrom.Format(validator.DateLayout)
	}
	if c.EffectiveTo != nil {
		to = c.EffectiveTo.Format(validator.DateLayout)
	}
	return fmt.Sprintf("%s effective from %s to %s", c.NormalizedCode(), from, to)
}
