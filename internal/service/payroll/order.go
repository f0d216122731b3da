package payroll

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/cmlabs-hris/hris-core-go/internal/domain/payroll"
	"github.com/cmlabs-hris/hris-core-go/internal/pkg/formula"
	"github.com/cmlabs-hris/hris-core-go/internal/pkg/validator"
)

// step is one component of an evaluation plan. A step carrying err resolves
// to 0 without being evaluated.
type step struct {
	component payroll.SalaryStructureComponent
	code      string
	deps      []int
	expr      *formula.Expression
	err       error
}

// OrderComponents returns components in evaluation order. Every component
// comes after the components it reads. Among components that are ready at the
// same time BASIC comes first, then FIXED, then earnings before deductions,
// then the configured order. The error joins one ComponentError per
// misconfigured component; the order is complete either way.
func OrderComponents(components []payroll.SalaryStructureComponent) ([]payroll.SalaryStructureComponent, error) {
	steps := plan(components)

	ordered := make([]payroll.SalaryStructureComponent, 0, len(steps))
	var errs []error
	for _, s := range steps {
		ordered = append(ordered, s.component)
		if s.err != nil {
			errs = append(errs, &payroll.ComponentError{Code: s.code, Err: s.err})
		}
	}
	return ordered, errors.Join(errs...)
}

// ValidateStructure reports configuration problems of a structure without
// evaluating it: unknown rules, incomplete components, unknown references and
// dependency cycles.
func ValidateStructure(structure payroll.SalaryStructure) error {
	var errs validator.ValidationErrors

	if structure.ProrationRule != "" && !structure.ProrationRule.IsValid() {
		errs = append(errs, validator.ValidationError{Field: "proration_rule", Message: fmt.Sprintf("unknown proration rule %q", structure.ProrationRule)})
	}
	if structure.RoundingRule != "" && !structure.RoundingRule.IsValid() {
		errs = append(errs, validator.ValidationError{Field: "rounding_rule", Message: fmt.Sprintf("unknown rounding rule %q", structure.RoundingRule)})
	}
	if len(structure.Components) == 0 {
		errs = append(errs, validator.ValidationError{Field: "components", Message: "must not be empty"})
	}

	for _, s := range plan(structure.Components) {
		if s.err != nil {
			errs = append(errs, validator.ValidationError{Field: "components." + s.code, Message: s.err.Error()})
		}
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

func plan(components []payroll.SalaryStructureComponent) []step {
	steps := make([]step, len(components))
	index := make(map[string]int, len(components))
	for i, sc := range components {
		code := sc.Component.NormalizedCode()
		steps[i] = step{component: sc, code: code}
		if _, dup := index[code]; dup {
			steps[i].err = fmt.Errorf("%w: duplicate component code %s", payroll.ErrInvalidStructure, code)
			continue
		}
		index[code] = i
	}

	refs := make([][]string, len(steps))
	for i := range steps {
		if steps[i].err != nil {
			continue
		}
		if err := checkConfiguration(steps[i].component); err != nil {
			steps[i].err = err
			continue
		}
		tokens, expr, err := references(steps[i].component)
		if err != nil {
			steps[i].err = err
			continue
		}
		refs[i] = tokens
		steps[i].expr = expr
	}

	readsGross := func(i int) bool {
		for _, t := range refs[i] {
			if t == payroll.TokenGross {
				return true
			}
		}
		return false
	}

	for i := range steps {
		if steps[i].err != nil {
			continue
		}
		deps := make(map[int]struct{})
		var missing []string
		for _, token := range refs[i] {
			switch token {
			case payroll.TokenCTC, payroll.TokenOvertimeHours, payroll.TokenPresentDays, payroll.TokenWorkingDays:
			case payroll.TokenBasic:
				for j := range steps {
					if j != i && steps[j].component.Component.Category == payroll.CategoryBasic {
						deps[j] = struct{}{}
					}
				}
			case payroll.TokenGross:
				// An earning on GROSS sees the earnings that do not read GROSS
				// themselves. A deduction sees every earning.
				earning := steps[i].component.Component.Type == payroll.ComponentTypeEarning
				for j := range steps {
					if j == i || steps[j].component.Component.Type != payroll.ComponentTypeEarning {
						continue
					}
					if earning && readsGross(j) {
						continue
					}
					deps[j] = struct{}{}
				}
			default:
				j, ok := index[token]
				if !ok {
					missing = append(missing, token)
					continue
				}
				deps[j] = struct{}{}
			}
		}
		if len(missing) > 0 {
			steps[i].err = fmt.Errorf("%w: %s", payroll.ErrMissingDependency, strings.Join(missing, ", "))
			continue
		}
		for j := range deps {
			steps[i].deps = append(steps[i].deps, j)
		}
		sort.Ints(steps[i].deps)
	}

	return order(steps)
}

// order is Kahn's algorithm picking the best ranked ready step each round.
// When no step is ready the steps sitting on a cycle are failed and released
// so the rest of the structure can still be evaluated.
func order(steps []step) []step {
	resolved := make([]bool, len(steps))
	out := make([]step, 0, len(steps))

	ready := func(i int) bool {
		for _, d := range steps[i].deps {
			if !resolved[d] {
				return false
			}
		}
		return true
	}

	for len(out) < len(steps) {
		next := -1
		for i := range steps {
			if resolved[i] || !ready(i) {
				continue
			}
			if next < 0 || rankLess(steps[i].component, steps[next].component) {
				next = i
			}
		}
		if next >= 0 {
			resolved[next] = true
			out = append(out, steps[next])
			continue
		}

		cyclic := cycleMembers(steps, resolved)
		for _, i := range cyclic {
			steps[i].err = fmt.Errorf("%w among: %s", payroll.ErrCircularDependency, strings.Join(cycleCodes(steps, resolved, i), ", "))
		}
		for _, i := range cyclic {
			resolved[i] = true
			out = append(out, steps[i])
		}
	}

	return out
}

// reachable marks the unresolved steps reachable from i through deps.
func reachable(steps []step, resolved []bool, i int) []bool {
	seen := make([]bool, len(steps))
	stack := append([]int(nil), steps[i].deps...)
	for len(stack) > 0 {
		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if resolved[n] || seen[n] {
			continue
		}
		seen[n] = true
		stack = append(stack, steps[n].deps...)
	}
	return seen
}

func cycleMembers(steps []step, resolved []bool) []int {
	var members []int
	for i := range steps {
		if !resolved[i] && reachable(steps, resolved, i)[i] {
			members = append(members, i)
		}
	}
	sort.Slice(members, func(a, b int) bool {
		return rankLess(steps[members[a]].component, steps[members[b]].component)
	})
	return members
}

// cycleCodes lists the codes sharing a cycle with i, i included.
func cycleCodes(steps []step, resolved []bool, i int) []string {
	from := reachable(steps, resolved, i)
	var codes []string
	for j := range steps {
		if from[j] && reachable(steps, resolved, j)[i] {
			codes = append(codes, steps[j].code)
		}
	}
	sort.Strings(codes)
	return codes
}

func rankLess(a, b payroll.SalaryStructureComponent) bool {
	ka, kb := rankKey(a), rankKey(b)
	for n := range ka {
		if ka[n] != kb[n] {
			return ka[n] < kb[n]
		}
	}
	if a.Order != b.Order {
		return a.Order < b.Order
	}
	return a.Component.NormalizedCode() < b.Component.NormalizedCode()
}

func rankKey(sc payroll.SalaryStructureComponent) [3]int {
	var key [3]int
	if sc.Component.Category != payroll.CategoryBasic {
		key[0] = 1
	}
	if sc.Component.CalculationType != payroll.CalculationFixed {
		key[1] = 1
	}
	if sc.Component.Type != payroll.ComponentTypeEarning {
		key[2] = 1
	}
	return key
}

func usesStatutoryFormula(c payroll.PayComponent) bool {
	if !c.IsStatutory {
		return false
	}
	switch c.NormalizedCode() {
	case payroll.CodePF, payroll.CodeESI, payroll.CodePT, payroll.CodeTDS:
		return true
	}
	return false
}

func checkConfiguration(sc payroll.SalaryStructureComponent) error {
	if sc.MinValue != nil && sc.MaxValue != nil && sc.MinValue.GreaterThan(*sc.MaxValue) {
		return fmt.Errorf("%w: min_value exceeds max_value", payroll.ErrInvalidStructure)
	}
	if usesStatutoryFormula(sc.Component) {
		return nil
	}

	switch sc.Component.CalculationType {
	case payroll.CalculationFixed, payroll.CalculationAttendanceBased:
		if sc.Value == nil {
			return fmt.Errorf("%w: value is required for %s", payroll.ErrMissingConfiguration, sc.Component.CalculationType)
		}
	case payroll.CalculationPercentage:
		if sc.Percentage == nil {
			return fmt.Errorf("%w: percentage is required", payroll.ErrMissingConfiguration)
		}
		if sc.BaseComponent == nil || strings.TrimSpace(*sc.BaseComponent) == "" {
			return fmt.Errorf("%w: base_component is required", payroll.ErrMissingConfiguration)
		}
	case payroll.CalculationFormula:
		if sc.Component.Formula == nil || strings.TrimSpace(*sc.Component.Formula) == "" {
			return fmt.Errorf("%w: formula is required", payroll.ErrMissingConfiguration)
		}
	default:
		return fmt.Errorf("%w: unsupported calculation type %q", payroll.ErrInvalidStructure, sc.Component.CalculationType)
	}
	return nil
}

// references returns the tokens a component reads. Call checkConfiguration first.
func references(sc payroll.SalaryStructureComponent) ([]string, *formula.Expression, error) {
	if usesStatutoryFormula(sc.Component) {
		if sc.Component.NormalizedCode() == payroll.CodePF {
			return []string{payroll.TokenBasic}, nil, nil
		}
		return []string{payroll.TokenGross}, nil, nil
	}

	switch sc.Component.CalculationType {
	case payroll.CalculationPercentage:
		return []string{normalizeToken(*sc.BaseComponent)}, nil, nil
	case payroll.CalculationFormula:
		expr, err := formula.Parse(*sc.Component.Formula)
		if err != nil {
			return nil, nil, fmt.Errorf("%w: %v", payroll.ErrInvalidFormula, err)
		}
		return expr.Identifiers(), expr, nil
	}
	return nil, nil, nil
}

func normalizeToken(s string) string {
	return strings.ToUpper(strings.TrimSpace(s))
}
