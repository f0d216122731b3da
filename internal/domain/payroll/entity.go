package payroll

import (
	"strings"
	"time"

	"github.com/cmlabs-hris/hris-core-go/internal/pkg/utils"
	"github.com/shopspring/decimal"
)

// ComponentType enum
type ComponentType string

const (
	ComponentTypeEarning   ComponentType = "EARNING"
	ComponentTypeDeduction ComponentType = "DEDUCTION"
)

// ComponentCategory enum
type ComponentCategory string

const (
	CategoryBasic         ComponentCategory = "BASIC"
	CategoryAllowance     ComponentCategory = "ALLOWANCE"
	CategoryBonus         ComponentCategory = "BONUS"
	CategoryReimbursement ComponentCategory = "REIMBURSEMENT"
	CategoryStatutory     ComponentCategory = "STATUTORY"
	CategoryTax           ComponentCategory = "TAX"
	CategoryOther         ComponentCategory = "OTHER"
)

// CalculationType enum
type CalculationType string

const (
	CalculationFixed           CalculationType = "FIXED"
	CalculationPercentage      CalculationType = "PERCENTAGE"
	CalculationFormula         CalculationType = "FORMULA"
	CalculationAttendanceBased CalculationType = "ATTENDANCE_BASED"
)

func (c CalculationType) IsValid() bool {
	switch c {
	case CalculationFixed, CalculationPercentage, CalculationFormula, CalculationAttendanceBased:
		return true
	}
	return false
}

// ProrationRule enum
type ProrationRule string

const (
	ProrationNone    ProrationRule = "NONE"
	ProrationDaily   ProrationRule = "DAILY"
	ProrationMonthly ProrationRule = "MONTHLY"
)

func (p ProrationRule) IsValid() bool {
	switch p {
	case ProrationNone, ProrationDaily, ProrationMonthly:
		return true
	}
	return false
}

// RoundingRule enum
type RoundingRule string

const (
	RoundUp      RoundingRule = "ROUND_UP"
	RoundDown    RoundingRule = "ROUND_DOWN"
	RoundNearest RoundingRule = "ROUND_NEAREST"
	RoundNone    RoundingRule = "NONE"
)

func (r RoundingRule) IsValid() bool {
	switch r {
	case RoundUp, RoundDown, RoundNearest, RoundNone:
		return true
	}
	return false
}

// Reserved formula and base tokens.
const (
	TokenCTC           = "CTC"
	TokenBasic         = "BASIC"
	TokenGross         = "GROSS"
	TokenOvertimeHours = "OVERTIME_HOURS"
	TokenPresentDays   = "PRESENT_DAYS"
	TokenWorkingDays   = "WORKING_DAYS"
)

// Statutory component codes resolved by the statutory calculator.
const (
	CodePF  = "PF"
	CodeESI = "ESI"
	CodePT  = "PT"
	CodeTDS = "TDS"
)

// PayComponent - Master pay component, shared across salary structures
type PayComponent struct {
	ID              string
	CompanyID       string
	Code            string
	Name            string
	Type            ComponentType
	Category        ComponentCategory
	CalculationType CalculationType
	IsStatutory     bool
	IsTaxable       bool
	Formula         *string
	EffectiveFrom   *time.Time
	EffectiveTo     *time.Time
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// NormalizedCode is the code as formulas reference it.
func (c PayComponent) NormalizedCode() string {
	return strings.ToUpper(strings.TrimSpace(c.Code))
}

// EffectiveDuring reports whether the component is in force for any day of period.
func (c PayComponent) EffectiveDuring(period utils.DateRange) bool {
	effective := period
	if c.EffectiveFrom != nil {
		effective.Start = *c.EffectiveFrom
	}
	if c.EffectiveTo != nil {
		effective.End = *c.EffectiveTo
	}
	return period.Overlaps(effective)
}

// SalaryStructureComponent - Component configured on a structure
type SalaryStructureComponent struct {
	StructureID   string
	ComponentID   string
	Value         *decimal.Decimal
	Percentage    *decimal.Decimal
	BaseComponent *string
	MinValue      *decimal.Decimal
	MaxValue      *decimal.Decimal
	Order         int

	// Joined fields
	Component PayComponent
}

// SalaryStructure - Ordered list of components with its proration and rounding rules
type SalaryStructure struct {
	ID            string
	CompanyID     string
	Name          string
	ProrationRule ProrationRule
	RoundingRule  RoundingRule
	IsActive      bool
	Components    []SalaryStructureComponent
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// CalculationContext - Attendance figures for one employee and pay period
type CalculationContext struct {
	EmployeeID    string
	PeriodStart   time.Time
	PeriodEnd     time.Time
	WorkingDays   decimal.Decimal
	PresentDays   decimal.Decimal
	OvertimeHours decimal.Decimal
}

// AttendanceRatio is PresentDays/WorkingDays clamped to [0, 1]. No working
// days yields 0.
func (c CalculationContext) AttendanceRatio() decimal.Decimal {
	if !c.WorkingDays.IsPositive() {
		return decimal.Zero
	}
	ratio := c.PresentDays.Div(c.WorkingDays)
	if ratio.IsNegative() {
		return decimal.Zero
	}
	if ratio.GreaterThan(decimal.NewFromInt(1)) {
		return decimal.NewFromInt(1)
	}
	return ratio
}

// Period returns the pay period as a date range.
func (c CalculationContext) Period() utils.DateRange {
	return utils.DateRange{Start: utils.TruncateDay(c.PeriodStart), End: utils.TruncateDay(c.PeriodEnd)}
}

// CalculationDetails - How a component value was reached
type CalculationDetails struct {
	CalculationType  CalculationType  `json:"calculation_type"`
	Formula          string           `json:"formula,omitempty"`
	BaseComponent    string           `json:"base_component,omitempty"`
	Percentage       *decimal.Decimal `json:"percentage,omitempty"`
	ProrationFactor  *decimal.Decimal `json:"proration_factor,omitempty"`
	RoundingRule     RoundingRule     `json:"rounding_rule,omitempty"`
	Clamped          bool             `json:"clamped,omitempty"`
	ValidationErrors []string         `json:"validation_errors,omitempty"`
}

// ComponentCalculationResult - Per pay run value of one component, not persisted here
type ComponentCalculationResult struct {
	ComponentID        string
	Code               string
	Name               string
	Type               ComponentType
	Category           ComponentCategory
	BaseValue          decimal.Decimal
	CalculatedValue    decimal.Decimal
	IsProrated         bool
	CalculationDetails CalculationDetails
}

// Failed reports whether the component resolved to 0 because of an error.
func (r ComponentCalculationResult) Failed() bool {
	return len(r.CalculationDetails.ValidationErrors) > 0
}

// TaxBracket - Annual income slab. UpTo nil means no upper bound.
type TaxBracket struct {
	UpTo *decimal.Decimal
	Rate decimal.Decimal
}

// StatutoryConfig - Rates and thresholds for statutory deductions
type StatutoryConfig struct {
	PFRate          decimal.Decimal
	PFWageCeiling   decimal.Decimal
	ESIRate         decimal.Decimal
	ESIThreshold    decimal.Decimal
	ProfessionalTax decimal.Decimal
	TaxBrackets     []TaxBracket
}

func DefaultTaxBrackets() []TaxBracket {
	upTo := func(v int64) *decimal.Decimal {
		d := decimal.NewFromInt(v)
		return &d
	}
	return []TaxBracket{
		{UpTo: upTo(300000), Rate: decimal.Zero},
		{UpTo: upTo(700000), Rate: decimal.RequireFromString("0.05")},
		{UpTo: upTo(1000000), Rate: decimal.RequireFromString("0.10")},
		{UpTo: upTo(1200000), Rate: decimal.RequireFromString("0.15")},
		{UpTo: upTo(1500000), Rate: decimal.RequireFromString("0.20")},
		{Rate: decimal.RequireFromString("0.30")},
	}
}

func DefaultStatutoryConfig() StatutoryConfig {
	return StatutoryConfig{
		PFRate:          decimal.RequireFromString("0.12"),
		PFWageCeiling:   decimal.NewFromInt(15000),
		ESIRate:         decimal.RequireFromString("0.0075"),
		ESIThreshold:    decimal.NewFromInt(21000),
		ProfessionalTax: decimal.NewFromInt(200),
		TaxBrackets:     DefaultTaxBrackets(),
	}
}

// StatutoryDeductions - Monthly statutory amounts
type StatutoryDeductions struct {
	PF  decimal.Decimal
	ESI decimal.Decimal
	TDS decimal.Decimal
	PT  decimal.Decimal
}

func (s StatutoryDeductions) Total() decimal.Decimal {
	return s.PF.Add(s.ESI).Add(s.TDS).Add(s.PT)
}

// PayrollCalculation - Component results for one employee and period plus totals
type PayrollCalculation struct {
	EmployeeID      string
	StructureID     string
	PeriodStart     time.Time
	PeriodEnd       time.Time
	MonthlyCTC      decimal.Decimal
	Components      []ComponentCalculationResult
	BasicSalary     decimal.Decimal
	GrossEarnings   decimal.Decimal
	TotalDeductions decimal.Decimal
	NetPay          decimal.Decimal
	Statutory       StatutoryDeductions
	FailedCount     int
}
