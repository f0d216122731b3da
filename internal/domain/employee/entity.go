package employee

import (
	"time"

	"github.com/shopspring/decimal"
)

type Employee struct {
	ID                string
	UserID            *string
	CompanyID         string
	EmployeeCode      string
	FullName          string
	Gender            *Gender
	HireDate          *time.Time
	ResignationDate   *time.Time
	EmploymentStatus  EmploymentStatus
	SalaryStructureID *string
	AnnualCTC         *decimal.Decimal
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

type Gender string

const (
	Male   Gender = "Male"
	Female Gender = "Female"
)

type EmploymentStatus string

const (
	EmploymentStatusActive     EmploymentStatus = "active"
	EmploymentStatusResigned   EmploymentStatus = "resigned"
	EmploymentStatusTerminated EmploymentStatus = "terminated"
)

// JoiningDate is the hire date at day precision, or nil when unknown.
func (e Employee) JoiningDate() *time.Time {
	if e.HireDate == nil || e.HireDate.IsZero() {
		return nil
	}
	d := time.Date(e.HireDate.Year(), e.HireDate.Month(), e.HireDate.Day(), 0, 0, 0, 0, time.UTC)
	return &d
}
