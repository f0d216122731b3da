package leave

import (
	"time"

	"github.com/cmlabs-hris/hris-core-go/internal/pkg/utils"
	"github.com/cmlabs-hris/hris-core-go/internal/pkg/validator"
	"github.com/shopspring/decimal"
)

type CreateLeaveRequestRequest struct {
	EmployeeID   string `json:"employee_id"`
	PolicyID     string `json:"policy_id"`
	StartDate    string `json:"start_date"`
	EndDate      string `json:"end_date"`
	DurationType string `json:"duration_type,omitempty"`
	Reason       string `json:"reason"`
}

func (r *CreateLeaveRequestRequest) Validate() error {
	var errs validator.ValidationErrors

	// Employee ID
	if validator.IsEmpty(r.EmployeeID) {
		errs = append(errs, validator.ValidationError{
			Field:   "employee_id",
			Message: "employee_id is required",
		})
	}

	// Policy ID
	if validator.IsEmpty(r.PolicyID) {
		errs = append(errs, validator.ValidationError{
			Field:   "policy_id",
			Message: "policy_id is required",
		})
	}

	// Dates
	start, startOK := validator.IsValidDate(r.StartDate)
	if !startOK {
		errs = append(errs, validator.ValidationError{
			Field:   "start_date",
			Message: "start_date must be in YYYY-MM-DD format",
		})
	}
	end, endOK := validator.IsValidDate(r.EndDate)
	if !endOK {
		errs = append(errs, validator.ValidationError{
			Field:   "end_date",
			Message: "end_date must be in YYYY-MM-DD format",
		})
	}
	if startOK && endOK && end.Before(start) {
		errs = append(errs, validator.ValidationError{
			Field:   "end_date",
			Message: "end_date must not be before start_date",
		})
	}

	// Duration type
	duration := r.Duration()
	if !validator.IsInSlice(string(duration), []string{
		string(LeaveDurationFullDay),
		string(LeaveDurationHalfDayMorning),
		string(LeaveDurationHalfDayAfternoon),
	}) {
		errs = append(errs, validator.ValidationError{
			Field:   "duration_type",
			Message: "duration_type must be full_day, half_day_morning or half_day_afternoon",
		})
	} else if duration.IsHalfDay() && startOK && endOK && !start.Equal(end) {
		errs = append(errs, validator.ValidationError{
			Field:   "duration_type",
			Message: "half day leave must start and end on the same date",
		})
	}

	if len(r.Reason) > 1000 {
		errs = append(errs, validator.ValidationError{
			Field:   "reason",
			Message: "reason must not exceed 1000 characters",
		})
	}

	if len(errs) > 0 {
		return errs
	}

	return nil
}

// Duration defaults an empty duration type to a full day.
func (r *CreateLeaveRequestRequest) Duration() LeaveDurationEnum {
	if r.DurationType == "" {
		return LeaveDurationFullDay
	}
	return LeaveDurationEnum(r.DurationType)
}

// Range returns the requested dates. Call Validate first.
func (r *CreateLeaveRequestRequest) Range() (utils.DateRange, error) {
	start, err := time.Parse(validator.DateLayout, r.StartDate)
	if err != nil {
		return utils.DateRange{}, err
	}
	end, err := time.Parse(validator.DateLayout, r.EndDate)
	if err != nil {
		return utils.DateRange{}, err
	}
	return utils.NewDateRange(start, end)
}

// RequestedDays counts the leave days a request consumes: inclusive calendar
// days, or half a day for a single-date half-day request.
func RequestedDays(dates utils.DateRange, duration LeaveDurationEnum) decimal.Decimal {
	if duration.IsHalfDay() && dates.Days() == 1 {
		return decimal.NewFromFloat(0.5)
	}
	return decimal.NewFromInt(int64(dates.Days()))
}

type UpdateLeaveRequestStatusRequest struct {
	RequestID string  `json:"request_id"`
	Status    string  `json:"status"`
	DecidedBy *string `json:"decided_by,omitempty"`

	// Taken from the caller's token, never from the body.
	DeciderEmployeeID string `json:"-"`
	DeciderCompanyID  string `json:"-"`
}

func (r *UpdateLeaveRequestStatusRequest) Validate() error {
	var errs validator.ValidationErrors

	if validator.IsEmpty(r.RequestID) {
		errs = append(errs, validator.ValidationError{
			Field:   "request_id",
			Message: "request_id is required",
		})
	}

	if !LeaveRequestStatus(r.Status).IsFinal() {
		errs = append(errs, validator.ValidationError{
			Field:   "status",
			Message: "status must be APPROVED, REJECTED or CANCELLED",
		})
	}

	if len(errs) > 0 {
		return errs
	}

	return nil
}

type InitializeBalanceRequest struct {
	EmployeeID string `json:"employee_id"`
	PolicyID   string `json:"policy_id"`
	Year       int    `json:"year"`
	AsOfDate   string `json:"as_of_date,omitempty"`
}

func (r *InitializeBalanceRequest) Validate() error {
	var errs validator.ValidationErrors

	if validator.IsEmpty(r.EmployeeID) {
		errs = append(errs, validator.ValidationError{
			Field:   "employee_id",
			Message: "employee_id is required",
		})
	}
	if validator.IsEmpty(r.PolicyID) {
		errs = append(errs, validator.ValidationError{
			Field:   "policy_id",
			Message: "policy_id is required",
		})
	}
	if r.Year <= 0 {
		errs = append(errs, validator.ValidationError{
			Field:   "year",
			Message: "year must be a positive integer",
		})
	}
	if r.AsOfDate != "" {
		if asOf, ok := validator.IsValidDate(r.AsOfDate); !ok {
			errs = append(errs, validator.ValidationError{
				Field:   "as_of_date",
				Message: "as_of_date must be in YYYY-MM-DD format",
			})
		} else if r.Year > 0 && asOf.Year() != r.Year {
			errs = append(errs, validator.ValidationError{
				Field:   "as_of_date",
				Message: "as_of_date must fall within year",
			})
		}
	}

	if len(errs) > 0 {
		return errs
	}

	return nil
}

type CarryForwardRequest struct {
	EmployeeID string `json:"employee_id"`
	FromYear   int    `json:"from_year"`
	ToYear     int    `json:"to_year"`
}

func (r *CarryForwardRequest) Validate() error {
	var errs validator.ValidationErrors

	if validator.IsEmpty(r.EmployeeID) {
		errs = append(errs, validator.ValidationError{
			Field:   "employee_id",
			Message: "employee_id is required",
		})
	}
	if r.FromYear <= 0 {
		errs = append(errs, validator.ValidationError{
			Field:   "from_year",
			Message: "from_year must be a positive integer",
		})
	}
	if r.ToYear <= r.FromYear {
		errs = append(errs, validator.ValidationError{
			Field:   "to_year",
			Message: "to_year must be after from_year",
		})
	}

	if len(errs) > 0 {
		return errs
	}

	return nil
}

type LeaveBalanceResponse struct {
	ID             string          `json:"id"`
	EmployeeID     string          `json:"employee_id"`
	PolicyID       string          `json:"policy_id"`
	Year           int             `json:"year"`
	Allocated      decimal.Decimal `json:"allocated"`
	Used           decimal.Decimal `json:"used"`
	Pending        decimal.Decimal `json:"pending"`
	CarriedForward decimal.Decimal `json:"carried_forward"`
	Encashed       decimal.Decimal `json:"encashed"`
	Expired        decimal.Decimal `json:"expired"`
	Available      decimal.Decimal `json:"available"`
	UpdatedAt      time.Time       `json:"updated_at"`
}

func NewLeaveBalanceResponse(b LeaveBalance) LeaveBalanceResponse {
	return LeaveBalanceResponse{
		ID:             b.ID,
		EmployeeID:     b.EmployeeID,
		PolicyID:       b.PolicyID,
		Year:           b.Year,
		Allocated:      b.Allocated,
		Used:           b.Used,
		Pending:        b.Pending,
		CarriedForward: b.CarriedForward,
		Encashed:       b.Encashed,
		Expired:        b.Expired,
		Available:      b.Available,
		UpdatedAt:      b.UpdatedAt,
	}
}

type LeaveRequestResponse struct {
	ID           string          `json:"id"`
	EmployeeID   string          `json:"employee_id"`
	PolicyID     string          `json:"policy_id"`
	StartDate    string          `json:"start_date"`
	EndDate      string          `json:"end_date"`
	DurationType string          `json:"duration_type"`
	TotalDays    decimal.Decimal `json:"total_days"`
	Reason       string          `json:"reason"`
	Status       string          `json:"status"`
	SubmittedAt  time.Time       `json:"submitted_at"`
}

func NewLeaveRequestResponse(r LeaveRequest) LeaveRequestResponse {
	return LeaveRequestResponse{
		ID:           r.ID,
		EmployeeID:   r.EmployeeID,
		PolicyID:     r.PolicyID,
		StartDate:    r.StartDate.Format(validator.DateLayout),
		EndDate:      r.EndDate.Format(validator.DateLayout),
		DurationType: string(r.DurationType),
		TotalDays:    r.TotalDays,
		Reason:       r.Reason,
		Status:       string(r.Status),
		SubmittedAt:  r.SubmittedAt,
	}
}

type AccrualResponse struct {
	EmployeeID string          `json:"employee_id"`
	PolicyID   string          `json:"policy_id"`
	AsOfDate   string          `json:"as_of_date"`
	Days       decimal.Decimal `json:"days"`
}

// CarryForwardResult describes one policy's year-end move.
type CarryForwardResult struct {
	PolicyID      string          `json:"policy_id"`
	FromBalanceID string          `json:"from_balance_id"`
	ToBalanceID   string          `json:"to_balance_id"`
	Carried       decimal.Decimal `json:"carried"`
	Expired       decimal.Decimal `json:"expired"`
}
