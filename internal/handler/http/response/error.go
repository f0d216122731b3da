package response

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/cmlabs-hris/hris-core-go/internal/domain/attendance"
	"github.com/cmlabs-hris/hris-core-go/internal/domain/employee"
	"github.com/cmlabs-hris/hris-core-go/internal/domain/leave"
	"github.com/cmlabs-hris/hris-core-go/internal/domain/payroll"
	"github.com/cmlabs-hris/hris-core-go/internal/pkg/jwt"
	"github.com/cmlabs-hris/hris-core-go/internal/pkg/validator"
)

// HandleError maps domain errors to HTTP responses
func HandleError(w http.ResponseWriter, err error) {
	// Check if it's a validation error
	var validationErrs validator.ValidationErrors
	if errors.As(err, &validationErrs) {
		ValidationError(w, validationErrs.ToMap())
		return
	}

	switch {
	// Auth errors
	case errors.Is(err, jwt.ErrInvalidToken):
		Unauthorized(w, "Invalid or expired token")
	case errors.Is(err, jwt.ErrManagerAccessRequired):
		Forbidden(w, "Manager access required")

	// Employee domain errors
	case errors.Is(err, employee.ErrEmployeeNotFound):
		NotFound(w, "Employee not found")
	case errors.Is(err, employee.ErrUnauthorized):
		Forbidden(w, err.Error())
	case errors.Is(err, employee.ErrMissingJoiningDate):
		UnprocessableEntity(w, "MISSING_JOINING_DATE", "Employee has no joining date")
	case errors.Is(err, employee.ErrNoSalaryStructure):
		UnprocessableEntity(w, "NO_SALARY_STRUCTURE", "Employee has no salary structure assigned")
	case errors.Is(err, employee.ErrMissingCTC):
		UnprocessableEntity(w, "MISSING_CTC", "Employee has no CTC configured")

	// Attendance domain errors
	case errors.Is(err, attendance.ErrOutsideAllowedRadius):
		UnprocessableEntity(w, "OUTSIDE_ALLOWED_RADIUS", "You are outside the allowed radius")
	case errors.Is(err, attendance.ErrCheckInInFuture):
		BadRequest(w, "Check-in timestamp is in the future", nil)
	case errors.Is(err, attendance.ErrCheckInPointNotFound):
		NotFound(w, "Check-in point not found")
	case errors.Is(err, attendance.ErrDailyRecordNotFound):
		NotFound(w, "Daily distance record not found")
	case errors.Is(err, attendance.ErrAggregateConflict):
		Conflict(w, "Daily distance record is being updated, retry")
	case errors.Is(err, attendance.ErrUnauthorized):
		Forbidden(w, err.Error())

	// Leave domain errors
	case errors.Is(err, leave.ErrLeaveRequestNotFound):
		NotFound(w, "Leave request not found")
	case errors.Is(err, leave.ErrLeavePolicyNotFound):
		NotFound(w, "Leave policy not found")
	case errors.Is(err, leave.ErrLeaveBalanceNotFound):
		NotFound(w, "Leave balance not found")
	case errors.Is(err, leave.ErrLeaveBalanceExists):
		Conflict(w, "Leave balance already exists")
	case errors.Is(err, leave.ErrInsufficientQuota):
		UnprocessableEntity(w, "INSUFFICIENT_QUOTA", "Insufficient leave quota")
	case errors.Is(err, leave.ErrPolicyNotApplicable):
		UnprocessableEntity(w, "POLICY_NOT_APPLICABLE", "Leave policy does not apply to employee")
	case errors.Is(err, leave.ErrInvalidAccrualType):
		UnprocessableEntity(w, "INVALID_ACCRUAL_TYPE", "Invalid accrual type")
	case errors.Is(err, leave.ErrSelfDecision):
		Forbidden(w, err.Error())
	case errors.Is(err, leave.ErrLeaveRequestAlreadyProcessed):
		Conflict(w, "Leave request already processed")
	case errors.Is(err, leave.ErrBalanceConflict):
		Conflict(w, "Leave balance changed concurrently, retry")

	// Payroll domain errors
	case errors.Is(err, payroll.ErrSalaryStructureNotFound):
		NotFound(w, "Salary structure not found")
	case errors.Is(err, payroll.ErrPayComponentNotFound):
		NotFound(w, "Pay component not found")
	case errors.Is(err, payroll.ErrInvalidStructure):
		UnprocessableEntity(w, "INVALID_STRUCTURE", err.Error())
	case errors.Is(err, payroll.ErrInvalidPeriod):
		UnprocessableEntity(w, "INVALID_PERIOD", "Invalid payroll period")

	// Default
	default:
		slog.Error("Unhandled error", "error", err)
		InternalServerError(w, "An unexpected error occurred")
	}
}
