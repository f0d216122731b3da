package http

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/cmlabs-hris/hris-core-go/internal/domain/employee"
	"github.com/cmlabs-hris/hris-core-go/internal/domain/leave"
	"github.com/cmlabs-hris/hris-core-go/internal/handler/http/middleware"
	"github.com/cmlabs-hris/hris-core-go/internal/handler/http/response"
	"github.com/cmlabs-hris/hris-core-go/internal/pkg/validator"
	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
)

type LeaveHandler interface {
	GetAccrual(w http.ResponseWriter, r *http.Request)

	InitializeBalance(w http.ResponseWriter, r *http.Request)
	CarryForward(w http.ResponseWriter, r *http.Request)
	CheckBalance(w http.ResponseWriter, r *http.Request)

	ValidateRequest(w http.ResponseWriter, r *http.Request)
	CreateRequest(w http.ResponseWriter, r *http.Request)
	UpdateRequestStatus(w http.ResponseWriter, r *http.Request)
}

type LeaveHandlerImpl struct {
	leaveService leave.LeaveService
	scope        employeeScope
}

func NewLeaveHandler(leaveService leave.LeaveService, employeeRepo employee.EmployeeRepository) LeaveHandler {
	return &LeaveHandlerImpl{
		leaveService: leaveService,
		scope:        employeeScope{employees: employeeRepo},
	}
}

// GetAccrual implements LeaveHandler.
func (l *LeaveHandlerImpl) GetAccrual(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	employeeID, ok := l.scope.resolve(w, r, query.Get("employee_id"))
	if !ok {
		return
	}

	var errs validator.ValidationErrors
	policyID := query.Get("policy_id")
	if validator.IsEmpty(policyID) {
		errs = append(errs, validator.ValidationError{Field: "policy_id", Message: "policy_id is required"})
	}
	asOf := time.Now().UTC()
	if raw := query.Get("as_of"); raw != "" {
		parsed, ok := validator.IsValidDate(raw)
		if !ok {
			errs = append(errs, validator.ValidationError{Field: "as_of", Message: "as_of must be in YYYY-MM-DD format"})
		}
		asOf = parsed
	}
	if len(errs) > 0 {
		response.HandleError(w, errs)
		return
	}

	accrual, err := l.leaveService.GetAccrual(r.Context(), employeeID, policyID, asOf)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, accrual)
}

// InitializeBalance implements LeaveHandler.
func (l *LeaveHandlerImpl) InitializeBalance(w http.ResponseWriter, r *http.Request) {
	var req leave.InitializeBalanceRequest

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		slog.Error("InitializeBalance decode error", "error", err)
		response.BadRequest(w, "Invalid request format", nil)
		return
	}

	if err := req.Validate(); err != nil {
		response.HandleError(w, err)
		return
	}

	if _, ok := l.scope.resolve(w, r, req.EmployeeID); !ok {
		return
	}

	balance, err := l.leaveService.InitializeBalance(r.Context(), req)
	if err != nil {
		slog.Error("InitializeBalance service error", "error", err)
		response.HandleError(w, err)
		return
	}

	response.Created(w, "Leave balance initialized successfully", leave.NewLeaveBalanceResponse(balance))
}

// CarryForward implements LeaveHandler.
func (l *LeaveHandlerImpl) CarryForward(w http.ResponseWriter, r *http.Request) {
	var req leave.CarryForwardRequest

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		slog.Error("CarryForward decode error", "error", err)
		response.BadRequest(w, "Invalid request format", nil)
		return
	}

	if err := req.Validate(); err != nil {
		response.HandleError(w, err)
		return
	}

	if _, ok := l.scope.resolve(w, r, req.EmployeeID); !ok {
		return
	}

	results, err := l.leaveService.ProcessCarryForward(r.Context(), req)
	if err != nil {
		slog.Error("CarryForward service error", "error", err)
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, "Leave carry forward processed successfully", results)
}

// CheckBalance implements LeaveHandler.
func (l *LeaveHandlerImpl) CheckBalance(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	employeeID, ok := l.scope.resolve(w, r, query.Get("employee_id"))
	if !ok {
		return
	}

	var errs validator.ValidationErrors
	policyID := query.Get("policy_id")
	if validator.IsEmpty(policyID) {
		errs = append(errs, validator.ValidationError{Field: "policy_id", Message: "policy_id is required"})
	}
	year, err := strconv.Atoi(query.Get("year"))
	if err != nil || year <= 0 {
		errs = append(errs, validator.ValidationError{Field: "year", Message: "year must be a positive integer"})
	}
	days, err := decimal.NewFromString(query.Get("days"))
	if err != nil || !days.IsPositive() {
		errs = append(errs, validator.ValidationError{Field: "days", Message: "days must be a positive number"})
	}
	if len(errs) > 0 {
		response.HandleError(w, errs)
		return
	}

	balance, err := l.leaveService.CheckLeaveBalance(r.Context(), employeeID, policyID, year, days)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, leave.NewLeaveBalanceResponse(balance))
}

// ValidateRequest implements LeaveHandler.
func (l *LeaveHandlerImpl) ValidateRequest(w http.ResponseWriter, r *http.Request) {
	req, ok := l.decodeLeaveRequest(w, r)
	if !ok {
		return
	}

	days, err := l.leaveService.ValidateLeaveRequest(r.Context(), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, map[string]any{
		"employee_id": req.EmployeeID,
		"policy_id":   req.PolicyID,
		"total_days":  days,
	})
}

// CreateRequest implements LeaveHandler.
func (l *LeaveHandlerImpl) CreateRequest(w http.ResponseWriter, r *http.Request) {
	req, ok := l.decodeLeaveRequest(w, r)
	if !ok {
		return
	}

	leaveRequest, err := l.leaveService.SubmitRequest(r.Context(), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Created(w, "Leave request created successfully", leave.NewLeaveRequestResponse(leaveRequest))
}

// UpdateRequestStatus implements LeaveHandler.
func (l *LeaveHandlerImpl) UpdateRequestStatus(w http.ResponseWriter, r *http.Request) {
	var req leave.UpdateLeaveRequestStatusRequest

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		slog.Error("UpdateRequestStatus decode error", "error", err)
		response.BadRequest(w, "Invalid request format", nil)
		return
	}

	claims, err := middleware.ClaimsFromContext(r.Context())
	if err != nil {
		response.HandleError(w, err)
		return
	}

	// The path and the token win over anything in the body
	req.RequestID = chi.URLParam(r, "id")
	req.DecidedBy = &claims.UserID
	req.DeciderEmployeeID = claims.EmployeeID
	req.DeciderCompanyID = claims.CompanyID

	if err := req.Validate(); err != nil {
		response.HandleError(w, err)
		return
	}

	balance, err := l.leaveService.UpdateBalanceForLeaveRequest(r.Context(), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, "Leave request status updated successfully", leave.NewLeaveBalanceResponse(balance))
}

func (l *LeaveHandlerImpl) decodeLeaveRequest(w http.ResponseWriter, r *http.Request) (leave.CreateLeaveRequestRequest, bool) {
	var req leave.CreateLeaveRequestRequest

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		slog.Error("leave request decode error", "error", err)
		response.BadRequest(w, "Invalid request format", nil)
		return req, false
	}

	// Set employee_id from JWT (override any value from request for security)
	employeeID, ok := l.scope.resolve(w, r, req.EmployeeID)
	if !ok {
		return req, false
	}
	req.EmployeeID = employeeID

	if err := req.Validate(); err != nil {
		response.HandleError(w, err)
		return req, false
	}
	return req, true
}
