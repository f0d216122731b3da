package http

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/cmlabs-hris/hris-core-go/internal/domain/employee"
	"github.com/cmlabs-hris/hris-core-go/internal/domain/payroll"
	"github.com/cmlabs-hris/hris-core-go/internal/handler/http/response"
	"github.com/go-chi/chi/v5"
)

type PayrollHandler interface {
	Calculate(w http.ResponseWriter, r *http.Request)
	ValidateStructure(w http.ResponseWriter, r *http.Request)
	CalculateStatutory(w http.ResponseWriter, r *http.Request)
}

type payrollHandlerImpl struct {
	payrollService payroll.PayrollService
	scope          employeeScope
}

func NewPayrollHandler(payrollService payroll.PayrollService, employeeRepo employee.EmployeeRepository) PayrollHandler {
	return &payrollHandlerImpl{
		payrollService: payrollService,
		scope:          employeeScope{employees: employeeRepo},
	}
}

// Calculate implements PayrollHandler. Employees may only calculate their own pay.
func (h *payrollHandlerImpl) Calculate(w http.ResponseWriter, r *http.Request) {
	var req payroll.CalculatePayrollRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		slog.Error("Calculate decode error", "error", err)
		response.BadRequest(w, "Invalid request body", nil)
		return
	}

	employeeID, ok := h.scope.resolve(w, r, req.EmployeeID)
	if !ok {
		return
	}
	req.EmployeeID = employeeID

	if err := req.Validate(); err != nil {
		response.HandleError(w, err)
		return
	}

	calculation, err := h.payrollService.CalculateForEmployee(r.Context(), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, payroll.NewPayrollCalculationResponse(calculation))
}

// ValidateStructure implements PayrollHandler.
func (h *payrollHandlerImpl) ValidateStructure(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := h.payrollService.ValidateStructure(r.Context(), id); err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, "Salary structure is valid", nil)
}

// CalculateStatutory implements PayrollHandler.
func (h *payrollHandlerImpl) CalculateStatutory(w http.ResponseWriter, r *http.Request) {
	var req payroll.StatutoryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		slog.Error("CalculateStatutory decode error", "error", err)
		response.BadRequest(w, "Invalid request body", nil)
		return
	}

	if err := req.Validate(); err != nil {
		response.HandleError(w, err)
		return
	}

	deductions, err := h.payrollService.CalculateStatutory(r.Context(), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, payroll.NewStatutoryDeductionsResponse(deductions))
}
