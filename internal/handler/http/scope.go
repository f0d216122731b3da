package http

import (
	"log/slog"
	"net/http"

	"github.com/cmlabs-hris/hris-core-go/internal/domain/employee"
	"github.com/cmlabs-hris/hris-core-go/internal/handler/http/middleware"
	"github.com/cmlabs-hris/hris-core-go/internal/handler/http/response"
)

// employeeScope decides which employee a request acts on. Managers and
// owners may name another employee, but only one of their own company.
type employeeScope struct {
	employees employee.EmployeeRepository
}

// resolve picks the employee from the caller's token and the requested id
// and writes the error response when the caller may not act on it.
func (s employeeScope) resolve(w http.ResponseWriter, r *http.Request, requested string) (string, bool) {
	claims, err := middleware.ClaimsFromContext(r.Context())
	if err != nil {
		response.HandleError(w, err)
		return "", false
	}

	employeeID, ok := claims.ResolveEmployee(requested)
	if !ok {
		slog.Error("employee_id not found in JWT claims", "user_id", claims.UserID)
		response.Forbidden(w, "Employee ID not found in token")
		return "", false
	}
	if employeeID == claims.EmployeeID {
		return employeeID, true
	}

	target, err := s.employees.GetByID(r.Context(), employeeID)
	if err != nil {
		response.HandleError(w, err)
		return "", false
	}
	if target.CompanyID != claims.CompanyID {
		slog.Warn("Cross-company employee access denied",
			"user_id", claims.UserID,
			"company_id", claims.CompanyID,
			"employee_id", employeeID,
		)
		response.HandleError(w, employee.ErrUnauthorized)
		return "", false
	}
	return employeeID, true
}
