package middleware

import (
	"context"

	"github.com/cmlabs-hris/hris-core-go/internal/pkg/jwt"
	"github.com/go-chi/jwtauth/v5"
)

// Claims is the caller identity carried by a verified access token.
type Claims struct {
	UserID     string
	EmployeeID string // empty for owners without an employee record
	CompanyID  string
	Role       jwt.Role
}

func ClaimsFromContext(ctx context.Context) (Claims, error) {
	_, raw, err := jwtauth.FromContext(ctx)
	if err != nil {
		return Claims{}, jwt.ErrInvalidToken
	}

	userID, _ := raw["user_id"].(string)
	if userID == "" {
		return Claims{}, jwt.ErrInvalidToken
	}

	employeeID, _ := raw["employee_id"].(string)
	companyID, _ := raw["company_id"].(string)
	role, _ := raw["role"].(string)

	return Claims{
		UserID:     userID,
		EmployeeID: employeeID,
		CompanyID:  companyID,
		Role:       jwt.Role(role),
	}, nil
}

// ResolveEmployee returns the employee a request acts on. Employees always act
// on themselves; managers may name another employee and default to themselves.
func (c Claims) ResolveEmployee(requested string) (string, bool) {
	if c.Role.CanManage() && requested != "" {
		return requested, true
	}
	if c.EmployeeID == "" {
		return "", false
	}
	return c.EmployeeID, true
}
