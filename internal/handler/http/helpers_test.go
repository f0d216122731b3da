package http

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/cmlabs-hris/hris-core-go/internal/config"
	"github.com/cmlabs-hris/hris-core-go/internal/domain/attendance"
	"github.com/cmlabs-hris/hris-core-go/internal/domain/employee"
	"github.com/cmlabs-hris/hris-core-go/internal/domain/leave"
	"github.com/cmlabs-hris/hris-core-go/internal/domain/payroll"
	"github.com/cmlabs-hris/hris-core-go/internal/pkg/jwt"
	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

const handlerTestSecret = "test-secret-key-for-jwt"

type fakeEmployeeRepo struct {
	employee.EmployeeRepository
	employees map[string]employee.Employee
}

func (f *fakeEmployeeRepo) GetByID(ctx context.Context, id string) (employee.Employee, error) {
	emp, ok := f.employees[id]
	if !ok {
		return employee.Employee{}, employee.ErrEmployeeNotFound
	}
	return emp, nil
}

type fakeTrackingService struct {
	checkIn     attendance.RecordCheckInRequest
	validate    attendance.ValidateLocationRequest
	recalculate attendance.RecalculateRequest
	employeeID  string
	date        time.Time

	result attendance.CheckInResult
	record attendance.DailyDistanceRecord
	err    error
}

func (f *fakeTrackingService) ValidateLocation(ctx context.Context, req attendance.ValidateLocationRequest) (attendance.GeofenceResult, error) {
	f.validate = req
	return attendance.GeofenceResult{IsValid: f.err == nil}, f.err
}

func (f *fakeTrackingService) RecordCheckIn(ctx context.Context, req attendance.RecordCheckInRequest) (attendance.CheckInResult, error) {
	f.checkIn = req
	return f.result, f.err
}

func (f *fakeTrackingService) Recalculate(ctx context.Context, req attendance.RecalculateRequest) (attendance.DailyDistanceRecord, error) {
	f.recalculate = req
	return f.record, f.err
}

func (f *fakeTrackingService) GetDailyRecord(ctx context.Context, employeeID string, date time.Time) (attendance.DailyDistanceRecord, error) {
	f.employeeID = employeeID
	f.date = date
	return f.record, f.err
}

type fakeLeaveService struct {
	employeeID string
	policyID   string
	year       int
	days       decimal.Decimal
	request    leave.CreateLeaveRequestRequest
	status     leave.UpdateLeaveRequestStatusRequest

	balance leave.LeaveBalance
	err     error
}

func (f *fakeLeaveService) GetAccrual(ctx context.Context, employeeID, policyID string, asOf time.Time) (leave.AccrualResponse, error) {
	f.employeeID, f.policyID = employeeID, policyID
	return leave.AccrualResponse{EmployeeID: employeeID, PolicyID: policyID, Days: decimal.NewFromInt(6)}, f.err
}

func (f *fakeLeaveService) InitializeBalance(ctx context.Context, req leave.InitializeBalanceRequest) (leave.LeaveBalance, error) {
	f.employeeID, f.policyID, f.year = req.EmployeeID, req.PolicyID, req.Year
	return f.balance, f.err
}

func (f *fakeLeaveService) ProcessCarryForward(ctx context.Context, req leave.CarryForwardRequest) ([]leave.CarryForwardResult, error) {
	f.employeeID = req.EmployeeID
	return []leave.CarryForwardResult{}, f.err
}

func (f *fakeLeaveService) RefreshAccrual(ctx context.Context, employeeID string, year int) ([]leave.LeaveBalance, error) {
	f.employeeID, f.year = employeeID, year
	return []leave.LeaveBalance{f.balance}, f.err
}

func (f *fakeLeaveService) CheckLeaveBalance(ctx context.Context, employeeID, policyID string, year int, days decimal.Decimal) (leave.LeaveBalance, error) {
	f.employeeID, f.policyID, f.year, f.days = employeeID, policyID, year, days
	return f.balance, f.err
}

func (f *fakeLeaveService) ValidateLeaveRequest(ctx context.Context, req leave.CreateLeaveRequestRequest) (decimal.Decimal, error) {
	f.request = req
	return decimal.NewFromInt(2), f.err
}

func (f *fakeLeaveService) SubmitRequest(ctx context.Context, req leave.CreateLeaveRequestRequest) (leave.LeaveRequest, error) {
	f.request = req
	return leave.LeaveRequest{ID: "request-1", EmployeeID: req.EmployeeID, Status: leave.LeaveRequestStatusPending}, f.err
}

func (f *fakeLeaveService) UpdateBalanceForLeaveRequest(ctx context.Context, req leave.UpdateLeaveRequestStatusRequest) (leave.LeaveBalance, error) {
	f.status = req
	return f.balance, f.err
}

type fakePayrollService struct {
	calculate   payroll.CalculatePayrollRequest
	structureID string
	statutory   payroll.StatutoryRequest

	calculation payroll.PayrollCalculation
	deductions  payroll.StatutoryDeductions
	err         error
}

func (f *fakePayrollService) CalculateForEmployee(ctx context.Context, req payroll.CalculatePayrollRequest) (payroll.PayrollCalculation, error) {
	f.calculate = req
	return f.calculation, f.err
}

func (f *fakePayrollService) ValidateStructure(ctx context.Context, structureID string) error {
	f.structureID = structureID
	return f.err
}

func (f *fakePayrollService) CalculateStatutory(ctx context.Context, req payroll.StatutoryRequest) (payroll.StatutoryDeductions, error) {
	f.statutory = req
	return f.deductions, f.err
}

type testServer struct {
	router   *chi.Mux
	jwt      jwt.Service
	tracking *fakeTrackingService
	leave    *fakeLeaveService
	payroll  *fakePayrollService
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	s := &testServer{
		jwt:      jwt.NewJWTService(handlerTestSecret, "1h"),
		tracking: &fakeTrackingService{},
		leave:    &fakeLeaveService{},
		payroll:  &fakePayrollService{},
	}
	// Tokens from s.token carry company-1; emp-9 belongs to another company.
	employees := &fakeEmployeeRepo{employees: map[string]employee.Employee{
		"emp-1": {ID: "emp-1", CompanyID: "company-1"},
		"emp-2": {ID: "emp-2", CompanyID: "company-1"},
		"emp-9": {ID: "emp-9", CompanyID: "company-2"},
	}}
	s.router = NewRouter(
		config.AppConfig{Env: "test", LogLevel: "error"},
		s.jwt,
		NewAttendanceHandler(s.tracking, employees),
		NewLeaveHandler(s.leave, employees),
		NewPayrollHandler(s.payroll, employees),
	)
	return s
}

func (s *testServer) token(t *testing.T, employeeID string, role jwt.Role) string {
	t.Helper()
	var emp *string
	if employeeID != "" {
		emp = &employeeID
	}
	token, _, err := s.jwt.GenerateAccessToken("user-"+string(role), emp, "company-1", role)
	require.NoError(t, err)
	return token
}

// do sends a request and decodes the response envelope.
func (s *testServer) do(t *testing.T, method, path, token string, body any) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)

	var envelope map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope), rec.Body.String())
	return rec, envelope
}

func errorCode(envelope map[string]any) string {
	detail, _ := envelope["error"].(map[string]any)
	code, _ := detail["code"].(string)
	return code
}

func errorDetails(envelope map[string]any) map[string]any {
	detail, _ := envelope["error"].(map[string]any)
	details, _ := detail["details"].(map[string]any)
	return details
}

func data(envelope map[string]any) map[string]any {
	d, _ := envelope["data"].(map[string]any)
	return d
}
