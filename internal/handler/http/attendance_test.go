package http

import (
	"net/http"
	"testing"
	"time"

	"github.com/cmlabs-hris/hris-core-go/internal/domain/attendance"
	"github.com/cmlabs-hris/hris-core-go/internal/pkg/jwt"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAttendanceHandler_RequiresToken(t *testing.T) {
	s := newTestServer(t)

	rec, envelope := s.do(t, http.MethodPost, "/api/v1/attendance/check-ins", "", map[string]any{})

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "UNAUTHORIZED", errorCode(envelope))
}

func TestAttendanceHandler_RejectsForgedToken(t *testing.T) {
	s := newTestServer(t)
	forged, _, err := jwt.NewJWTService("another-secret", "1h").GenerateAccessToken("user-1", nil, "company-1", jwt.RoleOwner)
	require.NoError(t, err)

	rec, _ := s.do(t, http.MethodGet, "/api/v1/attendance/daily/2024-06-03", forged, nil)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAttendanceHandler_CheckIn(t *testing.T) {
	s := newTestServer(t)
	distance := decimal.NewFromInt(1200)
	s.tracking.result = attendance.CheckInResult{
		Point: attendance.CheckInPoint{
			ID:                   "point-1",
			EmployeeID:           "emp-1",
			Date:                 time.Date(2024, 6, 3, 0, 0, 0, 0, time.UTC),
			DistanceFromPrevious: &distance,
			CalculationMethod:    attendance.CalculationMethodHaversine,
		},
		Geofence: attendance.GeofenceResult{IsValid: true},
		Record: attendance.DailyDistanceRecord{
			EmployeeID:    "emp-1",
			Date:          time.Date(2024, 6, 3, 0, 0, 0, 0, time.UTC),
			TotalDistance: distance,
			CheckInCount:  2,
			IsValidated:   true,
		},
	}

	rec, envelope := s.do(t, http.MethodPost, "/api/v1/attendance/check-ins", s.token(t, "emp-1", jwt.RoleEmployee), map[string]any{
		"employee_id": "someone-else",
		"latitude":    -6.2,
		"longitude":   106.8,
	})

	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Equal(t, "emp-1", s.tracking.checkIn.EmployeeID)

	body := data(envelope)
	checkIn := body["check_in"].(map[string]any)
	assert.Equal(t, "point-1", checkIn["id"])
	assert.Equal(t, "2024-06-03", checkIn["date"])
	daily := body["daily"].(map[string]any)
	assert.Equal(t, float64(2), daily["check_in_count"])
}

func TestAttendanceHandler_CheckIn_Errors(t *testing.T) {
	tests := []struct {
		name   string
		body   map[string]any
		err    error
		status int
		code   string
	}{
		{
			name:   "invalid coordinates",
			body:   map[string]any{"latitude": 91, "longitude": 106.8},
			status: http.StatusUnprocessableEntity,
			code:   "VALIDATION_ERROR",
		},
		{
			name:   "outside every site",
			body:   map[string]any{"latitude": -6.2, "longitude": 106.8},
			err:    attendance.ErrOutsideAllowedRadius,
			status: http.StatusUnprocessableEntity,
			code:   "OUTSIDE_ALLOWED_RADIUS",
		},
		{
			name:   "timestamp in the future",
			body:   map[string]any{"latitude": -6.2, "longitude": 106.8},
			err:    attendance.ErrCheckInInFuture,
			status: http.StatusBadRequest,
			code:   "BAD_REQUEST",
		},
		{
			name:   "concurrent writer",
			body:   map[string]any{"latitude": -6.2, "longitude": 106.8},
			err:    attendance.ErrAggregateConflict,
			status: http.StatusConflict,
			code:   "CONFLICT",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestServer(t)
			s.tracking.err = tt.err

			rec, envelope := s.do(t, http.MethodPost, "/api/v1/attendance/check-ins", s.token(t, "emp-1", jwt.RoleEmployee), tt.body)

			assert.Equal(t, tt.status, rec.Code)
			assert.Equal(t, tt.code, errorCode(envelope))
		})
	}
}

func TestAttendanceHandler_CheckIn_OwnerWithoutEmployee(t *testing.T) {
	s := newTestServer(t)

	rec, _ := s.do(t, http.MethodPost, "/api/v1/attendance/check-ins", s.token(t, "", jwt.RoleOwner), map[string]any{
		"latitude":  -6.2,
		"longitude": 106.8,
	})

	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestAttendanceHandler_ValidateLocation(t *testing.T) {
	s := newTestServer(t)

	rec, envelope := s.do(t, http.MethodPost, "/api/v1/attendance/location/validate", s.token(t, "emp-1", jwt.RoleEmployee), map[string]any{
		"latitude":  -6.2,
		"longitude": 106.8,
	})

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "emp-1", s.tracking.validate.EmployeeID)
	assert.Equal(t, true, data(envelope)["is_valid"])
}

func TestAttendanceHandler_GetDailyRecord(t *testing.T) {
	t.Run("manager reads another employee", func(t *testing.T) {
		s := newTestServer(t)
		s.tracking.record = attendance.DailyDistanceRecord{EmployeeID: "emp-2", Date: time.Date(2024, 6, 3, 0, 0, 0, 0, time.UTC)}

		rec, envelope := s.do(t, http.MethodGet, "/api/v1/attendance/daily/2024-06-03?employee_id=emp-2", s.token(t, "mgr-1", jwt.RoleManager), nil)

		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "emp-2", s.tracking.employeeID)
		assert.True(t, s.tracking.date.Equal(time.Date(2024, 6, 3, 0, 0, 0, 0, time.UTC)))
		assert.Equal(t, "2024-06-03", data(envelope)["date"])
	})

	t.Run("manager cannot read another company", func(t *testing.T) {
		s := newTestServer(t)

		rec, envelope := s.do(t, http.MethodGet, "/api/v1/attendance/daily/2024-06-03?employee_id=emp-9", s.token(t, "mgr-1", jwt.RoleManager), nil)

		assert.Equal(t, http.StatusForbidden, rec.Code)
		assert.Equal(t, "FORBIDDEN", errorCode(envelope))
		assert.Empty(t, s.tracking.employeeID)
	})

	t.Run("employee cannot read another employee", func(t *testing.T) {
		s := newTestServer(t)

		rec, _ := s.do(t, http.MethodGet, "/api/v1/attendance/daily/2024-06-03?employee_id=emp-2", s.token(t, "emp-1", jwt.RoleEmployee), nil)

		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "emp-1", s.tracking.employeeID)
	})

	t.Run("bad date", func(t *testing.T) {
		s := newTestServer(t)

		rec, envelope := s.do(t, http.MethodGet, "/api/v1/attendance/daily/03-06-2024", s.token(t, "emp-1", jwt.RoleEmployee), nil)

		assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
		assert.Contains(t, errorDetails(envelope), "date")
	})

	t.Run("no record", func(t *testing.T) {
		s := newTestServer(t)
		s.tracking.err = attendance.ErrDailyRecordNotFound

		rec, envelope := s.do(t, http.MethodGet, "/api/v1/attendance/daily/2024-06-03", s.token(t, "emp-1", jwt.RoleEmployee), nil)

		assert.Equal(t, http.StatusNotFound, rec.Code)
		assert.Equal(t, "NOT_FOUND", errorCode(envelope))
	})
}

func TestAttendanceHandler_Recalculate(t *testing.T) {
	body := map[string]any{"employee_id": "emp-2", "date": "2024-06-03"}

	t.Run("employees are forbidden", func(t *testing.T) {
		s := newTestServer(t)

		rec, envelope := s.do(t, http.MethodPost, "/api/v1/attendance/daily/recalculate", s.token(t, "emp-1", jwt.RoleEmployee), body)

		assert.Equal(t, http.StatusForbidden, rec.Code)
		assert.Equal(t, "FORBIDDEN", errorCode(envelope))
	})

	t.Run("manager recalculates", func(t *testing.T) {
		s := newTestServer(t)

		rec, _ := s.do(t, http.MethodPost, "/api/v1/attendance/daily/recalculate", s.token(t, "mgr-1", jwt.RoleManager), body)

		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "emp-2", s.tracking.recalculate.EmployeeID)
		assert.Equal(t, "2024-06-03", s.tracking.recalculate.Date)
	})

	t.Run("manager cannot recalculate another company", func(t *testing.T) {
		s := newTestServer(t)

		rec, _ := s.do(t, http.MethodPost, "/api/v1/attendance/daily/recalculate", s.token(t, "mgr-1", jwt.RoleManager), map[string]any{"employee_id": "emp-9", "date": "2024-06-03"})

		assert.Equal(t, http.StatusForbidden, rec.Code)
		assert.Empty(t, s.tracking.recalculate.EmployeeID)
	})

	t.Run("invalid body", func(t *testing.T) {
		s := newTestServer(t)

		rec, envelope := s.do(t, http.MethodPost, "/api/v1/attendance/daily/recalculate", s.token(t, "mgr-1", jwt.RoleManager), map[string]any{"date": "June"})

		assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
		details := errorDetails(envelope)
		assert.Contains(t, details, "employee_id")
		assert.Contains(t, details, "date")
	})
}
