package postgresqltest

import (
	"testing"
	"time"

	"github.com/cmlabs-hris/hris-core-go/internal/domain/leave"
	"github.com/cmlabs-hris/hris-core-go/internal/repository/postgresql"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLeaveBalanceRepository(t *testing.T) {
	ctx := resetDatabase(t)
	companyID := uuid.NewString()
	employeeID := createTestEmployee(t, ctx, companyID)
	policyID := createTestLeavePolicy(t, ctx, companyID)
	repo := postgresql.NewLeaveBalanceRepository(testSetup.DB)

	created, err := repo.Create(ctx, leave.LeaveBalance{
		ID:         uuid.NewString(),
		EmployeeID: employeeID,
		PolicyID:   policyID,
		Year:       2024,
		Allocated:  decimal.NewFromInt(12),
	})
	require.NoError(t, err)
	assert.True(t, created.Available.Equal(decimal.NewFromInt(12)))

	t.Run("duplicate year is rejected", func(t *testing.T) {
		_, err := repo.Create(ctx, leave.LeaveBalance{
			ID:         uuid.NewString(),
			EmployeeID: employeeID,
			PolicyID:   policyID,
			Year:       2024,
		})
		assert.ErrorIs(t, err, leave.ErrLeaveBalanceExists)
	})

	t.Run("delta updates counters and available", func(t *testing.T) {
		updated, err := repo.ApplyDelta(ctx, created.ID, leave.BalanceDelta{
			Pending:          decimal.NewFromInt(3),
			RequireAvailable: true,
		})
		require.NoError(t, err)
		assert.True(t, updated.Pending.Equal(decimal.NewFromInt(3)))
		assert.True(t, updated.Available.Equal(decimal.NewFromInt(9)))
	})

	t.Run("delta overdrawing available is a conflict", func(t *testing.T) {
		_, err := repo.ApplyDelta(ctx, created.ID, leave.BalanceDelta{
			Pending:          decimal.NewFromInt(10),
			RequireAvailable: true,
		})
		assert.ErrorIs(t, err, leave.ErrBalanceConflict)

		stored, err := repo.GetByEmployeePolicyYear(ctx, employeeID, policyID, 2024)
		require.NoError(t, err)
		assert.True(t, stored.Pending.Equal(decimal.NewFromInt(3)))
	})

	t.Run("delta driving pending negative is a conflict", func(t *testing.T) {
		_, err := repo.ApplyDelta(ctx, created.ID, leave.BalanceDelta{Pending: decimal.NewFromInt(-4)})
		assert.ErrorIs(t, err, leave.ErrBalanceConflict)
	})

	t.Run("unknown balance", func(t *testing.T) {
		_, err := repo.ApplyDelta(ctx, uuid.NewString(), leave.BalanceDelta{Used: decimal.NewFromInt(1)})
		assert.ErrorIs(t, err, leave.ErrLeaveBalanceNotFound)
	})

	t.Run("carried forward is overwritten", func(t *testing.T) {
		for range 2 {
			updated, err := repo.SetCarriedForward(ctx, created.ID, decimal.NewFromInt(5))
			require.NoError(t, err)
			assert.True(t, updated.CarriedForward.Equal(decimal.NewFromInt(5)))
			assert.True(t, updated.Available.Equal(decimal.NewFromInt(14)))
		}
	})

	t.Run("allocated only rises", func(t *testing.T) {
		updated, err := repo.RaiseAllocated(ctx, created.ID, decimal.NewFromInt(15))
		require.NoError(t, err)
		assert.True(t, updated.Allocated.Equal(decimal.NewFromInt(15)))
		assert.True(t, updated.Available.Equal(decimal.NewFromInt(17)))

		updated, err = repo.RaiseAllocated(ctx, created.ID, decimal.NewFromInt(10))
		require.NoError(t, err)
		assert.True(t, updated.Allocated.Equal(decimal.NewFromInt(15)))
		assert.True(t, updated.Available.Equal(updated.ComputeAvailable()))

		_, err = repo.RaiseAllocated(ctx, uuid.NewString(), decimal.NewFromInt(1))
		assert.ErrorIs(t, err, leave.ErrLeaveBalanceNotFound)
	})

	balances, err := repo.GetByEmployeeYear(ctx, employeeID, 2024)
	require.NoError(t, err)
	assert.Len(t, balances, 1)
}

func TestLeaveRequestRepository(t *testing.T) {
	ctx := resetDatabase(t)
	companyID := uuid.NewString()
	employeeID := createTestEmployee(t, ctx, companyID)
	policyID := createTestLeavePolicy(t, ctx, companyID)
	repo := postgresql.NewLeaveRequestRepository(testSetup.DB)

	created, err := repo.Create(ctx, leave.LeaveRequest{
		ID:           uuid.NewString(),
		EmployeeID:   employeeID,
		PolicyID:     policyID,
		StartDate:    date(2024, time.March, 4),
		EndDate:      date(2024, time.March, 6),
		DurationType: leave.LeaveDurationFullDay,
		TotalDays:    decimal.NewFromInt(3),
		Reason:       "family",
		Status:       leave.LeaveRequestStatusPending,
		SubmittedAt:  time.Now().UTC(),
	})
	require.NoError(t, err)

	t.Run("overlap lookup filters by status", func(t *testing.T) {
		found, err := repo.GetOverlapping(ctx, employeeID, date(2024, time.March, 6), date(2024, time.March, 8),
			[]leave.LeaveRequestStatus{leave.LeaveRequestStatusPending, leave.LeaveRequestStatusApproved})
		require.NoError(t, err)
		require.Len(t, found, 1)
		assert.Equal(t, created.ID, found[0].ID)

		found, err = repo.GetOverlapping(ctx, employeeID, date(2024, time.March, 7), date(2024, time.March, 8),
			[]leave.LeaveRequestStatus{leave.LeaveRequestStatusPending})
		require.NoError(t, err)
		assert.Empty(t, found)
	})

	approver := uuid.NewString()
	require.NoError(t, repo.TransitionStatus(ctx, created.ID, leave.LeaveRequestStatusPending, leave.LeaveRequestStatusApproved, &approver, time.Now()))

	stored, err := repo.GetByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, leave.LeaveRequestStatusApproved, stored.Status)
	require.NotNil(t, stored.DecidedBy)
	assert.Equal(t, approver, *stored.DecidedBy)

	err = repo.TransitionStatus(ctx, created.ID, leave.LeaveRequestStatusPending, leave.LeaveRequestStatusRejected, &approver, time.Now())
	assert.ErrorIs(t, err, leave.ErrLeaveRequestAlreadyProcessed)

	err = repo.TransitionStatus(ctx, uuid.NewString(), leave.LeaveRequestStatusPending, leave.LeaveRequestStatusRejected, nil, time.Now())
	assert.ErrorIs(t, err, leave.ErrLeaveRequestNotFound)
}
