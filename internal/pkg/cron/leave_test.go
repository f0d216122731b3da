package cron

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"
	_ "time/tzdata"

	"github.com/cmlabs-hris/hris-core-go/internal/domain/employee"
	"github.com/cmlabs-hris/hris-core-go/internal/domain/leave"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeEmployeeRepo struct {
	employee.EmployeeRepository
	ids []string
	err error
}

func (f *fakeEmployeeRepo) ListActiveIDs(ctx context.Context) ([]string, error) {
	return f.ids, f.err
}

type fakeLeaveService struct {
	leave.LeaveService
	mu        sync.Mutex
	requests  []leave.CarryForwardRequest
	refreshed []string
	failFor   map[string]error
}

func (f *fakeLeaveService) ProcessCarryForward(ctx context.Context, req leave.CarryForwardRequest) ([]leave.CarryForwardResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requests = append(f.requests, req)
	if err := f.failFor[req.EmployeeID]; err != nil {
		return nil, err
	}
	return []leave.CarryForwardResult{{PolicyID: "annual", Carried: decimal.NewFromInt(5)}}, nil
}

func (f *fakeLeaveService) RefreshAccrual(ctx context.Context, employeeID string, year int) ([]leave.LeaveBalance, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.refreshed = append(f.refreshed, fmt.Sprintf("%s/%d", employeeID, year))
	if err := f.failFor[employeeID]; err != nil {
		return nil, err
	}
	return []leave.LeaveBalance{{EmployeeID: employeeID, Year: year}}, nil
}

func newLeaveJobs(ids []string, svc *fakeLeaveService, now time.Time) *LeaveJobs {
	jobs := NewLeaveJobs(&fakeEmployeeRepo{ids: ids}, svc, time.UTC)
	jobs.now = func() time.Time { return now }
	return jobs
}

func TestYearRollover_RunsInJanuary(t *testing.T) {
	svc := &fakeLeaveService{}
	jobs := newLeaveJobs([]string{"e1", "e2"}, svc, time.Date(2025, time.January, 1, 0, 30, 0, 0, time.UTC))

	require.NoError(t, jobs.YearRollover(context.Background()))

	require.Len(t, svc.requests, 2)
	assert.Equal(t, leave.CarryForwardRequest{EmployeeID: "e1", FromYear: 2024, ToYear: 2025}, svc.requests[0])
	assert.Equal(t, "e2", svc.requests[1].EmployeeID)
}

func TestYearRollover_SkipsOtherMonths(t *testing.T) {
	svc := &fakeLeaveService{}
	jobs := newLeaveJobs([]string{"e1"}, svc, time.Date(2025, time.March, 1, 0, 0, 0, 0, time.UTC))

	require.NoError(t, jobs.YearRollover(context.Background()))
	assert.Empty(t, svc.requests)
}

func TestYearRollover_UsesLocalCalendar(t *testing.T) {
	jakarta, err := time.LoadLocation("Asia/Jakarta")
	require.NoError(t, err)

	svc := &fakeLeaveService{}
	jobs := NewLeaveJobs(&fakeEmployeeRepo{ids: []string{"e1"}}, svc, jakarta)
	// 31 Dec 20:00 UTC is already 1 Jan in Jakarta.
	jobs.now = func() time.Time { return time.Date(2024, time.December, 31, 20, 0, 0, 0, time.UTC) }

	require.NoError(t, jobs.YearRollover(context.Background()))
	require.Len(t, svc.requests, 1)
	assert.Equal(t, 2025, svc.requests[0].ToYear)
}

func TestCarryForwardAll_ContinuesPastFailures(t *testing.T) {
	boom := errors.New("boom")
	svc := &fakeLeaveService{failFor: map[string]error{"e2": boom}}
	jobs := newLeaveJobs([]string{"e1", "e2", "e3"}, svc, time.Now())

	err := jobs.CarryForwardAll(context.Background(), 2024, 2025)

	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), "employee e2")
	assert.Len(t, svc.requests, 3)
}

func TestCarryForwardAll_ListError(t *testing.T) {
	jobs := NewLeaveJobs(&fakeEmployeeRepo{err: errors.New("db down")}, &fakeLeaveService{}, nil)

	err := jobs.CarryForwardAll(context.Background(), 2024, 2025)
	assert.ErrorContains(t, err, "failed to list active employees")
}

func TestCarryForwardAll_StopsOnCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	svc := &fakeLeaveService{}
	jobs := newLeaveJobs([]string{"e1"}, svc, time.Now())

	assert.ErrorIs(t, jobs.CarryForwardAll(ctx, 2024, 2025), context.Canceled)
	assert.Empty(t, svc.requests)
}

func TestAccrualRefresh_RefreshesCurrentYearForEveryEmployee(t *testing.T) {
	boom := errors.New("boom")
	svc := &fakeLeaveService{failFor: map[string]error{"e1": boom}}
	jobs := newLeaveJobs([]string{"e1", "e2"}, svc, time.Date(2024, time.November, 1, 9, 0, 0, 0, time.UTC))

	err := jobs.AccrualRefresh(context.Background())

	assert.ErrorIs(t, err, boom)
	assert.Equal(t, []string{"e1/2024", "e2/2024"}, svc.refreshed)
	assert.Empty(t, svc.requests)
}

func TestScheduler_RunOnce(t *testing.T) {
	svc := &fakeLeaveService{}
	jobs := newLeaveJobs([]string{"e1"}, svc, time.Date(2025, time.January, 2, 0, 0, 0, 0, time.UTC))

	scheduler := NewScheduler(context.Background())
	jobs.RegisterJobs(scheduler)

	require.NoError(t, scheduler.RunOnce(context.Background()))
	assert.Len(t, svc.requests, 1)
	assert.Equal(t, []string{"e1/2025"}, svc.refreshed)
}

func TestScheduler_StartRunsImmediatelyAndStops(t *testing.T) {
	ran := make(chan struct{}, 1)
	scheduler := NewScheduler(context.Background())
	scheduler.AddJob("tick", time.Hour, func(ctx context.Context) error {
		select {
		case ran <- struct{}{}:
		default:
		}
		return nil
	})

	scheduler.Start()
	select {
	case <-ran:
	case <-time.After(2 * time.Second):
		t.Fatal("job did not run on start")
	}
	scheduler.Stop()
}
