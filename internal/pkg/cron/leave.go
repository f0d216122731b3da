package cron

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/cmlabs-hris/hris-core-go/internal/domain/employee"
	"github.com/cmlabs-hris/hris-core-go/internal/domain/leave"
)

// LeaveJobs keeps leave balances current: accrual refresh during the year and
// the rollover into the next one.
type LeaveJobs struct {
	employeeRepo employee.EmployeeRepository
	leaveService leave.LeaveService
	location     *time.Location
	now          func() time.Time
}

func NewLeaveJobs(employeeRepo employee.EmployeeRepository, leaveService leave.LeaveService, location *time.Location) *LeaveJobs {
	if location == nil {
		location = time.UTC
	}
	return &LeaveJobs{
		employeeRepo: employeeRepo,
		leaveService: leaveService,
		location:     location,
		now:          time.Now,
	}
}

func (j *LeaveJobs) RegisterJobs(scheduler *Scheduler) {
	scheduler.AddJob("leave_year_rollover", 1*time.Hour, j.YearRollover)
	scheduler.AddJob("leave_accrual_refresh", 6*time.Hour, j.AccrualRefresh)
}

// YearRollover carries last year's balances forward. It only acts in
// January; carry forward is idempotent, so the hourly repeats are no-ops.
func (j *LeaveJobs) YearRollover(ctx context.Context) error {
	now := j.now().In(j.location)
	if now.Month() != time.January {
		return nil
	}
	return j.CarryForwardAll(ctx, now.Year()-1, now.Year())
}

// CarryForwardAll runs carry forward for every active employee. A failure
// for one employee does not stop the others; all failures are returned joined.
func (j *LeaveJobs) CarryForwardAll(ctx context.Context, fromYear, toYear int) error {
	slog.Info("Cron: Starting leave year rollover", "from_year", fromYear, "to_year", toYear)

	return j.forEachActiveEmployee(ctx, "leave year rollover", func(ctx context.Context, employeeID string) (int, error) {
		results, err := j.leaveService.ProcessCarryForward(ctx, leave.CarryForwardRequest{
			EmployeeID: employeeID,
			FromYear:   fromYear,
			ToYear:     toYear,
		})
		return len(results), err
	})
}

// AccrualRefresh raises this year's balances to what each active employee has
// accrued so far. MONTHLY and QUARTERLY rows created on 1 January start at
// zero and only grow through here or a balance check.
func (j *LeaveJobs) AccrualRefresh(ctx context.Context) error {
	year := j.now().In(j.location).Year()

	return j.forEachActiveEmployee(ctx, "leave accrual refresh", func(ctx context.Context, employeeID string) (int, error) {
		balances, err := j.leaveService.RefreshAccrual(ctx, employeeID, year)
		return len(balances), err
	})
}

func (j *LeaveJobs) forEachActiveEmployee(ctx context.Context, name string, fn func(ctx context.Context, employeeID string) (int, error)) error {
	ids, err := j.employeeRepo.ListActiveIDs(ctx)
	if err != nil {
		return fmt.Errorf("failed to list active employees: %w", err)
	}

	var errs []error
	processed := 0
	for _, id := range ids {
		if err := ctx.Err(); err != nil {
			return err
		}

		n, err := fn(ctx, id)
		if err != nil {
			slog.Error("Cron: Employee failed", "job", name, "employee_id", id, "error", err)
			errs = append(errs, fmt.Errorf("employee %s: %w", id, err))
			continue
		}
		processed += n
	}

	slog.Info("Cron: Job finished", "job", name, "employees", len(ids), "balances", processed, "failures", len(errs))
	return errors.Join(errs...)
}
