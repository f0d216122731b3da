package attendance

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/cmlabs-hris/hris-core-go/internal/domain/attendance"
	"github.com/cmlabs-hris/hris-core-go/internal/pkg/geo"
	"github.com/cmlabs-hris/hris-core-go/internal/pkg/routing"
	"github.com/shopspring/decimal"
)

// fakeTransactor serializes transactions, standing in for the day lock.
type fakeTransactor struct {
	mu sync.Mutex
}

func (f *fakeTransactor) WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return fn(ctx)
}

type providerFunc func(ctx context.Context, from, to geo.GPSPoint) (routing.Route, error)

func (f providerFunc) Route(ctx context.Context, from, to geo.GPSPoint) (routing.Route, error) {
	return f(ctx, from, to)
}

type fakeSiteRepo struct {
	sites map[string][]attendance.WorkSite
}

func (r *fakeSiteRepo) GetActiveSitesByEmployeeID(ctx context.Context, employeeID string) ([]attendance.WorkSite, error) {
	return r.sites[employeeID], nil
}

type storedPoint struct {
	seq   int
	point attendance.CheckInPoint
}

type fakePointRepo struct {
	mu     sync.Mutex
	seq    int
	points map[string]storedPoint
}

func newFakePointRepo() *fakePointRepo {
	return &fakePointRepo{points: make(map[string]storedPoint)}
}

func (r *fakePointRepo) Create(ctx context.Context, p attendance.CheckInPoint) (attendance.CheckInPoint, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seq++
	p.CreatedAt = p.Timestamp
	r.points[p.ID] = storedPoint{seq: r.seq, point: p}
	return p, nil
}

func (r *fakePointRepo) ListByEmployeeDate(ctx context.Context, employeeID string, date time.Time) ([]attendance.CheckInPoint, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var rows []storedPoint
	for _, sp := range r.points {
		if sp.point.EmployeeID == employeeID && sp.point.Date.Equal(date) {
			rows = append(rows, sp)
		}
	}
	sort.Slice(rows, func(i, j int) bool {
		if !rows[i].point.Timestamp.Equal(rows[j].point.Timestamp) {
			return rows[i].point.Timestamp.Before(rows[j].point.Timestamp)
		}
		return rows[i].seq < rows[j].seq
	})
	out := make([]attendance.CheckInPoint, 0, len(rows))
	for _, sp := range rows {
		out = append(out, sp.point)
	}
	return out, nil
}

func (r *fakePointRepo) UpdateMeasurement(ctx context.Context, id string, distance *decimal.Decimal, duration *int64, method attendance.CalculationMethod) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	sp, ok := r.points[id]
	if !ok {
		return attendance.ErrCheckInPointNotFound
	}
	sp.point.DistanceFromPrevious = distance
	sp.point.DurationFromPrevious = duration
	sp.point.CalculationMethod = method
	r.points[id] = sp
	return nil
}

func (r *fakePointRepo) get(id string) attendance.CheckInPoint {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.points[id].point
}

type fakeDailyRepo struct {
	mu        sync.Mutex
	locks     int
	records   map[string]attendance.DailyDistanceRecord
	anomalies []attendance.DistanceAnomaly
}

func newFakeDailyRepo() *fakeDailyRepo {
	return &fakeDailyRepo{records: make(map[string]attendance.DailyDistanceRecord)}
}

func dayKey(employeeID string, date time.Time) string {
	return employeeID + "|" + date.Format("2006-01-02")
}

func (r *fakeDailyRepo) LockDay(ctx context.Context, employeeID string, date time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.locks++
	return nil
}

func (r *fakeDailyRepo) Upsert(ctx context.Context, rec attendance.DailyDistanceRecord) (attendance.DailyDistanceRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := dayKey(rec.EmployeeID, rec.Date)
	rec.ID = "daily-" + key
	rec.Anomalies = nil
	r.records[key] = rec
	return rec, nil
}

func (r *fakeDailyRepo) GetByEmployeeDate(ctx context.Context, employeeID string, date time.Time) (attendance.DailyDistanceRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec, ok := r.records[dayKey(employeeID, date)]
	if !ok {
		return attendance.DailyDistanceRecord{}, attendance.ErrDailyRecordNotFound
	}
	return rec, nil
}

func (r *fakeDailyRepo) AppendAnomalies(ctx context.Context, anomalies []attendance.DistanceAnomaly) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, a := range anomalies {
		dup := false
		for _, existing := range r.anomalies {
			if existing.Key() == a.Key() {
				dup = true
				break
			}
		}
		if !dup {
			r.anomalies = append(r.anomalies, a)
		}
	}
	return nil
}

func (r *fakeDailyRepo) ListAnomalies(ctx context.Context, employeeID string, date time.Time) ([]attendance.DistanceAnomaly, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []attendance.DistanceAnomaly
	for _, a := range r.anomalies {
		if a.EmployeeID == employeeID && a.Date.Equal(date) {
			out = append(out, a)
		}
	}
	return out, nil
}
