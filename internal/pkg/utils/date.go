package utils

import (
	"errors"
	"time"
)

var ErrInvalidDateRange = errors.New("end date is before start date")

// DateRange is an inclusive span of calendar days. Times are reduced to their
// calendar date in their own location, so a range never depends on clock time.
type DateRange struct {
	Start time.Time
	End   time.Time
}

func NewDateRange(start, end time.Time) (DateRange, error) {
	r := DateRange{Start: TruncateDay(start), End: TruncateDay(end)}
	if r.End.Before(r.Start) {
		return DateRange{}, ErrInvalidDateRange
	}
	return r, nil
}

// Days counts calendar days in the range, both ends included.
func (r DateRange) Days() int {
	start := civil(r.Start)
	end := civil(r.End)
	if end.Before(start) {
		return 0
	}
	return int(end.Sub(start).Hours()/24) + 1
}

// Overlaps reports whether both ranges share at least one calendar day.
func (r DateRange) Overlaps(o DateRange) bool {
	return !civil(r.End).Before(civil(o.Start)) && !civil(o.End).Before(civil(r.Start))
}

func (r DateRange) Contains(t time.Time) bool {
	d := civil(t)
	return !d.Before(civil(r.Start)) && !d.After(civil(r.End))
}

// TruncateDay returns midnight of t's calendar date in t's location.
func TruncateDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

func IsLeapYear(year int) bool {
	return year%4 == 0 && (year%100 != 0 || year%400 == 0)
}

func DaysInYear(year int) int {
	if IsLeapYear(year) {
		return 366
	}
	return 365
}

func DaysInMonth(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// MonthsBetween counts whole calendar months from start to end. A partial
// month is credited once end reaches start's day-of-month.
func MonthsBetween(start, end time.Time) int {
	months := (end.Year()-start.Year())*12 + int(end.Month()) - int(start.Month())
	if end.Day() < start.Day() {
		months--
	}
	if months < 0 {
		return 0
	}
	return months
}

// civil maps t to UTC midnight of its own calendar date, so day arithmetic
// is free of DST and offset differences.
func civil(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
