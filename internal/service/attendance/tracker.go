package attendance

import (
	"context"
	"errors"
	"log/slog"
	"math"

	"github.com/cmlabs-hris/hris-core-go/internal/domain/attendance"
	"github.com/cmlabs-hris/hris-core-go/internal/pkg/geo"
	"github.com/cmlabs-hris/hris-core-go/internal/pkg/routing"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"
)

// maxParallelLookups bounds concurrent route lookups during a day recompute.
const maxParallelLookups = 4

// Measurement is the distance and travel time between two consecutive points.
type Measurement struct {
	Distance decimal.Decimal
	Duration *int64
	Method   attendance.CalculationMethod
}

// DistanceTracker measures legs between check-ins. It asks the route provider
// first and falls back to the straight-line distance, which has no duration.
type DistanceTracker struct {
	provider routing.Provider
}

// NewDistanceTracker accepts a nil provider, in which case every leg is
// measured with Haversine.
func NewDistanceTracker(provider routing.Provider) *DistanceTracker {
	return &DistanceTracker{provider: provider}
}

// Measure never fails; route errors are logged and replaced by Haversine.
func (t *DistanceTracker) Measure(ctx context.Context, from, to geo.GPSPoint) Measurement {
	if t.provider != nil {
		route, err := t.provider.Route(ctx, from, to)
		if err == nil {
			seconds := int64(math.Round(route.DurationSeconds))
			return Measurement{
				Distance: decimal.NewFromFloat(route.DistanceMeters).Round(2),
				Duration: &seconds,
				Method:   attendance.CalculationMethodExternalAPI,
			}
		}
		if !errors.Is(err, routing.ErrProviderDisabled) {
			slog.Warn("Route lookup failed, using haversine distance", "error", err)
		}
	}

	return Measurement{
		Distance: geo.DistanceMeters(from, to),
		Method:   attendance.CalculationMethodHaversine,
	}
}

// MeasureDay measures every leg of an ordered day. The first point gets a
// zero measurement. Lookups run in parallel and results are stored by index,
// so the output order matches points.
func (t *DistanceTracker) MeasureDay(ctx context.Context, points []attendance.CheckInPoint) []Measurement {
	out := make([]Measurement, len(points))
	if len(points) == 0 {
		return out
	}
	out[0] = firstMeasurement()

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxParallelLookups)
	for i := 1; i < len(points); i++ {
		g.Go(func() error {
			out[i] = t.Measure(gctx, points[i-1].Location, points[i].Location)
			return nil
		})
	}
	_ = g.Wait()

	return out
}

func firstMeasurement() Measurement {
	var zero int64
	return Measurement{
		Distance: decimal.Zero,
		Duration: &zero,
		Method:   attendance.CalculationMethodHaversine,
	}
}

func (m Measurement) applyTo(p *attendance.CheckInPoint) {
	distance := m.Distance
	p.DistanceFromPrevious = &distance
	p.DurationFromPrevious = m.Duration
	p.CalculationMethod = m.Method
}
