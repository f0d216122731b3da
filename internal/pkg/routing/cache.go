package routing

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/cmlabs-hris/hris-core-go/internal/pkg/geo"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"
)

const RouteKeyPrefix = "routes:"

const defaultLookupTimeout = 10 * time.Second

// RouteKey rounds both ends to ~1 m so repeated lookups of the same pair hit the cache.
func RouteKey(profile string, from, to geo.GPSPoint) string {
	return fmt.Sprintf("%s%s:%.5f,%.5f:%.5f,%.5f", RouteKeyPrefix, profile,
		from.Latitude, from.Longitude, to.Latitude, to.Longitude)
}

// CachedProvider is a Redis read-through cache in front of another Provider.
// Failures are never cached. Concurrent misses for the same key share one
// lookup, bounded by timeout rather than by any single caller's context.
type CachedProvider struct {
	next    Provider
	rdb     *redis.Client
	profile string
	ttl     time.Duration
	timeout time.Duration
	sf      *singleflight.Group
}

func NewCachedProvider(next Provider, rdb *redis.Client, profile string, ttl, timeout time.Duration) *CachedProvider {
	if profile == "" {
		profile = "driving"
	}
	if timeout <= 0 {
		timeout = defaultLookupTimeout
	}
	return &CachedProvider{next: next, rdb: rdb, profile: profile, ttl: ttl, timeout: timeout, sf: &singleflight.Group{}}
}

func (c *CachedProvider) Route(ctx context.Context, from, to geo.GPSPoint) (Route, error) {
	cacheKey := RouteKey(c.profile, from, to)

	if c.rdb != nil {
		cached, err := c.rdb.Get(ctx, cacheKey).Result()
		if err == nil {
			var route Route
			if err := json.Unmarshal([]byte(cached), &route); err == nil {
				return route, nil
			}
		} else if !errors.Is(err, redis.Nil) {
			slog.Warn("route cache read failed", "key", cacheKey, "error", err)
		}
	}

	ch := c.sf.DoChan(cacheKey, func() (interface{}, error) {
		// Other callers may join this lookup, so the first caller
		// going away must not cancel it.
		lookupCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.timeout)
		defer cancel()

		route, err := c.next.Route(lookupCtx, from, to)
		if err != nil {
			return nil, err
		}

		if c.rdb != nil {
			if data, err := json.Marshal(route); err == nil {
				if err := c.rdb.Set(lookupCtx, cacheKey, string(data), c.ttl).Err(); err != nil {
					slog.Warn("route cache write failed", "key", cacheKey, "error", err)
				}
			}
		}

		return route, nil
	})

	select {
	case <-ctx.Done():
		return Route{}, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return Route{}, res.Err
		}
		return res.Val.(Route), nil
	}
}
