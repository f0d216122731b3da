package routing

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"strings"
	"time"

	"github.com/cmlabs-hris/hris-core-go/internal/config"
	"github.com/cmlabs-hris/hris-core-go/internal/pkg/geo"
)

var (
	ErrNoRoute          = errors.New("routing: no route returned")
	ErrMalformedRoute   = errors.New("routing: malformed route response")
	ErrProviderDisabled = errors.New("routing: provider disabled")
)

// Route is a driving route between two points.
type Route struct {
	DistanceMeters  float64 `json:"distance_meters"`
	DurationSeconds float64 `json:"duration_seconds"`
}

// Provider looks up a driving route. Any error means the route is unavailable.
type Provider interface {
	Route(ctx context.Context, from, to geo.GPSPoint) (Route, error)
}

// ProviderError is a non-OK answer from the routing service.
type ProviderError struct {
	StatusCode int    `json:"status_code"`
	Code       string `json:"code"`
	Message    string `json:"message"`
}

func (e *ProviderError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("routing: provider returned status %d (%s)", e.StatusCode, e.Code)
	}
	return fmt.Sprintf("routing: provider returned status %d (%s): %s", e.StatusCode, e.Code, e.Message)
}

// Client talks to an OSRM compatible route service.
type Client struct {
	baseURL    string
	profile    string
	httpClient *http.Client
}

func NewClient(cfg config.RoutingConfig) *Client {
	profile := cfg.Profile
	if profile == "" {
		profile = "driving"
	}
	return &Client{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		profile:    profile,
		httpClient: &http.Client{Timeout: cfg.Timeout},
	}
}

type osrmResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Routes  []struct {
		Distance *float64 `json:"distance"`
		Duration *float64 `json:"duration"`
	} `json:"routes"`
}

func (c *Client) Route(ctx context.Context, from, to geo.GPSPoint) (Route, error) {
	if c.baseURL == "" {
		return Route{}, ErrProviderDisabled
	}

	url := fmt.Sprintf("%s/route/v1/%s/%.6f,%.6f;%.6f,%.6f?overview=false",
		c.baseURL, c.profile,
		from.Longitude, from.Latitude,
		to.Longitude, to.Latitude,
	)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return Route{}, fmt.Errorf("routing: build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return Route{}, fmt.Errorf("routing: request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return Route{}, fmt.Errorf("routing: read response: %w", err)
	}

	var payload osrmResponse
	if err := json.Unmarshal(body, &payload); err != nil {
		if resp.StatusCode != http.StatusOK {
			return Route{}, &ProviderError{StatusCode: resp.StatusCode}
		}
		return Route{}, fmt.Errorf("%w: %v", ErrMalformedRoute, err)
	}

	if resp.StatusCode != http.StatusOK || payload.Code != "Ok" {
		return Route{}, &ProviderError{
			StatusCode: resp.StatusCode,
			Code:       payload.Code,
			Message:    payload.Message,
		}
	}

	if len(payload.Routes) == 0 {
		return Route{}, ErrNoRoute
	}

	first := payload.Routes[0]
	if first.Distance == nil || first.Duration == nil {
		return Route{}, fmt.Errorf("%w: missing distance or duration", ErrMalformedRoute)
	}
	if !isUsable(*first.Distance) || !isUsable(*first.Duration) {
		return Route{}, fmt.Errorf("%w: distance=%v duration=%v", ErrMalformedRoute, *first.Distance, *first.Duration)
	}

	return Route{DistanceMeters: *first.Distance, DurationSeconds: *first.Duration}, nil
}

func isUsable(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0) && v >= 0
}

// WithTimeout bounds every lookup made through p.
func WithTimeout(p Provider, timeout time.Duration) Provider {
	if timeout <= 0 {
		return p
	}
	return timeoutProvider{next: p, timeout: timeout}
}

type timeoutProvider struct {
	next    Provider
	timeout time.Duration
}

func (t timeoutProvider) Route(ctx context.Context, from, to geo.GPSPoint) (Route, error) {
	ctx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()
	return t.next.Route(ctx, from, to)
}
