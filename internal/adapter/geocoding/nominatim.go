package geocoding

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/time/rate"

	"github.com/rl1809/food-shelter/internal/core/domain"
)

const (
	DefaultBaseURL   = "https://nominatim.openstreetmap.org"
	DefaultUserAgent = "food-shelter-dashboard/1.0"
)

// Outcome labels recorded on the lookup counter.
const (
	OutcomeFound    = "found"
	OutcomeNotFound = "not_found"
	OutcomeError    = "error"
)

type NominatimConfig struct {
	BaseURL   string
	UserAgent string
	// RequestsPerSecond caps outbound lookups; the public instance allows one.
	RequestsPerSecond float64
	HTTPClient        *http.Client
	// Lookups, when set, is incremented once per lookup with an "outcome" label.
	Lookups *prometheus.CounterVec
}

// Nominatim resolves addresses against an OpenStreetMap Nominatim instance.
type Nominatim struct {
	baseURL   string
	userAgent string
	client    *http.Client
	limiter   *rate.Limiter
	lookups   *prometheus.CounterVec
}

func NewNominatim(cfg NominatimConfig) *Nominatim {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = DefaultUserAgent
	}
	if cfg.RequestsPerSecond <= 0 {
		cfg.RequestsPerSecond = 1
	}
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = &http.Client{Timeout: 10 * time.Second}
	}
	return &Nominatim{
		baseURL:   strings.TrimRight(cfg.BaseURL, "/"),
		userAgent: cfg.UserAgent,
		client:    cfg.HTTPClient,
		limiter:   rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), 1),
		lookups:   cfg.Lookups,
	}
}

type searchResult struct {
	Lat string `json:"lat"`
	Lon string `json:"lon"`
}

func (n *Nominatim) Geocode(ctx context.Context, address string) (*domain.Coordinates, error) {
	coords, err := n.search(ctx, address)
	switch {
	case err != nil:
		n.observe(OutcomeError)
	case coords == nil:
		n.observe(OutcomeNotFound)
	default:
		n.observe(OutcomeFound)
	}
	return coords, err
}

func (n *Nominatim) search(ctx context.Context, address string) (*domain.Coordinates, error) {
	if err := n.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("nominatim rate limit: %w", err)
	}

	q := url.Values{}
	q.Set("format", "json")
	q.Set("limit", "1")
	q.Set("q", address)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, n.baseURL+"/search?"+q.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("build nominatim request: %w", err)
	}
	req.Header.Set("User-Agent", n.userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := n.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("nominatim request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("nominatim returned status %d", resp.StatusCode)
	}

	var results []searchResult
	if err := json.NewDecoder(resp.Body).Decode(&results); err != nil {
		return nil, fmt.Errorf("decode nominatim response: %w", err)
	}
	if len(results) == 0 {
		return nil, nil
	}

	lat, err := strconv.ParseFloat(results[0].Lat, 64)
	if err != nil {
		return nil, fmt.Errorf("parse latitude %q: %w", results[0].Lat, err)
	}
	lon, err := strconv.ParseFloat(results[0].Lon, 64)
	if err != nil {
		return nil, fmt.Errorf("parse longitude %q: %w", results[0].Lon, err)
	}
	return &domain.Coordinates{Latitude: lat, Longitude: lon}, nil
}

func (n *Nominatim) observe(outcome string) {
	if n.lookups != nil {
		n.lookups.WithLabelValues(outcome).Inc()
	}
}
