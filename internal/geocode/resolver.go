package geocode

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"math"
	"net/http"
	"net/url"
	"strconv"
	"sync"
	"time"
)

const (
	defaultBaseURL     = "https://nominatim.openstreetmap.org/search"
	defaultTimeout     = 5 * time.Second
	defaultMinInterval = 150 * time.Millisecond
)

// Coordinate is a resolved latitude/longitude pair.
type Coordinate struct {
	Lat float64
	Lon float64
}

// Resolver turns free-text addresses into coordinates using a
// Nominatim-style search endpoint. Results, including failures, are cached
// for the process lifetime so a bad address is only ever looked up once.
// Successive upstream calls are spaced out by a cooperative delay to stay
// within the provider's rate limits.
type Resolver struct {
	httpClient  *http.Client
	baseURL     string
	countryCode string
	minInterval time.Duration

	mu       sync.Mutex
	cache    map[string]*Coordinate
	lastCall time.Time
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithBaseURL overrides the geocoding endpoint (tests, self-hosted instances).
func WithBaseURL(u string) Option {
	return func(r *Resolver) { r.baseURL = u }
}

// WithTimeout bounds each upstream call.
func WithTimeout(d time.Duration) Option {
	return func(r *Resolver) { r.httpClient.Timeout = d }
}

// WithMinInterval sets the cooperative delay between upstream calls.
func WithMinInterval(d time.Duration) Option {
	return func(r *Resolver) { r.minInterval = d }
}

// NewResolver creates a resolver constrained to one ISO country code.
func NewResolver(countryCode string, opts ...Option) *Resolver {
	r := &Resolver{
		httpClient:  &http.Client{Timeout: defaultTimeout},
		baseURL:     defaultBaseURL,
		countryCode: countryCode,
		minInterval: defaultMinInterval,
		cache:       make(map[string]*Coordinate),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

type searchResult struct {
	Lat string `json:"lat"`
	Lon string `json:"lon"`
}

// Resolve returns the coordinate for an address, or nil if the address
// cannot be resolved. Resolution failure is never an error: downstream
// scoring treats a nil coordinate as unknown distance.
func (r *Resolver) Resolve(ctx context.Context, address string) *Coordinate {
	if address == "" {
		return nil
	}

	r.mu.Lock()
	if coord, ok := r.cache[address]; ok {
		r.mu.Unlock()
		return coord
	}
	r.throttleLocked()
	r.mu.Unlock()

	coord, err := r.lookup(ctx, address)
	if err != nil {
		log.Printf("geocode: resolve %q failed: %v", address, err)
		coord = nil
	}

	// Cache nil too, so repeated bad addresses never re-hit the service.
	r.mu.Lock()
	r.cache[address] = coord
	r.mu.Unlock()

	return coord
}

// throttleLocked sleeps until minInterval has passed since the previous
// upstream call. Caller must hold mu; the sleep happens with the lock held
// so concurrent resolvers serialize, which is the point.
func (r *Resolver) throttleLocked() {
	if r.minInterval <= 0 {
		return
	}
	since := time.Since(r.lastCall)
	if since < r.minInterval {
		time.Sleep(r.minInterval - since)
	}
	r.lastCall = time.Now()
}

func (r *Resolver) lookup(ctx context.Context, address string) (*Coordinate, error) {
	q := url.Values{}
	q.Set("q", address)
	q.Set("format", "json")
	q.Set("limit", "1")
	if r.countryCode != "" {
		q.Set("countrycodes", r.countryCode)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, r.baseURL+"?"+q.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("build geocode request: %w", err)
	}
	req.Header.Set("User-Agent", "dentalbook-doctor-assignment/1.0")

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("geocode request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("geocode status %d", resp.StatusCode)
	}

	var results []searchResult
	if err := json.NewDecoder(resp.Body).Decode(&results); err != nil {
		return nil, fmt.Errorf("decode geocode response: %w", err)
	}
	if len(results) == 0 {
		return nil, fmt.Errorf("no results")
	}

	lat, err := strconv.ParseFloat(results[0].Lat, 64)
	if err != nil {
		return nil, fmt.Errorf("parse lat %q: %w", results[0].Lat, err)
	}
	lon, err := strconv.ParseFloat(results[0].Lon, 64)
	if err != nil {
		return nil, fmt.Errorf("parse lon %q: %w", results[0].Lon, err)
	}

	return &Coordinate{Lat: lat, Lon: lon}, nil
}

// DistanceKm computes the great-circle distance between two coordinates
// using the Haversine formula.
func DistanceKm(a, b Coordinate) float64 {
	const earthRadiusKm = 6371.0

	lat1 := toRadians(a.Lat)
	lat2 := toRadians(b.Lat)
	deltaLat := toRadians(b.Lat - a.Lat)
	deltaLon := toRadians(b.Lon - a.Lon)

	h := math.Sin(deltaLat/2)*math.Sin(deltaLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*
			math.Sin(deltaLon/2)*math.Sin(deltaLon/2)

	c := 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))
	return earthRadiusKm * c
}

func toRadians(degrees float64) float64 {
	return degrees * (math.Pi / 180)
}
