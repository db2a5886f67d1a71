package geocoder

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/evyataryagoni/boundary-checker/internal/httputils"
	"github.com/evyataryagoni/boundary-checker/internal/models"
)

const (
	// DefaultNominatimURL is the public OpenStreetMap search endpoint
	DefaultNominatimURL = "https://nominatim.openstreetmap.org/search"

	// MaxNominatimTimeout is the hard upper bound for one fallback call
	MaxNominatimTimeout = 10 * time.Second

	// MinNominatimDelay is the public usage policy: at most one request per second
	MinNominatimDelay = time.Second

	maxResponseBytes = 1 << 20
)

// NominatimConfig configures the public fallback geocoder
type NominatimConfig struct {
	BaseURL   string
	UserAgent string        // required by the usage policy
	Timeout   time.Duration // clamped to (0, MaxNominatimTimeout]
	MinDelay  time.Duration // raised to MinNominatimDelay when lower
	Transport http.RoundTripper
}

// Nominatim geocodes through an OpenStreetMap Nominatim search endpoint.
// Every call first waits MinDelay, independently of other calls.
type Nominatim struct {
	baseURL    string
	httpClient *http.Client
	minDelay   time.Duration
	wait       func(ctx context.Context, d time.Duration) error
}

type nominatimPlace struct {
	Lat         string `json:"lat"`
	Lon         string `json:"lon"`
	DisplayName string `json:"display_name"`
}

// NewNominatim creates the fallback provider
func NewNominatim(cfg NominatimConfig) (*Nominatim, error) {
	if cfg.UserAgent == "" {
		return nil, fmt.Errorf("nominatim: a User-Agent identifying the application is required")
	}

	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = DefaultNominatimURL
	}
	if _, err := url.Parse(baseURL); err != nil {
		return nil, fmt.Errorf("nominatim: invalid base URL: %w", err)
	}

	timeout := cfg.Timeout
	if timeout <= 0 || timeout > MaxNominatimTimeout {
		timeout = MaxNominatimTimeout
	}

	delay := max(cfg.MinDelay, MinNominatimDelay)

	return &Nominatim{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: timeout,
			Transport: &httputils.HeaderTransport{
				Base: cfg.Transport,
				Headers: map[string]string{
					"User-Agent": cfg.UserAgent,
					"Accept":     "application/json",
				},
			},
		},
		minDelay: delay,
		wait:     sleepContext,
	}, nil
}

// Name implements the Provider interface
func (n *Nominatim) Name() string {
	return "nominatim"
}

// Geocode implements the Provider interface
func (n *Nominatim) Geocode(ctx context.Context, address string) (models.GeoCoordinate, error) {
	if err := n.wait(ctx, n.minDelay); err != nil {
		return models.GeoCoordinate{}, &ProviderError{Provider: n.Name(), Kind: KindTransport, Message: "cancelled before request", Err: err}
	}

	u, err := url.Parse(n.baseURL)
	if err != nil {
		return models.GeoCoordinate{}, &ProviderError{Provider: n.Name(), Kind: KindInvalidRequest, Message: "invalid base URL", Err: err}
	}
	q := u.Query()
	q.Set("q", address)
	q.Set("format", "json")
	q.Set("limit", "1")
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return models.GeoCoordinate{}, &ProviderError{Provider: n.Name(), Kind: KindInvalidRequest, Message: "building request", Err: err}
	}

	resp, err := n.httpClient.Do(req)
	if err != nil {
		return models.GeoCoordinate{}, classifyTransport(n.Name(), err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return models.GeoCoordinate{}, ClassifyHTTPStatus(n.Name(), resp.StatusCode)
	}

	var places []nominatimPlace
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxResponseBytes)).Decode(&places); err != nil {
		return models.GeoCoordinate{}, malformed(n.Name(), "decoding response", err)
	}

	if len(places) == 0 {
		return models.GeoCoordinate{}, ErrNotFound
	}

	return parsePlace(n.Name(), places[0])
}

func parsePlace(provider string, p nominatimPlace) (models.GeoCoordinate, error) {
	if p.Lat == "" || p.Lon == "" {
		return models.GeoCoordinate{}, malformed(provider, "result is missing lat/lon", nil)
	}

	lat, err := strconv.ParseFloat(p.Lat, 64)
	if err != nil {
		return models.GeoCoordinate{}, malformed(provider, "parsing lat", err)
	}
	lon, err := strconv.ParseFloat(p.Lon, 64)
	if err != nil {
		return models.GeoCoordinate{}, malformed(provider, "parsing lon", err)
	}

	c, err := models.NewGeoCoordinate(lat, lon)
	if err != nil {
		return models.GeoCoordinate{}, malformed(provider, "invalid coordinate", err)
	}
	return c, nil
}

// sleepContext blocks for d unless ctx ends first
func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
