// Package app assembles the lookup pipeline from configuration. It is shared
// by the HTTP server and the CLI so both run the same wiring.
package app

import (
	"context"
	"fmt"
	"net/http"

	"github.com/evyataryagoni/boundary-checker/internal/boundary"
	"github.com/evyataryagoni/boundary-checker/internal/config"
	"github.com/evyataryagoni/boundary-checker/internal/geocoder"
	"github.com/evyataryagoni/boundary-checker/internal/httputils"
	"github.com/evyataryagoni/boundary-checker/internal/logger"
	"github.com/evyataryagoni/boundary-checker/internal/metrics"
	"github.com/evyataryagoni/boundary-checker/internal/service"
)

// App is the assembled pipeline
type App struct {
	Boundary *boundary.Boundary
	Resolver *geocoder.Resolver
	Service  *service.LookupService
}

// Build loads the boundary and wires both geocoders.
// Boundary errors are returned unwrapped so callers can treat them as fatal
// startup errors with errors.As.
func Build(ctx context.Context, cfg *config.Config, m *metrics.Metrics, log *logger.Logger) (*App, error) {
	b, err := LoadBoundary(cfg.BoundaryPath, log)
	if err != nil {
		return nil, err
	}

	resolver, err := NewResolver(ctx, cfg, m, log)
	if err != nil {
		return nil, err
	}

	return &App{
		Boundary: b,
		Resolver: resolver,
		Service:  service.NewLookupService(resolver, b, m, log),
	}, nil
}

// LoadBoundary loads and normalizes the boundary file
func LoadBoundary(path string, log *logger.Logger) (*boundary.Boundary, error) {
	src, err := boundary.Load(path)
	if err != nil {
		return nil, err
	}
	if src.FeatureCount > 1 {
		log.Warn().
			Str("path", path).
			Int("features", src.FeatureCount).
			Msg("Boundary file has several features, using the first one only")
	}

	b, err := boundary.Normalize(src)
	if err != nil {
		return nil, err
	}

	bound := b.Bound()
	log.Info().
		Str("path", path).
		Str("crs", src.CRS).
		Int("parts", b.Parts()).
		Floats64("bbox", []float64{bound.Min.Lon(), bound.Min.Lat(), bound.Max.Lon(), bound.Max.Lat()}).
		Msg("Boundary loaded")
	return b, nil
}

// NewResolver builds the primary (when configured) and fallback providers
func NewResolver(ctx context.Context, cfg *config.Config, m *metrics.Metrics, log *logger.Logger) (*geocoder.Resolver, error) {
	var transport http.RoundTripper
	if cfg.HTTPDebug {
		transport = &httputils.LoggingTransport{Logger: log.WithComponent("http")}
	}

	fallback, err := geocoder.NewNominatim(geocoder.NominatimConfig{
		BaseURL:   cfg.NominatimURL,
		UserAgent: cfg.NominatimUserAgent,
		Timeout:   cfg.NominatimTimeout,
		MinDelay:  cfg.NominatimMinDelay,
		Transport: transport,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create fallback geocoder: %w", err)
	}

	rc := geocoder.ResolverConfig{
		Fallback:   fallback,
		Policy:     geocoder.Policy{FallbackOnNotFound: cfg.FallbackOnNotFound},
		ProbeQuery: cfg.PrimaryProbeQuery,
	}

	if cfg.PrimaryConfigured() {
		primary, err := geocoder.NewAWSLocation(ctx, geocoder.AWSConfig{
			AccessKeyID:     cfg.AWSAccessKeyID,
			SecretAccessKey: cfg.AWSSecretAccessKey,
			Region:          cfg.AWSRegion,
			IndexName:       cfg.PlaceIndexName,
		})
		if err != nil {
			// The probe would mark it unavailable anyway; run fallback only
			log.Warn().Err(err).Msg("Primary geocoder could not be created, using fallback only")
		} else {
			rc.Primary = primary
		}
	}

	return geocoder.NewResolver(rc, m, log)
}
