package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/evyataryagoni/boundary-checker/internal/boundary"
	"github.com/evyataryagoni/boundary-checker/internal/geocoder"
	"github.com/evyataryagoni/boundary-checker/internal/logger"
	"github.com/evyataryagoni/boundary-checker/internal/metrics"
	"github.com/go-playground/validator/v10"
)

// Pipeline stages reported on failure
const (
	StageGeocoding = "geocoding"
	StageBoundary  = "boundary"
)

// MaxAddressLength bounds the free-text address sent to a geocoder
const MaxAddressLength = 512

// ErrAddressTooLong is returned for addresses over MaxAddressLength characters
var ErrAddressTooLong = fmt.Errorf("address exceeds %d characters", MaxAddressLength)

// StageError tells the caller which stage of a lookup failed
type StageError struct {
	Stage string
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("%s failed: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}

// Resolver is the geocoding capability the service depends on
type Resolver interface {
	Resolve(ctx context.Context, sess *geocoder.Session, address string) (*geocoder.Resolution, error)
}

// Report is the outcome of one lookup, successful or not
type Report struct {
	Resolution *geocoder.Resolution
	Result     *boundary.CheckResult // nil unless the address was resolved
	Message    string                // human readable narrative
}

// Inside reports whether the lookup placed the address inside the boundary
func (r *Report) Inside() bool {
	return r.Result != nil && r.Result.Inside
}

// LookupService handles business logic for address checks
// This is the service layer - it sits between the presentation adapters
// (HTTP handler, CLI) and the geocoding/boundary packages
//
// Responsibilities:
//   - Validate input (address length)
//   - Resolve the address through the primary/fallback providers
//   - Evaluate the coordinate against the boundary
//   - Produce a narrative describing which path was taken
type LookupService struct {
	resolver  Resolver
	boundary  *boundary.Boundary
	validator *validator.Validate
	metrics   *metrics.Metrics
	logger    *logger.Logger
}

// NewLookupService creates a new lookup service
//
// Parameters:
//   - resolver: the geocoding orchestrator
//   - b: the loaded, normalized boundary (shared read-only)
//   - m: metrics collector (optional, can be nil)
//   - log: logger (optional, can be nil)
func NewLookupService(resolver Resolver, b *boundary.Boundary, m *metrics.Metrics, log *logger.Logger) *LookupService {
	if log == nil {
		log = logger.NewDefault()
	}
	if m != nil && b != nil {
		m.BoundaryParts.Set(float64(b.Parts()))
	}
	return &LookupService{
		resolver:  resolver,
		boundary:  b,
		validator: validator.New(),
		metrics:   m,
		logger:    log.WithComponent("LookupService"),
	}
}

// Boundary returns the region lookups are evaluated against
func (s *LookupService) Boundary() *boundary.Boundary {
	return s.boundary
}

// Check resolves an address and tests it against the boundary
//
// Flow:
//  1. Validate the address (blank or oversized input never reaches a provider)
//  2. Resolve it to a coordinate (primary, then fallback)
//  3. Evaluate membership
//
// The Report is always returned, also on failure, so the caller can show
// which providers were tried. Errors are *StageError.
func (s *LookupService) Check(ctx context.Context, sess *geocoder.Session, address string) (*Report, error) {
	address = strings.TrimSpace(address)

	// Step 1: Validate input. Blank addresses are rejected by the resolver.
	if err := s.validator.Var(address, fmt.Sprintf("max=%d", MaxAddressLength)); err != nil {
		s.logger.Warn().Int("length", len([]rune(address))).Msg("Rejected oversized address")
		res := &geocoder.Resolution{Address: address, Status: geocoder.StatusInvalidInput}
		return s.fail(res, StageGeocoding, ErrAddressTooLong)
	}

	// Step 2: Resolve
	res, err := s.resolver.Resolve(ctx, sess, address)
	if err != nil {
		return s.fail(res, StageGeocoding, err)
	}

	// Step 3: Evaluate
	if s.boundary == nil {
		return s.fail(res, StageBoundary, errors.New("no boundary loaded"))
	}
	if !res.Coordinate.Valid() {
		return s.fail(res, StageBoundary, fmt.Errorf("coordinate %s is outside the geographic range", res.Coordinate))
	}

	result := boundary.Evaluate(res.Coordinate, s.boundary)
	label := "outside"
	if result.Inside {
		label = "inside"
	}

	s.logger.Info().
		Str("address", address).
		Str("provider", res.Provider).
		Str("coordinate", res.Coordinate.String()).
		Bool("inside", result.Inside).
		Msg("Boundary check complete")
	if s.metrics != nil {
		s.metrics.BoundaryChecksTotal.WithLabelValues(label).Inc()
	}

	report := &Report{Resolution: res, Result: &result}
	report.Message = narrative(report, nil)
	return report, nil
}

func (s *LookupService) fail(res *geocoder.Resolution, stage string, err error) (*Report, error) {
	if res == nil {
		res = &geocoder.Resolution{Status: geocoder.StatusFailed}
	}
	if stage == StageBoundary && s.metrics != nil {
		s.metrics.BoundaryChecksTotal.WithLabelValues("error").Inc()
	}

	stageErr := &StageError{Stage: stage, Err: err}
	report := &Report{Resolution: res}
	report.Message = narrative(report, stageErr)
	return report, stageErr
}

// narrative renders the user facing status line for a report
func narrative(r *Report, err *StageError) string {
	res := r.Resolution

	if err != nil {
		var exhausted *geocoder.ExhaustedError
		switch {
		case errors.Is(err, geocoder.ErrEmptyAddress):
			return "Please enter an address."
		case errors.Is(err, ErrAddressTooLong):
			return fmt.Sprintf("Address is too long: at most %d characters are accepted.", MaxAddressLength)
		case errors.Is(err, geocoder.ErrNotFound):
			return fmt.Sprintf("Address not found: %q could not be located.", res.Address)
		case errors.As(err, &exhausted):
			return "Geocoding failed on every provider: " + exhausted.Error()
		case err.Stage == StageBoundary:
			return "Boundary evaluation failed: " + err.Err.Error()
		default:
			return fmt.Sprintf("Lookup failed during %s: %v", err.Stage, err.Err)
		}
	}

	via := "primary geocoder"
	if res.Status == geocoder.StatusFallback {
		via = "fallback geocoder"
	}

	verdict := "outside"
	if r.Inside() {
		verdict = "inside"
	}

	return fmt.Sprintf("%q resolved to %s via the %s (%s) and is %s the boundary.",
		res.Address, res.Coordinate, via, res.Provider, verdict)
}
