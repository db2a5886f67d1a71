package geocoder

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/evyataryagoni/boundary-checker/internal/logger"
	"github.com/evyataryagoni/boundary-checker/internal/metrics"
	"github.com/evyataryagoni/boundary-checker/internal/models"
)

// DefaultProbeQuery is the canary address used to check the primary provider
const DefaultProbeQuery = "placeholder"

// Policy tunes the primary to fallback handoff
type Policy struct {
	// FallbackOnNotFound also tries the fallback when the primary answers
	// with no match. Off by default: a clean not-found is final.
	FallbackOnNotFound bool
}

// ResolverConfig wires the providers into a Resolver
type ResolverConfig struct {
	Primary    Provider // optional
	Fallback   Provider // required
	Policy     Policy
	ProbeQuery string
}

// Resolver resolves addresses with the primary provider first and the
// fallback provider second. It holds no per-session state; availability
// lives in the Session passed to Resolve.
type Resolver struct {
	primary    Provider
	fallback   Provider
	policy     Policy
	probeQuery string
	metrics    *metrics.Metrics
	logger     *logger.Logger
}

// NewResolver creates a Resolver. m and log may be nil.
func NewResolver(cfg ResolverConfig, m *metrics.Metrics, log *logger.Logger) (*Resolver, error) {
	if cfg.Fallback == nil {
		return nil, fmt.Errorf("a fallback provider is required")
	}
	if log == nil {
		log = logger.NewDefault()
	}

	probe := strings.TrimSpace(cfg.ProbeQuery)
	if probe == "" {
		probe = DefaultProbeQuery
	}

	return &Resolver{
		primary:    cfg.Primary,
		fallback:   cfg.Fallback,
		policy:     cfg.Policy,
		probeQuery: probe,
		metrics:    m,
		logger:     log.WithComponent("Resolver"),
	}, nil
}

// NewSession starts a session and probes the primary provider once.
// Any answer from the probe, including not-found, marks the primary available.
func (r *Resolver) NewSession(ctx context.Context) *Session {
	var sess *Session

	if r.primary == nil {
		sess = newSession(false, ErrPrimaryNotConfigured)
		r.logger.Info().Str("session_id", sess.ID).Msg("Primary provider not configured, using fallback only")
	} else {
		_, err := r.primary.Geocode(ctx, r.probeQuery)
		if err != nil && !errors.Is(err, ErrNotFound) {
			sess = newSession(false, asProviderError(r.primary.Name(), err))
			r.logger.Warn().
				Err(err).
				Str("session_id", sess.ID).
				Str("provider", r.primary.Name()).
				Msg("Primary provider probe failed, disabled for this session")
		} else {
			sess = newSession(true, nil)
			r.logger.Info().
				Str("session_id", sess.ID).
				Str("provider", r.primary.Name()).
				Msg("Primary provider available")
		}
	}

	if r.metrics != nil {
		if sess.PrimaryAvailable() {
			r.metrics.PrimaryAvailable.Set(1)
		} else {
			r.metrics.PrimaryAvailable.Set(0)
		}
	}

	return sess
}

// Resolve turns an address into a coordinate.
//
// The returned Resolution is never nil and always lists the attempts made.
// The error is ErrEmptyAddress, ErrNotFound, or an *ExhaustedError holding
// every provider failure.
func (r *Resolver) Resolve(ctx context.Context, sess *Session, address string) (*Resolution, error) {
	address = strings.TrimSpace(address)
	res := &Resolution{Address: address}

	if address == "" {
		res.Status = StatusInvalidInput
		r.recordStatus(res.Status)
		return res, ErrEmptyAddress
	}

	log := r.logger
	if sess != nil {
		log = log.WithSession(sess.ID)
	}

	var failures []error

	if r.primary != nil && sess.PrimaryAvailable() {
		coord, err := r.attempt(ctx, log, r.primary, address, res)
		switch {
		case err == nil:
			return r.succeed(log, res, r.primary, coord, StatusPrimary), nil
		case errors.Is(err, ErrNotFound) && !r.policy.FallbackOnNotFound:
			return r.notFound(log, res, r.primary), ErrNotFound
		case errors.Is(err, ErrNotFound):
			log.Info().Str("address", address).Msg("Primary found no match, trying fallback")
		default:
			failures = append(failures, err)
			log.Warn().Err(err).Str("address", address).Msg("Primary provider failed, falling back")
		}
	} else if probeErr := r.skip(res, sess); probeErr != nil {
		failures = append(failures, fmt.Errorf("skipped after failed probe: %w", probeErr))
	}

	coord, err := r.attempt(ctx, log, r.fallback, address, res)
	switch {
	case err == nil:
		return r.succeed(log, res, r.fallback, coord, StatusFallback), nil
	case errors.Is(err, ErrNotFound):
		return r.notFound(log, res, r.fallback), ErrNotFound
	}

	failures = append(failures, err)
	res.Status = StatusFailed
	r.recordStatus(res.Status)

	exhausted := &ExhaustedError{Errs: failures}
	log.Error().Err(exhausted).Str("address", address).Msg("Geocoding failed on every provider")
	return res, exhausted
}

func (r *Resolver) attempt(ctx context.Context, log *logger.Logger, p Provider, address string, res *Resolution) (models.GeoCoordinate, error) {
	log.Debug().Str("provider", p.Name()).Str("address", address).Msg("Geocoding attempt")

	start := time.Now()
	coord, err := p.Geocode(ctx, address)
	err = asProviderError(p.Name(), err)
	elapsed := time.Since(start)

	a := models.Attempt{Provider: p.Name()}
	switch {
	case err == nil:
		a.Outcome = OutcomeSuccess
	case errors.Is(err, ErrNotFound):
		a.Outcome = OutcomeNotFound
		a.Error = err.Error()
	default:
		a.Outcome = OutcomeError
		a.Error = err.Error()
	}
	res.Attempts = append(res.Attempts, a)

	if r.metrics != nil {
		r.metrics.ProviderAttemptsTotal.WithLabelValues(p.Name(), a.Outcome).Inc()
		r.metrics.ProviderDuration.WithLabelValues(p.Name()).Observe(elapsed.Seconds())
	}

	log.Debug().
		Str("provider", p.Name()).
		Str("outcome", a.Outcome).
		Dur("duration", elapsed).
		Msg("Geocoding attempt finished")

	return coord, err
}

// skip records the primary as skipped and returns the probe failure, if any
func (r *Resolver) skip(res *Resolution, sess *Session) error {
	if r.primary == nil {
		return nil
	}
	reason := "primary unavailable for this session"
	probeErr := sess.ProbeError()
	if probeErr != nil {
		reason = probeErr.Error()
	}
	res.Attempts = append(res.Attempts, models.Attempt{
		Provider: r.primary.Name(),
		Outcome:  OutcomeSkipped,
		Error:    reason,
	})
	if r.metrics != nil {
		r.metrics.ProviderAttemptsTotal.WithLabelValues(r.primary.Name(), OutcomeSkipped).Inc()
	}
	return probeErr
}

func (r *Resolver) succeed(log *logger.Logger, res *Resolution, p Provider, coord models.GeoCoordinate, status Status) *Resolution {
	res.Coordinate = coord
	res.Provider = p.Name()
	res.Status = status
	r.recordStatus(status)

	log.Info().
		Str("address", res.Address).
		Str("provider", p.Name()).
		Str("status", string(status)).
		Float64("lat", coord.Latitude).
		Float64("lon", coord.Longitude).
		Msg("Address resolved")
	return res
}

func (r *Resolver) notFound(log *logger.Logger, res *Resolution, p Provider) *Resolution {
	res.Provider = p.Name()
	res.Status = StatusNotFound
	r.recordStatus(res.Status)

	log.Info().Str("address", res.Address).Str("provider", p.Name()).Msg("Address not found")
	return res
}

func (r *Resolver) recordStatus(s Status) {
	if r.metrics != nil {
		r.metrics.GeocodeLookupsTotal.WithLabelValues(string(s)).Inc()
	}
}
