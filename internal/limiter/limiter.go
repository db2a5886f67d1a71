package limiter

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/evyataryagoni/boundary-checker/internal/logger"
)

// Limiter decides whether a client may run another lookup.
// Every lookup can reach a paid or shared geocoding service, so clients of
// the HTTP surface are limited independently of the fallback call delay.
type Limiter interface {
	// Allow reports whether the request from key may proceed
	Allow(ctx context.Context, key string) bool

	// Close releases connections and background state
	Close() error
}

// Config holds configuration for creating a rate limiter
type Config struct {
	Type   string        // "memory" or "redis"
	Limit  int           // lookups allowed per client per Window
	Window time.Duration // period the limit applies to

	// Redis-specific config
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	KeyPrefix     string
}

// New creates a rate limiter based on the configuration (factory pattern)
func New(cfg Config, log *logger.Logger) (Limiter, error) {
	if cfg.Limit <= 0 {
		return nil, fmt.Errorf("rate limit must be positive, got %d", cfg.Limit)
	}
	if cfg.Window <= 0 {
		return nil, fmt.Errorf("rate limit window must be positive, got %s", cfg.Window)
	}
	if log == nil {
		log = logger.NewDefault()
	}

	switch strings.ToLower(strings.TrimSpace(cfg.Type)) {
	case "memory", "":
		// Per-process token buckets (single instance deployments)
		return NewMemoryLimiter(cfg.Limit, cfg.Window), nil

	case "redis":
		// Shared fixed windows (several instances behind a load balancer)
		l, err := NewRedisLimiter(cfg, log)
		if err != nil {
			return nil, fmt.Errorf("failed to create Redis limiter: %w", err)
		}
		return l, nil

	default:
		return nil, fmt.Errorf("unknown rate limiter type: %s (supported: 'memory', 'redis')", cfg.Type)
	}
}
