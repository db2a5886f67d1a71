package middleware

import (
	"encoding/json"
	"math"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/evyataryagoni/boundary-checker/internal/limiter"
	"github.com/evyataryagoni/boundary-checker/internal/metrics"
	"github.com/evyataryagoni/boundary-checker/internal/models"
)

// RateLimitMiddleware limits lookups per client (returns 429 when exceeded).
// window is advertised in Retry-After; m may be nil.
func RateLimitMiddleware(lim limiter.Limiter, m *metrics.Metrics, window time.Duration) func(http.Handler) http.Handler {
	retryAfter := strconv.Itoa(int(math.Ceil(window.Seconds())))

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if lim.Allow(r.Context(), ClientKey(r)) {
				next.ServeHTTP(w, r)
				return
			}

			if m != nil {
				m.RateLimitedTotal.Inc()
			}

			w.Header().Set("Content-Type", "application/json")
			if window > 0 {
				w.Header().Set("Retry-After", retryAfter)
			}
			w.WriteHeader(http.StatusTooManyRequests)
			json.NewEncoder(w).Encode(models.ErrorResponse{
				Error: "Rate limit exceeded. Please try again later.",
			})
		})
	}
}

// ClientKey identifies the caller for rate limiting
// Priority: X-Real-IP > first X-Forwarded-For entry > RemoteAddr host
func ClientKey(r *http.Request) string {
	if realIP := strings.TrimSpace(r.Header.Get("X-Real-IP")); realIP != "" {
		return realIP
	}
	if forwardedFor := r.Header.Get("X-Forwarded-For"); forwardedFor != "" {
		// Format: "client, proxy1, proxy2"
		first, _, _ := strings.Cut(forwardedFor, ",")
		if first = strings.TrimSpace(first); first != "" {
			return first
		}
	}
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}
