package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/evyataryagoni/boundary-checker/internal/limiter"
	"github.com/evyataryagoni/boundary-checker/internal/metrics"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

// TestRateLimitMiddleware_Allowed tests request allowed
func TestRateLimitMiddleware_Allowed(t *testing.T) {
	mockLimiter := limiter.NewMockLimiter(true) // Allow all

	middleware := RateLimitMiddleware(mockLimiter, nil, time.Minute)

	// Create a test handler that tracks if it was called
	nextCalled := false
	nextHandler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		nextCalled = true
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("success"))
	})

	handler := middleware(nextHandler)

	req := httptest.NewRequest(http.MethodGet, "/v1/check?address=x", nil)
	req.RemoteAddr = "192.168.1.1:12345"
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	if !nextCalled {
		t.Error("expected next handler to be called")
	}
	if rec.Code != http.StatusOK {
		t.Errorf("expected status 200, got %d", rec.Code)
	}
	if rec.Body.String() != "success" {
		t.Errorf("expected body 'success', got '%s'", rec.Body.String())
	}
}

// TestRateLimitMiddleware_RateLimited tests request blocked
func TestRateLimitMiddleware_RateLimited(t *testing.T) {
	mockLimiter := limiter.NewMockLimiter(false) // Block all
	m := metrics.New(prometheus.NewRegistry())

	middleware := RateLimitMiddleware(mockLimiter, m, 90*time.Second)

	nextCalled := false
	handler := middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		nextCalled = true
	}))

	req := httptest.NewRequest(http.MethodGet, "/v1/check?address=x", nil)
	req.RemoteAddr = "192.168.1.1:12345"
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	if nextCalled {
		t.Error("expected next handler NOT to be called")
	}
	if rec.Code != http.StatusTooManyRequests {
		t.Errorf("expected status 429, got %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("expected Content-Type application/json, got %s", ct)
	}
	if ra := rec.Header().Get("Retry-After"); ra != "90" {
		t.Errorf("expected Retry-After 90, got '%s'", ra)
	}

	var errResp map[string]string
	if err := json.NewDecoder(rec.Body).Decode(&errResp); err != nil {
		t.Fatalf("failed to decode JSON response: %v", err)
	}
	if errResp["error"] != "Rate limit exceeded. Please try again later." {
		t.Errorf("unexpected error message: %s", errResp["error"])
	}

	if got := testutil.ToFloat64(m.RateLimitedTotal); got != 1 {
		t.Errorf("expected 1 rate limited request, got %v", got)
	}
}

// TestClientKey tests client identification
func TestClientKey(t *testing.T) {
	tests := []struct {
		name          string
		remoteAddr    string
		xRealIP       string
		xForwardedFor string
		expected      string
	}{
		{
			name:       "RemoteAddr only",
			remoteAddr: "192.168.1.1:12345",
			expected:   "192.168.1.1",
		},
		{
			name:       "X-Real-IP takes priority",
			remoteAddr: "192.168.1.1:12345",
			xRealIP:    "10.0.0.1",
			expected:   "10.0.0.1",
		},
		{
			name:          "X-Forwarded-For when no X-Real-IP",
			remoteAddr:    "192.168.1.1:12345",
			xForwardedFor: "10.0.0.2",
			expected:      "10.0.0.2",
		},
		{
			name:          "X-Real-IP over X-Forwarded-For",
			remoteAddr:    "192.168.1.1:12345",
			xRealIP:       "10.0.0.1",
			xForwardedFor: "10.0.0.2",
			expected:      "10.0.0.1",
		},
		{
			name:          "X-Forwarded-For with multiple IPs",
			remoteAddr:    "192.168.1.1:12345",
			xForwardedFor: "10.0.0.3, 10.0.0.4, 10.0.0.5",
			expected:      "10.0.0.3",
		},
		{
			name:       "IPv6 RemoteAddr",
			remoteAddr: "[2001:db8::1]:8080",
			expected:   "2001:db8::1",
		},
		{
			name:       "RemoteAddr without port",
			remoteAddr: "192.168.1.9",
			expected:   "192.168.1.9",
		},
		{
			name:          "blank headers fall back to RemoteAddr",
			remoteAddr:    "192.168.1.1:12345",
			xRealIP:       " ",
			xForwardedFor: " , 10.0.0.1",
			expected:      "192.168.1.1",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/v1/check", nil)
			req.RemoteAddr = tt.remoteAddr
			if tt.xRealIP != "" {
				req.Header.Set("X-Real-IP", tt.xRealIP)
			}
			if tt.xForwardedFor != "" {
				req.Header.Set("X-Forwarded-For", tt.xForwardedFor)
			}

			if got := ClientKey(req); got != tt.expected {
				t.Errorf("expected key %s, got %s", tt.expected, got)
			}
		})
	}
}

// TestRateLimitMiddleware_DifferentClients tests that each client is checked separately
func TestRateLimitMiddleware_DifferentClients(t *testing.T) {
	mockLimiter := limiter.NewMockLimiter(true)
	mockLimiter.Deny["192.168.1.2"] = true

	handler := RateLimitMiddleware(mockLimiter, nil, time.Minute)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	expected := map[string]int{
		"192.168.1.1:12345": http.StatusOK,
		"192.168.1.2:12345": http.StatusTooManyRequests,
		"192.168.1.3:12345": http.StatusOK,
	}

	for addr, status := range expected {
		req := httptest.NewRequest(http.MethodGet, "/v1/check", nil)
		req.RemoteAddr = addr
		rec := httptest.NewRecorder()

		handler.ServeHTTP(rec, req)

		if rec.Code != status {
			t.Errorf("%s: expected status %d, got %d", addr, status, rec.Code)
		}
	}

	if len(mockLimiter.AllowCalls) != 3 {
		t.Errorf("expected limiter called 3 times, got %d", len(mockLimiter.AllowCalls))
	}
}

// TestRateLimitMiddleware_PreservesNextHandlerResponse tests that allowed requests preserve response
func TestRateLimitMiddleware_PreservesNextHandlerResponse(t *testing.T) {
	handler := RateLimitMiddleware(limiter.NewMockLimiter(true), nil, time.Minute)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Custom-Header", "test-value")
		w.WriteHeader(http.StatusCreated)
		w.Write([]byte("custom response"))
	}))

	req := httptest.NewRequest(http.MethodGet, "/v1/check", nil)
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusCreated {
		t.Errorf("expected status 201, got %d", rec.Code)
	}
	if rec.Header().Get("X-Custom-Header") != "test-value" {
		t.Errorf("expected custom header to be preserved")
	}
	if rec.Body.String() != "custom response" {
		t.Errorf("expected custom response body to be preserved")
	}
}
