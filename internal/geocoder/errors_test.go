package geocoder

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"testing"
)

func TestClassifyHTTPStatus(t *testing.T) {
	tests := []struct {
		status   int
		expected Kind
	}{
		{http.StatusTooManyRequests, KindRateLimited},
		{http.StatusUnauthorized, KindCredentials},
		{http.StatusForbidden, KindCredentials},
		{http.StatusBadRequest, KindInvalidRequest},
		{http.StatusInternalServerError, KindUnavailable},
		{http.StatusServiceUnavailable, KindUnavailable},
		{http.StatusNotFound, KindHTTPStatus},
		{http.StatusTeapot, KindHTTPStatus},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("status %d", tt.status), func(t *testing.T) {
			pe := ClassifyHTTPStatus("nominatim", tt.status)
			if pe.Kind != tt.expected {
				t.Errorf("expected kind %s, got %s", tt.expected, pe.Kind)
			}
			if pe.StatusCode != tt.status {
				t.Errorf("expected status code %d, got %d", tt.status, pe.StatusCode)
			}
		})
	}
}

func TestClassifyTransport(t *testing.T) {
	if pe := classifyTransport("p", context.DeadlineExceeded); pe.Kind != KindTimeout {
		t.Errorf("expected timeout, got %s", pe.Kind)
	}
	if pe := classifyTransport("p", errors.New("connection refused")); pe.Kind != KindTransport {
		t.Errorf("expected transport, got %s", pe.Kind)
	}
}

func TestProviderError_Unwrap(t *testing.T) {
	cause := errors.New("dial tcp: connection refused")
	err := fmt.Errorf("wrapped: %w", &ProviderError{Provider: "p", Kind: KindTransport, Message: "request failed", Err: cause})

	if !errors.Is(err, cause) {
		t.Error("expected errors.Is to find the cause")
	}
	if !IsKind(err, KindTransport) {
		t.Error("expected IsKind to match transport")
	}
	if IsKind(err, KindTimeout) {
		t.Error("IsKind matched the wrong kind")
	}
	if IsKind(cause, KindTransport) {
		t.Error("IsKind matched a plain error")
	}
}

func TestExhaustedError(t *testing.T) {
	primary := &ProviderError{Provider: "aws-location", Kind: KindCredentials, Message: "AccessDeniedException"}
	fallback := &ProviderError{Provider: "nominatim", Kind: KindTimeout, Message: "request timed out"}
	err := &ExhaustedError{Errs: []error{primary, fallback}}

	msg := err.Error()
	if !strings.Contains(msg, "aws-location") || !strings.Contains(msg, "nominatim") {
		t.Errorf("expected both failures in message, got %q", msg)
	}
	if !errors.Is(err, primary) || !errors.Is(err, fallback) {
		t.Error("expected errors.Is to reach every failure")
	}
	if !IsKind(err, KindTimeout) {
		t.Error("expected IsKind to reach the fallback failure")
	}
	if !IsKind(err, KindCredentials) {
		t.Error("expected IsKind to reach the primary failure")
	}
	if IsKind(err, KindUnavailable) {
		t.Error("IsKind matched a kind no failure has")
	}
	if !IsKind(fmt.Errorf("check: %w", err), KindTimeout) {
		t.Error("expected IsKind to look through wrapping")
	}
}

func TestAsProviderError(t *testing.T) {
	if err := asProviderError("p", nil); err != nil {
		t.Errorf("expected nil, got %v", err)
	}
	if err := asProviderError("p", ErrNotFound); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound to pass through, got %v", err)
	}

	err := asProviderError("p", errors.New("boom"))
	var pe *ProviderError
	if !errors.As(err, &pe) {
		t.Fatalf("expected *ProviderError, got %T", err)
	}
	if pe.Kind != KindUnknown || pe.Provider != "p" {
		t.Errorf("unexpected wrapped error: %+v", pe)
	}
}
