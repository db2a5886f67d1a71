package geocoder

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
)

var (
	// ErrNotFound means the provider answered but had no match for the address
	ErrNotFound = errors.New("address not found")

	// ErrEmptyAddress rejects blank input before any provider is called
	ErrEmptyAddress = errors.New("address must not be empty")

	// ErrPrimaryNotConfigured marks a session whose primary provider was never set up
	ErrPrimaryNotConfigured = errors.New("primary provider not configured")
)

// Kind classifies provider failures
type Kind string

const (
	KindCredentials       Kind = "credentials"
	KindTransport         Kind = "transport"
	KindTimeout           Kind = "timeout"
	KindHTTPStatus        Kind = "http_status"
	KindRateLimited       Kind = "rate_limited"
	KindInvalidRequest    Kind = "invalid_request"
	KindMalformedResponse Kind = "malformed_response"
	KindUnavailable       Kind = "unavailable"
	KindUnknown           Kind = "unknown"
)

// ProviderError is any failure of a provider other than a clean not-found
type ProviderError struct {
	Provider   string
	Kind       Kind
	Message    string
	StatusCode int // HTTP status when Kind is http_status, rate_limited or unavailable
	Err        error
}

func (e *ProviderError) Error() string {
	msg := fmt.Sprintf("%s: %s: %s", e.Provider, e.Kind, e.Message)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}

// IsKind reports whether any ProviderError in err's tree has the given kind.
// Unlike errors.As it keeps looking past the first match, so every failure
// held by an ExhaustedError is checked.
func IsKind(err error, kind Kind) bool {
	switch e := err.(type) {
	case nil:
		return false
	case *ProviderError:
		return e.Kind == kind || IsKind(e.Err, kind)
	case interface{ Unwrap() []error }:
		for _, inner := range e.Unwrap() {
			if IsKind(inner, kind) {
				return true
			}
		}
		return false
	case interface{ Unwrap() error }:
		return IsKind(e.Unwrap(), kind)
	}
	return false
}

// ExhaustedError is returned when every attempted provider failed. It keeps
// all failures so the caller can report each of them, not only the last.
type ExhaustedError struct {
	Errs []error
}

func (e *ExhaustedError) Error() string {
	if len(e.Errs) == 0 {
		return "no geocoding provider available"
	}
	parts := make([]string, 0, len(e.Errs))
	for _, err := range e.Errs {
		parts = append(parts, err.Error())
	}
	return "all geocoding providers failed: " + strings.Join(parts, "; ")
}

func (e *ExhaustedError) Unwrap() []error {
	return e.Errs
}

// ClassifyHTTPStatus maps a non-2xx response onto a ProviderError
func ClassifyHTTPStatus(provider string, statusCode int) *ProviderError {
	pe := &ProviderError{Provider: provider, StatusCode: statusCode}

	switch {
	case statusCode == http.StatusTooManyRequests:
		pe.Kind = KindRateLimited
		pe.Message = "rate limit reached"
	case statusCode == http.StatusUnauthorized, statusCode == http.StatusForbidden:
		pe.Kind = KindCredentials
		pe.Message = fmt.Sprintf("access denied (status %d)", statusCode)
	case statusCode == http.StatusBadRequest:
		pe.Kind = KindInvalidRequest
		pe.Message = "request rejected"
	case statusCode >= 500:
		pe.Kind = KindUnavailable
		pe.Message = fmt.Sprintf("service unavailable (status %d)", statusCode)
	default:
		pe.Kind = KindHTTPStatus
		pe.Message = fmt.Sprintf("unexpected status %d", statusCode)
	}

	return pe
}

// classifyTransport wraps an error raised before any response was read
func classifyTransport(provider string, err error) *ProviderError {
	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
		return &ProviderError{Provider: provider, Kind: KindTimeout, Message: "request timed out", Err: err}
	}
	return &ProviderError{Provider: provider, Kind: KindTransport, Message: "request failed", Err: err}
}

func malformed(provider, message string, err error) *ProviderError {
	return &ProviderError{Provider: provider, Kind: KindMalformedResponse, Message: message, Err: err}
}

// asProviderError makes sure anything a provider returns, other than nil and
// ErrNotFound, is a *ProviderError.
func asProviderError(provider string, err error) error {
	if err == nil || errors.Is(err, ErrNotFound) {
		return err
	}
	var pe *ProviderError
	if errors.As(err, &pe) {
		return err
	}
	return &ProviderError{Provider: provider, Kind: KindUnknown, Message: "provider failed", Err: err}
}
