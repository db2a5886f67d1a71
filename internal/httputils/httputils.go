// Package httputils provides http.RoundTrippers shared by outbound clients.
package httputils

import (
	"net/http"
	"time"

	"github.com/evyataryagoni/boundary-checker/internal/logger"
)

// HeaderTransport sets fixed headers on every outgoing request
type HeaderTransport struct {
	Base    http.RoundTripper
	Headers map[string]string
}

// RoundTrip implements the http.RoundTripper interface.
// The request is cloned; RoundTrippers must not modify the caller's request.
func (t *HeaderTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	out := req.Clone(req.Context())
	for k, v := range t.Headers {
		out.Header.Set(k, v)
	}
	return base(t.Base).RoundTrip(out)
}

// LoggingTransport logs each request and its outcome at debug level
type LoggingTransport struct {
	Base   http.RoundTripper
	Logger *logger.Logger
}

// RoundTrip implements the http.RoundTripper interface
func (t *LoggingTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if t.Logger == nil {
		return base(t.Base).RoundTrip(req)
	}

	start := time.Now()
	t.Logger.Debug().
		Str("method", req.Method).
		Str("host", req.URL.Host).
		Str("path", req.URL.Path).
		Str("user_agent", req.Header.Get("User-Agent")).
		Msg("Outbound request")

	resp, err := base(t.Base).RoundTrip(req)
	if err != nil {
		t.Logger.Debug().Err(err).Dur("duration", time.Since(start)).Msg("Outbound request failed")
		return nil, err
	}

	t.Logger.Debug().
		Int("status", resp.StatusCode).
		Int64("content_length", resp.ContentLength).
		Dur("duration", time.Since(start)).
		Msg("Outbound response")

	return resp, nil
}

func base(rt http.RoundTripper) http.RoundTripper {
	if rt == nil {
		return http.DefaultTransport
	}
	return rt
}
