package app

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/evyataryagoni/boundary-checker/internal/boundary"
	"github.com/evyataryagoni/boundary-checker/internal/config"
	"github.com/evyataryagoni/boundary-checker/internal/geocoder"
	"github.com/evyataryagoni/boundary-checker/internal/logger"
)

const square = `{"type":"FeatureCollection","features":[
 {"type":"Feature","properties":{},"geometry":{"type":"Polygon","coordinates":[[[0,0],[0,1],[1,1],[1,0],[0,0]]]}},
 {"type":"Feature","properties":{},"geometry":{"type":"Polygon","coordinates":[[[5,5],[5,6],[6,6],[6,5],[5,5]]]}}
]}`

func testConfig(t *testing.T, content string) *config.Config {
	t.Helper()
	path := filepath.Join(t.TempDir(), "boundary.geojson")
	if content != "" {
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			t.Fatalf("failed to write boundary: %v", err)
		}
	}
	return &config.Config{
		BoundaryPath:       path,
		NominatimURL:       "http://127.0.0.1:1/search",
		NominatimUserAgent: "boundary-checker-test",
		NominatimTimeout:   time.Second,
		NominatimMinDelay:  time.Second,
		PrimaryProbeQuery:  "placeholder",
		HTTPDebug:          true,
	}
}

func TestBuild(t *testing.T) {
	a, err := Build(context.Background(), testConfig(t, square), nil, logger.Nop())
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	// Only the first feature is used
	if a.Boundary.Parts() != 1 {
		t.Errorf("expected 1 part, got %d", a.Boundary.Parts())
	}
	if a.Service.Boundary() != a.Boundary {
		t.Error("service must share the loaded boundary")
	}

	sess := a.Resolver.NewSession(context.Background())
	if sess.PrimaryAvailable() {
		t.Error("expected primary unavailable without credentials")
	}
	if !errors.Is(sess.ProbeError(), geocoder.ErrPrimaryNotConfigured) {
		t.Errorf("expected ErrPrimaryNotConfigured, got %v", sess.ProbeError())
	}
}

func TestBuild_BoundaryErrors(t *testing.T) {
	t.Run("missing file", func(t *testing.T) {
		_, err := Build(context.Background(), testConfig(t, ""), nil, logger.Nop())
		var dle *boundary.DataLoadError
		if !errors.As(err, &dle) {
			t.Fatalf("expected DataLoadError, got %v", err)
		}
	})

	t.Run("point geometry", func(t *testing.T) {
		_, err := Build(context.Background(), testConfig(t, `{"type":"Point","coordinates":[1,2]}`), nil, logger.Nop())
		var ige *boundary.InvalidGeometryError
		if !errors.As(err, &ige) {
			t.Fatalf("expected InvalidGeometryError, got %v", err)
		}
	})
}

func TestNewResolver_MissingUserAgent(t *testing.T) {
	cfg := testConfig(t, square)
	cfg.NominatimUserAgent = ""

	if _, err := NewResolver(context.Background(), cfg, nil, logger.Nop()); err == nil {
		t.Error("expected error without a User-Agent")
	}
}
