package geocoder

import (
	"context"
	"sync"

	"github.com/evyataryagoni/boundary-checker/internal/models"
)

// MockProvider is a test double for the Provider interface.
// Responses are looked up by address first, then Default is used.
type MockProvider struct {
	ProviderName string

	// Control behavior
	Responses map[string]MockResponse
	Default   MockResponse

	// Track method calls for verification in tests
	mu    sync.Mutex
	Calls []string
}

// MockResponse is what the mock answers for one address
type MockResponse struct {
	Coordinate models.GeoCoordinate
	Err        error
}

// NewMockProvider creates a mock that answers every address with coord
func NewMockProvider(name string, coord models.GeoCoordinate) *MockProvider {
	return &MockProvider{
		ProviderName: name,
		Responses:    map[string]MockResponse{},
		Default:      MockResponse{Coordinate: coord},
	}
}

// NewFailingMockProvider creates a mock that fails every call with err
func NewFailingMockProvider(name string, err error) *MockProvider {
	return &MockProvider{
		ProviderName: name,
		Responses:    map[string]MockResponse{},
		Default:      MockResponse{Err: err},
	}
}

// Name implements the Provider interface
func (m *MockProvider) Name() string {
	return m.ProviderName
}

// Geocode implements the Provider interface
func (m *MockProvider) Geocode(_ context.Context, address string) (models.GeoCoordinate, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.Calls = append(m.Calls, address)

	resp, ok := m.Responses[address]
	if !ok {
		resp = m.Default
	}
	if resp.Err != nil {
		return models.GeoCoordinate{}, resp.Err
	}
	return resp.Coordinate, nil
}

// CallCount returns how many times Geocode was called
func (m *MockProvider) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Calls)
}
