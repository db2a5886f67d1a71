package limiter

import (
	"context"
	"sync"
)

// MockLimiter is a test double for the Limiter interface
// It allows tests to control allow/deny behavior and verify interactions
type MockLimiter struct {
	mu sync.Mutex

	// Control behavior
	AllowResult bool            // default answer
	Deny        map[string]bool // keys always denied, regardless of AllowResult

	// Track method calls for verification in tests
	AllowCalls  []string
	CloseCalled bool

	CloseError error
}

// NewMockLimiter creates a mock limiter with specified allow behavior
func NewMockLimiter(allowResult bool) *MockLimiter {
	return &MockLimiter{
		AllowResult: allowResult,
		Deny:        map[string]bool{},
	}
}

// Allow implements the Limiter interface
func (m *MockLimiter) Allow(_ context.Context, key string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.AllowCalls = append(m.AllowCalls, key)
	if m.Deny[key] {
		return false
	}
	return m.AllowResult
}

// Close implements the Limiter interface
func (m *MockLimiter) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.CloseCalled = true
	return m.CloseError
}
