package geocoder

import (
	"time"

	"github.com/google/uuid"
)

// Session is one run of the checker. Primary availability is probed once
// when the session is created and never re-evaluated.
type Session struct {
	ID        string
	StartedAt time.Time

	primaryAvailable bool
	probeErr         error
}

func newSession(available bool, probeErr error) *Session {
	return &Session{
		ID:               uuid.NewString(),
		StartedAt:        time.Now(),
		primaryAvailable: available,
		probeErr:         probeErr,
	}
}

// PrimaryAvailable reports whether the primary provider may be used
func (s *Session) PrimaryAvailable() bool {
	return s != nil && s.primaryAvailable
}

// ProbeError is why the primary was marked unavailable, nil when it is available
func (s *Session) ProbeError() error {
	if s == nil {
		return nil
	}
	return s.probeErr
}
