// Package health tracks process health and runs the background self-supervision probes.
package health

import (
	"sync/atomic"
	"time"
)

// State is the process-wide health flag. It is safe for concurrent use.
type State struct {
	healthy   atomic.Bool
	lastCheck atomic.Int64
}

// NewState returns a State that starts out healthy.
func NewState() *State {
	s := &State{}
	s.healthy.Store(true)
	return s
}

// Healthy reports the current flag value.
func (s *State) Healthy() bool {
	return s.healthy.Load()
}

// MarkHealthy records a successful check.
func (s *State) MarkHealthy(at time.Time) {
	s.healthy.Store(true)
	s.lastCheck.Store(at.UnixNano())
}

// MarkUnhealthy records a failed check that the process cannot recover from.
func (s *State) MarkUnhealthy(at time.Time) {
	s.healthy.Store(false)
	s.lastCheck.Store(at.UnixNano())
}

// LastCheck returns the time of the latest recorded check, or the zero time.
func (s *State) LastCheck() time.Time {
	ns := s.lastCheck.Load()
	if ns == 0 {
		return time.Time{}
	}
	return time.Unix(0, ns)
}
