package workflow

import (
	"sync"
	"sync/atomic"

	"golang.org/x/sync/semaphore"
)

// Settings is the per-session state the workflows read: the API key, the
// selected model and the UI language explanations are written in.
type Settings struct {
	Credential string
	Model      string
	UILanguage string
}

// Session carries settings and the single-flight gate shared by every
// workflow of one application instance.
type Session struct {
	mu       sync.RWMutex
	settings Settings

	gate *semaphore.Weighted
	busy atomic.Bool
}

// NewSession creates an idle session.
func NewSession(s Settings) *Session {
	return &Session{settings: s, gate: semaphore.NewWeighted(1)}
}

// Snapshot returns a copy of the current settings.
func (s *Session) Snapshot() Settings {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.settings
}

// Update mutates the settings under the session lock.
func (s *Session) Update(fn func(*Settings)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn(&s.settings)
}

// TryBegin acquires the gate without waiting. When ok is true the caller must
// call release exactly once.
func (s *Session) TryBegin() (release func(), ok bool) {
	if !s.gate.TryAcquire(1) {
		return nil, false
	}
	s.busy.Store(true)
	var once sync.Once
	return func() {
		once.Do(func() {
			s.busy.Store(false)
			s.gate.Release(1)
		})
	}, true
}

// Busy reports whether a workflow currently holds the gate.
func (s *Session) Busy() bool { return s.busy.Load() }
