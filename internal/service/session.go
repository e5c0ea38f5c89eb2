package service

import (
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
)

// DefaultSessionID is used when a request carries no session header.
const DefaultSessionID = "default"

// Session holds the per-browser state: its table controller and suggestion debouncer.
type Session struct {
	ID          string
	Controller  *ResultSetController
	Suggestions *Debouncer

	lastUsed time.Time
}

// SessionFactory builds the state for a new session.
type SessionFactory func(id string) *Session

// SessionRegistry lazily creates and expires sessions.
type SessionRegistry struct {
	factory SessionFactory
	logger  *zap.Logger
	now     func() time.Time

	mu       sync.Mutex
	sessions map[string]*Session
}

// NewSessionRegistry constructs a registry.
func NewSessionRegistry(factory SessionFactory, logger *zap.Logger) *SessionRegistry {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SessionRegistry{
		factory:  factory,
		logger:   logger,
		now:      time.Now,
		sessions: make(map[string]*Session),
	}
}

// Get returns the session for id, creating it on first use.
func (r *SessionRegistry) Get(id string) *Session {
	id = strings.TrimSpace(id)
	if id == "" {
		id = DefaultSessionID
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[id]
	if !ok {
		s = r.factory(id)
		s.ID = id
		r.sessions[id] = s
		r.logger.Debug("session created", zap.String("session_id", id))
	}
	s.lastUsed = r.now()
	return s
}

// Sweep drops sessions idle for longer than idle and returns how many were removed.
func (r *SessionRegistry) Sweep(idle time.Duration) int {
	if idle <= 0 {
		return 0
	}
	cutoff := r.now().Add(-idle)
	r.mu.Lock()
	defer r.mu.Unlock()
	removed := 0
	for id, s := range r.sessions {
		if s.lastUsed.Before(cutoff) {
			if s.Suggestions != nil {
				s.Suggestions.Cancel()
			}
			delete(r.sessions, id)
			removed++
		}
	}
	if removed > 0 {
		r.logger.Info("expired idle sessions", zap.Int("removed", removed), zap.Int("remaining", len(r.sessions)))
	}
	return removed
}

// Len reports the number of live sessions.
func (r *SessionRegistry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}
