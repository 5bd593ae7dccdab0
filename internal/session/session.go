// Package session holds the authenticated identity the sync client acts for.
//
// A Manager is passed by reference into every consumer. Consumers read the
// current session with Current and register for changes with Subscribe; the
// Manager fans out a notification whenever the identity or its tokens change.
// FileStore persists the session between CLI invocations and Watcher turns
// edits made by other processes into Manager updates.
package session

import (
	"io"
	"log"
	"maps"
	"slices"
	"sync"
	"time"
)

// Session is an authenticated identity together with its bearer credentials.
type Session struct {
	UserID       string    `toml:"user_id"`
	Email        string    `toml:"email"`
	AccessToken  string    `toml:"access_token"`
	RefreshToken string    `toml:"refresh_token"`
	ExpiresAt    time.Time `toml:"expires_at"`
}

// Valid reports whether s identifies a user and can still authorize requests
// at now: either the access token has not expired or it can be refreshed.
func (s Session) Valid(now time.Time) bool {
	if s.UserID == "" {
		return false
	}
	if s.RefreshToken != "" {
		return true
	}
	if s.AccessToken == "" {
		return false
	}
	return s.ExpiresAt.IsZero() || now.Before(s.ExpiresAt)
}

// Expired reports whether the access token is past its expiry at now.
func (s Session) Expired(now time.Time) bool {
	return !s.ExpiresAt.IsZero() && !now.Before(s.ExpiresAt)
}

func (s Session) equal(o Session) bool {
	return s.UserID == o.UserID &&
		s.Email == o.Email &&
		s.AccessToken == o.AccessToken &&
		s.RefreshToken == o.RefreshToken &&
		s.ExpiresAt.Equal(o.ExpiresAt)
}

// SameUser reports whether a and b identify the same user.
func SameUser(a, b Session) bool {
	return a.UserID == b.UserID
}

// Manager is the explicit session holder.
type Manager struct {
	mu      sync.Mutex
	current Session
	subs    map[int]func(Session)
	nextID  int
	now     func() time.Time
	logger  *log.Logger
}

// Option configures a Manager.
type Option func(*Manager)

// WithLogger sets the logger used for session transitions.
func WithLogger(l *log.Logger) Option {
	return func(m *Manager) {
		if l != nil {
			m.logger = l
		}
	}
}

// WithClock overrides the time source used by Current.
func WithClock(now func() time.Time) Option {
	return func(m *Manager) {
		m.now = now
	}
}

// NewManager returns a Manager with no session.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		subs:   make(map[int]func(Session)),
		now:    time.Now,
		logger: log.New(io.Discard, "[session] ", log.LstdFlags),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Current returns the session and whether it is valid right now.
func (m *Manager) Current() (Session, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.current, m.current.Valid(m.now())
}

// Set replaces the session. Subscribers are notified when it differs from the
// previous one.
func (m *Manager) Set(s Session) {
	m.mu.Lock()
	if m.current.equal(s) {
		m.mu.Unlock()
		return
	}
	prev := m.current
	m.current = s
	subs := m.snapshot()
	m.mu.Unlock()

	if !SameUser(prev, s) {
		m.logger.Printf("session changed: %q -> %q", prev.Email, s.Email)
	}
	for _, fn := range subs {
		fn(s)
	}
}

// Clear drops the session, notifying subscribers if one was held.
func (m *Manager) Clear() {
	m.Set(Session{})
}

// Subscribe registers fn for session changes. fn is called synchronously on
// the goroutine that changed the session, never with the Manager locked.
func (m *Manager) Subscribe(fn func(Session)) (unsubscribe func()) {
	m.mu.Lock()
	defer m.mu.Unlock()

	id := m.nextID
	m.nextID++
	m.subs[id] = fn

	var once sync.Once
	return func() {
		once.Do(func() {
			m.mu.Lock()
			delete(m.subs, id)
			m.mu.Unlock()
		})
	}
}

// snapshot returns subscribers in registration order. m.mu must be held.
func (m *Manager) snapshot() []func(Session) {
	ids := slices.Sorted(maps.Keys(m.subs))
	out := make([]func(Session), len(ids))
	for i, id := range ids {
		out[i] = m.subs[id]
	}
	return out
}
