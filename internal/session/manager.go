package session

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"sync"
	"time"
)

// Manager is the in-memory Store implementation, with TTL-based cleanup.
// It is thread-safe and supports concurrent access.
type Manager struct {
	mu             sync.RWMutex
	sessions       map[string]*Session // sessionID -> Session
	sessionTimeout time.Duration
	cleanupTicker  *time.Ticker
	stopCleanup    chan struct{}
}

var _ Store = (*Manager)(nil)

// NewManager creates a new session manager with the specified timeout.
// It automatically starts a background cleanup goroutine that runs every minute.
func NewManager(sessionTimeout time.Duration) *Manager {
	m := &Manager{
		sessions:       make(map[string]*Session),
		sessionTimeout: sessionTimeout,
		cleanupTicker:  time.NewTicker(1 * time.Minute),
		stopCleanup:    make(chan struct{}),
	}

	go m.cleanupLoop()

	return m
}

// Stop stops the session manager's cleanup goroutine.
// Call this when shutting down the service.
func (m *Manager) Stop() {
	m.cleanupTicker.Stop()
	close(m.stopCleanup)
}

// Create allocates a new empty session.
// The session ID is generated using crypto/rand (64 hex characters).
func (m *Manager) Create() (*Session, error) {
	sessionID, err := generateSessionID()
	if err != nil {
		return nil, fmt.Errorf("failed to generate session ID: %w", err)
	}

	session := &Session{
		ID:        sessionID,
		CreatedAt: time.Now(),
		ExpiresAt: time.Now().Add(m.sessionTimeout),
	}

	m.mu.Lock()
	m.sessions[sessionID] = session
	m.mu.Unlock()

	return copySession(session), nil
}

// Get retrieves a session by its ID.
// Returns ErrNotFound if the session does not exist or has expired.
func (m *Manager) Get(id string) (*Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	session, err := m.getLocked(id)
	if err != nil {
		return nil, err
	}

	return copySession(session), nil
}

// SetPendingAuth stores a new login attempt on the session.
// Any prior pending attempt is overwritten, which invalidates its state.
func (m *Manager) SetPendingAuth(id string, pending *PendingAuth) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	session, err := m.getLocked(id)
	if err != nil {
		return err
	}

	if pending != nil {
		p := *pending
		session.PendingAuth = &p
	} else {
		session.PendingAuth = nil
	}

	return nil
}

// SetCredentials records a completed login. The pending attempt is cleared in
// the same critical section so a completed session never carries a stale
// verifier or state.
func (m *Manager) SetCredentials(id string, creds *Credentials) error {
	if creds == nil || creds.AccessToken == "" {
		return fmt.Errorf("credentials must carry an access token")
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	session, err := m.getLocked(id)
	if err != nil {
		return err
	}

	c := *creds
	session.Credentials = &c
	session.LoggedIn = true
	session.PendingAuth = nil

	return nil
}

// Clear resets a session to its initial empty shape, keeping its ID and
// lifetime. Used on logout.
func (m *Manager) Clear(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	session, err := m.getLocked(id)
	if err != nil {
		return err
	}

	session.LoggedIn = false
	session.PendingAuth = nil
	session.Credentials = nil

	return nil
}

// Delete removes a session from the manager.
func (m *Manager) Delete(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.sessions, id)
}

// Count returns the current number of tracked sessions.
// Useful for monitoring and testing.
func (m *Manager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// getLocked looks up a live session. Callers must hold mu.
func (m *Manager) getLocked(id string) (*Session, error) {
	session, ok := m.sessions[id]
	if !ok {
		return nil, ErrNotFound
	}

	if time.Now().After(session.ExpiresAt) {
		return nil, ErrNotFound
	}

	return session, nil
}

// copySession returns a deep copy so callers cannot mutate stored state
// outside the manager's lock.
func copySession(s *Session) *Session {
	out := *s
	if s.PendingAuth != nil {
		p := *s.PendingAuth
		out.PendingAuth = &p
	}
	if s.Credentials != nil {
		c := *s.Credentials
		out.Credentials = &c
	}
	return &out
}

// generateSessionID generates a cryptographically secure random session ID.
// The ID is 64 hex characters (32 random bytes).
func generateSessionID() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
