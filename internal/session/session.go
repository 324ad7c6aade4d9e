package session

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"log/slog"
	"sync"
	"time"

	"github.com/pavelanni/lessonhub/internal/lesson"
	"github.com/pavelanni/lessonhub/internal/model"
)

// DefaultTTL is how long an idle study session is kept.
const DefaultTTL = 2 * time.Hour

// Session is one visitor's lesson browser. It lives in memory only and is
// dropped after an idle TTL.
type Session struct {
	mu       sync.Mutex
	browser  *lesson.Browser
	lastSeen time.Time
}

// Do runs fn with exclusive access to the session's browser.
func (s *Session) Do(fn func(b *lesson.Browser)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn(s.browser)
}

// Manager hands out study sessions keyed by random tokens.
type Manager struct {
	mu         sync.Mutex
	sessions   map[string]*Session
	curriculum *model.Curriculum
	ttl        time.Duration
	now        func() time.Time
}

// NewManager creates a manager whose sessions browse c. A non-positive ttl
// selects DefaultTTL.
func NewManager(c *model.Curriculum, ttl time.Duration) *Manager {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Manager{
		sessions:   make(map[string]*Session),
		curriculum: c,
		ttl:        ttl,
		now:        time.Now,
	}
}

// Create starts a new session with no active lesson.
func (m *Manager) Create() (string, *Session, error) {
	token, err := generateToken()
	if err != nil {
		return "", nil, err
	}
	s := &Session{browser: lesson.NewBrowser(m.curriculum), lastSeen: m.now()}

	m.mu.Lock()
	m.sessions[token] = s
	m.mu.Unlock()

	return token, s, nil
}

// Get returns the session for token, or nil if it is unknown or expired.
// A successful Get extends the session's lifetime.
func (m *Manager) Get(token string) *Session {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.sessions[token]
	if !ok {
		return nil
	}
	now := m.now()
	if now.Sub(s.lastSeen) > m.ttl {
		delete(m.sessions, token)
		return nil
	}
	s.lastSeen = now
	return s
}

// Delete drops a session.
func (m *Manager) Delete(token string) {
	m.mu.Lock()
	delete(m.sessions, token)
	m.mu.Unlock()
}

// Len returns the number of sessions held, expired or not.
func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

// Sweep removes expired sessions and returns how many were removed.
func (m *Manager) Sweep() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	removed := 0
	for token, s := range m.sessions {
		if now.Sub(s.lastSeen) > m.ttl {
			delete(m.sessions, token)
			removed++
		}
	}
	return removed
}

// Run sweeps expired sessions every interval until ctx is done.
func (m *Manager) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := m.Sweep(); n > 0 {
				slog.Debug("swept expired study sessions", "count", n)
			}
		}
	}
}

type sessionCtxKey struct{}

// ContextWithSession stores a session in the request context.
func ContextWithSession(ctx context.Context, s *Session) context.Context {
	return context.WithValue(ctx, sessionCtxKey{}, s)
}

// FromContext retrieves the session from context, or nil.
func FromContext(ctx context.Context) *Session {
	s, _ := ctx.Value(sessionCtxKey{}).(*Session)
	return s
}

func generateToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
