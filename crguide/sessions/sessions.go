// Package sessions owns the per-browser state: the sign-in gate and, once signed in, the conversation.
package sessions

import (
	"errors"
	"sync"
	"time"

	"crguide/crguide/conversation"
	"crguide/crguide/services/assistant"
	"crguide/crguide/services/auth"
	"crguide/crguide/services/chat"
	"crguide/crguide/utils/logging"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

var ErrNotLoggedIn = errors.New("not logged in")

type Options struct {
	Greeting      string
	Asker         assistant.Asker
	NewGate       func() *auth.Gate
	RatePerMinute int
	TTL           time.Duration
	Now           func() time.Time
}

type Session struct {
	ID        string
	Gate      *auth.Gate
	Limiter   *rate.Limiter
	CreatedAt time.Time

	greeting string
	asker    assistant.Asker
	now      func() time.Time

	mu     sync.Mutex
	store  *conversation.Store
	sender *chat.SendController
}

// Conversation returns the session's chat, starting it on first use after sign-in.
func (s *Session) Conversation() (*conversation.Store, *chat.SendController, error) {
	if !s.Gate.LoggedIn() {
		return nil, nil, ErrNotLoggedIn
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.store == nil {
		s.store = conversation.New(s.greeting, s.now)
		s.sender = chat.NewSendController(s.store, s.asker).
			WithLogger(logging.AppLogger.With(zap.String("session_id", s.ID)))
	}
	return s.store, s.sender, nil
}

// End signs out and throws the conversation away.
func (s *Session) End() {
	s.Gate.Logout()
	s.mu.Lock()
	s.store = nil
	s.sender = nil
	s.mu.Unlock()
}

type Manager struct {
	opts Options

	mu       sync.RWMutex
	sessions map[string]*Session
}

func NewManager(opts Options) *Manager {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.TTL <= 0 {
		opts.TTL = 24 * time.Hour
	}
	return &Manager{opts: opts, sessions: make(map[string]*Session)}
}

func (m *Manager) TTL() time.Duration { return m.opts.TTL }

func (m *Manager) Create() *Session {
	limit := rate.Inf
	burst := 0
	if m.opts.RatePerMinute > 0 {
		limit = rate.Every(time.Minute / time.Duration(m.opts.RatePerMinute))
		burst = m.opts.RatePerMinute
	}
	s := &Session{
		ID:        uuid.NewString(),
		Gate:      m.opts.NewGate(),
		Limiter:   rate.NewLimiter(limit, burst),
		CreatedAt: m.opts.Now(),
		greeting:  m.opts.Greeting,
		asker:     m.opts.Asker,
		now:       m.opts.Now,
	}
	m.mu.Lock()
	m.sessions[s.ID] = s
	m.mu.Unlock()
	return s
}

func (m *Manager) Get(id string) (*Session, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sessions[id]
	return s, ok
}

func (m *Manager) Delete(id string) {
	m.mu.Lock()
	s, ok := m.sessions[id]
	delete(m.sessions, id)
	m.mu.Unlock()
	if ok {
		s.End()
	}
}

func (m *Manager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// Sweep drops sessions older than the TTL and returns how many went.
func (m *Manager) Sweep() int {
	cutoff := m.opts.Now().Add(-m.opts.TTL)
	var expired []*Session
	m.mu.Lock()
	for id, s := range m.sessions {
		if s.CreatedAt.Before(cutoff) {
			expired = append(expired, s)
			delete(m.sessions, id)
		}
	}
	m.mu.Unlock()
	for _, s := range expired {
		s.End()
	}
	return len(expired)
}
