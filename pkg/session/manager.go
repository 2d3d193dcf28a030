package session

import (
	"sync"

	"github.com/pcscout-dev/pcscout/pkg/model"
)

// Manager owns the per-session conversation histories. Sessions are
// created lazily on first use and live for the process lifetime.
// Histories are append-only; windowing never drops messages from the
// full log, only from the view handed to inference.
type Manager struct {
	mu       sync.RWMutex
	sessions map[model.SessionID]*Session
}

// Session is one conversation log. The run mutex serializes agent
// loop steps for the session; the state mutex guards the log itself.
type Session struct {
	id model.SessionID

	runMu sync.Mutex

	mu       sync.RWMutex
	messages []model.Message
}

// NewManager creates an empty session manager
func NewManager() *Manager {
	return &Manager{
		sessions: make(map[model.SessionID]*Session),
	}
}

// Get returns the session for the given id, creating it when absent
func (m *Manager) Get(id model.SessionID) *Session {
	m.mu.RLock()
	s, ok := m.sessions[id]
	m.mu.RUnlock()
	if ok {
		return s
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if s, ok := m.sessions[id]; ok {
		return s
	}
	s = &Session{id: id}
	m.sessions[id] = s
	return s
}

// Append adds a message to the session's full history
func (m *Manager) Append(id model.SessionID, msg model.Message) {
	m.Get(id).Append(msg)
}

// Window returns the bounded view of the session history
func (m *Manager) Window(id model.SessionID, max int) []model.Message {
	return m.Get(id).Window(max)
}

// ID returns the session identifier
func (s *Session) ID() model.SessionID {
	return s.id
}

// Run executes fn under the session's run lock. No two loop steps for
// the same session execute concurrently; other sessions are
// unaffected.
func (s *Session) Run(fn func() error) error {
	s.runMu.Lock()
	defer s.runMu.Unlock()
	return fn()
}

// Append adds a message to the full history
func (s *Session) Append(msg model.Message) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.messages = append(s.messages, msg)
}

// Len returns the number of messages in the full history
func (s *Session) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.messages)
}

// History returns a copy of the full history
func (s *Session) History() []model.Message {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]model.Message, len(s.messages))
	copy(out, s.messages)
	return out
}

// Since returns the messages appended after ordinal position n
func (s *Session) Since(n int) []model.Message {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if n < 0 {
		n = 0
	}
	if n >= len(s.messages) {
		return nil
	}
	out := make([]model.Message, len(s.messages)-n)
	copy(out, s.messages[n:])
	return out
}
