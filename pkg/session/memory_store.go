package session

import "sync"

// MemoryStore keeps sessions in memory. Used in tests and for one-shot runs.
type MemoryStore struct {
	mu       sync.Mutex
	sessions map[string]Session
	Saves    int
}

// NewMemoryStore creates an empty in-memory store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{sessions: make(map[string]Session)}
}

func (m *MemoryStore) Load(username string) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.sessions[username]
	if !ok {
		return nil, ErrNoSession
	}
	return &s, nil
}

func (m *MemoryStore) Save(s *Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.sessions[s.Username] = *s
	m.Saves++
	return nil
}

func (m *MemoryStore) Clear(username string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.sessions, username)
	return nil
}
