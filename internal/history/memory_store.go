// In file: internal/history/memory_store.go
package history

import (
	"context"
	"sync"
)

// MemoryStore keeps sessions in process memory. It is safe for concurrent use
// and is meant for local development and tests.
type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[string][]Message
	policy   WindowPolicy
}

var _ Store = (*MemoryStore)(nil)

// NewMemoryStore returns an empty store. An empty policy means WindowRecent.
func NewMemoryStore(policy WindowPolicy) *MemoryStore {
	if policy == "" {
		policy = WindowRecent
	}
	return &MemoryStore{
		sessions: make(map[string][]Message),
		policy:   policy,
	}
}

// Get returns a copy of the session, registering it on first access.
func (m *MemoryStore) Get(_ context.Context, sessionID string) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	msgs, ok := m.sessions[sessionID]
	if !ok {
		msgs = []Message{}
		m.sessions[sessionID] = msgs
	}
	return &Session{ID: sessionID, Messages: append([]Message{}, msgs...)}, nil
}

func (m *MemoryStore) AppendUser(_ context.Context, sessionID, text string) error {
	m.append(sessionID, newMessage(RoleUser, text))
	return nil
}

func (m *MemoryStore) AppendAssistant(_ context.Context, sessionID, text string) error {
	m.append(sessionID, newMessage(RoleAssistant, text))
	return nil
}

// AppendTurn appends both messages under one lock.
func (m *MemoryStore) AppendTurn(_ context.Context, sessionID, query, answer string) error {
	m.append(sessionID, newMessage(RoleUser, query), newMessage(RoleAssistant, answer))
	return nil
}

func (m *MemoryStore) Window(_ context.Context, sessionID string, limit int) ([]Message, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return applyWindow(m.sessions[sessionID], limit, m.policy), nil
}

func (m *MemoryStore) append(sessionID string, msgs ...Message) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[sessionID] = append(m.sessions[sessionID], msgs...)
}
