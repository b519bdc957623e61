package store

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// Memory is an in-memory store, used by tests and the --no-db mode.
type Memory struct {
	mu    sync.RWMutex
	docs  map[string]string
	turns map[string][]Turn
}

// NewMemory creates an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{
		docs:  make(map[string]string),
		turns: make(map[string][]Turn),
	}
}

// SaveDocument stores a document body under name.
func (m *Memory) SaveDocument(name, body string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.docs[name] = body
	return nil
}

// Document retrieves a document body.
func (m *Memory) Document(name string) (string, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	body, ok := m.docs[name]
	return body, ok, nil
}

// Documents lists stored document names.
func (m *Memory) Documents() ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	names := make([]string, 0, len(m.docs))
	for name := range m.docs {
		names = append(names, name)
	}
	return names, nil
}

// DeleteDocument removes a document.
func (m *Memory) DeleteDocument(name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.docs, name)
	return nil
}

// AppendTurn appends a message to a conversation.
func (m *Memory) AppendTurn(conversationID, role, content string) (Turn, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	turn := Turn{
		ID:             uuid.NewString(),
		ConversationID: conversationID,
		Role:           role,
		Content:        content,
		CreatedAt:      time.Now().UTC(),
	}
	m.turns[conversationID] = append(m.turns[conversationID], turn)
	return turn, nil
}

// Turns returns a conversation's messages in insertion order.
func (m *Memory) Turns(conversationID string) ([]Turn, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	turns := m.turns[conversationID]
	out := make([]Turn, len(turns))
	copy(out, turns)
	return out, nil
}

// Close is a no-op for the memory store.
func (m *Memory) Close() error {
	return nil
}
