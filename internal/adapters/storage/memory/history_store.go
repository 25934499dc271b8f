// Package memory holds the in-process stores. Nothing here survives the
// process: conversation history is in-memory only.
package memory

import (
	"sync"

	"gemchat/internal/domain"
)

// HistoryStore is an append-only ordered message log.
type HistoryStore struct {
	mu       sync.RWMutex
	messages []domain.Message
}

func NewHistoryStore() *HistoryStore {
	return &HistoryStore{}
}

func (s *HistoryStore) Append(msg domain.Message) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.messages = append(s.messages, msg)
}

// Snapshot returns a copy of the log, oldest first.
func (s *HistoryStore) Snapshot() []domain.Message {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.Message, len(s.messages))
	copy(out, s.messages)
	return out
}

func (s *HistoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return len(s.messages)
}

// Last returns the most recent message, if any.
func (s *HistoryStore) Last() (domain.Message, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if len(s.messages) == 0 {
		return domain.Message{}, false
	}
	return s.messages[len(s.messages)-1], true
}

func (s *HistoryStore) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.messages = nil
}
