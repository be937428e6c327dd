package session

import (
	"sync"

	"github.com/google/uuid"
	"github.com/tailored-agentic-units/statekit/core/protocol"
	"github.com/tailored-agentic-units/statekit/record"
)

type memorySession struct {
	id     string
	record record.Complex
	mu     sync.RWMutex
}

// NewMemorySession creates a Session held in process memory.
// The session is assigned a unique UUIDv7 identifier.
func NewMemorySession() Session {
	return &memorySession{
		id:     uuid.Must(uuid.NewV7()).String(),
		record: record.NewComplex(0),
	}
}

func (s *memorySession) ID() string {
	return s.id
}

func (s *memorySession) AddMessage(msg protocol.Message) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.record.Messages = append(s.record.Messages, msg)
}

func (s *memorySession) Messages() []protocol.Message {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.record.Clone().Messages
}

func (s *memorySession) Record() record.Complex {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.record.Clone()
}

func (s *memorySession) Replace(r record.Complex) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.record = r.Clone()
}

func (s *memorySession) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.record = record.NewComplex(0)
}
