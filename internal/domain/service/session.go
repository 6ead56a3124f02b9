package service

import (
	"sync"

	"hue-bus-bridge/internal/ports"
)

// Session serializes every bridge interaction. A sync cycle or a command
// batch holds it for its whole duration.
type Session struct {
	mu     sync.Mutex
	client ports.BridgeClient
}

func NewSession(client ports.BridgeClient) *Session {
	return &Session{client: client}
}

func (s *Session) Do(fn func(c ports.BridgeClient) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn(s.client)
}
