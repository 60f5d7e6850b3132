package chatapi

import (
	"context"
	"sync"

	"techticks-chat/internal/domain"
)

// MockClient permite tests sin backend real.
// Si ChatFunc está definido tiene prioridad sobre Reply/Err.
type MockClient struct {
	Reply    domain.ChatReply
	Err      error
	ChatFunc func(ctx context.Context, req domain.ChatRequest) (domain.ChatReply, error)

	mu       sync.Mutex
	requests []domain.ChatRequest
}

func (m *MockClient) Chat(ctx context.Context, req domain.ChatRequest) (domain.ChatReply, error) {
	m.mu.Lock()
	m.requests = append(m.requests, req)
	fn := m.ChatFunc
	m.mu.Unlock()
	if fn != nil {
		return fn(ctx, req)
	}
	return m.Reply, m.Err
}

// Requests devuelve las peticiones recibidas hasta ahora.
func (m *MockClient) Requests() []domain.ChatRequest {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]domain.ChatRequest, len(m.requests))
	copy(out, m.requests)
	return out
}
