package llm

import (
	"context"
	"fmt"
	"sync"

	"gemchat/internal/domain"
)

// MockLLM is a scripted LLMClient for tests and local development.
type MockLLM struct {
	mu sync.Mutex

	// Reply is returned when Replies is exhausted or empty.
	Reply string
	// Replies are returned in order, one per call.
	Replies []string
	// Err, when set, is returned from every call instead of a reply.
	Err error

	// Prompts records every prompt received, in call order.
	Prompts []string
}

func NewMockLLM() *MockLLM {
	return &MockLLM{Reply: "I hear you. Tell me a bit more about that."}
}

func (m *MockLLM) GenerateReply(
	_ context.Context,
	prompt string,
	_ domain.ConversationContext,
) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.Prompts = append(m.Prompts, prompt)

	if m.Err != nil {
		return "", m.Err
	}
	if len(m.Replies) > 0 {
		reply := m.Replies[0]
		m.Replies = m.Replies[1:]
		return reply, nil
	}
	if m.Reply != "" {
		return m.Reply, nil
	}
	return fmt.Sprintf("echo: %s", prompt), nil
}

// Calls reports how many prompts the mock has received.
func (m *MockLLM) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Prompts)
}
