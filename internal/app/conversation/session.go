// Package conversation owns the mandatory AI backend path and the
// conversation history for the process lifetime.
package conversation

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"gemchat/internal/adapters/storage/memory"
	"gemchat/internal/domain"
)

// Session drives the mandatory conversation path. History is owned
// exclusively by the session; nothing else mutates it.
type Session struct {
	llm     domain.LLMClient
	history *memory.HistoryStore
	system  string
	now     func() time.Time
	log     *slog.Logger
}

func NewSession(llm domain.LLMClient, systemInstruction string, log *slog.Logger) *Session {
	return &Session{
		llm:     llm,
		history: memory.NewHistoryStore(),
		system:  systemInstruction,
		now:     time.Now,
		log:     log,
	}
}

// Send issues one turn against the backend. The user message is appended
// to history before the call, so history reflects intent even when the
// call fails; the model message is appended only on success. Backend
// failures propagate raw: classification happens at the orchestrator.
func (s *Session) Send(ctx context.Context, text string, contextText string) (string, error) {
	if text == "" {
		return "", fmt.Errorf("empty user message")
	}

	// History snapshot before this turn; the current message travels in
	// the prompt, not in the history slice.
	prior := s.history.Snapshot()

	userMsg := s.newMessage(domain.RoleUser, text)
	s.history.Append(userMsg)

	prompt := injectContext(contextText, text)

	s.log.Debug("sending message", "chars", len(text), "with_context", contextText != "")

	reply, err := s.llm.GenerateReply(ctx, prompt, domain.ConversationContext{
		System:  s.system,
		History: prior,
	})
	if err != nil {
		return "", err
	}

	s.history.Append(s.newMessage(domain.RoleModel, reply))

	s.log.Debug("received reply", "chars", len(reply))
	return reply, nil
}

// Generate runs a one-shot prompt against the backend without touching
// history. The tool-plan flow uses it for intermediate prompts.
func (s *Session) Generate(ctx context.Context, prompt string) (string, error) {
	return s.llm.GenerateReply(ctx, prompt, domain.ConversationContext{System: s.system})
}

// RecordTurn appends a completed user/model pair to history. Tool-assisted
// turns produce their final text outside Send and use this to keep the
// history alternating.
func (s *Session) RecordTurn(userText, modelText string) {
	s.history.Append(s.newMessage(domain.RoleUser, userText))
	s.history.Append(s.newMessage(domain.RoleModel, modelText))
}

// History returns a read-only snapshot of the conversation, oldest first.
func (s *Session) History() []domain.Message {
	return s.history.Snapshot()
}

// Reset clears history. The backend connection is unaffected.
func (s *Session) Reset() {
	s.history.Reset()
	s.log.Info("conversation history reset")
}

// newMessage stamps a message with a timestamp that never goes backwards
// relative to the last entry.
func (s *Session) newMessage(role domain.Role, content string) domain.Message {
	ts := s.now()
	if last, ok := s.history.Last(); ok && ts.Before(last.CreatedAt) {
		ts = last.CreatedAt
	}
	return domain.Message{
		ID:        domain.MessageID(uuid.NewString()),
		Role:      role,
		Content:   content,
		CreatedAt: ts,
	}
}
