package conversation

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"gemchat/internal/adapters/llm"
	"gemchat/internal/domain"
	"gemchat/internal/observability"
)

func TestMain(m *testing.M) {
	// go.opencensus.io (pulled in transitively via google.golang.org/genai)
	// starts a permanent worker goroutine in its package init.
	goleak.VerifyTestMain(m,
		goleak.IgnoreTopFunction("go.opencensus.io/stats/view.(*worker).start"),
	)
}

func newTestSession(mock *llm.MockLLM) *Session {
	return NewSession(mock, "", observability.Discard())
}

func TestSendAppendsUserAndModel(t *testing.T) {
	mock := llm.NewMockLLM()
	mock.Reply = "hi there"
	s := newTestSession(mock)

	reply, err := s.Send(context.Background(), "hello", "")
	require.NoError(t, err)
	assert.Equal(t, "hi there", reply)

	hist := s.History()
	require.Len(t, hist, 2)
	assert.Equal(t, domain.RoleUser, hist[0].Role)
	assert.Equal(t, "hello", hist[0].Content)
	assert.Equal(t, domain.RoleModel, hist[1].Role)
	assert.Equal(t, "hi there", hist[1].Content)
	assert.NotEmpty(t, hist[0].ID)
}

func TestSendKeepsUserMessageOnFailure(t *testing.T) {
	mock := llm.NewMockLLM()
	mock.Err = errors.New("backend down")
	s := newTestSession(mock)

	_, err := s.Send(context.Background(), "hello", "")
	require.Error(t, err)

	// History reflects intent: the user message is there, no model
	// message was appended for the failed turn.
	hist := s.History()
	require.Len(t, hist, 1)
	assert.Equal(t, domain.RoleUser, hist[0].Role)
}

func TestHistoryAlternatesOverTurns(t *testing.T) {
	mock := llm.NewMockLLM()
	s := newTestSession(mock)
	ctx := context.Background()

	const turns = 4
	for i := 0; i < turns; i++ {
		_, err := s.Send(ctx, "message", "")
		require.NoError(t, err)
	}

	hist := s.History()
	require.Len(t, hist, 2*turns)
	for i, m := range hist {
		want := domain.RoleUser
		if i%2 == 1 {
			want = domain.RoleModel
		}
		assert.Equal(t, want, m.Role, "position %d", i)
	}
}

func TestTimestampsMonotonic(t *testing.T) {
	mock := llm.NewMockLLM()
	s := newTestSession(mock)

	// A clock that jumps backwards must not produce a decreasing sequence.
	times := []time.Time{
		time.Unix(100, 0),
		time.Unix(90, 0),
		time.Unix(110, 0),
		time.Unix(105, 0),
	}
	i := 0
	s.now = func() time.Time {
		ts := times[i%len(times)]
		i++
		return ts
	}

	ctx := context.Background()
	_, err := s.Send(ctx, "one", "")
	require.NoError(t, err)
	_, err = s.Send(ctx, "two", "")
	require.NoError(t, err)

	hist := s.History()
	require.Len(t, hist, 4)
	for j := 1; j < len(hist); j++ {
		assert.False(t, hist[j].CreatedAt.Before(hist[j-1].CreatedAt),
			"timestamp at %d went backwards", j)
	}
}

func TestContextInjection(t *testing.T) {
	mock := llm.NewMockLLM()
	s := newTestSession(mock)

	_, err := s.Send(context.Background(), "what changed?", "Resource: notes (file:///notes.txt)")
	require.NoError(t, err)

	require.Len(t, mock.Prompts, 1)
	assert.Equal(t,
		"[Context]\nResource: notes (file:///notes.txt)\n\n[User Message]\nwhat changed?",
		mock.Prompts[0])

	// History stores the user text as typed, not the injected prompt.
	hist := s.History()
	assert.Equal(t, "what changed?", hist[0].Content)
}

func TestSendWithoutContextPassesTextThrough(t *testing.T) {
	mock := llm.NewMockLLM()
	s := newTestSession(mock)

	_, err := s.Send(context.Background(), "plain question", "")
	require.NoError(t, err)

	require.Len(t, mock.Prompts, 1)
	assert.Equal(t, "plain question", mock.Prompts[0])
}

func TestSendRejectsEmptyMessage(t *testing.T) {
	s := newTestSession(llm.NewMockLLM())

	_, err := s.Send(context.Background(), "", "")
	require.Error(t, err)
	assert.Empty(t, s.History())
}

func TestHistoryPassedToBackendExcludesCurrentTurn(t *testing.T) {
	seen := make([][]domain.Message, 0, 2)
	client := &recordingLLM{onCall: func(convCtx domain.ConversationContext) {
		seen = append(seen, convCtx.History)
	}}
	s := NewSession(client, "persona", observability.Discard())
	ctx := context.Background()

	_, err := s.Send(ctx, "first", "")
	require.NoError(t, err)
	_, err = s.Send(ctx, "second", "")
	require.NoError(t, err)

	require.Len(t, seen, 2)
	assert.Empty(t, seen[0])
	require.Len(t, seen[1], 2)
	assert.Equal(t, "first", seen[1][0].Content)
}

func TestRecordTurnKeepsAlternation(t *testing.T) {
	s := newTestSession(llm.NewMockLLM())

	s.RecordTurn("used a tool", "tool-backed answer")

	hist := s.History()
	require.Len(t, hist, 2)
	assert.Equal(t, domain.RoleUser, hist[0].Role)
	assert.Equal(t, domain.RoleModel, hist[1].Role)
}

func TestReset(t *testing.T) {
	mock := llm.NewMockLLM()
	s := newTestSession(mock)

	_, err := s.Send(context.Background(), "hello", "")
	require.NoError(t, err)
	require.NotEmpty(t, s.History())

	s.Reset()
	assert.Empty(t, s.History())
}

type recordingLLM struct {
	onCall func(domain.ConversationContext)
}

func (r *recordingLLM) GenerateReply(
	_ context.Context,
	_ string,
	convCtx domain.ConversationContext,
) (string, error) {
	if r.onCall != nil {
		r.onCall(convCtx)
	}
	return "ok", nil
}
