package chat

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gemchat/internal/adapters/llm"
	"gemchat/internal/config"
	"gemchat/internal/domain"
	"gemchat/internal/errclass"
	"gemchat/internal/observability"
)

// fakeContextSource is a scripted domain.ContextSource.
type fakeContextSource struct {
	connectOK   bool
	connected   bool
	contextText string
	fetchOK     bool

	tools    []domain.ToolInfo
	toolsErr error

	callResult domain.ToolResult
	callErr    error
	calledTool string
	calledArgs map[string]any

	fetchCalls  int
	disconnects int

	// events records the order of collaborator calls.
	events []string
}

func (f *fakeContextSource) Connect(context.Context) bool {
	f.events = append(f.events, "connect")
	f.connected = f.connectOK
	return f.connectOK
}

func (f *fakeContextSource) FetchContext(context.Context) (string, bool) {
	f.events = append(f.events, "fetch")
	f.fetchCalls++
	if !f.connected || !f.fetchOK {
		return "", false
	}
	return f.contextText, true
}

func (f *fakeContextSource) ListTools(context.Context) ([]domain.ToolInfo, error) {
	f.events = append(f.events, "list_tools")
	return f.tools, f.toolsErr
}

func (f *fakeContextSource) CallTool(_ context.Context, name string, args map[string]any) (domain.ToolResult, error) {
	f.events = append(f.events, "call_tool")
	f.calledTool = name
	f.calledArgs = args
	return f.callResult, f.callErr
}

func (f *fakeContextSource) Disconnect() {
	f.events = append(f.events, "disconnect")
	f.disconnects++
	f.connected = false
}

func (f *fakeContextSource) IsConnected() bool { return f.connected }

func testConfig() *config.AppConfig {
	return &config.AppConfig{
		Provider: config.ProviderGemini,
		APIKey:   "test-key",
		Model:    "gemini-2.5-flash",
	}
}

// Scenario A: no context endpoint configured. Start-up completes, the
// indicator reads disconnected, and a turn goes through with no context.
func TestTurnWithoutContextService(t *testing.T) {
	mock := llm.NewMockLLM()
	mock.Reply = "backend response"
	app := New(testConfig(), observability.Discard(), mock, nil)

	require.NoError(t, app.Start(context.Background()))
	assert.False(t, app.ContextConnected())
	assert.Empty(t, app.StartupWarning())

	res := app.HandleTurn(context.Background(), "hello")
	assert.Equal(t, ResultDisplayed, res.Kind)
	assert.Equal(t, "backend response", res.Text)

	// No context was injected: the backend saw the raw text.
	require.Len(t, mock.Prompts, 1)
	assert.Equal(t, "hello", mock.Prompts[0])
}

// Scenario B: endpoint present but connect fails. Start-up is still
// successful, with a one-time warning, and turns work without context.
func TestStartupSurvivesConnectFailure(t *testing.T) {
	mock := llm.NewMockLLM()
	src := &fakeContextSource{connectOK: false}
	app := New(testConfig(), observability.Discard(), mock, src)

	require.NoError(t, app.Start(context.Background()))
	assert.False(t, app.ContextConnected())
	assert.NotEmpty(t, app.StartupWarning())

	res := app.HandleTurn(context.Background(), "hello")
	assert.Equal(t, ResultDisplayed, res.Kind)
	// No fetch was attempted against a dead session.
	assert.Zero(t, src.fetchCalls)
}

// Scenario C: rate-limit failure is recoverable; the user message stays in
// history and the next turn is accepted.
func TestRateLimitFailureIsRecoverable(t *testing.T) {
	mock := llm.NewMockLLM()
	mock.Err = &llm.Error{Provider: "gemini", StatusCode: 429, Err: errors.New("quota")}
	app := New(testConfig(), observability.Discard(), mock, nil)
	require.NoError(t, app.Start(context.Background()))

	res := app.HandleTurn(context.Background(), "hello")
	require.Equal(t, ResultFailed, res.Kind)
	require.NotNil(t, res.Failure)
	assert.Equal(t, errclass.CategoryRateLimit, res.Failure.Category)
	assert.True(t, res.Failure.Recoverable)
	assert.False(t, res.Terminal)
	assert.Nil(t, app.TerminalFailure())

	hist := app.History()
	require.Len(t, hist, 1)
	assert.Equal(t, domain.RoleUser, hist[0].Role)

	// The process stays ready for the next turn.
	mock.Err = nil
	mock.Reply = "recovered"
	res = app.HandleTurn(context.Background(), "again")
	assert.Equal(t, ResultDisplayed, res.Kind)
	assert.Equal(t, "recovered", res.Text)
}

// Scenario D: auth failure is terminal.
func TestAuthFailureIsTerminal(t *testing.T) {
	mock := llm.NewMockLLM()
	mock.Err = &llm.Error{Provider: "gemini", StatusCode: 401, Err: errors.New("bad key")}
	app := New(testConfig(), observability.Discard(), mock, nil)
	require.NoError(t, app.Start(context.Background()))

	res := app.HandleTurn(context.Background(), "hello")
	require.Equal(t, ResultFailed, res.Kind)
	assert.Equal(t, errclass.CategoryAuth, res.Failure.Category)
	assert.False(t, res.Failure.Recoverable)
	assert.True(t, res.Terminal)

	require.NotNil(t, app.TerminalFailure())
	assert.Equal(t, errclass.CategoryAuth, app.TerminalFailure().Category)
}

// Scenario E: a missing key never reaches a turn.
func TestStartRejectsMissingKey(t *testing.T) {
	cfg := testConfig()
	cfg.APIKey = ""
	app := New(cfg, observability.Discard(), llm.NewMockLLM(), nil)

	err := app.Start(context.Background())
	require.Error(t, err)

	out := errclass.Classify(err, errclass.OriginStartup)
	assert.Equal(t, errclass.CategoryMissingConfig, out.Category)
	assert.False(t, out.Recoverable)
}

func TestContextInjectedIntoTurn(t *testing.T) {
	mock := llm.NewMockLLM()
	src := &fakeContextSource{connectOK: true, fetchOK: true, contextText: "Resource: notes (file:///n)"}
	app := New(testConfig(), observability.Discard(), mock, src)
	require.NoError(t, app.Start(context.Background()))
	require.True(t, app.ContextConnected())

	res := app.HandleTurn(context.Background(), "question")
	require.Equal(t, ResultDisplayed, res.Kind)

	require.Len(t, mock.Prompts, 1)
	assert.Equal(t, "[Context]\nResource: notes (file:///n)\n\n[User Message]\nquestion", mock.Prompts[0])
}

// The context fetch always completes before the AI call within a turn.
func TestFetchOrderedBeforeBackendCall(t *testing.T) {
	src := &fakeContextSource{connectOK: true, fetchOK: true, contextText: "ctx"}
	var fetchesAtCall []int
	client := &orderRecordingLLM{onCall: func() { fetchesAtCall = append(fetchesAtCall, src.fetchCalls) }}
	app := New(testConfig(), observability.Discard(), client, src)
	require.NoError(t, app.Start(context.Background()))

	app.HandleTurn(context.Background(), "question")
	app.HandleTurn(context.Background(), "another")

	// Each AI call happened after that turn's fetch had completed.
	require.Equal(t, []int{1, 2}, fetchesAtCall)
}

func TestFetchFailureDegradesToNoContext(t *testing.T) {
	mock := llm.NewMockLLM()
	src := &fakeContextSource{connectOK: true, fetchOK: false}
	app := New(testConfig(), observability.Discard(), mock, src)
	require.NoError(t, app.Start(context.Background()))

	res := app.HandleTurn(context.Background(), "question")
	assert.Equal(t, ResultDisplayed, res.Kind)

	require.Len(t, mock.Prompts, 1)
	assert.Equal(t, "question", mock.Prompts[0])
}

func TestShutdownDisconnectsOptionalFirstAndAlways(t *testing.T) {
	src := &fakeContextSource{connectOK: false}
	app := New(testConfig(), observability.Discard(), llm.NewMockLLM(), src)
	require.NoError(t, app.Start(context.Background()))

	// Disconnect runs unconditionally, whatever state the session is in,
	// and is safe to repeat.
	app.Shutdown()
	app.Shutdown()
	assert.Equal(t, 2, src.disconnects)
}

func TestToolListingFailureIsNonFatal(t *testing.T) {
	mock := llm.NewMockLLM()
	src := &fakeContextSource{connectOK: true, fetchOK: true, toolsErr: errors.New("listing broke")}
	app := New(testConfig(), observability.Discard(), mock, src)

	require.NoError(t, app.Start(context.Background()))
	assert.True(t, app.ContextConnected())

	res := app.HandleTurn(context.Background(), "question")
	assert.Equal(t, ResultDisplayed, res.Kind)
}

func TestResetClearsHistory(t *testing.T) {
	mock := llm.NewMockLLM()
	app := New(testConfig(), observability.Discard(), mock, nil)
	require.NoError(t, app.Start(context.Background()))

	app.HandleTurn(context.Background(), "hello")
	require.NotEmpty(t, app.History())

	app.Reset()
	assert.Empty(t, app.History())
}

type orderRecordingLLM struct {
	onCall func()
}

func (o *orderRecordingLLM) GenerateReply(
	_ context.Context,
	_ string,
	_ domain.ConversationContext,
) (string, error) {
	if o.onCall != nil {
		o.onCall()
	}
	return "ok", nil
}
