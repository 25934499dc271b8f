// Package chat is the application layer: it sequences a user turn across
// the optional context service and the mandatory conversation path, and
// routes every failure through classification to a recoverable-or-fatal
// outcome.
package chat

import (
	"context"
	"log/slog"

	"gemchat/internal/app/conversation"
	"gemchat/internal/config"
	"gemchat/internal/domain"
	"gemchat/internal/errclass"
)

type ResultKind int

const (
	ResultDisplayed ResultKind = iota
	ResultFailed
)

// TurnResult is the outcome of one user turn. Exactly one of Text and
// Failure is meaningful, selected by Kind. Terminal tells the host to end
// the session after surfacing the failure; the core never exits itself.
type TurnResult struct {
	Kind     ResultKind
	Text     string
	Failure  *errclass.Outcome
	Terminal bool
}

// App drives turns end-to-end. At most one turn is in flight at a time;
// the UI serializes submissions.
type App struct {
	cfg *config.AppConfig
	log *slog.Logger

	conv *conversation.Session
	// ctxSource is nil when no context service is configured. Absence
	// means "no context", never an error.
	ctxSource domain.ContextSource

	toolInventory   []domain.ToolInfo
	startupWarning  string
	terminalFailure *errclass.Outcome
}

// New wires the application. llmClient is mandatory; ctxSource may be nil.
func New(cfg *config.AppConfig, log *slog.Logger, llmClient domain.LLMClient, ctxSource domain.ContextSource) *App {
	return &App{
		cfg:       cfg,
		log:       log,
		conv:      conversation.NewSession(llmClient, cfg.SystemInstruction, log),
		ctxSource: ctxSource,
	}
}

/// Start runs the start-up sequence: the mandatory path must be ready
// before the optional one is attempted, and a context-service failure is
// never fatal.
func (a *App) Start(ctx context.Context) error {
	a.log.Info("starting application",
		"provider", a.cfg.Provider,
		"model", a.cfg.Model,
		"mcp_configured", a.ctxSource != nil)

	if a.cfg.APIKey == "" {
		// Load already rejects this; kept as the orchestrator's own
		// precondition so Start never runs a turn without a key.
		return &config.ValidationError{Field: "api key", Message: "required configuration value is missing"}
	}

	if a.ctxSource == nil {
		a.log.Info("no context service configured")
		return nil
	}

	if !a.ctxSource.Connect(ctx) {
		a.startupWarning = "Context service is unavailable. Continuing without extra context."
		a.log.Warn("context service connect failed at start-up (continuing)")
		return nil
	}

	tools, err := a.ctxSource.ListTools(ctx)
	if err != nil {
		out := errclass.Classify(err, errclass.OriginContext)
		a.log.Warn("tool listing failed (continuing)", "detail", out.LogMessage)
	} else {
		a.toolInventory = tools
		a.log.Info("context service tools loaded", "count", len(tools))
	}

	a.log.Info("application started")
	return nil
}

// HandleTurn runs one user turn: best-effort context fetch, optional
// tool-assisted flow, then the conversation send. Failures on the
// conversation path are classified here, the single classification point.
func (a *App) HandleTurn(ctx context.Context, text string) TurnResult {
	contextText := ""
	if a.ctxSource != nil && a.ctxSource.IsConnected() {
		if c, ok := a.ctxSource.FetchContext(ctx); ok {
			contextText = c
		}

		if answer, ok := a.tryToolTurn(ctx, text); ok {
			a.conv.RecordTurn(text, answer)
			return TurnResult{Kind: ResultDisplayed, Text: answer}
		}
	}

	reply, err := a.conv.Send(ctx, text, contextText)
	if err != nil {
		out := errclass.Classify(err, errclass.OriginConversation)
		a.log.Error("turn failed",
			"category", out.Category,
			"recoverable", out.Recoverable,
			"detail", out.LogMessage)

		if !out.Recoverable {
			a.terminalFailure = &out
		}
		return TurnResult{Kind: ResultFailed, Failure: &out, Terminal: !out.Recoverable}
	}

	return TurnResult{Kind: ResultDisplayed, Text: reply}
}

// Shutdown releases collaborators: the optional one first, so a stuck
// context service cannot be masked by tearing down the path still serving
// the user. Safe to call with no turn in flight, and more than once.
func (a *App) Shutdown() {
	a.log.Info("shutting down")

	if a.ctxSource != nil {
		a.ctxSource.Disconnect()
	}

	// The conversation session holds no external resources beyond process
	// memory; it goes second by contract.
	a.log.Info("shutdown complete")
}

// Reset clears the conversation history.
func (a *App) Reset() { a.conv.Reset() }

// History exposes the conversation snapshot for rendering.
func (a *App) History() []domain.Message { return a.conv.History() }

// ContextConnected reports the indicator state for the UI.
func (a *App) ContextConnected() bool {
	return a.ctxSource != nil && a.ctxSource.IsConnected()
}

// StartupWarning returns the one-time context-service warning, empty when
// start-up was clean.
func (a *App) StartupWarning() string { return a.startupWarning }

// TerminalFailure returns the non-recoverable outcome that ended the
// session, if any.
func (a *App) TerminalFailure() *errclass.Outcome { return a.terminalFailure }
