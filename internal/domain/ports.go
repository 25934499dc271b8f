package domain

import "context"

// LLMClient defines how the core application interacts with a generative
// AI backend. Adapters must return a *llm.Error (or an error unwrapping to
// one) so failures stay discriminable for classification.
type LLMClient interface {
	GenerateReply(ctx context.Context, prompt string, convCtx ConversationContext) (string, error)
}

// ToolInfo describes one tool advertised by the context service.
type ToolInfo struct {
	Name        string
	Description string
}

// ToolResult is the rendered outcome of a tool invocation.
type ToolResult struct {
	Text    string
	IsError bool
}

// ContextSource is the optional context-service connection. Connect,
// FetchContext, Disconnect and IsConnected follow the fail-soft contract:
// they never propagate collaborator failures. ListTools and CallTool
// return errors, but callers are expected to degrade rather than fail a
// turn on them.
type ContextSource interface {
	Connect(ctx context.Context) bool
	FetchContext(ctx context.Context) (string, bool)
	ListTools(ctx context.Context) ([]ToolInfo, error)
	CallTool(ctx context.Context, name string, args map[string]any) (ToolResult, error)
	Disconnect()
	IsConnected() bool
}
