// Package mcpclient owns the optional connection to an MCP context
// service. Context is advisory: every operation that can fail degrades to
// "no context" instead of raising, so the conversation path completes with
// or without it.
package mcpclient

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"gemchat/internal/config"
	"gemchat/internal/domain"
	"gemchat/internal/errclass"
)

const clientVersion = "0.1.0"

type State string

const (
	StateDisconnected State = "disconnected"
	StateConnecting   State = "connecting"
	StateConnected    State = "connected"
	StateFailed       State = "failed"
)

// Error wraps a tool-path MCP failure. Connect/FetchContext never return
// errors; ListTools and CallTool do, and callers degrade on them.
type Error struct {
	Op  string
	Err error
}

func (e *Error) Error() string { return fmt.Sprintf("mcp %s: %v", e.Op, e.Err) }
func (e *Error) Unwrap() error { return e.Err }

// Session holds the connection handle and its state. A Session is not
// retried after it fails: the orchestrator treats failed/disconnected as
// "no context available".
type Session struct {
	cfg *config.MCPServerSettings
	log *slog.Logger

	// transport overrides the configured endpoint; tests inject an
	// in-memory transport here.
	transport mcp.Transport

	mu      sync.Mutex
	state   State
	session *mcp.ClientSession
}

func NewSession(cfg *config.MCPServerSettings, log *slog.Logger) *Session {
	return &Session{
		cfg:   cfg,
		log:   log,
		state: StateDisconnected,
	}
}

// Connect attempts to establish the endpoint connection. It never lets a
// collaborator failure escape: any underlying error is classified, logged
// and surfaced as false. The state is connected iff the result is true.
func (s *Session) Connect(ctx context.Context) bool {
	s.mu.Lock()
	if s.state == StateConnected {
		s.mu.Unlock()
		return true
	}
	s.state = StateConnecting
	transport := s.transport
	s.mu.Unlock()

	if transport == nil {
		transport = buildTransport(s.cfg)
	}

	if s.cfg != nil && s.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.cfg.Timeout)
		defer cancel()
	}

	client := mcp.NewClient(&mcp.Implementation{Name: "gemchat", Version: clientVersion}, nil)
	sess, err := client.Connect(ctx, transport, nil)
	if err != nil {
		out := errclass.Classify(err, errclass.OriginContext)
		s.log.Warn("context service connect failed",
			"server", s.serverName(),
			"detail", out.LogMessage)

		s.mu.Lock()
		s.state = StateFailed
		s.mu.Unlock()
		return false
	}

	s.mu.Lock()
	s.session = sess
	s.state = StateConnected
	s.mu.Unlock()

	s.log.Info("connected to context service", "server", s.serverName())
	return true
}

// FetchContext returns the context text advertised by the service. When
// the session is not connected it returns absent immediately, without any
// I/O. A live fetch failure logs the classified outcome, moves the session
// to failed and returns absent; it never propagates.
func (s *Session) FetchContext(ctx context.Context) (string, bool) {
	sess, ok := s.liveSession()
	if !ok {
		return "", false
	}

	res, err := sess.ListResources(ctx, &mcp.ListResourcesParams{})
	if err != nil {
		s.fail("fetch context", err)
		return "", false
	}

	if len(res.Resources) == 0 {
		return "No resources available", true
	}

	lines := make([]string, 0, len(res.Resources))
	for _, r := range res.Resources {
		lines = append(lines, fmt.Sprintf("Resource: %s (%s)", r.Name, r.URI))
	}

	s.log.Debug("fetched context", "server", s.serverName(), "resources", len(res.Resources))
	return strings.Join(lines, "\n"), true
}

// ListTools returns the tool inventory advertised by the service.
func (s *Session) ListTools(ctx context.Context) ([]domain.ToolInfo, error) {
	sess, ok := s.liveSession()
	if !ok {
		return nil, &Error{Op: "list tools", Err: fmt.Errorf("not connected")}
	}

	res, err := sess.ListTools(ctx, &mcp.ListToolsParams{})
	if err != nil {
		return nil, &Error{Op: "list tools", Err: err}
	}

	tools := make([]domain.ToolInfo, 0, len(res.Tools))
	for _, t := range res.Tools {
		tools = append(tools, domain.ToolInfo{
			Name:        t.Name,
			Description: t.Description,
		})
	}
	return tools, nil
}

// CallTool invokes one tool and renders its content blocks to text.
func (s *Session) CallTool(ctx context.Context, name string, args map[string]any) (domain.ToolResult, error) {
	sess, ok := s.liveSession()
	if !ok {
		return domain.ToolResult{}, &Error{Op: "call tool", Err: fmt.Errorf("not connected")}
	}

	res, err := sess.CallTool(ctx, &mcp.CallToolParams{Name: name, Arguments: args})
	if err != nil {
		return domain.ToolResult{}, &Error{Op: "call tool " + name, Err: err}
	}

	return domain.ToolResult{
		Text:    renderContent(res.Content),
		IsError: res.IsError,
	}, nil
}

// Disconnect is idempotent: it releases the endpoint resource and always
// leaves the session disconnected, regardless of prior state.
func (s *Session) Disconnect() {
	s.mu.Lock()
	sess := s.session
	s.session = nil
	s.state = StateDisconnected
	s.mu.Unlock()

	if sess != nil {
		if err := sess.Close(); err != nil {
			s.log.Warn("context service close error", "server", s.serverName(), "error", err)
		} else {
			s.log.Info("disconnected from context service", "server", s.serverName())
		}
	}
}

func (s *Session) IsConnected() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state == StateConnected
}

func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *Session) liveSession() (*mcp.ClientSession, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateConnected || s.session == nil {
		return nil, false
	}
	return s.session, true
}

// fail records a live-operation failure: classify, log, close the handle
// and mark the session failed.
func (s *Session) fail(op string, err error) {
	out := errclass.Classify(err, errclass.OriginContext)
	s.log.Warn("context service "+op+" failed",
		"server", s.serverName(),
		"detail", out.LogMessage)

	s.mu.Lock()
	sess := s.session
	s.session = nil
	s.state = StateFailed
	s.mu.Unlock()

	if sess != nil {
		_ = sess.Close()
	}
}

func (s *Session) serverName() string {
	if s.cfg == nil {
		return ""
	}
	return s.cfg.Name
}

func renderContent(blocks []mcp.Content) string {
	var parts []string
	for _, b := range blocks {
		if tc, ok := b.(*mcp.TextContent); ok {
			parts = append(parts, tc.Text)
		}
	}
	return strings.Join(parts, "\n")
}
