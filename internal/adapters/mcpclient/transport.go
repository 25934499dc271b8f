package mcpclient

import (
	"net/http"
	"os"
	"os/exec"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"gemchat/internal/config"
)

// buildTransport maps the configured endpoint to an SDK transport: a child
// process over stdio, or an SSE stream over HTTP.
func buildTransport(cfg *config.MCPServerSettings) mcp.Transport {
	if cfg == nil {
		return &mcp.CommandTransport{Command: exec.Command("false")}
	}

	if cfg.Transport == "sse" {
		client := &http.Client{}
		if len(cfg.Headers) > 0 {
			client.Transport = &headerRoundTripper{
				headers: cfg.Headers,
				base:    http.DefaultTransport,
			}
		}
		return &mcp.SSEClientTransport{
			Endpoint:   cfg.URL,
			HTTPClient: client,
		}
	}

	cmd := exec.Command(cfg.Command, cfg.Args...)
	if len(cfg.Env) > 0 {
		cmd.Env = os.Environ()
		for k, v := range cfg.Env {
			cmd.Env = append(cmd.Env, k+"="+v)
		}
	}
	return &mcp.CommandTransport{Command: cmd}
}

// headerRoundTripper injects the configured headers into every request to
// the SSE endpoint (e.g. Authorization).
type headerRoundTripper struct {
	headers map[string]string
	base    http.RoundTripper
}

func (rt *headerRoundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	clone := req.Clone(req.Context())
	for k, v := range rt.headers {
		clone.Header.Set(k, v)
	}
	return rt.base.RoundTrip(clone)
}
