package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"
)

type Provider string

const (
	ProviderGemini    Provider = "gemini"
	ProviderAnthropic Provider = "anthropic"
	ProviderOpenAI    Provider = "openai"
)

// ValidationError reports a configuration value that is missing or malformed.
// It is the only error type Load returns, so start-up code can fold every
// configuration failure into the missing_configuration category.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("config %s: %s", e.Field, e.Message)
}

// MCPServerSettings is one server entry from mcp.json. Exactly one of the
// stdio fields (Command/Args/Env) or the network fields (URL/Headers and
// timeouts) is populated, depending on Transport.
type MCPServerSettings struct {
	Name      string
	Transport string // "stdio" or "sse"

	Command string
	Args    []string
	Env     map[string]string

	URL         string
	Headers     map[string]string
	Timeout     time.Duration
	ReadTimeout time.Duration
}

// AppConfig is immutable after Load and shared by value reference with
// every component.
type AppConfig struct {
	Provider          Provider
	APIKey            string
	Model             string
	SystemInstruction string

	LogLevel string
	LogFile  string

	// MCPServer is nil when no context service is configured. Absence is
	// not an error: the conversation path runs without context.
	MCPServer *MCPServerSettings
}

// HasMCPConfig reports whether a context service endpoint is configured.
func (c *AppConfig) HasMCPConfig() bool {
	return c.MCPServer != nil
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func defaultModel(p Provider) string {
	switch p {
	case ProviderAnthropic:
		return "claude-sonnet-4-20250514"
	case ProviderOpenAI:
		return "gpt-4o-mini"
	default:
		return "gemini-2.5-flash"
	}
}

func apiKeyVar(p Provider) string {
	switch p {
	case ProviderAnthropic:
		return "ANTHROPIC_API_KEY"
	case ProviderOpenAI:
		return "OPENAI_API_KEY"
	default:
		return "GEMINI_API_KEY"
	}
}

// Load reads env vars and the optional mcp.json and builds the config.
// The API key for the selected provider is the only mandatory value.
func Load() (*AppConfig, error) {
	provider, err := parseProvider(getEnv("GEMCHAT_PROVIDER", string(ProviderGemini)))
	if err != nil {
		return nil, err
	}

	keyVar := apiKeyVar(provider)
	apiKey := strings.TrimSpace(os.Getenv(keyVar))
	if apiKey == "" {
		return nil, &ValidationError{
			Field:   keyVar,
			Message: "required configuration value is missing",
		}
	}

	mcpServer, err := loadMCPSettings()
	if err != nil {
		return nil, err
	}

	return &AppConfig{
		Provider:          provider,
		APIKey:            apiKey,
		Model:             getEnv("GEMCHAT_MODEL", defaultModel(provider)),
		SystemInstruction: os.Getenv("GEMCHAT_SYSTEM_INSTRUCTION"),
		LogLevel:          getEnv("GEMCHAT_LOG_LEVEL", "info"),
		LogFile:           getEnv("GEMCHAT_LOG_FILE", "gemchat.log"),
		MCPServer:         mcpServer,
	}, nil
}

func parseProvider(raw string) (Provider, error) {
	switch Provider(strings.ToLower(strings.TrimSpace(raw))) {
	case ProviderGemini:
		return ProviderGemini, nil
	case ProviderAnthropic:
		return ProviderAnthropic, nil
	case ProviderOpenAI:
		return ProviderOpenAI, nil
	default:
		return "", &ValidationError{
			Field:   "GEMCHAT_PROVIDER",
			Message: fmt.Sprintf("unknown provider %q (want gemini, anthropic or openai)", raw),
		}
	}
}

// mcpFile mirrors the layout of mcp.json.
type mcpFile struct {
	MCPServers    map[string]mcpServerDef `json:"mcpServers"`
	DefaultServer string                  `json:"defaultServer"`
}

type mcpServerDef struct {
	Transport string            `json:"transport"`
	Command   string            `json:"command"`
	Args      []string          `json:"args"`
	Env       map[string]string `json:"env"`
	URL       string            `json:"url"`
	Headers   map[string]string `json:"headers"`
	Timeout   float64           `json:"timeout"`     // seconds
	ReadTO    float64           `json:"readTimeout"` // seconds
}

// loadMCPSettings reads mcp.json (path overridable via MCP_CONFIG_PATH) and
// selects one server: MCP_SERVER env first, then the file's defaultServer,
// then the only/first entry. A missing file or empty mcpServers map means
// the context service is simply not in use.
func loadMCPSettings() (*MCPServerSettings, error) {
	path := getEnv("MCP_CONFIG_PATH", "mcp.json")

	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, &ValidationError{Field: path, Message: err.Error()}
	}

	var file mcpFile
	if err := json.Unmarshal(raw, &file); err != nil {
		return nil, &ValidationError{
			Field:   path,
			Message: fmt.Sprintf("invalid JSON: %v", err),
		}
	}
	if len(file.MCPServers) == 0 {
		return nil, nil
	}

	name := os.Getenv("MCP_SERVER")
	if name == "" {
		name = file.DefaultServer
	}
	if name != "" {
		if _, ok := file.MCPServers[name]; !ok {
			return nil, &ValidationError{
				Field:   "mcpServers",
				Message: fmt.Sprintf("selected MCP server %q is not defined", name),
			}
		}
	} else {
		for n := range file.MCPServers {
			if name == "" || n < name {
				name = n
			}
		}
	}

	def := file.MCPServers[name]
	return buildServerSettings(name, def)
}

func buildServerSettings(name string, def mcpServerDef) (*MCPServerSettings, error) {
	transport := strings.ToLower(strings.TrimSpace(def.Transport))
	if transport == "" {
		switch {
		case def.Command != "":
			transport = "stdio"
		case def.URL != "":
			transport = "sse"
		}
	}

	switch transport {
	case "stdio":
		if strings.TrimSpace(def.Command) == "" {
			return nil, &ValidationError{
				Field:   fmt.Sprintf("mcpServers.%s.command", name),
				Message: "stdio servers require a command",
			}
		}
		return &MCPServerSettings{
			Name:      name,
			Transport: "stdio",
			Command:   def.Command,
			Args:      def.Args,
			Env:       def.Env,
		}, nil

	case "sse":
		if strings.TrimSpace(def.URL) == "" {
			return nil, &ValidationError{
				Field:   fmt.Sprintf("mcpServers.%s.url", name),
				Message: "sse servers require a url",
			}
		}
		return &MCPServerSettings{
			Name:        name,
			Transport:   "sse",
			URL:         def.URL,
			Headers:     def.Headers,
			Timeout:     secondsToDuration(def.Timeout),
			ReadTimeout: secondsToDuration(def.ReadTO),
		}, nil

	default:
		return nil, &ValidationError{
			Field:   fmt.Sprintf("mcpServers.%s.transport", name),
			Message: "transport must be \"stdio\" or \"sse\"",
		}
	}
}

func secondsToDuration(s float64) time.Duration {
	if s <= 0 {
		return 0
	}
	return time.Duration(s * float64(time.Second))
}
