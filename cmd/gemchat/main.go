package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"gemchat/internal/adapters/llm"
	"gemchat/internal/adapters/mcpclient"
	"gemchat/internal/app/chat"
	"gemchat/internal/config"
	"gemchat/internal/domain"
	"gemchat/internal/errclass"
	"gemchat/internal/observability"
	"gemchat/internal/tui"
)

func main() {
	root := newRootCmd()
	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var (
		provider  string
		model     string
		mcpConfig string
		mcpServer string
		logLevel  string
		logFile   string
	)

	cmd := &cobra.Command{
		Use:   "gemchat",
		Short: "Terminal chat client for Gemini, Claude and OpenAI models",
		Long: `gemchat is a terminal chat client that talks to an AI provider and can
augment prompts with context and tools served over the Model Context Protocol.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			applyEnvOverride("GEMCHAT_PROVIDER", provider)
			applyEnvOverride("GEMCHAT_MODEL", model)
			applyEnvOverride("MCP_CONFIG_PATH", mcpConfig)
			applyEnvOverride("MCP_SERVER", mcpServer)
			applyEnvOverride("GEMCHAT_LOG_LEVEL", logLevel)
			applyEnvOverride("GEMCHAT_LOG_FILE", logFile)
			return run(cmd.Context())
		},
	}

	cmd.Flags().StringVar(&provider, "provider", "", "AI provider (gemini, anthropic, openai)")
	cmd.Flags().StringVar(&model, "model", "", "model name override")
	cmd.Flags().StringVar(&mcpConfig, "mcp-config", "", "path to the MCP server config file")
	cmd.Flags().StringVar(&mcpServer, "mcp-server", "", "name of the MCP server to use")
	cmd.Flags().StringVar(&logLevel, "log-level", "", "log level (debug, info, warn, error)")
	cmd.Flags().StringVar(&logFile, "log-file", "", "log file path")
	return cmd
}

func applyEnvOverride(key, value string) {
	if value != "" {
		os.Setenv(key, value)
	}
}

func run(ctx context.Context) error {
	cfg, err := config.Load()
	if err != nil {
		return reportFatal(err)
	}

	log, closeLog, err := observability.New(observability.Options{
		Level: cfg.LogLevel,
		File:  cfg.LogFile,
	})
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		return err
	}
	defer closeLog()

	client, err := llm.New(ctx, cfg)
	if err != nil {
		log.Error("provider init failed", "error", err)
		return reportFatal(err)
	}

	app := chat.New(cfg, log, client, contextSource(cfg, log))
	if err := app.Start(ctx); err != nil {
		log.Error("startup failed", "error", err)
		return reportFatal(err)
	}
	defer app.Shutdown()

	program := tea.NewProgram(tui.New(app, cfg.Model), tea.WithAltScreen())
	if _, err := program.Run(); err != nil {
		log.Error("terminal program failed", "error", err)
		return err
	}

	// A terminal failure quits the alt screen first so the message stays
	// visible in the scrollback.
	if failure := app.TerminalFailure(); failure != nil {
		fmt.Fprintln(os.Stderr, "Error:", failure.UserMessage)
		return fmt.Errorf("%s", failure.LogMessage)
	}
	return nil
}

// contextSource returns a bare nil when no server is configured so the
// application sees a nil interface, not a typed nil pointer.
func contextSource(cfg *config.AppConfig, log *slog.Logger) domain.ContextSource {
	if !cfg.HasMCPConfig() {
		return nil
	}
	return mcpclient.NewSession(cfg.MCPServer, log)
}

func reportFatal(err error) error {
	outcome := errclass.Classify(err, errclass.OriginConversation)
	fmt.Fprintln(os.Stderr, "Error:", outcome.UserMessage)
	return err
}
