package llm

import (
	"context"
	"fmt"
	"strings"

	anthropicsdk "github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"gemchat/internal/domain"
)

type AnthropicClient struct {
	client    anthropicsdk.Client
	modelName string
}

// NewAnthropicClient creates an LLMClient backed by the Anthropic API.
func NewAnthropicClient(apiKey, modelName string) (*AnthropicClient, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("anthropic api key is required")
	}

	return &AnthropicClient{
		client:    anthropicsdk.NewClient(option.WithAPIKey(apiKey)),
		modelName: modelName,
	}, nil
}

// GenerateReply implements domain.LLMClient using the Anthropic API.
func (a *AnthropicClient) GenerateReply(
	ctx context.Context,
	prompt string,
	convCtx domain.ConversationContext,
) (string, error) {
	var messages []anthropicsdk.MessageParam
	for _, m := range convCtx.History {
		block := anthropicsdk.NewTextBlock(m.Content)
		if m.Role == domain.RoleModel {
			messages = append(messages, anthropicsdk.NewAssistantMessage(block))
		} else {
			messages = append(messages, anthropicsdk.NewUserMessage(block))
		}
	}
	messages = append(messages, anthropicsdk.NewUserMessage(anthropicsdk.NewTextBlock(prompt)))

	params := anthropicsdk.MessageNewParams{
		Model:     anthropicsdk.Model(a.modelName),
		MaxTokens: 2048,
		Messages:  messages,
	}
	if convCtx.System != "" {
		params.System = []anthropicsdk.TextBlockParam{{Text: convCtx.System}}
	}

	msg, err := a.client.Messages.New(ctx, params)
	if err != nil {
		return "", wrapError("anthropic", err)
	}

	var sb strings.Builder
	for _, block := range msg.Content {
		if block.Type == "text" {
			sb.WriteString(block.Text)
		}
	}
	if sb.Len() == 0 {
		return "", wrapError("anthropic", fmt.Errorf("backend returned empty text"))
	}

	return sb.String(), nil
}
