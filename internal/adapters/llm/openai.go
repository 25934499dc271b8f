package llm

import (
	"context"
	"fmt"

	openaisdk "github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"gemchat/internal/domain"
)

type OpenAIClient struct {
	client    openaisdk.Client
	modelName string
}

// NewOpenAIClient creates an LLMClient backed by the OpenAI API.
func NewOpenAIClient(apiKey, modelName string) (*OpenAIClient, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("openai api key is required")
	}

	return &OpenAIClient{
		client:    openaisdk.NewClient(option.WithAPIKey(apiKey)),
		modelName: modelName,
	}, nil
}

// GenerateReply implements domain.LLMClient using the OpenAI chat API.
func (o *OpenAIClient) GenerateReply(
	ctx context.Context,
	prompt string,
	convCtx domain.ConversationContext,
) (string, error) {
	var messages []openaisdk.ChatCompletionMessageParamUnion
	if convCtx.System != "" {
		messages = append(messages, openaisdk.SystemMessage(convCtx.System))
	}
	for _, m := range convCtx.History {
		if m.Role == domain.RoleModel {
			messages = append(messages, openaisdk.AssistantMessage(m.Content))
		} else {
			messages = append(messages, openaisdk.UserMessage(m.Content))
		}
	}
	messages = append(messages, openaisdk.UserMessage(prompt))

	resp, err := o.client.Chat.Completions.New(ctx, openaisdk.ChatCompletionNewParams{
		Model:    openaisdk.ChatModel(o.modelName),
		Messages: messages,
	})
	if err != nil {
		return "", wrapError("openai", err)
	}

	if len(resp.Choices) == 0 || resp.Choices[0].Message.Content == "" {
		return "", wrapError("openai", fmt.Errorf("backend returned empty text"))
	}

	return resp.Choices[0].Message.Content, nil
}
