package openai

import (
	"context"
	"strings"

	"github.com/poiesic/lostfound/ai"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"
)

// newChatModel creates a langchaingo model for the configured chat server.
func newChatModel(config *ai.Config) (llms.Model, error) {
	return openai.New(
		openai.WithBaseURL(config.ChatHost),
		openai.WithToken(config.APIKey),
		openai.WithModel(config.ChatModel),
	)
}

// complete sends a system and user message and returns the first choice,
// trimmed. An answer with no choices yields an empty string.
func complete(ctx context.Context, model llms.Model, system, user string, opts ...llms.CallOption) (string, error) {
	content := []llms.MessageContent{
		llms.TextParts(llms.ChatMessageTypeSystem, system),
		llms.TextParts(llms.ChatMessageTypeHuman, user),
	}

	opts = append([]llms.CallOption{llms.WithTemperature(0.0)}, opts...)
	response, err := model.GenerateContent(ctx, content, opts...)
	if err != nil {
		return "", err
	}
	if len(response.Choices) < 1 {
		return "", nil
	}
	return strings.TrimSpace(response.Choices[0].Content), nil
}
