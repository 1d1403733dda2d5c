package openai

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/poiesic/lostfound/ai"
	"github.com/tmc/langchaingo/llms"
)

// Translator implements ai.Translator with a chat completion model.
type Translator struct {
	client llms.Model
	logger *slog.Logger
}

// newTranslator is an internal constructor that returns the concrete type.
func newTranslator(config *ai.Config) (*Translator, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	client, err := newChatModel(config)
	if err != nil {
		return nil, err
	}
	return newTranslatorWithModel(client), nil
}

func newTranslatorWithModel(client llms.Model) *Translator {
	return &Translator{
		client: client,
		logger: slog.Default().With("component", "openai-translator"),
	}
}

// NewTranslator creates a new translator using the provided configuration.
//
// Returns ai.Translator interface to enforce abstraction.
func NewTranslator(config *ai.Config) (ai.Translator, error) {
	return newTranslator(config)
}

// Translate renders text in English. Surrounding quotes and trailing
// punctuation are removed from the model's answer.
func (t *Translator) Translate(ctx context.Context, text string) (string, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return "", nil
	}

	answer, err := complete(ctx, t.client, translationPrompt, text)
	if err != nil {
		t.logger.Error("failed to translate", "err", err)
		return "", err
	}

	answer = trimTrailingPunct(stripQuotes(firstLine(answer)))
	if answer == "" {
		return "", fmt.Errorf("%w: empty translation", ai.ErrMalformedResponse)
	}

	t.logger.Debug("translated query", "from", text, "to", answer)
	return answer, nil
}
