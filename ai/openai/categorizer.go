package openai

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/poiesic/lostfound/ai"
	"github.com/tmc/langchaingo/llms"
)

// Categorizer implements ai.Categorizer using a chat completion model
// constrained to JSON output.
type Categorizer struct {
	client llms.Model
	logger *slog.Logger
}

type categoryAnswer struct {
	Category string `json:"category"`
}

// maxCategorizeAttempts bounds retries on malformed JSON.
const maxCategorizeAttempts = 3

// newCategorizer is an internal constructor that returns the concrete type.
func newCategorizer(config *ai.Config) (*Categorizer, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	client, err := newChatModel(config)
	if err != nil {
		return nil, err
	}
	return newCategorizerWithModel(client), nil
}

func newCategorizerWithModel(client llms.Model) *Categorizer {
	return &Categorizer{
		client: client,
		logger: slog.Default().With("component", "openai-categorizer"),
	}
}

// NewCategorizer creates a new categorizer using the provided configuration.
//
// Returns ai.Categorizer interface to enforce abstraction.
func NewCategorizer(config *ai.Config) (ai.Categorizer, error) {
	return newCategorizer(config)
}

// Categorize asks the model for the category of an item title.
// Answers outside ai.ItemCategories map to ai.CategoryOther.
func (c *Categorizer) Categorize(ctx context.Context, title string) (string, error) {
	title = scrubString(title)
	if title == "" {
		return ai.CategoryOther, nil
	}

	var answer categoryAnswer
	var lastErr error
	for attempt := 0; attempt < maxCategorizeAttempts; attempt++ {
		response, err := complete(ctx, c.client, buildCategoryPrompt(), title, llms.WithJSONMode())
		if err != nil {
			c.logger.Error("failed to generate content", "attempt", attempt+1, "err", err)
			return "", err
		}
		if response == "" {
			c.logger.Debug("no choices returned from model")
			return ai.CategoryOther, nil
		}

		response = repairJSON(stripCodeFence(response))
		if err := json.Unmarshal([]byte(response), &answer); err != nil {
			lastErr = err
			c.logger.Warn("error parsing categorizer response",
				"attempt", attempt+1,
				"response", response,
				"err", err)
			continue
		}
		lastErr = nil
		break
	}

	if lastErr != nil {
		c.logger.Error("failed to parse categorizer response after retries", "err", lastErr)
		return "", fmt.Errorf("%w: %w", ai.ErrMalformedResponse, lastErr)
	}

	category := strings.ToLower(strings.TrimSpace(answer.Category))
	if !ai.IsItemCategory(category) {
		c.logger.Debug("unknown category, using fallback", "category", category)
		return ai.CategoryOther, nil
	}
	return category, nil
}
