// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package ai

import (
	"errors"
	"strings"
	"time"
)

// Config holds configuration for AI service providers.
type Config struct {
	// EmbeddingHost is the base URL for the text embedding service API.
	// Example: "http://localhost:11434/v1" for local OpenAI-compatible server
	EmbeddingHost string

	// ChatHost is the base URL for the chat completion service used for
	// translation and categorization.
	// Example: "http://localhost:11434/v1" for local OpenAI-compatible server
	ChatHost string

	// VisionHost is the base URL of the image inference server that serves
	// image embeddings and object detection.
	// Example: "http://localhost:8001"
	VisionHost string

	// EmbeddingModel is the model identifier to use for text embeddings.
	// It must share its vector space with the vision server's image model.
	// Example: "clip-vit-b-32"
	EmbeddingModel string

	// ChatModel is the model identifier to use for translation and categorization.
	// Example: "qwen2.5:3b", "gpt-4o-mini"
	ChatModel string

	// APIKey is sent as the bearer token to OpenAI-compatible services.
	// Local servers ignore it.
	APIKey string

	// Translate enables the translated query variant for non-English text.
	Translate bool

	// Categorize enables category suggestions for uploads without a category.
	Categorize bool

	// Detect enables object detection on upload.
	Detect bool

	// VisionRequestsPerSecond limits calls to the vision server. Zero disables limiting.
	VisionRequestsPerSecond float64

	// RequestTimeout bounds a single call to the vision server.
	RequestTimeout time.Duration
}

// ConfigOption is a functional option for configuring a Config.
type ConfigOption func(*Config)

// WithEmbeddingHost sets the embedding service host URL.
func WithEmbeddingHost(host string) ConfigOption {
	return func(c *Config) {
		c.EmbeddingHost = host
	}
}

// WithChatHost sets the chat service host URL.
func WithChatHost(host string) ConfigOption {
	return func(c *Config) {
		c.ChatHost = host
	}
}

// WithHost sets both embedding and chat hosts to the same URL.
func WithHost(host string) ConfigOption {
	return func(c *Config) {
		c.EmbeddingHost = host
		c.ChatHost = host
	}
}

// WithVisionHost sets the image inference server URL.
func WithVisionHost(host string) ConfigOption {
	return func(c *Config) {
		c.VisionHost = host
	}
}

// WithEmbeddingModel sets the embedding model identifier.
func WithEmbeddingModel(model string) ConfigOption {
	return func(c *Config) {
		c.EmbeddingModel = model
	}
}

// WithChatModel sets the chat model identifier.
func WithChatModel(model string) ConfigOption {
	return func(c *Config) {
		c.ChatModel = model
	}
}

// WithAPIKey sets the bearer token for OpenAI-compatible services.
func WithAPIKey(key string) ConfigOption {
	return func(c *Config) {
		c.APIKey = key
	}
}

// WithTranslation enables or disables query translation.
func WithTranslation(enabled bool) ConfigOption {
	return func(c *Config) {
		c.Translate = enabled
	}
}

// WithCategorization enables or disables category suggestions.
func WithCategorization(enabled bool) ConfigOption {
	return func(c *Config) {
		c.Categorize = enabled
	}
}

// WithDetection enables or disables object detection on upload.
func WithDetection(enabled bool) ConfigOption {
	return func(c *Config) {
		c.Detect = enabled
	}
}

// WithVisionRateLimit sets the maximum vision server requests per second.
func WithVisionRateLimit(rps float64) ConfigOption {
	return func(c *Config) {
		c.VisionRequestsPerSecond = rps
	}
}

// WithRequestTimeout sets the per-request timeout for the vision server.
func WithRequestTimeout(d time.Duration) ConfigOption {
	return func(c *Config) {
		c.RequestTimeout = d
	}
}

// DefaultConfig returns a Config with sensible defaults for local services.
// By default, embedding and chat use the same host.
func DefaultConfig() *Config {
	defaultHost := "http://localhost:11434/v1"
	return &Config{
		EmbeddingHost:           defaultHost,
		ChatHost:                defaultHost,
		VisionHost:              "http://localhost:8001",
		EmbeddingModel:          "clip-vit-b-32",
		ChatModel:               "qwen2.5:3b",
		APIKey:                  "none",
		Translate:               true,
		Categorize:              true,
		Detect:                  true,
		VisionRequestsPerSecond: 10,
		RequestTimeout:          30 * time.Second,
	}
}

// NewConfig creates a Config with the default values and applies the provided options.
//
// Example:
//
//	cfg := NewConfig(
//	    WithHost("http://localhost:11434/v1"),
//	    WithVisionHost("http://vision:8001"),
//	    WithTranslation(false),
//	)
func NewConfig(opts ...ConfigOption) *Config {
	cfg := DefaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}
	return cfg
}

// Normalize ensures the configuration is in a canonical form.
// It adds the /v1 suffix to OpenAI-compatible hosts if missing and strips a
// trailing slash from the vision host.
func (c *Config) Normalize() {
	c.EmbeddingHost = withV1(c.EmbeddingHost)
	c.ChatHost = withV1(c.ChatHost)
	c.VisionHost = strings.TrimSuffix(c.VisionHost, "/")
	if c.APIKey == "" {
		c.APIKey = "none"
	}
}

func withV1(host string) string {
	if host == "" || strings.HasSuffix(host, "/v1") {
		return host
	}
	// Remove trailing slash if present before adding /v1
	return strings.TrimSuffix(host, "/") + "/v1"
}

// Validate checks that the configuration is valid and complete.
// It automatically normalizes the configuration before validation.
func (c *Config) Validate() error {
	// Normalize first to ensure hosts are in correct format
	c.Normalize()

	if c.EmbeddingHost == "" {
		return errors.New("ai config: EmbeddingHost is required")
	}
	if c.EmbeddingModel == "" {
		return errors.New("ai config: EmbeddingModel is required")
	}
	if c.VisionHost == "" {
		return errors.New("ai config: VisionHost is required")
	}
	if (c.Translate || c.Categorize) && c.ChatHost == "" {
		return errors.New("ai config: ChatHost is required for translation and categorization")
	}
	if (c.Translate || c.Categorize) && c.ChatModel == "" {
		return errors.New("ai config: ChatModel is required for translation and categorization")
	}
	if c.VisionRequestsPerSecond < 0 {
		return errors.New("ai config: VisionRequestsPerSecond cannot be negative")
	}
	if c.RequestTimeout <= 0 {
		return errors.New("ai config: RequestTimeout must be positive")
	}
	return nil
}
