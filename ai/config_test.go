package ai

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.NotNil(t, cfg)
	assert.Equal(t, "http://localhost:11434/v1", cfg.EmbeddingHost)
	assert.Equal(t, "http://localhost:11434/v1", cfg.ChatHost)
	assert.Equal(t, "http://localhost:8001", cfg.VisionHost)
	assert.Equal(t, "clip-vit-b-32", cfg.EmbeddingModel)
	assert.Equal(t, "qwen2.5:3b", cfg.ChatModel)
	assert.True(t, cfg.Translate)
	assert.Equal(t, 30*time.Second, cfg.RequestTimeout)
	require.NoError(t, cfg.Validate())
}

func TestNewConfig(t *testing.T) {
	t.Run("with no options", func(t *testing.T) {
		cfg := NewConfig()

		assert.NotNil(t, cfg)
		// Should have default values
		assert.Equal(t, "http://localhost:11434/v1", cfg.EmbeddingHost)
		assert.Equal(t, "http://localhost:11434/v1", cfg.ChatHost)
	})

	t.Run("with custom host", func(t *testing.T) {
		cfg := NewConfig(WithHost("http://custom:8080/v1"))

		assert.Equal(t, "http://custom:8080/v1", cfg.EmbeddingHost)
		assert.Equal(t, "http://custom:8080/v1", cfg.ChatHost)
	})

	t.Run("with separate hosts", func(t *testing.T) {
		cfg := NewConfig(
			WithEmbeddingHost("http://embed:8080/v1"),
			WithChatHost("http://chat:9090/v1"),
			WithVisionHost("http://vision:8001"),
		)

		assert.Equal(t, "http://embed:8080/v1", cfg.EmbeddingHost)
		assert.Equal(t, "http://chat:9090/v1", cfg.ChatHost)
		assert.Equal(t, "http://vision:8001", cfg.VisionHost)
	})

	t.Run("with multiple options", func(t *testing.T) {
		cfg := NewConfig(
			WithEmbeddingModel("custom-embed"),
			WithChatModel("custom-chat"),
			WithAPIKey("secret"),
			WithTranslation(false),
			WithCategorization(false),
			WithDetection(false),
			WithVisionRateLimit(2.5),
			WithRequestTimeout(5*time.Second),
		)

		assert.Equal(t, "custom-embed", cfg.EmbeddingModel)
		assert.Equal(t, "custom-chat", cfg.ChatModel)
		assert.Equal(t, "secret", cfg.APIKey)
		assert.False(t, cfg.Translate)
		assert.False(t, cfg.Categorize)
		assert.False(t, cfg.Detect)
		assert.Equal(t, 2.5, cfg.VisionRequestsPerSecond)
		assert.Equal(t, 5*time.Second, cfg.RequestTimeout)
	})
}

func TestConfigNormalize(t *testing.T) {
	tests := []struct {
		name           string
		embeddingHost  string
		chatHost       string
		visionHost     string
		expectedEmbed  string
		expectedChat   string
		expectedVision string
	}{
		{
			name:           "already has /v1",
			embeddingHost:  "http://localhost:11434/v1",
			chatHost:       "http://localhost:11434/v1",
			visionHost:     "http://localhost:8001",
			expectedEmbed:  "http://localhost:11434/v1",
			expectedChat:   "http://localhost:11434/v1",
			expectedVision: "http://localhost:8001",
		},
		{
			name:           "missing /v1",
			embeddingHost:  "http://localhost:11434",
			chatHost:       "http://localhost:11434",
			visionHost:     "http://localhost:8001/",
			expectedEmbed:  "http://localhost:11434/v1",
			expectedChat:   "http://localhost:11434/v1",
			expectedVision: "http://localhost:8001",
		},
		{
			name:          "has trailing slash",
			embeddingHost: "http://localhost:11434/",
			chatHost:      "http://localhost:11434/",
			expectedEmbed: "http://localhost:11434/v1",
			expectedChat:  "http://localhost:11434/v1",
		},
		{
			name: "empty hosts",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &Config{
				EmbeddingHost: tt.embeddingHost,
				ChatHost:      tt.chatHost,
				VisionHost:    tt.visionHost,
			}

			cfg.Normalize()

			assert.Equal(t, tt.expectedEmbed, cfg.EmbeddingHost)
			assert.Equal(t, tt.expectedChat, cfg.ChatHost)
			assert.Equal(t, tt.expectedVision, cfg.VisionHost)
			assert.Equal(t, "none", cfg.APIKey)
		})
	}
}

func TestConfigValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			EmbeddingHost:  "http://localhost:11434",
			ChatHost:       "http://localhost:11434",
			VisionHost:     "http://localhost:8001",
			EmbeddingModel: "clip",
			ChatModel:      "qwen2.5:3b",
			Translate:      true,
			RequestTimeout: time.Second,
		}
	}

	t.Run("valid config", func(t *testing.T) {
		cfg := valid()

		err := cfg.Validate()
		assert.NoError(t, err)

		// Should also normalize
		assert.Equal(t, "http://localhost:11434/v1", cfg.EmbeddingHost)
		assert.Equal(t, "http://localhost:11434/v1", cfg.ChatHost)
	})

	tests := []struct {
		name   string
		mutate func(*Config)
		field  string
	}{
		{"missing embedding host", func(c *Config) { c.EmbeddingHost = "" }, "EmbeddingHost"},
		{"missing embedding model", func(c *Config) { c.EmbeddingModel = "" }, "EmbeddingModel"},
		{"missing vision host", func(c *Config) { c.VisionHost = "" }, "VisionHost"},
		{"missing chat host with translation", func(c *Config) { c.ChatHost = "" }, "ChatHost"},
		{"missing chat model with translation", func(c *Config) { c.ChatModel = "" }, "ChatModel"},
		{"negative rate", func(c *Config) { c.VisionRequestsPerSecond = -1 }, "VisionRequestsPerSecond"},
		{"zero timeout", func(c *Config) { c.RequestTimeout = 0 }, "RequestTimeout"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)

			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.field)
		})
	}

	t.Run("chat settings optional without translation or categorization", func(t *testing.T) {
		cfg := valid()
		cfg.Translate = false
		cfg.Categorize = false
		cfg.ChatHost = ""
		cfg.ChatModel = ""

		assert.NoError(t, cfg.Validate())
	})
}
