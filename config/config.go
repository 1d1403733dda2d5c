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


package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/poiesic/lostfound/ai"
	"github.com/poiesic/lostfound/search"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment variable read by Load.
const EnvPrefix = "LOSTFOUND"

// ErrInvalidConfig wraps every validation failure.
var ErrInvalidConfig = errors.New("invalid configuration")

// Config is the complete process configuration.
type Config struct {
	Storage StorageConfig `mapstructure:"storage"`
	AI      AIConfig      `mapstructure:"ai"`
	Server  ServerConfig  `mapstructure:"server"`
	Search  SearchConfig  `mapstructure:"search"`
	Log     LogConfig     `mapstructure:"log"`
}

// StorageConfig selects the storage backend.
type StorageConfig struct {
	Driver string `mapstructure:"driver" validate:"oneof=badger postgres"`
	Path   string `mapstructure:"path" validate:"required_if=Driver badger"`
	DSN    string `mapstructure:"dsn" validate:"required_if=Driver postgres"`
}

// AIConfig mirrors ai.Config.
type AIConfig struct {
	EmbeddingHost           string        `mapstructure:"embedding_host" validate:"required,url"`
	ChatHost                string        `mapstructure:"chat_host" validate:"omitempty,url"`
	VisionHost              string        `mapstructure:"vision_host" validate:"required,url"`
	EmbeddingModel          string        `mapstructure:"embedding_model" validate:"required"`
	ChatModel               string        `mapstructure:"chat_model"`
	APIKey                  string        `mapstructure:"api_key"`
	Translate               bool          `mapstructure:"translate"`
	Categorize              bool          `mapstructure:"categorize"`
	Detect                  bool          `mapstructure:"detect"`
	VisionRequestsPerSecond float64       `mapstructure:"vision_requests_per_second" validate:"gte=0"`
	RequestTimeout          time.Duration `mapstructure:"request_timeout" validate:"gt=0"`
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Addr            string        `mapstructure:"addr" validate:"required"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout" validate:"gt=0"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout" validate:"gt=0"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout" validate:"gt=0"`
	MaxUploadBytes  int64         `mapstructure:"max_upload_bytes" validate:"gt=0"`
	CORSOrigins     []string      `mapstructure:"cors_origins"`
}

// SearchConfig tunes the searcher.
type SearchConfig struct {
	TopK           int           `mapstructure:"top_k" validate:"gt=0"`
	CandidateLimit int           `mapstructure:"candidate_limit" validate:"gt=0"`
	EmbedTimeout   time.Duration `mapstructure:"embed_timeout" validate:"gt=0"`
	FetchTimeout   time.Duration `mapstructure:"fetch_timeout" validate:"gt=0"`
}

// LogConfig configures the process logger.
type LogConfig struct {
	Level  string `mapstructure:"level" validate:"oneof=debug info warn error"`
	Format string `mapstructure:"format" validate:"oneof=text json"`
}

func setDefaults(v *viper.Viper) {
	aiDefaults := ai.DefaultConfig()

	v.SetDefault("storage.driver", "badger")
	v.SetDefault("storage.path", "./lostfound.db")
	v.SetDefault("storage.dsn", "")

	v.SetDefault("ai.embedding_host", aiDefaults.EmbeddingHost)
	v.SetDefault("ai.chat_host", aiDefaults.ChatHost)
	v.SetDefault("ai.vision_host", aiDefaults.VisionHost)
	v.SetDefault("ai.embedding_model", aiDefaults.EmbeddingModel)
	v.SetDefault("ai.chat_model", aiDefaults.ChatModel)
	v.SetDefault("ai.api_key", aiDefaults.APIKey)
	v.SetDefault("ai.translate", aiDefaults.Translate)
	v.SetDefault("ai.categorize", aiDefaults.Categorize)
	v.SetDefault("ai.detect", aiDefaults.Detect)
	v.SetDefault("ai.vision_requests_per_second", aiDefaults.VisionRequestsPerSecond)
	v.SetDefault("ai.request_timeout", aiDefaults.RequestTimeout)

	v.SetDefault("server.addr", ":8080")
	v.SetDefault("server.read_timeout", 30*time.Second)
	v.SetDefault("server.write_timeout", 60*time.Second)
	v.SetDefault("server.shutdown_timeout", 5*time.Second)
	v.SetDefault("server.max_upload_bytes", 10<<20)
	v.SetDefault("server.cors_origins", []string{"*"})

	v.SetDefault("search.top_k", search.DefaultTopK)
	v.SetDefault("search.candidate_limit", search.DefaultCandidateLimit)
	v.SetDefault("search.embed_timeout", search.DefaultEmbedTimeout)
	v.SetDefault("search.fetch_timeout", search.DefaultFetchTimeout)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
}

// Load reads the configuration. path names an optional config file; an
// empty path skips it. A .env file in the working directory is loaded into
// the environment first when present.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	cfg.Storage.Driver = strings.ToLower(strings.TrimSpace(cfg.Storage.Driver))
	cfg.Log.Level = strings.ToLower(cfg.Log.Level)
	cfg.Log.Format = strings.ToLower(cfg.Log.Format)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks every section. The first failing field is reported.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			fe := verrs[0]
			return fmt.Errorf("%w: %s failed %q", ErrInvalidConfig, fe.Namespace(), fe.Tag())
		}
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	if (c.AI.Translate || c.AI.Categorize) && (c.AI.ChatHost == "" || c.AI.ChatModel == "") {
		return fmt.Errorf("%w: ai.chat_host and ai.chat_model are required for translation and categorization", ErrInvalidConfig)
	}
	return nil
}

// AIConfig converts the AI section into an ai.Config.
func (c *Config) AIConfig() *ai.Config {
	return &ai.Config{
		EmbeddingHost:           c.AI.EmbeddingHost,
		ChatHost:                c.AI.ChatHost,
		VisionHost:              c.AI.VisionHost,
		EmbeddingModel:          c.AI.EmbeddingModel,
		ChatModel:               c.AI.ChatModel,
		APIKey:                  c.AI.APIKey,
		Translate:               c.AI.Translate,
		Categorize:              c.AI.Categorize,
		Detect:                  c.AI.Detect,
		VisionRequestsPerSecond: c.AI.VisionRequestsPerSecond,
		RequestTimeout:          c.AI.RequestTimeout,
	}
}

// SearchOptions returns searcher options for the search section.
func (c *Config) SearchOptions() []search.Option {
	return []search.Option{
		search.WithTopK(c.Search.TopK),
		search.WithCandidateLimit(c.Search.CandidateLimit),
		search.WithEmbedTimeout(c.Search.EmbedTimeout),
		search.WithFetchTimeout(c.Search.FetchTimeout),
	}
}

// LogLevel parses the configured level.
func (c *Config) LogLevel() slog.Level {
	switch c.Log.Level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
