package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/poiesic/lostfound/ai"
	"github.com/poiesic/lostfound/search"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// isolate runs the test in an empty directory so no stray .env is loaded.
func isolate(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Chdir(dir)
	return dir
}

func TestLoad_Defaults(t *testing.T) {
	isolate(t)

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "badger", cfg.Storage.Driver)
	assert.Equal(t, "./lostfound.db", cfg.Storage.Path)
	assert.Equal(t, ":8080", cfg.Server.Addr)
	assert.Equal(t, int64(10<<20), cfg.Server.MaxUploadBytes)
	assert.Equal(t, []string{"*"}, cfg.Server.CORSOrigins)
	assert.Equal(t, search.DefaultTopK, cfg.Search.TopK)
	assert.Equal(t, search.DefaultCandidateLimit, cfg.Search.CandidateLimit)
	assert.Equal(t, search.DefaultEmbedTimeout, cfg.Search.EmbedTimeout)
	assert.Equal(t, slog.LevelInfo, cfg.LogLevel())

	defaults := ai.DefaultConfig()
	got := cfg.AIConfig()
	assert.Equal(t, defaults.EmbeddingHost, got.EmbeddingHost)
	assert.Equal(t, defaults.VisionHost, got.VisionHost)
	assert.Equal(t, defaults.EmbeddingModel, got.EmbeddingModel)
	assert.Equal(t, defaults.RequestTimeout, got.RequestTimeout)
	assert.True(t, got.Translate)
	assert.NoError(t, got.Validate())
}

func TestLoad_Environment(t *testing.T) {
	isolate(t)
	t.Setenv("LOSTFOUND_STORAGE_DRIVER", "Postgres")
	t.Setenv("LOSTFOUND_STORAGE_DSN", "postgres://lf@localhost/lostfound")
	t.Setenv("LOSTFOUND_AI_EMBEDDING_HOST", "http://embed.internal:9000/v1")
	t.Setenv("LOSTFOUND_AI_TRANSLATE", "false")
	t.Setenv("LOSTFOUND_SEARCH_TOP_K", "10")
	t.Setenv("LOSTFOUND_SEARCH_FETCH_TIMEOUT", "2s")
	t.Setenv("LOSTFOUND_LOG_LEVEL", "DEBUG")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "postgres", cfg.Storage.Driver)
	assert.Equal(t, "postgres://lf@localhost/lostfound", cfg.Storage.DSN)
	assert.Equal(t, "http://embed.internal:9000/v1", cfg.AI.EmbeddingHost)
	assert.False(t, cfg.AI.Translate)
	assert.Equal(t, 10, cfg.Search.TopK)
	assert.Equal(t, 2*time.Second, cfg.Search.FetchTimeout)
	assert.Equal(t, slog.LevelDebug, cfg.LogLevel())
}

func TestLoad_File(t *testing.T) {
	dir := isolate(t)
	path := filepath.Join(dir, "lostfound.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
storage:
  path: /var/lib/lostfound
server:
  addr: ":9090"
  cors_origins: ["https://lostfound.example"]
search:
  candidate_limit: 250
ai:
  detect: false
`), 0o644))

	t.Run("file values", func(t *testing.T) {
		cfg, err := Load(path)
		require.NoError(t, err)
		assert.Equal(t, "/var/lib/lostfound", cfg.Storage.Path)
		assert.Equal(t, ":9090", cfg.Server.Addr)
		assert.Equal(t, []string{"https://lostfound.example"}, cfg.Server.CORSOrigins)
		assert.Equal(t, 250, cfg.Search.CandidateLimit)
		assert.False(t, cfg.AI.Detect)
		assert.Equal(t, search.DefaultTopK, cfg.Search.TopK)
	})

	t.Run("environment wins over file", func(t *testing.T) {
		t.Setenv("LOSTFOUND_SERVER_ADDR", ":7070")
		cfg, err := Load(path)
		require.NoError(t, err)
		assert.Equal(t, ":7070", cfg.Server.Addr)
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := Load(filepath.Join(dir, "missing.yaml"))
		assert.Error(t, err)
	})
}

func TestLoad_DotEnv(t *testing.T) {
	dir := isolate(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"),
		[]byte("LOSTFOUND_AI_EMBEDDING_MODEL=multilingual-e5\n"), 0o644))
	t.Cleanup(func() { os.Unsetenv("LOSTFOUND_AI_EMBEDDING_MODEL") })

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "multilingual-e5", cfg.AI.EmbeddingModel)
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value string
	}{
		{"unknown driver", "LOSTFOUND_STORAGE_DRIVER", "sqlite"},
		{"postgres without dsn", "LOSTFOUND_STORAGE_DRIVER", "postgres"},
		{"zero top k", "LOSTFOUND_SEARCH_TOP_K", "0"},
		{"bad log level", "LOSTFOUND_LOG_LEVEL", "verbose"},
		{"bad embedding host", "LOSTFOUND_AI_EMBEDDING_HOST", "not a url"},
		{"negative rate", "LOSTFOUND_AI_VISION_REQUESTS_PER_SECOND", "-1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			isolate(t)
			t.Setenv(tt.key, tt.value)

			_, err := Load("")
			assert.ErrorIs(t, err, ErrInvalidConfig)
		})
	}
}

func TestValidate_ChatSettings(t *testing.T) {
	isolate(t)
	cfg, err := Load("")
	require.NoError(t, err)

	cfg.AI.ChatModel = ""
	assert.ErrorIs(t, cfg.Validate(), ErrInvalidConfig)

	cfg.AI.Translate = false
	cfg.AI.Categorize = false
	assert.NoError(t, cfg.Validate())
}

func TestSearchOptions(t *testing.T) {
	isolate(t)
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Len(t, cfg.SearchOptions(), 4)
}

func TestLogLevel(t *testing.T) {
	for level, want := range map[string]slog.Level{
		"debug": slog.LevelDebug,
		"info":  slog.LevelInfo,
		"warn":  slog.LevelWarn,
		"error": slog.LevelError,
	} {
		cfg := &Config{Log: LogConfig{Level: level}}
		assert.Equal(t, want, cfg.LogLevel(), level)
	}
}
