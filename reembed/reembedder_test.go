package reembed

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/poiesic/lostfound/ai/mock"
	"github.com/poiesic/lostfound/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewReembedder(t *testing.T) {
	repo, _ := setupTestDB(t)
	provider := mock.NewMockProvider()

	t.Run("defaults", func(t *testing.T) {
		r, err := NewReembedder(repo, provider, nil, nil)
		require.NoError(t, err)
		defer r.Release()
		assert.Equal(t, DefaultBatchSize, r.iterator.batchSize)
		assert.True(t, r.config.Text)
		assert.True(t, r.config.Image)
	})

	t.Run("nil repository", func(t *testing.T) {
		_, err := NewReembedder(nil, provider, nil, nil)
		assert.ErrorIs(t, err, ErrItemRepositoryRequired)
	})

	t.Run("nil provider", func(t *testing.T) {
		_, err := NewReembedder(repo, nil, nil, nil)
		assert.ErrorIs(t, err, ErrAIProviderRequired)
	})

	t.Run("nothing selected", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.Text, cfg.Image = false, false
		_, err := NewReembedder(repo, provider, cfg, nil)
		assert.ErrorIs(t, err, ErrNothingToEmbed)
	})
}

func TestReembedder_Run(t *testing.T) {
	repo, _ := setupTestDB(t)
	seedItems(t, repo, 10)
	ctx := context.Background()

	var buf bytes.Buffer
	cfg := testConfig()
	cfg.BatchSize = 3
	cfg.ReportInterval = 3

	r, err := NewReembedder(repo, mock.NewMockProvider(), cfg, &buf)
	require.NoError(t, err)
	defer r.Release()

	stats, err := r.Run(ctx)
	require.NoError(t, err)
	assert.Equal(t, 10, stats.Total)
	assert.Equal(t, 10, stats.Scanned)
	assert.Equal(t, 10, stats.TextEmbedded)
	assert.Equal(t, 10, stats.ImageEmbedded)
	assert.Zero(t, stats.Skipped)

	for _, item := range allItems(t, repo) {
		assert.True(t, item.HasEmbeddings(), "item %d should have embeddings", item.Id)
	}

	out := buf.String()
	assert.Contains(t, out, "Starting reembedding of 10 items (batch size: 3)")
	assert.Contains(t, out, "Progress: 10/10 (100.0%)")
	assert.Contains(t, out, "Reembedding complete. Scanned 10 items")

	// A second run finds nothing missing.
	stats, err = r.Run(ctx)
	require.NoError(t, err)
	assert.Equal(t, 10, stats.Skipped)
	assert.Zero(t, stats.TextEmbedded)
}

func TestReembedder_EmptyDatabase(t *testing.T) {
	repo, _ := setupTestDB(t)

	var buf bytes.Buffer
	r, err := NewReembedder(repo, mock.NewMockProvider(), testConfig(), &buf)
	require.NoError(t, err)
	defer r.Release()

	stats, err := r.Run(context.Background())
	require.NoError(t, err)
	assert.Zero(t, stats.Total)
	assert.Contains(t, buf.String(), "No items found")
}

func TestReembedder_ResumesFromCheckpoint(t *testing.T) {
	repo, checkpoints := setupTestDB(t)
	seeded := seedItems(t, repo, 6)
	ctx := context.Background()

	provider := mock.NewMockProvider().(*mock.MockProvider)
	cfg := testConfig()
	cfg.BatchSize = 2
	cfg.Image = false
	cfg.Force = true
	cfg.MaxRetries = 1

	// Fail on the second batch.
	calls := 0
	provider.GetMockEmbedder().EmbedTextsFunc = func(ctx context.Context, texts []string) ([][]float32, error) {
		calls++
		if calls == 2 {
			return nil, errors.New("embedding server restarted")
		}
		vecs := make([][]float32, len(texts))
		for i := range vecs {
			vecs[i] = []float32{float32(calls)}
		}
		return vecs, nil
	}

	r, err := NewReembedder(repo, provider, cfg, nil, WithCheckpoints(checkpoints))
	require.NoError(t, err)
	defer r.Release()

	stats, err := r.Run(ctx)
	require.Error(t, err)
	assert.Equal(t, 2, stats.Scanned)

	cp, err := checkpoints.LoadCheckpoint(ctx, CheckpointName)
	require.NoError(t, err)
	require.NotNil(t, cp)
	assert.Equal(t, seeded[1].Id, cp.LastID)
	assert.Equal(t, int64(2), cp.Processed)

	stats, err = r.Run(ctx)
	require.NoError(t, err)
	assert.Equal(t, 4, stats.Scanned)
	assert.Equal(t, 4, stats.TextEmbedded)

	stored := allItems(t, repo)
	assert.Equal(t, []float32{1}, stored[0].TextEmbedding, "first batch is not redone")
	assert.Equal(t, []float32{1}, stored[1].TextEmbedding)
	for _, item := range stored[2:] {
		assert.NotEqual(t, []float32{1}, item.TextEmbedding)
		assert.NotNil(t, item.TextEmbedding)
	}

	cp, err = checkpoints.LoadCheckpoint(ctx, CheckpointName)
	require.NoError(t, err)
	assert.Nil(t, cp, "checkpoint is removed after a complete run")
}

func TestReembedder_ContextCancellation(t *testing.T) {
	repo, _ := setupTestDB(t)
	seedItems(t, repo, 10)

	provider := mock.NewMockProvider().(*mock.MockProvider)
	ctx, cancel := context.WithCancel(context.Background())
	provider.GetMockEmbedder().EmbedTextsFunc = func(c context.Context, texts []string) ([][]float32, error) {
		cancel()
		return nil, c.Err()
	}

	cfg := testConfig()
	cfg.BatchSize = 2
	r, err := NewReembedder(repo, provider, cfg, nil)
	require.NoError(t, err)
	defer r.Release()

	_, err = r.Run(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestReembedder_ItemsWithoutEmbeddingsBecomeSearchable(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	repo, checkpoints := setupTestDB(t)
	ctx := context.Background()

	items := make([]*core.Item, 50)
	for i := range items {
		items[i] = &core.Item{
			Title:      "Red backpack",
			Type:       core.ItemTypeLost,
			Category:   "bag",
			Original:   pngImage,
			InsertedAt: time.Now().Add(-time.Duration(i) * time.Minute),
		}
	}
	_, err := repo.AddItems(ctx, items...)
	require.NoError(t, err)

	cfg := testConfig()
	cfg.BatchSize = 7
	cfg.Normalize = true
	r, err := NewReembedder(repo, mock.NewMockProvider(), cfg, nil, WithCheckpoints(checkpoints))
	require.NoError(t, err)
	defer r.Release()

	stats, err := r.Run(ctx)
	require.NoError(t, err)
	assert.Equal(t, 50, stats.Scanned)

	for _, item := range allItems(t, repo) {
		require.True(t, item.HasEmbeddings())
		var sum float64
		for _, v := range item.TextEmbedding {
			sum += float64(v) * float64(v)
		}
		assert.InDelta(t, 1.0, sum, 1e-4)
	}
}
