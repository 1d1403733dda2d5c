package ingestion

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/poiesic/lostfound/ai"
	"github.com/poiesic/lostfound/ai/mock"
	"github.com/poiesic/lostfound/core"
	"github.com/poiesic/lostfound/storage"
	"github.com/poiesic/lostfound/storage/badger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var pngBytes = []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n', 0, 0, 0, 0x0d, 'I', 'H', 'D', 'R'}

type testEnv struct {
	items    storage.ItemRepository
	users    storage.UserRepository
	provider *mock.MockProvider
	owner    *core.User
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	itemRepo, userRepo, backend, err := badger.NewMemoryRepositories()
	require.NoError(t, err)
	t.Cleanup(func() {
		userRepo.Close()
		itemRepo.Close()
		backend.Close()
	})

	owner, err := core.NewUser("alice", "alice@example.com", "password123")
	require.NoError(t, err)
	_, err = userRepo.AddUser(context.Background(), owner)
	require.NoError(t, err)

	return &testEnv{
		items:    itemRepo,
		users:    userRepo,
		provider: mock.NewMockProvider().(*mock.MockProvider),
		owner:    owner,
	}
}

func (e *testEnv) pipeline(t *testing.T, opts ...Option) *Pipeline {
	t.Helper()
	p, err := NewPipeline(e.items, e.users, e.provider, opts...)
	require.NoError(t, err)
	t.Cleanup(p.Release)
	return p
}

func (e *testEnv) request() UploadRequest {
	return UploadRequest{
		Title:   "Black leather wallet",
		Type:    core.ItemTypeFound,
		OwnerID: e.owner.Id,
		Image:   ai.ImageBytes(pngBytes),
	}
}

func TestNewPipeline(t *testing.T) {
	env := newTestEnv(t)

	t.Run("valid configuration", func(t *testing.T) {
		p, err := NewPipeline(env.items, env.users, env.provider)
		require.NoError(t, err)
		defer p.Release()
		assert.Len(t, p.processors, 2)
	})

	t.Run("with options", func(t *testing.T) {
		p, err := NewPipeline(env.items, env.users, env.provider,
			WithPoolSize(1),
			WithEmbedTimeout(time.Second),
			WithLogger(slog.Default()),
		)
		require.NoError(t, err)
		defer p.Release()
		assert.Equal(t, 2, p.pool.Cap())
		assert.Equal(t, time.Second, p.embedTimeout)
	})

	t.Run("invalid timeout", func(t *testing.T) {
		_, err := NewPipeline(env.items, env.users, env.provider, WithEmbedTimeout(0))
		assert.Error(t, err)
	})

	t.Run("nil item repository", func(t *testing.T) {
		_, err := NewPipeline(nil, env.users, env.provider)
		assert.Equal(t, ErrItemRepositoryRequired, err)
	})

	t.Run("nil user repository", func(t *testing.T) {
		_, err := NewPipeline(env.items, nil, env.provider)
		assert.Equal(t, ErrUserRepositoryRequired, err)
	})

	t.Run("nil provider", func(t *testing.T) {
		_, err := NewPipeline(env.items, env.users, nil)
		assert.Equal(t, ErrAIProviderRequired, err)
	})
}

func TestUpload(t *testing.T) {
	env := newTestEnv(t)
	p := env.pipeline(t)
	ctx := context.Background()

	var embeddedTitle string
	env.provider.GetMockEmbedder().EmbedTextFunc = func(ctx context.Context, text string) ([]float32, error) {
		embeddedTitle = text
		return []float32{1, 0}, nil
	}

	item, err := p.Upload(ctx, env.request())
	require.NoError(t, err)

	assert.NotZero(t, item.Id)
	assert.Equal(t, "Black leather wallet", item.Title)
	assert.Equal(t, "wallet", item.Category)
	assert.Equal(t, env.owner.Id, item.OwnerID)
	assert.Equal(t, "image/png", item.Original.ContentType)
	assert.Equal(t, pngBytes, item.Cropped.Data)
	assert.Equal(t, pngBytes, item.Boxed.Data)
	assert.Equal(t, []float32{1, 0}, item.TextEmbedding)
	assert.Len(t, item.ImageEmbedding, mock.Dimension)
	assert.Equal(t, "black leather wallet", embeddedTitle)
	assert.False(t, item.InsertedAt.IsZero())

	stored, err := env.items.GetItem(ctx, item.Id)
	require.NoError(t, err)
	assert.True(t, stored.HasEmbeddings())
	assert.Equal(t, item.TextEmbedding, stored.TextEmbedding)
	assert.Equal(t, item.ImageEmbedding, stored.ImageEmbedding)
}

func TestUpload_PunctuationOnlyTitle(t *testing.T) {
	env := newTestEnv(t)
	p := env.pipeline(t)

	var embeddedTitle string
	env.provider.GetMockEmbedder().EmbedTextFunc = func(ctx context.Context, text string) ([]float32, error) {
		embeddedTitle = text
		return []float32{1, 0}, nil
	}

	req := env.request()
	req.Title = "  ???  "
	_, err := p.Upload(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, "???", embeddedTitle)
}

func TestUpload_FromPath(t *testing.T) {
	env := newTestEnv(t)
	p := env.pipeline(t)

	path := filepath.Join(t.TempDir(), "keys.png")
	require.NoError(t, os.WriteFile(path, pngBytes, 0o644))

	req := env.request()
	req.Image = ai.ImagePath(path)
	req.Category = "key"

	item, err := p.Upload(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, "key", item.Category)
	assert.Equal(t, 0, env.provider.GetMockCategorizer().CallCount())
}

func TestUpload_DetectorCrops(t *testing.T) {
	env := newTestEnv(t)
	p := env.pipeline(t)

	cropped := core.Image{Data: []byte("cropped"), ContentType: "image/jpeg"}
	boxed := core.Image{Data: []byte("boxed"), ContentType: "image/jpeg"}
	env.provider.GetMockDetector().DetectFunc = func(ctx context.Context, img core.Image) (core.Image, core.Image, error) {
		return cropped, boxed, nil
	}
	var embeddedImage []byte
	env.provider.GetMockImageEmbedder().EmbedImageFunc = func(ctx context.Context, img core.Image) ([]float32, error) {
		embeddedImage = img.Data
		return []float32{0, 1}, nil
	}

	item, err := p.Upload(context.Background(), env.request())
	require.NoError(t, err)
	assert.Equal(t, cropped, item.Cropped)
	assert.Equal(t, boxed, item.Boxed)
	assert.Equal(t, pngBytes, item.Original.Data)
	assert.Equal(t, []byte("cropped"), embeddedImage)
}

func TestUpload_DetectorFailureKeepsOriginal(t *testing.T) {
	env := newTestEnv(t)
	p := env.pipeline(t)
	env.provider.GetMockDetector().DetectFunc = func(ctx context.Context, img core.Image) (core.Image, core.Image, error) {
		return core.Image{}, core.Image{}, errors.New("vision server down")
	}

	item, err := p.Upload(context.Background(), env.request())
	require.NoError(t, err)
	assert.Equal(t, item.Original, item.Cropped)
	assert.Equal(t, item.Original, item.Boxed)
}

func TestUpload_Category(t *testing.T) {
	ctx := context.Background()

	t.Run("categorizer failure falls back to other", func(t *testing.T) {
		env := newTestEnv(t)
		p := env.pipeline(t)
		env.provider.GetMockCategorizer().CategorizeFunc = func(ctx context.Context, title string) (string, error) {
			return "", errors.New("model offline")
		}

		item, err := p.Upload(ctx, env.request())
		require.NoError(t, err)
		assert.Equal(t, ai.CategoryOther, item.Category)
	})

	t.Run("unknown suggestion falls back to other", func(t *testing.T) {
		env := newTestEnv(t)
		p := env.pipeline(t)
		env.provider.GetMockCategorizer().CategorizeFunc = func(ctx context.Context, title string) (string, error) {
			return "spaceship", nil
		}

		item, err := p.Upload(ctx, env.request())
		require.NoError(t, err)
		assert.Equal(t, ai.CategoryOther, item.Category)
	})

	t.Run("no categorizer", func(t *testing.T) {
		env := newTestEnv(t)
		provider := mock.NewMockProviderWithServices(mock.Services{})
		p, err := NewPipeline(env.items, env.users, provider)
		require.NoError(t, err)
		defer p.Release()

		item, err := p.Upload(ctx, env.request())
		require.NoError(t, err)
		assert.Equal(t, ai.CategoryOther, item.Category)
	})
}

func TestUpload_Validation(t *testing.T) {
	env := newTestEnv(t)
	p := env.pipeline(t)
	ctx := context.Background()

	tests := []struct {
		name    string
		mutate  func(*UploadRequest)
		wantErr error
	}{
		{"empty title", func(r *UploadRequest) { r.Title = "  " }, core.ErrEmptyTitle},
		{"bad type", func(r *UploadRequest) { r.Type = "stolen" }, core.ErrInvalidItemType},
		{"no image", func(r *UploadRequest) { r.Image = nil }, ErrMissingImage},
		{"empty image", func(r *UploadRequest) { r.Image = ai.ImageBytes{} }, ai.ErrEmptyImage},
		{"unsupported image", func(r *UploadRequest) { r.Image = ai.ImageBytes("GIF89a....") }, core.ErrUnsupportedImage},
		{"unsupported override", func(r *UploadRequest) { r.ContentType = "image/gif" }, core.ErrUnsupportedImage},
		{"unknown owner", func(r *UploadRequest) { r.OwnerID = core.UserIDFor("mallory") }, ErrUnknownOwner},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := env.request()
			tt.mutate(&req)

			_, err := p.Upload(ctx, req)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}

	count, err := env.items.CountItems(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, count)
}

func TestUpload_UppercaseType(t *testing.T) {
	env := newTestEnv(t)
	p := env.pipeline(t)

	req := env.request()
	req.Type = "LOST"
	item, err := p.Upload(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, core.ItemTypeLost, item.Type)
}

func TestUpload_EmbeddingFailureStoresNothing(t *testing.T) {
	ctx := context.Background()

	t.Run("text", func(t *testing.T) {
		env := newTestEnv(t)
		p := env.pipeline(t)
		env.provider.GetMockEmbedder().EmbedTextFunc = func(ctx context.Context, text string) ([]float32, error) {
			return nil, errors.New("embedding server down")
		}

		_, err := p.Upload(ctx, env.request())
		assert.ErrorIs(t, err, ErrEmbeddingFailed)

		count, err := env.items.CountItems(ctx)
		require.NoError(t, err)
		assert.Equal(t, 0, count)
	})

	t.Run("image returns empty vector", func(t *testing.T) {
		env := newTestEnv(t)
		p := env.pipeline(t)
		env.provider.GetMockImageEmbedder().EmbedImageFunc = func(ctx context.Context, img core.Image) ([]float32, error) {
			return nil, nil
		}

		_, err := p.Upload(ctx, env.request())
		assert.ErrorIs(t, err, ErrEmbeddingFailed)
		assert.ErrorIs(t, err, ai.ErrEmptyEmbedding)

		count, err := env.items.CountItems(ctx)
		require.NoError(t, err)
		assert.Equal(t, 0, count)
	})

	t.Run("timeout", func(t *testing.T) {
		env := newTestEnv(t)
		p := env.pipeline(t, WithEmbedTimeout(20*time.Millisecond))
		env.provider.GetMockImageEmbedder().EmbedImageFunc = func(ctx context.Context, img core.Image) ([]float32, error) {
			<-ctx.Done()
			return nil, ctx.Err()
		}

		_, err := p.Upload(ctx, env.request())
		assert.ErrorIs(t, err, context.DeadlineExceeded)
	})
}

func TestUpload_EmbeddingsRunConcurrently(t *testing.T) {
	env := newTestEnv(t)
	p := env.pipeline(t)

	// Each embedder waits until the other has started
	var started atomic.Int32
	both := make(chan struct{})
	arrive := func() {
		if started.Add(1) == 2 {
			close(both)
		}
	}
	env.provider.GetMockEmbedder().EmbedTextFunc = func(ctx context.Context, text string) ([]float32, error) {
		arrive()
		select {
		case <-both:
			return []float32{1}, nil
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	env.provider.GetMockImageEmbedder().EmbedImageFunc = func(ctx context.Context, img core.Image) ([]float32, error) {
		arrive()
		select {
		case <-both:
			return []float32{1}, nil
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_, err := p.Upload(ctx, env.request())
	require.NoError(t, err)
}
