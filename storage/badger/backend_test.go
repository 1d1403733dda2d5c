package badger

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/poiesic/lostfound/core"
	"github.com/poiesic/lostfound/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenBackend_InMemory(t *testing.T) {
	backend, err := OpenBackend("", true)
	require.NoError(t, err)
	require.NotNil(t, backend)
	defer backend.Close()

	assert.False(t, backend.IsClosed())
}

func TestOpenBackend_FileSystem(t *testing.T) {
	tmpDir := filepath.Join(t.TempDir(), "db")
	backend, err := OpenBackend(tmpDir, false)
	require.NoError(t, err)
	require.NotNil(t, backend)
	defer backend.Close()

	assert.False(t, backend.IsClosed())
	assert.DirExists(t, tmpDir)
}

func TestOpenBackend_NotADirectory(t *testing.T) {
	tmpFile := filepath.Join(t.TempDir(), "file.txt")
	require.NoError(t, os.WriteFile(tmpFile, []byte("x"), 0o644))

	backend, err := OpenBackend(tmpFile, false)
	assert.Error(t, err)
	assert.Nil(t, backend)
}

func TestBackendClose(t *testing.T) {
	backend, err := OpenBackend("", true)
	require.NoError(t, err)
	require.NotNil(t, backend)

	assert.False(t, backend.IsClosed())

	err = backend.Close()
	require.NoError(t, err)

	assert.True(t, backend.IsClosed())

	err = backend.WithTransaction(context.Background(), func(ctx context.Context) error {
		return nil
	})
	assert.ErrorIs(t, err, storage.ErrStorageClosed)
}

func TestWithTransaction(t *testing.T) {
	itemRepo, userRepo, backend, err := NewMemoryRepositories()
	require.NoError(t, err)
	defer func() {
		userRepo.Close()
		itemRepo.Close()
		backend.Close()
	}()

	ctx := context.Background()

	t.Run("successful transaction", func(t *testing.T) {
		err := backend.WithTransaction(ctx, func(ctx context.Context) error {
			return nil
		})
		require.NoError(t, err)
	})

	t.Run("failed transaction", func(t *testing.T) {
		testErr := assert.AnError
		err := backend.WithTransaction(ctx, func(ctx context.Context) error {
			return testErr
		})
		assert.Equal(t, testErr, err)
	})

	t.Run("writes inside a failed transaction are discarded", func(t *testing.T) {
		var added *core.Item
		err := itemRepo.WithTransaction(ctx, func(ctx context.Context) error {
			items, err := itemRepo.AddItems(ctx, &core.Item{Title: "ghost", Type: core.ItemTypeLost})
			if err != nil {
				return err
			}
			added = items[0]
			return errors.New("abort")
		})
		require.Error(t, err)
		require.NotNil(t, added)

		_, err = itemRepo.GetItem(ctx, added.Id)
		assert.ErrorIs(t, err, storage.ErrNotFound)
	})

	t.Run("writes across repositories commit together", func(t *testing.T) {
		user, err := core.NewUser("carol", "carol@example.com", "password123")
		require.NoError(t, err)

		var itemID core.ID
		err = backend.WithTransaction(ctx, func(ctx context.Context) error {
			if _, err := userRepo.AddUser(ctx, user); err != nil {
				return err
			}
			items, err := itemRepo.AddItems(ctx, &core.Item{
				Title:      "scarf",
				Type:       core.ItemTypeFound,
				OwnerID:    user.Id,
				InsertedAt: time.Now().UTC(),
			})
			if err != nil {
				return err
			}
			itemID = items[0].Id
			return nil
		})
		require.NoError(t, err)

		_, err = userRepo.GetUser(ctx, user.Id)
		require.NoError(t, err)
		item, err := itemRepo.GetItem(ctx, itemID)
		require.NoError(t, err)
		assert.Equal(t, user.Id, item.OwnerID)
	})
}

func TestGetSequence(t *testing.T) {
	backend, err := OpenBackend("", true)
	require.NoError(t, err)
	defer backend.Close()

	seq, err := backend.GetSequence("test_sequence")
	require.NoError(t, err)
	require.NotNil(t, seq)
	defer seq.Release()

	// Get sequential IDs
	id1, err := seq.Next()
	require.NoError(t, err)

	id2, err := seq.Next()
	require.NoError(t, err)

	// IDs should be sequential
	assert.Greater(t, id2, id1)
}
