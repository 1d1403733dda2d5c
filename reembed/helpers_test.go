package reembed

import (
	"context"
	"fmt"
	"testing"

	"github.com/poiesic/lostfound/core"
	"github.com/poiesic/lostfound/storage"
	"github.com/poiesic/lostfound/storage/badger"
	"github.com/stretchr/testify/require"
)

var pngImage = core.Image{
	Data:        []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n'},
	ContentType: "image/png",
}

func setupTestDB(t *testing.T) (storage.ItemRepository, *badger.CheckpointRepository) {
	t.Helper()
	items, users, backend, err := badger.NewMemoryRepositories()
	require.NoError(t, err)
	t.Cleanup(func() {
		users.Close()
		items.Close()
		backend.Close()
	})
	return items, badger.NewCheckpointRepository(backend)
}

// seedItems stores n items without embeddings and returns them in ID order.
func seedItems(t *testing.T, repo storage.ItemRepository, n int) []*core.Item {
	t.Helper()
	items := make([]*core.Item, n)
	for i := range items {
		items[i] = &core.Item{
			Title:    fmt.Sprintf("Blue umbrella #%d", i),
			Type:     core.ItemTypeFound,
			Category: "other",
			Original: pngImage,
			Cropped:  pngImage,
		}
	}
	added, err := repo.AddItems(context.Background(), items...)
	require.NoError(t, err)
	require.Len(t, added, n)
	return added
}

func allItems(t *testing.T, repo storage.ItemRepository) []*core.Item {
	t.Helper()
	items, err := repo.ListItemsAfter(context.Background(), 0, 10000)
	require.NoError(t, err)
	return items
}
