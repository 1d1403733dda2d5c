package ai

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/poiesic/lostfound/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// pngHeader is enough for content sniffing.
var pngHeader = []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n', 0, 0, 0, 0x0d, 'I', 'H', 'D', 'R'}

var jpegHeader = []byte{0xff, 0xd8, 0xff, 0xe0, 0, 0x10, 'J', 'F', 'I', 'F', 0}

func TestImageBytes_Resolve(t *testing.T) {
	t.Run("png", func(t *testing.T) {
		img, err := ImageBytes(pngHeader).Resolve()
		require.NoError(t, err)
		assert.Equal(t, "image/png", img.ContentType)
		assert.Equal(t, pngHeader, img.Data)
	})

	t.Run("jpeg", func(t *testing.T) {
		img, err := ImageBytes(jpegHeader).Resolve()
		require.NoError(t, err)
		assert.Equal(t, "image/jpeg", img.ContentType)
	})

	t.Run("empty", func(t *testing.T) {
		_, err := ImageBytes(nil).Resolve()
		assert.ErrorIs(t, err, ErrEmptyImage)
	})

	t.Run("not an image", func(t *testing.T) {
		_, err := ImageBytes("hello world").Resolve()
		assert.ErrorIs(t, err, core.ErrUnsupportedImage)
	})
}

func TestImagePath_Resolve(t *testing.T) {
	dir := t.TempDir()

	t.Run("jpeg by extension", func(t *testing.T) {
		path := filepath.Join(dir, "wallet.JPG")
		require.NoError(t, os.WriteFile(path, jpegHeader, 0o644))

		img, err := ImagePath(path).Resolve()
		require.NoError(t, err)
		assert.Equal(t, "image/jpeg", img.ContentType)
		assert.Equal(t, jpegHeader, img.Data)
	})

	t.Run("unsupported extension", func(t *testing.T) {
		path := filepath.Join(dir, "wallet.gif")
		require.NoError(t, os.WriteFile(path, []byte("GIF89a"), 0o644))

		_, err := ImagePath(path).Resolve()
		assert.ErrorIs(t, err, core.ErrUnsupportedImage)
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := ImagePath(filepath.Join(dir, "missing.png")).Resolve()
		assert.ErrorIs(t, err, os.ErrNotExist)
	})

	t.Run("empty file", func(t *testing.T) {
		path := filepath.Join(dir, "empty.png")
		require.NoError(t, os.WriteFile(path, nil, 0o644))

		_, err := ImagePath(path).Resolve()
		assert.ErrorIs(t, err, ErrEmptyImage)
	})
}

func TestIsItemCategory(t *testing.T) {
	assert.True(t, IsItemCategory("wallet"))
	assert.True(t, IsItemCategory(CategoryOther))
	assert.False(t, IsItemCategory("Wallet"))
	assert.False(t, IsItemCategory("spaceship"))
}
