package storage

import (
	"bytes"
	"image"
	"image/color"
	"image/jpeg"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func testJPEG(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		for y := 0; y < h; y++ {
			img.Set(x, y, color.RGBA{R: uint8(x % 256), G: uint8(y % 256), B: 100, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, jpeg.Encode(&buf, img, nil))
	return buf.Bytes()
}

func TestSaveOriginal(t *testing.T) {
	store := &LocalImageStore{Directory: t.TempDir(), Log: zap.NewNop()}
	data := testJPEG(t, 40, 30)

	path, err := store.SaveOriginal("abc123", ".jpg", data)
	require.NoError(t, err)
	assert.Equal(t, filepath.Base(path), "abc123.jpg")

	got, err := store.ReadOriginal(path)
	require.NoError(t, err)
	assert.Equal(t, data, got)
}

func TestSaveOriginal_CreatesDirectory(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "uploads")
	store := &LocalImageStore{Directory: dir, Log: zap.NewNop()}

	_, err := store.SaveOriginal("abc123", ".jpg", testJPEG(t, 10, 10))
	require.NoError(t, err)

	_, err = os.Stat(dir)
	assert.NoError(t, err)
}

func TestSavePreview(t *testing.T) {
	store := &LocalImageStore{Directory: t.TempDir(), Log: zap.NewNop()}

	path, err := store.SavePreview("abc123", testJPEG(t, 1200, 800))
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	cfg, err := jpeg.DecodeConfig(bytes.NewReader(data))
	require.NoError(t, err)
	assert.LessOrEqual(t, cfg.Width, 512)
	assert.LessOrEqual(t, cfg.Height, 512)
}

func TestSavePreview_NotAnImage(t *testing.T) {
	store := &LocalImageStore{Directory: t.TempDir(), Log: zap.NewNop()}

	_, err := store.SavePreview("abc123", []byte("not an image"))
	assert.Error(t, err)
}

func TestStripMetadata_ProducesDecodableJPEG(t *testing.T) {
	store := &LocalImageStore{Directory: t.TempDir(), Log: zap.NewNop()}

	out, err := store.StripMetadata(testJPEG(t, 64, 48))
	require.NoError(t, err)

	cfg, err := jpeg.DecodeConfig(bytes.NewReader(out))
	require.NoError(t, err)
	assert.Equal(t, 64, cfg.Width)
	assert.Equal(t, 48, cfg.Height)

	// A plain encoder re-encode carries no APP1/EXIF segment.
	assert.NotContains(t, string(out[:32]), "Exif")
}

func TestStripMetadata_NotAnImage(t *testing.T) {
	store := &LocalImageStore{Directory: t.TempDir(), Log: zap.NewNop()}

	_, err := store.StripMetadata([]byte("garbage"))
	assert.Error(t, err)
}
