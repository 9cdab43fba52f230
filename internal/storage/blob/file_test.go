package blob

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/bobmcallan/pagoda/internal/common"
	"github.com/bobmcallan/pagoda/internal/interfaces"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestFileStore(t *testing.T) (*FileStore, string) {
	t.Helper()
	dir := t.TempDir()
	fs, err := NewFileStore(common.NewSilentLogger(), dir)
	require.NoError(t, err)
	return fs, dir
}

func TestFileStore_PutGetDelete(t *testing.T) {
	fs, dir := newTestFileStore(t)
	ctx := context.Background()

	require.NoError(t, fs.Put(ctx, "uploads/dish.jpg", []byte("jpeg-bytes"), "image/jpeg"))
	assert.FileExists(t, filepath.Join(dir, "uploads", "dish.jpg"))

	data, err := fs.Get(ctx, "uploads/dish.jpg")
	require.NoError(t, err)
	assert.Equal(t, []byte("jpeg-bytes"), data)

	ok, err := fs.Exists(ctx, "uploads/dish.jpg")
	require.NoError(t, err)
	assert.True(t, ok)

	require.NoError(t, fs.Delete(ctx, "uploads/dish.jpg"))
	require.NoError(t, fs.Delete(ctx, "uploads/dish.jpg"), "second delete is a no-op")

	ok, err = fs.Exists(ctx, "uploads/dish.jpg")
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = fs.Get(ctx, "uploads/dish.jpg")
	assert.True(t, errors.Is(err, interfaces.ErrNotFound))
}

func TestFileStore_Overwrite(t *testing.T) {
	fs, dir := newTestFileStore(t)
	ctx := context.Background()

	require.NoError(t, fs.Put(ctx, "a.png", []byte("one"), "image/png"))
	require.NoError(t, fs.Put(ctx, "a.png", []byte("two"), "image/png"))

	data, err := fs.Get(ctx, "a.png")
	require.NoError(t, err)
	assert.Equal(t, "two", string(data))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1, "no temp files left behind")
}

func TestFileStore_TraversalStaysInsideBase(t *testing.T) {
	fs, dir := newTestFileStore(t)
	ctx := context.Background()

	require.NoError(t, fs.Put(ctx, "../../escape.jpg", []byte("x"), "image/jpeg"))
	assert.FileExists(t, filepath.Join(dir, "escape.jpg"))

	_, err := fs.Get(ctx, "")
	assert.Error(t, err)
}

func TestSanitizeKey(t *testing.T) {
	tests := []struct {
		in   string
		want string
		err  bool
	}{
		{"uploads/a.jpg", "uploads/a.jpg", false},
		{"/abs/a.jpg", "abs/a.jpg", false},
		{"../../etc/passwd", "etc/passwd", false},
		{`uploads\..\..\x.jpg`, "x.jpg", false},
		{"", "", true},
		{"/", "", true},
	}
	for _, tt := range tests {
		got, err := sanitizeKey(tt.in)
		if tt.err {
			assert.Error(t, err, tt.in)
			continue
		}
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}
}

func TestNewImageStore_Backends(t *testing.T) {
	ctx := context.Background()
	logger := common.NewSilentLogger()

	store, err := NewImageStore(ctx, logger, common.ImageConfig{Backend: "file", Path: t.TempDir()})
	require.NoError(t, err)
	assert.IsType(t, &FileStore{}, store)

	_, err = NewImageStore(ctx, logger, common.ImageConfig{Backend: "s3"})
	assert.Error(t, err, "bucket is required")

	_, err = NewImageStore(ctx, logger, common.ImageConfig{Backend: "gcs"})
	assert.Error(t, err)
}
