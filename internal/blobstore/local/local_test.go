package local

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) (*Store, string) {
	t.Helper()
	dir := t.TempDir()
	s, err := New(filepath.Join(dir, "blobs"))
	require.NoError(t, err)
	return s, filepath.Join(dir, "blobs")
}

func TestPutAndGet(t *testing.T) {
	s, base := newTestStore(t)
	ctx := context.Background()

	path, err := s.Put(ctx, "bin-1", "photo.jpg", []byte("jpeg bytes"))
	require.NoError(t, err)
	assert.Equal(t, "bin-1/photo.jpg", path)

	// The bin directory is created lazily on first write.
	_, err = os.Stat(filepath.Join(base, "bin-1", "photo.jpg"))
	require.NoError(t, err)

	data, err := s.Get(ctx, path)
	require.NoError(t, err)
	assert.Equal(t, []byte("jpeg bytes"), data)
}

func TestGetMissing(t *testing.T) {
	s, _ := newTestStore(t)

	_, err := s.Get(context.Background(), "bin-1/nope.jpg")
	assert.Error(t, err)
}

func TestDeleteMissingIsNoOp(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	assert.NoError(t, s.Delete(ctx, "bin-1/nope.jpg"))
	assert.NoError(t, s.DeleteBin(ctx, "no-such-bin"))
}

func TestDeleteRemovesFile(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	path, err := s.Put(ctx, "bin-1", "photo.jpg", []byte("x"))
	require.NoError(t, err)

	require.NoError(t, s.Delete(ctx, path))
	_, err = s.Get(ctx, path)
	assert.Error(t, err)

	// Deleting again is still fine.
	assert.NoError(t, s.Delete(ctx, path))
}

func TestDeleteBinRemovesEverything(t *testing.T) {
	s, base := newTestStore(t)
	ctx := context.Background()

	_, err := s.Put(ctx, "bin-1", "a.jpg", []byte("a"))
	require.NoError(t, err)
	_, err = s.Put(ctx, "bin-1", "b.jpg", []byte("b"))
	require.NoError(t, err)

	require.NoError(t, s.DeleteBin(ctx, "bin-1"))
	_, err = os.Stat(filepath.Join(base, "bin-1"))
	assert.True(t, os.IsNotExist(err))
}

func TestTraversalRejected(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	_, err := s.Get(ctx, "../../etc/passwd")
	assert.Error(t, err)
	err = s.Delete(ctx, "../outside")
	assert.Error(t, err)
}

func TestPutSanitizesNameComponents(t *testing.T) {
	s, base := newTestStore(t)
	ctx := context.Background()

	path, err := s.Put(ctx, "bin-1", "../escape.jpg", []byte("x"))
	require.NoError(t, err)

	abs := filepath.Join(base, filepath.FromSlash(path))
	rel, err := filepath.Rel(base, abs)
	require.NoError(t, err)
	assert.False(t, filepath.IsAbs(rel))
	assert.NotContains(t, rel, "..")

	// The returned path round-trips through Get.
	data, err := s.Get(ctx, path)
	require.NoError(t, err)
	assert.Equal(t, []byte("x"), data)

	// Hostile bin ids are neutralized the same way.
	path, err = s.Put(ctx, "..", "a.jpg", []byte("y"))
	require.NoError(t, err)
	assert.NotContains(t, path, "..")
}
