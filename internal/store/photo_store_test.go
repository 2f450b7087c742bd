package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"binstash/internal/domain"
)

func insertTestPhoto(t *testing.T, photos *PhotoStore, binID, id string) {
	t.Helper()
	require.NoError(t, photos.Insert(context.Background(), &domain.Photo{
		ID:          id,
		BinID:       binID,
		Filename:    id + ".jpg",
		MimeType:    "image/jpeg",
		Size:        10,
		StoragePath: binID + "/" + id + ".jpg",
		CreatedBy:   "user-1",
		CreatedAt:   time.Now().UTC(),
	}))
}

func TestPhotoStoreInsertAndList(t *testing.T) {
	d := openTestDB(t)
	c := createTestContainer(t, d, 30)
	bins := NewBinStore(d)
	photos := NewPhotoStore(d)
	ctx := context.Background()

	bin := testBin(c.ID, "PHOTO2")
	require.NoError(t, bins.Insert(ctx, bin))
	insertTestPhoto(t, photos, bin.ID, "p1")
	insertTestPhoto(t, photos, bin.ID, "p2")

	list, err := photos.ListByBin(ctx, bin.ID)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "p1", list[0].ID)
	assert.Equal(t, "image/jpeg", list[0].MimeType)
	assert.Equal(t, bin.ID+"/p1.jpg", list[0].StoragePath)
}

func TestPhotoStoreListPathsByContainer(t *testing.T) {
	d := openTestDB(t)
	c := createTestContainer(t, d, 30)
	other := createTestContainer(t, d, 30)
	bins := NewBinStore(d)
	photos := NewPhotoStore(d)
	ctx := context.Background()

	mine := testBin(c.ID, "MINE22")
	theirs := testBin(other.ID, "THEIR2")
	require.NoError(t, bins.Insert(ctx, mine))
	require.NoError(t, bins.Insert(ctx, theirs))
	insertTestPhoto(t, photos, mine.ID, "p1")
	insertTestPhoto(t, photos, theirs.ID, "p2")

	paths, err := photos.ListPathsByContainer(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{mine.ID + "/p1.jpg"}, paths)
}
