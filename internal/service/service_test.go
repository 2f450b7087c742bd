package service

import (
	"context"
	"database/sql"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"binstash/internal/blobstore/local"
	"binstash/internal/db"
	"binstash/internal/domain"
	"binstash/internal/store"
)

var testActor = domain.Actor{ID: "user-1", Name: "Pat"}

type testEnv struct {
	db        *sql.DB
	blob      *local.Store
	blobDir   string
	bins      *BinService
	port      *PortService
	purge     *PurgeService
	activity  *store.ActivityStore
	container *domain.Container
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	d, err := db.OpenForTesting()
	require.NoError(t, err)
	t.Cleanup(func() { _ = d.Close() })

	blobDir := t.TempDir()
	blob, err := local.New(blobDir)
	require.NoError(t, err)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	recorder := NewActivityRecorder(d, logger)
	binSvc := NewBinService(d, blob, recorder, logger)

	container := &domain.Container{
		ID:            uuid.NewString(),
		Name:          "Home",
		RetentionDays: 30,
		CreatedAt:     time.Now().UTC(),
	}
	require.NoError(t, store.NewContainerStore(d).Create(context.Background(), container))

	return &testEnv{
		db:        d,
		blob:      blob,
		blobDir:   blobDir,
		bins:      binSvc,
		port:      NewPortService(d, blob, recorder, logger),
		purge:     NewPurgeService(d, binSvc, logger),
		activity:  store.NewActivityStore(d),
		container: container,
	}
}

func (e *testEnv) createContainer(t *testing.T, retentionDays int) *domain.Container {
	t.Helper()
	c := &domain.Container{
		ID:            uuid.NewString(),
		Name:          "Other",
		RetentionDays: retentionDays,
		CreatedAt:     time.Now().UTC(),
	}
	require.NoError(t, store.NewContainerStore(e.db).Create(context.Background(), c))
	return c
}

// addPhoto stores photo bytes and the matching row for an existing bin.
func (e *testEnv) addPhoto(t *testing.T, binID, filename string, data []byte) *domain.Photo {
	t.Helper()
	ctx := context.Background()
	path, err := e.blob.Put(ctx, binID, filename, data)
	require.NoError(t, err)
	p := &domain.Photo{
		ID:          uuid.NewString(),
		BinID:       binID,
		Filename:    filename,
		MimeType:    "image/jpeg",
		Size:        int64(len(data)),
		StoragePath: path,
		CreatedBy:   testActor.ID,
		CreatedAt:   time.Now().UTC(),
	}
	require.NoError(t, store.NewPhotoStore(e.db).Insert(ctx, p))
	return p
}

func (e *testEnv) countBins(t *testing.T) int {
	t.Helper()
	var n int
	require.NoError(t, e.db.QueryRow(`SELECT COUNT(*) FROM bins`).Scan(&n))
	return n
}

// steppedClock returns a clock that advances by step on every call, so
// updated_at comparisons are deterministic.
func steppedClock(start time.Time, step time.Duration) func() time.Time {
	var mu sync.Mutex
	current := start
	return func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		current = current.Add(step)
		return current
	}
}
