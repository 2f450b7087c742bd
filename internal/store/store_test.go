package store

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"binstash/internal/db"
	"binstash/internal/domain"
)

func openTestDB(t *testing.T) *sql.DB {
	t.Helper()
	d, err := db.OpenForTesting()
	require.NoError(t, err)
	t.Cleanup(func() { _ = d.Close() })
	return d
}

func createTestContainer(t *testing.T, d *sql.DB, retentionDays int) *domain.Container {
	t.Helper()
	c := &domain.Container{
		ID:            uuid.NewString(),
		Name:          "Test Container",
		RetentionDays: retentionDays,
		CreatedAt:     time.Now().UTC(),
	}
	require.NoError(t, NewContainerStore(d).Create(context.Background(), c))
	return c
}

func testBin(containerID, code string) *domain.Bin {
	now := time.Now().UTC()
	return &domain.Bin{
		ID:          uuid.NewString(),
		ContainerID: containerID,
		Name:        "Holiday Decorations",
		Items:       []string{"lights", "ornaments"},
		Notes:       "attic, left side",
		Tags:        []string{"seasonal"},
		Icon:        "box",
		Color:       "#ff0000",
		ShortCode:   code,
		CreatedBy:   "user-1",
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}
