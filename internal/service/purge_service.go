package service

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"time"

	"binstash/internal/domain"
	"binstash/internal/store"
)

// purgeActor stamps activity entries written by retention sweeps.
var purgeActor = domain.Actor{ID: "system", Name: "retention sweep"}

// PurgeService removes trashed bins whose age exceeds the container's
// retention window. Sweeps are triggered opportunistically, typically when
// the trash is viewed; running late is fine, purging early is not.
type PurgeService struct {
	db     *sql.DB
	bins   *BinService
	logger *slog.Logger

	now func() time.Time
}

func NewPurgeService(db *sql.DB, bins *BinService, logger *slog.Logger) *PurgeService {
	return &PurgeService{db: db, bins: bins, logger: logger, now: time.Now}
}

// Sweep purges expired trashed bins in the container. It is idempotent and
// never propagates an error: a failed sweep must not break the call (trash
// listing, usually) that triggered it.
func (s *PurgeService) Sweep(ctx context.Context, containerID string) {
	container, err := store.NewContainerStore(s.db).GetByID(ctx, containerID)
	if err != nil {
		s.logger.Error("sweep: failed to load container", "container_id", containerID, "error", err)
		return
	}
	if container == nil {
		s.logger.Warn("sweep: container not found", "container_id", containerID)
		return
	}

	cutoff := s.now().UTC().AddDate(0, 0, -container.RetentionDays)
	expired, err := store.NewBinStore(s.db).ListTrashedBefore(ctx, containerID, cutoff)
	if err != nil {
		s.logger.Error("sweep: failed to list expired bins", "container_id", containerID, "error", err)
		return
	}

	purged := 0
	for _, bin := range expired {
		err := s.bins.PermanentDelete(ctx, purgeActor, bin.ID)
		if errors.Is(err, domain.ErrNotFound) {
			// Lost a race with another sweep or an explicit delete;
			// the bin is gone either way.
			continue
		}
		if err != nil {
			s.logger.Error("sweep: failed to purge bin", "bin_id", bin.ID, "error", err)
			continue
		}
		purged++
	}
	if purged > 0 {
		s.logger.Info("retention sweep complete",
			"container_id", containerID, "purged", purged, "retention_days", container.RetentionDays)
	}
}
