package service

import (
	"context"
	"log/slog"

	"binstash/internal/domain"
	"binstash/internal/store"
)

// ActivityRecorder receives audit entries. Recording is fire-and-forget: a
// recorder never returns an error and must never block the operation that
// produced the entry.
type ActivityRecorder interface {
	Record(ctx context.Context, entry *domain.ActivityEntry)
}

// DBActivityRecorder persists entries to the activity_log table, logging its
// own failures instead of surfacing them.
type DBActivityRecorder struct {
	store  *store.ActivityStore
	logger *slog.Logger
}

func NewActivityRecorder(db store.DBTX, logger *slog.Logger) *DBActivityRecorder {
	return &DBActivityRecorder{store: store.NewActivityStore(db), logger: logger}
}

func (r *DBActivityRecorder) Record(ctx context.Context, entry *domain.ActivityEntry) {
	if err := r.store.Insert(ctx, entry); err != nil {
		r.logger.Error("failed to record activity",
			"action", entry.Action, "entity_id", entry.EntityID, "error", err)
	}
}
