package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"binstash/internal/domain"
)

type ActivityStore struct {
	db DBTX
}

func NewActivityStore(db DBTX) *ActivityStore {
	return &ActivityStore{db: db}
}

func (s *ActivityStore) Insert(ctx context.Context, e *domain.ActivityEntry) error {
	var detail any
	if len(e.Diff) > 0 {
		data, err := json.Marshal(e.Diff)
		if err != nil {
			return fmt.Errorf("failed to encode field diff: %w", err)
		}
		detail = string(data)
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO activity_log (container_id, actor_id, actor_name, action, entity_type, entity_id, entity_name, detail, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, e.ContainerID, e.Actor.ID, e.Actor.Name, e.Action, e.EntityType, e.EntityID, e.EntityName, detail, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("failed to insert activity entry: %w", err)
	}
	return nil
}

// ActivityRecord is a stored activity row; Detail holds the raw JSON field
// diff when one was attached.
type ActivityRecord struct {
	ID          int64
	ContainerID string
	ActorID     string
	ActorName   string
	Action      string
	EntityType  string
	EntityID    string
	EntityName  string
	Detail      string
	CreatedAt   time.Time
}

func (s *ActivityStore) ListByContainer(ctx context.Context, containerID string) ([]*ActivityRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, container_id, actor_id, actor_name, action, entity_type, entity_id, entity_name, detail, created_at
		FROM activity_log WHERE container_id = ? ORDER BY id DESC
	`, containerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list activity: %w", err)
	}
	defer rows.Close()

	var records []*ActivityRecord
	for rows.Next() {
		r := &ActivityRecord{}
		var detail sql.NullString
		if err := rows.Scan(&r.ID, &r.ContainerID, &r.ActorID, &r.ActorName, &r.Action,
			&r.EntityType, &r.EntityID, &r.EntityName, &detail, &r.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan activity entry: %w", err)
		}
		r.Detail = detail.String
		records = append(records, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating activity: %w", err)
	}
	return records, nil
}
