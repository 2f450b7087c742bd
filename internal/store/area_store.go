package store

import (
	"context"
	"database/sql"
	"fmt"

	"binstash/internal/domain"
)

type AreaStore struct {
	db DBTX
}

func NewAreaStore(db DBTX) *AreaStore {
	return &AreaStore{db: db}
}

func (s *AreaStore) Create(ctx context.Context, a *domain.Area) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO areas (id, container_id, name, created_at) VALUES (?, ?, ?, ?)
	`, a.ID, a.ContainerID, a.Name, a.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create area: %w", err)
	}
	return nil
}

func (s *AreaStore) GetByID(ctx context.Context, id string) (*domain.Area, error) {
	a := &domain.Area{}
	err := s.db.QueryRowContext(ctx, `
		SELECT id, container_id, name, created_at FROM areas WHERE id = ?
	`, id).Scan(&a.ID, &a.ContainerID, &a.Name, &a.CreatedAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get area: %w", err)
	}
	return a, nil
}

func (s *AreaStore) ListByContainer(ctx context.Context, containerID string) ([]*domain.Area, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, container_id, name, created_at FROM areas
		WHERE container_id = ? ORDER BY name ASC
	`, containerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list areas: %w", err)
	}
	defer rows.Close()

	var areas []*domain.Area
	for rows.Next() {
		a := &domain.Area{}
		if err := rows.Scan(&a.ID, &a.ContainerID, &a.Name, &a.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan area: %w", err)
		}
		areas = append(areas, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating areas: %w", err)
	}
	return areas, nil
}
