package store

import (
	"context"
	"database/sql"
	"fmt"

	"binstash/internal/domain"
)

type ContainerStore struct {
	db DBTX
}

func NewContainerStore(db DBTX) *ContainerStore {
	return &ContainerStore{db: db}
}

func (s *ContainerStore) Create(ctx context.Context, c *domain.Container) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO containers (id, name, retention_days, created_at) VALUES (?, ?, ?, ?)
	`, c.ID, c.Name, c.RetentionDays, c.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create container: %w", err)
	}
	return nil
}

func (s *ContainerStore) GetByID(ctx context.Context, id string) (*domain.Container, error) {
	c := &domain.Container{}
	err := s.db.QueryRowContext(ctx, `
		SELECT id, name, retention_days, created_at FROM containers WHERE id = ?
	`, id).Scan(&c.ID, &c.Name, &c.RetentionDays, &c.CreatedAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get container: %w", err)
	}
	return c, nil
}

func (s *ContainerStore) UpdateRetention(ctx context.Context, id string, days int) error {
	result, err := s.db.ExecContext(ctx, `
		UPDATE containers SET retention_days = ? WHERE id = ?
	`, days, id)
	if err != nil {
		return fmt.Errorf("failed to update retention: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if n == 0 {
		return domain.ErrNotFound
	}
	return nil
}
