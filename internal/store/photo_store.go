package store

import (
	"context"
	"fmt"

	"binstash/internal/domain"
)

type PhotoStore struct {
	db DBTX
}

func NewPhotoStore(db DBTX) *PhotoStore {
	return &PhotoStore{db: db}
}

func (s *PhotoStore) Insert(ctx context.Context, p *domain.Photo) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO photos (id, bin_id, filename, mime_type, size, storage_path, created_by, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, p.ID, p.BinID, p.Filename, p.MimeType, p.Size, p.StoragePath, p.CreatedBy, p.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert photo: %w", err)
	}
	return nil
}

func (s *PhotoStore) ListByBin(ctx context.Context, binID string) ([]*domain.Photo, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, bin_id, filename, mime_type, size, storage_path, created_by, created_at
		FROM photos WHERE bin_id = ? ORDER BY created_at ASC, id ASC
	`, binID)
	if err != nil {
		return nil, fmt.Errorf("failed to list photos: %w", err)
	}
	defer rows.Close()

	var photos []*domain.Photo
	for rows.Next() {
		p := &domain.Photo{}
		if err := rows.Scan(&p.ID, &p.BinID, &p.Filename, &p.MimeType, &p.Size,
			&p.StoragePath, &p.CreatedBy, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan photo: %w", err)
		}
		photos = append(photos, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating photos: %w", err)
	}
	return photos, nil
}

// ExistsByPath reports whether any photo row references the storage path.
func (s *PhotoStore) ExistsByPath(ctx context.Context, path string) (bool, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM photos WHERE storage_path = ?`, path).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("failed to check photo path: %w", err)
	}
	return n > 0, nil
}

// ListPathsByBin returns the storage paths of the bin's photos so file
// cleanup can run after the rows are gone.
func (s *PhotoStore) ListPathsByBin(ctx context.Context, binID string) ([]string, error) {
	return s.listPaths(ctx, `SELECT storage_path FROM photos WHERE bin_id = ?`, binID)
}

// ListPathsByContainer returns storage paths for every photo in the
// container, trashed bins included.
func (s *PhotoStore) ListPathsByContainer(ctx context.Context, containerID string) ([]string, error) {
	return s.listPaths(ctx, `
		SELECT p.storage_path FROM photos p
		JOIN bins b ON b.id = p.bin_id
		WHERE b.container_id = ?
	`, containerID)
}

func (s *PhotoStore) listPaths(ctx context.Context, query string, args ...any) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list photo paths: %w", err)
	}
	defer rows.Close()

	var paths []string
	for rows.Next() {
		var p string
		if err := rows.Scan(&p); err != nil {
			return nil, fmt.Errorf("failed to scan photo path: %w", err)
		}
		paths = append(paths, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating photo paths: %w", err)
	}
	return paths, nil
}
