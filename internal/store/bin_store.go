package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"binstash/internal/domain"
)

type BinStore struct {
	db DBTX
}

func NewBinStore(db DBTX) *BinStore {
	return &BinStore{db: db}
}

const binColumns = `id, container_id, name, area_id, items, notes, tags, icon,
	color, short_code, created_by, created_at, updated_at, deleted_at`

// Insert persists b with the short code already set on it. A unique-constraint
// conflict on the code maps to domain.ErrShortCodeTaken so callers can retry
// with a fresh candidate; the constraint itself is the only concurrency guard.
func (s *BinStore) Insert(ctx context.Context, b *domain.Bin) error {
	items, err := marshalStrings(b.Items)
	if err != nil {
		return err
	}
	tags, err := marshalStrings(b.Tags)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO bins (id, container_id, name, area_id, items, notes, tags, icon,
			color, short_code, created_by, created_at, updated_at, deleted_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, b.ID, b.ContainerID, b.Name, nullString(b.AreaID), items, b.Notes, tags, b.Icon,
		b.Color, b.ShortCode, b.CreatedBy, b.CreatedAt, b.UpdatedAt, nullTime(b.DeletedAt))
	if err != nil {
		if isUniqueViolation(err, "short_code") {
			return domain.ErrShortCodeTaken
		}
		return fmt.Errorf("failed to insert bin: %w", err)
	}
	return nil
}

// GetActive returns the bin only when it is not trashed; nil when missing.
func (s *BinStore) GetActive(ctx context.Context, id string) (*domain.Bin, error) {
	return s.getWhere(ctx, "id = ? AND deleted_at IS NULL", id)
}

// GetTrashed returns the bin only when it is trashed; nil when missing.
func (s *BinStore) GetTrashed(ctx context.Context, id string) (*domain.Bin, error) {
	return s.getWhere(ctx, "id = ? AND deleted_at IS NOT NULL", id)
}

// GetAny returns the bin regardless of lifecycle state; nil when missing.
func (s *BinStore) GetAny(ctx context.Context, id string) (*domain.Bin, error) {
	return s.getWhere(ctx, "id = ?", id)
}

func (s *BinStore) getWhere(ctx context.Context, where string, args ...any) (*domain.Bin, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+binColumns+` FROM bins WHERE `+where, args...)
	b, err := scanBin(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get bin: %w", err)
	}
	return b, nil
}

func (s *BinStore) Exists(ctx context.Context, id string) (bool, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM bins WHERE id = ?`, id).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("failed to check bin existence: %w", err)
	}
	return n > 0, nil
}

// ListActive returns the container's active bins, most recently updated first.
func (s *BinStore) ListActive(ctx context.Context, containerID string) ([]*domain.Bin, error) {
	return s.listWhere(ctx, "container_id = ? AND deleted_at IS NULL", "updated_at DESC, id DESC", containerID)
}

// ListTrashed returns the container's trashed bins, most recently trashed first.
func (s *BinStore) ListTrashed(ctx context.Context, containerID string) ([]*domain.Bin, error) {
	return s.listWhere(ctx, "container_id = ? AND deleted_at IS NOT NULL", "deleted_at DESC, id DESC", containerID)
}

// ListTrashedBefore returns trashed bins whose deletion time is at or before
// cutoff. The purger uses it to find bins past their retention window.
func (s *BinStore) ListTrashedBefore(ctx context.Context, containerID string, cutoff time.Time) ([]*domain.Bin, error) {
	return s.listWhere(ctx, "container_id = ? AND deleted_at IS NOT NULL AND deleted_at <= ?", "deleted_at ASC", containerID, cutoff)
}

func (s *BinStore) listWhere(ctx context.Context, where, order string, args ...any) ([]*domain.Bin, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+binColumns+` FROM bins WHERE `+where+` ORDER BY `+order, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list bins: %w", err)
	}
	defer rows.Close()

	var bins []*domain.Bin
	for rows.Next() {
		b, err := scanBin(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan bin: %w", err)
		}
		bins = append(bins, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating bins: %w", err)
	}
	return bins, nil
}

// UpdateFields carries the fields an update supplies; nil pointers are left
// untouched.
type UpdateFields struct {
	Name   *string
	AreaID *string
	Items  *[]string
	Notes  *string
	Tags   *[]string
	Icon   *string
	Color  *string
}

// Update applies the supplied fields to an active bin and stamps updated_at.
// Returns domain.ErrNotFound when the bin is missing or trashed.
func (s *BinStore) Update(ctx context.Context, id string, f UpdateFields, updatedAt time.Time) error {
	set := []string{"updated_at = ?"}
	args := []any{updatedAt}

	if f.Name != nil {
		set = append(set, "name = ?")
		args = append(args, *f.Name)
	}
	if f.AreaID != nil {
		set = append(set, "area_id = ?")
		args = append(args, nullString(*f.AreaID))
	}
	if f.Items != nil {
		items, err := marshalStrings(*f.Items)
		if err != nil {
			return err
		}
		set = append(set, "items = ?")
		args = append(args, items)
	}
	if f.Notes != nil {
		set = append(set, "notes = ?")
		args = append(args, *f.Notes)
	}
	if f.Tags != nil {
		tags, err := marshalStrings(*f.Tags)
		if err != nil {
			return err
		}
		set = append(set, "tags = ?")
		args = append(args, tags)
	}
	if f.Icon != nil {
		set = append(set, "icon = ?")
		args = append(args, *f.Icon)
	}
	if f.Color != nil {
		set = append(set, "color = ?")
		args = append(args, *f.Color)
	}

	args = append(args, id)
	result, err := s.db.ExecContext(ctx,
		`UPDATE bins SET `+strings.Join(set, ", ")+` WHERE id = ? AND deleted_at IS NULL`, args...)
	if err != nil {
		return fmt.Errorf("failed to update bin: %w", err)
	}
	return requireRow(result)
}

// SoftDelete moves an active bin into the trash. The row and its photos are
// untouched beyond the deleted_at stamp.
func (s *BinStore) SoftDelete(ctx context.Context, id string, when time.Time) error {
	result, err := s.db.ExecContext(ctx, `
		UPDATE bins SET deleted_at = ?, updated_at = ? WHERE id = ? AND deleted_at IS NULL
	`, when, when, id)
	if err != nil {
		return fmt.Errorf("failed to soft-delete bin: %w", err)
	}
	return requireRow(result)
}

// Restore clears deleted_at on a trashed bin. Restoring an active bin is a
// caller error and reports not found.
func (s *BinStore) Restore(ctx context.Context, id string, when time.Time) error {
	result, err := s.db.ExecContext(ctx, `
		UPDATE bins SET deleted_at = NULL, updated_at = ? WHERE id = ? AND deleted_at IS NOT NULL
	`, when, id)
	if err != nil {
		return fmt.Errorf("failed to restore bin: %w", err)
	}
	return requireRow(result)
}

// Delete removes the bin row outright; photo rows cascade.
func (s *BinStore) Delete(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM bins WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete bin: %w", err)
	}
	return requireRow(result)
}

// DeleteByContainer removes every bin row in the container; photo rows cascade.
func (s *BinStore) DeleteByContainer(ctx context.Context, containerID string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM bins WHERE container_id = ?`, containerID)
	if err != nil {
		return fmt.Errorf("failed to delete bins: %w", err)
	}
	return nil
}

// ListIDsByContainer returns all bin ids in the container, trashed included.
func (s *BinStore) ListIDsByContainer(ctx context.Context, containerID string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id FROM bins WHERE container_id = ?`, containerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list bin ids: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan bin id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating bin ids: %w", err)
	}
	return ids, nil
}

// GetByShortCode returns the active bin carrying the code; nil when missing.
func (s *BinStore) GetByShortCode(ctx context.Context, code string) (*domain.Bin, error) {
	return s.getWhere(ctx, "short_code = ? AND deleted_at IS NULL", code)
}

func requireRow(result sql.Result) error {
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if n == 0 {
		return domain.ErrNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanBin(row rowScanner) (*domain.Bin, error) {
	b := &domain.Bin{}
	var areaID sql.NullString
	var items, tags string
	var deletedAt sql.NullTime
	if err := row.Scan(&b.ID, &b.ContainerID, &b.Name, &areaID, &items, &b.Notes,
		&tags, &b.Icon, &b.Color, &b.ShortCode, &b.CreatedBy, &b.CreatedAt,
		&b.UpdatedAt, &deletedAt); err != nil {
		return nil, err
	}
	if areaID.Valid {
		b.AreaID = areaID.String
	}
	if deletedAt.Valid {
		t := deletedAt.Time
		b.DeletedAt = &t
	}
	var err error
	if b.Items, err = unmarshalStrings(items); err != nil {
		return nil, err
	}
	if b.Tags, err = unmarshalStrings(tags); err != nil {
		return nil, err
	}
	return b, nil
}

func nullString(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func nullTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	return *t
}
