package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"binstash/internal/blobstore"
	"binstash/internal/domain"
	"binstash/internal/shortcode"
	"binstash/internal/store"
)

// BinService owns the bin lifecycle: Active -> Trashed -> Gone, with restore
// back to Active. Permanent removal only ever happens to a trashed bin, and
// always deletes database rows before touching files.
type BinService struct {
	db       *sql.DB
	blob     blobstore.Store
	activity ActivityRecorder
	logger   *slog.Logger
	validate *validator.Validate

	gen func() string
	now func() time.Time
}

func NewBinService(db *sql.DB, blob blobstore.Store, activity ActivityRecorder, logger *slog.Logger) *BinService {
	return &BinService{
		db:       db,
		blob:     blob,
		activity: activity,
		logger:   logger,
		validate: validator.New(validator.WithRequiredStructEnabled()),
		gen:      shortcode.Generate,
		now:      time.Now,
	}
}

type CreateBinInput struct {
	ContainerID string   `validate:"required"`
	Name        string   `validate:"required,max=255"`
	AreaID      string   `validate:"omitempty"`
	Items       []string `validate:"max=500"`
	Notes       string   `validate:"max=10000"`
	Tags        []string `validate:"max=50"`
	Icon        string
	Color       string
}

// Create validates input, issues a unique short code and persists the bin.
// A caller-supplied code is never accepted here; only imports carry codes in.
func (s *BinService) Create(ctx context.Context, actor domain.Actor, input CreateBinInput) (*domain.Bin, error) {
	if err := s.validate.Struct(input); err != nil {
		return nil, domain.Validationf("invalid bin: %v", err)
	}

	now := s.now().UTC()
	bin := &domain.Bin{
		ID:          uuid.NewString(),
		ContainerID: input.ContainerID,
		Name:        input.Name,
		AreaID:      input.AreaID,
		Items:       input.Items,
		Notes:       input.Notes,
		Tags:        normalizeTags(input.Tags),
		Icon:        input.Icon,
		Color:       input.Color,
		CreatedBy:   actor.ID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := insertWithCode(ctx, store.NewBinStore(s.db), bin, "", s.gen); err != nil {
		return nil, err
	}

	bin.AreaName = s.resolveAreaName(ctx, bin.AreaID)
	s.activity.Record(ctx, &domain.ActivityEntry{
		ContainerID: bin.ContainerID,
		Actor:       actor,
		Action:      "created",
		EntityType:  "bin",
		EntityID:    bin.ID,
		EntityName:  bin.Name,
	})
	return bin, nil
}

// Get returns an active bin; trashed and missing bins both report not found.
func (s *BinService) Get(ctx context.Context, id string) (*domain.Bin, error) {
	bin, err := store.NewBinStore(s.db).GetActive(ctx, id)
	if err != nil {
		return nil, err
	}
	if bin == nil {
		return nil, domain.ErrNotFound
	}
	bin.AreaName = s.resolveAreaName(ctx, bin.AreaID)
	return bin, nil
}

// GetByShortCode looks an active bin up by its printed code.
func (s *BinService) GetByShortCode(ctx context.Context, code string) (*domain.Bin, error) {
	bin, err := store.NewBinStore(s.db).GetByShortCode(ctx, strings.ToUpper(strings.TrimSpace(code)))
	if err != nil {
		return nil, err
	}
	if bin == nil {
		return nil, domain.ErrNotFound
	}
	bin.AreaName = s.resolveAreaName(ctx, bin.AreaID)
	return bin, nil
}

// List returns the container's active bins, most recently updated first.
func (s *BinService) List(ctx context.Context, containerID string) ([]*domain.Bin, error) {
	bins, err := store.NewBinStore(s.db).ListActive(ctx, containerID)
	if err != nil {
		return nil, err
	}
	s.resolveAreaNames(ctx, bins)
	return bins, nil
}

// ListTrash returns the container's trashed bins. Callers typically follow
// up with a retention sweep.
func (s *BinService) ListTrash(ctx context.Context, containerID string) ([]*domain.Bin, error) {
	bins, err := store.NewBinStore(s.db).ListTrashed(ctx, containerID)
	if err != nil {
		return nil, err
	}
	s.resolveAreaNames(ctx, bins)
	return bins, nil
}

type UpdateBinInput struct {
	Name   *string   `validate:"omitempty,max=255"`
	AreaID *string   `validate:"-"`
	Items  *[]string `validate:"omitempty,max=500"`
	Notes  *string   `validate:"omitempty,max=10000"`
	Tags   *[]string `validate:"omitempty,max=50"`
	Icon   *string
	Color  *string
}

// Update applies only the supplied fields to an active bin, refreshes
// updated_at, and records a field-level diff of what actually changed.
func (s *BinService) Update(ctx context.Context, actor domain.Actor, id string, input UpdateBinInput) (*domain.Bin, error) {
	if err := s.validate.Struct(input); err != nil {
		return nil, domain.Validationf("invalid bin update: %v", err)
	}

	bins := store.NewBinStore(s.db)
	before, err := bins.GetActive(ctx, id)
	if err != nil {
		return nil, err
	}
	if before == nil {
		return nil, domain.ErrNotFound
	}

	if input.Tags != nil {
		normalized := normalizeTags(*input.Tags)
		input.Tags = &normalized
	}

	fields := store.UpdateFields{
		Name:   input.Name,
		AreaID: input.AreaID,
		Items:  input.Items,
		Notes:  input.Notes,
		Tags:   input.Tags,
		Icon:   input.Icon,
		Color:  input.Color,
	}
	if err := bins.Update(ctx, id, fields, s.now().UTC()); err != nil {
		return nil, err
	}

	after, err := bins.GetActive(ctx, id)
	if err != nil {
		return nil, err
	}
	if after == nil {
		return nil, domain.ErrNotFound
	}
	after.AreaName = s.resolveAreaName(ctx, after.AreaID)

	s.activity.Record(ctx, &domain.ActivityEntry{
		ContainerID: after.ContainerID,
		Actor:       actor,
		Action:      "updated",
		EntityType:  "bin",
		EntityID:    after.ID,
		EntityName:  after.Name,
		Diff:        diffBins(before, after),
	})
	return after, nil
}

// SoftDelete moves an active bin to the trash. Data is untouched and the
// transition is fully recoverable via Restore.
func (s *BinService) SoftDelete(ctx context.Context, actor domain.Actor, id string) (*domain.Bin, error) {
	bins := store.NewBinStore(s.db)
	if err := bins.SoftDelete(ctx, id, s.now().UTC()); err != nil {
		return nil, err
	}
	bin, err := bins.GetTrashed(ctx, id)
	if err != nil {
		return nil, err
	}
	if bin == nil {
		return nil, domain.ErrNotFound
	}
	s.activity.Record(ctx, &domain.ActivityEntry{
		ContainerID: bin.ContainerID,
		Actor:       actor,
		Action:      "trashed",
		EntityType:  "bin",
		EntityID:    bin.ID,
		EntityName:  bin.Name,
	})
	return bin, nil
}

// Restore moves a trashed bin back to active. Restoring a bin that is not
// trashed is a caller error and reports not found.
func (s *BinService) Restore(ctx context.Context, actor domain.Actor, id string) (*domain.Bin, error) {
	bins := store.NewBinStore(s.db)
	if err := bins.Restore(ctx, id, s.now().UTC()); err != nil {
		return nil, err
	}
	bin, err := bins.GetActive(ctx, id)
	if err != nil {
		return nil, err
	}
	if bin == nil {
		return nil, domain.ErrNotFound
	}
	bin.AreaName = s.resolveAreaName(ctx, bin.AreaID)
	s.activity.Record(ctx, &domain.ActivityEntry{
		ContainerID: bin.ContainerID,
		Actor:       actor,
		Action:      "restored",
		EntityType:  "bin",
		EntityID:    bin.ID,
		EntityName:  bin.Name,
	})
	return bin, nil
}

// PermanentDelete removes a trashed bin for good. Rows go first inside one
// transaction (photo rows cascade), then file cleanup runs best-effort: a
// crash mid-cleanup leaves harmless orphan files, never orphan rows.
func (s *BinService) PermanentDelete(ctx context.Context, actor domain.Actor, id string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	bins := store.NewBinStore(tx)
	bin, err := bins.GetTrashed(ctx, id)
	if err != nil {
		return err
	}
	if bin == nil {
		// Missing, already purged, or still active. Only trashed bins may
		// be removed for good.
		return domain.ErrNotFound
	}

	paths, err := store.NewPhotoStore(tx).ListPathsByBin(ctx, id)
	if err != nil {
		return err
	}
	if err := bins.Delete(ctx, id); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit permanent delete: %w", err)
	}

	s.removeBinFiles(ctx, id, paths)
	s.activity.Record(ctx, &domain.ActivityEntry{
		ContainerID: bin.ContainerID,
		Actor:       actor,
		Action:      "deleted",
		EntityType:  "bin",
		EntityID:    bin.ID,
		EntityName:  bin.Name,
	})
	return nil
}

// AddTags merges newTags into the bin's tag set. Existing tags are never
// removed; duplicates compare case-sensitively.
func (s *BinService) AddTags(ctx context.Context, actor domain.Actor, id string, newTags []string) (*domain.Bin, error) {
	bins := store.NewBinStore(s.db)
	bin, err := bins.GetActive(ctx, id)
	if err != nil {
		return nil, err
	}
	if bin == nil {
		return nil, domain.ErrNotFound
	}

	merged := bin.Tags
	for _, t := range newTags {
		t = strings.TrimSpace(t)
		if t == "" || slices.Contains(merged, t) {
			continue
		}
		merged = append(merged, t)
	}
	if len(merged) > 50 {
		return nil, domain.Validationf("bin cannot carry more than 50 tags")
	}
	if len(merged) == len(bin.Tags) {
		bin.AreaName = s.resolveAreaName(ctx, bin.AreaID)
		return bin, nil
	}

	// Tags go straight to the store: AddTags merges verbatim, unlike Create,
	// which normalizes to lowercase.
	if err := bins.Update(ctx, id, store.UpdateFields{Tags: &merged}, s.now().UTC()); err != nil {
		return nil, err
	}
	after, err := bins.GetActive(ctx, id)
	if err != nil {
		return nil, err
	}
	if after == nil {
		return nil, domain.ErrNotFound
	}
	after.AreaName = s.resolveAreaName(ctx, after.AreaID)
	s.activity.Record(ctx, &domain.ActivityEntry{
		ContainerID: after.ContainerID,
		Actor:       actor,
		Action:      "updated",
		EntityType:  "bin",
		EntityID:    after.ID,
		EntityName:  after.Name,
		Diff: map[string]domain.FieldChange{
			"tags": {Old: bin.Tags, New: after.Tags},
		},
	})
	return after, nil
}

// removeBinFiles is the non-propagating cleanup boundary for blob removal.
// The database row is already gone, so every failure here is logged and
// swallowed: the files are orphans at worst.
func (s *BinService) removeBinFiles(ctx context.Context, binID string, paths []string) {
	for _, p := range paths {
		if err := s.blob.Delete(ctx, p); err != nil {
			s.logger.Error("failed to delete photo file", "bin_id", binID, "path", p, "error", err)
		}
	}
	if err := s.blob.DeleteBin(ctx, binID); err != nil {
		s.logger.Error("failed to delete bin directory", "bin_id", binID, "error", err)
	}
}

func (s *BinService) resolveAreaName(ctx context.Context, areaID string) string {
	if areaID == "" {
		return ""
	}
	area, err := store.NewAreaStore(s.db).GetByID(ctx, areaID)
	if err != nil {
		s.logger.Error("failed to resolve area name", "area_id", areaID, "error", err)
		return ""
	}
	if area == nil {
		return ""
	}
	return area.Name
}

func (s *BinService) resolveAreaNames(ctx context.Context, bins []*domain.Bin) {
	names := map[string]string{}
	for _, b := range bins {
		if b.AreaID == "" {
			continue
		}
		name, ok := names[b.AreaID]
		if !ok {
			name = s.resolveAreaName(ctx, b.AreaID)
			names[b.AreaID] = name
		}
		b.AreaName = name
	}
}

// insertWithCode runs the bounded short-code retry protocol: a supplied code
// is tried first so previously printed codes keep working, then random
// candidates until the store accepts one or the budget runs out.
func insertWithCode(ctx context.Context, bins *store.BinStore, bin *domain.Bin, supplied string, gen func() string) error {
	for attempt := 0; attempt < shortcode.MaxAttempts; attempt++ {
		code := supplied
		if attempt > 0 || code == "" {
			code = gen()
		}
		bin.ShortCode = code
		err := bins.Insert(ctx, bin)
		if errors.Is(err, domain.ErrShortCodeTaken) {
			continue
		}
		return err
	}
	return domain.ErrCodeSpaceExhausted
}

// normalizeTags lowercases, trims and dedups while keeping first-seen order.
func normalizeTags(tags []string) []string {
	var out []string
	for _, t := range tags {
		t = strings.ToLower(strings.TrimSpace(t))
		if t == "" || slices.Contains(out, t) {
			continue
		}
		out = append(out, t)
	}
	return out
}

// diffBins reports old/new values for the fields that changed.
func diffBins(before, after *domain.Bin) map[string]domain.FieldChange {
	diff := map[string]domain.FieldChange{}
	if before.Name != after.Name {
		diff["name"] = domain.FieldChange{Old: before.Name, New: after.Name}
	}
	if before.AreaID != after.AreaID {
		diff["areaId"] = domain.FieldChange{Old: before.AreaID, New: after.AreaID}
	}
	if !slices.Equal(before.Items, after.Items) {
		diff["items"] = domain.FieldChange{Old: before.Items, New: after.Items}
	}
	if before.Notes != after.Notes {
		diff["notes"] = domain.FieldChange{Old: before.Notes, New: after.Notes}
	}
	if !slices.Equal(before.Tags, after.Tags) {
		diff["tags"] = domain.FieldChange{Old: before.Tags, New: after.Tags}
	}
	if before.Icon != after.Icon {
		diff["icon"] = domain.FieldChange{Old: before.Icon, New: after.Icon}
	}
	if before.Color != after.Color {
		diff["color"] = domain.FieldChange{Old: before.Color, New: after.Color}
	}
	return diff
}
