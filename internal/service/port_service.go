package service

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"binstash/internal/blobstore"
	"binstash/internal/domain"
	"binstash/internal/shortcode"
	"binstash/internal/store"
)

// PortService is the data-portability engine: bulk export of a container to
// a versioned snapshot, and atomic bulk import with merge/replace semantics.
type PortService struct {
	db       *sql.DB
	blob     blobstore.Store
	activity ActivityRecorder
	logger   *slog.Logger

	gen func() string
	now func() time.Time
}

func NewPortService(db *sql.DB, blob blobstore.Store, activity ActivityRecorder, logger *slog.Logger) *PortService {
	return &PortService{
		db:       db,
		blob:     blob,
		activity: activity,
		logger:   logger,
		gen:      shortcode.Generate,
		now:      time.Now,
	}
}

// Export serializes the container's active bins with photos embedded as
// base64. A photo whose backing file cannot be read is logged and omitted:
// a partial export beats a failed one.
func (s *PortService) Export(ctx context.Context, containerID string) (*domain.Snapshot, error) {
	container, err := store.NewContainerStore(s.db).GetByID(ctx, containerID)
	if err != nil {
		return nil, err
	}
	if container == nil {
		return nil, domain.ErrNotFound
	}

	bins, err := store.NewBinStore(s.db).ListActive(ctx, containerID)
	if err != nil {
		return nil, err
	}

	photos := store.NewPhotoStore(s.db)
	snap := &domain.Snapshot{
		Version:       2,
		ExportedAt:    s.now().UTC().Format(time.RFC3339),
		ContainerName: container.Name,
		Bins:          make([]domain.SnapshotBin, 0, len(bins)),
	}

	for _, bin := range bins {
		entry := domain.SnapshotBin{
			ID:        bin.ID,
			Name:      bin.Name,
			AreaID:    bin.AreaID,
			Items:     bin.Items,
			Notes:     bin.Notes,
			Tags:      bin.Tags,
			Icon:      bin.Icon,
			Color:     bin.Color,
			ShortCode: bin.ShortCode,
			CreatedAt: bin.CreatedAt.UTC().Format(time.RFC3339),
			UpdatedAt: bin.UpdatedAt.UTC().Format(time.RFC3339),
		}

		binPhotos, err := photos.ListByBin(ctx, bin.ID)
		if err != nil {
			return nil, err
		}
		for _, p := range binPhotos {
			data, err := s.blob.Get(ctx, p.StoragePath)
			if err != nil {
				s.logger.Warn("export: photo file unreadable, omitting",
					"photo_id", p.ID, "path", p.StoragePath, "error", err)
				continue
			}
			entry.Photos = append(entry.Photos, domain.SnapshotPhoto{
				ID:       p.ID,
				Filename: p.Filename,
				MimeType: p.MimeType,
				Data:     data,
			})
		}
		snap.Bins = append(snap.Bins, entry)
	}
	return snap, nil
}

// Import loads a snapshot into the container inside one transaction. Any
// unexpected error rolls back every row and best-effort removes every blob
// file this call wrote. Expected per-item conditions (duplicate bin in merge
// mode, orphan photo) are counted as skips, not errors.
func (s *PortService) Import(ctx context.Context, actor domain.Actor, containerID string, snap *domain.Snapshot, mode domain.ImportMode) (*domain.ImportResult, error) {
	if mode != domain.ImportMerge && mode != domain.ImportReplace {
		return nil, domain.Validationf("unknown import mode %q", mode)
	}
	if snap == nil {
		return nil, domain.Validationf("snapshot is required")
	}
	if snap.Version != 1 && snap.Version != 2 {
		return nil, domain.Validationf("unsupported snapshot version %d", snap.Version)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}

	var written []string       // blob paths written by this call
	batch := map[string]bool{} // bin ids inserted by this call
	fail := func(err error) (*domain.ImportResult, error) {
		_ = tx.Rollback()
		s.discardWritten(ctx, written, batch)
		return nil, err
	}

	containers := store.NewContainerStore(tx)
	bins := store.NewBinStore(tx)
	photos := store.NewPhotoStore(tx)

	container, err := containers.GetByID(ctx, containerID)
	if err != nil {
		return fail(err)
	}
	if container == nil {
		return fail(domain.ErrNotFound)
	}

	// In replace mode the rows go now (inside the transaction); their files
	// go only after a successful commit.
	var replacedPaths, replacedBins []string
	if mode == domain.ImportReplace {
		if replacedPaths, err = photos.ListPathsByContainer(ctx, containerID); err != nil {
			return fail(err)
		}
		if replacedBins, err = bins.ListIDsByContainer(ctx, containerID); err != nil {
			return fail(err)
		}
		if err := bins.DeleteByContainer(ctx, containerID); err != nil {
			return fail(err)
		}
	}

	now := s.now().UTC()
	res := &domain.ImportResult{}

	for i := range snap.Bins {
		sb := &snap.Bins[i]

		if mode == domain.ImportMerge && sb.ID != "" {
			exists, err := bins.Exists(ctx, sb.ID)
			if err != nil {
				return fail(err)
			}
			if exists {
				res.BinsSkipped++
				res.PhotosSkipped += len(sb.Photos)
				continue
			}
		}

		items, notes := sb.Items, sb.Notes
		if snap.Version == 1 {
			// Legacy bins carry one freeform contents blob instead of the
			// items/notes split.
			items, notes = splitContents(sb.Contents), ""
		}

		bin := &domain.Bin{
			ID:          sb.ID,
			ContainerID: containerID,
			Name:        sb.Name,
			AreaID:      sb.AreaID,
			Items:       items,
			Notes:       notes,
			Tags:        normalizeTags(sb.Tags),
			Icon:        sb.Icon,
			Color:       sb.Color,
			CreatedBy:   actor.ID,
			CreatedAt:   parseSnapshotTime(sb.CreatedAt, now),
			UpdatedAt:   parseSnapshotTime(sb.UpdatedAt, now),
		}
		if bin.ID == "" {
			bin.ID = uuid.NewString()
		}

		// The snapshot's code is tried first so printed QR labels stay
		// valid; exhaustion aborts the whole import, because a
		// half-imported backup is worse than none.
		if err := insertWithCode(ctx, bins, bin, sb.ShortCode, s.gen); err != nil {
			return fail(err)
		}
		batch[bin.ID] = true
		res.BinsImported++

		for j := range sb.Photos {
			imported, err := s.importPhoto(ctx, photos, actor, bin.ID, &sb.Photos[j], now, &written)
			if err != nil {
				return fail(err)
			}
			if imported {
				res.PhotosImported++
			} else {
				res.PhotosSkipped++
			}
		}
	}

	for i := range snap.Photos {
		lp := &snap.Photos[i]
		if !batch[lp.BinID] {
			exists, err := bins.Exists(ctx, lp.BinID)
			if err != nil {
				return fail(err)
			}
			if !exists {
				// Orphan: the referenced bin exists neither in the
				// database nor in this batch.
				res.PhotosSkipped++
				continue
			}
		}
		imported, err := s.importPhoto(ctx, photos, actor, lp.BinID, &lp.SnapshotPhoto, now, &written)
		if err != nil {
			return fail(err)
		}
		if imported {
			res.PhotosImported++
		} else {
			res.PhotosSkipped++
		}
	}

	if err := tx.Commit(); err != nil {
		return fail(fmt.Errorf("failed to commit import: %w", err))
	}

	// Rows are committed; replaced files are now unreferenced and can go.
	// Paths the incoming snapshot just rewrote stay.
	writtenSet := map[string]bool{}
	for _, p := range written {
		writtenSet[p] = true
	}
	for _, p := range replacedPaths {
		if writtenSet[p] {
			continue
		}
		if err := s.blob.Delete(ctx, p); err != nil {
			s.logger.Error("import: failed to delete replaced photo file", "path", p, "error", err)
		}
	}
	for _, id := range replacedBins {
		if batch[id] {
			continue // directory was reused by the incoming snapshot
		}
		if err := s.blob.DeleteBin(ctx, id); err != nil {
			s.logger.Error("import: failed to delete replaced bin directory", "bin_id", id, "error", err)
		}
	}

	s.activity.Record(ctx, &domain.ActivityEntry{
		ContainerID: containerID,
		Actor:       actor,
		Action:      "imported",
		EntityType:  "container",
		EntityID:    containerID,
		EntityName:  container.Name,
	})
	s.logger.Info("import complete", "container_id", containerID, "mode", string(mode),
		"bins_imported", res.BinsImported, "bins_skipped", res.BinsSkipped,
		"photos_imported", res.PhotosImported, "photos_skipped", res.PhotosSkipped)
	return res, nil
}

// importPhoto decodes and stores one embedded photo. It reports false (skip)
// for payloads that cannot become a servable photo, and an error only for
// failures that must abort the import.
func (s *PortService) importPhoto(ctx context.Context, photos *store.PhotoStore, actor domain.Actor, binID string, sp *domain.SnapshotPhoto, now time.Time, written *[]string) (bool, error) {
	if len(sp.Data) == 0 {
		return false, nil
	}
	id := sp.ID
	if id == "" {
		id = uuid.NewString()
	}
	filename := sp.Filename
	if filename == "" {
		filename = id + ".jpg"
	}
	mimeType := sp.MimeType
	if mimeType == "" {
		mimeType = "image/jpeg"
	}

	path, err := s.blob.Put(ctx, binID, filename, sp.Data)
	if err != nil {
		return false, err
	}
	*written = append(*written, path)

	err = photos.Insert(ctx, &domain.Photo{
		ID:          id,
		BinID:       binID,
		Filename:    filename,
		MimeType:    mimeType,
		Size:        int64(len(sp.Data)),
		StoragePath: path,
		CreatedBy:   actor.ID,
		CreatedAt:   now,
	})
	if err != nil {
		return false, err
	}
	return true, nil
}

// discardWritten is the rollback counterpart for blob writes. The rows are
// rolled back, so a path a surviving photo row still references, or a
// directory whose bin row survived, belonged to the container before this
// call and stays; a replace-mode import of a container's own backup rewrites
// exactly those paths. Failures are logged and swallowed, and a failed check
// keeps the file: an orphan blob is recoverable, a destroyed one is not.
func (s *PortService) discardWritten(ctx context.Context, written []string, batch map[string]bool) {
	photos := store.NewPhotoStore(s.db)
	bins := store.NewBinStore(s.db)

	for _, p := range written {
		referenced, err := photos.ExistsByPath(ctx, p)
		if err != nil {
			s.logger.Error("import rollback: failed to check blob reference", "path", p, "error", err)
			continue
		}
		if referenced {
			continue
		}
		if err := s.blob.Delete(ctx, p); err != nil {
			s.logger.Error("import rollback: failed to delete blob", "path", p, "error", err)
		}
	}
	for id := range batch {
		exists, err := bins.Exists(ctx, id)
		if err != nil {
			s.logger.Error("import rollback: failed to check bin", "bin_id", id, "error", err)
			continue
		}
		if exists {
			continue
		}
		if err := s.blob.DeleteBin(ctx, id); err != nil {
			s.logger.Error("import rollback: failed to delete bin directory", "bin_id", id, "error", err)
		}
	}
}

// splitContents turns a legacy freeform contents blob into an items list:
// split on newlines, trim, drop blanks.
func splitContents(contents string) []string {
	var items []string
	for _, line := range strings.Split(contents, "\n") {
		line = strings.TrimSpace(line)
		if line != "" {
			items = append(items, line)
		}
	}
	return items
}

func parseSnapshotTime(s string, fallback time.Time) time.Time {
	if s == "" {
		return fallback
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return fallback
	}
	return t.UTC()
}
