package s3blob

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/ChinmayGopal931/hypurr-rekt-sub001/internal/domain"
)

// settledSource is the slice of the settled-position store the archiver needs.
type settledSource interface {
	ListBefore(ctx context.Context, before time.Time) ([]domain.Position, error)
	DeleteBefore(ctx context.Context, before time.Time) (int64, error)
}

// Archiver exports settled positions older than a cutoff to object storage
// as JSON Lines, then prunes the archived rows from the store.
type Archiver struct {
	store  settledSource
	writer domain.BlobWriter
	prune  bool
	logger *slog.Logger
}

// NewArchiver creates an Archiver. When prune is true, archived rows are
// deleted from the store after a successful upload.
func NewArchiver(store settledSource, writer domain.BlobWriter, prune bool, logger *slog.Logger) *Archiver {
	return &Archiver{
		store:  store,
		writer: writer,
		prune:  prune,
		logger: logger.With(slog.String("component", "archiver")),
	}
}

// ArchiveSettled uploads all settled positions recorded before the cutoff
// and returns the number of positions archived. A run with nothing to
// archive uploads no object and returns zero.
func (a *Archiver) ArchiveSettled(ctx context.Context, before time.Time) (int64, error) {
	positions, err := a.store.ListBefore(ctx, before)
	if err != nil {
		return 0, fmt.Errorf("s3blob: list settled positions: %w", err)
	}
	if len(positions) == 0 {
		a.logger.Info("no settled positions to archive",
			slog.Time("before", before))
		return 0, nil
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	for _, pos := range positions {
		if err := enc.Encode(pos); err != nil {
			return 0, fmt.Errorf("s3blob: encode position %s: %w", pos.ID, err)
		}
	}

	path := archivePath(before)
	if err := a.writer.Put(ctx, path, &buf, "application/x-ndjson"); err != nil {
		return 0, err
	}

	a.logger.Info("archived settled positions",
		slog.String("path", path),
		slog.Int("count", len(positions)))

	if a.prune {
		deleted, err := a.store.DeleteBefore(ctx, before)
		if err != nil {
			// Upload already happened; the next run re-archives the
			// same rows under a new path rather than losing data.
			return int64(len(positions)), fmt.Errorf("s3blob: prune settled positions: %w", err)
		}
		a.logger.Info("pruned archived positions", slog.Int64("deleted", deleted))
	}

	return int64(len(positions)), nil
}

// archivePath builds the object key for an archive run, keyed by the cutoff
// so repeated runs with the same cutoff overwrite rather than accumulate.
func archivePath(before time.Time) string {
	return fmt.Sprintf("archive/settled/%s.jsonl", before.UTC().Format("2006-01-02T15-04-05"))
}

var _ domain.Archiver = (*Archiver)(nil)
