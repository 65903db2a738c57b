package worker

import (
	"bytes"
	"context"
	"time"

	"github.com/ds124wfegd/pixelcanvas/internal/database"
	"github.com/ds124wfegd/pixelcanvas/internal/entity"
	"github.com/ds124wfegd/pixelcanvas/internal/pkg/renderer"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// Snapshotter is the part of the pixel store the worker needs.
type Snapshotter interface {
	Snapshot() entity.Snapshot
}

type SnapshotWorker struct {
	store     Snapshotter
	renderer  renderer.CanvasRenderer
	repo      database.SnapshotRepository
	interval  time.Duration
	retention int
}

// NewSnapshotWorker keeps the newest retention snapshots; 0 keeps them all.
func NewSnapshotWorker(store Snapshotter, r renderer.CanvasRenderer, repo database.SnapshotRepository, interval time.Duration, retention int) *SnapshotWorker {
	return &SnapshotWorker{
		store:     store,
		renderer:  r,
		repo:      repo,
		interval:  interval,
		retention: retention,
	}
}

// Start archives a snapshot every interval until ctx is done. A non-positive
// interval disables the worker.
func (w *SnapshotWorker) Start(ctx context.Context) {
	if w.interval <= 0 {
		logrus.Info("Snapshot worker disabled")
		return
	}

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	logrus.Infof("Snapshot worker started, interval %s", w.interval)

	for {
		select {
		case <-ctx.Done():
			logrus.Info("Snapshot worker stopped")
			return
		case <-ticker.C:
			if _, err := w.Archive(); err != nil {
				logrus.Errorf("Failed to archive canvas snapshot: %v", err)
				continue
			}
			w.Prune(ctx)
		}
	}
}

// Archive renders the current canvas as PNG and stores it.
func (w *SnapshotWorker) Archive() (*entity.SnapshotRecord, error) {
	snap := w.store.Snapshot()

	data, err := w.renderer.Encode(snap, renderer.FormatPNG)
	if err != nil {
		return nil, err
	}

	record := &entity.SnapshotRecord{
		ID:        uuid.New().String(),
		Width:     snap.Width,
		Height:    snap.Height,
		Format:    renderer.FormatPNG,
		CreatedAt: time.Now().UTC(),
	}
	if err := w.repo.Save(record, bytes.NewReader(data)); err != nil {
		return nil, err
	}

	logrus.WithFields(logrus.Fields{
		"snapshot_id": record.ID,
		"bytes":       len(data),
	}).Info("Canvas snapshot archived")
	return record, nil
}

// Prune deletes archived snapshots beyond the retention count, oldest first.
func (w *SnapshotWorker) Prune(ctx context.Context) int {
	if w.retention <= 0 {
		return 0
	}

	records, err := w.repo.List()
	if err != nil {
		logrus.Errorf("Failed to list archived snapshots: %v", err)
		return 0
	}
	if len(records) <= w.retention {
		return 0
	}

	removed := 0
	for _, record := range records[w.retention:] {
		select {
		case <-ctx.Done():
			logrus.Info("Snapshot pruning interrupted by context cancellation")
			return removed
		default:
		}

		if err := w.repo.Delete(record.ID); err != nil {
			logrus.Errorf("Failed to delete snapshot %s: %v", record.ID, err)
			continue
		}
		removed++
	}

	logrus.Infof("Snapshot pruning completed: %d removed, %d kept", removed, w.retention)
	return removed
}
