package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/ds124wfegd/pixelcanvas/internal/database"
	"github.com/ds124wfegd/pixelcanvas/internal/entity"
	"github.com/ds124wfegd/pixelcanvas/internal/pkg/pixelstore"
	"github.com/ds124wfegd/pixelcanvas/internal/pkg/renderer"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// cellLocks is the number of mutex stripes that order writes to one cell
const cellLocks = 256

type canvasService struct {
	store     *pixelstore.Store
	repo      database.PixelRepository
	publisher EventPublisher
	tileSize  int

	// a cell's store write, save and publish run under the same stripe, so
	// the repository and the event stream see its writes in store order
	locks [cellLocks]sync.Mutex
}

func NewCanvasService(store *pixelstore.Store, repo database.PixelRepository, publisher EventPublisher, tileSize int) CanvasService {
	return &canvasService{
		store:     store,
		repo:      repo,
		publisher: publisher,
		tileSize:  tileSize,
	}
}

// UpdatePixel writes the in-memory grid first; once that succeeds the write
// is accepted. Persistence and event delivery failures are only logged.
func (s *canvasService) UpdatePixel(ctx context.Context, slot uint32, pos entity.Position, color entity.Color) error {
	mu := s.cellLock(pos)
	mu.Lock()
	defer mu.Unlock()

	if err := s.store.UpdatePixel(slot, pos, color); err != nil {
		return err
	}

	pixel := entity.Pixel{X: pos.X, Y: pos.Y, Color: color}
	if err := s.repo.SavePixel(ctx, pixel); err != nil {
		logrus.WithFields(logrus.Fields{
			"x": pos.X,
			"y": pos.Y,
		}).Errorf("failed to persist pixel: %v", err)
	}

	event := entity.PixelEvent{
		ID:        uuid.New().String(),
		Slot:      slot,
		X:         pos.X,
		Y:         pos.Y,
		Color:     color.Hex(),
		Timestamp: time.Now().UTC(),
	}
	if err := s.publisher.Publish(ctx, event); err != nil {
		logrus.WithField("event_id", event.ID).Errorf("failed to publish pixel event: %v", err)
	}

	return nil
}

func (s *canvasService) cellLock(pos entity.Position) *sync.Mutex {
	h := uint64(pos.Y)*uint64(s.store.Width()) + uint64(pos.X)
	return &s.locks[h%cellLocks]
}

func (s *canvasService) GetPixel(pos entity.Position) (entity.Color, error) {
	return s.store.Get(pos)
}

func (s *canvasService) Info() entity.CanvasInfo {
	cols, rows := renderer.TileGrid(s.store.Width(), s.store.Height(), s.tileSize)
	return entity.CanvasInfo{
		Width:    s.store.Width(),
		Height:   s.store.Height(),
		TileSize: s.tileSize,
		Tiles:    cols * rows,
	}
}

// Restore replays persisted pixels into the store and returns how many were
// applied. Pixels outside the current canvas are skipped.
func (s *canvasService) Restore(ctx context.Context) (int, error) {
	pixels, err := s.repo.LoadPixels(ctx)
	if err != nil {
		return 0, err
	}

	applied := 0
	for _, p := range pixels {
		err := s.store.UpdatePixel(0, entity.Position{X: p.X, Y: p.Y}, p.Color)
		if errors.Is(err, entity.ErrOutOfRange) {
			logrus.Warnf("skipping persisted pixel: %v", err)
			continue
		}
		if err != nil {
			return applied, err
		}
		applied++
	}

	return applied, nil
}
