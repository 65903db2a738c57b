package database

import (
	"context"
	"io"

	"github.com/ds124wfegd/pixelcanvas/internal/entity"
	"github.com/ds124wfegd/pixelcanvas/internal/pkg/storage"
)

// PixelRepository persists the latest color of every written cell.
type PixelRepository interface {
	SavePixel(ctx context.Context, pixel entity.Pixel) error
	LoadPixels(ctx context.Context) ([]entity.Pixel, error)
	Close() error
}

type SnapshotRepository interface {
	Save(record *entity.SnapshotRecord, image io.Reader) error
	FindByID(id string) (*entity.SnapshotRecord, error)
	// List returns every archived snapshot, newest first.
	List() ([]*entity.SnapshotRecord, error)
	Open(id string) (io.ReadCloser, error)
	Delete(id string) error
}

type fileSnapshotRepository struct {
	storage storage.FileStorage
}
