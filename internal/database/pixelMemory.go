package database

import (
	"context"

	"github.com/ds124wfegd/pixelcanvas/internal/entity"
)

// memoryPixelRepository is used when no storage driver is configured: the
// in-process store is the only copy of the canvas.
type memoryPixelRepository struct{}

func NewMemoryPixelRepository() PixelRepository {
	return &memoryPixelRepository{}
}

func (r *memoryPixelRepository) SavePixel(ctx context.Context, pixel entity.Pixel) error {
	return nil
}

func (r *memoryPixelRepository) LoadPixels(ctx context.Context) ([]entity.Pixel, error) {
	return nil, nil
}

func (r *memoryPixelRepository) Close() error {
	return nil
}
