package service

import (
	"context"
	"io"

	"github.com/ds124wfegd/pixelcanvas/internal/entity"
)

// CanvasService is the write side: update_pixel and single-cell reads.
type CanvasService interface {
	UpdatePixel(ctx context.Context, slot uint32, pos entity.Position, color entity.Color) error
	GetPixel(pos entity.Position) (entity.Color, error)
	Info() entity.CanvasInfo
	Restore(ctx context.Context) (int, error)
}

// RenderService answers http_request calls with rendered canvas images.
type RenderService interface {
	HandleRequest(req entity.Request) entity.Response
}

// SnapshotService reads the archive the snapshot worker fills.
type SnapshotService interface {
	ListSnapshots() ([]*entity.SnapshotRecord, error)
	OpenSnapshot(id string) (*entity.SnapshotRecord, io.ReadCloser, error)
}

type EventPublisher interface {
	Publish(ctx context.Context, event entity.PixelEvent) error
	Close() error
}
