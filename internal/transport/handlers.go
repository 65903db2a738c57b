package transport

import (
	"context"

	"github.com/ds124wfegd/pixelcanvas/internal/service"
)

// HealthCheck reports whether one backing dependency is usable.
type HealthCheck func(ctx context.Context) error

type CanvasHandler struct {
	canvas    service.CanvasService
	render    service.RenderService
	snapshots service.SnapshotService
	checks    map[string]HealthCheck
}

func NewCanvasHandler(canvas service.CanvasService, render service.RenderService, snapshots service.SnapshotService, checks map[string]HealthCheck) *CanvasHandler {
	return &CanvasHandler{
		canvas:    canvas,
		render:    render,
		snapshots: snapshots,
		checks:    checks,
	}
}
