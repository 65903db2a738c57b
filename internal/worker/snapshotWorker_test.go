package worker

import (
	"context"
	"image/png"
	"strings"
	"testing"
	"time"

	"github.com/ds124wfegd/pixelcanvas/internal/database"
	"github.com/ds124wfegd/pixelcanvas/internal/entity"
	"github.com/ds124wfegd/pixelcanvas/internal/pkg/pixelstore"
	"github.com/ds124wfegd/pixelcanvas/internal/pkg/renderer"
	"github.com/ds124wfegd/pixelcanvas/internal/pkg/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSnapshotWorkerArchive(t *testing.T) {
	store, err := pixelstore.NewStore(6, 4, entity.Color{})
	require.NoError(t, err)
	red := entity.Color{R: 255, A: 255}
	require.NoError(t, store.UpdatePixel(0, entity.Position{X: 5, Y: 3}, red))

	fs := storage.NewFileStorage(t.TempDir())
	repo := database.NewSnapshotRepository(fs)
	w := NewSnapshotWorker(store, renderer.NewCanvasRenderer(), repo, time.Minute, 0)

	record, err := w.Archive()
	require.NoError(t, err)
	assert.Equal(t, 6, record.Width)
	assert.Equal(t, 4, record.Height)
	assert.Equal(t, "png", record.Format)

	r, err := repo.Open(record.ID)
	require.NoError(t, err)
	defer r.Close()

	img, err := png.Decode(r)
	require.NoError(t, err)
	assert.Equal(t, red, entity.FromColor(img.At(5, 3)))
	assert.Equal(t, entity.Color{}, entity.FromColor(img.At(0, 0)))

	names, err := fs.List("snapshots")
	require.NoError(t, err)
	assert.Len(t, names, 1)
}

func TestSnapshotWorkerStartStops(t *testing.T) {
	store, err := pixelstore.NewStore(2, 2, entity.Color{})
	require.NoError(t, err)
	fs := storage.NewFileStorage(t.TempDir())
	w := NewSnapshotWorker(store, renderer.NewCanvasRenderer(), database.NewSnapshotRepository(fs), 10*time.Millisecond, 2)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		w.Start(ctx)
		close(done)
	}()

	require.Eventually(t, func() bool {
		names, _ := fs.List("snapshots")
		return len(names) > 0
	}, 2*time.Second, 10*time.Millisecond)

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("worker did not stop")
	}
}

func TestSnapshotWorkerDisabled(t *testing.T) {
	store, err := pixelstore.NewStore(2, 2, entity.Color{})
	require.NoError(t, err)
	w := NewSnapshotWorker(store, renderer.NewCanvasRenderer(), nil, 0, 0)

	// returns immediately without touching the repository
	w.Start(context.Background())
}

func TestSnapshotWorkerPrune(t *testing.T) {
	store, err := pixelstore.NewStore(2, 2, entity.Color{})
	require.NoError(t, err)
	repo := database.NewSnapshotRepository(storage.NewFileStorage(t.TempDir()))

	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	for i, id := range []string{"oldest", "middle", "newest"} {
		record := &entity.SnapshotRecord{ID: id, Width: 2, Height: 2, Format: "png", CreatedAt: base.Add(time.Duration(i) * time.Minute)}
		require.NoError(t, repo.Save(record, strings.NewReader("png")))
	}

	w := NewSnapshotWorker(store, renderer.NewCanvasRenderer(), repo, time.Minute, 2)
	assert.Equal(t, 1, w.Prune(context.Background()))

	records, err := repo.List()
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "newest", records[0].ID)
	assert.Equal(t, "middle", records[1].ID)

	_, err = repo.FindByID("oldest")
	assert.ErrorIs(t, err, entity.ErrSnapshotNotFound)

	// nothing left over the limit
	assert.Equal(t, 0, w.Prune(context.Background()))

	unlimited := NewSnapshotWorker(store, renderer.NewCanvasRenderer(), repo, time.Minute, 0)
	assert.Equal(t, 0, unlimited.Prune(context.Background()))
}
