package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/ds124wfegd/pixelcanvas/internal/entity"
	"github.com/ds124wfegd/pixelcanvas/internal/pkg/pixelstore"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRepository struct {
	mu      sync.Mutex
	saved   []entity.Pixel
	stored  []entity.Pixel
	saveErr error
	loadErr error
}

func (r *fakeRepository) SavePixel(ctx context.Context, pixel entity.Pixel) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.saved = append(r.saved, pixel)
	return r.saveErr
}

func (r *fakeRepository) LoadPixels(ctx context.Context) ([]entity.Pixel, error) {
	return r.stored, r.loadErr
}

func (r *fakeRepository) Close() error { return nil }

type fakePublisher struct {
	mu     sync.Mutex
	events []entity.PixelEvent
	err    error
}

func (p *fakePublisher) Publish(ctx context.Context, event entity.PixelEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return p.err
}

func (p *fakePublisher) Close() error { return nil }

// gatedRepository blocks the first SavePixel until release is closed.
type gatedRepository struct {
	fakeRepository
	once    sync.Once
	entered chan struct{}
	release chan struct{}
}

func (r *gatedRepository) SavePixel(ctx context.Context, pixel entity.Pixel) error {
	first := false
	r.once.Do(func() { first = true })
	if first {
		close(r.entered)
		<-r.release
	}
	return r.fakeRepository.SavePixel(ctx, pixel)
}

func newTestCanvas(t *testing.T, w, h int) (*pixelstore.Store, *fakeRepository, *fakePublisher, CanvasService) {
	t.Helper()
	store, err := pixelstore.NewStore(w, h, entity.Color{})
	require.NoError(t, err)
	repo := &fakeRepository{}
	pub := &fakePublisher{}
	return store, repo, pub, NewCanvasService(store, repo, pub, 2)
}

func TestCanvasServiceUpdatePixel(t *testing.T) {
	store, repo, pub, svc := newTestCanvas(t, 4, 4)
	red := entity.Color{R: 255, A: 255}

	require.NoError(t, svc.UpdatePixel(context.Background(), 7, entity.Position{X: 1, Y: 2}, red))

	assert.Equal(t, red, store.Snapshot().At(1, 2))
	assert.Equal(t, []entity.Pixel{{X: 1, Y: 2, Color: red}}, repo.saved)
	require.Len(t, pub.events, 1)
	assert.Equal(t, uint32(7), pub.events[0].Slot)
	assert.Equal(t, "#ff0000ff", pub.events[0].Color)
	assert.NotEmpty(t, pub.events[0].ID)

	got, err := svc.GetPixel(entity.Position{X: 1, Y: 2})
	require.NoError(t, err)
	assert.Equal(t, red, got)
}

func TestCanvasServiceOutOfRange(t *testing.T) {
	store, repo, pub, svc := newTestCanvas(t, 4, 4)
	before := store.Snapshot()

	err := svc.UpdatePixel(context.Background(), 0, entity.Position{X: 4, Y: 0}, entity.Color{A: 255})
	assert.ErrorIs(t, err, entity.ErrOutOfRange)
	assert.Equal(t, before, store.Snapshot())
	assert.Empty(t, repo.saved)
	assert.Empty(t, pub.events)
}

// TestCanvasServiceInfrastructureFailures checks that a failing backend does
// not reject a write the grid already accepted
func TestCanvasServiceInfrastructureFailures(t *testing.T) {
	store, repo, pub, svc := newTestCanvas(t, 2, 2)
	repo.saveErr = errors.New("redis down")
	pub.err = errors.New("kafka down")

	c := entity.Color{B: 200, A: 255}
	require.NoError(t, svc.UpdatePixel(context.Background(), 0, entity.Position{X: 1, Y: 1}, c))
	assert.Equal(t, c, store.Snapshot().At(1, 1))
}

// TestCanvasServiceSameCellOrder checks that the repository and the event
// stream end on the color the grid ends on when two writers race on a cell
func TestCanvasServiceSameCellOrder(t *testing.T) {
	store, err := pixelstore.NewStore(2, 2, entity.Color{})
	require.NoError(t, err)
	repo := &gatedRepository{entered: make(chan struct{}), release: make(chan struct{})}
	pub := &fakePublisher{}
	svc := NewCanvasService(store, repo, pub, 2)

	pos := entity.Position{X: 1, Y: 0}
	red := entity.Color{R: 255, A: 255}
	blue := entity.Color{B: 255, A: 255}

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		assert.NoError(t, svc.UpdatePixel(context.Background(), 0, pos, red))
	}()
	<-repo.entered

	go func() {
		defer wg.Done()
		assert.NoError(t, svc.UpdatePixel(context.Background(), 1, pos, blue))
	}()
	// give the second writer time to overtake if nothing orders it
	time.Sleep(50 * time.Millisecond)
	close(repo.release)
	wg.Wait()

	last := store.Snapshot().At(1, 0)
	require.Len(t, repo.saved, 2)
	require.Len(t, pub.events, 2)
	assert.Equal(t, last, repo.saved[1].Color)
	assert.Equal(t, last.Hex(), pub.events[1].Color)

	// a restart replays what was saved last
	restored, err := pixelstore.NewStore(2, 2, entity.Color{})
	require.NoError(t, err)
	replay := &fakeRepository{stored: repo.saved}
	_, err = NewCanvasService(restored, replay, pub, 2).Restore(context.Background())
	require.NoError(t, err)
	assert.Equal(t, last, restored.Snapshot().At(1, 0))
}

func TestCanvasServiceRestore(t *testing.T) {
	store, repo, _, svc := newTestCanvas(t, 3, 3)
	repo.stored = []entity.Pixel{
		{X: 0, Y: 0, Color: entity.Color{R: 1, A: 255}},
		{X: 2, Y: 2, Color: entity.Color{G: 2, A: 255}},
		{X: 9, Y: 9, Color: entity.Color{B: 3, A: 255}},
	}

	applied, err := svc.Restore(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, applied)

	snap := store.Snapshot()
	assert.Equal(t, entity.Color{R: 1, A: 255}, snap.At(0, 0))
	assert.Equal(t, entity.Color{G: 2, A: 255}, snap.At(2, 2))

	repo.loadErr = errors.New("boom")
	_, err = svc.Restore(context.Background())
	assert.Error(t, err)
}

func TestCanvasServiceInfo(t *testing.T) {
	_, _, _, svc := newTestCanvas(t, 5, 4)
	assert.Equal(t, entity.CanvasInfo{Width: 5, Height: 4, TileSize: 2, Tiles: 6}, svc.Info())
}
