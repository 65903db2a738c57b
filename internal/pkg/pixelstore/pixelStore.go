// Package pixelstore holds the authoritative canvas grid.
package pixelstore

import (
	"fmt"
	"sync/atomic"

	"github.com/ds124wfegd/pixelcanvas/internal/entity"
)

// Store is a fixed-size grid of colors. Each cell is a packed RGBA value in
// its own atomic slot, so writers to different cells never contend and
// writers to the same cell are linearized (last write wins).
type Store struct {
	width  int
	height int
	cells  []atomic.Uint32
}

func NewStore(width, height int, fill entity.Color) (*Store, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("invalid canvas size %dx%d", width, height)
	}

	s := &Store{
		width:  width,
		height: height,
		cells:  make([]atomic.Uint32, width*height),
	}

	packed := fill.Pack()
	if packed != 0 {
		for i := range s.cells {
			s.cells[i].Store(packed)
		}
	}
	return s, nil
}

func (s *Store) Width() int  { return s.width }
func (s *Store) Height() int { return s.height }

// UpdatePixel replaces the color at pos. slot is caller bookkeeping and does
// not affect where the color lands.
func (s *Store) UpdatePixel(slot uint32, pos entity.Position, c entity.Color) error {
	i, err := s.index(pos)
	if err != nil {
		return err
	}
	s.cells[i].Store(c.Pack())
	return nil
}

func (s *Store) Get(pos entity.Position) (entity.Color, error) {
	i, err := s.index(pos)
	if err != nil {
		return entity.Color{}, err
	}
	return entity.UnpackColor(s.cells[i].Load()), nil
}

// Snapshot copies the grid row by row. Each cell is read atomically; writes
// landing during the copy may or may not be included.
func (s *Store) Snapshot() entity.Snapshot {
	pixels := make([]entity.Color, len(s.cells))
	for i := range s.cells {
		pixels[i] = entity.UnpackColor(s.cells[i].Load())
	}
	return entity.Snapshot{
		Width:  s.width,
		Height: s.height,
		Pixels: pixels,
	}
}

func (s *Store) index(pos entity.Position) (int, error) {
	if uint64(pos.X) >= uint64(s.width) || uint64(pos.Y) >= uint64(s.height) {
		return 0, fmt.Errorf("%w: (%d,%d) outside %dx%d", entity.ErrOutOfRange, pos.X, pos.Y, s.width, s.height)
	}
	return int(pos.Y)*s.width + int(pos.X), nil
}
