package entity

import "time"

// Snapshot is a row-major copy of the canvas: Pixels[y*Width+x].
type Snapshot struct {
	Width  int
	Height int
	Pixels []Color
}

func (s Snapshot) At(x, y int) Color {
	return s.Pixels[y*s.Width+x]
}

// SnapshotRecord describes an archived canvas image.
type SnapshotRecord struct {
	ID        string    `json:"id"`
	Width     int       `json:"width"`
	Height    int       `json:"height"`
	Format    string    `json:"format"`
	Path      string    `json:"path"`
	CreatedAt time.Time `json:"created_at"`
}
