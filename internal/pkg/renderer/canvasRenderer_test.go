package renderer

import (
	"bytes"
	"image"
	"image/png"
	"testing"

	"github.com/ds124wfegd/pixelcanvas/internal/entity"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/image/bmp"
)

// TestEncodePNGRoundTrip encodes a canvas and decodes it back cell by cell
func TestEncodePNGRoundTrip(t *testing.T) {
	tests := []struct {
		name string
		snap entity.Snapshot
	}{
		{
			name: "transparent with one red pixel",
			snap: patterned(4, 4, func(x, y int) entity.Color {
				if x == 1 && y == 2 {
					return entity.Color{R: 255, A: 255}
				}
				return entity.Color{}
			}),
		},
		{
			name: "opaque gradient",
			snap: patterned(16, 9, func(x, y int) entity.Color {
				return entity.Color{R: uint8(x * 16), G: uint8(y * 28), B: 77, A: 255}
			}),
		},
		{
			name: "mixed alpha",
			snap: patterned(7, 3, func(x, y int) entity.Color {
				return entity.Color{R: uint8(x * 30), G: uint8(y * 80), B: 200, A: uint8(x*36 + y)}
			}),
		},
	}

	r := NewCanvasRenderer()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data, err := r.Encode(tt.snap, FormatPNG)
			require.NoError(t, err)

			img, err := png.Decode(bytes.NewReader(data))
			require.NoError(t, err)
			assert.Equal(t, tt.snap, fromImage(img))
		})
	}
}

func TestEncodeBMP(t *testing.T) {
	snap := patterned(5, 3, func(x, y int) entity.Color {
		return entity.Color{R: uint8(x * 50), G: uint8(y * 100), B: 10, A: 255}
	})

	data, err := NewCanvasRenderer().Encode(snap, FormatBMP)
	require.NoError(t, err)
	require.True(t, bytes.HasPrefix(data, []byte("BM")))

	img, err := bmp.Decode(bytes.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, 5, img.Bounds().Dx())
	assert.Equal(t, 3, img.Bounds().Dy())
	assert.Equal(t, snap.At(4, 2), entity.FromColor(img.At(4, 2)))
}

func TestEncodeUnknownFormat(t *testing.T) {
	_, err := NewCanvasRenderer().Encode(patterned(1, 1, solid(entity.Color{})), "tiff")
	assert.ErrorIs(t, err, entity.ErrUnknownFormat)
}

func TestOverview(t *testing.T) {
	tests := []struct {
		name          string
		width, height int
		size          int
		wantW, wantH  int
	}{
		{name: "square downscale", width: 64, height: 64, size: 16, wantW: 16, wantH: 16},
		{name: "landscape", width: 40, height: 20, size: 16, wantW: 16, wantH: 8},
		{name: "portrait", width: 10, height: 50, size: 25, wantW: 5, wantH: 25},
		{name: "already square at size", width: 8, height: 8, size: 8, wantW: 8, wantH: 8},
		{name: "size disabled", width: 12, height: 6, size: 0, wantW: 12, wantH: 6},
	}

	r := NewCanvasRenderer()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := entity.Color{R: 9, G: 99, B: 199, A: 255}
			data, err := r.Overview(patterned(tt.width, tt.height, solid(c)), tt.size)
			require.NoError(t, err)

			img, err := png.Decode(bytes.NewReader(data))
			require.NoError(t, err)
			assert.Equal(t, tt.wantW, img.Bounds().Dx())
			assert.Equal(t, tt.wantH, img.Bounds().Dy())
			assert.Equal(t, c, entity.FromColor(img.At(0, 0)))
		})
	}
}

func TestTile(t *testing.T) {
	snap := patterned(10, 7, func(x, y int) entity.Color {
		return entity.Color{R: uint8(x), G: uint8(y), A: 255}
	})
	r := NewCanvasRenderer()

	cols, rows := TileGrid(10, 7, 4)
	assert.Equal(t, 3, cols)
	assert.Equal(t, 2, rows)

	tests := []struct {
		name         string
		idx          int
		wantW, wantH int
		originX      int
		originY      int
	}{
		{name: "first tile", idx: 0, wantW: 4, wantH: 4, originX: 0, originY: 0},
		{name: "right edge tile", idx: 2, wantW: 2, wantH: 4, originX: 8, originY: 0},
		{name: "bottom row", idx: 4, wantW: 4, wantH: 3, originX: 4, originY: 4},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data, err := r.Tile(snap, tt.idx, 4)
			require.NoError(t, err)

			img, err := png.Decode(bytes.NewReader(data))
			require.NoError(t, err)
			b := img.Bounds()
			assert.Equal(t, tt.wantW, b.Dx())
			assert.Equal(t, tt.wantH, b.Dy())
			assert.Equal(t, snap.At(tt.originX, tt.originY), entity.FromColor(img.At(b.Min.X, b.Min.Y)))
		})
	}

	for _, idx := range []int{-1, 6, 100} {
		_, err := r.Tile(snap, idx, 4)
		assert.ErrorIs(t, err, entity.ErrTileNotFound)
	}
}

func TestTileGridDisabled(t *testing.T) {
	cols, rows := TileGrid(10, 10, 0)
	assert.Zero(t, cols)
	assert.Zero(t, rows)
}

func patterned(width, height int, fn func(x, y int) entity.Color) entity.Snapshot {
	pixels := make([]entity.Color, 0, width*height)
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			pixels = append(pixels, fn(x, y))
		}
	}
	return entity.Snapshot{Width: width, Height: height, Pixels: pixels}
}

func solid(c entity.Color) func(x, y int) entity.Color {
	return func(int, int) entity.Color { return c }
}

// fromImage converts a decoded image back into a snapshot
func fromImage(img image.Image) entity.Snapshot {
	b := img.Bounds()
	return patterned(b.Dx(), b.Dy(), func(x, y int) entity.Color {
		return entity.FromColor(img.At(b.Min.X+x, b.Min.Y+y))
	})
}
