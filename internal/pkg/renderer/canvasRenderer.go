// Package renderer turns canvas snapshots into image bytes.
package renderer

import (
	"bytes"
	"fmt"
	"image"
	"image/png"

	"github.com/disintegration/imaging"
	"github.com/ds124wfegd/pixelcanvas/internal/entity"
	"golang.org/x/image/bmp"
)

const (
	FormatPNG = "png"
	FormatBMP = "bmp"
)

type CanvasRenderer interface {
	Encode(snap entity.Snapshot, format string) ([]byte, error)
	Overview(snap entity.Snapshot, size int) ([]byte, error)
	Tile(snap entity.Snapshot, idx, tileSize int) ([]byte, error)
}

type canvasRenderer struct {
	encoder *png.Encoder
}

func NewCanvasRenderer() CanvasRenderer {
	return &canvasRenderer{encoder: &png.Encoder{CompressionLevel: png.BestSpeed}}
}

func ContentType(format string) string {
	switch format {
	case FormatPNG:
		return "image/png"
	case FormatBMP:
		return "image/bmp"
	default:
		return "application/octet-stream"
	}
}

// ToImage copies the snapshot into a non-premultiplied RGBA image.
func ToImage(snap entity.Snapshot) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, snap.Width, snap.Height))
	for i, c := range snap.Pixels {
		o := i * 4
		img.Pix[o] = c.R
		img.Pix[o+1] = c.G
		img.Pix[o+2] = c.B
		img.Pix[o+3] = c.A
	}
	return img
}

func (r *canvasRenderer) Encode(snap entity.Snapshot, format string) ([]byte, error) {
	return r.encode(ToImage(snap), format)
}

// Overview scales the canvas to fit a size×size box with nearest-neighbour
// sampling, so every overview pixel is a real canvas color.
func (r *canvasRenderer) Overview(snap entity.Snapshot, size int) ([]byte, error) {
	img := ToImage(snap)
	if size > 0 && (snap.Width != size || snap.Height != size) {
		w, h := fitBox(snap.Width, snap.Height, size)
		return r.encode(imaging.Resize(img, w, h, imaging.NearestNeighbor), FormatPNG)
	}
	return r.encode(img, FormatPNG)
}

// Tile crops tile idx out of the canvas. Tiles are numbered row-major; edge
// tiles are clipped to the canvas.
func (r *canvasRenderer) Tile(snap entity.Snapshot, idx, tileSize int) ([]byte, error) {
	cols, rows := TileGrid(snap.Width, snap.Height, tileSize)
	if idx < 0 || idx >= cols*rows {
		return nil, fmt.Errorf("%w: %d", entity.ErrTileNotFound, idx)
	}

	x := (idx % cols) * tileSize
	y := (idx / cols) * tileSize
	tile := imaging.Crop(ToImage(snap), image.Rect(x, y, x+tileSize, y+tileSize))
	return r.encode(tile, FormatPNG)
}

// TileGrid returns how many tiles cover the canvas horizontally and vertically.
func TileGrid(width, height, tileSize int) (cols, rows int) {
	if tileSize <= 0 {
		return 0, 0
	}
	return (width + tileSize - 1) / tileSize, (height + tileSize - 1) / tileSize
}

func (r *canvasRenderer) encode(img image.Image, format string) ([]byte, error) {
	var buf bytes.Buffer
	var err error

	switch format {
	case FormatPNG:
		err = r.encoder.Encode(&buf, img)
	case FormatBMP:
		err = bmp.Encode(&buf, img)
	default:
		return nil, fmt.Errorf("%w: %s", entity.ErrUnknownFormat, format)
	}

	if err != nil {
		return nil, fmt.Errorf("%w: %v", entity.ErrEncodingFailure, err)
	}
	return buf.Bytes(), nil
}

func fitBox(width, height, size int) (int, int) {
	if width >= height {
		h := height * size / width
		if h < 1 {
			h = 1
		}
		return size, h
	}
	w := width * size / height
	if w < 1 {
		w = 1
	}
	return w, size
}
