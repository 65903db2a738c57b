package database

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/ds124wfegd/pixelcanvas/internal/entity"
)

type PixelPostgresRepository struct {
	db *sql.DB
}

func NewPixelPostgresRepository(db *sql.DB) *PixelPostgresRepository {
	return &PixelPostgresRepository{db: db}
}

func (r *PixelPostgresRepository) SavePixel(ctx context.Context, pixel entity.Pixel) error {
	query := `
		INSERT INTO pixels (x, y, color, updated_at)
		VALUES ($1, $2, $3, NOW())
		ON CONFLICT (x, y) DO UPDATE SET color = EXCLUDED.color, updated_at = EXCLUDED.updated_at`

	_, err := r.db.ExecContext(ctx, query, int64(pixel.X), int64(pixel.Y), int64(pixel.Color.Pack()))
	if err != nil {
		return fmt.Errorf("failed to save pixel: %w", err)
	}
	return nil
}

func (r *PixelPostgresRepository) LoadPixels(ctx context.Context) ([]entity.Pixel, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT x, y, color FROM pixels`)
	if err != nil {
		return nil, fmt.Errorf("failed to load pixels: %w", err)
	}
	defer rows.Close()

	var pixels []entity.Pixel
	for rows.Next() {
		var x, y, packed int64
		if err := rows.Scan(&x, &y, &packed); err != nil {
			return nil, fmt.Errorf("failed to scan pixel: %w", err)
		}
		pixels = append(pixels, entity.Pixel{
			X:     uint32(x),
			Y:     uint32(y),
			Color: entity.UnpackColor(uint32(packed)),
		})
	}

	return pixels, rows.Err()
}

func (r *PixelPostgresRepository) Close() error {
	return r.db.Close()
}
