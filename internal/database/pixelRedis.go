package database

import (
	"context"
	"fmt"

	"github.com/ds124wfegd/pixelcanvas/internal/entity"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

// PixelRedisRepository keeps one hash field per written cell: "x:y" -> "#rrggbbaa".
type PixelRedisRepository struct {
	client *redis.Client
	key    string
}

func NewPixelRedisRepository(ctx context.Context, client *redis.Client, key string) (*PixelRedisRepository, error) {
	// Проверка подключения
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, err
	}

	return &PixelRedisRepository{
		client: client,
		key:    key,
	}, nil
}

func (r *PixelRedisRepository) SavePixel(ctx context.Context, pixel entity.Pixel) error {
	return r.client.HSet(ctx, r.key, pixelField(pixel.X, pixel.Y), pixel.Color.Hex()).Err()
}

func (r *PixelRedisRepository) LoadPixels(ctx context.Context) ([]entity.Pixel, error) {
	fields, err := r.client.HGetAll(ctx, r.key).Result()
	if err != nil {
		if err == redis.Nil {
			return nil, nil
		}
		return nil, err
	}

	pixels := make([]entity.Pixel, 0, len(fields))
	for field, value := range fields {
		pixel, err := parsePixel(field, value)
		if err != nil {
			logrus.WithField("field", field).Warnf("skipping malformed pixel: %v", err)
			continue
		}
		pixels = append(pixels, pixel)
	}

	return pixels, nil
}

func (r *PixelRedisRepository) Close() error {
	return r.client.Close()
}

func pixelField(x, y uint32) string {
	return fmt.Sprintf("%d:%d", x, y)
}

func parsePixel(field, value string) (entity.Pixel, error) {
	var x, y uint32
	if n, err := fmt.Sscanf(field, "%d:%d", &x, &y); n != 2 || err != nil {
		return entity.Pixel{}, fmt.Errorf("bad coordinates %q", field)
	}

	c, err := entity.ParseHex(value)
	if err != nil {
		return entity.Pixel{}, err
	}

	return entity.Pixel{X: x, Y: y, Color: c}, nil
}
