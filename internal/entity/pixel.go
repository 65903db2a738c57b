package entity

import (
	"context"
	"encoding/json"
	"time"
)

// Pixel is a persisted cell value.
type Pixel struct {
	X     uint32 `json:"x"`
	Y     uint32 `json:"y"`
	Color Color  `json:"color"`
}

// PixelEvent is published after every accepted write.
type PixelEvent struct {
	ID        string    `json:"id"`
	Slot      uint32    `json:"slot"`
	X         uint32    `json:"x"`
	Y         uint32    `json:"y"`
	Color     string    `json:"color"`
	Timestamp time.Time `json:"timestamp"`
}

// EventHandler applies one decoded pixel event.
type EventHandler func(ctx context.Context, event PixelEvent) error

// DecodePixelEvent parses a published event and checks its color.
func DecodePixelEvent(data []byte) (PixelEvent, error) {
	var event PixelEvent
	if err := json.Unmarshal(data, &event); err != nil {
		return PixelEvent{}, err
	}
	if _, err := ParseHex(event.Color); err != nil {
		return PixelEvent{}, err
	}
	return event, nil
}

type UpdatePixelRequest struct {
	Slot     uint32   `json:"slot"`
	Position Position `json:"position"`
	Color    Color    `json:"color"`
}

type PixelResponse struct {
	X     uint32 `json:"x"`
	Y     uint32 `json:"y"`
	Color Color  `json:"color"`
	Hex   string `json:"hex"`
}

type CanvasInfo struct {
	Width    int `json:"width"`
	Height   int `json:"height"`
	TileSize int `json:"tile_size"`
	Tiles    int `json:"tiles"`
}
