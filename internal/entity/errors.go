package entity

import "errors"

var (
	// Canvas errors
	ErrOutOfRange      = errors.New("position out of range")
	ErrEncodingFailure = errors.New("canvas encoding failed")
	ErrInvalidColor    = errors.New("invalid color")

	// Render errors
	ErrUnknownFormat = errors.New("unknown image format")
	ErrTileNotFound  = errors.New("tile not found")

	// Snapshot archive errors
	ErrSnapshotNotFound = errors.New("snapshot not found")
)
