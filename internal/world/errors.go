package world

import (
	"errors"

	"github.com/arenashooter/arena/internal/data"
)

var (
	// ErrNotFound means a handle does not resolve to a live object.
	ErrNotFound = errors.New("object not found")
	// ErrOutOfBounds means a spawn position lies outside the map.
	ErrOutOfBounds = errors.New("position out of bounds")
	// ErrUnknownConfig is re-exported so callers need only this package.
	ErrUnknownConfig = data.ErrUnknownConfig
)
