// Package render draws a ground track over a world map, either into an
// image file or interactively in the terminal.
package render

import (
	"context"
	"fmt"
	"strings"

	"github.com/star/satplot/internal/groundtrack"
)

// Renderer displays a finished track.
type Renderer interface {
	Render(ctx context.Context, track *groundtrack.Track) error
}

// Mode selects a Renderer.
type Mode string

const (
	ModeImage    Mode = "image"
	ModeTerminal Mode = "terminal"
)

// ParseMode validates a mode name; empty means image.
func ParseMode(s string) (Mode, error) {
	switch m := Mode(strings.ToLower(strings.TrimSpace(s))); m {
	case "", ModeImage:
		return ModeImage, nil
	case ModeTerminal:
		return ModeTerminal, nil
	default:
		return "", fmt.Errorf("unknown render mode %q (want %q or %q)", s, ModeImage, ModeTerminal)
	}
}

// Map extent and graticule spacing, in degrees.
const (
	minLon  = -180.0
	maxLon  = 180.0
	minLat  = -90.0
	maxLat  = 90.0
	gridDeg = 30.0
)
