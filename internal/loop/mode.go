// Package loop contains the loop composition engine: parameter
// normalization, timing plans, and the per-mode pipeline builders that turn
// a plan into ordered engine steps.
package loop

import (
	"errors"
	"fmt"
	"strings"
)

// Mode selects the stitching strategy for the loop.
type Mode string

const (
	// ModeSimple repeats the clip as-is.
	ModeSimple Mode = "simple"
	// ModePingPong plays the clip forward then backward within each cycle.
	ModePingPong Mode = "pingpong"
	// ModeCrossfade dissolves the clip into itself so the loop point is
	// hidden, including across the repeat boundary.
	ModeCrossfade Mode = "crossfade"
)

// ErrUnknownMode is returned for mode tokens outside the supported set.
// Mode is structural: unlike resolution and speed it is hard-validated.
var ErrUnknownMode = errors.New("unknown loop mode")

// ParseMode validates a mode token.
func ParseMode(s string) (Mode, error) {
	switch Mode(strings.ToLower(strings.TrimSpace(s))) {
	case ModeSimple:
		return ModeSimple, nil
	case ModePingPong:
		return ModePingPong, nil
	case ModeCrossfade:
		return ModeCrossfade, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownMode, s)
	}
}

// Resolution is a target output resolution token.
type Resolution string

// Supported resolutions.
const (
	ResolutionOriginal Resolution = "Original"
	Resolution720p     Resolution = "720p"
	Resolution1080p    Resolution = "1080p"
	Resolution4K       Resolution = "4K"
)

// Height returns the frame height in pixels for the resolution,
// or 0 for ResolutionOriginal (keep the source size).
func (r Resolution) Height() int {
	switch r {
	case Resolution720p:
		return 720
	case Resolution1080p:
		return 1080
	case Resolution4K:
		return 2160
	default:
		return 0
	}
}

// NormalizeResolution clamps a resolution token to the supported set.
// Unrecognized or empty input maps to Original: resolution is cosmetic and
// must never abort a request.
func NormalizeResolution(s string) Resolution {
	switch Resolution(strings.TrimSpace(s)) {
	case Resolution720p:
		return Resolution720p
	case Resolution1080p:
		return Resolution1080p
	case Resolution4K:
		return Resolution4K
	default:
		return ResolutionOriginal
	}
}

// NormalizeSpeed clamps a playback speed to the supported set
// {0.5, 1.0, 2.0}. Anything else maps to 1.0, never an error.
func NormalizeSpeed(speed float64) float64 {
	switch speed {
	case 0.5, 1.0, 2.0:
		return speed
	default:
		return 1.0
	}
}
