// Package probe queries media metadata via ffprobe.
//
// Duration is correctness-critical: if it cannot be determined the request
// must fail before any transform runs. Height and frame rate only feed
// optimization decisions (downscale-first ordering, pad frame accounting),
// so their probes degrade to sentinel values instead of failing.
package probe

import "context"

// Sentinel values returned when a non-critical probe fails.
const (
	// UnknownHeight indicates the frame height could not be determined.
	UnknownHeight = 0
	// DefaultFPS is assumed when the frame rate could not be determined.
	DefaultFPS = 30.0
)

// MediaInfo holds the probed metadata of one input file.
// Produced once per request and treated as immutable afterwards.
type MediaInfo struct {
	// DurationSec is the container duration in seconds. Always > 0.
	DurationSec float64
	// HeightPx is the frame height of the first video stream,
	// or UnknownHeight if it could not be probed.
	HeightPx int
	// FPS is the real frame rate of the first video stream,
	// or DefaultFPS if it could not be probed.
	FPS float64
}

// Prober queries duration, height and frame rate of a media file.
type Prober interface {
	// Probe returns the media metadata for path. It fails only when the
	// duration cannot be determined; height and frame rate fall back to
	// their sentinel values.
	Probe(ctx context.Context, path string) (MediaInfo, error)

	// Duration returns only the duration in seconds of path.
	// Used between pipeline phases where the realized length of an
	// intermediate clip must be measured, not assumed.
	Duration(ctx context.Context, path string) (float64, error)
}
