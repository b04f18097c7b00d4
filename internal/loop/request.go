package loop

import (
	"errors"
	"fmt"
)

// ErrInvalidTargetDuration is returned for non-positive target durations.
var ErrInvalidTargetDuration = errors.New("target duration must be positive")

// Request holds the caller-supplied loop parameters.
//
// Only TargetDurationSec and Mode are structural; everything else is
// cosmetic and is normalized rather than rejected (see BuildPlan).
type Request struct {
	// TargetDurationSec is the requested output length in whole seconds.
	TargetDurationSec int
	// Mode is the stitching strategy. Must be a parsed Mode.
	Mode Mode
	// CrossfadeSec is the requested dissolve window. Clamped by the planner.
	CrossfadeSec float64
	// StartPauseSec holds the first frame for this long at the cycle start.
	StartPauseSec float64
	// EndPauseSec holds the boundary frame for this long at the cycle end.
	EndPauseSec float64
	// Resolution is the raw resolution token; normalized by the planner.
	Resolution string
	// Speed is the raw playback speed; normalized by the planner.
	Speed float64
}

// Validate checks the structural parameters. Cosmetic parameters are not
// checked here; the planner normalizes them silently.
func (r Request) Validate() error {
	if r.TargetDurationSec <= 0 {
		return fmt.Errorf("%w: %d", ErrInvalidTargetDuration, r.TargetDurationSec)
	}
	if _, err := ParseMode(string(r.Mode)); err != nil {
		return err
	}
	return nil
}
