package loop

import (
	"fmt"
	"strconv"
	"strings"
)

// StageKind tags the variants of a pipeline Stage.
type StageKind int

const (
	// StageScale resizes the frame, preserving aspect via a -2 axis.
	StageScale StageKind = iota
	// StageTimeRemap rescales presentation timestamps by a factor.
	StageTimeRemap
	// StageFrameRateSet fixes the nominal frame rate.
	StageFrameRateSet
	// StagePad holds a cloned boundary frame at the start and/or end.
	StagePad
	// StageReverse reverses frame order, resetting timestamps to zero.
	StageReverse
	// StageSplit duplicates the stream into identical copies.
	StageSplit
	// StageFormatNormalize unifies pixel format and sample aspect ratio,
	// required before a dissolve or concat of separately built streams.
	StageFormatNormalize
	// StageCrossDissolve fades one stream into another.
	StageCrossDissolve
	// StageTrim extracts a sub-range, resetting timestamps to zero.
	StageTrim
	// StageConcatenate splices streams back to back.
	StageConcatenate
	// StageLoopRepeat repeats an input a number of extra times.
	// Realized at invocation level, not as a filter.
	StageLoopRepeat
	// StageTrimToLength caps the output duration.
	// Realized at invocation level, not as a filter.
	StageTrimToLength
)

// Stage is one tagged transform variant. Stages are plain values; a pipeline
// is an ordered list of them, built functionally by the planner and handed
// read-only to the engine.
type Stage struct {
	Kind StageKind

	// Scale (a -2 axis is computed to preserve aspect).
	Width, Height int
	// TimeRemap PTS multiplier (2.0 = half speed).
	Factor float64
	// FrameRateSet.
	FPS int
	// Pad clone durations; Trim start.
	StartSec float64
	StopSec  float64
	// Trim and CrossDissolve duration.
	DurSec float64
	// CrossDissolve start offset within the first stream.
	OffsetSec float64
	// Split copies / Concatenate parts / LoopRepeat extra repeats.
	Count int
	// TrimToLength output cap.
	Seconds float64
}

// ScaleToHeight scales to the given height, width computed to keep aspect.
func ScaleToHeight(h int) Stage { return Stage{Kind: StageScale, Width: -2, Height: h} }

// ScaleToWidth scales to the given width, height computed to keep aspect.
func ScaleToWidth(w int) Stage { return Stage{Kind: StageScale, Width: w, Height: -2} }

// TimeRemap changes playback speed: 0.5 doubles the duration, 2.0 halves it.
func TimeRemap(speed float64) Stage { return Stage{Kind: StageTimeRemap, Factor: 1.0 / speed} }

// FrameRateSet fixes the nominal frame rate after a remap.
func FrameRateSet(fps int) Stage { return Stage{Kind: StageFrameRateSet, FPS: fps} }

// Pad holds the cloned first frame for startSec and/or the cloned last
// frame for stopSec.
func Pad(startSec, stopSec float64) Stage {
	return Stage{Kind: StagePad, StartSec: startSec, StopSec: stopSec}
}

// Reverse reverses the stream.
func Reverse() Stage { return Stage{Kind: StageReverse} }

// Split duplicates the stream into n copies.
func Split(n int) Stage { return Stage{Kind: StageSplit, Count: n} }

// FormatNormalize unifies pixel format and sample aspect ratio.
func FormatNormalize() Stage { return Stage{Kind: StageFormatNormalize} }

// CrossDissolve fades the second stream in over durSec, starting offsetSec
// into the first stream.
func CrossDissolve(durSec, offsetSec float64) Stage {
	return Stage{Kind: StageCrossDissolve, DurSec: durSec, OffsetSec: offsetSec}
}

// Trim extracts [startSec, startSec+durSec). Start+duration rather than an
// end point: end-based trims are interpreted inconsistently across engine
// builds.
func Trim(startSec, durSec float64) Stage {
	return Stage{Kind: StageTrim, StartSec: startSec, DurSec: durSec}
}

// Concatenate splices n streams back to back.
func Concatenate(n int) Stage { return Stage{Kind: StageConcatenate, Count: n} }

// LoopRepeat repeats the input n extra times.
func LoopRepeat(n int) Stage { return Stage{Kind: StageLoopRepeat, Count: n} }

// TrimToLength caps the output at sec seconds.
func TrimToLength(sec float64) Stage { return Stage{Kind: StageTrimToLength, Seconds: sec} }

// FilterExpr renders a chainable stage as an ffmpeg filter expression.
// The second return is false for stages that are not linear filters
// (Split, CrossDissolve, Concatenate are graph-level; LoopRepeat and
// TrimToLength are invocation-level).
func (s Stage) FilterExpr() (string, bool) {
	switch s.Kind {
	case StageScale:
		return fmt.Sprintf("scale=%d:%d", s.Width, s.Height), true
	case StageTimeRemap:
		return "setpts=" + ffNum(s.Factor) + "*PTS", true
	case StageFrameRateSet:
		return fmt.Sprintf("fps=%d", s.FPS), true
	case StagePad:
		var parts []string
		if s.StartSec > 0 {
			parts = append(parts, "start_duration="+ffNum(s.StartSec), "start_mode=clone")
		}
		if s.StopSec > 0 {
			parts = append(parts, "stop_duration="+ffNum(s.StopSec), "stop_mode=clone")
		}
		return "tpad=" + strings.Join(parts, ":"), true
	case StageReverse:
		// Timestamps restart at zero after the reversal or later splices
		// misread the segment's position.
		return "reverse,setpts=PTS-STARTPTS", true
	case StageTrim:
		return fmt.Sprintf("trim=start=%s:duration=%s,setpts=PTS-STARTPTS",
			ffNum(s.StartSec), ffNum(s.DurSec)), true
	case StageFormatNormalize:
		return "format=yuv420p,setsar=1", true
	default:
		return "", false
	}
}

// chainExpr renders a sequence of chainable stages as one comma-joined
// filter chain.
func chainExpr(stages []Stage) string {
	exprs := make([]string, 0, len(stages))
	for _, s := range stages {
		expr, ok := s.FilterExpr()
		if !ok {
			continue
		}
		exprs = append(exprs, expr)
	}
	return strings.Join(exprs, ",")
}

// ffNum formats a float the way ffmpeg filter arguments expect.
func ffNum(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
