package loop

import (
	"math"

	"github.com/streamloop/loopgen-api/internal/probe"
)

// CrossfadeMaxWidth is the fixed frame width used for crossfade loops
// (480p-equivalent at 16:9). The dissolve splits the stream into two
// simultaneously decoded copies, so crossfade is the most memory-sensitive
// path and always runs at this reduced size regardless of the requested
// resolution.
const CrossfadeMaxWidth = 854

// maxOriginalHeight caps "Original" resolution requests: sources taller
// than this are downscaled to 720p so an unintentionally large upload
// cannot exhaust memory.
const maxOriginalHeight = 720

// minCrossfadeSec is the smallest usable dissolve window.
const minCrossfadeSec = 0.1

// Plan is the derived timing plan for one request. Computed once from the
// probed metadata and the normalized parameters, then treated as immutable.
type Plan struct {
	Mode              Mode
	TargetDurationSec int
	Speed             float64
	StartPauseSec     float64
	EndPauseSec       float64

	// EffectiveClipSec is the clip duration after the speed change.
	EffectiveClipSec float64
	// CycleSec is the duration of one repeatable cycle for the mode. For
	// crossfade it is an estimate; the realized cycle must be re-measured
	// because the dissolve implementation may round.
	CycleSec float64
	// LoopCount is the number of cycle repetitions for Simple/PingPong
	// (always >= 1). Crossfade recomputes its count from the measured
	// cycle via CrossfadeLoopCount.
	LoopCount int

	// OutputFPS re-anchors frame-rate-dependent stages after a speed
	// change: pad-by-duration counts frames internally, so the nominal
	// rate must match the remapped stream.
	OutputFPS int
	// ForceFPS indicates the fps stage must be emitted.
	ForceFPS bool
	// EffectiveFPS is the frame rate of the (possibly remapped) stream,
	// used to derive a single-frame duration for pause segments.
	EffectiveFPS float64

	// ScaleHeight is the resolved output height in pixels, 0 to keep the
	// source size. Unused for crossfade, which scales by ScaleWidth.
	ScaleHeight int
	// ScaleWidth is the fixed crossfade width, 0 for other modes.
	ScaleWidth int
	// ScaleFirst places the scale before memory-heavy transforms
	// (reverse, dissolve) when downscaling; when upscaling or keeping the
	// size, scaling is deferred to just before the final encode.
	ScaleFirst bool

	// CrossfadeSec is the dissolve window, clamped so it never exceeds
	// half the effective clip. CrossfadeOffsetSec is where the dissolve
	// starts within the cycle.
	CrossfadeSec       float64
	CrossfadeOffsetSec float64

	// InputHeightPx and InputFPS carry the probed source metadata.
	InputHeightPx int
	InputFPS      float64
}

// BuildPlan computes the timing plan for a request. Pure: no engine calls.
// Cosmetic parameters (resolution, speed, negative pauses) are normalized
// here; the request's structural fields must already be validated.
func BuildPlan(req Request, info probe.MediaInfo) Plan {
	speed := NormalizeSpeed(req.Speed)
	resolution := NormalizeResolution(req.Resolution)
	startPause := math.Max(0, req.StartPauseSec)
	endPause := math.Max(0, req.EndPauseSec)

	effective := info.DurationSec / speed

	// Floor applied after the cap: for degenerate sub-0.2s clips the 0.1s
	// minimum wins over the half-clip limit.
	window := math.Max(minCrossfadeSec, math.Min(req.CrossfadeSec, effective/2))
	offset := math.Max(0, effective-window)

	// Resolution policy, in order: cap oversized "Original" sources, then
	// force the fixed crossfade width which overrides everything.
	if resolution == ResolutionOriginal && info.HeightPx > maxOriginalHeight {
		resolution = Resolution720p
	}

	p := Plan{
		Mode:               req.Mode,
		TargetDurationSec:  req.TargetDurationSec,
		Speed:              speed,
		StartPauseSec:      startPause,
		EndPauseSec:        endPause,
		EffectiveClipSec:   effective,
		CrossfadeSec:       window,
		CrossfadeOffsetSec: offset,
		InputHeightPx:      info.HeightPx,
		InputFPS:           info.FPS,
	}

	p.OutputFPS = outputFPS(info.FPS, speed)
	p.ForceFPS = speed != 1.0
	p.EffectiveFPS = info.FPS
	if speed != 1.0 {
		p.EffectiveFPS = float64(p.OutputFPS)
	}

	switch req.Mode {
	case ModeCrossfade:
		p.ScaleWidth = CrossfadeMaxWidth
		p.ScaleFirst = true
		// The dissolve rejects mismatched rates across the split, so the
		// fps stage is always emitted on this path.
		p.ForceFPS = true
	default:
		p.ScaleHeight = resolution.Height()
		p.ScaleFirst = p.ScaleHeight > 0 && info.HeightPx > 0 && p.ScaleHeight < info.HeightPx
	}

	p.CycleSec = cycleDuration(p)
	p.LoopCount = loopCount(float64(req.TargetDurationSec), p.CycleSec)

	return p
}

// CrossfadeLoopCount returns the repeat count against the measured cycle
// duration. Round, not ceil: the output may land slightly short of the
// target rather than a full cycle over it.
func (p Plan) CrossfadeLoopCount(measuredCycleSec float64) int {
	n := int(math.Round(float64(p.TargetDurationSec) / measuredCycleSec))
	if n < 1 {
		return 1
	}
	return n
}

// cycleDuration returns the length of one repeatable cycle for the mode.
func cycleDuration(p Plan) float64 {
	switch p.Mode {
	case ModePingPong:
		// forward (with start+end pads) + reversed + dedicated end pause.
		return 2*p.EffectiveClipSec + p.StartPauseSec + 2*p.EndPauseSec
	case ModeCrossfade:
		// The self-dissolve shortens the cycle by the window.
		return p.EffectiveClipSec - p.CrossfadeSec
	default:
		return p.EffectiveClipSec + p.StartPauseSec + p.EndPauseSec
	}
}

// loopCount returns max(1, ceil(target/cycle)).
func loopCount(targetSec, cycleSec float64) int {
	if cycleSec <= 0 {
		return 1
	}
	n := int(math.Ceil(targetSec / cycleSec))
	if n < 1 {
		return 1
	}
	return n
}

// outputFPS returns max(1, round(fps*speed)).
func outputFPS(fps, speed float64) int {
	n := int(math.Round(fps * speed))
	if n < 1 {
		return 1
	}
	return n
}
