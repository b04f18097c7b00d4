package loop

import (
	"path/filepath"

	"github.com/streamloop/loopgen-api/internal/engine"
)

// Workspace derives collision-free working-file names for one request.
// Every artifact name combines a fixed role suffix with the per-request
// token, so concurrent requests sharing the temp directory never clash.
type Workspace struct {
	dir   string
	token string
}

// NewWorkspace creates a Workspace rooted at dir for the given request token.
func NewWorkspace(dir, token string) Workspace {
	return Workspace{dir: dir, token: token}
}

// Artifact returns the path for a working video with the given role.
func (w Workspace) Artifact(role string) string {
	return filepath.Join(w.dir, role+"_"+w.token+".mp4")
}

// ListFile returns the path for a concat demuxer list with the given role.
func (w Workspace) ListFile(role string) string {
	return filepath.Join(w.dir, role+"_"+w.token+".txt")
}

// speedStages returns the time-remap stages shared by every mode: the PTS
// rescale when the speed changed, and the frame-rate fix whenever the plan
// demands one (pad-by-duration and xfade both misbehave on a stream whose
// nominal rate no longer matches its timestamps).
func speedStages(p Plan) []Stage {
	var stages []Stage
	if p.Speed != 1.0 {
		stages = append(stages, TimeRemap(p.Speed))
	}
	if p.ForceFPS {
		stages = append(stages, FrameRateSet(p.OutputFPS))
	}
	return stages
}

// loopStep lowers LoopRepeat + TrimToLength onto a single stream-copy
// invocation: the repeat becomes -stream_loop, the cap becomes -t. The
// source is already in final form, so no re-encode happens here.
func loopStep(src string, repeat, trim Stage, output string) engine.Step {
	return engine.Step{
		Inputs:     []engine.Input{{Path: src, LoopCount: repeat.Count}},
		Encode:     engine.EncodeCopy,
		LimitSec:   trim.Seconds,
		OutputPath: output,
	}
}

// SimpleSteps builds the plain-repeat pipeline:
// scale? -> remap?+fps? -> pad? -> (materialize) -> repeat+trim.
// When no preparation stage applies, the repeat step reads the original
// input directly and the whole pipeline is a single stream-copy invocation.
func SimpleSteps(p Plan, input string, ws Workspace, output string) []engine.Step {
	var prep []Stage
	if p.ScaleHeight > 0 {
		prep = append(prep, ScaleToHeight(p.ScaleHeight))
	}
	prep = append(prep, speedStages(p)...)
	if p.StartPauseSec > 0 || p.EndPauseSec > 0 {
		prep = append(prep, Pad(p.StartPauseSec, p.EndPauseSec))
	}

	src := input
	var steps []engine.Step
	if len(prep) > 0 {
		src = ws.Artifact("prepared")
		steps = append(steps, engine.Step{
			Inputs:      []engine.Input{{Path: input}},
			FilterGraph: chainExpr(prep),
			Encode:      engine.EncodeH264,
			OutputPath:  src,
		})
	}

	steps = append(steps, loopStep(src,
		LoopRepeat(p.LoopCount-1),
		TrimToLength(float64(p.TargetDurationSec)),
		output))
	return steps
}

// PingPongSteps builds the forward/backward pipeline. Each segment is
// materialized independently and spliced via a concat demuxer list, because
// concatenation of pre-encoded segments operates on files, not in-graph
// streams:
//
//	A: forward, with start/end pause pads
//	B: reversed, timestamps reset, no trailing pad
//	P: dedicated single-frame pause clip (only when an end pause is set)
//
// The pause is cut from the pre-reverse stream on purpose: padding the
// reversed stream directly can hold the clone frame at the wrong
// post-reverse position, so P re-derives the boundary frame itself.
func PingPongSteps(p Plan, input string, ws Workspace, output string) []engine.Step {
	var base []Stage
	if p.ScaleFirst && p.ScaleHeight > 0 {
		base = append(base, ScaleToHeight(p.ScaleHeight))
	}
	base = append(base, speedStages(p)...)

	segA := append([]Stage{}, base...)
	if p.StartPauseSec > 0 || p.EndPauseSec > 0 {
		segA = append(segA, Pad(p.StartPauseSec, p.EndPauseSec))
	}

	segB := append(append([]Stage{}, base...), Reverse())

	var segP []Stage
	if p.EndPauseSec > 0 {
		oneFrame := 1.0 / p.EffectiveFPS
		segP = append(append([]Stage{}, base...),
			Trim(0, oneFrame),
			Pad(0, p.EndPauseSec))
	}

	// Deferred scaling is applied per segment, before the splice: the
	// concat demuxer requires matching stream parameters, so every segment
	// must already be at final resolution.
	if !p.ScaleFirst && p.ScaleHeight > 0 {
		segA = append(segA, ScaleToHeight(p.ScaleHeight))
		segB = append(segB, ScaleToHeight(p.ScaleHeight))
		if segP != nil {
			segP = append(segP, ScaleToHeight(p.ScaleHeight))
		}
	}

	tempA := ws.Artifact("temp_a")
	tempB := ws.Artifact("temp_b")

	steps := []engine.Step{
		{
			Inputs:      []engine.Input{{Path: input}},
			FilterGraph: chainExpr(segA),
			Encode:      engine.EncodeH264,
			OutputPath:  tempA,
		},
		{
			Inputs:      []engine.Input{{Path: input}},
			FilterGraph: chainExpr(segB),
			Encode:      engine.EncodeH264,
			OutputPath:  tempB,
		},
	}

	parts := []string{tempA, tempB}
	if segP != nil {
		tempP := ws.Artifact("temp_pause")
		steps = append(steps, engine.Step{
			Inputs:      []engine.Input{{Path: input}},
			FilterGraph: chainExpr(segP),
			Encode:      engine.EncodeH264,
			OutputPath:  tempP,
		})
		parts = append(parts, tempP)
	}

	cycle := ws.Artifact("cycle")
	steps = append(steps, engine.Step{
		Inputs: []engine.Input{{
			Path:        ws.ListFile("concat"),
			ConcatFiles: parts,
		}},
		Encode:     engine.EncodeCopy,
		OutputPath: cycle,
	})

	steps = append(steps, loopStep(cycle,
		LoopRepeat(p.LoopCount-1),
		TrimToLength(float64(p.TargetDurationSec)),
		output))
	return steps
}

// CrossfadeCycleStep builds the self-dissolve that turns the clip into one
// seamless cycle: forced downscale, remap/fps, split into two identical
// copies, format-normalize both (the dissolve rejects mismatched pixel
// formats or aspect ratios), then dissolve one into the other at the
// planned window/offset.
func CrossfadeCycleStep(p Plan, input string, ws Workspace) engine.Step {
	pre := append([]Stage{ScaleToWidth(p.ScaleWidth)}, speedStages(p)...)

	g := newGraph()
	v := g.chain(g.input(0), pre...)
	copies := g.split(v, Split(2))
	a := g.chain(copies[0], FormatNormalize())
	b := g.chain(copies[1], FormatNormalize())
	out := g.xfade(a, b, CrossDissolve(p.CrossfadeSec, p.CrossfadeOffsetSec))

	return engine.Step{
		Inputs:      []engine.Input{{Path: input}},
		FilterGraph: g.String(),
		OutputLabel: out,
		Encode:      engine.EncodeH264,
		OutputPath:  ws.Artifact("cycle"),
	}
}

// CrossfadeLoopStep repeats the realized cycle. The cycle duration is the
// measured one, not the planned estimate, because the dissolve
// implementation may round. Returns the step and the chosen repeat count.
func CrossfadeLoopStep(p Plan, measuredCycleSec float64, ws Workspace) (engine.Step, int) {
	count := p.CrossfadeLoopCount(measuredCycleSec)
	step := loopStep(ws.Artifact("cycle"),
		LoopRepeat(count-1),
		TrimToLength(measuredCycleSec*float64(count)),
		ws.Artifact("looped"))
	return step, count
}

// CrossfadeWrapStep builds the wraparound pass that hides the seam between
// repeats: split the looped clip into head (first window), mid, and tail
// (last window), dissolve tail into head at offset 0 (both are exactly one
// window long), and splice mid + wrap as the final output.
//
// Returns false when loopedSec <= 3x the window: the clip is too short to
// extract a non-overlapping middle, and the caller must fall back to
// emitting the looped clip unchanged.
func CrossfadeWrapStep(p Plan, loopedSec float64, ws Workspace, output string) (engine.Step, bool) {
	w := p.CrossfadeSec
	if loopedSec <= 3*w {
		return engine.Step{}, false
	}

	g := newGraph()
	copies := g.split(g.input(0), Split(3))
	head := g.chain(copies[0], Trim(0, w), FormatNormalize())
	mid := g.chain(copies[1], Trim(w, loopedSec-3*w), FormatNormalize())
	tail := g.chain(copies[2], Trim(loopedSec-2*w, w), FormatNormalize())
	wrap := g.xfade(tail, head, CrossDissolve(w, 0))
	out := g.concat(Concatenate(2), mid, wrap)

	return engine.Step{
		Inputs:      []engine.Input{{Path: ws.Artifact("looped")}},
		FilterGraph: g.String(),
		OutputLabel: out,
		Encode:      engine.EncodeH264,
		OutputPath:  output,
	}, true
}
