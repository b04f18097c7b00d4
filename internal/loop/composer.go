package loop

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/streamloop/loopgen-api/internal/engine"
	"github.com/streamloop/loopgen-api/internal/metrics"
	"github.com/streamloop/loopgen-api/internal/probe"
)

// Composer runs the loop composition for one request: probe, plan, build,
// then execute the steps strictly in order, measuring realized durations
// between crossfade phases. Stages never overlap within a request; each
// step's input is the previous step's materialized file.
type Composer struct {
	engine engine.Engine
	prober probe.Prober
	logger *slog.Logger
}

// NewComposer creates a Composer.
func NewComposer(eng engine.Engine, prober probe.Prober, logger *slog.Logger) *Composer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Composer{engine: eng, prober: prober, logger: logger}
}

// Compose turns inputPath into a loop per req and returns the output path.
// All intermediate artifacts are removed before returning, success or
// failure; the final output is the only file left behind. No step is
// retried: the first failure aborts the remaining steps.
func (c *Composer) Compose(ctx context.Context, inputPath string, req Request, ws Workspace) (string, error) {
	if err := req.Validate(); err != nil {
		return "", err
	}

	info, err := c.prober.Probe(ctx, inputPath)
	if err != nil {
		return "", fmt.Errorf("probe input: %w", err)
	}
	if info.HeightPx == probe.UnknownHeight {
		metrics.RecordProbeDegradation("height")
	}

	plan := BuildPlan(req, info)
	output := ws.Artifact("output")

	c.logger.Info("loop plan computed",
		slog.String("mode", string(plan.Mode)),
		slog.Float64("input_duration_sec", info.DurationSec),
		slog.Float64("effective_clip_sec", plan.EffectiveClipSec),
		slog.Float64("cycle_sec", plan.CycleSec),
		slog.Int("loop_count", plan.LoopCount),
		slog.Int("scale_height", plan.ScaleHeight),
		slog.Int("scale_width", plan.ScaleWidth),
		slog.Bool("scale_first", plan.ScaleFirst),
		slog.Int("output_fps", plan.OutputFPS),
	)

	var cleanup []string
	defer func() {
		for _, p := range cleanup {
			if err := os.Remove(p); err != nil && !os.IsNotExist(err) {
				c.logger.Warn("failed to remove working file",
					slog.String("path", p),
					slog.String("error", err.Error()),
				)
			}
		}
	}()

	switch plan.Mode {
	case ModeSimple:
		cleanup, err = c.runSteps(ctx, SimpleSteps(plan, inputPath, ws, output), output)
	case ModePingPong:
		cleanup, err = c.runSteps(ctx, PingPongSteps(plan, inputPath, ws, output), output)
	case ModeCrossfade:
		cleanup, err = c.composeCrossfade(ctx, plan, inputPath, ws, output)
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownMode, plan.Mode)
	}
	if err != nil {
		return "", err
	}

	return output, nil
}

// runSteps executes a fully pre-built step sequence and returns every
// intermediate path produced along the way, whether or not a step failed.
func (c *Composer) runSteps(ctx context.Context, steps []engine.Step, output string) ([]string, error) {
	var produced []string
	for i, step := range steps {
		for _, in := range step.Inputs {
			if len(in.ConcatFiles) > 0 {
				produced = append(produced, in.Path)
			}
		}
		if step.OutputPath != output {
			produced = append(produced, step.OutputPath)
		}

		c.logger.Debug("running pipeline step",
			slog.Int("step", i+1),
			slog.Int("steps", len(steps)),
			slog.String("output", step.OutputPath),
		)
		if err := c.engine.Run(ctx, step); err != nil {
			return produced, fmt.Errorf("pipeline step %d/%d: %w", i+1, len(steps), err)
		}
	}
	return produced, nil
}

// composeCrossfade runs the three crossfade phases, probing the realized
// duration after each materialization.
func (c *Composer) composeCrossfade(ctx context.Context, plan Plan, inputPath string, ws Workspace, output string) ([]string, error) {
	cycleStep := CrossfadeCycleStep(plan, inputPath, ws)
	produced := []string{cycleStep.OutputPath}

	if err := c.engine.Run(ctx, cycleStep); err != nil {
		return produced, fmt.Errorf("crossfade cycle: %w", err)
	}

	cycleSec, err := c.prober.Duration(ctx, cycleStep.OutputPath)
	if err != nil {
		return produced, fmt.Errorf("measure crossfade cycle: %w", err)
	}

	loopStep, count := CrossfadeLoopStep(plan, cycleSec, ws)
	produced = append(produced, loopStep.OutputPath)

	c.logger.Info("crossfade cycle realized",
		slog.Float64("cycle_sec", cycleSec),
		slog.Int("loop_count", count),
		slog.Float64("output_sec", cycleSec*float64(count)),
	)

	if err := c.engine.Run(ctx, loopStep); err != nil {
		return produced, fmt.Errorf("crossfade loop: %w", err)
	}

	loopedSec, err := c.prober.Duration(ctx, loopStep.OutputPath)
	if err != nil {
		return produced, fmt.Errorf("measure looped clip: %w", err)
	}

	wrapStep, ok := CrossfadeWrapStep(plan, loopedSec, ws, output)
	if !ok {
		// Degraded but correct: the clip is too short to cut a
		// non-overlapping middle, so the looped clip ships as-is.
		c.logger.Info("wraparound pass skipped, emitting looped clip unchanged",
			slog.Float64("looped_sec", loopedSec),
			slog.Float64("crossfade_sec", plan.CrossfadeSec),
		)
		metrics.RecordWraparoundFallback()
		if err := engine.CopyFile(loopStep.OutputPath, output); err != nil {
			return produced, fmt.Errorf("crossfade fallback copy: %w", err)
		}
		return produced, nil
	}

	if err := c.engine.Run(ctx, wrapStep); err != nil {
		return produced, fmt.Errorf("crossfade wraparound: %w", err)
	}
	return produced, nil
}
