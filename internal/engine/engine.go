// Package engine invokes the media transform engine (ffmpeg) against
// materialized pipeline steps.
//
// One Step is one ffmpeg invocation. Multi-phase strategies chain Steps by
// materializing the output of one as the input of the next; the engine never
// sees more than a single invocation at a time.
package engine

import (
	"context"
	"strconv"
)

// EncodeMode selects between re-encoding and stream copy for a Step.
type EncodeMode int

const (
	// EncodeCopy re-packages the video stream without re-encoding.
	// Used for repeat/trim/concatenate steps where pixel data is unchanged.
	EncodeCopy EncodeMode = iota
	// EncodeH264 re-encodes with libx264 (ultrafast, crf 18), matching the
	// intermediate-quality settings used throughout the pipeline.
	EncodeH264
)

// Input describes one input of a Step.
type Input struct {
	// Path is the input file. When ConcatFiles is set, Path is the location
	// where the concat demuxer list is materialized before the run.
	Path string
	// LoopCount is the number of extra repetitions of this input
	// (ffmpeg -stream_loop). 0 means play once.
	LoopCount int
	// ConcatFiles, when non-empty, turns this input into a concat demuxer
	// list of the given files, written to Path.
	ConcatFiles []string
}

// Step is one engine invocation: inputs, an optional filter graph, encode
// settings, an optional output length limit, and the destination file.
// A Step is plain immutable data; it is built by the pipeline builder and
// consumed exactly once.
type Step struct {
	Inputs []Input
	// FilterGraph is the rendered ffmpeg filter graph. When OutputLabel is
	// set it is passed as -filter_complex and the labeled stream is mapped;
	// otherwise it is a linear -vf chain. Empty means no filtering.
	FilterGraph string
	// OutputLabel names the final stream of a complex FilterGraph.
	OutputLabel string
	Encode      EncodeMode
	// LimitSec caps the output duration (-t). 0 means no limit.
	LimitSec float64
	// OutputPath is the destination file, overwritten if present.
	OutputPath string
}

// Engine executes Steps against real media data.
type Engine interface {
	// Run executes one step. On failure the returned error carries whatever
	// diagnostic text the engine produced.
	Run(ctx context.Context, step Step) error
}

// BuildArgs renders a Step into ffmpeg CLI arguments.
// Exported so the argument layout can be tested without an ffmpeg binary.
func BuildArgs(step Step) []string {
	args := []string{"-y"}

	for _, in := range step.Inputs {
		if in.LoopCount > 0 {
			args = append(args, "-stream_loop", strconv.Itoa(in.LoopCount))
		}
		if len(in.ConcatFiles) > 0 {
			args = append(args, "-f", "concat", "-safe", "0")
		}
		args = append(args, "-i", in.Path)
	}

	switch {
	case step.FilterGraph != "" && step.OutputLabel != "":
		args = append(args, "-filter_complex", step.FilterGraph, "-map", "["+step.OutputLabel+"]")
	case step.FilterGraph != "":
		args = append(args, "-vf", step.FilterGraph)
	default:
		// No filtering: select the video stream explicitly so stray audio
		// or data streams of the source never leak into the output.
		args = append(args, "-map", "0:v:0")
	}

	switch step.Encode {
	case EncodeCopy:
		args = append(args, "-c:v", "copy")
	case EncodeH264:
		args = append(args, "-c:v", "libx264", "-preset", "ultrafast", "-crf", "18")
	}

	// Output is always silent video.
	args = append(args, "-an")

	if step.LimitSec > 0 {
		args = append(args, "-t", strconv.FormatFloat(step.LimitSec, 'f', -1, 64))
	}

	return append(args, step.OutputPath)
}
