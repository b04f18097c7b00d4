package engine

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

// FFmpegEngine implements Engine using the ffmpeg CLI.
type FFmpegEngine struct {
	// ffmpegPath is the path to the ffmpeg binary. Defaults to "ffmpeg".
	ffmpegPath string
}

// NewFFmpegEngine creates a new FFmpegEngine.
// If ffmpegPath is empty, it defaults to "ffmpeg" (found via PATH).
func NewFFmpegEngine(ffmpegPath string) *FFmpegEngine {
	if ffmpegPath == "" {
		ffmpegPath = "ffmpeg"
	}
	return &FFmpegEngine{ffmpegPath: ffmpegPath}
}

// Run executes one step. Concat demuxer lists referenced by the step's
// inputs are materialized before the run. ffmpeg's stderr is drained into a
// growing buffer for the whole run, so the process can never stall on a full
// output pipe; on failure the buffered text becomes the error payload.
func (e *FFmpegEngine) Run(ctx context.Context, step Step) error {
	for _, in := range step.Inputs {
		if len(in.ConcatFiles) > 0 {
			if err := writeConcatList(in.Path, in.ConcatFiles); err != nil {
				return err
			}
		}
	}

	args := BuildArgs(step)

	// #nosec G204 - ffmpegPath is set by the application, not user input
	cmd := exec.CommandContext(ctx, e.ffmpegPath, args...)

	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return fmt.Errorf("ffmpeg cancelled: %w", ctx.Err())
		}
		return &FFmpegError{
			Args:   args,
			Stderr: stderr.String(),
			Err:    err,
		}
	}

	return nil
}

// writeConcatList materializes a concat demuxer list at path. Entries are
// absolute paths with single quotes escaped, one "file '...'" line each.
func writeConcatList(path string, files []string) error {
	var b strings.Builder
	for _, f := range files {
		abs, err := filepath.Abs(f)
		if err != nil {
			return fmt.Errorf("get absolute path for %s: %w", f, err)
		}
		escaped := strings.ReplaceAll(abs, "'", "'\\''")
		fmt.Fprintf(&b, "file '%s'\n", escaped)
	}
	if err := os.WriteFile(path, []byte(b.String()), 0600); err != nil {
		return fmt.Errorf("write concat list: %w", err)
	}
	return nil
}

// CopyFile copies src to dst, overwriting dst. Used for the degraded
// crossfade fallback where the looped clip is emitted unchanged.
func CopyFile(src, dst string) error {
	in, err := os.Open(src) // #nosec G304 - src is produced by trusted internal code
	if err != nil {
		return fmt.Errorf("open source file: %w", err)
	}
	defer func() { _ = in.Close() }()

	out, err := os.Create(dst) // #nosec G304 - dst is produced by trusted internal code
	if err != nil {
		return fmt.Errorf("create destination file: %w", err)
	}

	if _, err := io.Copy(out, in); err != nil {
		_ = out.Close()
		_ = os.Remove(dst)
		return fmt.Errorf("copy file: %w", err)
	}
	if err := out.Close(); err != nil {
		return fmt.Errorf("close destination file: %w", err)
	}
	return nil
}

// FFmpegError represents an error from running ffmpeg, including the stderr output.
type FFmpegError struct {
	Args   []string
	Stderr string
	Err    error
}

func (e *FFmpegError) Error() string {
	return fmt.Sprintf("ffmpeg error: %v\nargs: %v\nstderr: %s", e.Err, e.Args, e.Stderr)
}

func (e *FFmpegError) Unwrap() error {
	return e.Err
}
