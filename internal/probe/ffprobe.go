package probe

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
	"time"
)

// Static errors for probe operations.
var (
	// ErrProbeFailed is returned when ffprobe fails to determine the duration.
	ErrProbeFailed = errors.New("ffprobe execution failed")
	// ErrInvalidDuration is returned when ffprobe reports a non-positive duration.
	ErrInvalidDuration = errors.New("invalid duration from ffprobe")
)

// FFprobeProber implements Prober using the ffprobe CLI.
type FFprobeProber struct {
	// ffprobePath is the path to the ffprobe binary. Defaults to "ffprobe".
	ffprobePath string
	// timeout bounds each individual ffprobe query.
	timeout time.Duration
}

// Option configures an FFprobeProber.
type Option func(*FFprobeProber)

// WithTimeout overrides the per-query timeout. The default is 30 seconds.
func WithTimeout(d time.Duration) Option {
	return func(p *FFprobeProber) {
		if d > 0 {
			p.timeout = d
		}
	}
}

// NewFFprobeProber creates a new FFprobeProber.
// If ffprobePath is empty, it defaults to "ffprobe" (found via PATH).
func NewFFprobeProber(ffprobePath string, opts ...Option) *FFprobeProber {
	if ffprobePath == "" {
		ffprobePath = "ffprobe"
	}
	p := &FFprobeProber{
		ffprobePath: ffprobePath,
		timeout:     30 * time.Second,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Probe returns duration, height and frame rate for path.
// Height and frame rate failures degrade to sentinels; only a duration
// failure is surfaced as an error.
func (p *FFprobeProber) Probe(ctx context.Context, path string) (MediaInfo, error) {
	duration, err := p.Duration(ctx, path)
	if err != nil {
		return MediaInfo{}, err
	}

	info := MediaInfo{
		DurationSec: duration,
		HeightPx:    UnknownHeight,
		FPS:         DefaultFPS,
	}

	if out, err := p.query(ctx, path, "stream=height", "v:0"); err == nil {
		if h, err := strconv.Atoi(out); err == nil && h > 0 {
			info.HeightPx = h
		}
	}

	if out, err := p.query(ctx, path, "stream=r_frame_rate", "v:0"); err == nil {
		if fps, ok := parseFrameRate(out); ok {
			info.FPS = fps
		}
	}

	return info, nil
}

// Duration returns the container duration of path in seconds.
func (p *FFprobeProber) Duration(ctx context.Context, path string) (float64, error) {
	out, err := p.query(ctx, path, "format=duration", "")
	if err != nil {
		return 0, err
	}

	d, err := strconv.ParseFloat(out, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidDuration, out)
	}
	if d <= 0 {
		return 0, fmt.Errorf("%w: %v", ErrInvalidDuration, d)
	}
	return d, nil
}

// query runs one ffprobe invocation for a single entry and returns the
// trimmed stdout. selectStreams may be empty for format-level entries.
func (p *FFprobeProber) query(ctx context.Context, path, entries, selectStreams string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	args := []string{"-v", "error"}
	if selectStreams != "" {
		args = append(args, "-select_streams", selectStreams)
	}
	args = append(args,
		"-show_entries", entries,
		"-of", "default=noprint_wrappers=1:nokey=1",
		path,
	)

	// #nosec G204 - ffprobePath is set by the application, not user input
	cmd := exec.CommandContext(ctx, p.ffprobePath, args...)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return "", fmt.Errorf("%w: %w", ErrProbeFailed, ctx.Err())
		}
		return "", fmt.Errorf("%w: %w, stderr: %s", ErrProbeFailed, err, stderr.String())
	}

	out := strings.TrimSpace(stdout.String())
	if out == "" {
		return "", fmt.Errorf("%w: empty output for %s", ErrProbeFailed, entries)
	}
	return out, nil
}

// parseFrameRate converts an ffprobe r_frame_rate value into frames per
// second. The value is either a plain number or a fraction like
// "30000/1001".
func parseFrameRate(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if num, den, ok := strings.Cut(s, "/"); ok {
		n, errN := strconv.ParseFloat(num, 64)
		d, errD := strconv.ParseFloat(den, 64)
		if errN != nil || errD != nil || d <= 0 || n <= 0 {
			return 0, false
		}
		return n / d, true
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || f <= 0 {
		return 0, false
	}
	return f, true
}
