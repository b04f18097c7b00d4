// Package enhance reserves the seam for AI-based background processing
// (inpainting, denoising) that may run on finished loops in a later
// iteration. Nothing here is wired into the composition hot path yet.
package enhance

import (
	"context"
	"errors"
)

// ErrNotImplemented is returned by the placeholder enhancer.
var ErrNotImplemented = errors.New("AI-based enhancement is not implemented yet")

// Enhancer post-processes a finished loop in place of a plain copy.
type Enhancer interface {
	// EnhanceBackground reads inputPath and writes an enhanced version to
	// outputPath.
	EnhanceBackground(ctx context.Context, inputPath, outputPath string) error
}

// Noop is the placeholder Enhancer. It keeps the responsibility split
// visible without claiming an implementation exists.
type Noop struct {
	// ModelName records which model a future implementation would load.
	ModelName string
}

// EnhanceBackground always returns ErrNotImplemented.
func (Noop) EnhanceBackground(_ context.Context, _, _ string) error {
	return ErrNotImplemented
}
