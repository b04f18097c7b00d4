package enhance

import (
	"context"
	"errors"
	"testing"
)

func TestNoopAlwaysDeclines(t *testing.T) {
	var e Enhancer = Noop{ModelName: "bg-inpaint-v0"}

	err := e.EnhanceBackground(context.Background(), "in.mp4", "out.mp4")
	if !errors.Is(err, ErrNotImplemented) {
		t.Errorf("expected ErrNotImplemented, got %v", err)
	}
}
