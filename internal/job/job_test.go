package job

import (
	"errors"
	"testing"

	"github.com/streamloop/loopgen-api/internal/loop"
)

func testRequest() loop.Request {
	return loop.Request{
		TargetDurationSec: 20,
		Mode:              loop.ModeSimple,
		Speed:             1.0,
	}
}

func TestNewJob(t *testing.T) {
	j := New(testRequest())

	if j.ID == "" {
		t.Error("expected generated ID")
	}
	if j.Status != StatusQueued {
		t.Errorf("Status = %s, want %s", j.Status, StatusQueued)
	}
	if j.Request.TargetDurationSec != 20 {
		t.Errorf("Request not carried: %+v", j.Request)
	}
	if j.CreatedAt.IsZero() || j.UpdatedAt.IsZero() {
		t.Error("expected timestamps to be set")
	}
}

func TestJobLifecycle(t *testing.T) {
	j := New(testRequest())

	if err := j.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if j.GetStatus() != StatusProcessing {
		t.Errorf("Status = %s, want %s", j.GetStatus(), StatusProcessing)
	}
	if j.StartedAt.IsZero() {
		t.Error("expected StartedAt to be set")
	}

	if err := j.Complete(); err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if !j.IsTerminal() {
		t.Error("completed job must be terminal")
	}
	if j.CompletedAt.IsZero() {
		t.Error("expected CompletedAt to be set")
	}
}

func TestJobInvalidTransitions(t *testing.T) {
	// Completion is only reachable from PROCESSING.
	j := New(testRequest())
	if err := j.Complete(); !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("Complete from QUEUED: expected ErrInvalidTransition, got %v", err)
	}

	// Terminal states are final.
	j = New(testRequest())
	_ = j.Start()
	_ = j.Complete()
	if err := j.Start(); !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("Start from COMPLETED: expected ErrInvalidTransition, got %v", err)
	}
	if err := j.Cancel(); !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("Cancel from COMPLETED: expected ErrInvalidTransition, got %v", err)
	}
}

func TestJobFailRecordsError(t *testing.T) {
	j := New(testRequest())
	_ = j.Start()

	if err := j.Fail("ffmpeg exploded"); err != nil {
		t.Fatalf("Fail: %v", err)
	}
	if j.GetStatus() != StatusFailed {
		t.Errorf("Status = %s, want %s", j.GetStatus(), StatusFailed)
	}
	if j.Error != "ffmpeg exploded" {
		t.Errorf("Error = %q", j.Error)
	}
}

func TestJobCancelFromQueued(t *testing.T) {
	j := New(testRequest())
	if err := j.Cancel(); err != nil {
		t.Fatalf("Cancel: %v", err)
	}
	if !j.IsTerminal() {
		t.Error("cancelled job must be terminal")
	}
}

func TestJobClone(t *testing.T) {
	j := New(testRequest())
	j.SetInput("/tmp/in.mp4")
	j.SetOutput("/tmp/out.mp4", "https://example.com/out.mp4")

	c := j.Clone()
	if c == j {
		t.Fatal("Clone must return a distinct instance")
	}
	if c.ID != j.ID || c.InputPath != j.InputPath || c.OutputPath != j.OutputPath || c.VideoURL != j.VideoURL {
		t.Error("Clone lost fields")
	}

	// Mutating the clone must not touch the original.
	c.Status = StatusFailed
	if j.GetStatus() != StatusQueued {
		t.Error("mutating the clone affected the original")
	}
}
