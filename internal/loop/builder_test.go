package loop

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/streamloop/loopgen-api/internal/engine"
)

func testWorkspace() Workspace {
	return NewWorkspace("/tmp/loopgen", "loop-1-test")
}

func TestWorkspaceNamesCarryToken(t *testing.T) {
	ws := testWorkspace()

	if got := ws.Artifact("cycle"); got != filepath.Join("/tmp/loopgen", "cycle_loop-1-test.mp4") {
		t.Errorf("Artifact = %q", got)
	}
	if got := ws.ListFile("concat"); got != filepath.Join("/tmp/loopgen", "concat_loop-1-test.txt") {
		t.Errorf("ListFile = %q", got)
	}
}

func TestSimpleStepsWithoutPreparation(t *testing.T) {
	// No scaling, no speed change, no pauses: the repeat step reads the
	// input directly and the whole pipeline is one stream-copy invocation.
	p := BuildPlan(Request{TargetDurationSec: 20, Mode: ModeSimple, Speed: 1.0}, info(5, 480, 30))
	steps := SimpleSteps(p, "in.mp4", testWorkspace(), "out.mp4")

	if len(steps) != 1 {
		t.Fatalf("expected 1 step, got %d", len(steps))
	}

	s := steps[0]
	if s.Inputs[0].Path != "in.mp4" {
		t.Errorf("input = %q, want in.mp4", s.Inputs[0].Path)
	}
	if s.Inputs[0].LoopCount != 3 {
		t.Errorf("LoopCount = %d, want 3 (4 plays)", s.Inputs[0].LoopCount)
	}
	if s.Encode != engine.EncodeCopy {
		t.Error("repeat step must stream-copy")
	}
	if s.LimitSec != 20 {
		t.Errorf("LimitSec = %v, want 20", s.LimitSec)
	}
	if s.OutputPath != "out.mp4" {
		t.Errorf("OutputPath = %q, want out.mp4", s.OutputPath)
	}
}

func TestSimpleStepsWithPreparation(t *testing.T) {
	p := BuildPlan(Request{
		TargetDurationSec: 30,
		Mode:              ModeSimple,
		StartPauseSec:     1,
		Resolution:        "720p",
		Speed:             2.0,
	}, info(5, 1080, 30))
	ws := testWorkspace()
	steps := SimpleSteps(p, "in.mp4", ws, "out.mp4")

	if len(steps) != 2 {
		t.Fatalf("expected 2 steps, got %d", len(steps))
	}

	prep := steps[0]
	want := "scale=-2:720,setpts=0.5*PTS,fps=60,tpad=start_duration=1:start_mode=clone"
	if prep.FilterGraph != want {
		t.Errorf("prep FilterGraph = %q, want %q", prep.FilterGraph, want)
	}
	if prep.Encode != engine.EncodeH264 {
		t.Error("prep step must re-encode")
	}
	if prep.OutputPath != ws.Artifact("prepared") {
		t.Errorf("prep output = %q", prep.OutputPath)
	}

	if steps[1].Inputs[0].Path != prep.OutputPath {
		t.Error("repeat step must read the prepared clip")
	}
}

func TestPingPongSteps(t *testing.T) {
	p := BuildPlan(Request{
		TargetDurationSec: 40,
		Mode:              ModePingPong,
		EndPauseSec:       2,
		Speed:             1.0,
	}, info(4, 480, 30))
	ws := testWorkspace()
	steps := PingPongSteps(p, "in.mp4", ws, "out.mp4")

	// forward, reversed, pause clip, concat, repeat.
	if len(steps) != 5 {
		t.Fatalf("expected 5 steps, got %d", len(steps))
	}

	if got := steps[0].FilterGraph; got != "tpad=stop_duration=2:stop_mode=clone" {
		t.Errorf("forward FilterGraph = %q", got)
	}
	if got := steps[1].FilterGraph; got != "reverse,setpts=PTS-STARTPTS" {
		t.Errorf("reversed FilterGraph = %q", got)
	}

	// The pause clip is cut from the pre-reverse stream: a single frame
	// held for the end pause.
	pause := steps[2].FilterGraph
	if !strings.HasPrefix(pause, "trim=start=0:duration=0.033333") {
		t.Errorf("pause FilterGraph = %q, want single-frame trim prefix", pause)
	}
	if !strings.HasSuffix(pause, "tpad=stop_duration=2:stop_mode=clone") {
		t.Errorf("pause FilterGraph = %q, want trailing pad", pause)
	}

	splice := steps[3]
	if splice.Inputs[0].Path != ws.ListFile("concat") {
		t.Errorf("splice list = %q", splice.Inputs[0].Path)
	}
	wantParts := []string{ws.Artifact("temp_a"), ws.Artifact("temp_b"), ws.Artifact("temp_pause")}
	if len(splice.Inputs[0].ConcatFiles) != len(wantParts) {
		t.Fatalf("splice parts = %v", splice.Inputs[0].ConcatFiles)
	}
	for i, want := range wantParts {
		if splice.Inputs[0].ConcatFiles[i] != want {
			t.Errorf("splice part %d = %q, want %q", i, splice.Inputs[0].ConcatFiles[i], want)
		}
	}
	if splice.Encode != engine.EncodeCopy {
		t.Error("splice step must stream-copy")
	}

	repeat := steps[4]
	if repeat.Inputs[0].Path != ws.Artifact("cycle") {
		t.Errorf("repeat input = %q", repeat.Inputs[0].Path)
	}
	// Cycle is 2*4 + 2*2 = 12; ceil(40/12) = 4 plays.
	if repeat.Inputs[0].LoopCount != 3 {
		t.Errorf("repeat LoopCount = %d, want 3", repeat.Inputs[0].LoopCount)
	}
	if repeat.LimitSec != 40 {
		t.Errorf("repeat LimitSec = %v, want 40", repeat.LimitSec)
	}
}

func TestPingPongStepsWithoutEndPauseSkipsPauseClip(t *testing.T) {
	p := BuildPlan(Request{TargetDurationSec: 20, Mode: ModePingPong, Speed: 1.0}, info(4, 480, 30))
	steps := PingPongSteps(p, "in.mp4", testWorkspace(), "out.mp4")

	// forward, reversed, concat, repeat.
	if len(steps) != 4 {
		t.Fatalf("expected 4 steps, got %d", len(steps))
	}
	if len(steps[2].Inputs[0].ConcatFiles) != 2 {
		t.Errorf("splice parts = %v", steps[2].Inputs[0].ConcatFiles)
	}
}

func TestPingPongStepsDeferredScaleAppliesToEverySegment(t *testing.T) {
	// Upscale: the scale must come after reverse/trim, and every segment
	// must carry it so the concat demuxer sees matching parameters.
	p := BuildPlan(Request{
		TargetDurationSec: 20,
		Mode:              ModePingPong,
		EndPauseSec:       1,
		Resolution:        "1080p",
		Speed:             1.0,
	}, info(4, 720, 30))
	steps := PingPongSteps(p, "in.mp4", testWorkspace(), "out.mp4")

	for i := 0; i < 3; i++ {
		if !strings.HasSuffix(steps[i].FilterGraph, "scale=-2:1080") {
			t.Errorf("segment %d FilterGraph = %q, want trailing scale", i, steps[i].FilterGraph)
		}
	}
	if !strings.HasPrefix(steps[1].FilterGraph, "reverse,") {
		t.Errorf("reversed segment = %q, want reverse before the deferred scale", steps[1].FilterGraph)
	}
}

func TestCrossfadeCycleStep(t *testing.T) {
	p := BuildPlan(Request{
		TargetDurationSec: 30,
		Mode:              ModeCrossfade,
		CrossfadeSec:      2,
		Speed:             1.0,
	}, info(10, 480, 30))
	ws := testWorkspace()
	step := CrossfadeCycleStep(p, "in.mp4", ws)

	want := strings.Join([]string{
		"[0:v:0]scale=854:-2,fps=30[v0]",
		"[v0]split=2[v1][v2]",
		"[v1]format=yuv420p,setsar=1[v3]",
		"[v2]format=yuv420p,setsar=1[v4]",
		"[v3][v4]xfade=transition=fade:duration=2:offset=8[v5]",
	}, ";")
	if step.FilterGraph != want {
		t.Errorf("FilterGraph = %q, want %q", step.FilterGraph, want)
	}
	if step.OutputLabel != "v5" {
		t.Errorf("OutputLabel = %q, want v5", step.OutputLabel)
	}
	if step.Encode != engine.EncodeH264 {
		t.Error("dissolve step must re-encode")
	}
	if step.OutputPath != ws.Artifact("cycle") {
		t.Errorf("OutputPath = %q", step.OutputPath)
	}
}

func TestCrossfadeLoopStepUsesMeasuredCycle(t *testing.T) {
	p := BuildPlan(Request{
		TargetDurationSec: 20,
		Mode:              ModeCrossfade,
		CrossfadeSec:      2,
		Speed:             1.0,
	}, info(10, 480, 30))
	ws := testWorkspace()

	step, count := CrossfadeLoopStep(p, 4.5, ws)

	if count != 4 {
		t.Errorf("count = %d, want 4", count)
	}
	if step.Inputs[0].LoopCount != 3 {
		t.Errorf("LoopCount = %d, want 3", step.Inputs[0].LoopCount)
	}
	if step.LimitSec != 18 {
		t.Errorf("LimitSec = %v, want 18 (4 x 4.5)", step.LimitSec)
	}
	if step.Inputs[0].Path != ws.Artifact("cycle") {
		t.Errorf("input = %q", step.Inputs[0].Path)
	}
	if step.OutputPath != ws.Artifact("looped") {
		t.Errorf("output = %q", step.OutputPath)
	}
}

func TestCrossfadeWrapStep(t *testing.T) {
	p := BuildPlan(Request{
		TargetDurationSec: 30,
		Mode:              ModeCrossfade,
		CrossfadeSec:      2,
		Speed:             1.0,
	}, info(10, 480, 30))
	ws := testWorkspace()

	step, ok := CrossfadeWrapStep(p, 18, ws, "out.mp4")
	if !ok {
		t.Fatal("expected wraparound pass for 18s looped clip")
	}

	want := strings.Join([]string{
		"[0:v:0]split=3[v0][v1][v2]",
		"[v0]trim=start=0:duration=2,setpts=PTS-STARTPTS,format=yuv420p,setsar=1[v3]",
		"[v1]trim=start=2:duration=12,setpts=PTS-STARTPTS,format=yuv420p,setsar=1[v4]",
		"[v2]trim=start=14:duration=2,setpts=PTS-STARTPTS,format=yuv420p,setsar=1[v5]",
		"[v5][v3]xfade=transition=fade:duration=2:offset=0[v6]",
		"[v4][v6]concat=n=2:v=1:a=0[v7]",
	}, ";")
	if step.FilterGraph != want {
		t.Errorf("FilterGraph = %q, want %q", step.FilterGraph, want)
	}
	if step.OutputLabel != "v7" {
		t.Errorf("OutputLabel = %q, want v7", step.OutputLabel)
	}
	if step.Inputs[0].Path != ws.Artifact("looped") {
		t.Errorf("input = %q", step.Inputs[0].Path)
	}
	if step.OutputPath != "out.mp4" {
		t.Errorf("output = %q", step.OutputPath)
	}
}

func TestCrossfadeWrapStepRefusesShortClips(t *testing.T) {
	p := BuildPlan(Request{
		TargetDurationSec: 30,
		Mode:              ModeCrossfade,
		CrossfadeSec:      3,
		Speed:             1.0,
	}, info(10, 480, 30))

	// 8 <= 3*3: no non-overlapping middle can be cut.
	if _, ok := CrossfadeWrapStep(p, 8, testWorkspace(), "out.mp4"); ok {
		t.Error("expected fallback for a clip shorter than three windows")
	}
	// Boundary: exactly three windows still falls back.
	if _, ok := CrossfadeWrapStep(p, 9, testWorkspace(), "out.mp4"); ok {
		t.Error("expected fallback at exactly three windows")
	}
}
