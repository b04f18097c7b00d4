package engine

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
)

func TestBuildArgsStreamCopy(t *testing.T) {
	args := BuildArgs(Step{
		Inputs:     []Input{{Path: "cycle.mp4", LoopCount: 3}},
		Encode:     EncodeCopy,
		LimitSec:   20,
		OutputPath: "out.mp4",
	})

	want := []string{
		"-y",
		"-stream_loop", "3",
		"-i", "cycle.mp4",
		"-map", "0:v:0",
		"-c:v", "copy",
		"-an",
		"-t", "20",
		"out.mp4",
	}
	if !reflect.DeepEqual(args, want) {
		t.Errorf("args = %v, want %v", args, want)
	}
}

func TestBuildArgsLinearFilter(t *testing.T) {
	args := BuildArgs(Step{
		Inputs:      []Input{{Path: "in.mp4"}},
		FilterGraph: "reverse,setpts=PTS-STARTPTS",
		Encode:      EncodeH264,
		OutputPath:  "out.mp4",
	})

	want := []string{
		"-y",
		"-i", "in.mp4",
		"-vf", "reverse,setpts=PTS-STARTPTS",
		"-c:v", "libx264", "-preset", "ultrafast", "-crf", "18",
		"-an",
		"out.mp4",
	}
	if !reflect.DeepEqual(args, want) {
		t.Errorf("args = %v, want %v", args, want)
	}
}

func TestBuildArgsComplexFilter(t *testing.T) {
	args := BuildArgs(Step{
		Inputs:      []Input{{Path: "in.mp4"}},
		FilterGraph: "[0:v:0]split=2[v0][v1];[v0][v1]xfade=transition=fade:duration=2:offset=8[v2]",
		OutputLabel: "v2",
		Encode:      EncodeH264,
		OutputPath:  "out.mp4",
	})

	joined := strings.Join(args, " ")
	if !strings.Contains(joined, "-filter_complex") {
		t.Errorf("args = %v, want -filter_complex", args)
	}
	if !strings.Contains(joined, "-map [v2]") {
		t.Errorf("args = %v, want -map [v2]", args)
	}
	if strings.Contains(joined, "-vf") {
		t.Errorf("args = %v, -vf must not appear alongside -filter_complex", args)
	}
}

func TestBuildArgsConcatInput(t *testing.T) {
	args := BuildArgs(Step{
		Inputs: []Input{{
			Path:        "list.txt",
			ConcatFiles: []string{"a.mp4", "b.mp4"},
		}},
		Encode:     EncodeCopy,
		OutputPath: "out.mp4",
	})

	joined := strings.Join(args, " ")
	if !strings.Contains(joined, "-f concat -safe 0 -i list.txt") {
		t.Errorf("args = %v, want concat demuxer flags before the list input", args)
	}
}

func TestBuildArgsNoLimitOmitsT(t *testing.T) {
	args := BuildArgs(Step{
		Inputs:     []Input{{Path: "in.mp4"}},
		Encode:     EncodeCopy,
		OutputPath: "out.mp4",
	})

	for _, a := range args {
		if a == "-t" {
			t.Errorf("args = %v, -t must be omitted when LimitSec is 0", args)
		}
	}
}

func TestWriteConcatList(t *testing.T) {
	dir := t.TempDir()
	list := filepath.Join(dir, "list.txt")

	if err := writeConcatList(list, []string{
		filepath.Join(dir, "a.mp4"),
		filepath.Join(dir, "it's.mp4"),
	}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	data, err := os.ReadFile(list)
	if err != nil {
		t.Fatalf("read list: %v", err)
	}
	content := string(data)

	if !strings.Contains(content, "file '"+filepath.Join(dir, "a.mp4")+"'\n") {
		t.Errorf("list content = %q, missing plain entry", content)
	}
	if !strings.Contains(content, `it'\''s.mp4`) {
		t.Errorf("list content = %q, single quote not escaped", content)
	}
}

func TestCopyFile(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "src.mp4")
	dst := filepath.Join(dir, "dst.mp4")

	if err := os.WriteFile(src, []byte("payload"), 0600); err != nil {
		t.Fatal(err)
	}
	if err := CopyFile(src, dst); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	data, err := os.ReadFile(dst)
	if err != nil {
		t.Fatalf("read destination: %v", err)
	}
	if string(data) != "payload" {
		t.Errorf("destination content = %q", data)
	}
}

func TestCopyFileMissingSource(t *testing.T) {
	dir := t.TempDir()
	if err := CopyFile(filepath.Join(dir, "missing.mp4"), filepath.Join(dir, "dst.mp4")); err == nil {
		t.Error("expected error for missing source")
	}
}

func TestFFmpegError(t *testing.T) {
	cause := errors.New("exit status 1")
	err := &FFmpegError{
		Args:   []string{"-y", "-i", "in.mp4"},
		Stderr: "in.mp4: No such file or directory",
		Err:    cause,
	}

	if !errors.Is(err, cause) {
		t.Error("expected Unwrap to expose the cause")
	}
	msg := err.Error()
	if !strings.Contains(msg, "No such file or directory") {
		t.Errorf("message = %q, want stderr included", msg)
	}
	if !strings.Contains(msg, "in.mp4") {
		t.Errorf("message = %q, want args included", msg)
	}
}
