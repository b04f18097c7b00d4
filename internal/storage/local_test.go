package storage

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestNewLocalStorageCreatesDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "work")

	s, err := NewLocalStorage(dir)
	if err != nil {
		t.Fatalf("NewLocalStorage: %v", err)
	}
	if s.TempDir() != dir {
		t.Errorf("TempDir = %q, want %q", s.TempDir(), dir)
	}
	if _, err := os.Stat(dir); err != nil {
		t.Errorf("directory not created: %v", err)
	}
}

func TestSaveTemp(t *testing.T) {
	s, err := NewLocalStorage(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}

	path, err := s.SaveTemp(context.Background(), "input_loop-1-x", strings.NewReader("clip"))
	if err != nil {
		t.Fatalf("SaveTemp: %v", err)
	}

	if !strings.Contains(filepath.Base(path), "input_loop-1-x") {
		t.Errorf("path = %q, want name hint in filename", path)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read saved file: %v", err)
	}
	if string(data) != "clip" {
		t.Errorf("content = %q", data)
	}
}

func TestSaveTempCancelledContext(t *testing.T) {
	s, err := NewLocalStorage(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := s.SaveTemp(ctx, "input", strings.NewReader("clip")); err == nil {
		t.Error("expected error for cancelled context")
	}
}

func TestCleanupTemp(t *testing.T) {
	s, err := NewLocalStorage(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	ctx := context.Background()

	p1, _ := s.SaveTemp(ctx, "a", strings.NewReader("1"))
	p2, _ := s.SaveTemp(ctx, "b", strings.NewReader("2"))

	// Missing files are not an error; cleanup keeps going.
	if err := s.CleanupTemp(ctx, []string{p1, filepath.Join(s.TempDir(), "missing.mp4"), p2}); err != nil {
		t.Fatalf("CleanupTemp: %v", err)
	}
	for _, p := range []string{p1, p2} {
		if _, err := os.Stat(p); !os.IsNotExist(err) {
			t.Errorf("%s not removed", p)
		}
	}
}

func TestLocalUploadToS3NotConfigured(t *testing.T) {
	s, err := NewLocalStorage(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}

	if _, err := s.UploadToS3(context.Background(), "key", strings.NewReader("x")); !errors.Is(err, ErrS3NotConfigured) {
		t.Errorf("expected ErrS3NotConfigured, got %v", err)
	}
}
