package job

import (
	"context"
	"errors"
	"testing"
)

func TestMemoryRepositorySaveAndFind(t *testing.T) {
	repo := NewMemoryRepository()
	ctx := context.Background()

	j := New(testRequest())
	if err := repo.Save(ctx, j); err != nil {
		t.Fatalf("Save: %v", err)
	}

	found, err := repo.FindByID(ctx, j.ID)
	if err != nil {
		t.Fatalf("FindByID: %v", err)
	}
	if found.ID != j.ID {
		t.Errorf("ID = %q, want %q", found.ID, j.ID)
	}

	// Stored copy is isolated from later mutations of the original.
	_ = j.Start()
	found, _ = repo.FindByID(ctx, j.ID)
	if found.Status != StatusQueued {
		t.Errorf("stored Status = %s, want %s", found.Status, StatusQueued)
	}
}

func TestMemoryRepositoryFindMissing(t *testing.T) {
	repo := NewMemoryRepository()

	if _, err := repo.FindByID(context.Background(), "nope"); !errors.Is(err, ErrJobNotFound) {
		t.Errorf("expected ErrJobNotFound, got %v", err)
	}
}

func TestMemoryRepositoryList(t *testing.T) {
	repo := NewMemoryRepository()
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if err := repo.Save(ctx, New(testRequest())); err != nil {
			t.Fatalf("Save: %v", err)
		}
	}

	jobs, err := repo.List(ctx)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(jobs) != 3 {
		t.Errorf("len = %d, want 3", len(jobs))
	}
}

func TestMemoryRepositoryDelete(t *testing.T) {
	repo := NewMemoryRepository()
	ctx := context.Background()

	j := New(testRequest())
	_ = repo.Save(ctx, j)

	if err := repo.Delete(ctx, j.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := repo.FindByID(ctx, j.ID); !errors.Is(err, ErrJobNotFound) {
		t.Error("job still present after delete")
	}
	if err := repo.Delete(ctx, j.ID); !errors.Is(err, ErrJobNotFound) {
		t.Errorf("second delete: expected ErrJobNotFound, got %v", err)
	}
}
