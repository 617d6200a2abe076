package tasks

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
)

func TestCreateRequiresOwner(t *testing.T) {
	svc := NewService(NewInMemoryRepository(nil))

	if _, err := svc.Create(context.Background(), "", "buy milk"); !errors.Is(err, ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestCreateRequiresText(t *testing.T) {
	svc := NewService(NewInMemoryRepository(nil))

	if _, err := svc.Create(context.Background(), "user-1", "   "); !errors.Is(err, ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestCreateRejectsOverlongText(t *testing.T) {
	svc := NewService(NewInMemoryRepository(nil))

	if _, err := svc.Create(context.Background(), "user-1", strings.Repeat("x", maxTaskTextLength+1)); !errors.Is(err, ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestCreateTrimsAndStores(t *testing.T) {
	svc := NewService(NewInMemoryRepository(nil))

	task, err := svc.Create(context.Background(), "user-1", "  buy milk  ")
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}
	if task.Text != "buy milk" {
		t.Fatalf("expected trimmed text, got %q", task.Text)
	}
	if task.IsCompleted {
		t.Fatal("new task must not be completed")
	}
	if task.OwnerID != "user-1" {
		t.Fatalf("unexpected owner %q", task.OwnerID)
	}
}

func TestListReturnsNewestFirst(t *testing.T) {
	repo := NewInMemoryRepository(nil)
	svc := NewService(repo)

	older, err := svc.Create(context.Background(), "user-1", "first")
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}
	older.CreatedAt = older.CreatedAt.Add(-time.Hour)
	if _, err := repo.Update(context.Background(), older); err != nil {
		t.Fatalf("Update returned error: %v", err)
	}
	if _, err := svc.Create(context.Background(), "user-1", "second"); err != nil {
		t.Fatalf("Create returned error: %v", err)
	}

	list, err := svc.List(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("List returned error: %v", err)
	}
	if len(list) != 2 {
		t.Fatalf("expected 2 tasks, got %d", len(list))
	}
	if list[0].Text != "second" || list[1].Text != "first" {
		t.Fatalf("unexpected order: %q, %q", list[0].Text, list[1].Text)
	}
}

func TestListEmptyOwnerReturnsEmpty(t *testing.T) {
	svc := NewService(NewInMemoryRepository(nil))

	list, err := svc.List(context.Background(), "")
	if err != nil {
		t.Fatalf("List returned error: %v", err)
	}
	if len(list) != 0 {
		t.Fatalf("expected empty list, got %d tasks", len(list))
	}
}

func TestSetCompletedScopedToOwner(t *testing.T) {
	svc := NewService(NewInMemoryRepository(nil))

	task, err := svc.Create(context.Background(), "user-1", "buy milk")
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}

	// Another identity must not be able to touch the task, and the
	// failure must be indistinguishable from the task not existing.
	if _, err := svc.SetCompleted(context.Background(), "user-2", task.ID, true); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected not found for foreign owner, got %v", err)
	}

	updated, err := svc.SetCompleted(context.Background(), "user-1", task.ID, true)
	if err != nil {
		t.Fatalf("SetCompleted returned error: %v", err)
	}
	if !updated.IsCompleted {
		t.Fatal("expected task completed")
	}
}

func TestDeleteScopedToOwner(t *testing.T) {
	svc := NewService(NewInMemoryRepository(nil))

	task, err := svc.Create(context.Background(), "user-1", "buy milk")
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}

	if err := svc.Delete(context.Background(), "user-2", task.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected not found for foreign owner, got %v", err)
	}
	if err := svc.Delete(context.Background(), "user-1", task.ID); err != nil {
		t.Fatalf("Delete returned error: %v", err)
	}
	if err := svc.Delete(context.Background(), "user-1", task.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected not found after delete, got %v", err)
	}
}

func TestDeleteByOwnerCascades(t *testing.T) {
	svc := NewService(NewInMemoryRepository(nil))

	for _, text := range []string{"a", "b", "c"} {
		if _, err := svc.Create(context.Background(), "user-1", text); err != nil {
			t.Fatalf("Create returned error: %v", err)
		}
	}
	if _, err := svc.Create(context.Background(), "user-2", "keep"); err != nil {
		t.Fatalf("Create returned error: %v", err)
	}

	deleted, err := svc.DeleteByOwner(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("DeleteByOwner returned error: %v", err)
	}
	if deleted != 3 {
		t.Fatalf("expected 3 deletions, got %d", deleted)
	}

	remaining, err := svc.List(context.Background(), "user-2")
	if err != nil {
		t.Fatalf("List returned error: %v", err)
	}
	if len(remaining) != 1 {
		t.Fatalf("cascade removed another owner's tasks: %d left", len(remaining))
	}
}

func TestListSampleExcludesOwnedTasks(t *testing.T) {
	sample := Task{ID: uuid.New(), Text: "demo entry", CreatedAt: time.Now()}
	repo := NewInMemoryRepository([]Task{sample})
	svc := NewService(repo)

	if _, err := svc.Create(context.Background(), "user-1", "private"); err != nil {
		t.Fatalf("Create returned error: %v", err)
	}

	list, err := svc.ListSample(context.Background())
	if err != nil {
		t.Fatalf("ListSample returned error: %v", err)
	}
	if len(list) != 1 || list[0].Text != "demo entry" {
		t.Fatalf("unexpected sample list: %+v", list)
	}
}
