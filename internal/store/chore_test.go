package store

import (
	"context"
	"testing"
	"time"

	"github.com/znicholasbrown/chorebot/internal/database"
	"github.com/znicholasbrown/chorebot/internal/recurrence"
)

func setupChoreTestDB(t *testing.T) *ChoreStore {
	t.Helper()
	db, err := database.Open(":memory:")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return NewChoreStore(db)
}

func TestChoreCRUD(t *testing.T) {
	cs := setupChoreTestDB(t)
	ctx := context.Background()

	mondays := recurrence.NewWeekdays(time.Monday)

	// Create
	chore, err := cs.Create(ctx, "Wash dishes", "Clean all dishes", "alice", 2, mondays)
	if err != nil {
		t.Fatalf("create chore: %v", err)
	}
	if chore.ID == "" {
		t.Error("expected generated id")
	}
	if chore.Title != "Wash dishes" {
		t.Errorf("title = %q, want %q", chore.Title, "Wash dishes")
	}
	if chore.Difficulty != 2 {
		t.Errorf("difficulty = %d, want 2", chore.Difficulty)
	}
	if chore.Recurrence != mondays {
		t.Errorf("recurrence = %v, want %v", chore.Recurrence, mondays)
	}
	if chore.Deleted {
		t.Error("new chore should not be deleted")
	}

	// Update
	updated, err := cs.Update(ctx, chore.ID, "Wash all dishes", "Pots and pans too", 3, recurrence.EveryDay)
	if err != nil {
		t.Fatalf("update chore: %v", err)
	}
	if updated.Title != "Wash all dishes" || updated.Difficulty != 3 || updated.Recurrence != recurrence.EveryDay {
		t.Errorf("updated = %+v", updated)
	}

	// GetByTitle
	byTitle, err := cs.GetByTitle(ctx, "Wash all dishes")
	if err != nil {
		t.Fatalf("get by title: %v", err)
	}
	if byTitle == nil || byTitle.ID != chore.ID {
		t.Errorf("get by title = %v", byTitle)
	}

	// Soft delete
	if err := cs.SoftDelete(ctx, chore.ID); err != nil {
		t.Fatalf("delete chore: %v", err)
	}
	chores, err := cs.List(ctx)
	if err != nil {
		t.Fatalf("list chores: %v", err)
	}
	if len(chores) != 0 {
		t.Errorf("expected deleted chore to be hidden, got %d", len(chores))
	}
	got, err := cs.GetByID(ctx, chore.ID)
	if err != nil {
		t.Fatalf("get deleted chore: %v", err)
	}
	if got == nil || !got.Deleted {
		t.Errorf("soft-deleted chore should still resolve with Deleted set: %+v", got)
	}
}

func TestChoreGetByIDNotFound(t *testing.T) {
	cs := setupChoreTestDB(t)

	got, err := cs.GetByID(context.Background(), "missing")
	if err != nil {
		t.Fatalf("get chore: %v", err)
	}
	if got != nil {
		t.Error("expected nil for nonexistent chore")
	}
}

func TestChoreListEligible(t *testing.T) {
	cs := setupChoreTestDB(t)
	ctx := context.Background()

	monday := time.Date(2026, 10, 12, 9, 0, 0, 0, time.UTC)

	daily, _ := cs.Create(ctx, "Daily", "", "", 1, recurrence.EveryDay)
	mon, _ := cs.Create(ctx, "Monday only", "", "", 4, recurrence.NewWeekdays(time.Monday))
	cs.Create(ctx, "Friday only", "", "", 3, recurrence.NewWeekdays(time.Friday))
	gone, _ := cs.Create(ctx, "Deleted daily", "", "", 2, recurrence.EveryDay)
	cs.SoftDelete(ctx, gone.ID)

	eligible, err := cs.ListEligible(ctx, monday)
	if err != nil {
		t.Fatalf("list eligible: %v", err)
	}
	if len(eligible) != 2 {
		t.Fatalf("expected 2 eligible chores, got %d", len(eligible))
	}
	if eligible[0].ID != daily.ID || eligible[1].ID != mon.ID {
		t.Errorf("eligible order = [%s %s], want catalog order", eligible[0].Title, eligible[1].Title)
	}
}
