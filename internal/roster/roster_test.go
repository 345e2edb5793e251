package roster

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/znicholasbrown/chorebot/internal/database"
	"github.com/znicholasbrown/chorebot/internal/recurrence"
	"github.com/znicholasbrown/chorebot/internal/store"
)

const sample = `
people:
  - id: U1
    name: Ada
    email: ada@example.com
  - id: U2
    name: Bo
    active: false
chores:
  - title: Dishes
    difficulty: 3
    frequency: [monday, thursday]
    instructions: Load and run the dishwasher.
  - title: Trash
    frequency: [mon, tue, wed, thu, fri, sat, sun]
`

func TestParse(t *testing.T) {
	f, err := Parse([]byte(sample))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(f.People) != 2 || len(f.Chores) != 2 {
		t.Fatalf("got %d people, %d chores", len(f.People), len(f.Chores))
	}
	if f.Chores[1].Difficulty != 1 {
		t.Errorf("default difficulty = %d, want 1", f.Chores[1].Difficulty)
	}
	if f.People[1].Active == nil || *f.People[1].Active {
		t.Error("U2 should be parsed as inactive")
	}
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name, input, want string
	}{
		{"empty", "  \n", "empty"},
		{"unknown key", "people:\n  - id: U1\n    nickname: x\n", "nickname"},
		{"missing id", "people:\n  - name: Ada\n", "id is required"},
		{"duplicate id", "people:\n  - id: U1\n  - id: U1\n", "twice"},
		{"missing title", "chores:\n  - difficulty: 2\n", "title is required"},
		{"bad difficulty", "chores:\n  - title: x\n    difficulty: 9\n", "difficulty"},
		{"bad weekday", "chores:\n  - title: x\n    frequency: [someday]\n", "someday"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.input))
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error %q should mention %q", err, tt.want)
			}
		})
	}
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "roster.yaml")
	if err := os.WriteFile(path, []byte(sample), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadFile(path); err != nil {
		t.Errorf("LoadFile: %v", err)
	}
	if _, err := LoadFile(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("missing file should error")
	}
}

func TestSync(t *testing.T) {
	db, err := database.Open(":memory:")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	people := store.NewPersonStore(db)
	chores := store.NewChoreStore(db)
	ctx := context.Background()

	f, err := Parse([]byte(sample))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}

	res, err := Sync(ctx, f, people, chores)
	if err != nil {
		t.Fatalf("Sync: %v", err)
	}
	if res.PeopleUpserted != 2 || len(res.ChoresCreated) != 2 || len(res.ChoresExisting) != 0 {
		t.Errorf("first sync = %+v", res)
	}

	dishes, err := chores.GetByTitle(ctx, "Dishes")
	if err != nil || dishes == nil {
		t.Fatalf("Dishes not created: %v", err)
	}
	if dishes.Recurrence != recurrence.NewWeekdays(time.Monday, time.Thursday) || dishes.Difficulty != 3 {
		t.Errorf("Dishes = %+v", dishes)
	}
	trash, _ := chores.GetByTitle(ctx, "Trash")
	if trash == nil || trash.Recurrence != recurrence.EveryDay {
		t.Errorf("Trash = %+v", trash)
	}

	bo, _ := people.GetByID(ctx, "U2")
	if bo == nil || bo.Active {
		t.Errorf("U2 = %+v, want inactive", bo)
	}

	// A second sync leaves existing chores alone.
	res, err = Sync(ctx, f, people, chores)
	if err != nil {
		t.Fatalf("second Sync: %v", err)
	}
	if len(res.ChoresCreated) != 0 || len(res.ChoresExisting) != 2 {
		t.Errorf("second sync = %+v", res)
	}
	all, _ := chores.List(ctx)
	if len(all) != 2 {
		t.Errorf("chores after resync = %d, want 2", len(all))
	}
}
