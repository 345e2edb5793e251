// Package roster loads a YAML seed file of people and chores and syncs it
// into the stores.
package roster

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/znicholasbrown/chorebot/internal/model"
	"github.com/znicholasbrown/chorebot/internal/recurrence"
)

type File struct {
	People []Person `yaml:"people"`
	Chores []Chore  `yaml:"chores"`
}

// Person is a roster entry keyed by Slack user id. Active defaults to true.
type Person struct {
	ID     string `yaml:"id"`
	Name   string `yaml:"name"`
	Email  string `yaml:"email"`
	Active *bool  `yaml:"active"`
}

type Chore struct {
	Title        string   `yaml:"title"`
	Instructions string   `yaml:"instructions"`
	Creator      string   `yaml:"creator"`
	Difficulty   int      `yaml:"difficulty"`
	Frequency    []string `yaml:"frequency"`
}

// Parse decodes and validates a roster file. Unknown keys are rejected.
func Parse(data []byte) (File, error) {
	var f File
	if len(bytes.TrimSpace(data)) == 0 {
		return f, errors.New("roster: file is empty")
	}

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil && !errors.Is(err, io.EOF) {
		return f, fmt.Errorf("roster: decode: %w", err)
	}
	if err := f.validate(); err != nil {
		return f, err
	}
	return f, nil
}

func LoadFile(path string) (File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return File{}, fmt.Errorf("roster: read %s: %w", path, err)
	}
	f, err := Parse(data)
	if err != nil {
		return File{}, fmt.Errorf("%s: %w", path, err)
	}
	return f, nil
}

func (f *File) validate() error {
	seen := make(map[string]bool)
	for i := range f.People {
		p := &f.People[i]
		p.ID = strings.TrimSpace(p.ID)
		p.Name = strings.TrimSpace(p.Name)
		if p.ID == "" {
			return fmt.Errorf("roster: person %d: id is required", i)
		}
		if seen[p.ID] {
			return fmt.Errorf("roster: person %s listed twice", p.ID)
		}
		seen[p.ID] = true
		if p.Name == "" {
			p.Name = p.ID
		}
	}

	for i := range f.Chores {
		c := &f.Chores[i]
		c.Title = strings.TrimSpace(c.Title)
		if c.Title == "" {
			return fmt.Errorf("roster: chore %d: title is required", i)
		}
		if c.Difficulty == 0 {
			c.Difficulty = model.MinDifficulty
		}
		if c.Difficulty < model.MinDifficulty || c.Difficulty > model.MaxDifficulty {
			return fmt.Errorf("roster: chore %q: difficulty must be between %d and %d", c.Title, model.MinDifficulty, model.MaxDifficulty)
		}
		if _, err := recurrence.ParseNames(c.Frequency); err != nil {
			return fmt.Errorf("roster: chore %q: %w", c.Title, err)
		}
	}
	return nil
}

type People interface {
	Upsert(ctx context.Context, id, name, email string, active bool) (*model.Person, error)
}

type Chores interface {
	GetByTitle(ctx context.Context, title string) (*model.Chore, error)
	Create(ctx context.Context, title, instructions, creator string, difficulty int, days recurrence.Weekdays) (*model.Chore, error)
}

// Result reports what Sync changed.
type Result struct {
	PeopleUpserted int      `json:"people_upserted"`
	ChoresCreated  []string `json:"chores_created"`
	ChoresExisting []string `json:"chores_existing"`
}

// Sync upserts every person and creates the chores whose title is not in
// the catalog yet. Existing chores are left alone.
func Sync(ctx context.Context, f File, people People, chores Chores) (*Result, error) {
	res := &Result{ChoresCreated: []string{}, ChoresExisting: []string{}}

	for _, p := range f.People {
		active := true
		if p.Active != nil {
			active = *p.Active
		}
		if _, err := people.Upsert(ctx, p.ID, p.Name, p.Email, active); err != nil {
			return res, fmt.Errorf("sync person %s: %w", p.ID, err)
		}
		res.PeopleUpserted++
	}

	for _, c := range f.Chores {
		existing, err := chores.GetByTitle(ctx, c.Title)
		if err != nil {
			return res, fmt.Errorf("sync chore %q: %w", c.Title, err)
		}
		if existing != nil {
			res.ChoresExisting = append(res.ChoresExisting, c.Title)
			continue
		}

		days, _ := recurrence.ParseNames(c.Frequency)
		if _, err := chores.Create(ctx, c.Title, c.Instructions, c.Creator, c.Difficulty, days); err != nil {
			return res, fmt.Errorf("sync chore %q: %w", c.Title, err)
		}
		res.ChoresCreated = append(res.ChoresCreated, c.Title)
	}

	return res, nil
}
