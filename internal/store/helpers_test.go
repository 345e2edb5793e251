package store

import "github.com/znicholasbrown/chorebot/internal/model"

func ids(people []model.Person) []string {
	out := make([]string, 0, len(people))
	for _, p := range people {
		out = append(out, p.ID)
	}
	return out
}
