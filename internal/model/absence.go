package model

import "time"

// Absence marks a contact address as out of office for an inclusive
// range of dates (YYYY-MM-DD).
type Absence struct {
	ID        int64     `json:"id"`
	Email     string    `json:"email"`
	StartsOn  string    `json:"start"`
	EndsOn    string    `json:"end"`
	Note      string    `json:"note"`
	CreatedAt time.Time `json:"created_at"`
}
