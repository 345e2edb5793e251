package model

import "time"

// Person is someone on the chore roster. ID is the stable external
// identifier (the Slack user id); Email is the contact address the
// out-of-office calendar reports.
type Person struct {
	ID              string    `json:"id"`
	Name            string    `json:"name"`
	Email           string    `json:"email"`
	Active          bool      `json:"active"`
	Score           int       `json:"score"`
	AssignedTask    bool      `json:"assigned_task"`
	AssignedChoreID *string   `json:"assigned_chore_id"`
	Unavailable     bool      `json:"unavailable"`
	SortOrder       int       `json:"sort_order"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}
