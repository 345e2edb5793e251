package model

import "time"

// Assignment records one chore handed to one person for one cycle date.
// State holds an assignment.State value.
type Assignment struct {
	ID             int64     `json:"id"`
	PersonID       string    `json:"person_id"`
	ChoreID        string    `json:"chore_id"`
	CycleDate      string    `json:"cycle_date"`
	State          string    `json:"state"`
	MessageChannel string    `json:"message_channel,omitempty"`
	MessageTS      string    `json:"message_ts,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// CycleDateFormat is the layout of Assignment.CycleDate.
const CycleDateFormat = "2006-01-02"
