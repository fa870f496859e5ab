package domain

import "time"

type TaskStatus string

const (
	TaskStatusOpen      TaskStatus = "open"
	TaskStatusCompleted TaskStatus = "completed"
)

// Task is the unit managed by the task agent.
type Task struct {
	ID        string     `json:"id"`
	ClientID  string     `json:"client_id"`
	Title     string     `json:"title"`
	Details   string     `json:"details,omitempty"`
	Status    TaskStatus `json:"status"`
	DueAt     *time.Time `json:"due_at,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
	DeletedAt *time.Time `json:"deleted_at,omitempty"`
}
