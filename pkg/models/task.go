package models

import (
	"strings"
	"time"
)

// TaskStatus represents the current state of a task.
type TaskStatus string

const (
	// TaskStatusTodo indicates the task has not started.
	TaskStatusTodo TaskStatus = "todo"
	// TaskStatusInProgress indicates the task is being worked on.
	TaskStatusInProgress TaskStatus = "in_progress"
	// TaskStatusDone indicates the task completed successfully.
	TaskStatusDone TaskStatus = "done"
)

// Valid returns true if the status is a known value.
func (s TaskStatus) Valid() bool {
	switch s {
	case TaskStatusTodo, TaskStatusInProgress, TaskStatusDone:
		return true
	default:
		return false
	}
}

// Task priorities. Anything else is coerced to medium at the boundaries
// that care (task proposals, smart creation).
const (
	PriorityHigh   = "high"
	PriorityMedium = "medium"
	PriorityLow    = "low"
)

// NormalizePriority lowercases p and coerces unknown values to medium.
func NormalizePriority(p string) string {
	switch strings.ToLower(strings.TrimSpace(p)) {
	case PriorityHigh:
		return PriorityHigh
	case PriorityLow:
		return PriorityLow
	default:
		return PriorityMedium
	}
}

// Task represents a unit of work inside a project.
type Task struct {
	// ID is the unique identifier for this task.
	ID string `json:"id"`
	// ProjectID is the project this task belongs to.
	ProjectID string `json:"project_id"`
	// Title is the short description of the task.
	Title string `json:"title"`
	// Description provides detailed information about the task.
	Description string `json:"description,omitempty"`
	// Priority is one of high, medium, low.
	Priority string `json:"priority,omitempty"`
	// AssignedToID is the ID of the user assigned to this task, if any.
	AssignedToID *string `json:"assigned_to,omitempty"`
	// Status is the current state of the task.
	Status TaskStatus `json:"status"`
	// CreatedAt is when the task was created.
	CreatedAt time.Time `json:"created_at"`
	// Deadline is when the task is due, if a deadline was set.
	Deadline *time.Time `json:"deadline,omitempty"`
}

// Overdue reports whether the task has a deadline in the past and is not done.
func (t *Task) Overdue(now time.Time) bool {
	return t.Deadline != nil && t.Deadline.Before(now) && t.Status != TaskStatusDone
}

// DaysOverdue returns the number of whole days the task is past its deadline.
// Returns 0 for tasks that are not overdue.
func (t *Task) DaysOverdue(now time.Time) int {
	if !t.Overdue(now) {
		return 0
	}
	return int(now.Sub(*t.Deadline).Hours() / 24)
}
