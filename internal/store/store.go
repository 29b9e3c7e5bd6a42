// Package store provides SQLite-backed persistence for users, projects,
// tasks, comments, and assistant run records.
package store

import (
	"errors"
	"time"

	"github.com/Janarthanan-Gnanamurthy/Planora/pkg/models"
)

// ErrNotFound is returned when a referenced record does not exist.
var ErrNotFound = errors.New("not found")

// TaskFilter narrows ListTasks results. Zero values mean "no filter".
type TaskFilter struct {
	ProjectID    string
	AssignedToID string
	Status       string
	Offset       int
	Limit        int
}

// CommentFilter narrows ListComments results. Zero values mean "no filter".
type CommentFilter struct {
	TaskID string
	UserID string
	Offset int
	Limit  int
}

// TaskUpdate describes a partial task update. Nil fields are left unchanged.
type TaskUpdate struct {
	Title        *string
	Description  *string
	Priority     *string
	AssignedToID *string
	Status       *models.TaskStatus
	Deadline     *time.Time
}
