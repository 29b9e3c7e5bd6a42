// Package agent implements the project-management assistant core: request
// classification, the tool registry, the task-breakdown engine, the
// four-stage workflow, and the dispatcher that routes between them.
package agent

import (
	"context"
	"errors"

	"github.com/Janarthanan-Gnanamurthy/Planora/internal/store"
	"github.com/Janarthanan-Gnanamurthy/Planora/pkg/models"
)

// Store is the persistence surface the assistant core needs. Implementations
// return an error satisfying errors.Is(err, store.ErrNotFound) for absent
// records and must commit or roll back each write atomically.
type Store interface {
	GetUser(ctx context.Context, id string) (*models.User, error)
	GetProject(ctx context.Context, id string) (*models.Project, error)
	UserProjects(ctx context.Context, userID string) ([]*models.Project, error)
	ProjectTasks(ctx context.Context, projectID, status string) ([]*models.Task, error)
	GetTask(ctx context.Context, id string) (*models.Task, error)
	CreateTask(ctx context.Context, t *models.Task) error
	UpdateTaskStatus(ctx context.Context, id string, status models.TaskStatus) (*models.Task, error)
}

// RunRecorder persists completed workflow runs. Optional; recording failures
// are logged and never fail a run.
type RunRecorder interface {
	RecordAgentRun(ctx context.Context, r *models.AgentRun) error
}

// isNotFound reports whether err marks an absent record.
func isNotFound(err error) bool {
	return errors.Is(err, store.ErrNotFound)
}
