package agent

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/Janarthanan-Gnanamurthy/Planora/internal/llm"
	"github.com/Janarthanan-Gnanamurthy/Planora/internal/store"
	"github.com/Janarthanan-Gnanamurthy/Planora/pkg/models"
)

// fakeStore is an in-memory Store for tests. Set failCreate to force
// CreateTask errors, failTasks to force ProjectTasks errors.
type fakeStore struct {
	users      map[string]*models.User
	projects   map[string]*models.Project
	tasks      map[string]*models.Task
	runs       []*models.AgentRun
	failCreate bool
	failTasks  bool
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		users:    map[string]*models.User{},
		projects: map[string]*models.Project{},
		tasks:    map[string]*models.Task{},
	}
}

var errFakeNotFound = fmt.Errorf("fake: %w", store.ErrNotFound)

func (s *fakeStore) GetUser(_ context.Context, id string) (*models.User, error) {
	u, ok := s.users[id]
	if !ok {
		return nil, errFakeNotFound
	}
	return u, nil
}

func (s *fakeStore) GetProject(_ context.Context, id string) (*models.Project, error) {
	p, ok := s.projects[id]
	if !ok {
		return nil, errFakeNotFound
	}
	return p, nil
}

func (s *fakeStore) UserProjects(_ context.Context, userID string) ([]*models.Project, error) {
	var out []*models.Project
	for _, p := range s.projects {
		if p.OwnerID == userID {
			out = append(out, p)
		}
	}
	return out, nil
}

func (s *fakeStore) ProjectTasks(_ context.Context, projectID, status string) ([]*models.Task, error) {
	if s.failTasks {
		return nil, fmt.Errorf("disk full")
	}
	if _, ok := s.projects[projectID]; !ok {
		return nil, errFakeNotFound
	}
	var out []*models.Task
	for _, t := range s.tasks {
		if t.ProjectID != projectID {
			continue
		}
		if status != "" && string(t.Status) != status {
			continue
		}
		out = append(out, t)
	}
	return out, nil
}

func (s *fakeStore) GetTask(_ context.Context, id string) (*models.Task, error) {
	t, ok := s.tasks[id]
	if !ok {
		return nil, errFakeNotFound
	}
	return t, nil
}

func (s *fakeStore) CreateTask(_ context.Context, t *models.Task) error {
	if s.failCreate {
		return fmt.Errorf("disk full")
	}
	s.tasks[t.ID] = t
	return nil
}

func (s *fakeStore) UpdateTaskStatus(_ context.Context, id string, status models.TaskStatus) (*models.Task, error) {
	t, ok := s.tasks[id]
	if !ok {
		return nil, errFakeNotFound
	}
	t.Status = status
	return t, nil
}

func (s *fakeStore) RecordAgentRun(_ context.Context, r *models.AgentRun) error {
	s.runs = append(s.runs, r)
	return nil
}

// fakeProvider replays scripted completions in order. A nil completion at a
// position yields a provider error instead.
type fakeProvider struct {
	script   []*llm.Completion
	requests []llm.CompletionRequest
}

func (p *fakeProvider) Complete(_ context.Context, req llm.CompletionRequest) (*llm.Completion, error) {
	p.requests = append(p.requests, req)
	if len(p.script) == 0 {
		return nil, &llm.ProviderError{Op: "complete", Err: fmt.Errorf("script exhausted")}
	}
	next := p.script[0]
	p.script = p.script[1:]
	if next == nil {
		return nil, &llm.ProviderError{Op: "complete", Err: fmt.Errorf("scripted failure")}
	}
	return next, nil
}

func testRegistry(s *fakeStore, now time.Time) *Registry {
	r := NewRegistry(s)
	r.now = func() time.Time { return now }
	return r
}

func testLogger() zerolog.Logger {
	return zerolog.Nop()
}
