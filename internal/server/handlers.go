package server

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/Janarthanan-Gnanamurthy/Planora/internal/store"
	"github.com/Janarthanan-Gnanamurthy/Planora/pkg/models"
)

// --- Users ---

type createUserRequest struct {
	Username string `json:"username"`
	ClerkID  string `json:"clerk_id,omitempty"`
}

func (s *Server) handleCreateUser(w http.ResponseWriter, r *http.Request) {
	var req createUserRequest
	if err := decode(r, &req); err != nil {
		badRequest(w, "invalid request body")
		return
	}
	if req.Username == "" {
		badRequest(w, "username is required")
		return
	}

	if _, err := s.store.GetUserByUsername(r.Context(), req.Username); err == nil {
		badRequest(w, "Username already registered")
		return
	} else if !errors.Is(err, store.ErrNotFound) {
		s.internalError(w, err)
		return
	}

	user := &models.User{
		ID:       uuid.New().String(),
		Username: req.Username,
		ClerkID:  req.ClerkID,
	}
	if err := s.store.CreateUser(r.Context(), user); err != nil {
		s.internalError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, user)
}

func (s *Server) handleListUsers(w http.ResponseWriter, r *http.Request) {
	skip, limit := pagination(r)
	users, err := s.store.ListUsers(r.Context(), skip, limit)
	if err != nil {
		s.internalError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, users)
}

func (s *Server) handleGetUser(w http.ResponseWriter, r *http.Request) {
	user, err := s.store.GetUser(r.Context(), r.PathValue("id"))
	if errors.Is(err, store.ErrNotFound) {
		notFound(w, "User not found")
		return
	}
	if err != nil {
		s.internalError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

// --- Projects ---

type createProjectRequest struct {
	Name          string   `json:"name"`
	Description   string   `json:"description,omitempty"`
	OwnerID       string   `json:"owner_id"`
	Collaborators []string `json:"collaborators,omitempty"`
}

func (s *Server) handleCreateProject(w http.ResponseWriter, r *http.Request) {
	var req createProjectRequest
	if err := decode(r, &req); err != nil {
		badRequest(w, "invalid request body")
		return
	}
	if req.Name == "" || req.OwnerID == "" {
		badRequest(w, "name and owner_id are required")
		return
	}

	if _, err := s.store.GetUser(r.Context(), req.OwnerID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			notFound(w, fmt.Sprintf("Owner with id %s not found", req.OwnerID))
			return
		}
		s.internalError(w, err)
		return
	}

	project := &models.Project{
		ID:            uuid.New().String(),
		Name:          req.Name,
		Description:   req.Description,
		OwnerID:       req.OwnerID,
		Collaborators: req.Collaborators,
	}
	if err := s.store.CreateProject(r.Context(), project); err != nil {
		s.internalError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, project)
}

func (s *Server) handleListProjects(w http.ResponseWriter, r *http.Request) {
	skip, limit := pagination(r)
	projects, err := s.store.ListProjects(r.Context(), skip, limit)
	if err != nil {
		s.internalError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, projects)
}

func (s *Server) handleGetProject(w http.ResponseWriter, r *http.Request) {
	project, err := s.store.GetProject(r.Context(), r.PathValue("id"))
	if errors.Is(err, store.ErrNotFound) {
		notFound(w, "Project not found")
		return
	}
	if err != nil {
		s.internalError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, project)
}

type addCollaboratorsRequest struct {
	ProjectID string   `json:"project_id"`
	UserIDs   []string `json:"user_ids"`
}

func (s *Server) handleAddCollaborators(w http.ResponseWriter, r *http.Request) {
	var req addCollaboratorsRequest
	if err := decode(r, &req); err != nil {
		badRequest(w, "invalid request body")
		return
	}

	project, err := s.store.AddCollaborators(r.Context(), req.ProjectID, req.UserIDs)
	if errors.Is(err, store.ErrNotFound) {
		notFound(w, fmt.Sprintf("Project with id %s not found", req.ProjectID))
		return
	}
	if err != nil {
		s.internalError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, project)
}

// --- Tasks ---

type createTaskRequest struct {
	ProjectID    string     `json:"project_id"`
	Title        string     `json:"title"`
	Description  string     `json:"description,omitempty"`
	Priority     string     `json:"priority,omitempty"`
	AssignedToID *string    `json:"assigned_to,omitempty"`
	Deadline     *time.Time `json:"deadline,omitempty"`
}

func (s *Server) handleCreateTask(w http.ResponseWriter, r *http.Request) {
	var req createTaskRequest
	if err := decode(r, &req); err != nil {
		badRequest(w, "invalid request body")
		return
	}
	if req.ProjectID == "" || req.Title == "" {
		badRequest(w, "project_id and title are required")
		return
	}

	if _, err := s.store.GetProject(r.Context(), req.ProjectID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			notFound(w, fmt.Sprintf("Project with id %s not found", req.ProjectID))
			return
		}
		s.internalError(w, err)
		return
	}
	if req.AssignedToID != nil {
		if _, err := s.store.GetUser(r.Context(), *req.AssignedToID); err != nil {
			if errors.Is(err, store.ErrNotFound) {
				notFound(w, fmt.Sprintf("Assignee user with id %s not found", *req.AssignedToID))
				return
			}
			s.internalError(w, err)
			return
		}
	}

	task := &models.Task{
		ID:           uuid.New().String(),
		ProjectID:    req.ProjectID,
		Title:        req.Title,
		Description:  req.Description,
		Priority:     models.NormalizePriority(req.Priority),
		AssignedToID: req.AssignedToID,
		Status:       models.TaskStatusTodo,
		CreatedAt:    time.Now(),
		Deadline:     req.Deadline,
	}
	if err := s.store.CreateTask(r.Context(), task); err != nil {
		s.internalError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, task)
}

func (s *Server) handleListTasks(w http.ResponseWriter, r *http.Request) {
	skip, limit := pagination(r)
	q := r.URL.Query()
	tasks, err := s.store.ListTasks(r.Context(), store.TaskFilter{
		ProjectID:    q.Get("project_id"),
		AssignedToID: q.Get("assigned_to_id"),
		Status:       q.Get("status"),
		Offset:       skip,
		Limit:        limit,
	})
	if err != nil {
		s.internalError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, tasks)
}

func (s *Server) handleGetTask(w http.ResponseWriter, r *http.Request) {
	task, err := s.store.GetTask(r.Context(), r.PathValue("id"))
	if errors.Is(err, store.ErrNotFound) {
		notFound(w, "Task not found")
		return
	}
	if err != nil {
		s.internalError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, task)
}

type updateTaskRequest struct {
	Title        *string    `json:"title,omitempty"`
	Description  *string    `json:"description,omitempty"`
	Priority     *string    `json:"priority,omitempty"`
	AssignedToID *string    `json:"assigned_to,omitempty"`
	Status       *string    `json:"status,omitempty"`
	Deadline     *time.Time `json:"deadline,omitempty"`
}

func (s *Server) handleUpdateTask(w http.ResponseWriter, r *http.Request) {
	var req updateTaskRequest
	if err := decode(r, &req); err != nil {
		badRequest(w, "invalid request body")
		return
	}

	if req.AssignedToID != nil && *req.AssignedToID != "" {
		if _, err := s.store.GetUser(r.Context(), *req.AssignedToID); err != nil {
			if errors.Is(err, store.ErrNotFound) {
				notFound(w, fmt.Sprintf("Assignee user with id %s not found", *req.AssignedToID))
				return
			}
			s.internalError(w, err)
			return
		}
	}

	upd := store.TaskUpdate{
		Title:        req.Title,
		Description:  req.Description,
		AssignedToID: req.AssignedToID,
		Deadline:     req.Deadline,
	}
	if req.Priority != nil {
		p := models.NormalizePriority(*req.Priority)
		upd.Priority = &p
	}
	if req.Status != nil {
		status := models.TaskStatus(*req.Status)
		if !status.Valid() {
			badRequest(w, fmt.Sprintf("invalid status %q", *req.Status))
			return
		}
		upd.Status = &status
	}

	task, err := s.store.UpdateTask(r.Context(), r.PathValue("id"), upd)
	if errors.Is(err, store.ErrNotFound) {
		notFound(w, "Task not found")
		return
	}
	if err != nil {
		s.internalError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, task)
}

func (s *Server) handleDeleteTask(w http.ResponseWriter, r *http.Request) {
	err := s.store.DeleteTask(r.Context(), r.PathValue("id"))
	if errors.Is(err, store.ErrNotFound) {
		notFound(w, "Task not found")
		return
	}
	if err != nil {
		s.internalError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Task deleted"})
}

// --- Comments ---

type createCommentRequest struct {
	TaskID  string `json:"task_id"`
	UserID  string `json:"user_id"`
	Content string `json:"content"`
}

func (s *Server) handleCreateComment(w http.ResponseWriter, r *http.Request) {
	var req createCommentRequest
	if err := decode(r, &req); err != nil {
		badRequest(w, "invalid request body")
		return
	}
	if req.TaskID == "" || req.UserID == "" || req.Content == "" {
		badRequest(w, "task_id, user_id and content are required")
		return
	}

	if _, err := s.store.GetTask(r.Context(), req.TaskID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			notFound(w, fmt.Sprintf("Task with id %s not found", req.TaskID))
			return
		}
		s.internalError(w, err)
		return
	}
	if _, err := s.store.GetUser(r.Context(), req.UserID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			notFound(w, fmt.Sprintf("User with id %s not found", req.UserID))
			return
		}
		s.internalError(w, err)
		return
	}

	comment := &models.Comment{
		ID:      uuid.New().String(),
		TaskID:  req.TaskID,
		UserID:  req.UserID,
		Content: req.Content,
	}
	if err := s.store.CreateComment(r.Context(), comment); err != nil {
		s.internalError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, comment)
}

func (s *Server) handleListComments(w http.ResponseWriter, r *http.Request) {
	skip, limit := pagination(r)
	q := r.URL.Query()
	comments, err := s.store.ListComments(r.Context(), store.CommentFilter{
		TaskID: q.Get("task_id"),
		UserID: q.Get("user_id"),
		Offset: skip,
		Limit:  limit,
	})
	if err != nil {
		s.internalError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, comments)
}
