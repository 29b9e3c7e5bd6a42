package agent

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/Janarthanan-Gnanamurthy/Planora/internal/llm"
	"github.com/Janarthanan-Gnanamurthy/Planora/pkg/models"
)

// Registry is the fixed catalog of tools the assistant may invoke, bound to
// a Store. Every tool converts underlying store failures into structured
// error payloads; Execute never returns a Go error to the workflow.
type Registry struct {
	store Store
	now   func() time.Time
}

// NewRegistry creates a tool registry over the given store.
func NewRegistry(store Store) *Registry {
	return &Registry{store: store, now: time.Now}
}

// tool binds a schema to its implementation.
type tool struct {
	def llm.ToolDefinition
	run func(ctx context.Context, args map[string]any) any
}

func (r *Registry) tools() []tool {
	return []tool{
		{
			def: llm.ToolDefinition{
				Name:        "get_user_projects",
				Description: "Get all projects for a user with task counts.",
				Schema: llm.InputSchema{
					Properties: map[string]any{
						"user_id": map[string]any{
							"type":        "string",
							"description": "ID of the user whose projects to list",
						},
					},
					Required: []string{"user_id"},
				},
			},
			run: r.getUserProjects,
		},
		{
			def: llm.ToolDefinition{
				Name:        "get_project_tasks",
				Description: "Get tasks for a project, optionally filtered by status.",
				Schema: llm.InputSchema{
					Properties: map[string]any{
						"project_id": map[string]any{
							"type":        "string",
							"description": "ID of the project",
						},
						"status": map[string]any{
							"type":        "string",
							"description": "Optional status filter (todo, in_progress, done)",
						},
					},
					Required: []string{"project_id"},
				},
			},
			run: r.getProjectTasks,
		},
		{
			def: llm.ToolDefinition{
				Name:        "create_task",
				Description: "Create a new task in a project with intelligent defaults.",
				Schema: llm.InputSchema{
					Properties: map[string]any{
						"project_id": map[string]any{
							"type":        "string",
							"description": "ID of the project the task belongs to",
						},
						"title": map[string]any{
							"type":        "string",
							"description": "Task title",
						},
						"description": map[string]any{
							"type":        "string",
							"description": "Task description (optional)",
						},
						"priority": map[string]any{
							"type":        "string",
							"description": "Priority: high, medium, or low (default medium)",
						},
						"assigned_to_id": map[string]any{
							"type":        "string",
							"description": "Optional ID of the user to assign",
						},
						"deadline_days": map[string]any{
							"type":        "integer",
							"description": "Days from now until the deadline (default 7)",
						},
					},
					Required: []string{"project_id", "title"},
				},
			},
			run: r.createTask,
		},
		{
			def: llm.ToolDefinition{
				Name:        "update_task_status",
				Description: "Update the status of a task.",
				Schema: llm.InputSchema{
					Properties: map[string]any{
						"task_id": map[string]any{
							"type":        "string",
							"description": "ID of the task to update",
						},
						"status": map[string]any{
							"type":        "string",
							"description": "New status (todo, in_progress, done)",
						},
					},
					Required: []string{"task_id", "status"},
				},
			},
			run: r.updateTaskStatus,
		},
		{
			def: llm.ToolDefinition{
				Name:        "get_overdue_tasks",
				Description: "Get all overdue tasks across a user's projects, most overdue first.",
				Schema: llm.InputSchema{
					Properties: map[string]any{
						"user_id": map[string]any{
							"type":        "string",
							"description": "ID of the user",
						},
					},
					Required: []string{"user_id"},
				},
			},
			run: r.getOverdueTasks,
		},
	}
}

// Definitions returns the tool schemas to declare on provider calls.
func (r *Registry) Definitions() []llm.ToolDefinition {
	tools := r.tools()
	defs := make([]llm.ToolDefinition, len(tools))
	for i, t := range tools {
		defs[i] = t.def
	}
	return defs
}

// CatalogDescription summarizes the registry for system prompts.
func (r *Registry) CatalogDescription() string {
	return `- View and analyze projects and tasks
- Create new tasks with intelligent defaults
- Update task statuses
- Identify overdue items and bottlenecks
- Provide strategic project insights`
}

// Execute runs the named tool. Unknown tools, invalid arguments, and store
// failures all come back as structured payloads, never as faults.
func (r *Registry) Execute(ctx context.Context, call llm.ToolCall) any {
	for _, t := range r.tools() {
		if t.def.Name != call.Name {
			continue
		}
		if err := validateArgs(t.def.Schema, call.Args); err != nil {
			return map[string]any{"error": err.Error()}
		}
		return t.run(ctx, call.Args)
	}
	return map[string]any{"error": fmt.Sprintf("Unknown tool: %s", call.Name)}
}

// validateArgs checks required arguments are present and non-empty strings
// before the tool body runs.
func validateArgs(schema llm.InputSchema, args map[string]any) error {
	for _, key := range schema.Required {
		v, ok := args[key]
		if !ok || v == nil {
			return fmt.Errorf("missing required argument %q", key)
		}
		if s, isString := v.(string); isString && s == "" {
			return fmt.Errorf("argument %q must not be empty", key)
		}
	}
	return nil
}

func (r *Registry) getUserProjects(ctx context.Context, args map[string]any) any {
	userID := stringArg(args, "user_id", "")

	if _, err := r.store.GetUser(ctx, userID); err != nil {
		return []map[string]any{}
	}

	projects, err := r.store.UserProjects(ctx, userID)
	if err != nil {
		return map[string]any{"error": fmt.Sprintf("Failed to list projects: %v", err)}
	}

	out := make([]map[string]any, 0, len(projects))
	for _, p := range projects {
		tasks, err := r.store.ProjectTasks(ctx, p.ID, "")
		if err != nil {
			tasks = nil
		}
		completed := 0
		for _, t := range tasks {
			if t.Status == models.TaskStatusDone {
				completed++
			}
		}
		out = append(out, map[string]any{
			"id":              p.ID,
			"name":            p.Name,
			"description":     p.Description,
			"task_count":      len(tasks),
			"completed_tasks": completed,
		})
	}
	return out
}

func (r *Registry) getProjectTasks(ctx context.Context, args map[string]any) any {
	projectID := stringArg(args, "project_id", "")
	status := stringArg(args, "status", "")

	tasks, err := r.store.ProjectTasks(ctx, projectID, status)
	if err != nil {
		// Absent project degrades to an empty list.
		if isNotFound(err) {
			return []map[string]any{}
		}
		return map[string]any{"error": fmt.Sprintf("Failed to get tasks: %v", err)}
	}

	now := r.now()
	out := make([]map[string]any, 0, len(tasks))
	for _, t := range tasks {
		var deadline any
		if t.Deadline != nil {
			deadline = t.Deadline.Format(time.RFC3339)
		}
		out = append(out, map[string]any{
			"id":          t.ID,
			"title":       t.Title,
			"description": t.Description,
			"status":      string(t.Status),
			"priority":    t.Priority,
			"assigned_to": r.assigneeName(ctx, t),
			"deadline":    deadline,
			"overdue":     t.Overdue(now),
		})
	}
	return out
}

func (r *Registry) createTask(ctx context.Context, args map[string]any) any {
	deadlineDays := intArg(args, "deadline_days", 7)
	deadline := r.now().Add(time.Duration(deadlineDays) * 24 * time.Hour)

	task := &models.Task{
		ID:          uuid.New().String(),
		ProjectID:   stringArg(args, "project_id", ""),
		Title:       stringArg(args, "title", ""),
		Description: stringArg(args, "description", ""),
		Priority:    models.NormalizePriority(stringArg(args, "priority", models.PriorityMedium)),
		Status:      models.TaskStatusTodo,
		CreatedAt:   r.now(),
		Deadline:    &deadline,
	}
	if assignee := stringArg(args, "assigned_to_id", ""); assignee != "" {
		task.AssignedToID = &assignee
	}

	if err := r.store.CreateTask(ctx, task); err != nil {
		return map[string]any{
			"error":  fmt.Sprintf("Failed to create task: %v", err),
			"status": "failed",
		}
	}

	return map[string]any{
		"id":          task.ID,
		"title":       task.Title,
		"description": task.Description,
		"priority":    task.Priority,
		"status":      "created_successfully",
		"deadline":    deadline.Format(time.RFC3339),
	}
}

func (r *Registry) updateTaskStatus(ctx context.Context, args map[string]any) any {
	taskID := stringArg(args, "task_id", "")
	status := models.TaskStatus(stringArg(args, "status", ""))

	task, err := r.store.UpdateTaskStatus(ctx, taskID, status)
	if err != nil {
		if isNotFound(err) {
			return map[string]any{"error": "Task not found"}
		}
		return map[string]any{
			"error":  fmt.Sprintf("Failed to update task: %v", err),
			"status": "failed",
		}
	}

	return map[string]any{
		"task_id":    taskID,
		"title":      task.Title,
		"new_status": string(status),
		"updated":    true,
	}
}

func (r *Registry) getOverdueTasks(ctx context.Context, args map[string]any) any {
	userID := stringArg(args, "user_id", "")

	if _, err := r.store.GetUser(ctx, userID); err != nil {
		return []map[string]any{}
	}

	projects, err := r.store.UserProjects(ctx, userID)
	if err != nil {
		return map[string]any{"error": fmt.Sprintf("Failed to list projects: %v", err)}
	}

	now := r.now()
	overdue := []map[string]any{}
	for _, p := range projects {
		tasks, err := r.store.ProjectTasks(ctx, p.ID, "")
		if err != nil {
			continue
		}
		for _, t := range tasks {
			if !t.Overdue(now) {
				continue
			}
			overdue = append(overdue, map[string]any{
				"id":           t.ID,
				"title":        t.Title,
				"project":      p.Name,
				"deadline":     t.Deadline.Format(time.RFC3339),
				"days_overdue": t.DaysOverdue(now),
				"assigned_to":  r.assigneeName(ctx, t),
			})
		}
	}

	sort.SliceStable(overdue, func(i, j int) bool {
		return overdue[i]["days_overdue"].(int) > overdue[j]["days_overdue"].(int)
	})
	return overdue
}

// assigneeName resolves a task's assignee to a username, or "Unassigned".
func (r *Registry) assigneeName(ctx context.Context, t *models.Task) string {
	if t.AssignedToID == nil {
		return "Unassigned"
	}
	user, err := r.store.GetUser(ctx, *t.AssignedToID)
	if err != nil {
		return "Unassigned"
	}
	return user.Username
}

// stringArg reads a string argument with a default.
func stringArg(args map[string]any, key, fallback string) string {
	if v, ok := args[key]; ok {
		if s, ok := v.(string); ok && s != "" {
			return s
		}
	}
	return fallback
}

// intArg reads an integer argument, tolerating the float64 values JSON
// decoding produces. Invalid values fall back to the default.
func intArg(args map[string]any, key string, fallback int) int {
	v, ok := args[key]
	if !ok {
		return fallback
	}
	switch n := v.(type) {
	case int:
		return n
	case int64:
		return int(n)
	case float64:
		return int(n)
	default:
		return fallback
	}
}
