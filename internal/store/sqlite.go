package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	"github.com/Janarthanan-Gnanamurthy/Planora/pkg/models"
)

// DB wraps an SQLite database connection.
type DB struct {
	conn *sql.DB
	path string
	mu   sync.RWMutex
}

// Open opens an SQLite database at the given path, creating parent
// directories if needed. WAL mode is enabled for concurrent reads.
func Open(path string) (*DB, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	conn, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if _, err := conn.Exec("PRAGMA journal_mode=WAL"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("enable WAL mode: %w", err)
	}
	if _, err := conn.Exec("PRAGMA foreign_keys=ON"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("enable foreign keys: %w", err)
	}

	return &DB{conn: conn, path: path}, nil
}

// Close closes the database connection.
func (db *DB) Close() error {
	db.mu.Lock()
	defer db.mu.Unlock()
	return db.conn.Close()
}

// Path returns the path to the database file.
func (db *DB) Path() string {
	return db.path
}

// Migrate applies all pending schema migrations.
func (db *DB) Migrate() error {
	db.mu.Lock()
	defer db.mu.Unlock()

	_, err := db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS schema_version (
			version INTEGER PRIMARY KEY,
			applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("create schema_version table: %w", err)
	}

	var currentVersion int
	row := db.conn.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_version")
	if err := row.Scan(&currentVersion); err != nil {
		return fmt.Errorf("get schema version: %w", err)
	}

	migrations := []struct {
		version int
		sql     string
	}{
		{1, migrationV1Core},
		{2, migrationV2AgentRuns},
	}

	for _, m := range migrations {
		if m.version <= currentVersion {
			continue
		}

		tx, err := db.conn.Begin()
		if err != nil {
			return fmt.Errorf("begin transaction: %w", err)
		}

		if _, err := tx.Exec(m.sql); err != nil {
			tx.Rollback()
			return fmt.Errorf("apply migration v%d: %w", m.version, err)
		}

		if _, err := tx.Exec("INSERT INTO schema_version (version) VALUES (?)", m.version); err != nil {
			tx.Rollback()
			return fmt.Errorf("record migration v%d: %w", m.version, err)
		}

		if err := tx.Commit(); err != nil {
			return fmt.Errorf("commit migration v%d: %w", m.version, err)
		}
	}

	return nil
}

const migrationV1Core = `
CREATE TABLE IF NOT EXISTS users (
	id TEXT PRIMARY KEY,
	username TEXT NOT NULL UNIQUE,
	clerk_id TEXT
);

CREATE TABLE IF NOT EXISTS projects (
	id TEXT PRIMARY KEY,
	name TEXT NOT NULL,
	description TEXT,
	owner_id TEXT NOT NULL REFERENCES users(id),
	collaborators TEXT
);

CREATE INDEX IF NOT EXISTS idx_projects_owner_id ON projects(owner_id);

CREATE TABLE IF NOT EXISTS tasks (
	id TEXT PRIMARY KEY,
	project_id TEXT NOT NULL REFERENCES projects(id) ON DELETE CASCADE,
	title TEXT NOT NULL,
	description TEXT,
	priority TEXT,
	assigned_to_id TEXT REFERENCES users(id),
	status TEXT NOT NULL DEFAULT 'todo',
	created_at DATETIME NOT NULL,
	deadline DATETIME
);

CREATE INDEX IF NOT EXISTS idx_tasks_project_id ON tasks(project_id);
CREATE INDEX IF NOT EXISTS idx_tasks_assigned_to_id ON tasks(assigned_to_id);
CREATE INDEX IF NOT EXISTS idx_tasks_status ON tasks(status);

CREATE TABLE IF NOT EXISTS comments (
	id TEXT PRIMARY KEY,
	task_id TEXT NOT NULL REFERENCES tasks(id) ON DELETE CASCADE,
	user_id TEXT NOT NULL REFERENCES users(id),
	content TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_comments_task_id ON comments(task_id);
CREATE INDEX IF NOT EXISTS idx_comments_user_id ON comments(user_id);
`

const migrationV2AgentRuns = `
CREATE TABLE IF NOT EXISTS agent_runs (
	id TEXT PRIMARY KEY,
	thread_key TEXT NOT NULL,
	user_id TEXT NOT NULL,
	project_id TEXT,
	query TEXT NOT NULL,
	response TEXT,
	action_taken INTEGER NOT NULL DEFAULT 0,
	created_at DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_agent_runs_thread_key ON agent_runs(thread_key);
`

// Transaction runs the given function within a transaction.
func (db *DB) Transaction(fn func(tx *sql.Tx) error) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}

	if err := fn(tx); err != nil {
		tx.Rollback()
		return err
	}

	return tx.Commit()
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}

func parseTime(s string) (time.Time, error) {
	return time.Parse(time.RFC3339, s)
}

// --- Users ---

// CreateUser inserts a new user. Duplicate usernames fail.
func (db *DB) CreateUser(ctx context.Context, u *models.User) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	_, err := db.conn.ExecContext(ctx, `
		INSERT INTO users (id, username, clerk_id) VALUES (?, ?, ?)
	`, u.ID, u.Username, u.ClerkID)
	if err != nil {
		return fmt.Errorf("create user: %w", err)
	}
	return nil
}

// GetUser fetches a user by ID. Returns ErrNotFound if absent.
func (db *DB) GetUser(ctx context.Context, id string) (*models.User, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()

	var u models.User
	var clerkID sql.NullString
	err := db.conn.QueryRowContext(ctx, `
		SELECT id, username, clerk_id FROM users WHERE id = ?
	`, id).Scan(&u.ID, &u.Username, &clerkID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("user %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	u.ClerkID = clerkID.String
	return &u, nil
}

// GetUserByUsername fetches a user by username. Returns ErrNotFound if absent.
func (db *DB) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()

	var u models.User
	var clerkID sql.NullString
	err := db.conn.QueryRowContext(ctx, `
		SELECT id, username, clerk_id FROM users WHERE username = ?
	`, username).Scan(&u.ID, &u.Username, &clerkID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("user %q: %w", username, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get user by username: %w", err)
	}
	u.ClerkID = clerkID.String
	return &u, nil
}

// ListUsers returns users with pagination.
func (db *DB) ListUsers(ctx context.Context, offset, limit int) ([]*models.User, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()

	if limit <= 0 {
		limit = 100
	}
	rows, err := db.conn.QueryContext(ctx, `
		SELECT id, username, clerk_id FROM users ORDER BY username LIMIT ? OFFSET ?
	`, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	users := []*models.User{}
	for rows.Next() {
		var u models.User
		var clerkID sql.NullString
		if err := rows.Scan(&u.ID, &u.Username, &clerkID); err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		u.ClerkID = clerkID.String
		users = append(users, &u)
	}
	return users, rows.Err()
}

// --- Projects ---

// CreateProject inserts a new project.
func (db *DB) CreateProject(ctx context.Context, p *models.Project) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	collab, err := marshalCollaborators(p.Collaborators)
	if err != nil {
		return err
	}
	_, err = db.conn.ExecContext(ctx, `
		INSERT INTO projects (id, name, description, owner_id, collaborators)
		VALUES (?, ?, ?, ?, ?)
	`, p.ID, p.Name, p.Description, p.OwnerID, collab)
	if err != nil {
		return fmt.Errorf("create project: %w", err)
	}
	return nil
}

// GetProject fetches a project by ID. Returns ErrNotFound if absent.
func (db *DB) GetProject(ctx context.Context, id string) (*models.Project, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()

	return db.getProjectLocked(ctx, id)
}

func (db *DB) getProjectLocked(ctx context.Context, id string) (*models.Project, error) {
	row := db.conn.QueryRowContext(ctx, `
		SELECT id, name, description, owner_id, collaborators FROM projects WHERE id = ?
	`, id)
	p, err := scanProject(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("project %s: %w", id, ErrNotFound)
	}
	return p, err
}

// ListProjects returns projects with pagination.
func (db *DB) ListProjects(ctx context.Context, offset, limit int) ([]*models.Project, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()

	if limit <= 0 {
		limit = 100
	}
	rows, err := db.conn.QueryContext(ctx, `
		SELECT id, name, description, owner_id, collaborators
		FROM projects ORDER BY name LIMIT ? OFFSET ?
	`, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list projects: %w", err)
	}
	defer rows.Close()

	return collectProjects(rows)
}

// UserProjects returns the projects owned by the given user.
func (db *DB) UserProjects(ctx context.Context, userID string) ([]*models.Project, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()

	rows, err := db.conn.QueryContext(ctx, `
		SELECT id, name, description, owner_id, collaborators
		FROM projects WHERE owner_id = ? ORDER BY name
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("user projects: %w", err)
	}
	defer rows.Close()

	return collectProjects(rows)
}

// AddCollaborators merges the given user IDs into the project's collaborator
// list, skipping duplicates, and returns the updated project.
func (db *DB) AddCollaborators(ctx context.Context, projectID string, userIDs []string) (*models.Project, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	p, err := db.getProjectLocked(ctx, projectID)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]bool, len(p.Collaborators))
	for _, id := range p.Collaborators {
		seen[id] = true
	}
	for _, id := range userIDs {
		if !seen[id] {
			p.Collaborators = append(p.Collaborators, id)
			seen[id] = true
		}
	}

	collab, err := marshalCollaborators(p.Collaborators)
	if err != nil {
		return nil, err
	}
	if _, err := db.conn.ExecContext(ctx, `
		UPDATE projects SET collaborators = ? WHERE id = ?
	`, collab, projectID); err != nil {
		return nil, fmt.Errorf("update collaborators: %w", err)
	}
	return p, nil
}

func marshalCollaborators(ids []string) (string, error) {
	if len(ids) == 0 {
		return "[]", nil
	}
	b, err := json.Marshal(ids)
	if err != nil {
		return "", fmt.Errorf("marshal collaborators: %w", err)
	}
	return string(b), nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanProject(row rowScanner) (*models.Project, error) {
	var p models.Project
	var description, collab sql.NullString
	if err := row.Scan(&p.ID, &p.Name, &description, &p.OwnerID, &collab); err != nil {
		return nil, err
	}
	p.Description = description.String
	if collab.Valid && collab.String != "" {
		if err := json.Unmarshal([]byte(collab.String), &p.Collaborators); err != nil {
			return nil, fmt.Errorf("unmarshal collaborators: %w", err)
		}
	}
	return &p, nil
}

func collectProjects(rows *sql.Rows) ([]*models.Project, error) {
	projects := []*models.Project{}
	for rows.Next() {
		p, err := scanProject(rows)
		if err != nil {
			return nil, fmt.Errorf("scan project: %w", err)
		}
		projects = append(projects, p)
	}
	return projects, rows.Err()
}

// --- Tasks ---

// CreateTask inserts a new task inside a transaction. A failed insert leaves
// no partial record behind.
func (db *DB) CreateTask(ctx context.Context, t *models.Task) error {
	return db.Transaction(func(tx *sql.Tx) error {
		var deadline any
		if t.Deadline != nil {
			deadline = formatTime(*t.Deadline)
		}
		var assignedTo any
		if t.AssignedToID != nil {
			assignedTo = *t.AssignedToID
		}
		_, err := tx.ExecContext(ctx, `
			INSERT INTO tasks (id, project_id, title, description, priority, assigned_to_id, status, created_at, deadline)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		`, t.ID, t.ProjectID, t.Title, t.Description, t.Priority, assignedTo,
			string(t.Status), formatTime(t.CreatedAt), deadline)
		if err != nil {
			return fmt.Errorf("create task: %w", err)
		}
		return nil
	})
}

// GetTask fetches a task by ID. Returns ErrNotFound if absent.
func (db *DB) GetTask(ctx context.Context, id string) (*models.Task, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()

	row := db.conn.QueryRowContext(ctx, `
		SELECT id, project_id, title, description, priority, assigned_to_id, status, created_at, deadline
		FROM tasks WHERE id = ?
	`, id)
	t, err := scanTask(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("task %s: %w", id, ErrNotFound)
	}
	return t, err
}

// ListTasks returns tasks matching the filter.
func (db *DB) ListTasks(ctx context.Context, f TaskFilter) ([]*models.Task, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()

	query := `
		SELECT id, project_id, title, description, priority, assigned_to_id, status, created_at, deadline
		FROM tasks WHERE 1=1`
	var args []any
	if f.ProjectID != "" {
		query += " AND project_id = ?"
		args = append(args, f.ProjectID)
	}
	if f.AssignedToID != "" {
		query += " AND assigned_to_id = ?"
		args = append(args, f.AssignedToID)
	}
	if f.Status != "" {
		query += " AND status = ?"
		args = append(args, f.Status)
	}
	limit := f.Limit
	if limit <= 0 {
		limit = 100
	}
	query += " ORDER BY created_at LIMIT ? OFFSET ?"
	args = append(args, limit, f.Offset)

	rows, err := db.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	defer rows.Close()

	return collectTasks(rows)
}

// ProjectTasks returns the tasks of a project, optionally filtered by status.
// Returns ErrNotFound if the project does not exist.
func (db *DB) ProjectTasks(ctx context.Context, projectID, status string) ([]*models.Task, error) {
	if _, err := db.GetProject(ctx, projectID); err != nil {
		return nil, err
	}
	return db.ListTasks(ctx, TaskFilter{ProjectID: projectID, Status: status})
}

// UpdateTask applies a partial update and returns the updated task.
// Returns ErrNotFound if the task does not exist.
func (db *DB) UpdateTask(ctx context.Context, id string, upd TaskUpdate) (*models.Task, error) {
	err := db.Transaction(func(tx *sql.Tx) error {
		var exists int
		err := tx.QueryRowContext(ctx, "SELECT COUNT(1) FROM tasks WHERE id = ?", id).Scan(&exists)
		if err != nil {
			return fmt.Errorf("check task: %w", err)
		}
		if exists == 0 {
			return fmt.Errorf("task %s: %w", id, ErrNotFound)
		}

		var sets []string
		var args []any
		if upd.Title != nil {
			sets = append(sets, "title = ?")
			args = append(args, *upd.Title)
		}
		if upd.Description != nil {
			sets = append(sets, "description = ?")
			args = append(args, *upd.Description)
		}
		if upd.Priority != nil {
			sets = append(sets, "priority = ?")
			args = append(args, *upd.Priority)
		}
		if upd.AssignedToID != nil {
			sets = append(sets, "assigned_to_id = ?")
			args = append(args, *upd.AssignedToID)
		}
		if upd.Status != nil {
			sets = append(sets, "status = ?")
			args = append(args, string(*upd.Status))
		}
		if upd.Deadline != nil {
			sets = append(sets, "deadline = ?")
			args = append(args, formatTime(*upd.Deadline))
		}
		if len(sets) == 0 {
			return nil
		}

		args = append(args, id)
		query := "UPDATE tasks SET " + strings.Join(sets, ", ") + " WHERE id = ?"
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return fmt.Errorf("update task: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return db.GetTask(ctx, id)
}

// UpdateTaskStatus sets a task's status and returns the updated task.
// Returns ErrNotFound if the task does not exist; no write happens then.
func (db *DB) UpdateTaskStatus(ctx context.Context, id string, status models.TaskStatus) (*models.Task, error) {
	return db.UpdateTask(ctx, id, TaskUpdate{Status: &status})
}

// DeleteTask removes a task. Returns ErrNotFound if the task does not exist.
func (db *DB) DeleteTask(ctx context.Context, id string) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	result, err := db.conn.ExecContext(ctx, "DELETE FROM tasks WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("delete task: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("task %s: %w", id, ErrNotFound)
	}
	return nil
}

func scanTask(row rowScanner) (*models.Task, error) {
	var t models.Task
	var description, priority, assignedTo, deadline sql.NullString
	var createdAt string
	if err := row.Scan(&t.ID, &t.ProjectID, &t.Title, &description, &priority,
		&assignedTo, (*string)(&t.Status), &createdAt, &deadline); err != nil {
		return nil, err
	}
	t.Description = description.String
	t.Priority = priority.String
	if assignedTo.Valid {
		t.AssignedToID = &assignedTo.String
	}
	if ts, err := parseTime(createdAt); err == nil {
		t.CreatedAt = ts
	}
	if deadline.Valid {
		if ts, err := parseTime(deadline.String); err == nil {
			t.Deadline = &ts
		}
	}
	return &t, nil
}

func collectTasks(rows *sql.Rows) ([]*models.Task, error) {
	tasks := []*models.Task{}
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, fmt.Errorf("scan task: %w", err)
		}
		tasks = append(tasks, t)
	}
	return tasks, rows.Err()
}

// --- Comments ---

// CreateComment inserts a new comment.
func (db *DB) CreateComment(ctx context.Context, c *models.Comment) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	_, err := db.conn.ExecContext(ctx, `
		INSERT INTO comments (id, task_id, user_id, content) VALUES (?, ?, ?, ?)
	`, c.ID, c.TaskID, c.UserID, c.Content)
	if err != nil {
		return fmt.Errorf("create comment: %w", err)
	}
	return nil
}

// ListComments returns comments matching the filter.
func (db *DB) ListComments(ctx context.Context, f CommentFilter) ([]*models.Comment, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()

	query := "SELECT id, task_id, user_id, content FROM comments WHERE 1=1"
	var args []any
	if f.TaskID != "" {
		query += " AND task_id = ?"
		args = append(args, f.TaskID)
	}
	if f.UserID != "" {
		query += " AND user_id = ?"
		args = append(args, f.UserID)
	}
	limit := f.Limit
	if limit <= 0 {
		limit = 100
	}
	query += " ORDER BY id LIMIT ? OFFSET ?"
	args = append(args, limit, f.Offset)

	rows, err := db.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list comments: %w", err)
	}
	defer rows.Close()

	comments := []*models.Comment{}
	for rows.Next() {
		var c models.Comment
		if err := rows.Scan(&c.ID, &c.TaskID, &c.UserID, &c.Content); err != nil {
			return nil, fmt.Errorf("scan comment: %w", err)
		}
		comments = append(comments, &c)
	}
	return comments, rows.Err()
}

// --- Agent runs ---

// RecordAgentRun persists a completed workflow run.
func (db *DB) RecordAgentRun(ctx context.Context, r *models.AgentRun) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	_, err := db.conn.ExecContext(ctx, `
		INSERT INTO agent_runs (id, thread_key, user_id, project_id, query, response, action_taken, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, r.ID, r.ThreadKey, r.UserID, r.ProjectID, r.Query, r.Response,
		boolToInt(r.ActionTaken), formatTime(r.CreatedAt))
	if err != nil {
		return fmt.Errorf("record agent run: %w", err)
	}
	return nil
}

// AgentRuns returns the most recent runs for a thread key, newest first.
func (db *DB) AgentRuns(ctx context.Context, threadKey string, limit int) ([]*models.AgentRun, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()

	if limit <= 0 {
		limit = 20
	}
	rows, err := db.conn.QueryContext(ctx, `
		SELECT id, thread_key, user_id, project_id, query, response, action_taken, created_at
		FROM agent_runs WHERE thread_key = ? ORDER BY created_at DESC LIMIT ?
	`, threadKey, limit)
	if err != nil {
		return nil, fmt.Errorf("agent runs: %w", err)
	}
	defer rows.Close()

	runs := []*models.AgentRun{}
	for rows.Next() {
		var r models.AgentRun
		var projectID, response sql.NullString
		var actionTaken int
		var createdAt string
		if err := rows.Scan(&r.ID, &r.ThreadKey, &r.UserID, &projectID,
			&r.Query, &response, &actionTaken, &createdAt); err != nil {
			return nil, fmt.Errorf("scan agent run: %w", err)
		}
		r.ProjectID = projectID.String
		r.Response = response.String
		r.ActionTaken = actionTaken != 0
		if ts, err := parseTime(createdAt); err == nil {
			r.CreatedAt = ts
		}
		runs = append(runs, &r)
	}
	return runs, rows.Err()
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
