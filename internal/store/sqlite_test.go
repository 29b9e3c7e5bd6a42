package store

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/Janarthanan-Gnanamurthy/Planora/pkg/models"
)

func testDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	if err := db.Migrate(); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func TestMigrateIdempotent(t *testing.T) {
	db := testDB(t)
	if err := db.Migrate(); err != nil {
		t.Fatalf("second migrate: %v", err)
	}
}

func TestUserRoundTrip(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()

	u := &models.User{ID: "u1", Username: "alice", ClerkID: "clerk_123"}
	if err := db.CreateUser(ctx, u); err != nil {
		t.Fatalf("create: %v", err)
	}

	got, err := db.GetUser(ctx, "u1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Username != "alice" || got.ClerkID != "clerk_123" {
		t.Errorf("got %+v", got)
	}

	byName, err := db.GetUserByUsername(ctx, "alice")
	if err != nil {
		t.Fatalf("get by username: %v", err)
	}
	if byName.ID != "u1" {
		t.Errorf("got %+v", byName)
	}
}

func TestGetUserNotFound(t *testing.T) {
	db := testDB(t)
	if _, err := db.GetUser(context.Background(), "ghost"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
	if _, err := db.GetUserByUsername(context.Background(), "nobody"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestCreateUserDuplicateUsername(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()

	if err := db.CreateUser(ctx, &models.User{ID: "u1", Username: "alice"}); err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := db.CreateUser(ctx, &models.User{ID: "u2", Username: "alice"}); err == nil {
		t.Error("duplicate username should fail the unique constraint")
	}
}

func TestListUsersOrderedWithPagination(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()

	for _, name := range []string{"carol", "alice", "bob"} {
		if err := db.CreateUser(ctx, &models.User{ID: name, Username: name}); err != nil {
			t.Fatalf("create %s: %v", name, err)
		}
	}

	users, err := db.ListUsers(ctx, 0, 2)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(users) != 2 || users[0].Username != "alice" || users[1].Username != "bob" {
		t.Errorf("got %d users, first pages wrong", len(users))
	}

	rest, err := db.ListUsers(ctx, 2, 2)
	if err != nil {
		t.Fatalf("list offset: %v", err)
	}
	if len(rest) != 1 || rest[0].Username != "carol" {
		t.Errorf("offset page wrong: %+v", rest)
	}
}

func seedUsers(t *testing.T, db *DB, ids ...string) {
	t.Helper()
	for _, id := range ids {
		if err := db.CreateUser(context.Background(), &models.User{ID: id, Username: id}); err != nil {
			t.Fatalf("create user %s: %v", id, err)
		}
	}
}

func TestProjectRoundTrip(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()
	seedUsers(t, db, "u1", "u2", "u3")

	p := &models.Project{
		ID: "p1", Name: "Website", Description: "Marketing site",
		OwnerID: "u1", Collaborators: []string{"u2", "u3"},
	}
	if err := db.CreateProject(ctx, p); err != nil {
		t.Fatalf("create: %v", err)
	}

	got, err := db.GetProject(ctx, "p1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Name != "Website" || got.OwnerID != "u1" {
		t.Errorf("got %+v", got)
	}
	if len(got.Collaborators) != 2 || got.Collaborators[0] != "u2" {
		t.Errorf("collaborators = %v", got.Collaborators)
	}
}

func TestUserProjectsOwnedOnly(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()
	seedUsers(t, db, "u1", "u2")

	projects := []*models.Project{
		{ID: "p1", Name: "Alpha", OwnerID: "u1"},
		{ID: "p2", Name: "Beta", OwnerID: "u2", Collaborators: []string{"u1"}},
		{ID: "p3", Name: "Gamma", OwnerID: "u1"},
	}
	for _, p := range projects {
		if err := db.CreateProject(ctx, p); err != nil {
			t.Fatalf("create: %v", err)
		}
	}

	owned, err := db.UserProjects(ctx, "u1")
	if err != nil {
		t.Fatalf("user projects: %v", err)
	}
	if len(owned) != 2 {
		t.Fatalf("expected 2 owned projects, got %d", len(owned))
	}
	if owned[0].Name != "Alpha" || owned[1].Name != "Gamma" {
		t.Errorf("wrong projects or order: %v, %v", owned[0].Name, owned[1].Name)
	}
}

func TestAddCollaboratorsMergesAndDedupes(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()
	seedUsers(t, db, "u1", "u2")

	p := &models.Project{ID: "p1", Name: "Alpha", OwnerID: "u1", Collaborators: []string{"u2"}}
	if err := db.CreateProject(ctx, p); err != nil {
		t.Fatalf("create: %v", err)
	}

	updated, err := db.AddCollaborators(ctx, "p1", []string{"u2", "u3", "u3", "u4"})
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	want := []string{"u2", "u3", "u4"}
	if len(updated.Collaborators) != len(want) {
		t.Fatalf("collaborators = %v, want %v", updated.Collaborators, want)
	}
	for i, id := range want {
		if updated.Collaborators[i] != id {
			t.Errorf("collaborators[%d] = %s, want %s", i, updated.Collaborators[i], id)
		}
	}

	// Persisted, not just returned.
	got, err := db.GetProject(ctx, "p1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if len(got.Collaborators) != 3 {
		t.Errorf("persisted collaborators = %v", got.Collaborators)
	}
}

func TestAddCollaboratorsMissingProject(t *testing.T) {
	db := testDB(t)
	if _, err := db.AddCollaborators(context.Background(), "ghost", []string{"u1"}); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func seedTasks(t *testing.T, db *DB) {
	t.Helper()
	ctx := context.Background()
	seedUsers(t, db, "u1", "u2")
	if err := db.CreateProject(ctx, &models.Project{ID: "p1", Name: "Alpha", OwnerID: "u1"}); err != nil {
		t.Fatalf("create project: %v", err)
	}

	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	assignee := "u2"
	deadline := base.Add(7 * 24 * time.Hour)
	tasks := []*models.Task{
		{ID: "t1", ProjectID: "p1", Title: "First", Status: models.TaskStatusTodo,
			Priority: models.PriorityHigh, CreatedAt: base, Deadline: &deadline},
		{ID: "t2", ProjectID: "p1", Title: "Second", Status: models.TaskStatusInProgress,
			Priority: models.PriorityMedium, CreatedAt: base.Add(time.Hour), AssignedToID: &assignee},
		{ID: "t3", ProjectID: "p1", Title: "Third", Status: models.TaskStatusTodo,
			Priority: models.PriorityLow, CreatedAt: base.Add(2 * time.Hour)},
	}
	for _, task := range tasks {
		if err := db.CreateTask(ctx, task); err != nil {
			t.Fatalf("create task %s: %v", task.ID, err)
		}
	}
}

func TestTaskRoundTrip(t *testing.T) {
	db := testDB(t)
	seedTasks(t, db)
	ctx := context.Background()

	got, err := db.GetTask(ctx, "t1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Title != "First" || got.Priority != models.PriorityHigh {
		t.Errorf("got %+v", got)
	}
	if got.Deadline == nil {
		t.Fatal("deadline lost in round trip")
	}
	want := time.Date(2026, 1, 8, 0, 0, 0, 0, time.UTC)
	if !got.Deadline.Equal(want) {
		t.Errorf("deadline = %v, want %v", got.Deadline, want)
	}
	if got.AssignedToID != nil {
		t.Error("t1 should be unassigned")
	}

	t2, err := db.GetTask(ctx, "t2")
	if err != nil {
		t.Fatalf("get t2: %v", err)
	}
	if t2.AssignedToID == nil || *t2.AssignedToID != "u2" {
		t.Errorf("assignee = %v, want u2", t2.AssignedToID)
	}
}

func TestListTasksFilters(t *testing.T) {
	db := testDB(t)
	seedTasks(t, db)
	ctx := context.Background()

	todo, err := db.ListTasks(ctx, TaskFilter{ProjectID: "p1", Status: "todo"})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(todo) != 2 {
		t.Fatalf("expected 2 todo tasks, got %d", len(todo))
	}
	// Ordered by creation time.
	if todo[0].ID != "t1" || todo[1].ID != "t3" {
		t.Errorf("order = %s, %s", todo[0].ID, todo[1].ID)
	}

	assigned, err := db.ListTasks(ctx, TaskFilter{AssignedToID: "u2"})
	if err != nil {
		t.Fatalf("list assigned: %v", err)
	}
	if len(assigned) != 1 || assigned[0].ID != "t2" {
		t.Errorf("assigned filter wrong: %+v", assigned)
	}
}

func TestProjectTasksMissingProject(t *testing.T) {
	db := testDB(t)
	if _, err := db.ProjectTasks(context.Background(), "ghost", ""); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestUpdateTaskPartial(t *testing.T) {
	db := testDB(t)
	seedTasks(t, db)
	ctx := context.Background()

	title := "Renamed"
	status := models.TaskStatusDone
	got, err := db.UpdateTask(ctx, "t1", TaskUpdate{Title: &title, Status: &status})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if got.Title != "Renamed" || got.Status != models.TaskStatusDone {
		t.Errorf("got %+v", got)
	}
	// Untouched fields survive.
	if got.Priority != models.PriorityHigh {
		t.Errorf("priority changed unexpectedly: %s", got.Priority)
	}
}

func TestUpdateTaskNotFound(t *testing.T) {
	db := testDB(t)
	status := models.TaskStatusDone
	if _, err := db.UpdateTask(context.Background(), "ghost", TaskUpdate{Status: &status}); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestUpdateTaskStatus(t *testing.T) {
	db := testDB(t)
	seedTasks(t, db)

	got, err := db.UpdateTaskStatus(context.Background(), "t2", models.TaskStatusDone)
	if err != nil {
		t.Fatalf("update status: %v", err)
	}
	if got.Status != models.TaskStatusDone {
		t.Errorf("status = %s", got.Status)
	}
}

func TestDeleteTask(t *testing.T) {
	db := testDB(t)
	seedTasks(t, db)
	ctx := context.Background()

	if err := db.DeleteTask(ctx, "t1"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := db.GetTask(ctx, "t1"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound after delete, got %v", err)
	}
	if err := db.DeleteTask(ctx, "t1"); !errors.Is(err, ErrNotFound) {
		t.Errorf("double delete should be ErrNotFound, got %v", err)
	}
}

func TestCommentRoundTrip(t *testing.T) {
	db := testDB(t)
	seedTasks(t, db)
	ctx := context.Background()

	comments := []*models.Comment{
		{ID: "c1", TaskID: "t1", UserID: "u1", Content: "looks good"},
		{ID: "c2", TaskID: "t1", UserID: "u2", Content: "needs work"},
		{ID: "c3", TaskID: "t2", UserID: "u1", Content: "on it"},
	}
	for _, c := range comments {
		if err := db.CreateComment(ctx, c); err != nil {
			t.Fatalf("create comment: %v", err)
		}
	}

	byTask, err := db.ListComments(ctx, CommentFilter{TaskID: "t1"})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(byTask) != 2 {
		t.Errorf("expected 2 comments for t1, got %d", len(byTask))
	}

	byUser, err := db.ListComments(ctx, CommentFilter{UserID: "u1"})
	if err != nil {
		t.Fatalf("list by user: %v", err)
	}
	if len(byUser) != 2 {
		t.Errorf("expected 2 comments for u1, got %d", len(byUser))
	}
}

func TestAgentRunsNewestFirst(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()

	base := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)
	key := models.ThreadKey("u1", "p1")
	for i, q := range []string{"first", "second", "third"} {
		run := &models.AgentRun{
			ID:          q,
			ThreadKey:   key,
			UserID:      "u1",
			ProjectID:   "p1",
			Query:       q,
			Response:    "ok",
			ActionTaken: i == 2,
			CreatedAt:   base.Add(time.Duration(i) * time.Minute),
		}
		if err := db.RecordAgentRun(ctx, run); err != nil {
			t.Fatalf("record: %v", err)
		}
	}

	runs, err := db.AgentRuns(ctx, key, 2)
	if err != nil {
		t.Fatalf("list runs: %v", err)
	}
	if len(runs) != 2 {
		t.Fatalf("expected 2 runs, got %d", len(runs))
	}
	if runs[0].Query != "third" || runs[1].Query != "second" {
		t.Errorf("order = %s, %s, want third, second", runs[0].Query, runs[1].Query)
	}
	if !runs[0].ActionTaken {
		t.Error("action_taken lost in round trip")
	}

	other, err := db.AgentRuns(ctx, models.ThreadKey("u1", ""), 10)
	if err != nil {
		t.Fatalf("list other thread: %v", err)
	}
	if len(other) != 0 {
		t.Errorf("expected no runs for other thread, got %d", len(other))
	}
}

func TestTransactionRollsBack(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()

	wantErr := errors.New("abort")
	err := db.Transaction(func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO users (id, username) VALUES ('u1', 'alice')
		`); err != nil {
			return err
		}
		return wantErr
	})
	if !errors.Is(err, wantErr) {
		t.Fatalf("expected wrapped callback error, got %v", err)
	}

	if _, err := db.GetUser(ctx, "u1"); !errors.Is(err, ErrNotFound) {
		t.Errorf("insert should have rolled back, got %v", err)
	}
}
