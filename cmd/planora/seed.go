package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/Janarthanan-Gnanamurthy/Planora/internal/config"
	"github.com/Janarthanan-Gnanamurthy/Planora/internal/store"
	"github.com/Janarthanan-Gnanamurthy/Planora/pkg/models"
)

var seedFile string

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Load fixture data into the database",
	Long: `Seed loads users, projects, and tasks from a YAML fixture file.
Without --file, a small built-in demo dataset is loaded.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runSeed()
	},
}

func init() {
	seedCmd.Flags().StringVar(&seedFile, "file", "", "Path to a YAML fixture file")
}

// fixture is the YAML shape of seed data. Owners and assignees are referenced
// by username so fixtures stay readable.
type fixture struct {
	Users    []fixtureUser    `yaml:"users"`
	Projects []fixtureProject `yaml:"projects"`
}

type fixtureUser struct {
	Username string `yaml:"username"`
	ClerkID  string `yaml:"clerk_id"`
}

type fixtureProject struct {
	Name          string        `yaml:"name"`
	Description   string        `yaml:"description"`
	Owner         string        `yaml:"owner"`
	Collaborators []string      `yaml:"collaborators"`
	Tasks         []fixtureTask `yaml:"tasks"`
}

type fixtureTask struct {
	Title        string `yaml:"title"`
	Description  string `yaml:"description"`
	Priority     string `yaml:"priority"`
	Status       string `yaml:"status"`
	AssignedTo   string `yaml:"assigned_to"`
	DeadlineDays int    `yaml:"deadline_days"`
}

const demoFixture = `
users:
  - username: alice
  - username: bob
projects:
  - name: Website Relaunch
    description: Rebuild the marketing site
    owner: alice
    collaborators: [bob]
    tasks:
      - title: Design mockups
        priority: high
        status: in_progress
        assigned_to: bob
        deadline_days: 7
      - title: Write landing copy
        priority: medium
        deadline_days: 14
      - title: Set up analytics
        priority: low
        deadline_days: 21
`

func runSeed() error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	return seedDatabase(cfg, seedFile)
}

func seedDatabase(cfg *config.Config, path string) error {
	raw := []byte(demoFixture)
	if path != "" {
		var err error
		raw, err = os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("read fixture: %w", err)
		}
	}

	var fx fixture
	if err := yaml.Unmarshal(raw, &fx); err != nil {
		return fmt.Errorf("parse fixture: %w", err)
	}

	db, err := store.Open(cfg.Database.Path)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()
	if err := db.Migrate(); err != nil {
		return fmt.Errorf("migrate database: %w", err)
	}

	ctx := context.Background()
	userIDs := map[string]string{}

	for _, fu := range fx.Users {
		user := &models.User{ID: uuid.New().String(), Username: fu.Username, ClerkID: fu.ClerkID}
		if err := db.CreateUser(ctx, user); err != nil {
			return fmt.Errorf("seed user %s: %w", fu.Username, err)
		}
		userIDs[fu.Username] = user.ID
	}

	now := time.Now()
	taskCount := 0
	for _, fp := range fx.Projects {
		ownerID, ok := userIDs[fp.Owner]
		if !ok {
			return fmt.Errorf("project %s: unknown owner %q", fp.Name, fp.Owner)
		}
		var collaborators []string
		for _, name := range fp.Collaborators {
			id, ok := userIDs[name]
			if !ok {
				return fmt.Errorf("project %s: unknown collaborator %q", fp.Name, name)
			}
			collaborators = append(collaborators, id)
		}

		project := &models.Project{
			ID:            uuid.New().String(),
			Name:          fp.Name,
			Description:   fp.Description,
			OwnerID:       ownerID,
			Collaborators: collaborators,
		}
		if err := db.CreateProject(ctx, project); err != nil {
			return fmt.Errorf("seed project %s: %w", fp.Name, err)
		}

		for _, ft := range fp.Tasks {
			task := &models.Task{
				ID:          uuid.New().String(),
				ProjectID:   project.ID,
				Title:       ft.Title,
				Description: ft.Description,
				Priority:    models.NormalizePriority(ft.Priority),
				Status:      models.TaskStatusTodo,
				CreatedAt:   now,
			}
			if ft.Status != "" {
				status := models.TaskStatus(ft.Status)
				if !status.Valid() {
					return fmt.Errorf("task %s: invalid status %q", ft.Title, ft.Status)
				}
				task.Status = status
			}
			if ft.AssignedTo != "" {
				id, ok := userIDs[ft.AssignedTo]
				if !ok {
					return fmt.Errorf("task %s: unknown assignee %q", ft.Title, ft.AssignedTo)
				}
				task.AssignedToID = &id
			}
			if ft.DeadlineDays != 0 {
				deadline := now.Add(time.Duration(ft.DeadlineDays) * 24 * time.Hour)
				task.Deadline = &deadline
			}
			if err := db.CreateTask(ctx, task); err != nil {
				return fmt.Errorf("seed task %s: %w", ft.Title, err)
			}
			taskCount++
		}
	}

	fmt.Printf("Seeded %d users, %d projects, %d tasks into %s\n",
		len(fx.Users), len(fx.Projects), taskCount, cfg.Database.Path)
	return nil
}
