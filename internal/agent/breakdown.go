package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/Janarthanan-Gnanamurthy/Planora/internal/llm"
)

const (
	minEstimatedDays     = 1
	maxEstimatedDays     = 14
	defaultEstimatedDays = 7

	// fallbackTitleLimit bounds the title of the deterministic fallback
	// proposal derived from the raw description.
	fallbackTitleLimit = 50
)

// TaskProposal is one suggested task in a breakdown.
type TaskProposal struct {
	Title          string   `json:"title"`
	Description    string   `json:"description"`
	Priority       string   `json:"priority"`
	EstimatedDays  int      `json:"estimated_days"`
	Dependencies   []string `json:"dependencies"`
	SkillsRequired []string `json:"skills_required"`
}

// BreakdownEngine turns free-text project descriptions into task proposals
// and analyzes individual tasks for complexity.
type BreakdownEngine struct {
	provider llm.Provider
	store    Store
	log      zerolog.Logger
}

// NewBreakdownEngine creates a breakdown engine.
func NewBreakdownEngine(provider llm.Provider, store Store, log zerolog.Logger) *BreakdownEngine {
	return &BreakdownEngine{provider: provider, store: store, log: log}
}

// SuggestBreakdown asks the model for a task breakdown of the description.
// It never fails: a provider error or an unparseable response degrades to a
// single deterministic fallback proposal.
func (e *BreakdownEngine) SuggestBreakdown(ctx context.Context, description string, extra map[string]any) []TaskProposal {
	ctxJSON, err := json.Marshal(extra)
	if err != nil {
		ctxJSON = []byte("{}")
	}

	completion, err := e.provider.Complete(ctx, llm.CompletionRequest{
		Messages: []llm.Message{
			{Role: llm.RoleHuman, Content: fmt.Sprintf(breakdownPrompt, description, ctxJSON)},
		},
	})
	if err != nil {
		e.log.Warn().Err(err).Msg("breakdown generation failed, using fallback")
		return []TaskProposal{fallbackProposal(description)}
	}

	proposals := parseProposals(completion.Text)
	if len(proposals) == 0 {
		e.log.Debug().Str("raw", completion.Text).Msg("no parseable proposals in response")
		return []TaskProposal{fallbackProposal(description)}
	}
	return proposals
}

// parseProposals extracts and normalizes a JSON array of proposals from raw
// model output. Code fences and surrounding prose are tolerated.
func parseProposals(raw string) []TaskProposal {
	text := stripFences(raw)

	start := strings.Index(text, "[")
	end := strings.LastIndex(text, "]")
	if start == -1 || end <= start {
		return nil
	}

	var decoded []TaskProposal
	if err := json.Unmarshal([]byte(text[start:end+1]), &decoded); err != nil {
		return nil
	}

	proposals := make([]TaskProposal, 0, len(decoded))
	for _, p := range decoded {
		if strings.TrimSpace(p.Title) == "" {
			continue
		}
		proposals = append(proposals, normalizeProposal(p))
	}
	return proposals
}

// stripFences removes a surrounding markdown code fence, if any.
func stripFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}

func normalizeProposal(p TaskProposal) TaskProposal {
	p.Title = strings.TrimSpace(p.Title)
	p.Priority = normalizeProposalPriority(p.Priority)
	if p.EstimatedDays == 0 {
		p.EstimatedDays = defaultEstimatedDays
	}
	if p.EstimatedDays < minEstimatedDays {
		p.EstimatedDays = minEstimatedDays
	}
	if p.EstimatedDays > maxEstimatedDays {
		p.EstimatedDays = maxEstimatedDays
	}
	if p.Dependencies == nil {
		p.Dependencies = []string{}
	}
	if p.SkillsRequired == nil {
		p.SkillsRequired = []string{}
	}
	return p
}

func normalizeProposalPriority(p string) string {
	switch strings.ToLower(strings.TrimSpace(p)) {
	case "high":
		return "high"
	case "low":
		return "low"
	default:
		return "medium"
	}
}

// fallbackProposal is the deterministic single-task breakdown used when the
// model is unavailable or returns nothing usable.
func fallbackProposal(description string) TaskProposal {
	title := strings.TrimSpace(description)
	// Truncate on runes so multi-byte titles stay valid UTF-8.
	if runes := []rune(title); len(runes) > fallbackTitleLimit {
		title = string(runes[:fallbackTitleLimit]) + "..."
	}
	return TaskProposal{
		Title:          title,
		Description:    description,
		Priority:       "medium",
		EstimatedDays:  defaultEstimatedDays,
		Dependencies:   []string{},
		SkillsRequired: []string{},
	}
}

// AnalyzeTaskComplexity asks the model to assess a stored task. An absent
// task yields a structured error payload; a response that is not valid JSON
// is returned raw under "analysis".
func (e *BreakdownEngine) AnalyzeTaskComplexity(ctx context.Context, taskID string) (map[string]any, error) {
	task, err := e.store.GetTask(ctx, taskID)
	if err != nil {
		if isNotFound(err) {
			return map[string]any{"error": "Task not found"}, nil
		}
		return nil, fmt.Errorf("load task %s: %w", taskID, err)
	}

	deadline := "None"
	if task.Deadline != nil {
		deadline = task.Deadline.Format(time.RFC3339)
	}

	completion, err := e.provider.Complete(ctx, llm.CompletionRequest{
		Messages: []llm.Message{
			{Role: llm.RoleHuman, Content: fmt.Sprintf(complexityPrompt,
				task.Title, task.Description, task.Priority, task.Status, deadline)},
		},
	})
	if err != nil {
		return nil, err
	}

	text := stripFences(completion.Text)
	var analysis map[string]any
	if err := json.Unmarshal([]byte(text), &analysis); err != nil {
		return map[string]any{"analysis": completion.Text}, nil
	}
	return analysis, nil
}
