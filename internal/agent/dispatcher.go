package agent

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/Janarthanan-Gnanamurthy/Planora/internal/llm"
)

// analysisKeywords routes requests to the breakdown engine instead of the
// tool workflow.
var analysisKeywords = []string{"analyze", "complexity", "breakdown", "estimate"}

// Request is one inbound assistant request.
type Request struct {
	UserID    string `json:"user_id"`
	Query     string `json:"query"`
	ProjectID string `json:"project_id,omitempty"`
	TaskID    string `json:"task_id,omitempty"`
}

// Dispatcher routes requests between the tool workflow and the breakdown
// engine, and wraps every failure into a structured payload so callers
// always receive a response.
type Dispatcher struct {
	workflow  *Workflow
	breakdown *BreakdownEngine
	tools     *Registry
	log       zerolog.Logger
}

// NewDispatcher creates a dispatcher over the given workflow, breakdown
// engine, and tool registry.
func NewDispatcher(workflow *Workflow, breakdown *BreakdownEngine, tools *Registry, log zerolog.Logger) *Dispatcher {
	return &Dispatcher{workflow: workflow, breakdown: breakdown, tools: tools, log: log}
}

// Process handles one request. Queries carrying analysis keywords go to the
// breakdown engine; everything else runs the tool workflow. Any failure
// comes back as an error payload, never as a Go error.
func (d *Dispatcher) Process(ctx context.Context, req Request) map[string]any {
	result, err := d.process(ctx, req)
	if err != nil {
		d.log.Error().Err(err).Str("user_id", req.UserID).Msg("request processing failed")
		return map[string]any{
			"error":    "Failed to process request",
			"details":  err.Error(),
			"response": apologyMessage,
		}
	}
	return result
}

func (d *Dispatcher) process(ctx context.Context, req Request) (map[string]any, error) {
	if wantsAnalysis(req.Query) {
		if req.TaskID != "" {
			return d.breakdown.AnalyzeTaskComplexity(ctx, req.TaskID)
		}
		proposals := d.breakdown.SuggestBreakdown(ctx, req.Query, map[string]any{
			"user_id": req.UserID,
		})
		return map[string]any{"suggested_tasks": proposals}, nil
	}

	return d.workflow.Run(ctx, req.UserID, req.Query, req.ProjectID)
}

// wantsAnalysis reports whether the query asks for breakdown or complexity
// analysis rather than direct action.
func wantsAnalysis(query string) bool {
	lower := strings.ToLower(query)
	for _, kw := range analysisKeywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}

// SmartTaskCreation suggests a breakdown for the description and, when
// autoCreate is set, creates each proposed task in the project. Per-task
// creation failures are collected, not fatal.
func (d *Dispatcher) SmartTaskCreation(ctx context.Context, userID, projectID, description string, autoCreate bool) map[string]any {
	proposals := d.breakdown.SuggestBreakdown(ctx, description, map[string]any{
		"user_id":    userID,
		"project_id": projectID,
	})

	if !autoCreate {
		return map[string]any{
			"message":         fmt.Sprintf("Generated %d task suggestions", len(proposals)),
			"suggested_tasks": proposals,
			"auto_created":    false,
			"instructions":    "Review the suggestions and create the tasks you want, or retry with auto_create set.",
		}
	}

	created := []map[string]any{}
	var errs []string
	for _, p := range proposals {
		result := d.tools.Execute(ctx, createTaskCall(projectID, p))
		payload, ok := result.(map[string]any)
		if !ok {
			errs = append(errs, fmt.Sprintf("%s: unexpected tool result", p.Title))
			continue
		}
		if errMsg, failed := payload["error"].(string); failed {
			errs = append(errs, fmt.Sprintf("%s: %s", p.Title, errMsg))
			continue
		}
		created = append(created, payload)
	}

	out := map[string]any{
		"message":         fmt.Sprintf("Created %d of %d suggested tasks", len(created), len(proposals)),
		"created_tasks":   created,
		"suggested_tasks": proposals,
		"auto_created":    true,
		"errors":          nil,
	}
	if len(errs) > 0 {
		out["errors"] = errs
	}
	return out
}

// createTaskCall maps a proposal onto the create_task tool's arguments.
func createTaskCall(projectID string, p TaskProposal) llm.ToolCall {
	return llm.ToolCall{
		Name: "create_task",
		Args: map[string]any{
			"project_id":    projectID,
			"title":         p.Title,
			"description":   p.Description,
			"priority":      p.Priority,
			"deadline_days": p.EstimatedDays,
		},
	}
}
