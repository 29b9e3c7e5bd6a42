package agent

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/Janarthanan-Gnanamurthy/Planora/internal/llm"
	"github.com/Janarthanan-Gnanamurthy/Planora/pkg/models"
)

// State is the mutable payload threaded through the workflow stages.
type State struct {
	Messages    []llm.Message
	UserID      string
	ProjectID   string
	TaskID      string
	Context     map[string]any
	ActionTaken bool
	Result      map[string]any
}

// Workflow runs a user request through four stages: analyze the request,
// let the model act with tools, execute requested tools, and finalize with
// a summary when actions were taken.
type Workflow struct {
	provider llm.Provider
	store    Store
	tools    *Registry
	runs     RunRecorder
	now      func() time.Time
	log      zerolog.Logger
}

// NewWorkflow creates a workflow. runs may be nil to disable run recording.
func NewWorkflow(provider llm.Provider, store Store, tools *Registry, runs RunRecorder, log zerolog.Logger) *Workflow {
	return &Workflow{
		provider: provider,
		store:    store,
		tools:    tools,
		runs:     runs,
		now:      time.Now,
		log:      log,
	}
}

// Run processes one user request end to end and returns the result payload:
// the assistant response, whether any tool acted, and the request context.
func (w *Workflow) Run(ctx context.Context, userID, query, projectID string) (map[string]any, error) {
	state := &State{
		Messages:  []llm.Message{{Role: llm.RoleHuman, Content: query}},
		UserID:    userID,
		ProjectID: projectID,
	}

	w.analyze(ctx, state, query)
	if err := w.execute(ctx, state); err != nil {
		return nil, err
	}
	if err := w.runTools(ctx, state); err != nil {
		return nil, err
	}
	w.finalize(ctx, state)

	w.record(ctx, state, query)
	return state.Result, nil
}

// analyze gathers the request context: who is asking, which project, and
// the classified request type.
func (w *Workflow) analyze(ctx context.Context, state *State, query string) {
	userName := "Unknown"
	if user, err := w.store.GetUser(ctx, state.UserID); err == nil {
		userName = user.Username
	}

	projectName := "No specific project"
	if state.ProjectID != "" {
		if project, err := w.store.GetProject(ctx, state.ProjectID); err == nil {
			projectName = project.Name
		}
	}

	state.Context = map[string]any{
		"user_name":    userName,
		"project_name": projectName,
		"request_type": string(ClassifyRequest(query)),
		"timestamp":    w.now().Format(time.RFC3339),
	}
}

// execute makes the main provider call with the tool catalog declared. A
// provider failure degrades to an apologetic assistant turn rather than
// failing the run.
func (w *Workflow) execute(ctx context.Context, state *State) error {
	system := fmt.Sprintf(assistantSystemPrompt,
		state.Context["user_name"],
		state.Context["project_name"],
		state.Context["request_type"],
		w.tools.CatalogDescription(),
	)

	completion, err := w.provider.Complete(ctx, llm.CompletionRequest{
		System:   system,
		Messages: state.Messages,
		Tools:    w.tools.Definitions(),
	})
	if err != nil {
		var perr *llm.ProviderError
		if errors.As(err, &perr) {
			w.log.Warn().Err(err).Msg("provider unavailable during execution")
			state.Messages = append(state.Messages, llm.Message{
				Role:    llm.RoleAI,
				Content: fmt.Sprintf(providerDownMessage, err),
			})
			return nil
		}
		return err
	}

	state.Messages = append(state.Messages, llm.Message{
		Role:      llm.RoleAI,
		Content:   completion.Text,
		ToolCalls: completion.ToolCalls,
	})
	return nil
}

// runTools executes every tool call from the last assistant turn, in order,
// appending one tool-result message per call.
func (w *Workflow) runTools(ctx context.Context, state *State) error {
	last := state.Messages[len(state.Messages)-1]
	if last.Role != llm.RoleAI || len(last.ToolCalls) == 0 {
		return nil
	}

	for _, call := range last.ToolCalls {
		w.log.Debug().Str("tool", call.Name).Msg("executing tool")
		result := w.tools.Execute(ctx, call)

		payload, err := json.Marshal(result)
		if err != nil {
			payload = []byte(fmt.Sprintf(`{"error":%q}`, err.Error()))
		}

		state.Messages = append(state.Messages, llm.Message{
			Role:       llm.RoleTool,
			Content:    string(payload),
			ToolCallID: call.ID,
			ToolName:   call.Name,
		})
		state.ActionTaken = true
	}
	return nil
}

// finalize produces the result payload. When tools acted, one more provider
// call summarizes the outcome; a failure there degrades to a canned summary.
func (w *Workflow) finalize(ctx context.Context, state *State) {
	if state.ActionTaken {
		messages := append(append([]llm.Message{}, state.Messages...), llm.Message{
			Role:    llm.RoleHuman,
			Content: finalizeInstruction,
		})
		completion, err := w.provider.Complete(ctx, llm.CompletionRequest{
			Messages: messages,
		})
		if err != nil {
			w.log.Warn().Err(err).Msg("summary generation failed")
			state.Messages = append(state.Messages, llm.Message{
				Role:    llm.RoleAI,
				Content: summaryFallbackMessage,
			})
		} else {
			state.Messages = append(state.Messages, llm.Message{
				Role:    llm.RoleAI,
				Content: completion.Text,
			})
		}
	}

	state.Result = map[string]any{
		"response":     state.Messages[len(state.Messages)-1].Content,
		"action_taken": state.ActionTaken,
		"context":      state.Context,
	}
}

// record persists the completed run. Failures are logged, never surfaced.
func (w *Workflow) record(ctx context.Context, state *State, query string) {
	if w.runs == nil {
		return
	}

	response, _ := state.Result["response"].(string)
	run := &models.AgentRun{
		ID:          uuid.New().String(),
		ThreadKey:   models.ThreadKey(state.UserID, state.ProjectID),
		UserID:      state.UserID,
		ProjectID:   state.ProjectID,
		Query:       query,
		Response:    response,
		ActionTaken: state.ActionTaken,
		CreatedAt:   w.now(),
	}
	if err := w.runs.RecordAgentRun(ctx, run); err != nil {
		w.log.Warn().Err(err).Msg("failed to record agent run")
	}
}
