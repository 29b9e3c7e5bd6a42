package server

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/Janarthanan-Gnanamurthy/Planora/internal/agent"
	"github.com/Janarthanan-Gnanamurthy/Planora/internal/llm"
	"github.com/Janarthanan-Gnanamurthy/Planora/pkg/models"
)

// complete makes a single text completion. Provider failures degrade to an
// explanatory string so AI endpoints always answer.
func (s *Server) complete(r *http.Request, prompt string) string {
	completion, err := s.provider.Complete(r.Context(), llm.CompletionRequest{
		Messages: []llm.Message{{Role: llm.RoleHuman, Content: prompt}},
	})
	if err != nil {
		s.log.Warn().Err(err).Msg("completion failed")
		return fmt.Sprintf("The language model could not be reached: %v", err)
	}
	return completion.Text
}

func (s *Server) handleSummarizeTask(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Description string `json:"description"`
	}
	if err := decode(r, &req); err != nil || req.Description == "" {
		badRequest(w, "description is required")
		return
	}
	summary := s.complete(r, "Summarize this task description concisely: "+req.Description)
	writeJSON(w, http.StatusOK, map[string]string{"summary": summary})
}

func (s *Server) handleSuggestTasks(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ProjectDescription string `json:"project_description"`
	}
	if err := decode(r, &req); err != nil || req.ProjectDescription == "" {
		badRequest(w, "project_description is required")
		return
	}
	suggestions := s.complete(r,
		"Based on this project description, suggest exactly 3 actionable tasks with clear titles. Format as a numbered list:\n\nProject: "+req.ProjectDescription)
	writeJSON(w, http.StatusOK, map[string]string{"suggested_tasks": suggestions})
}

func (s *Server) handleAnalyzeComment(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Comment string `json:"comment"`
	}
	if err := decode(r, &req); err != nil || req.Comment == "" {
		badRequest(w, "comment is required")
		return
	}
	analysis := s.complete(r,
		"Analyze the sentiment (Positive, Negative, Neutral) and identify any action items in this comment. Provide a brief analysis.\n\nComment: "+req.Comment)
	writeJSON(w, http.StatusOK, map[string]string{"analysis": analysis})
}

func (s *Server) handleComplexTaskAssistant(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Query string `json:"query"`
	}
	if err := decode(r, &req); err != nil || req.Query == "" {
		badRequest(w, "query is required")
		return
	}
	answer := s.complete(r,
		"You are an expert project management assistant. "+
			"Answer the following user question with actionable, clear advice. "+
			"If relevant, include best practices, permissions, time tracking, and automation tips. "+
			"User question: "+req.Query)
	writeJSON(w, http.StatusOK, map[string]string{"answer": answer})
}

func (s *Server) handleAssistant(w http.ResponseWriter, r *http.Request) {
	var req agent.Request
	if err := decode(r, &req); err != nil {
		badRequest(w, "invalid request body")
		return
	}
	if req.UserID == "" || req.Query == "" {
		badRequest(w, "user_id and query are required")
		return
	}
	writeJSON(w, http.StatusOK, s.dispatcher.Process(r.Context(), req))
}

func (s *Server) handleAssistantHistory(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	userID := q.Get("user_id")
	if userID == "" {
		badRequest(w, "user_id is required")
		return
	}
	limit, _ := strconv.Atoi(q.Get("limit"))

	key := models.ThreadKey(userID, q.Get("project_id"))
	runs, err := s.store.AgentRuns(r.Context(), key, limit)
	if err != nil {
		s.internalError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"thread_key": key,
		"runs":       runs,
	})
}

func (s *Server) handleProjectInsights(w http.ResponseWriter, r *http.Request) {
	var req struct {
		UserID    string `json:"user_id"`
		ProjectID string `json:"project_id"`
	}
	if err := decode(r, &req); err != nil || req.UserID == "" || req.ProjectID == "" {
		badRequest(w, "user_id and project_id are required")
		return
	}

	query := fmt.Sprintf(
		"Provide a comprehensive analysis of project status, identify bottlenecks, overdue tasks, and strategic recommendations for project %s",
		req.ProjectID)
	result := s.dispatcher.Process(r.Context(), agent.Request{
		UserID:    req.UserID,
		Query:     query,
		ProjectID: req.ProjectID,
	})
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleTaskOptimizer(w http.ResponseWriter, r *http.Request) {
	var req struct {
		TaskID string `json:"task_id"`
	}
	if err := decode(r, &req); err != nil || req.TaskID == "" {
		badRequest(w, "task_id is required")
		return
	}

	// Complexity analysis runs through the dispatcher's analysis route so
	// failures get the same structured wrapper.
	result := s.dispatcher.Process(r.Context(), agent.Request{
		UserID: "optimizer",
		Query:  "analyze task complexity",
		TaskID: req.TaskID,
	})
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleSmartTaskCreation(w http.ResponseWriter, r *http.Request) {
	var req struct {
		UserID      string `json:"user_id"`
		ProjectID   string `json:"project_id"`
		Description string `json:"description"`
		AutoCreate  bool   `json:"auto_create"`
	}
	if err := decode(r, &req); err != nil {
		badRequest(w, "invalid request body")
		return
	}
	if req.UserID == "" || req.ProjectID == "" || req.Description == "" {
		badRequest(w, "user_id, project_id and description are required")
		return
	}

	result := s.dispatcher.SmartTaskCreation(r.Context(), req.UserID, req.ProjectID, req.Description, req.AutoCreate)
	writeJSON(w, http.StatusOK, result)
}
