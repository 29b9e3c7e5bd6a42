package models

import "time"

// AgentRun is a durable record of one assistant workflow execution.
// Runs sharing a thread key form a resumable conversation grouping;
// persistence of runs is best-effort and never fails a request.
type AgentRun struct {
	// ID is the unique identifier for this run.
	ID string `json:"id"`
	// ThreadKey groups runs as user_id + ":" + (project_id or "general").
	ThreadKey string `json:"thread_key"`
	// UserID is the requesting user.
	UserID string `json:"user_id"`
	// ProjectID is the project in scope, if any.
	ProjectID string `json:"project_id,omitempty"`
	// Query is the raw user query.
	Query string `json:"query"`
	// Response is the final assistant response.
	Response string `json:"response"`
	// ActionTaken reports whether the assistant invoked any tools.
	ActionTaken bool `json:"action_taken"`
	// CreatedAt is when the run completed.
	CreatedAt time.Time `json:"created_at"`
}

// ThreadKey builds the conversation grouping key for a user and project.
func ThreadKey(userID, projectID string) string {
	if projectID == "" {
		projectID = "general"
	}
	return userID + ":" + projectID
}
