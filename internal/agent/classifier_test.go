package agent

import "testing"

func TestClassifyRequest(t *testing.T) {
	tests := []struct {
		name  string
		query string
		want  Intent
	}{
		{"create keyword", "please create a login page task", IntentTaskCreation},
		{"add keyword", "Add a new item to the backlog", IntentTaskCreation},
		{"status keyword", "what's the status of the migration", IntentStatusUpdate},
		{"done keyword", "mark the review as done", IntentStatusUpdate},
		{"overdue keyword", "show me everything overdue", IntentDeadlineManagement},
		{"deadline keyword", "when is the deadline for release", IntentDeadlineManagement},
		{"overview keyword", "give me an overview of the sprint", IntentProjectOverview},
		{"report keyword", "weekly report please", IntentProjectOverview},
		{"no match", "hello there", IntentGeneralAssistance},
		{"empty", "", IntentGeneralAssistance},
		{"case insensitive", "CREATE SOMETHING", IntentTaskCreation},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ClassifyRequest(tt.query); got != tt.want {
				t.Errorf("ClassifyRequest(%q) = %q, want %q", tt.query, got, tt.want)
			}
		})
	}
}

func TestClassifyRequestPriorityOrder(t *testing.T) {
	// "create" (task_creation) beats "status" (status_update).
	if got := ClassifyRequest("create a status report"); got != IntentTaskCreation {
		t.Errorf("got %q, want task_creation for multi-group query", got)
	}
	// "status" is claimed by status_update, not project_overview.
	if got := ClassifyRequest("project status"); got != IntentStatusUpdate {
		t.Errorf("got %q, want status_update for shared keyword", got)
	}
	// "update" (status_update) beats "overdue" (deadline_management).
	if got := ClassifyRequest("update the overdue tasks"); got != IntentStatusUpdate {
		t.Errorf("got %q, want status_update to win over deadline_management", got)
	}
}
