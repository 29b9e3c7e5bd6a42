package agent

import "strings"

// Intent is the classified category of a user request.
type Intent string

const (
	IntentTaskCreation       Intent = "task_creation"
	IntentStatusUpdate       Intent = "status_update"
	IntentDeadlineManagement Intent = "deadline_management"
	IntentProjectOverview    Intent = "project_overview"
	IntentGeneralAssistance  Intent = "general_assistance"
)

// intentKeywords maps keyword groups to intents in fixed priority order.
// The first group containing a match wins; a query matching several groups
// is classified by the earliest one. "status" appears in both the
// status_update and project_overview groups; the earlier group takes it.
var intentKeywords = []struct {
	intent   Intent
	keywords []string
}{
	{IntentTaskCreation, []string{"create", "add", "new task", "make"}},
	{IntentStatusUpdate, []string{"status", "update", "complete", "done", "progress"}},
	{IntentDeadlineManagement, []string{"overdue", "deadline", "late", "behind"}},
	{IntentProjectOverview, []string{"overview", "summary", "status", "report"}},
}

// ClassifyRequest maps a free-text query to an intent via case-insensitive
// keyword matching. Queries matching no group are general_assistance.
func ClassifyRequest(query string) Intent {
	lower := strings.ToLower(query)
	for _, group := range intentKeywords {
		for _, kw := range group.keywords {
			if strings.Contains(lower, kw) {
				return group.intent
			}
		}
	}
	return IntentGeneralAssistance
}
