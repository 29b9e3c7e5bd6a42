package agent

import (
	"context"
	"testing"
	"time"

	"github.com/Janarthanan-Gnanamurthy/Planora/internal/llm"
	"github.com/Janarthanan-Gnanamurthy/Planora/pkg/models"
)

func newTestDispatcher(s *fakeStore, provider *fakeProvider, now time.Time) *Dispatcher {
	reg := testRegistry(s, now)
	w := NewWorkflow(provider, s, reg, s, testLogger())
	b := NewBreakdownEngine(provider, s, testLogger())
	return NewDispatcher(w, b, reg, testLogger())
}

func TestProcessRoutesToWorkflow(t *testing.T) {
	now := time.Now()
	s := seedStore(now)
	provider := &fakeProvider{script: []*llm.Completion{{Text: "All good."}}}
	d := newTestDispatcher(s, provider, now)

	result := d.Process(context.Background(), Request{UserID: "u1", Query: "how is the project"})
	if result["response"] != "All good." {
		t.Errorf("response = %v", result["response"])
	}
	if _, hasError := result["error"]; hasError {
		t.Errorf("unexpected error payload: %v", result)
	}
}

func TestProcessRoutesToBreakdown(t *testing.T) {
	now := time.Now()
	s := seedStore(now)
	provider := &fakeProvider{script: []*llm.Completion{{
		Text: `[{"title": "Phase one", "estimated_days": 3}]`,
	}}}
	d := newTestDispatcher(s, provider, now)

	result := d.Process(context.Background(), Request{
		UserID: "u1",
		Query:  "give me a breakdown of the migration work",
	})
	proposals, ok := result["suggested_tasks"].([]TaskProposal)
	if !ok {
		t.Fatalf("expected suggested_tasks, got %v", result)
	}
	if len(proposals) != 1 || proposals[0].Title != "Phase one" {
		t.Errorf("proposals = %+v", proposals)
	}
}

func TestProcessAnalysisKeywords(t *testing.T) {
	for _, kw := range []string{"analyze", "complexity", "breakdown", "estimate"} {
		if !wantsAnalysis("please " + kw + " this") {
			t.Errorf("keyword %q should route to analysis", kw)
		}
	}
	if wantsAnalysis("create a task for me") {
		t.Error("plain creation request must not route to analysis")
	}
}

func TestProcessTaskComplexityRoute(t *testing.T) {
	now := time.Now()
	s := seedStore(now)
	provider := &fakeProvider{script: []*llm.Completion{{
		Text: `{"complexity": 4}`,
	}}}
	d := newTestDispatcher(s, provider, now)

	result := d.Process(context.Background(), Request{
		UserID: "u1",
		Query:  "analyze this task",
		TaskID: "t1",
	})
	if result["complexity"] != float64(4) {
		t.Errorf("expected complexity analysis, got %v", result)
	}
}

func TestProcessCatchAll(t *testing.T) {
	now := time.Now()
	s := seedStore(now)
	// Complexity analysis propagates provider errors, which the dispatcher
	// converts into the catch-all payload.
	provider := &fakeProvider{script: []*llm.Completion{nil}}
	d := newTestDispatcher(s, provider, now)

	result := d.Process(context.Background(), Request{
		UserID: "u1",
		Query:  "analyze this task",
		TaskID: "t1",
	})
	if result["error"] != "Failed to process request" {
		t.Fatalf("expected catch-all payload, got %v", result)
	}
	if result["response"] != apologyMessage {
		t.Errorf("response = %v", result["response"])
	}
	if _, ok := result["details"].(string); !ok {
		t.Error("catch-all payload must carry details")
	}
}

func TestSmartTaskCreationSuggestOnly(t *testing.T) {
	now := time.Now()
	s := seedStore(now)
	provider := &fakeProvider{script: []*llm.Completion{{
		Text: `[{"title": "A"}, {"title": "B"}]`,
	}}}
	d := newTestDispatcher(s, provider, now)

	result := d.SmartTaskCreation(context.Background(), "u1", "p1", "ship the release", false)
	if result["auto_created"] != false {
		t.Error("auto_created must be false without the flag")
	}
	proposals := result["suggested_tasks"].([]TaskProposal)
	if len(proposals) != 2 {
		t.Fatalf("expected 2 proposals, got %d", len(proposals))
	}
	if len(s.tasks) != 4 {
		t.Error("suggest-only mode must not create tasks")
	}
	if _, ok := result["instructions"]; !ok {
		t.Error("suggest-only result should include instructions")
	}
}

func TestSmartTaskCreationAutoCreate(t *testing.T) {
	now := time.Now()
	s := seedStore(now)
	provider := &fakeProvider{script: []*llm.Completion{{
		Text: `[{"title": "A", "priority": "high", "estimated_days": 2}, {"title": "B"}]`,
	}}}
	d := newTestDispatcher(s, provider, now)

	result := d.SmartTaskCreation(context.Background(), "u1", "p1", "ship the release", true)
	if result["auto_created"] != true {
		t.Error("auto_created must be true")
	}
	created := result["created_tasks"].([]map[string]any)
	if len(created) != 2 {
		t.Fatalf("expected 2 created tasks, got %d", len(created))
	}
	errsVal, hasErrors := result["errors"]
	if !hasErrors {
		t.Error("errors key must always be present")
	}
	if errsVal != nil {
		t.Errorf("no errors expected, got %v", errsVal)
	}
	if len(s.tasks) != 6 {
		t.Errorf("expected 6 stored tasks, got %d", len(s.tasks))
	}

	var high *models.Task
	for _, task := range s.tasks {
		if task.Title == "A" {
			high = task
		}
	}
	if high == nil {
		t.Fatal("task A not persisted")
	}
	if high.Priority != models.PriorityHigh {
		t.Errorf("priority = %q, want high", high.Priority)
	}
	if high.Deadline == nil || !high.Deadline.Equal(now.Add(2*24*time.Hour)) {
		t.Errorf("deadline should come from estimated_days, got %v", high.Deadline)
	}
}

func TestSmartTaskCreationCollectsErrors(t *testing.T) {
	now := time.Now()
	s := seedStore(now)
	s.failCreate = true
	provider := &fakeProvider{script: []*llm.Completion{{
		Text: `[{"title": "A"}, {"title": "B"}]`,
	}}}
	d := newTestDispatcher(s, provider, now)

	result := d.SmartTaskCreation(context.Background(), "u1", "p1", "ship it", true)
	errs, ok := result["errors"].([]string)
	if !ok {
		t.Fatalf("expected errors list, got %v", result)
	}
	if len(errs) != 2 {
		t.Errorf("expected 2 errors, got %d", len(errs))
	}
	created := result["created_tasks"].([]map[string]any)
	if len(created) != 0 {
		t.Errorf("no tasks should be created, got %d", len(created))
	}
}
