package rubric

import (
	"fmt"
	"testing"
)

type nopLogger struct{}

func (nopLogger) Debug(module, message string, details map[string]interface{}) {}
func (nopLogger) Info(module, message string, details map[string]interface{})  {}
func (nopLogger) Warn(module, message string, details map[string]interface{})  {}
func (nopLogger) Error(module, message string, details map[string]interface{}) {}
func (nopLogger) Sync() error                                                  { return nil }

func testTemplate() *Rubric {
	return &Rubric{
		Role: "Backend Junior",
		Criteria: []Criterion{
			{ID: "backend_basics", Label: "Backend Basics", Rubric: "Knows HTTP and REST", Weight: 0.4, Status: StatusUnknown, Evidence: []string{}},
			{ID: "database", Label: "Database", Rubric: "Can design schemas", Weight: 0.3, Status: StatusUnknown, Evidence: []string{}},
			{ID: "testing", Label: "Testing", Rubric: "Writes unit tests", Weight: 0.3, Status: StatusUnknown, Evidence: []string{}},
		},
	}
}

func TestApplyUpdatesMonotonicity(t *testing.T) {
	tests := []struct {
		name        string
		sequence    []Status
		wantFinal   Status
		wantChanged []int
	}{
		{
			name:        "upgrade path unknown weak covered",
			sequence:    []Status{StatusWeak, StatusCovered},
			wantFinal:   StatusCovered,
			wantChanged: []int{1, 1},
		},
		{
			name:        "covered is terminal",
			sequence:    []Status{StatusCovered, StatusWeak, StatusUnknown},
			wantFinal:   StatusCovered,
			wantChanged: []int{1, 0, 0},
		},
		{
			name:        "weak never regresses to unknown",
			sequence:    []Status{StatusWeak, StatusUnknown},
			wantFinal:   Status(StatusWeak),
			wantChanged: []int{1, 0},
		},
		{
			name:        "same status is not a change",
			sequence:    []Status{StatusWeak, StatusWeak},
			wantFinal:   StatusWeak,
			wantChanged: []int{1, 0},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tracker := NewTracker(nopLogger{})
			tracker.SetTemplate(testTemplate())

			for i, status := range tt.sequence {
				changed := tracker.ApplyUpdates([]CriteriaUpdate{
					{ID: "backend_basics", Status: status, Evidence: []string{}, Confidence: 0.9},
				})
				if changed != tt.wantChanged[i] {
					t.Errorf("step %d: changed = %d, want %d", i, changed, tt.wantChanged[i])
				}
			}

			got := tracker.GetTemplate().Criteria[0].Status
			if got != tt.wantFinal {
				t.Errorf("final status = %q, want %q", got, tt.wantFinal)
			}
		})
	}
}

func TestApplyUpdatesEvidenceIdempotence(t *testing.T) {
	tracker := NewTracker(nopLogger{})
	tracker.SetTemplate(testTemplate())

	update := []CriteriaUpdate{
		{ID: "database", Status: StatusWeak, Evidence: []string{"mentions indexes", "mentions joins"}, Confidence: 0.7},
	}

	tracker.ApplyUpdates(update)
	tracker.ApplyUpdates(update)

	evidence := tracker.GetTemplate().Criteria[1].Evidence
	if len(evidence) != 2 {
		t.Fatalf("evidence length = %d, want 2 (got %v)", len(evidence), evidence)
	}
	if evidence[0] != "mentions indexes" || evidence[1] != "mentions joins" {
		t.Errorf("evidence order changed: %v", evidence)
	}
}

func TestApplyUpdatesUnknownID(t *testing.T) {
	tracker := NewTracker(nopLogger{})
	tracker.SetTemplate(testTemplate())

	changed := tracker.ApplyUpdates([]CriteriaUpdate{
		{ID: "nonexistent", Status: StatusCovered, Evidence: []string{"x"}, Confidence: 1},
	})

	if changed != 0 {
		t.Errorf("changed = %d, want 0", changed)
	}
	for _, c := range tracker.GetTemplate().Criteria {
		if c.Status != StatusUnknown || len(c.Evidence) != 0 {
			t.Errorf("criterion %s mutated by unknown-id update", c.ID)
		}
	}
}

func TestApplyUpdatesEvidenceOnlyDoesNotCount(t *testing.T) {
	tracker := NewTracker(nopLogger{})
	tracker.SetTemplate(testTemplate())

	tracker.ApplyUpdates([]CriteriaUpdate{
		{ID: "testing", Status: StatusCovered, Evidence: []string{"first"}, Confidence: 0.9},
	})
	changed := tracker.ApplyUpdates([]CriteriaUpdate{
		{ID: "testing", Status: StatusCovered, Evidence: []string{"second"}, Confidence: 0.9},
	})

	if changed != 0 {
		t.Errorf("evidence-only addition counted as status change: %d", changed)
	}
	evidence := tracker.GetTemplate().Criteria[2].Evidence
	if len(evidence) != 2 {
		t.Errorf("evidence = %v, want both entries appended", evidence)
	}
}

func TestHistoryBound(t *testing.T) {
	tracker := NewTracker(nopLogger{})
	tracker.SetTemplate(testTemplate())

	for i := 1; i <= 15; i++ {
		tracker.AddToHistory(fmt.Sprintf("turn %d", i))
	}

	history := tracker.HistorySnapshot()
	if len(history) != 10 {
		t.Fatalf("history length = %d, want 10", len(history))
	}
	for i, entry := range history {
		want := fmt.Sprintf("turn %d", i+6)
		if entry != want {
			t.Errorf("history[%d] = %q, want %q", i, entry, want)
		}
	}
}

func TestHistorySkipsEmptyTranscripts(t *testing.T) {
	tracker := NewTracker(nopLogger{})
	tracker.AddToHistory("   ")
	tracker.AddToHistory("")
	tracker.AddToHistory("  real answer  ")

	history := tracker.HistorySnapshot()
	if len(history) != 1 || history[0] != "real answer" {
		t.Errorf("history = %v, want single trimmed entry", history)
	}
}

func TestGetProgress(t *testing.T) {
	tracker := NewTracker(nopLogger{})

	// No template yet
	if p := tracker.GetProgress(); p.Total != 0 || p.Percentage != 0 {
		t.Errorf("empty progress = %+v", p)
	}

	template := testTemplate()
	template.Criteria = append(template.Criteria, Criterion{
		ID: "communication", Label: "Communication", Rubric: "Explains clearly", Weight: 0.1, Status: StatusUnknown, Evidence: []string{},
	})
	tracker.SetTemplate(template)

	tracker.ApplyUpdates([]CriteriaUpdate{
		{ID: "backend_basics", Status: StatusCovered, Evidence: []string{}, Confidence: 0.9},
		{ID: "database", Status: StatusWeak, Evidence: []string{}, Confidence: 0.5},
	})

	p := tracker.GetProgress()
	want := Progress{Total: 4, Covered: 1, Weak: 1, Unknown: 2, Percentage: 25}
	if p != want {
		t.Errorf("progress = %+v, want %+v", p, want)
	}
}

func TestSetTemplateClearsState(t *testing.T) {
	tracker := NewTracker(nopLogger{})
	tracker.SetTemplate(testTemplate())
	tracker.AddToHistory("answer")
	tracker.ApplyUpdates([]CriteriaUpdate{
		{ID: "backend_basics", Status: StatusCovered, Evidence: []string{"e"}, Confidence: 1},
	})

	tracker.SetTemplate(testTemplate())

	if len(tracker.HistorySnapshot()) != 0 {
		t.Error("history survived template re-selection")
	}
	if tracker.GetTemplate().Criteria[0].Status != StatusUnknown {
		t.Error("criterion state survived template re-selection")
	}
}

func TestReset(t *testing.T) {
	tracker := NewTracker(nopLogger{})
	tracker.SetTemplate(testTemplate())
	tracker.AddToHistory("answer")

	tracker.Reset()

	if tracker.GetTemplate() != nil {
		t.Error("template survived reset")
	}
	stats := tracker.GetStats()
	if stats.HasTemplate || stats.ConversationTurns != 0 || stats.LastUpdateTime != 0 {
		t.Errorf("stats after reset = %+v", stats)
	}
}

func TestGetWeakAndCoveredCriteriaAreCopies(t *testing.T) {
	tracker := NewTracker(nopLogger{})
	tracker.SetTemplate(testTemplate())
	tracker.ApplyUpdates([]CriteriaUpdate{
		{ID: "backend_basics", Status: StatusCovered, Evidence: []string{"proof"}, Confidence: 0.8},
	})

	covered := tracker.GetCoveredCriteria()
	if len(covered) != 1 || covered[0].ID != "backend_basics" {
		t.Fatalf("covered = %v", covered)
	}
	weak := tracker.GetWeakCriteria()
	if len(weak) != 2 {
		t.Fatalf("weak count = %d, want 2", len(weak))
	}

	// Mutating the returned copies must not touch canonical state.
	covered[0].Evidence[0] = "tampered"
	if tracker.GetTemplate().Criteria[0].Evidence[0] != "proof" {
		t.Error("returned criterion aliases tracker state")
	}
}

func TestGetStatsConsistentUnderConcurrentUpdates(t *testing.T) {
	tracker := NewTracker(nopLogger{})
	tracker.SetTemplate(testTemplate())

	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 200; i++ {
			tracker.ApplyUpdates([]CriteriaUpdate{
				{ID: "backend_basics", Status: StatusWeak, Evidence: []string{"turn"}, Confidence: 0.5},
				{ID: "database", Status: StatusCovered, Evidence: []string{"schema"}, Confidence: 0.9},
			})
			if i%50 == 0 {
				tracker.SetTemplate(testTemplate())
			}
		}
	}()

	// Every snapshot must be internally consistent even while updates and
	// template swaps land concurrently.
	for i := 0; i < 200; i++ {
		stats := tracker.GetStats()
		p := stats.Progress
		if p.Covered+p.Weak+p.Unknown != p.Total {
			t.Fatalf("progress counts disagree with total: %+v", p)
		}
		if stats.WeakCriteriaCount != p.Weak+p.Unknown {
			t.Fatalf("weak count %d disagrees with progress %+v", stats.WeakCriteriaCount, p)
		}
		if stats.HasTemplate != (p.Total > 0) {
			t.Fatalf("template flag disagrees with progress: %+v", stats)
		}
	}
	<-done
}
