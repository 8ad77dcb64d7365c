package rubric

import (
	"strings"
	"sync"
	"time"

	"interview-assist-be/internal/pkg/logger"
)

// historyCapacity bounds the conversation history ring.
const historyCapacity = 10

// Tracker owns the canonical rubric and conversation history for one
// session. All mutation goes through its methods under a single mutex, so
// the monotonic-upgrade and evidence-dedup invariants hold even with
// multiple segment chains in flight.
type Tracker struct {
	mu         sync.Mutex
	template   *Rubric
	history    []string
	lastUpdate time.Time

	logger logger.ILogger
}

func NewTracker(log logger.ILogger) *Tracker {
	return &Tracker{logger: log}
}

// SetTemplate replaces the rubric wholesale and clears conversation history.
// This is the only operation allowed to downgrade or erase criterion state.
func (t *Tracker) SetTemplate(template *Rubric) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.template = template.Clone()
	t.history = nil
	t.lastUpdate = time.Now()

	t.logger.Info("Tracker", "Template set", map[string]interface{}{
		"role":     template.Role,
		"criteria": len(template.Criteria),
	})
}

// GetTemplate returns a copy of the current rubric, or nil when no template
// has been selected.
func (t *Tracker) GetTemplate() *Rubric {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.template.Clone()
}

// ApplyUpdates merges validated extraction results into the rubric.
// Status only moves forward (unknown < weak < covered); downgrades are
// ignored. Evidence is appended with exact-text dedup. Updates referencing
// an unknown criterion ID are skipped, since the model may hallucinate IDs.
// Returns the number of criteria whose status actually changed.
func (t *Tracker) ApplyUpdates(updates []CriteriaUpdate) int {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.template == nil {
		t.logger.Warn("Tracker", "No template set, skipping criteria updates", nil)
		return 0
	}

	changed := 0
	for _, update := range updates {
		idx := t.findCriterion(update.ID)
		if idx == -1 {
			t.logger.Warn("Tracker", "Unknown criterion ID in update", map[string]interface{}{
				"id": update.ID,
			})
			continue
		}

		criterion := &t.template.Criteria[idx]

		if statusPriority[update.Status] > statusPriority[criterion.Status] {
			criterion.Status = update.Status
			changed++
		} else if update.Status != criterion.Status {
			t.logger.Debug("Tracker", "Ignoring status downgrade", map[string]interface{}{
				"id":      update.ID,
				"current": criterion.Status,
				"update":  update.Status,
			})
		}

		for _, ev := range update.Evidence {
			if !containsExact(criterion.Evidence, ev) {
				criterion.Evidence = append(criterion.Evidence, ev)
			}
		}
	}

	if changed > 0 {
		t.lastUpdate = time.Now()
	}
	return changed
}

// AddToHistory appends a transcript to the conversation history, keeping
// only the most recent entries. Whitespace-only transcripts are dropped.
func (t *Tracker) AddToHistory(transcript string) {
	trimmed := strings.TrimSpace(transcript)
	if trimmed == "" {
		return
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	t.history = append(t.history, trimmed)
	if len(t.history) > historyCapacity {
		t.history = t.history[len(t.history)-historyCapacity:]
	}
}

// HistorySnapshot returns a copy of the conversation history, oldest first.
func (t *Tracker) HistorySnapshot() []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]string(nil), t.history...)
}

// GetWeakCriteria returns copies of criteria that are not yet covered.
func (t *Tracker) GetWeakCriteria() []Criterion {
	return t.filterCriteria(func(c Criterion) bool {
		return c.Status == StatusUnknown || c.Status == StatusWeak
	})
}

// GetCoveredCriteria returns copies of criteria with covered status.
func (t *Tracker) GetCoveredCriteria() []Criterion {
	return t.filterCriteria(func(c Criterion) bool {
		return c.Status == StatusCovered
	})
}

// GetProgress computes the coverage summary. Percentage is rounded and zero
// for an empty or missing rubric.
func (t *Tracker) GetProgress() Progress {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.progressLocked()
}

func (t *Tracker) progressLocked() Progress {
	if t.template == nil {
		return Progress{}
	}

	p := Progress{Total: len(t.template.Criteria)}
	for _, c := range t.template.Criteria {
		switch c.Status {
		case StatusCovered:
			p.Covered++
		case StatusWeak:
			p.Weak++
		default:
			p.Unknown++
		}
	}
	if p.Total > 0 {
		p.Percentage = int(float64(p.Covered)/float64(p.Total)*100 + 0.5)
	}
	return p
}

// GetStats returns an informational snapshot for status queries. Everything
// is computed under one lock so the fields agree with each other even while
// updates are being applied concurrently.
func (t *Tracker) GetStats() Stats {
	t.mu.Lock()
	defer t.mu.Unlock()

	progress := t.progressLocked()
	stats := Stats{
		HasTemplate: t.template != nil,
		Progress:    progress,
		// Weak criteria are everything not yet covered, matching
		// GetWeakCriteria.
		WeakCriteriaCount: progress.Weak + progress.Unknown,
		ConversationTurns: len(t.history),
	}
	if t.template != nil {
		stats.TemplateRole = t.template.Role
	}
	if !t.lastUpdate.IsZero() {
		stats.LastUpdateTime = t.lastUpdate.UnixMilli()
	}
	return stats
}

// Reset returns the tracker to its pre-template state.
func (t *Tracker) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.template = nil
	t.history = nil
	t.lastUpdate = time.Time{}

	t.logger.Info("Tracker", "Tracker reset", nil)
}

func (t *Tracker) filterCriteria(keep func(Criterion) bool) []Criterion {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.template == nil {
		return []Criterion{}
	}

	out := []Criterion{}
	for _, c := range t.template.Criteria {
		if keep(c) {
			copied := c
			copied.Evidence = append([]string(nil), c.Evidence...)
			out = append(out, copied)
		}
	}
	return out
}

func (t *Tracker) findCriterion(id string) int {
	for i := range t.template.Criteria {
		if t.template.Criteria[i].ID == id {
			return i
		}
	}
	return -1
}

func containsExact(list []string, s string) bool {
	for _, item := range list {
		if item == s {
			return true
		}
	}
	return false
}
