package rubric

// Status is the coverage state of a single criterion. Transitions only move
// forward along unknown -> weak -> covered; covered is terminal.
type Status string

const (
	StatusUnknown Status = "unknown"
	StatusWeak    Status = "weak"
	StatusCovered Status = "covered"
)

// statusPriority orders statuses for the monotonic upgrade rule.
var statusPriority = map[Status]int{
	StatusUnknown: 0,
	StatusWeak:    1,
	StatusCovered: 2,
}

// ValidStatus reports whether s is one of the three known coverage states.
func ValidStatus(s Status) bool {
	_, ok := statusPriority[s]
	return ok
}

// Criterion is a single evaluable rubric line item.
type Criterion struct {
	ID       string   `json:"id" validate:"required"`
	Label    string   `json:"label" validate:"required"`
	Rubric   string   `json:"rubric" validate:"required"`
	Weight   float64  `json:"weight"`
	Status   Status   `json:"status" validate:"required,oneof=unknown weak covered"`
	Evidence []string `json:"evidence"`
}

// Rubric is the full set of evaluation criteria for one interview role.
// Criteria keep definition order for display; identity is by ID.
type Rubric struct {
	Role     string      `json:"role" validate:"required"`
	Criteria []Criterion `json:"criteria" validate:"required,min=1,dive"`
}

// Clone returns a deep copy so callers never share evidence slices with the
// tracker's canonical state.
func (r *Rubric) Clone() *Rubric {
	if r == nil {
		return nil
	}
	out := &Rubric{
		Role:     r.Role,
		Criteria: make([]Criterion, len(r.Criteria)),
	}
	for i, c := range r.Criteria {
		out.Criteria[i] = c
		out.Criteria[i].Evidence = append([]string(nil), c.Evidence...)
	}
	return out
}

// CriteriaUpdate is one validated extraction result for a criterion.
// Consumed once by the tracker; never stored.
type CriteriaUpdate struct {
	ID         string   `json:"id"`
	Status     Status   `json:"status"`
	Evidence   []string `json:"evidence"`
	Confidence float64  `json:"confidence"`
}

// SuggestedQuestion is a follow-up question proposed for a criterion.
type SuggestedQuestion struct {
	CriterionID string `json:"id"`
	Text        string `json:"ask"`
}

// Progress summarizes coverage across a rubric.
type Progress struct {
	Total      int `json:"total"`
	Covered    int `json:"covered"`
	Weak       int `json:"weak"`
	Unknown    int `json:"unknown"`
	Percentage int `json:"percentage"`
}

// Stats is an informational snapshot of a tracker.
type Stats struct {
	HasTemplate       bool     `json:"has_template"`
	TemplateRole      string   `json:"template_role,omitempty"`
	Progress          Progress `json:"progress"`
	WeakCriteriaCount int      `json:"weak_criteria_count"`
	ConversationTurns int      `json:"conversation_turns"`
	LastUpdateTime    int64    `json:"last_update_time"`
}
