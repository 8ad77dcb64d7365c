package extract

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"interview-assist-be/internal/pkg/logger"
	"interview-assist-be/pkg/llm"
	"interview-assist-be/pkg/rubric"
)

// Extraction is a fully validated provider response.
type Extraction struct {
	Updates   []rubric.CriteriaUpdate
	Questions []rubric.SuggestedQuestion
}

// rawResponse mirrors the provider's required JSON contract. Pointer fields
// distinguish "missing" from zero values during validation.
type rawResponse struct {
	CriteriaUpdates []rawUpdate   `json:"criteria_updates"`
	NextQuestions   []rawQuestion `json:"next_questions"`
}

type rawUpdate struct {
	ID         string   `json:"id"`
	Status     string   `json:"status"`
	Evidence   []string `json:"evidence"`
	Confidence *float64 `json:"confidence"`
}

type rawQuestion struct {
	ID  string `json:"id"`
	Ask string `json:"ask"`
}

// Extractor derives criteria updates and follow-up questions from a
// transcript via one LLM call.
type Extractor struct {
	provider llm.LLMProvider
	logger   logger.ILogger
}

func NewExtractor(provider llm.LLMProvider, log logger.ILogger) *Extractor {
	return &Extractor{provider: provider, logger: log}
}

// HealthCheck reports whether the underlying LLM provider is reachable.
func (e *Extractor) HealthCheck(ctx context.Context) bool {
	return e.provider.HealthCheck(ctx)
}

// Extract returns nil on any failure: provider error, malformed JSON, or a
// response outside the contract. A missed extraction is a normal, expected
// outcome of probabilistic model output, so callers treat nil as "no usable
// signal this turn", not a fault.
func (e *Extractor) Extract(ctx context.Context, transcript string, template *rubric.Rubric, history []string) *Extraction {
	if template == nil {
		e.logger.Warn("Extractor", "No template set, skipping extraction", nil)
		return nil
	}

	prompt := NewPromptBuilder(template, transcript, history).Build()

	content, err := e.provider.Generate(ctx, prompt,
		llm.WithTemperature(0.3),
		llm.WithMaxTokens(1000),
		llm.WithJSONMode(),
	)
	if err != nil {
		e.logger.Error("Extractor", "LLM call failed", map[string]interface{}{
			"error": err.Error(),
		})
		return nil
	}

	extraction, reason := parseAndValidate(content)
	if extraction == nil {
		e.logger.Warn("Extractor", "Discarding invalid LLM response", map[string]interface{}{
			"reason": reason,
		})
		return nil
	}

	e.logger.Info("Extractor", "Extraction complete", map[string]interface{}{
		"updates":   len(extraction.Updates),
		"questions": len(extraction.Questions),
	})
	return extraction
}

// parseAndValidate enforces the response contract atomically: any violation
// discards the whole response. A partially-trusted model response about
// rubric coverage is worse than no update.
func parseAndValidate(content string) (*Extraction, string) {
	cleaned := stripCodeFence(content)

	var raw rawResponse
	decoder := json.NewDecoder(strings.NewReader(cleaned))
	if err := decoder.Decode(&raw); err != nil {
		return nil, "not a JSON object: " + err.Error()
	}

	if raw.CriteriaUpdates == nil {
		return nil, "missing criteria_updates"
	}
	if raw.NextQuestions == nil {
		return nil, "missing next_questions"
	}

	updates := make([]rubric.CriteriaUpdate, 0, len(raw.CriteriaUpdates))
	for i, u := range raw.CriteriaUpdates {
		if u.ID == "" {
			return nil, indexed(i, "update missing id")
		}
		if !rubric.ValidStatus(rubric.Status(u.Status)) {
			return nil, indexed(i, "update status outside enum: "+u.Status)
		}
		if u.Evidence == nil {
			return nil, indexed(i, "update missing evidence array")
		}
		if u.Confidence == nil {
			return nil, indexed(i, "update missing confidence")
		}
		if *u.Confidence < 0 || *u.Confidence > 1 {
			return nil, indexed(i, "confidence out of range")
		}
		updates = append(updates, rubric.CriteriaUpdate{
			ID:         u.ID,
			Status:     rubric.Status(u.Status),
			Evidence:   u.Evidence,
			Confidence: *u.Confidence,
		})
	}

	questions := make([]rubric.SuggestedQuestion, 0, len(raw.NextQuestions))
	for i, q := range raw.NextQuestions {
		if q.ID == "" || q.Ask == "" {
			return nil, indexed(i, "question missing id or ask")
		}
		questions = append(questions, rubric.SuggestedQuestion{
			CriterionID: q.ID,
			Text:        q.Ask,
		})
	}

	return &Extraction{Updates: updates, Questions: questions}, ""
}

// stripCodeFence removes the markdown fences some models wrap around JSON
// even when asked not to.
func stripCodeFence(content string) string {
	trimmed := strings.TrimSpace(content)
	if !strings.HasPrefix(trimmed, "```") {
		return trimmed
	}
	trimmed = strings.TrimPrefix(trimmed, "```json")
	trimmed = strings.TrimPrefix(trimmed, "```")
	trimmed = strings.TrimSuffix(strings.TrimSpace(trimmed), "```")
	return strings.TrimSpace(trimmed)
}

func indexed(i int, msg string) string {
	return fmt.Sprintf("%s (index %d)", msg, i)
}
