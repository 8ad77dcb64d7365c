package extract

import (
	"fmt"
	"strings"

	"interview-assist-be/pkg/rubric"
)

// historyWindow is how many recent conversation turns the prompt surfaces.
// The tracker keeps 10, but only the most recent 5 go to the model to bound
// prompt size.
const historyWindow = 5

// PromptBuilder assembles the extraction prompt from the rubric, the new
// transcript, and a bounded history window.
type PromptBuilder struct {
	template   *rubric.Rubric
	transcript string
	history    []string
}

func NewPromptBuilder(template *rubric.Rubric, transcript string, history []string) *PromptBuilder {
	return &PromptBuilder{
		template:   template,
		transcript: transcript,
		history:    history,
	}
}

func (b *PromptBuilder) Build() string {
	var prompt strings.Builder

	b.writeRole(&prompt)
	b.writeCriteria(&prompt)
	b.writeTranscript(&prompt)
	b.writeHistory(&prompt)
	b.writeInstructions(&prompt)
	b.writeResponseContract(&prompt)

	return prompt.String()
}

func (b *PromptBuilder) writeRole(prompt *strings.Builder) {
	fmt.Fprintf(prompt, "You are an expert interviewer evaluating a candidate for the role: %s.\n\n", b.template.Role)
}

func (b *PromptBuilder) writeCriteria(prompt *strings.Builder) {
	prompt.WriteString("Evaluation criteria:\n")
	for _, c := range b.template.Criteria {
		fmt.Fprintf(prompt, "- %s: %s (%s) [current: %s]\n", c.ID, c.Label, c.Rubric, c.Status)
	}
	prompt.WriteString("\n")
}

func (b *PromptBuilder) writeTranscript(prompt *strings.Builder) {
	prompt.WriteString("Candidate's latest answer:\n")
	fmt.Fprintf(prompt, "%q\n", b.transcript)
}

func (b *PromptBuilder) writeHistory(prompt *strings.Builder) {
	if len(b.history) == 0 {
		return
	}
	recent := b.history
	if len(recent) > historyWindow {
		recent = recent[len(recent)-historyWindow:]
	}
	prompt.WriteString("\nEarlier answers in this interview:\n")
	for _, entry := range recent {
		prompt.WriteString(entry)
		prompt.WriteString("\n")
	}
}

func (b *PromptBuilder) writeInstructions(prompt *strings.Builder) {
	prompt.WriteString("\nInstructions:\n")
	prompt.WriteString("1. Analyze the answer and update the status of each criterion it addresses\n")
	prompt.WriteString("2. Status progression: unknown (no signal) -> weak (insufficient) -> covered (satisfied)\n")
	prompt.WriteString("3. Write evidence that is specific and objective\n")
	prompt.WriteString("4. Rate confidence between 0.0 and 1.0\n")
	prompt.WriteString("5. Suggest 1-2 follow-up questions for criteria that are still unknown or weak\n")
	prompt.WriteString("6. Questions must be direct and concrete\n")
}

func (b *PromptBuilder) writeResponseContract(prompt *strings.Builder) {
	prompt.WriteString("\nRespond with ONLY a JSON object in exactly this shape:\n")
	prompt.WriteString(`{
  "criteria_updates": [
    {
      "id": "criterion_id",
      "status": "unknown|weak|covered",
      "evidence": ["specific observation"],
      "confidence": 0.85
    }
  ],
  "next_questions": [
    {
      "id": "criterion_id",
      "ask": "clear, concrete question"
    }
  ]
}
`)
	prompt.WriteString("\nImportant: do not update criteria the answer never touched. Never evaluate on speculation or assumption.\n")
}
