package pipeline

import (
	"context"

	"interview-assist-be/pkg/events"
	"interview-assist-be/pkg/rubric"
	"interview-assist-be/pkg/segment"
)

// Event types emitted to observers, one logical message each.
const (
	EventSegmentAcknowledged = "segment-acknowledged"
	EventTranscriptReady     = "transcript-ready"
	EventTranscriptFailed    = "transcript-failed"
	EventCriteriaUpdated     = "criteria-updated"
	EventQuestionsSuggested  = "questions-suggested"
	EventPipelineError       = "pipeline-error"
)

// EventPublisher fans pipeline events out to observers. Delivery is
// at-least-once; publish failures must not break the pipeline.
type EventPublisher interface {
	Publish(ctx context.Context, sessionID string, event events.Event)
}

func segmentAcknowledgedEvent(meta segment.Metadata, storeErr error) events.BaseEvent {
	data := map[string]interface{}{
		"sequence": meta.Sequence,
		"stored":   storeErr == nil,
	}
	if storeErr != nil {
		data["error"] = storeErr.Error()
	} else {
		data["location"] = meta.Location
	}
	return events.New(EventSegmentAcknowledged, data)
}

func transcriptReadyEvent(sequence int, text string, durationSeconds float64) events.BaseEvent {
	return events.New(EventTranscriptReady, map[string]interface{}{
		"sequence":         sequence,
		"text":             text,
		"duration_seconds": durationSeconds,
	})
}

func transcriptFailedEvent(sequence int, err error) events.BaseEvent {
	return events.New(EventTranscriptFailed, map[string]interface{}{
		"sequence": sequence,
		"error":    err.Error(),
	})
}

func criteriaUpdatedEvent(updates []rubric.CriteriaUpdate, progress rubric.Progress) events.BaseEvent {
	return events.New(EventCriteriaUpdated, map[string]interface{}{
		"updates":  updates,
		"progress": progress,
	})
}

func questionsSuggestedEvent(questions []rubric.SuggestedQuestion) events.BaseEvent {
	return events.New(EventQuestionsSuggested, map[string]interface{}{
		"questions": questions,
	})
}

func pipelineErrorEvent(sequence int, stage, message string) events.BaseEvent {
	return events.New(EventPipelineError, map[string]interface{}{
		"sequence": sequence,
		"stage":    stage,
		"message":  message,
	})
}
