package pipeline

import (
	"context"
	"fmt"
	"strings"

	"interview-assist-be/internal/pkg/logger"
	"interview-assist-be/internal/repository/memory"
	"interview-assist-be/pkg/extract"
	"interview-assist-be/pkg/rubric"
	"interview-assist-be/pkg/rubric/template"
	"interview-assist-be/pkg/segment"
	"interview-assist-be/pkg/stt"

	"github.com/google/uuid"
)

// IngestRequest is one incoming audio segment.
type IngestRequest struct {
	SessionID string
	Sequence  int
	Timestamp int64
	MimeType  string
	Data      []byte
}

// Ack reports the store outcome for a segment, independently of anything
// that happens downstream.
type Ack struct {
	Sequence int    `json:"sequence"`
	Stored   bool   `json:"stored"`
	Location string `json:"location,omitempty"`
	Error    string `json:"error,omitempty"`
}

// Status is the answer to a session status query.
type Status struct {
	Rubric       *rubric.Rubric     `json:"rubric"`
	Progress     rubric.Progress    `json:"progress"`
	WeakCriteria []rubric.Criterion `json:"weak_criteria"`
	Stats        rubric.Stats       `json:"stats"`
}

// Orchestrator wires store -> transcription -> extraction -> rubric per
// incoming segment. Each segment runs as its own tracked chain, so one
// slow or failing segment never blocks the others.
type Orchestrator struct {
	segments  *segment.Store
	gateway   *stt.Gateway // nil when the STT integration is unconfigured
	extractor *extract.Extractor
	templates *template.Loader
	sessions  *memory.SessionRepository
	publisher EventPublisher

	batchConcurrency int
	logger           logger.ILogger
}

func NewOrchestrator(
	segments *segment.Store,
	gateway *stt.Gateway,
	extractor *extract.Extractor,
	templates *template.Loader,
	sessions *memory.SessionRepository,
	publisher EventPublisher,
	batchConcurrency int,
	log logger.ILogger,
) *Orchestrator {
	return &Orchestrator{
		segments:         segments,
		gateway:          gateway,
		extractor:        extractor,
		templates:        templates,
		sessions:         sessions,
		publisher:        publisher,
		batchConcurrency: batchConcurrency,
		logger:           log,
	}
}

// CreateSession allocates a new session ID.
func (o *Orchestrator) CreateSession() string {
	id := uuid.NewString()
	o.sessions.GetOrCreate(id)
	return id
}

// ListTemplates returns the available rubric template IDs.
func (o *Orchestrator) ListTemplates() ([]string, error) {
	return o.templates.List()
}

// SelectTemplate loads a rubric template into the session, replacing any
// previous rubric and clearing conversation history.
func (o *Orchestrator) SelectTemplate(sessionID, templateID string) (*rubric.Rubric, error) {
	tpl, err := o.templates.Load(templateID)
	if err != nil {
		return nil, err
	}

	session := o.sessions.GetOrCreate(sessionID)
	session.Tracker.SetTemplate(tpl)
	return tpl, nil
}

// IngestSegment stores the segment and, when the write succeeds, spawns the
// transcription chain. The ack (success or failure) is both returned to the
// caller and published, regardless of what happens downstream.
func (o *Orchestrator) IngestSegment(ctx context.Context, req IngestRequest) Ack {
	session := o.sessions.GetOrCreate(req.SessionID)

	meta, err := o.segments.Save(ctx, req.SessionID, req.Sequence, req.Timestamp, req.MimeType, req.Data)
	if err != nil {
		// Save returns zero metadata on failure; the ack still names the
		// segment it refuses.
		meta.Sequence = req.Sequence
	}
	o.publisher.Publish(ctx, req.SessionID, segmentAcknowledgedEvent(meta, err))

	if err != nil {
		o.logger.Error("Orchestrator", "Segment store failed", map[string]interface{}{
			"session_id": req.SessionID,
			"sequence":   req.Sequence,
			"error":      err.Error(),
		})
		return Ack{Sequence: req.Sequence, Stored: false, Error: err.Error()}
	}

	chainCtx, done := session.TrackTask()
	go func() {
		defer done()
		o.runSegmentChain(chainCtx, session.ID, meta)
	}()

	return Ack{Sequence: req.Sequence, Stored: true, Location: meta.Location}
}

// runSegmentChain is the per-segment pipeline: transcribe, publish the
// transcript, extract criteria, apply them. Failures at each stage are
// contained to this segment.
func (o *Orchestrator) runSegmentChain(ctx context.Context, sessionID string, meta segment.Metadata) {
	if o.gateway == nil {
		o.publisher.Publish(ctx, sessionID, pipelineErrorEvent(meta.Sequence, "transcription", "speech-to-text provider is not configured"))
		return
	}

	result := o.gateway.TranscribeOne(ctx, meta.Location, sessionID, meta.Sequence)
	if result.Err != nil {
		o.publisher.Publish(ctx, sessionID, transcriptFailedEvent(meta.Sequence, result.Err))
		return
	}

	text := strings.TrimSpace(result.Transcription.Text)
	if text == "" {
		o.logger.Debug("Orchestrator", "Empty transcript, skipping extraction", map[string]interface{}{
			"session_id": sessionID,
			"sequence":   meta.Sequence,
		})
		return
	}

	// Live transcripts are forwarded as they complete; a slower earlier
	// segment may land after a faster later one. Only the batch path
	// guarantees sequence order.
	o.publisher.Publish(ctx, sessionID, transcriptReadyEvent(meta.Sequence, text, result.Transcription.DurationSeconds))

	session := o.sessions.GetOrCreate(sessionID)
	session.Tracker.AddToHistory(text)

	if o.extractor == nil {
		o.publisher.Publish(ctx, sessionID, pipelineErrorEvent(meta.Sequence, "extraction", "language-model provider is not configured"))
		return
	}

	// Snapshot rubric and history at invocation time; a later segment may
	// append history before this call returns, which is acceptable since
	// the history is best-effort context, not an ordering guarantee.
	tpl := session.Tracker.GetTemplate()
	history := session.Tracker.HistorySnapshot()

	extraction := o.extractor.Extract(ctx, text, tpl, history)
	if extraction == nil {
		// No usable signal this turn; already logged by the extractor.
		return
	}

	changed := session.Tracker.ApplyUpdates(extraction.Updates)
	if changed > 0 {
		o.publisher.Publish(ctx, sessionID, criteriaUpdatedEvent(extraction.Updates, session.Tracker.GetProgress()))
	}
	if len(extraction.Questions) > 0 {
		o.publisher.Publish(ctx, sessionID, questionsSuggestedEvent(extraction.Questions))
	}
}

// TranscribeStored re-transcribes every stored segment for a session with
// bounded concurrency, returning results in sequence order regardless of
// completion order.
func (o *Orchestrator) TranscribeStored(ctx context.Context, sessionID string) ([]stt.Result, error) {
	if o.gateway == nil {
		return nil, fmt.Errorf("speech-to-text provider is not configured")
	}

	metas := o.segments.Metadata(sessionID)
	items := make([]stt.BatchItem, len(metas))
	for i, meta := range metas {
		items[i] = stt.BatchItem{Location: meta.Location, Sequence: meta.Sequence}
	}

	return o.gateway.TranscribeBatch(ctx, items, sessionID, o.batchConcurrency), nil
}

// GetStatus answers a session status query with copies of the rubric state.
func (o *Orchestrator) GetStatus(sessionID string) Status {
	session := o.sessions.GetOrCreate(sessionID)
	return Status{
		Rubric:       session.Tracker.GetTemplate(),
		Progress:     session.Tracker.GetProgress(),
		WeakCriteria: session.Tracker.GetWeakCriteria(),
		Stats:        session.Tracker.GetStats(),
	}
}

// GetSessionStats reports what has been durably stored for the session.
func (o *Orchestrator) GetSessionStats(sessionID string) segment.SessionStats {
	return o.segments.Stats(sessionID)
}

// ResetSession cancels and awaits the session's in-flight chains, then
// clears rubric state and segment metadata.
func (o *Orchestrator) ResetSession(sessionID string) {
	session := o.sessions.GetOrCreate(sessionID)
	session.Teardown()
	session.Tracker.Reset()
	o.segments.ClearSession(sessionID)

	o.logger.Info("Orchestrator", "Session reset", map[string]interface{}{
		"session_id": sessionID,
	})
}

// Health reports provider reachability for the health endpoint.
func (o *Orchestrator) Health(ctx context.Context) map[string]bool {
	health := map[string]bool{
		"stt": false,
		"llm": false,
	}
	if o.gateway != nil {
		health["stt"] = o.gateway.HealthCheck(ctx)
	}
	if o.extractor != nil {
		health["llm"] = o.extractor.HealthCheck(ctx)
	}
	return health
}
