package store

import (
	"context"
	"sync"

	"interview-assist-be/internal/pkg/logger"
	"interview-assist-be/pkg/rubric"
)

// Session is the active interview session state held in memory. The
// tracker owns the rubric and conversation history; the session itself
// tracks the in-flight segment chains so teardown can cancel and await
// them instead of leaving orphaned background work.
type Session struct {
	ID      string
	Tracker *rubric.Tracker

	mu     sync.Mutex
	ctx    context.Context
	cancel context.CancelFunc
	tasks  sync.WaitGroup
}

func NewSession(id string, log logger.ILogger) *Session {
	ctx, cancel := context.WithCancel(context.Background())
	return &Session{
		ID:      id,
		Tracker: rubric.NewTracker(log),
		ctx:     ctx,
		cancel:  cancel,
	}
}

// TrackTask registers one segment chain and returns the session context the
// chain should run under, plus a done callback.
func (s *Session) TrackTask() (context.Context, func()) {
	s.mu.Lock()
	ctx := s.ctx
	s.mu.Unlock()

	s.tasks.Add(1)
	return ctx, s.tasks.Done
}

// Teardown cancels every in-flight chain for this session and waits for
// them to unwind, then arms a fresh context so the session can keep
// accepting segments afterwards.
func (s *Session) Teardown() {
	s.mu.Lock()
	cancel := s.cancel
	s.mu.Unlock()

	cancel()
	s.tasks.Wait()

	ctx, newCancel := context.WithCancel(context.Background())
	s.mu.Lock()
	s.ctx = ctx
	s.cancel = newCancel
	s.mu.Unlock()
}
