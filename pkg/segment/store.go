package segment

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"interview-assist-be/internal/pkg/logger"
)

// Metadata describes one durably stored audio segment.
type Metadata struct {
	SessionID string `json:"session_id"`
	Sequence  int    `json:"sequence"`
	Timestamp int64  `json:"timestamp"`
	MimeType  string `json:"mime_type"`
	Location  string `json:"location"`
	SizeBytes int    `json:"size_bytes"`
}

// SessionStats aggregates what has been durably stored for a session.
// EstimatedDurationSeconds is segment count times the nominal segment
// length, not measured from audio content.
type SessionStats struct {
	SessionID                string `json:"session_id"`
	SegmentCount             int    `json:"segment_count"`
	TotalBytes               int    `json:"total_bytes"`
	EstimatedDurationSeconds int    `json:"estimated_duration_seconds"`
}

// StorageError reports a failed segment write.
type StorageError struct {
	SessionID string
	Sequence  int
	Err       error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("store segment session=%s seq=%d: %v", e.SessionID, e.Sequence, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }

// Store persists audio segments under a session-scoped directory and keeps
// per-session metadata in sequence order. Metadata is only recorded for
// writes that actually reached disk, so stats never disagree with storage.
type Store struct {
	baseDir        string
	nominalSeconds int

	mu       sync.RWMutex
	metadata map[string][]Metadata

	logger logger.ILogger
}

func NewStore(baseDir string, nominalSegmentSeconds int, log logger.ILogger) *Store {
	return &Store{
		baseDir:        baseDir,
		nominalSeconds: nominalSegmentSeconds,
		metadata:       make(map[string][]Metadata),
		logger:         log,
	}
}

// Save writes the segment bytes to a sequence-derived key and records its
// metadata. The key embeds both sequence and timestamp, so a re-delivered
// sequence with a different timestamp never overwrites the original.
func (s *Store) Save(ctx context.Context, sessionID string, sequence int, timestamp int64, mimeType string, data []byte) (Metadata, error) {
	if err := ctx.Err(); err != nil {
		return Metadata{}, &StorageError{SessionID: sessionID, Sequence: sequence, Err: err}
	}

	sessionDir := filepath.Join(s.baseDir, sessionID)
	if err := os.MkdirAll(sessionDir, 0755); err != nil {
		return Metadata{}, &StorageError{SessionID: sessionID, Sequence: sequence, Err: err}
	}

	filename := fmt.Sprintf("%03d_%d.%s", sequence, timestamp, extensionFor(mimeType))
	location := filepath.Join(sessionDir, filename)

	if err := os.WriteFile(location, data, 0644); err != nil {
		return Metadata{}, &StorageError{SessionID: sessionID, Sequence: sequence, Err: err}
	}

	meta := Metadata{
		SessionID: sessionID,
		Sequence:  sequence,
		Timestamp: timestamp,
		MimeType:  mimeType,
		Location:  location,
		SizeBytes: len(data),
	}

	s.mu.Lock()
	s.metadata[sessionID] = append(s.metadata[sessionID], meta)
	// Arrival order is not guaranteed to match sequence order.
	sort.SliceStable(s.metadata[sessionID], func(i, j int) bool {
		return s.metadata[sessionID][i].Sequence < s.metadata[sessionID][j].Sequence
	})
	s.mu.Unlock()

	s.logger.Info("SegmentStore", "Segment stored", map[string]interface{}{
		"session_id": sessionID,
		"sequence":   sequence,
		"location":   location,
		"size_bytes": len(data),
	})
	return meta, nil
}

// Metadata returns the stored segment metadata for a session, sequence
// ascending, as a copy.
func (s *Store) Metadata(sessionID string) []Metadata {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]Metadata(nil), s.metadata[sessionID]...)
}

// Stats returns the session-level aggregate view.
func (s *Store) Stats(sessionID string) SessionStats {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := SessionStats{SessionID: sessionID}
	for _, meta := range s.metadata[sessionID] {
		stats.SegmentCount++
		stats.TotalBytes += meta.SizeBytes
	}
	stats.EstimatedDurationSeconds = stats.SegmentCount * s.nominalSeconds
	return stats
}

// ClearSession drops a session's metadata. Files on disk are left in place.
func (s *Store) ClearSession(sessionID string) {
	s.mu.Lock()
	delete(s.metadata, sessionID)
	s.mu.Unlock()

	s.logger.Info("SegmentStore", "Session metadata cleared", map[string]interface{}{
		"session_id": sessionID,
	})
}

func extensionFor(mimeType string) string {
	switch mimeType {
	case "audio/webm", "audio/webm;codecs=opus":
		return "webm"
	case "audio/wav":
		return "wav"
	case "audio/mp4":
		return "mp4"
	default:
		return "webm"
	}
}
