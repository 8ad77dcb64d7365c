package stt

import (
	"context"
	"fmt"
	"io"
)

// TranscribeRequest carries one audio payload to the provider.
type TranscribeRequest struct {
	Audio        io.Reader
	Filename     string // provider APIs infer the container from the name
	MimeType     string
	LanguageHint string
}

// Segment is a timed portion of the transcription, when the provider
// reports one.
type Segment struct {
	StartSec float64 `json:"start"`
	EndSec   float64 `json:"end"`
	Text     string  `json:"text"`
}

// Transcription is the normalized provider result.
type Transcription struct {
	Text            string    `json:"text"`
	DurationSeconds float64   `json:"duration,omitempty"`
	Language        string    `json:"language,omitempty"`
	Segments        []Segment `json:"segments,omitempty"`
}

// Provider is a pluggable speech-to-text backend.
type Provider interface {
	Transcribe(ctx context.Context, req TranscribeRequest) (Transcription, error)

	// HealthCheck verifies reachability and credentials without
	// transcribing audio.
	HealthCheck(ctx context.Context) bool
}

// TranscriptionError is the structured failure for one segment. It carries
// enough to log and notify the caller without leaking provider wire detail.
type TranscriptionError struct {
	SessionID string
	Sequence  int
	Stage     string // "read", "provider"
	Err       error
}

func (e *TranscriptionError) Error() string {
	return fmt.Sprintf("transcribe session=%s seq=%d stage=%s: %v", e.SessionID, e.Sequence, e.Stage, e.Err)
}

func (e *TranscriptionError) Unwrap() error { return e.Err }
