package stt

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"interview-assist-be/internal/pkg/logger"

	"golang.org/x/sync/errgroup"
)

// BatchItem identifies one stored segment to transcribe.
type BatchItem struct {
	Location string
	Sequence int
}

// Result is the outcome for one segment: either a transcription or a
// structured error, never both.
type Result struct {
	Sequence      int
	Transcription *Transcription
	Err           *TranscriptionError
}

// Gateway wraps an STT provider with file loading, structured errors,
// bounded-concurrency batch transcription, and sequence-ordering recovery.
type Gateway struct {
	provider     Provider
	languageHint string
	callTimeout  time.Duration
	logger       logger.ILogger
}

func NewGateway(provider Provider, languageHint string, callTimeout time.Duration, log logger.ILogger) *Gateway {
	return &Gateway{
		provider:     provider,
		languageHint: languageHint,
		callTimeout:  callTimeout,
		logger:       log,
	}
}

// TranscribeOne reads a stored segment and transcribes it. Failures come
// back inside the Result so callers handle every segment uniformly.
func (g *Gateway) TranscribeOne(ctx context.Context, location, sessionID string, sequence int) Result {
	data, err := os.ReadFile(location)
	if err != nil {
		terr := &TranscriptionError{SessionID: sessionID, Sequence: sequence, Stage: "read", Err: err}
		g.logger.Error("SttGateway", "Failed to read stored segment", map[string]interface{}{
			"session_id": sessionID,
			"sequence":   sequence,
			"error":      err.Error(),
		})
		return Result{Sequence: sequence, Err: terr}
	}

	callCtx := ctx
	if g.callTimeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, g.callTimeout)
		defer cancel()
	}

	transcription, err := g.provider.Transcribe(callCtx, TranscribeRequest{
		Audio:        bytes.NewReader(data),
		Filename:     filepath.Base(location),
		MimeType:     mimeFromExtension(location),
		LanguageHint: g.languageHint,
	})
	if err != nil {
		terr := &TranscriptionError{SessionID: sessionID, Sequence: sequence, Stage: "provider", Err: err}
		g.logger.Error("SttGateway", "Provider transcription failed", map[string]interface{}{
			"session_id": sessionID,
			"sequence":   sequence,
			"error":      err.Error(),
		})
		return Result{Sequence: sequence, Err: terr}
	}

	transcription.Text = strings.TrimSpace(transcription.Text)
	g.logger.Info("SttGateway", "Segment transcribed", map[string]interface{}{
		"session_id": sessionID,
		"sequence":   sequence,
		"chars":      len(transcription.Text),
		"duration":   transcription.DurationSeconds,
	})
	return Result{Sequence: sequence, Transcription: &transcription}
}

// TranscribeBatch transcribes stored segments in fixed windows of
// concurrencyLimit requests. Each window fully completes before the next
// starts, bounding provider load, and the final list is re-sorted by
// sequence so downstream consumers see segment order regardless of
// completion order. Individual failures stay inside their Result.
func (g *Gateway) TranscribeBatch(ctx context.Context, items []BatchItem, sessionID string, concurrencyLimit int) []Result {
	if concurrencyLimit < 1 {
		concurrencyLimit = 1
	}

	results := make([]Result, 0, len(items))
	remaining := items

	for len(remaining) > 0 {
		window := remaining
		if len(window) > concurrencyLimit {
			window = window[:concurrencyLimit]
		}
		remaining = remaining[len(window):]

		windowResults := make([]Result, len(window))
		var eg errgroup.Group
		for i, item := range window {
			i, item := i, item
			eg.Go(func() error {
				windowResults[i] = g.TranscribeOne(ctx, item.Location, sessionID, item.Sequence)
				return nil
			})
		}
		// Goroutines never return errors; failures live in the results.
		_ = eg.Wait()
		results = append(results, windowResults...)
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Sequence < results[j].Sequence
	})
	return results
}

// HealthCheck verifies provider reachability and credentials.
func (g *Gateway) HealthCheck(ctx context.Context) bool {
	return g.provider.HealthCheck(ctx)
}

func mimeFromExtension(location string) string {
	switch strings.ToLower(filepath.Ext(location)) {
	case ".wav":
		return "audio/wav"
	case ".mp4":
		return "audio/mp4"
	default:
		return "audio/webm"
	}
}
