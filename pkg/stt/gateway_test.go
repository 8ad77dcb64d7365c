package stt

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"
)

type nopLogger struct{}

func (nopLogger) Debug(module, message string, details map[string]interface{}) {}
func (nopLogger) Info(module, message string, details map[string]interface{})  {}
func (nopLogger) Warn(module, message string, details map[string]interface{})  {}
func (nopLogger) Error(module, message string, details map[string]interface{}) {}
func (nopLogger) Sync() error                                                  { return nil }

// fakeProvider transcribes by echoing the file content and records the
// maximum number of concurrently in-flight calls.
type fakeProvider struct {
	mu            sync.Mutex
	inFlight      int
	maxInFlight   int
	delay         time.Duration
	failFilenames map[string]bool
}

func (f *fakeProvider) Transcribe(ctx context.Context, req TranscribeRequest) (Transcription, error) {
	f.mu.Lock()
	f.inFlight++
	if f.inFlight > f.maxInFlight {
		f.maxInFlight = f.inFlight
	}
	f.mu.Unlock()

	defer func() {
		f.mu.Lock()
		f.inFlight--
		f.mu.Unlock()
	}()

	if f.delay > 0 {
		time.Sleep(f.delay)
	}
	if f.failFilenames[req.Filename] {
		return Transcription{}, errors.New("provider rejected request")
	}

	data, err := io.ReadAll(req.Audio)
	if err != nil {
		return Transcription{}, err
	}
	return Transcription{Text: string(data), DurationSeconds: 5}, nil
}

func (f *fakeProvider) HealthCheck(ctx context.Context) bool { return true }

func writeSegment(t *testing.T, dir string, seq int, content string) BatchItem {
	t.Helper()
	location := filepath.Join(dir, fmt.Sprintf("%03d_1000.webm", seq))
	if err := os.WriteFile(location, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return BatchItem{Location: location, Sequence: seq}
}

func TestTranscribeOne(t *testing.T) {
	dir := t.TempDir()
	item := writeSegment(t, dir, 1, "  hello world  ")

	gateway := NewGateway(&fakeProvider{}, "ko", time.Minute, nopLogger{})
	result := gateway.TranscribeOne(context.Background(), item.Location, "sess-a", 1)

	if result.Err != nil {
		t.Fatalf("unexpected error: %v", result.Err)
	}
	if result.Transcription.Text != "hello world" {
		t.Errorf("text = %q, want trimmed content", result.Transcription.Text)
	}
}

func TestTranscribeOneMissingFile(t *testing.T) {
	gateway := NewGateway(&fakeProvider{}, "ko", time.Minute, nopLogger{})
	result := gateway.TranscribeOne(context.Background(), "/nonexistent/001.webm", "sess-a", 1)

	if result.Err == nil {
		t.Fatal("expected a structured error for a missing file")
	}
	if result.Err.Stage != "read" || result.Err.Sequence != 1 {
		t.Errorf("error = %+v, want read-stage error for seq 1", result.Err)
	}
}

func TestTranscribeBatchReordersBySequence(t *testing.T) {
	dir := t.TempDir()
	// Submitted (and completed) in order 3, 1, 2.
	items := []BatchItem{
		writeSegment(t, dir, 3, "three"),
		writeSegment(t, dir, 1, "one"),
		writeSegment(t, dir, 2, "two"),
	}

	gateway := NewGateway(&fakeProvider{}, "ko", time.Minute, nopLogger{})
	results := gateway.TranscribeBatch(context.Background(), items, "sess-a", 2)

	if len(results) != 3 {
		t.Fatalf("results = %d, want 3", len(results))
	}
	for i, want := range []string{"one", "two", "three"} {
		if results[i].Sequence != i+1 {
			t.Errorf("results[%d].Sequence = %d, want %d", i, results[i].Sequence, i+1)
		}
		if results[i].Transcription == nil || results[i].Transcription.Text != want {
			t.Errorf("results[%d] = %+v, want text %q", i, results[i], want)
		}
	}
}

func TestTranscribeBatchBoundsConcurrency(t *testing.T) {
	dir := t.TempDir()
	var items []BatchItem
	for seq := 1; seq <= 7; seq++ {
		items = append(items, writeSegment(t, dir, seq, fmt.Sprintf("seg %d", seq)))
	}

	provider := &fakeProvider{delay: 20 * time.Millisecond}
	gateway := NewGateway(provider, "ko", time.Minute, nopLogger{})
	gateway.TranscribeBatch(context.Background(), items, "sess-a", 3)

	if provider.maxInFlight > 3 {
		t.Errorf("max in-flight = %d, want <= 3", provider.maxInFlight)
	}
}

func TestTranscribeBatchIsolatesFailures(t *testing.T) {
	dir := t.TempDir()
	items := []BatchItem{
		writeSegment(t, dir, 1, "one"),
		writeSegment(t, dir, 2, "two"),
		writeSegment(t, dir, 3, "three"),
	}

	provider := &fakeProvider{failFilenames: map[string]bool{"002_1000.webm": true}}
	gateway := NewGateway(provider, "ko", time.Minute, nopLogger{})
	results := gateway.TranscribeBatch(context.Background(), items, "sess-a", 3)

	if results[0].Err != nil || results[2].Err != nil {
		t.Error("healthy segments affected by a sibling failure")
	}
	if results[1].Err == nil || results[1].Err.Stage != "provider" {
		t.Errorf("results[1] = %+v, want provider-stage error", results[1])
	}
}

func TestNegotiateFormat(t *testing.T) {
	tests := []struct {
		name      string
		supported []string
		want      string
	}{
		{
			name:      "prefers opus webm",
			supported: []string{"audio/wav", "audio/webm;codecs=opus", "audio/mp4"},
			want:      "audio/webm;codecs=opus",
		},
		{
			name:      "falls back to plain webm",
			supported: []string{"audio/mp4", "audio/webm"},
			want:      "audio/webm",
		},
		{
			name:      "wav as last resort",
			supported: []string{"audio/wav"},
			want:      "audio/wav",
		},
		{
			name:      "nothing usable",
			supported: []string{"audio/flac"},
			want:      "",
		},
		{
			name:      "empty list",
			supported: nil,
			want:      "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := NegotiateFormat(tt.supported); got != tt.want {
				t.Errorf("NegotiateFormat(%v) = %q, want %q", tt.supported, got, tt.want)
			}
		})
	}
}
