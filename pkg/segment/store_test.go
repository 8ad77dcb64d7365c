package segment

import (
	"context"
	"os"
	"testing"
)

type nopLogger struct{}

func (nopLogger) Debug(module, message string, details map[string]interface{}) {}
func (nopLogger) Info(module, message string, details map[string]interface{})  {}
func (nopLogger) Warn(module, message string, details map[string]interface{})  {}
func (nopLogger) Error(module, message string, details map[string]interface{}) {}
func (nopLogger) Sync() error                                                  { return nil }

func TestSaveAndMetadataOrdering(t *testing.T) {
	store := NewStore(t.TempDir(), 5, nopLogger{})
	ctx := context.Background()

	// Segments arrive out of sequence order.
	for _, seq := range []int{3, 1, 2} {
		if _, err := store.Save(ctx, "sess-a", seq, int64(1000+seq), "audio/webm", []byte("audio")); err != nil {
			t.Fatalf("Save seq %d: %v", seq, err)
		}
	}

	metas := store.Metadata("sess-a")
	if len(metas) != 3 {
		t.Fatalf("metadata count = %d, want 3", len(metas))
	}
	for i, meta := range metas {
		if meta.Sequence != i+1 {
			t.Errorf("metadata[%d].Sequence = %d, want %d", i, meta.Sequence, i+1)
		}
		if _, err := os.Stat(meta.Location); err != nil {
			t.Errorf("segment file missing: %v", err)
		}
	}
}

func TestSaveKeyIncludesTimestamp(t *testing.T) {
	store := NewStore(t.TempDir(), 5, nopLogger{})
	ctx := context.Background()

	first, err := store.Save(ctx, "sess-a", 1, 100, "audio/webm", []byte("first"))
	if err != nil {
		t.Fatal(err)
	}
	// Re-delivery of the same sequence under a new timestamp must not
	// overwrite the original file.
	second, err := store.Save(ctx, "sess-a", 1, 200, "audio/webm", []byte("second"))
	if err != nil {
		t.Fatal(err)
	}

	if first.Location == second.Location {
		t.Errorf("re-delivered segment overwrote key %s", first.Location)
	}
	data, err := os.ReadFile(first.Location)
	if err != nil || string(data) != "first" {
		t.Errorf("original segment content lost: %q, %v", data, err)
	}
}

func TestStats(t *testing.T) {
	store := NewStore(t.TempDir(), 5, nopLogger{})
	ctx := context.Background()

	if stats := store.Stats("empty"); stats.SegmentCount != 0 || stats.TotalBytes != 0 || stats.EstimatedDurationSeconds != 0 {
		t.Errorf("empty session stats = %+v", stats)
	}

	store.Save(ctx, "sess-a", 1, 100, "audio/webm", make([]byte, 10))
	store.Save(ctx, "sess-a", 2, 200, "audio/webm", make([]byte, 30))

	stats := store.Stats("sess-a")
	if stats.SegmentCount != 2 || stats.TotalBytes != 40 || stats.EstimatedDurationSeconds != 10 {
		t.Errorf("stats = %+v, want {2, 40, 10}", stats)
	}
}

func TestSaveFailureLeavesStatsUntouched(t *testing.T) {
	dir := t.TempDir()
	store := NewStore(dir, 5, nopLogger{})
	ctx := context.Background()

	// Occupy the session directory path with a file so MkdirAll fails.
	if err := os.WriteFile(dir+"/sess-a", []byte("blocker"), 0644); err != nil {
		t.Fatal(err)
	}

	_, err := store.Save(ctx, "sess-a", 1, 100, "audio/webm", []byte("audio"))
	if err == nil {
		t.Fatal("Save succeeded against a blocked directory")
	}
	var storageErr *StorageError
	if !asStorageError(err, &storageErr) {
		t.Fatalf("err type = %T, want *StorageError", err)
	}

	if stats := store.Stats("sess-a"); stats.SegmentCount != 0 {
		t.Errorf("failed write recorded in stats: %+v", stats)
	}
}

func asStorageError(err error, target **StorageError) bool {
	e, ok := err.(*StorageError)
	if ok {
		*target = e
	}
	return ok
}

func TestClearSession(t *testing.T) {
	store := NewStore(t.TempDir(), 5, nopLogger{})
	store.Save(context.Background(), "sess-a", 1, 100, "audio/webm", []byte("audio"))

	store.ClearSession("sess-a")

	if len(store.Metadata("sess-a")) != 0 {
		t.Error("metadata survived ClearSession")
	}
}

func TestExtensionFor(t *testing.T) {
	tests := []struct {
		mime string
		want string
	}{
		{"audio/webm", "webm"},
		{"audio/webm;codecs=opus", "webm"},
		{"audio/wav", "wav"},
		{"audio/mp4", "mp4"},
		{"application/octet-stream", "webm"},
	}
	for _, tt := range tests {
		if got := extensionFor(tt.mime); got != tt.want {
			t.Errorf("extensionFor(%q) = %q, want %q", tt.mime, got, tt.want)
		}
	}
}
