package cache

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"go.uber.org/zap"
)

func TestFileSlotStoreRoundTrip(t *testing.T) {
	fs, err := NewFileSlotStore(t.TempDir(), zap.NewNop())
	if err != nil {
		t.Fatal(err)
	}
	ctx := context.Background()

	if err := fs.Write(ctx, "video-search-cache", []byte(`{"k":"v"}`)); err != nil {
		t.Fatalf("write: %v", err)
	}

	data, err := fs.Read(ctx, "video-search-cache")
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if string(data) != `{"k":"v"}` {
		t.Errorf("read back %q", data)
	}

	if err := fs.Delete(ctx, "video-search-cache"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	data, err = fs.Read(ctx, "video-search-cache")
	if err != nil {
		t.Fatalf("read after delete: %v", err)
	}
	if data != nil {
		t.Errorf("deleted slot returned %q, want nil", data)
	}
}

func TestFileSlotStoreAbsentSlot(t *testing.T) {
	fs, err := NewFileSlotStore(t.TempDir(), zap.NewNop())
	if err != nil {
		t.Fatal(err)
	}

	data, err := fs.Read(context.Background(), "never-written")
	if err != nil {
		t.Fatalf("absent slot returned error: %v", err)
	}
	if data != nil {
		t.Errorf("absent slot returned %q, want nil", data)
	}
}

func TestFileSlotStoreDeleteAbsentSlot(t *testing.T) {
	fs, err := NewFileSlotStore(t.TempDir(), zap.NewNop())
	if err != nil {
		t.Fatal(err)
	}
	if err := fs.Delete(context.Background(), "never-written"); err != nil {
		t.Errorf("delete of absent slot: %v", err)
	}
}

func TestFileSlotStoreSlotsAreIndependent(t *testing.T) {
	fs, err := NewFileSlotStore(t.TempDir(), zap.NewNop())
	if err != nil {
		t.Fatal(err)
	}
	ctx := context.Background()

	if err := fs.Write(ctx, "transcript-cache", []byte("a")); err != nil {
		t.Fatal(err)
	}
	if err := fs.Write(ctx, "summary-cache", []byte("b")); err != nil {
		t.Fatal(err)
	}
	if err := fs.Delete(ctx, "transcript-cache"); err != nil {
		t.Fatal(err)
	}

	data, err := fs.Read(ctx, "summary-cache")
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "b" {
		t.Errorf("sibling slot affected: %q", data)
	}
}

func TestFileSlotStoreLeavesNoTempFiles(t *testing.T) {
	dir := t.TempDir()
	fs, err := NewFileSlotStore(dir, zap.NewNop())
	if err != nil {
		t.Fatal(err)
	}
	if err := fs.Write(context.Background(), "slot", []byte("data")); err != nil {
		t.Fatal(err)
	}

	matches, err := filepath.Glob(filepath.Join(dir, "*.tmp"))
	if err != nil {
		t.Fatal(err)
	}
	if len(matches) != 0 {
		t.Errorf("temp files left behind: %v", matches)
	}
}

func TestStoreSurvivesProcessRestartViaFiles(t *testing.T) {
	dir := t.TempDir()
	fs, err := NewFileSlotStore(dir, zap.NewNop())
	if err != nil {
		t.Fatal(err)
	}

	first := NewStore[string](time.Hour, "transcript-cache", fs, zap.NewNop())
	first.Set("vid123", "transcript text")

	// Fresh store over the same directory stands in for a new process.
	fs2, err := NewFileSlotStore(dir, zap.NewNop())
	if err != nil {
		t.Fatal(err)
	}
	second := NewStore[string](time.Hour, "transcript-cache", fs2, zap.NewNop())

	got, ok := second.Get("vid123")
	if !ok || got != "transcript text" {
		t.Fatalf("restart lost the entry: got %q, ok=%v", got, ok)
	}
}

func TestStoreCorruptFileStartsEmpty(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "summary-cache.json"), []byte("garbage"), 0644); err != nil {
		t.Fatal(err)
	}

	fs, err := NewFileSlotStore(dir, zap.NewNop())
	if err != nil {
		t.Fatal(err)
	}
	store := NewStore[string](time.Hour, "summary-cache", fs, zap.NewNop())
	if store.Len() != 0 {
		t.Errorf("corrupt file produced %d entries, want 0", store.Len())
	}
}
