// File path: internal/cache/store_test.go
package cache

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	cfg := &Config{
		Path:          filepath.Join(t.TempDir(), "cache_test.db"),
		TTL:           time.Hour,
		SweepInterval: time.Hour,
	}
	store, err := NewStore(cfg)
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func TestCloseIsIdempotent(t *testing.T) {
	store := newTestStore(t)
	if err := store.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	// The cleanup registered by newTestStore closes a third time.
	if err := store.Close(); err != nil {
		t.Fatalf("second Close: %v", err)
	}
}

func TestSetThenGet(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	if err := store.Set(ctx, "Diploma in Software Engineering", `{"overview":"x"}`); err != nil {
		t.Fatalf("Set: %v", err)
	}
	entry, err := store.Get(ctx, "Diploma in Software Engineering")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if entry.Payload != `{"overview":"x"}` {
		t.Errorf("payload = %q", entry.Payload)
	}
	if entry.Version != 1 {
		t.Errorf("version = %d, want 1", entry.Version)
	}
	if entry.HitCount != 1 {
		t.Errorf("hit count = %d, want 1 after first read", entry.HitCount)
	}
}

func TestGetIsCaseInsensitive(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	if err := store.Set(ctx, "Cached Program", "payload"); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if _, err := store.Get(ctx, "  CACHED program "); err != nil {
		t.Fatalf("Get with different casing: %v", err)
	}
}

func TestGetMissing(t *testing.T) {
	store := newTestStore(t)
	if _, err := store.Get(context.Background(), "nope"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestReplaceBumpsVersion(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	if err := store.Set(ctx, "p", "v1"); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if err := store.Set(ctx, "p", "v2"); err != nil {
		t.Fatalf("Set again: %v", err)
	}
	entry, err := store.Get(ctx, "p")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if entry.Payload != "v2" || entry.Version != 2 {
		t.Errorf("payload=%q version=%d, want v2/2", entry.Payload, entry.Version)
	}
}

func TestExpiredEntryIsMiss(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	if err := store.Set(ctx, "p", "payload"); err != nil {
		t.Fatalf("Set: %v", err)
	}
	// Jump the clock past the TTL.
	store.now = func() time.Time { return time.Now().Add(2 * time.Hour) }
	if _, err := store.Get(ctx, "p"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for expired entry, got %v", err)
	}
}

func TestHitCountAccumulates(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	if err := store.Set(ctx, "popular", "payload"); err != nil {
		t.Fatalf("Set: %v", err)
	}
	for i := 0; i < 3; i++ {
		if _, err := store.Get(ctx, "popular"); err != nil {
			t.Fatalf("Get %d: %v", i, err)
		}
	}
	entry, err := store.Get(ctx, "popular")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if entry.HitCount != 4 {
		t.Errorf("hit count = %d, want 4", entry.HitCount)
	}
}

func TestDeleteAndClear(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	for _, name := range []string{"a", "b", "c"} {
		if err := store.Set(ctx, name, "payload"); err != nil {
			t.Fatalf("Set %s: %v", name, err)
		}
	}
	deleted, err := store.Delete(ctx, "a")
	if err != nil || !deleted {
		t.Fatalf("Delete = %v, %v", deleted, err)
	}
	deleted, err = store.Delete(ctx, "a")
	if err != nil || deleted {
		t.Fatalf("second Delete = %v, %v; want false, nil", deleted, err)
	}
	n, err := store.Clear(ctx)
	if err != nil {
		t.Fatalf("Clear: %v", err)
	}
	if n != 2 {
		t.Errorf("cleared = %d, want 2", n)
	}
}

func TestStats(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	if err := store.Set(ctx, "popular", "payload"); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if err := store.Set(ctx, "quiet", "payload"); err != nil {
		t.Fatalf("Set: %v", err)
	}
	for i := 0; i < 2; i++ {
		if _, err := store.Get(ctx, "popular"); err != nil {
			t.Fatalf("Get: %v", err)
		}
	}
	stats, err := store.Stats(ctx)
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}
	if stats.TotalEntries != 2 || stats.ActiveEntries != 2 || stats.ExpiredEntries != 0 {
		t.Errorf("counts = %+v", stats)
	}
	if len(stats.TopPrograms) == 0 || stats.TopPrograms[0].ProgramName != "popular" {
		t.Errorf("top programs = %+v", stats.TopPrograms)
	}
	if stats.TopPrograms[0].HitCount != 2 {
		t.Errorf("top hit count = %d, want 2", stats.TopPrograms[0].HitCount)
	}
}
