package transcriptcache_test

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"narrator/internal/transcriptcache"
)

func openCache(t *testing.T) *transcriptcache.Cache {
	t.Helper()
	cache, err := transcriptcache.Open(filepath.Join(t.TempDir(), "cache", "transcripts.db"))
	if err != nil {
		t.Fatalf("Open returned error: %v", err)
	}
	t.Cleanup(func() { _ = cache.Close() })
	return cache
}

func TestLookupMiss(t *testing.T) {
	cache := openCache(t)
	text, ok, err := cache.Lookup(context.Background(), "https://youtu.be/abc", 0)
	if err != nil {
		t.Fatalf("Lookup returned error: %v", err)
	}
	if ok || text != "" {
		t.Fatalf("expected miss, got %q %v", text, ok)
	}
}

func TestStoreAndLookupKeyedByCap(t *testing.T) {
	ctx := context.Background()
	cache := openCache(t)
	if err := cache.Store(ctx, "ref", 360, "short transcript"); err != nil {
		t.Fatalf("Store returned error: %v", err)
	}
	if err := cache.Store(ctx, "ref", 0, "full transcript"); err != nil {
		t.Fatalf("Store returned error: %v", err)
	}

	text, ok, err := cache.Lookup(ctx, "ref", 360)
	if err != nil || !ok || text != "short transcript" {
		t.Fatalf("unexpected capped lookup %q %v %v", text, ok, err)
	}
	text, ok, err = cache.Lookup(ctx, "ref", 0)
	if err != nil || !ok || text != "full transcript" {
		t.Fatalf("unexpected uncapped lookup %q %v %v", text, ok, err)
	}
	if _, ok, _ := cache.Lookup(ctx, "ref", 30); ok {
		t.Fatal("expected miss for different cap")
	}

	stats, err := cache.Stats(ctx)
	if err != nil {
		t.Fatalf("Stats returned error: %v", err)
	}
	if stats.Entries != 2 || stats.Hits != 2 {
		t.Fatalf("unexpected stats %+v", stats)
	}
}

func TestStoreReplacesExisting(t *testing.T) {
	ctx := context.Background()
	cache := openCache(t)
	_ = cache.Store(ctx, "ref", 0, "first")
	if err := cache.Store(ctx, "ref", 0, "second"); err != nil {
		t.Fatalf("Store returned error: %v", err)
	}
	text, _, _ := cache.Lookup(ctx, "ref", 0)
	if text != "second" {
		t.Fatalf("expected replacement, got %q", text)
	}
}

func TestStoreRejectsEmptyTranscript(t *testing.T) {
	cache := openCache(t)
	if err := cache.Store(context.Background(), "ref", 0, "   "); err == nil {
		t.Fatal("expected error for empty transcript")
	}
}

func TestReopenKeepsEntries(t *testing.T) {
	path := filepath.Join(t.TempDir(), "transcripts.db")
	cache, err := transcriptcache.Open(path)
	if err != nil {
		t.Fatalf("Open returned error: %v", err)
	}
	if err := cache.Store(context.Background(), "ref", 0, "persisted"); err != nil {
		t.Fatalf("Store returned error: %v", err)
	}
	_ = cache.Close()

	reopened, err := transcriptcache.Open(path)
	if err != nil {
		t.Fatalf("reopen returned error: %v", err)
	}
	defer reopened.Close()
	text, ok, err := reopened.Lookup(context.Background(), "ref", 0)
	if err != nil || !ok || text != "persisted" {
		t.Fatalf("unexpected lookup after reopen %q %v %v", text, ok, err)
	}
}

func TestPruneRemovesOldEntries(t *testing.T) {
	ctx := context.Background()
	cache := openCache(t)
	_ = cache.Store(ctx, "old", 0, "old transcript")
	removed, err := cache.Prune(ctx, time.Now().Add(time.Hour))
	if err != nil {
		t.Fatalf("Prune returned error: %v", err)
	}
	if removed != 1 {
		t.Fatalf("expected 1 removed, got %d", removed)
	}
	if _, ok, _ := cache.Lookup(ctx, "old", 0); ok {
		t.Fatal("expected entry to be pruned")
	}
}

func TestConcurrentStores(t *testing.T) {
	ctx := context.Background()
	cache := openCache(t)
	var wg sync.WaitGroup
	for i := range 8 {
		wg.Add(1)
		go func(limit int) {
			defer wg.Done()
			if err := cache.Store(ctx, "ref", limit, "text"); err != nil {
				t.Errorf("Store(%d) returned error: %v", limit, err)
			}
		}(i)
	}
	wg.Wait()
	stats, err := cache.Stats(ctx)
	if err != nil {
		t.Fatalf("Stats returned error: %v", err)
	}
	if stats.Entries != 8 {
		t.Fatalf("expected 8 entries, got %d", stats.Entries)
	}
}
