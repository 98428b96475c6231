package testsupport

import (
	"testing"

	"narrator/internal/config"
	"narrator/internal/transcriptcache"
)

// MustOpenTranscriptCache opens the configured transcript cache for tests and
// registers cleanup.
func MustOpenTranscriptCache(t testing.TB, cfg *config.Config) *transcriptcache.Cache {
	t.Helper()

	cache, err := transcriptcache.Open(cfg.TranscriptCachePath())
	if err != nil {
		t.Fatalf("transcriptcache.Open: %v", err)
	}
	t.Cleanup(func() {
		_ = cache.Close()
	})
	return cache
}
