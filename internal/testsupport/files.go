package testsupport

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
)

// WriteAudio creates a stand-in MP3 of exactly size bytes at path: an "ID3"
// tag marker followed by filler. Sizes below the marker length are raised to
// it. Parent directories are created as needed.
func WriteAudio(t testing.TB, path string, size int64) {
	t.Helper()

	const marker = "ID3"
	if size < int64(len(marker)) {
		size = int64(len(marker))
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir for %s: %v", path, err)
	}
	payload := append([]byte(marker), bytes.Repeat([]byte{0x42}, int(size)-len(marker))...)
	if err := os.WriteFile(path, payload, 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}
