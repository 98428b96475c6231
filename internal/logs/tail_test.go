package logs_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"narrator/internal/logs"
)

func TestLastReturnsTrailingLines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "narrator.log")
	if err := os.WriteFile(path, []byte("a\nb\nc\n"), 0o644); err != nil {
		t.Fatalf("write log: %v", err)
	}

	lines, offset, err := logs.Last(path, 2)
	if err != nil {
		t.Fatalf("Last: %v", err)
	}
	if len(lines) != 2 || lines[0] != "b" || lines[1] != "c" {
		t.Fatalf("unexpected lines: %#v", lines)
	}
	if offset != 6 {
		t.Fatalf("expected offset 6, got %d", offset)
	}

	lines, _, err = logs.Last(path, 10)
	if err != nil || len(lines) != 3 {
		t.Fatalf("expected all three lines, got %#v err=%v", lines, err)
	}
}

func TestLastMissingFile(t *testing.T) {
	lines, offset, err := logs.Last(filepath.Join(t.TempDir(), "absent.log"), 5)
	if err != nil || lines != nil || offset != 0 {
		t.Fatalf("expected empty result, got %#v %d %v", lines, offset, err)
	}
}

func TestFollowEmitsAppendedLines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "narrator.log")
	if err := os.WriteFile(path, []byte("start\n"), 0o644); err != nil {
		t.Fatalf("write log: %v", err)
	}
	_, offset, err := logs.Last(path, 1)
	if err != nil {
		t.Fatalf("Last: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var mu sync.Mutex
	var got []string
	received := make(chan struct{}, 4)
	done := make(chan error, 1)
	go func() {
		done <- logs.Follow(ctx, path, offset, 10*time.Millisecond, func(line string) {
			mu.Lock()
			got = append(got, line)
			mu.Unlock()
			received <- struct{}{}
		})
	}()

	f, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		t.Fatalf("open append: %v", err)
	}
	if _, err := f.WriteString("later\npart"); err != nil {
		t.Fatalf("append log: %v", err)
	}

	select {
	case <-received:
	case <-time.After(5 * time.Second):
		t.Fatal("follow did not emit appended line")
	}
	if _, err := f.WriteString("ial\n"); err != nil {
		t.Fatalf("append log: %v", err)
	}
	_ = f.Close()
	select {
	case <-received:
	case <-time.After(5 * time.Second):
		t.Fatal("follow did not emit completed partial line")
	}

	cancel()
	if err := <-done; !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	mu.Lock()
	defer mu.Unlock()
	if len(got) != 2 || got[0] != "later" || got[1] != "partial" {
		t.Fatalf("unexpected lines %#v", got)
	}
}

func TestFollowRestartsAfterTruncation(t *testing.T) {
	path := filepath.Join(t.TempDir(), "narrator.log")
	if err := os.WriteFile(path, []byte("old line one\nold line two\n"), 0o644); err != nil {
		t.Fatalf("write log: %v", err)
	}
	_, offset, _ := logs.Last(path, 0)

	if err := os.WriteFile(path, []byte("fresh\n"), 0o644); err != nil {
		t.Fatalf("truncate log: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	lines := make(chan string, 1)
	go func() {
		_ = logs.Follow(ctx, path, offset, 10*time.Millisecond, func(line string) {
			select {
			case lines <- line:
			default:
			}
		})
	}()

	select {
	case line := <-lines:
		if line != "fresh" {
			t.Fatalf("expected fresh, got %q", line)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("follow did not recover from truncation")
	}
}

func TestMatch(t *testing.T) {
	cases := []struct {
		line  string
		jobID string
		want  bool
	}{
		{"2026-01-01T00:00:00Z INFO workflow [abc123]: stage started", "abc123", true},
		{`{"msg":"stage started","job_id":"abc123"}`, "abc123", true},
		{"2026-01-01T00:00:00Z INFO workflow [zzz999]: stage started", "abc123", false},
		{"anything", "", true},
	}
	for _, tc := range cases {
		if got := logs.Match(tc.line, tc.jobID); got != tc.want {
			t.Fatalf("Match(%q, %q) = %v, want %v", tc.line, tc.jobID, got, tc.want)
		}
	}
}
