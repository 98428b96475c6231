package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"narrator/internal/api"
)

func strPtr(s string) *string { return &s }

func TestSubmitCommand(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, []string{"submit", "https://example.com/watch?v=abc", "--language", "es", "--tier", "short"}, env.api.address(), env.configPath)
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	requireContains(t, out, "Job job-1 submitted")
	requireContains(t, out, "narrator watch job-1")

	subs := env.api.submissions()
	if len(subs) != 1 {
		t.Fatalf("expected one submission, got %d", len(subs))
	}
	if subs[0].URL != "https://example.com/watch?v=abc" || subs[0].Tier != "short" || subs[0].TargetLanguage != "es" {
		t.Fatalf("unexpected submission %+v", subs[0])
	}
}

func TestSubmitCommandDefaultsToFullTier(t *testing.T) {
	env := setupCLITestEnv(t)

	if _, _, err := runCLI(t, []string{"submit", "https://example.com/v", "-l", "fr"}, env.api.address(), env.configPath); err != nil {
		t.Fatalf("submit: %v", err)
	}
	if subs := env.api.submissions(); len(subs) != 1 || subs[0].Tier != "full" {
		t.Fatalf("expected full tier, got %+v", subs)
	}
}

func TestSubmitCommandRequiresLanguage(t *testing.T) {
	env := setupCLITestEnv(t)

	_, _, err := runCLI(t, []string{"submit", "https://example.com/v"}, env.api.address(), env.configPath)
	if err == nil || !strings.Contains(err.Error(), "language") {
		t.Fatalf("expected missing language error, got %v", err)
	}
	if subs := env.api.submissions(); len(subs) != 0 {
		t.Fatalf("expected no submission, got %+v", subs)
	}
}

func TestSubmitCommandSurfacesValidationMessage(t *testing.T) {
	env := setupCLITestEnv(t)

	_, _, err := runCLI(t, []string{"submit", "https://example.com/v", "--language", "xx"}, env.api.address(), env.configPath)
	if err == nil || err.Error() != "Unsupported language: xx" {
		t.Fatalf("expected daemon validation message, got %v", err)
	}
}

func TestDaemonUnreachable(t *testing.T) {
	env := setupCLITestEnv(t)

	_, _, err := runCLI(t, []string{"status"}, "", env.configPath)
	if err == nil {
		t.Fatal("expected error when daemon is down")
	}
	requireContains(t, err.Error(), "not reachable")
	requireContains(t, err.Error(), "narrator serve")
}

func TestStatusCommandDaemon(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, []string{"status"}, env.api.address(), env.configPath)
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	requireContains(t, out, "running (pid 4242)")
	requireContains(t, out, "binary \"ffmpeg\" not found")
	requireContains(t, out, "job-active")
	requireContains(t, out, "translating")
}

func TestStatusCommandJobJSON(t *testing.T) {
	env := setupCLITestEnv(t)
	env.api.setJob(api.JobResponse{JobID: "job-9", Status: "translating", ProgressPct: 60, CurrentStage: "Translating text"})

	out, _, err := runCLI(t, []string{"status", "job-9", "--json"}, env.api.address(), env.configPath)
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	var job api.JobResponse
	if err := json.Unmarshal([]byte(out), &job); err != nil {
		t.Fatalf("decode json: %v\n%s", err, out)
	}
	if job.JobID != "job-9" || job.ProgressPct != 60 {
		t.Fatalf("unexpected job %+v", job)
	}
}

func TestStatusCommandJobNotFound(t *testing.T) {
	env := setupCLITestEnv(t)

	_, _, err := runCLI(t, []string{"status", "missing"}, env.api.address(), env.configPath)
	if err == nil || err.Error() != "Job not found" {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestWatchCommandCompletes(t *testing.T) {
	env := setupCLITestEnv(t)
	env.api.setJob(api.JobResponse{JobID: "job-1", Status: "pending"},
		api.ProgressEvent{Status: "pending", ProgressPct: 0, CurrentStage: "Waiting"},
		api.ProgressEvent{Status: "translating", ProgressPct: 60, CurrentStage: "Translating text"},
		api.ProgressEvent{Status: "completed", ProgressPct: 100, CurrentStage: "Complete"},
	)

	out, _, err := runCLI(t, []string{"watch", "job-1"}, env.api.address(), env.configPath)
	if err != nil {
		t.Fatalf("watch: %v", err)
	}
	requireContains(t, out, "[ 60%] Translating text")
	requireContains(t, out, "[100%] Complete")
	requireContains(t, out, "narrator fetch job-1")
}

func TestWatchCommandFailedJob(t *testing.T) {
	env := setupCLITestEnv(t)
	env.api.setJob(api.JobResponse{JobID: "job-2", Status: "failed"},
		api.ProgressEvent{Status: "failed", ProgressPct: 30, CurrentStage: "Failed", Error: strPtr("download failed")},
	)

	out, _, err := runCLI(t, []string{"watch", "job-2"}, env.api.address(), env.configPath)
	if err == nil || !strings.Contains(err.Error(), "job job-2 failed: download failed") {
		t.Fatalf("expected failure error, got %v", err)
	}
	requireContains(t, out, "failed: download failed")
}

func TestFetchCommandWritesFile(t *testing.T) {
	env := setupCLITestEnv(t)
	payload := []byte("ID3-audio-bytes")
	env.api.setAudio("job-3", payload)

	target := filepath.Join(t.TempDir(), "nested", "book.mp3")
	out, _, err := runCLI(t, []string{"fetch", "job-3", "-o", target}, env.api.address(), env.configPath)
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	requireContains(t, out, "Saved "+target)

	got, err := os.ReadFile(target)
	if err != nil {
		t.Fatalf("read output: %v", err)
	}
	if !bytes.Equal(got, payload) {
		t.Fatalf("unexpected content %q", got)
	}
	leftovers, _ := filepath.Glob(filepath.Join(filepath.Dir(target), ".narrator-download-*"))
	if len(leftovers) != 0 {
		t.Fatalf("temp files left behind: %v", leftovers)
	}
}

func TestFetchCommandNotReady(t *testing.T) {
	env := setupCLITestEnv(t)

	target := filepath.Join(t.TempDir(), "book.mp3")
	_, _, err := runCLI(t, []string{"fetch", "job-4", "-o", target}, env.api.address(), env.configPath)
	if err == nil || err.Error() != "Audio not ready" {
		t.Fatalf("expected not ready error, got %v", err)
	}
	if _, statErr := os.Stat(target); !os.IsNotExist(statErr) {
		t.Fatalf("expected no output file, stat err=%v", statErr)
	}
}
