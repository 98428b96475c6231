package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"narrator/internal/api"
	"narrator/internal/config"
	"narrator/internal/testsupport"
)

type cliTestEnv struct {
	cfg        *config.Config
	configPath string
	baseDir    string
	api        *fakeAPI
}

// fakeAPI answers the daemon's HTTP routes from canned state so CLI tests do
// not need a running pipeline.
type fakeAPI struct {
	server *httptest.Server

	mu        sync.Mutex
	submitted []api.SubmitRequest
	jobs      map[string]api.JobResponse
	events    map[string][]api.ProgressEvent
	audio     map[string][]byte
}

func newFakeAPI(t *testing.T) *fakeAPI {
	t.Helper()
	f := &fakeAPI{
		jobs:   make(map[string]api.JobResponse),
		events: make(map[string][]api.ProgressEvent),
		audio:  make(map[string][]byte),
	}
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/health", func(w http.ResponseWriter, r *http.Request) {
		writeTestJSON(w, http.StatusOK, api.HealthResponse{Status: "ok"})
	})
	mux.HandleFunc("GET /api/status", func(w http.ResponseWriter, r *http.Request) {
		writeTestJSON(w, http.StatusOK, api.DaemonStatus{
			Running: true,
			PID:     4242,
			Bind:    "127.0.0.1:8400",
			Workflow: api.WorkflowStatus{
				ActiveRuns: []api.RunInfo{{JobID: "job-active", StartedAt: "2026-01-02T03:04:05.000Z"}},
				JobCounts:  map[string]int{"pending": 0, "translating": 1, "completed": 3},
			},
			Dependencies: []api.DependencyStatus{
				{Name: "yt-dlp", Command: "yt-dlp", Available: true},
				{Name: "FFmpeg", Command: "ffmpeg", Available: false, Detail: "binary \"ffmpeg\" not found"},
			},
		})
	})
	mux.HandleFunc("POST /api/videos/analyze", func(w http.ResponseWriter, r *http.Request) {
		writeTestJSON(w, http.StatusOK, api.AnalyzeResponse{
			Video: api.VideoInfo{Title: "Lecture", Channel: "Campus", DurationSeconds: 600},
			Tiers: []api.TierCost{
				{Tier: "short", DurationMinutes: 1, TotalCost: 0.25},
				{Tier: "full", DurationMinutes: 10, TotalCost: 2.5},
			},
		})
	})
	mux.HandleFunc("POST /api/jobs", func(w http.ResponseWriter, r *http.Request) {
		var req api.SubmitRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeTestJSON(w, http.StatusUnprocessableEntity, api.ErrorResponse{Error: "invalid request body"})
			return
		}
		if req.TargetLanguage == "xx" {
			writeTestJSON(w, http.StatusUnprocessableEntity, api.ErrorResponse{Error: "Unsupported language: xx", Field: "target_language"})
			return
		}
		f.mu.Lock()
		f.submitted = append(f.submitted, req)
		id := fmt.Sprintf("job-%d", len(f.submitted))
		job := api.JobResponse{JobID: id, Status: "pending", CurrentStage: "Waiting", Tier: req.Tier, TargetLanguage: req.TargetLanguage}
		f.jobs[id] = job
		f.mu.Unlock()
		writeTestJSON(w, http.StatusCreated, job)
	})
	mux.HandleFunc("GET /api/jobs/{id}", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		job, ok := f.jobs[r.PathValue("id")]
		f.mu.Unlock()
		if !ok {
			writeTestJSON(w, http.StatusNotFound, api.ErrorResponse{Error: "Job not found"})
			return
		}
		writeTestJSON(w, http.StatusOK, job)
	})
	mux.HandleFunc("GET /api/jobs/{id}/stream", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		events, ok := f.events[r.PathValue("id")]
		f.mu.Unlock()
		if !ok {
			writeTestJSON(w, http.StatusNotFound, api.ErrorResponse{Error: "Job not found"})
			return
		}
		w.Header().Set("Content-Type", "text/event-stream")
		for _, event := range events {
			payload, _ := json.Marshal(event)
			fmt.Fprintf(w, "event: progress\ndata: %s\n\n", payload)
		}
	})
	mux.HandleFunc("GET /api/jobs/{id}/audio", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		data, ok := f.audio[r.PathValue("id")]
		f.mu.Unlock()
		if !ok {
			writeTestJSON(w, http.StatusNotFound, api.ErrorResponse{Error: "Audio not ready"})
			return
		}
		w.Header().Set("Content-Type", "audio/mpeg")
		_, _ = w.Write(data)
	})
	f.server = httptest.NewServer(mux)
	t.Cleanup(f.server.Close)
	return f
}

func (f *fakeAPI) address() string {
	return f.server.Listener.Addr().String()
}

func (f *fakeAPI) setJob(job api.JobResponse, events ...api.ProgressEvent) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.jobs[job.JobID] = job
	if len(events) > 0 {
		f.events[job.JobID] = events
	}
}

func (f *fakeAPI) setAudio(id string, data []byte) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.audio[id] = data
}

func (f *fakeAPI) submissions() []api.SubmitRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]api.SubmitRequest(nil), f.submitted...)
}

func writeTestJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func setupCLITestEnv(t *testing.T) *cliTestEnv {
	t.Helper()

	cfg := testsupport.NewConfig(t, testsupport.WithStubbedBinaries())
	base := testsupport.BaseDir(cfg)
	homeDir := filepath.Join(base, "home")
	if err := os.MkdirAll(homeDir, 0o755); err != nil {
		t.Fatalf("mkdir home: %v", err)
	}
	t.Setenv("HOME", homeDir)

	configPath := filepath.Join(base, "narrator.toml")
	writeTestConfig(t, configPath, cfg)

	return &cliTestEnv{
		cfg:        cfg,
		configPath: configPath,
		baseDir:    base,
		api:        newFakeAPI(t),
	}
}

// writeTestConfig persists the paths from cfg and points api.bind at a port
// nothing listens on, so commands only reach the fake API through --api.
func writeTestConfig(t *testing.T, path string, cfg *config.Config) {
	t.Helper()
	content := fmt.Sprintf(
		"[paths]\nwork_dir = %q\nlog_dir = %q\ncache_dir = %q\n\n[api]\nbind = %q\n",
		cfg.Paths.WorkDir,
		cfg.Paths.LogDir,
		cfg.Paths.CacheDir,
		"127.0.0.1:1",
	)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
}

func runCLI(t *testing.T, args []string, apiAddr, configPath string) (string, string, error) {
	t.Helper()
	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	var flags []string
	if apiAddr != "" {
		flags = append(flags, "--api", apiAddr)
	}
	if configPath != "" {
		flags = append(flags, "--config", configPath)
	}
	cmd.SetArgs(append(flags, args...))
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func requireContains(t *testing.T, output, substr string) {
	t.Helper()
	if !strings.Contains(output, substr) {
		t.Fatalf("expected %q to contain %q", output, substr)
	}
}
