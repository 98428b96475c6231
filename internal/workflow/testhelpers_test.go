package workflow_test

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"narrator/internal/config"
	"narrator/internal/jobs"
	"narrator/internal/media"
	"narrator/internal/notifications"
	"narrator/internal/testsupport"
	"narrator/internal/workflow"
)

type fakeMedia struct {
	mu          sync.Mutex
	info        media.Info
	metaErr     error
	downloadErr error
	maxSeconds  []int
}

func (f *fakeMedia) Metadata(context.Context, string) (media.Info, error) {
	if f.metaErr != nil {
		return media.Info{}, f.metaErr
	}
	return f.info, nil
}

func (f *fakeMedia) DownloadAudio(_ context.Context, _ string, destDir string, maxSeconds int) (string, error) {
	f.mu.Lock()
	f.maxSeconds = append(f.maxSeconds, maxSeconds)
	f.mu.Unlock()
	if f.downloadErr != nil {
		return "", f.downloadErr
	}
	path := filepath.Join(destDir, "source_audio.mp3")
	if err := os.WriteFile(path, []byte("audio"), 0o644); err != nil {
		return "", err
	}
	return path, nil
}

type fakeTranscriber struct {
	text  string
	err   error
	calls int
}

func (f *fakeTranscriber) Transcribe(context.Context, string, int) (string, error) {
	f.calls++
	return f.text, f.err
}

type memoryCache struct {
	entries map[string]string
	stores  int
}

func cacheKey(ref string, maxSeconds int) string {
	return fmt.Sprintf("%s|%d", ref, maxSeconds)
}

func (c *memoryCache) Lookup(_ context.Context, ref string, maxSeconds int) (string, bool, error) {
	text, ok := c.entries[cacheKey(ref, maxSeconds)]
	return text, ok, nil
}

func (c *memoryCache) Store(_ context.Context, ref string, maxSeconds int, text string) error {
	if c.entries == nil {
		c.entries = make(map[string]string)
	}
	c.entries[cacheKey(ref, maxSeconds)] = text
	c.stores++
	return nil
}

type fakeSampler struct {
	err error
}

func (f *fakeSampler) Extract(_ context.Context, _ string, destDir string) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	return filepath.Join(destDir, "voice_sample.wav"), nil
}

type fakeCloner struct {
	mu       sync.Mutex
	id       string
	cloneErr error
	names    []string
	deleted  []string
}

func (f *fakeCloner) Clone(_ context.Context, _ string, name string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.names = append(f.names, name)
	if f.cloneErr != nil {
		return "", f.cloneErr
	}
	return f.id, nil
}

func (f *fakeCloner) Delete(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleted = append(f.deleted, id)
	return errors.New("provider unavailable")
}

type translateCall struct {
	text, language, hint string
}

type fakeTranslator struct {
	calls  []translateCall
	failAt int
	err    error
}

func (f *fakeTranslator) Translate(_ context.Context, text, language, hint string) (string, error) {
	f.calls = append(f.calls, translateCall{text: text, language: language, hint: hint})
	if f.err != nil && len(f.calls) == f.failAt {
		return "", f.err
	}
	return "ES:" + text, nil
}

type synthCall struct {
	text, voice string
	prior       []string
}

type fakeSynth struct {
	calls    []synthCall
	failures int
	err      error
}

func (f *fakeSynth) Synthesize(_ context.Context, text, voiceID string, prior []string) ([]byte, string, error) {
	f.calls = append(f.calls, synthCall{text: text, voice: voiceID, prior: append([]string(nil), prior...)})
	if f.failures > 0 {
		f.failures--
		return nil, "", f.err
	}
	return []byte("mp3:" + text), fmt.Sprintf("req-%d", len(f.calls)), nil
}

type fakeConcat struct {
	chunks []string
	err    error
}

func (f *fakeConcat) Concat(_ context.Context, chunks []string, output string) error {
	f.chunks = append([]string(nil), chunks...)
	if f.err != nil {
		return f.err
	}
	var b strings.Builder
	for _, chunk := range chunks {
		data, err := os.ReadFile(chunk)
		if err != nil {
			return err
		}
		b.Write(data)
	}
	return os.WriteFile(output, []byte(b.String()), 0o644)
}

type recordingNotifier struct {
	mu     sync.Mutex
	events []notifications.Event
}

func (r *recordingNotifier) Publish(_ context.Context, event notifications.Event, _ notifications.Payload) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
	return nil
}

type harness struct {
	cfg         *config.Config
	store       *jobs.Store
	media       *fakeMedia
	transcriber *fakeTranscriber
	cache       *memoryCache
	transcripts workflow.TranscriptCache
	sampler     *fakeSampler
	cloner      *fakeCloner
	translator  *fakeTranslator
	synth       *fakeSynth
	concat      *fakeConcat
	notifier    *recordingNotifier
	sleeps      []time.Duration
	manager     *workflow.Manager
}

func newHarness(t *testing.T, opts ...testsupport.ConfigOption) *harness {
	t.Helper()
	cfg := testsupport.NewConfig(t, opts...)
	h := &harness{
		cfg:         cfg,
		store:       jobs.NewStore(nil),
		media:       &fakeMedia{info: media.Info{Title: "How Bridges Work", Channel: "Engineering", DurationSeconds: 600}},
		transcriber: &fakeTranscriber{text: "First paragraph one. Sentence two.\n\nSecond paragraph here. Another one."},
		cache:       &memoryCache{},
		sampler:     &fakeSampler{},
		cloner:      &fakeCloner{id: "cloned-voice"},
		translator:  &fakeTranslator{},
		synth:       &fakeSynth{},
		concat:      &fakeConcat{},
		notifier:    &recordingNotifier{},
	}
	return h
}

func (h *harness) build() *workflow.Manager {
	var cache workflow.TranscriptCache = h.cache
	if h.transcripts != nil {
		cache = h.transcripts
	}
	h.manager = workflow.NewManager(h.cfg, h.store, workflow.Dependencies{
		Media:        h.media,
		Transcriber:  h.transcriber,
		Cache:        cache,
		Sampler:      h.sampler,
		Cloner:       h.cloner,
		Translator:   h.translator,
		Synthesizer:  h.synth,
		Concatenator: h.concat,
		Notifier:     h.notifier,
	}, nil, workflow.WithSleeper(func(_ context.Context, d time.Duration) error {
		h.sleeps = append(h.sleeps, d)
		return nil
	}))
	return h.manager
}

func (h *harness) submit(t *testing.T, tier jobs.Tier) string {
	t.Helper()
	return h.store.Create(jobs.NewJob{SourceRef: "https://www.youtube.com/watch?v=abc", Tier: tier, TargetLanguage: "es"})
}

// runAndCollect runs the pipeline synchronously and returns every event
// observed by a subscriber registered before the run.
func (h *harness) runAndCollect(t *testing.T, jobID string) []jobs.Event {
	t.Helper()
	if h.manager == nil {
		h.build()
	}
	sub, err := h.store.Subscribe(jobID)
	if err != nil {
		t.Fatalf("Subscribe: %v", err)
	}
	h.manager.Run(context.Background(), jobID)

	var events []jobs.Event
	timeout := time.After(2 * time.Second)
	for {
		select {
		case ev, ok := <-sub.Events():
			if !ok {
				return events
			}
			events = append(events, ev)
		case <-timeout:
			t.Fatalf("subscription did not close after run; %d events", len(events))
		}
	}
}
