package elevenlabs

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"narrator/internal/services"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return NewClient(Config{
		APIKey:          "secret",
		BaseURL:         server.URL,
		Stability:       0.5,
		SimilarityBoost: 0.75,
	})
}

func TestCloneUploadsSample(t *testing.T) {
	sample := filepath.Join(t.TempDir(), "voice_sample.wav")
	if err := os.WriteFile(sample, []byte("RIFFdata"), 0o644); err != nil {
		t.Fatalf("write sample: %v", err)
	}
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/voices/add" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		if r.Header.Get("xi-api-key") != "secret" {
			t.Errorf("missing api key header")
		}
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Errorf("parse form: %v", err)
			return
		}
		if got := r.FormValue("name"); got != "narrator-abc" {
			t.Errorf("unexpected name %q", got)
		}
		file, header, err := r.FormFile("files")
		if err != nil {
			t.Errorf("form file: %v", err)
			return
		}
		defer file.Close()
		data, _ := io.ReadAll(file)
		if header.Filename != "voice_sample.wav" || string(data) != "RIFFdata" {
			t.Errorf("unexpected upload %s %q", header.Filename, data)
		}
		_ = json.NewEncoder(w).Encode(map[string]string{"voice_id": "v-123"})
	})

	id, err := client.Clone(context.Background(), sample, "narrator-abc")
	if err != nil {
		t.Fatalf("Clone returned error: %v", err)
	}
	if id != "v-123" {
		t.Fatalf("expected v-123, got %q", id)
	}
}

func TestCloneReportsProviderError(t *testing.T) {
	sample := filepath.Join(t.TempDir(), "voice_sample.wav")
	if err := os.WriteFile(sample, []byte("RIFF"), 0o644); err != nil {
		t.Fatalf("write sample: %v", err)
	}
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		_, _ = w.Write([]byte("sample too short"))
	})

	_, err := client.Clone(context.Background(), sample, "narrator-abc")
	if err == nil {
		t.Fatal("expected error")
	}
	if !errors.Is(err, services.ErrExternalService) {
		t.Fatalf("expected external service marker, got %v", err)
	}
	if !strings.Contains(err.Error(), "returned 422: sample too short") {
		t.Fatalf("unexpected error text %v", err)
	}
}

func TestCloneRequiresAPIKey(t *testing.T) {
	client := NewClient(Config{})
	_, err := client.Clone(context.Background(), "missing.wav", "x")
	if !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("expected configuration error, got %v", err)
	}
}

func TestDeleteVoice(t *testing.T) {
	var calls int
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls++
		if r.Method != http.MethodDelete || r.URL.Path != "/voices/v-123" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		w.WriteHeader(http.StatusOK)
	})
	if err := client.Delete(context.Background(), "v-123"); err != nil {
		t.Fatalf("Delete returned error: %v", err)
	}
	if calls != 1 {
		t.Fatalf("expected 1 call, got %d", calls)
	}
}

func TestDeleteVoiceFailure(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})
	if err := client.Delete(context.Background(), "v-404"); err == nil {
		t.Fatal("expected error")
	}
}

func TestSynthesizeSendsStitchingIDs(t *testing.T) {
	var got ttsRequest
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/text-to-speech/v-1" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if r.URL.Query().Get("output_format") != "mp3_44100_128" {
			t.Errorf("unexpected output format %q", r.URL.Query().Get("output_format"))
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode body: %v", err)
		}
		w.Header().Set("request-id", "req-9")
		_, _ = w.Write([]byte("ID3audio"))
	})

	audio, requestID, err := client.Synthesize(context.Background(), "Hola.", "v-1", []string{"req-7", "req-8"})
	if err != nil {
		t.Fatalf("Synthesize returned error: %v", err)
	}
	if string(audio) != "ID3audio" || requestID != "req-9" {
		t.Fatalf("unexpected result %q %q", audio, requestID)
	}
	if got.Text != "Hola." || got.ModelID != "eleven_multilingual_v2" {
		t.Fatalf("unexpected request %+v", got)
	}
	if got.VoiceSettings.Stability != 0.5 || got.VoiceSettings.SimilarityBoost != 0.75 {
		t.Fatalf("unexpected voice settings %+v", got.VoiceSettings)
	}
	if len(got.PreviousRequestIDs) != 2 || got.PreviousRequestIDs[1] != "req-8" {
		t.Fatalf("unexpected previous ids %v", got.PreviousRequestIDs)
	}
}

func TestSynthesizeOmitsEmptyPreviousIDs(t *testing.T) {
	var raw map[string]any
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewDecoder(r.Body).Decode(&raw)
		_, _ = w.Write([]byte("audio"))
	})
	if _, _, err := client.Synthesize(context.Background(), "Hi.", "v-1", nil); err != nil {
		t.Fatalf("Synthesize returned error: %v", err)
	}
	if _, ok := raw["previous_request_ids"]; ok {
		t.Fatalf("expected previous_request_ids to be omitted, got %v", raw)
	}
}

func TestSynthesizeServerErrorIsTransient(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	})
	_, _, err := client.Synthesize(context.Background(), "Hi.", "v-1", nil)
	if !errors.Is(err, services.ErrTransient) {
		t.Fatalf("expected transient error, got %v", err)
	}
}
