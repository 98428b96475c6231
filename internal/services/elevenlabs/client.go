package elevenlabs

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"narrator/internal/services"
)

const (
	defaultBaseURL      = "https://api.elevenlabs.io/v1"
	defaultModelID      = "eleven_multilingual_v2"
	defaultOutputFormat = "mp3_44100_128"
	defaultTimeout      = 120 * time.Second
	cloneDescription    = "Auto-cloned for audiobook"
	requestIDHeader     = "request-id"
	maxErrorBody        = 512
)

// Config captures ElevenLabs connection and voice settings.
type Config struct {
	APIKey          string
	BaseURL         string
	ModelID         string
	OutputFormat    string
	Stability       float64
	SimilarityBoost float64
	TimeoutSeconds  int
}

// Client implements voice cloning and speech synthesis.
type Client struct {
	cfg        Config
	httpClient *http.Client
}

// Option customizes the client.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// NewClient constructs a client for the supplied configuration.
func NewClient(cfg Config, opts ...Option) *Client {
	cfg.APIKey = strings.TrimSpace(cfg.APIKey)
	cfg.BaseURL = strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultBaseURL
	}
	if strings.TrimSpace(cfg.ModelID) == "" {
		cfg.ModelID = defaultModelID
	}
	if strings.TrimSpace(cfg.OutputFormat) == "" {
		cfg.OutputFormat = defaultOutputFormat
	}
	timeout := defaultTimeout
	if cfg.TimeoutSeconds > 0 {
		timeout = time.Duration(cfg.TimeoutSeconds) * time.Second
	}
	client := &Client{cfg: cfg, httpClient: &http.Client{Timeout: timeout}}
	for _, opt := range opts {
		opt(client)
	}
	return client
}

// Clone creates an instant voice clone from the sample at samplePath.
func (c *Client) Clone(ctx context.Context, samplePath, name string) (string, error) {
	if err := c.requireKey("cloning_voice", "clone voice"); err != nil {
		return "", err
	}
	sample, err := os.Open(samplePath)
	if err != nil {
		return "", services.Wrap(services.ErrPipeline, "cloning_voice", "open sample", samplePath, err)
	}
	defer sample.Close()

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	if err := writer.WriteField("name", name); err != nil {
		return "", fmt.Errorf("clone voice: write name: %w", err)
	}
	if err := writer.WriteField("description", cloneDescription); err != nil {
		return "", fmt.Errorf("clone voice: write description: %w", err)
	}
	part, err := writer.CreateFormFile("files", filepath.Base(samplePath))
	if err != nil {
		return "", fmt.Errorf("clone voice: create file part: %w", err)
	}
	if _, err := io.Copy(part, sample); err != nil {
		return "", fmt.Errorf("clone voice: copy sample: %w", err)
	}
	if err := writer.Close(); err != nil {
		return "", fmt.Errorf("clone voice: close form: %w", err)
	}

	req, err := c.newRequest(ctx, http.MethodPost, "/voices/add", &body)
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", services.Wrap(services.ErrExternalService, "cloning_voice", "clone voice", "request failed", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", statusError("cloning_voice", "Voice cloning failed", resp)
	}
	var payload struct {
		VoiceID string `json:"voice_id"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return "", services.Wrap(services.ErrExternalService, "cloning_voice", "clone voice", "decode response", err)
	}
	voiceID := strings.TrimSpace(payload.VoiceID)
	if voiceID == "" {
		return "", services.Wrap(services.ErrExternalService, "cloning_voice", "clone voice", "response missing voice_id", nil)
	}
	return voiceID, nil
}

// Delete removes a previously cloned voice.
func (c *Client) Delete(ctx context.Context, voiceID string) error {
	if err := c.requireKey("cleanup", "delete voice"); err != nil {
		return err
	}
	req, err := c.newRequest(ctx, http.MethodDelete, "/voices/"+url.PathEscape(voiceID), nil)
	if err != nil {
		return err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return services.Wrap(services.ErrExternalService, "cleanup", "delete voice", voiceID, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= http.StatusMultipleChoices {
		return statusError("cleanup", "delete voice "+voiceID, resp)
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

type ttsRequest struct {
	Text               string        `json:"text"`
	ModelID            string        `json:"model_id"`
	VoiceSettings      voiceSettings `json:"voice_settings"`
	PreviousRequestIDs []string      `json:"previous_request_ids,omitempty"`
}

type voiceSettings struct {
	Stability       float64 `json:"stability"`
	SimilarityBoost float64 `json:"similarity_boost"`
}

// Synthesize renders text with voiceID and returns the audio bytes and the
// provider's request id. previousRequestIDs stitches prosody to earlier chunks.
func (c *Client) Synthesize(ctx context.Context, text, voiceID string, previousRequestIDs []string) ([]byte, string, error) {
	if err := c.requireKey("synthesizing", "text to speech"); err != nil {
		return nil, "", err
	}
	if strings.TrimSpace(voiceID) == "" {
		return nil, "", services.Wrap(services.ErrValidation, "synthesizing", "text to speech", "voice id required", nil)
	}
	encoded, err := json.Marshal(ttsRequest{
		Text:    text,
		ModelID: c.cfg.ModelID,
		VoiceSettings: voiceSettings{
			Stability:       c.cfg.Stability,
			SimilarityBoost: c.cfg.SimilarityBoost,
		},
		PreviousRequestIDs: previousRequestIDs,
	})
	if err != nil {
		return nil, "", fmt.Errorf("text to speech: encode body: %w", err)
	}
	path := "/text-to-speech/" + url.PathEscape(voiceID) + "?" + url.Values{"output_format": {c.cfg.OutputFormat}}.Encode()
	req, err := c.newRequest(ctx, http.MethodPost, path, bytes.NewReader(encoded))
	if err != nil {
		return nil, "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "audio/mpeg")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, "", services.Wrap(services.ErrExternalService, "synthesizing", "text to speech", "request failed", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, "", statusError("synthesizing", "ElevenLabs TTS failed", resp)
	}
	audio, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, "", services.Wrap(services.ErrExternalService, "synthesizing", "text to speech", "read audio", err)
	}
	if len(audio) == 0 {
		return nil, "", services.Wrap(services.ErrExternalService, "synthesizing", "text to speech", "empty audio response", nil)
	}
	return audio, strings.TrimSpace(resp.Header.Get(requestIDHeader)), nil
}

// HealthCheck verifies the API key against the user endpoint.
func (c *Client) HealthCheck(ctx context.Context) error {
	if err := c.requireKey("", "health"); err != nil {
		return err
	}
	req, err := c.newRequest(ctx, http.MethodGet, "/user", nil)
	if err != nil {
		return err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("elevenlabs health: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return statusError("", "health", resp)
	}
	return nil
}

func (c *Client) requireKey(stage, operation string) error {
	if c.cfg.APIKey == "" {
		return services.Wrap(services.ErrConfiguration, stage, operation, "elevenlabs api key required", nil)
	}
	return nil
}

func (c *Client) newRequest(ctx context.Context, method, path string, body io.Reader) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.cfg.BaseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("elevenlabs: new request: %w", err)
	}
	req.Header.Set("xi-api-key", c.cfg.APIKey)
	return req, nil
}

func statusError(stage, message string, resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	detail := fmt.Sprintf("%s: returned %d: %s", message, resp.StatusCode, strings.TrimSpace(string(body)))
	marker := services.ErrExternalService
	if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= http.StatusInternalServerError {
		marker = services.ErrTransient
	}
	return services.Wrap(marker, stage, "", detail, nil)
}
