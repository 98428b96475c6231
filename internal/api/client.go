package api

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// ErrStreamTimeout is returned when the daemon closes a progress stream
// because the job went idle.
var ErrStreamTimeout = errors.New("progress stream timed out")

// StatusError reports a non-2xx API response.
type StatusError struct {
	StatusCode int
	Message    string
}

func (e *StatusError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("api returned status %d", e.StatusCode)
	}
	return fmt.Sprintf("api returned status %d: %s", e.StatusCode, e.Message)
}

// Client talks to the daemon's HTTP API.
type Client struct {
	base   *url.URL
	http   *http.Client
	stream *http.Client
}

// NewClient builds a client for the API listening on bind, which may be a
// bare host:port or a full URL.
func NewClient(bind string) (*Client, error) {
	bind = strings.TrimSpace(bind)
	if bind == "" {
		return nil, errors.New("api bind address is empty")
	}
	if !strings.Contains(bind, "://") {
		bind = "http://" + bind
	}
	base, err := url.Parse(bind)
	if err != nil {
		return nil, err
	}
	base.Path = ""
	base.RawQuery = ""
	base.Fragment = ""
	return &Client{
		base:   base,
		http:   &http.Client{Timeout: 60 * time.Second},
		stream: &http.Client{},
	}, nil
}

// BaseURL returns the resolved API root.
func (c *Client) BaseURL() string {
	return c.base.String()
}

// Health checks that the daemon answers.
func (c *Client) Health(ctx context.Context) (HealthResponse, error) {
	var resp HealthResponse
	err := c.doJSON(ctx, http.MethodGet, "/api/health", nil, &resp)
	return resp, err
}

// Status fetches daemon status.
func (c *Client) Status(ctx context.Context) (DaemonStatus, error) {
	var resp DaemonStatus
	err := c.doJSON(ctx, http.MethodGet, "/api/status", nil, &resp)
	return resp, err
}

// Languages lists supported translation targets.
func (c *Client) Languages(ctx context.Context) ([]Language, error) {
	var resp []Language
	err := c.doJSON(ctx, http.MethodGet, "/api/languages", nil, &resp)
	return resp, err
}

// Analyze fetches metadata and tier quotes for a source.
func (c *Client) Analyze(ctx context.Context, sourceURL string) (AnalyzeResponse, error) {
	var resp AnalyzeResponse
	err := c.doJSON(ctx, http.MethodPost, "/api/videos/analyze", AnalyzeRequest{URL: sourceURL}, &resp)
	return resp, err
}

// Submit creates a job.
func (c *Client) Submit(ctx context.Context, req SubmitRequest) (JobResponse, error) {
	var resp JobResponse
	err := c.doJSON(ctx, http.MethodPost, "/api/jobs", req, &resp)
	return resp, err
}

// Job fetches a job snapshot.
func (c *Client) Job(ctx context.Context, id string) (JobResponse, error) {
	var resp JobResponse
	err := c.doJSON(ctx, http.MethodGet, "/api/jobs/"+url.PathEscape(id), nil, &resp)
	return resp, err
}

// Watch follows a job's progress stream, invoking fn for every progress
// event. It returns nil after the terminal event and ErrStreamTimeout when
// the daemon reports an idle stream.
func (c *Client) Watch(ctx context.Context, id string, fn func(ProgressEvent) error) error {
	req, err := c.newRequest(ctx, http.MethodGet, "/api/jobs/"+url.PathEscape(id)+"/stream", nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "text/event-stream")
	resp, err := c.stream.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if err := checkStatus(resp); err != nil {
		return err
	}
	return readEvents(resp.Body, func(name string, data []byte) (bool, error) {
		switch name {
		case "timeout":
			return true, ErrStreamTimeout
		case "progress", "":
			var event ProgressEvent
			if err := json.Unmarshal(data, &event); err != nil {
				return true, fmt.Errorf("decode progress event: %w", err)
			}
			if err := fn(event); err != nil {
				return true, err
			}
			return event.Terminal(), nil
		default:
			return false, nil
		}
	})
}

// DownloadAudio copies a finished audiobook into w and returns the byte count.
func (c *Client) DownloadAudio(ctx context.Context, id string, w io.Writer) (int64, error) {
	req, err := c.newRequest(ctx, http.MethodGet, "/api/jobs/"+url.PathEscape(id)+"/audio", nil)
	if err != nil {
		return 0, err
	}
	resp, err := c.stream.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()
	if err := checkStatus(resp); err != nil {
		return 0, err
	}
	return io.Copy(w, resp.Body)
}

func (c *Client) newRequest(ctx context.Context, method, path string, body any) (*http.Request, error) {
	endpoint := c.base.ResolveReference(&url.URL{Path: path})
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return nil, err
		}
		reader = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, endpoint.String(), reader)
	if err != nil {
		return nil, err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return req, nil
}

func (c *Client) doJSON(ctx context.Context, method, path string, body, out any) error {
	req, err := c.newRequest(ctx, method, path, body)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if err := checkStatus(resp); err != nil {
		return err
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s response: %w", path, err)
	}
	return nil
}

func checkStatus(resp *http.Response) error {
	if resp.StatusCode < 400 {
		return nil
	}
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	var payload ErrorResponse
	message := strings.TrimSpace(string(raw))
	if json.Unmarshal(raw, &payload) == nil && payload.Error != "" {
		message = payload.Error
	}
	return &StatusError{StatusCode: resp.StatusCode, Message: message}
}

// readEvents parses a text/event-stream body and dispatches each complete
// event. dispatch returns done=true to stop reading.
func readEvents(r io.Reader, dispatch func(name string, data []byte) (bool, error)) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64<<10), 1<<20)
	var (
		name string
		data bytes.Buffer
	)
	for scanner.Scan() {
		line := scanner.Text()
		if line == "" {
			if data.Len() == 0 && name == "" {
				continue
			}
			done, err := dispatch(name, bytes.TrimSuffix(data.Bytes(), []byte("\n")))
			if err != nil || done {
				return err
			}
			name = ""
			data.Reset()
			continue
		}
		if strings.HasPrefix(line, ":") {
			continue
		}
		field, value, _ := strings.Cut(line, ":")
		value = strings.TrimPrefix(value, " ")
		switch field {
		case "event":
			name = value
		case "data":
			data.WriteString(value)
			data.WriteByte('\n')
		}
	}
	if err := scanner.Err(); err != nil {
		return err
	}
	return io.ErrUnexpectedEOF
}

// IsUnavailable reports whether err means the daemon is not listening.
func IsUnavailable(err error) bool {
	if err == nil {
		return false
	}
	var urlErr *url.Error
	if errors.As(err, &urlErr) && urlErr.Err != nil {
		err = urlErr.Err
	}
	var opErr *net.OpError
	return errors.As(err, &opErr)
}
