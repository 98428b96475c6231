package notifications

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"narrator/internal/config"
)

const userAgent = "Narrator-Go/0.1.0"

// Event identifies the notification being published.
type Event string

const (
	EventJobCompleted Event = "job_completed"
	EventJobFailed    Event = "job_failed"
	EventTest         Event = "test"
)

// Payload carries event fields. Known keys: jobID, title, targetLanguage,
// artifactPath, error, durationSeconds.
type Payload map[string]any

func (p Payload) string(key string) string {
	if p == nil {
		return ""
	}
	switch v := p[key].(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(v)
	case error:
		return strings.TrimSpace(v.Error())
	case fmt.Stringer:
		return strings.TrimSpace(v.String())
	default:
		return strings.TrimSpace(fmt.Sprint(v))
	}
}

// Service defines the notification surface exposed to workflow components.
type Service interface {
	Publish(ctx context.Context, event Event, payload Payload) error
}

// NewService builds the configured notifiers. When neither ntfy nor AMQP is
// configured, a noop implementation is returned.
func NewService(cfg *config.Config) Service {
	if cfg == nil {
		return noopService{}
	}
	var services []Service
	if topic := strings.TrimSpace(cfg.Notifications.NtfyTopic); topic != "" {
		timeout := time.Duration(cfg.Notifications.RequestTimeout) * time.Second
		if timeout <= 0 {
			timeout = 10 * time.Second
		}
		services = append(services, &ntfyService{
			endpoint: topic,
			client:   &http.Client{Timeout: timeout},
		})
	}
	if url := strings.TrimSpace(cfg.Notifications.AMQPURL); url != "" {
		services = append(services, newAMQPService(url, cfg.Notifications.AMQPExchange, cfg.Notifications.AMQPRoutingKey, dialAMQP))
	}
	switch len(services) {
	case 0:
		return noopService{}
	case 1:
		return services[0]
	default:
		return multiService(services)
	}
}

// Close releases connections held by svc, if any.
func Close(svc Service) error {
	if closer, ok := svc.(io.Closer); ok {
		return closer.Close()
	}
	return nil
}

type payload struct {
	title    string
	message  string
	tags     []string
	priority string
}

type ntfyService struct {
	endpoint string
	client   *http.Client
}

func (n *ntfyService) Publish(ctx context.Context, event Event, data Payload) error {
	msg, ok := formatNtfy(event, data)
	if !ok {
		return nil
	}
	return n.send(ctx, msg)
}

func formatNtfy(event Event, data Payload) (payload, bool) {
	switch event {
	case EventJobCompleted:
		title := data.string("title")
		if title == "" {
			title = data.string("jobID")
		}
		message := fmt.Sprintf("🎧 Audiobook ready: %s", title)
		if lang := data.string("targetLanguage"); lang != "" {
			message = fmt.Sprintf("%s (%s)", message, lang)
		}
		return payload{
			title:    "Narrator - Audiobook Ready",
			message:  message,
			tags:     []string{"narrator", "job", "completed"},
			priority: "high",
		}, true
	case EventJobFailed:
		var builder strings.Builder
		builder.WriteString("❌ Job")
		if id := data.string("jobID"); id != "" {
			builder.WriteString(" ")
			builder.WriteString(id)
		}
		builder.WriteString(" failed: ")
		if reason := data.string("error"); reason != "" {
			builder.WriteString(reason)
		} else {
			builder.WriteString("unknown")
		}
		return payload{
			title:    "Narrator - Job Failed",
			message:  builder.String(),
			tags:     []string{"narrator", "error", "alert"},
			priority: "high",
		}, true
	case EventTest:
		return payload{
			title:    "Narrator - Test",
			message:  "🧪 Notification system test",
			tags:     []string{"narrator", "test"},
			priority: "low",
		}, true
	default:
		return payload{}, false
	}
}

func (n *ntfyService) send(ctx context.Context, data payload) error {
	if n == nil || n.client == nil {
		return nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.endpoint, strings.NewReader(data.message))
	if err != nil {
		return fmt.Errorf("build ntfy request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Content-Type", "text/plain; charset=utf-8")
	if data.title != "" {
		req.Header.Set("Title", data.title)
	}
	if len(data.tags) > 0 {
		req.Header.Set("Tags", strings.Join(data.tags, ","))
	}
	if data.priority != "" && data.priority != "default" {
		req.Header.Set("Priority", data.priority)
	}

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("send ntfy notification: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return fmt.Errorf("ntfy returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

// multiService fans an event out to every configured notifier.
type multiService []Service

func (m multiService) Publish(ctx context.Context, event Event, data Payload) error {
	var errs []error
	for _, svc := range m {
		if err := svc.Publish(ctx, event, data); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (m multiService) Close() error {
	var errs []error
	for _, svc := range m {
		if err := Close(svc); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

type noopService struct{}

func (noopService) Publish(context.Context, Event, Payload) error { return nil }
