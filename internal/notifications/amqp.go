package notifications

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
)

const (
	defaultExchange   = "narrator.jobs"
	amqpExchangeKind  = "topic"
	amqpRoutingPrefix = "narrator.job."
)

// amqpChannel is the subset of *amqp.Channel used for publishing.
type amqpChannel interface {
	ExchangeDeclare(name, kind string, durable, autoDelete, internal, noWait bool, args amqp.Table) error
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	Close() error
}

type amqpDialer func(url string) (amqpChannel, func() error, error)

func dialAMQP(url string) (amqpChannel, func() error, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, nil, fmt.Errorf("dial amqp: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, nil, fmt.Errorf("open amqp channel: %w", err)
	}
	return ch, conn.Close, nil
}

// amqpService publishes job events as JSON messages to a topic exchange.
// The connection is opened lazily and re-dialed after a publish failure.
type amqpService struct {
	url        string
	exchange   string
	routingKey string
	dial       amqpDialer

	mu        sync.Mutex
	channel   amqpChannel
	closeConn func() error
}

func newAMQPService(url, exchange, routingKey string, dial amqpDialer) *amqpService {
	exchange = strings.TrimSpace(exchange)
	if exchange == "" {
		exchange = defaultExchange
	}
	return &amqpService{
		url:        url,
		exchange:   exchange,
		routingKey: strings.TrimSpace(routingKey),
		dial:       dial,
	}
}

type amqpMessage struct {
	Event          Event  `json:"event"`
	JobID          string `json:"job_id,omitempty"`
	Title          string `json:"title,omitempty"`
	TargetLanguage string `json:"target_language,omitempty"`
	ArtifactPath   string `json:"artifact_path,omitempty"`
	Error          string `json:"error,omitempty"`
	Timestamp      string `json:"timestamp"`
}

func (a *amqpService) Publish(ctx context.Context, event Event, data Payload) error {
	now := time.Now().UTC()
	body, err := json.Marshal(amqpMessage{
		Event:          event,
		JobID:          data.string("jobID"),
		Title:          data.string("title"),
		TargetLanguage: data.string("targetLanguage"),
		ArtifactPath:   data.string("artifactPath"),
		Error:          data.string("error"),
		Timestamp:      now.Format(time.RFC3339),
	})
	if err != nil {
		return fmt.Errorf("encode amqp message: %w", err)
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	ch, err := a.ensureChannelLocked()
	if err != nil {
		return err
	}
	msg := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    uuid.NewString(),
		Timestamp:    now,
		Type:         string(event),
		Body:         body,
	}
	if err := ch.PublishWithContext(ctx, a.exchange, a.routingKeyFor(event), false, false, msg); err != nil {
		a.resetLocked()
		return fmt.Errorf("publish amqp message: %w", err)
	}
	return nil
}

func (a *amqpService) routingKeyFor(event Event) string {
	if a.routingKey != "" {
		return a.routingKey
	}
	return amqpRoutingPrefix + string(event)
}

func (a *amqpService) ensureChannelLocked() (amqpChannel, error) {
	if a.channel != nil {
		return a.channel, nil
	}
	ch, closeConn, err := a.dial(a.url)
	if err != nil {
		return nil, err
	}
	if err := ch.ExchangeDeclare(a.exchange, amqpExchangeKind, true, false, false, false, nil); err != nil {
		_ = ch.Close()
		if closeConn != nil {
			_ = closeConn()
		}
		return nil, fmt.Errorf("declare amqp exchange %q: %w", a.exchange, err)
	}
	a.channel = ch
	a.closeConn = closeConn
	return ch, nil
}

func (a *amqpService) resetLocked() {
	if a.channel != nil {
		_ = a.channel.Close()
	}
	if a.closeConn != nil {
		_ = a.closeConn()
	}
	a.channel = nil
	a.closeConn = nil
}

// Close tears down the AMQP connection.
func (a *amqpService) Close() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.resetLocked()
	return nil
}
