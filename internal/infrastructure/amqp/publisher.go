// Package amqp publishes scan lifecycle events to RabbitMQ. Every publish
// dials its own connection so a broker outage never blocks the alert flow
// for longer than one attempt.
package amqp

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/bwmarrin/snowflake"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/segmentio/ksuid"

	"YourStockNews/internal/domain"
	"YourStockNews/internal/ports"
)

// DefaultQueue receives scan-completed events.
const DefaultQueue = "stocknews.scan.completed"

// Publisher sends persistent JSON messages to a durable queue.
type Publisher struct {
	url    string
	queue  string
	node   *snowflake.Node
	logger *slog.Logger
}

var _ ports.EventPublisher = (*Publisher)(nil)

// NewPublisher builds a publisher for url. An empty queue uses DefaultQueue.
func NewPublisher(url, queue string, logger *slog.Logger) *Publisher {
	if queue == "" {
		queue = DefaultQueue
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	node, err := snowflake.NewNode(1)
	if err != nil {
		logger.Warn("snowflake node unavailable, falling back to ksuid", "error", err)
	}
	return &Publisher{url: url, queue: queue, node: node, logger: logger}
}

// PublishScanCompleted announces a finished scan.
func (p *Publisher) PublishScanCompleted(ctx context.Context, event domain.ScanCompleted) error {
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal scan event: %w", err)
	}

	conn, err := amqp.Dial(p.url)
	if err != nil {
		return fmt.Errorf("rabbitmq dial: %w", err)
	}
	defer func() { _ = conn.Close() }()

	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("rabbitmq channel: %w", err)
	}
	defer func() { _ = ch.Close() }()

	if _, err := ch.QueueDeclare(p.queue, true, false, false, false, nil); err != nil {
		return fmt.Errorf("rabbitmq queue declare: %w", err)
	}

	msg := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    p.messageID(),
		Timestamp:    time.Now().UTC(),
		Type:         "scan.completed",
		Body:         body,
	}
	if err := ch.PublishWithContext(ctx, "", p.queue, false, false, msg); err != nil {
		return fmt.Errorf("rabbitmq publish: %w", err)
	}

	p.logger.Debug("scan event published", "queue", p.queue, "scan_id", event.ScanID, "message_id", msg.MessageId)
	return nil
}

func (p *Publisher) messageID() string {
	if p.node == nil {
		return ksuid.New().String()
	}
	return p.node.Generate().String()
}
