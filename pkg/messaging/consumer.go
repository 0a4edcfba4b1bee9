package messaging

import (
	"context"
	"errors"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

// MessageHandler processes one delivery body. A returned error rejects the message without requeue.
type MessageHandler func(ctx context.Context, body []byte) error

// Consumer drains a durable queue, reconnecting with backoff until ctx is cancelled.
type Consumer struct {
	url      string
	queue    string
	prefetch int
	logger   *zap.Logger
}

// NewConsumer constructs a consumer.
func NewConsumer(url, queue string, logger *zap.Logger) *Consumer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Consumer{url: url, queue: queue, prefetch: 50, logger: logger}
}

// Run blocks until ctx is done.
func (c *Consumer) Run(ctx context.Context, handle MessageHandler) error {
	backoff := time.Second
	for {
		err := c.consume(ctx, handle)
		if ctx.Err() != nil {
			return ctx.Err()
		}
		c.logger.Warn("consumer disconnected", zap.String("queue", c.queue), zap.Error(err), zap.Duration("retry_in", backoff))

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(backoff):
		}
		if backoff < 30*time.Second {
			backoff *= 2
		}
	}
}

func (c *Consumer) consume(ctx context.Context, handle MessageHandler) error {
	conn, err := amqp.Dial(c.url)
	if err != nil {
		return fmt.Errorf("dial broker: %w", err)
	}
	defer conn.Close() //nolint:errcheck

	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("open channel: %w", err)
	}
	defer ch.Close() //nolint:errcheck

	if err := ch.Qos(c.prefetch, 0, false); err != nil {
		return fmt.Errorf("set qos: %w", err)
	}
	if _, err := ch.QueueDeclare(c.queue, true, false, false, false, nil); err != nil {
		return fmt.Errorf("declare queue %s: %w", c.queue, err)
	}
	deliveries, err := ch.ConsumeWithContext(ctx, c.queue, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("consume %s: %w", c.queue, err)
	}
	c.logger.Info("consumer started", zap.String("queue", c.queue))

	for d := range deliveries {
		if err := handle(ctx, d.Body); err != nil {
			c.logger.Error("message rejected", zap.String("queue", c.queue), zap.Error(err))
			_ = d.Nack(false, false)
			continue
		}
		_ = d.Ack(false)
	}
	return errors.New("delivery channel closed")
}
