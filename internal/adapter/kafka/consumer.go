package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/segmentio/kafka-go"

	"github.com/pmbank/settlement/internal/domain"
)

// EventHandler processes a single decoded payment event. A non-nil
// error holds the consumer on that event: it is retried in place with
// backoff and its offset stays uncommitted until a retry succeeds.
type EventHandler func(ctx context.Context, event domain.PaymentEvent) error

// messageReader is the subset of kafka.Reader the consumer needs.
type messageReader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Consumer runs a consumer-group subscription over the payment events
// topic and applies each event through an EventHandler.
//
// Offsets are committed only after the handler succeeds, so delivery
// is at-least-once and handlers must be idempotent.
type Consumer struct {
	reader        messageReader
	handler       EventHandler
	group         string
	logger        *slog.Logger
	retryInterval time.Duration
}

// NewConsumer creates a consumer bound to a consumer group.
func NewConsumer(brokers []string, topic, group string, handler EventHandler, logger *slog.Logger) *Consumer {
	if logger == nil {
		logger = slog.Default()
	}

	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:        brokers,
		GroupID:        group,
		Topic:          topic,
		MinBytes:       1,
		MaxBytes:       10e6,
		CommitInterval: 0, // synchronous commits
	})

	return &Consumer{
		reader:        reader,
		handler:       handler,
		group:         group,
		logger:        logger,
		retryInterval: 100 * time.Millisecond,
	}
}

func newConsumerWithReader(reader messageReader, group string, handler EventHandler, logger *slog.Logger) *Consumer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Consumer{
		reader:        reader,
		handler:       handler,
		group:         group,
		logger:        logger,
		retryInterval: time.Millisecond,
	}
}

// Run consumes messages until ctx is cancelled.
func (c *Consumer) Run(ctx context.Context) error {
	fetchBackoff := backoff.NewExponentialBackOff()
	fetchBackoff.InitialInterval = 100 * time.Millisecond
	fetchBackoff.MaxInterval = 5 * time.Second
	fetchBackoff.MaxElapsedTime = 0

	c.logger.Info("consumer started", "group", c.group)

	for {
		msg, err := c.reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, context.Canceled) {
				c.logger.Info("consumer stopped", "group", c.group)
				return ctx.Err()
			}

			wait := fetchBackoff.NextBackOff()
			c.logger.Error("fetch failed, backing off",
				"group", c.group,
				"error", err,
				"wait", wait,
			)
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(wait):
			}
			continue
		}
		fetchBackoff.Reset()

		if err := c.handleUntilCommittable(ctx, msg); err != nil {
			c.logger.Info("consumer stopped", "group", c.group)
			return err
		}

		if err := c.reader.CommitMessages(ctx, msg); err != nil {
			c.logger.Error("offset commit failed",
				"group", c.group,
				"offset", msg.Offset,
				"error", err,
			)
		}
	}
}

// handleUntilCommittable processes one message until its offset may be
// committed. A commit is a partition position, not a per-message ack:
// fetching past a failed event and committing any later offset would
// acknowledge the failed one too. So the same message is retried in
// place with backoff; the only way out without success is ctx
// cancellation, which leaves the offset uncommitted for redelivery.
func (c *Consumer) handleUntilCommittable(ctx context.Context, msg kafka.Message) error {
	retry := backoff.NewExponentialBackOff()
	retry.InitialInterval = c.retryInterval
	retry.MaxInterval = 5 * time.Second
	retry.MaxElapsedTime = 0

	for {
		if c.processMessage(ctx, msg) {
			return nil
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(retry.NextBackOff()):
		}
	}
}

// processMessage decodes and handles one message. It reports whether
// the offset may be committed.
func (c *Consumer) processMessage(ctx context.Context, msg kafka.Message) bool {
	var event domain.PaymentEvent
	if err := json.Unmarshal(msg.Value, &event); err != nil {
		// A message that cannot be decoded will never succeed; commit
		// past it instead of blocking the partition.
		c.logger.Error("skipping undecodable message",
			"group", c.group,
			"partition", msg.Partition,
			"offset", msg.Offset,
			"error", err,
		)
		return true
	}

	if err := c.handler(ctx, event); err != nil {
		c.logger.Error("event handling failed, will retry",
			"group", c.group,
			"payment_id", event.PaymentID,
			"error", err,
		)
		return false
	}

	return true
}

// Close closes the underlying reader and leaves the consumer group.
func (c *Consumer) Close() error {
	return c.reader.Close()
}
