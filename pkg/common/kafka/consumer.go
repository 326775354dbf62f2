package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/synaptica-ai/riskengine/pkg/common/httpclient"
	"github.com/synaptica-ai/riskengine/pkg/common/logger"
	"github.com/synaptica-ai/riskengine/pkg/common/models"
)

const (
	defaultHandlerAttempts = 5
	defaultRetryDelay      = 500 * time.Millisecond
	fetchBackoff           = time.Second
)

// messageReader is the part of *kafka.Reader the consumer loop needs.
type messageReader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

type Consumer struct {
	reader          messageReader
	handlerAttempts int
	retryDelay      time.Duration
}

type EventHandler func(ctx context.Context, event models.Event) error

func NewConsumer(brokers []string, topic string, groupID string) *Consumer {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:  brokers,
		Topic:    topic,
		GroupID:  groupID,
		MinBytes: 1,
		MaxBytes: 10e6, // 10MB
	})

	return newConsumer(reader, defaultHandlerAttempts, defaultRetryDelay)
}

func newConsumer(reader messageReader, attempts int, retryDelay time.Duration) *Consumer {
	return &Consumer{reader: reader, handlerAttempts: attempts, retryDelay: retryDelay}
}

// Consume blocks until ctx is cancelled. Messages that cannot be decoded are
// committed and skipped. A failing handler is retried on the same message;
// once the attempts are spent Consume returns without committing, so the
// message is redelivered to the group after a restart.
func (c *Consumer) Consume(ctx context.Context, handler EventHandler) error {
	for {
		message, err := c.reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, context.Canceled) {
				return ctx.Err()
			}
			logger.Log.WithError(err).Error("Failed to fetch message")
			select {
			case <-time.After(fetchBackoff):
			case <-ctx.Done():
				return ctx.Err()
			}
			continue
		}

		var event models.Event
		if err := json.Unmarshal(message.Value, &event); err != nil {
			logger.Log.WithError(err).WithField("offset", message.Offset).Error("Failed to unmarshal event")
			_ = c.reader.CommitMessages(ctx, message)
			continue
		}

		attempt := 0
		err = httpclient.Retry(ctx, c.handlerAttempts, c.retryDelay, func() error {
			attempt++
			err := handler(ctx, event)
			if err != nil {
				logger.Log.WithError(err).WithFields(map[string]interface{}{
					"event_id":   event.ID,
					"event_type": event.Type,
					"attempt":    attempt,
				}).Warn("Failed to process event")
			}
			return err
		})
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return fmt.Errorf("event %s at offset %d: %w", event.ID, message.Offset, err)
		}

		if err := c.reader.CommitMessages(ctx, message); err != nil {
			logger.Log.WithError(err).Error("Failed to commit message")
		}
	}
}

func (c *Consumer) Close() error {
	return c.reader.Close()
}
