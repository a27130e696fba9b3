package events

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/tm-acme-shop/acme-shop-marketplace-service/internal/apperrors"
	"github.com/tm-acme-shop/acme-shop-marketplace-service/internal/config"
	"github.com/tm-acme-shop/acme-shop-marketplace-service/internal/logging"
	"github.com/tm-acme-shop/acme-shop-marketplace-service/internal/metrics"
	"github.com/tm-acme-shop/acme-shop-marketplace-service/internal/models"
)

// PaymentEventType represents the type of payment event.
type PaymentEventType string

const (
	PaymentEventCompleted PaymentEventType = "payment.completed"
	PaymentEventFailed    PaymentEventType = "payment.failed"
)

// PaymentEvent is published by the payment gateway integration.
type PaymentEvent struct {
	ID        string           `json:"id"`
	Type      PaymentEventType `json:"type"`
	OrderID   string           `json:"order_id"`
	Reference string           `json:"reference,omitempty"`
	Timestamp time.Time        `json:"timestamp"`
}

// PaymentSettler moves an order's pending payment to a terminal status.
type PaymentSettler interface {
	SettlePayment(ctx context.Context, orderID string, status models.PaymentStatus) (*models.Payment, error)
}

const (
	defaultRetryBackoff = 500 * time.Millisecond
	maxRetryBackoff     = 30 * time.Second
)

type messageReader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaConsumer consumes payment events from Kafka. Offsets are committed
// only once an event has been applied or rejected for good, so a transient
// settlement failure is retried instead of dropped.
type KafkaConsumer struct {
	reader       messageReader
	settler      PaymentSettler
	metrics      *metrics.Metrics
	logger       *logging.LoggerV2
	retryBackoff time.Duration
	stopCh       chan struct{}
	stopOnce     sync.Once
}

// NewKafkaConsumer creates a new Kafka-based payment event consumer.
func NewKafkaConsumer(cfg config.KafkaConfig, settler PaymentSettler, m *metrics.Metrics, logger *logging.LoggerV2) *KafkaConsumer {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:  cfg.Brokers,
		Topic:    cfg.PaymentsTopic,
		GroupID:  cfg.ConsumerGroup,
		MinBytes: 1,
		MaxBytes: 10e6,
		MaxWait:  time.Second,
	})

	return newKafkaConsumer(reader, settler, m, logger)
}

func newKafkaConsumer(reader messageReader, settler PaymentSettler, m *metrics.Metrics, logger *logging.LoggerV2) *KafkaConsumer {
	return &KafkaConsumer{
		reader:       reader,
		settler:      settler,
		metrics:      m,
		logger:       logger,
		retryBackoff: defaultRetryBackoff,
		stopCh:       make(chan struct{}),
	}
}

// Start consumes until ctx is cancelled or Stop is called.
func (c *KafkaConsumer) Start(ctx context.Context) error {
	c.logger.Info("Starting payment event consumer")

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-c.stopCh:
			c.logger.Info("Payment event consumer stopped")
			return nil
		default:
			msg, err := c.reader.FetchMessage(ctx)
			if err != nil {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				if c.stopped() {
					return nil
				}
				c.logger.Error("Failed to fetch message", logging.Fields{"error": err.Error()})
				continue
			}

			if !c.process(ctx, msg) {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				return nil
			}

			if err := c.reader.CommitMessages(ctx, msg); err != nil {
				c.logger.Error("Failed to commit message", logging.Fields{
					"partition": msg.Partition,
					"offset":    msg.Offset,
					"error":     err.Error(),
				})
			}
		}
	}
}

// process handles msg, backing off and retrying transient failures until it
// succeeds. It returns false if the consumer stopped before that happened.
func (c *KafkaConsumer) process(ctx context.Context, msg kafka.Message) bool {
	backoff := c.retryBackoff
	for attempt := 1; ; attempt++ {
		err := c.handleMessage(ctx, msg)
		if err == nil {
			return true
		}

		c.logger.Warn("Retrying payment event", logging.Fields{
			"partition": msg.Partition,
			"offset":    msg.Offset,
			"attempt":   attempt,
			"backoff":   backoff.String(),
			"error":     err.Error(),
		})

		timer := time.NewTimer(backoff)
		select {
		case <-ctx.Done():
			timer.Stop()
			return false
		case <-c.stopCh:
			timer.Stop()
			return false
		case <-timer.C:
		}

		backoff *= 2
		if backoff > maxRetryBackoff {
			backoff = maxRetryBackoff
		}
	}
}

func (c *KafkaConsumer) stopped() bool {
	select {
	case <-c.stopCh:
		return true
	default:
		return false
	}
}

// Stop stops the consumer and closes the reader.
func (c *KafkaConsumer) Stop() {
	c.stopOnce.Do(func() {
		close(c.stopCh)
		c.reader.Close()
	})
}

// handleMessage applies one event. A nil return means the message is done
// with, including malformed input and events that can never apply.
func (c *KafkaConsumer) handleMessage(ctx context.Context, msg kafka.Message) error {
	c.logger.Debug("Received message", logging.Fields{
		"topic":     msg.Topic,
		"partition": msg.Partition,
		"offset":    msg.Offset,
	})

	var event PaymentEvent
	if err := json.Unmarshal(msg.Value, &event); err != nil {
		c.logger.Error("Failed to unmarshal event", logging.Fields{"error": err.Error()})
		c.metrics.PaymentEvent("unknown", "malformed")
		return nil
	}

	var status models.PaymentStatus
	switch event.Type {
	case PaymentEventCompleted:
		status = models.PaymentStatusCompleted
	case PaymentEventFailed:
		status = models.PaymentStatusFailed
	default:
		c.logger.Debug("Ignoring unknown event type", logging.Fields{"type": event.Type})
		c.metrics.PaymentEvent(string(event.Type), "ignored")
		return nil
	}

	return c.settle(ctx, &event, status)
}

func (c *KafkaConsumer) settle(ctx context.Context, event *PaymentEvent, status models.PaymentStatus) error {
	c.logger.Info("Handling payment event", logging.Fields{
		"event_id": event.ID,
		"type":     event.Type,
		"order_id": event.OrderID,
	})

	payment, err := c.settler.SettlePayment(ctx, event.OrderID, status)
	switch {
	case err == nil:
		c.metrics.PaymentEvent(string(event.Type), "settled")
		c.logger.Info("Payment settled", logging.Fields{
			"order_id":   event.OrderID,
			"payment_id": payment.ID,
			"status":     payment.Status,
		})
		return nil
	case errors.Is(err, apperrors.ErrConflict):
		// Redelivery of an event that was already applied.
		c.metrics.PaymentEvent(string(event.Type), "duplicate")
		c.logger.Warn("Payment already settled", logging.Fields{
			"order_id": event.OrderID,
			"error":    err.Error(),
		})
		return nil
	case errors.Is(err, apperrors.ErrNotFound):
		c.metrics.PaymentEvent(string(event.Type), "unknown_order")
		c.logger.Warn("Payment event for unknown order", logging.Fields{
			"order_id": event.OrderID,
			"error":    err.Error(),
		})
		return nil
	default:
		c.metrics.PaymentEvent(string(event.Type), "error")
		c.logger.Error("Failed to settle payment", logging.Fields{
			"order_id": event.OrderID,
			"error":    err.Error(),
		})
		return err
	}
}
