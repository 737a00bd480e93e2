package processor

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"gigboard/notification-worker-service/internal/app/notification-worker/entity"
	"gigboard/notification-worker-service/internal/app/notification-worker/service"
	"gigboard/pkg/logger"
	"gigboard/pkg/metrics"

	"github.com/segmentio/kafka-go"
)

const (
	serviceName     = "notification-worker-service"
	maxRetryBackoff = 30 * time.Second
)

// errPoisonMessage - сообщение не обработается ни с какой попытки, его коммитим и идём дальше
var errPoisonMessage = errors.New("poison message")

// messageReader - часть kafka.Reader, которой пользуется consumer
type messageReader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Stats() kafka.ReaderStats
	Close() error
}

// KafkaConsumer читает NOTIFICATION_REQUESTED из топика review_notifications.
// Offset коммитится только после успешной обработки, поэтому сообщения внутри партиции не теряются
type KafkaConsumer struct {
	reader       messageReader
	topic        string
	groupID      string
	svc          service.NotificationServiceInterface
	retryBackoff time.Duration
	cancel       context.CancelFunc
	doneChan     chan struct{}
}

func NewKafkaConsumer(
	brokers []string,
	topic string,
	groupID string,
	minBytes int,
	maxBytes int,
	svc service.NotificationServiceInterface,
) *KafkaConsumer {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:        brokers,
		Topic:          topic,
		GroupID:        groupID,
		MinBytes:       minBytes,
		MaxBytes:       maxBytes,
		StartOffset:    kafka.FirstOffset, // новая группа не должна пропустить уже отправленные уведомления
		CommitInterval: 0,                 // синхронный коммит в CommitMessages
		ReadBackoffMin: 100 * time.Millisecond,
		ReadBackoffMax: 1 * time.Second,
	})

	return newKafkaConsumer(reader, topic, groupID, svc, time.Second)
}

func newKafkaConsumer(reader messageReader, topic, groupID string, svc service.NotificationServiceInterface, retryBackoff time.Duration) *KafkaConsumer {
	return &KafkaConsumer{
		reader:       reader,
		topic:        topic,
		groupID:      groupID,
		svc:          svc,
		retryBackoff: retryBackoff,
		doneChan:     make(chan struct{}),
	}
}

// Start запускает чтение в отдельной горутине
func (c *KafkaConsumer) Start(ctx context.Context) {
	ctx, c.cancel = context.WithCancel(ctx)

	logger.Info().
		Str("topic", c.topic).
		Str("group_id", c.groupID).
		Msg("Starting Kafka consumer")

	go c.consume(ctx)
}

// Stop дожидается окончания обработки текущего сообщения и закрывает reader
func (c *KafkaConsumer) Stop() {
	logger.Info().Msg("Stopping Kafka consumer...")
	if c.cancel != nil {
		c.cancel()
		<-c.doneChan
	}
	if err := c.reader.Close(); err != nil {
		logger.Error().Err(err).Msg("Error closing Kafka reader")
	}
	logger.Info().Msg("Kafka consumer stopped")
}

func (c *KafkaConsumer) consume(ctx context.Context) {
	defer close(c.doneChan)

	for {
		message, err := c.reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}

			logger.Error().Err(err).Str("topic", c.topic).Msg("Error fetching message")
			metrics.RecordKafkaError(serviceName, c.topic, "fetch")
			if !sleepCtx(ctx, time.Second) {
				return
			}
			continue
		}

		if !c.handle(ctx, message) {
			return
		}

		if err := c.reader.CommitMessages(ctx, message); err != nil {
			logger.Error().
				Err(err).
				Int64("offset", message.Offset).
				Int("partition", message.Partition).
				Msg("Error committing message")
			metrics.RecordKafkaError(serviceName, c.topic, "commit")
		}
	}
}

// handle повторяет обработку сообщения, пока она не удастся. false - consumer останавливается
func (c *KafkaConsumer) handle(ctx context.Context, message kafka.Message) bool {
	backoff := c.retryBackoff

	for attempt := 1; ; attempt++ {
		start := time.Now()
		err := c.processMessage(ctx, message)
		if err == nil {
			metrics.RecordKafkaMessageConsumed(serviceName, c.topic, c.groupID, time.Since(start))
			return true
		}

		if errors.Is(err, errPoisonMessage) {
			logger.Error().
				Err(err).
				Int64("offset", message.Offset).
				Int("partition", message.Partition).
				Msg("Skipping poison message")
			metrics.RecordKafkaError(serviceName, c.topic, "poison")
			return true
		}

		logger.Warn().
			Err(err).
			Int("attempt", attempt).
			Dur("retry_in", backoff).
			Int64("offset", message.Offset).
			Msg("Error processing message, retrying")
		metrics.RecordKafkaError(serviceName, c.topic, "process")

		if !sleepCtx(ctx, backoff) {
			return false
		}
		backoff *= 2
		if backoff > maxRetryBackoff {
			backoff = maxRetryBackoff
		}
	}
}

func (c *KafkaConsumer) processMessage(ctx context.Context, message kafka.Message) error {
	var event entity.NotificationEvent
	if err := json.Unmarshal(message.Value, &event); err != nil {
		return fmt.Errorf("%w: failed to unmarshal notification event: %v", errPoisonMessage, err)
	}

	logger.Debug().
		Str("event_id", event.EventID).
		Int64("offset", message.Offset).
		Int("partition", message.Partition).
		Msg("Received notification event")

	if err := c.svc.Process(ctx, &event); err != nil {
		if errors.Is(err, service.ErrInvalidEvent) {
			return fmt.Errorf("%w: %v", errPoisonMessage, err)
		}
		return fmt.Errorf("failed to process notification event: %w", err)
	}

	return nil
}

func (c *KafkaConsumer) GetStats() kafka.ReaderStats {
	return c.reader.Stats()
}

func sleepCtx(ctx context.Context, d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
