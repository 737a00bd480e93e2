package messaging

import (
	"context"
	"fmt"
	"time"

	"gigboard/pkg/metrics"

	"github.com/segmentio/kafka-go"
)

const serviceName = "reviews-service"

type KafkaProducer struct {
	writer *kafka.Writer
	topic  string
}

// NewKafkaProducer - запись синхронная, поэтому BatchTimeout короткий:
// с большим таймаутом каждая отправка ждала бы заполнения пачки
func NewKafkaProducer(brokers []string, topic string) *KafkaProducer {
	writer := &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		BatchSize:    100,
		BatchTimeout: 100 * time.Millisecond,
		RequiredAcks: kafka.RequireOne,
	}

	return &KafkaProducer{writer: writer, topic: topic}
}

// PublishMessage - ключ определяет партицию, уведомления одного пользователя идут по порядку
func (p *KafkaProducer) PublishMessage(ctx context.Context, key string, value []byte) error {
	timer := metrics.NewKafkaProduceTimer(serviceName, p.topic)

	message := kafka.Message{
		Key:   []byte(key),
		Value: value,
		Time:  time.Now(),
	}

	if err := p.writer.WriteMessages(ctx, message); err != nil {
		timer.Error()
		return fmt.Errorf("failed to write message to kafka: %w", err)
	}

	timer.Success()
	return nil
}

func (p *KafkaProducer) Close() error {
	return p.writer.Close()
}
