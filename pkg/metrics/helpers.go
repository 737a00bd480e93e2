package metrics

import (
	"time"
)

// =============================================================================
// Redis
// =============================================================================

type RedisOperation string

const (
	RedisOpGet   RedisOperation = "get"
	RedisOpSet   RedisOperation = "set"
	RedisOpSetNX RedisOperation = "setnx"
	RedisOpDel   RedisOperation = "del"
	RedisOpPing  RedisOperation = "ping"
)

type RedisTimer struct {
	service   string
	operation RedisOperation
	start     time.Time
}

func NewRedisTimer(service string, op RedisOperation) *RedisTimer {
	return &RedisTimer{
		service:   service,
		operation: op,
		start:     time.Now(),
	}
}

func (rt *RedisTimer) ObserveDuration() {
	RedisOperationDuration.WithLabelValues(rt.service, string(rt.operation)).Observe(time.Since(rt.start).Seconds())
}

func RecordCacheHit(service, keyPrefix string) {
	RedisCacheHits.WithLabelValues(service, keyPrefix).Inc()
}

func RecordCacheMiss(service, keyPrefix string) {
	RedisCacheMisses.WithLabelValues(service, keyPrefix).Inc()
}

func RecordRedisError(service string, op RedisOperation) {
	RedisErrors.WithLabelValues(service, string(op)).Inc()
}

// =============================================================================
// Kafka
// =============================================================================

func RecordKafkaMessageProduced(service, topic string, duration time.Duration) {
	KafkaMessagesProduced.WithLabelValues(service, topic).Inc()
	KafkaProduceDuration.WithLabelValues(service, topic).Observe(duration.Seconds())
}

func RecordKafkaMessageConsumed(service, topic, group string, processingDuration time.Duration) {
	KafkaMessagesConsumed.WithLabelValues(service, topic, group).Inc()
	KafkaConsumeDuration.WithLabelValues(service, topic).Observe(processingDuration.Seconds())
}

func RecordKafkaError(service, topic, operation string) {
	KafkaErrors.WithLabelValues(service, topic, operation).Inc()
}

type KafkaProduceTimer struct {
	service string
	topic   string
	start   time.Time
}

func NewKafkaProduceTimer(service, topic string) *KafkaProduceTimer {
	return &KafkaProduceTimer{
		service: service,
		topic:   topic,
		start:   time.Now(),
	}
}

func (kt *KafkaProduceTimer) Success() {
	RecordKafkaMessageProduced(kt.service, kt.topic, time.Since(kt.start))
}

func (kt *KafkaProduceTimer) Error() {
	RecordKafkaError(kt.service, kt.topic, "produce")
}

// =============================================================================
// Database
// =============================================================================

type DbOperation string

const (
	DbOpSelect    DbOperation = "select"
	DbOpInsert    DbOperation = "insert"
	DbOpUpdate    DbOperation = "update"
	DbOpDelete    DbOperation = "delete"
	DbOpAggregate DbOperation = "aggregate"
)

type DbTimer struct {
	service   string
	operation DbOperation
	table     string
	start     time.Time
}

func NewDbTimer(service string, op DbOperation, table string) *DbTimer {
	return &DbTimer{
		service:   service,
		operation: op,
		table:     table,
		start:     time.Now(),
	}
}

func (dt *DbTimer) ObserveDuration() {
	DbQueryDuration.WithLabelValues(dt.service, string(dt.operation), dt.table).Observe(time.Since(dt.start).Seconds())
}

func RecordDbError(service string, op DbOperation) {
	DbErrors.WithLabelValues(service, string(op)).Inc()
}

// =============================================================================
// Reviews / notifications
// =============================================================================

func RecordReviewSubmitted(reviewType string, rating int) {
	ReviewsSubmitted.WithLabelValues(reviewType).Inc()
	ReviewsRating.Observe(float64(rating))
}

func RecordReviewRejected(reason string) {
	ReviewsRejected.WithLabelValues(reason).Inc()
}

func RecordModeration(action string) {
	ReviewsModerated.WithLabelValues(action).Inc()
}

func RecordHelpfulToggle(voted bool) {
	direction := "removed"
	if voted {
		direction = "added"
	}
	ReviewHelpfulToggles.WithLabelValues(direction).Inc()
}

func RecordNotificationProcessed(status string, duration time.Duration) {
	NotificationsProcessed.WithLabelValues(status).Inc()
	NotificationProcessingDuration.Observe(duration.Seconds())
}

func RecordNotificationEmail(status string) {
	NotificationEmails.WithLabelValues(status).Inc()
}

type Timer struct {
	start time.Time
}

func NewTimer() *Timer {
	return &Timer{start: time.Now()}
}

func (t *Timer) Duration() time.Duration {
	return time.Since(t.start)
}
