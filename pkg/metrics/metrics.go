package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// =============================================================================
// HTTP
// =============================================================================

// HttpRequestsTotal - счётчик HTTP запросов
// Labels: service, method, path, status
// PromQL: rate(http_requests_total{service="reviews-service"}[5m])
var HttpRequestsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Total number of HTTP requests",
	},
	[]string{"service", "method", "path", "status"},
)

// HttpRequestDuration - latency
// PromQL: histogram_quantile(0.95, rate(http_request_duration_seconds_bucket[5m]))
var HttpRequestDuration = promauto.NewHistogramVec(
	prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "Duration of HTTP requests in seconds",
		Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
	},
	[]string{"service", "method", "path"},
)

var HttpRequestsInFlight = promauto.NewGaugeVec(
	prometheus.GaugeOpts{
		Name: "http_requests_in_flight",
		Help: "Current number of HTTP requests being processed",
	},
	[]string{"service"},
)

// =============================================================================
// Database (MongoDB, Postgres)
// =============================================================================

// DbQueryDuration - table для Mongo это имя коллекции
var DbQueryDuration = promauto.NewHistogramVec(
	prometheus.HistogramOpts{
		Name:    "db_query_duration_seconds",
		Help:    "Duration of database queries in seconds",
		Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
	},
	[]string{"service", "operation", "table"},
)

var DbErrors = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "db_errors_total",
		Help: "Total number of database errors",
	},
	[]string{"service", "operation"},
)

// =============================================================================
// Redis
// =============================================================================

var RedisCacheHits = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "redis_cache_hits_total",
		Help: "Total number of Redis cache hits",
	},
	[]string{"service", "key_prefix"},
)

var RedisCacheMisses = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "redis_cache_misses_total",
		Help: "Total number of Redis cache misses",
	},
	[]string{"service", "key_prefix"},
)

var RedisOperationDuration = promauto.NewHistogramVec(
	prometheus.HistogramOpts{
		Name:    "redis_operation_duration_seconds",
		Help:    "Duration of Redis operations in seconds",
		Buckets: []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1},
	},
	[]string{"service", "operation"},
)

var RedisErrors = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "redis_errors_total",
		Help: "Total number of Redis errors",
	},
	[]string{"service", "operation"},
)

// =============================================================================
// Kafka
// =============================================================================

var KafkaMessagesProduced = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "kafka_messages_produced_total",
		Help: "Total number of Kafka messages produced",
	},
	[]string{"service", "topic"},
)

var KafkaMessagesConsumed = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "kafka_messages_consumed_total",
		Help: "Total number of Kafka messages consumed",
	},
	[]string{"service", "topic", "group"},
)

var KafkaProduceDuration = promauto.NewHistogramVec(
	prometheus.HistogramOpts{
		Name:    "kafka_produce_duration_seconds",
		Help:    "Duration of Kafka produce operations",
		Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1},
	},
	[]string{"service", "topic"},
)

var KafkaConsumeDuration = promauto.NewHistogramVec(
	prometheus.HistogramOpts{
		Name:    "kafka_consume_duration_seconds",
		Help:    "Duration of Kafka message processing",
		Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 5, 10},
	},
	[]string{"service", "topic"},
)

// KafkaErrors - operation: produce, consume, commit
var KafkaErrors = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "kafka_errors_total",
		Help: "Total number of Kafka errors",
	},
	[]string{"service", "topic", "operation"},
)

// =============================================================================
// Бизнес-метрики
// =============================================================================

// --- Reviews Service ---

// ReviewsSubmitted - type: client-to-freelancer, freelancer-to-client
var ReviewsSubmitted = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "reviews_submitted_total",
		Help: "Total number of reviews submitted",
	},
	[]string{"type"},
)

var ReviewsRating = promauto.NewHistogram(
	prometheus.HistogramOpts{
		Name:    "reviews_rating",
		Help:    "Distribution of review ratings",
		Buckets: []float64{1, 2, 3, 4, 5},
	},
)

// ReviewsRejected - отклонённые при создании отзывы, reason = вид ошибки
var ReviewsRejected = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "reviews_rejected_total",
		Help: "Total number of review submissions rejected by validation",
	},
	[]string{"reason"},
)

// ReviewsModerated - action: delete, approve, reject
var ReviewsModerated = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "reviews_moderated_total",
		Help: "Total number of moderation decisions",
	},
	[]string{"action"},
)

// ReviewHelpfulToggles - direction: added, removed
var ReviewHelpfulToggles = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "review_helpful_toggles_total",
		Help: "Total number of helpful vote toggles",
	},
	[]string{"direction"},
)

// --- Notification Worker ---

// NotificationsProcessed - status: stored, duplicate, failed, invalid
var NotificationsProcessed = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "notifications_processed_total",
		Help: "Total number of notification events processed by worker",
	},
	[]string{"status"},
)

// NotificationEmails - status: sent, failed, skipped
var NotificationEmails = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "notification_emails_total",
		Help: "Total number of notification emails by outcome",
	},
	[]string{"status"},
)

var NotificationProcessingDuration = promauto.NewHistogram(
	prometheus.HistogramOpts{
		Name:    "notification_processing_duration_seconds",
		Help:    "Duration of notification event processing in worker",
		Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 2, 5, 10},
	},
)
