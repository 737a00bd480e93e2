package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gigboard/pkg/logger"

	"github.com/joho/godotenv"
)

// Config - настройки Notification Worker Service
type Config struct {
	Database     DatabaseConfig
	Redis        RedisConfig
	Kafka        KafkaConfig
	SMTP         SMTPConfig
	Email        EmailConfig
	CronSchedule CronScheduleConfig
	Health       HealthConfig
	Logging      LoggingConfig
}

// DatabaseConfig - PostgreSQL с таблицей notifications (входящие уведомления)
type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string // disable/require/verify-full
}

type RedisConfig struct {
	Host      string
	Port      string
	Password  string
	DB        int
	DedupeTTL time.Duration // сколько помним обработанный event_id
}

type KafkaConfig struct {
	Brokers  []string
	Topic    string // review_notifications
	GroupID  string
	MinBytes int
	MaxBytes int
}

type SMTPConfig struct {
	Host     string // пусто - письма не отправляются
	Port     int
	User     string
	Password string
	From     string
}

type EmailConfig struct {
	RatePerSecond float64 // ограничение для SMTP сервера
	Burst         int
	MaxAttempts   int // после стольких неудач письмо больше не повторяется
	RetryBatch    int
}

type CronScheduleConfig struct {
	RetryEmails string // 5 полей, по умолчанию каждые 5 минут
}

type HealthConfig struct {
	Port string
}

type LoggingConfig struct {
	Level        string
	LogstashAddr string
}

// Load читает .env (если есть) и переменные окружения
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		logger.Warn().Err(err).Msg("Failed to load .env file")
	}

	cfg := &Config{
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", "postgres"),
			DBName:   getEnv("DB_NAME", "notifications"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
		},
		Redis: RedisConfig{
			Host:      getEnv("REDIS_HOST", "localhost"),
			Port:      getEnv("REDIS_PORT", "6379"),
			Password:  getEnv("REDIS_PASSWORD", ""),
			DB:        getEnvInt("REDIS_DB", 1),
			DedupeTTL: getEnvDuration("REDIS_DEDUPE_TTL", 24*time.Hour),
		},
		Kafka: KafkaConfig{
			Brokers:  splitList(getEnv("KAFKA_BROKERS", "localhost:9092")),
			Topic:    getEnv("KAFKA_TOPIC", "review_notifications"),
			GroupID:  getEnv("KAFKA_GROUP_ID", "notification-worker-group"),
			MinBytes: getEnvInt("KAFKA_MIN_BYTES", 1),
			MaxBytes: getEnvInt("KAFKA_MAX_BYTES", 10e6),
		},
		SMTP: SMTPConfig{
			Host:     getEnv("SMTP_HOST", ""),
			Port:     getEnvInt("SMTP_PORT", 587),
			User:     getEnv("SMTP_USER", ""),
			Password: getEnv("SMTP_PASSWORD", ""),
			From:     getEnv("SMTP_FROM", "no-reply@gigboard.local"),
		},
		Email: EmailConfig{
			RatePerSecond: getEnvFloat("EMAIL_RATE_PER_SECOND", 2),
			Burst:         getEnvInt("EMAIL_BURST", 5),
			MaxAttempts:   getEnvInt("EMAIL_MAX_ATTEMPTS", 3),
			RetryBatch:    getEnvInt("EMAIL_RETRY_BATCH", 100),
		},
		CronSchedule: CronScheduleConfig{
			RetryEmails: getEnv("CRON_RETRY_EMAILS", "*/5 * * * *"),
		},
		Health: HealthConfig{
			Port: getEnv("HEALTH_PORT", "8080"),
		},
		Logging: LoggingConfig{
			Level:        getEnv("LOG_LEVEL", "info"),
			LogstashAddr: getEnv("LOGSTASH_ADDR", ""),
		},
	}

	if len(cfg.Kafka.Brokers) == 0 {
		return nil, fmt.Errorf("KAFKA_BROKERS must not be empty")
	}
	if cfg.Email.MaxAttempts < 1 {
		return nil, fmt.Errorf("EMAIL_MAX_ATTEMPTS must be positive, got %d", cfg.Email.MaxAttempts)
	}

	return cfg, nil
}

// DSN возвращает строку подключения к PostgreSQL в формате libpq
func (c *DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode,
	)
}

func (c *RedisConfig) Address() string {
	return c.Host + ":" + c.Port
}

func (c *SMTPConfig) Enabled() bool {
	return c.Host != ""
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

func splitList(value string) []string {
	var items []string
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			items = append(items, item)
		}
	}
	return items
}
