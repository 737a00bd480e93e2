package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"gigboard/pkg/logger"

	"github.com/joho/godotenv"
)

type Config struct {
	Server   ServerConfig
	MongoDB  MongoDBConfig
	Kafka    KafkaConfig
	Redis    RedisConfig
	JWT      JWTConfig
	Notifier NotifierConfig
	Logging  LoggingConfig
}

type ServerConfig struct {
	Host string // по умолчанию 0.0.0.0
	Port string // по умолчанию 8083
}

type MongoDBConfig struct {
	URI      string
	Database string // общая база: reviews, jobs, users
}

type KafkaConfig struct {
	Brokers []string // host:port, через запятую в KAFKA_BROKERS
	Topic   string   // топик для NOTIFICATION_REQUESTED
}

type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
	StatsTTL time.Duration // время жизни кеша глобальной статистики
}

type JWTConfig struct {
	Secret string // должен совпадать с секретом сервиса авторизации
}

type NotifierConfig struct {
	Timeout time.Duration // таймаут одной отправки уведомления
}

type LoggingConfig struct {
	Level        string
	LogstashAddr string // пусто - только stdout
}

// Load читает .env (если есть) и переменные окружения
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		logger.Warn().Err(err).Msg("Failed to load .env file")
	}

	return &Config{
		Server: ServerConfig{
			Host: getEnv("SERVER_HOST", "0.0.0.0"),
			Port: getEnv("SERVER_PORT", "8083"),
		},
		MongoDB: MongoDBConfig{
			URI:      getEnv("MONGODB_URI", "mongodb://localhost:27017"),
			Database: getEnv("MONGODB_DATABASE", "gigboard"),
		},
		Kafka: KafkaConfig{
			Brokers: splitList(getEnv("KAFKA_BROKERS", "localhost:9092")),
			Topic:   getEnv("KAFKA_TOPIC", "review_notifications"),
		},
		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnv("REDIS_PORT", "6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvInt("REDIS_DB", 0),
			StatsTTL: getEnvDuration("REDIS_STATS_TTL", time.Minute),
		},
		JWT: JWTConfig{
			Secret: getEnv("JWT_SECRET", "your-secret-key-change-this-in-production"),
		},
		Notifier: NotifierConfig{
			Timeout: getEnvDuration("NOTIFIER_TIMEOUT", 5*time.Second),
		},
		Logging: LoggingConfig{
			Level:        getEnv("LOG_LEVEL", "info"),
			LogstashAddr: getEnv("LOGSTASH_ADDR", ""),
		},
	}, nil
}

func (c *ServerConfig) Address() string {
	return c.Host + ":" + c.Port
}

func (c *RedisConfig) Address() string {
	return c.Host + ":" + c.Port
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
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
