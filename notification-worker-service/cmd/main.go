package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"gigboard/notification-worker-service/internal/app/notification-worker/config"
	"gigboard/notification-worker-service/internal/app/notification-worker/entity"
	"gigboard/notification-worker-service/internal/app/notification-worker/handler"
	"gigboard/notification-worker-service/internal/app/notification-worker/processor"
	"gigboard/notification-worker-service/internal/app/notification-worker/repository"
	"gigboard/notification-worker-service/internal/app/notification-worker/service"
	"gigboard/pkg/logger"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger.Init("notification-worker-service", cfg.Logging.Level)
	if cfg.Logging.LogstashAddr != "" {
		if err := logger.InitLogstash(cfg.Logging.LogstashAddr, "notification-worker-service", cfg.Logging.Level); err != nil {
			logger.Warn().Err(err).Msg("Failed to connect to Logstash, using stdout only")
		}
	}

	ctx, stop := context.WithCancel(context.Background())
	defer stop()

	// === POSTGRESQL ===
	db, err := connectDB(cfg.Database)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to connect to database")
	}
	sqlDB, err := db.DB()
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to get sql.DB")
	}
	defer sqlDB.Close()

	if err := db.AutoMigrate(&entity.Notification{}); err != nil {
		logger.Fatal().Err(err).Msg("Failed to migrate notifications table")
	}
	logger.Info().Str("database", cfg.Database.DBName).Msg("Connected to PostgreSQL")

	// === REDIS ===
	redisClient, err := connectRedis(ctx, cfg.Redis)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to connect to Redis")
	}
	defer redisClient.Close()
	logger.Info().Str("address", cfg.Redis.Address()).Msg("Connected to Redis")

	notificationRepo := repository.NewNotificationRepository(db)
	dedupStore := repository.NewRedisDedupStore(redisClient, cfg.Redis.DedupeTTL)

	// === EMAIL ===
	var sender service.EmailSender
	if cfg.SMTP.Enabled() {
		sender = service.NewRateLimitedSender(service.NewSMTPEmailSender(cfg.SMTP), cfg.Email.RatePerSecond, cfg.Email.Burst)
		logger.Info().
			Str("smtp_host", cfg.SMTP.Host).
			Float64("rate_per_second", cfg.Email.RatePerSecond).
			Msg("Email delivery enabled")
	} else {
		logger.Warn().Msg("SMTP_HOST is not set, notification emails are skipped")
	}

	notificationSvc := service.NewNotificationService(
		notificationRepo,
		dedupStore,
		sender,
		cfg.Email.MaxAttempts,
		cfg.Email.RetryBatch,
	)

	// === KAFKA ===
	kafkaConsumer := processor.NewKafkaConsumer(
		cfg.Kafka.Brokers,
		cfg.Kafka.Topic,
		cfg.Kafka.GroupID,
		cfg.Kafka.MinBytes,
		cfg.Kafka.MaxBytes,
		notificationSvc,
	)
	kafkaConsumer.Start(ctx)

	// === CRON ===
	cronScheduler := processor.NewCronScheduler(notificationSvc)
	if err := cronScheduler.Start(ctx, cfg.CronSchedule.RetryEmails); err != nil {
		logger.Fatal().Err(err).Str("schedule", cfg.CronSchedule.RetryEmails).Msg("Failed to start cron scheduler")
	}

	// === HEALTH + METRICS ===
	healthHandler := handler.NewHealthCheckHandler(sqlDB, handler.PingerFunc(dedupStore.Ping))

	mux := http.NewServeMux()
	healthHandler.RegisterRoutes(mux)
	mux.Handle("/metrics", promhttp.Handler())

	httpServer := &http.Server{
		Addr:              ":" + cfg.Health.Port,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		logger.Info().Str("address", httpServer.Addr).Msg("Starting health and metrics server")
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error().Err(err).Msg("HTTP server error")
		}
	}()

	logger.Info().
		Str("topic", cfg.Kafka.Topic).
		Str("retry_schedule", cfg.CronSchedule.RetryEmails).
		Msg("Notification Worker Service is running")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("Shutting down Notification Worker Service...")

	// сначала перестаём брать новые сообщения, потом гасим остальное
	kafkaConsumer.Stop()
	cronScheduler.Stop()
	stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("HTTP server forced to shutdown")
	}

	logger.Info().Msg("Notification Worker Service stopped gracefully")
}

func connectDB(cfg config.DatabaseConfig) (*gorm.DB, error) {
	gormConfig := &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Warn),
	}

	var db *gorm.DB
	var err error

	for i := 0; i < 10; i++ {
		db, err = gorm.Open(postgres.Open(cfg.DSN()), gormConfig)
		if err == nil {
			sqlDB, sqlErr := db.DB()
			if sqlErr != nil {
				err = sqlErr
			} else if pingErr := sqlDB.Ping(); pingErr != nil {
				err = pingErr
			} else {
				sqlDB.SetMaxOpenConns(10)
				sqlDB.SetMaxIdleConns(5)
				sqlDB.SetConnMaxLifetime(5 * time.Minute)
				sqlDB.SetConnMaxIdleTime(1 * time.Minute)
				return db, nil
			}
		}

		logger.Warn().Err(err).Int("attempt", i+1).Msg("Failed to connect to database, retrying...")
		time.Sleep(3 * time.Second)
	}

	return nil, fmt.Errorf("failed to connect after 10 attempts: %w", err)
}

func connectRedis(ctx context.Context, cfg config.RedisConfig) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         cfg.Address(),
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
		PoolSize:     10,
		MinIdleConns: 2,
	})

	var err error
	for i := 0; i < 10; i++ {
		if err = client.Ping(ctx).Err(); err == nil {
			return client, nil
		}
		logger.Warn().Err(err).Int("attempt", i+1).Msg("Failed to connect to Redis, retrying...")
		time.Sleep(3 * time.Second)
	}

	_ = client.Close()
	return nil, fmt.Errorf("failed to connect to Redis after 10 attempts: %w", err)
}
