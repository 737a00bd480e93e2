package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"gigboard/pkg/logger"
	"gigboard/reviews-service/internal/app/reviews/config"
	"gigboard/reviews-service/internal/app/reviews/infrastructure/messaging"
	"gigboard/reviews-service/internal/app/reviews/repository"
	"gigboard/reviews-service/internal/app/reviews/service"
)

var (
	mongoURI string
	database string
	timeout  time.Duration
)

// ledger - то, с чем работают подкоманды. close освобождает соединение
type ledger struct {
	reviews repository.ReviewRepository
	service service.ReviewServiceInterface
	close   func()
}

// openLedger подменяется в тестах
var openLedger = func(ctx context.Context) (*ledger, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(mongoURI))
	if err != nil {
		return nil, fmt.Errorf("connect to mongodb: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("ping mongodb: %w", err)
	}

	db := client.Database(database)
	reviewRepo := repository.NewReviewRepository(db)

	// CLI ничего не пишет, уведомления и кеш не нужны
	svc := service.NewReviewService(
		reviewRepo,
		repository.NewJobRepository(db),
		repository.NewUserRepository(db),
		nil,
		messaging.NopNotifier{},
	)

	return &ledger{
		reviews: reviewRepo,
		service: svc,
		close: func() {
			_ = client.Disconnect(context.Background())
		},
	}, nil
}

var rootCmd = &cobra.Command{
	Use:   "reviewsctl",
	Short: "reviewsctl - operator tool for the reviews ledger",
	Long: `reviewsctl talks to the reviews MongoDB directly:
- create the indexes the service relies on
- print rating statistics for a user
- list reviews waiting for moderation`,
	SilenceUsage: true,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	logger.InitWithWriter("reviewsctl", "warn", os.Stderr)

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error loading config:", err)
		os.Exit(1)
	}

	rootCmd.PersistentFlags().StringVar(&mongoURI, "mongo-uri", cfg.MongoDB.URI, "MongoDB connection URI")
	rootCmd.PersistentFlags().StringVar(&database, "database", cfg.MongoDB.Database, "MongoDB database name")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", 30*time.Second, "timeout for a single command")

	rootCmd.AddCommand(indexesCmd, statsCmd, reportedCmd)
}

// withLedger открывает соединение на время одной команды
func withLedger(cmd *cobra.Command, fn func(ctx context.Context, l *ledger) error) error {
	ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
	defer cancel()

	l, err := openLedger(ctx)
	if err != nil {
		return err
	}
	defer l.close()

	return fn(ctx, l)
}

func printJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
