package repository

import (
	"context"
	"time"

	"gigboard/reviews-service/internal/app/reviews/entity"
)

// ReviewRepository определяет методы для работы с отзывами в MongoDB
type ReviewRepository interface {
	EnsureIndexes(ctx context.Context) error

	Create(ctx context.Context, review *entity.Review) error
	GetByID(ctx context.Context, id string) (*entity.Review, error)
	ExistsForTriple(ctx context.Context, jobID, reviewerID, recipientID string) (bool, error)
	GetByJobID(ctx context.Context, jobID string) ([]entity.Review, error)
	GetByRecipientID(ctx context.Context, recipientID string) ([]entity.Review, error)
	Update(ctx context.Context, review *entity.Review) error
	Delete(ctx context.Context, id string) error

	MarkReported(ctx context.Context, id, reporterID, reason string, at time.Time) (*entity.Review, error)
	ResolveReport(ctx context.Context, review *entity.Review) error
	ListReported(ctx context.Context) ([]entity.Review, error)
	ToggleHelpfulVote(ctx context.Context, id, userID string) (count int, voted bool, err error)

	AggregateForRecipient(ctx context.Context, recipientID string) (*entity.RatingAggregate, error)
	AggregateGlobal(ctx context.Context) (*entity.GlobalStatsAggregate, error)
}

// JobRepository - чтение заказов из общей коллекции jobs
type JobRepository interface {
	GetByID(ctx context.Context, id string) (*entity.Job, error)
}

// UserRepository - чтение пользователей из общей коллекции users
type UserRepository interface {
	GetByID(ctx context.Context, id string) (*entity.User, error)
}

// StatsCache - кеш глобальной статистики. Get возвращает nil, nil при промахе
type StatsCache interface {
	GetGlobalStats(ctx context.Context) (*entity.GlobalStats, error)
	SetGlobalStats(ctx context.Context, stats *entity.GlobalStats) error
	Invalidate(ctx context.Context) error
}
