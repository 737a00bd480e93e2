package mocks

import (
	"context"
	"time"

	"gigboard/reviews-service/internal/app/reviews/entity"

	"github.com/stretchr/testify/mock"
)

// MockReviewRepository мок для ReviewRepository
type MockReviewRepository struct {
	mock.Mock
}

func (m *MockReviewRepository) EnsureIndexes(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockReviewRepository) Create(ctx context.Context, review *entity.Review) error {
	args := m.Called(ctx, review)
	return args.Error(0)
}

func (m *MockReviewRepository) GetByID(ctx context.Context, id string) (*entity.Review, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.Review), args.Error(1)
}

func (m *MockReviewRepository) ExistsForTriple(ctx context.Context, jobID, reviewerID, recipientID string) (bool, error) {
	args := m.Called(ctx, jobID, reviewerID, recipientID)
	return args.Bool(0), args.Error(1)
}

func (m *MockReviewRepository) GetByJobID(ctx context.Context, jobID string) ([]entity.Review, error) {
	args := m.Called(ctx, jobID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]entity.Review), args.Error(1)
}

func (m *MockReviewRepository) GetByRecipientID(ctx context.Context, recipientID string) ([]entity.Review, error) {
	args := m.Called(ctx, recipientID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]entity.Review), args.Error(1)
}

func (m *MockReviewRepository) Update(ctx context.Context, review *entity.Review) error {
	args := m.Called(ctx, review)
	return args.Error(0)
}

func (m *MockReviewRepository) Delete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockReviewRepository) MarkReported(ctx context.Context, id, reporterID, reason string, at time.Time) (*entity.Review, error) {
	args := m.Called(ctx, id, reporterID, reason, at)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.Review), args.Error(1)
}

func (m *MockReviewRepository) ResolveReport(ctx context.Context, review *entity.Review) error {
	args := m.Called(ctx, review)
	return args.Error(0)
}

func (m *MockReviewRepository) ListReported(ctx context.Context) ([]entity.Review, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]entity.Review), args.Error(1)
}

func (m *MockReviewRepository) ToggleHelpfulVote(ctx context.Context, id, userID string) (int, bool, error) {
	args := m.Called(ctx, id, userID)
	return args.Int(0), args.Bool(1), args.Error(2)
}

func (m *MockReviewRepository) AggregateForRecipient(ctx context.Context, recipientID string) (*entity.RatingAggregate, error) {
	args := m.Called(ctx, recipientID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.RatingAggregate), args.Error(1)
}

func (m *MockReviewRepository) AggregateGlobal(ctx context.Context) (*entity.GlobalStatsAggregate, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.GlobalStatsAggregate), args.Error(1)
}

// MockJobRepository мок для JobRepository
type MockJobRepository struct {
	mock.Mock
}

func (m *MockJobRepository) GetByID(ctx context.Context, id string) (*entity.Job, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.Job), args.Error(1)
}

// MockUserRepository мок для UserRepository
type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) GetByID(ctx context.Context, id string) (*entity.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.User), args.Error(1)
}

// MockStatsCache мок для StatsCache
type MockStatsCache struct {
	mock.Mock
}

func (m *MockStatsCache) GetGlobalStats(ctx context.Context) (*entity.GlobalStats, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.GlobalStats), args.Error(1)
}

func (m *MockStatsCache) SetGlobalStats(ctx context.Context, stats *entity.GlobalStats) error {
	args := m.Called(ctx, stats)
	return args.Error(0)
}

func (m *MockStatsCache) Invalidate(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

// MockNotifier мок для infrastructure.Notifier. Все уведомления складываются в Sent
type MockNotifier struct {
	mock.Mock
	Sent []entity.Notification
}

func (m *MockNotifier) Notify(ctx context.Context, n entity.Notification) {
	m.Sent = append(m.Sent, n)
	m.Called(ctx, n)
}

func (m *MockNotifier) Close() error {
	args := m.Called()
	return args.Error(0)
}

// MockMessagePublisher мок для Kafka MessagePublisher
type MockMessagePublisher struct {
	mock.Mock
	Messages [][]byte
}

func (m *MockMessagePublisher) PublishMessage(ctx context.Context, key string, value []byte) error {
	m.Messages = append(m.Messages, value)
	args := m.Called(ctx, key, value)
	return args.Error(0)
}

func (m *MockMessagePublisher) Close() error {
	args := m.Called()
	return args.Error(0)
}
