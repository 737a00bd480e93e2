package mocks

import (
	"context"

	"gigboard/notification-worker-service/internal/app/notification-worker/entity"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

// MockNotificationRepository мок для NotificationRepository
type MockNotificationRepository struct {
	mock.Mock
}

func (m *MockNotificationRepository) Create(ctx context.Context, notification *entity.Notification) error {
	args := m.Called(ctx, notification)
	return args.Error(0)
}

func (m *MockNotificationRepository) UpdateEmailStatus(ctx context.Context, id uuid.UUID, status entity.EmailStatus, attempts int, lastError string) error {
	args := m.Called(ctx, id, status, attempts, lastError)
	return args.Error(0)
}

func (m *MockNotificationRepository) ListFailedEmails(ctx context.Context, maxAttempts, limit int) ([]entity.Notification, error) {
	args := m.Called(ctx, maxAttempts, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]entity.Notification), args.Error(1)
}

// MockDedupStore мок для DedupStore
type MockDedupStore struct {
	mock.Mock
}

func (m *MockDedupStore) Acquire(ctx context.Context, eventID, recipientID string) (bool, error) {
	args := m.Called(ctx, eventID, recipientID)
	return args.Bool(0), args.Error(1)
}

func (m *MockDedupStore) Release(ctx context.Context, eventID, recipientID string) error {
	args := m.Called(ctx, eventID, recipientID)
	return args.Error(0)
}

func (m *MockDedupStore) Ping(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

// MockEmailSender мок для service.EmailSender
type MockEmailSender struct {
	mock.Mock
}

func (m *MockEmailSender) Send(ctx context.Context, to, subject, body string) error {
	args := m.Called(ctx, to, subject, body)
	return args.Error(0)
}
