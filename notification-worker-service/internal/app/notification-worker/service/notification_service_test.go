package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"gigboard/notification-worker-service/internal/app/notification-worker/entity"
	"gigboard/notification-worker-service/internal/app/notification-worker/repository"
	"gigboard/notification-worker-service/internal/app/notification-worker/repository/mocks"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func newEvent(email string) *entity.NotificationEvent {
	return &entity.NotificationEvent{
		EventID:        uuid.NewString(),
		EventType:      entity.EventNotificationRequested,
		RecipientID:    "freelancer-1",
		RecipientEmail: email,
		Kind:           "review_received",
		Title:          "New review",
		Message:        "You received a 5-star review",
		Data:           map[string]string{"review_id": "r-1", "job_id": "j-1"},
		Timestamp:      time.Now(),
	}
}

type fixture struct {
	repo   *mocks.MockNotificationRepository
	dedup  *mocks.MockDedupStore
	sender *mocks.MockEmailSender
	svc    *NotificationService
}

func newFixture() *fixture {
	f := &fixture{
		repo:   new(mocks.MockNotificationRepository),
		dedup:  new(mocks.MockDedupStore),
		sender: new(mocks.MockEmailSender),
	}
	f.svc = NewNotificationService(f.repo, f.dedup, f.sender, 3, 50)
	return f
}

func (f *fixture) assertAll(t *testing.T) {
	f.repo.AssertExpectations(t)
	f.dedup.AssertExpectations(t)
	f.sender.AssertExpectations(t)
}

func TestProcess_StoresAndSendsEmail(t *testing.T) {
	f := newFixture()
	event := newEvent("f@example.com")

	f.dedup.On("Acquire", mock.Anything, event.EventID, event.RecipientID).Return(true, nil)
	f.repo.On("Create", mock.Anything, mock.MatchedBy(func(n *entity.Notification) bool {
		return n.EventID == event.EventID &&
			n.RecipientID == "freelancer-1" &&
			n.EmailStatus == entity.EmailStatusPending &&
			n.Data["review_id"] == "r-1"
	})).Return(nil)
	f.sender.On("Send", mock.Anything, "f@example.com", "New review", "You received a 5-star review").Return(nil)
	f.repo.On("UpdateEmailStatus", mock.Anything, mock.Anything, entity.EmailStatusSent, 1, "").Return(nil)

	err := f.svc.Process(context.Background(), event)

	require.NoError(t, err)
	f.assertAll(t)
}

func TestProcess_WithoutEmailIsSkipped(t *testing.T) {
	f := newFixture()
	event := newEvent("")

	f.dedup.On("Acquire", mock.Anything, event.EventID, event.RecipientID).Return(true, nil)
	f.repo.On("Create", mock.Anything, mock.MatchedBy(func(n *entity.Notification) bool {
		return n.EmailStatus == entity.EmailStatusSkipped
	})).Return(nil)

	err := f.svc.Process(context.Background(), event)

	require.NoError(t, err)
	f.sender.AssertNotCalled(t, "Send", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	f.repo.AssertNotCalled(t, "UpdateEmailStatus", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestProcess_NoSenderConfigured(t *testing.T) {
	repo := new(mocks.MockNotificationRepository)
	dedup := new(mocks.MockDedupStore)
	svc := NewNotificationService(repo, dedup, nil, 3, 50)
	event := newEvent("f@example.com")

	dedup.On("Acquire", mock.Anything, event.EventID, event.RecipientID).Return(true, nil)
	repo.On("Create", mock.Anything, mock.MatchedBy(func(n *entity.Notification) bool {
		return n.EmailStatus == entity.EmailStatusSkipped && n.RecipientEmail == "f@example.com"
	})).Return(nil)

	require.NoError(t, svc.Process(context.Background(), event))
	repo.AssertExpectations(t)
}

func TestProcess_DuplicateDeliverySkipped(t *testing.T) {
	f := newFixture()
	event := newEvent("f@example.com")

	f.dedup.On("Acquire", mock.Anything, event.EventID, event.RecipientID).Return(false, nil)

	err := f.svc.Process(context.Background(), event)

	require.NoError(t, err)
	f.repo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	f.sender.AssertNotCalled(t, "Send", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestProcess_AlreadyStoredInDatabase(t *testing.T) {
	f := newFixture()
	event := newEvent("f@example.com")

	f.dedup.On("Acquire", mock.Anything, event.EventID, event.RecipientID).Return(true, nil)
	f.repo.On("Create", mock.Anything, mock.Anything).Return(repository.ErrDuplicateNotification)

	err := f.svc.Process(context.Background(), event)

	require.NoError(t, err)
	f.sender.AssertNotCalled(t, "Send", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	f.dedup.AssertNotCalled(t, "Release", mock.Anything, mock.Anything, mock.Anything)
}

func TestProcess_StoreFailureReleasesDedupeKey(t *testing.T) {
	f := newFixture()
	event := newEvent("f@example.com")

	f.dedup.On("Acquire", mock.Anything, event.EventID, event.RecipientID).Return(true, nil)
	f.repo.On("Create", mock.Anything, mock.Anything).Return(errors.New("connection reset"))
	f.dedup.On("Release", mock.Anything, event.EventID, event.RecipientID).Return(nil)

	err := f.svc.Process(context.Background(), event)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "connection reset")
	f.assertAll(t)
}

func TestProcess_DedupeStoreDownFallsBackToDatabase(t *testing.T) {
	f := newFixture()
	event := newEvent("")

	f.dedup.On("Acquire", mock.Anything, event.EventID, event.RecipientID).Return(false, errors.New("redis down"))
	f.repo.On("Create", mock.Anything, mock.Anything).Return(errors.New("db down"))

	err := f.svc.Process(context.Background(), event)

	require.Error(t, err)
	// ключ не был взят, освобождать нечего
	f.dedup.AssertNotCalled(t, "Release", mock.Anything, mock.Anything, mock.Anything)
}

func TestProcess_EmailFailureDoesNotFailProcessing(t *testing.T) {
	f := newFixture()
	event := newEvent("f@example.com")

	f.dedup.On("Acquire", mock.Anything, event.EventID, event.RecipientID).Return(true, nil)
	f.repo.On("Create", mock.Anything, mock.Anything).Return(nil)
	f.sender.On("Send", mock.Anything, "f@example.com", mock.Anything, mock.Anything).Return(errors.New("550 mailbox unavailable"))
	f.repo.On("UpdateEmailStatus", mock.Anything, mock.Anything, entity.EmailStatusFailed, 1, mock.MatchedBy(func(msg string) bool {
		return msg == "550 mailbox unavailable"
	})).Return(nil)

	err := f.svc.Process(context.Background(), event)

	require.NoError(t, err)
	f.assertAll(t)
}

func TestProcess_InvalidEvents(t *testing.T) {
	tests := []struct {
		name  string
		event *entity.NotificationEvent
	}{
		{"nil", nil},
		{"wrong type", func() *entity.NotificationEvent { e := newEvent(""); e.EventType = "ORDER_CREATED"; return e }()},
		{"no event id", func() *entity.NotificationEvent { e := newEvent(""); e.EventID = ""; return e }()},
		{"no recipient", func() *entity.NotificationEvent { e := newEvent(""); e.RecipientID = ""; return e }()},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture()

			err := f.svc.Process(context.Background(), tt.event)

			assert.ErrorIs(t, err, ErrInvalidEvent)
			f.dedup.AssertNotCalled(t, "Acquire", mock.Anything, mock.Anything, mock.Anything)
		})
	}
}

func TestRetryFailedEmails(t *testing.T) {
	f := newFixture()
	first := entity.Notification{ID: uuid.New(), RecipientEmail: "a@example.com", Title: "t", Message: "m", EmailStatus: entity.EmailStatusFailed, EmailAttempts: 1}
	second := entity.Notification{ID: uuid.New(), RecipientEmail: "b@example.com", Title: "t", Message: "m", EmailStatus: entity.EmailStatusFailed, EmailAttempts: 2}

	f.repo.On("ListFailedEmails", mock.Anything, 3, 50).Return([]entity.Notification{first, second}, nil)
	f.sender.On("Send", mock.Anything, "a@example.com", "t", "m").Return(nil)
	f.sender.On("Send", mock.Anything, "b@example.com", "t", "m").Return(errors.New("timeout"))
	f.repo.On("UpdateEmailStatus", mock.Anything, first.ID, entity.EmailStatusSent, 2, "").Return(nil)
	f.repo.On("UpdateEmailStatus", mock.Anything, second.ID, entity.EmailStatusFailed, 3, "timeout").Return(nil)

	sent, err := f.svc.RetryFailedEmails(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 1, sent)
	f.assertAll(t)
}

func TestRetryFailedEmails_ListError(t *testing.T) {
	f := newFixture()
	f.repo.On("ListFailedEmails", mock.Anything, 3, 50).Return(nil, errors.New("db down"))

	sent, err := f.svc.RetryFailedEmails(context.Background())

	assert.Error(t, err)
	assert.Zero(t, sent)
}

func TestRetryFailedEmails_NoSender(t *testing.T) {
	repo := new(mocks.MockNotificationRepository)
	svc := NewNotificationService(repo, new(mocks.MockDedupStore), nil, 3, 50)

	sent, err := svc.RetryFailedEmails(context.Background())

	assert.NoError(t, err)
	assert.Zero(t, sent)
	repo.AssertNotCalled(t, "ListFailedEmails", mock.Anything, mock.Anything, mock.Anything)
}
