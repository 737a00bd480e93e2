package repository

import (
	"context"

	"gigboard/notification-worker-service/internal/app/notification-worker/entity"

	"github.com/google/uuid"
)

// NotificationRepository - входящие уведомления в PostgreSQL
type NotificationRepository interface {
	// Create возвращает ErrDuplicateNotification, если пара (event_id, recipient_id) уже есть
	Create(ctx context.Context, notification *entity.Notification) error

	UpdateEmailStatus(ctx context.Context, id uuid.UUID, status entity.EmailStatus, attempts int, lastError string) error

	// ListFailedEmails - письма со статусом failed, которые ещё можно повторить
	ListFailedEmails(ctx context.Context, maxAttempts, limit int) ([]entity.Notification, error)
}

// DedupStore помнит уже принятые события, чтобы повторная доставка из Kafka не дублировала работу
type DedupStore interface {
	// Acquire возвращает false, если событие уже взято в обработку
	Acquire(ctx context.Context, eventID, recipientID string) (bool, error)
	Release(ctx context.Context, eventID, recipientID string) error
	Ping(ctx context.Context) error
}
