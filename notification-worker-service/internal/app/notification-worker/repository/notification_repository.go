package repository

import (
	"context"
	"errors"
	"fmt"

	"gigboard/notification-worker-service/internal/app/notification-worker/entity"
	"gigboard/pkg/metrics"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

const (
	serviceName        = "notification-worker-service"
	notificationsTable = "notifications"
)

var (
	ErrDuplicateNotification = errors.New("notification already stored")
	ErrNotificationNotFound  = errors.New("notification not found")
)

type notificationRepository struct {
	db *gorm.DB
}

func NewNotificationRepository(db *gorm.DB) NotificationRepository {
	return &notificationRepository{db: db}
}

func (r *notificationRepository) Create(ctx context.Context, notification *entity.Notification) error {
	defer metrics.NewDbTimer(serviceName, metrics.DbOpInsert, notificationsTable).ObserveDuration()

	if err := r.db.WithContext(ctx).Create(notification).Error; err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicateNotification
		}
		metrics.RecordDbError(serviceName, metrics.DbOpInsert)
		return fmt.Errorf("failed to create notification: %w", err)
	}

	return nil
}

func (r *notificationRepository) UpdateEmailStatus(ctx context.Context, id uuid.UUID, status entity.EmailStatus, attempts int, lastError string) error {
	defer metrics.NewDbTimer(serviceName, metrics.DbOpUpdate, notificationsTable).ObserveDuration()

	result := r.db.WithContext(ctx).
		Model(&entity.Notification{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"email_status":   status,
			"email_attempts": attempts,
			"last_error":     lastError,
		})

	if result.Error != nil {
		metrics.RecordDbError(serviceName, metrics.DbOpUpdate)
		return fmt.Errorf("failed to update email status: %w", result.Error)
	}

	if result.RowsAffected == 0 {
		return fmt.Errorf("notification %s: %w", id, ErrNotificationNotFound)
	}

	return nil
}

func (r *notificationRepository) ListFailedEmails(ctx context.Context, maxAttempts, limit int) ([]entity.Notification, error) {
	defer metrics.NewDbTimer(serviceName, metrics.DbOpSelect, notificationsTable).ObserveDuration()

	var notifications []entity.Notification
	err := r.db.WithContext(ctx).
		Where("email_status = ? AND email_attempts < ?", entity.EmailStatusFailed, maxAttempts).
		Order("created_at").
		Limit(limit).
		Find(&notifications).Error
	if err != nil {
		metrics.RecordDbError(serviceName, metrics.DbOpSelect)
		return nil, fmt.Errorf("failed to list failed emails: %w", err)
	}

	return notifications, nil
}

// isUniqueViolation - 23505 от драйвера или уже переведённая gorm ошибка (TranslateError)
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return true
	}
	return errors.Is(err, gorm.ErrDuplicatedKey)
}
