package service

import (
	"context"

	"gigboard/notification-worker-service/internal/app/notification-worker/entity"
)

// NotificationServiceInterface - обработка событий NOTIFICATION_REQUESTED
type NotificationServiceInterface interface {
	// Process сохраняет уведомление во входящие и отправляет письмо.
	// Ошибка означает, что сообщение нужно прочитать из Kafka ещё раз
	Process(ctx context.Context, event *entity.NotificationEvent) error
	// RetryFailedEmails повторяет неотправленные письма, возвращает число успешных
	RetryFailedEmails(ctx context.Context) (int, error)
}

type EmailSender interface {
	Send(ctx context.Context, to, subject, body string) error
}

var _ NotificationServiceInterface = (*NotificationService)(nil)
