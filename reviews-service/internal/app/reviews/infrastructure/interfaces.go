package infrastructure

import (
	"context"

	"gigboard/reviews-service/internal/app/reviews/entity"
)

// MessagePublisher интерфейс для отправки сообщений в очередь (Kafka)
type MessagePublisher interface {
	PublishMessage(ctx context.Context, key string, value []byte) error
	Close() error
}

// Notifier доставляет уведомления пользователям. Notify не блокирует вызывающего
// и не возвращает ошибок: сбои доставки только логируются
type Notifier interface {
	Notify(ctx context.Context, n entity.Notification)
	Close() error
}

// UserLookup нужен нотификатору, чтобы приложить email получателя к событию
type UserLookup interface {
	GetByID(ctx context.Context, id string) (*entity.User, error)
}
