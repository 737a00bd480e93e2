package messaging

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"gigboard/pkg/logger"
	"gigboard/reviews-service/internal/app/reviews/entity"
	"gigboard/reviews-service/internal/app/reviews/infrastructure"

	"github.com/google/uuid"
)

// KafkaNotifier публикует NOTIFICATION_REQUESTED в фоне. Запрос, вызвавший уведомление,
// его не ждёт; отмена контекста запроса не прерывает отправку
type KafkaNotifier struct {
	publisher infrastructure.MessagePublisher
	users     infrastructure.UserLookup
	timeout   time.Duration
	wg        sync.WaitGroup
}

func NewKafkaNotifier(publisher infrastructure.MessagePublisher, users infrastructure.UserLookup, timeout time.Duration) *KafkaNotifier {
	return &KafkaNotifier{
		publisher: publisher,
		users:     users,
		timeout:   timeout,
	}
}

func (n *KafkaNotifier) Notify(ctx context.Context, notification entity.Notification) {
	n.wg.Add(1)
	go func() {
		defer n.wg.Done()

		dispatchCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), n.timeout)
		defer cancel()

		if err := n.dispatch(dispatchCtx, notification); err != nil {
			logger.Error().
				Err(err).
				Str("recipient_id", notification.RecipientID).
				Str("kind", string(notification.Kind)).
				Msg("Failed to dispatch notification")
		}
	}()
}

func (n *KafkaNotifier) dispatch(ctx context.Context, notification entity.Notification) error {
	event := entity.NotificationEvent{
		EventID:     uuid.NewString(),
		EventType:   entity.EventNotificationRequested,
		RecipientID: notification.RecipientID,
		Kind:        notification.Kind,
		Title:       notification.Title,
		Message:     notification.Message,
		Data:        notification.Data,
		Timestamp:   time.Now().UTC(),
	}

	// без email уведомление всё равно попадёт во входящие
	if n.users != nil {
		user, err := n.users.GetByID(ctx, notification.RecipientID)
		if err != nil {
			logger.Warn().Err(err).Str("recipient_id", notification.RecipientID).Msg("Failed to look up notification recipient")
		} else if user.IsActive {
			event.RecipientEmail = user.Email
		}
	}

	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal notification event: %w", err)
	}

	if err := n.publisher.PublishMessage(ctx, event.RecipientID, payload); err != nil {
		return fmt.Errorf("failed to publish notification event: %w", err)
	}

	logger.Debug().
		Str("event_id", event.EventID).
		Str("recipient_id", event.RecipientID).
		Str("kind", string(event.Kind)).
		Msg("Notification event published")

	return nil
}

// Close дожидается отправки уже поставленных уведомлений
func (n *KafkaNotifier) Close() error {
	n.wg.Wait()
	return nil
}

// NopNotifier используется там, где уведомления не нужны (reviewsctl)
type NopNotifier struct{}

func (NopNotifier) Notify(context.Context, entity.Notification) {}

func (NopNotifier) Close() error { return nil }
