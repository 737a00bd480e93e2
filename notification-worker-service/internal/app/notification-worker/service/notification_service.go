package service

import (
	"context"
	"errors"
	"fmt"

	"gigboard/notification-worker-service/internal/app/notification-worker/entity"
	"gigboard/notification-worker-service/internal/app/notification-worker/repository"
	"gigboard/pkg/logger"
	"gigboard/pkg/metrics"
)

// ErrInvalidEvent - событие нельзя обработать ни с какой попытки
var ErrInvalidEvent = errors.New("invalid notification event")

const (
	statusStored    = "stored"
	statusDuplicate = "duplicate"
	statusFailed    = "failed"
	statusInvalid   = "invalid"
)

type NotificationService struct {
	repo        repository.NotificationRepository
	dedup       repository.DedupStore
	sender      EmailSender // nil - SMTP не настроен
	maxAttempts int
	retryBatch  int
}

func NewNotificationService(
	repo repository.NotificationRepository,
	dedup repository.DedupStore,
	sender EmailSender,
	maxAttempts int,
	retryBatch int,
) *NotificationService {
	return &NotificationService{
		repo:        repo,
		dedup:       dedup,
		sender:      sender,
		maxAttempts: maxAttempts,
		retryBatch:  retryBatch,
	}
}

func (s *NotificationService) Process(ctx context.Context, event *entity.NotificationEvent) error {
	timer := metrics.NewTimer()

	if err := validateEvent(event); err != nil {
		metrics.RecordNotificationProcessed(statusInvalid, timer.Duration())
		return err
	}

	log := logger.With().
		Str("event_id", event.EventID).
		Str("recipient_id", event.RecipientID).
		Str("kind", event.Kind).
		Logger()

	// Redis только отсекает повторы заранее, окончательно дубли ловит уникальный ключ в PostgreSQL
	acquired := true
	ok, err := s.dedup.Acquire(ctx, event.EventID, event.RecipientID)
	switch {
	case err != nil:
		log.Warn().Err(err).Msg("Dedupe store unavailable, relying on database constraint")
		acquired = false
	case !ok:
		log.Debug().Msg("Notification event already processed")
		metrics.RecordNotificationProcessed(statusDuplicate, timer.Duration())
		return nil
	}

	notification := event.ToNotification()
	if notification.RecipientEmail == "" || s.sender == nil {
		notification.EmailStatus = entity.EmailStatusSkipped
	}

	if err := s.repo.Create(ctx, notification); err != nil {
		if errors.Is(err, repository.ErrDuplicateNotification) {
			log.Debug().Msg("Notification already stored")
			metrics.RecordNotificationProcessed(statusDuplicate, timer.Duration())
			return nil
		}

		if acquired {
			if releaseErr := s.dedup.Release(ctx, event.EventID, event.RecipientID); releaseErr != nil {
				log.Error().Err(releaseErr).Msg("Failed to release dedupe key")
			}
		}
		metrics.RecordNotificationProcessed(statusFailed, timer.Duration())
		return fmt.Errorf("failed to store notification: %w", err)
	}

	if notification.EmailStatus == entity.EmailStatusSkipped {
		metrics.RecordNotificationEmail(string(entity.EmailStatusSkipped))
	} else {
		s.deliver(ctx, notification)
	}

	metrics.RecordNotificationProcessed(statusStored, timer.Duration())
	log.Info().
		Str("notification_id", notification.ID.String()).
		Str("email_status", string(notification.EmailStatus)).
		Msg("Notification stored")

	return nil
}

func (s *NotificationService) RetryFailedEmails(ctx context.Context) (int, error) {
	if s.sender == nil {
		return 0, nil
	}

	notifications, err := s.repo.ListFailedEmails(ctx, s.maxAttempts, s.retryBatch)
	if err != nil {
		return 0, err
	}

	sent := 0
	for i := range notifications {
		if ctx.Err() != nil {
			return sent, ctx.Err()
		}
		if s.deliver(ctx, &notifications[i]) {
			sent++
		}
	}

	if len(notifications) > 0 {
		logger.Info().
			Int("candidates", len(notifications)).
			Int("sent", sent).
			Msg("Retried failed notification emails")
	}

	return sent, nil
}

// deliver отправляет письмо и сохраняет результат. Ошибка письма не считается ошибкой обработки
func (s *NotificationService) deliver(ctx context.Context, n *entity.Notification) bool {
	attempts := n.EmailAttempts + 1
	status := entity.EmailStatusSent
	lastError := ""

	if err := s.sender.Send(ctx, n.RecipientEmail, n.Title, n.Message); err != nil {
		status = entity.EmailStatusFailed
		lastError = err.Error()
		logger.Warn().
			Err(err).
			Str("notification_id", n.ID.String()).
			Int("attempt", attempts).
			Msg("Failed to send notification email")
	}
	metrics.RecordNotificationEmail(string(status))

	if err := s.repo.UpdateEmailStatus(ctx, n.ID, status, attempts, lastError); err != nil {
		logger.Error().Err(err).Str("notification_id", n.ID.String()).Msg("Failed to save email status")
	}

	n.EmailStatus = status
	n.EmailAttempts = attempts
	n.LastError = lastError

	return status == entity.EmailStatusSent
}

func validateEvent(event *entity.NotificationEvent) error {
	switch {
	case event == nil:
		return fmt.Errorf("%w: empty event", ErrInvalidEvent)
	case event.EventType != entity.EventNotificationRequested:
		return fmt.Errorf("%w: unexpected event type %q", ErrInvalidEvent, event.EventType)
	case event.EventID == "":
		return fmt.Errorf("%w: event_id is required", ErrInvalidEvent)
	case event.RecipientID == "":
		return fmt.Errorf("%w: recipient_id is required", ErrInvalidEvent)
	}
	return nil
}
