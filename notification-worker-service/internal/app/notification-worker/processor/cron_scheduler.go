package processor

import (
	"context"

	"gigboard/notification-worker-service/internal/app/notification-worker/service"
	"gigboard/pkg/logger"

	"github.com/robfig/cron/v3"
)

// CronScheduler периодически повторяет письма, которые не удалось отправить
type CronScheduler struct {
	cron *cron.Cron
	svc  service.NotificationServiceInterface
}

func NewCronScheduler(svc service.NotificationServiceInterface) *CronScheduler {
	cronLogger := cron.PrintfLogger(logger.Get())
	c := cron.New(
		cron.WithLogger(cronLogger),
		cron.WithChain(cron.Recover(cronLogger), cron.SkipIfStillRunning(cronLogger)),
	)

	return &CronScheduler{
		cron: c,
		svc:  svc,
	}
}

// Start регистрирует задачу по расписанию из 5 полей (минуты ... дни недели)
func (s *CronScheduler) Start(ctx context.Context, schedule string) error {
	_, err := s.cron.AddFunc(schedule, func() {
		s.retryEmails(ctx)
	})
	if err != nil {
		return err
	}

	s.cron.Start()
	logger.Info().Str("schedule", schedule).Msg("Cron scheduler started")

	return nil
}

func (s *CronScheduler) retryEmails(ctx context.Context) {
	sent, err := s.svc.RetryFailedEmails(ctx)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to retry notification emails")
		return
	}
	logger.Debug().Int("sent", sent).Msg("Email retry job completed")
}

func (s *CronScheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	logger.Info().Msg("Cron scheduler stopped")
}

func (s *CronScheduler) GetEntries() []cron.Entry {
	return s.cron.Entries()
}
