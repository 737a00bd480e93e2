package processor

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestNewCronScheduler(t *testing.T) {
	svc := new(MockNotificationService)

	scheduler := NewCronScheduler(svc)

	assert.NotNil(t, scheduler.cron)
	assert.Equal(t, svc, scheduler.svc)
}

func TestCronScheduler_Start_RegistersJob(t *testing.T) {
	scheduler := NewCronScheduler(new(MockNotificationService))

	require.NoError(t, scheduler.Start(context.Background(), "*/5 * * * *"))
	defer scheduler.Stop()

	assert.Len(t, scheduler.GetEntries(), 1)
}

func TestCronScheduler_Start_RejectsSixFieldSchedule(t *testing.T) {
	scheduler := NewCronScheduler(new(MockNotificationService))

	err := scheduler.Start(context.Background(), "0 */30 * * * *")

	assert.Error(t, err)
	assert.Empty(t, scheduler.GetEntries())
}

func TestCronScheduler_RetryEmails(t *testing.T) {
	svc := new(MockNotificationService)
	svc.On("RetryFailedEmails", mock.Anything).Return(2, nil).Once()
	svc.On("RetryFailedEmails", mock.Anything).Return(0, errors.New("db down")).Once()

	scheduler := NewCronScheduler(svc)

	// ошибка только логируется, следующий запуск не ломается
	scheduler.retryEmails(context.Background())
	scheduler.retryEmails(context.Background())

	svc.AssertNumberOfCalls(t, "RetryFailedEmails", 2)
}

func TestCronScheduler_JobRunsOnEntry(t *testing.T) {
	svc := new(MockNotificationService)
	svc.On("RetryFailedEmails", mock.Anything).Return(0, nil)

	scheduler := NewCronScheduler(svc)
	require.NoError(t, scheduler.Start(context.Background(), "@every 1h"))
	defer scheduler.Stop()

	entries := scheduler.GetEntries()
	require.Len(t, entries, 1)
	entries[0].Job.Run()

	svc.AssertCalled(t, "RetryFailedEmails", mock.Anything)
}
