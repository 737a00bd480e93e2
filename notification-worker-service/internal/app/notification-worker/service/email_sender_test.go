package service

import (
	"context"
	"testing"
	"time"

	"gigboard/notification-worker-service/internal/app/notification-worker/config"
	"gigboard/notification-worker-service/internal/app/notification-worker/repository/mocks"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestRateLimitedSender_Delegates(t *testing.T) {
	next := new(mocks.MockEmailSender)
	next.On("Send", mock.Anything, "a@example.com", "subject", "body").Return(nil)

	sender := NewRateLimitedSender(next, 100, 1)

	require.NoError(t, sender.Send(context.Background(), "a@example.com", "subject", "body"))
	next.AssertExpectations(t)
}

func TestRateLimitedSender_WaitsForToken(t *testing.T) {
	next := new(mocks.MockEmailSender)
	next.On("Send", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil)

	// 1 письмо в секунду: второе письмо не успеет за 100ms
	sender := NewRateLimitedSender(next, 1, 1)
	require.NoError(t, sender.Send(context.Background(), "a@example.com", "s", "b"))

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	err := sender.Send(ctx, "b@example.com", "s", "b")

	assert.Error(t, err)
	next.AssertNumberOfCalls(t, "Send", 1)
}

func TestSMTPEmailSender_CancelledContext(t *testing.T) {
	sender := NewSMTPEmailSender(config.SMTPConfig{Host: "127.0.0.1", Port: 1, From: "no-reply@example.com"})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := sender.Send(ctx, "a@example.com", "s", "b")
	assert.ErrorIs(t, err, context.Canceled)
}
