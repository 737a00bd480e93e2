package service

import (
	"context"
	"fmt"

	"gigboard/notification-worker-service/internal/app/notification-worker/config"

	"golang.org/x/time/rate"
	"gopkg.in/gomail.v2"
)

// SMTPEmailSender отправляет письма через SMTP. Каждое письмо - отдельное соединение
type SMTPEmailSender struct {
	dialer *gomail.Dialer
	from   string
}

func NewSMTPEmailSender(cfg config.SMTPConfig) *SMTPEmailSender {
	return &SMTPEmailSender{
		dialer: gomail.NewDialer(cfg.Host, cfg.Port, cfg.User, cfg.Password),
		from:   cfg.From,
	}
}

func (s *SMTPEmailSender) Send(ctx context.Context, to, subject, body string) error {
	// gomail не принимает контекст, поэтому проверяем его до соединения
	if err := ctx.Err(); err != nil {
		return err
	}

	m := gomail.NewMessage()
	m.SetHeader("From", s.from)
	m.SetHeader("To", to)
	m.SetHeader("Subject", subject)
	m.SetBody("text/plain", body)

	if err := s.dialer.DialAndSend(m); err != nil {
		return fmt.Errorf("smtp send to %s: %w", to, err)
	}
	return nil
}

// RateLimitedSender не даёт превысить лимит SMTP сервера
type RateLimitedSender struct {
	next    EmailSender
	limiter *rate.Limiter
}

func NewRateLimitedSender(next EmailSender, perSecond float64, burst int) *RateLimitedSender {
	if burst < 1 {
		burst = 1
	}
	return &RateLimitedSender{
		next:    next,
		limiter: rate.NewLimiter(rate.Limit(perSecond), burst),
	}
}

func (s *RateLimitedSender) Send(ctx context.Context, to, subject, body string) error {
	if err := s.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("email rate limit wait: %w", err)
	}
	return s.next.Send(ctx, to, subject, body)
}
