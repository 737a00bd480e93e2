package entity

import (
	"time"

	"github.com/google/uuid"
)

const EventNotificationRequested = "NOTIFICATION_REQUESTED"

type EmailStatus string

const (
	EmailStatusPending EmailStatus = "pending"
	EmailStatusSent    EmailStatus = "sent"
	EmailStatusFailed  EmailStatus = "failed"
	EmailStatusSkipped EmailStatus = "skipped" // у получателя нет email
)

// Notification - запись во входящих пользователя. Пара (event_id, recipient_id) уникальна
type Notification struct {
	ID             uuid.UUID         `json:"id" gorm:"type:uuid;primaryKey"`
	EventID        string            `json:"event_id" gorm:"type:varchar(64);not null;uniqueIndex:idx_notifications_event_recipient"`
	RecipientID    string            `json:"recipient_id" gorm:"type:varchar(64);not null;uniqueIndex:idx_notifications_event_recipient;index"`
	RecipientEmail string            `json:"recipient_email,omitempty" gorm:"type:varchar(255)"`
	Kind           string            `json:"kind" gorm:"type:varchar(50);not null"`
	Title          string            `json:"title" gorm:"type:varchar(255);not null"`
	Message        string            `json:"message" gorm:"type:text"`
	Data           map[string]string `json:"data,omitempty" gorm:"type:jsonb;serializer:json"`
	IsRead         bool              `json:"is_read" gorm:"not null"`
	EmailStatus    EmailStatus       `json:"email_status" gorm:"type:varchar(20);not null;index"`
	EmailAttempts  int               `json:"email_attempts" gorm:"not null"`
	LastError      string            `json:"last_error,omitempty" gorm:"type:text"`
	OccurredAt     time.Time         `json:"occurred_at"`
	CreatedAt      time.Time         `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt      time.Time         `json:"updated_at" gorm:"autoUpdateTime"`
}

func (Notification) TableName() string {
	return "notifications"
}

// NotificationEvent - сообщение из топика review_notifications
type NotificationEvent struct {
	EventID        string            `json:"event_id"`
	EventType      string            `json:"event_type"`
	RecipientID    string            `json:"recipient_id"`
	RecipientEmail string            `json:"recipient_email,omitempty"`
	Kind           string            `json:"kind"`
	Title          string            `json:"title"`
	Message        string            `json:"message"`
	Data           map[string]string `json:"data,omitempty"`
	Timestamp      time.Time         `json:"timestamp"`
}

// ToNotification строит запись для входящих. Статус письма выставляет сервис
func (e *NotificationEvent) ToNotification() *Notification {
	return &Notification{
		ID:             uuid.New(),
		EventID:        e.EventID,
		RecipientID:    e.RecipientID,
		RecipientEmail: e.RecipientEmail,
		Kind:           e.Kind,
		Title:          e.Title,
		Message:        e.Message,
		Data:           e.Data,
		EmailStatus:    EmailStatusPending,
		OccurredAt:     e.Timestamp,
	}
}

const RedisKeyPrefixEvent = "notification:event:"

func GetDedupeKey(eventID, recipientID string) string {
	return RedisKeyPrefixEvent + eventID + ":" + recipientID
}
