package entity

import "time"

type NotificationKind string

const (
	NotificationReviewReceived  NotificationKind = "review_received"
	NotificationReviewDeleted   NotificationKind = "review_deleted"
	NotificationReportDismissed NotificationKind = "report_dismissed"
	NotificationReviewHidden    NotificationKind = "review_hidden"
)

const EventNotificationRequested = "NOTIFICATION_REQUESTED"

// Notification - то, что сервис отзывов просит доставить пользователю
type Notification struct {
	RecipientID string
	Kind        NotificationKind
	Title       string
	Message     string
	Data        map[string]string
}

// NotificationEvent - сообщение в топике review_notifications, ключ = recipient_id
type NotificationEvent struct {
	EventID        string            `json:"event_id"`
	EventType      string            `json:"event_type"`
	RecipientID    string            `json:"recipient_id"`
	RecipientEmail string            `json:"recipient_email,omitempty"`
	Kind           NotificationKind  `json:"kind"`
	Title          string            `json:"title"`
	Message        string            `json:"message"`
	Data           map[string]string `json:"data,omitempty"`
	Timestamp      time.Time         `json:"timestamp"`
}
