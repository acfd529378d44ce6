package models

import "time"

// NotificationType labels the notification for client rendering.
type NotificationType string

const (
	NotificationTypeDocumentPending  NotificationType = "DOCUMENT_PENDING"
	NotificationTypeDocumentApproved NotificationType = "DOCUMENT_APPROVED"
	NotificationTypeDocumentRejected NotificationType = "DOCUMENT_REJECTED"
	NotificationTypeRequestApproved  NotificationType = "REQUEST_APPROVED"
	NotificationTypeRequestRejected  NotificationType = "REQUEST_REJECTED"
	NotificationTypeNewFollower      NotificationType = "NEW_FOLLOWER"
	NotificationTypeNewComment       NotificationType = "NEW_COMMENT"
	NotificationTypeGradeReceived    NotificationType = "GRADE_RECEIVED"
)

// Notification is an in-app message for a single recipient.
type Notification struct {
	ID          string           `db:"id" json:"id"`
	RecipientID string           `db:"recipient_id" json:"recipient_id"`
	Type        NotificationType `db:"type" json:"type"`
	Title       string           `db:"title" json:"title"`
	Message     string           `db:"message" json:"message"`
	Link        string           `db:"link" json:"link"`
	Read        bool             `db:"read" json:"read"`
	CreatedAt   time.Time        `db:"created_at" json:"created_at"`
}

// OutboxChannel selects the delivery mechanism for a side effect.
type OutboxChannel string

const (
	OutboxChannelNotification OutboxChannel = "NOTIFICATION"
	OutboxChannelEmail        OutboxChannel = "EMAIL"
)

// OutboxEntry is a persisted side effect awaiting delivery. Entries are
// written alongside the primary operation and drained by the outbox workers,
// so a delivery failure never rolls back the triggering write.
type OutboxEntry struct {
	ID          string           `db:"id" json:"id"`
	Channel     OutboxChannel    `db:"channel" json:"channel"`
	RecipientID string           `db:"recipient_id" json:"recipient_id"`
	Type        NotificationType `db:"type" json:"type"`
	Title       string           `db:"title" json:"title"`
	Message     string           `db:"message" json:"message"`
	Link        string           `db:"link" json:"link"`
	Attempts    int              `db:"attempts" json:"attempts"`
	Delivered   bool             `db:"delivered" json:"delivered"`
	DeliveredAt *time.Time       `db:"delivered_at" json:"delivered_at,omitempty"`
	LastError   *string          `db:"last_error" json:"last_error,omitempty"`
	CreatedAt   time.Time        `db:"created_at" json:"created_at"`
}
