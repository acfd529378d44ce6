package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/unishare/unishare-api/internal/models"
)

// NotificationRepository provides database access for in-app notifications
// and the delivery outbox.
type NotificationRepository struct {
	db *sqlx.DB
}

// NewNotificationRepository creates a new instance of NotificationRepository.
func NewNotificationRepository(db *sqlx.DB) *NotificationRepository {
	return &NotificationRepository{db: db}
}

// Create inserts an in-app notification row.
func (r *NotificationRepository) Create(ctx context.Context, n *models.Notification) error {
	if n.ID == "" {
		n.ID = uuid.NewString()
	}
	if n.CreatedAt.IsZero() {
		n.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO notifications (id, recipient_id, type, title, message, link, read, created_at) VALUES (:id, :recipient_id, :type, :title, :message, :link, :read, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, n); err != nil {
		return fmt.Errorf("create notification: %w", err)
	}
	return nil
}

// ListByRecipient returns a recipient's notifications, newest first.
func (r *NotificationRepository) ListByRecipient(ctx context.Context, recipientID string, unreadOnly bool, limit int) ([]models.Notification, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	query := `SELECT id, recipient_id, type, title, message, link, read, created_at FROM notifications WHERE recipient_id = $1`
	if unreadOnly {
		query += ` AND read = false`
	}
	query += fmt.Sprintf(` ORDER BY created_at DESC LIMIT %d`, limit)

	var notifications []models.Notification
	if err := r.db.SelectContext(ctx, &notifications, query, recipientID); err != nil {
		return nil, fmt.Errorf("list notifications: %w", err)
	}
	return notifications, nil
}

// CountUnread returns the recipient's unread count.
func (r *NotificationRepository) CountUnread(ctx context.Context, recipientID string) (int, error) {
	const query = `SELECT COUNT(*) FROM notifications WHERE recipient_id = $1 AND read = false`
	var count int
	if err := r.db.GetContext(ctx, &count, query, recipientID); err != nil {
		return 0, fmt.Errorf("count unread notifications: %w", err)
	}
	return count, nil
}

// MarkRead flags a single notification as read, scoped to the recipient so
// one user cannot clear another's notifications.
func (r *NotificationRepository) MarkRead(ctx context.Context, id, recipientID string) error {
	const query = `UPDATE notifications SET read = true WHERE id = $1 AND recipient_id = $2`
	if _, err := r.db.ExecContext(ctx, query, id, recipientID); err != nil {
		return fmt.Errorf("mark notification read: %w", err)
	}
	return nil
}

// MarkAllRead flags every notification for the recipient as read.
func (r *NotificationRepository) MarkAllRead(ctx context.Context, recipientID string) error {
	const query = `UPDATE notifications SET read = true WHERE recipient_id = $1 AND read = false`
	if _, err := r.db.ExecContext(ctx, query, recipientID); err != nil {
		return fmt.Errorf("mark all notifications read: %w", err)
	}
	return nil
}

// CreateOutboxEntry persists a pending side effect.
func (r *NotificationRepository) CreateOutboxEntry(ctx context.Context, entry *models.OutboxEntry) error {
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO outbox_entries (id, channel, recipient_id, type, title, message, link, attempts, delivered, created_at) VALUES (:id, :channel, :recipient_id, :type, :title, :message, :link, :attempts, :delivered, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, entry); err != nil {
		return fmt.Errorf("create outbox entry: %w", err)
	}
	return nil
}

// ListPendingOutbox returns undelivered entries, oldest first, for startup
// recovery after a crash between the write and the enqueue.
func (r *NotificationRepository) ListPendingOutbox(ctx context.Context, limit int) ([]models.OutboxEntry, error) {
	if limit <= 0 {
		limit = 100
	}
	query := fmt.Sprintf(`SELECT id, channel, recipient_id, type, title, message, link, attempts, delivered, delivered_at, last_error, created_at FROM outbox_entries WHERE delivered = false ORDER BY created_at ASC LIMIT %d`, limit)
	var entries []models.OutboxEntry
	if err := r.db.SelectContext(ctx, &entries, query); err != nil {
		return nil, fmt.Errorf("list pending outbox entries: %w", err)
	}
	return entries, nil
}

// MarkOutboxDelivered records a successful delivery.
func (r *NotificationRepository) MarkOutboxDelivered(ctx context.Context, id string) error {
	const query = `UPDATE outbox_entries SET delivered = true, delivered_at = $2, attempts = attempts + 1 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, time.Now().UTC()); err != nil {
		return fmt.Errorf("mark outbox entry delivered: %w", err)
	}
	return nil
}

// MarkOutboxFailed records a failed delivery attempt.
func (r *NotificationRepository) MarkOutboxFailed(ctx context.Context, id string, lastError string) error {
	const query = `UPDATE outbox_entries SET attempts = attempts + 1, last_error = $2 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, lastError); err != nil {
		return fmt.Errorf("mark outbox entry failed: %w", err)
	}
	return nil
}
