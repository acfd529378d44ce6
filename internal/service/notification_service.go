package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/unishare/unishare-api/internal/models"
	appErrors "github.com/unishare/unishare-api/pkg/errors"
	"github.com/unishare/unishare-api/pkg/jobs"
	"github.com/unishare/unishare-api/pkg/mailer"
)

type notificationRepository interface {
	Create(ctx context.Context, n *models.Notification) error
	ListByRecipient(ctx context.Context, recipientID string, unreadOnly bool, limit int) ([]models.Notification, error)
	CountUnread(ctx context.Context, recipientID string) (int, error)
	MarkRead(ctx context.Context, id, recipientID string) error
	MarkAllRead(ctx context.Context, recipientID string) error
	CreateOutboxEntry(ctx context.Context, entry *models.OutboxEntry) error
	ListPendingOutbox(ctx context.Context, limit int) ([]models.OutboxEntry, error)
	MarkOutboxDelivered(ctx context.Context, id string) error
	MarkOutboxFailed(ctx context.Context, id string, lastError string) error
}

type outboxUserRepository interface {
	FindByID(ctx context.Context, id string) (*models.User, error)
}

// NotificationService serves in-app notifications and drains the side-effect
// outbox. Outbox rows are written by the primary operations and delivered
// here at-least-once; a delivery failure never affects the triggering write.
type NotificationService struct {
	repo   notificationRepository
	users  outboxUserRepository
	mailer mailer.Mailer
	queue  *jobs.Queue
	logger *zap.Logger

	emailEnabled bool
}

// NewNotificationService constructs the service and its delivery queue.
func NewNotificationService(repo notificationRepository, users outboxUserRepository, mail mailer.Mailer, queueCfg jobs.QueueConfig, emailEnabled bool, logger *zap.Logger) *NotificationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &NotificationService{
		repo:         repo,
		users:        users,
		mailer:       mail,
		logger:       logger,
		emailEnabled: emailEnabled,
	}
	queueCfg.Logger = logger
	s.queue = jobs.NewQueue("outbox", s.deliver, queueCfg)
	s.queue.OnExhausted = func(job jobs.Job, err error) {
		entry, ok := job.Payload.(models.OutboxEntry)
		if !ok {
			return
		}
		if markErr := s.repo.MarkOutboxFailed(context.Background(), entry.ID, err.Error()); markErr != nil {
			s.logger.Warn("failed to record exhausted outbox entry", zap.String("entry_id", entry.ID), zap.Error(markErr))
		}
	}
	return s
}

// Start launches the outbox workers.
func (s *NotificationService) Start(ctx context.Context) {
	s.queue.Start(ctx)
}

// Stop drains the outbox workers.
func (s *NotificationService) Stop() {
	s.queue.Stop()
}

// List returns the caller's notifications.
func (s *NotificationService) List(ctx context.Context, claims *models.JWTClaims, unreadOnly bool, limit int) ([]models.Notification, error) {
	if claims == nil || claims.UserID == "" {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "authentication required")
	}
	notifications, err := s.repo.ListByRecipient(ctx, claims.UserID, unreadOnly, limit)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list notifications")
	}
	return notifications, nil
}

// UnreadCount returns the caller's unread total.
func (s *NotificationService) UnreadCount(ctx context.Context, claims *models.JWTClaims) (int, error) {
	if claims == nil || claims.UserID == "" {
		return 0, appErrors.Clone(appErrors.ErrUnauthorized, "authentication required")
	}
	count, err := s.repo.CountUnread(ctx, claims.UserID)
	if err != nil {
		return 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count notifications")
	}
	return count, nil
}

// MarkRead flags one of the caller's notifications as read.
func (s *NotificationService) MarkRead(ctx context.Context, claims *models.JWTClaims, id string) error {
	if claims == nil || claims.UserID == "" {
		return appErrors.Clone(appErrors.ErrUnauthorized, "authentication required")
	}
	if err := s.repo.MarkRead(ctx, id, claims.UserID); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to mark notification read")
	}
	return nil
}

// MarkAllRead flags all of the caller's notifications as read.
func (s *NotificationService) MarkAllRead(ctx context.Context, claims *models.JWTClaims) error {
	if claims == nil || claims.UserID == "" {
		return appErrors.Clone(appErrors.ErrUnauthorized, "authentication required")
	}
	if err := s.repo.MarkAllRead(ctx, claims.UserID); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to mark notifications read")
	}
	return nil
}

// Enqueue persists an outbox row and hands it to the workers. Callers treat a
// failure here as a logged side effect, not an operation failure.
func (s *NotificationService) Enqueue(ctx context.Context, entry models.OutboxEntry) error {
	if entry.Channel == "" {
		entry.Channel = models.OutboxChannelNotification
	}
	if err := s.repo.CreateOutboxEntry(ctx, &entry); err != nil {
		return fmt.Errorf("persist outbox entry: %w", err)
	}
	if err := s.queue.Enqueue(jobs.Job{ID: entry.ID, Type: string(entry.Channel), Payload: entry}); err != nil {
		// Entry stays pending; RecoverPending picks it up on the next start.
		return fmt.Errorf("enqueue outbox entry: %w", err)
	}
	return nil
}

// Notify is the common case: an in-app notification outbox entry.
func (s *NotificationService) Notify(ctx context.Context, recipientID string, nType models.NotificationType, title, message, link string) {
	entry := models.OutboxEntry{
		Channel:     models.OutboxChannelNotification,
		RecipientID: recipientID,
		Type:        nType,
		Title:       title,
		Message:     message,
		Link:        link,
	}
	if err := s.Enqueue(ctx, entry); err != nil {
		s.logger.Warn("notification enqueue failed", zap.String("recipient", recipientID), zap.String("type", string(nType)), zap.Error(err))
	}
}

// Email queues an email outbox entry when email delivery is enabled.
func (s *NotificationService) Email(ctx context.Context, recipientID string, nType models.NotificationType, subject, body string) {
	if !s.emailEnabled {
		return
	}
	entry := models.OutboxEntry{
		Channel:     models.OutboxChannelEmail,
		RecipientID: recipientID,
		Type:        nType,
		Title:       subject,
		Message:     body,
	}
	if err := s.Enqueue(ctx, entry); err != nil {
		s.logger.Warn("email enqueue failed", zap.String("recipient", recipientID), zap.Error(err))
	}
}

// RecoverPending requeues undelivered outbox rows, typically at startup after
// a crash between the row write and the enqueue.
func (s *NotificationService) RecoverPending(ctx context.Context) error {
	entries, err := s.repo.ListPendingOutbox(ctx, 500)
	if err != nil {
		return fmt.Errorf("list pending outbox: %w", err)
	}
	for _, entry := range entries {
		if err := s.queue.Enqueue(jobs.Job{ID: entry.ID, Type: string(entry.Channel), Payload: entry, Attempt: entry.Attempts}); err != nil {
			return fmt.Errorf("requeue outbox entry %s: %w", entry.ID, err)
		}
	}
	if len(entries) > 0 {
		s.logger.Info("requeued pending outbox entries", zap.Int("count", len(entries)))
	}
	return nil
}

func (s *NotificationService) deliver(ctx context.Context, job jobs.Job) error {
	entry, ok := job.Payload.(models.OutboxEntry)
	if !ok {
		s.logger.Error("outbox job carries unexpected payload", zap.String("job_id", job.ID))
		return nil
	}

	switch entry.Channel {
	case models.OutboxChannelNotification:
		notification := &models.Notification{
			RecipientID: entry.RecipientID,
			Type:        entry.Type,
			Title:       entry.Title,
			Message:     entry.Message,
			Link:        entry.Link,
		}
		if err := s.repo.Create(ctx, notification); err != nil {
			s.markFailed(ctx, entry.ID, err)
			return err
		}
	case models.OutboxChannelEmail:
		user, err := s.users.FindByID(ctx, entry.RecipientID)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				// Recipient deleted; nothing to send.
				break
			}
			s.markFailed(ctx, entry.ID, err)
			return err
		}
		msg := mailer.Message{
			ToName:    user.FullName,
			ToAddress: user.Email,
			Subject:   entry.Title,
			TextBody:  entry.Message,
		}
		if err := s.mailer.Send(ctx, msg); err != nil {
			s.markFailed(ctx, entry.ID, err)
			return err
		}
	default:
		s.logger.Error("unknown outbox channel", zap.String("channel", string(entry.Channel)))
		return nil
	}

	if err := s.repo.MarkOutboxDelivered(ctx, entry.ID); err != nil {
		s.logger.Warn("failed to mark outbox entry delivered", zap.String("entry_id", entry.ID), zap.Error(err))
	}
	return nil
}

func (s *NotificationService) markFailed(ctx context.Context, entryID string, cause error) {
	if err := s.repo.MarkOutboxFailed(ctx, entryID, cause.Error()); err != nil {
		s.logger.Warn("failed to record outbox delivery failure", zap.String("entry_id", entryID), zap.Error(err))
	}
}
