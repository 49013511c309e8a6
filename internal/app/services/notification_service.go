package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/yigit/edupay/internal/app/models"
	"github.com/yigit/edupay/internal/app/normalize"
	"github.com/yigit/edupay/internal/pkg/apperrors"
	"github.com/yigit/edupay/internal/store"
)

// NotificationService defines the interface for console notifications
type NotificationService interface {
	List(ctx context.Context) []models.Notification
	Unread(ctx context.Context) int
	MarkRead(ctx context.Context, id string) error
	Emit(ctx context.Context, typ models.NotificationType, message string) error
}

type notificationServiceImpl struct {
	ledger *Ledger
}

// NewNotificationService creates a new notification service instance
func NewNotificationService(ledger *Ledger) NotificationService {
	return &notificationServiceImpl{ledger: ledger}
}

func normalizeNotification(typ models.NotificationType, message string) store.Record {
	if typ == "" {
		typ = models.NotificationInfo
	}
	return normalize.NotificationRecord(models.Notification{Message: message, Type: typ})
}

// List returns notifications newest first.
func (s *notificationServiceImpl) List(ctx context.Context) []models.Notification {
	all := s.ledger.snapshot().Notifications
	out := make([]models.Notification, 0, len(all))
	for i := len(all) - 1; i >= 0; i-- {
		out = append(out, all[i])
	}
	return out
}

// Unread counts unread notifications.
func (s *notificationServiceImpl) Unread(ctx context.Context) int {
	return s.ledger.snapshot().Unread()
}

// MarkRead flags one notification as read.
func (s *notificationServiceImpl) MarkRead(ctx context.Context, id string) error {
	n, err := s.ledger.Gateway.Update(ctx, store.TableNotifications, store.Record{"id": id}, store.Record{"is_read": true})
	if err != nil {
		return fmt.Errorf("marking notification read: %w", err)
	}
	if n == 0 {
		return apperrors.NewResourceNotFoundError("notification not found")
	}
	s.ledger.refresh(ctx)
	return nil
}

// Emit stores a notification and refreshes.
func (s *notificationServiceImpl) Emit(ctx context.Context, typ models.NotificationType, message string) error {
	if strings.TrimSpace(message) == "" {
		return fmt.Errorf("%w: notification message cannot be empty", apperrors.ErrValidationFailed)
	}
	if err := emitNotification(ctx, s.ledger.Gateway, typ, message); err != nil {
		return fmt.Errorf("emitting notification: %w", err)
	}
	s.ledger.refresh(ctx)
	return nil
}
