package service

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"studenthelp/backend/internal/apperr"
	"studenthelp/backend/internal/models"

	"gorm.io/gorm"
)

// NotificationService manages a user's notification inbox.
type NotificationService struct {
	db       *gorm.DB
	notifier *Notifier
}

// NewNotificationService creates a NotificationService.
func NewNotificationService(db *gorm.DB, notifier *Notifier) *NotificationService {
	return &NotificationService{db: db, notifier: notifier}
}

// List returns ownerID's notifications, newest first.
func (s *NotificationService) List(ctx context.Context, ownerID uint, unreadOnly bool) ([]models.Notification, error) {
	query := s.db.WithContext(ctx).Where("user_id = ?", ownerID)
	if unreadOnly {
		query = query.Where("is_read = ?", false)
	}

	notifications := []models.Notification{}
	if err := query.Order("created_at DESC, id DESC").Find(&notifications).Error; err != nil {
		return nil, apperr.Wrap(apperr.Internal, "Failed to fetch notifications", err)
	}
	return notifications, nil
}

// UnreadCount returns the number of unread notifications of ownerID.
func (s *NotificationService) UnreadCount(ctx context.Context, ownerID uint) (int64, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&models.Notification{}).
		Where("user_id = ? AND is_read = ?", ownerID, false).
		Count(&count).Error
	if err != nil {
		return 0, apperr.Wrap(apperr.Internal, "Failed to count notifications", err)
	}
	return count, nil
}

// Create issues a notification directly, e.g. a SYSTEM announcement.
func (s *NotificationService) Create(ctx context.Context, recipientID uint, typ models.NotificationType, message string, payload json.RawMessage) (*models.Notification, error) {
	if !typ.Valid() {
		return nil, apperr.NewBadRequest("Unknown notification type")
	}
	message = strings.TrimSpace(message)
	if message == "" {
		return nil, apperr.NewBadRequest("Message is required")
	}
	if len(payload) > 0 && !json.Valid(payload) {
		return nil, apperr.NewBadRequest("Data must be valid JSON")
	}
	if _, err := findUser(s.db.WithContext(ctx), recipientID, "Recipient not found"); err != nil {
		return nil, err
	}

	var data any
	if len(payload) > 0 {
		data = payload
	}
	notification, err := s.notifier.Notify(ctx, recipientID, typ, message, data)
	if err != nil {
		return nil, apperr.Wrap(apperr.Internal, "Failed to create notification", err)
	}
	return notification, nil
}

// MarkRead marks one notification as read. Marking an already read notification succeeds.
func (s *NotificationService) MarkRead(ctx context.Context, notificationID, ownerID uint) (*models.Notification, error) {
	db := s.db.WithContext(ctx)

	var notification models.Notification
	if err := db.First(&notification, notificationID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NewNotFound("Notification not found")
		}
		return nil, apperr.Wrap(apperr.Internal, "Failed to load notification", err)
	}
	if notification.UserID != ownerID {
		return nil, apperr.NewForbidden("Not authorized to update this notification")
	}
	if notification.Read {
		return &notification, nil
	}

	now := time.Now()
	err := db.Model(&models.Notification{}).
		Where("id = ? AND is_read = ?", notification.ID, false).
		Updates(map[string]any{"is_read": true, "read_at": now}).Error
	if err != nil {
		return nil, apperr.Wrap(apperr.Internal, "Failed to update notification", err)
	}

	notification.Read = true
	notification.ReadAt = &now
	return &notification, nil
}

// MarkAllRead marks every unread notification of ownerID as read and returns how many changed.
func (s *NotificationService) MarkAllRead(ctx context.Context, ownerID uint) (int64, error) {
	result := s.db.WithContext(ctx).Model(&models.Notification{}).
		Where("user_id = ? AND is_read = ?", ownerID, false).
		Updates(map[string]any{"is_read": true, "read_at": time.Now()})
	if result.Error != nil {
		return 0, apperr.Wrap(apperr.Internal, "Failed to update notifications", result.Error)
	}
	return result.RowsAffected, nil
}
