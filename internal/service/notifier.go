package service

import (
	"context"
	"encoding/json"
	"log/slog"

	"studenthelp/backend/internal/hub"
	"studenthelp/backend/internal/models"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// UserSnapshot is the public part of a profile embedded in notification payloads
// so clients can render the event without another lookup.
type UserSnapshot struct {
	ID             uint   `json:"id"`
	Name           string `json:"name"`
	Username       string `json:"username"`
	ProfilePicture string `json:"profilePicture,omitempty"`
	School         string `json:"school,omitempty"`
	Program        string `json:"program,omitempty"`
	StudentYear    int    `json:"studentYear,omitempty"`
}

// SnapshotOf copies the public fields of u.
func SnapshotOf(u models.User) UserSnapshot {
	return UserSnapshot{
		ID:             u.ID,
		Name:           u.Name,
		Username:       u.Username,
		ProfilePicture: u.ProfilePicture,
		School:         u.School,
		Program:        u.Program,
		StudentYear:    u.StudentYear,
	}
}

// Notifier writes a notification row and pushes it to the recipient's live streams.
type Notifier struct {
	db     *gorm.DB
	events hub.Publisher
	logger *slog.Logger
}

// NewNotifier creates a Notifier. events may be nil when no push channel is wired.
func NewNotifier(db *gorm.DB, events hub.Publisher) *Notifier {
	return &Notifier{
		db:     db,
		events: events,
		logger: slog.Default().With("component", "notifier"),
	}
}

// Notify creates exactly one notification for recipientID. payload may be nil.
func (n *Notifier) Notify(ctx context.Context, recipientID uint, typ models.NotificationType, message string, payload any) (*models.Notification, error) {
	notification := models.Notification{
		UserID:  recipientID,
		Type:    typ,
		Message: message,
	}
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, err
		}
		notification.Data = datatypes.JSON(data)
	}

	if err := n.db.WithContext(ctx).Create(&notification).Error; err != nil {
		return nil, err
	}

	if n.events != nil {
		n.events.Publish(recipientID, hub.Event{Type: hub.EventNotification, Payload: notification})
	}
	n.logger.Debug("Notification created", "recipient", recipientID, "type", typ, "id", notification.ID)
	return &notification, nil
}
