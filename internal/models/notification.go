package models

import (
	"time"

	"gorm.io/datatypes"
)

type NotificationType string

const (
	NotificationConnectionRequest  NotificationType = "CONNECTION_REQUEST"
	NotificationConnectionAccepted NotificationType = "CONNECTION_ACCEPTED"
	NotificationConnectionResponse NotificationType = "CONNECTION_RESPONSE"
	NotificationMessage            NotificationType = "MESSAGE"
	NotificationSystem             NotificationType = "SYSTEM"
)

// Valid reports whether t is one of the known notification types.
func (t NotificationType) Valid() bool {
	switch t {
	case NotificationConnectionRequest, NotificationConnectionAccepted,
		NotificationConnectionResponse, NotificationMessage, NotificationSystem:
		return true
	}
	return false
}

// Notification is an event addressed to a single user.
type Notification struct {
	ID        uint             `json:"id" gorm:"primaryKey"`
	UserID    uint             `json:"user_id" gorm:"not null;index"`
	Type      NotificationType `json:"type" gorm:"type:varchar(40);not null"`
	Message   string           `json:"message" gorm:"not null"`
	Data      datatypes.JSON   `json:"data,omitempty"`
	Read      bool             `json:"read" gorm:"column:is_read;not null;default:false;index"`
	ReadAt    *time.Time       `json:"read_at,omitempty"`
	CreatedAt time.Time        `json:"created_at" gorm:"index"`

	User User `json:"-" gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE;"`
}
