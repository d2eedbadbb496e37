package models

import "time"

// Message is a direct message between two users. Messages are never edited.
type Message struct {
	ID         uint      `json:"id" gorm:"primaryKey"`
	SenderID   uint      `json:"sender_id" gorm:"not null;index:idx_messages_pair,priority:1"`
	ReceiverID uint      `json:"receiver_id" gorm:"not null;index:idx_messages_pair,priority:2"`
	Content    string    `json:"content" gorm:"not null"`
	CreatedAt  time.Time `json:"created_at" gorm:"index"`

	Sender   User `json:"-" gorm:"foreignKey:SenderID"`
	Receiver User `json:"-" gorm:"foreignKey:ReceiverID"`
}
