package models

import (
	"fmt"
	"time"
)

// ConnectionStatus defines the state of a relationship between two users.
type ConnectionStatus string

const (
	// StatusNone is never stored; it describes a pair without any connection row.
	StatusNone ConnectionStatus = "NONE"

	// StatusPending means a request has been sent but not yet answered.
	StatusPending ConnectionStatus = "PENDING"

	// StatusAccepted means the receiver accepted the request.
	StatusAccepted ConnectionStatus = "ACCEPTED"

	// StatusDeclined is terminal. The pair may start over with a new request.
	StatusDeclined ConnectionStatus = "DECLINED"
)

// Active reports whether the status blocks a new request for the pair.
func (s ConnectionStatus) Active() bool {
	return s == StatusPending || s == StatusAccepted
}

// Connection is a directed request from RequesterID to ReceiverID.
//
// PairKey identifies the unordered pair. ActivePairKey carries the same value while
// the row is PENDING or ACCEPTED and is NULL once declined, so the unique index on it
// allows at most one active row per pair while keeping declined history.
type Connection struct {
	ID            uint             `gorm:"primaryKey"`
	RequesterID   uint             `gorm:"not null;index"`
	ReceiverID    uint             `gorm:"not null;index"`
	PairKey       string           `gorm:"size:64;not null;index"`
	ActivePairKey *string          `gorm:"size:64;uniqueIndex"`
	Status        ConnectionStatus `gorm:"type:varchar(20);not null;index"`
	CreatedAt     time.Time
	UpdatedAt     time.Time

	Requester User `gorm:"foreignKey:RequesterID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;"`
	Receiver  User `gorm:"foreignKey:ReceiverID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;"`
}

// PairKey canonicalizes an unordered pair of user ids.
func PairKey(a, b uint) string {
	if a > b {
		a, b = b, a
	}
	return fmt.Sprintf("%d:%d", a, b)
}

// OtherParty returns the id of the user on the other side from userID.
func (c *Connection) OtherParty(userID uint) uint {
	if c.RequesterID == userID {
		return c.ReceiverID
	}
	return c.RequesterID
}

// Involves reports whether userID is the requester or the receiver.
func (c *Connection) Involves(userID uint) bool {
	return c.RequesterID == userID || c.ReceiverID == userID
}
