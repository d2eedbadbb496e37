package service

import (
	"context"

	"studenthelp/backend/internal/apperr"
	"studenthelp/backend/internal/hub"
	"studenthelp/backend/internal/models"

	"gorm.io/gorm"
)

// MessageService stores and lists direct messages.
type MessageService struct {
	db          *gorm.DB
	connections *ConnectionService
	events      hub.Publisher

	// requireConnection limits messaging to ACCEPTED pairs.
	requireConnection bool
}

// NewMessageService creates a MessageService. events may be nil.
func NewMessageService(db *gorm.DB, connections *ConnectionService, events hub.Publisher, requireConnection bool) *MessageService {
	return &MessageService{
		db:                db,
		connections:       connections,
		events:            events,
		requireConnection: requireConnection,
	}
}

// Send appends a message from senderID to receiverID. Messages do not create
// notification rows; the receiver gets a live message event instead.
func (s *MessageService) Send(ctx context.Context, senderID, receiverID uint, content string) (*models.Message, error) {
	content = normalizeText(content)
	if content == "" || receiverID == 0 {
		return nil, apperr.NewBadRequest("Content and receiver ID are required")
	}

	db := s.db.WithContext(ctx)
	sender, err := findUser(db, senderID, "User not found")
	if err != nil {
		return nil, err
	}
	receiver, err := findUser(db, receiverID, "Receiver not found")
	if err != nil {
		return nil, err
	}

	if s.requireConnection {
		status, err := s.connections.StatusBetween(ctx, senderID, receiverID)
		if err != nil {
			return nil, err
		}
		if status != models.StatusAccepted {
			return nil, apperr.NewForbidden("You can only message your connections")
		}
	}

	message := models.Message{
		SenderID:   senderID,
		ReceiverID: receiverID,
		Content:    content,
	}
	if err := db.Create(&message).Error; err != nil {
		return nil, apperr.Wrap(apperr.Internal, "Failed to create message", err)
	}
	message.Sender = *sender
	message.Receiver = *receiver

	if s.events != nil {
		s.events.Publish(receiverID, hub.Event{Type: hub.EventMessage, Payload: message})
	}
	return &message, nil
}

// ListConversation returns every message exchanged between a and b, oldest first.
func (s *MessageService) ListConversation(ctx context.Context, a, b uint) ([]models.Message, error) {
	if b == 0 {
		return nil, apperr.NewBadRequest("User ID is required")
	}

	messages := []models.Message{}
	err := s.db.WithContext(ctx).
		Preload("Sender").
		Where("(sender_id = ? AND receiver_id = ?) OR (sender_id = ? AND receiver_id = ?)", a, b, b, a).
		Order("created_at ASC, id ASC").
		Find(&messages).Error
	if err != nil {
		return nil, apperr.Wrap(apperr.Internal, "Failed to fetch messages", err)
	}
	return messages, nil
}
