package handler

import (
	"net/http"
	"strconv"
	"time"

	"studenthelp/backend/internal/models"
	"studenthelp/backend/internal/service"

	"github.com/gin-gonic/gin"
)

// SendMessageInput is the body of a direct message.
type SendMessageInput struct {
	ReceiverID uint   `json:"receiver_id" binding:"required" example:"2"`
	Content    string `json:"content" binding:"required,max=5000" example:"Want to study for the exam together?"`
}

// MessageResponse is one direct message.
type MessageResponse struct {
	ID         uint                `json:"id" example:"1"`
	SenderID   uint                `json:"sender_id" example:"1"`
	ReceiverID uint                `json:"receiver_id" example:"2"`
	Content    string              `json:"content"`
	CreatedAt  time.Time           `json:"created_at"`
	Sender     *PublicUserResponse `json:"sender,omitempty"`
}

func newMessageResponse(m models.Message) MessageResponse {
	resp := MessageResponse{
		ID:         m.ID,
		SenderID:   m.SenderID,
		ReceiverID: m.ReceiverID,
		Content:    m.Content,
		CreatedAt:  m.CreatedAt,
	}
	if m.Sender.ID != 0 {
		sender := buildPublicUserResponse(m.Sender, nil)
		resp.Sender = &sender
	}
	return resp
}

// MessageHandler serves direct messages.
type MessageHandler struct {
	messages *service.MessageService
}

// NewMessageHandler creates a MessageHandler.
func NewMessageHandler(messages *service.MessageService) *MessageHandler {
	return &MessageHandler{messages: messages}
}

// ListMessages godoc
// @Summary      Get a conversation
// @Description  Returns every message between the viewer and userId, oldest first.
// @Tags         messages
// @Produce      json
// @Security     BearerAuth
// @Param        userId query int true "Other user ID"
// @Success      200  {array}   MessageResponse
// @Failure      400  {object}  ErrorResponse
// @Failure      401  {object}  ErrorResponse
// @Router       /messages [get]
func (h *MessageHandler) ListMessages(c *gin.Context) {
	viewer, ok := viewerID(c)
	if !ok {
		return
	}

	otherID, err := strconv.ParseUint(c.Query("userId"), 10, 32)
	if err != nil || otherID == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "User ID is required"})
		return
	}

	messages, err := h.messages.ListConversation(c.Request.Context(), viewer, uint(otherID))
	if err != nil {
		respondError(c, err)
		return
	}

	response := make([]MessageResponse, 0, len(messages))
	for _, m := range messages {
		response = append(response, newMessageResponse(m))
	}
	c.JSON(http.StatusOK, response)
}

// SendMessage godoc
// @Summary      Send a direct message
// @Description  Stores the message and pushes it to the receiver's live stream.
// @Tags         messages
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        input body SendMessageInput true "Message"
// @Success      201  {object}  MessageResponse
// @Failure      400  {object}  ErrorResponse
// @Failure      401  {object}  ErrorResponse
// @Failure      403  {object}  ErrorResponse "Not connected"
// @Failure      404  {object}  ErrorResponse "Receiver not found"
// @Failure      429  {object}  ErrorResponse "Too many requests"
// @Router       /messages [post]
func (h *MessageHandler) SendMessage(c *gin.Context) {
	viewer, ok := viewerID(c)
	if !ok {
		return
	}

	var input SendMessageInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Content and receiver ID are required"})
		return
	}

	message, err := h.messages.Send(c.Request.Context(), viewer, input.ReceiverID, input.Content)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, newMessageResponse(*message))
}
