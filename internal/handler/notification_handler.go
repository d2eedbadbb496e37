package handler

import (
	"encoding/json"
	"io"
	"net/http"
	"time"

	"studenthelp/backend/internal/hub"
	"studenthelp/backend/internal/models"
	"studenthelp/backend/internal/service"

	"github.com/gin-gonic/gin"
)

const (
	defaultHeartbeat = 25 * time.Second
	streamBuffer     = 16
)

// CreateNotificationInput is an admin-issued notification.
type CreateNotificationInput struct {
	UserID  uint                    `json:"user_id" binding:"required" example:"2"`
	Type    models.NotificationType `json:"type" example:"SYSTEM"`
	Message string                  `json:"message" binding:"required,max=1000" example:"Exam registration closes Friday"`
	Data    json.RawMessage         `json:"data" swaggertype:"object"`
}

// UnreadCountResponse carries the number of unread notifications.
type UnreadCountResponse struct {
	Count int64 `json:"count" example:"3"`
}

// MarkAllReadResponse reports how many notifications changed.
type MarkAllReadResponse struct {
	Updated int64 `json:"updated" example:"3"`
}

// NotificationHandler serves the notification inbox and its live stream.
type NotificationHandler struct {
	notifications *service.NotificationService
	hub           *hub.Hub
	heartbeat     time.Duration
}

// NewNotificationHandler creates a NotificationHandler. Streams are served from h.
func NewNotificationHandler(notifications *service.NotificationService, h *hub.Hub) *NotificationHandler {
	return &NotificationHandler{notifications: notifications, hub: h, heartbeat: defaultHeartbeat}
}

// ListNotifications godoc
// @Summary      List notifications
// @Description  Returns the viewer's notifications, newest first.
// @Tags         notifications
// @Produce      json
// @Security     BearerAuth
// @Param        unread query bool false "Only unread notifications"
// @Success      200  {array}   models.Notification
// @Failure      401  {object}  ErrorResponse
// @Router       /notifications [get]
func (h *NotificationHandler) ListNotifications(c *gin.Context) {
	viewer, ok := viewerID(c)
	if !ok {
		return
	}

	notifications, err := h.notifications.List(c.Request.Context(), viewer, c.Query("unread") == "true")
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, notifications)
}

// UnreadCount godoc
// @Summary      Count unread notifications
// @Tags         notifications
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  UnreadCountResponse
// @Failure      401  {object}  ErrorResponse
// @Router       /notifications/unread-count [get]
func (h *NotificationHandler) UnreadCount(c *gin.Context) {
	viewer, ok := viewerID(c)
	if !ok {
		return
	}

	count, err := h.notifications.UnreadCount(c.Request.Context(), viewer)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, UnreadCountResponse{Count: count})
}

// MarkRead godoc
// @Summary      Mark a notification as read
// @Description  Idempotent. Only the recipient may mark a notification.
// @Tags         notifications
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      int  true  "Notification ID"
// @Success      200  {object}  models.Notification
// @Failure      400  {object}  ErrorResponse
// @Failure      403  {object}  ErrorResponse
// @Failure      404  {object}  ErrorResponse
// @Router       /notifications/{id}/read [put]
func (h *NotificationHandler) MarkRead(c *gin.Context) {
	viewer, ok := viewerID(c)
	if !ok {
		return
	}
	id, ok := parseID(c, "id", "notification")
	if !ok {
		return
	}

	notification, err := h.notifications.MarkRead(c.Request.Context(), id, viewer)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, notification)
}

// MarkAllRead godoc
// @Summary      Mark all notifications as read
// @Tags         notifications
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  MarkAllReadResponse
// @Failure      401  {object}  ErrorResponse
// @Router       /notifications/mark-all-read [put]
func (h *NotificationHandler) MarkAllRead(c *gin.Context) {
	viewer, ok := viewerID(c)
	if !ok {
		return
	}

	updated, err := h.notifications.MarkAllRead(c.Request.Context(), viewer)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, MarkAllReadResponse{Updated: updated})
}

// CreateNotification godoc
// @Summary      Send a notification
// @Description  Creates a notification for user_id. type defaults to SYSTEM.
// @Tags         admin-notifications
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        input body CreateNotificationInput true "Notification"
// @Success      201  {object}  models.Notification
// @Failure      400  {object}  ErrorResponse
// @Failure      403  {object}  ErrorResponse "Admin access required"
// @Failure      404  {object}  ErrorResponse "Recipient not found"
// @Router       /admin/notifications [post]
func (h *NotificationHandler) CreateNotification(c *gin.Context) {
	var input CreateNotificationInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if input.Type == "" {
		input.Type = models.NotificationSystem
	}

	notification, err := h.notifications.Create(c.Request.Context(), input.UserID, input.Type, input.Message, input.Data)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, notification)
}

// Stream godoc
// @Summary      Live notification stream
// @Description  Server-sent events. Each "message" event carries {"type": "notification"|"message", "payload": ...}. EventSource clients pass the token as ?token=.
// @Tags         notifications
// @Produce      text/event-stream
// @Security     BearerAuth
// @Param        token query string false "JWT when the Authorization header cannot be set"
// @Success      200  {string}  string "event stream"
// @Failure      401  {object}  ErrorResponse
// @Router       /notifications/stream [get]
func (h *NotificationHandler) Stream(c *gin.Context) {
	viewer, ok := viewerID(c)
	if !ok {
		return
	}

	client := make(hub.Client, streamBuffer)
	h.hub.Subscribe(viewer, client)
	defer h.hub.Unsubscribe(viewer, client)

	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")

	heartbeat := time.NewTicker(h.heartbeat)
	defer heartbeat.Stop()

	c.SSEvent("ready", gin.H{"user_id": viewer})
	c.Writer.Flush()

	ctx := c.Request.Context()
	c.Stream(func(w io.Writer) bool {
		select {
		case <-ctx.Done():
			return false
		case msg, ok := <-client:
			if !ok {
				return false
			}
			c.SSEvent("message", string(msg))
			return true
		case <-heartbeat.C:
			c.SSEvent("ping", time.Now().Unix())
			return true
		}
	})
}
