package handler

import (
	"net/http"
	"strings"
	"time"

	"studenthelp/backend/internal/models"
	"studenthelp/backend/internal/service"

	"github.com/gin-gonic/gin"
)

// CreateConnectionInput is the body of a connection request.
type CreateConnectionInput struct {
	ReceiverID uint `json:"receiver_id" binding:"required" example:"2"`
}

// RespondConnectionInput answers a pending request.
type RespondConnectionInput struct {
	Status models.ConnectionStatus `json:"status" binding:"required,oneof=ACCEPTED DECLINED" example:"ACCEPTED"`
}

// ConnectionResponse is a connection as seen by one of its parties.
type ConnectionResponse struct {
	ID          uint                    `json:"id" example:"12"`
	RequesterID uint                    `json:"requester_id" example:"1"`
	ReceiverID  uint                    `json:"receiver_id" example:"2"`
	Status      models.ConnectionStatus `json:"status" example:"PENDING"`
	CreatedAt   time.Time               `json:"created_at"`
	UpdatedAt   time.Time               `json:"updated_at"`
	OtherUser   *PublicUserResponse     `json:"other_user,omitempty"`
}

func newConnectionResponse(conn models.Connection, viewer uint) ConnectionResponse {
	resp := ConnectionResponse{
		ID:          conn.ID,
		RequesterID: conn.RequesterID,
		ReceiverID:  conn.ReceiverID,
		Status:      conn.Status,
		CreatedAt:   conn.CreatedAt,
		UpdatedAt:   conn.UpdatedAt,
	}
	other := conn.Requester
	if conn.RequesterID == viewer {
		other = conn.Receiver
	}
	if other.ID != 0 {
		u := buildPublicUserResponse(other, nil)
		resp.OtherUser = &u
	}
	return resp
}

// ConnectionHandler exposes the connection lifecycle.
type ConnectionHandler struct {
	connections *service.ConnectionService
}

// NewConnectionHandler creates a ConnectionHandler.
func NewConnectionHandler(connections *service.ConnectionService) *ConnectionHandler {
	return &ConnectionHandler{connections: connections}
}

// CreateConnection godoc
// @Summary      Send a connection request
// @Description  Creates a PENDING connection to receiver_id and notifies the receiver.
// @Tags         connections
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        input body CreateConnectionInput true "Receiver"
// @Success      201  {object}  ConnectionResponse
// @Failure      400  {object}  ErrorResponse
// @Failure      401  {object}  ErrorResponse
// @Failure      404  {object}  ErrorResponse "Target user not found"
// @Failure      409  {object}  ErrorResponse "Connection already exists"
// @Router       /connections [post]
func (h *ConnectionHandler) CreateConnection(c *gin.Context) {
	viewer, ok := viewerID(c)
	if !ok {
		return
	}

	var input CreateConnectionInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	conn, err := h.connections.Request(c.Request.Context(), viewer, input.ReceiverID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, newConnectionResponse(*conn, viewer))
}

// ListConnections godoc
// @Summary      List connections
// @Description  Lists accepted connections, or pending requests with status=PENDING and direction=incoming|outgoing.
// @Tags         connections
// @Produce      json
// @Security     BearerAuth
// @Param        status    query     string  false  "ACCEPTED (default) or PENDING"
// @Param        direction query     string  false  "incoming (default) or outgoing; only with status=PENDING"
// @Success      200  {array}   ConnectionResponse
// @Failure      400  {object}  ErrorResponse
// @Failure      401  {object}  ErrorResponse
// @Router       /connections [get]
func (h *ConnectionHandler) ListConnections(c *gin.Context) {
	viewer, ok := viewerID(c)
	if !ok {
		return
	}

	var (
		rows []service.ConnectionWithUser
		err  error
	)
	ctx := c.Request.Context()
	switch models.ConnectionStatus(strings.ToUpper(c.Query("status"))) {
	case "", models.StatusAccepted:
		rows, err = h.connections.ListAccepted(ctx, viewer)
	case models.StatusPending:
		direction := service.Direction(strings.ToLower(c.DefaultQuery("direction", string(service.DirectionIncoming))))
		rows, err = h.connections.ListPending(ctx, viewer, direction)
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "status must be ACCEPTED or PENDING"})
		return
	}
	if err != nil {
		respondError(c, err)
		return
	}

	response := make([]ConnectionResponse, 0, len(rows))
	for _, r := range rows {
		resp := newConnectionResponse(r.Connection, viewer)
		other := buildPublicUserResponse(r.OtherUser, nil)
		resp.OtherUser = &other
		response = append(response, resp)
	}
	c.JSON(http.StatusOK, response)
}

// GetConnection godoc
// @Summary      Get a connection
// @Description  Returns one connection if the viewer is its requester or receiver.
// @Tags         connections
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      int  true  "Connection ID"
// @Success      200  {object}  ConnectionResponse
// @Failure      400  {object}  ErrorResponse
// @Failure      403  {object}  ErrorResponse
// @Failure      404  {object}  ErrorResponse
// @Router       /connections/{id} [get]
func (h *ConnectionHandler) GetConnection(c *gin.Context) {
	viewer, ok := viewerID(c)
	if !ok {
		return
	}
	id, ok := parseID(c, "id", "connection")
	if !ok {
		return
	}

	conn, err := h.connections.Get(c.Request.Context(), id, viewer)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, newConnectionResponse(*conn, viewer))
}

// AcceptConnection godoc
// @Summary      Accept a connection request
// @Description  Only the receiver of a PENDING request may accept it. The requester is notified.
// @Tags         connections
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      int  true  "Connection ID"
// @Success      200  {object}  ConnectionResponse
// @Failure      400  {object}  ErrorResponse
// @Failure      403  {object}  ErrorResponse "Not the receiver"
// @Failure      404  {object}  ErrorResponse
// @Failure      409  {object}  ErrorResponse "Already answered"
// @Router       /connections/{id}/accept [post]
func (h *ConnectionHandler) AcceptConnection(c *gin.Context) {
	h.respond(c, true)
}

// DeclineConnection godoc
// @Summary      Decline a connection request
// @Description  Only the receiver of a PENDING request may decline it. The requester is notified.
// @Tags         connections
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      int  true  "Connection ID"
// @Success      200  {object}  ConnectionResponse
// @Failure      400  {object}  ErrorResponse
// @Failure      403  {object}  ErrorResponse "Not the receiver"
// @Failure      404  {object}  ErrorResponse
// @Failure      409  {object}  ErrorResponse "Already answered"
// @Router       /connections/{id}/decline [post]
func (h *ConnectionHandler) DeclineConnection(c *gin.Context) {
	h.respond(c, false)
}

// RespondConnection godoc
// @Summary      Answer a connection request
// @Description  Accepts or declines a PENDING request depending on the status in the body.
// @Tags         connections
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path  int                     true  "Connection ID"
// @Param        input body  RespondConnectionInput  true  "New status"
// @Success      200  {object}  ConnectionResponse
// @Failure      400  {object}  ErrorResponse
// @Failure      403  {object}  ErrorResponse "Not the receiver"
// @Failure      404  {object}  ErrorResponse
// @Failure      409  {object}  ErrorResponse "Already answered"
// @Router       /connections/{id} [put]
func (h *ConnectionHandler) RespondConnection(c *gin.Context) {
	var input RespondConnectionInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	h.respond(c, input.Status == models.StatusAccepted)
}

func (h *ConnectionHandler) respond(c *gin.Context, accept bool) {
	viewer, ok := viewerID(c)
	if !ok {
		return
	}
	id, ok := parseID(c, "id", "connection")
	if !ok {
		return
	}

	conn, err := h.connections.Respond(c.Request.Context(), id, viewer, accept)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, newConnectionResponse(*conn, viewer))
}
