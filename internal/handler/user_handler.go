package handler

import (
	"net/http"
	"time"

	"studenthelp/backend/internal/models"
	"studenthelp/backend/internal/service"

	"github.com/gin-gonic/gin"
)

// region --- DTOs ---

// PublicUserResponse defines the structure for a user's public profile.
type PublicUserResponse struct {
	ID             uint                    `json:"id" example:"1"`
	Name           string                  `json:"name" example:"Alice Andersson"`
	Username       string                  `json:"username" example:"alice"`
	ProfilePicture string                  `json:"profile_picture,omitempty"`
	School         string                  `json:"school,omitempty" example:"KTH"`
	Program        string                  `json:"program,omitempty" example:"Computer Science"`
	StudentYear    int                     `json:"student_year,omitempty" example:"2"`
	Bio            string                  `json:"bio,omitempty"`
	Skills         []SkillResponse         `json:"skills"`
	Connection     *ConnectionRelationInfo `json:"connection,omitempty"`
}

// ConnectionRelationInfo describes how the viewer relates to a user.
type ConnectionRelationInfo struct {
	Status       models.ConnectionStatus `json:"status" example:"PENDING"`
	ConnectionID *uint                   `json:"connection_id,omitempty" example:"12"`
	// IsOutgoing is true when the viewer sent the request.
	IsOutgoing bool `json:"is_outgoing"`
}

// PrivateUserResponse defines the structure for the authenticated user's own profile.
type PrivateUserResponse struct {
	PublicUserResponse
	Email            string    `json:"email" example:"alice@uni.edu"`
	Role             string    `json:"role" example:"user"`
	IsTemporary      bool      `json:"is_temporary"`
	ConnectionsCount int64     `json:"connections_count"`
	CreatedAt        time.Time `json:"created_at"`
}

// UpdateProfileInput lists the editable profile fields. Omitted fields are unchanged.
type UpdateProfileInput struct {
	Name           *string `json:"name" example:"Alice Andersson"`
	School         *string `json:"school" example:"KTH"`
	Program        *string `json:"program" example:"Computer Science"`
	StudentYear    *int    `json:"student_year" binding:"omitempty,min=0,max=10" example:"2"`
	Bio            *string `json:"bio" binding:"omitempty,max=2000"`
	ProfilePicture *string `json:"profile_picture" binding:"omitempty,max=512"`
	SkillIDs       []uint  `json:"skill_ids"`
}

// StatusResponse is the connection status between the viewer and another user.
type StatusResponse struct {
	Status models.ConnectionStatus `json:"status" example:"ACCEPTED"`
}

// endregion

// UserHandler serves the user directory.
type UserHandler struct {
	users       *service.UserService
	connections *service.ConnectionService
}

// NewUserHandler creates a UserHandler.
func NewUserHandler(users *service.UserService, connections *service.ConnectionService) *UserHandler {
	return &UserHandler{users: users, connections: connections}
}

// SearchUsers godoc
// @Summary      Search for users
// @Description  Searches students by name, username, school or program with pagination. Each result carries the viewer's connection status.
// @Tags         users
// @Produce      json
// @Security     BearerAuth
// @Param        q     query     string  false  "Search query"
// @Param        page  query     int     false  "Page number" default(1)
// @Param        limit query     int     false  "Items per page" default(10)
// @Success      200   {object}  PaginatedResponse[PublicUserResponse]
// @Failure      401   {object}  ErrorResponse
// @Router       /users [get]
func (h *UserHandler) SearchUsers(c *gin.Context) {
	viewer, ok := viewerID(c)
	if !ok {
		return
	}

	page, err := h.users.Search(c.Request.Context(), viewer, c.Query("q"), queryInt(c, "page", 1), queryInt(c, "limit", 10))
	if err != nil {
		respondError(c, err)
		return
	}

	data := make([]PublicUserResponse, 0, len(page.Items))
	for _, hit := range page.Items {
		rel := hit.Relation
		data = append(data, buildPublicUserResponse(hit.User, &rel))
	}
	c.JSON(http.StatusOK, NewPaginatedResponse(data, page.Total, page.Page, page.Limit))
}

// GetMe godoc
// @Summary      Get current user's info
// @Description  Retrieves the private profile for the currently authenticated user.
// @Tags         users
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  PrivateUserResponse
// @Failure      401  {object}  ErrorResponse
// @Failure      404  {object}  ErrorResponse
// @Router       /users/me [get]
func (h *UserHandler) GetMe(c *gin.Context) {
	viewer, ok := viewerID(c)
	if !ok {
		return
	}

	user, err := h.users.Get(c.Request.Context(), viewer)
	if err != nil {
		respondError(c, err)
		return
	}
	h.writePrivate(c, user)
}

// UpdateMe godoc
// @Summary      Update current user's profile
// @Description  Updates profile fields and, when skill_ids is present, replaces the skill tags.
// @Tags         users
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        input body UpdateProfileInput true "Profile fields"
// @Success      200  {object}  PrivateUserResponse
// @Failure      400  {object}  ErrorResponse
// @Failure      401  {object}  ErrorResponse
// @Router       /users/me [put]
func (h *UserHandler) UpdateMe(c *gin.Context) {
	viewer, ok := viewerID(c)
	if !ok {
		return
	}

	var input UpdateProfileInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	user, err := h.users.UpdateProfile(c.Request.Context(), viewer, service.ProfileUpdate{
		Name:           input.Name,
		School:         input.School,
		Program:        input.Program,
		StudentYear:    input.StudentYear,
		Bio:            input.Bio,
		ProfilePicture: input.ProfilePicture,
		SkillIDs:       input.SkillIDs,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	h.writePrivate(c, user)
}

// GetUserByID godoc
// @Summary      Get user by ID
// @Description  Retrieves the public profile for a specific user by their ID, including the viewer's connection status.
// @Tags         users
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      int  true  "User ID"
// @Success      200  {object}  PublicUserResponse
// @Failure      400  {object}  ErrorResponse
// @Failure      401  {object}  ErrorResponse
// @Failure      404  {object}  ErrorResponse
// @Router       /users/{id} [get]
func (h *UserHandler) GetUserByID(c *gin.Context) {
	viewer, ok := viewerID(c)
	if !ok {
		return
	}
	targetID, ok := parseID(c, "id", "user")
	if !ok {
		return
	}

	// If target is the same as viewer, answer with the private profile
	if targetID == viewer {
		h.GetMe(c)
		return
	}

	ctx := c.Request.Context()
	user, err := h.users.Get(ctx, targetID)
	if err != nil {
		respondError(c, err)
		return
	}
	rel, err := h.connections.RelationBetween(ctx, viewer, targetID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, buildPublicUserResponse(*user, &rel))
}

// GetConnectionStatus godoc
// @Summary      Get connection status with a user
// @Description  Returns NONE, PENDING, ACCEPTED or DECLINED for the pair (viewer, id).
// @Tags         users
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      int  true  "User ID"
// @Success      200  {object}  StatusResponse
// @Failure      400  {object}  ErrorResponse
// @Failure      401  {object}  ErrorResponse
// @Router       /users/{id}/status [get]
func (h *UserHandler) GetConnectionStatus(c *gin.Context) {
	viewer, ok := viewerID(c)
	if !ok {
		return
	}
	targetID, ok := parseID(c, "id", "user")
	if !ok {
		return
	}

	status, err := h.connections.StatusBetween(c.Request.Context(), viewer, targetID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, StatusResponse{Status: status})
}

func (h *UserHandler) writePrivate(c *gin.Context, user *models.User) {
	count, err := h.connections.CountAccepted(c.Request.Context(), user.ID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, PrivateUserResponse{
		PublicUserResponse: buildPublicUserResponse(*user, nil),
		Email:              user.Email,
		Role:               user.Role,
		IsTemporary:        user.IsTemporary,
		ConnectionsCount:   count,
		CreatedAt:          user.CreatedAt,
	})
}

// region --- Helpers ---

func buildPublicUserResponse(user models.User, rel *service.Relation) PublicUserResponse {
	skills := make([]SkillResponse, 0, len(user.Skills))
	for _, s := range user.Skills {
		if s != nil {
			skills = append(skills, newSkillResponse(*s))
		}
	}

	resp := PublicUserResponse{
		ID:             user.ID,
		Name:           user.Name,
		Username:       user.Username,
		ProfilePicture: user.ProfilePicture,
		School:         user.School,
		Program:        user.Program,
		StudentYear:    user.StudentYear,
		Bio:            user.Bio,
		Skills:         skills,
	}
	if rel != nil {
		info := &ConnectionRelationInfo{Status: rel.Status, IsOutgoing: rel.Outgoing}
		if rel.Connection != nil {
			id := rel.Connection.ID
			info.ConnectionID = &id
		}
		resp.Connection = info
	}
	return resp
}

// endregion
