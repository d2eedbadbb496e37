package handler

import (
	"net/http"
	"time"

	"studenthelp/backend/internal/models"
	"studenthelp/backend/internal/service"

	"github.com/gin-gonic/gin"
)

type SkillInput struct {
	Name string `json:"name" binding:"required,max=100" example:"Linear Algebra"`
}

type SkillResponse struct {
	ID        uint      `json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	Name      string    `json:"name"`
}

func newSkillResponse(skill models.Skill) SkillResponse {
	return SkillResponse{
		ID:        skill.ID,
		CreatedAt: skill.CreatedAt,
		UpdatedAt: skill.UpdatedAt,
		Name:      skill.Name,
	}
}

// SkillHandler serves the skill vocabulary.
type SkillHandler struct {
	users *service.UserService
}

func NewSkillHandler(users *service.UserService) *SkillHandler {
	return &SkillHandler{users: users}
}

// CreateSkill godoc
// @Summary      Create a new skill
// @Description  Adds a skill students can tag their profile with.
// @Tags         admin-skills
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        input body SkillInput true "Skill Info"
// @Success      201  {object}  SkillResponse
// @Failure      400  {object}  ErrorResponse
// @Failure      403  {object}  ErrorResponse "Admin access required"
// @Failure      409  {object}  ErrorResponse "Skill already exists"
// @Router       /admin/skills [post]
func (h *SkillHandler) CreateSkill(c *gin.Context) {
	var input SkillInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	skill, err := h.users.CreateSkill(c.Request.Context(), input.Name)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, newSkillResponse(*skill))
}

// GetSkills godoc
// @Summary      Get all skills
// @Description  Retrieves the list of all available skills, ordered by name.
// @Tags         skills
// @Produce      json
// @Security     BearerAuth
// @Success      200  {array}   SkillResponse
// @Failure      401  {object}  ErrorResponse
// @Router       /skills [get]
func (h *SkillHandler) GetSkills(c *gin.Context) {
	skills, err := h.users.ListSkills(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}

	response := make([]SkillResponse, 0, len(skills))
	for _, skill := range skills {
		response = append(response, newSkillResponse(skill))
	}
	c.JSON(http.StatusOK, response)
}

// UpdateSkill godoc
// @Summary      Update a skill
// @Description  Renames an existing skill.
// @Tags         admin-skills
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      int      true  "Skill ID"
// @Param        input body SkillInput true "New Skill Info"
// @Success      200  {object}  SkillResponse
// @Failure      400  {object}  ErrorResponse
// @Failure      403  {object}  ErrorResponse "Admin access required"
// @Failure      404  {object}  ErrorResponse "Skill not found"
// @Failure      409  {object}  ErrorResponse "Skill already exists"
// @Router       /admin/skills/{id} [put]
func (h *SkillHandler) UpdateSkill(c *gin.Context) {
	id, ok := parseID(c, "id", "skill")
	if !ok {
		return
	}

	var input SkillInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	skill, err := h.users.RenameSkill(c.Request.Context(), id, input.Name)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, newSkillResponse(*skill))
}

// DeleteSkill godoc
// @Summary      Delete a skill
// @Description  Deletes a skill and removes it from every profile.
// @Tags         admin-skills
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      int  true  "Skill ID"
// @Success      200  {object}  SuccessResponse
// @Failure      400  {object}  ErrorResponse
// @Failure      403  {object}  ErrorResponse "Admin access required"
// @Failure      404  {object}  ErrorResponse "Skill not found"
// @Router       /admin/skills/{id} [delete]
func (h *SkillHandler) DeleteSkill(c *gin.Context) {
	id, ok := parseID(c, "id", "skill")
	if !ok {
		return
	}

	if err := h.users.DeleteSkill(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Skill deleted"})
}
