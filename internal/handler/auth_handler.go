package handler

import (
	"net/http"

	"studenthelp/backend/internal/models"
	"studenthelp/backend/internal/service"
	"studenthelp/backend/pkg/jwt"

	"github.com/gin-gonic/gin"
)

// RegisterInput defines the structure for user registration.
type RegisterInput struct {
	Name     string `json:"name" binding:"required,max=255" example:"Alice Andersson"`
	Username string `json:"username" binding:"omitempty,max=255" example:"alice"`
	Email    string `json:"email" binding:"required,email" example:"alice@uni.edu"`
	Password string `json:"password" binding:"required,min=8" example:"password123"`
}

// LoginInput defines the structure for user login.
type LoginInput struct {
	Login    string `json:"login" binding:"required" example:"alice"`
	Password string `json:"password" binding:"required" example:"password123"`
}

// TokenResponse is returned by every endpoint that signs a user in.
type TokenResponse struct {
	Token string              `json:"token"`
	User  PrivateUserResponse `json:"user"`
}

// AuthHandler issues tokens.
type AuthHandler struct {
	users *service.UserService
}

// NewAuthHandler creates an AuthHandler.
func NewAuthHandler(users *service.UserService) *AuthHandler {
	return &AuthHandler{users: users}
}

// RegisterUser godoc
// @Summary      Register a new user
// @Description  Creates a new student account and returns an authentication token.
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        input body RegisterInput true "Registration Info"
// @Success      201  {object}  TokenResponse
// @Failure      400  {object}  ErrorResponse
// @Failure      409  {object}  ErrorResponse
// @Failure      500  {object}  ErrorResponse
// @Router       /auth/register [post]
func (h *AuthHandler) RegisterUser(c *gin.Context) {
	var input RegisterInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	user, err := h.users.Register(c.Request.Context(), service.RegisterParams{
		Name:     input.Name,
		Username: input.Username,
		Email:    input.Email,
		Password: input.Password,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	writeToken(c, http.StatusCreated, user)
}

// LoginUser godoc
// @Summary      Log in a user
// @Description  Authenticates a user with username/email and password, and returns a new token.
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        input body LoginInput true "Login Info"
// @Success      200  {object}  TokenResponse
// @Failure      400  {object}  ErrorResponse "Invalid input"
// @Failure      401  {object}  ErrorResponse "Invalid credentials"
// @Failure      500  {object}  ErrorResponse "Internal server error"
// @Router       /auth/login [post]
func (h *AuthHandler) LoginUser(c *gin.Context) {
	var input LoginInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	user, err := h.users.Authenticate(c.Request.Context(), input.Login, input.Password)
	if err != nil {
		respondError(c, err)
		return
	}

	writeToken(c, http.StatusOK, user)
}

// GuestLogin godoc
// @Summary      Start a guest session
// @Description  Creates a temporary account that is hidden from search and returns a token for it.
// @Tags         auth
// @Produce      json
// @Success      201  {object}  TokenResponse
// @Failure      500  {object}  ErrorResponse
// @Router       /auth/guest [post]
func (h *AuthHandler) GuestLogin(c *gin.Context) {
	user, err := h.users.CreateGuest(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}

	writeToken(c, http.StatusCreated, user)
}

func writeToken(c *gin.Context, status int, user *models.User) {
	token, err := jwt.GenerateToken(user.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate token"})
		return
	}

	c.JSON(status, TokenResponse{
		Token: token,
		User: PrivateUserResponse{
			PublicUserResponse: buildPublicUserResponse(*user, nil),
			Email:              user.Email,
			Role:               user.Role,
			IsTemporary:        user.IsTemporary,
			CreatedAt:          user.CreatedAt,
		},
	})
}
