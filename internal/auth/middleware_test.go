package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"studenthelp/backend/internal/config"
	"studenthelp/backend/internal/database"
	"studenthelp/backend/internal/models"
	"studenthelp/backend/pkg/jwt"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func setupConfig(t *testing.T) {
	t.Helper()
	prev := config.AppConfig
	config.AppConfig = &config.Config{JWTSecret: "test-secret", TokenTTL: time.Hour}
	t.Cleanup(func() { config.AppConfig = prev })
}

func whoami(c *gin.Context) {
	id, _ := CurrentUserID(c)
	c.JSON(http.StatusOK, gin.H{"userID": id})
}

func TestAuthMiddleware(t *testing.T) {
	setupConfig(t)
	r := gin.New()
	r.GET("/me", AuthMiddleware(), whoami)

	token, err := jwt.GenerateToken(5)
	require.NoError(t, err)

	tests := []struct {
		name   string
		header string
		want   int
	}{
		{"valid token", "Bearer " + token, http.StatusOK},
		{"missing header", "", http.StatusUnauthorized},
		{"wrong scheme", "Basic " + token, http.StatusUnauthorized},
		{"bad token", "Bearer nope", http.StatusUnauthorized},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/me", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)
			assert.Equal(t, tt.want, w.Code)
			if tt.want == http.StatusOK {
				assert.JSONEq(t, `{"userID":5}`, w.Body.String())
			}
		})
	}
}

func TestStreamAuthAcceptsQueryToken(t *testing.T) {
	setupConfig(t)
	r := gin.New()
	r.GET("/stream", StreamAuthMiddleware(), whoami)
	r.GET("/plain", AuthMiddleware(), whoami)

	token, err := jwt.GenerateToken(9)
	require.NoError(t, err)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/stream?token="+token, nil))
	assert.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/plain?token="+token, nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAdminMiddleware(t *testing.T) {
	setupConfig(t)
	db := database.OpenTest(t)

	admin := models.User{Name: "Admin", Username: "admin", Email: "admin@uni.edu", PasswordHash: "x", Role: models.RoleAdmin}
	student := models.User{Name: "Student", Username: "student", Email: "student@uni.edu", PasswordHash: "x", Role: models.RoleUser}
	require.NoError(t, db.Create(&admin).Error)
	require.NoError(t, db.Create(&student).Error)

	r := gin.New()
	r.GET("/admin", AuthMiddleware(), AdminMiddleware(db), whoami)

	call := func(userID uint) int {
		token, err := jwt.GenerateToken(userID)
		require.NoError(t, err)
		req := httptest.NewRequest(http.MethodGet, "/admin", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		return w.Code
	}

	assert.Equal(t, http.StatusOK, call(admin.ID))
	assert.Equal(t, http.StatusForbidden, call(student.ID))
	assert.Equal(t, http.StatusNotFound, call(9999))
}

func TestActiveUserMiddleware(t *testing.T) {
	setupConfig(t)
	db := database.OpenTest(t)

	user := models.User{Name: "Student", Username: "student", Email: "student@uni.edu", PasswordHash: "x"}
	require.NoError(t, db.Create(&user).Error)

	r := gin.New()
	r.GET("/me", AuthMiddleware(), ActiveUserMiddleware(db), whoami)

	call := func(userID uint) int {
		token, err := jwt.GenerateToken(userID)
		require.NoError(t, err)
		req := httptest.NewRequest(http.MethodGet, "/me", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		return w.Code
	}

	assert.Equal(t, http.StatusOK, call(user.ID))
	assert.Equal(t, http.StatusUnauthorized, call(user.ID+100))
}
