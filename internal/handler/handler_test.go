package handler

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"studenthelp/backend/internal/apperr"
	"studenthelp/backend/internal/database"
	"studenthelp/backend/internal/hub"
	"studenthelp/backend/internal/models"
	"studenthelp/backend/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func TestRespondErrorMapsKinds(t *testing.T) {
	tests := []struct {
		err  error
		code int
		body string
	}{
		{apperr.NewBadRequest("bad"), http.StatusBadRequest, `{"error":"bad"}`},
		{apperr.New(apperr.Unauthenticated, "who"), http.StatusUnauthorized, `{"error":"who"}`},
		{apperr.NewForbidden("no"), http.StatusForbidden, `{"error":"no"}`},
		{apperr.NewNotFound("gone"), http.StatusNotFound, `{"error":"gone"}`},
		{apperr.NewConflict("again"), http.StatusConflict, `{"error":"again"}`},
		{apperr.Wrap(apperr.Internal, "db", errors.New("password=secret")), http.StatusInternalServerError, `{"error":"Internal server error"}`},
		{errors.New("raw"), http.StatusInternalServerError, `{"error":"Internal server error"}`},
	}
	for _, tt := range tests {
		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)
		c.Request = httptest.NewRequest(http.MethodGet, "/", nil)

		respondError(c, tt.err)

		assert.Equal(t, tt.code, w.Code)
		assert.JSONEq(t, tt.body, w.Body.String())
	}
}

func TestParseID(t *testing.T) {
	r := gin.New()
	r.GET("/things/:id", func(c *gin.Context) {
		if id, ok := parseID(c, "id", "thing"); ok {
			c.JSON(http.StatusOK, gin.H{"id": id})
		}
	})

	for path, code := range map[string]int{
		"/things/12":  http.StatusOK,
		"/things/0":   http.StatusBadRequest,
		"/things/abc": http.StatusBadRequest,
		"/things/-1":  http.StatusBadRequest,
	} {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
		assert.Equal(t, code, w.Code, path)
	}
}

func TestNewPaginatedResponse(t *testing.T) {
	resp := NewPaginatedResponse([]int(nil), 21, 2, 10)
	assert.NotNil(t, resp.Data)
	assert.Equal(t, 3, resp.Meta.TotalPages)
	assert.Equal(t, 2, resp.Meta.CurrentPage)
}

// streamRecorder adds the CloseNotify support gin's Stream expects.
type streamRecorder struct {
	*httptest.ResponseRecorder
	closed chan bool
}

func (r *streamRecorder) CloseNotify() <-chan bool { return r.closed }

func TestStreamDeliversHubEvents(t *testing.T) {
	db := database.OpenTest(t)
	alice := models.User{Name: "Alice", Username: "alice", Email: "alice@uni.edu", PasswordHash: "x"}
	require.NoError(t, db.Create(&alice).Error)

	h := hub.NewHub()
	notifier := service.NewNotifier(db, h)
	handler := NewNotificationHandler(service.NewNotificationService(db, notifier), h)
	handler.heartbeat = time.Hour

	r := gin.New()
	r.GET("/stream", func(c *gin.Context) { c.Set("userID", alice.ID) }, handler.Stream)

	ctx, cancel := context.WithCancel(context.Background())
	req := httptest.NewRequest(http.MethodGet, "/stream", nil).WithContext(ctx)
	rec := &streamRecorder{ResponseRecorder: httptest.NewRecorder(), closed: make(chan bool, 1)}

	done := make(chan struct{})
	go func() {
		defer close(done)
		r.ServeHTTP(rec, req)
	}()

	require.Eventually(t, func() bool { return h.Clients(alice.ID) == 1 }, 2*time.Second, 10*time.Millisecond)

	_, err := notifier.Notify(context.Background(), alice.ID, models.NotificationSystem, "Library closes early", nil)
	require.NoError(t, err)

	// Give the stream loop a moment to write the event, then hang up.
	time.Sleep(50 * time.Millisecond)
	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("stream did not stop after the client went away")
	}

	body := rec.Body.String()
	assert.True(t, strings.HasPrefix(body, "event:ready"))
	assert.Contains(t, body, "event:message")
	assert.Contains(t, body, "Library closes early")
	assert.True(t, strings.HasPrefix(rec.Header().Get("Content-Type"), "text/event-stream"))
	assert.Zero(t, h.Clients(alice.ID))
}
