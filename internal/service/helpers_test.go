package service

import (
	"fmt"
	"sync"
	"testing"

	"studenthelp/backend/internal/database"
	"studenthelp/backend/internal/hub"
	"studenthelp/backend/internal/models"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type published struct {
	UserID uint
	Event  hub.Event
}

// recorder is a hub.Publisher that keeps every event it is handed.
type recorder struct {
	mu     sync.Mutex
	events []published
}

func (r *recorder) Publish(userID uint, event hub.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, published{UserID: userID, Event: event})
}

func (r *recorder) For(userID uint, typ string) []hub.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []hub.Event
	for _, p := range r.events {
		if p.UserID == userID && p.Event.Type == typ {
			out = append(out, p.Event)
		}
	}
	return out
}

type fixture struct {
	db            *gorm.DB
	events        *recorder
	notifier      *Notifier
	connections   *ConnectionService
	notifications *NotificationService
	messages      *MessageService
	users         *UserService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	return newFixtureWith(t, false)
}

func newFixtureWith(t *testing.T, requireConnection bool) *fixture {
	t.Helper()

	db := database.OpenTest(t)
	events := &recorder{}
	notifier := NewNotifier(db, events)
	connections := NewConnectionService(db, notifier)
	return &fixture{
		db:            db,
		events:        events,
		notifier:      notifier,
		connections:   connections,
		notifications: NewNotificationService(db, notifier),
		messages:      NewMessageService(db, connections, events, requireConnection),
		users:         NewUserService(db, connections),
	}
}

func (f *fixture) user(t *testing.T, name string) models.User {
	t.Helper()
	u := models.User{
		Name:         name,
		Username:     name,
		Email:        fmt.Sprintf("%s@uni.edu", name),
		PasswordHash: "x",
		Role:         models.RoleUser,
	}
	require.NoError(t, f.db.Create(&u).Error)
	return u
}

func (f *fixture) notificationsOf(t *testing.T, userID uint, typ models.NotificationType) []models.Notification {
	t.Helper()
	var rows []models.Notification
	require.NoError(t, f.db.Where("user_id = ? AND type = ?", userID, typ).Find(&rows).Error)
	return rows
}
