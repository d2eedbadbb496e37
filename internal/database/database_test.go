package database

import (
	"path/filepath"
	"testing"

	"studenthelp/backend/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestConnectSQLiteRunsMigrations(t *testing.T) {
	dsn := "sqlite://" + filepath.Join(t.TempDir(), "app.db")

	db, err := Connect(dsn)
	require.NoError(t, err)
	t.Cleanup(func() {
		sqlDB, _ := db.DB()
		_ = sqlDB.Close()
		DB = nil
	})

	assert.Same(t, db, DB)
	for _, table := range []any{&models.User{}, &models.Skill{}, &models.Connection{}, &models.Notification{}, &models.Message{}} {
		assert.True(t, db.Migrator().HasTable(table))
	}
}

func TestActivePairKeyIsUnique(t *testing.T) {
	db := OpenTest(t)

	alice := models.User{Name: "Alice", Username: "alice", Email: "alice@uni.edu", PasswordHash: "x"}
	bob := models.User{Name: "Bob", Username: "bob", Email: "bob@uni.edu", PasswordHash: "x"}
	require.NoError(t, db.Create(&alice).Error)
	require.NoError(t, db.Create(&bob).Error)

	key := models.PairKey(alice.ID, bob.ID)
	first := models.Connection{RequesterID: alice.ID, ReceiverID: bob.ID, PairKey: key, ActivePairKey: &key, Status: models.StatusPending}
	require.NoError(t, db.Create(&first).Error)

	second := models.Connection{RequesterID: bob.ID, ReceiverID: alice.ID, PairKey: key, ActivePairKey: &key, Status: models.StatusPending}
	assert.ErrorIs(t, db.Create(&second).Error, gorm.ErrDuplicatedKey)

	// Declined rows carry no active key and may pile up.
	for i := 0; i < 2; i++ {
		declined := models.Connection{RequesterID: bob.ID, ReceiverID: alice.ID, PairKey: key, Status: models.StatusDeclined}
		assert.NoError(t, db.Create(&declined).Error)
	}
}
