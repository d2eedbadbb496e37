package cli

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"

	"studenthelp/backend/internal/config"
	"studenthelp/backend/internal/database"
	"studenthelp/backend/internal/hub"
	"studenthelp/backend/internal/models"
	"studenthelp/backend/internal/ratelimit"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm/logger"
)

func TestRootCommandHasSubcommands(t *testing.T) {
	cmd := NewRootCommand()

	names := map[string]bool{}
	for _, sub := range cmd.Commands() {
		names[sub.Name()] = true
	}
	assert.True(t, names["serve"])
	assert.True(t, names["migrate"])
	assert.NotNil(t, cmd.PersistentFlags().Lookup("env-dir"))
}

func TestMigrateCreatesSchema(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "app.db")
	t.Setenv("DATABASE_URL", "sqlite://"+path)

	cmd := NewRootCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"migrate", "--env-dir", dir})

	require.NoError(t, cmd.Execute())
	assert.Contains(t, out.String(), "up to date")

	db, err := database.Open(sqlite.Open(path), logger.Silent)
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	defer sqlDB.Close()
	assert.True(t, db.Migrator().HasTable(&models.Connection{}))
	assert.True(t, db.Migrator().HasTable(&models.Notification{}))
}

func TestMigrateRequiresDatabaseURL(t *testing.T) {
	t.Setenv("DATABASE_URL", "")

	cmd := NewRootCommand()
	cmd.SetArgs([]string{"migrate", "--env-dir", t.TempDir()})
	assert.ErrorContains(t, cmd.Execute(), "DATABASE_URL")
}

func TestOptionalBackendsFallBack(t *testing.T) {
	local := hub.NewHub()

	events, closeRelay := startRelay(&config.Config{}, local)
	defer closeRelay()
	assert.Same(t, local, events)

	limiter, closeLimiter := startLimiter(context.Background(), &config.Config{})
	defer closeLimiter()
	assert.IsType(t, ratelimit.Noop{}, limiter)
}
