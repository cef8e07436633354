package database

import (
	"context"
	"path/filepath"
	"testing"

	"vaultbox/internal/config"
	"vaultbox/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConnect_SQLiteMigratesSchema(t *testing.T) {
	cfg := &config.Config{
		Env:      "test",
		DBDriver: "sqlite",
		DBPath:   filepath.Join(t.TempDir(), "vaultbox.db"),
	}

	db, err := Connect(cfg)
	require.NoError(t, err)
	require.NoError(t, Ping(context.Background(), db))

	for _, model := range PersistentModels() {
		assert.True(t, db.Migrator().HasTable(model), "%T table missing", model)
	}
	assert.True(t, db.Migrator().HasIndex(&models.PostReaction{}, "idx_post_reaction_user_post"))
	assert.True(t, db.Migrator().HasIndex(&models.Vault{}, "idx_vault_user_title"))

	sqlDB, err := db.DB()
	require.NoError(t, err)
	assert.Equal(t, 1, sqlDB.Stats().MaxOpenConnections)

	assert.NotNil(t, db.Callback().Query().Get("metrics:observe_query"))
	var users []models.User
	require.NoError(t, db.Find(&users).Error)
}

func TestPostgresDSN_DefaultsSSLMode(t *testing.T) {
	dsn := PostgresDSN(&config.Config{DBHost: "db", DBPort: "5432", DBUser: "u", DBPassword: "p", DBName: "vaultbox"})
	assert.Equal(t, "host=db port=5432 user=u password=p dbname=vaultbox sslmode=disable", dsn)
}
