// Package bootstrap wires the process-wide runtime dependencies shared by the binaries.
package bootstrap

import (
	"fmt"

	"vaultbox/internal/cache"
	"vaultbox/internal/config"
	"vaultbox/internal/database"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// InitRuntime connects to the database and Redis. The Redis client is nil
// when Redis is not configured or unreachable.
func InitRuntime(cfg *config.Config) (*gorm.DB, *redis.Client, error) {
	db, err := database.Connect(cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("database connection failed: %w", err)
	}
	return db, cache.InitRedis(cfg.RedisURL), nil
}
