// Package bootstrap wires shared runtime dependencies for the server and
// the auxiliary commands.
package bootstrap

import (
	"context"
	"fmt"
	"log"
	"strings"

	"knowhere/internal/cache"
	"knowhere/internal/config"
	"knowhere/internal/database"
	"knowhere/internal/repository"
	"knowhere/internal/seed"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// Options control runtime initialization behavior.
type Options struct {
	// SeedDemoEvents fills an empty events table with generated demo data.
	// Only honored in development.
	SeedDemoEvents bool
}

// InitRuntime connects to the database and Redis and optionally seeds
// demo data. The Redis client may be nil when the server is unreachable;
// chat storage then degrades and the rest of the app keeps working.
func InitRuntime(cfg *config.Config, opts Options) (*gorm.DB, *redis.Client, error) {
	db, err := database.Connect(cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("database connection failed: %w", err)
	}

	cache.InitRedis(cfg.RedisURL)
	r := cache.GetClient()

	if err := ensureDemoEvents(cfg, db, opts); err != nil {
		return nil, nil, fmt.Errorf("failed to seed demo events: %w", err)
	}

	return db, r, nil
}

// ensureDemoEvents keeps a fresh development database from starting out
// as an empty listing page.
func ensureDemoEvents(cfg *config.Config, db *gorm.DB, opts Options) error {
	if cfg == nil || db == nil || !opts.SeedDemoEvents {
		return nil
	}
	if !strings.EqualFold(cfg.Env, "development") {
		return nil
	}

	repo := repository.NewEventRepository(db)
	ctx := context.Background()

	existing, err := repo.ListAll(ctx)
	if err != nil {
		return err
	}
	if len(existing) > 0 {
		return nil
	}

	seeder := seed.NewSeeder(repo, seed.Options{NumEvents: 12})
	events, err := seeder.Run(ctx)
	if err != nil {
		return err
	}
	log.Printf("development bootstrap seeded %d demo events", len(events))
	return nil
}
