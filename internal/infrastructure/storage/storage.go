package storage

import (
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"marketdash/internal/application/port"
	"marketdash/internal/infrastructure/config"
	"marketdash/internal/infrastructure/storage/composite"
	"marketdash/internal/infrastructure/storage/postgres"
	"marketdash/internal/infrastructure/storage/redis"
	"marketdash/internal/infrastructure/storage/sqlite"
)

// Open builds the repository stack from config: one repo per driver, fanned
// out through the composite when more than one is selected. An empty driver
// list returns (nil, nil); the caller substitutes a noop.
func Open(cfg *config.Config) (port.Repository, error) {
	var repos []port.Repository
	for _, driver := range cfg.Storage.Drivers {
		switch driver {
		case "sqlite":
			r, err := sqlite.New(cfg.Storage.SQLitePath)
			if err != nil {
				return nil, fmt.Errorf("sqlite: %w", err)
			}
			repos = append(repos, r)
		case "postgres":
			r, err := postgres.New(cfg.Storage.PostgresDSN)
			if err != nil {
				return nil, fmt.Errorf("postgres: %w", err)
			}
			repos = append(repos, r)
		case "redis":
			rdb := goredis.NewClient(&goredis.Options{Addr: cfg.Storage.RedisAddr})
			repos = append(repos, redis.New(rdb, cfg.Storage.RedisPrefix, 24*time.Hour))
		default:
			return nil, fmt.Errorf("unknown storage driver %q", driver)
		}
	}

	switch len(repos) {
	case 0:
		return nil, nil
	case 1:
		return repos[0], nil
	default:
		return composite.New(repos...), nil
	}
}
