package redis

import (
	"fmt"

	"github.com/redis/go-redis/v9"

	"estateline/internal/config"
)

// NewClient creates a Redis client from application config. The client is
// created once in main and injected; nothing reads it from package state.
func NewClient(cfg config.RedisConfig) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%s", cfg.Host, cfg.Port),
		Password: cfg.Password,
		DB:       cfg.DB,
	})
}
