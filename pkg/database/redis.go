package database

import (
	"context"
	"fmt"
	"time"

	"learning_aid_backend/internal/config"
	"learning_aid_backend/pkg/logger"

	"github.com/go-redis/redis/v8"
)

// InitRedis returns nil without error when redis is disabled; callers treat a nil
// client as "no cache, no revocation list".
func InitRedis(cfg *config.RedisConfig) (*redis.Client, error) {
	if !cfg.Enabled {
		return nil, nil
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:         fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Password:     cfg.Password,
		DB:           cfg.DB,
		PoolSize:     50,
		MinIdleConns: 5,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if _, err := rdb.Ping(ctx).Result(); err != nil {
		return nil, err
	}

	logger.Log.Info("Redis connection established")
	return rdb, nil
}
