package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/parkj/tubelens-go/internal/constants"
)

const redisSlotPrefix = "tubelens:slot:"

type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

// RedisSlotStore persists cache slots in Redis. Expiry stays the caches'
// responsibility; slots are written without a Redis TTL.
type RedisSlotStore struct {
	client *redis.Client
	logger *zap.Logger
}

func NewRedisSlotStore(cfg RedisConfig, logger *zap.Logger) (*RedisSlotStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Password:     cfg.Password,
		DB:           cfg.DB,
		MaxRetries:   3,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
		PoolSize:     10,
	})

	ctx, cancel := context.WithTimeout(context.Background(), constants.RedisConfig.ReadyTimeout)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	logger.Info("Redis connected",
		zap.String("addr", fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)),
		zap.Int("db", cfg.DB),
	)

	return &RedisSlotStore{client: client, logger: logger}, nil
}

func (rs *RedisSlotStore) Read(ctx context.Context, slot string) ([]byte, error) {
	data, err := rs.client.Get(ctx, redisSlotPrefix+slot).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return data, nil
}

func (rs *RedisSlotStore) Write(ctx context.Context, slot string, data []byte) error {
	return rs.client.Set(ctx, redisSlotPrefix+slot, data, 0).Err()
}

func (rs *RedisSlotStore) Delete(ctx context.Context, slot string) error {
	return rs.client.Del(ctx, redisSlotPrefix+slot).Err()
}

func (rs *RedisSlotStore) Close() error {
	if err := rs.client.Close(); err != nil {
		rs.logger.Error("Failed to close Redis connection", zap.Error(err))
		return err
	}
	rs.logger.Info("Redis disconnected")
	return nil
}
