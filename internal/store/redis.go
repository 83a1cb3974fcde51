package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/i474232898/fish-activity/internal/weather"
)

const redisKeyPrefix = "fish-activity:forecast:"

// RedisOptions configures a RedisStore.
type RedisOptions struct {
	Addr     string
	Password string
	DB       int
	TTL      time.Duration
}

// RedisStore caches forecasts as JSON in Redis, letting Redis expire them.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisStore connects to Redis and verifies the connection.
func NewRedisStore(ctx context.Context, opts RedisOptions) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         opts.Addr,
		Password:     opts.Password,
		DB:           opts.DB,
		PoolSize:     10,
		MinIdleConns: 2,
		MaxRetries:   3,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return &RedisStore{client: client, ttl: opts.TTL}, nil
}

func (r *RedisStore) Get(ctx context.Context, key string) (weather.Forecast, error) {
	data, err := r.client.Get(ctx, redisKeyPrefix+key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return weather.Forecast{}, ErrNotFound
		}
		return weather.Forecast{}, fmt.Errorf("failed to get forecast from redis: %w", err)
	}

	var forecast weather.Forecast
	if err := json.Unmarshal(data, &forecast); err != nil {
		return weather.Forecast{}, fmt.Errorf("failed to decode cached forecast: %w", err)
	}
	return forecast, nil
}

func (r *RedisStore) Set(ctx context.Context, key string, forecast weather.Forecast) error {
	data, err := json.Marshal(forecast)
	if err != nil {
		return fmt.Errorf("failed to encode forecast: %w", err)
	}
	if err := r.client.Set(ctx, redisKeyPrefix+key, data, r.ttl).Err(); err != nil {
		return fmt.Errorf("failed to set forecast in redis: %w", err)
	}
	return nil
}

// Ping checks the connection; used by the health endpoint.
func (r *RedisStore) Ping(ctx context.Context) error {
	if err := r.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis ping failed: %w", err)
	}
	return nil
}

func (r *RedisStore) Close() error {
	return r.client.Close()
}
