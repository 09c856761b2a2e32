package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/foxxcyber/pantry-chef/internal/models"
)

// RedisRecipeCache keeps generated recipes in Redis
type RedisRecipeCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisRecipeCache connects to Redis and verifies the connection
func NewRedisRecipeCache(ctx context.Context, addr, password string, db int, ttl time.Duration) (*RedisRecipeCache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &RedisRecipeCache{client: client, ttl: ttl}, nil
}

// Get returns cached recipes; ok is false on a miss
func (c *RedisRecipeCache) Get(ctx context.Context, key string) ([]models.AIRecipe, bool, error) {
	data, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("failed to get cache: %w", err)
	}

	var recipes []models.AIRecipe
	if err := json.Unmarshal(data, &recipes); err != nil {
		return nil, false, fmt.Errorf("failed to unmarshal cache: %w", err)
	}
	return recipes, true, nil
}

// Set stores recipes under key for the configured TTL
func (c *RedisRecipeCache) Set(ctx context.Context, key string, recipes []models.AIRecipe) error {
	data, err := json.Marshal(recipes)
	if err != nil {
		return fmt.Errorf("failed to marshal recipes: %w", err)
	}

	if err := c.client.Set(ctx, key, data, c.ttl).Err(); err != nil {
		return fmt.Errorf("failed to set cache: %w", err)
	}
	return nil
}

// Close releases the Redis connection
func (c *RedisRecipeCache) Close() error {
	return c.client.Close()
}
