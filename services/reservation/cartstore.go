package reservation

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"bookify/models"

	"github.com/go-redis/redis/v8"
)

const cartKeyPrefix = "cart:"

// RedisCartStore persists guest carts as JSON blobs in Redis with a TTL,
// so an abandoned cart eventually expires on its own.
type RedisCartStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisCartStore wraps a Redis client as a CartStore. ttl <= 0 keeps
// carts indefinitely.
func NewRedisCartStore(client *redis.Client, ttl time.Duration) *RedisCartStore {
	return &RedisCartStore{client: client, ttl: ttl}
}

func (s *RedisCartStore) Save(ctx context.Context, key string, parts []models.CartPart) error {
	data, err := json.Marshal(parts)
	if err != nil {
		return fmt.Errorf("failed to marshal cart: %w", err)
	}
	if err := s.client.Set(ctx, cartKeyPrefix+key, data, s.ttl).Err(); err != nil {
		return fmt.Errorf("failed to store cart: %w", err)
	}
	return nil
}

func (s *RedisCartStore) Load(ctx context.Context, key string) ([]models.CartPart, error) {
	data, err := s.client.Get(ctx, cartKeyPrefix+key).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load cart: %w", err)
	}
	var parts []models.CartPart
	if err := json.Unmarshal([]byte(data), &parts); err != nil {
		return nil, fmt.Errorf("failed to unmarshal cart: %w", err)
	}
	return parts, nil
}

func (s *RedisCartStore) Delete(ctx context.Context, key string) error {
	if err := s.client.Del(ctx, cartKeyPrefix+key).Err(); err != nil {
		return fmt.Errorf("failed to delete cart: %w", err)
	}
	return nil
}

// MemoryCartStore is a process-local CartStore used in tests and when no
// Redis instance is configured.
type MemoryCartStore struct {
	mu    sync.Mutex
	carts map[string][]models.CartPart
}

func NewMemoryCartStore() *MemoryCartStore {
	return &MemoryCartStore{carts: make(map[string][]models.CartPart)}
}

func (s *MemoryCartStore) Save(_ context.Context, key string, parts []models.CartPart) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.carts[key] = append([]models.CartPart(nil), parts...)
	return nil
}

func (s *MemoryCartStore) Load(_ context.Context, key string) ([]models.CartPart, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]models.CartPart(nil), s.carts[key]...), nil
}

func (s *MemoryCartStore) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.carts, key)
	return nil
}
