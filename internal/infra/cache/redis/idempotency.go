package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"spacio/internal/app/middleware"
)

const keyPrefix = "spacio:idem:"

// IdempotencyStore keeps command results in Redis with a fixed TTL.
type IdempotencyStore struct {
	client *redis.Client
	ttl    time.Duration
}

func NewIdempotencyStore(client *redis.Client, ttl time.Duration) *IdempotencyStore {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &IdempotencyStore{client: client, ttl: ttl}
}

type record struct {
	Command    string    `json:"command"`
	Payload    []byte    `json:"payload"`
	OccurredAt time.Time `json:"occurred_at"`
}

func (s *IdempotencyStore) Get(ctx context.Context, key string) (middleware.IdempotencyRecord, bool, error) {
	data, err := s.client.Get(ctx, cacheKey(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return middleware.IdempotencyRecord{}, false, nil
	}
	if err != nil {
		return middleware.IdempotencyRecord{}, false, fmt.Errorf("redis get failed: %w", err)
	}
	var rec record
	if err := json.Unmarshal(data, &rec); err != nil {
		return middleware.IdempotencyRecord{}, false, fmt.Errorf("unmarshal idempotency record failed: %w", err)
	}
	return middleware.IdempotencyRecord{
		Key:        key,
		Command:    rec.Command,
		Payload:    rec.Payload,
		OccurredAt: rec.OccurredAt,
	}, true, nil
}

func (s *IdempotencyStore) Save(ctx context.Context, rec middleware.IdempotencyRecord) error {
	data, err := json.Marshal(record{Command: rec.Command, Payload: rec.Payload, OccurredAt: rec.OccurredAt})
	if err != nil {
		return fmt.Errorf("marshal idempotency record failed: %w", err)
	}
	if err := s.client.Set(ctx, cacheKey(rec.Key), data, s.ttl).Err(); err != nil {
		return fmt.Errorf("redis set failed: %w", err)
	}
	return nil
}

func cacheKey(key string) string {
	return keyPrefix + key
}

var _ middleware.IdempotencyStore = (*IdempotencyStore)(nil)
