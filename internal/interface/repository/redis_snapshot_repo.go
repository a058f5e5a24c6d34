package repository

import (
	"context"
	"errors"
	"fmt"

	"buswatch-service/internal/domain/entity"
	"buswatch-service/internal/domain/repository"

	"github.com/redis/go-redis/v9"
)

const redisKeyPrefix = "buswatch:snapshot:"

// RedisSnapshotRepository stores each journey's snapshot as one JSON string key.
type RedisSnapshotRepository struct {
	client *redis.Client
}

// NewRedisSnapshotRepository creates a Redis-backed snapshot store
func NewRedisSnapshotRepository(client *redis.Client) repository.SnapshotRepository {
	return &RedisSnapshotRepository{client: client}
}

// Load returns the stored listings, or an empty slice when the key does not exist.
func (r *RedisSnapshotRepository) Load(ctx context.Context, journeyID string) ([]entity.Listing, error) {
	if err := validateJourneyID(journeyID); err != nil {
		return nil, err
	}

	data, err := r.client.Get(ctx, redisKeyPrefix+journeyID).Bytes()
	if errors.Is(err, redis.Nil) {
		return []entity.Listing{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("redis get snapshot: %w", err)
	}

	return decodeListings(journeyID, data)
}

// Save replaces the key in a single SET.
func (r *RedisSnapshotRepository) Save(ctx context.Context, journeyID string, listings []entity.Listing) error {
	if err := validateJourneyID(journeyID); err != nil {
		return err
	}

	data, err := encodeListings(listings)
	if err != nil {
		return err
	}

	if err := r.client.Set(ctx, redisKeyPrefix+journeyID, data, 0).Err(); err != nil {
		return fmt.Errorf("redis set snapshot: %w", err)
	}
	return nil
}
