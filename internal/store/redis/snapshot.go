package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/MrSnakeDoc/roomwatch/internal/domain"
)

// Store publishes server snapshots to Redis for other consumers.
type Store struct {
	client *redis.Client
	ttl    time.Duration
}

// NewStore creates a store whose entries expire after ttl.
func NewStore(client *redis.Client, ttl time.Duration) *Store {
	return &Store{
		client: client,
		ttl:    ttl,
	}
}

// SaveSnapshots writes every present snapshot and deletes the absent ones,
// in one pipeline.
func (s *Store) SaveSnapshots(ctx context.Context, snaps map[string]*domain.ServerSnapshot) error {
	pipe := s.client.Pipeline()

	for addr, snap := range snaps {
		key := ServerKey(addr)
		pipe.SAdd(ctx, AllServersKey(), addr)

		if snap == nil {
			pipe.Del(ctx, key)
			continue
		}

		data, err := json.Marshal(snap)
		if err != nil {
			return fmt.Errorf("failed to marshal snapshot %s: %w", addr, err)
		}
		pipe.Set(ctx, key, data, s.ttl)
	}

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to save snapshots: %w", err)
	}
	return nil
}

// Prune removes published servers that are no longer in keep.
func (s *Store) Prune(ctx context.Context, keep map[string]*domain.ServerSnapshot) (int, error) {
	published, err := s.client.SMembers(ctx, AllServersKey()).Result()
	if err != nil {
		return 0, fmt.Errorf("failed to list published servers: %w", err)
	}

	removed := 0
	for _, addr := range published {
		if _, ok := keep[addr]; ok {
			continue
		}
		if err := s.DeleteSnapshot(ctx, addr); err != nil {
			return removed, err
		}
		removed++
	}
	return removed, nil
}

// DeleteSnapshot removes addr's snapshot and its membership in the server set.
func (s *Store) DeleteSnapshot(ctx context.Context, addr string) error {
	pipe := s.client.TxPipeline()
	pipe.Del(ctx, ServerKey(addr))
	pipe.SRem(ctx, AllServersKey(), addr)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to delete snapshot %s: %w", addr, err)
	}
	return nil
}
