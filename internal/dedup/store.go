// internal/dedup/store.go
package dedup

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const keyPrefix = "notification:event:"

// Store tracks processed event IDs in Redis so redelivered events do
// not notify twice.
type Store struct {
	client *redis.Client
	ttl    time.Duration
}

// NewStore creates a store. Keys expire after ttl; redeliveries past
// that window are treated as new events.
func NewStore(client *redis.Client, ttl time.Duration) *Store {
	return &Store{
		client: client,
		ttl:    ttl,
	}
}

// FirstSeen atomically marks the event ID and reports whether this is
// its first delivery.
func (s *Store) FirstSeen(ctx context.Context, eventID string) (bool, error) {
	ok, err := s.client.SetNX(ctx, keyPrefix+eventID, time.Now().UTC().Format(time.RFC3339), s.ttl).Result()
	if err != nil {
		return false, fmt.Errorf("failed to check event dedup key: %w", err)
	}
	return ok, nil
}
