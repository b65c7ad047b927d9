package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/plateful/plateful-api/internal/dashboard"
	"github.com/plateful/plateful-api/internal/services/suggest"
	"github.com/redis/go-redis/v9"
)

// DefaultSnapshotTTL bounds how stale a warm snapshot can get before
// the next refresh job rebuilds it.
const DefaultSnapshotTTL = 5 * time.Minute

const (
	upcomingKeyPrefix    = "snapshot:upcoming:"
	suggestionsKeyPrefix = "snapshot:suggestions:"
)

// redisClient is the subset of the go-redis API the snapshot store
// uses. Tests provide a fake; production uses *redis.Client.
type redisClient interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value any, expiration time.Duration) *redis.StatusCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
}

// Snapshots is a Redis-backed warm cache of per-family derived views:
// the dashboard's upcoming-meals list and precomputed meal
// suggestions. The builders stay the source of truth; a snapshot only
// saves the recompute on the worker warm path and the suggestions
// endpoint. Entries expire on their own, so invalidation is an
// optimization, not a correctness requirement.
type Snapshots struct {
	client redisClient
	ttl    time.Duration
}

// New connects to Redis using a URL (redis://host:port/db) and returns
// a snapshot store with the given TTL.
func New(redisURL string, ttl time.Duration) (*Snapshots, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis URL: %w", err)
	}

	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return NewWithClient(client, ttl), nil
}

// NewWithClient wraps an existing client. ttl <= 0 selects the default.
func NewWithClient(client redisClient, ttl time.Duration) *Snapshots {
	if ttl <= 0 {
		ttl = DefaultSnapshotTTL
	}
	return &Snapshots{client: client, ttl: ttl}
}

// SetUpcoming stores a family's upcoming-meals snapshot
func (s *Snapshots) SetUpcoming(ctx context.Context, familyID uuid.UUID, meals []dashboard.DisplayMeal) error {
	return s.set(ctx, upcomingKey(familyID), meals)
}

// GetUpcoming returns a family's upcoming-meals snapshot. The second
// return value is false when there is no warm snapshot.
func (s *Snapshots) GetUpcoming(ctx context.Context, familyID uuid.UUID) ([]dashboard.DisplayMeal, bool, error) {
	var meals []dashboard.DisplayMeal
	found, err := s.get(ctx, upcomingKey(familyID), &meals)
	return meals, found, err
}

// SetSuggestions stores a family's precomputed meal suggestions
func (s *Snapshots) SetSuggestions(ctx context.Context, familyID uuid.UUID, suggestions []suggest.Suggestion) error {
	return s.set(ctx, suggestionsKey(familyID), suggestions)
}

// GetSuggestions returns a family's precomputed meal suggestions
func (s *Snapshots) GetSuggestions(ctx context.Context, familyID uuid.UUID) ([]suggest.Suggestion, bool, error) {
	var suggestions []suggest.Suggestion
	found, err := s.get(ctx, suggestionsKey(familyID), &suggestions)
	return suggestions, found, err
}

// Invalidate drops a family's snapshots after a meal or recipe write
// so the next refresh job rebuilds them from fresh data.
func (s *Snapshots) Invalidate(ctx context.Context, familyID uuid.UUID) error {
	if err := s.client.Del(ctx, upcomingKey(familyID), suggestionsKey(familyID)).Err(); err != nil {
		return fmt.Errorf("failed to invalidate snapshots: %w", err)
	}
	return nil
}

// HealthCheck verifies the Redis connection is usable. It probes with
// a read; a missing key is a healthy answer.
func (s *Snapshots) HealthCheck(ctx context.Context) error {
	if err := s.client.Get(ctx, "snapshot:health").Err(); err != nil && !errors.Is(err, redis.Nil) {
		return fmt.Errorf("redis health check failed: %w", err)
	}
	return nil
}

func (s *Snapshots) set(ctx context.Context, key string, v any) error {
	payload, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to marshal snapshot: %w", err)
	}
	if err := s.client.Set(ctx, key, payload, s.ttl).Err(); err != nil {
		return fmt.Errorf("failed to store snapshot: %w", err)
	}
	return nil
}

func (s *Snapshots) get(ctx context.Context, key string, dest any) (bool, error) {
	payload, err := s.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to read snapshot: %w", err)
	}
	if err := json.Unmarshal(payload, dest); err != nil {
		// A corrupt snapshot is treated as a miss; the caller recomputes.
		return false, nil
	}
	return true, nil
}

func upcomingKey(familyID uuid.UUID) string {
	return upcomingKeyPrefix + familyID.String()
}

func suggestionsKey(familyID uuid.UUID) string {
	return suggestionsKeyPrefix + familyID.String()
}
