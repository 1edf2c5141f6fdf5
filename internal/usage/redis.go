package usage

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisStore keeps usage counters in a Redis hash per user. Increments use
// HIncrBy so concurrent debates never lose counts.
type RedisStore struct {
	client *redis.Client
}

// NewRedisStore wraps an existing Redis client.
func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

func usageKey(userID string) string {
	return "usage:" + userID
}

// Profile loads the user's usage hash. A user with no hash yet gets a fresh
// free-tier profile whose window starts now.
func (s *RedisStore) Profile(ctx context.Context, userID string) (*Profile, error) {
	fields, err := s.client.HGetAll(ctx, usageKey(userID)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to load usage for %s: %w", userID, err)
	}

	profile := &Profile{
		Tier:          TierFree,
		DebatesLimit:  DefaultLimits[TierFree],
		WindowResetAt: firstOfNextMonth(time.Now()),
	}
	if len(fields) == 0 {
		return profile, nil
	}

	if v, ok := fields["used"]; ok {
		if used, err := strconv.Atoi(v); err == nil {
			profile.DebatesUsed = used
		}
	}
	if v, ok := fields["tier"]; ok && v != "" {
		profile.Tier = v
		if limit, known := DefaultLimits[v]; known {
			profile.DebatesLimit = limit
		}
	}
	if v, ok := fields["reset_at"]; ok {
		if t, err := time.Parse(time.RFC3339, v); err == nil {
			profile.WindowResetAt = t
		}
	}
	return profile, nil
}

// ResetWindow zeroes the counter and records the next window boundary.
func (s *RedisStore) ResetWindow(ctx context.Context, userID string, resetAt time.Time) error {
	err := s.client.HSet(ctx, usageKey(userID),
		"used", 0,
		"reset_at", resetAt.UTC().Format(time.RFC3339),
	).Err()
	if err != nil {
		return fmt.Errorf("failed to reset usage window for %s: %w", userID, err)
	}
	return nil
}

// Increment atomically bumps the user's counter.
func (s *RedisStore) Increment(ctx context.Context, userID string) error {
	if err := s.client.HIncrBy(ctx, usageKey(userID), "used", 1).Err(); err != nil {
		return fmt.Errorf("failed to increment usage for %s: %w", userID, err)
	}
	return nil
}
