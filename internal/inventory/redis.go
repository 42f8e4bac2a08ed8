package inventory

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisStore implements Store on top of Redis for deployments where
// several processes share one seat inventory.  Atomicity of the
// multi-key transition is provided by an optimistic WATCH/MULTI/EXEC
// transaction: the keys are watched, read and checked, and the writes
// are queued in one pipeline that Redis discards if any watched key
// changed.  A discarded transaction is retried a bounded number of
// times before giving up with ErrStoreUnavailable.
type RedisStore struct {
	client     *redis.Client
	maxRetries int
	now        func() time.Time
}

// NewRedisStore wraps an existing Redis client.
func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{
		client:     client,
		maxRetries: 16,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

func seatKey(showingID uint64, label string) string {
	return fmt.Sprintf("seat:%d:%s", showingID, label)
}

func labelsKey(showingID uint64) string {
	return fmt.Sprintf("showing:%d:labels", showingID)
}

// RegisterShowing seeds every listed seat as Free.  MSETNX keeps the
// seeding atomic: either all seat keys are created or none are.
func (r *RedisStore) RegisterShowing(ctx context.Context, showingID uint64, labels []string) error {
	free, err := json.Marshal(SeatStatus{State: Free})
	if err != nil {
		return err
	}
	pairs := make([]interface{}, 0, len(labels)*2)
	for _, l := range labels {
		pairs = append(pairs, seatKey(showingID, l), free)
	}
	ok, err := r.client.MSetNX(ctx, pairs...).Result()
	if err != nil {
		return fmt.Errorf("register showing %d: %w: %v", showingID, ErrStoreUnavailable, err)
	}
	if !ok {
		return fmt.Errorf("showing %d already registered", showingID)
	}
	members := make([]interface{}, len(labels))
	for i, l := range labels {
		members[i] = l
	}
	if err := r.client.SAdd(ctx, labelsKey(showingID), members...).Err(); err != nil {
		return fmt.Errorf("register showing %d labels: %w: %v", showingID, ErrStoreUnavailable, err)
	}
	return nil
}

// Transition implements the atomic multi-key compare-and-transition.
func (r *RedisStore) Transition(ctx context.Context, showingID uint64, labels []string, pred Predicate, next Transform) ([]string, error) {
	keys := make([]string, len(labels))
	for i, l := range labels {
		keys[i] = seatKey(showingID, l)
	}

	var conflicts []string
	txn := func(tx *redis.Tx) error {
		conflicts = conflicts[:0]
		vals, err := tx.MGet(ctx, keys...).Result()
		if err != nil {
			return err
		}
		now := r.now()
		statuses := make([]SeatStatus, len(labels))
		for i, v := range vals {
			raw, ok := v.(string)
			if !ok {
				if n, existsErr := tx.Exists(ctx, labelsKey(showingID)).Result(); existsErr == nil && n == 0 {
					return fmt.Errorf("showing %d: %w", showingID, ErrUnknownShowing)
				}
				return fmt.Errorf("showing %d seat %q: %w", showingID, labels[i], ErrUnknownSeat)
			}
			var st SeatStatus
			if err := json.Unmarshal([]byte(raw), &st); err != nil {
				return fmt.Errorf("decode seat %q: %w", labels[i], err)
			}
			if !pred(st, now) {
				conflicts = append(conflicts, labels[i])
			}
			statuses[i] = st
		}
		if len(conflicts) > 0 {
			// Nothing to write.  MGET is atomic, so the conflict set is
			// a consistent observation of the showing at one instant.
			return nil
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			for i, key := range keys {
				b, err := json.Marshal(next(statuses[i]))
				if err != nil {
					return err
				}
				pipe.Set(ctx, key, b, 0)
			}
			return nil
		})
		return err
	}

	for attempt := 0; attempt < r.maxRetries; attempt++ {
		err := r.client.Watch(ctx, txn, keys...)
		switch {
		case err == nil:
			if len(conflicts) > 0 {
				return append([]string(nil), conflicts...), nil
			}
			return nil, nil
		case errors.Is(err, redis.TxFailedErr):
			continue // watched key changed under us, re-read and retry
		case errors.Is(err, ErrUnknownSeat), errors.Is(err, ErrUnknownShowing):
			return nil, err
		default:
			return nil, fmt.Errorf("transition showing %d: %w: %v", showingID, ErrStoreUnavailable, err)
		}
	}
	return nil, fmt.Errorf("transition showing %d: retries exhausted: %w", showingID, ErrStoreUnavailable)
}

// Snapshot returns the stored status of every seat of a showing.
func (r *RedisStore) Snapshot(ctx context.Context, showingID uint64) (map[string]SeatStatus, error) {
	labels, err := r.client.SMembers(ctx, labelsKey(showingID)).Result()
	if err != nil {
		return nil, fmt.Errorf("snapshot showing %d: %w: %v", showingID, ErrStoreUnavailable, err)
	}
	if len(labels) == 0 {
		return nil, fmt.Errorf("showing %d: %w", showingID, ErrUnknownShowing)
	}
	keys := make([]string, len(labels))
	for i, l := range labels {
		keys[i] = seatKey(showingID, l)
	}
	vals, err := r.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("snapshot showing %d: %w: %v", showingID, ErrStoreUnavailable, err)
	}
	out := make(map[string]SeatStatus, len(labels))
	for i, v := range vals {
		raw, ok := v.(string)
		if !ok {
			continue
		}
		var st SeatStatus
		if err := json.Unmarshal([]byte(raw), &st); err != nil {
			return nil, fmt.Errorf("decode seat %q: %w", labels[i], err)
		}
		out[labels[i]] = st
	}
	return out, nil
}
