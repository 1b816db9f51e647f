package refresh

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// RedisStore keeps one JSON record per user under refresh:<user_id>, with
// the key TTL set to the token's remaining lifetime.
type RedisStore struct {
	client *redis.Client
	prefix string
	now    func() time.Time
}

func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{
		client: client,
		prefix: "refresh:",
		now:    time.Now,
	}
}

func (r *RedisStore) key(userID uuid.UUID) string {
	return r.prefix + userID.String()
}

func (r *RedisStore) Save(ctx context.Context, rec Record) error {
	if rec.UserID == uuid.Nil || rec.Token == "" {
		return errors.New("refresh: missing user_id or token")
	}

	ttl := rec.ExpiresAt.Sub(r.now())
	if ttl <= 0 {
		return errors.New("refresh: expires_at must be in the future")
	}

	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("refresh: marshal: %w", err)
	}

	return r.client.Set(ctx, r.key(rec.UserID), data, ttl).Err()
}

func (r *RedisStore) FindByUser(ctx context.Context, userID uuid.UUID) (*Record, error) {
	val, err := r.client.Get(ctx, r.key(userID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("refresh: get: %w", err)
	}

	var rec Record
	if err := json.Unmarshal(val, &rec); err != nil {
		return nil, fmt.Errorf("refresh: unmarshal: %w", err)
	}
	return &rec, nil
}

func (r *RedisStore) DeleteByUser(ctx context.Context, userID uuid.UUID) error {
	return r.client.Del(ctx, r.key(userID)).Err()
}

// Consume compares and deletes under WATCH. A concurrent write to the key
// aborts the transaction, which counts as not consumed.
func (r *RedisStore) Consume(ctx context.Context, userID uuid.UUID, token string) (bool, error) {
	key := r.key(userID)
	consumed := false

	err := r.client.Watch(ctx, func(tx *redis.Tx) error {
		val, err := tx.Get(ctx, key).Bytes()
		if errors.Is(err, redis.Nil) {
			return nil
		}
		if err != nil {
			return err
		}

		var rec Record
		if err := json.Unmarshal(val, &rec); err != nil {
			return fmt.Errorf("refresh: unmarshal: %w", err)
		}
		if subtle.ConstantTimeCompare([]byte(rec.Token), []byte(token)) != 1 {
			return nil
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Del(ctx, key)
			return nil
		})
		if err != nil {
			return err
		}
		consumed = true
		return nil
	}, key)

	if errors.Is(err, redis.TxFailedErr) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("refresh: consume: %w", err)
	}
	return consumed, nil
}
