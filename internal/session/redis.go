package session

import (
	"context"
	"encoding/json"

	ierr "github.com/flexprice/subscription-billing/internal/errors"
	"github.com/flexprice/subscription-billing/internal/logger"
	"github.com/redis/go-redis/v9"
)

const (
	keyPrefix = "billing:sessions:"
	// maxTxRetries bounds optimistic retries when concurrent logins touch the same customer
	maxTxRetries = 10
)

// RedisRegistry keeps one hash per customer (device id -> session json)
// so that sessions are shared between API replicas.
type RedisRegistry struct {
	client *redis.Client
	logger *logger.Logger
}

func NewRedisRegistry(client *redis.Client, logger *logger.Logger) *RedisRegistry {
	return &RedisRegistry{client: client, logger: logger}
}

func key(customerID string) string {
	return keyPrefix + customerID
}

func (r *RedisRegistry) Count(ctx context.Context, customerID string) (int, error) {
	n, err := r.client.HLen(ctx, key(customerID)).Result()
	if err != nil {
		return 0, redisError(err, "count sessions")
	}
	return int(n), nil
}

func (r *RedisRegistry) List(ctx context.Context, customerID string) ([]*Session, error) {
	values, err := r.client.HGetAll(ctx, key(customerID)).Result()
	if err != nil {
		return nil, redisError(err, "list sessions")
	}

	out := make([]*Session, 0, len(values))
	for device, raw := range values {
		var s Session
		if err := json.Unmarshal([]byte(raw), &s); err != nil {
			r.logger.Warnw("skipping malformed session entry", "customer_id", customerID, "device_id", device, "error", err)
			continue
		}
		out = append(out, &s)
	}
	sortByLoginTime(out)
	return out, nil
}

func (r *RedisRegistry) TryAdd(ctx context.Context, s *Session, limit int) (bool, int, error) {
	payload, err := json.Marshal(s)
	if err != nil {
		return false, 0, ierr.WithError(err).
			WithHint("Failed to encode session").
			Mark(ierr.ErrSystem)
	}

	k := key(s.CustomerID)
	var added bool
	var count int

	txf := func(tx *redis.Tx) error {
		exists, err := tx.HExists(ctx, k, s.DeviceID).Result()
		if err != nil {
			return err
		}
		n, err := tx.HLen(ctx, k).Result()
		if err != nil {
			return err
		}

		if !exists && limit > 0 && int(n) >= limit {
			added, count = false, int(n)
			return nil
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.HSet(ctx, k, s.DeviceID, payload)
			return nil
		})
		if err != nil {
			return err
		}

		added = true
		count = int(n)
		if !exists {
			count++
		}
		return nil
	}

	for i := 0; i < maxTxRetries; i++ {
		err = r.client.Watch(ctx, txf, k)
		if err == nil {
			return added, count, nil
		}
		if err == redis.TxFailedErr {
			continue
		}
		return false, 0, redisError(err, "add session")
	}

	return false, 0, ierr.NewError("session registry contention").
		WithHint("Too many concurrent logins, please retry").
		Mark(ierr.ErrSystem)
}

func (r *RedisRegistry) Add(ctx context.Context, s *Session) error {
	_, _, err := r.TryAdd(ctx, s, 0)
	return err
}

func (r *RedisRegistry) Remove(ctx context.Context, customerID, deviceID string) (bool, error) {
	n, err := r.client.HDel(ctx, key(customerID), deviceID).Result()
	if err != nil {
		return false, redisError(err, "remove session")
	}
	return n > 0, nil
}

func (r *RedisRegistry) Close() error {
	return r.client.Close()
}

func redisError(err error, op string) error {
	return ierr.WithError(err).
		WithMessage(op).
		WithHint("Session store is unavailable").
		Mark(ierr.ErrDatabase)
}
