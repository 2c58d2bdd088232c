package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// Redis is a [Store] backed by Redis. Keys are namespaced by prefix so several
// clients can share one database.
type Redis struct {
	client redis.UniversalClient
	prefix string
}

// NewRedis returns a [Redis] store. An empty prefix defaults to "tm".
func NewRedis(client redis.UniversalClient, prefix string) *Redis {
	if prefix == "" {
		prefix = "tm"
	}
	return &Redis{client: client, prefix: prefix}
}

func (r *Redis) key(k string) string {
	return r.prefix + ":" + k
}

func (r *Redis) Get(ctx context.Context, key string) (string, bool, error) {
	v, err := r.client.Get(ctx, r.key(key)).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("%w: get %s: %w", ErrUnavailable, key, err)
	}
	return v, true, nil
}

func (r *Redis) Set(ctx context.Context, entries ...Entry) error {
	return r.Update(ctx, entries, nil)
}

func (r *Redis) Delete(ctx context.Context, keys ...string) error {
	return r.Update(ctx, nil, keys)
}

// Update runs the writes in a MULTI/EXEC transaction.
func (r *Redis) Update(ctx context.Context, set []Entry, del []string) error {
	if len(set) == 0 && len(del) == 0 {
		return nil
	}
	if len(set) == 0 {
		if err := r.client.Del(ctx, r.keys(del)...).Err(); err != nil {
			return fmt.Errorf("%w: delete: %w", ErrUnavailable, err)
		}
		return nil
	}
	_, err := r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		for _, e := range set {
			pipe.Set(ctx, r.key(e.Key), e.Value, 0)
		}
		if len(del) > 0 {
			pipe.Del(ctx, r.keys(del)...)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("%w: update: %w", ErrUnavailable, err)
	}
	return nil
}

func (r *Redis) keys(keys []string) []string {
	full := make([]string, len(keys))
	for i, k := range keys {
		full[i] = r.key(k)
	}
	return full
}
