package session

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/naveenspark/careerbox/pkg/domain"
)

// RedisPersister stores the session under StorageKey in Redis, for
// shared-terminal deployments where the home directory is not durable.
type RedisPersister struct {
	rdb *redis.Client
	key string
}

// NewRedisPersister connects to url (redis://host:port/db) and pings it.
func NewRedisPersister(ctx context.Context, url string) (*RedisPersister, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("session.NewRedisPersister: parse url: %w", err)
	}
	rdb := redis.NewClient(opts)
	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close() //nolint:errcheck
		return nil, fmt.Errorf("session.NewRedisPersister: ping: %w", err)
	}
	return &RedisPersister{rdb: rdb, key: StorageKey}, nil
}

// Load reads the stored session. A missing key is the signed-out session.
func (r *RedisPersister) Load(ctx context.Context) (domain.Session, error) {
	data, err := r.rdb.Get(ctx, r.key).Bytes()
	if errors.Is(err, redis.Nil) {
		return domain.Session{}, nil
	}
	if err != nil {
		return domain.Session{}, fmt.Errorf("redis get %s: %w", r.key, err)
	}
	return decode(data)
}

// Save overwrites the stored session. It never expires; logout resets it.
func (r *RedisPersister) Save(ctx context.Context, s domain.Session) error {
	data, err := encode(s)
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}
	if err := r.rdb.Set(ctx, r.key, data, 0).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", r.key, err)
	}
	return nil
}

func (r *RedisPersister) Close() error {
	return r.rdb.Close()
}
