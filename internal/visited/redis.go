package visited

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// DefaultRedisKeyPrefix prefixes the per-session set key.
const DefaultRedisKeyPrefix = "wikicrawl:visited:"

// DefaultRedisTTL bounds how long an abandoned session's claim set survives.
const DefaultRedisTTL = 24 * time.Hour

// redisPingTimeout is the timeout for verifying a Redis connection.
const redisPingTimeout = 5 * time.Second

// ErrEmptyRedisAddress is returned when Dial is called without an address.
var ErrEmptyRedisAddress = errors.New("redis address is required")

// RedisConfig holds Redis connection settings.
type RedisConfig struct {
	Address  string
	Password string
	DB       int
}

// Dial connects to Redis and verifies the connection with PING.
func Dial(ctx context.Context, cfg RedisConfig) (*redis.Client, error) {
	if cfg.Address == "" {
		return nil, ErrEmptyRedisAddress
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Address,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	pingCtx, cancel := context.WithTimeout(ctx, redisPingTimeout)
	defer cancel()

	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}

	return client, nil
}

// Redis is a Tracker backed by a Redis set, one set per session.
// SADD reports whether the member was new, so a claim is one atomic command.
type Redis struct {
	client redis.UniversalClient
	prefix string
	key    string
	ttl    time.Duration
}

// RedisOption configures a Redis tracker.
type RedisOption func(*Redis)

// WithKeyPrefix replaces DefaultRedisKeyPrefix.
func WithKeyPrefix(prefix string) RedisOption {
	return func(r *Redis) {
		r.prefix = prefix
	}
}

// WithTTL sets how long the claim set is kept after the last claim.
// Zero disables expiry.
func WithTTL(ttl time.Duration) RedisOption {
	return func(r *Redis) {
		r.ttl = ttl
	}
}

// NewRedis returns a Tracker storing claims of the given session in Redis.
func NewRedis(client redis.UniversalClient, sessionID string, opts ...RedisOption) *Redis {
	r := &Redis{
		client: client,
		prefix: DefaultRedisKeyPrefix,
		ttl:    DefaultRedisTTL,
	}

	for _, opt := range opts {
		opt(r)
	}
	r.key = r.prefix + sessionID

	return r
}

// Key returns the Redis key holding the claim set.
func (r *Redis) Key() string {
	return r.key
}

// TryClaim implements Tracker.
func (r *Redis) TryClaim(ctx context.Context, pageURL string) (bool, error) {
	var added *redis.IntCmd
	_, err := r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		added = pipe.SAdd(ctx, r.key, Canonical(pageURL))
		if r.ttl > 0 {
			pipe.Expire(ctx, r.key, r.ttl)
		}
		return nil
	})
	if err != nil {
		return false, fmt.Errorf("redis claim %s: %w", pageURL, err)
	}
	return added.Val() == 1, nil
}

// Seen implements Tracker.
func (r *Redis) Seen(ctx context.Context, pageURL string) (bool, error) {
	ok, err := r.client.SIsMember(ctx, r.key, Canonical(pageURL)).Result()
	if err != nil {
		return false, fmt.Errorf("redis lookup %s: %w", pageURL, err)
	}
	return ok, nil
}

// Reset implements Tracker.
func (r *Redis) Reset(ctx context.Context) error {
	if err := r.client.Del(ctx, r.key).Err(); err != nil {
		return fmt.Errorf("redis reset %s: %w", r.key, err)
	}
	return nil
}

// Len implements Tracker.
func (r *Redis) Len(ctx context.Context) (int, error) {
	n, err := r.client.SCard(ctx, r.key).Result()
	if err != nil {
		return 0, fmt.Errorf("redis count %s: %w", r.key, err)
	}
	return int(n), nil
}
