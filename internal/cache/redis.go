package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/revert-companion/prayer-times/internal/prayer"
)

// RedisOptions configure the Redis backend.
type RedisOptions struct {
	Address  string
	Username string
	Password string
	DB       int
	// TTL bounds how long entries live. Zero keeps them for 30 days.
	TTL time.Duration
	// Prefix namespaces the keys; it defaults to "prayer-times:".
	Prefix string
}

// Redis is a timetable backend shared between server instances.
type Redis struct {
	client *redis.Client
	ttl    time.Duration
	prefix string
}

// NewRedis connects to Redis and checks the connection.
func NewRedis(ctx context.Context, opts RedisOptions) (*Redis, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     opts.Address,
		Username: opts.Username,
		Password: opts.Password,
		DB:       opts.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("redis %s: %w", opts.Address, err)
	}

	r := &Redis{client: client, ttl: opts.TTL, prefix: opts.Prefix}
	if r.ttl == 0 {
		r.ttl = 30 * 24 * time.Hour
	}
	if r.prefix == "" {
		r.prefix = "prayer-times:"
	}
	return r, nil
}

func (r *Redis) key(k Key) string {
	return r.prefix + "times:" + k.Hash()
}

// LoadTimes reads a cached timetable.
func (r *Redis) LoadTimes(ctx context.Context, k Key) (prayer.PrayerTimes, error) {
	data, err := r.client.Get(ctx, r.key(k)).Bytes()
	if errors.Is(err, redis.Nil) {
		return prayer.PrayerTimes{}, ErrMiss
	}
	if err != nil {
		return prayer.PrayerTimes{}, fmt.Errorf("redis get: %w", err)
	}

	var entry Entry
	if err := json.Unmarshal(data, &entry); err != nil || !entry.matches(k) {
		return prayer.PrayerTimes{}, ErrMiss
	}
	return entry.Times, nil
}

// SaveTimes stores a timetable with the configured TTL.
func (r *Redis) SaveTimes(ctx context.Context, k Key, t prayer.PrayerTimes) error {
	data, err := json.Marshal(newEntry(k, t))
	if err != nil {
		return fmt.Errorf("failed to marshal cache entry: %w", err)
	}
	if err := r.client.Set(ctx, r.key(k), data, r.ttl).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}

// Ping reports whether the server is reachable.
func (r *Redis) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

// Close releases the connection pool.
func (r *Redis) Close() error {
	return r.client.Close()
}
