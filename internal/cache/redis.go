package cache

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/redis/go-redis/v9"

	"github.com/smokyabdulrahman/jamaat-times/internal/api"
)

const (
	redisKeyPrefix = "jamaat:daily:"
	redisTTL       = 48 * time.Hour
)

// Redis stores the daily payload in redis so several hosts (a status bar and
// the watch view, say) share one fetch per day.
type Redis struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedis connects to addr and pings it.
func NewRedis(ctx context.Context, addr, password string) (*Redis, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("could not connect to redis at %s: %w", addr, err)
	}

	return NewRedisFromClient(client), nil
}

// NewRedisFromClient wraps an existing client.
func NewRedisFromClient(client *redis.Client) *Redis {
	return &Redis{client: client, ttl: redisTTL}
}

func redisKey(day string) string {
	return redisKeyPrefix + day
}

func (r *Redis) LoadMosques(ctx context.Context, day string) ([]api.Mosque, error) {
	data, err := r.client.Get(ctx, redisKey(day)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrMiss
	}
	if err != nil {
		return nil, fmt.Errorf("redis get %s: %w", day, err)
	}

	var entry MosqueCacheEntry
	if err := json.Unmarshal(data, &entry); err != nil || entry.Date != day {
		return nil, ErrMiss
	}
	return entry.Mosques, nil
}

func (r *Redis) SaveMosques(ctx context.Context, day string, ms []api.Mosque) error {
	data, err := json.Marshal(MosqueCacheEntry{Date: day, FetchedAt: time.Now(), Mosques: ms})
	if err != nil {
		return fmt.Errorf("failed to marshal cache entry: %w", err)
	}

	if err := r.client.Set(ctx, redisKey(day), data, r.ttl).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", day, err)
	}
	return nil
}

// LoadLatest scans the daily keys and returns the newest readable payload.
func (r *Redis) LoadLatest(ctx context.Context) (string, []api.Mosque, error) {
	var days []string
	iter := r.client.Scan(ctx, 0, redisKeyPrefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		days = append(days, strings.TrimPrefix(iter.Val(), redisKeyPrefix))
	}
	if err := iter.Err(); err != nil {
		return "", nil, fmt.Errorf("redis scan: %w", err)
	}
	return latest(ctx, r, days)
}

// Close releases the connection pool.
func (r *Redis) Close() error {
	return r.client.Close()
}
