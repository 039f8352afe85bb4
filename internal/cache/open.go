package cache

import (
	"context"
	"io"
	"time"

	"github.com/charmbracelet/log"
)

// redisDialTimeout bounds the connection check in Open.
const redisDialTimeout = 2 * time.Second

// Options selects the mosques store.
type Options struct {
	Dir           string
	Redis         bool
	RedisAddr     string
	RedisPassword string
	Logger        *log.Logger
}

// Stores is the opened cache. Files also holds the geolocation cache, so it is
// opened whichever backend serves the payload.
type Stores struct {
	Files   *File // nil when the directory is unusable
	Mosques Store // nil when no backend is usable
	redis   *Redis
}

// Open opens the file cache and, when asked, redis. An unreachable redis
// falls back to the file cache with a warning.
func Open(ctx context.Context, opts Options) *Stores {
	logger := opts.Logger
	if logger == nil {
		logger = log.New(io.Discard)
	}

	s := &Stores{}
	if f, err := New(opts.Dir); err != nil {
		logger.Warn("file cache disabled", "err", err)
	} else {
		s.Files = f
		s.Mosques = f
	}

	if !opts.Redis {
		return s
	}

	ctx, cancel := context.WithTimeout(ctx, redisDialTimeout)
	defer cancel()
	r, err := NewRedis(ctx, opts.RedisAddr, opts.RedisPassword)
	if err != nil {
		logger.Warn("redis cache unavailable, using file cache", "err", err)
		return s
	}
	s.redis = r
	s.Mosques = r
	return s
}

// Close releases the redis connection, if any.
func (s *Stores) Close() error {
	if s.redis == nil {
		return nil
	}
	return s.redis.Close()
}
