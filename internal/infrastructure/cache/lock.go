package cache

import (
	"context"
	"errors"
	"hash/fnv"
	"time"

	"lockedin/internal/database"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const searchLockPrefix = "lockedin:lock:saved-search:"

// SearchLock serialises notification work per saved search across processes.
// Redis SET NX with a random token is tried first; when Redis is down the lock
// falls back to a PostgreSQL session advisory lock.
type SearchLock struct {
	redis    *Redis
	fallback database.AdvisoryLocker
	ttl      time.Duration
	logger   *zap.Logger
}

func NewSearchLock(r *Redis, fallback database.AdvisoryLocker, ttl time.Duration, logger *zap.Logger) *SearchLock {
	if logger == nil {
		logger = zap.NewNop()
	}
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &SearchLock{redis: r, fallback: fallback, ttl: ttl, logger: logger.Named("lock")}
}

// Acquire returns acquired=false without error when another run holds the
// lock. release is always safe to call.
func (l *SearchLock) Acquire(ctx context.Context, searchID uuid.UUID) (func(), bool, error) {
	noop := func() {}

	if l.redis.Available() {
		key := searchLockPrefix + searchID.String()
		token := uuid.NewString()
		ok, err := l.redis.SetIfNotExists(ctx, key, token, l.ttl)
		if err == nil {
			if !ok {
				return noop, false, nil
			}
			return func() {
				ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
				defer cancel()
				if _, err := l.redis.DeleteIfValue(ctx, key, token); err != nil {
					l.logger.Warn("lock release failed", zap.String("key", key), zap.Error(err))
				}
			}, true, nil
		}
		if !errors.Is(err, ErrUnavailable) {
			l.logger.Warn("redis lock failed, falling back", zap.String("saved_search_id", searchID.String()), zap.Error(err))
		}
	}

	if l.fallback == nil {
		return noop, false, ErrUnavailable
	}
	release, ok, err := l.fallback.TryAdvisoryLock(ctx, AdvisoryKey(searchID))
	if err != nil {
		return noop, false, err
	}
	if !ok {
		return noop, false, nil
	}
	return release, true, nil
}

// AdvisoryKey maps a search id onto the int64 key space of pg advisory locks.
func AdvisoryKey(id uuid.UUID) int64 {
	h := fnv.New64a()
	_, _ = h.Write(id[:])
	return int64(h.Sum64())
}
