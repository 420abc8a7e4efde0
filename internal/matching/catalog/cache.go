package catalog

import (
	"context"
	"time"

	"career-matching/internal/common/database"
	"career-matching/internal/common/logger"
	"career-matching/internal/models"
)

const cacheKeyPrefix = "career:catalog:"

// CachedSource keeps the inner source's entries in Redis for ttl. Redis failures fall through
// to the inner source.
type CachedSource struct {
	inner  Source
	redis  *database.RedisClient
	ttl    time.Duration
	logger logger.Logger
}

func NewCachedSource(inner Source, redis *database.RedisClient, ttl time.Duration, log logger.Logger) *CachedSource {
	return &CachedSource{
		inner:  inner,
		redis:  redis,
		ttl:    ttl,
		logger: logger.ForComponent(log, "catalog-cache"),
	}
}

func (s *CachedSource) Name() string { return s.inner.Name() }

func (s *CachedSource) key() string { return cacheKeyPrefix + s.inner.Name() }

func (s *CachedSource) Load(ctx context.Context) (*Snapshot, error) {
	var entries []models.CareerCatalogEntry
	found, err := s.redis.GetJSON(ctx, s.key(), &entries)
	if err != nil {
		s.logger.Warn("catalog cache read failed", map[string]interface{}{"key": s.key(), "error": err})
	}
	if found && len(entries) > 0 {
		return NewSnapshot(s.Name(), entries), nil
	}

	snap, err := s.inner.Load(ctx)
	if err != nil {
		return nil, err
	}
	if err := s.redis.SetJSON(ctx, s.key(), snap.Entries(), s.ttl); err != nil {
		s.logger.Warn("catalog cache write failed", map[string]interface{}{"key": s.key(), "error": err})
	}
	return snap, nil
}

// Invalidate drops the cached entries, e.g. after an import.
func (s *CachedSource) Invalidate(ctx context.Context) error {
	return s.redis.Del(ctx, s.key())
}

// Replace writes through to the inner source when it supports writes, then invalidates.
func (s *CachedSource) Replace(ctx context.Context, entries []models.CareerCatalogEntry) (int, error) {
	w, ok := s.inner.(Writer)
	if !ok {
		return 0, errNotWritable(s.inner.Name())
	}
	n, err := w.Replace(ctx, entries)
	if err != nil {
		return 0, err
	}
	if err := s.Invalidate(ctx); err != nil {
		s.logger.Warn("catalog cache invalidation failed", map[string]interface{}{"key": s.key(), "error": err})
	}
	return n, nil
}
