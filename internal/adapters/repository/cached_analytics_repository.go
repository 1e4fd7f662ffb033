package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	json "github.com/goccy/go-json"
	"github.com/redis/go-redis/v9"

	"github.com/comitanigiacomo/kanso-analytics-engine/internal/core/domain"
	"github.com/comitanigiacomo/kanso-analytics-engine/internal/metrics"
	"github.com/comitanigiacomo/kanso-analytics-engine/internal/platform/logger"
)

var _ domain.AnalyticsRepository = (*CachedAnalyticsRepository)(nil)

// CachedAnalyticsRepository is a write-through Redis cache in front of another
// AnalyticsRepository. Redis errors degrade to the wrapped store.
type CachedAnalyticsRepository struct {
	next  domain.AnalyticsRepository
	cache *redis.Client
	ttl   time.Duration
	log   *logger.Logger
}

func NewCachedAnalyticsRepository(next domain.AnalyticsRepository, cache *redis.Client, ttl time.Duration, log *logger.Logger) *CachedAnalyticsRepository {
	if ttl <= 0 {
		ttl = 30 * time.Minute
	}
	if log == nil {
		log = logger.NewNop()
	}
	return &CachedAnalyticsRepository{
		next:  next,
		cache: cache,
		ttl:   ttl,
		log:   log.With("component", "analytics_cache"),
	}
}

type cachedDocument struct {
	Version  int             `json:"version"`
	Document json.RawMessage `json:"document"`
}

func (r *CachedAnalyticsRepository) cacheKey(userID string) string {
	return fmt.Sprintf("analytics:%s", userID)
}

func (r *CachedAnalyticsRepository) invalidate(ctx context.Context, userID string) {
	if err := r.cache.Del(ctx, r.cacheKey(userID)).Err(); err != nil {
		r.log.Warn("cache invalidation failed", "user_id", userID, "error", err)
	}
}

func (r *CachedAnalyticsRepository) Get(ctx context.Context, userID string) (*domain.AnalyticsRecord, error) {
	key := r.cacheKey(userID)

	val, err := r.cache.Get(ctx, key).Bytes()
	switch {
	case err == nil:
		var cached cachedDocument
		if err := json.Unmarshal(val, &cached); err == nil {
			if record, err := decodeRecord(userID, cached.Version, cached.Document); err == nil {
				metrics.CacheRequests.WithLabelValues("hit").Inc()
				return record, nil
			}
		}
		r.log.Warn("corrupted cache entry, cleaning up key", "user_id", userID)
		r.invalidate(ctx, userID)
	case errors.Is(err, redis.Nil):
		metrics.CacheRequests.WithLabelValues("miss").Inc()
	default:
		metrics.CacheRequests.WithLabelValues("error").Inc()
		r.log.Warn("redis read error", "error", err)
	}

	record, err := r.next.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	r.store(ctx, record)
	return record, nil
}

func (r *CachedAnalyticsRepository) Save(ctx context.Context, record *domain.AnalyticsRecord) error {
	if err := r.next.Save(ctx, record); err != nil {
		// A conflict means our cached copy may be stale.
		r.invalidate(ctx, record.UserID)
		return err
	}
	r.store(ctx, record)
	return nil
}

func (r *CachedAnalyticsRepository) ListUserIDs(ctx context.Context) ([]string, error) {
	return r.next.ListUserIDs(ctx)
}

func (r *CachedAnalyticsRepository) store(ctx context.Context, record *domain.AnalyticsRecord) {
	doc, err := encodeRecord(record)
	if err != nil {
		r.log.Warn("cache encode failed", "user_id", record.UserID, "error", err)
		return
	}
	data, err := json.Marshal(cachedDocument{Version: record.Version, Document: doc})
	if err != nil {
		return
	}
	if err := r.cache.Set(ctx, r.cacheKey(record.UserID), data, r.ttl).Err(); err != nil {
		r.log.Warn("redis set error", "user_id", record.UserID, "error", err)
	}
}
