package capability

import (
	"context"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"locator/internal/lookup/metrics"
	"locator/internal/lookup/models"
	platformredis "locator/internal/platform/redis"
)

const redisKeyPrefix = "capability:"

// RedisStore is the Redis cache backend. Expiration is delegated to Redis
// key TTLs, so no sweep is needed. The cache contract has no error channel:
// a Redis failure degrades to a miss on read and a dropped write, logged
// but never surfaced to the request.
type RedisStore struct {
	client  *platformredis.Client
	ttl     time.Duration
	logger  *slog.Logger
	metrics *metrics.Metrics
}

type RedisOption func(*RedisStore)

func WithRedisLogger(logger *slog.Logger) RedisOption {
	return func(s *RedisStore) {
		s.logger = logger
	}
}

func WithRedisMetrics(m *metrics.Metrics) RedisOption {
	return func(s *RedisStore) {
		s.metrics = m
	}
}

// NewRedis creates a Redis-backed capability cache.
func NewRedis(client *platformredis.Client, ttl time.Duration, opts ...RedisOption) *RedisStore {
	s := &RedisStore{client: client, ttl: ttl}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *RedisStore) Get(ctx context.Context, participant, docType models.Identifier) models.Capability {
	val, err := s.client.Get(ctx, redisKeyPrefix+Key(participant, docType)).Result()
	if err != nil {
		if err != redis.Nil && s.logger != nil {
			s.logger.WarnContext(ctx, "capability cache read failed", "error", err)
		}
		if s.metrics != nil {
			s.metrics.IncrementCacheMisses()
		}
		return models.CapabilityUnknown
	}
	if s.metrics != nil {
		s.metrics.IncrementCacheHits()
	}
	if val == "1" {
		return models.CapabilityConfirmed
	}
	return models.CapabilityDenied
}

func (s *RedisStore) Put(ctx context.Context, participant, docType models.Identifier, found bool) {
	val := "0"
	if found {
		val = "1"
	}
	if err := s.client.Set(ctx, redisKeyPrefix+Key(participant, docType), val, s.ttl).Err(); err != nil {
		if s.logger != nil {
			s.logger.WarnContext(ctx, "capability cache write failed", "error", err)
		}
	}
}

// Clear deletes all capability keys and returns the number removed.
func (s *RedisStore) Clear(ctx context.Context) int {
	var (
		cursor  uint64
		evicted int
	)
	for {
		keys, next, err := s.client.Scan(ctx, cursor, redisKeyPrefix+"*", 100).Result()
		if err != nil {
			if s.logger != nil {
				s.logger.WarnContext(ctx, "capability cache clear failed", "error", err)
			}
			break
		}
		if len(keys) > 0 {
			if err := s.client.Del(ctx, keys...).Err(); err != nil {
				if s.logger != nil {
					s.logger.WarnContext(ctx, "capability cache clear failed", "error", err)
				}
				break
			}
			evicted += len(keys)
		}
		cursor = next
		if cursor == 0 {
			break
		}
	}

	if s.metrics != nil {
		s.metrics.AddCacheEvicted(evicted)
	}
	if s.logger != nil {
		s.logger.InfoContext(ctx, "capability cache cleared", "evicted", evicted)
	}
	return evicted
}
