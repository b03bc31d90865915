// Package capability implements the capability cache: a TTL-bounded map
// from (participant, document type) to the tri-state outcome of the last
// definitive capability check.
package capability

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"locator/internal/lookup/metrics"
	"locator/internal/lookup/models"
	"locator/internal/platform/config"
)

// Key builds the cache key for a participant/document type pair.
func Key(participant, docType models.Identifier) string {
	return participant.URIEncoded() + "@" + docType.URIEncoded()
}

type entry struct {
	found     bool
	expiresAt time.Time
}

// MemoryStore is the in-process cache backend. Reads take the shared lock,
// writes and the periodic sweep take the exclusive lock. The sweep is lazy:
// it piggybacks on Get at most once per sweep interval.
type MemoryStore struct {
	mu        sync.RWMutex
	entries   map[string]entry
	nextSweep time.Time

	ttl           time.Duration
	sweepInterval time.Duration
	now           func() time.Time
	logger        *slog.Logger
	metrics       *metrics.Metrics
}

type MemoryOption func(*MemoryStore)

func WithClock(now func() time.Time) MemoryOption {
	return func(s *MemoryStore) {
		s.now = now
	}
}

func WithLogger(logger *slog.Logger) MemoryOption {
	return func(s *MemoryStore) {
		s.logger = logger
	}
}

func WithMetrics(m *metrics.Metrics) MemoryOption {
	return func(s *MemoryStore) {
		s.metrics = m
	}
}

// NewMemory creates an in-memory capability cache.
func NewMemory(cfg config.CacheConfig, opts ...MemoryOption) *MemoryStore {
	s := &MemoryStore{
		entries:       make(map[string]entry),
		ttl:           cfg.TTL,
		sweepInterval: cfg.SweepInterval,
		now:           time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.nextSweep = s.now().Add(s.sweepInterval)
	return s
}

// Get returns the cached capability for the pair, or CapabilityUnknown when
// no entry exists or the entry has expired. An expired entry is treated
// identically to a miss even if the sweep has not physically removed it yet.
func (s *MemoryStore) Get(ctx context.Context, participant, docType models.Identifier) models.Capability {
	s.maybeSweep(ctx)

	now := s.now()
	s.mu.RLock()
	e, ok := s.entries[Key(participant, docType)]
	s.mu.RUnlock()

	if !ok || now.After(e.expiresAt) {
		if s.metrics != nil {
			s.metrics.IncrementCacheMisses()
		}
		return models.CapabilityUnknown
	}
	if s.metrics != nil {
		s.metrics.IncrementCacheHits()
	}
	if e.found {
		return models.CapabilityConfirmed
	}
	return models.CapabilityDenied
}

// Put stores a definitive capability result, overwriting any existing entry
// and resetting its expiration to now + TTL.
func (s *MemoryStore) Put(_ context.Context, participant, docType models.Identifier, found bool) {
	e := entry{found: found, expiresAt: s.now().Add(s.ttl)}
	s.mu.Lock()
	s.entries[Key(participant, docType)] = e
	s.mu.Unlock()
}

// Clear empties the cache atomically and returns the number of evicted
// entries.
func (s *MemoryStore) Clear(ctx context.Context) int {
	s.mu.Lock()
	n := len(s.entries)
	s.entries = make(map[string]entry)
	s.mu.Unlock()

	if s.metrics != nil {
		s.metrics.AddCacheEvicted(n)
	}
	if s.logger != nil {
		s.logger.InfoContext(ctx, "capability cache cleared", "evicted", n)
	}
	return n
}

// maybeSweep removes expired entries once the sweep deadline has passed,
// then reschedules. The scan is O(n) but runs at most once per sweep
// interval regardless of traffic.
func (s *MemoryStore) maybeSweep(ctx context.Context) {
	now := s.now()

	s.mu.RLock()
	due := now.After(s.nextSweep)
	s.mu.RUnlock()
	if !due {
		return
	}

	s.mu.Lock()
	// Re-check: another goroutine may have swept while we waited.
	if !now.After(s.nextSweep) {
		s.mu.Unlock()
		return
	}
	expired := 0
	for k, e := range s.entries {
		if now.After(e.expiresAt) {
			delete(s.entries, k)
			expired++
		}
	}
	s.nextSweep = now.Add(s.sweepInterval)
	remaining := len(s.entries)
	s.mu.Unlock()

	if expired > 0 {
		if s.metrics != nil {
			s.metrics.AddCacheEvicted(expired)
		}
		if s.logger != nil {
			s.logger.InfoContext(ctx, "capability cache swept",
				"expired", expired,
				"remaining", remaining,
			)
		}
	}
}
