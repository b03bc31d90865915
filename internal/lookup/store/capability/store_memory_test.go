package capability

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"locator/internal/lookup/models"
	"locator/internal/platform/config"
)

var (
	testParticipant = models.Identifier{Scheme: "iso6523-actorid-upis", Value: "9915:test"}
	testDocType     = models.Identifier{Scheme: "urn:de4a-eu:CanonicalEvidenceType", Value: "BirthCertificate"}
)

func testCacheConfig() config.CacheConfig {
	return config.CacheConfig{TTL: 2 * time.Hour, SweepInterval: 5 * time.Minute}
}

// fakeClock lets tests move wall-clock time forward deterministically.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func TestMemoryStore_RoundTrip(t *testing.T) {
	ctx := context.Background()
	clock := newFakeClock()
	store := NewMemory(testCacheConfig(), WithClock(clock.Now))

	t.Run("no entry yields unknown", func(t *testing.T) {
		assert.Equal(t, models.CapabilityUnknown, store.Get(ctx, testParticipant, testDocType))
	})

	t.Run("put true then get yields confirmed", func(t *testing.T) {
		store.Put(ctx, testParticipant, testDocType, true)
		assert.Equal(t, models.CapabilityConfirmed, store.Get(ctx, testParticipant, testDocType))
	})

	t.Run("put false overwrites and yields denied", func(t *testing.T) {
		store.Put(ctx, testParticipant, testDocType, false)
		assert.Equal(t, models.CapabilityDenied, store.Get(ctx, testParticipant, testDocType))
	})

	t.Run("denied is distinct from unknown", func(t *testing.T) {
		other := models.Identifier{Scheme: testDocType.Scheme, Value: "MarriageCertificate"}
		assert.Equal(t, models.CapabilityUnknown, store.Get(ctx, testParticipant, other))
		assert.Equal(t, models.CapabilityDenied, store.Get(ctx, testParticipant, testDocType))
	})
}

func TestMemoryStore_Expiration(t *testing.T) {
	ctx := context.Background()
	clock := newFakeClock()
	store := NewMemory(testCacheConfig(), WithClock(clock.Now))

	store.Put(ctx, testParticipant, testDocType, true)
	assert.Equal(t, models.CapabilityConfirmed, store.Get(ctx, testParticipant, testDocType))

	// An expired entry reads as unknown even before the sweep removes it.
	clock.Advance(2*time.Hour + time.Second)
	assert.Equal(t, models.CapabilityUnknown, store.Get(ctx, testParticipant, testDocType))

	// A fresh put resets the expiration.
	store.Put(ctx, testParticipant, testDocType, false)
	assert.Equal(t, models.CapabilityDenied, store.Get(ctx, testParticipant, testDocType))
}

func TestMemoryStore_Sweep(t *testing.T) {
	ctx := context.Background()

	t.Run("sweep removes expired entries after the interval", func(t *testing.T) {
		clock := newFakeClock()
		store := NewMemory(testCacheConfig(), WithClock(clock.Now))

		store.Put(ctx, testParticipant, testDocType, true)
		fresh := models.Identifier{Scheme: testDocType.Scheme, Value: "MarriageCertificate"}

		clock.Advance(2*time.Hour + time.Second)
		store.Put(ctx, testParticipant, fresh, true)

		// First read past the sweep deadline triggers the scan.
		store.Get(ctx, testParticipant, testDocType)

		store.mu.RLock()
		defer store.mu.RUnlock()
		assert.Len(t, store.entries, 1)
		_, ok := store.entries[Key(testParticipant, fresh)]
		assert.True(t, ok, "unexpired entry must survive the sweep")
	})

	t.Run("sweep is idempotent within one window", func(t *testing.T) {
		clock := newFakeClock()
		store := NewMemory(testCacheConfig(), WithClock(clock.Now))

		store.Put(ctx, testParticipant, testDocType, true)
		clock.Advance(2*time.Hour + time.Second)

		for i := 0; i < 5; i++ {
			store.Get(ctx, testParticipant, testDocType)
		}

		store.mu.RLock()
		entries := len(store.entries)
		nextSweep := store.nextSweep
		store.mu.RUnlock()

		assert.Zero(t, entries)
		assert.Equal(t, clock.Now().Add(5*time.Minute), nextSweep, "sweep must reschedule once, not per read")
	})

	t.Run("no sweep before the interval elapses", func(t *testing.T) {
		clock := newFakeClock()
		store := NewMemory(testCacheConfig(), WithClock(clock.Now))

		store.Put(ctx, testParticipant, testDocType, true)
		clock.Advance(time.Minute)
		store.Get(ctx, testParticipant, testDocType)

		store.mu.RLock()
		defer store.mu.RUnlock()
		assert.Len(t, store.entries, 1)
	})
}

func TestMemoryStore_Clear(t *testing.T) {
	ctx := context.Background()
	clock := newFakeClock()
	store := NewMemory(testCacheConfig(), WithClock(clock.Now))

	for i := 0; i < 3; i++ {
		docType := models.Identifier{Scheme: testDocType.Scheme, Value: fmt.Sprintf("type-%d", i)}
		store.Put(ctx, testParticipant, docType, true)
	}

	assert.Equal(t, 3, store.Clear(ctx))
	assert.Equal(t, 0, store.Clear(ctx), "clear is idempotent")
	assert.Equal(t, models.CapabilityUnknown, store.Get(ctx, testParticipant, models.Identifier{Scheme: testDocType.Scheme, Value: "type-0"}))
}

func TestMemoryStore_Concurrent(t *testing.T) {
	ctx := context.Background()
	store := NewMemory(testCacheConfig())

	const goroutines = 50
	var wg sync.WaitGroup
	wg.Add(goroutines)

	for i := 0; i < goroutines; i++ {
		go func(i int) {
			defer wg.Done()
			docType := models.Identifier{Scheme: testDocType.Scheme, Value: fmt.Sprintf("type-%d", i%5)}
			store.Put(ctx, testParticipant, docType, i%2 == 0)
			store.Get(ctx, testParticipant, docType)
			if i%10 == 0 {
				store.Clear(ctx)
			}
		}(i)
	}

	wg.Wait()
}
