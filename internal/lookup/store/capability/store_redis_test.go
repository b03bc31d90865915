package capability

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"locator/internal/lookup/models"
	"locator/internal/platform/config"
	platformredis "locator/internal/platform/redis"
)

func newTestRedisStore(t *testing.T) (*RedisStore, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	client, err := platformredis.New(config.RedisConfig{
		URL:          "redis://" + mr.Addr(),
		PoolSize:     2,
		MinIdleConns: 1,
		DialTimeout:  time.Second,
		ReadTimeout:  time.Second,
		WriteTimeout: time.Second,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })

	return NewRedis(client, 2*time.Hour), mr
}

func TestRedisStore_RoundTrip(t *testing.T) {
	ctx := context.Background()
	store, mr := newTestRedisStore(t)

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

	t.Run("expired entry yields unknown", func(t *testing.T) {
		store.Put(ctx, testParticipant, testDocType, true)
		mr.FastForward(2*time.Hour + time.Second)
		assert.Equal(t, models.CapabilityUnknown, store.Get(ctx, testParticipant, testDocType))
	})
}

func TestRedisStore_Clear(t *testing.T) {
	ctx := context.Background()
	store, _ := newTestRedisStore(t)

	store.Put(ctx, testParticipant, testDocType, true)
	store.Put(ctx, testParticipant, models.Identifier{Scheme: testDocType.Scheme, Value: "MarriageCertificate"}, false)

	assert.Equal(t, 2, store.Clear(ctx))
	assert.Equal(t, 0, store.Clear(ctx))
	assert.Equal(t, models.CapabilityUnknown, store.Get(ctx, testParticipant, testDocType))
}
