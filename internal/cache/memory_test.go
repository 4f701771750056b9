package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/elonfeng/roomivo/internal/config"
)

func TestMemory_SetGetDelete(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	_, ok := m.Get(ctx, "k")
	assert.False(t, ok)

	require.NoError(t, m.Set(ctx, "k", "v", 0))
	v, ok := m.Get(ctx, "k")
	assert.True(t, ok)
	assert.Equal(t, "v", v)

	require.NoError(t, m.Delete(ctx, "k"))
	_, ok = m.Get(ctx, "k")
	assert.False(t, ok)
}

func TestMemory_Expiry(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	m := NewMemory()
	m.now = func() time.Time { return now }

	require.NoError(t, m.Set(ctx, "k", "v", time.Minute))

	now = now.Add(59 * time.Second)
	_, ok := m.Get(ctx, "k")
	assert.True(t, ok)

	now = now.Add(time.Second)
	_, ok = m.Get(ctx, "k")
	assert.False(t, ok)
}

func TestNew_PicksBackend(t *testing.T) {
	_, isMem := New(config.CacheConfig{}).(*Memory)
	assert.True(t, isMem)

	r, isRedis := New(config.CacheConfig{RedisAddr: "127.0.0.1:0"}).(*Redis)
	require.True(t, isRedis)
	assert.NoError(t, r.Close())
}
