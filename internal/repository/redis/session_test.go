package redis

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/utafrali/EcommerceGo/storefront/internal/domain"
)

func setupTestRedis(t *testing.T, ttl time.Duration) (*SessionStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return NewSessionStore(client, "test", ttl), mr
}

func TestSessionStore_LoadEmpty(t *testing.T) {
	store, _ := setupTestRedis(t, time.Hour)

	view, err := store.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, domain.SessionView{}, view)
}

func TestSessionStore_SaveIdentityAndOrder(t *testing.T) {
	store, mr := setupTestRedis(t, time.Hour)
	ctx := context.Background()

	require.NoError(t, store.SaveIdentity(ctx, "7", "Bearer abc"))
	require.NoError(t, store.SaveOrderID(ctx, "42"))

	view, err := store.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, domain.SessionView{CustomerID: "7", Token: "Bearer abc", OrderID: "42"}, view)

	assert.Equal(t, "42", mr.HGet("storefront:session:test", "order_id"))
	assert.Equal(t, "Bearer abc", mr.HGet("storefront:session:test", "auth_token"))
	assert.Equal(t, time.Hour, mr.TTL("storefront:session:test"))
}

func TestSessionStore_ClearOrderIDKeepsIdentity(t *testing.T) {
	store, _ := setupTestRedis(t, 0)
	ctx := context.Background()

	require.NoError(t, store.SaveIdentity(ctx, "7", "tok"))
	require.NoError(t, store.SaveOrderID(ctx, "42"))
	require.NoError(t, store.ClearOrderID(ctx))

	view, err := store.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, "7", view.CustomerID)
	assert.Equal(t, "tok", view.Token)
	assert.Empty(t, view.OrderID)
}

func TestSessionStore_ClearRemovesEverything(t *testing.T) {
	store, mr := setupTestRedis(t, 0)
	ctx := context.Background()

	require.NoError(t, store.SaveIdentity(ctx, "7", "tok"))
	require.NoError(t, store.SaveOrderID(ctx, "42"))
	require.NoError(t, store.Clear(ctx))

	assert.False(t, mr.Exists("storefront:session:test"))
	view, err := store.Load(ctx)
	require.NoError(t, err)
	assert.False(t, view.HasIdentity())
	assert.False(t, view.HasOrder())
}

func TestSessionStore_ZeroTTLNeverExpires(t *testing.T) {
	store, mr := setupTestRedis(t, 0)
	require.NoError(t, store.SaveIdentity(context.Background(), "7", "tok"))

	assert.Equal(t, time.Duration(0), mr.TTL("storefront:session:test"))
}

func TestSessionStore_NamespacesAreIsolated(t *testing.T) {
	mr := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	ctx := context.Background()

	a := NewSessionStore(client, "alice", 0)
	b := NewSessionStore(client, "bob", 0)
	require.NoError(t, a.SaveOrderID(ctx, "1"))

	view, err := b.Load(ctx)
	require.NoError(t, err)
	assert.Empty(t, view.OrderID)
}

func TestSessionStore_RedisDown(t *testing.T) {
	store, mr := setupTestRedis(t, 0)
	mr.Close()

	_, err := store.Load(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "redis hgetall session")

	err = store.SaveOrderID(context.Background(), "42")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "redis save session order id")
	assert.Error(t, store.Ping(context.Background()))
}
