package idempotency_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/bizsuite/pkg/idempotency"
	"github.com/dmitrymomot/bizsuite/pkg/scope"
	"github.com/dmitrymomot/bizsuite/pkg/tenant"
)

func tenantCtx(t *testing.T) context.Context {
	t.Helper()
	ctx, s := scope.NewRequest(context.Background())
	t.Cleanup(func() { _ = s.Close() })
	require.NoError(t, s.Holder().Set(tenant.Info{
		ID:               uuid.New(),
		Name:             "t",
		ConnectionString: "postgres://db",
		IsActive:         true,
	}))
	return ctx
}

func stores(t *testing.T) map[string]idempotency.Store {
	mr := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	return map[string]idempotency.Store{
		"memory": idempotency.NewMemoryStore(),
		"redis":  idempotency.NewRedisStore(client),
	}
}

func TestGuard(t *testing.T) {
	t.Parallel()

	for name, store := range stores(t) {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			g, err := idempotency.NewGuard(store, idempotency.WithTTL(time.Hour))
			require.NoError(t, err)

			a, b := tenantCtx(t), tenantCtx(t)

			require.NoError(t, g.Claim(a, "order-1"))
			assert.ErrorIs(t, g.Claim(a, "order-1"), idempotency.ErrDuplicate)

			// Same key, other tenant.
			require.NoError(t, g.Claim(b, "order-1"))

			require.NoError(t, g.Release(a, "order-1"))
			assert.NoError(t, g.Claim(a, "order-1"))
		})
	}
}

func TestGuard_RequiresTenant(t *testing.T) {
	t.Parallel()

	g, err := idempotency.NewGuard(idempotency.NewMemoryStore())
	require.NoError(t, err)

	err = g.Claim(context.Background(), "order-1")
	assert.ErrorIs(t, err, scope.ErrTenantContextMissing)

	assert.ErrorIs(t, g.Claim(tenantCtx(t), "  "), idempotency.ErrEmptyKey)
}

func TestNewGuard_NilStore(t *testing.T) {
	t.Parallel()

	_, err := idempotency.NewGuard(nil)
	assert.ErrorIs(t, err, idempotency.ErrNilStore)
}

func TestRedisStore_TTL(t *testing.T) {
	t.Parallel()

	mr := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	defer client.Close()

	s := idempotency.NewRedisStore(client)
	ok, err := s.SetNX(context.Background(), "k", time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)

	mr.FastForward(2 * time.Minute)

	ok, err = s.SetNX(context.Background(), "k", time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)
}
