package scope_test

import (
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/bizsuite/pkg/scope"
	"github.com/dmitrymomot/bizsuite/pkg/tenant"
)

func testTenant(name, conn string) tenant.Info {
	return tenant.Info{
		ID:               uuid.New(),
		Name:             name,
		Subdomain:        name,
		ConnectionString: conn,
		IsActive:         true,
	}
}

func TestHolder_Set(t *testing.T) {
	t.Parallel()

	t.Run("same tenant twice is a no-op", func(t *testing.T) {
		t.Parallel()

		h := scope.NewRequestHolder()
		t1 := testTenant("t1", "db1")

		require.NoError(t, h.Set(t1))
		require.NoError(t, h.Set(t1))

		got, ok := h.Current()
		require.True(t, ok)
		assert.Equal(t, t1, got)
	})

	t.Run("different tenant fails loudly and keeps the first", func(t *testing.T) {
		t.Parallel()

		h := scope.NewRequestHolder()
		t1 := testTenant("t1", "db1")
		t2 := testTenant("t2", "db2")

		require.NoError(t, h.Set(t1))
		err := h.Set(t2)
		require.ErrorIs(t, err, scope.ErrTenantConflict)

		got, _ := h.Current()
		assert.Equal(t, t1.ID, got.ID)
	})

	t.Run("same id with rotated connection string conflicts", func(t *testing.T) {
		t.Parallel()

		h := scope.NewBackgroundHolder()
		t1 := testTenant("t1", "db1")
		rotated := t1.Clone()
		rotated.ConnectionString = "db1-new"

		require.NoError(t, h.Set(t1))
		assert.ErrorIs(t, h.Set(rotated), scope.ErrTenantConflict)
	})

	t.Run("zero tenant is rejected", func(t *testing.T) {
		t.Parallel()

		h := scope.NewRequestHolder()
		assert.ErrorIs(t, h.Set(tenant.Info{}), scope.ErrEmptyTenant)
		assert.False(t, h.IsSet())
	})

	t.Run("set tenant info", func(t *testing.T) {
		t.Parallel()

		h := scope.NewBackgroundHolder()
		id := uuid.New()

		require.NoError(t, h.SetTenantInfo(id, "Acme", "db-acme"))

		got, err := h.Require()
		require.NoError(t, err)
		assert.Equal(t, id, got.ID)
		assert.Equal(t, "Acme", got.Name)
		assert.Equal(t, "db-acme", got.ConnectionString)
		assert.Equal(t, scope.KindBackground, h.Kind())
	})

	t.Run("concurrent sets of different tenants admit exactly one", func(t *testing.T) {
		t.Parallel()

		h := scope.NewRequestHolder()
		var (
			wg        sync.WaitGroup
			mu        sync.Mutex
			successes int
		)
		for range 20 {
			wg.Add(1)
			go func() {
				defer wg.Done()
				if h.Set(testTenant("t", "db")) == nil {
					mu.Lock()
					successes++
					mu.Unlock()
				}
			}()
		}
		wg.Wait()

		assert.Equal(t, 1, successes)
	})
}

func TestHolder_Current(t *testing.T) {
	t.Parallel()

	t.Run("unset holder", func(t *testing.T) {
		t.Parallel()

		h := scope.NewRequestHolder()
		_, ok := h.Current()
		assert.False(t, ok)

		_, err := h.Require()
		assert.ErrorIs(t, err, scope.ErrTenantContextMissing)
	})

	t.Run("nil holder", func(t *testing.T) {
		t.Parallel()

		var h *scope.Holder
		_, ok := h.Current()
		assert.False(t, ok)
		assert.False(t, h.IsSet())
	})

	t.Run("returned copy cannot change the holder", func(t *testing.T) {
		t.Parallel()

		h := scope.NewRequestHolder()
		info := testTenant("t1", "db1")
		info.Stores = map[string]string{"documents": "mongo1"}
		require.NoError(t, h.Set(info))

		got, _ := h.Current()
		got.Stores["documents"] = "mongo2"
		info.Stores["documents"] = "mongo3"

		again, _ := h.Current()
		assert.Equal(t, "mongo1", again.Stores["documents"])
	})
}
