package modules_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/bizsuite/modules"
	"github.com/dmitrymomot/bizsuite/pkg/scope"
)

type stubModule struct{ name string }

func (m stubModule) Handle() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(m.name + " " + r.URL.Path))
	})
}

func TestRouter(t *testing.T) {
	t.Parallel()

	r := modules.Router(modules.RouterOptions{
		Inventory: stubModule{"inventory"},
		Sales:     stubModule{"sales"},
	})

	withTenant := func(req *http.Request) *http.Request {
		ctx, s := scope.NewRequest(context.Background())
		t.Cleanup(func() { _ = s.Close() })
		require.NoError(t, s.Holder().SetTenantInfo(uuid.New(), "Acme", "db1"))
		return req.WithContext(ctx)
	}

	t.Run("mounted module", func(t *testing.T) {
		t.Parallel()
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, withTenant(httptest.NewRequest(http.MethodGet, "/inventory/products", nil)))
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "inventory /inventory/products", rec.Body.String())
	})

	t.Run("module not configured", func(t *testing.T) {
		t.Parallel()
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, withTenant(httptest.NewRequest(http.MethodGet, "/hr/employees", nil)))
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("no tenant", func(t *testing.T) {
		t.Parallel()
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/sales/orders", nil))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}
