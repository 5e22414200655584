package inventory_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/bizsuite/modules/inventory"
	"github.com/dmitrymomot/bizsuite/pkg/dbconn"
	"github.com/dmitrymomot/bizsuite/pkg/registry"
	"github.com/dmitrymomot/bizsuite/pkg/scope"
	"github.com/dmitrymomot/bizsuite/pkg/tenant"
)

// memDB is an in-memory tenant database. Inserts are recorded per connection string.
type memDB struct {
	name string

	mu       sync.Mutex
	products []inventory.Product
	owners   []uuid.UUID

	// arrive, when set, holds every insert until all expected writers arrived.
	arrive *sync.WaitGroup
}

func (d *memDB) Exec(ctx context.Context, _ string, args ...any) (pgconn.CommandTag, error) {
	if d.arrive != nil {
		d.arrive.Done()
		waitGroup(d.arrive, time.Second)
	}

	info, err := scope.Require(ctx)
	if err != nil {
		return pgconn.CommandTag{}, err
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	d.products = append(d.products, inventory.Product{
		ID:   args[0].(uuid.UUID),
		SKU:  args[1].(string),
		Name: args[2].(string),
	})
	d.owners = append(d.owners, info.ID)
	return pgconn.NewCommandTag("INSERT 0 1"), nil
}

func (d *memDB) Query(context.Context, string, ...any) (pgx.Rows, error) {
	return nil, errors.New("query not supported")
}

func (d *memDB) QueryRow(context.Context, string, ...any) pgx.Row {
	return noRow{}
}

func (d *memDB) snapshot() ([]inventory.Product, []uuid.UUID) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]inventory.Product(nil), d.products...), append([]uuid.UUID(nil), d.owners...)
}

type noRow struct{}

func (noRow) Scan(...any) error { return pgx.ErrNoRows }

func waitGroup(wg *sync.WaitGroup, timeout time.Duration) {
	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(timeout):
	}
}

type fixture struct {
	t1, t2   tenant.Info
	db1, db2 *memDB
	handler  http.Handler
}

func setup(t *testing.T, arrive *sync.WaitGroup) *fixture {
	t.Helper()

	f := &fixture{
		t1:  tenant.Info{ID: uuid.New(), Name: "Acme", Subdomain: "acme", ConnectionString: "db1", IsActive: true},
		t2:  tenant.Info{ID: uuid.New(), Name: "Globex", Subdomain: "globex", ConnectionString: "db2", IsActive: true},
		db1: &memDB{name: "db1", arrive: arrive},
		db2: &memDB{name: "db2", arrive: arrive},
	}

	reg := registry.NewMemory()
	require.NoError(t, reg.Upsert(context.Background(), f.t1))
	require.NoError(t, reg.Upsert(context.Background(), f.t2))

	resolver, err := tenant.NewResolver(reg, nil)
	require.NoError(t, err)

	dbs := map[string]*memDB{"db1": f.db1, "db2": f.db2}
	factory, err := dbconn.New(inventory.ModuleName,
		func(_ context.Context, conn string) (*memDB, error) {
			db, ok := dbs[conn]
			if !ok {
				return nil, errors.New("unknown database " + conn)
			}
			return db, nil
		},
		nil,
		dbconn.WithoutRetry(),
		dbconn.WithLogger(slog.New(slog.DiscardHandler)),
	)
	require.NoError(t, err)

	log := slog.New(slog.DiscardHandler)
	svc := inventory.NewService(inventory.NewStore[*memDB](factory), log)
	mw := scope.Middleware(resolver, tenant.NewHeaderExtractor(""), scope.WithMiddlewareLogger(log))
	f.handler = mw(svc.Handle())
	return f
}

func createProduct(h http.Handler, tenantID, sku string) *httptest.ResponseRecorder {
	body, _ := json.Marshal(inventory.CreateProductRequest{SKU: sku, Name: "Widget " + sku, Quantity: 3})
	req := httptest.NewRequest(http.MethodPost, "/products", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if tenantID != "" {
		req.Header.Set(tenant.DefaultHeader, tenantID)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestConcurrentRequestsWriteOnlyToOwnTenantDatabase(t *testing.T) {
	t.Parallel()

	var arrive sync.WaitGroup
	arrive.Add(2)
	f := setup(t, &arrive)

	var wg sync.WaitGroup
	results := make([]*httptest.ResponseRecorder, 2)
	for i, id := range []uuid.UUID{f.t1.ID, f.t2.ID} {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results[i] = createProduct(f.handler, id.String(), "SKU-"+id.String()[:8])
		}()
	}
	wg.Wait()

	for _, rec := range results {
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	}

	p1, owners1 := f.db1.snapshot()
	p2, owners2 := f.db2.snapshot()

	require.Len(t, p1, 1)
	require.Len(t, p2, 1)
	assert.Equal(t, "SKU-"+f.t1.ID.String()[:8], p1[0].SKU)
	assert.Equal(t, "SKU-"+f.t2.ID.String()[:8], p2[0].SKU)
	assert.Equal(t, []uuid.UUID{f.t1.ID}, owners1)
	assert.Equal(t, []uuid.UUID{f.t2.ID}, owners2)
}

func TestManyConcurrentRequestsNeverCrossWrite(t *testing.T) {
	t.Parallel()

	f := setup(t, nil)

	const perTenant = 25
	var wg sync.WaitGroup
	for i := range perTenant * 2 {
		id := f.t1.ID
		if i%2 == 1 {
			id = f.t2.ID
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			rec := createProduct(f.handler, id.String(), uuid.NewString())
			assert.Equal(t, http.StatusCreated, rec.Code)
		}()
	}
	wg.Wait()

	_, owners1 := f.db1.snapshot()
	_, owners2 := f.db2.snapshot()
	require.Len(t, owners1, perTenant)
	require.Len(t, owners2, perTenant)
	for _, id := range owners1 {
		assert.Equal(t, f.t1.ID, id)
	}
	for _, id := range owners2 {
		assert.Equal(t, f.t2.ID, id)
	}
}

func TestService_Errors(t *testing.T) {
	t.Parallel()

	f := setup(t, nil)

	t.Run("no tenant signal fails at data access", func(t *testing.T) {
		t.Parallel()
		rec := createProduct(f.handler, "", "SKU-1")
		assert.Equal(t, http.StatusInternalServerError, rec.Code)
		assert.Contains(t, rec.Body.String(), "tenant_context_missing")
	})

	t.Run("unknown tenant", func(t *testing.T) {
		t.Parallel()
		rec := createProduct(f.handler, uuid.NewString(), "SKU-1")
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("invalid product", func(t *testing.T) {
		t.Parallel()
		rec := createProduct(f.handler, f.t1.ID.String(), " ")
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("product not found", func(t *testing.T) {
		t.Parallel()
		req := httptest.NewRequest(http.MethodGet, "/products/"+uuid.NewString(), nil)
		req.Header.Set(tenant.DefaultHeader, f.t2.ID.String())
		rec := httptest.NewRecorder()
		f.handler.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("invalid max quantity", func(t *testing.T) {
		t.Parallel()
		req := httptest.NewRequest(http.MethodGet, "/products?max_quantity=-4", nil)
		req.Header.Set(tenant.DefaultHeader, f.t1.ID.String())
		rec := httptest.NewRecorder()
		f.handler.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}
