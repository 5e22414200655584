package tenant_test

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/bizsuite/pkg/tenant"
)

// countingRegistry is a slow in-memory registry that counts lookups.
type countingRegistry struct {
	mu      sync.RWMutex
	tenants map[uuid.UUID]tenant.Info
	delay   time.Duration
	calls   atomic.Int64
}

func (r *countingRegistry) GetByID(ctx context.Context, id uuid.UUID) (*tenant.Info, error) {
	r.calls.Add(1)
	select {
	case <-time.After(r.delay):
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.tenants[id]
	if !ok {
		return nil, tenant.ErrTenantNotFound
	}
	return &t, nil
}

func (r *countingRegistry) GetBySubdomain(ctx context.Context, sub string) (*tenant.Info, error) {
	r.mu.RLock()
	id := uuid.Nil
	for _, t := range r.tenants {
		if t.Subdomain == sub {
			id = t.ID
			break
		}
	}
	r.mu.RUnlock()

	if id == uuid.Nil {
		return nil, tenant.ErrTenantNotFound
	}
	return r.GetByID(ctx, id)
}

func (r *countingRegistry) GetAllActive(context.Context) ([]tenant.Info, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]tenant.Info, 0, len(r.tenants))
	for _, t := range r.tenants {
		if t.IsActive {
			out = append(out, t)
		}
	}
	return out, nil
}

func TestResolver_ConcurrentMissesShareLookup(t *testing.T) {
	t.Parallel()

	acme := newTenant("acme", true)
	reg := &countingRegistry{
		tenants: map[uuid.UUID]tenant.Info{acme.ID: acme},
		delay:   50 * time.Millisecond,
	}
	r, _ := newResolver(t, reg)

	const workers = 50
	var wg sync.WaitGroup
	start := make(chan struct{})

	for range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			info, err := r.Resolve(context.Background(), tenant.IDSignal(acme.ID))
			assert.NoError(t, err)
			assert.Equal(t, acme.ConnectionString, info.ConnectionString)
		}()
	}

	close(start)
	wg.Wait()

	assert.Equal(t, int64(1), reg.calls.Load())
}

func TestResolver_ConcurrentTenantsStayIsolated(t *testing.T) {
	t.Parallel()

	reg := &countingRegistry{tenants: make(map[uuid.UUID]tenant.Info)}
	tenants := make([]tenant.Info, 8)
	for i := range tenants {
		tenants[i] = newTenant("t"+uuid.NewString()[:6], true)
		reg.tenants[tenants[i].ID] = tenants[i]
	}

	r, cache := newResolver(t, reg)

	var wg sync.WaitGroup
	for i := range 64 {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			want := tenants[n%len(tenants)]
			for range 100 {
				info, err := r.Resolve(context.Background(), tenant.IDSignal(want.ID))
				if !assert.NoError(t, err) {
					return
				}
				assert.Equal(t, want.ID, info.ID)
				assert.Equal(t, want.ConnectionString, info.ConnectionString)
			}
		}(i)
	}

	// Invalidations racing with resolution must never surface another tenant's data.
	wg.Add(1)
	go func() {
		defer wg.Done()
		for n := range 200 {
			cache.Invalidate(tenants[n%len(tenants)].ID)
		}
	}()

	wg.Wait()

	list, err := r.AllActive(context.Background())
	require.NoError(t, err)
	assert.Len(t, list, len(tenants))
}

func TestResolver_UnknownTenantFailsFastUnderLoad(t *testing.T) {
	t.Parallel()

	reg := &countingRegistry{tenants: map[uuid.UUID]tenant.Info{}}
	r, cache := newResolver(t, reg)

	var wg sync.WaitGroup
	for range 20 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := r.Resolve(context.Background(), tenant.SubdomainSignal("nobody"))
			assert.ErrorIs(t, err, tenant.ErrTenantNotFound)
		}()
	}
	wg.Wait()

	assert.Equal(t, 0, cache.Len())
}

// gatedRegistry holds its first read open until released, after taking the
// snapshot it will return, so tests can change the registry mid-lookup.
type gatedRegistry struct {
	mu      sync.Mutex
	tenants map[uuid.UUID]tenant.Info
	byID    atomic.Int64
	entered chan struct{}
	release chan struct{}
	once    sync.Once
}

func newGatedRegistry(ts ...tenant.Info) *gatedRegistry {
	r := &gatedRegistry{
		tenants: make(map[uuid.UUID]tenant.Info, len(ts)),
		entered: make(chan struct{}),
		release: make(chan struct{}),
	}
	for _, t := range ts {
		r.tenants[t.ID] = t
	}
	return r
}

func (r *gatedRegistry) hold() {
	r.once.Do(func() {
		close(r.entered)
		<-r.release
	})
}

func (r *gatedRegistry) set(info tenant.Info) {
	r.mu.Lock()
	r.tenants[info.ID] = info
	r.mu.Unlock()
}

func (r *gatedRegistry) GetByID(_ context.Context, id uuid.UUID) (*tenant.Info, error) {
	r.byID.Add(1)
	r.mu.Lock()
	t, ok := r.tenants[id]
	r.mu.Unlock()

	r.hold()
	if !ok {
		return nil, tenant.ErrTenantNotFound
	}
	return &t, nil
}

func (r *gatedRegistry) GetBySubdomain(context.Context, string) (*tenant.Info, error) {
	return nil, tenant.ErrTenantNotFound
}

func (r *gatedRegistry) GetAllActive(context.Context) ([]tenant.Info, error) {
	r.mu.Lock()
	out := make([]tenant.Info, 0, len(r.tenants))
	for _, t := range r.tenants {
		if t.IsActive {
			out = append(out, t)
		}
	}
	r.mu.Unlock()

	r.hold()
	return out, nil
}

func TestResolver_InvalidateDuringLookupIsNotLost(t *testing.T) {
	t.Parallel()

	acme := newTenant("acme", true)
	acme.ConnectionString = "old-db"
	reg := newGatedRegistry(acme)
	r, cache := newResolver(t, reg)

	done := make(chan error, 1)
	go func() {
		_, err := r.Resolve(context.Background(), tenant.IDSignal(acme.ID))
		done <- err
	}()

	<-reg.entered
	rotated := acme
	rotated.ConnectionString = "new-db"
	reg.set(rotated)
	r.Invalidate(acme.ID)
	close(reg.release)
	require.NoError(t, <-done)

	_, cached := cache.Get(acme.ID)
	assert.False(t, cached, "snapshot read before the invalidation must not be cached")

	info, err := r.Resolve(context.Background(), tenant.IDSignal(acme.ID))
	require.NoError(t, err)
	assert.Equal(t, "new-db", info.ConnectionString)
	assert.Equal(t, int64(2), reg.byID.Load())
}

func TestResolver_InvalidateDuringAllActiveIsNotLost(t *testing.T) {
	t.Parallel()

	t2 := newTenant("t2", true)
	reg := newGatedRegistry(t2)
	r, _ := newResolver(t, reg)

	done := make(chan error, 1)
	go func() {
		_, err := r.AllActive(context.Background())
		done <- err
	}()

	<-reg.entered
	deactivated := t2
	deactivated.IsActive = false
	reg.set(deactivated)
	r.Invalidate(t2.ID)
	close(reg.release)
	require.NoError(t, <-done)

	_, err := r.Resolve(context.Background(), tenant.IDSignal(t2.ID))
	assert.ErrorIs(t, err, tenant.ErrTenantInactive)
	assert.Equal(t, int64(1), reg.byID.Load())
}
