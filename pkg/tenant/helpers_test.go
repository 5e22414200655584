package tenant_test

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"github.com/dmitrymomot/bizsuite/pkg/tenant"
)

type mockRegistry struct {
	mock.Mock
}

func (m *mockRegistry) GetByID(ctx context.Context, id uuid.UUID) (*tenant.Info, error) {
	args := m.Called(ctx, id)
	if v := args.Get(0); v != nil {
		return v.(*tenant.Info), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockRegistry) GetBySubdomain(ctx context.Context, sub string) (*tenant.Info, error) {
	args := m.Called(ctx, sub)
	if v := args.Get(0); v != nil {
		return v.(*tenant.Info), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockRegistry) GetAllActive(ctx context.Context) ([]tenant.Info, error) {
	args := m.Called(ctx)
	if v := args.Get(0); v != nil {
		return v.([]tenant.Info), args.Error(1)
	}
	return nil, args.Error(1)
}

type mockRevealer struct {
	mock.Mock
}

func (m *mockRevealer) Reveal(ctx context.Context, ref string) (string, error) {
	args := m.Called(ctx, ref)
	return args.String(0), args.Error(1)
}

func newTenant(sub string, active bool) tenant.Info {
	return tenant.Info{
		ID:               uuid.New(),
		Name:             sub + " inc",
		Subdomain:        sub,
		ConnectionString: "postgres://" + sub + "@db/" + sub,
		IsActive:         active,
	}
}

// fakeClock is a manually advanced clock for TTL tests.
type fakeClock struct {
	now atomic.Int64
}

func newFakeClock() *fakeClock {
	c := &fakeClock{}
	c.now.Store(time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC).UnixNano())
	return c
}

func (c *fakeClock) Now() time.Time {
	return time.Unix(0, c.now.Load()).UTC()
}

func (c *fakeClock) Advance(d time.Duration) {
	c.now.Add(int64(d))
}
