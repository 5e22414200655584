package scope_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/bizsuite/pkg/scope"
	"github.com/dmitrymomot/bizsuite/pkg/tenant"
)

type mockResolver struct {
	mock.Mock
}

func (m *mockResolver) Resolve(ctx context.Context, sig tenant.Signal) (tenant.Info, error) {
	args := m.Called(ctx, sig)
	return args.Get(0).(tenant.Info), args.Error(1)
}

var quietLogger = slog.New(slog.NewTextHandler(io.Discard, nil))

func newMiddleware(r scope.Resolver, opts ...scope.MiddlewareOption) func(http.Handler) http.Handler {
	ex := tenant.NewCompositeExtractor(
		tenant.NewHeaderExtractor(""),
		tenant.NewSubdomainExtractor("example.com"),
	)
	opts = append([]scope.MiddlewareOption{scope.WithMiddlewareLogger(quietLogger)}, opts...)
	return scope.Middleware(r, ex, opts...)
}

func TestMiddleware(t *testing.T) {
	t.Parallel()

	t.Run("binds resolved tenant to the request scope", func(t *testing.T) {
		t.Parallel()

		acme := testTenant("acme", "db-acme")
		res := &mockResolver{}
		res.On("Resolve", mock.Anything, tenant.SubdomainSignal("acme")).Return(acme, nil)

		var (
			seen     tenant.Info
			captured *scope.Scope
		)
		h := newMiddleware(res)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			s, info, err := scope.Active(r.Context())
			require.NoError(t, err)
			seen, captured = info, s
			assert.Equal(t, scope.Resolved, s.State())
			w.WriteHeader(http.StatusNoContent)
		}))

		req := httptest.NewRequest("GET", "/products", nil)
		req.Host = "acme.example.com"
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusNoContent, rec.Code)
		assert.Equal(t, acme.ID, seen.ID)
		require.NotNil(t, captured)
		assert.Equal(t, scope.Disposed, captured.State(), "scope must be disposed when the request ends")
		res.AssertExpectations(t)
	})

	t.Run("header signal", func(t *testing.T) {
		t.Parallel()

		acme := testTenant("acme", "db-acme")
		res := &mockResolver{}
		res.On("Resolve", mock.Anything, tenant.HeaderSignal(acme.ID.String())).Return(acme, nil)

		h := newMiddleware(res)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			info, err := scope.Require(r.Context())
			require.NoError(t, err)
			assert.Equal(t, acme.ID, info.ID)
		}))

		req := httptest.NewRequest("GET", "/", nil)
		req.Header.Set(tenant.DefaultHeader, acme.ID.String())
		h.ServeHTTP(httptest.NewRecorder(), req)
		res.AssertExpectations(t)
	})

	t.Run("request without signal continues tenant-less", func(t *testing.T) {
		t.Parallel()

		res := &mockResolver{}
		called := false
		h := newMiddleware(res)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			called = true
			_, err := scope.Require(r.Context())
			assert.ErrorIs(t, err, scope.ErrTenantContextMissing)
		}))

		req := httptest.NewRequest("GET", "/", nil)
		req.Host = "example.com"
		h.ServeHTTP(httptest.NewRecorder(), req)

		assert.True(t, called)
		res.AssertNotCalled(t, "Resolve", mock.Anything, mock.Anything)
	})

	t.Run("skip paths bypass resolution", func(t *testing.T) {
		t.Parallel()

		res := &mockResolver{}
		h := newMiddleware(res)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, ok := scope.RequestScope(r.Context())
			assert.False(t, ok)
		}))

		req := httptest.NewRequest("GET", "/healthz", nil)
		req.Host = "acme.example.com"
		h.ServeHTTP(httptest.NewRecorder(), req)
		res.AssertNotCalled(t, "Resolve", mock.Anything, mock.Anything)
	})

	t.Run("resolution errors map to status codes", func(t *testing.T) {
		t.Parallel()

		tests := []struct {
			name string
			err  error
			code int
		}{
			{"not found", tenant.ErrTenantNotFound, http.StatusNotFound},
			{"inactive", tenant.ErrTenantInactive, http.StatusForbidden},
			{"registry down", errors.Join(tenant.ErrRegistryUnavailable, errors.New("dial")), http.StatusServiceUnavailable},
			{"unexpected", errors.New("boom"), http.StatusInternalServerError},
		}

		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				t.Parallel()

				res := &mockResolver{}
				res.On("Resolve", mock.Anything, mock.Anything).Return(tenant.Info{}, tt.err)

				h := newMiddleware(res)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
					t.Fatal("next must not run")
				}))

				req := httptest.NewRequest("GET", "/", nil)
				req.Host = "acme.example.com"
				rec := httptest.NewRecorder()
				h.ServeHTTP(rec, req)

				assert.Equal(t, tt.code, rec.Code)
			})
		}
	})

	t.Run("malformed header is a bad request", func(t *testing.T) {
		t.Parallel()

		res := &mockResolver{}
		h := newMiddleware(res)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			t.Fatal("next must not run")
		}))

		req := httptest.NewRequest("GET", "/", nil)
		req.Header.Set(tenant.DefaultHeader, "nope")
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("custom error handler", func(t *testing.T) {
		t.Parallel()

		res := &mockResolver{}
		res.On("Resolve", mock.Anything, mock.Anything).Return(tenant.Info{}, tenant.ErrTenantNotFound)

		var got error
		h := newMiddleware(res, scope.WithErrorHandler(func(w http.ResponseWriter, r *http.Request, err error) {
			got = err
			w.WriteHeader(http.StatusTeapot)
		}))(http.NotFoundHandler())

		req := httptest.NewRequest("GET", "/", nil)
		req.Header.Set(tenant.DefaultHeader, uuid.NewString())
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusTeapot, rec.Code)
		assert.ErrorIs(t, got, tenant.ErrTenantNotFound)
	})
}

func TestRequireTenant(t *testing.T) {
	t.Parallel()

	ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	t.Run("rejects tenant-less request", func(t *testing.T) {
		t.Parallel()

		rec := httptest.NewRecorder()
		scope.RequireTenant(nil)(ok).ServeHTTP(rec, httptest.NewRequest("GET", "/", nil))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("passes resolved request", func(t *testing.T) {
		t.Parallel()

		ctx, s := scope.NewRequest(context.Background())
		defer s.Close()
		require.NoError(t, s.Holder().Set(testTenant("t1", "db1")))

		rec := httptest.NewRecorder()
		scope.RequireTenant(nil)(ok).ServeHTTP(rec, httptest.NewRequest("GET", "/", nil).WithContext(ctx))
		assert.Equal(t, http.StatusOK, rec.Code)
	})
}

func TestStatusCode(t *testing.T) {
	t.Parallel()

	assert.Equal(t, http.StatusBadRequest, scope.StatusCode(tenant.ErrInvalidIdentifier))
	assert.Equal(t, http.StatusBadRequest, scope.StatusCode(tenant.ErrEmptySignal))
	assert.Equal(t, http.StatusGatewayTimeout, scope.StatusCode(context.DeadlineExceeded))
	assert.Equal(t, http.StatusInternalServerError, scope.StatusCode(scope.ErrTenantContextMissing))
}
