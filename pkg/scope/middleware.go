package scope

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/dmitrymomot/bizsuite/pkg/logger"
	"github.com/dmitrymomot/bizsuite/pkg/tenant"
)

// Resolver turns a signal into a tenant snapshot. *tenant.Resolver implements it.
type Resolver interface {
	Resolve(ctx context.Context, sig tenant.Signal) (tenant.Info, error)
}

// ErrorHandler writes the response for a failed resolution.
type ErrorHandler func(w http.ResponseWriter, r *http.Request, err error)

type middlewareConfig struct {
	errorHandler ErrorHandler
	skipPaths    []string
	logger       *slog.Logger
}

// MiddlewareOption configures Middleware.
type MiddlewareOption func(*middlewareConfig)

func WithErrorHandler(h ErrorHandler) MiddlewareOption {
	return func(c *middlewareConfig) {
		if h != nil {
			c.errorHandler = h
		}
	}
}

// WithSkipPaths replaces the path prefixes that bypass tenant resolution.
func WithSkipPaths(paths ...string) MiddlewareOption {
	return func(c *middlewareConfig) {
		c.skipPaths = paths
	}
}

func WithMiddlewareLogger(l *slog.Logger) MiddlewareOption {
	return func(c *middlewareConfig) {
		if l != nil {
			c.logger = l
		}
	}
}

// DefaultSkipPaths are probe and scrape endpoints that never carry a tenant.
var DefaultSkipPaths = []string{"/healthz", "/readyz", "/metrics"}

// Middleware opens a request scope for every request, resolves the tenant
// signal and binds the result to the scope's holder. It is the only writer of
// request tenant context and must be mounted before authentication.
//
// Requests without any signal continue tenant-less; routes that need a tenant
// fail at RequireTenant or at their connection factory.
func Middleware(resolver Resolver, extractor tenant.Extractor, opts ...MiddlewareOption) func(http.Handler) http.Handler {
	cfg := &middlewareConfig{
		skipPaths: DefaultSkipPaths,
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(cfg)
	}
	if cfg.errorHandler == nil {
		cfg.errorHandler = DefaultErrorHandler(cfg.logger)
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			for _, skip := range cfg.skipPaths {
				if strings.HasPrefix(r.URL.Path, skip) {
					next.ServeHTTP(w, r)
					return
				}
			}

			ctx, s := NewRequest(r.Context(), WithLogger(cfg.logger))
			defer s.Close()
			r = r.WithContext(ctx)

			sig, err := extractor(r)
			if err != nil {
				cfg.errorHandler(w, r, err)
				return
			}
			if sig.IsZero() {
				next.ServeHTTP(w, r)
				return
			}

			if err := s.BeginResolve(); err != nil {
				cfg.errorHandler(w, r, err)
				return
			}

			info, err := resolver.Resolve(ctx, sig)
			if err != nil {
				_ = s.FailResolve()
				cfg.errorHandler(w, r, err)
				return
			}

			if err := s.Holder().Set(info); err != nil {
				cfg.errorHandler(w, r, err)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// RequireTenant rejects requests that reach it without a resolved tenant.
// A nil errorHandler answers 400.
func RequireTenant(errorHandler ErrorHandler) func(http.Handler) http.Handler {
	if errorHandler == nil {
		errorHandler = func(w http.ResponseWriter, r *http.Request, err error) {
			http.Error(w, "Tenant required", http.StatusBadRequest)
		}
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if _, err := Require(r.Context()); err != nil {
				errorHandler(w, r, err)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// StatusCode maps a resolution error to an HTTP status.
func StatusCode(err error) int {
	switch {
	case errors.Is(err, tenant.ErrInvalidIdentifier), errors.Is(err, tenant.ErrEmptySignal):
		return http.StatusBadRequest
	case errors.Is(err, tenant.ErrTenantNotFound):
		return http.StatusNotFound
	case errors.Is(err, tenant.ErrTenantInactive):
		return http.StatusForbidden
	case errors.Is(err, context.Canceled):
		return 499
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	case errors.Is(err, tenant.ErrRegistryUnavailable):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// DefaultErrorHandler logs the failure and answers with StatusCode.
// Client errors are logged at warn, everything else at error.
func DefaultErrorHandler(log *slog.Logger) ErrorHandler {
	if log == nil {
		log = slog.Default()
	}

	return func(w http.ResponseWriter, r *http.Request, err error) {
		code := StatusCode(err)

		level := slog.LevelError
		if tenant.IsClientError(err) {
			level = slog.LevelWarn
		}
		log.Log(r.Context(), level, "tenant resolution failed",
			logger.Component("scope"),
			slog.String("path", r.URL.Path),
			slog.Int("status", code),
			logger.Error(err))

		var msg string
		switch {
		case errors.Is(err, tenant.ErrTenantNotFound):
			msg = "Tenant not found"
		case errors.Is(err, tenant.ErrTenantInactive):
			msg = "Tenant is inactive"
		case code == http.StatusBadRequest:
			msg = "Invalid tenant identifier"
		case code == http.StatusServiceUnavailable:
			msg = "Service unavailable"
		default:
			msg = "Internal server error"
		}
		http.Error(w, msg, code)
	}
}
