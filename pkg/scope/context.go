package scope

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/dmitrymomot/bizsuite/pkg/logger"
	"github.com/dmitrymomot/bizsuite/pkg/tenant"
)

type (
	requestKey    struct{}
	backgroundKey struct{}
)

func withScope(ctx context.Context, s *Scope) context.Context {
	if s.kind == KindBackground {
		return context.WithValue(ctx, backgroundKey{}, s)
	}
	return context.WithValue(ctx, requestKey{}, s)
}

// RequestScope returns the request scope carried by ctx.
func RequestScope(ctx context.Context) (*Scope, bool) {
	s, ok := ctx.Value(requestKey{}).(*Scope)
	return s, ok && s != nil
}

// BackgroundScope returns the job scope carried by ctx.
func BackgroundScope(ctx context.Context) (*Scope, bool) {
	s, ok := ctx.Value(backgroundKey{}).(*Scope)
	return s, ok && s != nil
}

// Provider looks up one source of tenant context.
type Provider func(ctx context.Context) (*Scope, bool)

// Chain is an ordered list of providers; the first scope whose holder is set wins.
type Chain []Provider

// DefaultChain prefers a background job's tenant over the request's. A job can
// run inside infrastructure that also carries a stale or unrelated request scope.
var DefaultChain = Chain{BackgroundScope, RequestScope}

// Active returns the first scope in the chain that carries a tenant.
// Unset holders are skipped; a disposed scope with a tenant fails with ErrScopeDisposed.
func (c Chain) Active(ctx context.Context) (*Scope, tenant.Info, error) {
	sawScope := false

	for _, p := range c {
		s, ok := p(ctx)
		if !ok {
			continue
		}
		sawScope = true

		info, ok := s.holder.Current()
		if !ok {
			continue
		}
		if s.State() == Disposed {
			return nil, tenant.Info{}, ErrScopeDisposed
		}
		return s, info, nil
	}

	if !sawScope {
		return nil, tenant.Info{}, fmt.Errorf("%w: %w", ErrTenantContextMissing, ErrNoScope)
	}
	return nil, tenant.Info{}, ErrTenantContextMissing
}

// Active resolves the current scope through DefaultChain.
func Active(ctx context.Context) (*Scope, tenant.Info, error) {
	return DefaultChain.Active(ctx)
}

// Current returns the tenant of the unit of work carried by ctx.
func Current(ctx context.Context) (tenant.Info, bool) {
	_, info, err := DefaultChain.Active(ctx)
	return info, err == nil
}

// Require returns the current tenant or an error matching ErrTenantContextMissing.
func Require(ctx context.Context) (tenant.Info, error) {
	_, info, err := DefaultChain.Active(ctx)
	return info, err
}

// LogExtractors returns logger extractors for the tenant and scope ids.
func LogExtractors() []logger.ContextExtractor {
	return []logger.ContextExtractor{
		func(ctx context.Context) (slog.Attr, bool) {
			info, ok := Current(ctx)
			if !ok {
				return slog.Attr{}, false
			}
			return logger.TenantID(info.ID), true
		},
		func(ctx context.Context) (slog.Attr, bool) {
			if s, ok := BackgroundScope(ctx); ok {
				return logger.ScopeID(s.ID()), true
			}
			if s, ok := RequestScope(ctx); ok {
				return logger.ScopeID(s.ID()), true
			}
			return slog.Attr{}, false
		},
	}
}
