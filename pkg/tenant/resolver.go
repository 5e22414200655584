package tenant

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"

	"github.com/dmitrymomot/bizsuite/pkg/logger"
	"github.com/dmitrymomot/bizsuite/pkg/metrics"
)

// DefaultLookupTimeout bounds a registry round trip started on a cache miss.
const DefaultLookupTimeout = 5 * time.Second

// ErrNilRegistry is returned by NewResolver when no registry is supplied.
var ErrNilRegistry = errors.New("tenant registry cannot be nil")

// Resolver turns signals into tenant snapshots, going through the cache first.
type Resolver struct {
	registry Registry
	cache    *Cache
	secrets  SecretRevealer
	group    singleflight.Group
	timeout  time.Duration
	logger   *slog.Logger
	metrics  *metrics.Metrics
}

// ResolverOption configures a Resolver.
type ResolverOption func(*Resolver)

// WithSecrets reveals connection string references before they are cached.
func WithSecrets(s SecretRevealer) ResolverOption {
	return func(r *Resolver) {
		r.secrets = s
	}
}

// WithLookupTimeout bounds the shared registry lookup on a cache miss.
func WithLookupTimeout(d time.Duration) ResolverOption {
	return func(r *Resolver) {
		if d > 0 {
			r.timeout = d
		}
	}
}

func WithResolverLogger(l *slog.Logger) ResolverOption {
	return func(r *Resolver) {
		if l != nil {
			r.logger = l
		}
	}
}

func WithResolverMetrics(m *metrics.Metrics) ResolverOption {
	return func(r *Resolver) {
		r.metrics = m
	}
}

// NewResolver creates a resolver over registry. A nil cache gets a private one
// without a janitor, which is enough for tools and tests.
func NewResolver(registry Registry, cache *Cache, opts ...ResolverOption) (*Resolver, error) {
	if registry == nil {
		return nil, ErrNilRegistry
	}
	if cache == nil {
		cache = NewCache(WithSweepInterval(0))
	}

	r := &Resolver{
		registry: registry,
		cache:    cache,
		timeout:  DefaultLookupTimeout,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}

	return r, nil
}

// Cache exposes the resolver's cache, for invalidation wiring.
func (r *Resolver) Cache() *Cache {
	return r.cache
}

// Resolve returns the active tenant identified by sig.
func (r *Resolver) Resolve(ctx context.Context, sig Signal) (Info, error) {
	info, err := r.resolve(ctx, sig)
	r.metrics.Resolution(string(sig.Kind), outcome(err))
	return info, err
}

func (r *Resolver) resolve(ctx context.Context, sig Signal) (Info, error) {
	if sig.IsZero() {
		return Info{}, ErrEmptySignal
	}

	switch sig.Kind {
	case SignalID, SignalHeader:
		id, err := sig.tenantID()
		if err != nil {
			return Info{}, err
		}
		if e, ok := r.cache.Get(id); ok {
			return e.Info(), nil
		}
		sig = IDSignal(id)

	case SignalSubdomain:
		sub, err := sig.subdomain()
		if err != nil {
			return Info{}, err
		}
		if id, ok := r.cache.LookupSubdomain(sub); ok {
			if e, ok := r.cache.Get(id); ok {
				return e.Info(), nil
			}
		}
		sig = SubdomainSignal(sub)

	default:
		return Info{}, fmt.Errorf("%w: unknown signal kind %q", ErrInvalidIdentifier, sig.Kind)
	}

	// Concurrent misses for the same tenant share one registry round trip.
	// The shared lookup is detached from the first caller's cancellation so one
	// aborted request cannot fail its siblings; each caller still honours its own ctx.
	ch := r.group.DoChan(sig.key(), func() (any, error) {
		lookupCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), r.timeout)
		defer cancel()
		return r.load(lookupCtx, sig)
	})

	select {
	case <-ctx.Done():
		return Info{}, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return Info{}, res.Err
		}
		return res.Val.(Info).Clone(), nil
	}
}

func (r *Resolver) load(ctx context.Context, sig Signal) (Info, error) {
	var (
		found *Info
		err   error
		stamp Stamp
	)

	// The stamp is taken before the read so an Invalidate racing with it
	// keeps the snapshot out of the cache.
	if sig.Kind == SignalSubdomain {
		stamp = r.cache.Stamp(uuid.Nil)
		found, err = r.registry.GetBySubdomain(ctx, sig.Value)
	} else {
		id, _ := sig.tenantID()
		stamp = r.cache.Stamp(id)
		found, err = r.registry.GetByID(ctx, id)
	}

	switch {
	case errors.Is(err, ErrTenantNotFound):
		return Info{}, fmt.Errorf("%w: %s %q", ErrTenantNotFound, sig.Kind, sig.Value)
	case err != nil:
		return Info{}, errors.Join(ErrRegistryUnavailable, err)
	case found == nil:
		return Info{}, fmt.Errorf("%w: %s %q", ErrTenantNotFound, sig.Kind, sig.Value)
	}

	if !found.IsActive {
		r.cache.Invalidate(found.ID)
		return Info{}, fmt.Errorf("%w: %s", ErrTenantInactive, found.ID)
	}

	info, err := r.reveal(ctx, *found)
	if err != nil {
		return Info{}, err
	}

	r.cache.PutIf(info, stamp)
	return info, nil
}

func (r *Resolver) reveal(ctx context.Context, info Info) (Info, error) {
	info = info.Clone()
	if r.secrets == nil {
		return info, nil
	}

	conn, err := r.secrets.Reveal(ctx, info.ConnectionString)
	if err != nil {
		return Info{}, errors.Join(ErrSecretReveal, fmt.Errorf("tenant %s: %w", info.ID, err))
	}
	info.ConnectionString = conn

	for name, ref := range info.Stores {
		v, err := r.secrets.Reveal(ctx, ref)
		if err != nil {
			return Info{}, errors.Join(ErrSecretReveal, fmt.Errorf("tenant %s store %q: %w", info.ID, name, err))
		}
		info.Stores[name] = v
	}

	return info, nil
}

// AllActive returns every active tenant, refreshing the cache on the way.
// A tenant whose secret cannot be revealed is logged and left out so one broken
// entry does not stop fan-out over the others.
func (r *Resolver) AllActive(ctx context.Context) ([]Info, error) {
	stamp := r.cache.Stamp(uuid.Nil)
	list, err := r.registry.GetAllActive(ctx)
	if err != nil {
		return nil, errors.Join(ErrRegistryUnavailable, err)
	}

	out := make([]Info, 0, len(list))
	for _, t := range list {
		if !t.IsActive {
			continue
		}
		info, err := r.reveal(ctx, t)
		if err != nil {
			r.logger.ErrorContext(ctx, "skipping tenant with unreadable connection string",
				logger.TenantID(t.ID),
				logger.Error(err))
			continue
		}
		r.cache.PutIf(info, stamp)
		out = append(out, info)
	}

	return out, nil
}

// Invalidate drops the cached snapshot for id. Lookups already in flight
// still answer their callers but no longer populate the cache, and new
// callers start a fresh registry read instead of joining them.
func (r *Resolver) Invalidate(id uuid.UUID) {
	if sub, ok := r.cache.subdomainOf(id); ok {
		r.group.Forget(SubdomainSignal(sub).key())
	}
	r.group.Forget(IDSignal(id).key())
	r.cache.Invalidate(id)
	r.metrics.CacheInvalidated("explicit")
}

func outcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ErrTenantNotFound):
		return "not_found"
	case errors.Is(err, ErrTenantInactive):
		return "inactive"
	case errors.Is(err, ErrInvalidIdentifier), errors.Is(err, ErrEmptySignal):
		return "invalid"
	default:
		return "error"
	}
}
