package idempotency

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dmitrymomot/bizsuite/pkg/metrics"
	"github.com/dmitrymomot/bizsuite/pkg/scope"
)

// DefaultTTL is how long a claimed key blocks repeats.
const DefaultTTL = 24 * time.Hour

var (
	ErrDuplicate  = errors.New("command already processed")
	ErrEmptyKey   = errors.New("idempotency key cannot be empty")
	ErrNilStore   = errors.New("idempotency store cannot be nil")
	ErrStoreError = errors.New("idempotency store unavailable")
)

// Store records claimed keys.
type Store interface {
	// SetNX stores key if absent and reports whether it was stored.
	SetNX(ctx context.Context, key string, ttl time.Duration) (bool, error)
	Delete(ctx context.Context, key string) error
}

// Guard deduplicates commands within the active tenant. The same key used by
// two tenants never collides because keys are namespaced by tenant id.
type Guard struct {
	store   Store
	prefix  string
	ttl     time.Duration
	chain   scope.Chain
	metrics *metrics.Metrics
}

// Option configures a Guard.
type Option func(*Guard)

func WithTTL(ttl time.Duration) Option {
	return func(g *Guard) {
		if ttl > 0 {
			g.ttl = ttl
		}
	}
}

func WithPrefix(p string) Option {
	return func(g *Guard) {
		if p != "" {
			g.prefix = p
		}
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(g *Guard) {
		g.metrics = m
	}
}

func NewGuard(store Store, opts ...Option) (*Guard, error) {
	if store == nil {
		return nil, ErrNilStore
	}

	g := &Guard{
		store:  store,
		prefix: "idem",
		ttl:    DefaultTTL,
		chain:  scope.DefaultChain,
	}
	for _, opt := range opts {
		opt(g)
	}

	return g, nil
}

// Claim marks key as processed for the active tenant. It returns ErrDuplicate
// when the key was already claimed and the tenant context error when the unit
// of work has no tenant.
func (g *Guard) Claim(ctx context.Context, key string) error {
	k, err := g.key(ctx, key)
	if err != nil {
		return err
	}

	ok, err := g.store.SetNX(ctx, k, g.ttl)
	if err != nil {
		g.metrics.IdempotencyClaim("error")
		return errors.Join(ErrStoreError, err)
	}
	if !ok {
		g.metrics.IdempotencyClaim("duplicate")
		return fmt.Errorf("%w: %s", ErrDuplicate, key)
	}

	g.metrics.IdempotencyClaim("claimed")
	return nil
}

// Release forgets a claim so the command can be retried, for use when
// processing failed after Claim.
func (g *Guard) Release(ctx context.Context, key string) error {
	k, err := g.key(ctx, key)
	if err != nil {
		return err
	}
	if err := g.store.Delete(ctx, k); err != nil {
		return errors.Join(ErrStoreError, err)
	}
	return nil
}

func (g *Guard) key(ctx context.Context, key string) (string, error) {
	key = strings.TrimSpace(key)
	if key == "" {
		return "", ErrEmptyKey
	}

	_, info, err := g.chain.Active(ctx)
	if err != nil {
		return "", err
	}

	return g.prefix + ":" + info.ID.String() + ":" + key, nil
}
