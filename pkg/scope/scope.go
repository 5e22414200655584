package scope

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"github.com/dmitrymomot/bizsuite/pkg/logger"
	"github.com/dmitrymomot/bizsuite/pkg/tenant"
)

// Scope is one unit of work: an inbound request or a single job execution for
// a single tenant. It owns the tenant holder and every handle opened on the
// tenant's behalf, and releases them when disposed.
//
// A scope is created fresh for every unit of work and is never reused. Once
// disposed it refuses new handles and cannot be resolved again.
type Scope struct {
	id     uuid.UUID
	kind   Kind
	holder *Holder
	logger *slog.Logger

	mu      sync.Mutex
	state   State
	handles map[handleKey]any
	closers []closer

	stopAfter func() bool
	done      chan struct{}
}

type handleKey struct {
	owner any
	conn  string
}

type closer struct {
	name string
	fn   func() error
}

// Option configures a Scope.
type Option func(*Scope)

// WithLogger sets the logger used to report disposal failures.
func WithLogger(l *slog.Logger) Option {
	return func(s *Scope) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithID overrides the generated scope id.
func WithID(id uuid.UUID) Option {
	return func(s *Scope) {
		if id != uuid.Nil {
			s.id = id
		}
	}
}

// New creates a scope of the given kind and returns a context carrying it.
// The scope is disposed when ctx is cancelled; callers should still Close it
// when the unit of work ends.
func New(ctx context.Context, kind Kind, opts ...Option) (context.Context, *Scope) {
	s := &Scope{
		id:      uuid.New(),
		kind:    kind,
		logger:  slog.Default(),
		state:   Unresolved,
		handles: make(map[handleKey]any),
		done:    make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}

	if kind == KindBackground {
		s.holder = NewBackgroundHolder()
	} else {
		s.holder = NewRequestHolder()
	}
	s.holder.onSet = s.markResolved

	s.stopAfter = context.AfterFunc(ctx, func() {
		_ = s.Close()
	})

	return withScope(ctx, s), s
}

// NewRequest creates a request scope.
func NewRequest(ctx context.Context, opts ...Option) (context.Context, *Scope) {
	return New(ctx, KindRequest, opts...)
}

// NewJob creates a background scope. A job started from inside a request gets
// its own scope; the request's holder stays visible but the background one wins.
func NewJob(ctx context.Context, opts ...Option) (context.Context, *Scope) {
	return New(ctx, KindBackground, opts...)
}

func (s *Scope) ID() uuid.UUID {
	return s.id
}

func (s *Scope) Kind() Kind {
	return s.kind
}

// Holder returns the scope's tenant holder.
func (s *Scope) Holder() *Holder {
	return s.holder
}

// Tenant is a shortcut for Holder().Current().
func (s *Scope) Tenant() (tenant.Info, bool) {
	return s.holder.Current()
}

func (s *Scope) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Done is closed once the scope has been disposed and its handles released.
func (s *Scope) Done() <-chan struct{} {
	return s.done
}

// BeginResolve marks the start of tenant resolution.
func (s *Scope) BeginResolve() error {
	return s.transition(Resolving)
}

// FailResolve returns a scope whose resolution failed to Unresolved.
func (s *Scope) FailResolve() error {
	return s.transition(Unresolved)
}

func (s *Scope) markResolved(tenant.Info) error {
	return s.transition(Resolved)
}

func (s *Scope) transition(to State) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !CanTransition(s.state, to) {
		return &TransitionError{From: s.state, To: to}
	}
	s.state = to
	return nil
}

// Handle returns the value stored under (owner, conn), calling open on first use.
// The close func returned by open runs when the scope is disposed. Handles live
// only as long as the scope; nothing here is shared with other scopes.
func (s *Scope) Handle(owner any, conn string, open func() (any, func() error, error)) (any, error) {
	key := handleKey{owner: owner, conn: conn}

	s.mu.Lock()
	if s.state == Disposed {
		s.mu.Unlock()
		return nil, ErrScopeDisposed
	}
	if h, ok := s.handles[key]; ok {
		s.mu.Unlock()
		return h, nil
	}
	s.mu.Unlock()

	// Open without holding the lock so disposal is never stuck behind a slow dial.
	h, closeFn, err := open()
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	if s.state == Disposed {
		s.mu.Unlock()
		if closeFn != nil {
			_ = closeFn()
		}
		return nil, ErrScopeDisposed
	}
	if existing, ok := s.handles[key]; ok {
		s.mu.Unlock()
		if closeFn != nil {
			_ = closeFn()
		}
		return existing, nil
	}
	s.handles[key] = h
	if closeFn != nil {
		s.closers = append(s.closers, closer{name: fmt.Sprintf("%v", owner), fn: closeFn})
	}
	s.mu.Unlock()

	return h, nil
}

// Close disposes the scope and closes its handles in reverse open order.
// It is safe to call more than once and from the cancellation callback.
func (s *Scope) Close() error {
	s.mu.Lock()
	if s.state == Disposed {
		s.mu.Unlock()
		<-s.done
		return nil
	}
	s.state = Disposed
	closers := s.closers
	s.closers = nil
	s.handles = nil
	s.mu.Unlock()

	if s.stopAfter != nil {
		s.stopAfter()
	}

	var errs []error
	for i := len(closers) - 1; i >= 0; i-- {
		if err := closers[i].fn(); err != nil {
			errs = append(errs, fmt.Errorf("close %s: %w", closers[i].name, err))
		}
	}
	close(s.done)

	err := errors.Join(errs...)
	if err != nil {
		s.logger.Error("failed to release scope handles",
			logger.ScopeID(s.id),
			slog.String("kind", string(s.kind)),
			logger.Error(err))
	}
	return err
}
