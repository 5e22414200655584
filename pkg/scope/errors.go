package scope

import (
	"errors"
	"fmt"
)

var (
	// ErrTenantContextMissing is returned when a tenant is required but none was set.
	// It means a route or job bypassed tenant resolution.
	ErrTenantContextMissing = errors.New("tenant context missing")

	// ErrTenantConflict is returned when a holder already carries a different tenant.
	ErrTenantConflict = errors.New("tenant context already set to a different tenant")

	// ErrEmptyTenant is returned when Set is called with a zero tenant.
	ErrEmptyTenant = errors.New("cannot set empty tenant")

	// ErrScopeDisposed is returned by any operation on a disposed scope.
	ErrScopeDisposed = errors.New("scope disposed")

	// ErrNoScope is returned when the context carries no scope at all.
	ErrNoScope = errors.New("no scope in context")

	// ErrInvalidTransition is matched by every *TransitionError.
	ErrInvalidTransition = errors.New("invalid scope state transition")
)

// TransitionError reports a lifecycle transition the scope refused.
type TransitionError struct {
	From State
	To   State
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("scope: invalid transition from %s to %s", e.From, e.To)
}

func (e *TransitionError) Is(target error) bool {
	if target == ErrInvalidTransition {
		return true
	}
	return target == ErrScopeDisposed && e.From == Disposed
}
