// Package scope binds a tenant to one unit of work.
//
// A Scope is created for every inbound request (NewRequest, usually through
// Middleware) and for every job execution (NewJob). It carries a Holder with
// the resolved tenant, memoizes the connection handles opened for that tenant
// and closes them when the unit of work ends or its context is cancelled.
//
// Lifecycle:
//
//	Unresolved -> Resolving -> Resolved -> Disposed
//	Unresolved -> Resolved            (background orchestration sets the tenant directly)
//	Resolving  -> Unresolved          (resolution failed)
//	any        -> Disposed
//
// Nothing leaves Disposed. Invalid steps return *TransitionError.
//
// Request and job scopes live under different context keys. Consumers never
// pick one themselves; they go through a Chain, which by default asks the
// background scope first and the request scope second:
//
//	info, err := scope.Require(ctx)
//	if errors.Is(err, scope.ErrTenantContextMissing) {
//	    // the route or job bypassed tenant resolution
//	}
//
// Holder.Set is idempotent for the same tenant and fails with
// ErrTenantConflict for a different one.
package scope
