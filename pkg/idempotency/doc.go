// Package idempotency deduplicates commands per tenant.
//
// Guard.Claim namespaces the caller's key with the id of the tenant bound to
// the current unit of work, so it must run after tenant resolution. Without a
// tenant it fails with the scope package's context error instead of checking
// a shared namespace.
package idempotency
