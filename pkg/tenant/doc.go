// Package tenant resolves which tenant a unit of work belongs to and where that
// tenant's data lives.
//
// A Signal is whatever identifies the tenant: a subdomain label, an explicit
// X-Tenant-ID header or, for background work, the id itself. Extractor functions
// pull signals out of HTTP requests; NewCompositeExtractor tries several in order.
//
// The Resolver turns a signal into an Info snapshot. It consults the Cache first
// and falls back to the Registry on a miss. Concurrent misses for the same tenant
// share one registry round trip. Unknown and inactive tenants are never cached,
// so resolution of a bad signal always fails fast and a deactivated tenant is
// refused on its next resolution.
//
//	cache := tenant.NewCache(cfg.CacheOptions()...)
//	defer cache.Close()
//
//	resolver, err := tenant.NewResolver(registry, cache,
//	    tenant.WithSecrets(revealer),
//	    tenant.WithResolverLogger(log),
//	)
//	info, err := resolver.Resolve(ctx, tenant.SubdomainSignal("acme"))
//
// Cache entries expire after the configured TTL, which bounds how long a
// connection string rotated out of band can keep being served. Explicit
// invalidation (Resolver.Invalidate) takes effect immediately and is wired to
// registry change events in package tenantevents.
//
// Binding the resolved snapshot to a request or job is the job of package scope.
//
// # Errors
//
// ErrTenantNotFound, ErrTenantInactive, ErrInvalidIdentifier and ErrEmptySignal
// describe a bad signal (see IsClientError). ErrRegistryUnavailable and
// ErrSecretReveal wrap platform failures.
package tenant
