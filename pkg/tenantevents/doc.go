// Package tenantevents propagates tenant registry changes between processes.
//
// Registries publish the id of every upserted or deactivated tenant through a
// Publisher; each process runs a Subscriber that drops the tenant from its
// resolver cache, so a rotated connection string or a deactivation is seen on
// the next resolution instead of after the cache TTL.
package tenantevents
