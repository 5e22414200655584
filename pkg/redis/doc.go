// Package redis connects to the shared Redis server.
//
// Connect retries the initial ping according to Config, which is loaded from
// REDIS_* environment variables. Healthcheck returns a readiness probe.
// The client is used by tenantevents for change notifications and by
// idempotency for claim keys.
package redis
