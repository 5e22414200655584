// Package pg connects to the platform PostgreSQL database, the one that holds
// the tenant registry. Tenant data is never stored here; per-tenant handles are
// opened by package dbconn.
//
//	var cfg pg.Config
//	config.MustLoad(&cfg)
//
//	pool, err := pg.Connect(ctx, cfg)
//	if err != nil {
//	    return err
//	}
//	if err := pg.Migrate(ctx, pool, cfg, log); err != nil {
//	    return err
//	}
//
// Connect retries with exponential backoff (github.com/sethvargo/go-retry).
// Migrate applies the embedded goose migrations. Healthcheck adapts a pool to
// the readiness probe signature.
//
// IsTransient classifies connection-level failures (SQLSTATE class 08, server
// shutdown, too many connections, timeouts) and is shared with the per-tenant
// connection factories so every module retries the same errors.
package pg
