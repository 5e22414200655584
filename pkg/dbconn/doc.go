// Package dbconn gives every business module a tenant-bound data access handle.
//
// Each module owns one Factory, parameterized only by the handle type and the
// Opener that produces it:
//
//	products, _ := dbconn.NewPgx("inventory", dbconn.WithConfig(cfg))
//	staff, _    := dbconn.NewSQL("hr", dbconn.WithConfig(cfg))
//	boms, _     := dbconn.NewMongo("manufacturing", mongoCfg)
//
// Factory.Resolve looks up the tenant of the current unit of work through
// scope.DefaultChain (background job first, request second) and fails with
// ErrConnectionUnavailable when there is none. Modules never see connection
// strings.
//
// Opening is wrapped by Retrying: bounded exponential backoff with jitter,
// retrying only errors accepted by IsTransient and attempts that hit
// OpenTimeout. The handle is stored in the scope and closed when the scope is
// disposed, so it cannot outlive its unit of work or reach another tenant.
package dbconn
