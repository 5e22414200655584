// Package jobs runs background work per tenant.
//
// FanOut lists the active tenants and runs a job once for each of them, every
// iteration inside a fresh background scope bound to that tenant, so data
// access in the job routes to the tenant's own database. A failing or
// panicking tenant is recorded in the Report and never stops the others.
// Deactivated tenants are not listed and therefore never processed.
//
//	fan, _ := jobs.NewFanOut(resolver, jobs.WithConcurrency(4))
//	report, err := fan.Run(ctx, "reorder-stock", func(ctx context.Context) error {
//		conn, err := inventoryDB.Resolve(ctx)
//		...
//	})
//
// Scheduler triggers registered jobs on a Schedule (Every, Hourly, Daily and
// friends) and runs each trigger through a FanOut.
package jobs
