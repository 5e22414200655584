// Package httpserver runs the HTTP entry point with graceful shutdown.
//
// Server binds its listener before running start hooks, so Addr is valid inside
// them, and stops when the context given to Run is cancelled. Request contexts
// derive from that context: a scope created by the tenant middleware is
// disposed when its request ends or when the server gives up waiting for it.
//
//	srv := httpserver.NewFromConfig(cfg.HTTP, httpserver.WithLogger(log))
//	if err := srv.Run(ctx, router); err != nil {
//		log.Error("http server stopped", logger.Error(err))
//	}
//
// LivenessHandler and ReadinessHandler back the /healthz and /readyz probes;
// readiness checks are named so a failing dependency is visible in the body.
package httpserver
