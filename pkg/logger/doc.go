// Package logger builds slog loggers for bizsuite services.
//
// New returns a *slog.Logger configured with functional options: an
// environment preset for level and encoding, the output, and ContextExtractor
// callbacks. Extractors run on every record, which is how the tenant id,
// scope id and request id bound to a unit of work end up on each line without
// being passed down explicitly:
//
//	log := logger.New(
//	    logger.WithEnvironment(cfg.Env, "bizsuite"),
//	    logger.WithContextExtractors(scope.LogExtractors()...),
//	)
//	logger.SetAsDefault(log)
//
// The attribute helpers (TenantID, Module, Store, Job, Error ...) keep key names
// consistent across packages. Error and TenantID return an empty Attr for nil or
// zero input, so they can be passed unconditionally.
//
// Connection strings never go through these helpers; tenant.Info implements
// slog.LogValuer and omits them.
package logger
