// Package metrics exposes Prometheus collectors for tenant resolution, the
// connection string cache, per-module handle opens and background fan-out.
//
// Every recording method is nil-safe:
//
//	var m *metrics.Metrics // disabled
//	m.CacheHit()           // no-op
//
// Production wiring registers the collectors once at startup:
//
//	reg := prometheus.NewRegistry()
//	m := metrics.New(reg)
//	router.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
package metrics
