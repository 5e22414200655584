package tenant

import "time"

// Config holds resolution settings loaded from the environment.
type Config struct {
	CacheTTL      time.Duration `env:"TENANT_CACHE_TTL" envDefault:"10m"`
	SweepInterval time.Duration `env:"TENANT_CACHE_SWEEP" envDefault:"1m"`
	LookupTimeout time.Duration `env:"TENANT_LOOKUP_TIMEOUT" envDefault:"5s"`
	BaseDomain    string        `env:"TENANT_BASE_DOMAIN"`
	Header        string        `env:"TENANT_HEADER" envDefault:"X-Tenant-ID"`
}

// Extractor builds the request extractor for this configuration:
// an explicit header wins over the subdomain.
func (c Config) Extractor() Extractor {
	return NewCompositeExtractor(
		NewHeaderExtractor(c.Header),
		NewSubdomainExtractor(c.BaseDomain),
	)
}

// CacheOptions returns the cache options for this configuration.
func (c Config) CacheOptions() []CacheOption {
	return []CacheOption{
		WithTTL(c.CacheTTL),
		WithSweepInterval(c.SweepInterval),
	}
}
