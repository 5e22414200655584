package pg

import "time"

// Config describes the platform database that holds the tenant registry.
// Tenant data never lives here.
type Config struct {
	ConnectionString  string        `env:"PLATFORM_DATABASE_URL,required"`
	MaxOpenConns      int32         `env:"PLATFORM_DB_MAX_OPEN_CONNS" envDefault:"10"`
	MaxIdleConns      int32         `env:"PLATFORM_DB_MAX_IDLE_CONNS" envDefault:"2"`
	HealthCheckPeriod time.Duration `env:"PLATFORM_DB_HEALTHCHECK_PERIOD" envDefault:"1m"`
	MaxConnIdleTime   time.Duration `env:"PLATFORM_DB_MAX_CONN_IDLE_TIME" envDefault:"10m"`
	MaxConnLifetime   time.Duration `env:"PLATFORM_DB_MAX_CONN_LIFETIME" envDefault:"30m"`

	RetryAttempts uint64        `env:"PLATFORM_DB_RETRY_ATTEMPTS" envDefault:"5"`
	RetryInterval time.Duration `env:"PLATFORM_DB_RETRY_INTERVAL" envDefault:"1s"`

	MigrationsTable string `env:"PLATFORM_DB_MIGRATIONS_TABLE" envDefault:"schema_migrations"`
}
