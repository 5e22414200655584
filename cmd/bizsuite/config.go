package main

import (
	"time"

	"github.com/dmitrymomot/bizsuite/pkg/dbconn"
	"github.com/dmitrymomot/bizsuite/pkg/httpserver"
	"github.com/dmitrymomot/bizsuite/pkg/jobs"
	"github.com/dmitrymomot/bizsuite/pkg/mongo"
	"github.com/dmitrymomot/bizsuite/pkg/redis"
	"github.com/dmitrymomot/bizsuite/pkg/secrets"
	"github.com/dmitrymomot/bizsuite/pkg/tenant"
	"github.com/dmitrymomot/bizsuite/pkg/tenantevents"
)

type appConfig struct {
	Env     string `env:"APP_ENV" envDefault:"development"`
	Service string `env:"APP_NAME" envDefault:"bizsuite"`

	// SeedFile switches the tenant registry to an in-memory one loaded from YAML.
	// PLATFORM_DATABASE_URL is not read when it is set.
	SeedFile string `env:"TENANT_SEED_FILE"`

	// RedisEnabled turns on cross-process invalidation and the shared idempotency store.
	RedisEnabled bool `env:"REDIS_ENABLED" envDefault:"true"`

	LowStockThreshold int           `env:"INVENTORY_LOW_STOCK_THRESHOLD" envDefault:"5"`
	DraftMaxAge       time.Duration `env:"SALES_DRAFT_MAX_AGE" envDefault:"720h"`
}

// settings groups every configuration block the process reads.
type settings struct {
	App     appConfig
	Tenant  tenant.Config
	DB      dbconn.Config
	Mongo   mongo.Config
	Redis   redis.Config
	Events  tenantevents.Config
	Secrets secrets.Config
	Jobs    jobs.Config
	HTTP    httpserver.Config
}
