package mongo

import "time"

// Config holds client settings applied to every tenant document store.
// The URI itself comes from the tenant's registry entry.
type Config struct {
	ConnectTimeout  time.Duration `env:"MONGODB_CONNECT_TIMEOUT" envDefault:"10s"`
	MaxPoolSize     uint64        `env:"MONGODB_MAX_POOL_SIZE" envDefault:"20"`
	MinPoolSize     uint64        `env:"MONGODB_MIN_POOL_SIZE" envDefault:"0"`
	MaxConnIdleTime time.Duration `env:"MONGODB_MAX_CONN_IDLE_TIME" envDefault:"60s"`
	RetryWrites     bool          `env:"MONGODB_RETRY_WRITES" envDefault:"true"`
	RetryReads      bool          `env:"MONGODB_RETRY_READS" envDefault:"true"`
}

// DefaultConfig matches the env defaults, for callers that skip config loading.
func DefaultConfig() Config {
	return Config{
		ConnectTimeout:  10 * time.Second,
		MaxPoolSize:     20,
		MaxConnIdleTime: time.Minute,
		RetryWrites:     true,
		RetryReads:      true,
	}
}
