package dbconn

import "time"

// Config controls how tenant handles are opened.
type Config struct {
	Attempts    uint64        `env:"DB_RETRY_ATTEMPTS" envDefault:"3"`
	BaseDelay   time.Duration `env:"DB_RETRY_BASE_DELAY" envDefault:"100ms"`
	MaxDelay    time.Duration `env:"DB_RETRY_MAX_DELAY" envDefault:"2s"`
	Jitter      uint64        `env:"DB_RETRY_JITTER_PERCENT" envDefault:"20"`
	OpenTimeout time.Duration `env:"DB_OPEN_TIMEOUT" envDefault:"5s"`
}

// DefaultConfig matches the env defaults.
func DefaultConfig() Config {
	return Config{
		Attempts:    3,
		BaseDelay:   100 * time.Millisecond,
		MaxDelay:    2 * time.Second,
		Jitter:      20,
		OpenTimeout: 5 * time.Second,
	}
}
