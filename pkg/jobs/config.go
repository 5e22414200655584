package jobs

import "time"

// Config holds orchestration settings loaded from the environment.
type Config struct {
	CheckInterval time.Duration `env:"JOBS_CHECK_INTERVAL" envDefault:"30s"`
	Concurrency   int           `env:"JOBS_CONCURRENCY" envDefault:"4"`
}
