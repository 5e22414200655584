// Package config loads typed configuration from environment variables.
//
// It wraps github.com/joho/godotenv and github.com/caarlos0/env/v11. Each
// package in bizsuite declares its own Config struct with env tags
// (TENANT_CACHE_TTL, DB_RETRY_ATTEMPTS, JOBS_CONCURRENCY ...) and the binary
// loads them through Load:
//
//	var cfg tenant.Config
//	if err := config.Load(&cfg); err != nil {
//	    return err
//	}
//
// Parsed values are cached per type, so repeated calls are cheap and return the
// same copy. LoadEnv reads explicit .env files before the first Load; otherwise
// a .env file in the working directory is picked up when present.
//
// Errors can be matched with errors.Is against ErrParsingConfig,
// ErrLoadingEnvFile and ErrNilPointer. Tests call ResetCache between cases
// that change the environment.
package config
