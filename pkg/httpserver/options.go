package httpserver

import (
	"log/slog"
	"time"
)

// Option configures a Server. Empty and non-positive values keep what was set before.
type Option func(*config)

// WithAddr sets the listen address. ":0" picks a free port; see Server.Addr.
func WithAddr(addr string) Option {
	return func(c *config) {
		if addr != "" {
			c.addr = addr
		}
	}
}

// WithTimeouts sets the read, write and idle timeouts of the underlying http.Server.
func WithTimeouts(read, write, idle time.Duration) Option {
	return func(c *config) {
		c.readTimeout = positive(read, c.readTimeout)
		c.writeTimeout = positive(write, c.writeTimeout)
		c.idleTimeout = positive(idle, c.idleTimeout)
	}
}

// WithShutdownTimeout bounds how long in-flight requests, and the tenant
// scopes they hold, get to finish before connections are closed.
func WithShutdownTimeout(d time.Duration) Option {
	return func(c *config) { c.shutdownTimeout = positive(d, c.shutdownTimeout) }
}

// WithLogger sets the server logger. Without it logs are discarded.
func WithLogger(l *slog.Logger) Option {
	return func(c *config) {
		if l != nil {
			c.logger = l
		}
	}
}

func positive(d, fallback time.Duration) time.Duration {
	if d > 0 {
		return d
	}
	return fallback
}
