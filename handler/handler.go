package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/dmitrymomot/bizsuite/pkg/logger"
)

// Func handles a request whose body has been bound into req.
type Func[R any] func(r *http.Request, req R) Response

// Response renders itself to an http.ResponseWriter.
type Response interface {
	Render(w http.ResponseWriter, r *http.Request) error
}

// Bind parses a request into v.
type Bind func(r *http.Request, v any) error

// Option configures Handle.
type Option func(*config)

type config struct {
	bind   Bind
	logger *slog.Logger
	module string
}

// WithBinder sets the request binder. Without one the request is not bound.
func WithBinder(b Bind) Option {
	return func(c *config) {
		c.bind = b
	}
}

// WithLogger sets the logger used for failed requests.
func WithLogger(l *slog.Logger) Option {
	return func(c *config) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithModule tags error logs with the business module name.
func WithModule(name string) Option {
	return func(c *config) {
		c.module = name
	}
}

// Handle adapts fn to http.HandlerFunc: binds the request, runs fn and
// renders its response. Binding and render failures become JSON errors.
func Handle[R any](fn Func[R], opts ...Option) http.HandlerFunc {
	cfg := &config{logger: slog.Default()}
	for _, opt := range opts {
		opt(cfg)
	}

	log := cfg.logger
	if cfg.module != "" {
		log = log.With(logger.Module(cfg.module))
	}

	return func(w http.ResponseWriter, r *http.Request) {
		var req R

		var resp Response
		if cfg.bind != nil {
			if err := cfg.bind(r, &req); err != nil {
				resp = JSONError(err)
			}
		}
		if resp == nil {
			resp = fn(r, req)
		}
		if resp == nil {
			resp = JSONError(ErrNilResponse)
		}

		if er, ok := resp.(errorResponse); ok {
			logFailure(log, r, er.status(), er.cause())
		}

		if err := resp.Render(w, r); err != nil {
			log.ErrorContext(r.Context(), "failed to render response", logger.Error(err))
		}
	}
}

// errorResponse is implemented by responses built from an error.
type errorResponse interface {
	status() int
	cause() error
}

func logFailure(log *slog.Logger, r *http.Request, status int, err error) {
	if err == nil {
		return
	}

	level := slog.LevelWarn
	if status >= http.StatusInternalServerError {
		level = slog.LevelError
	}
	if errors.Is(err, ErrNilResponse) {
		level = slog.LevelError
	}

	log.Log(r.Context(), level, "request failed",
		slog.String("method", r.Method),
		slog.String("path", r.URL.Path),
		slog.Int("status", status),
		logger.Error(err))
}
