package logger

import (
	"context"
	"io"
	"log/slog"
	"os"
)

// ContextExtractor pulls one attribute out of a record's context.
// It reports false when the context carries nothing for it.
type ContextExtractor func(ctx context.Context) (slog.Attr, bool)

// Option configures New.
type Option func(*config)

type config struct {
	env        Environment
	service    string
	output     io.Writer
	extractors []ContextExtractor
}

// preset is the level and encoding used in an environment.
type preset struct {
	level slog.Level
	text  bool
}

var presets = map[Environment]preset{
	Development: {level: slog.LevelDebug, text: true},
	Staging:     {level: slog.LevelInfo},
	Production:  {level: slog.LevelInfo},
}

// WithEnvironment picks level and encoding for env (see ParseEnvironment):
// text at debug level in development, JSON at info level otherwise.
// Every record is tagged with service and env when service is set.
func WithEnvironment(env, service string) Option {
	return func(c *config) {
		c.env = ParseEnvironment(env)
		c.service = service
	}
}

// WithContextExtractors registers extractors run on every record. Nil entries are skipped.
func WithContextExtractors(extractors ...ContextExtractor) Option {
	return func(c *config) {
		for _, ex := range extractors {
			if ex != nil {
				c.extractors = append(c.extractors, ex)
			}
		}
	}
}

// WithOutput sets the destination; nil is ignored.
func WithOutput(w io.Writer) Option {
	return func(c *config) {
		if w != nil {
			c.output = w
		}
	}
}

func SetAsDefault(l *slog.Logger) {
	slog.SetDefault(l)
}

// New creates a logger. Without options it writes JSON at info level to stdout.
func New(opts ...Option) *slog.Logger {
	cfg := &config{env: Production, output: os.Stdout}
	for _, opt := range opts {
		opt(cfg)
	}

	p := presets[cfg.env]
	handlerOpts := &slog.HandlerOptions{Level: p.level}

	var h slog.Handler
	if p.text {
		h = slog.NewTextHandler(cfg.output, handlerOpts)
	} else {
		h = slog.NewJSONHandler(cfg.output, handlerOpts)
	}

	if cfg.service != "" {
		h = h.WithAttrs([]slog.Attr{
			slog.String("service", cfg.service),
			slog.String("env", string(cfg.env)),
		})
	}

	if len(cfg.extractors) > 0 {
		h = &contextHandler{next: h, extractors: cfg.extractors}
	}
	return slog.New(h)
}

// contextHandler adds extracted attributes per record, so a tenant bound to
// the context after the logger was built still shows up.
type contextHandler struct {
	next       slog.Handler
	extractors []ContextExtractor
}

func (h *contextHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.next.Enabled(ctx, level)
}

func (h *contextHandler) Handle(ctx context.Context, rec slog.Record) error {
	for _, ex := range h.extractors {
		if attr, ok := ex(ctx); ok && !attr.Equal(slog.Attr{}) {
			rec.AddAttrs(attr)
		}
	}
	return h.next.Handle(ctx, rec)
}

func (h *contextHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &contextHandler{next: h.next.WithAttrs(attrs), extractors: h.extractors}
}

func (h *contextHandler) WithGroup(name string) slog.Handler {
	return &contextHandler{next: h.next.WithGroup(name), extractors: h.extractors}
}
