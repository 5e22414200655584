package secrets

import (
	"context"
	"fmt"
	"strings"
)

// Config holds secret backend settings loaded from the environment.
type Config struct {
	SealKey   string `env:"SECRETS_SEAL_KEY"`
	AWSRegion string `env:"AWS_REGION"`
	EnableAWS bool   `env:"SECRETS_AWS_ENABLED" envDefault:"false"`
}

// Backend resolves one kind of secret reference.
type Backend interface {
	Reveal(ctx context.Context, ref string) (string, error)
}

// Revealer dispatches connection string references by prefix. Values without
// a known prefix are plain connection strings and are returned unchanged.
// It satisfies tenant.SecretRevealer.
type Revealer struct {
	backends map[string]Backend
}

// Option configures a Revealer.
type Option func(*Revealer)

// WithSealer enables "sealed:" references.
func WithSealer(s *Sealer) Option {
	return WithBackend(SealedPrefix, s)
}

// WithAWS enables "aws-sm:" references.
func WithAWS(a *AWS) Option {
	return WithBackend(AWSPrefix, a)
}

// WithBackend registers a backend for a custom prefix.
func WithBackend(prefix string, b Backend) Option {
	return func(r *Revealer) {
		if prefix != "" && b != nil {
			r.backends[prefix] = b
		}
	}
}

func NewRevealer(opts ...Option) *Revealer {
	r := &Revealer{backends: make(map[string]Backend)}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *Revealer) Reveal(ctx context.Context, ref string) (string, error) {
	for _, prefix := range []string{SealedPrefix, AWSPrefix} {
		if strings.HasPrefix(ref, prefix) {
			return r.reveal(ctx, prefix, ref)
		}
	}
	for prefix := range r.backends {
		if strings.HasPrefix(ref, prefix) {
			return r.reveal(ctx, prefix, ref)
		}
	}
	return ref, nil
}

func (r *Revealer) reveal(ctx context.Context, prefix, ref string) (string, error) {
	b, ok := r.backends[prefix]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrBackendNotConfigured, strings.TrimSuffix(prefix, ":"))
	}
	return b.Reveal(ctx, ref)
}

// FromConfig builds a revealer with the backends cfg enables.
func FromConfig(ctx context.Context, cfg Config) (*Revealer, error) {
	var opts []Option

	if cfg.SealKey != "" {
		key, err := ParseKey(cfg.SealKey)
		if err != nil {
			return nil, err
		}
		sealer, err := NewSealer(key)
		clearBytes(key)
		if err != nil {
			return nil, err
		}
		opts = append(opts, WithSealer(sealer))
	}

	if cfg.EnableAWS {
		a, err := NewAWSFromEnv(ctx, cfg.AWSRegion)
		if err != nil {
			return nil, err
		}
		opts = append(opts, WithAWS(a))
	}

	return NewRevealer(opts...), nil
}
