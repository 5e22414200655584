package registry

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/dmitrymomot/bizsuite/pkg/tenant"
)

var (
	ErrInvalidTenant      = errors.New("invalid tenant entry")
	ErrDuplicateSubdomain = errors.New("subdomain already taken")
	ErrNilDB              = errors.New("registry database cannot be nil")
)

// Notifier is told about every administrative change so other processes can
// drop their cached copy of the tenant.
type Notifier interface {
	Publish(ctx context.Context, id uuid.UUID) error
}

// NotifierFunc adapts a function to Notifier. Single-process deployments use
// it to invalidate the local resolver cache directly.
type NotifierFunc func(ctx context.Context, id uuid.UUID) error

func (f NotifierFunc) Publish(ctx context.Context, id uuid.UUID) error {
	return f(ctx, id)
}

// Admin is the write side of a registry, used by platform administration.
type Admin interface {
	tenant.Registry
	Upsert(ctx context.Context, info tenant.Info) error
	Deactivate(ctx context.Context, id uuid.UUID) error
}

// validate checks an entry before it is written and returns it normalized.
func validate(info tenant.Info) (tenant.Info, error) {
	if info.ID == uuid.Nil {
		return tenant.Info{}, fmt.Errorf("%w: missing id", ErrInvalidTenant)
	}
	if info.Name == "" {
		return tenant.Info{}, fmt.Errorf("%w: tenant %s has no name", ErrInvalidTenant, info.ID)
	}
	if info.ConnectionString == "" {
		return tenant.Info{}, fmt.Errorf("%w: tenant %s has no connection string", ErrInvalidTenant, info.ID)
	}

	sub, err := tenant.NormalizeSubdomain(info.Subdomain)
	if err != nil {
		return tenant.Info{}, errors.Join(ErrInvalidTenant, err)
	}

	info = info.Clone()
	info.Subdomain = sub
	return info, nil
}

func notify(ctx context.Context, n Notifier, id uuid.UUID) error {
	if n == nil {
		return nil
	}
	return n.Publish(ctx, id)
}
