package tenant

import (
	"context"
	"log/slog"
	"maps"

	"github.com/google/uuid"
)

// Info is the resolved snapshot of a tenant used for the lifetime of one unit of work.
// It is never mutated after resolution; picking up a rotated connection string
// requires a new resolution.
type Info struct {
	ID               uuid.UUID         `json:"id" yaml:"id"`
	Name             string            `json:"name" yaml:"name"`
	Subdomain        string            `json:"subdomain" yaml:"subdomain"`
	ConnectionString string            `json:"-" yaml:"connection_string"`
	Stores           map[string]string `json:"-" yaml:"stores,omitempty"`
	IsActive         bool              `json:"is_active" yaml:"active"`
}

// Clone returns a deep copy so holders never share the Stores map with callers.
func (i Info) Clone() Info {
	c := i
	if i.Stores != nil {
		c.Stores = maps.Clone(i.Stores)
	}
	return c
}

// Store returns the connection string for a named store.
// The empty name is the tenant's primary database.
func (i Info) Store(name string) (string, bool) {
	if name == "" {
		return i.ConnectionString, i.ConnectionString != ""
	}
	v, ok := i.Stores[name]
	return v, ok && v != ""
}

// IsZero reports whether the snapshot carries no tenant.
func (i Info) IsZero() bool {
	return i.ID == uuid.Nil
}

// LogValue keeps connection strings out of logs.
func (i Info) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("id", i.ID.String()),
		slog.String("name", i.Name),
		slog.Bool("active", i.IsActive),
	)
}

func (i Info) String() string {
	return i.Name + " (" + i.ID.String() + ")"
}

// Registry is the durable store of tenant metadata. It is read-mostly and owned
// by platform administration; this package only reads from it.
type Registry interface {
	// GetByID returns ErrTenantNotFound when no entry matches.
	GetByID(ctx context.Context, id uuid.UUID) (*Info, error)

	// GetBySubdomain returns ErrTenantNotFound when no entry matches.
	GetBySubdomain(ctx context.Context, subdomain string) (*Info, error)

	// GetAllActive returns every entry with IsActive set.
	GetAllActive(ctx context.Context) ([]Info, error)
}

// SecretRevealer turns a stored connection string reference into the usable value.
// Plain strings are returned unchanged.
type SecretRevealer interface {
	Reveal(ctx context.Context, ref string) (string, error)
}
