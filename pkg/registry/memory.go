package registry

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"sync"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"github.com/dmitrymomot/bizsuite/pkg/tenant"
)

// Memory is an in-process registry for development, tests and single-node setups.
type Memory struct {
	mu       sync.RWMutex
	tenants  map[uuid.UUID]tenant.Info
	notifier Notifier
}

// Option configures a registry.
type Option func(*options)

type options struct {
	notifier Notifier
}

// WithNotifier publishes a change event after every Upsert and Deactivate.
func WithNotifier(n Notifier) Option {
	return func(o *options) {
		o.notifier = n
	}
}

func NewMemory(opts ...Option) *Memory {
	o := &options{}
	for _, opt := range opts {
		opt(o)
	}
	return &Memory{
		tenants:  make(map[uuid.UUID]tenant.Info),
		notifier: o.notifier,
	}
}

func (m *Memory) GetByID(_ context.Context, id uuid.UUID) (*tenant.Info, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	t, ok := m.tenants[id]
	if !ok {
		return nil, tenant.ErrTenantNotFound
	}
	c := t.Clone()
	return &c, nil
}

func (m *Memory) GetBySubdomain(_ context.Context, subdomain string) (*tenant.Info, error) {
	sub, err := tenant.NormalizeSubdomain(subdomain)
	if err != nil {
		return nil, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, t := range m.tenants {
		if t.Subdomain == sub {
			c := t.Clone()
			return &c, nil
		}
	}
	return nil, tenant.ErrTenantNotFound
}

// GetAllActive returns active tenants ordered by name.
func (m *Memory) GetAllActive(context.Context) ([]tenant.Info, error) {
	m.mu.RLock()
	out := make([]tenant.Info, 0, len(m.tenants))
	for _, t := range m.tenants {
		if t.IsActive {
			out = append(out, t.Clone())
		}
	}
	m.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// Upsert creates or replaces an entry.
func (m *Memory) Upsert(ctx context.Context, info tenant.Info) error {
	info, err := validate(info)
	if err != nil {
		return err
	}

	m.mu.Lock()
	for id, t := range m.tenants {
		if id != info.ID && t.Subdomain == info.Subdomain {
			m.mu.Unlock()
			return fmt.Errorf("%w: %q", ErrDuplicateSubdomain, info.Subdomain)
		}
	}
	m.tenants[info.ID] = info
	m.mu.Unlock()

	return notify(ctx, m.notifier, info.ID)
}

// Deactivate marks an entry inactive. Entries are never removed.
func (m *Memory) Deactivate(ctx context.Context, id uuid.UUID) error {
	m.mu.Lock()
	t, ok := m.tenants[id]
	if !ok {
		m.mu.Unlock()
		return tenant.ErrTenantNotFound
	}
	t.IsActive = false
	m.tenants[id] = t
	m.mu.Unlock()

	return notify(ctx, m.notifier, id)
}

type seedFile struct {
	Tenants []seedTenant `yaml:"tenants"`
}

type seedTenant struct {
	ID               uuid.UUID         `yaml:"id"`
	Name             string            `yaml:"name"`
	Subdomain        string            `yaml:"subdomain"`
	ConnectionString string            `yaml:"connection_string"`
	Stores           map[string]string `yaml:"stores"`
	Active           *bool             `yaml:"active"`
}

// LoadYAML adds the tenants listed in a seed document. Tenants are active
// unless the entry says otherwise. Seeding does not publish change events.
//
//	tenants:
//	  - id: 7c8e...
//	    name: Acme
//	    subdomain: acme
//	    connection_string: postgres://acme@db1/acme
//	    stores:
//	      documents: mongodb://docs/acme
func (m *Memory) LoadYAML(r io.Reader) error {
	var seed seedFile
	if err := yaml.NewDecoder(r).Decode(&seed); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("decode tenant seed: %w", err)
	}

	for _, s := range seed.Tenants {
		info, err := validate(tenant.Info{
			ID:               s.ID,
			Name:             s.Name,
			Subdomain:        s.Subdomain,
			ConnectionString: s.ConnectionString,
			Stores:           s.Stores,
			IsActive:         s.Active == nil || *s.Active,
		})
		if err != nil {
			return err
		}

		m.mu.Lock()
		m.tenants[info.ID] = info
		m.mu.Unlock()
	}

	return nil
}

// LoadFile reads a YAML seed file from disk.
func (m *Memory) LoadFile(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open tenant seed: %w", err)
	}
	defer f.Close()

	return m.LoadYAML(f)
}
