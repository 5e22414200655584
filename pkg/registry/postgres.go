package registry

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/dmitrymomot/bizsuite/pkg/pg"
	"github.com/dmitrymomot/bizsuite/pkg/tenant"
)

// DB is the subset of *pgxpool.Pool the registry needs.
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Postgres reads tenants from the platform database's tenants table.
type Postgres struct {
	db       DB
	notifier Notifier
}

func NewPostgres(db DB, opts ...Option) (*Postgres, error) {
	if db == nil {
		return nil, ErrNilDB
	}

	o := &options{}
	for _, opt := range opts {
		opt(o)
	}

	return &Postgres{db: db, notifier: o.notifier}, nil
}

const selectTenant = `SELECT id, name, subdomain, connection_string, stores, is_active FROM tenants`

func scanTenant(row pgx.Row) (*tenant.Info, error) {
	var (
		info   tenant.Info
		stores map[string]string
	)
	if err := row.Scan(&info.ID, &info.Name, &info.Subdomain, &info.ConnectionString, &stores, &info.IsActive); err != nil {
		return nil, err
	}
	if len(stores) > 0 {
		info.Stores = stores
	}
	return &info, nil
}

func (p *Postgres) GetByID(ctx context.Context, id uuid.UUID) (*tenant.Info, error) {
	info, err := scanTenant(p.db.QueryRow(ctx, selectTenant+` WHERE id = $1`, id))
	if pg.IsNotFoundError(err) {
		return nil, tenant.ErrTenantNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get tenant %s: %w", id, err)
	}
	return info, nil
}

func (p *Postgres) GetBySubdomain(ctx context.Context, subdomain string) (*tenant.Info, error) {
	sub, err := tenant.NormalizeSubdomain(subdomain)
	if err != nil {
		return nil, err
	}

	info, err := scanTenant(p.db.QueryRow(ctx, selectTenant+` WHERE lower(subdomain) = $1`, sub))
	if pg.IsNotFoundError(err) {
		return nil, tenant.ErrTenantNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get tenant by subdomain %q: %w", sub, err)
	}
	return info, nil
}

func (p *Postgres) GetAllActive(ctx context.Context) ([]tenant.Info, error) {
	rows, err := p.db.Query(ctx, selectTenant+` WHERE is_active ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("list active tenants: %w", err)
	}
	defer rows.Close()

	var out []tenant.Info
	for rows.Next() {
		info, err := scanTenant(rows)
		if err != nil {
			return nil, fmt.Errorf("scan tenant: %w", err)
		}
		out = append(out, *info)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list active tenants: %w", err)
	}

	return out, nil
}

// Upsert creates or replaces an entry and publishes a change event.
func (p *Postgres) Upsert(ctx context.Context, info tenant.Info) error {
	info, err := validate(info)
	if err != nil {
		return err
	}

	stores := info.Stores
	if stores == nil {
		stores = map[string]string{}
	}

	_, err = p.db.Exec(ctx, `
		INSERT INTO tenants (id, name, subdomain, connection_string, stores, is_active)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			subdomain = EXCLUDED.subdomain,
			connection_string = EXCLUDED.connection_string,
			stores = EXCLUDED.stores,
			is_active = EXCLUDED.is_active,
			updated_at = now()`,
		info.ID, info.Name, info.Subdomain, info.ConnectionString, stores, info.IsActive)
	if pg.IsDuplicateKeyError(err) {
		return fmt.Errorf("%w: %q", ErrDuplicateSubdomain, info.Subdomain)
	}
	if err != nil {
		return fmt.Errorf("upsert tenant %s: %w", info.ID, err)
	}

	return notify(ctx, p.notifier, info.ID)
}

// Deactivate marks an entry inactive. Rows are never deleted.
func (p *Postgres) Deactivate(ctx context.Context, id uuid.UUID) error {
	tag, err := p.db.Exec(ctx, `UPDATE tenants SET is_active = FALSE, updated_at = now() WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("deactivate tenant %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return errors.Join(tenant.ErrTenantNotFound, fmt.Errorf("tenant %s", id))
	}

	return notify(ctx, p.notifier, id)
}
