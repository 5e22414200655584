package inventory

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/dmitrymomot/bizsuite/pkg/dbconn"
	"github.com/dmitrymomot/bizsuite/pkg/pg"
)

// ModuleName labels logs and metrics.
const ModuleName = "inventory"

var (
	ErrProductNotFound = errors.New("product not found")
	ErrDuplicateSKU    = errors.New("product sku already exists")
	ErrInvalidProduct  = errors.New("invalid product")
)

type Product struct {
	ID        uuid.UUID `json:"id"`
	SKU       string    `json:"sku"`
	Name      string    `json:"name"`
	Quantity  int       `json:"quantity"`
	CreatedAt time.Time `json:"created_at"`
}

// DBTX is what the store needs from a tenant connection. *pgx.Conn satisfies it.
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Store persists products in the active tenant's database.
type Store struct {
	db func(ctx context.Context) (DBTX, error)
}

// NewStore creates a store over a tenant connection source.
func NewStore[H DBTX](src dbconn.Source[H]) *Store {
	return &Store{db: func(ctx context.Context) (DBTX, error) {
		return src.Resolve(ctx)
	}}
}

func (s *Store) Create(ctx context.Context, sku, name string, qty int) (Product, error) {
	sku, name = strings.TrimSpace(sku), strings.TrimSpace(name)
	if sku == "" || name == "" {
		return Product{}, fmt.Errorf("%w: sku and name are required", ErrInvalidProduct)
	}
	if qty < 0 {
		return Product{}, fmt.Errorf("%w: quantity cannot be negative", ErrInvalidProduct)
	}

	db, err := s.db(ctx)
	if err != nil {
		return Product{}, err
	}

	p := Product{
		ID:        uuid.New(),
		SKU:       sku,
		Name:      name,
		Quantity:  qty,
		CreatedAt: time.Now().UTC(),
	}
	_, err = db.Exec(ctx,
		`INSERT INTO products (id, sku, name, quantity, created_at) VALUES ($1, $2, $3, $4, $5)`,
		p.ID, p.SKU, p.Name, p.Quantity, p.CreatedAt)
	if pg.IsDuplicateKeyError(err) {
		return Product{}, fmt.Errorf("%w: %s", ErrDuplicateSKU, sku)
	}
	if err != nil {
		return Product{}, fmt.Errorf("insert product: %w", err)
	}

	return p, nil
}

func (s *Store) Get(ctx context.Context, id uuid.UUID) (Product, error) {
	db, err := s.db(ctx)
	if err != nil {
		return Product{}, err
	}

	var p Product
	err = db.QueryRow(ctx,
		`SELECT id, sku, name, quantity, created_at FROM products WHERE id = $1`, id,
	).Scan(&p.ID, &p.SKU, &p.Name, &p.Quantity, &p.CreatedAt)
	if pg.IsNotFoundError(err) {
		return Product{}, ErrProductNotFound
	}
	if err != nil {
		return Product{}, fmt.Errorf("get product: %w", err)
	}
	return p, nil
}

// List returns products ordered by SKU. maxQty < 0 means no filter.
func (s *Store) List(ctx context.Context, maxQty int) ([]Product, error) {
	db, err := s.db(ctx)
	if err != nil {
		return nil, err
	}

	rows, err := db.Query(ctx,
		`SELECT id, sku, name, quantity, created_at FROM products
		 WHERE $1 < 0 OR quantity <= $1 ORDER BY sku`, maxQty)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}

	products, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (Product, error) {
		var p Product
		err := row.Scan(&p.ID, &p.SKU, &p.Name, &p.Quantity, &p.CreatedAt)
		return p, err
	})
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	return products, nil
}

// AdjustStock adds delta to a product's quantity and returns the new value.
func (s *Store) AdjustStock(ctx context.Context, id uuid.UUID, delta int) (int, error) {
	db, err := s.db(ctx)
	if err != nil {
		return 0, err
	}

	var qty int
	err = db.QueryRow(ctx,
		`UPDATE products SET quantity = quantity + $2 WHERE id = $1 AND quantity + $2 >= 0 RETURNING quantity`,
		id, delta,
	).Scan(&qty)
	if pg.IsNotFoundError(err) {
		return 0, fmt.Errorf("%w: or stock would go negative", ErrProductNotFound)
	}
	if err != nil {
		return 0, fmt.Errorf("adjust stock: %w", err)
	}
	return qty, nil
}
