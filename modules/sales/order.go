package sales

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

const ModuleName = "sales"

var (
	ErrOrderNotFound = errors.New("order not found")
	ErrInvalidOrder  = errors.New("invalid order")
)

type Status string

const (
	StatusDraft     Status = "draft"
	StatusConfirmed Status = "confirmed"
	StatusExpired   Status = "expired"
)

type Line struct {
	SKU        string `json:"sku"`
	Quantity   int    `json:"quantity"`
	UnitAmount int64  `json:"unit_amount"`
}

type Order struct {
	ID        uuid.UUID `json:"id"`
	Customer  string    `json:"customer"`
	Status    Status    `json:"status"`
	Lines     []Line    `json:"lines"`
	Total     int64     `json:"total"`
	CreatedAt time.Time `json:"created_at"`
}

// DBTX is satisfied by *pgx.Conn.
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type Store struct {
	db  func(ctx context.Context) (DBTX, error)
	now func() time.Time
}

func NewStore[H DBTX](src dbconn.Source[H]) *Store {
	return &Store{
		db: func(ctx context.Context) (DBTX, error) {
			return src.Resolve(ctx)
		},
		now: time.Now,
	}
}

// Create stores a draft order. Totals are computed here, never taken from input.
func (s *Store) Create(ctx context.Context, customer string, lines []Line) (Order, error) {
	customer = strings.TrimSpace(customer)
	if customer == "" {
		return Order{}, fmt.Errorf("%w: customer is required", ErrInvalidOrder)
	}
	if len(lines) == 0 {
		return Order{}, fmt.Errorf("%w: at least one line is required", ErrInvalidOrder)
	}

	var total int64
	for i, l := range lines {
		if strings.TrimSpace(l.SKU) == "" || l.Quantity <= 0 || l.UnitAmount < 0 {
			return Order{}, fmt.Errorf("%w: line %d", ErrInvalidOrder, i+1)
		}
		total += int64(l.Quantity) * l.UnitAmount
	}

	db, err := s.db(ctx)
	if err != nil {
		return Order{}, err
	}

	o := Order{
		ID:        uuid.New(),
		Customer:  customer,
		Status:    StatusDraft,
		Lines:     lines,
		Total:     total,
		CreatedAt: s.now().UTC(),
	}
	if _, err := db.Exec(ctx,
		`INSERT INTO orders (id, customer, status, lines, total, created_at) VALUES ($1, $2, $3, $4, $5, $6)`,
		o.ID, o.Customer, o.Status, o.Lines, o.Total, o.CreatedAt,
	); err != nil {
		return Order{}, fmt.Errorf("insert order: %w", err)
	}
	return o, nil
}

func (s *Store) Get(ctx context.Context, id uuid.UUID) (Order, error) {
	db, err := s.db(ctx)
	if err != nil {
		return Order{}, err
	}

	var o Order
	err = db.QueryRow(ctx,
		`SELECT id, customer, status, lines, total, created_at FROM orders WHERE id = $1`, id,
	).Scan(&o.ID, &o.Customer, &o.Status, &o.Lines, &o.Total, &o.CreatedAt)
	if pg.IsNotFoundError(err) {
		return Order{}, ErrOrderNotFound
	}
	if err != nil {
		return Order{}, fmt.Errorf("get order: %w", err)
	}
	return o, nil
}

// Confirm moves a draft order to confirmed.
func (s *Store) Confirm(ctx context.Context, id uuid.UUID) error {
	db, err := s.db(ctx)
	if err != nil {
		return err
	}

	tag, err := db.Exec(ctx,
		`UPDATE orders SET status = $2 WHERE id = $1 AND status = $3`,
		id, StatusConfirmed, StatusDraft)
	if err != nil {
		return fmt.Errorf("confirm order: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: no draft order %s", ErrOrderNotFound, id)
	}
	return nil
}

// ExpireDrafts marks drafts created before cutoff as expired and returns how many changed.
func (s *Store) ExpireDrafts(ctx context.Context, cutoff time.Time) (int64, error) {
	db, err := s.db(ctx)
	if err != nil {
		return 0, err
	}

	tag, err := db.Exec(ctx,
		`UPDATE orders SET status = $1 WHERE status = $2 AND created_at < $3`,
		StatusExpired, StatusDraft, cutoff)
	if err != nil {
		return 0, fmt.Errorf("expire drafts: %w", err)
	}
	return tag.RowsAffected(), nil
}
