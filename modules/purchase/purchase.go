package purchase

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/dmitrymomot/bizsuite/pkg/dbconn"
)

const ModuleName = "purchase"

var (
	ErrPurchaseOrderNotFound = errors.New("purchase order not found")
	ErrInvalidPurchaseOrder  = errors.New("invalid purchase order")
)

type Line struct {
	SKU      string `json:"sku"`
	Quantity int    `json:"quantity"`
	UnitCost int64  `json:"unit_cost"`
}

type PurchaseOrder struct {
	ID         uuid.UUID  `json:"id"`
	Supplier   string     `json:"supplier"`
	Lines      []Line     `json:"lines"`
	Total      int64      `json:"total"`
	OrderedAt  time.Time  `json:"ordered_at"`
	ReceivedAt *time.Time `json:"received_at,omitempty"`
}

type Store struct {
	src dbconn.Source[*sql.DB]
	now func() time.Time
}

func NewStore(src dbconn.Source[*sql.DB]) *Store {
	return &Store{src: src, now: time.Now}
}

// Create writes the order header and its lines in one transaction.
func (s *Store) Create(ctx context.Context, supplier string, lines []Line) (_ PurchaseOrder, err error) {
	supplier = strings.TrimSpace(supplier)
	if supplier == "" || len(lines) == 0 {
		return PurchaseOrder{}, fmt.Errorf("%w: supplier and lines are required", ErrInvalidPurchaseOrder)
	}

	po := PurchaseOrder{
		ID:        uuid.New(),
		Supplier:  supplier,
		Lines:     lines,
		OrderedAt: s.now().UTC(),
	}
	for i, l := range lines {
		if strings.TrimSpace(l.SKU) == "" || l.Quantity <= 0 || l.UnitCost < 0 {
			return PurchaseOrder{}, fmt.Errorf("%w: line %d", ErrInvalidPurchaseOrder, i+1)
		}
		po.Total += int64(l.Quantity) * l.UnitCost
	}

	db, err := s.src.Resolve(ctx)
	if err != nil {
		return PurchaseOrder{}, err
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return PurchaseOrder{}, fmt.Errorf("begin purchase order: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if _, err = tx.ExecContext(ctx,
		`INSERT INTO purchase_orders (id, supplier, total, ordered_at) VALUES ($1, $2, $3, $4)`,
		po.ID, po.Supplier, po.Total, po.OrderedAt,
	); err != nil {
		return PurchaseOrder{}, fmt.Errorf("insert purchase order: %w", err)
	}

	for i, l := range lines {
		if _, err = tx.ExecContext(ctx,
			`INSERT INTO purchase_order_lines (order_id, position, sku, quantity, unit_cost) VALUES ($1, $2, $3, $4, $5)`,
			po.ID, i+1, l.SKU, l.Quantity, l.UnitCost,
		); err != nil {
			return PurchaseOrder{}, fmt.Errorf("insert purchase order line %d: %w", i+1, err)
		}
	}

	if err = tx.Commit(); err != nil {
		return PurchaseOrder{}, fmt.Errorf("commit purchase order: %w", err)
	}
	return po, nil
}

// Receive marks an open purchase order as received.
func (s *Store) Receive(ctx context.Context, id uuid.UUID) (time.Time, error) {
	db, err := s.src.Resolve(ctx)
	if err != nil {
		return time.Time{}, err
	}

	at := s.now().UTC()
	res, err := db.ExecContext(ctx,
		`UPDATE purchase_orders SET received_at = $2 WHERE id = $1 AND received_at IS NULL`, id, at)
	if err != nil {
		return time.Time{}, fmt.Errorf("receive purchase order: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return time.Time{}, fmt.Errorf("receive purchase order: %w", err)
	}
	if n == 0 {
		return time.Time{}, fmt.Errorf("%w: no open order %s", ErrPurchaseOrderNotFound, id)
	}
	return at, nil
}

// Open lists orders not yet received, oldest first.
func (s *Store) Open(ctx context.Context) ([]PurchaseOrder, error) {
	db, err := s.src.Resolve(ctx)
	if err != nil {
		return nil, err
	}

	rows, err := db.QueryContext(ctx,
		`SELECT id, supplier, total, ordered_at FROM purchase_orders WHERE received_at IS NULL ORDER BY ordered_at`)
	if err != nil {
		return nil, fmt.Errorf("list purchase orders: %w", err)
	}
	defer rows.Close()

	var out []PurchaseOrder
	for rows.Next() {
		var po PurchaseOrder
		if err := rows.Scan(&po.ID, &po.Supplier, &po.Total, &po.OrderedAt); err != nil {
			return nil, fmt.Errorf("scan purchase order: %w", err)
		}
		out = append(out, po)
	}
	return out, rows.Err()
}
