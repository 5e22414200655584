package crm

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/dmitrymomot/bizsuite/pkg/dbconn"
	"github.com/dmitrymomot/bizsuite/pkg/pg"
)

const ModuleName = "crm"

var (
	ErrContactNotFound = errors.New("contact not found")
	ErrDuplicateEmail  = errors.New("contact email already exists")
	ErrInvalidContact  = errors.New("invalid contact")
)

type Contact struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Company   string    `json:"company,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// DBTX is satisfied by *pgx.Conn.
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type Store struct {
	db func(ctx context.Context) (DBTX, error)
}

func NewStore[H DBTX](src dbconn.Source[H]) *Store {
	return &Store{db: func(ctx context.Context) (DBTX, error) {
		return src.Resolve(ctx)
	}}
}

func (s *Store) Create(ctx context.Context, name, email, company string) (Contact, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return Contact{}, fmt.Errorf("%w: name is required", ErrInvalidContact)
	}
	addr, err := mail.ParseAddress(strings.TrimSpace(email))
	if err != nil {
		return Contact{}, fmt.Errorf("%w: email %q", ErrInvalidContact, email)
	}

	db, err := s.db(ctx)
	if err != nil {
		return Contact{}, err
	}

	c := Contact{
		ID:        uuid.New(),
		Name:      name,
		Email:     strings.ToLower(addr.Address),
		Company:   strings.TrimSpace(company),
		CreatedAt: time.Now().UTC(),
	}
	_, err = db.Exec(ctx,
		`INSERT INTO contacts (id, name, email, company, created_at)
		 VALUES (@id, @name, @email, @company, @created_at)`,
		pgx.NamedArgs{
			"id":         c.ID,
			"name":       c.Name,
			"email":      c.Email,
			"company":    c.Company,
			"created_at": c.CreatedAt,
		})
	if pg.IsDuplicateKeyError(err) {
		return Contact{}, fmt.Errorf("%w: %s", ErrDuplicateEmail, c.Email)
	}
	if err != nil {
		return Contact{}, fmt.Errorf("insert contact: %w", err)
	}
	return c, nil
}

func (s *Store) Get(ctx context.Context, id uuid.UUID) (Contact, error) {
	db, err := s.db(ctx)
	if err != nil {
		return Contact{}, err
	}

	rows, err := db.Query(ctx,
		`SELECT id, name, email, company, created_at FROM contacts WHERE id = $1`, id)
	if err != nil {
		return Contact{}, fmt.Errorf("get contact: %w", err)
	}
	c, err := pgx.CollectExactlyOneRow(rows, pgx.RowToStructByPos[Contact])
	if pg.IsNotFoundError(err) {
		return Contact{}, ErrContactNotFound
	}
	if err != nil {
		return Contact{}, fmt.Errorf("get contact: %w", err)
	}
	return c, nil
}

// Search lists contacts whose name, email or company contains q. An empty q lists all.
func (s *Store) Search(ctx context.Context, q string, limit int) ([]Contact, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}

	db, err := s.db(ctx)
	if err != nil {
		return nil, err
	}

	rows, err := db.Query(ctx,
		`SELECT id, name, email, company, created_at FROM contacts
		 WHERE $1 = '' OR name ILIKE '%' || $1 || '%' OR email ILIKE '%' || $1 || '%' OR company ILIKE '%' || $1 || '%'
		 ORDER BY name LIMIT $2`,
		strings.TrimSpace(q), limit)
	if err != nil {
		return nil, fmt.Errorf("search contacts: %w", err)
	}
	contacts, err := pgx.CollectRows(rows, pgx.RowToStructByPos[Contact])
	if err != nil {
		return nil, fmt.Errorf("search contacts: %w", err)
	}
	return contacts, nil
}

func (s *Store) Delete(ctx context.Context, id uuid.UUID) error {
	db, err := s.db(ctx)
	if err != nil {
		return err
	}

	tag, err := db.Exec(ctx, `DELETE FROM contacts WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete contact: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrContactNotFound
	}
	return nil
}
