package hr

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

const ModuleName = "hr"

var (
	ErrEmployeeNotFound = errors.New("employee not found")
	ErrInvalidEmployee  = errors.New("invalid employee")
)

type Employee struct {
	ID         uuid.UUID  `json:"id"`
	Name       string     `json:"name"`
	Title      string     `json:"title"`
	HiredOn    time.Time  `json:"hired_on"`
	Terminated *time.Time `json:"terminated_on,omitempty"`
}

// Store keeps employees in the tenant database through database/sql.
type Store struct {
	src dbconn.Source[*sql.DB]
	now func() time.Time
}

func NewStore(src dbconn.Source[*sql.DB]) *Store {
	return &Store{src: src, now: time.Now}
}

func (s *Store) Hire(ctx context.Context, name, title string, hiredOn time.Time) (Employee, error) {
	name, title = strings.TrimSpace(name), strings.TrimSpace(title)
	if name == "" || title == "" {
		return Employee{}, fmt.Errorf("%w: name and title are required", ErrInvalidEmployee)
	}
	if hiredOn.IsZero() {
		hiredOn = s.now()
	}

	db, err := s.src.Resolve(ctx)
	if err != nil {
		return Employee{}, err
	}

	e := Employee{ID: uuid.New(), Name: name, Title: title, HiredOn: hiredOn.UTC().Truncate(24 * time.Hour)}
	if _, err := db.ExecContext(ctx,
		`INSERT INTO employees (id, name, title, hired_on) VALUES ($1, $2, $3, $4)`,
		e.ID, e.Name, e.Title, e.HiredOn,
	); err != nil {
		return Employee{}, fmt.Errorf("insert employee: %w", err)
	}
	return e, nil
}

func (s *Store) Get(ctx context.Context, id uuid.UUID) (Employee, error) {
	db, err := s.src.Resolve(ctx)
	if err != nil {
		return Employee{}, err
	}

	var (
		e          Employee
		terminated sql.NullTime
	)
	err = db.QueryRowContext(ctx,
		`SELECT id, name, title, hired_on, terminated_on FROM employees WHERE id = $1`, id,
	).Scan(&e.ID, &e.Name, &e.Title, &e.HiredOn, &terminated)
	if errors.Is(err, sql.ErrNoRows) {
		return Employee{}, ErrEmployeeNotFound
	}
	if err != nil {
		return Employee{}, fmt.Errorf("get employee: %w", err)
	}
	if terminated.Valid {
		e.Terminated = &terminated.Time
	}
	return e, nil
}

// Headcount lists employees not terminated, ordered by name.
func (s *Store) Headcount(ctx context.Context) ([]Employee, error) {
	db, err := s.src.Resolve(ctx)
	if err != nil {
		return nil, err
	}

	rows, err := db.QueryContext(ctx,
		`SELECT id, name, title, hired_on FROM employees WHERE terminated_on IS NULL ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("list employees: %w", err)
	}
	defer rows.Close()

	var out []Employee
	for rows.Next() {
		var e Employee
		if err := rows.Scan(&e.ID, &e.Name, &e.Title, &e.HiredOn); err != nil {
			return nil, fmt.Errorf("scan employee: %w", err)
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list employees: %w", err)
	}
	return out, nil
}

func (s *Store) Terminate(ctx context.Context, id uuid.UUID, on time.Time) error {
	if on.IsZero() {
		on = s.now()
	}

	db, err := s.src.Resolve(ctx)
	if err != nil {
		return err
	}

	res, err := db.ExecContext(ctx,
		`UPDATE employees SET terminated_on = $2 WHERE id = $1 AND terminated_on IS NULL`,
		id, on.UTC().Truncate(24*time.Hour))
	if err != nil {
		return fmt.Errorf("terminate employee: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("terminate employee: %w", err)
	}
	if n == 0 {
		return ErrEmployeeNotFound
	}
	return nil
}
