package dbconn

import (
	"context"
	"database/sql"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/stdlib"
)

const closeTimeout = 5 * time.Second

// NewPgx creates a factory handing out a *pgx.Conn per scope. A unit of work
// is single-threaded, so one connection is enough and nothing is pooled across tenants.
func NewPgx(module string, opts ...Option) (*Factory[*pgx.Conn], error) {
	return New[*pgx.Conn](module, OpenPgx, closePgx, opts...)
}

// OpenPgx connects and pings.
func OpenPgx(ctx context.Context, conn string) (*pgx.Conn, error) {
	c, err := pgx.Connect(ctx, conn)
	if err != nil {
		return nil, err
	}
	if err := c.Ping(ctx); err != nil {
		_ = closePgx(c)
		return nil, err
	}
	return c, nil
}

func closePgx(c *pgx.Conn) error {
	ctx, cancel := context.WithTimeout(context.Background(), closeTimeout)
	defer cancel()
	return c.Close(ctx)
}

// NewSQL creates a factory handing out a *sql.DB backed by the pgx driver,
// for modules written against database/sql.
func NewSQL(module string, opts ...Option) (*Factory[*sql.DB], error) {
	return New[*sql.DB](module, OpenSQL, (*sql.DB).Close, opts...)
}

// OpenSQL opens a small database/sql pool for one scope and pings it.
func OpenSQL(ctx context.Context, conn string) (*sql.DB, error) {
	cfg, err := pgx.ParseConfig(conn)
	if err != nil {
		return nil, err
	}

	db := stdlib.OpenDB(*cfg)
	db.SetMaxOpenConns(2)
	db.SetMaxIdleConns(1)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}
