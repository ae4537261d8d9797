// Package postgres implements core.Store on PostgreSQL using a pgx pool.
//
// Each batch is written in one round trip: a multi-row INSERT with $n
// placeholders by default, or a binary COPY when Config.UseCopy is set.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/JonMunkholm/csvload/internal/core"
)

// MaxParams is the bind parameter limit of the Postgres wire protocol.
const MaxParams = 65535

// MaxBatchRows is the largest batch a single INSERT can carry.
var MaxBatchRows = MaxParams / len(core.UserColumns)

// Schema creates the users table if it does not exist.
const Schema = `CREATE TABLE IF NOT EXISTS users (
	id              SERIAL PRIMARY KEY,
	name            VARCHAR NOT NULL,
	age             INT4 NOT NULL,
	address         JSONB,
	additional_info JSONB,
	created_at      TIMESTAMPTZ NOT NULL DEFAULT now()
)`

// Config holds pool and write settings.
type Config struct {
	URL             string
	MaxConns        int
	MinConns        int
	MaxConnLifetime time.Duration
	MaxConnIdleTime time.Duration
	ConnectTimeout  time.Duration
	UseCopy         bool
}

// Store is a pgxpool-backed core.Store.
type Store struct {
	pool    *pgxpool.Pool
	useCopy bool
}

var _ core.Store = (*Store)(nil)

// Open parses cfg.URL, applies the pool settings, connects and pings.
func Open(ctx context.Context, cfg Config) (*Store, error) {
	poolConfig, err := pgxpool.ParseConfig(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("parse database url: %w", err)
	}

	if cfg.MaxConns > 0 {
		poolConfig.MaxConns = int32(cfg.MaxConns)
	}
	if cfg.MinConns > 0 {
		poolConfig.MinConns = int32(cfg.MinConns)
	}
	if cfg.MaxConnLifetime > 0 {
		poolConfig.MaxConnLifetime = cfg.MaxConnLifetime
	}
	if cfg.MaxConnIdleTime > 0 {
		poolConfig.MaxConnIdleTime = cfg.MaxConnIdleTime
	}
	if cfg.ConnectTimeout > 0 {
		poolConfig.ConnConfig.ConnectTimeout = cfg.ConnectTimeout
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("connect: %w", err)
	}

	pingCtx := ctx
	if cfg.ConnectTimeout > 0 {
		var cancel context.CancelFunc
		pingCtx, cancel = context.WithTimeout(ctx, cfg.ConnectTimeout)
		defer cancel()
	}
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping: %w", err)
	}

	return New(pool, cfg.UseCopy), nil
}

// New wraps an existing pool.
func New(pool *pgxpool.Pool, useCopy bool) *Store {
	return &Store{pool: pool, useCopy: useCopy}
}

// Close closes the pool.
func (s *Store) Close() {
	s.pool.Close()
}

// EnsureSchema creates the users table when missing.
func (s *Store) EnsureSchema(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, Schema); err != nil {
		return fmt.Errorf("create users table: %w", err)
	}
	return nil
}

// InsertUsers writes rows in a single statement and returns the number of
// rows Postgres reported.
func (s *Store) InsertUsers(ctx context.Context, rows []core.UserRow) (int64, error) {
	if len(rows) == 0 {
		return 0, nil
	}
	if s.useCopy {
		return s.copyUsers(ctx, rows)
	}
	if len(rows) > MaxBatchRows {
		return 0, fmt.Errorf("batch of %d rows exceeds the %d row limit", len(rows), MaxBatchRows)
	}

	tag, err := s.pool.Exec(ctx, buildInsertSQL(len(rows)), flattenRows(rows)...)
	if err != nil {
		return 0, describe("insert users", err)
	}
	return tag.RowsAffected(), nil
}

func (s *Store) copyUsers(ctx context.Context, rows []core.UserRow) (int64, error) {
	values := make([][]any, len(rows))
	for i, r := range rows {
		values[i] = r.Values()
	}

	n, err := s.pool.CopyFrom(ctx, pgx.Identifier{core.UsersTable}, core.UserColumns, pgx.CopyFromRows(values))
	if err != nil {
		return 0, describe("copy users", err)
	}
	return n, nil
}

// Ages returns every user's age in ascending order.
func (s *Store) Ages(ctx context.Context) ([]int, error) {
	rows, err := s.pool.Query(ctx, "SELECT age FROM users ORDER BY age")
	if err != nil {
		return nil, fmt.Errorf("query ages: %w", err)
	}
	ages, err := pgx.CollectRows(rows, pgx.RowTo[int])
	if err != nil {
		return nil, fmt.Errorf("scan ages: %w", err)
	}
	return ages, nil
}

// ListUsers returns up to limit users ordered by id.
func (s *Store) ListUsers(ctx context.Context, limit int) ([]core.StoredUser, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, name, age, address, additional_info, created_at
		 FROM users ORDER BY id LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("query users: %w", err)
	}

	users, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (core.StoredUser, error) {
		var (
			u          core.StoredUser
			addr, info []byte
		)
		if err := row.Scan(&u.ID, &u.Name, &u.Age, &addr, &info, &u.CreatedAt); err != nil {
			return u, err
		}
		u.Address, u.AdditionalInfo = addr, info
		return u, nil
	})
	if err != nil {
		return nil, fmt.Errorf("scan users: %w", err)
	}
	return users, nil
}

// DeleteUsers removes every row from the users table.
func (s *Store) DeleteUsers(ctx context.Context) (int64, error) {
	tag, err := s.pool.Exec(ctx, "DELETE FROM users")
	if err != nil {
		return 0, fmt.Errorf("delete users: %w", err)
	}
	return tag.RowsAffected(), nil
}

// Ping checks that a connection can be acquired and used.
func (s *Store) Ping(ctx context.Context) error {
	var one int
	if err := s.pool.QueryRow(ctx, "SELECT 1").Scan(&one); err != nil {
		return fmt.Errorf("select 1: %w", err)
	}
	return nil
}

// buildInsertSQL renders a multi-row INSERT for n rows.
func buildInsertSQL(n int) string {
	cols := len(core.UserColumns)

	var b strings.Builder
	b.WriteString("INSERT INTO ")
	b.WriteString(pgx.Identifier{core.UsersTable}.Sanitize())
	b.WriteString(" (")
	for i, c := range core.UserColumns {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(pgx.Identifier{c}.Sanitize())
	}
	b.WriteString(") VALUES ")

	for row := 0; row < n; row++ {
		if row > 0 {
			b.WriteString(", ")
		}
		b.WriteByte('(')
		for col := 0; col < cols; col++ {
			if col > 0 {
				b.WriteString(", ")
			}
			fmt.Fprintf(&b, "$%d", row*cols+col+1)
		}
		b.WriteByte(')')
	}
	return b.String()
}

func flattenRows(rows []core.UserRow) []any {
	args := make([]any, 0, len(rows)*len(core.UserColumns))
	for _, r := range rows {
		args = append(args, r.Values()...)
	}
	return args
}

// describe keeps the server's detail and SQLSTATE in the error text.
func describe(op string, err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Detail != "" {
		return fmt.Errorf("%s: %w (%s)", op, err, pgErr.Detail)
	}
	return fmt.Errorf("%s: %w", op, err)
}
