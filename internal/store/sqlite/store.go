// Package sqlite implements core.Store on SQLite through database/sql and
// the pure-Go modernc.org/sqlite driver.
//
// SQLite has no bulk-load API, so each batch is one multi-row INSERT inside
// its own transaction. JSON columns are stored as TEXT.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/JonMunkholm/csvload/internal/core"
)

// MaxVariables is SQLite's default bound parameter limit.
const MaxVariables = 32766

// Schema creates the users table if it does not exist.
const Schema = `CREATE TABLE IF NOT EXISTS users (
	id              INTEGER PRIMARY KEY AUTOINCREMENT,
	name            TEXT NOT NULL,
	age             INTEGER NOT NULL,
	address         TEXT,
	additional_info TEXT,
	created_at      TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
)`

// Store is a database/sql-backed core.Store.
type Store struct {
	db *sql.DB
}

var _ core.Store = (*Store)(nil)

// Open opens the database at dsn and pings it. A file path or a
// "file:...?..." URI both work.
func Open(ctx context.Context, dsn string) (*Store, error) {
	if strings.TrimSpace(dsn) == "" {
		return nil, fmt.Errorf("sqlite: DSN must not be empty")
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("sqlite: open: %w", err)
	}
	// One writer at a time; concurrent writers would hit SQLITE_BUSY.
	db.SetMaxOpenConns(1)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlite: ping: %w", err)
	}

	return &Store{db: db}, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// EnsureSchema creates the users table when missing.
func (s *Store) EnsureSchema(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, Schema); err != nil {
		return fmt.Errorf("sqlite: create users table: %w", err)
	}
	return nil
}

// InsertUsers writes rows in one statement inside a transaction.
func (s *Store) InsertUsers(ctx context.Context, rows []core.UserRow) (int64, error) {
	if len(rows) == 0 {
		return 0, nil
	}
	if len(rows)*len(core.UserColumns) > MaxVariables {
		return 0, fmt.Errorf("sqlite: batch of %d rows exceeds the variable limit", len(rows))
	}

	args := make([]any, 0, len(rows)*len(core.UserColumns))
	for _, r := range rows {
		args = append(args, r.Name, r.Age, jsonText(r.Address), jsonText(r.AdditionalInfo))
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("sqlite: begin tx: %w", err)
	}

	res, err := tx.ExecContext(ctx, buildInsertSQL(len(rows)), args...)
	if err != nil {
		_ = tx.Rollback()
		return 0, fmt.Errorf("sqlite: insert: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		_ = tx.Rollback()
		return 0, fmt.Errorf("sqlite: rows affected: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("sqlite: commit: %w", err)
	}
	return n, nil
}

// Ages returns every user's age in ascending order.
func (s *Store) Ages(ctx context.Context) ([]int, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT age FROM users ORDER BY age")
	if err != nil {
		return nil, fmt.Errorf("sqlite: query ages: %w", err)
	}
	defer rows.Close()

	var ages []int
	for rows.Next() {
		var age int
		if err := rows.Scan(&age); err != nil {
			return nil, fmt.Errorf("sqlite: scan age: %w", err)
		}
		ages = append(ages, age)
	}
	return ages, rows.Err()
}

// ListUsers returns up to limit users ordered by id.
func (s *Store) ListUsers(ctx context.Context, limit int) ([]core.StoredUser, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, age, address, additional_info, created_at
		 FROM users ORDER BY id LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("sqlite: query users: %w", err)
	}
	defer rows.Close()

	var users []core.StoredUser
	for rows.Next() {
		var (
			u          core.StoredUser
			addr, info sql.NullString
		)
		if err := rows.Scan(&u.ID, &u.Name, &u.Age, &addr, &info, &u.CreatedAt); err != nil {
			return nil, fmt.Errorf("sqlite: scan user: %w", err)
		}
		if addr.Valid {
			u.Address = []byte(addr.String)
		}
		if info.Valid {
			u.AdditionalInfo = []byte(info.String)
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

// DeleteUsers removes every row from the users table.
func (s *Store) DeleteUsers(ctx context.Context) (int64, error) {
	res, err := s.db.ExecContext(ctx, "DELETE FROM users")
	if err != nil {
		return 0, fmt.Errorf("sqlite: delete users: %w", err)
	}
	return res.RowsAffected()
}

// Ping runs SELECT 1.
func (s *Store) Ping(ctx context.Context) error {
	var one int
	if err := s.db.QueryRowContext(ctx, "SELECT 1").Scan(&one); err != nil {
		return fmt.Errorf("sqlite: select 1: %w", err)
	}
	return nil
}

func buildInsertSQL(n int) string {
	row := "(" + strings.TrimSuffix(strings.Repeat("?, ", len(core.UserColumns)), ", ") + ")"

	var b strings.Builder
	fmt.Fprintf(&b, "INSERT INTO %s (%s) VALUES ", core.UsersTable, strings.Join(core.UserColumns, ", "))
	for i := 0; i < n; i++ {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(row)
	}
	return b.String()
}

// jsonText binds JSON as TEXT so SQLite's json functions can read it.
func jsonText(raw []byte) any {
	if raw == nil {
		return nil
	}
	return string(raw)
}
