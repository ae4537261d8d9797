package core

import (
	"context"
	"encoding/json"
	"time"
)

// UsersTable is the table every store writes to.
const UsersTable = "users"

// UserColumns lists the insert columns in the order UserRow.Values returns them.
var UserColumns = []string{"name", "age", "address", "additional_info"}

// UserRow is a user serialized for a store. Address and AdditionalInfo hold
// JSON, or nil for SQL NULL.
type UserRow struct {
	Name           string
	Age            int
	Address        json.RawMessage
	AdditionalInfo json.RawMessage
}

// Values returns the row in UserColumns order. Absent JSON columns are an
// untyped nil so drivers bind NULL.
func (r UserRow) Values() []any {
	return []any{r.Name, r.Age, jsonValue(r.Address), jsonValue(r.AdditionalInfo)}
}

func jsonValue(raw json.RawMessage) any {
	if raw == nil {
		return nil
	}
	return []byte(raw)
}

// StoredUser is a row read back from the users table.
type StoredUser struct {
	ID             int64           `json:"id"`
	Name           string          `json:"name"`
	Age            int             `json:"age"`
	Address        json.RawMessage `json:"address"`
	AdditionalInfo json.RawMessage `json:"additional_info"`
	CreatedAt      time.Time       `json:"created_at"`
}

// BulkInsertSink persists one batch of rows in a single round trip and
// reports how many rows it committed.
type BulkInsertSink interface {
	InsertUsers(ctx context.Context, rows []UserRow) (int64, error)
}

// AgeReader reads the age column of every persisted user.
type AgeReader interface {
	Ages(ctx context.Context) ([]int, error)
}

// Store is everything the service needs from a database.
// Satisfied by postgres.Store and sqlite.Store.
type Store interface {
	BulkInsertSink
	AgeReader
	ListUsers(ctx context.Context, limit int) ([]StoredUser, error)
	DeleteUsers(ctx context.Context) (int64, error)
	Ping(ctx context.Context) error
	EnsureSchema(ctx context.Context) error
}

// RunResult summarizes one pipeline run.
type RunResult struct {
	RunID           string           `json:"runId"`
	FileName        string           `json:"fileName"`
	Checksum        string           `json:"checksum"`
	Bytes           int              `json:"bytes"`
	RowsDecoded     int              `json:"rowsDecoded"`
	RowsSkipped     int              `json:"rowsSkipped"`
	Inserted        int              `json:"recordsProcessed"`
	Batches         int              `json:"batches"`
	Duration        time.Duration    `json:"-"`
	AgeDistribution *AgeDistribution `json:"ageDistribution"`
}
