package core

import (
	"context"
	"encoding/json"
	"fmt"
	"time"
)

// DefaultBatchSize is the number of rows sent per insert call.
const DefaultBatchSize = 1000

// Load inserts users into sink in contiguous batches of at most batchSize,
// one call per batch, strictly in order. A non-positive batchSize falls back
// to DefaultBatchSize.
//
// It returns the number of rows the sink confirmed. On the first failing
// batch it stops and returns a *SinkError; batches before it stay committed
// and batches after it are never sent. The returned count then equals
// SinkError.Committed.
func Load(ctx context.Context, users []User, batchSize int, sink BulkInsertSink, obs Observer) (int, error) {
	obs = observerOrNop(obs)
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}

	batches := BatchCount(len(users), batchSize)
	total := 0

	for start, batch := 0, 1; start < len(users); start, batch = start+batchSize, batch+1 {
		end := min(start+batchSize, len(users))

		rows, err := EncodeUsers(users[start:end])
		if err != nil {
			return total, &SinkError{Batch: batch, Batches: batches, Committed: total, Err: err}
		}

		began := time.Now()
		inserted, err := sink.InsertUsers(ctx, rows)
		if err != nil {
			return total, &SinkError{Batch: batch, Batches: batches, Committed: total, Err: err}
		}
		total += int(inserted)

		obs.BatchComplete(InsertOutcome{
			Batch:    batch,
			Batches:  batches,
			Rows:     len(rows),
			Inserted: int(inserted),
			Duration: time.Since(began),
		})
	}

	return total, nil
}

// BatchCount returns how many batches of batchSize cover n rows.
func BatchCount(n, batchSize int) int {
	if n <= 0 || batchSize <= 0 {
		return 0
	}
	return (n + batchSize - 1) / batchSize
}

// EncodeUsers serializes the structured columns of each user to JSON.
func EncodeUsers(users []User) ([]UserRow, error) {
	rows := make([]UserRow, len(users))
	for i, u := range users {
		addr, err := encodeObject(u.Address)
		if err != nil {
			return nil, fmt.Errorf("encode address for %q: %w", u.Name, err)
		}
		info, err := encodeObject(u.AdditionalInfo)
		if err != nil {
			return nil, fmt.Errorf("encode additional_info for %q: %w", u.Name, err)
		}
		rows[i] = UserRow{
			Name:           u.Name,
			Age:            u.Age,
			Address:        addr,
			AdditionalInfo: info,
		}
	}
	return rows, nil
}

func encodeObject(o Object) (json.RawMessage, error) {
	if o == nil {
		return nil, nil
	}
	return json.Marshal(o)
}
