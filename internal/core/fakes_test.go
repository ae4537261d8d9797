package core

import (
	"context"
	"errors"
	"sync"
)

// recordingObserver captures every event it receives.
type recordingObserver struct {
	mu       sync.Mutex
	skipped  []RowShapeWarning
	batches  []InsertOutcome
	runs     []RunResult
	runErrs  []error
}

func (o *recordingObserver) RowSkipped(w RowShapeWarning) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.skipped = append(o.skipped, w)
}

func (o *recordingObserver) BatchComplete(out InsertOutcome) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.batches = append(o.batches, out)
}

func (o *recordingObserver) RunComplete(r RunResult, err error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.runs = append(o.runs, r)
	o.runErrs = append(o.runErrs, err)
}

var errSinkDown = errors.New("connection reset by peer")

// fakeStore is an in-memory Store. failOnCall makes the n-th InsertUsers
// call (1-based) fail with errSinkDown.
type fakeStore struct {
	mu         sync.Mutex
	calls      [][]UserRow
	rows       []UserRow
	failOnCall int
	agesErr    error
	pingErr    error
}

func (s *fakeStore) InsertUsers(_ context.Context, rows []UserRow) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, rows)
	if s.failOnCall > 0 && len(s.calls) == s.failOnCall {
		return 0, errSinkDown
	}
	s.rows = append(s.rows, rows...)
	return int64(len(rows)), nil
}

func (s *fakeStore) Ages(context.Context) ([]int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.agesErr != nil {
		return nil, s.agesErr
	}
	ages := make([]int, len(s.rows))
	for i, r := range s.rows {
		ages[i] = r.Age
	}
	return ages, nil
}

func (s *fakeStore) ListUsers(_ context.Context, limit int) ([]StoredUser, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []StoredUser
	for i, r := range s.rows {
		if i >= limit {
			break
		}
		out = append(out, StoredUser{ID: int64(i + 1), Name: r.Name, Age: r.Age})
	}
	return out, nil
}

func (s *fakeStore) DeleteUsers(context.Context) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := int64(len(s.rows))
	s.rows = nil
	return n, nil
}

func (s *fakeStore) Ping(context.Context) error         { return s.pingErr }
func (s *fakeStore) EnsureSchema(context.Context) error { return nil }
