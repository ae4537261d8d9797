package core

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
)

// DefaultRunTimeout bounds the store calls of a single run.
const DefaultRunTimeout = 10 * time.Minute

// ErrNoSourcePath is returned by ProcessFile when no path is configured.
var ErrNoSourcePath = errors.New("no csv file path configured")

// ServiceConfig tunes a Service. Zero values fall back to package defaults.
type ServiceConfig struct {
	SourcePath  string
	BatchSize   int
	MaxFileSize int64
	RunTimeout  time.Duration
}

// Service runs the load pipeline against a Store.
type Service struct {
	store    Store
	source   Source
	limiter  *RunLimiter
	observer Observer
	cfg      ServiceConfig
}

// NewService wires a Service. A nil limiter means runs are not bounded; a nil
// observer drops every event.
func NewService(store Store, limiter *RunLimiter, obs Observer, cfg ServiceConfig) *Service {
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = DefaultBatchSize
	}
	if cfg.MaxFileSize <= 0 {
		cfg.MaxFileSize = DefaultMaxFileSize
	}
	if cfg.RunTimeout <= 0 {
		cfg.RunTimeout = DefaultRunTimeout
	}
	return &Service{
		store:    store,
		source:   FileSource{MaxBytes: cfg.MaxFileSize},
		limiter:  limiter,
		observer: observerOrNop(obs),
		cfg:      cfg,
	}
}

// SetSource replaces the file reader used by ProcessFile.
func (s *Service) SetSource(src Source) {
	s.source = src
}

// Limiter returns the run limiter, or nil.
func (s *Service) Limiter() *RunLimiter {
	return s.limiter
}

// ProcessFile runs the pipeline over the file at path, or over the configured
// SourcePath when path is empty.
func (s *Service) ProcessFile(ctx context.Context, path string) (RunResult, error) {
	if path == "" {
		path = s.cfg.SourcePath
	}
	if path == "" {
		return s.reject("", ErrNoSourcePath)
	}

	release, err := s.acquire(ctx)
	if err != nil {
		return s.reject(path, err)
	}
	defer release()

	content, err := s.source.ReadAll(path)
	if err != nil {
		return s.reject(path, err)
	}
	return s.run(ctx, content)
}

// ProcessReader runs the pipeline over r, typically an uploaded file.
func (s *Service) ProcessReader(ctx context.Context, name string, r io.Reader) (RunResult, error) {
	release, err := s.acquire(ctx)
	if err != nil {
		return s.reject(name, err)
	}
	defer release()

	content, err := ReadSource(r, name, s.cfg.MaxFileSize)
	if err != nil {
		return s.reject(name, err)
	}
	return s.run(ctx, content)
}

// reject reports a run that failed before its source was decoded.
func (s *Service) reject(name string, err error) (RunResult, error) {
	result := RunResult{RunID: uuid.NewString(), FileName: name}
	s.observer.RunComplete(result, err)
	return result, err
}

func (s *Service) acquire(ctx context.Context) (func(), error) {
	if s.limiter == nil {
		return func() {}, nil
	}
	if err := s.limiter.Acquire(ctx); err != nil {
		return nil, err
	}
	return s.limiter.Release, nil
}

// run decodes, transforms and loads one source, then computes the age
// report over the whole table.
func (s *Service) run(ctx context.Context, content SourceContent) (result RunResult, err error) {
	began := time.Now()
	result = RunResult{
		RunID:    uuid.NewString(),
		FileName: content.Name,
		Checksum: content.Checksum,
		Bytes:    content.Bytes,
	}

	ctx = ContextWithRunID(ctx, result.RunID)
	ctx, cancel := context.WithTimeout(ctx, s.cfg.RunTimeout)
	defer cancel()

	counter := &runCounter{next: s.observer}
	defer func() {
		result.RowsSkipped = counter.skipped
		result.Batches = counter.batches
		result.Duration = time.Since(began)
		s.observer.RunComplete(result, err)
	}()

	records, err := Decode(content.Text, counter)
	if err != nil {
		return result, err
	}
	result.RowsDecoded = len(records)
	if len(records) == 0 {
		return result, ErrNoRecords
	}

	users, err := Transform(records)
	if err != nil {
		return result, err
	}

	result.Inserted, err = Load(ctx, users, s.cfg.BatchSize, s.store, counter)
	if err != nil {
		return result, err
	}

	result.AgeDistribution, err = ReadAgeDistribution(ctx, s.store)
	if err != nil {
		return result, err
	}
	return result, nil
}

// AgeDistribution reports the current age distribution of all users.
// It returns nil when the table is empty.
func (s *Service) AgeDistribution(ctx context.Context) (*AgeDistribution, error) {
	return ReadAgeDistribution(ctx, s.store)
}

// ListUsers returns up to limit users ordered by id.
func (s *Service) ListUsers(ctx context.Context, limit int) ([]StoredUser, error) {
	users, err := s.store.ListUsers(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	return users, nil
}

// DeleteUsers removes every user and returns how many were deleted.
func (s *Service) DeleteUsers(ctx context.Context) (int64, error) {
	n, err := s.store.DeleteUsers(ctx)
	if err != nil {
		return 0, fmt.Errorf("delete users: %w", err)
	}
	return n, nil
}

// Health pings the store.
func (s *Service) Health(ctx context.Context) error {
	if err := s.store.Ping(ctx); err != nil {
		return fmt.Errorf("store unreachable: %w", err)
	}
	return nil
}

// runCounter tallies per-run events before forwarding them.
type runCounter struct {
	next    Observer
	skipped int
	batches int
}

func (c *runCounter) RowSkipped(w RowShapeWarning) {
	c.skipped++
	c.next.RowSkipped(w)
}

func (c *runCounter) BatchComplete(out InsertOutcome) {
	c.batches++
	c.next.BatchComplete(out)
}

func (c *runCounter) RunComplete(RunResult, error) {}
