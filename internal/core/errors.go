package core

import (
	"errors"
	"fmt"
)

// ErrEmptyInput is returned when the source has no non-blank lines.
var ErrEmptyInput = errors.New("csv file is empty")

// ErrNoRecords is returned by a run whose source has a header but no row
// with the header's column count.
var ErrNoRecords = errors.New("no valid records found in csv file")

// ErrSourceNotFound matches a SourceUnavailableError for a missing file.
var ErrSourceNotFound = errors.New("source file not found")

// RowShapeWarning describes a data row dropped because its field count
// differs from the header. It is reported, never returned.
type RowShapeWarning struct {
	Line     int // 1-based line in the source
	Expected int
	Actual   int
}

func (w RowShapeWarning) String() string {
	return fmt.Sprintf("line %d: column count mismatch, expected %d, got %d", w.Line, w.Expected, w.Actual)
}

// HeaderError reports a header cell that cannot be used as a field path.
type HeaderError struct {
	Column int // 1-based
	Header string
	Err    error
}

func (e *HeaderError) Error() string {
	return fmt.Sprintf("invalid header in column %d (%q): %v", e.Column, e.Header, e.Err)
}

func (e *HeaderError) Unwrap() error { return e.Err }

// SinkError reports the first batch the store rejected.
// Committed counts the rows confirmed by every earlier batch; those rows
// stay persisted.
type SinkError struct {
	Batch     int // 1-based ordinal of the failing batch
	Batches   int
	Committed int
	Err       error
}

func (e *SinkError) Error() string {
	return fmt.Sprintf("batch %d/%d failed after %d rows committed: %v", e.Batch, e.Batches, e.Committed, e.Err)
}

func (e *SinkError) Unwrap() error { return e.Err }

// SourceUnavailableError reports a source that could not be read.
type SourceUnavailableError struct {
	Path     string
	NotFound bool
	Err      error
}

func (e *SourceUnavailableError) Error() string {
	if e.NotFound {
		return fmt.Sprintf("file not found: %s", e.Path)
	}
	return fmt.Sprintf("failed to read csv file %s: %v", e.Path, e.Err)
}

func (e *SourceUnavailableError) Unwrap() error { return e.Err }

// Is reports ErrSourceNotFound for missing files.
func (e *SourceUnavailableError) Is(target error) bool {
	return target == ErrSourceNotFound && e.NotFound
}
