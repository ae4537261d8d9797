// Package core provides the business logic for loading dotted-header CSV
// files into the users table.
//
// This package holds all domain logic independent of any transport or
// storage driver. Web handlers, tests and the server entry point all go
// through [Service] or the pipeline functions directly.
//
// # Pipeline
//
// A run is strictly sequential and moves each row forward through five
// stages:
//
//  1. [Tokenize] splits one raw line into fields, honoring double quotes.
//  2. [LiftPath] and [MergeInto] rebuild a nested [Object] from the
//     dotted header paths, one column at a time.
//  3. [Decode] drives the two above across the file, skipping rows whose
//     field count does not match the header.
//  4. [Transform] validates every record and reshapes it into a [User].
//     One invalid record aborts the whole pass.
//  5. [Load] writes users to a [BulkInsertSink] in fixed-size chunks,
//     stopping at the first failing chunk. Earlier chunks stay committed.
//
// # Observers
//
// The pipeline never logs. Skipped rows, finished batches and finished runs
// are reported to an [Observer]; [LogObserver] writes them to slog and the
// metrics package exports them to Prometheus.
//
// # Error Handling
//
// Every fatal condition has its own type or sentinel ([ErrEmptyInput],
// [HeaderError], [ValidationError], [SinkError], [SourceUnavailableError],
// [ErrTooManyRuns]). [MapError] turns any of them into a [UserMessage] with a
// support code:
//
//   - SRC001-SRC003: source file errors
//   - CSV001-CSV002: decode errors
//   - VAL001-VAL002: record validation errors
//   - DB001-DB006: store errors
//   - RUN001-RUN003: run scheduling errors
package core
