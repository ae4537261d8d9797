package core

import (
	"log/slog"
	"time"
)

// InsertOutcome is reported after each batch the store confirmed.
type InsertOutcome struct {
	Batch    int // 1-based
	Batches  int
	Rows     int // rows submitted
	Inserted int // rows the store confirmed
	Duration time.Duration
}

// Observer receives pipeline events. Implementations must not block for long:
// events are delivered synchronously from the pipeline.
type Observer interface {
	RowSkipped(RowShapeWarning)
	BatchComplete(InsertOutcome)
	RunComplete(RunResult, error)
}

// NopObserver ignores every event.
type NopObserver struct{}

func (NopObserver) RowSkipped(RowShapeWarning)   {}
func (NopObserver) BatchComplete(InsertOutcome)  {}
func (NopObserver) RunComplete(RunResult, error) {}

// MultiObserver fans each event out to every observer in order.
type MultiObserver []Observer

func (m MultiObserver) RowSkipped(w RowShapeWarning) {
	for _, o := range m {
		o.RowSkipped(w)
	}
}

func (m MultiObserver) BatchComplete(out InsertOutcome) {
	for _, o := range m {
		o.BatchComplete(out)
	}
}

func (m MultiObserver) RunComplete(r RunResult, err error) {
	for _, o := range m {
		o.RunComplete(r, err)
	}
}

// LogObserver writes pipeline events to a structured logger.
type LogObserver struct {
	Logger *slog.Logger
}

// NewLogObserver returns an observer logging to logger, or to slog.Default
// when logger is nil.
func NewLogObserver(logger *slog.Logger) *LogObserver {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogObserver{Logger: logger}
}

func (o *LogObserver) RowSkipped(w RowShapeWarning) {
	o.Logger.Warn("row skipped: column count mismatch",
		"line", w.Line,
		"expected", w.Expected,
		"actual", w.Actual,
	)
}

func (o *LogObserver) BatchComplete(out InsertOutcome) {
	o.Logger.Info("batch inserted",
		"batch", out.Batch,
		"batches", out.Batches,
		"rows", out.Inserted,
		"duration_ms", out.Duration.Milliseconds(),
	)
}

func (o *LogObserver) RunComplete(r RunResult, err error) {
	if err != nil {
		o.Logger.Error("pipeline failed",
			"run_id", r.RunID,
			"file", r.FileName,
			"inserted", r.Inserted,
			"error", err,
		)
		return
	}
	o.Logger.Info("pipeline completed",
		"run_id", r.RunID,
		"file", r.FileName,
		"checksum", r.Checksum,
		"decoded", r.RowsDecoded,
		"skipped", r.RowsSkipped,
		"inserted", r.Inserted,
		"batches", r.Batches,
		"duration_ms", r.Duration.Milliseconds(),
	)
}

func observerOrNop(o Observer) Observer {
	if o == nil {
		return NopObserver{}
	}
	return o
}
