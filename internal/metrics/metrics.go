// Package metrics exports pipeline events to Prometheus.
//
// Recorder implements core.Observer, so it plugs into the service next to
// the log observer. It owns a private registry and serves it through
// Handler, keeping the process-wide default registry untouched.
package metrics

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/JonMunkholm/csvload/internal/core"
)

// Run outcome label values.
const (
	OutcomeSuccess    = "success"
	OutcomeSource     = "source_error"
	OutcomeDecode     = "decode_error"
	OutcomeValidation = "validation_error"
	OutcomeSink       = "sink_error"
	OutcomeBusy       = "busy"
	OutcomeOther      = "error"
)

// Recorder collects pipeline metrics.
type Recorder struct {
	reg *prometheus.Registry

	rowsSkipped   prometheus.Counter     // csvload_rows_skipped_total
	rowsInserted  prometheus.Counter     // csvload_rows_inserted_total
	batches       *prometheus.CounterVec // csvload_batches_total{status}
	runs          *prometheus.CounterVec // csvload_runs_total{outcome}
	batchDuration prometheus.Histogram   // csvload_batch_duration_seconds
	runDuration   *prometheus.SummaryVec // csvload_run_duration_seconds{outcome}
}

var _ core.Observer = (*Recorder)(nil)

// NewRecorder builds a Recorder with its own registry. Go runtime and
// process collectors are registered alongside the pipeline metrics.
func NewRecorder() (*Recorder, error) {
	reg := prometheus.NewRegistry()

	r := &Recorder{
		reg: reg,
		rowsSkipped: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "csvload_rows_skipped_total",
			Help: "Data rows dropped because their field count did not match the header.",
		}),
		rowsInserted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "csvload_rows_inserted_total",
			Help: "Rows confirmed by the store.",
		}),
		batches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "csvload_batches_total",
			Help: "Insert batches, partitioned by status (ok, failed).",
		}, []string{"status"}),
		runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "csvload_runs_total",
			Help: "Pipeline runs, partitioned by outcome.",
		}, []string{"outcome"}),
		batchDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "csvload_batch_duration_seconds",
			Help:    "Duration of successful insert batches.",
			Buckets: prometheus.ExponentialBuckets(0.005, 2, 12),
		}),
		runDuration: prometheus.NewSummaryVec(prometheus.SummaryOpts{
			Name:       "csvload_run_duration_seconds",
			Help:       "Duration of pipeline runs, partitioned by outcome.",
			Objectives: map[float64]float64{0.5: 0.05, 0.9: 0.01, 0.99: 0.001},
		}, []string{"outcome"}),
	}

	toRegister := map[string]prometheus.Collector{
		"rows skipped":   r.rowsSkipped,
		"rows inserted":  r.rowsInserted,
		"batches":        r.batches,
		"runs":           r.runs,
		"batch duration": r.batchDuration,
		"run duration":   r.runDuration,
		"go":             collectors.NewGoCollector(),
		"process":        collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	}
	for name, c := range toRegister {
		if err := reg.Register(c); err != nil {
			return nil, fmt.Errorf("metrics: register %s: %w", name, err)
		}
	}

	return r, nil
}

// Registry exposes the underlying registry, mainly for tests.
func (r *Recorder) Registry() *prometheus.Registry {
	return r.reg
}

// Handler serves the registry in the Prometheus exposition format.
func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.reg, promhttp.HandlerOpts{Registry: r.reg})
}

func (r *Recorder) RowSkipped(core.RowShapeWarning) {
	r.rowsSkipped.Inc()
}

func (r *Recorder) BatchComplete(out core.InsertOutcome) {
	r.batches.WithLabelValues("ok").Inc()
	r.rowsInserted.Add(float64(out.Inserted))
	r.batchDuration.Observe(out.Duration.Seconds())
}

func (r *Recorder) RunComplete(result core.RunResult, err error) {
	outcome := Outcome(err)
	if outcome == OutcomeSink {
		r.batches.WithLabelValues("failed").Inc()
	}
	r.runs.WithLabelValues(outcome).Inc()
	r.runDuration.WithLabelValues(outcome).Observe(result.Duration.Seconds())
}

// Outcome classifies a run error into a low-cardinality label value.
func Outcome(err error) string {
	var (
		sink       *core.SinkError
		validation *core.ValidationError
		header     *core.HeaderError
		source     *core.SourceUnavailableError
	)
	switch {
	case err == nil:
		return OutcomeSuccess
	case errors.As(err, &sink):
		return OutcomeSink
	case errors.As(err, &validation):
		return OutcomeValidation
	case errors.As(err, &header), errors.Is(err, core.ErrEmptyInput), errors.Is(err, core.ErrNoRecords):
		return OutcomeDecode
	case errors.As(err, &source), errors.Is(err, core.ErrFileTooLarge), errors.Is(err, core.ErrNoSourcePath):
		return OutcomeSource
	case errors.Is(err, core.ErrTooManyRuns):
		return OutcomeBusy
	default:
		return OutcomeOther
	}
}
