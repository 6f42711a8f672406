// Package stats records per-run statistics — phase timings, emitted
// result counts, solver-oracle call counts — as prometheus instruments
// on a local, non-default registry, and renders them to text at exit
// for the CLI's -s/--stats flag. It is grounded in pkg/metrics/
// metrics.go's prometheus.MustRegister idiom, adapted from one global
// default registry (unsuitable for a library: it would force process-
// wide metrics on anyone importing pkg/marco) to a registry owned by
// the Recorder itself. The phase names Time is called with (setup,
// enumerate) match original_source/marco.py's own
// `with stats.time(...)` call sites.
package stats

import (
	"io"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/common/expfmt"
)

// Recorder collects one run's statistics on its own registry, never the
// global default one.
type Recorder struct {
	reg *prometheus.Registry

	phases    *prometheus.HistogramVec
	results   *prometheus.CounterVec
	solverOps *prometheus.CounterVec
}

// NewRecorder builds a Recorder with its instruments registered on a
// fresh, private prometheus.Registry.
func NewRecorder() *Recorder {
	reg := prometheus.NewRegistry()

	phases := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name: "marco_phase_seconds",
		Help: "Wall-clock time spent in each named run phase.",
	}, []string{"phase"})

	results := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "marco_results_total",
		Help: "Extremal subsets emitted, by kind (U or S).",
	}, []string{"kind"})

	solverOps := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "marco_solver_calls_total",
		Help: "Calls made against the Map/Subset solver oracles, by operation.",
	}, []string{"op"})

	reg.MustRegister(phases, results, solverOps)

	return &Recorder{reg: reg, phases: phases, results: results, solverOps: solverOps}
}

// Time runs fn, recording its wall-clock duration under phase
// regardless of whether fn returns an error.
func (r *Recorder) Time(phase string, fn func() error) error {
	start := time.Now()
	err := fn()
	r.phases.WithLabelValues(phase).Observe(time.Since(start).Seconds())
	return err
}

// RecordResult increments the counter for one emitted extremal subset
// of the given kind ("U" or "S").
func (r *Recorder) RecordResult(kind string) {
	r.results.WithLabelValues(kind).Inc()
}

// RecordSolverCall increments the counter for one solver-oracle call
// (check_subset, grow, shrink, next_seed, maximize_seed, find_above,
// block_up, block_down, block_above_size).
func (r *Recorder) RecordSolverCall(op string) {
	r.solverOps.WithLabelValues(op).Inc()
}

// WriteText renders every recorded metric family in the Prometheus text
// exposition format, the shape the CLI's -s flag dumps to stderr.
func (r *Recorder) WriteText(w io.Writer) error {
	mfs, err := r.reg.Gather()
	if err != nil {
		return err
	}
	enc := expfmt.NewEncoder(w, expfmt.FmtText)
	for _, mf := range mfs {
		if err := enc.Encode(mf); err != nil {
			return err
		}
	}
	return nil
}
