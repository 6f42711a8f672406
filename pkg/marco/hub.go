package marco

import (
	"context"
	"sync"
)

// Worker pairs an Enumerator with the channel the Hub uses to forward
// peer results into it. Each worker owns an independent (SubsetSolver,
// MapSolver) pair; no mutable state is shared between workers.
type Worker struct {
	Name      string
	Enum      *Enumerator
	inbound   chan Result
	// Primary marks the worker whose coverage is, by construction,
	// total: a MUS-biased enumerator running to full solver-level
	// maximisation explores the entire lattice, so once its own Map is
	// UNSAT every MUS and MSS has been produced (spec.md §4.5,
	// "a single Enumerator ... suffices for totality").
	Primary bool
}

// NewWorker constructs a Worker around an Enumerator.
func NewWorker(name string, enum *Enumerator, primary bool) *Worker {
	return &Worker{Name: name, Enum: enum, inbound: make(chan Result, 64), Primary: primary}
}

// workerEvent is what a worker goroutine reports back to the Hub.
type workerEvent struct {
	worker *Worker
	result *Result // nil for a plain completion event
	err    error
}

// Hub runs multiple Enumerators concurrently, deduplicates their
// output, fans results out to every peer so blocks propagate, and
// enforces a global output limit (spec.md §4.5).
type Hub struct {
	workers []*Worker
	limit   int // 0 means unlimited

	mu   sync.Mutex
	seen map[string]struct{}
}

// NewHub constructs a Hub over the given workers. limit <= 0 means no
// output limit.
func NewHub(workers []*Worker, limit int) *Hub {
	return &Hub{
		workers: workers,
		limit:   limit,
		seen:    make(map[string]struct{}),
	}
}

// Run starts every worker and drives the dedup/fan-out loop until
// completion, the limit is reached, or ctx is cancelled (SIGINT/
// SIGTERM/SIGALRM in the CLI). Each unique emitted Result is passed to
// onResult in the order the Hub observes it; onResult's error, if any,
// aborts the run early (but never retracts already-delivered results).
func (h *Hub) Run(ctx context.Context, onResult func(Result) error) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	events := make(chan workerEvent, 64)
	var wg sync.WaitGroup

	for _, w := range h.workers {
		wg.Add(1)
		go func(w *Worker) {
			defer wg.Done()
			err := w.Enum.Run(ctx, w.inbound, func(r Result) error {
				events <- workerEvent{worker: w, result: &r}
				return nil
			})
			events <- workerEvent{worker: w, err: err}
		}(w)
	}

	go func() {
		wg.Wait()
		close(events)
	}()

	done := make(map[*Worker]bool, len(h.workers))
	remaining := h.limit
	limitHit := false
	var runErr error

eventLoop:
	for ev := range events {
		if ev.result != nil {
			if runErr != nil || limitHit {
				continue // draining; a result arrived after we decided to stop
			}
			if h.observe(*ev.result) {
				if err := onResult(*ev.result); err != nil {
					runErr = err
					cancel()
					continue
				}
				h.forward(*ev.result, ev.worker)

				if h.limit > 0 {
					remaining--
					if remaining <= 0 {
						limitHit = true
						cancel()
					}
				}
			}
			continue
		}

		// Completion event: the worker's Seed Manager is exhausted.
		if ev.err != nil && ev.err != context.Canceled {
			if runErr == nil {
				runErr = ev.err
			}
		}
		done[ev.worker] = true

		if ev.worker.Primary && ev.err == nil {
			// "complete": a single MUS-biased, fully-maximised worker
			// exhausting its Map means every MUS/MSS has been found.
			cancel()
			break eventLoop
		}

		if len(done) == len(h.workers) {
			break eventLoop
		}
	}

	// Drain remaining events so worker goroutines never block on a send.
	for range events {
	}
	wg.Wait()

	if runErr != nil {
		return runErr
	}
	return nil
}

// observe reports whether r has not been seen before, recording it as
// seen either way it matters (first call always returns true and
// records it).
func (h *Hub) observe(r Result) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	key := r.Subset.Key()
	if _, ok := h.seen[key]; ok {
		return false
	}
	h.seen[key] = struct{}{}
	return true
}

// forward delivers r to every worker other than the one that produced
// it, so each peer injects the block into its own Map before drawing
// its next seed.
func (h *Hub) forward(r Result, from *Worker) {
	for _, w := range h.workers {
		if w == from {
			continue
		}
		select {
		case w.inbound <- r:
		default:
			// Peer's inbound buffer is full; it will discover this
			// subset is already blocked (or re-derive the same block)
			// on its own next check_subset/shrink/grow pass, so
			// dropping here cannot violate correctness, only defer a
			// dedup win.
		}
	}
}
