package workflows

import (
	"context"
	"fmt"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/tailored-agentic-units/statekit/observability"
	"github.com/tailored-agentic-units/statekit/orchestrate/config"
)

type indexedRecord[R any] struct {
	index  int
	record R
}

type indexedOutcome[R any] struct {
	index  int
	result R
	err    error
}

// InvokeBatch runs wf once for each record on a bounded worker pool. Records
// are independent: no run sees another's output.
//
// The returned BatchResult is populated even when an error is returned.
// Errors end the batch when FailFast is set (remaining work is cancelled) or
// when every record failed; otherwise failures are only reported in
// BatchResult.Errors.
//
//	cfg := config.DefaultBatchConfig()
//	res, err := workflows.InvokeBatch(ctx, cfg, wf, records, nil)
func InvokeBatch[R any](
	ctx context.Context,
	cfg config.BatchConfig,
	wf Workflow[R],
	records []R,
	progress ProgressFunc[R],
) (BatchResult[R], error) {
	observer, err := observability.GetObserver(cfg.Observer)
	if err != nil {
		return BatchResult[R]{}, fmt.Errorf("failed to resolve observer: %w", err)
	}

	source := "workflows.InvokeBatch"
	workers := workerCount(cfg.MaxWorkers, cfg.WorkerCap, len(records))
	if len(records) == 0 {
		workers = 0
	}

	observer.OnEvent(ctx, observability.Event{
		Type:      EventBatchStart,
		Level:     observability.LevelInfo,
		Timestamp: time.Now(),
		Source:    source,
		Data: map[string]any{
			"workflow":     wf.Name(),
			"record_count": len(records),
			"worker_count": workers,
			"fail_fast":    cfg.FailFast(),
		},
	})

	finish := func(res BatchResult[R], err error) (BatchResult[R], error) {
		observer.OnEvent(ctx, observability.Event{
			Type:      EventBatchComplete,
			Level:     observability.LevelInfo,
			Timestamp: time.Now(),
			Source:    source,
			Data: map[string]any{
				"records_processed": len(res.Results),
				"records_failed":    len(res.Errors),
				"error":             err != nil,
			},
		})
		return res, err
	}

	if len(records) == 0 {
		return finish(BatchResult[R]{Results: []R{}, Errors: []RecordError[R]{}}, nil)
	}

	queue := make(chan indexedRecord[R], len(records))
	outcomes := make(chan indexedOutcome[R], len(records))

	runCtx := ctx
	cancel := context.CancelFunc(func() {})
	if cfg.FailFast() {
		runCtx, cancel = context.WithCancel(ctx)
		defer cancel()
	}

	var wg sync.WaitGroup
	var completed atomic.Int32

	for id := range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			w := batchWorker[R]{
				id:        id,
				total:     len(records),
				wf:        wf,
				observer:  observer,
				progress:  progress,
				completed: &completed,
				failFast:  cfg.FailFast(),
				cancel:    cancel,
			}
			w.run(runCtx, queue, outcomes)
		}()
	}

	for i, r := range records {
		queue <- indexedRecord[R]{index: i, record: r}
	}
	close(queue)

	wg.Wait()
	close(outcomes)

	res := collectOutcomes(outcomes, records)

	if err := ctx.Err(); err != nil {
		return finish(res, fmt.Errorf("batch cancelled: %w", err))
	}

	if len(res.Errors) > 0 && (cfg.FailFast() || len(res.Results) == 0) {
		return finish(res, &BatchError[R]{Errors: res.Errors})
	}

	return finish(res, nil)
}

func workerCount(maxWorkers, workerCap, records int) int {
	if maxWorkers > 0 {
		return maxWorkers
	}

	workers := runtime.NumCPU() * 2
	if workerCap > 0 {
		workers = min(workers, workerCap)
	}
	return max(min(workers, records), 1)
}

type batchWorker[R any] struct {
	id        int
	total     int
	wf        Workflow[R]
	observer  observability.Observer
	progress  ProgressFunc[R]
	completed *atomic.Int32
	failFast  bool
	cancel    context.CancelFunc
}

func (w batchWorker[R]) run(ctx context.Context, queue <-chan indexedRecord[R], outcomes chan<- indexedOutcome[R]) {
	for {
		select {
		case <-ctx.Done():
			return
		case work, ok := <-queue:
			if !ok {
				return
			}

			w.observer.OnEvent(ctx, observability.Event{
				Type:      EventWorkerStart,
				Level:     observability.LevelVerbose,
				Timestamp: time.Now(),
				Source:    "workflows.InvokeBatch",
				Data: map[string]any{
					"worker_id":    w.id,
					"record_index": work.index,
				},
			})

			result, err := w.wf.Invoke(ctx, work.record)

			w.observer.OnEvent(ctx, observability.Event{
				Type:      EventWorkerComplete,
				Level:     observability.LevelVerbose,
				Timestamp: time.Now(),
				Source:    "workflows.InvokeBatch",
				Data: map[string]any{
					"worker_id":    w.id,
					"record_index": work.index,
					"error":        err != nil,
				},
			})

			outcomes <- indexedOutcome[R]{index: work.index, result: result, err: err}

			if err != nil {
				if w.failFast {
					w.cancel()
					return
				}
				continue
			}

			if w.progress != nil {
				w.progress(int(w.completed.Add(1)), w.total, result)
			}
		}
	}
}

// collectOutcomes restores input order. Records never picked up after a
// fail-fast cancellation appear in neither slice.
func collectOutcomes[R any](outcomes <-chan indexedOutcome[R], records []R) BatchResult[R] {
	byIndex := make(map[int]indexedOutcome[R], len(records))
	for o := range outcomes {
		byIndex[o.index] = o
	}

	res := BatchResult[R]{
		Results: make([]R, 0, len(byIndex)),
		Errors:  make([]RecordError[R], 0),
	}

	for i := range records {
		o, ok := byIndex[i]
		if !ok {
			continue
		}
		if o.err != nil {
			res.Errors = append(res.Errors, RecordError[R]{Index: i, Record: records[i], Err: o.err})
			continue
		}
		res.Results = append(res.Results, o.result)
	}

	return res
}
