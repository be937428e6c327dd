package workflows

import (
	"context"
	"fmt"
	"time"

	"github.com/tailored-agentic-units/statekit/observability"
	"github.com/tailored-agentic-units/statekit/orchestrate/config"
)

// ProgressFunc is called after each successful run with the number of runs
// completed so far, the total, and the record just produced.
type ProgressFunc[R any] func(completed, total int, r R)

// RepeatResult holds the outcome of Repeat. Intermediate is only populated
// when RepeatConfig.CaptureIntermediate is set; it starts with the initial
// record.
type RepeatResult[R any] struct {
	Final        R
	Intermediate []R
	Runs         int
}

// Repeat invokes wf times times, feeding each run the record produced by the
// previous one. Runs are not idempotent, so Repeat on a basic workflow adds
// times to Count.
//
// On failure the result holds the last good record in Final and the error is
// a *RepeatError.
func Repeat[R any](
	ctx context.Context,
	cfg config.RepeatConfig,
	wf Workflow[R],
	initial R,
	times int,
	progress ProgressFunc[R],
) (RepeatResult[R], error) {
	observer, err := observability.GetObserver(cfg.Observer)
	if err != nil {
		return RepeatResult[R]{}, fmt.Errorf("failed to resolve observer: %w", err)
	}
	if times < 0 {
		return RepeatResult[R]{}, fmt.Errorf("times must not be negative, got %d", times)
	}

	source := "workflows.Repeat"

	observer.OnEvent(ctx, observability.Event{
		Type:      EventRepeatStart,
		Level:     observability.LevelInfo,
		Timestamp: time.Now(),
		Source:    source,
		Data: map[string]any{
			"workflow":             wf.Name(),
			"times":                times,
			"capture_intermediate": cfg.CaptureIntermediate,
		},
	})

	complete := func(runs int, failure string) {
		data := map[string]any{
			"runs_completed": runs,
			"error":          failure != "",
		}
		if failure != "" {
			data["error_type"] = failure
		}
		observer.OnEvent(ctx, observability.Event{
			Type:      EventRepeatComplete,
			Level:     observability.LevelInfo,
			Timestamp: time.Now(),
			Source:    source,
			Data:      data,
		})
	}

	result := RepeatResult[R]{Final: initial}
	if cfg.CaptureIntermediate {
		result.Intermediate = make([]R, 0, times+1)
		result.Intermediate = append(result.Intermediate, initial)
	}

	current := initial
	for run := range times {
		if err := ctx.Err(); err != nil {
			complete(run, "cancellation")
			return result, &RepeatError[R]{
				Run:    run,
				Record: current,
				Err:    fmt.Errorf("repeat cancelled: %w", err),
			}
		}

		observer.OnEvent(ctx, observability.Event{
			Type:      EventRunStart,
			Level:     observability.LevelVerbose,
			Timestamp: time.Now(),
			Source:    source,
			Data:      map[string]any{"run": run, "total_runs": times},
		})

		next, err := wf.Invoke(ctx, current)

		observer.OnEvent(ctx, observability.Event{
			Type:      EventRunComplete,
			Level:     observability.LevelVerbose,
			Timestamp: time.Now(),
			Source:    source,
			Data:      map[string]any{"run": run, "total_runs": times, "error": err != nil},
		})

		if err != nil {
			complete(run, "workflow")
			return result, &RepeatError[R]{Run: run, Record: current, Err: err}
		}

		current = next
		result.Final = current
		result.Runs = run + 1
		if cfg.CaptureIntermediate {
			result.Intermediate = append(result.Intermediate, current)
		}

		if progress != nil {
			progress(run+1, times, current)
		}
	}

	complete(result.Runs, "")
	return result, nil
}
