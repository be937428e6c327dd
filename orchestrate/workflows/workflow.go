package workflows

import (
	"context"
	"fmt"
	"time"

	"github.com/randalmurphal/flowgraph/pkg/flowgraph"
	"github.com/tailored-agentic-units/statekit/observability"
	"github.com/tailored-agentic-units/statekit/orchestrate/config"
	"github.com/tailored-agentic-units/statekit/orchestrate/state"
	"github.com/tailored-agentic-units/statekit/record"
)

// Workflow is a compiled single-step graph over a record type R. Invoke runs
// the graph once and returns the successor record; the argument is never
// modified.
type Workflow[R any] interface {
	Name() string
	Engine() string
	Invoke(ctx context.Context, r R) (R, error)
}

// Option overrides a dependency that would otherwise be resolved from
// configuration.
type Option func(*options)

type options struct {
	observer observability.Observer
	store    state.CheckpointStore
}

// WithObserver replaces the observer named by the graph configuration.
func WithObserver(o observability.Observer) Option {
	return func(opts *options) { opts.observer = o }
}

// WithCheckpointStore replaces the checkpoint store described by the graph
// configuration. It only takes effect on the state engine with a positive
// checkpoint interval.
func WithCheckpointStore(s state.CheckpointStore) Option {
	return func(opts *options) { opts.store = s }
}

// binding describes how a record type moves through the two engines.
type binding[R any] struct {
	node      string
	next      func(R) R
	step      func(R) state.Update
	apply     func(R, state.State) state.State
	fromState func(state.State) (R, error)
}

var basicBinding = binding[record.Basic]{
	node:      NodeIncrement,
	next:      NextBasic,
	step:      BasicStep,
	apply:     record.Basic.Apply,
	fromState: record.BasicFromState,
}

var complexBinding = binding[record.Complex]{
	node:      NodeRespond,
	next:      NextComplex,
	step:      ComplexStep,
	apply:     record.Complex.Apply,
	fromState: record.ComplexFromState,
}

// NewBasic compiles the basic workflow: a single node that increments Count.
//
//	wf, err := workflows.NewBasic(config.DefaultWorkflowConfig("basic"))
//	out, err := wf.Invoke(ctx, record.Basic{Count: 0}) // out.Count == 1
func NewBasic(cfg config.WorkflowConfig, opts ...Option) (Workflow[record.Basic], error) {
	return newWorkflow(cfg, basicBinding, opts)
}

// NewComplex compiles the complex workflow: a single node that increments
// Count and appends an assistant reply quoting the last message.
func NewComplex(cfg config.WorkflowConfig, opts ...Option) (Workflow[record.Complex], error) {
	return newWorkflow(cfg, complexBinding, opts)
}

type workflow[R any] struct {
	name     string
	engine   string
	observer observability.Observer
	run      func(ctx context.Context, r R) (R, error)
}

func newWorkflow[R any](cfg config.WorkflowConfig, b binding[R], opts []Option) (*workflow[R], error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid workflow config: %w", err)
	}

	var o options
	for _, opt := range opts {
		opt(&o)
	}

	if o.observer == nil {
		observer, err := observability.GetObserver(cfg.Graph.Observer)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve observer: %w", err)
		}
		o.observer = observer
	}

	wf := &workflow[R]{
		name:     cfg.Graph.Name,
		engine:   cfg.Engine,
		observer: o.observer,
	}

	var err error
	switch cfg.Engine {
	case config.EngineFlowgraph:
		wf.run, err = compileFlowgraph(b)
	default:
		wf.run, err = compileState(cfg.Graph, b, o)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to compile workflow %s: %w", cfg.Graph.Name, err)
	}

	return wf, nil
}

func compileState[R any](cfg config.GraphConfig, b binding[R], o options) (func(context.Context, R) (R, error), error) {
	store := o.store
	if store == nil && cfg.Checkpoint.Interval > 0 {
		var err error
		store, err = state.NewCheckpointStore(cfg.Checkpoint)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve checkpoint store: %w", err)
		}
	}

	graph, err := state.NewGraphWithDeps(cfg, o.observer, store)
	if err != nil {
		return nil, err
	}

	node := state.NewStepNode(func(ctx context.Context, s state.State) (state.Update, error) {
		r, err := b.fromState(s)
		if err != nil {
			return nil, err
		}
		return b.step(r), nil
	})

	if err := graph.AddNode(b.node, node); err != nil {
		return nil, err
	}
	if err := graph.SetEntryPoint(b.node); err != nil {
		return nil, err
	}
	if err := graph.AddEdge(b.node, state.End, nil); err != nil {
		return nil, err
	}

	compiled, err := graph.Compile()
	if err != nil {
		return nil, err
	}

	return func(ctx context.Context, r R) (R, error) {
		result, err := compiled.Invoke(ctx, b.apply(r, state.New(o.observer)))
		if err != nil {
			var zero R
			return zero, err
		}
		return b.fromState(result)
	}, nil
}

func compileFlowgraph[R any](b binding[R]) (func(context.Context, R) (R, error), error) {
	graph := flowgraph.NewGraph[R]().
		AddNode(b.node, func(ctx flowgraph.Context, r R) (R, error) {
			return b.next(r), nil
		}).
		AddEdge(b.node, flowgraph.END).
		SetEntry(b.node)

	compiled, err := graph.Compile()
	if err != nil {
		return nil, err
	}

	return func(ctx context.Context, r R) (R, error) {
		if err := ctx.Err(); err != nil {
			var zero R
			return zero, err
		}
		return compiled.Run(flowgraph.NewContext(ctx), r)
	}, nil
}

func (w *workflow[R]) Name() string {
	return w.name
}

func (w *workflow[R]) Engine() string {
	return w.engine
}

func (w *workflow[R]) Invoke(ctx context.Context, r R) (R, error) {
	start := time.Now()

	w.observer.OnEvent(ctx, observability.Event{
		Type:      EventWorkflowStart,
		Level:     observability.LevelInfo,
		Timestamp: start,
		Source:    w.name,
		Data: map[string]any{
			"engine": w.engine,
		},
	})

	result, err := w.run(ctx, r)

	w.observer.OnEvent(ctx, observability.Event{
		Type:      EventWorkflowComplete,
		Level:     observability.LevelInfo,
		Timestamp: time.Now(),
		Source:    w.name,
		Data: map[string]any{
			"engine":   w.engine,
			"duration": time.Since(start).String(),
			"error":    err != nil,
		},
	})

	if err != nil {
		var zero R
		return zero, &WorkflowError[R]{
			Workflow: w.name,
			Engine:   w.engine,
			Record:   r,
			Err:      err,
		}
	}
	return result, nil
}
