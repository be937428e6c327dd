package state

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"time"

	"github.com/google/uuid"
	"github.com/tailored-agentic-units/statekit/observability"
	"github.com/tailored-agentic-units/statekit/orchestrate/config"
)

// StateGraph assembles nodes and edges into a workflow definition. A
// StateGraph is not executable; Compile validates it and returns a
// CompiledGraph.
//
//	graph, err := state.NewGraph(cfg)
//	graph.AddNode("increment", node)
//	graph.SetEntryPoint("increment")
//	graph.AddEdge("increment", state.End, nil)
//	compiled, err := graph.Compile()
//	result, err := compiled.Invoke(ctx, initial)
type StateGraph interface {
	// Name returns the graph identifier used as event source.
	Name() string

	// AddNode registers a named step.
	AddNode(name string, node StateNode) error

	// AddEdge connects two nodes, or a node to End. predicate may be nil.
	AddEdge(from, to string, predicate TransitionPredicate) error

	// SetEntryPoint designates the first node executed.
	SetEntryPoint(node string) error

	// SetExitPoint marks a node after which execution stops.
	SetExitPoint(node string) error

	// Validate checks the topology without compiling.
	Validate() error

	// Compile validates the graph and freezes it into an executable form.
	Compile() (*CompiledGraph, error)
}

type stateGraph struct {
	name       string
	nodes      map[string]StateNode
	edges      map[string][]Edge
	entryPoint string
	exitPoints map[string]bool

	maxIterations       int
	observer            observability.Observer
	checkpointStore     CheckpointStore
	checkpointInterval  int
	preserveCheckpoints bool
}

// NewGraph creates an empty graph from configuration. The observer and, when
// checkpointing is enabled, the checkpoint store are resolved by name.
func NewGraph(cfg config.GraphConfig) (StateGraph, error) {
	observer, err := observability.GetObserver(cfg.Observer)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve observer: %w", err)
	}

	var store CheckpointStore
	if cfg.Checkpoint.Interval > 0 {
		store, err = NewCheckpointStore(cfg.Checkpoint)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve checkpoint store: %w", err)
		}
	}

	return NewGraphWithDeps(cfg, observer, store)
}

// NewGraphWithDeps creates an empty graph using the supplied observer and
// checkpoint store instead of registry lookups. A nil store disables
// checkpointing regardless of cfg.Checkpoint.Interval.
func NewGraphWithDeps(cfg config.GraphConfig, observer observability.Observer, store CheckpointStore) (StateGraph, error) {
	if observer == nil {
		observer = observability.NoOpObserver{}
	}

	if cfg.MaxIterations <= 0 {
		return nil, fmt.Errorf("%w: max iterations must be positive, got %d", ErrInvalidGraph, cfg.MaxIterations)
	}

	interval := cfg.Checkpoint.Interval
	if store == nil {
		interval = 0
	}

	return &stateGraph{
		name:                cfg.Name,
		nodes:               make(map[string]StateNode),
		edges:               make(map[string][]Edge),
		exitPoints:          make(map[string]bool),
		maxIterations:       cfg.MaxIterations,
		observer:            observer,
		checkpointStore:     store,
		checkpointInterval:  interval,
		preserveCheckpoints: cfg.Checkpoint.Preserve,
	}, nil
}

func (g *stateGraph) Name() string {
	return g.name
}

// AddNode rejects empty names, nil nodes, duplicates and the reserved End
// name.
func (g *stateGraph) AddNode(name string, node StateNode) error {
	if name == "" {
		return fmt.Errorf("node name cannot be empty")
	}

	if name == End {
		return fmt.Errorf("node name %s is reserved", End)
	}

	if node == nil {
		return fmt.Errorf("node cannot be nil")
	}

	if _, exists := g.nodes[name]; exists {
		return fmt.Errorf("node %s already exists", name)
	}

	g.nodes[name] = node
	return nil
}

// AddEdge requires both endpoints to exist, except that to may be End.
// Edges from the same node are evaluated in insertion order.
func (g *stateGraph) AddEdge(from, to string, predicate TransitionPredicate) error {
	if from == "" {
		return fmt.Errorf("from node cannot be empty")
	}

	if to == "" {
		return fmt.Errorf("to node cannot be empty")
	}

	if _, exists := g.nodes[from]; !exists {
		return fmt.Errorf("from node %s does not exist", from)
	}

	if _, exists := g.nodes[to]; !exists && to != End {
		return fmt.Errorf("to node %s does not exist", to)
	}

	g.edges[from] = append(g.edges[from], Edge{
		From:      from,
		To:        to,
		Predicate: predicate,
	})
	return nil
}

// SetEntryPoint may be called once.
func (g *stateGraph) SetEntryPoint(node string) error {
	if node == "" {
		return fmt.Errorf("entry point cannot be empty")
	}

	if g.entryPoint != "" {
		return fmt.Errorf("entry point already set to %s", g.entryPoint)
	}

	if _, exists := g.nodes[node]; !exists {
		return fmt.Errorf("entry point node %s does not exist", node)
	}

	g.entryPoint = node
	return nil
}

// SetExitPoint may be called for several nodes.
func (g *stateGraph) SetExitPoint(node string) error {
	if node == "" {
		return fmt.Errorf("exit point cannot be empty")
	}

	if _, exists := g.nodes[node]; !exists {
		return fmt.Errorf("exit point node %s does not exist", node)
	}

	g.exitPoints[node] = true
	return nil
}

// Validate requires at least one node, an existing entry point, and a way
// to terminate: an exit point or an edge into End.
func (g *stateGraph) Validate() error {
	if len(g.nodes) == 0 {
		return fmt.Errorf("%w: graph has no nodes", ErrInvalidGraph)
	}

	if g.entryPoint == "" {
		return fmt.Errorf("%w: entry point not set", ErrInvalidGraph)
	}

	if _, exists := g.nodes[g.entryPoint]; !exists {
		return fmt.Errorf("%w: entry point %s does not exist", ErrInvalidGraph, g.entryPoint)
	}

	for exitPoint := range g.exitPoints {
		if _, exists := g.nodes[exitPoint]; !exists {
			return fmt.Errorf("%w: exit point %s does not exist", ErrInvalidGraph, exitPoint)
		}
	}

	if len(g.exitPoints) == 0 && !g.reachesEnd() {
		return fmt.Errorf("%w: no exit points set and no edge leads to %s", ErrInvalidGraph, End)
	}

	return nil
}

func (g *stateGraph) reachesEnd() bool {
	for _, edges := range g.edges {
		for _, edge := range edges {
			if edge.Terminal() {
				return true
			}
		}
	}
	return false
}

// Compile snapshots the topology. Nodes or edges added to the StateGraph
// afterwards do not affect the returned CompiledGraph.
func (g *stateGraph) Compile() (*CompiledGraph, error) {
	if err := g.Validate(); err != nil {
		return nil, fmt.Errorf("graph validation failed: %w", err)
	}

	edges := make(map[string][]Edge, len(g.edges))
	for from, list := range g.edges {
		edges[from] = slices.Clone(list)
	}

	compiled := &CompiledGraph{
		name:                g.name,
		nodes:               maps.Clone(g.nodes),
		edges:               edges,
		entryPoint:          g.entryPoint,
		exitPoints:          maps.Clone(g.exitPoints),
		maxIterations:       g.maxIterations,
		observer:            g.observer,
		checkpointStore:     g.checkpointStore,
		checkpointInterval:  g.checkpointInterval,
		preserveCheckpoints: g.preserveCheckpoints,
	}

	g.observer.OnEvent(context.Background(), observability.Event{
		Type:      EventGraphCompile,
		Level:     observability.LevelVerbose,
		Timestamp: time.Now(),
		Source:    g.name,
		Data: map[string]any{
			"nodes":       len(compiled.nodes),
			"entry_point": compiled.entryPoint,
		},
	})

	return compiled, nil
}

// CompiledGraph is an executable, immutable graph. It is safe for
// concurrent Invoke calls as long as its nodes are.
type CompiledGraph struct {
	name       string
	nodes      map[string]StateNode
	edges      map[string][]Edge
	entryPoint string
	exitPoints map[string]bool

	maxIterations       int
	observer            observability.Observer
	checkpointStore     CheckpointStore
	checkpointInterval  int
	preserveCheckpoints bool
}

// Name returns the graph identifier.
func (g *CompiledGraph) Name() string {
	return g.name
}

// EntryPoint returns the first node executed by Invoke.
func (g *CompiledGraph) EntryPoint() string {
	return g.entryPoint
}

// Nodes returns the registered node names in sorted order.
func (g *CompiledGraph) Nodes() []string {
	return slices.Sorted(maps.Keys(g.nodes))
}

// Invoke runs the graph from its entry point against initial and returns the
// final State.
//
// Each iteration checks the context, executes the current node, records the
// node as the checkpoint position, saves a checkpoint when due, and then
// either stops (exit point, or first matching edge leads to End) or moves to
// the first matching edge's target. Failures are returned as
// *ExecutionError together with the last good State.
func (g *CompiledGraph) Invoke(ctx context.Context, initial State) (State, error) {
	return g.execute(ctx, g.entryPoint, g.prepare(initial))
}

// Resume loads the checkpoint saved for runID and continues from the node
// after the checkpoint position.
func (g *CompiledGraph) Resume(ctx context.Context, runID string) (State, error) {
	if g.checkpointStore == nil {
		return State{}, ErrCheckpointDisabled
	}

	saved, err := g.checkpointStore.Load(runID)
	if err != nil {
		return State{}, fmt.Errorf("failed to load checkpoint: %w", err)
	}
	saved = g.prepare(saved)

	g.observer.OnEvent(ctx, observability.Event{
		Type:      EventCheckpointLoad,
		Level:     observability.LevelInfo,
		Timestamp: time.Now(),
		Source:    g.name,
		Data: map[string]any{
			"node":   saved.CheckpointNode,
			"run_id": runID,
		},
	})

	nextNode, err := g.findNextNode(saved.CheckpointNode, saved)
	if err != nil {
		return State{}, fmt.Errorf("failed to find next node after checkpoint: %w", err)
	}

	g.observer.OnEvent(ctx, observability.Event{
		Type:      EventCheckpointResume,
		Level:     observability.LevelInfo,
		Timestamp: time.Now(),
		Source:    g.name,
		Data: map[string]any{
			"checkpoint_node": saved.CheckpointNode,
			"resume_node":     nextNode,
			"run_id":          runID,
		},
	})

	return g.execute(ctx, nextNode, saved)
}

// prepare fills in what a hand-built or decoded State may lack.
func (g *CompiledGraph) prepare(s State) State {
	if s.Observer == nil {
		s = s.WithObserver(g.observer)
	}
	if s.RunID == "" {
		s.RunID = uuid.New().String()
	}
	if s.Data == nil {
		s.Data = make(map[string]any)
	}
	if s.Secrets == nil {
		s.Secrets = make(map[string]any)
	}
	return s
}

func (g *CompiledGraph) execute(ctx context.Context, startNode string, initial State) (State, error) {
	g.observer.OnEvent(ctx, observability.Event{
		Type:      EventGraphStart,
		Level:     observability.LevelInfo,
		Timestamp: time.Now(),
		Source:    g.name,
		Data: map[string]any{
			"entry_point": startNode,
			"run_id":      initial.RunID,
			"exit_points": len(g.exitPoints),
		},
	})

	current := startNode
	state := initial
	iterations := 0
	visited := make(map[string]int)
	path := make([]string, 0, min(g.maxIterations, 16))

	fail := func(err error) (State, error) {
		return state, &ExecutionError{
			NodeName: current,
			State:    state,
			Path:     slices.Clone(path),
			Err:      err,
		}
	}

	for {
		if err := ctx.Err(); err != nil {
			return fail(fmt.Errorf("execution cancelled: %w", err))
		}

		iterations++
		if iterations > g.maxIterations {
			return fail(fmt.Errorf("max iterations (%d) exceeded", g.maxIterations))
		}

		visited[current]++
		path = append(path, current)

		if visited[current] > 1 {
			g.observer.OnEvent(ctx, observability.Event{
				Type:      EventCycleDetected,
				Level:     observability.LevelWarning,
				Timestamp: time.Now(),
				Source:    g.name,
				Data: map[string]any{
					"node":        current,
					"visit_count": visited[current],
					"iteration":   iterations,
				},
			})
		}

		node, exists := g.nodes[current]
		if !exists {
			return fail(fmt.Errorf("node %s not found", current))
		}

		g.observer.OnEvent(ctx, observability.Event{
			Type:      EventNodeStart,
			Level:     observability.LevelVerbose,
			Timestamp: time.Now(),
			Source:    g.name,
			Data: map[string]any{
				"node":      current,
				"iteration": iterations,
			},
		})

		newState, err := node.Execute(ctx, state)

		g.observer.OnEvent(ctx, observability.Event{
			Type:      EventNodeComplete,
			Level:     observability.LevelVerbose,
			Timestamp: time.Now(),
			Source:    g.name,
			Data: map[string]any{
				"node":      current,
				"iteration": iterations,
				"error":     err != nil,
			},
		})

		if err != nil {
			return fail(fmt.Errorf("node execution failed: %w", err))
		}

		g.observer.OnEvent(ctx, observability.Event{
			Type:      EventNodeState,
			Level:     observability.LevelVerbose,
			Timestamp: time.Now(),
			Source:    g.name,
			Data: map[string]any{
				"node":        current,
				"input_keys":  state.Keys(),
				"output_keys": newState.Keys(),
			},
		})

		state = newState.SetCheckpointNode(current)

		if g.checkpointInterval > 0 && iterations%g.checkpointInterval == 0 {
			if err := state.Checkpoint(g.checkpointStore); err != nil {
				return fail(fmt.Errorf("checkpoint save failed: %w", err))
			}

			g.observer.OnEvent(ctx, observability.Event{
				Type:      EventCheckpointSave,
				Level:     observability.LevelInfo,
				Timestamp: time.Now(),
				Source:    g.name,
				Data: map[string]any{
					"node":   current,
					"run_id": state.RunID,
				},
			})
		}

		if g.exitPoints[current] {
			return g.complete(ctx, state, current, iterations), nil
		}

		edges, hasEdges := g.edges[current]
		if !hasEdges {
			return fail(fmt.Errorf("node %s has no outgoing edges and is not an exit point", current))
		}

		nextNode := ""
		for i, edge := range edges {
			g.observer.OnEvent(ctx, observability.Event{
				Type:      EventEdgeEvaluate,
				Level:     observability.LevelVerbose,
				Timestamp: time.Now(),
				Source:    g.name,
				Data: map[string]any{
					"from":          edge.From,
					"to":            edge.To,
					"edge_index":    i,
					"has_predicate": edge.Predicate != nil,
				},
			})

			if edge.matches(state) {
				nextNode = edge.To

				g.observer.OnEvent(ctx, observability.Event{
					Type:      EventEdgeTransition,
					Level:     observability.LevelVerbose,
					Timestamp: time.Now(),
					Source:    g.name,
					Data: map[string]any{
						"from":           edge.From,
						"to":             edge.To,
						"edge_index":     i,
						"predicate_name": edge.Name,
					},
				})

				break
			}
		}

		if nextNode == "" {
			return fail(fmt.Errorf("no valid transition from node %s", current))
		}

		if nextNode == End {
			return g.complete(ctx, state, current, iterations), nil
		}

		current = nextNode
	}
}

func (g *CompiledGraph) complete(ctx context.Context, state State, last string, iterations int) State {
	g.observer.OnEvent(ctx, observability.Event{
		Type:      EventGraphComplete,
		Level:     observability.LevelInfo,
		Timestamp: time.Now(),
		Source:    g.name,
		Data: map[string]any{
			"exit_point": last,
			"iterations": iterations,
			"run_id":     state.RunID,
		},
	})

	if !g.preserveCheckpoints && g.checkpointInterval > 0 {
		g.checkpointStore.Delete(state.RunID)
	}

	return state
}

// findNextNode picks the node that follows a checkpoint position.
func (g *CompiledGraph) findNextNode(fromNode string, state State) (string, error) {
	if g.exitPoints[fromNode] {
		return "", fmt.Errorf("checkpoint was at exit point %s, execution already complete", fromNode)
	}

	edges, hasEdges := g.edges[fromNode]
	if !hasEdges {
		return "", fmt.Errorf("no outgoing edges from checkpoint node: %s", fromNode)
	}

	for _, edge := range edges {
		if !edge.matches(state) {
			continue
		}
		if edge.Terminal() {
			return "", fmt.Errorf("checkpoint node %s leads to %s, execution already complete", fromNode, End)
		}
		return edge.To, nil
	}

	return "", fmt.Errorf("no valid edge transition from checkpoint node: %s", fromNode)
}
