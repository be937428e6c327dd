// Package state is a small LangGraph-style graph engine over immutable
// keyed state.
//
// A State is a map[string]any bundle that is never modified in place. A
// StateGraph registers named nodes, designates an entry point, and connects
// nodes to each other or to the End marker. Compile validates the topology
// and returns a CompiledGraph whose Invoke walks from the entry point to a
// terminal node.
//
//	graph, _ := state.NewGraph(config.DefaultGraphConfig("basic"))
//	graph.AddNode("increment", state.NewStepNode(func(ctx context.Context, s state.State) (state.Update, error) {
//	    count, _ := s.Get("count")
//	    return state.Update{"count": count.(int) + 1}, nil
//	}))
//	graph.SetEntryPoint("increment")
//	graph.AddEdge("increment", state.End, nil)
//
//	compiled, _ := graph.Compile()
//	final, _ := compiled.Invoke(ctx, state.New(nil).Set("count", 0))
//	// final.Get("count") == 1
//
// # Updates
//
// Nodes built with NewStepNode return a partial Update. The engine applies
// it by overwriting the named keys of the running State; there are no
// per-key reducers, so a node that extends a list returns the whole list.
//
// # Checkpoints
//
// With CheckpointConfig.Interval > 0 the graph saves the State after every
// Interval node executions. Stores are resolved by name ("memory", or
// "file" with a Codec: json, msgpack or proto). CompiledGraph.Resume picks
// a failed run back up from the node after its last checkpoint.
//
// # Observability
//
// State operations and graph execution emit observability events. Graph
// lifecycle events are Info level; per-node and per-state events are
// Verbose.
package state
