package state

import "context"

// StateNode is a single step of a graph. It receives the running State and
// returns the State the graph continues with.
type StateNode interface {
	Execute(ctx context.Context, state State) (State, error)
}

// FunctionNode adapts a full-state function to StateNode.
type FunctionNode struct {
	fn func(ctx context.Context, state State) (State, error)
}

// NewFunctionNode wraps fn as a StateNode. fn owns the whole State and
// returns its replacement.
func NewFunctionNode(fn func(context.Context, State) (State, error)) StateNode {
	return &FunctionNode{fn: fn}
}

func (n *FunctionNode) Execute(ctx context.Context, state State) (State, error) {
	return n.fn(ctx, state)
}

// StepNode adapts a partial-update function to StateNode. The returned
// Update is applied to the incoming State by overwriting the named keys.
type StepNode struct {
	fn func(ctx context.Context, state State) (Update, error)
}

// NewStepNode wraps fn as a StateNode.
//
//	node := state.NewStepNode(func(ctx context.Context, s state.State) (state.Update, error) {
//	    count, _ := s.Get("count")
//	    return state.Update{"count": count.(int) + 1}, nil
//	})
func NewStepNode(fn func(context.Context, State) (Update, error)) StateNode {
	return &StepNode{fn: fn}
}

func (n *StepNode) Execute(ctx context.Context, state State) (State, error) {
	update, err := n.fn(ctx, state)
	if err != nil {
		return state, err
	}
	return state.Apply(update), nil
}
