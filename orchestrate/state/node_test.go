package state_test

import (
	"context"
	"errors"
	"testing"

	"github.com/tailored-agentic-units/statekit/orchestrate/state"
)

func TestFunctionNode_Execute(t *testing.T) {
	node := state.NewFunctionNode(func(ctx context.Context, s state.State) (state.State, error) {
		return s.Set("visited", true), nil
	})

	result, err := node.Execute(context.Background(), state.New(nil))
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if v, _ := result.Get("visited"); v != true {
		t.Error("FunctionNode did not return the function's state")
	}
}

func TestStepNode_Execute(t *testing.T) {
	node := state.NewStepNode(func(ctx context.Context, s state.State) (state.Update, error) {
		count, _ := s.Get("count")
		return state.Update{"count": count.(int) + 1}, nil
	})

	input := state.New(nil).Set("count", 0).Set("label", "kept")

	result, err := node.Execute(context.Background(), input)
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}

	if v, _ := result.Get("count"); v != 1 {
		t.Errorf("count = %v, want 1", v)
	}
	if v, _ := result.Get("label"); v != "kept" {
		t.Errorf("label = %v, untouched keys should survive the update", v)
	}
	if v, _ := input.Get("count"); v != 0 {
		t.Error("StepNode modified its input state")
	}
}

func TestStepNode_Error(t *testing.T) {
	wantErr := errors.New("boom")
	node := state.NewStepNode(func(ctx context.Context, s state.State) (state.Update, error) {
		return state.Update{"count": 99}, wantErr
	})

	input := state.New(nil).Set("count", 0)
	result, err := node.Execute(context.Background(), input)

	if !errors.Is(err, wantErr) {
		t.Fatalf("error = %v, want %v", err, wantErr)
	}
	if v, _ := result.Get("count"); v != 0 {
		t.Error("a failed step must not apply its update")
	}
}
