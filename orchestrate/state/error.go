package state

import (
	"errors"
	"fmt"
)

// Sentinel errors for graph construction and checkpointing.
var (
	ErrInvalidGraph       = errors.New("invalid graph")
	ErrCheckpointNotFound = errors.New("checkpoint not found")
	ErrCheckpointDisabled = errors.New("checkpointing not enabled")
)

// ExecutionError describes a failed graph run: the node being executed, the
// State it received, and the path walked so far.
type ExecutionError struct {
	NodeName string
	State    State
	Path     []string
	Err      error
}

func (e *ExecutionError) Error() string {
	return fmt.Sprintf("execution failed at node %s: %v", e.NodeName, e.Err)
}

func (e *ExecutionError) Unwrap() error {
	return e.Err
}
