package state

import (
	"context"
	"maps"
	"slices"
	"time"

	"github.com/google/uuid"
	"github.com/tailored-agentic-units/statekit/observability"
)

// State is the immutable keyed value bundle that flows through a graph.
//
// Every modifying method returns a new State; the receiver is never changed.
// Data is persisted by checkpoint stores and visible to observers. Secrets
// are neither persisted nor observed.
//
// RunID, CheckpointNode and Timestamp identify the execution a State belongs
// to and the last node that completed against it.
type State struct {
	Data           map[string]any         `json:"data"`
	Secrets        map[string]any         `json:"-"`
	Observer       observability.Observer `json:"-"`
	RunID          string                 `json:"run_id"`
	CheckpointNode string                 `json:"checkpoint_node"`
	Timestamp      time.Time              `json:"timestamp"`
}

// Update is the partial result of a step. Each key replaces the value
// already held by the running State; keys absent from the Update are kept.
type Update map[string]any

// New creates an empty State with a fresh RunID. A nil observer is replaced
// by observability.NoOpObserver.
func New(observer observability.Observer) State {
	if observer == nil {
		observer = observability.NoOpObserver{}
	}

	s := State{
		Data:      make(map[string]any),
		Secrets:   make(map[string]any),
		Observer:  observer,
		RunID:     uuid.New().String(),
		Timestamp: time.Now(),
	}

	s.emit(EventStateCreate, map[string]any{})
	return s
}

// Clone returns a State with its own Data and Secrets maps. Values inside
// the maps are shared (shallow copy).
func (s State) Clone() State {
	newState := State{
		Data:           maps.Clone(s.Data),
		Secrets:        maps.Clone(s.Secrets),
		Observer:       s.Observer,
		RunID:          s.RunID,
		CheckpointNode: s.CheckpointNode,
		Timestamp:      s.Timestamp,
	}
	if newState.Data == nil {
		newState.Data = make(map[string]any)
	}
	if newState.Secrets == nil {
		newState.Secrets = make(map[string]any)
	}

	s.emit(EventStateClone, map[string]any{"keys": len(newState.Data)})
	return newState
}

// Get returns the value stored under key.
func (s State) Get(key string) (any, bool) {
	val, exists := s.Data[key]
	return val, exists
}

// Keys returns the data keys in sorted order.
func (s State) Keys() []string {
	return slices.Sorted(maps.Keys(s.Data))
}

// Set returns a new State with key bound to value.
//
//	s1 := state.New(observer)
//	s2 := s1.Set("count", 0)
//	s3 := s2.Set("count", 1)
//	// s2 still holds 0
func (s State) Set(key string, value any) State {
	newState := s.Clone()
	newState.Data[key] = value

	s.emit(EventStateSet, map[string]any{"key": key})
	return newState
}

// Merge returns a new State holding the receiver's data overlaid with
// other's. Keys present in both take other's value.
func (s State) Merge(other State) State {
	newState := s.Clone()
	maps.Copy(newState.Data, other.Data)

	s.emit(EventStateMerge, map[string]any{"keys": len(other.Data)})
	return newState
}

// Apply returns a new State with every key of update written over the
// receiver's data. An empty update yields an unchanged copy.
func (s State) Apply(update Update) State {
	newState := s.Clone()
	maps.Copy(newState.Data, update)

	s.emit(EventStateUpdate, map[string]any{"keys": slices.Sorted(maps.Keys(update))})
	return newState
}

// SetCheckpointNode records node as the last completed node and refreshes
// the timestamp.
func (s State) SetCheckpointNode(node string) State {
	newState := s.Clone()
	newState.CheckpointNode = node
	newState.Timestamp = time.Now()
	return newState
}

// Checkpoint persists the State to store.
func (s State) Checkpoint(store CheckpointStore) error {
	return store.Save(s)
}

// GetSecret returns the secret stored under key.
func (s State) GetSecret(key string) (any, bool) {
	val, exists := s.Secrets[key]
	return val, exists
}

// SetSecret returns a new State with the secret bound. No event is emitted.
func (s State) SetSecret(key string, value any) State {
	state := s.Clone()
	state.Secrets[key] = value
	return state
}

// DeleteSecret returns a new State without the named secret.
func (s State) DeleteSecret(key string) State {
	state := s.Clone()
	delete(state.Secrets, key)
	return state
}

// WithObserver returns a copy of the State reporting to observer. Used to
// reattach an observer to a State restored from a checkpoint.
func (s State) WithObserver(observer observability.Observer) State {
	if observer == nil {
		observer = observability.NoOpObserver{}
	}
	newState := s
	newState.Observer = observer
	return newState
}

func (s State) emit(eventType observability.EventType, data map[string]any) {
	observability.Emit(context.Background(), s.Observer, observability.Event{
		Type:      eventType,
		Level:     observability.LevelVerbose,
		Timestamp: time.Now(),
		Source:    "state",
		Data:      data,
	})
}
