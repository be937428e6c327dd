package state

import (
	"fmt"
	"slices"
	"sync"

	"github.com/tailored-agentic-units/statekit/orchestrate/config"
)

// CheckpointStore persists State snapshots keyed by RunID.
//
// A graph with checkpointing enabled saves every Interval node executions,
// deletes the checkpoint after a successful run unless Preserve is set, and
// leaves it in place after a failure so CompiledGraph.Resume can continue.
//
// Implementations must be safe for concurrent use.
type CheckpointStore interface {
	// Save stores state under state.RunID, replacing any previous entry.
	Save(state State) error

	// Load returns the State saved for runID, or an error wrapping
	// ErrCheckpointNotFound.
	Load(runID string) (State, error)

	// Delete removes the entry for runID. Missing entries are not an error.
	Delete(runID string) error

	// List returns the stored RunIDs in sorted order.
	List() ([]string, error)
}

type memoryCheckpointStore struct {
	states map[string]State
	mu     sync.RWMutex
}

// NewMemoryCheckpointStore returns a process-local CheckpointStore.
// Registered by default as "memory".
func NewMemoryCheckpointStore() CheckpointStore {
	return &memoryCheckpointStore{
		states: make(map[string]State),
	}
}

func (m *memoryCheckpointStore) Save(state State) error {
	if state.RunID == "" {
		return fmt.Errorf("cannot checkpoint state without run id")
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.states[state.RunID] = state
	return nil
}

func (m *memoryCheckpointStore) Load(runID string) (State, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	state, exists := m.states[runID]
	if !exists {
		return State{}, fmt.Errorf("%w: %s", ErrCheckpointNotFound, runID)
	}
	return state, nil
}

func (m *memoryCheckpointStore) Delete(runID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.states, runID)
	return nil
}

func (m *memoryCheckpointStore) List() ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	ids := make([]string, 0, len(m.states))
	for id := range m.states {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids, nil
}

// StoreFile is the CheckpointConfig.Store value that builds a file store
// from CheckpointConfig.Path and CheckpointConfig.Codec instead of looking
// up the registry.
const StoreFile = "file"

var (
	checkpointStores = map[string]CheckpointStore{
		"memory": NewMemoryCheckpointStore(),
	}
	storeMutex sync.RWMutex
)

// GetCheckpointStore returns the store registered under name.
func GetCheckpointStore(name string) (CheckpointStore, error) {
	storeMutex.RLock()
	defer storeMutex.RUnlock()

	store, exists := checkpointStores[name]
	if !exists {
		return nil, fmt.Errorf("unknown checkpoint store: %s", name)
	}
	return store, nil
}

// RegisterCheckpointStore adds or replaces a named store. Register before
// building graphs that reference it.
func RegisterCheckpointStore(name string, store CheckpointStore) {
	storeMutex.Lock()
	defer storeMutex.Unlock()

	checkpointStores[name] = store
}

// NewCheckpointStore resolves the store described by cfg.
func NewCheckpointStore(cfg config.CheckpointConfig) (CheckpointStore, error) {
	if cfg.Store != StoreFile {
		return GetCheckpointStore(cfg.Store)
	}

	if cfg.Path == "" {
		return nil, fmt.Errorf("file checkpoint store requires a path")
	}

	codecName := cfg.Codec
	if codecName == "" {
		codecName = CodecJSON
	}

	codec, err := GetCodec(codecName)
	if err != nil {
		return nil, err
	}

	return NewFileCheckpointStore(cfg.Path, codec), nil
}
