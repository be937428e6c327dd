package state

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
)

type fileCheckpointStore struct {
	root  string
	codec Codec
	mu    sync.Mutex
}

// NewFileCheckpointStore returns a CheckpointStore that keeps one file per
// run under root, named <run-id><codec extension>. Writes go through a
// temporary file and a rename, so a reader never sees a partial checkpoint.
func NewFileCheckpointStore(root string, codec Codec) CheckpointStore {
	return &fileCheckpointStore{root: root, codec: codec}
}

func (s *fileCheckpointStore) path(runID string) (string, error) {
	if runID == "" || runID == "." || runID == ".." || strings.ContainsAny(runID, `/\`) {
		return "", fmt.Errorf("invalid run id: %q", runID)
	}
	return filepath.Join(s.root, runID+s.codec.Extension()), nil
}

func (s *fileCheckpointStore) Save(state State) error {
	path, err := s.path(state.RunID)
	if err != nil {
		return err
	}

	data, err := s.codec.Marshal(state)
	if err != nil {
		return fmt.Errorf("failed to encode checkpoint %s: %w", state.RunID, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.MkdirAll(s.root, 0o755); err != nil {
		return fmt.Errorf("failed to create checkpoint dir: %w", err)
	}

	tmp, err := os.CreateTemp(s.root, ".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to save checkpoint %s: %w", state.RunID, err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("failed to save checkpoint %s: %w", state.RunID, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to save checkpoint %s: %w", state.RunID, err)
	}

	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to save checkpoint %s: %w", state.RunID, err)
	}

	return nil
}

func (s *fileCheckpointStore) Load(runID string) (State, error) {
	path, err := s.path(runID)
	if err != nil {
		return State{}, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return State{}, fmt.Errorf("%w: %s", ErrCheckpointNotFound, runID)
		}
		return State{}, fmt.Errorf("failed to read checkpoint %s: %w", runID, err)
	}

	state, err := s.codec.Unmarshal(data)
	if err != nil {
		return State{}, fmt.Errorf("failed to decode checkpoint %s: %w", runID, err)
	}
	return state, nil
}

func (s *fileCheckpointStore) Delete(runID string) error {
	path, err := s.path(runID)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to delete checkpoint %s: %w", runID, err)
	}
	return nil
}

func (s *fileCheckpointStore) List() ([]string, error) {
	entries, err := os.ReadDir(s.root)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return []string{}, nil
		}
		return nil, fmt.Errorf("failed to list checkpoints: %w", err)
	}

	ext := s.codec.Extension()
	ids := make([]string, 0, len(entries))
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || strings.HasPrefix(name, ".") || !strings.HasSuffix(name, ext) {
			continue
		}
		ids = append(ids, strings.TrimSuffix(name, ext))
	}
	slices.Sort(ids)
	return ids, nil
}
