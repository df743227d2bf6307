package state

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// ErrCorruptState marks a state file that exists but cannot be decoded.
var ErrCorruptState = errors.New("corrupt state file")

// Store reads and writes the window state file. It is not synchronized;
// callers serialize writes.
type Store struct {
	path string
}

// NewStore returns a store for the state file at path.
func NewStore(path string) *Store {
	return &Store{path: path}
}

// Path returns the state file location.
func (s *Store) Path() string {
	return s.path
}

// Load reads the state file. A missing file is a first run and yields an
// empty state; a file that fails to parse yields ErrCorruptState.
func (s *Store) Load() (*AppState, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return &AppState{Windows: []WindowRecord{}}, nil
		}
		return nil, fmt.Errorf("failed to read state file: %w", err)
	}

	var st AppState
	if err := json.Unmarshal(data, &st); err != nil {
		return nil, fmt.Errorf("%w %s: %v", ErrCorruptState, s.path, err)
	}
	if st.Windows == nil {
		st.Windows = []WindowRecord{}
	}
	return &st, nil
}

// Save writes the records sorted by id. The file is replaced atomically:
// the encoded state goes to a temp file in the same directory which is
// synced and renamed over the previous state.
func (s *Store) Save(windows []WindowRecord) error {
	data, err := Encode(windows)
	if err != nil {
		return err
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create state directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".state-*.json")
	if err != nil {
		return fmt.Errorf("failed to create temp state file: %w", err)
	}
	tmpPath := tmp.Name()
	committed := false
	defer func() {
		if !committed {
			os.Remove(tmpPath)
		}
	}()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write state file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to sync state file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close state file: %w", err)
	}
	if err := os.Chmod(tmpPath, 0644); err != nil {
		return fmt.Errorf("failed to set state file permissions: %w", err)
	}
	if err := os.Rename(tmpPath, s.path); err != nil {
		return fmt.Errorf("failed to replace state file: %w", err)
	}
	committed = true
	return nil
}

// Encode renders records exactly as Save writes them.
func Encode(windows []WindowRecord) ([]byte, error) {
	sorted := make([]WindowRecord, len(windows))
	copy(sorted, windows)
	SortByID(sorted)

	data, err := json.MarshalIndent(AppState{Windows: sorted}, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to encode state: %w", err)
	}
	return append(data, '\n'), nil
}
