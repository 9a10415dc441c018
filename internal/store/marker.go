package store

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

// Marker is the progress marker for sequential runs: a plain-text file
// holding a single base-10 integer, the index of the next entry to process.
// It is written after each dispatched entry and deleted on successful
// full-corpus completion, so a crash loses at most the in-flight entry's
// work.
type Marker struct {
	path string
}

// NewMarker creates a Marker over the given file path.
func NewMarker(path string) *Marker {
	return &Marker{path: path}
}

// Load reads the marker. The second return value reports whether a marker
// file exists; a missing marker means the run starts from the beginning.
func (m *Marker) Load() (int, bool, error) {
	data, err := os.ReadFile(m.path)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, false, nil
		}
		return 0, false, fmt.Errorf("failed to read progress marker %s: %w", m.path, err)
	}

	index, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil {
		return 0, false, fmt.Errorf("malformed progress marker %s: %w", m.path, err)
	}
	if index < 0 {
		return 0, false, fmt.Errorf("malformed progress marker %s: negative index %d", m.path, index)
	}

	return index, true, nil
}

// Store writes the index of the next entry to process.
func (m *Marker) Store(index int) error {
	if err := os.WriteFile(m.path, []byte(strconv.Itoa(index)), 0o644); err != nil {
		return fmt.Errorf("failed to write progress marker %s: %w", m.path, err)
	}
	return nil
}

// Clear removes the marker file. Clearing an already-absent marker is not an
// error, so completion is idempotent.
func (m *Marker) Clear() error {
	if err := os.Remove(m.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to clear progress marker %s: %w", m.path, err)
	}
	return nil
}
