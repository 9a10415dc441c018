package store

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/phrazzld/docdistill/internal/domain"
)

// ErrNoRecords is returned by Scan helpers when the dataset file does not
// exist yet.
var ErrNoRecords = errors.New("dataset file does not exist")

// RecordStore appends and scans records in one JSON-Lines dataset file.
type RecordStore struct {
	path string
}

// NewRecordStore creates a store over the given dataset file path. The file
// itself is created lazily on first append.
func NewRecordStore(path string) *RecordStore {
	return &RecordStore{path: path}
}

// Path returns the dataset file path.
func (s *RecordStore) Path() string { return s.path }

// Append writes the records to the end of the dataset file, creating it if
// missing. A failed append is a data-loss risk, so callers treat the error
// as fatal to the run.
func (s *RecordStore) Append(records []domain.Record) error {
	if len(records) == 0 {
		return nil
	}

	f, err := os.OpenFile(s.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("failed to open dataset file %s: %w", s.path, err)
	}
	defer func() { _ = f.Close() }()

	w := bufio.NewWriter(f)
	enc := json.NewEncoder(w)
	for _, record := range records {
		if err := enc.Encode(record); err != nil {
			return fmt.Errorf("failed to append record for %s: %w", record.Source, err)
		}
	}
	if err := w.Flush(); err != nil {
		return fmt.Errorf("failed to flush dataset file %s: %w", s.path, err)
	}

	return nil
}

// Scan reads every record in the dataset file in order, calling fn for
// each. A missing file yields ErrNoRecords; malformed lines are an error
// because they indicate a corrupted dataset.
func (s *RecordStore) Scan(fn func(domain.Record) error) error {
	f, err := os.Open(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return ErrNoRecords
		}
		return fmt.Errorf("failed to open dataset file %s: %w", s.path, err)
	}
	defer func() { _ = f.Close() }()

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	line := 0
	for scanner.Scan() {
		line++
		raw := scanner.Bytes()
		if len(raw) == 0 {
			continue
		}

		var record domain.Record
		if err := json.Unmarshal(raw, &record); err != nil {
			return fmt.Errorf("malformed record on line %d of %s: %w", line, s.path, err)
		}
		if err := fn(record); err != nil {
			return err
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("failed to read dataset file %s: %w", s.path, err)
	}

	return nil
}

// All reads the whole dataset into memory. A missing file yields an empty
// slice, not an error: downstream transforms treat "no dataset yet" as an
// empty corpus.
func (s *RecordStore) All() ([]domain.Record, error) {
	var records []domain.Record
	err := s.Scan(func(r domain.Record) error {
		records = append(records, r)
		return nil
	})
	if errors.Is(err, ErrNoRecords) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return records, nil
}

// CountBySource re-scans the dataset and returns the number of persisted
// records per source id. This is the input to count-based resumption: the
// pipeline requests only max(0, target - existing) pairs per entry. The scan
// is O(file size) per run, an accepted tradeoff versus maintaining an
// explicit index at this scale.
func (s *RecordStore) CountBySource() (map[string]int, error) {
	counts := make(map[string]int)
	err := s.Scan(func(r domain.Record) error {
		counts[r.Source]++
		return nil
	})
	if errors.Is(err, ErrNoRecords) {
		return counts, nil
	}
	if err != nil {
		return nil, err
	}
	return counts, nil
}
