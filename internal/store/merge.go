package store

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"sort"

	"github.com/phrazzld/docdistill/internal/domain"
)

// Merge combines several same-shaped JSON-Lines dataset files into one,
// sorted by source. Record order within one source is preserved in input
// order (stable sort), so merging keeps each source's pairs contiguous and
// deterministic. Every input must exist; the output path must not be one of
// the inputs. An existing output file is replaced, so rerunning a merge is
// idempotent.
func Merge(inputPaths []string, outputPath string) error {
	for _, in := range inputPaths {
		if in == outputPath {
			return fmt.Errorf("merge output %s is also an input", outputPath)
		}
	}

	var merged []domain.Record
	for _, in := range inputPaths {
		err := NewRecordStore(in).Scan(func(r domain.Record) error {
			merged = append(merged, r)
			return nil
		})
		if err != nil {
			return fmt.Errorf("failed to read merge input %s: %w", in, err)
		}
	}

	sort.SliceStable(merged, func(i, j int) bool {
		return merged[i].Source < merged[j].Source
	})

	// Truncate rather than append: the sorted-output contract only holds if
	// a stale output file does not survive underneath the new records.
	out, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("failed to create merged dataset %s: %w", outputPath, err)
	}

	w := bufio.NewWriter(out)
	enc := json.NewEncoder(w)
	for _, record := range merged {
		if err := enc.Encode(record); err != nil {
			out.Close()
			return fmt.Errorf("failed to write merged dataset: %w", err)
		}
	}
	if err := w.Flush(); err != nil {
		out.Close()
		return fmt.Errorf("failed to flush merged dataset: %w", err)
	}
	return out.Close()
}
