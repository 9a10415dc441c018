package corpus

import (
	"log/slog"
	"strings"

	"github.com/phrazzld/docdistill/internal/domain"
)

// markerLead is the textual form a section marker line starts with. The
// remainder of the line is the entry identifier.
const markerLead = "## "

// Splitter parses one large documentation bundle into an ordered sequence of
// entries. A line of the form "## <entry-id>" starts a new entry when the
// identifier carries the configured prefix; everything up to the next marker
// is that entry's content. Text before the first marker is discarded.
type Splitter struct {
	prefix string
	logger *slog.Logger
}

// NewSplitter creates a Splitter. markerPrefix restricts which "## ..."
// headings count as section markers; an empty prefix accepts any heading.
func NewSplitter(markerPrefix string, logger *slog.Logger) *Splitter {
	return &Splitter{
		prefix: markerPrefix,
		logger: logger.With("component", "splitter"),
	}
}

// Split scans the document and returns its entries in document order.
// Entries whose trimmed identifier or trimmed content is empty are dropped.
// A document with no markers yields zero entries and a logged warning; it is
// not an error.
func (s *Splitter) Split(doc string) []domain.Entry {
	var entries []domain.Entry

	lines := strings.Split(doc, "\n")

	var (
		currentID string
		content   strings.Builder
		sawMarker bool
	)

	flush := func() {
		if currentID == "" {
			return
		}
		entry, err := domain.NewEntry(currentID, content.String())
		if err != nil {
			// Empty id or content after trimming: drop silently, matching
			// the splitter contract.
			return
		}
		entries = append(entries, entry)
	}

	for _, line := range lines {
		if id, ok := s.markerID(line); ok {
			flush()
			sawMarker = true
			currentID = id
			content.Reset()
			continue
		}
		if sawMarker {
			content.WriteString(line)
			content.WriteString("\n")
		}
	}
	flush()

	if !sawMarker {
		s.logger.Warn("no section markers found in document",
			"marker_lead", markerLead,
			"marker_prefix", s.prefix,
			"document_length", len(doc))
	}

	return entries
}

// markerID reports whether the line is a section marker and, if so, returns
// the trimmed entry identifier.
func (s *Splitter) markerID(line string) (string, bool) {
	if !strings.HasPrefix(line, markerLead) {
		return "", false
	}
	id := strings.TrimSpace(line[len(markerLead):])
	if id == "" || !strings.HasPrefix(id, s.prefix) {
		return "", false
	}
	return id, true
}

// FilterShort drops entries whose content is shorter than minLength
// characters. Dropped entries are logged at debug level so a run's input can
// be reconstructed from its logs.
func FilterShort(entries []domain.Entry, minLength int, logger *slog.Logger) []domain.Entry {
	if minLength <= 0 {
		return entries
	}

	kept := make([]domain.Entry, 0, len(entries))
	for _, entry := range entries {
		if len(entry.Content) < minLength {
			logger.Debug("dropping short entry",
				"entry_id", entry.ID,
				"content_length", len(entry.Content),
				"min_length", minLength)
			continue
		}
		kept = append(kept, entry)
	}
	return kept
}
