package domain

import (
	"errors"
	"strings"
)

// Common validation errors for Entry and Record.
var (
	ErrEmptyEntryID      = errors.New("entry ID cannot be empty")
	ErrEmptyEntryContent = errors.New("entry content cannot be empty")
	ErrEmptyRecordSource = errors.New("record source cannot be empty")
)

// Entry represents one documentation page: its identifier plus the textual
// content the splitter extracted for it. Entries are immutable once created
// and are consumed once per generation pass.
type Entry struct {
	ID      string
	Content string
}

// NewEntry creates an Entry from an identifier and its content. Both fields
// are trimmed of surrounding whitespace. Returns an error if either trims
// to the empty string.
func NewEntry(id, content string) (Entry, error) {
	id = strings.TrimSpace(id)
	content = strings.TrimSpace(content)

	if id == "" {
		return Entry{}, ErrEmptyEntryID
	}
	if content == "" {
		return Entry{}, ErrEmptyEntryContent
	}

	return Entry{ID: id, Content: content}, nil
}

// QAPair is one question and its grounded answer, extracted from a single
// model reply.
type QAPair struct {
	Question string
	Answer   string
}

// Record is the persisted unit: one question/answer pair attributed to the
// entry it was generated from. Records are append-only; uniqueness of
// (source, question) is not enforced, so duplicates across runs are possible
// and acceptable.
type Record struct {
	Source   string `json:"source"`
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

// NewRecord creates a Record attributing the given pair to a source entry ID.
func NewRecord(source string, pair QAPair) (Record, error) {
	if strings.TrimSpace(source) == "" {
		return Record{}, ErrEmptyRecordSource
	}

	return Record{
		Source:   source,
		Question: pair.Question,
		Answer:   pair.Answer,
	}, nil
}
