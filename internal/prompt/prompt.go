// Package prompt renders the fixed-template prompt sent to the model for
// each documentation entry. The "Q<k>: ... A<k>: ..." output format the
// template demands is a contract shared with the reply parser: changing one
// requires changing the other in lockstep.
package prompt

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"os"
	"text/template"
)

//go:embed template.tmpl
var defaultTemplate string

// Common errors returned by the prompt package.
var (
	ErrEmptyEntryContent = errors.New("entry content cannot be empty")
	ErrInvalidPairCount  = errors.New("pair count must be positive")
)

// promptData carries the values rendered into the template.
type promptData struct {
	EntryID string
	Content string
	Count   int
}

// Builder renders prompts from a parsed template.
type Builder struct {
	tmpl *template.Template
}

// NewBuilder creates a Builder using the embedded default template.
func NewBuilder() (*Builder, error) {
	return newBuilder(defaultTemplate)
}

// NewBuilderFromFile creates a Builder from a template file, overriding the
// embedded default.
func NewBuilderFromFile(path string) (*Builder, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read prompt template from %s: %w", path, err)
	}
	return newBuilder(string(content))
}

func newBuilder(content string) (*Builder, error) {
	tmpl, err := template.New("qa").Parse(content)
	if err != nil {
		return nil, fmt.Errorf("failed to parse prompt template: %w", err)
	}
	return &Builder{tmpl: tmpl}, nil
}

// Build renders the prompt for one entry, asking the model for exactly count
// question/answer pairs grounded in the given content.
func (b *Builder) Build(entryID, content string, count int) (string, error) {
	if content == "" {
		return "", ErrEmptyEntryContent
	}
	if count <= 0 {
		return "", fmt.Errorf("%w: got %d", ErrInvalidPairCount, count)
	}

	var buf bytes.Buffer
	if err := b.tmpl.Execute(&buf, promptData{EntryID: entryID, Content: content, Count: count}); err != nil {
		return "", fmt.Errorf("failed to execute prompt template: %w", err)
	}
	return buf.String(), nil
}
