package corpus

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"

	"github.com/phrazzld/docdistill/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger(buf *bytes.Buffer) *slog.Logger {
	return slog.New(slog.NewTextHandler(buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
}

func TestSplitYieldsOneEntryPerMarker(t *testing.T) {
	doc := strings.Join([]string{
		"Preamble text that must be discarded.",
		"## /docs/install",
		"Run the installer.",
		"Then verify the binary.",
		"## /docs/config",
		"Set values in config.yaml.",
		"## /docs/usage",
		"Invoke the CLI with a subcommand.",
	}, "\n")

	var buf bytes.Buffer
	splitter := NewSplitter("/", testLogger(&buf))
	entries := splitter.Split(doc)

	require.Len(t, entries, 3)
	assert.Equal(t, "/docs/install", entries[0].ID)
	assert.Equal(t, "Run the installer.\nThen verify the binary.", entries[0].Content)
	assert.Equal(t, "/docs/config", entries[1].ID)
	assert.Equal(t, "Set values in config.yaml.", entries[1].Content)
	assert.Equal(t, "/docs/usage", entries[2].ID)
	assert.Equal(t, "Invoke the CLI with a subcommand.", entries[2].Content)

	// No warning when markers are present.
	assert.NotContains(t, buf.String(), "no section markers")
}

func TestSplitZeroMarkersWarns(t *testing.T) {
	var buf bytes.Buffer
	splitter := NewSplitter("/", testLogger(&buf))

	entries := splitter.Split("Just a paragraph of text.\nNo headings at all.\n")

	assert.Empty(t, entries)
	assert.Contains(t, buf.String(), "no section markers")
}

func TestSplitIgnoresHeadingsWithoutPrefix(t *testing.T) {
	doc := strings.Join([]string{
		"## Introduction",
		"Heading without the id prefix is part of no entry.",
		"## /docs/real",
		"Actual entry content.",
		"## Appendix",
		"This heading lacks the prefix, so it belongs to /docs/real.",
	}, "\n")

	var buf bytes.Buffer
	splitter := NewSplitter("/", testLogger(&buf))
	entries := splitter.Split(doc)

	require.Len(t, entries, 1)
	assert.Equal(t, "/docs/real", entries[0].ID)
	assert.Contains(t, entries[0].Content, "## Appendix")
	assert.Contains(t, entries[0].Content, "belongs to /docs/real")
}

func TestSplitDropsEmptyEntries(t *testing.T) {
	doc := strings.Join([]string{
		"## /docs/empty",
		"   ",
		"## /docs/full",
		"Real content here.",
	}, "\n")

	var buf bytes.Buffer
	splitter := NewSplitter("/", testLogger(&buf))
	entries := splitter.Split(doc)

	require.Len(t, entries, 1)
	assert.Equal(t, "/docs/full", entries[0].ID)
}

func TestSplitTrimsIDAndContent(t *testing.T) {
	doc := "##   /docs/padded   \n\n  padded content  \n\n"

	var buf bytes.Buffer
	splitter := NewSplitter("/", testLogger(&buf))
	entries := splitter.Split(doc)

	require.Len(t, entries, 1)
	assert.Equal(t, "/docs/padded", entries[0].ID)
	assert.Equal(t, "padded content", entries[0].Content)
}

func TestFilterShort(t *testing.T) {
	long := strings.Repeat("x", 150)
	entries := []domain.Entry{
		{ID: "/docs/short", Content: "tiny"},
		{ID: "/docs/long", Content: long},
	}

	var buf bytes.Buffer
	kept := FilterShort(entries, 100, testLogger(&buf))

	require.Len(t, kept, 1)
	assert.Equal(t, "/docs/long", kept[0].ID)
	assert.Contains(t, buf.String(), "dropping short entry")

	// Threshold of zero disables filtering.
	assert.Len(t, FilterShort(entries, 0, testLogger(&buf)), 2)
}
