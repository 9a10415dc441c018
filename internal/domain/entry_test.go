package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewEntry(t *testing.T) {
	tests := []struct {
		name        string
		id          string
		content     string
		wantErr     error
		wantID      string
		wantContent string
	}{
		{
			name:        "valid entry",
			id:          "/docs/getting-started",
			content:     "Install the CLI and run init.",
			wantID:      "/docs/getting-started",
			wantContent: "Install the CLI and run init.",
		},
		{
			name:        "trims surrounding whitespace",
			id:          "  /docs/config  ",
			content:     "\n\nSet values in config.yaml.\n",
			wantID:      "/docs/config",
			wantContent: "Set values in config.yaml.",
		},
		{
			name:    "empty id",
			id:      "   ",
			content: "some content",
			wantErr: ErrEmptyEntryID,
		},
		{
			name:    "empty content",
			id:      "/docs/empty",
			content: " \n\t ",
			wantErr: ErrEmptyEntryContent,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			entry, err := NewEntry(tt.id, tt.content)

			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.wantID, entry.ID)
			assert.Equal(t, tt.wantContent, entry.Content)
		})
	}
}

func TestNewRecord(t *testing.T) {
	pair := QAPair{Question: "What does init do?", Answer: "It scaffolds a new project."}

	record, err := NewRecord("/docs/getting-started", pair)
	require.NoError(t, err)
	assert.Equal(t, "/docs/getting-started", record.Source)
	assert.Equal(t, pair.Question, record.Question)
	assert.Equal(t, pair.Answer, record.Answer)

	_, err = NewRecord("  ", pair)
	assert.ErrorIs(t, err, ErrEmptyRecordSource)
}
