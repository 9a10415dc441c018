// Package convert rewrites a generated dataset into the chat-style JSON-Lines
// layouts common fine-tuning frameworks ingest. The source attribution is
// intentionally dropped on conversion; training formats carry only the turns.
package convert

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/phrazzld/docdistill/internal/domain"
	"github.com/phrazzld/docdistill/internal/store"
)

// Format identifies a supported training-data layout.
type Format string

// Supported output formats.
const (
	// FormatMessages emits OpenAI-style {"messages": [...]} lines with
	// user/assistant roles and an optional leading system turn.
	FormatMessages Format = "messages"

	// FormatConversations emits ShareGPT-style {"conversations": [...]}
	// lines with human/gpt turns.
	FormatConversations Format = "conversations"
)

// ErrUnknownFormat is returned for a format name outside the supported set.
var ErrUnknownFormat = errors.New("unknown conversion format")

// ParseFormat validates a user-supplied format name.
func ParseFormat(name string) (Format, error) {
	switch Format(name) {
	case FormatMessages, FormatConversations:
		return Format(name), nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownFormat, name)
	}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type messagesLine struct {
	Messages []chatMessage `json:"messages"`
}

type conversationTurn struct {
	From  string `json:"from"`
	Value string `json:"value"`
}

type conversationsLine struct {
	Conversations []conversationTurn `json:"conversations"`
}

// Dataset streams the dataset at inputPath into outputPath in the requested
// format, one training example per record. systemPrompt, when non-empty, is
// prepended as a system turn to every example in the messages format; the
// conversations format has no system slot and ignores it.
func Dataset(inputPath, outputPath string, format Format, systemPrompt string) error {
	if inputPath == outputPath {
		return fmt.Errorf("conversion output %s is also the input", outputPath)
	}

	out, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("failed to create conversion output %s: %w", outputPath, err)
	}

	w := bufio.NewWriter(out)
	enc := json.NewEncoder(w)

	err = store.NewRecordStore(inputPath).Scan(func(r domain.Record) error {
		switch format {
		case FormatMessages:
			line := messagesLine{}
			if systemPrompt != "" {
				line.Messages = append(line.Messages, chatMessage{Role: "system", Content: systemPrompt})
			}
			line.Messages = append(line.Messages,
				chatMessage{Role: "user", Content: r.Question},
				chatMessage{Role: "assistant", Content: r.Answer},
			)
			return enc.Encode(line)
		case FormatConversations:
			return enc.Encode(conversationsLine{Conversations: []conversationTurn{
				{From: "human", Value: r.Question},
				{From: "gpt", Value: r.Answer},
			}})
		default:
			return fmt.Errorf("%w: %q", ErrUnknownFormat, format)
		}
	})
	if err != nil {
		out.Close()
		return fmt.Errorf("failed to convert %s: %w", inputPath, err)
	}

	if err := w.Flush(); err != nil {
		out.Close()
		return fmt.Errorf("failed to flush conversion output: %w", err)
	}
	return out.Close()
}
