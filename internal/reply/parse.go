// Package reply extracts question/answer pairs from a model's raw text
// reply. It understands the tagged-block format the prompt package requests:
// repeated "Q<k>: ... A<k>: ..." blocks. The two packages change in
// lockstep.
package reply

import (
	"regexp"
	"strings"

	"github.com/phrazzld/docdistill/internal/domain"
)

var (
	questionMarker = regexp.MustCompile(`\nQ\d+:`)
	answerMarker   = regexp.MustCompile(`\nA\d+:`)
)

// answerRejoin is the separator used to reattach answer fragments that the
// answer-marker split tore apart. An answer may legitimately contain embedded
// "A<k>:" text at a line start; rejoining keeps it part of the same answer
// instead of producing extra pairs.
const answerRejoin = "\nA:"

// Parse extracts the ordered question/answer pairs from a raw model reply.
// Blocks without an answer marker are silently dropped, so the result may be
// shorter than the number of pairs requested; callers must tolerate
// under-delivery. A reply with no question markers yields nil.
func Parse(raw string) []domain.QAPair {
	// A leading newline lets a reply that opens directly with "Q1:" match
	// the marker pattern; the pre-marker fragment is discarded either way.
	blocks := questionMarker.Split("\n"+raw, -1)
	if len(blocks) < 2 {
		return nil
	}

	var pairs []domain.QAPair
	for _, block := range blocks[1:] {
		parts := answerMarker.Split(block, -1)
		if len(parts) < 2 {
			// No answer marker in this block: drop it.
			continue
		}

		question := strings.TrimSpace(parts[0])
		answer := strings.TrimSpace(strings.Join(parts[1:], answerRejoin))
		if question == "" || answer == "" {
			continue
		}

		pairs = append(pairs, domain.QAPair{Question: question, Answer: answer})
	}

	return pairs
}
