// Package redact masks provider credentials in strings before they reach
// logs or terminal output. Upstream error bodies and wrapped request errors
// can echo header values back, so anything that prints a provider error goes
// through here first.
package redact

import "regexp"

// RedactedKeyPlaceholder replaces any matched credential.
const RedactedKeyPlaceholder = "[REDACTED_KEY]"

var (
	// Vendor key shapes. The Anthropic pattern must run before the generic
	// OpenAI one so "sk-ant-..." is not half-matched as "sk-...".
	anthropicKeyRegex = regexp.MustCompile(`sk-ant-[A-Za-z0-9_-]{8,}`)
	openaiKeyRegex    = regexp.MustCompile(`sk-[A-Za-z0-9_-]{16,}`)
	googleKeyRegex    = regexp.MustCompile(`AIza[A-Za-z0-9_-]{10,}`)

	// Credential-bearing headers and config assignments, keeping the name
	// and separator so the redacted message stays diagnosable.
	headerRegex = regexp.MustCompile(
		`(?i)(x-api-key|x-goog-api-key|authorization|api[_-]?key)(['"\s:=]+(?:Bearer\s+)?)[A-Za-z0-9_\-.~+/]{8,}`,
	)

	keyPatterns = []*regexp.Regexp{anthropicKeyRegex, openaiKeyRegex, googleKeyRegex}
)

// String redacts credentials from the input string.
func String(input string) string {
	if input == "" {
		return input
	}

	result := headerRegex.ReplaceAllString(input, "${1}${2}"+RedactedKeyPlaceholder)
	for _, pattern := range keyPatterns {
		result = pattern.ReplaceAllString(result, RedactedKeyPlaceholder)
	}
	return result
}

// Error redacts credentials from an error's Error() output.
func Error(err error) string {
	if err == nil {
		return ""
	}
	return String(err.Error())
}
