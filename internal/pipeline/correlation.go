package pipeline

import "strconv"

// maxCorrelationIDLen is the provider-imposed ceiling on custom_id length.
const maxCorrelationIDLen = 64

// CorrelationID derives a provider-safe custom_id for a batch request from
// the originating entry's ID and its position in the corpus. Characters
// outside [A-Za-z0-9_-] are replaced with underscores, and the position index
// is kept as a trailing "-<index>" suffix. When the sanitized ID would push
// the result past 64 characters, its middle is truncated so both the leading
// path segments and the trailing suffix survive.
func CorrelationID(entryID string, index int) string {
	sanitized := sanitizeID(entryID)
	suffix := "-" + strconv.Itoa(index)

	budget := maxCorrelationIDLen - len(suffix)
	if len(sanitized) > budget {
		head := (budget - 1) / 2
		tail := budget - 1 - head
		sanitized = sanitized[:head] + "_" + sanitized[len(sanitized)-tail:]
	}

	return sanitized + suffix
}

func sanitizeID(id string) string {
	out := make([]byte, len(id))
	for i := 0; i < len(id); i++ {
		c := id[i]
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9', c == '_', c == '-':
			out[i] = c
		default:
			out[i] = '_'
		}
	}
	return string(out)
}
