package corelog

import (
	"strings"
	"unicode"
)

// maxSanitizedLength caps how much of an untrusted string Sanitize keeps,
// so a single oversized request ID or model name can't blow up log volume.
const maxSanitizedLength = 100

// Sanitize escapes control characters out of an untrusted string before it
// reaches a log line, preventing log injection via request IDs, model
// names, or other caller-supplied fields that flow into Warnf/Errorf calls
// verbatim.
func Sanitize(s string) string {
	if s == "" {
		return ""
	}

	var result strings.Builder
	result.Grow(len(s))

	for _, r := range s {
		switch {
		case r == '\n':
			result.WriteString("\\n")
		case r == '\r':
			result.WriteString("\\r")
		case r == '\t':
			result.WriteString("\\t")
		case unicode.IsControl(r):
			result.WriteString("?")
		case r == '\\':
			result.WriteString("\\\\")
		case unicode.IsPrint(r):
			result.WriteRune(r)
		default:
			result.WriteString("?")
		}
	}

	if result.Len() > maxSanitizedLength {
		return result.String()[:maxSanitizedLength] + "...[truncated]"
	}
	return result.String()
}
