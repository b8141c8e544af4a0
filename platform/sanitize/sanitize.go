// Package sanitize cleans member-provided reply text before it is stored
// on a conversation record or forwarded in a reportback submission.
package sanitize

import (
	"regexp"
	"strings"
)

var htmlTagRegex = regexp.MustCompile(`<[^>]*>`)

// StripHTML removes HTML tags and decodes common entities. Gateway payloads
// occasionally carry markup pasted into the message body; only the plain
// text survives.
func StripHTML(s string) string {
	result := htmlTagRegex.ReplaceAllString(s, "")
	result = strings.ReplaceAll(result, "&lt;", "<")
	result = strings.ReplaceAll(result, "&gt;", ">")
	result = strings.ReplaceAll(result, "&amp;", "&")
	result = strings.ReplaceAll(result, "&quot;", "\"")
	result = strings.ReplaceAll(result, "&#39;", "'")
	// Re-strip after entity decode to catch encoded tags
	result = htmlTagRegex.ReplaceAllString(result, "")
	return strings.TrimSpace(result)
}

// Text sanitizes one reply for storage in a conversation field: HTML
// stripped, surrounding whitespace trimmed. A reply that sanitizes to ""
// fills no field.
func Text(s string) string {
	return StripHTML(s)
}
