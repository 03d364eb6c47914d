// Package research provides the web-research adapters the pipeline draws
// evidence from.
//
// Adapters return a single string: either a citation-tagged evidence block
// or a bracketed failure message. The string itself is the answer for a
// topic - there is no separate success flag, and failures are cached and
// propagated like any other evidence.
package research

import (
	"context"
	"strings"
)

// Adapter turns a topic into an evidence string with a citation, or a
// bracketed failure string.
type Adapter interface {
	// Name identifies the source (used in source records).
	Name() string

	// Lookup fetches evidence for a topic. The returned string is always
	// non-empty: on failure it carries a bracketed failure message.
	Lookup(ctx context.Context, topic string) string
}

// IsFailure reports whether an adapter result is a failure message rather
// than evidence. Adapters tag failures with a bracketed source prefix,
// e.g. "[wikipedia] no results for 'x'".
func IsFailure(result string) bool {
	return strings.HasPrefix(strings.TrimSpace(result), "[")
}

// CleanQuery strips junk a planning model may wrap around a topic, such
// as angle brackets, numbering and trailing punctuation.
func CleanQuery(q string) string {
	q = strings.TrimSpace(q)
	q = strings.ReplaceAll(q, "<", "")
	q = strings.ReplaceAll(q, ">", "")
	return strings.Trim(q, " ?!./\\\"'")
}
