// Package pipeline implements the per-job orchestration core: evidence
// gathering with a per-job cache, a fact-check gate driving a bounded
// revision loop, the per-lesson pipeline, cross-lesson context, quiz and
// report assembly, and the top-level orchestrator.
package pipeline

import (
	"context"
	"strings"
)

// FetchFunc resolves a topic to evidence text. Failures come back as
// bracketed strings, never errors; the string is the answer either way.
type FetchFunc func(ctx context.Context, topic string) string

// EvidenceCache maps normalized topics to evidence text for the duration
// of one job. It grows monotonically and never evicts; failure strings
// are cached like any other result so a dead topic is not re-fetched.
//
// A job's lessons run sequentially, so the cache needs no locking.
type EvidenceCache struct {
	entries map[string]string
}

// NewEvidenceCache creates an empty per-job cache.
func NewEvidenceCache() *EvidenceCache {
	return &EvidenceCache{entries: make(map[string]string)}
}

// GetOrFetch returns the cached evidence for topic, fetching and storing
// it on first request. The key is the trimmed, case-folded topic.
func (c *EvidenceCache) GetOrFetch(ctx context.Context, topic string, fetch FetchFunc) string {
	key := normalizeTopic(topic)
	if text, ok := c.entries[key]; ok {
		return text
	}
	text := fetch(ctx, topic)
	c.entries[key] = text
	return text
}

// Len reports how many distinct topics have been fetched.
func (c *EvidenceCache) Len() int {
	return len(c.entries)
}

func normalizeTopic(topic string) string {
	return strings.ToLower(strings.TrimSpace(topic))
}
