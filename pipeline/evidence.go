package pipeline

import (
	"context"
	"fmt"
	"strings"

	"github.com/rowanvale/chalkline/research"
)

// PlaceholderEvidence stands in when research produced nothing usable, so
// prompts never carry an empty evidence field.
const PlaceholderEvidence = "No specific evidence found."

// SourceRecord is one citation attributed to a lesson.
type SourceRecord struct {
	Lesson string
	Topic  string
	Type   string
	Title  string
	URL    string
}

// Gather fetches evidence for up to topicCap distinct topics through the
// cache, wrapping each result in a delimited block so sources can be
// re-split later. Topics are deduplicated case-insensitively in
// first-seen order; extras past the cap are silently dropped.
//
// If no topic yields real evidence, it returns PlaceholderEvidence so the
// fact-check gate does not trip its empty-evidence short circuit by
// accident.
func Gather(ctx context.Context, topics []string, topicCap int, cache *EvidenceCache, fetch FetchFunc) string {
	var blocks []string
	allFailed := true

	for _, topic := range dedupeTopics(topics, topicCap) {
		result := cache.GetOrFetch(ctx, topic, fetch)
		if !research.IsFailure(result) {
			allFailed = false
		}
		blocks = append(blocks, fmt.Sprintf("--- article: %s ---\n%s\n", topic, result))
	}

	if len(blocks) == 0 || allFailed {
		return PlaceholderEvidence
	}
	return strings.Join(blocks, "\n")
}

// dedupeTopics trims, case-insensitively deduplicates preserving
// first-seen order, and caps the list.
func dedupeTopics(topics []string, limit int) []string {
	seen := make(map[string]struct{}, len(topics))
	var unique []string
	for _, t := range topics {
		clean := strings.TrimSpace(t)
		if clean == "" {
			continue
		}
		key := strings.ToLower(clean)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		unique = append(unique, clean)
		if len(unique) == limit {
			break
		}
	}
	return unique
}

// ParseSources splits combined evidence back into per-topic source
// records using the delimiter blocks Gather wrote, reading the citation
// lines the research adapters emit. Records are deduplicated by
// (title, url); failed lookups produce no record.
func ParseSources(lessonName, evidence string) []SourceRecord {
	var records []SourceRecord
	seen := make(map[string]struct{})

	for _, span := range splitArticles(evidence) {
		if research.IsFailure(span.body) {
			continue
		}
		title := firstLineValue(span.body, "Wikipedia Article Used:")
		if title == "" {
			title = span.topic
		}
		url := firstLineValue(span.body, "URL:")

		key := title + "|" + url
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		records = append(records, SourceRecord{
			Lesson: lessonName,
			Topic:  span.topic,
			Type:   "Wikipedia",
			Title:  title,
			URL:    url,
		})
	}
	return records
}

type articleSpan struct {
	topic string
	body  string
}

// splitArticles walks the "--- article: <topic> ---" delimiters.
func splitArticles(evidence string) []articleSpan {
	const open = "--- article: "
	const term = " ---"

	var spans []articleSpan
	rest := evidence
	for {
		start := strings.Index(rest, open)
		if start < 0 {
			break
		}
		rest = rest[start+len(open):]
		end := strings.Index(rest, term)
		if end < 0 {
			break
		}
		topic := strings.TrimSpace(rest[:end])
		rest = rest[end+len(term):]

		bodyEnd := strings.Index(rest, open)
		body := rest
		if bodyEnd >= 0 {
			body = rest[:bodyEnd]
		}
		spans = append(spans, articleSpan{topic: topic, body: strings.TrimSpace(body)})
	}
	return spans
}

// firstLineValue returns the remainder of the first line starting with
// prefix, or "".
func firstLineValue(text, prefix string) string {
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if strings.HasPrefix(line, prefix) {
			return strings.TrimSpace(strings.TrimPrefix(line, prefix))
		}
	}
	return ""
}
