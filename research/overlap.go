// Keyword-overlap support scorer.
//
// A local heuristic that grades how well a claim is grounded in evidence
// without a model call: it counts distinct content words (length >= 5)
// shared between the two texts. It is deliberately crude - a cheap local
// signal, not a verdict.

package research

import (
	"fmt"
	"sort"
	"strings"
)

// SupportLevel grades keyword overlap between a claim and evidence.
type SupportLevel int

const (
	// SupportNone means no meaningful keyword overlap.
	SupportNone SupportLevel = iota
	// SupportWeak means one or two shared content words.
	SupportWeak
	// SupportStrong means three or more shared content words.
	SupportStrong
)

// minContentWordLen filters out stopwords and short function words.
const minContentWordLen = 5

// ScoreSupport returns the overlap grade and the shared content words
// (sorted, capped at ten) between claim and evidence.
func ScoreSupport(claim, evidence string) (SupportLevel, []string) {
	claimWords := contentWords(claim)
	evidenceWords := contentWords(evidence)

	var hits []string
	for w := range claimWords {
		if _, ok := evidenceWords[w]; ok {
			hits = append(hits, w)
		}
	}
	sort.Strings(hits)
	if len(hits) > 10 {
		hits = hits[:10]
	}

	switch {
	case len(hits) >= 3:
		return SupportStrong, hits
	case len(hits) >= 1:
		return SupportWeak, hits
	default:
		return SupportNone, nil
	}
}

// DescribeSupport formats a ScoreSupport result as a human-readable line,
// mirroring what the research adapters return for tooling output.
func DescribeSupport(claim, evidence string) string {
	level, hits := ScoreSupport(claim, evidence)
	switch level {
	case SupportStrong:
		return fmt.Sprintf("supported (keyword overlap: %s)", strings.Join(hits, ", "))
	case SupportWeak:
		return fmt.Sprintf("weak support (keyword overlap: %s)", strings.Join(hits, ", "))
	default:
		return "not supported by evidence (no meaningful keyword overlap)"
	}
}

// contentWords extracts the set of normalized words of at least
// minContentWordLen characters.
func contentWords(s string) map[string]struct{} {
	words := make(map[string]struct{})
	for _, w := range strings.Fields(strings.ToLower(s)) {
		w = strings.Trim(w, ".,!?()[]{}:;\"'`")
		if len(w) >= minContentWordLen {
			words[w] = struct{}{}
		}
	}
	return words
}
