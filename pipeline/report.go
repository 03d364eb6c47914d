package pipeline

import (
	"fmt"
	"strings"
)

// FileMarker prefixes artifact paths embedded in a report so a transport
// consumer can split them out of the display text.
const FileMarker = "__FILE__:"

// DefaultChunkLimit is the transport-safe chunk size for report text.
const DefaultChunkLimit = 1900

// FactCheckTally summarizes a job's verdict records.
type FactCheckTally struct {
	FirstAttemptGo int
	RevisedGo      int
	Warnings       int
}

// Tally counts first-attempt approvals, revised approvals, and lessons
// still carrying warnings.
func Tally(stats []VerdictRecord) FactCheckTally {
	var t FactCheckTally
	for _, s := range stats {
		switch {
		case s.Verdict == "GO":
			t.FirstAttemptGo++
		case strings.Contains(s.Verdict, "revised") && strings.Contains(s.Verdict, "GO"):
			t.RevisedGo++
		case strings.Contains(s.Verdict, "WARNING"):
			t.Warnings++
		}
	}
	return t
}

// buildReport assembles the final user-facing report: request echo, plan
// summary, per-lesson artifact paths as FileMarker lines, quiz and
// sources paths, and the fact-check summary.
func buildReport(request, planSummary string, results []Artifact, quizPath, sourcesPath string, stats []VerdictRecord) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Request: %s\n\n", request)
	fmt.Fprintf(&b, "Plan:\n%s\n", planSummary)
	b.WriteString("Files:\n")

	for _, r := range results {
		fmt.Fprintf(&b, "- %s\n", r.LessonName)
		if r.DocumentPath != "" {
			fmt.Fprintf(&b, "  %s%s\n", FileMarker, r.DocumentPath)
		} else {
			fmt.Fprintf(&b, "  (lesson document missing)\n")
		}
		if r.DeckPath != "" {
			fmt.Fprintf(&b, "  %s%s\n", FileMarker, r.DeckPath)
		} else {
			fmt.Fprintf(&b, "  (deck not produced within the wait window)\n")
		}
	}

	if quizPath != "" {
		fmt.Fprintf(&b, "- Quiz\n  %s%s\n", FileMarker, quizPath)
	}
	if sourcesPath != "" {
		fmt.Fprintf(&b, "- Research Sources Document\n  %s%s\n", FileMarker, sourcesPath)
	}

	if len(stats) > 0 {
		t := Tally(stats)
		b.WriteString("\nFact Checking Summary:\n")
		if t.FirstAttemptGo > 0 {
			fmt.Fprintf(&b, "- %d lesson(s) verified on first attempt\n", t.FirstAttemptGo)
		}
		if t.RevisedGo > 0 {
			fmt.Fprintf(&b, "- %d lesson(s) revised and approved\n", t.RevisedGo)
		}
		if t.Warnings > 0 {
			fmt.Fprintf(&b, "- %d lesson(s) have warnings\n", t.Warnings)
		}
		b.WriteString("\nDetails by lesson:\n")
		for _, s := range stats {
			fmt.Fprintf(&b, "- %s: %s\n", s.Lesson, s.Verdict)
		}
	}

	return strings.TrimRight(b.String(), "\n")
}

// ExtractFiles pulls every FileMarker path out of a report, returning the
// paths and the report with the markers removed.
func ExtractFiles(text string) ([]string, string) {
	var paths []string
	var kept []string

	for _, line := range strings.Split(text, "\n") {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, FileMarker) {
			if path := strings.TrimSpace(strings.TrimPrefix(trimmed, FileMarker)); path != "" {
				paths = append(paths, path)
			}
			continue
		}
		kept = append(kept, line)
	}
	return paths, strings.TrimSpace(strings.Join(kept, "\n"))
}

// ChunkMessage splits report text into chunks of at most limit bytes,
// preferring to break at a newline. limit <= 0 uses DefaultChunkLimit.
func ChunkMessage(text string, limit int) []string {
	if limit <= 0 {
		limit = DefaultChunkLimit
	}
	var chunks []string
	for len(text) > limit {
		split := strings.LastIndex(text[:limit], "\n")
		if split <= 0 {
			split = limit
		}
		chunks = append(chunks, text[:split])
		text = text[split:]
	}
	return append(chunks, text)
}
