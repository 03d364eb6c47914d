package pipeline

import (
	"fmt"
	"strings"
)

// summaryTruncateLen bounds how much of a lesson carries forward in the
// anti-repetition window; full text still goes to FullSummaries.
const summaryTruncateLen = 1000

// VerdictRecord is the final fact-check outcome retained for one lesson.
type VerdictRecord struct {
	Lesson  string
	Verdict string
	Details string
}

// UnitContext is the mutable state threaded across the lessons of one
// job. Each job owns exactly one instance; lessons run sequentially, so
// no locking. RecentSummaries is a sliding window (oldest evicted);
// everything else is append-only within the job.
type UnitContext struct {
	RecentSummaries []string
	FullSummaries   []string
	SlideTitles     []string
	Sources         []SourceRecord
	FactCheckStats  []VerdictRecord

	window int
}

// NewUnitContext creates a fresh context with the given summary-window
// size (0 falls back to 2).
func NewUnitContext(window int) *UnitContext {
	if window <= 0 {
		window = 2
	}
	return &UnitContext{window: window}
}

// AppendSummary records a finished lesson: the truncated text enters the
// sliding window, the full text is kept for quiz generation.
func (u *UnitContext) AppendSummary(lessonName, full string) {
	truncated := full
	if len(truncated) > summaryTruncateLen {
		truncated = truncated[:summaryTruncateLen]
	}
	u.RecentSummaries = append(u.RecentSummaries, fmt.Sprintf("%s:\n%s...", lessonName, truncated))
	if len(u.RecentSummaries) > u.window {
		u.RecentSummaries = u.RecentSummaries[len(u.RecentSummaries)-u.window:]
	}
	u.FullSummaries = append(u.FullSummaries, full)
}

// PreviousContent joins the window summaries for use as anti-repetition
// prompt context. Empty for the first lesson.
func (u *UnitContext) PreviousContent() string {
	return strings.Join(u.RecentSummaries, "\n\n---PREVIOUS LESSON---\n\n")
}

// RecordVerdict appends a lesson's final fact-check outcome.
func (u *UnitContext) RecordVerdict(rec VerdictRecord) {
	u.FactCheckStats = append(u.FactCheckStats, rec)
}
