package artifacts

import (
	"fmt"
	"os"
	"strings"

	"go.uber.org/zap"
)

// SourceEntry is one citation attributed to a lesson.
type SourceEntry struct {
	Topic string
	Type  string
	Title string
	URL   string
}

// SourceGroup collects the citations for a single lesson, in the order
// they were gathered.
type SourceGroup struct {
	Lesson  string
	Entries []SourceEntry
}

// Writer persists job documents as markdown files under a single output
// directory.
type Writer struct {
	dir string
	log *zap.SugaredLogger
}

// NewWriter creates a Writer rooted at dir. The directory is created on
// first write.
func NewWriter(dir string, log *zap.SugaredLogger) *Writer {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &Writer{dir: dir, log: log}
}

// Dir returns the output directory.
func (w *Writer) Dir() string {
	return w.dir
}

// WriteLessonDoc persists a lesson guide and returns its path.
func (w *Writer) WriteLessonDoc(title, body string) (string, error) {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n", title)
	b.WriteString(strings.TrimSpace(body))
	b.WriteString("\n")
	return w.write(Slug(title), b.String())
}

// WriteQuizDoc persists the unit quiz and returns its path.
func (w *Writer) WriteQuizDoc(unitTitle, quizText string) (string, error) {
	var b strings.Builder
	fmt.Fprintf(&b, "# Quiz: %s\n\n", unitTitle)
	b.WriteString(strings.TrimSpace(quizText))
	b.WriteString("\n")
	return w.write(Slug(unitTitle)+"-quiz", b.String())
}

// WriteSourcesDoc persists the per-lesson source list and returns its
// path. Lessons with no sources still get a heading so the document
// reflects the whole unit.
func (w *Writer) WriteSourcesDoc(unitTitle string, groups []SourceGroup) (string, error) {
	var b strings.Builder
	fmt.Fprintf(&b, "# Sources: %s\n", unitTitle)
	for _, g := range groups {
		fmt.Fprintf(&b, "\n## %s\n\n", g.Lesson)
		if len(g.Entries) == 0 {
			b.WriteString("_No sources recorded._\n")
			continue
		}
		for _, e := range g.Entries {
			fmt.Fprintf(&b, "- **%s** (%s, topic: %s)", e.Title, e.Type, e.Topic)
			if e.URL != "" {
				fmt.Fprintf(&b, " - %s", e.URL)
			}
			b.WriteString("\n")
		}
	}
	return w.write(Slug(unitTitle)+"-sources", b.String())
}

func (w *Writer) write(base, content string) (string, error) {
	if err := os.MkdirAll(w.dir, 0o755); err != nil {
		return "", fmt.Errorf("create output dir: %w", err)
	}
	path := UniquePath(w.dir, base, ".md")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return "", fmt.Errorf("write %s: %w", path, err)
	}
	w.log.Debugw("document written", "path", path)
	return path, nil
}
