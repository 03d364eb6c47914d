package artifacts

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestSlug(t *testing.T) {
	cases := map[string]string{
		"The French Revolution":         "the-french-revolution",
		"Lesson 2: Storming (1789)!":    "lesson-2-storming-1789",
		"  --weird   input--  ":         "weird-input",
		"Café Société":                  "cafe-societe",
		"!!!":                           "presentation",
		"":                              "presentation",
	}
	for in, want := range cases {
		if got := Slug(in); got != want {
			t.Errorf("Slug(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestSlugLengthCap(t *testing.T) {
	long := strings.Repeat("history ", 20)
	got := Slug(long)
	if len(got) > maxSlugLen {
		t.Errorf("slug length %d exceeds cap", len(got))
	}
	if strings.HasSuffix(got, "-") {
		t.Errorf("slug %q has trailing hyphen after cap", got)
	}
}

func TestUniquePathDisambiguates(t *testing.T) {
	dir := t.TempDir()

	first := UniquePath(dir, "lesson", ".md")
	if first != filepath.Join(dir, "lesson.md") {
		t.Fatalf("first = %q", first)
	}
	if err := os.WriteFile(first, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	second := UniquePath(dir, "lesson", ".md")
	if second != filepath.Join(dir, "lesson-1.md") {
		t.Errorf("second = %q, want lesson-1.md", second)
	}
}

func TestUniquePathPureRecomputation(t *testing.T) {
	dir := t.TempDir()
	a := UniquePath(dir, "deck", ".deck.json")
	b := UniquePath(dir, "deck", ".deck.json")
	if a != b {
		t.Errorf("recomputation without writes diverged: %q vs %q", a, b)
	}
}

func TestWriterLessonDoc(t *testing.T) {
	dir := t.TempDir()
	w := NewWriter(dir, nil)

	path, err := w.WriteLessonDoc("Lesson 1: Causes", "Body text here.")
	if err != nil {
		t.Fatal(err)
	}
	if filepath.Base(path) != "lesson-1-causes.md" {
		t.Errorf("path = %q", path)
	}
	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(string(content), "# Lesson 1: Causes\n") {
		t.Errorf("content = %q", content)
	}
}

func TestWriterSourcesDocGroupsByLesson(t *testing.T) {
	dir := t.TempDir()
	w := NewWriter(dir, nil)

	groups := []SourceGroup{
		{Lesson: "Lesson 1: Causes", Entries: []SourceEntry{
			{Topic: "Estates General", Type: "Wikipedia", Title: "Estates General of 1789", URL: "https://en.wikipedia.org/wiki/Estates_General_of_1789"},
		}},
		{Lesson: "Lesson 2: The Terror"},
	}

	path, err := w.WriteSourcesDoc("French Revolution", groups)
	if err != nil {
		t.Fatal(err)
	}
	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	text := string(content)
	for _, want := range []string{
		"# Sources: French Revolution",
		"## Lesson 1: Causes",
		"Estates General of 1789",
		"## Lesson 2: The Terror",
		"_No sources recorded._",
	} {
		if !strings.Contains(text, want) {
			t.Errorf("sources doc missing %q", want)
		}
	}
}
