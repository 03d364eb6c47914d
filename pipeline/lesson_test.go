package pipeline

import (
	"context"
	"encoding/json"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/rowanvale/chalkline/artifacts"
	"github.com/rowanvale/chalkline/deck"
	"github.com/rowanvale/chalkline/llm"
)

// routerProvider answers each prompt via a routing function, so one stub
// can serve every pipeline stage in order-independent fashion.
type routerProvider struct {
	route func(prompt string) string
}

func (r *routerProvider) Name() string  { return "router" }
func (r *routerProvider) Model() string { return "router-1" }
func (r *routerProvider) Complete(_ context.Context, req llm.Request) (llm.Completion, error) {
	return llm.Completion{Text: r.route(req.Prompt)}, nil
}

const (
	stubIntentJSON = `{"topic": "French Revolution", "num_lessons": 3, "age": 16}`
	stubPlanJSON   = `{
		"unit_title": "The French Revolution",
		"lessons": [
			{"lesson_number": 1, "title": "Causes", "research_topics": ["Estates General 1789"]},
			{"lesson_number": 2, "title": "The Terror", "research_topics": ["Reign of Terror"]},
			{"lesson_number": 3, "title": "Aftermath", "research_topics": ["Napoleon Bonaparte rise"]}
		]
	}`
	stubDraft = "The Estates General convened in 1789 amid a fiscal crisis.\n\n" +
		"The Bastille fell on 14 July 1789.\n\n" +
		"The First Republic was declared in 1792."
	stubSlidesJSON = `{"slides": [
		{"title": "Estates General 1789", "bullets": ["1789", "Fiscal crisis"]},
		{"title": "Fall of the Bastille", "bullets": ["14 July 1789"]}
	]}`
	stubVerdictGo = "GO/NO-GO: GO\nConfidence: High\nReason: fully supported\nWarnings: None"
	stubQuizJSON  = `{"questions": ["When did the Bastille fall?", "What was the Estates General?"]}`
)

// happyRoute answers every stage with well-formed output. overrides map a
// prompt substring to a replacement response.
func happyRoute(overrides map[string]string) func(string) string {
	return func(prompt string) string {
		for marker, response := range overrides {
			if strings.Contains(prompt, marker) {
				return response
			}
		}
		switch {
		case strings.Contains(prompt, "Extract topic, number of lessons"):
			return stubIntentJSON
		case strings.Contains(prompt, "unit plan on"):
			return stubPlanJSON
		case strings.Contains(prompt, "strict fact-checking agent"):
			return stubVerdictGo
		case strings.Contains(prompt, "instructional designer"):
			return stubSlidesJSON
		case strings.Contains(prompt, "creating a quiz"):
			return stubQuizJSON
		case strings.Contains(prompt, "revising educational content"):
			return "Revised: " + stubDraft
		default:
			return stubDraft
		}
	}
}

func stubFetch(_ context.Context, topic string) string {
	return wikiBlock(topic+" (article)", "https://en.wikipedia.org/wiki/"+topic, "Evidence text about "+topic+" with enough length to check against.")
}

// harness wires a full pipeline with a live in-process deck builder.
func newHarness(t *testing.T, route func(string) string) (*Pipeline, *llm.Generator, *artifacts.Writer) {
	t.Helper()
	gen := llm.NewGenerator(&routerProvider{route: route}, llm.DefaultGeneratorConfig(), nil)
	writer := artifacts.NewWriter(t.TempDir(), nil)

	decks := make(chan deck.Request, 8)
	builder := deck.NewBuilder(nil, nil)
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go builder.Run(ctx, decks)

	handoff := deck.NewHandoff(decks, writer.Dir(), 5*time.Millisecond, 100, nil)
	gate := NewGate(gen, nil)
	p := NewPipeline(gen, stubFetch, gate, writer, handoff, DefaultConfig(), nil)
	return p, gen, writer
}

func TestProcessHappyPath(t *testing.T) {
	p, _, _ := newHarness(t, happyRoute(nil))
	unitCtx := NewUnitContext(2)
	cache := NewEvidenceCache()

	spec := LessonSpec{LessonNumber: 1, Title: "Causes", ResearchTopics: []string{"Estates General 1789"}}
	artifact := p.Process(context.Background(), spec, unitCtx, cache)

	if artifact.LessonName != "Lesson 1 - Causes" {
		t.Errorf("lesson name = %q", artifact.LessonName)
	}
	if artifact.DocumentPath == "" {
		t.Error("document path empty")
	}
	if artifact.DeckPath == "" {
		t.Error("deck path empty; builder should have completed")
	}
	if len(unitCtx.Sources) != 1 || unitCtx.Sources[0].Title != "Estates General 1789 (article)" {
		t.Errorf("sources = %+v", unitCtx.Sources)
	}
	if len(unitCtx.SlideTitles) != 2 {
		t.Errorf("slide titles = %v", unitCtx.SlideTitles)
	}
	if len(unitCtx.FactCheckStats) != 1 || unitCtx.FactCheckStats[0].Verdict != "GO" {
		t.Errorf("stats = %+v", unitCtx.FactCheckStats)
	}
}

func TestProcessSpeakerNotesPositional(t *testing.T) {
	p, _, _ := newHarness(t, happyRoute(nil))
	unitCtx := NewUnitContext(2)

	spec := LessonSpec{LessonNumber: 1, Title: "Causes", ResearchTopics: []string{"Estates General 1789"}}
	artifact := p.Process(context.Background(), spec, unitCtx, NewEvidenceCache())

	data, err := os.ReadFile(artifact.DeckPath)
	if err != nil {
		t.Fatal(err)
	}
	var doc struct {
		Slides []deck.Slide `json:"slides"`
	}
	if err := json.Unmarshal(data, &doc); err != nil {
		t.Fatal(err)
	}
	if len(doc.Slides) != 2 {
		t.Fatalf("slides = %d", len(doc.Slides))
	}
	if !strings.Contains(doc.Slides[0].Notes, "Estates General convened in 1789") {
		t.Errorf("slide 0 notes = %q, want section 1 of the draft", doc.Slides[0].Notes)
	}
	if !strings.Contains(doc.Slides[1].Notes, "Bastille fell") {
		t.Errorf("slide 1 notes = %q, want section 2 of the draft", doc.Slides[1].Notes)
	}
}

func TestAttachNotesClearsExtraSlides(t *testing.T) {
	// One-section draft against three slides: the model invented notes
	// for the extras, which must not survive.
	draft := "The Estates General convened in 1789 amid a fiscal crisis."
	slides := []deck.Slide{
		{Title: "A"},
		{Title: "B", Notes: "model-invented notes"},
		{Title: "C", Notes: "more invented notes"},
	}

	got := attachNotes(draft, slides)

	if !strings.Contains(got[0].Notes, "Estates General") {
		t.Errorf("slide 0 notes = %q, want the draft section", got[0].Notes)
	}
	if got[1].Notes != "" {
		t.Errorf("slide 1 notes = %q, want empty", got[1].Notes)
	}
	if got[2].Notes != "" {
		t.Errorf("slide 2 notes = %q, want empty", got[2].Notes)
	}
}

func TestProcessMalformedSlideJSON(t *testing.T) {
	route := happyRoute(map[string]string{
		"instructional designer": "Sorry, here are some thoughts about slides instead.",
	})
	p, _, _ := newHarness(t, route)
	unitCtx := NewUnitContext(2)

	spec := LessonSpec{LessonNumber: 1, Title: "Causes", ResearchTopics: []string{"Estates General 1789"}}
	artifact := p.Process(context.Background(), spec, unitCtx, NewEvidenceCache())

	if artifact.DocumentPath == "" {
		t.Error("lesson should still produce its document")
	}
	if len(unitCtx.SlideTitles) != 1 || unitCtx.SlideTitles[0] != PlaceholderSlideTitle {
		t.Errorf("slide titles = %v, want single placeholder", unitCtx.SlideTitles)
	}
}

func TestReviseTerminatesAtCap(t *testing.T) {
	route := happyRoute(map[string]string{
		"strict fact-checking agent": "GO/NO-GO: NO-GO\nConfidence: Low\nReason: unsupported\nWarnings: several unsupported claims",
	})
	p, _, _ := newHarness(t, route)

	draft, verdict, attempts := p.revise(context.Background(), "Lesson 1 - Causes", stubDraft, strings.Repeat("evidence ", 10))
	if attempts != 4 {
		t.Errorf("attempts = %d, want 4", attempts)
	}
	if draft == "" {
		t.Error("draft discarded at the cap")
	}
	if verdict.Decision != DecisionNoGo {
		t.Errorf("final decision = %s", verdict.Decision)
	}
	if got := verdictLabel(verdict, attempts); got != "WARNING (tried 4 revisions)" {
		t.Errorf("label = %q", got)
	}
}

func TestReviseEarlyExitNoWarnings(t *testing.T) {
	calls := 0
	route := func(prompt string) string {
		if strings.Contains(prompt, "strict fact-checking agent") {
			calls++
			return "GO/NO-GO: NO-GO\nConfidence: Low\nReason: ambiguous\nWarnings: None"
		}
		t.Errorf("unexpected generation: %.60s", prompt)
		return ""
	}
	p, _, _ := newHarness(t, route)

	_, _, attempts := p.revise(context.Background(), "Lesson 1 - Causes", stubDraft, strings.Repeat("evidence ", 10))
	if attempts != 0 {
		t.Errorf("attempts = %d, want 0 when nothing is actionable", attempts)
	}
	if calls != 1 {
		t.Errorf("gate calls = %d, want 1", calls)
	}
}

func TestReviseGoFirstAttempt(t *testing.T) {
	p, _, _ := newHarness(t, happyRoute(nil))
	_, verdict, attempts := p.revise(context.Background(), "Lesson 1 - Causes", stubDraft, strings.Repeat("evidence ", 10))
	if attempts != 0 || verdict.Decision != DecisionGo {
		t.Errorf("attempts = %d, decision = %s", attempts, verdict.Decision)
	}
	if got := verdictLabel(verdict, attempts); got != "GO" {
		t.Errorf("label = %q", got)
	}
}

func TestReviseRevisedGoLabel(t *testing.T) {
	checks := 0
	route := func(prompt string) string {
		switch {
		case strings.Contains(prompt, "strict fact-checking agent"):
			checks++
			if checks == 1 {
				return "GO/NO-GO: NO-GO\nConfidence: Low\nReason: a claim lacks support\nWarnings: the treaty date is unsupported"
			}
			return stubVerdictGo
		case strings.Contains(prompt, "revising educational content"):
			return "Revised: " + stubDraft
		default:
			return stubDraft
		}
	}
	p, _, _ := newHarness(t, route)

	draft, verdict, attempts := p.revise(context.Background(), "Lesson 1 - Causes", stubDraft, strings.Repeat("evidence ", 10))
	if attempts != 1 || verdict.Decision != DecisionGo {
		t.Fatalf("attempts = %d, decision = %s", attempts, verdict.Decision)
	}
	if !strings.HasPrefix(draft, "Revised:") {
		t.Errorf("draft = %.30q, want the regenerated one", draft)
	}
	if got := verdictLabel(verdict, attempts); got != "GO (revised 1x)" {
		t.Errorf("label = %q", got)
	}
}

func TestVerdictLabelUnknownCountsAsWarning(t *testing.T) {
	label := verdictLabel(Verdict{Decision: DecisionUnknown}, 0)
	if label != "WARNING (tried 0 revisions)" {
		t.Errorf("label = %q, want WARNING (tried 0 revisions)", label)
	}

	tally := Tally([]VerdictRecord{{Lesson: "Lesson 1 - Causes", Verdict: label}})
	if tally.Warnings != 1 {
		t.Errorf("warnings tally = %d, want 1", tally.Warnings)
	}
}

func TestLessonSpecLegacyTopicFields(t *testing.T) {
	cases := map[string][]string{
		`{"lesson_number":1,"title":"A","research_topics":["canonical"]}`:                                                     {"canonical"},
		`{"lesson_number":1,"title":"A","topics_to_research_on_wikipedia":["wiki legacy"]}`:                                   {"wiki legacy"},
		`{"lesson_number":1,"title":"A","topics_to_research_on_britannica":["brit legacy"]}`:                                  {"brit legacy"},
		`{"lesson_number":1,"title":"A","research_topics":["canonical"],"topics_to_research_on_wikipedia":["wiki legacy"]}`:   {"canonical"},
	}
	for raw, want := range cases {
		var spec LessonSpec
		if err := json.Unmarshal([]byte(raw), &spec); err != nil {
			t.Fatal(err)
		}
		if len(spec.ResearchTopics) != 1 || spec.ResearchTopics[0] != want[0] {
			t.Errorf("topics for %s = %v, want %v", raw, spec.ResearchTopics, want)
		}
	}
}
