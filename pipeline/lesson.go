package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/rowanvale/chalkline/artifacts"
	"github.com/rowanvale/chalkline/deck"
	"github.com/rowanvale/chalkline/internal/llmjson"
	"github.com/rowanvale/chalkline/llm"
	"github.com/rowanvale/chalkline/research"
)

// PlaceholderSlideTitle marks the single substitute slide used when slide
// generation returns nothing parseable.
const PlaceholderSlideTitle = "Slide generation failed"

// UnitPlan is the planner's output: a titled unit of lesson specs.
type UnitPlan struct {
	UnitTitle string       `json:"unit_title"`
	Lessons   []LessonSpec `json:"lessons"`
}

// LessonSpec describes one lesson to produce. The canonical JSON field for
// topics is research_topics; two legacy names from older planner schemas
// are accepted on decode as fallbacks.
type LessonSpec struct {
	LessonNumber   int
	Title          string
	ResearchTopics []string
}

func (l *LessonSpec) UnmarshalJSON(data []byte) error {
	var raw struct {
		LessonNumber   int      `json:"lesson_number"`
		Title          string   `json:"title"`
		ResearchTopics []string `json:"research_topics"`
		LegacyWiki     []string `json:"topics_to_research_on_wikipedia"`
		LegacyBrit     []string `json:"topics_to_research_on_britannica"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	l.LessonNumber = raw.LessonNumber
	l.Title = raw.Title
	switch {
	case raw.ResearchTopics != nil:
		l.ResearchTopics = raw.ResearchTopics
	case raw.LegacyWiki != nil:
		l.ResearchTopics = raw.LegacyWiki
	default:
		l.ResearchTopics = raw.LegacyBrit
	}
	return nil
}

// Name returns the lesson's display name, "Lesson <n> - <title>".
func (l LessonSpec) Name() string {
	title := l.Title
	if title == "" {
		title = "Untitled"
	}
	return fmt.Sprintf("Lesson %d - %s", l.LessonNumber, title)
}

// Artifact is the result of processing one lesson. Empty paths mean the
// corresponding file never materialized; that is degraded success, not an
// error.
type Artifact struct {
	LessonName   string
	Topics       []string
	DocumentPath string
	DeckPath     string
}

// Config carries the pipeline's tunables.
type Config struct {
	SlideTarget   int
	TopicCap      int
	RevisionCap   int
	SummaryWindow int
}

// DefaultConfig mirrors the production defaults.
func DefaultConfig() Config {
	return Config{SlideTarget: 30, TopicCap: 5, RevisionCap: 4, SummaryWindow: 2}
}

// Pipeline runs the per-lesson procedure: gather evidence, draft, fact
// check and revise, persist the guide, derive slides, hand off the deck.
// It holds no per-job state; the job's UnitContext and EvidenceCache come
// in per call.
type Pipeline struct {
	gen    *llm.Generator
	fetch  FetchFunc
	gate   *Gate
	writer *artifacts.Writer
	decks  *deck.Handoff
	cfg    Config
	log    *zap.SugaredLogger
}

// NewPipeline wires the lesson pipeline.
func NewPipeline(gen *llm.Generator, fetch FetchFunc, gate *Gate, writer *artifacts.Writer, decks *deck.Handoff, cfg Config, log *zap.SugaredLogger) *Pipeline {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &Pipeline{gen: gen, fetch: fetch, gate: gate, writer: writer, decks: decks, cfg: cfg, log: log}
}

// Process produces one lesson's artifacts, consuming and updating the
// job's shared context and cache. Evidence, drafting, persistence and
// slide derivation all degrade gracefully; a panic anywhere is recovered
// only at the orchestrator boundary.
func (p *Pipeline) Process(ctx context.Context, spec LessonSpec, unitCtx *UnitContext, cache *EvidenceCache) Artifact {
	name := spec.Name()
	p.log.Infow("processing lesson", "lesson", name, "topics", len(spec.ResearchTopics))

	evidence := Gather(ctx, spec.ResearchTopics, p.cfg.TopicCap, cache, p.fetch)
	candidates := ParseSources(name, evidence)

	draft := p.gen.Generate(ctx,
		draftPrompt(name, evidence, unitCtx.PreviousContent(), p.cfg.SlideTarget),
		llm.Options{MaxTokens: 2000})

	draft, verdict, attempts := p.revise(ctx, name, draft, evidence)
	p.log.Debugw("local support check", "lesson", name,
		"result", research.DescribeSupport(draft, evidence))
	unitCtx.RecordVerdict(VerdictRecord{
		Lesson:  name,
		Verdict: verdictLabel(verdict, attempts),
		Details: verdict.Raw,
	})

	excluded := titleSet(ExcludeFlaggedSources(verdict.Warnings, candidates))
	for _, src := range candidates {
		if excluded[src.Title] {
			p.log.Infow("excluding flagged source", "lesson", name, "source", src.Title)
			continue
		}
		unitCtx.Sources = append(unitCtx.Sources, src)
	}

	unitCtx.AppendSummary(name, draft)

	docPath, err := p.writer.WriteLessonDoc(name, draft)
	if err != nil {
		p.log.Warnw("lesson document not persisted", "lesson", name, "error", err)
		docPath = ""
	}

	slides := p.deriveSlides(ctx, name, draft, unitCtx.SlideTitles)
	for _, s := range slides {
		unitCtx.SlideTitles = append(unitCtx.SlideTitles, s.Title)
	}

	deckPath, ok := p.decks.Submit(ctx, name, slides)
	if !ok {
		p.log.Warnw("deck missing, shipping lesson without it", "lesson", name)
	}

	return Artifact{
		LessonName:   name,
		Topics:       spec.ResearchTopics,
		DocumentPath: docPath,
		DeckPath:     deckPath,
	}
}

// revise runs the bounded fact-check-and-revise loop. It never discards a
// draft: at the attempt cap the last draft ships with whatever verdict it
// earned. Returns the final draft, final verdict, and revision count.
func (p *Pipeline) revise(ctx context.Context, name, draft, evidence string) (string, Verdict, int) {
	verdict := p.gate.Check(ctx, draft, evidence)
	attempts := 0

	for verdict.Decision != DecisionGo && attempts < p.cfg.RevisionCap {
		// Nothing actionable to revise against: accept the draft rather
		// than tightening forever on an ambiguous verdict.
		if !verdict.HasWarnings() {
			break
		}
		attempts++
		p.log.Infow("revising draft", "lesson", name, "attempt", attempts, "cap", p.cfg.RevisionCap)

		draft = p.gen.Generate(ctx,
			revisionPrompt(name, verdict.Raw, evidence, p.cfg.SlideTarget),
			llm.Options{MaxTokens: 2000})
		verdict = p.gate.Check(ctx, draft, evidence)
	}
	return draft, verdict, attempts
}

func verdictLabel(v Verdict, attempts int) string {
	switch {
	case v.Decision == DecisionGo && attempts == 0:
		return "GO"
	case v.Decision == DecisionGo:
		return fmt.Sprintf("GO (revised %dx)", attempts)
	default:
		// UNKNOWN verdicts land here too, so lessons with no usable
		// evidence still show up in the fact-check tally.
		return fmt.Sprintf("WARNING (tried %d revisions)", attempts)
	}
}

// ExcludeFlaggedSources decides which candidate sources the verdict's
// free-text warnings flag as irrelevant, returning the excluded subset.
// The match is a best-effort substring heuristic: a source is excluded
// when the warnings mention it (directly, or alongside generic
// irrelevance language) and share a distinctive word (>4 chars) with its
// title. Isolated here so a stricter mechanism can replace it without
// touching the pipeline.
func ExcludeFlaggedSources(warnings string, candidates []SourceRecord) []SourceRecord {
	w := strings.ToLower(strings.TrimSpace(warnings))
	if w == "" || strings.EqualFold(w, "none") {
		return nil
	}

	genericFlag := strings.Contains(w, "unrelated") || strings.Contains(w, "not relevant") || strings.Contains(w, "irrelevant")

	var excluded []SourceRecord
	for _, src := range candidates {
		titleLower := strings.ToLower(src.Title)
		if !genericFlag && !strings.Contains(w, titleLower) {
			continue
		}
		for _, word := range strings.Fields(titleLower) {
			if len(word) > 4 && strings.Contains(w, word) {
				excluded = append(excluded, src)
				break
			}
		}
	}
	return excluded
}

func titleSet(records []SourceRecord) map[string]bool {
	set := make(map[string]bool, len(records))
	for _, r := range records {
		set[r.Title] = true
	}
	return set
}

type slidePayload struct {
	Slides []deck.Slide `json:"slides"`
}

// deriveSlides asks the generation service for a slide outline and parses
// it leniently. Total parse failure substitutes a single placeholder
// slide; the lesson continues.
func (p *Pipeline) deriveSlides(ctx context.Context, name, draft string, previousTitles []string) []deck.Slide {
	raw := p.gen.Generate(ctx,
		slidePrompt(name, draft, p.cfg.SlideTarget, previousTitles),
		llm.Options{MaxTokens: 4000, Temperature: 0.3})

	payload, err := llmjson.Decode[slidePayload](raw)
	if err != nil || len(payload.Slides) == 0 {
		p.log.Errorw("slide generation unparseable", "lesson", name, "error", err)
		return []deck.Slide{{
			Title:   PlaceholderSlideTitle,
			Bullets: []string{"Check logs."},
			Notes:   "Slide generation failed.",
		}}
	}
	return attachNotes(draft, payload.Slides)
}

// attachNotes maps speaker notes positionally: slide i gets section i of
// the draft, split on blank lines; extra slides get empty notes.
func attachNotes(draft string, slides []deck.Slide) []deck.Slide {
	sections := splitSections(draft)
	for i := range slides {
		if i < len(sections) {
			slides[i].Notes = sections[i]
		} else {
			// Clear any notes the model invented for slides past the
			// draft's last section.
			slides[i].Notes = ""
		}
	}
	return slides
}

func splitSections(text string) []string {
	var sections []string
	for _, s := range strings.Split(text, "\n\n") {
		if s = strings.TrimSpace(s); s != "" {
			sections = append(sections, s)
		}
	}
	return sections
}
