package pipeline

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/rowanvale/chalkline/artifacts"
	"github.com/rowanvale/chalkline/internal/llmjson"
	"github.com/rowanvale/chalkline/llm"
	"github.com/rowanvale/chalkline/storage"
)

// PlanFailureMessage is the user-facing text for the one hard failure
// path: an empty lesson plan.
const PlanFailureMessage = "Failed to generate a valid lesson plan."

const (
	defaultLessonCount = 1
	defaultAge         = 16
)

// Orchestrator drives one job end to end: intent, plan, per-lesson
// pipeline, quiz, sources document, report.
type Orchestrator struct {
	gen      *llm.Generator
	pipeline *Pipeline
	writer   *artifacts.Writer
	store    storage.JobStore
	cfg      Config
	log      *zap.SugaredLogger
}

// NewOrchestrator wires the orchestrator. store may be nil; job history
// is then not persisted.
func NewOrchestrator(gen *llm.Generator, pipeline *Pipeline, writer *artifacts.Writer, store storage.JobStore, cfg Config, log *zap.SugaredLogger) *Orchestrator {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &Orchestrator{gen: gen, pipeline: pipeline, writer: writer, store: store, cfg: cfg, log: log}
}

type intentPayload struct {
	Topic      string `json:"topic"`
	NumLessons int    `json:"num_lessons"`
	Age        int    `json:"age"`
}

// Run executes a job and returns the final report text. It never returns
// an error: a panic anywhere in the job is recovered here, once, and
// converted into a user-visible error string so the hosting process and
// its queues survive.
func (o *Orchestrator) Run(ctx context.Context, request string) (report string) {
	jobID := uuid.NewString()
	status := storage.StatusCompleted
	var stats []VerdictRecord

	defer func() {
		if r := recover(); r != nil {
			o.log.Errorw("job panicked", "job", jobID, "panic", r)
			report = fmt.Sprintf("Error during planning execution: %v", r)
			status = storage.StatusFailed
		}
		o.persist(jobID, request, status, report, stats)
	}()

	topic, numLessons, age := o.extractIntent(ctx, request)
	o.log.Infow("job accepted", "job", jobID, "topic", topic, "lessons", numLessons, "age", age)

	planRaw := o.gen.Generate(ctx, planPrompt(topic, numLessons), llm.Options{MaxTokens: 2000})
	plan, err := llmjson.Decode[UnitPlan](planRaw)
	if err != nil || len(plan.Lessons) == 0 {
		o.log.Errorw("planning failed", "job", jobID, "error", err)
		status = storage.StatusFailed
		return PlanFailureMessage
	}
	if plan.UnitTitle == "" {
		plan.UnitTitle = topic
	}

	unitCtx := NewUnitContext(o.cfg.SummaryWindow)
	cache := NewEvidenceCache()

	var results []Artifact
	for _, spec := range plan.Lessons {
		results = append(results, o.pipeline.Process(ctx, spec, unitCtx, cache))
	}
	stats = unitCtx.FactCheckStats

	quiz := GenerateQuiz(ctx, o.gen, plan.UnitTitle, unitCtx.FullSummaries, age, o.log)
	quizPath, err := o.writer.WriteQuizDoc(plan.UnitTitle, quiz.Format(plan.UnitTitle))
	if err != nil {
		o.log.Warnw("quiz document not persisted", "job", jobID, "error", err)
		quizPath = ""
	}

	sourcesPath := ""
	if len(unitCtx.Sources) > 0 {
		sourcesPath, err = o.writer.WriteSourcesDoc(plan.UnitTitle, groupSources(unitCtx.Sources))
		if err != nil {
			o.log.Warnw("sources document not persisted", "job", jobID, "error", err)
			sourcesPath = ""
		}
	}

	return buildReport(request, planSummary(plan), results, quizPath, sourcesPath, unitCtx.FactCheckStats)
}

// extractIntent parses {topic, lesson count, age} from the raw request,
// defaulting and clamping. An unparseable response falls back to the raw
// request as topic with defaults.
func (o *Orchestrator) extractIntent(ctx context.Context, request string) (string, int, int) {
	raw := o.gen.Generate(ctx, intentPrompt(request), llm.Options{})
	intent, err := llmjson.Decode[intentPayload](raw)
	if err != nil {
		o.log.Warnw("intent extraction unparseable, using defaults", "error", err)
		return request, defaultLessonCount, defaultAge
	}

	topic := strings.TrimSpace(intent.Topic)
	if topic == "" {
		topic = request
	}
	numLessons := intent.NumLessons
	if numLessons < 1 {
		numLessons = defaultLessonCount
	}
	age := intent.Age
	if age == 0 {
		age = defaultAge
	}
	return topic, numLessons, clampAge(age)
}

func planSummary(plan UnitPlan) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Unit: %s\n", plan.UnitTitle)
	for _, l := range plan.Lessons {
		fmt.Fprintf(&b, "  %d. %s\n", l.LessonNumber, l.Title)
	}
	return b.String()
}

// groupSources preserves first-seen lesson order.
func groupSources(sources []SourceRecord) []artifacts.SourceGroup {
	index := make(map[string]int)
	var groups []artifacts.SourceGroup

	for _, src := range sources {
		i, ok := index[src.Lesson]
		if !ok {
			i = len(groups)
			index[src.Lesson] = i
			groups = append(groups, artifacts.SourceGroup{Lesson: src.Lesson})
		}
		groups[i].Entries = append(groups[i].Entries, artifacts.SourceEntry{
			Topic: src.Topic,
			Type:  src.Type,
			Title: src.Title,
			URL:   src.URL,
		})
	}
	return groups
}

// RecordRejection persists a request the intake reviewer turned away, so
// rejected requests appear in the job history alongside completed ones.
func (o *Orchestrator) RecordRejection(request, reason string) {
	o.persist(uuid.NewString(), request, storage.StatusRejected, reason, nil)
}

// persist saves the job record best-effort; failures are logged, never
// surfaced to the user.
func (o *Orchestrator) persist(jobID, request, status, report string, stats []VerdictRecord) {
	if o.store == nil {
		return
	}
	paths, _ := ExtractFiles(report)
	tally := Tally(stats)
	rec := storage.JobRecord{
		ID:            jobID,
		Request:       request,
		Status:        status,
		Report:        report,
		ArtifactPaths: paths,
		FirstGo:       tally.FirstAttemptGo,
		RevisedGo:     tally.RevisedGo,
		Warnings:      tally.Warnings,
	}
	if err := o.store.Save(context.Background(), rec); err != nil {
		o.log.Warnw("job record not persisted", "job", jobID, "error", err)
	}
}
