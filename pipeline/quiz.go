package pipeline

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/rowanvale/chalkline/internal/llmjson"
	"github.com/rowanvale/chalkline/llm"
)

// QuizFallbackQuestion replaces the question list when quiz generation
// returns nothing parseable.
const QuizFallbackQuestion = "Error generating quiz questions - check logs"

// quizSourceLimit bounds how much lesson text goes into the quiz prompt.
const quizSourceLimit = 4000

const (
	minQuizAge = 14
	maxQuizAge = 18
)

// Quiz is the generated question set for one unit.
type Quiz struct {
	Questions []string `json:"questions"`
	Age       int      `json:"-"`
}

// GenerateQuiz produces age-banded questions from the unit's full lesson
// summaries. Age is clamped to [14,18]; parse failure yields a single
// fallback question rather than an error.
func GenerateQuiz(ctx context.Context, gen *llm.Generator, unitTitle string, summaries []string, age int, log *zap.SugaredLogger) Quiz {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	age = clampAge(age)

	combined := strings.Join(summaries, "\n\n=== LESSON ===\n\n")
	if len(combined) > quizSourceLimit {
		combined = combined[:quizSourceLimit] + "...\n[Content truncated for length]"
	}

	raw := gen.Generate(ctx, quizPrompt(unitTitle, combined, age, 10),
		llm.Options{MaxTokens: 1500, Temperature: 0.5})

	quiz, err := llmjson.Decode[Quiz](raw)
	if err != nil || len(quiz.Questions) == 0 {
		log.Errorw("quiz generation unparseable", "unit", unitTitle, "error", err)
		quiz.Questions = []string{QuizFallbackQuestion}
	}
	quiz.Age = age
	return quiz
}

// Format renders the quiz as document text.
func (q Quiz) Format(unitTitle string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "QUIZ: %s\n%s\n\n", unitTitle, strings.Repeat("=", 60))
	fmt.Fprintf(&b, "Questions for Age %d Students\n%s\n\n", q.Age, strings.Repeat("-", 60))
	for i, question := range q.Questions {
		fmt.Fprintf(&b, "%d. %s\n\n", i+1, question)
	}
	return strings.TrimRight(b.String(), "\n") + "\n"
}

func clampAge(age int) int {
	if age < minQuizAge {
		return minQuizAge
	}
	if age > maxQuizAge {
		return maxQuizAge
	}
	return age
}

// quizPrompt bands difficulty by age: recall up to 14, comprehension up
// to 16, analysis for 17-18.
func quizPrompt(unitTitle, summaries string, age, numQuestions int) string {
	var guidance string
	switch {
	case age <= 14:
		guidance = `- Simple factual recall: names, dates, places, events
- Short answer format with concrete answers`
	case age <= 16:
		guidance = `- Mix of factual recall and basic comprehension
- Questions about key events and their immediate significance`
	default:
		guidance = `- Analytical and critical thinking questions
- Require explanation, comparison or analysis of causes and effects`
	}

	return strings.TrimSpace(fmt.Sprintf(`
You are an expert teacher creating a quiz for %d-year-old students who
completed this lesson unit.

Unit Title: %s

Lesson Content:
%s

Generate EXACTLY %d questions appropriate for %d-year-old students.

Requirements for age %d:
%s

Return STRICT JSON:
{"questions": ["Question 1?", "Question 2?"]}

Rules:
1. Every question MUST be answerable from the lesson content above
2. Do not ask about material the lessons do not cover
3. Generate EXACTLY %d questions
`, age, unitTitle, summaries, numQuestions, age, age, guidance, numQuestions))
}
