package pipeline

import (
	"context"
	"strings"
	"testing"

	"github.com/rowanvale/chalkline/llm"
)

func TestGenerateQuizHappyPath(t *testing.T) {
	provider := &countingProvider{text: `{"questions": ["When did the Bastille fall?", "Who led the Jacobins?"]}`}
	gen := llm.NewGenerator(provider, llm.DefaultGeneratorConfig(), nil)

	quiz := GenerateQuiz(context.Background(), gen, "The French Revolution",
		[]string{"lesson one text", "lesson two text"}, 16, nil)

	if len(quiz.Questions) != 2 {
		t.Errorf("questions = %v", quiz.Questions)
	}
	if quiz.Age != 16 {
		t.Errorf("age = %d", quiz.Age)
	}
}

func TestGenerateQuizClampsAge(t *testing.T) {
	provider := &countingProvider{text: `{"questions": ["Q?"]}`}
	gen := llm.NewGenerator(provider, llm.DefaultGeneratorConfig(), nil)

	quiz := GenerateQuiz(context.Background(), gen, "Unit", []string{"text"}, 30, nil)
	if quiz.Age != 18 {
		t.Errorf("age = %d, want clamped to 18", quiz.Age)
	}
}

func TestGenerateQuizFallback(t *testing.T) {
	provider := &countingProvider{text: "I could not come up with questions."}
	gen := llm.NewGenerator(provider, llm.DefaultGeneratorConfig(), nil)

	quiz := GenerateQuiz(context.Background(), gen, "Unit", []string{"text"}, 16, nil)
	if len(quiz.Questions) != 1 || quiz.Questions[0] != QuizFallbackQuestion {
		t.Errorf("questions = %v, want fallback", quiz.Questions)
	}
}

func TestGenerateQuizTruncatesSource(t *testing.T) {
	var prompt string
	gen := llm.NewGenerator(&routerProvider{route: func(p string) string {
		prompt = p
		return `{"questions": ["Q?"]}`
	}}, llm.DefaultGeneratorConfig(), nil)

	long := strings.Repeat("lesson text ", 1000)
	GenerateQuiz(context.Background(), gen, "Unit", []string{long}, 16, nil)

	if !strings.Contains(prompt, "[Content truncated for length]") {
		t.Error("quiz prompt missing truncation marker for oversized content")
	}
	if len(prompt) > quizSourceLimit+2000 {
		t.Errorf("prompt length %d suggests content was not truncated", len(prompt))
	}
}

func TestQuizFormat(t *testing.T) {
	quiz := Quiz{Questions: []string{"When did the Bastille fall?", "Who led the Jacobins?"}, Age: 16}
	got := quiz.Format("The French Revolution")

	if !strings.Contains(got, "QUIZ: The French Revolution") {
		t.Errorf("got %q", got)
	}
	if !strings.Contains(got, "Questions for Age 16 Students") {
		t.Errorf("got %q", got)
	}
	if !strings.Contains(got, "1. When did the Bastille fall?") ||
		!strings.Contains(got, "2. Who led the Jacobins?") {
		t.Errorf("got %q", got)
	}
}
