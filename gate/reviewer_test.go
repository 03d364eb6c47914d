package gate

import (
	"context"
	"strings"
	"testing"

	"github.com/rowanvale/chalkline/llm"
)

// fixedProvider returns a canned completion for every call.
type fixedProvider struct {
	text  string
	calls int
}

func (f *fixedProvider) Name() string  { return "fixed" }
func (f *fixedProvider) Model() string { return "fixed-1" }
func (f *fixedProvider) Complete(_ context.Context, _ llm.Request) (llm.Completion, error) {
	f.calls++
	return llm.Completion{Text: f.text}, nil
}

func newTestGenerator(text string) *llm.Generator {
	return llm.NewGenerator(&fixedProvider{text: text}, llm.DefaultGeneratorConfig(), nil)
}

func TestReviewApproved(t *testing.T) {
	gen := newTestGenerator("VERDICT: APPROVED\nREASON: The request covers the French Revolution.")
	r := NewReviewer(gen, nil)

	approved, msg := r.Review(context.Background(), "Create 3 lessons on the French Revolution")
	if !approved {
		t.Fatalf("rejected: %s", msg)
	}
	if !strings.Contains(msg, "French Revolution") {
		t.Errorf("message = %q", msg)
	}
}

func TestReviewRejected(t *testing.T) {
	gen := newTestGenerator("VERDICT: REJECTED\nREASON: Weather is not a history topic.")
	r := NewReviewer(gen, nil)

	approved, msg := r.Review(context.Background(), "What's the weather today?")
	if approved {
		t.Fatal("approved a non-history request")
	}
	if !strings.Contains(msg, "Weather is not a history topic.") {
		t.Errorf("message missing reason: %q", msg)
	}
	if !strings.Contains(msg, "Examples of valid requests") {
		t.Errorf("rejection message missing examples: %q", msg)
	}
}

func TestReviewUnparseableRejects(t *testing.T) {
	gen := newTestGenerator("I cannot help with that.")
	r := NewReviewer(gen, nil)

	approved, _ := r.Review(context.Background(), "anything")
	if approved {
		t.Fatal("unparseable classifier output must reject")
	}
}
