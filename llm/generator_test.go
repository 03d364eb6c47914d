package llm

import (
	"context"
	"errors"
	"testing"
	"time"
)

// scriptedProvider returns canned completions/errors in order.
type scriptedProvider struct {
	calls   int
	results []Completion
	errs    []error
}

func (p *scriptedProvider) Name() string  { return "scripted" }
func (p *scriptedProvider) Model() string { return "test-model" }

func (p *scriptedProvider) Complete(ctx context.Context, req Request) (Completion, error) {
	i := p.calls
	p.calls++
	var err error
	if i < len(p.errs) {
		err = p.errs[i]
	}
	var completion Completion
	if i < len(p.results) {
		completion = p.results[i]
	}
	return completion, err
}

func testConfig() GeneratorConfig {
	return GeneratorConfig{
		Timeout:            time.Second,
		MaxAttempts:        3,
		DefaultMaxTokens:   100,
		DefaultTemperature: 0.7,
	}
}

func TestGenerateSuccess(t *testing.T) {
	provider := &scriptedProvider{
		results: []Completion{{Text: "hello"}},
		errs:    []error{nil},
	}
	g := NewGenerator(provider, testConfig(), nil)

	got := g.Generate(context.Background(), "prompt", Options{})
	if got != "hello" {
		t.Errorf("got %q, want hello", got)
	}
	if provider.calls != 1 {
		t.Errorf("provider called %d times, want 1", provider.calls)
	}
}

func TestGenerateRetriesTransient(t *testing.T) {
	provider := &scriptedProvider{
		results: []Completion{{}, {Text: "recovered"}},
		errs:    []error{errors.New("503 service unavailable"), nil},
	}
	g := NewGenerator(provider, testConfig(), nil)

	got := g.Generate(context.Background(), "prompt", Options{})
	if got != "recovered" {
		t.Errorf("got %q, want recovered", got)
	}
	if provider.calls != 2 {
		t.Errorf("provider called %d times, want 2", provider.calls)
	}
}

func TestGenerateNonTransientNoRetry(t *testing.T) {
	provider := &scriptedProvider{
		errs: []error{errors.New("invalid api key")},
	}
	g := NewGenerator(provider, testConfig(), nil)

	got := g.Generate(context.Background(), "prompt", Options{})
	if !IsErrorPayload(got) {
		t.Errorf("expected error payload, got %q", got)
	}
	if provider.calls != 1 {
		t.Errorf("provider called %d times, want 1 (no retry)", provider.calls)
	}
}

func TestGenerateRetriesExhausted(t *testing.T) {
	provider := &scriptedProvider{
		errs: []error{
			errors.New("connection reset"),
			errors.New("connection reset"),
			errors.New("connection reset"),
		},
	}
	g := NewGenerator(provider, testConfig(), nil)

	got := g.Generate(context.Background(), "prompt", Options{})
	if !IsErrorPayload(got) {
		t.Errorf("expected error payload, got %q", got)
	}
	if provider.calls != 3 {
		t.Errorf("provider called %d times, want 3", provider.calls)
	}
}

func TestGenerateAccumulatesUsage(t *testing.T) {
	provider := &scriptedProvider{
		results: []Completion{
			{Text: "one", Usage: &TokenUsage{PromptTokens: 10, CompletionTokens: 5, TotalTokens: 15}},
			{Text: "two", Usage: &TokenUsage{PromptTokens: 20, CompletionTokens: 10, TotalTokens: 30}},
		},
		errs: []error{nil, nil},
	}
	g := NewGenerator(provider, testConfig(), nil)

	g.Generate(context.Background(), "first", Options{})
	g.Generate(context.Background(), "second", Options{})

	usage := g.Usage()
	if usage.PromptTokens != 30 || usage.CompletionTokens != 15 || usage.TotalTokens != 45 {
		t.Errorf("usage = %+v, want 30/15/45", usage)
	}
}

func TestGenerateUsageNilSafe(t *testing.T) {
	provider := &scriptedProvider{
		results: []Completion{{Text: "no usage reported"}},
		errs:    []error{nil},
	}
	g := NewGenerator(provider, testConfig(), nil)

	g.Generate(context.Background(), "prompt", Options{})
	if usage := g.Usage(); usage.TotalTokens != 0 {
		t.Errorf("usage = %+v, want zero", usage)
	}
}

func TestIsErrorPayload(t *testing.T) {
	if IsErrorPayload("a normal completion") {
		t.Error("plain text misclassified as error payload")
	}
	if !IsErrorPayload(ErrorTag + " something broke") {
		t.Error("tagged payload not detected")
	}
	if !IsErrorPayload("  " + ErrorTag + " leading space") {
		t.Error("tagged payload with leading whitespace not detected")
	}
}
