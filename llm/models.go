// Package llm provides generation-service provider abstractions.
package llm

// Request is a single completion request. MaxTokens and Temperature are
// per-call because the pipeline varies them step by step (planning runs
// hotter than slide layout).
type Request struct {
	System      string
	Prompt      string
	MaxTokens   int
	Temperature float32
}

// Completion is a provider response.
type Completion struct {
	Text  string
	Usage *TokenUsage
}

// TokenUsage contains token usage statistics.
type TokenUsage struct {
	PromptTokens     int
	CompletionTokens int
	TotalTokens      int
}

// Add accumulates usage from another response.
func (u *TokenUsage) Add(other *TokenUsage) {
	if other == nil {
		return
	}
	u.PromptTokens += other.PromptTokens
	u.CompletionTokens += other.CompletionTokens
	u.TotalTokens += other.TotalTokens
}
