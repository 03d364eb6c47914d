// Provider factory - creates providers by name.

package llm

import (
	"fmt"
	"strings"
)

// NewProvider creates a provider from its canonical name.
func NewProvider(name, apiKey, model string) (Provider, error) {
	switch strings.ToLower(name) {
	case "openai", "gpt":
		return NewOpenAIProvider(apiKey, model), nil
	case "anthropic", "claude":
		return NewAnthropicProvider(apiKey, model), nil
	case "deepseek":
		return NewDeepSeekProvider(apiKey, model), nil
	case "gemini", "google":
		return NewGeminiProvider(apiKey, model), nil
	default:
		return nil, fmt.Errorf("unknown provider: %q", name)
	}
}
