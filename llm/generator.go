// Generator - the generation-service adapter used by the pipeline.
//
// Wraps a Provider with a per-attempt timeout and bounded retries with
// exponential backoff for transient failures. Hard failures surface as an
// error-tagged string instead of an error: the pipeline treats degraded
// text as low-quality content and keeps moving, so callers must parse all
// returned text defensively.

package llm

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
)

// ErrorTag prefixes every payload the Generator returns after a failed
// generation. Callers can detect it with IsErrorPayload.
const ErrorTag = "[generation error]"

// Options are per-call generation options. Zero values fall back to the
// Generator's defaults.
type Options struct {
	MaxTokens   int
	Temperature float32
}

// GeneratorConfig holds adapter-level settings.
type GeneratorConfig struct {
	// Timeout bounds each attempt against the provider.
	Timeout time.Duration
	// MaxAttempts bounds retries; the first call counts as an attempt.
	MaxAttempts int
	// DefaultMaxTokens and DefaultTemperature apply when Options leave
	// them zero.
	DefaultMaxTokens   int
	DefaultTemperature float32
}

// DefaultGeneratorConfig returns the default adapter configuration.
func DefaultGeneratorConfig() GeneratorConfig {
	return GeneratorConfig{
		Timeout:            120 * time.Second,
		MaxAttempts:        3,
		DefaultMaxTokens:   500,
		DefaultTemperature: 0.7,
	}
}

// Generator adapts a Provider to the pipeline's prompt-in/text-out contract.
type Generator struct {
	provider Provider
	config   GeneratorConfig
	log      *zap.SugaredLogger

	mu    sync.Mutex
	usage TokenUsage
}

// NewGenerator creates a generator around the given provider.
func NewGenerator(provider Provider, config GeneratorConfig, log *zap.SugaredLogger) *Generator {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	if config.MaxAttempts < 1 {
		config.MaxAttempts = 1
	}
	return &Generator{provider: provider, config: config, log: log}
}

// Generate sends a prompt and returns the completion text. It never
// returns an error: retries exhausted or a non-transient failure yield an
// ErrorTag-prefixed string.
func (g *Generator) Generate(ctx context.Context, prompt string, opts Options) string {
	maxTokens := opts.MaxTokens
	if maxTokens == 0 {
		maxTokens = g.config.DefaultMaxTokens
	}
	temperature := opts.Temperature
	if temperature == 0 {
		temperature = g.config.DefaultTemperature
	}

	var lastErr error
	for attempt := 0; attempt < g.config.MaxAttempts; attempt++ {
		if attempt > 0 {
			backoff := backoffFor(attempt)
			g.log.Debugw("retrying generation", "attempt", attempt, "backoff", backoff)
			select {
			case <-ctx.Done():
				return fmt.Sprintf("%s %v", ErrorTag, ctx.Err())
			case <-time.After(backoff):
			}
		}

		attemptCtx, cancel := context.WithTimeout(ctx, g.config.Timeout)
		completion, err := g.provider.Complete(attemptCtx, Request{
			Prompt:      prompt,
			MaxTokens:   maxTokens,
			Temperature: temperature,
		})
		cancel()

		if err == nil {
			g.recordUsage(completion.Usage)
			return completion.Text
		}

		lastErr = err
		if !isTransient(err) {
			g.log.Warnw("generation failed", "provider", g.provider.Name(), "error", err)
			return fmt.Sprintf("%s %v", ErrorTag, err)
		}
	}

	g.log.Warnw("generation retries exhausted",
		"provider", g.provider.Name(), "attempts", g.config.MaxAttempts, "error", lastErr)
	return fmt.Sprintf("%s %d attempts failed: %v", ErrorTag, g.config.MaxAttempts, lastErr)
}

// Provider returns the underlying provider.
func (g *Generator) Provider() Provider {
	return g.provider
}

func (g *Generator) recordUsage(u *TokenUsage) {
	if u == nil {
		return
	}
	g.mu.Lock()
	g.usage.Add(u)
	g.mu.Unlock()
}

// Usage returns the tokens consumed across all completions so far.
func (g *Generator) Usage() TokenUsage {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.usage
}

// IsErrorPayload reports whether text is an error payload rather than a
// real completion.
func IsErrorPayload(text string) bool {
	return strings.HasPrefix(strings.TrimSpace(text), ErrorTag)
}

// backoffFor returns the backoff duration before the given retry attempt.
func backoffFor(attempt int) time.Duration {
	const (
		baseDelay = 100 * time.Millisecond
		maxDelay  = 5 * time.Second
	)

	delay := baseDelay * time.Duration(1<<attempt)
	if delay > maxDelay {
		delay = maxDelay
	}
	return delay
}

// isTransient classifies provider errors worth retrying: timeouts,
// connection problems, and 5xx-style server failures.
func isTransient(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())

	transient := []string{
		"timeout", "timed out", "deadline exceeded",
		"connection", "network", "temporarily",
		"500", "502", "503", "504", "overloaded", "rate limit", "429",
	}
	for _, s := range transient {
		if strings.Contains(msg, s) {
			return true
		}
	}
	return false
}
