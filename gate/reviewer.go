// Package gate validates incoming requests before they reach the
// pipeline: only history-education requests are admitted. A rejected
// request never enters the orchestrator.
package gate

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/rowanvale/chalkline/llm"
)

// Reviewer classifies requests as in or out of scope.
type Reviewer struct {
	gen *llm.Generator
	log *zap.SugaredLogger
}

// NewReviewer creates a Reviewer on top of the generation service.
func NewReviewer(gen *llm.Generator, log *zap.SugaredLogger) *Reviewer {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &Reviewer{gen: gen, log: log}
}

// Review classifies request. The message explains the decision; on
// rejection it includes examples of valid requests. An unparseable
// classifier response rejects, since an unvalidated request must not
// reach the pipeline.
func (r *Reviewer) Review(ctx context.Context, request string) (bool, string) {
	response := r.gen.Generate(ctx, reviewPrompt(request),
		llm.Options{MaxTokens: 150, Temperature: 0.2})

	verdict, reason := parseReview(response)
	r.log.Infow("request reviewed", "approved", verdict, "reason", reason)

	if verdict {
		return true, fmt.Sprintf("Request approved: %s", reason)
	}
	return false, rejectionMessage(reason)
}

// parseReview reads the VERDICT/REASON lines from the classifier output.
func parseReview(response string) (bool, string) {
	var verdictLine, reason string
	for _, line := range strings.Split(response, "\n") {
		trimmed := strings.TrimSpace(line)
		upper := strings.ToUpper(trimmed)
		switch {
		case strings.HasPrefix(upper, "VERDICT:"):
			verdictLine = upper
		case strings.HasPrefix(upper, "REASON:"):
			if i := strings.Index(trimmed, ":"); i >= 0 {
				reason = strings.TrimSpace(trimmed[i+1:])
			}
		}
	}
	if reason == "" {
		reason = "No reason provided"
	}
	return strings.Contains(verdictLine, "APPROVED"), reason
}

func rejectionMessage(reason string) string {
	return strings.TrimSpace(fmt.Sprintf(`
Request rejected: not history-related.

%s

This system only processes history-related educational content.

Examples of valid requests:
- "Create 3 lessons on the French Revolution"
- "Teach me about Ancient Egypt"
- "Make a presentation on World War II"
- "Explain the Renaissance period"

Please reformulate your request to focus on a historical topic.
`, reason))
}

func reviewPrompt(request string) string {
	return strings.TrimSpace(fmt.Sprintf(`
You are a strict request validator for a history education system.
Determine if the following request is related to HISTORY topics.

ALLOWED: historical events, periods, civilizations, wars, revolutions,
historical figures, cultural history, social movements, and the history
of any field.

FORBIDDEN: current events, science, mathematics, programming,
entertainment, sports, or general knowledge unrelated to history
(unless the request is about the history of those subjects).

REQUEST TO EVALUATE:
%q

Respond in this EXACT format:
VERDICT: APPROVED or REJECTED
REASON: <one clear sentence explaining your decision>

If the request asks to create lessons, presentations, or study material
on a historical topic, APPROVE it.
`, request))
}
