package pipeline

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/rowanvale/chalkline/llm"
)

// Decision is the fact-check outcome for a draft.
type Decision string

const (
	DecisionGo      Decision = "GO"
	DecisionNoGo    Decision = "NO-GO"
	DecisionUnknown Decision = "UNKNOWN"
)

// minEvidenceLen is the threshold below which evidence is too thin to
// check against; the gate returns UNKNOWN without a model call.
const minEvidenceLen = 20

// Verdict is the gate's structured judgment on a draft.
type Verdict struct {
	Decision   Decision
	Confidence string
	Reason     string
	Warnings   string
	Raw        string
}

// HasWarnings reports whether the warnings field carries something
// actionable (not empty, not a bare "None").
func (v Verdict) HasWarnings() bool {
	w := strings.TrimRight(strings.TrimSpace(v.Warnings), ".")
	return w != "" && !strings.EqualFold(w, "none") && !strings.EqualFold(w, "n/a")
}

// Gate compares drafts against evidence and drives the revision loop's
// stop conditions.
type Gate struct {
	gen *llm.Generator
	log *zap.SugaredLogger
}

// NewGate creates a Gate on top of the generation service.
func NewGate(gen *llm.Generator, log *zap.SugaredLogger) *Gate {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &Gate{gen: gen, log: log}
}

// Check evaluates whether draft is supported by evidence. Evidence that
// is empty or under minEvidenceLen characters short-circuits to UNKNOWN
// with no model call; there is nothing to check against.
func (g *Gate) Check(ctx context.Context, draft, evidence string) Verdict {
	if len(strings.TrimSpace(evidence)) < minEvidenceLen {
		return Verdict{
			Decision: DecisionUnknown,
			Reason:   "no evidence available to verify against",
			Raw:      "GO/NO-GO: UNKNOWN\nReason: no evidence available to verify against",
		}
	}

	response := g.gen.Generate(ctx, factCheckPrompt(draft, evidence), llm.Options{MaxTokens: 800})
	verdict := parseVerdict(response)
	g.log.Debugw("fact check", "decision", verdict.Decision, "confidence", verdict.Confidence)
	return verdict
}

// parseVerdict reads the fixed-format verdict block by case-insensitive
// labelled-line prefixes. Missing fields default rather than fail.
func parseVerdict(response string) Verdict {
	v := Verdict{Decision: DecisionUnknown, Raw: response}

	for _, line := range strings.Split(response, "\n") {
		trimmed := strings.TrimSpace(line)
		lower := strings.ToLower(trimmed)
		switch {
		case strings.HasPrefix(lower, "go/no-go:"):
			v.Decision = parseDecision(valueAfterColon(trimmed))
		case strings.HasPrefix(lower, "confidence:"):
			v.Confidence = valueAfterColon(trimmed)
		case strings.HasPrefix(lower, "reason:"):
			v.Reason = valueAfterColon(trimmed)
		case strings.HasPrefix(lower, "warnings:"):
			v.Warnings = valueAfterColon(trimmed)
		}
	}
	return v
}

func parseDecision(value string) Decision {
	upper := strings.ToUpper(value)
	switch {
	case strings.Contains(upper, "NO-GO"):
		return DecisionNoGo
	case strings.Contains(upper, "GO"):
		return DecisionGo
	default:
		return DecisionUnknown
	}
}

func valueAfterColon(line string) string {
	if i := strings.Index(line, ":"); i >= 0 {
		return strings.TrimSpace(line[i+1:])
	}
	return ""
}
