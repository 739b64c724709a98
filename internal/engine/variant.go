package engine

import (
	"fmt"
	"strings"

	"github.com/jonathan/interview-conductor/internal/llm"
	"github.com/jonathan/interview-conductor/internal/types"
)

// VariantKind selects the interview agent behavior. The set is closed:
// variants are chosen by enum through NewVariant, never by subclassing.
type VariantKind string

// Supported agent variants.
const (
	// VariantClassic is the full structured interview with the strongest
	// models on every pipeline.
	VariantClassic VariantKind = "classic"
	// VariantRealtimeScreening biases model selection toward latency for
	// short live screening rounds.
	VariantRealtimeScreening VariantKind = "realtime_screening"
)

// Purpose identifies which pipeline a model tier is being selected for.
type Purpose string

// Pipeline purposes used for tier selection.
const (
	PurposeController Purpose = "controller"
	PurposeAnalyzer   Purpose = "analyzer"
	PurposeEvaluator  Purpose = "evaluator"
)

// Variant is the fixed capability set every agent variant implements.
type Variant interface {
	// Instructions builds the runtime system instructions for the session.
	Instructions(pack types.ContextPack) string
	// Tier selects the model tier for a pipeline purpose.
	Tier(purpose Purpose) llm.ModelTier
	// JoinGreeting is spoken when the candidate joins, before consent.
	JoinGreeting(pack types.ContextPack) string
}

// NewVariant returns the implementation for a variant kind. Unknown kinds
// are an error; there is no open-ended extension point.
func NewVariant(kind VariantKind) (Variant, error) {
	switch kind {
	case VariantClassic, "":
		return classicVariant{}, nil
	case VariantRealtimeScreening:
		return realtimeScreeningVariant{}, nil
	default:
		return nil, fmt.Errorf("unknown agent variant %q", kind)
	}
}

type classicVariant struct{}

func (classicVariant) Instructions(pack types.ContextPack) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "You are %s, conducting a structured %s interview for a %s %s role. ",
		pack.InterviewerName, pack.RoundType, pack.Level, pack.Title)
	fmt.Fprintf(&sb, "Gather concrete evidence for: %s. ", strings.Join(pack.MustHaves, ", "))
	sb.WriteString("Ask exactly one question at a time, stay on the current section, and keep questions answerable within their timebox.")
	return sb.String()
}

func (classicVariant) Tier(purpose Purpose) llm.ModelTier {
	switch purpose {
	case PurposeAnalyzer:
		return llm.TierLite
	case PurposeEvaluator:
		return llm.TierAdvanced
	default:
		return llm.TierStandard
	}
}

func (classicVariant) JoinGreeting(pack types.ContextPack) string {
	return fmt.Sprintf(
		"Hi %s, I'm %s and I'll be running this %s interview for the %s role. "+
			"It's a structured conversation, about one question at a time, and it is recorded for evaluation. "+
			"Are you ready to begin?",
		pack.CandidateName, pack.InterviewerName, pack.RoundType, pack.Title)
}

type realtimeScreeningVariant struct{}

func (realtimeScreeningVariant) Instructions(pack types.ContextPack) string {
	return fmt.Sprintf(
		"You are %s running a rapid live screening for a %s role. Keep questions short and conversational; latency matters more than depth. Target: %s.",
		pack.InterviewerName, pack.Title, strings.Join(pack.MustHaves, ", "))
}

func (realtimeScreeningVariant) Tier(purpose Purpose) llm.ModelTier {
	// Screening trades reasoning depth for responsiveness.
	if purpose == PurposeEvaluator {
		return llm.TierStandard
	}
	return llm.TierLite
}

func (realtimeScreeningVariant) JoinGreeting(pack types.ContextPack) string {
	return fmt.Sprintf("Hi %s! This is a quick screening chat for the %s role. Ready to start?",
		pack.CandidateName, pack.Title)
}
