package pipelines

import (
	"context"
	"fmt"
	"log"
	"sort"
	"strings"
	"time"

	"github.com/jonathan/interview-conductor/internal/coverage"
	"github.com/jonathan/interview-conductor/internal/llm"
	"github.com/jonathan/interview-conductor/internal/prompts"
	"github.com/jonathan/interview-conductor/internal/schemas"
	"github.com/jonathan/interview-conductor/internal/session"
	"github.com/jonathan/interview-conductor/internal/types"
)

// Recommendation thresholds for the deterministic fallback evaluation.
const (
	strongHireScore      = 3.6
	strongHireConfidence = 0.6
	hireScore            = 3.0
	noHireScore          = 2.2
)

// maxOverallScore caps the 0-4 overall scale.
const maxOverallScore = 4.0

// Evaluator produces the final evidence-based evaluation at session end.
type Evaluator struct {
	Client llm.Client
	Tier   llm.ModelTier
	// Instructions is the variant's runtime preamble, prepended to every
	// prompt.
	Instructions string
	Timeout      time.Duration
}

// NewEvaluator builds the final-evaluation pipeline around a reasoning
// client.
func NewEvaluator(client llm.Client) *Evaluator {
	return &Evaluator{
		Client:  client,
		Tier:    llm.TierAdvanced,
		Timeout: DefaultTimeout,
	}
}

// Evaluate produces the final evaluation for a finished session.
func (e *Evaluator) Evaluate(ctx context.Context, pack types.ContextPack, state *session.State) types.EvaluatorResult {
	fb := e.Fallback(state)
	if e.Client == nil {
		return fb
	}

	prompt := e.buildPrompt(pack, state)

	callCtx, cancel := context.WithTimeout(ctx, e.timeout())
	defer cancel()

	raw, err := e.Client.GenerateJSON(callCtx, prompt, e.Tier)
	if err != nil {
		log.Printf("[evaluator] reasoning call failed, using fallback: %v", err)
		return fb
	}

	if err := schemas.Validate(schemas.Evaluator, []byte(raw)); err != nil {
		log.Printf("[evaluator] %v", err)
	}

	return sanitizeEvaluator([]byte(raw), fb)
}

func (e *Evaluator) timeout() time.Duration {
	if e.Timeout > 0 {
		return e.Timeout
	}
	return DefaultTimeout
}

// Fallback derives the final evaluation from tracked state alone: overall
// score is the mean of observed competency scores (capped to the 0-4
// scale), confidence is the mean competency confidence, and the
// recommendation follows fixed thresholds.
func (e *Evaluator) Fallback(state *session.State) types.EvaluatorResult {
	names := make([]string, 0, len(state.Competencies))
	for name := range state.Competencies {
		names = append(names, name)
	}
	sort.Strings(names)

	var scoreSum, confSum float64
	observed := 0
	result := types.EvaluatorResult{}
	for _, name := range names {
		status := state.Competencies[name]
		result.CompetencyScores = append(result.CompetencyScores, types.FinalCompetency{
			Competency: name,
			Score:      status.Score,
			Confidence: status.Confidence,
		})
		if status.Observations > 0 {
			scoreSum += status.Score
			confSum += status.Confidence
			observed++
		}
	}

	if observed > 0 {
		result.OverallScore = round2(scoreSum / float64(observed))
		result.Confidence = round2(confSum / float64(observed))
	}
	if result.OverallScore > maxOverallScore {
		result.OverallScore = maxOverallScore
	}

	status := coverage.Status(state.MustHaves)
	mustHaveNames := make([]string, 0, len(state.MustHaves))
	for name := range state.MustHaves {
		mustHaveNames = append(mustHaveNames, name)
	}
	sort.Strings(mustHaveNames)
	for _, name := range mustHaveNames {
		mh := state.MustHaves[name]
		result.MustHaveCoverage = append(result.MustHaveCoverage, types.FinalMustHave{
			MustHave:   name,
			Covered:    mh.Covered,
			Confidence: mh.Confidence,
		})
		if !mh.Covered {
			result.Risks = append(result.Risks, fmt.Sprintf("No sufficient evidence gathered for %s", name))
		}
	}

	for _, line := range result.CompetencyScores {
		if line.Score >= 3.5 && line.Confidence >= 0.5 {
			result.Strengths = append(result.Strengths, fmt.Sprintf("Consistent signal on %s", line.Competency))
		}
	}

	switch {
	case result.OverallScore >= strongHireScore && result.Confidence >= strongHireConfidence:
		result.Recommendation = types.RecommendStrongHire
	case result.OverallScore >= hireScore:
		result.Recommendation = types.RecommendHire
	case result.OverallScore < noHireScore:
		result.Recommendation = types.RecommendNoHire
	default:
		result.Recommendation = types.RecommendHold
	}

	result.Summary = fmt.Sprintf(
		"Deterministic evaluation over %d answered turns: %d/%d must-haves covered, overall score %.2f at confidence %.2f.",
		state.AnsweredTurns, status.Covered, status.Total, result.OverallScore, result.Confidence)

	return result
}

func (e *Evaluator) buildPrompt(pack types.ContextPack, state *session.State) string {
	summary := coverage.Summary(state.MustHaves, state.Competencies, len(state.FollowupQueue), len(state.DeferQueue))

	var mustHaves strings.Builder
	for _, line := range summary.MustHaves {
		fmt.Fprintf(&mustHaves, "- %s: covered=%t confidence=%.2f evidence=%d\n", line.Skill, line.Covered, line.Confidence, line.Evidence)
	}
	var competencies strings.Builder
	for _, line := range summary.Competencies {
		fmt.Fprintf(&competencies, "- %s: score=%.2f confidence=%.2f observations=%d\n", line.Competency, line.Score, line.Confidence, line.Observations)
	}

	var contradictions []string
	for _, c := range state.Contradictions {
		contradictions = append(contradictions, c.Detail)
	}

	var evidence strings.Builder
	for _, ev := range state.EvidenceLog {
		tag := ev.Skill
		if tag == "" {
			tag = ev.Competency
		}
		fmt.Fprintf(&evidence, "%s [%s]: %q\n", ev.ID, tag, ev.Quote)
	}
	evidenceText := evidence.String()
	if evidenceText == "" {
		evidenceText = "(none gathered)"
	}

	template := prompts.MustGet("evaluator.json", "final-evaluation")
	return withPreamble(e.Instructions, prompts.Format(template, map[string]string{
		"Title":            pack.Title,
		"Level":            pack.Level,
		"Family":           pack.Family,
		"RoundType":        pack.RoundType,
		"MustHaveCoverage": strings.TrimSuffix(mustHaves.String(), "\n"),
		"CompetencyScores": strings.TrimSuffix(competencies.String(), "\n"),
		"QualityStats": fmt.Sprintf("strong=%d partial=%d weak=%d unclear=%d",
			state.QualityStats.Strong, state.QualityStats.Partial, state.QualityStats.Weak, state.QualityStats.Unclear),
		"Contradictions": joinOrNone(contradictions),
		"Evidence":       evidenceText,
	}))
}

// evaluatorRaw mirrors the evaluator output schema with pointer fields.
type evaluatorRaw struct {
	OverallScore     *float64 `json:"overall_weighted_score"`
	Confidence       *float64 `json:"confidence"`
	CompetencyScores []struct {
		Competency *string  `json:"competency"`
		Score      *float64 `json:"score"`
		Confidence *float64 `json:"confidence"`
	} `json:"competency_scores"`
	MustHaveCoverage []struct {
		MustHave   *string  `json:"must_have"`
		Covered    *bool    `json:"covered"`
		Confidence *float64 `json:"confidence"`
	} `json:"must_have_coverage"`
	Strengths      []string `json:"strengths"`
	Risks          []string `json:"risks"`
	Recommendation *string  `json:"recommendation"`
	Summary        *string  `json:"summary"`
}

// sanitizeEvaluator merges a raw evaluation onto the deterministic fallback
// field by field.
func sanitizeEvaluator(data []byte, fb types.EvaluatorResult) types.EvaluatorResult {
	var raw evaluatorRaw
	if err := decodeLoose(data, &raw); err != nil {
		log.Printf("[evaluator] %v", err)
		return fb
	}

	out := fb

	if raw.OverallScore != nil && *raw.OverallScore >= 0 && *raw.OverallScore <= maxOverallScore {
		out.OverallScore = round2(*raw.OverallScore)
	}
	if raw.Confidence != nil && *raw.Confidence >= 0 && *raw.Confidence <= 1 {
		out.Confidence = round2(*raw.Confidence)
	}

	if len(raw.CompetencyScores) > 0 {
		var lines []types.FinalCompetency
		for _, line := range raw.CompetencyScores {
			if line.Competency == nil || strings.TrimSpace(*line.Competency) == "" {
				continue
			}
			fc := types.FinalCompetency{Competency: strings.TrimSpace(*line.Competency)}
			if line.Score != nil {
				fc.Score = *line.Score
			}
			if line.Confidence != nil {
				fc.Confidence = *line.Confidence
			}
			lines = append(lines, fc)
		}
		if len(lines) > 0 {
			out.CompetencyScores = lines
		}
	}

	if len(raw.MustHaveCoverage) > 0 {
		var lines []types.FinalMustHave
		for _, line := range raw.MustHaveCoverage {
			if line.MustHave == nil || strings.TrimSpace(*line.MustHave) == "" {
				continue
			}
			fm := types.FinalMustHave{MustHave: strings.TrimSpace(*line.MustHave)}
			if line.Covered != nil {
				fm.Covered = *line.Covered
			}
			if line.Confidence != nil {
				fm.Confidence = *line.Confidence
			}
			lines = append(lines, fm)
		}
		if len(lines) > 0 {
			out.MustHaveCoverage = lines
		}
	}

	if clean := cleanStrings(raw.Strengths, 8); len(clean) > 0 {
		out.Strengths = clean
	}
	if clean := cleanStrings(raw.Risks, 8); len(clean) > 0 {
		out.Risks = clean
	}
	if raw.Recommendation != nil && types.Recommendation(*raw.Recommendation).Valid() {
		out.Recommendation = types.Recommendation(*raw.Recommendation)
	}
	if raw.Summary != nil && strings.TrimSpace(*raw.Summary) != "" {
		out.Summary = strings.TrimSpace(*raw.Summary)
	}

	return out
}

func round2(v float64) float64 {
	return float64(int(v*100+0.5)) / 100
}
