package engine

import (
	"fmt"
	"strings"
	"time"

	"github.com/jonathan/interview-conductor/internal/coverage"
	"github.com/jonathan/interview-conductor/internal/session"
	"github.com/jonathan/interview-conductor/internal/types"
)

// MustHaveSweepRatio is how far through the time budget the session must be
// before incomplete coverage forces a direct must-have sweep question.
const MustHaveSweepRatio = 0.8

// maxQuestionLength caps the final sanitized question text.
const maxQuestionLength = 420

// forcedFollowup is a deterministic follow-up derived from the analyzer
// result, independent of (and overriding) the controller's own output.
type forcedFollowup struct {
	question string
	reason   string
}

// deriveForcedFollowup applies the fixed precedence: vagueness, then
// contradictions, then missing STAR-L letters on a STAR-L question. Returns
// nil when no follow-up is forced.
func deriveForcedFollowup(analysis types.AnalyzerResult, lastQuestion types.ControllerResult) *forcedFollowup {
	if analysis.Vague {
		return &forcedFollowup{
			question: "Could you make that concrete? Walk me through one specific example, with the actual system and what you personally did.",
			reason:   "vague answer",
		}
	}
	if len(analysis.Contradictions) > 0 {
		return &forcedFollowup{
			question: fmt.Sprintf("Earlier you said something different: %s. Can you help me reconcile the two?",
				analysis.Contradictions[0]),
			reason: "contradiction",
		}
	}
	if lastQuestion.ExpectedFormat == types.FormatSTARL {
		if missing := analysis.Star.Missing(); len(missing) > 0 {
			return &forcedFollowup{
				question: fmt.Sprintf("Thanks. To complete the picture, could you cover the %s of that story?",
					describeStarLetters(missing)),
				reason: "incomplete STAR-L answer",
			}
		}
	}
	return nil
}

var starLetterNames = map[string]string{
	"S": "situation",
	"T": "task",
	"A": "actions you took",
	"R": "result",
	"L": "what you learned",
}

func describeStarLetters(letters []string) string {
	names := make([]string, 0, len(letters))
	for _, letter := range letters {
		names = append(names, starLetterNames[letter])
	}
	switch len(names) {
	case 1:
		return names[0]
	case 2:
		return names[0] + " and " + names[1]
	default:
		return strings.Join(names[:len(names)-1], ", ") + ", and " + names[len(names)-1]
	}
}

// turnContext carries one turn's question through the transform chain.
type turnContext struct {
	pack   types.ContextPack
	state  *session.State
	now    time.Time
	forced *forcedFollowup
	result types.ControllerResult
}

// questionTransform is one step of the ordered override chain. Each has an
// explicit precondition; apply runs only when the precondition holds.
type questionTransform struct {
	name  string
	when  func(*turnContext) bool
	apply func(*turnContext)
}

// transformChain is applied to every controller result in documented order:
// a forced follow-up overrides the controller, the must-have sweep overrides
// both, and single-question sanitization always runs last.
var transformChain = []questionTransform{
	{
		name: "forced_followup",
		when: func(tc *turnContext) bool { return tc.forced != nil },
		apply: func(tc *turnContext) {
			tc.result.Question = tc.forced.question
			tc.result.Intent = types.IntentClarification
			tc.result.ExpectedFormat = types.FormatShortFact
			tc.result.Rationale = tc.forced.reason
		},
	},
	{
		name: "must_have_sweep",
		when: func(tc *turnContext) bool {
			if tc.state.ElapsedRatio(tc.now) <= MustHaveSweepRatio {
				return false
			}
			return coverage.Status(tc.state.MustHaves).Pct < 1
		},
		apply: func(tc *turnContext) {
			uncovered := coverage.Status(tc.state.MustHaves).Uncovered
			if len(uncovered) > 2 {
				uncovered = uncovered[:2]
			}
			tc.result.Question = fmt.Sprintf(
				"We're short on time and I still need to hear about %s. Can you describe your most substantial hands-on experience there?",
				strings.Join(uncovered, " and "))
			tc.result.Intent = types.IntentTechnicalValidation
			tc.result.ExpectedFormat = types.FormatWalkthrough
			tc.result.MustHavesTargeted = uncovered
			tc.result.Rationale = "must-have sweep before time expires"
		},
	},
	{
		name: "single_question",
		when: func(tc *turnContext) bool { return true },
		apply: func(tc *turnContext) {
			tc.result.Question = sanitizeQuestionText(tc.result.Question)
		},
	},
}

// applyTransforms runs the chain in order and returns the final result.
func applyTransforms(tc *turnContext) types.ControllerResult {
	for _, transform := range transformChain {
		if transform.when(tc) {
			transform.apply(tc)
		}
	}
	return tc.result
}

// sanitizeQuestionText enforces one question per turn: when the text holds
// more than one question mark it is truncated at the first, then capped at
// maxQuestionLength with an ellipsis. A trailing directive after a single
// question is left alone.
func sanitizeQuestionText(text string) string {
	text = strings.TrimSpace(text)
	if idx := strings.Index(text, "?"); idx >= 0 && strings.Contains(text[idx+1:], "?") {
		text = text[:idx+1]
	}
	if len(text) > maxQuestionLength {
		text = text[:maxQuestionLength-3] + "..."
	}
	return text
}
