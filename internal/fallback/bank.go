// Package fallback provides the deterministic question bank: the last line
// of defense when reasoning calls fail or are exhausted. The bank is static,
// embedded at compile time, never touches the network, and never returns an
// empty question.
package fallback

import (
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/jonathan/interview-conductor/internal/types"

	_ "embed"
)

//go:embed bank.yaml
var bankYAML []byte

// defaultFamily is used when a role family has no bank entry.
const defaultFamily = "engineering"

// intents present in the bank file, in the order sections map to them.
var bankIntents = []string{"behavioral", "technical_validation", "deep_dive", "wrapup"}

// Bank is the loaded question table: role family -> intent -> questions.
// It is immutable after Load and safe for concurrent reads across sessions.
type Bank struct {
	questions map[string]map[string][]string
}

// Load parses the embedded bank and verifies every family has a non-empty
// list for every intent, so selection can never come up empty.
func Load() (*Bank, error) {
	var questions map[string]map[string][]string
	if err := yaml.Unmarshal(bankYAML, &questions); err != nil {
		return nil, fmt.Errorf("failed to parse question bank: %w", err)
	}
	if _, ok := questions[defaultFamily]; !ok {
		return nil, fmt.Errorf("question bank missing default family %q", defaultFamily)
	}
	for family, byIntent := range questions {
		for _, intent := range bankIntents {
			if len(byIntent[intent]) == 0 {
				return nil, fmt.Errorf("question bank family %q has no %s questions", family, intent)
			}
		}
	}
	return &Bank{questions: questions}, nil
}

// MustLoad loads the embedded bank, panicking on error. The bank is a
// compile-time artifact; a load failure is a build defect, not a runtime
// condition.
func MustLoad() *Bank {
	bank, err := Load()
	if err != nil {
		panic(err)
	}
	return bank
}

// SectionIntent maps an interview section to the bank intent used for it.
func SectionIntent(section types.Section) types.QuestionIntent {
	switch section {
	case types.SectionIntro:
		return types.IntentBehavioralSTARL
	case types.SectionCore:
		return types.IntentTechnicalValidation
	case types.SectionDeepDive:
		return types.IntentDeepDive
	default:
		return types.IntentWrapup
	}
}

// intentKey maps a question intent onto a bank table key.
func intentKey(intent types.QuestionIntent) string {
	switch intent {
	case types.IntentBehavioralSTARL:
		return "behavioral"
	case types.IntentTechnicalValidation:
		return "technical_validation"
	case types.IntentDeepDive:
		return "deep_dive"
	default:
		return "wrapup"
	}
}

// expectedFormat maps an intent to the answer format the bank question
// implies.
func expectedFormat(intent types.QuestionIntent) types.AnswerFormat {
	switch intent {
	case types.IntentBehavioralSTARL:
		return types.FormatSTARL
	case types.IntentTechnicalValidation:
		return types.FormatWalkthrough
	case types.IntentDeepDive:
		return types.FormatTradeoffs
	default:
		return types.FormatShortFact
	}
}

// Question deterministically selects a question for the given role family,
// section, and asked-question counter. The counter-derived index cycles
// through the list so repeated fallbacks within one session vary rather than
// repeat. When uncovered must-haves exist and the intent is technical or
// deep-dive, an anchoring clause naming up to 2 of them is appended.
func (b *Bank) Question(roleFamily string, section types.Section, askedQuestions int, uncovered []string) string {
	family := strings.ToLower(strings.TrimSpace(roleFamily))
	byIntent, ok := b.questions[family]
	if !ok {
		byIntent = b.questions[defaultFamily]
	}

	intent := SectionIntent(section)
	list := byIntent[intentKey(intent)]
	if len(list) == 0 {
		list = b.questions[defaultFamily][intentKey(intent)]
	}

	if askedQuestions < 0 {
		askedQuestions = 0
	}
	question := list[askedQuestions%len(list)]

	if len(uncovered) > 0 && (intent == types.IntentTechnicalValidation || intent == types.IntentDeepDive) {
		anchors := uncovered
		if len(anchors) > 2 {
			anchors = anchors[:2]
		}
		question = fmt.Sprintf("%s Please touch on your experience with %s specifically.",
			question, strings.Join(anchors, " and "))
	}

	return question
}

// Result builds a full controller-shaped result around a bank question. The
// output always passes the controller sanitizer unchanged.
func (b *Bank) Result(roleFamily string, section types.Section, askedQuestions int, uncovered []string) types.ControllerResult {
	intent := SectionIntent(section)
	targeted := uncovered
	if len(targeted) > 3 {
		targeted = targeted[:3]
	}
	if !section.Valid() {
		section = types.SectionWrapUp
	}
	return types.ControllerResult{
		Section:           section,
		Question:          b.Question(roleFamily, section, askedQuestions, uncovered),
		Intent:            intent,
		ExpectedFormat:    expectedFormat(intent),
		MustHavesTargeted: targeted,
		TimeboxSeconds:    120,
		Rationale:         "deterministic fallback selection",
		EndInterview:      false,
	}
}
