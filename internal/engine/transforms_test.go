package engine

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/jonathan/interview-conductor/internal/types"
)

func TestSanitizeQuestionTextKeepsSingleQuestion(t *testing.T) {
	in := "Walk me through the design? Please touch on your experience with Go specifically."
	assert.Equal(t, in, sanitizeQuestionText(in))
}

func TestSanitizeQuestionTextTruncatesSecondQuestion(t *testing.T) {
	in := "What did you build? And also, how did you test it?"
	assert.Equal(t, "What did you build?", sanitizeQuestionText(in))
}

func TestSanitizeQuestionTextCapsLength(t *testing.T) {
	in := strings.Repeat("a", 600)
	out := sanitizeQuestionText(in)
	assert.Len(t, out, maxQuestionLength)
	assert.True(t, strings.HasSuffix(out, "..."))
}

func TestForcedFollowupPrecedence(t *testing.T) {
	starQuestion := types.ControllerResult{ExpectedFormat: types.FormatSTARL}

	// Vagueness wins over everything.
	f := deriveForcedFollowup(types.AnalyzerResult{
		Vague:          true,
		Contradictions: []string{"said 3 years earlier, now says 5"},
	}, starQuestion)
	assert.NotNil(t, f)
	assert.Equal(t, "vague answer", f.reason)

	// Contradictions beat missing STAR-L letters.
	f = deriveForcedFollowup(types.AnalyzerResult{
		Contradictions: []string{"said 3 years earlier, now says 5"},
	}, starQuestion)
	assert.NotNil(t, f)
	assert.Equal(t, "contradiction", f.reason)
	assert.Contains(t, f.question, "said 3 years earlier")

	// Missing letters only matter on a STAR-L question.
	f = deriveForcedFollowup(types.AnalyzerResult{
		Star: types.StarFlags{Situation: true, Task: true, Action: true},
	}, starQuestion)
	assert.NotNil(t, f)
	assert.Equal(t, "incomplete STAR-L answer", f.reason)
	assert.Contains(t, f.question, "result")
	assert.Contains(t, f.question, "learned")

	f = deriveForcedFollowup(types.AnalyzerResult{
		Star: types.StarFlags{},
	}, types.ControllerResult{ExpectedFormat: types.FormatShortFact})
	assert.Nil(t, f)
}

func TestDescribeStarLetters(t *testing.T) {
	assert.Equal(t, "result", describeStarLetters([]string{"R"}))
	assert.Equal(t, "result and what you learned", describeStarLetters([]string{"R", "L"}))
	assert.Equal(t, "situation, result, and what you learned", describeStarLetters([]string{"S", "R", "L"}))
}

func TestConsentClassification(t *testing.T) {
	cases := []struct {
		text string
		want consentVerdict
	}{
		{"yes", consentAffirmative},
		{"Sure, go ahead", consentAffirmative},
		{"sounds good to me", consentAffirmative},
		{"no", consentNegative},
		{"I'm not ready yet", consentNegative},
		{"yes, but not right now", consentNegative},
		{"notable weather today", consentUnclear},
		{"", consentUnclear},
		{"hmm", consentUnclear},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, classifyConsent(tc.text), "text=%q", tc.text)
	}
}
