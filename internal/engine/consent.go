package engine

import "strings"

// consentVerdict is the outcome of classifying a consent-gate utterance.
type consentVerdict int

const (
	consentUnclear consentVerdict = iota
	consentAffirmative
	consentNegative
)

// Negative cues are checked first so "not ready" and "no thanks" never read
// as affirmative.
var negativeCues = []string{
	"no", "not", "stop", "wait", "hold on", "don't", "cannot", "can't", "later", "decline",
}

var affirmativeCues = []string{
	"yes", "yeah", "yep", "yup", "sure", "ok", "okay", "ready", "sounds good",
	"go ahead", "let's", "lets", "absolutely", "of course", "fine", "begin", "start",
}

// classifyConsent pattern-matches a candidate utterance against consent
// cues. Unclear utterances re-prompt rather than advance.
func classifyConsent(text string) consentVerdict {
	normalized := strings.ToLower(strings.TrimSpace(text))
	if normalized == "" {
		return consentUnclear
	}

	words := tokenize(normalized)

	for _, cue := range negativeCues {
		if matchesCue(normalized, words, cue) {
			return consentNegative
		}
	}
	for _, cue := range affirmativeCues {
		if matchesCue(normalized, words, cue) {
			return consentAffirmative
		}
	}
	return consentUnclear
}

// matchesCue matches multi-word cues by substring and single-word cues by
// whole token, so "notable" does not trip the "not" cue.
func matchesCue(normalized string, words map[string]bool, cue string) bool {
	if strings.Contains(cue, " ") || strings.Contains(cue, "'") {
		return strings.Contains(normalized, cue)
	}
	return words[cue]
}

func tokenize(text string) map[string]bool {
	words := make(map[string]bool)
	for _, w := range strings.FieldsFunc(text, func(r rune) bool {
		return !('a' <= r && r <= 'z') && !('0' <= r && r <= '9') && r != '\''
	}) {
		words[w] = true
	}
	return words
}
