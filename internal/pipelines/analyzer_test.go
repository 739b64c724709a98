package pipelines

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/interview-conductor/internal/types"
)

func starQuestion() types.ControllerResult {
	return types.ControllerResult{
		Question:       "Tell me about a recent project.",
		Intent:         types.IntentBehavioralSTARL,
		ExpectedFormat: types.FormatSTARL,
	}
}

func TestAnalyzerFallbackOnError(t *testing.T) {
	client := &stubClient{err: errors.New("timeout")}
	analyzer := NewAnalyzer(client)

	result := analyzer.Analyze(context.Background(), testPack(), testState(), starQuestion(),
		"I guess we did some stuff with servers.", nil)

	assert.Equal(t, 1, client.calls)
	assert.True(t, result.Quality.Valid())
	assert.NotEmpty(t, result.Summary)
}

func TestAnalyzerFallbackQualityThresholds(t *testing.T) {
	analyzer := NewAnalyzer(nil)
	pack := testPack()
	q := starQuestion()

	tests := []struct {
		name    string
		answer  string
		quality types.AnswerQuality
	}{
		{"near-empty", "yes", types.QualityUnclear},
		{"terse", "we used Node and it worked fine for us", types.QualityWeak},
		{"moderate", strings.Repeat("we built the ingestion service together ", 5), types.QualityPartial},
		{"detailed", strings.Repeat("we built and operated the ingestion service in production ", 10), types.QualityStrong},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := analyzer.Fallback(pack, q, tt.answer)
			assert.Equal(t, tt.quality, result.Quality)
		})
	}
}

func TestAnalyzerFallbackStarFlags(t *testing.T) {
	analyzer := NewAnalyzer(nil)

	answer := "At the time we had a failing batch job. My job was to stabilize it. " +
		"So I rewrote the retry logic and added backpressure. The result was a 40% " +
		"reduction in failures. I learned to always bound queue growth."
	result := analyzer.Fallback(testPack(), starQuestion(), answer)

	assert.True(t, result.Star.Situation)
	assert.True(t, result.Star.Task)
	assert.True(t, result.Star.Action)
	assert.True(t, result.Star.Result)
	assert.True(t, result.Star.Learning)
	assert.Empty(t, result.Star.Missing())
}

func TestAnalyzerFallbackDetectsMissingLetters(t *testing.T) {
	analyzer := NewAnalyzer(nil)

	result := analyzer.Fallback(testPack(), starQuestion(),
		"We were dealing with a flaky deployment pipeline in our team context back then and everyone was frustrated about it for quite a while.")

	missing := result.Star.Missing()
	assert.Contains(t, missing, "R")
	assert.Contains(t, missing, "L")
}

func TestAnalyzerFallbackVagueness(t *testing.T) {
	analyzer := NewAnalyzer(nil)

	vague := analyzer.Fallback(testPack(), starQuestion(), "Hmm, not sure, maybe.")
	assert.True(t, vague.Vague)

	hedged := analyzer.Fallback(testPack(), starQuestion(),
		"I guess we sort of figured out the deployment process eventually after trying a bunch of different approaches across several weeks of work.")
	assert.True(t, hedged.Vague)

	concrete := analyzer.Fallback(testPack(), starQuestion(),
		"We migrated the payment service from REST polling to a Kafka consumer group, cutting end-to-end latency from minutes to seconds across three regions.")
	assert.False(t, concrete.Vague)
}

func TestAnalyzerFallbackMustHaveKeywordMatch(t *testing.T) {
	analyzer := NewAnalyzer(nil)

	result := analyzer.Fallback(testPack(), starQuestion(),
		"Most of my backend work has been in Node.js services handling payment traffic at high volume for the last four years.")

	require.Len(t, result.MustHaveUpdates, 1)
	assert.Equal(t, "Node.js", result.MustHaveUpdates[0].MustHave)
	assert.InDelta(t, heuristicConfidence, result.MustHaveUpdates[0].Confidence, 1e-9)
	assert.False(t, result.MustHaveUpdates[0].Covered)
	require.Len(t, result.Evidence, 1)
	assert.Equal(t, "Node.js", result.Evidence[0].Skill)
}

func TestAnalyzerAcceptsValidResponse(t *testing.T) {
	client := &stubClient{response: `{
		"must_have_updates": [{"must_have": "System Design", "covered": true, "confidence": 0.85}],
		"competency_updates": [{"competency": "technical_depth", "score": 4.0, "confidence": 0.7}],
		"evidence": [{"quote": "we sharded by tenant id", "skill": "System Design"}],
		"followups": [{"skill": "System Design", "reason": "probe failure modes", "priority": 4}],
		"star_flags": {"situation": true, "task": true, "action": true, "result": true, "learning": false},
		"vague": false,
		"summary": "described a sharding design",
		"answer_quality": "strong"
	}`}
	analyzer := NewAnalyzer(client)

	result := analyzer.Analyze(context.Background(), testPack(), testState(), starQuestion(),
		"long detailed answer about sharding", nil)

	require.Len(t, result.MustHaveUpdates, 1)
	assert.True(t, result.MustHaveUpdates[0].Covered)
	assert.Equal(t, types.QualityStrong, result.Quality)
	require.Len(t, result.Followups, 1)
	assert.Equal(t, 4, result.Followups[0].Priority)
	assert.False(t, result.Star.Learning)
}

func TestSanitizeAnalyzerEmptyObjectYieldsFallback(t *testing.T) {
	analyzer := NewAnalyzer(nil)
	fb := analyzer.Fallback(testPack(), starQuestion(), "short answer here")

	out := sanitizeAnalyzer([]byte(`{}`), fb)
	assert.Equal(t, fb, out)
}

func TestSanitizeAnalyzerGarbageYieldsFallback(t *testing.T) {
	analyzer := NewAnalyzer(nil)
	fb := analyzer.Fallback(testPack(), starQuestion(), "short answer here")

	for _, garbage := range []string{`null`, `"nope"`, `[]`, `}{`} {
		out := sanitizeAnalyzer([]byte(garbage), fb)
		assert.Equal(t, fb, out, "input=%q", garbage)
	}
}

func TestSanitizeAnalyzerInvalidQualityFallsBack(t *testing.T) {
	analyzer := NewAnalyzer(nil)
	fb := analyzer.Fallback(testPack(), starQuestion(), "a reasonably long answer about our Node.js deployment setup and how we run it")

	out := sanitizeAnalyzer([]byte(`{"answer_quality": "magnificent", "summary": "model summary"}`), fb)

	assert.Equal(t, fb.Quality, out.Quality)
	assert.Equal(t, "model summary", out.Summary)
}

func TestSanitizeAnalyzerDropsEmptySkills(t *testing.T) {
	analyzer := NewAnalyzer(nil)
	fb := analyzer.Fallback(testPack(), starQuestion(), "answer")

	out := sanitizeAnalyzer([]byte(`{
		"followups": [{"skill": "  "}, {"skill": "Kafka", "priority": 2}],
		"evidence": [{"quote": ""}, {"quote": "real quote"}]
	}`), fb)

	require.Len(t, out.Followups, 1)
	assert.Equal(t, "Kafka", out.Followups[0].Skill)
	require.Len(t, out.Evidence, 1)
	assert.Equal(t, "real quote", out.Evidence[0].Quote)
}
