package pipelines

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/interview-conductor/internal/fallback"
	"github.com/jonathan/interview-conductor/internal/llm"
	"github.com/jonathan/interview-conductor/internal/session"
	"github.com/jonathan/interview-conductor/internal/types"
)

var testTime = time.Date(2026, 3, 10, 14, 0, 0, 0, time.UTC)

// stubClient returns a canned response or error for every call and keeps the
// last prompt it was handed.
type stubClient struct {
	response   string
	err        error
	calls      int
	lastPrompt string
}

func (s *stubClient) GenerateJSON(_ context.Context, prompt string, _ llm.ModelTier) (string, error) {
	s.calls++
	s.lastPrompt = prompt
	if s.err != nil {
		return "", s.err
	}
	return s.response, nil
}

func (s *stubClient) Model(llm.ModelTier) string { return "stub-model" }
func (s *stubClient) Close() error               { return nil }

func testPack() types.ContextPack {
	return types.NewContextPack(types.PositionRecord{
		Title:      "Backend Engineer",
		Family:     "engineering",
		Level:      "senior",
		MustHaves:  []string{"Node.js", "System Design"},
		FocusAreas: []string{"ownership"},
	})
}

func testState() *session.State {
	return session.NewState(45, []string{"Node.js", "System Design"}, []string{"ownership"}, testTime)
}

func TestControllerFallbackOnError(t *testing.T) {
	client := &stubClient{err: errors.New("network down")}
	ctrl := NewController(client, fallback.MustLoad())
	state := testState()

	result := ctrl.Next(context.Background(), testPack(), state, nil, "")

	assert.Equal(t, 1, client.calls)
	assert.NotEmpty(t, result.Question)
	assert.True(t, result.Intent.Valid())
	assert.Equal(t, ctrl.Fallback(testPack(), testState()), result)
}

func TestControllerNilClientUsesFallback(t *testing.T) {
	ctrl := NewController(nil, fallback.MustLoad())
	state := testState()

	result := ctrl.Next(context.Background(), testPack(), state, nil, "")
	assert.NotEmpty(t, result.Question)
}

func TestControllerAcceptsValidResponse(t *testing.T) {
	client := &stubClient{response: `{
		"section": "core",
		"question": "How would you shard a Postgres database for a multi-tenant app?",
		"question_intent": "technical_validation",
		"expected_answer_format": "steps+tradeoffs",
		"probes": ["What about hot tenants?"],
		"must_haves_targeted": ["System Design"],
		"timebox_seconds": 180,
		"rationale": "targets uncovered system design skill",
		"end_interview": false
	}`}
	ctrl := NewController(client, fallback.MustLoad())
	state := testState()
	state.Section = types.SectionCore

	result := ctrl.Next(context.Background(), testPack(), state, nil, "")

	assert.Equal(t, "How would you shard a Postgres database for a multi-tenant app?", result.Question)
	assert.Equal(t, types.IntentTechnicalValidation, result.Intent)
	assert.Equal(t, types.FormatTradeoffs, result.ExpectedFormat)
	assert.Equal(t, []string{"System Design"}, result.MustHavesTargeted)
	assert.Equal(t, 180, result.TimeboxSeconds)
}

func TestSanitizeControllerEmptyObjectYieldsFallback(t *testing.T) {
	bank := fallback.MustLoad()
	state := testState()
	fb := bank.Result("engineering", state.Section, state.AskedQuestions, []string{"Node.js"})

	out := sanitizeController([]byte(`{}`), fb, state.MustHaves)
	assert.Equal(t, fb, out)
}

func TestSanitizeControllerGarbageYieldsFallback(t *testing.T) {
	bank := fallback.MustLoad()
	state := testState()
	fb := bank.Result("engineering", state.Section, state.AskedQuestions, nil)

	for _, garbage := range []string{`"a string"`, `[1,2,3]`, `{{{`, ``, `42`} {
		out := sanitizeController([]byte(garbage), fb, state.MustHaves)
		assert.Equal(t, fb, out, "input=%q", garbage)
	}
}

func TestSanitizeControllerFieldLevelMerge(t *testing.T) {
	bank := fallback.MustLoad()
	state := testState()
	fb := bank.Result("engineering", types.SectionCore, 2, nil)

	// Valid question plus invalid enums: only the question survives.
	out := sanitizeController([]byte(`{
		"question": "  Tell me about your Kafka experience?  ",
		"section": "interrogation",
		"question_intent": "mind_reading",
		"expected_answer_format": "interpretive_dance",
		"timebox_seconds": 10000
	}`), fb, state.MustHaves)

	assert.Equal(t, "Tell me about your Kafka experience?", out.Question)
	assert.Equal(t, fb.Section, out.Section)
	assert.Equal(t, fb.Intent, out.Intent)
	assert.Equal(t, fb.ExpectedFormat, out.ExpectedFormat)
	assert.Equal(t, maxTimeboxSeconds, out.TimeboxSeconds)
}

func TestSanitizeControllerFiltersUnknownMustHaves(t *testing.T) {
	bank := fallback.MustLoad()
	state := testState()
	fb := bank.Result("engineering", types.SectionCore, 0, nil)

	out := sanitizeController([]byte(`{
		"must_haves_targeted": ["Node.js", "Quantum Computing", "System Design", "", "Rust"]
	}`), fb, state.MustHaves)

	assert.Equal(t, []string{"Node.js", "System Design"}, out.MustHavesTargeted)
}

func TestSanitizeControllerClampsProbes(t *testing.T) {
	bank := fallback.MustLoad()
	fb := bank.Result("engineering", types.SectionCore, 0, nil)

	out := sanitizeController([]byte(`{
		"probes": ["a", "b", "c", "d", "e", "f"]
	}`), fb, testState().MustHaves)

	assert.Len(t, out.Probes, maxProbes)
}

func TestSanitizeControllerTimeboxFloor(t *testing.T) {
	bank := fallback.MustLoad()
	fb := bank.Result("engineering", types.SectionCore, 0, nil)

	out := sanitizeController([]byte(`{"timebox_seconds": 5}`), fb, nil)
	assert.Equal(t, minTimeboxSeconds, out.TimeboxSeconds)
}

func TestControllerPromptCarriesInstructions(t *testing.T) {
	client := &stubClient{err: errors.New("capture only")}
	ctrl := NewController(client, fallback.MustLoad())
	ctrl.Instructions = "You are running a rapid live screening."

	ctrl.Next(context.Background(), testPack(), testState(), nil, "")

	assert.True(t, strings.HasPrefix(client.lastPrompt, "You are running a rapid live screening."),
		"prompt should open with the variant instructions: %q", client.lastPrompt)
}

func TestControllerFallbackMatchesBankAndSanitizer(t *testing.T) {
	ctrl := NewController(nil, fallback.MustLoad())
	state := testState()

	fb := ctrl.Fallback(testPack(), state)
	require.NotEmpty(t, fb.Question)

	// The fallback must be a fixed point of the sanitizer.
	data, err := json.Marshal(fb)
	require.NoError(t, err)
	assert.Equal(t, fb, sanitizeController(data, fb, state.MustHaves))
}
