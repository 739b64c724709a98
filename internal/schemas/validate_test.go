package schemas

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateControllerOutput(t *testing.T) {
	valid := []byte(`{
		"section": "core",
		"question": "Walk me through a recent production incident you handled.",
		"question_intent": "behavioral_star_l",
		"expected_answer_format": "STAR-L",
		"probes": ["What was the root cause?"],
		"must_haves_targeted": ["Node.js"],
		"timebox_seconds": 120,
		"rationale": "opens the core section",
		"end_interview": false
	}`)
	assert.NoError(t, Validate(Controller, valid))
}

func TestValidateControllerOutputFieldErrors(t *testing.T) {
	invalid := []byte(`{
		"section": "warmup",
		"question": "ok?",
		"question_intent": "interrogation",
		"timebox_seconds": 9000
	}`)

	err := Validate(Controller, invalid)
	require.Error(t, err)

	var ve *ValidationError
	require.True(t, errors.As(err, &ve))
	assert.Equal(t, Controller, ve.Schema)

	fields := make(map[string]bool)
	for _, fe := range ve.Errors {
		fields[fe.Field] = true
	}
	assert.True(t, fields["section"])
	assert.True(t, fields["question_intent"])
	assert.True(t, fields["timebox_seconds"])
}

func TestValidateAnalyzerOutput(t *testing.T) {
	valid := []byte(`{
		"must_have_updates": [{"must_have": "Node.js", "covered": false, "confidence": 0.8}],
		"competency_updates": [{"competency": "communication", "score": 3.5, "confidence": 0.6}],
		"evidence": [{"quote": "we sharded the database by tenant", "skill": "Node.js"}],
		"star_flags": {"situation": true, "task": true, "action": true, "result": false, "learning": false},
		"vague": false,
		"summary": "described sharding work",
		"answer_quality": "partial"
	}`)
	assert.NoError(t, Validate(Analyzer, valid))
}

func TestValidateAnalyzerRejectsOutOfRange(t *testing.T) {
	invalid := []byte(`{
		"competency_updates": [{"competency": "communication", "score": 11}],
		"answer_quality": "excellent"
	}`)
	err := Validate(Analyzer, invalid)
	require.Error(t, err)

	var ve *ValidationError
	require.True(t, errors.As(err, &ve))
	assert.NotEmpty(t, ve.Errors)
}

func TestValidateEvaluatorOutput(t *testing.T) {
	valid := []byte(`{
		"overall_weighted_score": 3.1,
		"confidence": 0.7,
		"recommendation": "hire",
		"summary": "solid performance across core areas"
	}`)
	assert.NoError(t, Validate(Evaluator, valid))
}

func TestValidateUnknownSchema(t *testing.T) {
	err := Validate("negotiator", []byte(`{}`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "negotiator")
}

func TestValidateMalformedJSON(t *testing.T) {
	err := Validate(Controller, []byte(`{not json`))
	require.Error(t, err)
}
