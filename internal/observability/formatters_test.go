package observability

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/jonathan/interview-conductor/internal/coverage"
	"github.com/jonathan/interview-conductor/internal/types"
)

func TestPrintCoverage(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)

	p.PrintCoverage(coverage.SummaryReport{
		MustHaves: []coverage.MustHaveLine{
			{Skill: "Go", Covered: true, Confidence: 0.9, Evidence: 2},
			{Skill: "PostgreSQL", Covered: false, Confidence: 0.4},
		},
		Competencies: []coverage.CompetencyLine{
			{Competency: "communication", Score: 3.5, Observations: 4},
			{Competency: "technical_depth", Observations: 0},
		},
		FollowupQueueCount: 1,
	})

	out := buf.String()
	assert.Contains(t, out, "[x] Go")
	assert.Contains(t, out, "[ ] PostgreSQL")
	assert.Contains(t, out, "communication: 3.50/4.0")
	assert.NotContains(t, out, "technical_depth")
	assert.Contains(t, out, "Queued follow-ups: 1")
}

func TestPrintCoverageNoObservations(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)

	p.PrintCoverage(coverage.SummaryReport{
		Competencies: []coverage.CompetencyLine{{Competency: "communication"}},
	})
	assert.Contains(t, buf.String(), "no observations yet")
}

func TestPrintFinal(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)

	p.PrintFinal(&types.FinalRecord{
		Evaluation: types.EvaluatorResult{
			Recommendation: types.RecommendHire,
			OverallScore:   3.2,
			Strengths:      []string{"Consistent signal on communication"},
			Risks:          []string{"No sufficient evidence gathered for Kafka"},
		},
		DisplayScore:  80,
		Band:          "solid",
		QuestionCount: 10,
		AnswerCount:   9,
	})

	out := buf.String()
	assert.Contains(t, out, "hire")
	assert.Contains(t, out, "3.20/4.0")
	assert.Contains(t, out, "+ Consistent signal")
	assert.Contains(t, out, "- No sufficient evidence")
}

func TestPrintFinalNil(t *testing.T) {
	var buf bytes.Buffer
	NewPrinter(&buf).PrintFinal(nil)
	assert.Empty(t, buf.String())
}

func TestBoxTruncatesLongLines(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)
	p.printBox("Title", strings.Repeat("a", 120))
	assert.Contains(t, buf.String(), "...")
}
