package coverage

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/jonathan/interview-conductor/internal/types"
)

func TestStatusEmptyIsVacuouslyCovered(t *testing.T) {
	report := Status(nil)
	assert.Equal(t, 0, report.Total)
	assert.Equal(t, 0, report.Covered)
	assert.InDelta(t, 1.0, report.Pct, 1e-9)
	assert.Empty(t, report.Uncovered)
}

func TestStatusCountsAndUncovered(t *testing.T) {
	mustHaves := map[string]*types.MustHaveStatus{
		"Node.js":       {Covered: true, Confidence: 0.9},
		"System Design": {Covered: false, Confidence: 0.4},
		"Postgres":      {Covered: false},
	}

	report := Status(mustHaves)
	assert.Equal(t, 3, report.Total)
	assert.Equal(t, 1, report.Covered)
	assert.InDelta(t, 1.0/3.0, report.Pct, 1e-9)
	assert.Equal(t, []string{"Postgres", "System Design"}, report.Uncovered)
}

func TestStatusNilEntryTreatedUncovered(t *testing.T) {
	report := Status(map[string]*types.MustHaveStatus{"Node.js": nil})
	assert.Equal(t, 0, report.Covered)
	assert.Equal(t, []string{"Node.js"}, report.Uncovered)
}

func TestSummarySortedAndCounted(t *testing.T) {
	mustHaves := map[string]*types.MustHaveStatus{
		"Zig": {Covered: true, Confidence: 0.8, EvidenceIDs: []string{"ev_1", "ev_2"}},
		"Ada": {Covered: false, Confidence: 0.2},
	}
	competencies := map[string]*types.CompetencyStatus{
		"problem_solving": {Score: 3.5, Confidence: 0.6, Observations: 4},
		"communication":   {Score: 2.0, Confidence: 0.3, Observations: 1},
	}

	report := Summary(mustHaves, competencies, 3, 5)

	assert.Equal(t, 3, report.FollowupQueueCount)
	assert.Equal(t, 5, report.DeferQueueCount)

	assert.Equal(t, "Ada", report.MustHaves[0].Skill)
	assert.Equal(t, "Zig", report.MustHaves[1].Skill)
	assert.Equal(t, 2, report.MustHaves[1].Evidence)

	assert.Equal(t, "communication", report.Competencies[0].Competency)
	assert.Equal(t, "problem_solving", report.Competencies[1].Competency)
	assert.Equal(t, 4, report.Competencies[1].Observations)
}
