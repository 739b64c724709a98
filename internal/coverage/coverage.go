// Package coverage provides pure read-only views over must-have coverage
// and competency scores. Nothing here mutates state or performs I/O.
package coverage

import (
	"sort"

	"github.com/jonathan/interview-conductor/internal/types"
)

// StatusReport summarizes must-have coverage at a point in time.
type StatusReport struct {
	Covered   int      `json:"covered"`
	Total     int      `json:"total"`
	Pct       float64  `json:"pct"`
	Uncovered []string `json:"uncovered"`
}

// MustHaveLine is one must-have row in a coverage summary.
type MustHaveLine struct {
	Skill      string  `json:"skill"`
	Covered    bool    `json:"covered"`
	Confidence float64 `json:"confidence"`
	Evidence   int     `json:"evidence"`
}

// CompetencyLine is one competency row in a coverage summary.
type CompetencyLine struct {
	Competency   string  `json:"competency"`
	Score        float64 `json:"score"`
	Confidence   float64 `json:"confidence"`
	Observations int     `json:"observations"`
}

// SummaryReport is the full coverage view exposed to callers.
type SummaryReport struct {
	MustHaves          []MustHaveLine   `json:"must_have"`
	Competencies       []CompetencyLine `json:"competency"`
	FollowupQueueCount int              `json:"followup_queue_count"`
	DeferQueueCount    int              `json:"defer_queue_count"`
}

// Status computes covered/total/pct over the tracked must-haves. An empty
// must-have set reports pct 1: vacuous full coverage never blocks
// progression.
func Status(mustHaves map[string]*types.MustHaveStatus) StatusReport {
	report := StatusReport{Total: len(mustHaves)}
	for skill, status := range mustHaves {
		if status != nil && status.Covered {
			report.Covered++
		} else {
			report.Uncovered = append(report.Uncovered, skill)
		}
	}
	sort.Strings(report.Uncovered)
	if report.Total == 0 {
		report.Pct = 1
	} else {
		report.Pct = float64(report.Covered) / float64(report.Total)
	}
	return report
}

// Summary builds the full per-skill and per-competency view, sorted by name
// for stable output.
func Summary(mustHaves map[string]*types.MustHaveStatus, competencies map[string]*types.CompetencyStatus, followupCount, deferCount int) SummaryReport {
	report := SummaryReport{
		MustHaves:          make([]MustHaveLine, 0, len(mustHaves)),
		Competencies:       make([]CompetencyLine, 0, len(competencies)),
		FollowupQueueCount: followupCount,
		DeferQueueCount:    deferCount,
	}
	for skill, status := range mustHaves {
		line := MustHaveLine{Skill: skill}
		if status != nil {
			line.Covered = status.Covered
			line.Confidence = status.Confidence
			line.Evidence = len(status.EvidenceIDs)
		}
		report.MustHaves = append(report.MustHaves, line)
	}
	for name, status := range competencies {
		line := CompetencyLine{Competency: name}
		if status != nil {
			line.Score = status.Score
			line.Confidence = status.Confidence
			line.Observations = status.Observations
		}
		report.Competencies = append(report.Competencies, line)
	}
	sort.Slice(report.MustHaves, func(i, j int) bool {
		return report.MustHaves[i].Skill < report.MustHaves[j].Skill
	})
	sort.Slice(report.Competencies, func(i, j int) bool {
		return report.Competencies[i].Competency < report.Competencies[j].Competency
	})
	return report
}
