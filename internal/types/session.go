// Package types defines the shared structured records exchanged between the
// interview engine, its reasoning pipelines, and persistence.
package types

import "time"

// Section represents the interview phase. Sections only ever advance through
// the lattice intro -> core -> deep_dive -> wrap_up -> completed.
type Section string

// Section constants define the interview phases in order.
const (
	SectionIntro     Section = "intro"
	SectionCore      Section = "core"
	SectionDeepDive  Section = "deep_dive"
	SectionWrapUp    Section = "wrap_up"
	SectionCompleted Section = "completed"
)

// sectionOrder maps each section to its position in the lattice.
var sectionOrder = map[Section]int{
	SectionIntro:     0,
	SectionCore:      1,
	SectionDeepDive:  2,
	SectionWrapUp:    3,
	SectionCompleted: 4,
}

// Valid reports whether s is a known section.
func (s Section) Valid() bool {
	_, ok := sectionOrder[s]
	return ok
}

// Before reports whether s comes strictly before other in the lattice.
// Unknown sections compare as intro.
func (s Section) Before(other Section) bool {
	return sectionOrder[s] < sectionOrder[other]
}

// MustHaveStatus tracks the evidence gathered for a single required skill.
type MustHaveStatus struct {
	Covered       bool      `json:"covered"`
	Confidence    float64   `json:"confidence"`
	EvidenceIDs   []string  `json:"evidence_ids,omitempty"`
	LastUpdatedAt time.Time `json:"last_updated_at"`
}

// CompetencyStatus tracks a running weighted assessment of one competency.
type CompetencyStatus struct {
	Score        float64  `json:"score"`
	Confidence   float64  `json:"confidence"`
	EvidenceIDs  []string `json:"evidence_ids,omitempty"`
	Observations int      `json:"observations"`
}

// QueueItem is a pending follow-up targeting a specific skill.
type QueueItem struct {
	Skill     string    `json:"skill"`
	Reason    string    `json:"reason,omitempty"`
	Priority  int       `json:"priority"`
	CreatedAt time.Time `json:"created_at"`
}

// Evidence is a citation-target snippet extracted from a candidate answer.
type Evidence struct {
	ID         string    `json:"id"`
	Quote      string    `json:"quote"`
	Skill      string    `json:"skill,omitempty"`
	Competency string    `json:"competency,omitempty"`
	Turn       int       `json:"turn"`
	CreatedAt  time.Time `json:"created_at"`
}

// Contradiction records an inconsistency flagged between candidate answers.
type Contradiction struct {
	Detail    string    `json:"detail"`
	Turn      int       `json:"turn"`
	CreatedAt time.Time `json:"created_at"`
}

// QualityStats is a histogram of answer-quality classifications.
type QualityStats struct {
	Strong  int `json:"strong"`
	Partial int `json:"partial"`
	Weak    int `json:"weak"`
	Unclear int `json:"unclear"`
}

// Turn is one transcript entry: either a question asked by the interviewer
// or a candidate utterance.
type Turn struct {
	Speaker string    `json:"speaker"`
	Text    string    `json:"text"`
	At      time.Time `json:"at"`
}

// Transcript speaker roles.
const (
	SpeakerInterviewer = "interviewer"
	SpeakerCandidate   = "candidate"
)
