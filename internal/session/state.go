// Package session owns the mutable interview session state: phase
// transitions, time-budget accounting, must-have coverage, competency
// scores, follow-up queues, and the deterministic gating rules evaluated
// before every question.
package session

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/jonathan/interview-conductor/internal/types"
)

// Tunable limits for session state. These are fixed properties of the
// conversation scheduler, not per-deployment configuration.
const (
	// MinDurationMinutes is the floor applied to the requested duration.
	MinDurationMinutes = 5
	// FollowupQueueCap bounds the blocking follow-up queue.
	FollowupQueueCap = 8
	// DeferQueueCap bounds the low-urgency defer queue.
	DeferQueueCap = 12
	// MaxContradictionsPerCall bounds contradictions appended per analyzer call.
	MaxContradictionsPerCall = 6
	// MaxProbesPerTopic caps repeated deep-dives on a single topic.
	MaxProbesPerTopic = 2
	// CoveredConfidenceThreshold marks a must-have covered once confidence
	// reaches it, even without an explicit covered assertion.
	CoveredConfidenceThreshold = 0.72
)

// baseCompetencies is the fixed competency set every session tracks in
// addition to the externally supplied focus areas.
var baseCompetencies = []string{
	"communication",
	"problem_solving",
	"technical_depth",
	"collaboration",
}

// BaseCompetencies returns a copy of the fixed competency set.
func BaseCompetencies() []string {
	out := make([]string, len(baseCompetencies))
	copy(out, baseCompetencies)
	return out
}

// State is the per-interview mutable session state. It is owned exclusively
// by one orchestrator for the session's lifetime and is never shared across
// sessions. All fields serialize so the state can be snapshotted after every
// state-changing operation and reconstructed on resume.
type State struct {
	Section            types.Section                      `json:"section"`
	TotalBudgetSeconds int                                `json:"total_time_budget_seconds"`
	StartedAt          time.Time                          `json:"started_at"`
	MustHaves          map[string]*types.MustHaveStatus   `json:"must_have_coverage"`
	Competencies       map[string]*types.CompetencyStatus `json:"competency_scores"`
	FollowupQueue      []types.QueueItem                  `json:"followup_queue"`
	DeferQueue         []types.QueueItem                  `json:"defer_queue"`
	EvidenceLog        []types.Evidence                   `json:"evidence_log"`
	EvidenceSeq        int                                `json:"evidence_seq"`
	Contradictions     []types.Contradiction              `json:"contradictions"`
	QualityStats       types.QualityStats                 `json:"answer_quality_stats"`
	TopicProbes        map[string]int                     `json:"topic_probe_counts"`
	AskedQuestions     int                                `json:"asked_questions"`
	AnsweredTurns      int                                `json:"answered_turns"`
	TimeRemaining      int                                `json:"time_remaining"`
	UpdatedAt          time.Time                          `json:"updated_at"`
}

// NewState builds the initial session state. The duration floors to
// MinDurationMinutes. The competency map is the fixed base set plus the
// supplied focus areas; the must-have map is created once from mustHaves and
// its key set never changes afterward.
func NewState(durationMinutes int, mustHaves, focusAreas []string, now time.Time) *State {
	if durationMinutes < MinDurationMinutes {
		durationMinutes = MinDurationMinutes
	}

	s := &State{
		Section:            types.SectionIntro,
		TotalBudgetSeconds: durationMinutes * 60,
		StartedAt:          now,
		MustHaves:          make(map[string]*types.MustHaveStatus, len(mustHaves)),
		Competencies:       make(map[string]*types.CompetencyStatus),
		TopicProbes:        make(map[string]int),
		UpdatedAt:          now,
	}
	s.TimeRemaining = s.TotalBudgetSeconds

	for _, name := range mustHaves {
		if name == "" {
			continue
		}
		s.MustHaves[name] = &types.MustHaveStatus{}
	}
	for _, name := range baseCompetencies {
		s.Competencies[name] = &types.CompetencyStatus{}
	}
	for _, name := range focusAreas {
		if name == "" {
			continue
		}
		if _, exists := s.Competencies[name]; !exists {
			s.Competencies[name] = &types.CompetencyStatus{}
		}
	}

	return s
}

// RecomputeTimeRemaining refreshes TimeRemaining from wall-clock elapsed
// time since StartedAt, clamped to [0, TotalBudgetSeconds]. Remaining time
// is always derived this way, never decremented by hand, so turns of
// arbitrary duration cannot drift the budget.
func (s *State) RecomputeTimeRemaining(now time.Time) int {
	elapsed := int(now.Sub(s.StartedAt).Seconds())
	remaining := s.TotalBudgetSeconds - elapsed
	if remaining < 0 {
		remaining = 0
	}
	if remaining > s.TotalBudgetSeconds {
		remaining = s.TotalBudgetSeconds
	}
	s.TimeRemaining = remaining
	return remaining
}

// ElapsedRatio returns the fraction of the time budget consumed, in [0, 1].
func (s *State) ElapsedRatio(now time.Time) float64 {
	if s.TotalBudgetSeconds == 0 {
		return 1
	}
	remaining := s.RecomputeTimeRemaining(now)
	return float64(s.TotalBudgetSeconds-remaining) / float64(s.TotalBudgetSeconds)
}

// nextEvidenceID mints the next sequential evidence id (ev_1, ev_2, ...).
func (s *State) nextEvidenceID() string {
	s.EvidenceSeq++
	return fmt.Sprintf("ev_%d", s.EvidenceSeq)
}

// Snapshot serializes the state to an opaque JSON document for persistence.
func (s *State) Snapshot() ([]byte, error) {
	data, err := json.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("failed to snapshot session state: %w", err)
	}
	return data, nil
}

// Restore reconstructs a State from a snapshot produced by Snapshot.
func Restore(data []byte) (*State, error) {
	var s State
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("failed to restore session state: %w", err)
	}
	if s.MustHaves == nil {
		s.MustHaves = make(map[string]*types.MustHaveStatus)
	}
	if s.Competencies == nil {
		s.Competencies = make(map[string]*types.CompetencyStatus)
	}
	if s.TopicProbes == nil {
		s.TopicProbes = make(map[string]int)
	}
	return &s, nil
}
