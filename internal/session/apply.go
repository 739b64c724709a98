package session

import (
	"math"
	"sort"
	"strings"
	"time"

	"github.com/jonathan/interview-conductor/internal/types"
)

// ApplyAnalysis folds one analyzer result into the session state. It is the
// single mutation point for answer-derived signals.
//
// Merge rules:
//   - Must-have confidence is the max of prior and new; it never regresses.
//     Covered flips true on an explicit assertion or once confidence crosses
//     CoveredConfidenceThreshold, and never flips back.
//   - A competency's first observation sets its score directly; later ones
//     fold into a running mean rounded to 2 decimals.
//   - Evidence ids are deduplicated via set union, so replaying the same
//     evidence is safe. Observation counts are not deduplicated: one call
//     corresponds to exactly one candidate turn, and calling twice
//     deliberately counts two turns.
func (s *State) ApplyAnalysis(result types.AnalyzerResult, turn int, now time.Time) {
	evidenceBySkill := make(map[string][]string)
	evidenceByCompetency := make(map[string][]string)

	for _, ev := range result.Evidence {
		quote := strings.TrimSpace(ev.Quote)
		if quote == "" {
			continue
		}
		id := s.nextEvidenceID()
		s.EvidenceLog = append(s.EvidenceLog, types.Evidence{
			ID:         id,
			Quote:      quote,
			Skill:      ev.Skill,
			Competency: ev.Competency,
			Turn:       turn,
			CreatedAt:  now,
		})
		if ev.Skill != "" {
			evidenceBySkill[ev.Skill] = append(evidenceBySkill[ev.Skill], id)
		}
		if ev.Competency != "" {
			evidenceByCompetency[ev.Competency] = append(evidenceByCompetency[ev.Competency], id)
		}
	}

	for _, update := range result.MustHaveUpdates {
		status, tracked := s.MustHaves[update.MustHave]
		if !tracked {
			// Entries are fixed at session creation; unknown skills are dropped.
			continue
		}
		confidence := clamp01(update.Confidence)
		if confidence > status.Confidence {
			status.Confidence = confidence
		}
		if update.Covered || status.Confidence >= CoveredConfidenceThreshold {
			status.Covered = true
		}
		status.EvidenceIDs = unionIDs(status.EvidenceIDs, evidenceBySkill[update.MustHave])
		status.LastUpdatedAt = now
	}

	for _, update := range result.CompetencyUpdates {
		status, tracked := s.Competencies[update.Competency]
		if !tracked {
			continue
		}
		score := clampScore(update.Score)
		if status.Observations == 0 {
			status.Score = round2(score)
		} else {
			n := float64(status.Observations)
			status.Score = round2((status.Score*n + score) / (n + 1))
		}
		status.Observations++
		if confidence := clamp01(update.Confidence); confidence > status.Confidence {
			status.Confidence = confidence
		}
		status.EvidenceIDs = unionIDs(status.EvidenceIDs, evidenceByCompetency[update.Competency])
	}

	s.FollowupQueue = mergeQueue(s.FollowupQueue, result.Followups, FollowupQueueCap, now)
	s.DeferQueue = mergeQueue(s.DeferQueue, result.Defers, DeferQueueCap, now)

	added := 0
	for _, detail := range result.Contradictions {
		detail = strings.TrimSpace(detail)
		if detail == "" {
			continue
		}
		if added >= MaxContradictionsPerCall {
			break
		}
		s.Contradictions = append(s.Contradictions, types.Contradiction{
			Detail:    detail,
			Turn:      turn,
			CreatedAt: now,
		})
		added++
	}

	switch result.Quality {
	case types.QualityStrong:
		s.QualityStats.Strong++
	case types.QualityPartial:
		s.QualityStats.Partial++
	case types.QualityWeak:
		s.QualityStats.Weak++
	default:
		s.QualityStats.Unclear++
	}

	s.AnsweredTurns++
	s.RecomputeTimeRemaining(now)
	s.UpdatedAt = now
}

// mergeQueue appends new candidates, re-sorts by descending priority
// (stable, so earlier items win ties), and truncates to cap. Queues are
// deliberately not deduplicated by skill.
func mergeQueue(queue []types.QueueItem, candidates []types.FollowupCandidate, limit int, now time.Time) []types.QueueItem {
	for _, c := range candidates {
		skill := strings.TrimSpace(c.Skill)
		if skill == "" {
			continue
		}
		queue = append(queue, types.QueueItem{
			Skill:     skill,
			Reason:    strings.TrimSpace(c.Reason),
			Priority:  clampPriority(c.Priority),
			CreatedAt: now,
		})
	}
	sort.SliceStable(queue, func(i, j int) bool {
		return queue[i].Priority > queue[j].Priority
	})
	if len(queue) > limit {
		queue = queue[:limit]
	}
	return queue
}

// ConsumeFollowup pops the highest-priority blocking follow-up, or nil.
func (s *State) ConsumeFollowup() *types.QueueItem {
	return popFront(&s.FollowupQueue)
}

// ConsumeDefer pops the highest-priority deferred follow-up, or nil.
func (s *State) ConsumeDefer() *types.QueueItem {
	return popFront(&s.DeferQueue)
}

func popFront(queue *[]types.QueueItem) *types.QueueItem {
	if len(*queue) == 0 {
		return nil
	}
	item := (*queue)[0]
	*queue = (*queue)[1:]
	return &item
}

// IncrementTopicProbe bumps the probe counter for a topic and returns the
// new count. Topics are keyed by lowercase-trimmed name.
func (s *State) IncrementTopicProbe(topic string) int {
	key := topicKey(topic)
	if key == "" {
		return 0
	}
	s.TopicProbes[key]++
	return s.TopicProbes[key]
}

// TopicProbeCount returns the probe count for a topic.
func (s *State) TopicProbeCount(topic string) int {
	return s.TopicProbes[topicKey(topic)]
}

func topicKey(topic string) string {
	return strings.ToLower(strings.TrimSpace(topic))
}

func unionIDs(existing, incoming []string) []string {
	if len(incoming) == 0 {
		return existing
	}
	seen := make(map[string]bool, len(existing))
	for _, id := range existing {
		seen[id] = true
	}
	for _, id := range incoming {
		if !seen[id] {
			existing = append(existing, id)
			seen[id] = true
		}
	}
	return existing
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

func clampScore(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 5 {
		return 5
	}
	return v
}

func clampPriority(p int) int {
	if p < 1 {
		return 1
	}
	if p > 5 {
		return 5
	}
	return p
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
