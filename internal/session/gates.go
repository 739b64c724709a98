package session

import (
	"time"

	"github.com/jonathan/interview-conductor/internal/coverage"
	"github.com/jonathan/interview-conductor/internal/types"
)

// Gate thresholds. The wrap-up override is a hard safety valve: with fewer
// than 4 minutes left the interview always moves to wrap-up regardless of
// which section it is in.
const (
	wrapUpTimeFloorSeconds   = 240
	deepDiveTimeFloorSeconds = 420
	coreCoverageThreshold    = 0.85
	coreMaxQuestions         = 7
	deepDiveMaxQuestions     = 11
	wrapUpMaxQuestions       = 13
)

// ApplyGates evaluates the deterministic phase-transition rules and returns
// the resulting section. Transitions are forward-only through the lattice
// intro -> core -> deep_dive -> wrap_up -> completed; the only cross edge is
// the time-floor override, which can jump any live section straight to
// wrap-up. asked_questions never decreases, so the machine cannot cycle and
// the question-count rules bound the session length.
func (s *State) ApplyGates(now time.Time) types.Section {
	remaining := s.RecomputeTimeRemaining(now)

	switch {
	case s.Section == types.SectionCompleted:
		// Terminal; nothing left to gate.
	case remaining <= wrapUpTimeFloorSeconds:
		if s.Section.Before(types.SectionWrapUp) {
			s.Section = types.SectionWrapUp
		}
	case s.Section == types.SectionIntro && s.AskedQuestions >= 1:
		s.Section = types.SectionCore
	case s.Section == types.SectionCore &&
		(coverage.Status(s.MustHaves).Pct >= coreCoverageThreshold || s.AskedQuestions >= coreMaxQuestions):
		s.Section = types.SectionDeepDive
	case s.Section == types.SectionDeepDive &&
		(remaining <= deepDiveTimeFloorSeconds || s.AskedQuestions >= deepDiveMaxQuestions):
		s.Section = types.SectionWrapUp
	}

	if s.Section == types.SectionWrapUp && s.AskedQuestions >= wrapUpMaxQuestions {
		s.Section = types.SectionCompleted
	}

	s.UpdatedAt = now
	return s.Section
}

// Completed reports whether the session has reached its terminal section.
func (s *State) Completed() bool {
	return s.Section == types.SectionCompleted
}
