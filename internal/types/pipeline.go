package types

// QuestionIntent classifies why the next question is being asked.
type QuestionIntent string

// Question intents recognized by the controller sanitizer.
const (
	IntentBehavioralSTARL     QuestionIntent = "behavioral_star_l"
	IntentTechnicalValidation QuestionIntent = "technical_validation"
	IntentDeepDive            QuestionIntent = "deep_dive"
	IntentClarification       QuestionIntent = "clarification"
	IntentWrapup              QuestionIntent = "wrapup"
	IntentCandidateQuestions  QuestionIntent = "candidate_questions"
)

// Valid reports whether the intent is one of the recognized values.
func (q QuestionIntent) Valid() bool {
	switch q {
	case IntentBehavioralSTARL, IntentTechnicalValidation, IntentDeepDive,
		IntentClarification, IntentWrapup, IntentCandidateQuestions:
		return true
	}
	return false
}

// AnswerFormat is the structure the next answer is expected to follow.
type AnswerFormat string

// Expected answer formats.
const (
	FormatSTARL       AnswerFormat = "STAR-L"
	FormatTradeoffs   AnswerFormat = "steps+tradeoffs"
	FormatShortFact   AnswerFormat = "short_fact"
	FormatWalkthrough AnswerFormat = "walkthrough"
)

// Valid reports whether the format is one of the recognized values.
func (f AnswerFormat) Valid() bool {
	switch f {
	case FormatSTARL, FormatTradeoffs, FormatShortFact, FormatWalkthrough:
		return true
	}
	return false
}

// ControllerResult is the sanitized output of the question controller: the
// next question to ask plus the metadata the engine needs to interpret the
// coming answer.
type ControllerResult struct {
	Section           Section        `json:"section"`
	Question          string         `json:"question"`
	Intent            QuestionIntent `json:"question_intent"`
	ExpectedFormat    AnswerFormat   `json:"expected_answer_format"`
	Probes            []string       `json:"probes,omitempty"`
	MustHavesTargeted []string       `json:"must_haves_targeted,omitempty"`
	TimeboxSeconds    int            `json:"timebox_seconds"`
	Rationale         string         `json:"rationale,omitempty"`
	EndInterview      bool           `json:"end_interview"`
}

// AnswerQuality classifies how complete a candidate answer was.
type AnswerQuality string

// Answer quality buckets tracked in the session histogram.
const (
	QualityStrong  AnswerQuality = "strong"
	QualityPartial AnswerQuality = "partial"
	QualityWeak    AnswerQuality = "weak"
	QualityUnclear AnswerQuality = "unclear"
)

// Valid reports whether the quality is one of the recognized buckets.
func (a AnswerQuality) Valid() bool {
	switch a {
	case QualityStrong, QualityPartial, QualityWeak, QualityUnclear:
		return true
	}
	return false
}

// MustHaveUpdate is one answer-derived signal about a required skill.
type MustHaveUpdate struct {
	MustHave   string  `json:"must_have"`
	Covered    bool    `json:"covered"`
	Confidence float64 `json:"confidence"`
}

// CompetencyUpdate is one answer-derived competency observation.
type CompetencyUpdate struct {
	Competency string  `json:"competency"`
	Score      float64 `json:"score"`
	Confidence float64 `json:"confidence"`
}

// EvidenceCandidate is a quotable snippet the analyzer extracted; ids are
// assigned by the state machine when the snippet is appended.
type EvidenceCandidate struct {
	Quote      string `json:"quote"`
	Skill      string `json:"skill,omitempty"`
	Competency string `json:"competency,omitempty"`
}

// FollowupCandidate is a follow-up the analyzer wants queued.
type FollowupCandidate struct {
	Skill    string `json:"skill"`
	Reason   string `json:"reason,omitempty"`
	Priority int    `json:"priority"`
}

// StarFlags records which STAR-L components the answer contained.
type StarFlags struct {
	Situation bool `json:"situation"`
	Task      bool `json:"task"`
	Action    bool `json:"action"`
	Result    bool `json:"result"`
	Learning  bool `json:"learning"`
}

// Missing returns the letter codes of absent components, in S/T/A/R/L order.
func (s StarFlags) Missing() []string {
	var missing []string
	if !s.Situation {
		missing = append(missing, "S")
	}
	if !s.Task {
		missing = append(missing, "T")
	}
	if !s.Action {
		missing = append(missing, "A")
	}
	if !s.Result {
		missing = append(missing, "R")
	}
	if !s.Learning {
		missing = append(missing, "L")
	}
	return missing
}

// AnalyzerResult is the sanitized output of the answer analyzer.
type AnalyzerResult struct {
	MustHaveUpdates   []MustHaveUpdate    `json:"must_have_updates,omitempty"`
	CompetencyUpdates []CompetencyUpdate  `json:"competency_updates,omitempty"`
	Evidence          []EvidenceCandidate `json:"evidence,omitempty"`
	Followups         []FollowupCandidate `json:"followups,omitempty"`
	Defers            []FollowupCandidate `json:"defers,omitempty"`
	Star              StarFlags           `json:"star_flags"`
	Contradictions    []string            `json:"contradictions,omitempty"`
	Vague             bool                `json:"vague"`
	Summary           string              `json:"summary"`
	Quality           AnswerQuality       `json:"answer_quality"`
}

// Recommendation is the final hiring signal.
type Recommendation string

// Final recommendation values.
const (
	RecommendStrongHire Recommendation = "strong_hire"
	RecommendHire       Recommendation = "hire"
	RecommendHold       Recommendation = "hold"
	RecommendNoHire     Recommendation = "no_hire"
)

// Valid reports whether the recommendation is one of the recognized values.
func (r Recommendation) Valid() bool {
	switch r {
	case RecommendStrongHire, RecommendHire, RecommendHold, RecommendNoHire:
		return true
	}
	return false
}

// FinalCompetency is one competency line in the final evaluation.
type FinalCompetency struct {
	Competency string  `json:"competency"`
	Score      float64 `json:"score"`
	Confidence float64 `json:"confidence"`
}

// FinalMustHave is one must-have line in the final evaluation.
type FinalMustHave struct {
	MustHave   string  `json:"must_have"`
	Covered    bool    `json:"covered"`
	Confidence float64 `json:"confidence"`
}

// EvaluatorResult is the sanitized output of the final evaluator.
type EvaluatorResult struct {
	OverallScore     float64           `json:"overall_weighted_score"`
	Confidence       float64           `json:"confidence"`
	CompetencyScores []FinalCompetency `json:"competency_scores,omitempty"`
	MustHaveCoverage []FinalMustHave   `json:"must_have_coverage,omitempty"`
	Strengths        []string          `json:"strengths,omitempty"`
	Risks            []string          `json:"risks,omitempty"`
	Recommendation   Recommendation    `json:"recommendation"`
	Summary          string            `json:"summary"`
}

// FinalRecord is the terminal artifact persisted when a session finalizes.
// DisplayScore maps the 0-4 weighted score onto a 0-100 scale; Band is the
// matching 4-band label used by reporting surfaces.
type FinalRecord struct {
	Evaluation    EvaluatorResult `json:"evaluation"`
	DisplayScore  int             `json:"display_score"`
	Band          string          `json:"band"`
	QuestionCount int             `json:"question_count"`
	AnswerCount   int             `json:"answer_count"`
}
