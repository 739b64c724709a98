package pipelines

import (
	"context"
	"log"
	"strings"
	"time"

	"github.com/jonathan/interview-conductor/internal/llm"
	"github.com/jonathan/interview-conductor/internal/prompts"
	"github.com/jonathan/interview-conductor/internal/schemas"
	"github.com/jonathan/interview-conductor/internal/session"
	"github.com/jonathan/interview-conductor/internal/types"
)

// Word-count thresholds for the heuristic fallback classification.
const (
	unclearWordCount = 5
	weakWordCount    = 15
	strongWordCount  = 60
)

// heuristicConfidence is the confidence assigned to keyword-derived
// must-have signals; low enough that it never flips coverage on its own.
const heuristicConfidence = 0.4

// starCues maps each STAR-L component to lexical markers used by the
// fallback when no reasoning call is available.
var starCues = map[string][]string{
	"situation": {"situation", "context", "at the time", "we had", "i was working", "last year", "previous"},
	"task":      {"task", "goal", "needed to", "had to", "responsible for", "my job", "objective"},
	"action":    {"i built", "i wrote", "i designed", "i implemented", "we built", "i decided", "so i", "i led"},
	"result":    {"result", "outcome", "ended up", "improved", "reduced", "increased", "shipped", "%"},
	"learning":  {"learned", "lesson", "takeaway", "next time", "in hindsight", "retrospect", "would do differently"},
}

// hedgeCues mark vague answers in the fallback path.
var hedgeCues = []string{"maybe", "sort of", "kind of", "i guess", "probably", "stuff", "things like that", "not sure"}

// Analyzer classifies candidate answers into coverage and competency
// signals. Like every pipeline, it never blocks on the reasoning call: the
// lexical fallback always produces a usable result.
type Analyzer struct {
	Client llm.Client
	Tier   llm.ModelTier
	// Instructions is the variant's runtime preamble, prepended to every
	// prompt.
	Instructions string
	Timeout      time.Duration
}

// NewAnalyzer builds an analyzer pipeline around a reasoning client.
func NewAnalyzer(client llm.Client) *Analyzer {
	return &Analyzer{
		Client:  client,
		Tier:    llm.TierLite,
		Timeout: DefaultTimeout,
	}
}

// Analyze classifies one candidate answer to the given question.
func (a *Analyzer) Analyze(ctx context.Context, pack types.ContextPack, state *session.State, question types.ControllerResult, answer string, transcript []types.Turn) types.AnalyzerResult {
	fb := a.Fallback(pack, question, answer)
	if a.Client == nil {
		return fb
	}

	prompt := a.buildPrompt(pack, state, question, answer, transcript)

	callCtx, cancel := context.WithTimeout(ctx, a.timeout())
	defer cancel()

	raw, err := a.Client.GenerateJSON(callCtx, prompt, a.Tier)
	if err != nil {
		log.Printf("[analyzer] reasoning call failed, using fallback: %v", err)
		return fb
	}

	if err := schemas.Validate(schemas.Analyzer, []byte(raw)); err != nil {
		log.Printf("[analyzer] %v", err)
	}

	return sanitizeAnalyzer([]byte(raw), fb)
}

func (a *Analyzer) timeout() time.Duration {
	if a.Timeout > 0 {
		return a.Timeout
	}
	return DefaultTimeout
}

// Fallback derives an analysis from lexical heuristics on the raw answer:
// word-count thresholds for quality, keyword presence per STAR-L letter,
// and substring matches against tracked must-haves.
func (a *Analyzer) Fallback(pack types.ContextPack, question types.ControllerResult, answer string) types.AnalyzerResult {
	lower := strings.ToLower(answer)
	words := len(strings.Fields(answer))

	result := types.AnalyzerResult{
		Star: types.StarFlags{
			Situation: containsAny(lower, starCues["situation"]),
			Task:      containsAny(lower, starCues["task"]),
			Action:    containsAny(lower, starCues["action"]),
			Result:    containsAny(lower, starCues["result"]),
			Learning:  containsAny(lower, starCues["learning"]),
		},
		Summary: firstSentence(answer, 140),
	}
	if result.Summary == "" {
		result.Summary = "(no substantive answer)"
	}

	switch {
	case words < unclearWordCount:
		result.Quality = types.QualityUnclear
	case words < weakWordCount:
		result.Quality = types.QualityWeak
	case words < strongWordCount:
		result.Quality = types.QualityPartial
	default:
		result.Quality = types.QualityStrong
	}

	hedges := 0
	for _, cue := range hedgeCues {
		hedges += strings.Count(lower, cue)
	}
	result.Vague = words < weakWordCount || hedges >= 2

	for _, mustHave := range pack.MustHaves {
		if strings.Contains(lower, strings.ToLower(mustHave)) {
			result.MustHaveUpdates = append(result.MustHaveUpdates, types.MustHaveUpdate{
				MustHave:   mustHave,
				Confidence: heuristicConfidence,
			})
			if words >= weakWordCount {
				result.Evidence = append(result.Evidence, types.EvidenceCandidate{
					Quote: firstSentence(answer, 140),
					Skill: mustHave,
				})
			}
		}
	}

	// A single coarse communication observation keeps the competency
	// running mean fed even when every reasoning call fails.
	result.CompetencyUpdates = []types.CompetencyUpdate{{
		Competency: "communication",
		Score:      qualityScore(result.Quality),
		Confidence: 0.3,
	}}

	return result
}

func qualityScore(q types.AnswerQuality) float64 {
	switch q {
	case types.QualityStrong:
		return 4
	case types.QualityPartial:
		return 3
	case types.QualityWeak:
		return 2
	default:
		return 1.5
	}
}

func containsAny(text string, cues []string) bool {
	for _, cue := range cues {
		if strings.Contains(text, cue) {
			return true
		}
	}
	return false
}

func (a *Analyzer) buildPrompt(pack types.ContextPack, state *session.State, question types.ControllerResult, answer string, transcript []types.Turn) string {
	competencies := make([]string, 0, len(state.Competencies))
	for name := range state.Competencies {
		competencies = append(competencies, name)
	}

	template := prompts.MustGet("analyzer.json", "analyze-answer")
	return withPreamble(a.Instructions, prompts.Format(template, map[string]string{
		"Title":          pack.Title,
		"Level":          pack.Level,
		"MustHaves":      joinOrNone(pack.MustHaves),
		"Competencies":   joinOrNone(competencies),
		"ExpectedFormat": string(question.ExpectedFormat),
		"Question":       question.Question,
		"Answer":         answer,
		"Transcript":     transcriptTail(transcript),
	}))
}

// analyzerRaw mirrors the analyzer output schema with tolerant field types.
type analyzerRaw struct {
	MustHaveUpdates []struct {
		MustHave   *string  `json:"must_have"`
		Covered    *bool    `json:"covered"`
		Confidence *float64 `json:"confidence"`
	} `json:"must_have_updates"`
	CompetencyUpdates []struct {
		Competency *string  `json:"competency"`
		Score      *float64 `json:"score"`
		Confidence *float64 `json:"confidence"`
	} `json:"competency_updates"`
	Evidence []struct {
		Quote      *string `json:"quote"`
		Skill      *string `json:"skill"`
		Competency *string `json:"competency"`
	} `json:"evidence"`
	Followups []struct {
		Skill    *string  `json:"skill"`
		Reason   *string  `json:"reason"`
		Priority *float64 `json:"priority"`
	} `json:"followups"`
	Defers []struct {
		Skill    *string  `json:"skill"`
		Reason   *string  `json:"reason"`
		Priority *float64 `json:"priority"`
	} `json:"defers"`
	StarFlags *struct {
		Situation *bool `json:"situation"`
		Task      *bool `json:"task"`
		Action    *bool `json:"action"`
		Result    *bool `json:"result"`
		Learning  *bool `json:"learning"`
	} `json:"star_flags"`
	Contradictions []string `json:"contradictions"`
	Vague          *bool    `json:"vague"`
	Summary        *string  `json:"summary"`
	Quality        *string  `json:"answer_quality"`
}

// sanitizeAnalyzer merges a raw analyzer response onto the lexical fallback.
// List fields replace the fallback's lists only when they contain at least
// one valid entry; scalar fields are substituted individually.
func sanitizeAnalyzer(data []byte, fb types.AnalyzerResult) types.AnalyzerResult {
	var raw analyzerRaw
	if err := decodeLoose(data, &raw); err != nil {
		log.Printf("[analyzer] %v", err)
		return fb
	}

	out := fb

	if len(raw.MustHaveUpdates) > 0 {
		var updates []types.MustHaveUpdate
		for _, u := range raw.MustHaveUpdates {
			if u.MustHave == nil || strings.TrimSpace(*u.MustHave) == "" {
				continue
			}
			update := types.MustHaveUpdate{MustHave: strings.TrimSpace(*u.MustHave)}
			if u.Covered != nil {
				update.Covered = *u.Covered
			}
			if u.Confidence != nil {
				update.Confidence = *u.Confidence
			}
			updates = append(updates, update)
		}
		if len(updates) > 0 {
			out.MustHaveUpdates = updates
		}
	}

	if len(raw.CompetencyUpdates) > 0 {
		var updates []types.CompetencyUpdate
		for _, u := range raw.CompetencyUpdates {
			if u.Competency == nil || strings.TrimSpace(*u.Competency) == "" {
				continue
			}
			update := types.CompetencyUpdate{Competency: strings.TrimSpace(*u.Competency)}
			if u.Score != nil {
				update.Score = *u.Score
			}
			if u.Confidence != nil {
				update.Confidence = *u.Confidence
			}
			updates = append(updates, update)
		}
		if len(updates) > 0 {
			out.CompetencyUpdates = updates
		}
	}

	if len(raw.Evidence) > 0 {
		var evidence []types.EvidenceCandidate
		for _, e := range raw.Evidence {
			if e.Quote == nil || strings.TrimSpace(*e.Quote) == "" {
				continue
			}
			candidate := types.EvidenceCandidate{Quote: strings.TrimSpace(*e.Quote)}
			if e.Skill != nil {
				candidate.Skill = strings.TrimSpace(*e.Skill)
			}
			if e.Competency != nil {
				candidate.Competency = strings.TrimSpace(*e.Competency)
			}
			evidence = append(evidence, candidate)
		}
		if len(evidence) > 0 {
			out.Evidence = evidence
		}
	}

	out.Followups = sanitizeCandidates(raw.Followups, fb.Followups)
	out.Defers = sanitizeCandidates(raw.Defers, fb.Defers)

	if raw.StarFlags != nil {
		flags := fb.Star
		if raw.StarFlags.Situation != nil {
			flags.Situation = *raw.StarFlags.Situation
		}
		if raw.StarFlags.Task != nil {
			flags.Task = *raw.StarFlags.Task
		}
		if raw.StarFlags.Action != nil {
			flags.Action = *raw.StarFlags.Action
		}
		if raw.StarFlags.Result != nil {
			flags.Result = *raw.StarFlags.Result
		}
		if raw.StarFlags.Learning != nil {
			flags.Learning = *raw.StarFlags.Learning
		}
		out.Star = flags
	}

	if clean := cleanStrings(raw.Contradictions, session.MaxContradictionsPerCall); len(clean) > 0 {
		out.Contradictions = clean
	}
	if raw.Vague != nil {
		out.Vague = *raw.Vague
	}
	if raw.Summary != nil && strings.TrimSpace(*raw.Summary) != "" {
		out.Summary = strings.TrimSpace(*raw.Summary)
	}
	if raw.Quality != nil && types.AnswerQuality(*raw.Quality).Valid() {
		out.Quality = types.AnswerQuality(*raw.Quality)
	}

	return out
}

func sanitizeCandidates(raw []struct {
	Skill    *string  `json:"skill"`
	Reason   *string  `json:"reason"`
	Priority *float64 `json:"priority"`
}, fb []types.FollowupCandidate) []types.FollowupCandidate {
	if len(raw) == 0 {
		return fb
	}
	var out []types.FollowupCandidate
	for _, c := range raw {
		if c.Skill == nil || strings.TrimSpace(*c.Skill) == "" {
			continue
		}
		candidate := types.FollowupCandidate{Skill: strings.TrimSpace(*c.Skill), Priority: 3}
		if c.Reason != nil {
			candidate.Reason = strings.TrimSpace(*c.Reason)
		}
		if c.Priority != nil {
			candidate.Priority = int(*c.Priority)
		}
		out = append(out, candidate)
	}
	if len(out) == 0 {
		return fb
	}
	return out
}
