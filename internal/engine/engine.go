package engine

import (
	"context"
	"fmt"
	"log"
	"math"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/jonathan/interview-conductor/internal/coverage"
	"github.com/jonathan/interview-conductor/internal/fallback"
	"github.com/jonathan/interview-conductor/internal/llm"
	"github.com/jonathan/interview-conductor/internal/pipelines"
	"github.com/jonathan/interview-conductor/internal/session"
	"github.com/jonathan/interview-conductor/internal/types"
)

// phase tracks where the session is in its outer lifecycle. The section
// lattice inside session.State only starts moving once the consent gate has
// passed.
type phase int

const (
	phaseAwaitingConsent phase = iota
	phaseInterviewing
	phaseFinalized
)

// Recorder receives best-effort persistence updates. Implementations must
// not block: the engine calls Record synchronously on the turn path.
type Recorder interface {
	Record(sessionID string, update map[string]any)
}

// SessionError describes an engine-level failure tied to one session.
type SessionError struct {
	SessionID string
	Op        string
	Cause     error
}

func (e *SessionError) Error() string {
	return fmt.Sprintf("session %s: %s: %v", e.SessionID, e.Op, e.Cause)
}

func (e *SessionError) Unwrap() error { return e.Cause }

// Options configures a new Engine. Zero values select the classic variant,
// fallback-only pipelines, no persistence, and the wall clock.
type Options struct {
	Client   llm.Client
	Variant  VariantKind
	Recorder Recorder
	Clock    func() time.Time
	// ReasoningTimeout bounds each pipeline reasoning call; zero keeps the
	// pipelines' default.
	ReasoningTimeout time.Duration
}

// TurnOutput is what the engine says back after one candidate utterance.
type TurnOutput struct {
	Reply   string             `json:"reply"`
	Section types.Section      `json:"section"`
	Done    bool               `json:"done"`
	Final   *types.FinalRecord `json:"final,omitempty"`
}

// Engine is the turn orchestrator for one interview session. It owns the
// session state exclusively; all entry points serialize on the mutex, so a
// session processes at most one turn at a time.
type Engine struct {
	mu sync.Mutex

	id      string
	pack    types.ContextPack
	state   *session.State
	variant Variant

	controller *pipelines.Controller
	analyzer   *pipelines.Analyzer
	evaluator  *pipelines.Evaluator

	recorder Recorder
	clock    func() time.Time

	phase        phase
	transcript   []types.Turn
	lastQuestion types.ControllerResult
	final        *types.FinalRecord
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// New validates the position record, derives the context pack, and builds a
// ready engine in the awaiting-consent phase. A nil Options.Client yields an
// engine that runs entirely on deterministic fallbacks.
func New(id string, rec types.PositionRecord, opts Options) (*Engine, error) {
	e, err := build(id, rec, opts)
	if err != nil {
		return nil, err
	}
	e.persist("created", e.clock())
	return e, nil
}

func build(id string, rec types.PositionRecord, opts Options) (*Engine, error) {
	if err := validate.Struct(rec); err != nil {
		return nil, &SessionError{SessionID: id, Op: "validate position", Cause: err}
	}
	variant, err := NewVariant(opts.Variant)
	if err != nil {
		return nil, &SessionError{SessionID: id, Op: "select variant", Cause: err}
	}
	bank, err := fallback.Load()
	if err != nil {
		return nil, &SessionError{SessionID: id, Op: "load question bank", Cause: err}
	}

	if id == "" {
		id = uuid.NewString()
	}
	clock := opts.Clock
	if clock == nil {
		clock = time.Now
	}

	pack := types.NewContextPack(rec)
	now := clock()

	instructions := variant.Instructions(pack)
	controller := pipelines.NewController(opts.Client, bank)
	controller.Tier = variant.Tier(PurposeController)
	controller.Instructions = instructions
	analyzer := pipelines.NewAnalyzer(opts.Client)
	analyzer.Tier = variant.Tier(PurposeAnalyzer)
	analyzer.Instructions = instructions
	evaluator := pipelines.NewEvaluator(opts.Client)
	evaluator.Tier = variant.Tier(PurposeEvaluator)
	evaluator.Instructions = instructions
	if opts.ReasoningTimeout > 0 {
		controller.Timeout = opts.ReasoningTimeout
		analyzer.Timeout = opts.ReasoningTimeout
		evaluator.Timeout = opts.ReasoningTimeout
	}

	return &Engine{
		id:         id,
		pack:       pack,
		state:      session.NewState(rec.DurationMinutes, pack.MustHaves, pack.FocusAreas, now),
		variant:    variant,
		controller: controller,
		analyzer:   analyzer,
		evaluator:  evaluator,
		recorder:   opts.Recorder,
		clock:      clock,
		phase:      phaseAwaitingConsent,
	}, nil
}

// Resume rebuilds an engine for an existing session from a persisted state
// snapshot. The transcript is not part of the snapshot, so prompt windows
// start empty; coverage, queues, and section position carry over. A session
// that already reached the completed section cannot be resumed.
func Resume(id string, rec types.PositionRecord, snapshot []byte, opts Options) (*Engine, error) {
	if id == "" {
		return nil, &SessionError{SessionID: id, Op: "resume", Cause: fmt.Errorf("session id is required")}
	}
	state, err := session.Restore(snapshot)
	if err != nil {
		return nil, &SessionError{SessionID: id, Op: "restore snapshot", Cause: err}
	}
	if state.Section == types.SectionCompleted {
		return nil, &SessionError{SessionID: id, Op: "resume", Cause: errFinalized}
	}

	e, err := build(id, rec, opts)
	if err != nil {
		return nil, err
	}
	e.state = state
	if state.AskedQuestions > 0 {
		e.phase = phaseInterviewing
	}
	e.state.RecomputeTimeRemaining(e.clock())
	e.persist("active", e.clock())
	return e, nil
}

// ID returns the session identifier.
func (e *Engine) ID() string { return e.id }

// KickoffQuestion returns the greeting plus consent prompt that opens the
// session. It does not advance the section lattice; the first scored
// question is only asked once the candidate consents.
func (e *Engine) KickoffQuestion() string {
	e.mu.Lock()
	defer e.mu.Unlock()

	greeting := e.kickoffLine()
	e.appendTurn(types.SpeakerInterviewer, greeting)
	return greeting
}

func (e *Engine) kickoffLine() string {
	return e.variant.JoinGreeting(e.pack) + " Shall we get started?"
}

// HandleCandidateTurn processes one utterance end to end: consent gating,
// answer analysis, state mutation, gate evaluation, and next-question
// selection. Only candidate utterances are scored; anything spoken by another
// identity is kept on the transcript and the pending question is re-issued.
// It never returns an empty reply while the session is live.
func (e *Engine) HandleCandidateTurn(ctx context.Context, text, speaker string) (TurnOutput, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.phase == phaseFinalized {
		return TurnOutput{}, &SessionError{SessionID: e.id, Op: "handle turn", Cause: errFinalized}
	}

	now := e.clock()
	if speaker == "" {
		speaker = types.SpeakerCandidate
	}
	e.appendTurn(speaker, text)

	if speaker != types.SpeakerCandidate {
		return e.reply(e.lastInterviewerLine(), false), nil
	}
	if e.phase == phaseAwaitingConsent {
		return e.handleConsent(ctx, text, now)
	}
	return e.handleAnswer(ctx, text, now)
}

// lastInterviewerLine returns the most recent interviewer utterance, so an
// interjection from a third identity gets the open question repeated back.
func (e *Engine) lastInterviewerLine() string {
	for i := len(e.transcript) - 1; i >= 0; i-- {
		if e.transcript[i].Speaker == types.SpeakerInterviewer {
			return e.transcript[i].Text
		}
	}
	return e.kickoffLine()
}

var errFinalized = fmt.Errorf("session already finalized")

func (e *Engine) handleConsent(ctx context.Context, text string, now time.Time) (TurnOutput, error) {
	switch classifyConsent(text) {
	case consentAffirmative:
		e.phase = phaseInterviewing
		question := e.askNext(ctx, now, nil)
		e.persist("active", now)
		return e.reply(question.Question, false), nil
	case consentNegative:
		// Re-prompt without advancing anything: hesitation is not a decline,
		// and an operator who wants to close the session calls Finalize.
		prompt := "That's alright, there's no rush. Whenever you're ready, just say so and we'll begin."
		e.appendTurn(types.SpeakerInterviewer, prompt)
		return e.reply(prompt, false), nil
	default:
		prompt := "No problem, take your time. Just say the word when you're ready to begin."
		e.appendTurn(types.SpeakerInterviewer, prompt)
		return e.reply(prompt, false), nil
	}
}

func (e *Engine) handleAnswer(ctx context.Context, text string, now time.Time) (TurnOutput, error) {
	turn := e.state.AnsweredTurns + 1
	analysis := e.analyzer.Analyze(ctx, e.pack, e.state, e.lastQuestion, text, e.transcript)
	e.state.ApplyAnalysis(analysis, turn, now)

	forced := deriveForcedFollowup(analysis, e.lastQuestion)
	question := e.askNext(ctx, now, forced)

	if e.state.Completed() || question.EndInterview {
		record := e.finalize(ctx, now)
		closing := question.Question
		if e.state.Completed() || closing == "" {
			closing = fmt.Sprintf("That's everything I needed, %s. Thank you for walking me through your experience today.",
				e.pack.CandidateName)
		}
		e.appendTurn(types.SpeakerInterviewer, closing)
		out := e.reply(closing, true)
		out.Final = record
		return out, nil
	}

	e.persist("active", now)
	return e.reply(question.Question, false), nil
}

// askNext selects and asks the next question: forced follow-ups first, then
// queued follow-ups (skipping the controller entirely when a topic is
// already probed out), then the controller with its fallback discipline.
func (e *Engine) askNext(ctx context.Context, now time.Time, forced *forcedFollowup) types.ControllerResult {
	hint := ""
	bankOnly := false

	if forced == nil {
		item := e.state.ConsumeFollowup()
		if item == nil {
			item = e.state.ConsumeDefer()
		}
		if item != nil {
			if e.state.TopicProbeCount(item.Skill) >= session.MaxProbesPerTopic {
				// Topic exhausted: fall through to the bank so the session
				// moves on instead of circling the same skill.
				bankOnly = true
			} else {
				e.state.IncrementTopicProbe(item.Skill)
				hint = fmt.Sprintf("Follow up on %q: %s", item.Skill, item.Reason)
			}
		}
	}

	var result types.ControllerResult
	if bankOnly {
		result = e.controller.Fallback(e.pack, e.state)
	} else {
		result = e.controller.Next(ctx, e.pack, e.state, e.transcript, hint)
	}

	result = applyTransforms(&turnContext{
		pack:   e.pack,
		state:  e.state,
		now:    now,
		forced: forced,
		result: result,
	})

	e.state.AskedQuestions++
	e.state.RecomputeTimeRemaining(now)
	e.state.ApplyGates(now)
	result.Section = e.state.Section

	if !e.state.Completed() && !result.EndInterview {
		e.appendTurn(types.SpeakerInterviewer, result.Question)
	}
	e.lastQuestion = result
	return result
}

// Finalize ends the session immediately and returns the terminal record. It
// is idempotent: repeated calls return the same record.
func (e *Engine) Finalize(ctx context.Context) (*types.FinalRecord, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.final != nil {
		return e.final, nil
	}
	return e.finalize(ctx, e.clock()), nil
}

func (e *Engine) finalize(ctx context.Context, now time.Time) *types.FinalRecord {
	if e.final != nil {
		return e.final
	}

	evaluation := e.evaluator.Evaluate(ctx, e.pack, e.state)
	e.final = &types.FinalRecord{
		Evaluation:    evaluation,
		DisplayScore:  displayScore(evaluation.OverallScore),
		Band:          displayBand(evaluation.OverallScore),
		QuestionCount: e.state.AskedQuestions,
		AnswerCount:   e.state.AnsweredTurns,
	}
	e.phase = phaseFinalized
	e.state.Section = types.SectionCompleted
	e.persist("finalized", now)
	return e.final
}

// Final returns the terminal record, or nil while the session is live.
func (e *Engine) Final() *types.FinalRecord {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.final
}

// Summary returns the current coverage picture for reporting surfaces.
func (e *Engine) Summary() map[string]any {
	e.mu.Lock()
	defer e.mu.Unlock()

	status := e.coverageSnapshot()
	status["session_id"] = e.id
	return status
}

// CoverageSummary returns the per-skill and per-competency coverage view.
func (e *Engine) CoverageSummary() coverage.SummaryReport {
	e.mu.Lock()
	defer e.mu.Unlock()
	return coverage.Summary(e.state.MustHaves, e.state.Competencies,
		len(e.state.FollowupQueue), len(e.state.DeferQueue))
}

// Transcript returns a copy of the turn log.
func (e *Engine) Transcript() []types.Turn {
	e.mu.Lock()
	defer e.mu.Unlock()

	out := make([]types.Turn, len(e.transcript))
	copy(out, e.transcript)
	return out
}

func (e *Engine) reply(text string, done bool) TurnOutput {
	return TurnOutput{
		Reply:   text,
		Section: e.state.Section,
		Done:    done,
		Final:   e.final,
	}
}

func (e *Engine) appendTurn(speaker, text string) {
	e.transcript = append(e.transcript, types.Turn{
		Speaker: speaker,
		Text:    text,
		At:      e.clock(),
	})
}

func (e *Engine) coverageSnapshot() map[string]any {
	return map[string]any{
		"section":          e.state.Section,
		"asked_questions":  e.state.AskedQuestions,
		"answered_turns":   e.state.AnsweredTurns,
		"time_remaining":   e.state.TimeRemaining,
		"must_haves":       e.state.MustHaves,
		"competencies":     e.state.Competencies,
		"followup_pending": len(e.state.FollowupQueue),
		"defer_pending":    len(e.state.DeferQueue),
	}
}

// persist snapshots the state and hands it to the recorder. Persistence is
// best effort: snapshot failures are logged and the turn proceeds.
func (e *Engine) persist(status string, now time.Time) {
	if e.recorder == nil {
		return
	}
	snapshot, err := e.state.Snapshot()
	if err != nil {
		log.Printf("[engine] snapshot failed for session %s: %v", e.id, err)
		return
	}
	update := map[string]any{
		"status":     status,
		"section":    string(e.state.Section),
		"snapshot":   snapshot,
		"updated_at": now,
	}
	if e.final != nil {
		update["final"] = e.final
	}
	e.recorder.Record(e.id, update)
}

// displayScore maps the 0-4 weighted score onto a 0-100 reporting scale.
func displayScore(score float64) int {
	if score < 0 {
		score = 0
	}
	if score > 4 {
		score = 4
	}
	return int(math.Round(score / 4 * 100))
}

// displayBand buckets the weighted score into the 4-band reporting label.
func displayBand(score float64) string {
	switch {
	case score >= 3.4:
		return "strong"
	case score >= 2.6:
		return "solid"
	case score >= 1.8:
		return "mixed"
	default:
		return "weak"
	}
}
