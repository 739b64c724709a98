package pipelines

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/jonathan/interview-conductor/internal/coverage"
	"github.com/jonathan/interview-conductor/internal/fallback"
	"github.com/jonathan/interview-conductor/internal/llm"
	"github.com/jonathan/interview-conductor/internal/prompts"
	"github.com/jonathan/interview-conductor/internal/schemas"
	"github.com/jonathan/interview-conductor/internal/session"
	"github.com/jonathan/interview-conductor/internal/types"
)

// Controller limits on list-valued output fields.
const (
	maxProbes            = 4
	maxMustHavesTargeted = 3
	minTimeboxSeconds    = 30
	maxTimeboxSeconds    = 240
)

// Controller produces the next interview question. It never fails: when the
// reasoning call errors or returns malformed output, a deterministic
// question from the fallback bank is used instead.
type Controller struct {
	Client llm.Client
	Bank   *fallback.Bank
	Tier   llm.ModelTier
	// Instructions is the variant's runtime preamble, prepended to every
	// prompt.
	Instructions string
	Timeout      time.Duration
}

// NewController builds a controller pipeline around a reasoning client.
// A nil client means always-fallback, which is a supported mode.
func NewController(client llm.Client, bank *fallback.Bank) *Controller {
	return &Controller{
		Client:  client,
		Bank:    bank,
		Tier:    llm.TierStandard,
		Timeout: DefaultTimeout,
	}
}

// Fallback computes the deterministic controller result from state alone.
// It requires no network access and always passes the sanitizer unchanged.
func (c *Controller) Fallback(pack types.ContextPack, state *session.State) types.ControllerResult {
	uncovered := coverage.Status(state.MustHaves).Uncovered
	return c.Bank.Result(pack.Family, state.Section, state.AskedQuestions, uncovered)
}

// Next produces the next question for the current state. hint is a
// task-specific directive (e.g. a queued follow-up topic) folded into the
// prompt.
func (c *Controller) Next(ctx context.Context, pack types.ContextPack, state *session.State, transcript []types.Turn, hint string) types.ControllerResult {
	fb := c.Fallback(pack, state)
	if c.Client == nil {
		return fb
	}

	prompt := c.buildPrompt(pack, state, transcript, hint)

	callCtx, cancel := context.WithTimeout(ctx, c.timeout())
	defer cancel()

	raw, err := c.Client.GenerateJSON(callCtx, prompt, c.Tier)
	if err != nil {
		log.Printf("[controller] reasoning call failed, using fallback: %v", err)
		return fb
	}

	if err := schemas.Validate(schemas.Controller, []byte(raw)); err != nil {
		log.Printf("[controller] %v", err)
	}

	return sanitizeController([]byte(raw), fb, state.MustHaves)
}

func (c *Controller) timeout() time.Duration {
	if c.Timeout > 0 {
		return c.Timeout
	}
	return DefaultTimeout
}

func (c *Controller) buildPrompt(pack types.ContextPack, state *session.State, transcript []types.Turn, hint string) string {
	status := coverage.Status(state.MustHaves)
	if hint == "" {
		hint = "continue the current section"
	}
	template := prompts.MustGet("controller.json", "next-question")
	return withPreamble(c.Instructions, prompts.Format(template, map[string]string{
		"Title":              pack.Title,
		"Level":              pack.Level,
		"Family":             pack.Family,
		"RoundType":          pack.RoundType,
		"UncoveredMustHaves": joinOrNone(status.Uncovered),
		"FocusAreas":         joinOrNone(pack.FocusAreas),
		"Section":            string(state.Section),
		"AskedQuestions":     fmt.Sprintf("%d", state.AskedQuestions),
		"TimeRemaining":      fmt.Sprintf("%d", state.TimeRemaining),
		"CoveragePct":        fmt.Sprintf("%.0f%%", status.Pct*100),
		"Transcript":         transcriptTail(transcript),
		"Evidence":           evidenceTail(state.EvidenceLog),
		"Hint":               hint,
	}))
}

// controllerRaw mirrors the controller output schema with pointer fields so
// absent and present-but-invalid values are distinguishable.
type controllerRaw struct {
	Section           *string  `json:"section"`
	Question          *string  `json:"question"`
	Intent            *string  `json:"question_intent"`
	ExpectedFormat    *string  `json:"expected_answer_format"`
	Probes            []string `json:"probes"`
	MustHavesTargeted []string `json:"must_haves_targeted"`
	TimeboxSeconds    *float64 `json:"timebox_seconds"`
	Rationale         *string  `json:"rationale"`
	EndInterview      *bool    `json:"end_interview"`
}

// sanitizeController merges a raw reasoning response onto the fallback
// result field by field. Every invalid or missing field resolves to the
// fallback's value; a completely undecodable document yields the fallback
// unchanged.
func sanitizeController(data []byte, fb types.ControllerResult, known map[string]*types.MustHaveStatus) types.ControllerResult {
	var raw controllerRaw
	if err := decodeLoose(data, &raw); err != nil {
		log.Printf("[controller] %v", err)
		return fb
	}

	out := fb

	if raw.Section != nil && types.Section(*raw.Section).Valid() {
		out.Section = types.Section(*raw.Section)
	}
	if raw.Question != nil && strings.TrimSpace(*raw.Question) != "" {
		out.Question = strings.TrimSpace(*raw.Question)
	}
	if raw.Intent != nil && types.QuestionIntent(*raw.Intent).Valid() {
		out.Intent = types.QuestionIntent(*raw.Intent)
	}
	if raw.ExpectedFormat != nil && types.AnswerFormat(*raw.ExpectedFormat).Valid() {
		out.ExpectedFormat = types.AnswerFormat(*raw.ExpectedFormat)
	}

	if probes := cleanStrings(raw.Probes, maxProbes); len(probes) > 0 {
		out.Probes = probes
	}

	if len(raw.MustHavesTargeted) > 0 {
		var targeted []string
		for _, name := range raw.MustHavesTargeted {
			name = strings.TrimSpace(name)
			if name == "" {
				continue
			}
			if _, tracked := known[name]; tracked {
				targeted = append(targeted, name)
			}
			if len(targeted) == maxMustHavesTargeted {
				break
			}
		}
		if len(targeted) > 0 {
			out.MustHavesTargeted = targeted
		}
	}

	if raw.TimeboxSeconds != nil {
		seconds := int(*raw.TimeboxSeconds)
		if seconds < minTimeboxSeconds {
			seconds = minTimeboxSeconds
		}
		if seconds > maxTimeboxSeconds {
			seconds = maxTimeboxSeconds
		}
		out.TimeboxSeconds = seconds
	}

	if raw.Rationale != nil && strings.TrimSpace(*raw.Rationale) != "" {
		out.Rationale = strings.TrimSpace(*raw.Rationale)
	}
	if raw.EndInterview != nil {
		out.EndInterview = *raw.EndInterview
	}

	return out
}

func cleanStrings(values []string, limit int) []string {
	var out []string
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		out = append(out, v)
		if len(out) == limit {
			break
		}
	}
	return out
}
