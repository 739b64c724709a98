// Package pipelines implements the three reasoning-call adapters: the
// question controller, the answer analyzer, and the final evaluator. Each
// adapter computes a deterministic fallback from session state alone, makes
// at most one bounded reasoning call, and sanitizes the structured response
// field by field: an invalid field is replaced by its fallback counterpart,
// never rejected wholesale. No pipeline failure is ever surfaced to the
// caller; the conversation always gets a valid result.
package pipelines

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jonathan/interview-conductor/internal/types"
)

// DefaultTimeout bounds each reasoning call. On timeout the fallback path
// executes synchronously with no retry.
const DefaultTimeout = 20 * time.Second

// Bounded prompt windows: only the tail of the conversation is sent.
const (
	transcriptWindow = 10
	evidenceWindow   = 8
)

// decodeLoose unmarshals a reasoning response into dst. Type errors on
// individual fields are tolerated; encoding/json fills every field it can
// and the sanitizer substitutes fallbacks for the rest. Only documents that
// are not JSON objects at all count as undecodable.
func decodeLoose(data []byte, dst any) error {
	err := json.Unmarshal(data, dst)
	if err == nil {
		return nil
	}
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) && typeErr.Field != "" {
		// A mismatched field inside an otherwise-valid object.
		return nil
	}
	return fmt.Errorf("undecodable reasoning response: %w", err)
}

// transcriptTail renders the last transcriptWindow turns for a prompt.
func transcriptTail(transcript []types.Turn) string {
	start := len(transcript) - transcriptWindow
	if start < 0 {
		start = 0
	}
	if start == len(transcript) {
		return "(no turns yet)"
	}
	var sb strings.Builder
	for _, turn := range transcript[start:] {
		fmt.Fprintf(&sb, "%s: %s\n", turn.Speaker, turn.Text)
	}
	return strings.TrimSuffix(sb.String(), "\n")
}

// evidenceTail renders the last evidenceWindow evidence entries for a prompt.
func evidenceTail(log []types.Evidence) string {
	start := len(log) - evidenceWindow
	if start < 0 {
		start = 0
	}
	if start == len(log) {
		return "(none yet)"
	}
	var sb strings.Builder
	for _, ev := range log[start:] {
		tag := ev.Skill
		if tag == "" {
			tag = ev.Competency
		}
		fmt.Fprintf(&sb, "%s [%s]: %q\n", ev.ID, tag, ev.Quote)
	}
	return strings.TrimSuffix(sb.String(), "\n")
}

// withPreamble prefixes a prompt with the variant's runtime instructions.
func withPreamble(instructions, prompt string) string {
	instructions = strings.TrimSpace(instructions)
	if instructions == "" {
		return prompt
	}
	return instructions + "\n\n" + prompt
}

func joinOrNone(items []string) string {
	if len(items) == 0 {
		return "(none)"
	}
	return strings.Join(items, ", ")
}

// firstSentence returns the first sentence of text, truncated to maxLen.
func firstSentence(text string, maxLen int) string {
	text = strings.TrimSpace(text)
	for _, delim := range []string{". ", "! ", "? ", "\n"} {
		if idx := strings.Index(text, delim); idx >= 0 {
			text = text[:idx+1]
			break
		}
	}
	text = strings.TrimSpace(text)
	if len(text) > maxLen {
		text = text[:maxLen-3] + "..."
	}
	return text
}
