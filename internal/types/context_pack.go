package types

import "strings"

// PositionRecord is the externally supplied position/interview description a
// session is created from. It is validated once at session init and never
// consulted again; the derived ContextPack is the in-session source of truth.
type PositionRecord struct {
	Title            string   `json:"title" validate:"required"`
	Family           string   `json:"family,omitempty"`
	Level            string   `json:"level,omitempty"`
	RoundType        string   `json:"round_type,omitempty"`
	MustHaves        []string `json:"must_haves" validate:"required,min=1,dive,required"`
	FocusAreas       []string `json:"focus_areas,omitempty"`
	Responsibilities []string `json:"responsibilities,omitempty"`
	CandidateName    string   `json:"candidate_name,omitempty"`
	InterviewerName  string   `json:"interviewer_name,omitempty"`
	DurationMinutes  int      `json:"duration_minutes,omitempty" validate:"omitempty,min=0,max=240"`
}

// ContextPack is the normalized, immutable role metadata shared with every
// reasoning pipeline. It is derived once from a PositionRecord at session
// init and never re-derived mid-session.
type ContextPack struct {
	Title            string   `json:"title"`
	Family           string   `json:"family"`
	Level            string   `json:"level"`
	RoundType        string   `json:"round_type"`
	MustHaves        []string `json:"must_haves"`
	FocusAreas       []string `json:"focus_areas"`
	Responsibilities []string `json:"responsibilities"`
	CandidateName    string   `json:"candidate_name"`
	InterviewerName  string   `json:"interviewer_name"`
}

// NewContextPack normalizes a PositionRecord into a ContextPack. Skill and
// focus names are trimmed and deduplicated preserving order; empty display
// names get defaults.
func NewContextPack(rec PositionRecord) ContextPack {
	pack := ContextPack{
		Title:            strings.TrimSpace(rec.Title),
		Family:           normalizeFamily(rec.Family),
		Level:            strings.TrimSpace(rec.Level),
		RoundType:        strings.TrimSpace(rec.RoundType),
		MustHaves:        dedupeTrimmed(rec.MustHaves),
		FocusAreas:       dedupeTrimmed(rec.FocusAreas),
		Responsibilities: dedupeTrimmed(rec.Responsibilities),
		CandidateName:    strings.TrimSpace(rec.CandidateName),
		InterviewerName:  strings.TrimSpace(rec.InterviewerName),
	}
	if pack.RoundType == "" {
		pack.RoundType = "technical_screen"
	}
	if pack.CandidateName == "" {
		pack.CandidateName = "the candidate"
	}
	if pack.InterviewerName == "" {
		pack.InterviewerName = "Interviewer"
	}
	return pack
}

// normalizeFamily maps free-form role family strings onto the families the
// fallback bank knows about.
func normalizeFamily(family string) string {
	f := strings.ToLower(strings.TrimSpace(family))
	switch {
	case f == "":
		return "engineering"
	case strings.Contains(f, "data"), strings.Contains(f, "ml"), strings.Contains(f, "machine learning"):
		return "data"
	case strings.Contains(f, "product"):
		return "product"
	case strings.Contains(f, "eng"), strings.Contains(f, "software"), strings.Contains(f, "developer"):
		return "engineering"
	default:
		return f
	}
}

func dedupeTrimmed(values []string) []string {
	out := make([]string, 0, len(values))
	seen := make(map[string]bool, len(values))
	for _, v := range values {
		v = strings.TrimSpace(v)
		key := strings.ToLower(v)
		if v == "" || seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, v)
	}
	return out
}
