// Package llm provides the reasoning-call client abstraction used by the
// interview pipelines, with centralized model configuration so the three
// pipelines can be pointed at different model tiers independently.
package llm

// ModelTier represents the complexity/capability level of a model.
type ModelTier string

const (
	// TierLite is for cheap per-turn work: answer classification and
	// evidence extraction.
	TierLite ModelTier = "lite"
	// TierStandard is for structured per-turn reasoning: question control.
	TierStandard ModelTier = "standard"
	// TierAdvanced is for the once-per-session final evaluation.
	TierAdvanced ModelTier = "advanced"
)

// Provider represents an LLM provider.
type Provider string

// Supported providers.
const (
	ProviderGemini Provider = "gemini"
)

// Config holds the model configuration for the reasoning client. Every call
// carries a concrete model identifier and temperature; pipelines never see
// provider defaults leak through implicitly.
type Config struct {
	Provider    Provider
	Models      map[ModelTier]string
	Temperature float32
}

// DefaultConfig returns the default Gemini configuration. Low temperature
// keeps structured outputs stable across turns.
func DefaultConfig() *Config {
	return &Config{
		Provider: ProviderGemini,
		Models: map[ModelTier]string{
			TierLite:     "gemini-2.5-flash-lite",
			TierStandard: "gemini-2.5-flash",
			TierAdvanced: "gemini-2.5-pro",
		},
		Temperature: 0.2,
	}
}

// Model returns the model name for a given tier, falling back through
// standard then lite if the tier is not configured.
func (c *Config) Model(tier ModelTier) string {
	if model, ok := c.Models[tier]; ok {
		return model
	}
	if model, ok := c.Models[TierStandard]; ok {
		return model
	}
	if model, ok := c.Models[TierLite]; ok {
		return model
	}
	return ""
}

// WithModel returns a copy of the Config with one tier remapped.
func (c *Config) WithModel(tier ModelTier, model string) *Config {
	out := c.clone()
	out.Models[tier] = model
	return out
}

// WithTemperature returns a copy of the Config with a different temperature.
func (c *Config) WithTemperature(t float32) *Config {
	out := c.clone()
	out.Temperature = t
	return out
}

func (c *Config) clone() *Config {
	out := &Config{
		Provider:    c.Provider,
		Models:      make(map[ModelTier]string, len(c.Models)),
		Temperature: c.Temperature,
	}
	for k, v := range c.Models {
		out.Models[k] = v
	}
	return out
}
