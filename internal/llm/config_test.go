package llm

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestConfigModelFallbackChain(t *testing.T) {
	cfg := &Config{
		Provider: ProviderGemini,
		Models: map[ModelTier]string{
			TierLite: "lite-model",
		},
	}

	// Unknown tier falls through standard to lite.
	assert.Equal(t, "lite-model", cfg.Model(TierAdvanced))

	cfg.Models[TierStandard] = "standard-model"
	assert.Equal(t, "standard-model", cfg.Model(TierAdvanced))

	cfg.Models[TierAdvanced] = "advanced-model"
	assert.Equal(t, "advanced-model", cfg.Model(TierAdvanced))

	empty := &Config{Provider: ProviderGemini, Models: map[ModelTier]string{}}
	assert.Equal(t, "", empty.Model(TierStandard))
}

func TestConfigWithModelDoesNotMutateOriginal(t *testing.T) {
	base := DefaultConfig()
	modified := base.WithModel(TierStandard, "custom-model")

	assert.Equal(t, "custom-model", modified.Model(TierStandard))
	assert.NotEqual(t, "custom-model", base.Model(TierStandard))
}

func TestConfigWithTemperature(t *testing.T) {
	base := DefaultConfig()
	modified := base.WithTemperature(0.7)

	assert.InDelta(t, 0.7, float64(modified.Temperature), 1e-6)
	assert.InDelta(t, 0.2, float64(base.Temperature), 1e-6)
	assert.Equal(t, base.Model(TierLite), modified.Model(TierLite))
}

func TestCleanJSONBlock(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"plain json", `{"a":1}`, `{"a":1}`},
		{"json fence", "```json\n{\"a\":1}\n```", `{"a":1}`},
		{"bare fence", "```\n{\"a\":1}\n```", `{"a":1}`},
		{"language fence", "```javascript\n{\"a\":1}\n```", `{"a":1}`},
		{"surrounding whitespace", "  {\"a\":1}\n", `{"a":1}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, CleanJSONBlock(tt.input))
		})
	}
}
